package vector

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/qdrant/go-client/qdrant"

	"github.com/campaign-os/assistant/config"
)

var qdrantClient *qdrant.Client

// InitQdrant connects to Qdrant, creates the pattern collection if missing
// and ensures the payload indexes the sidebar filters rely on.
func InitQdrant() error {
	host := config.QdrantHost
	if host == "" {
		return fmt.Errorf("missing Qdrant host")
	}
	host = strings.TrimPrefix(strings.TrimPrefix(host, "https://"), "http://")

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:                   host,
		Port:                   config.QdrantPort,
		APIKey:                 config.QdrantAPIKey,
		UseTLS:                 true,
		SkipCompatibilityCheck: true,
	})
	if err != nil {
		return fmt.Errorf("creating qdrant client: %w", err)
	}
	qdrantClient = client

	if err := ensureCollection(); err != nil {
		return err
	}
	return ensurePayloadIndexes()
}

func ensureCollection() error {
	ctx := context.Background()
	collections, err := qdrantClient.ListCollections(ctx)
	if err != nil {
		return fmt.Errorf("listing collections: %w", err)
	}
	for _, col := range collections {
		if col == config.QdrantCollection {
			return nil
		}
	}

	log.Printf("[qdrant] creating collection %s", config.QdrantCollection)
	err = qdrantClient.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: config.QdrantCollection,
		VectorsConfig: &qdrant.VectorsConfig{
			Config: &qdrant.VectorsConfig_Params{
				Params: &qdrant.VectorParams{
					Size:     uint64(config.GeminiEmbeddingDimensions),
					Distance: qdrant.Distance_Cosine,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("creating collection: %w", err)
	}
	return nil
}

// filterableFields are the payload keys the chat UI can filter on.
var filterableFields = []struct {
	name string
	kind qdrant.FieldType
}{
	{"campaign_objective", qdrant.FieldType_FieldTypeKeyword},
	{"campaign_status", qdrant.FieldType_FieldTypeKeyword},
	{"ad_status", qdrant.FieldType_FieldTypeKeyword},
	{"format_category", qdrant.FieldType_FieldTypeKeyword},
	{"language", qdrant.FieldType_FieldTypeKeyword},
	{"length", qdrant.FieldType_FieldTypeInteger},
	{"has_emoji", qdrant.FieldType_FieldTypeBool},
	{"spend", qdrant.FieldType_FieldTypeFloat},
	{"ctr", qdrant.FieldType_FieldTypeFloat},
	{"roas", qdrant.FieldType_FieldTypeFloat},
}

func ensurePayloadIndexes() error {
	ctx := context.Background()

	existing := map[string]bool{}
	if info, err := qdrantClient.GetCollectionInfo(ctx, config.QdrantCollection); err == nil && info.PayloadSchema != nil {
		for name := range info.PayloadSchema {
			existing[name] = true
		}
	}

	for _, field := range filterableFields {
		if existing[field.name] {
			continue
		}
		var params *qdrant.PayloadIndexParams
		switch field.kind {
		case qdrant.FieldType_FieldTypeInteger:
			params = &qdrant.PayloadIndexParams{
				IndexParams: &qdrant.PayloadIndexParams_IntegerIndexParams{IntegerIndexParams: &qdrant.IntegerIndexParams{}},
			}
		case qdrant.FieldType_FieldTypeFloat:
			params = qdrant.NewPayloadIndexParamsFloat(&qdrant.FloatIndexParams{})
		case qdrant.FieldType_FieldTypeBool:
			params = &qdrant.PayloadIndexParams{
				IndexParams: &qdrant.PayloadIndexParams_BoolIndexParams{BoolIndexParams: &qdrant.BoolIndexParams{}},
			}
		default:
			params = qdrant.NewPayloadIndexParamsKeyword(&qdrant.KeywordIndexParams{})
		}

		kind := field.kind
		wait := true
		_, err := qdrantClient.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
			CollectionName:   config.QdrantCollection,
			FieldName:        field.name,
			FieldType:        &kind,
			FieldIndexParams: params,
			Wait:             &wait,
		})
		if err != nil {
			if strings.Contains(strings.ToLower(err.Error()), "already exists") {
				continue
			}
			return fmt.Errorf("creating index for %s: %w", field.name, err)
		}
		log.Printf("[qdrant] created payload index %s", field.name)
	}
	return nil
}

// pointID maps a platform ad id (a numeric string) onto a numeric point id.
func pointID(adID string) (*qdrant.PointId, error) {
	n, err := strconv.ParseUint(adID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("ad id %q is not numeric: %w", adID, err)
	}
	return qdrant.NewIDNum(n), nil
}

func toQdrantPayload(payload map[string]interface{}) map[string]*qdrant.Value {
	out := make(map[string]*qdrant.Value, len(payload))
	for k, v := range payload {
		switch val := v.(type) {
		case string:
			out[k] = &qdrant.Value{Kind: &qdrant.Value_StringValue{StringValue: val}}
		case int:
			out[k] = &qdrant.Value{Kind: &qdrant.Value_IntegerValue{IntegerValue: int64(val)}}
		case int64:
			out[k] = &qdrant.Value{Kind: &qdrant.Value_IntegerValue{IntegerValue: val}}
		case float64:
			out[k] = &qdrant.Value{Kind: &qdrant.Value_DoubleValue{DoubleValue: val}}
		case bool:
			out[k] = &qdrant.Value{Kind: &qdrant.Value_BoolValue{BoolValue: val}}
		default:
			out[k] = &qdrant.Value{Kind: &qdrant.Value_StringValue{StringValue: fmt.Sprintf("%v", val)}}
		}
	}
	return out
}

// UpsertPatterns writes one batch of pattern vectors. Non-numeric ad ids are
// logged and skipped rather than failing the batch.
func UpsertPatterns(adIDs []string, embeddings [][]float32, payloads []map[string]interface{}) error {
	if qdrantClient == nil {
		return fmt.Errorf("qdrant client not initialized")
	}
	if len(adIDs) != len(embeddings) || len(adIDs) != len(payloads) {
		return fmt.Errorf("mismatched lengths: ids=%d embeddings=%d payloads=%d",
			len(adIDs), len(embeddings), len(payloads))
	}
	if len(adIDs) == 0 {
		return nil
	}

	var points []*qdrant.PointStruct
	for i, adID := range adIDs {
		id, err := pointID(adID)
		if err != nil {
			log.Printf("[qdrant] skipping %v", err)
			continue
		}
		points = append(points, &qdrant.PointStruct{
			Id: id,
			Vectors: &qdrant.Vectors{
				VectorsOptions: &qdrant.Vectors_Vector{
					Vector: &qdrant.Vector{
						Vector: &qdrant.Vector_Dense{
							Dense: &qdrant.DenseVector{Data: embeddings[i]},
						},
					},
				},
			},
			Payload: toQdrantPayload(payloads[i]),
		})
	}
	if len(points) == 0 {
		return nil
	}

	_, err := qdrantClient.Upsert(context.Background(), &qdrant.UpsertPoints{
		CollectionName: config.QdrantCollection,
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("upserting %d patterns: %w", len(points), err)
	}
	log.Printf("[qdrant] upserted %d patterns", len(points))
	return nil
}

// DeletePattern removes one ad's vector.
func DeletePattern(adID string) error {
	if qdrantClient == nil {
		return fmt.Errorf("qdrant client not initialized")
	}
	id, err := pointID(adID)
	if err != nil {
		return err
	}
	_, err = qdrantClient.Delete(context.Background(), &qdrant.DeletePoints{
		CollectionName: config.QdrantCollection,
		Points: &qdrant.PointsSelector{
			PointsSelectorOneOf: &qdrant.PointsSelector_Points{
				Points: &qdrant.PointsIdsList{Ids: []*qdrant.PointId{id}},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("deleting pattern %s: %w", adID, err)
	}
	return nil
}

// PatternHit is one similarity-search result.
type PatternHit struct {
	AdID        string
	Score       float32
	PatternText string
}

// QueryPatterns runs a filtered similarity search and returns scored hits in
// ranking order.
func QueryPatterns(embedding []float32, filter *qdrant.Filter, topK int, threshold float64) ([]PatternHit, error) {
	if qdrantClient == nil {
		return nil, fmt.Errorf("qdrant client not initialized")
	}

	limit := uint64(topK)
	scoreThreshold := float32(threshold)
	resp, err := qdrantClient.Query(context.Background(), &qdrant.QueryPoints{
		CollectionName: config.QdrantCollection,
		Query:          qdrant.NewQueryDense(embedding),
		Filter:         filter,
		Limit:          &limit,
		ScoreThreshold: &scoreThreshold,
		WithPayload: &qdrant.WithPayloadSelector{
			SelectorOptions: &qdrant.WithPayloadSelector_Enable{Enable: true},
		},
		WithVectors: &qdrant.WithVectorsSelector{
			SelectorOptions: &qdrant.WithVectorsSelector_Enable{Enable: false},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("querying patterns: %w", err)
	}

	hits := make([]PatternHit, 0, len(resp))
	for _, point := range resp {
		hit := PatternHit{
			AdID:  strconv.FormatUint(point.Id.GetNum(), 10),
			Score: point.Score,
		}
		if v, ok := point.Payload["pattern_text"]; ok {
			hit.PatternText = v.GetStringValue()
		}
		hits = append(hits, hit)
	}
	log.Printf("[qdrant] query returned %d hits (topK %d, threshold %.2f)", len(hits), topK, threshold)
	return hits, nil
}

// FilterParams are the chat sidebar's categorical filters. Empty values mean
// no constraint.
type FilterParams struct {
	Objective      string
	CampaignStatus string
	AdStatus       string
	Format         string
}

// BuildFilter turns sidebar selections into a Qdrant filter; nil when nothing
// is selected.
func BuildFilter(p FilterParams) *qdrant.Filter {
	var must []*qdrant.Condition
	add := func(key, value string) {
		if value == "" {
			return
		}
		must = append(must, &qdrant.Condition{
			ConditionOneOf: &qdrant.Condition_Field{
				Field: &qdrant.FieldCondition{
					Key:   key,
					Match: &qdrant.Match{MatchValue: &qdrant.Match_Keyword{Keyword: value}},
				},
			},
		})
	}
	add("campaign_objective", p.Objective)
	add("campaign_status", p.CampaignStatus)
	add("ad_status", p.AdStatus)
	add("format_category", p.Format)
	if len(must) == 0 {
		return nil
	}
	return &qdrant.Filter{Must: must}
}
