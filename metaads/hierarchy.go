package metaads

import "log"

// Hierarchy groups ads under their campaign and ad set, keyed by id at both
// levels. It serializes directly as dataset.json.
type Hierarchy map[string]*CampaignNode

type CampaignNode struct {
	ID          string                `json:"id"`
	Name        string                `json:"name,omitempty"`
	Objective   string                `json:"objective,omitempty"`
	Status      string                `json:"status,omitempty"`
	DailyBudget string                `json:"daily_budget,omitempty"`
	StartTime   string                `json:"start_time,omitempty"`
	StopTime    string                `json:"stop_time,omitempty"`
	AdSets      map[string]*AdSetNode `json:"adsets"`
}

type AdSetNode struct {
	ID               string                 `json:"id"`
	Name             string                 `json:"name,omitempty"`
	OptimizationGoal string                 `json:"optimization_goal,omitempty"`
	Status           string                 `json:"status,omitempty"`
	DailyBudget      string                 `json:"daily_budget,omitempty"`
	Targeting        map[string]interface{} `json:"targeting,omitempty"`
	Ads              []*Ad                  `json:"ads"`
}

// BuildHierarchy groups ads by campaign and ad set, creating nodes lazily.
// Node descriptive fields come from the first ad that mentions the node; a
// later ad that disagrees on the name is logged but never overwrites. Ads
// missing either parent id are skipped and counted.
func BuildHierarchy(ads []*Ad) Hierarchy {
	h := Hierarchy{}
	var skipped int

	for _, ad := range ads {
		if ad.Campaign == nil || ad.Campaign.ID == "" || ad.AdSet == nil || ad.AdSet.ID == "" {
			skipped++
			log.Printf("[hierarchy] ad %s missing campaign or adset, skipping", ad.ID)
			continue
		}

		camp, ok := h[ad.Campaign.ID]
		if !ok {
			camp = &CampaignNode{
				ID:          ad.Campaign.ID,
				Name:        ad.Campaign.Name,
				Objective:   ad.Campaign.Objective,
				Status:      ad.Campaign.Status,
				DailyBudget: ad.Campaign.DailyBudget,
				StartTime:   ad.Campaign.StartTime,
				StopTime:    ad.Campaign.StopTime,
				AdSets:      map[string]*AdSetNode{},
			}
			h[ad.Campaign.ID] = camp
		} else if ad.Campaign.Name != "" && camp.Name != ad.Campaign.Name {
			log.Printf("[hierarchy] campaign %s name disagreement: kept %q, ad %s says %q",
				camp.ID, camp.Name, ad.ID, ad.Campaign.Name)
		}

		set, ok := camp.AdSets[ad.AdSet.ID]
		if !ok {
			set = &AdSetNode{
				ID:               ad.AdSet.ID,
				Name:             ad.AdSet.Name,
				OptimizationGoal: ad.AdSet.OptimizationGoal,
				Status:           ad.AdSet.Status,
				DailyBudget:      ad.AdSet.DailyBudget,
				Targeting:        ad.AdSet.Targeting,
			}
			camp.AdSets[ad.AdSet.ID] = set
		} else if ad.AdSet.Name != "" && set.Name != ad.AdSet.Name {
			log.Printf("[hierarchy] adset %s name disagreement: kept %q, ad %s says %q",
				set.ID, set.Name, ad.ID, ad.AdSet.Name)
		}

		set.Ads = append(set.Ads, ad)
	}

	if skipped > 0 {
		log.Printf("[hierarchy] %d ads skipped for missing parents", skipped)
	}
	return h
}
