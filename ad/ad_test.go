package ad

import (
	"database/sql/driver"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campaign-os/assistant/db"
	"github.com/campaign-os/assistant/metaads"
)

func setupMock(t *testing.T) sqlmock.Sqlmock {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	db.SetForTesting(mockDB)
	t.Cleanup(func() { mockDB.Close() })
	return mock
}

func adColumns() []string {
	return []string{
		"ad_id", "ad_name", "ad_status", "format_category",
		"campaign_id", "campaign_name", "campaign_objective", "campaign_status",
		"adset_id", "adset_name", "optimization_goal",
		"copy_text", "link_url", "image_paths", "video_path", "remote_image_url",
		"spend", "impressions", "clicks", "ctr", "roas", "conversions", "conversion_rate", "has_vector",
	}
}

func rowValues(id string) []driver.Value {
	return []driver.Value{
		id, "name", "Active", "Static Image",
		"c1", "Spring", "OUTCOME_SALES", "Active",
		"s1", "Broad", "OFFSITE_CONVERSIONS",
		"copy", "https://example.com", "img.jpg", "", "",
		10.5, 1000, 50, 5.0, 2.1, 4, 8.0, false,
	}
}

func TestUpsertFlatRows(t *testing.T) {
	mock := setupMock(t)
	mock.ExpectExec("INSERT INTO ads").
		WithArgs(
			"ad1", "Hero", "Active", "Static Image",
			"c1", "Spring", "OUTCOME_SALES", "Paused",
			"s1", "Broad", "OFFSITE_CONVERSIONS",
			"copy", "https://x", "img.jpg", "", "",
			12.5, 100, 10, 10.0, 2.0, 3, 30.0,
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := UpsertFlatRows([]metaads.FlatRow{{
		AdID: "ad1", AdName: "Hero", AdStatus: "Active", FormatCategory: "Static Image",
		CampaignID: "c1", CampaignName: "Spring", CampaignObjective: "OUTCOME_SALES", CampaignStatus: "Paused",
		AdSetID: "s1", AdSetName: "Broad", OptimizationGoal: "OFFSITE_CONVERSIONS",
		CopyText: "copy", LinkURL: "https://x", ImagePaths: "img.jpg",
		Spend: 12.5, Impressions: 100, Clicks: 10, CTR: 10.0, ROAS: 2.0,
		Conversions: 3, ConversionRate: 30.0,
	}})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByIDsPreservesRequestOrder(t *testing.T) {
	mock := setupMock(t)
	rows := sqlmock.NewRows(adColumns()).
		AddRow(rowValues("a")...).
		AddRow(rowValues("b")...)
	mock.ExpectQuery("SELECT (.+) FROM ads WHERE ad_id IN").
		WithArgs("b", "missing", "a").
		WillReturnRows(rows)

	got, err := GetByIDs([]string{"b", "missing", "a"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].AdID, "search ranking order is kept")
	assert.Equal(t, "a", got[1].AdID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByIDsEmptyInput(t *testing.T) {
	setupMock(t)
	got, err := GetByIDs(nil)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestGetAdsWithoutVectors(t *testing.T) {
	mock := setupMock(t)
	rows := sqlmock.NewRows(adColumns()).AddRow(rowValues("a1")...)
	mock.ExpectQuery("SELECT (.+) FROM ads WHERE has_vector = 0").
		WithArgs(50).
		WillReturnRows(rows)

	got, err := GetAdsWithoutVectors(50)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "a1", got[0].AdID)
	assert.False(t, got[0].HasVector)
}

func TestMarkAsHavingVector(t *testing.T) {
	mock := setupMock(t)
	mock.ExpectExec("UPDATE ads SET has_vector = 1").
		WithArgs("a1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, MarkAsHavingVector("a1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetFilterOptions(t *testing.T) {
	mock := setupMock(t)
	mock.ExpectQuery("SELECT DISTINCT campaign_objective").
		WillReturnRows(sqlmock.NewRows([]string{"campaign_objective"}).AddRow("OUTCOME_SALES").AddRow("OUTCOME_TRAFFIC"))
	mock.ExpectQuery("SELECT DISTINCT campaign_status").
		WillReturnRows(sqlmock.NewRows([]string{"campaign_status"}).AddRow("Active").AddRow("Paused"))
	mock.ExpectQuery("SELECT DISTINCT ad_status").
		WillReturnRows(sqlmock.NewRows([]string{"ad_status"}).AddRow("Active"))
	mock.ExpectQuery("SELECT DISTINCT format_category").
		WillReturnRows(sqlmock.NewRows([]string{"format_category"}).AddRow("Carousel").AddRow("Video/Reel"))

	opts, err := GetFilterOptions()
	require.NoError(t, err)
	assert.Equal(t, []string{"OUTCOME_SALES", "OUTCOME_TRAFFIC"}, opts.Objectives)
	assert.Equal(t, []string{"Active", "Paused"}, opts.CampaignStatuses)
	assert.Equal(t, []string{"Active"}, opts.Statuses)
	assert.Equal(t, []string{"Carousel", "Video/Reel"}, opts.Formats)
}
