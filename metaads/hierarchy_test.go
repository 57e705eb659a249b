package metaads

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildHierarchyGroupsAds(t *testing.T) {
	ads := []*Ad{
		{ID: "ad1", Campaign: &Campaign{ID: "c1", Name: "Spring"}, AdSet: &AdSet{ID: "s1", Name: "Broad"}},
		{ID: "ad2", Campaign: &Campaign{ID: "c1", Name: "Spring"}, AdSet: &AdSet{ID: "s1", Name: "Broad"}},
		{ID: "ad3", Campaign: &Campaign{ID: "c1", Name: "Spring"}, AdSet: &AdSet{ID: "s2", Name: "Retargeting"}},
		{ID: "ad4", Campaign: &Campaign{ID: "c2", Name: "Fall"}, AdSet: &AdSet{ID: "s3", Name: "Lookalike"}},
	}

	h := BuildHierarchy(ads)
	require.Len(t, h, 2)
	require.Len(t, h["c1"].AdSets, 2)
	assert.Len(t, h["c1"].AdSets["s1"].Ads, 2)
	assert.Len(t, h["c1"].AdSets["s2"].Ads, 1)
	assert.Len(t, h["c2"].AdSets["s3"].Ads, 1)
	assert.Equal(t, "Spring", h["c1"].Name)
	assert.Equal(t, "Retargeting", h["c1"].AdSets["s2"].Name)
}

func TestBuildHierarchyFirstWriterWins(t *testing.T) {
	ads := []*Ad{
		{ID: "ad1", Campaign: &Campaign{ID: "c1", Name: "Original", Objective: "SALES"}, AdSet: &AdSet{ID: "s1", Name: "SetA"}},
		{ID: "ad2", Campaign: &Campaign{ID: "c1", Name: "Renamed"}, AdSet: &AdSet{ID: "s1", Name: "SetB"}},
	}

	h := BuildHierarchy(ads)
	assert.Equal(t, "Original", h["c1"].Name)
	assert.Equal(t, "SALES", h["c1"].Objective)
	assert.Equal(t, "SetA", h["c1"].AdSets["s1"].Name)
	assert.Len(t, h["c1"].AdSets["s1"].Ads, 2, "disagreeing ad is still grouped")
}

func TestBuildHierarchySkipsAdsMissingParents(t *testing.T) {
	ads := []*Ad{
		{ID: "ok", Campaign: &Campaign{ID: "c1"}, AdSet: &AdSet{ID: "s1"}},
		{ID: "no-campaign", AdSet: &AdSet{ID: "s1"}},
		{ID: "no-adset", Campaign: &Campaign{ID: "c1"}},
		{ID: "empty-ids", Campaign: &Campaign{}, AdSet: &AdSet{}},
	}

	h := BuildHierarchy(ads)
	require.Len(t, h, 1)
	assert.Len(t, h["c1"].AdSets["s1"].Ads, 1)
	assert.Equal(t, "ok", h["c1"].AdSets["s1"].Ads[0].ID)
}
