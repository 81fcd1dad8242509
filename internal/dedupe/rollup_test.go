package dedupe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/galad-data/govdata-cli/internal/model"
)

func floatp(v float64) *float64 { return &v }
func intp(v int) *int           { return &v }

func TestRollUp_ChildAbsorbedIntoParent(t *testing.T) {
	report := model.NewRunReport("t")
	entities := []model.Entity{
		{EntityID: "usa-union-parent", Independent: true},
		{EntityID: "usa-union-child", ParentID: "usa-union-parent", MemberCount: floatp(12000), MemberCountYear: intp(2023)},
	}
	out, remap, err := RollUp(entities, report)
	require.NoError(t, err)

	require.Len(t, out, 1)
	parent := out[0]
	assert.Equal(t, "usa-union-parent", parent.EntityID)
	require.NotNil(t, parent.MemberCount)
	assert.Equal(t, 12000.0, *parent.MemberCount)
	assert.Equal(t, 2023, *parent.MemberCountYear)
	assert.Equal(t, "usa-union-parent", remap["usa-union-child"])
}

func TestRollUp_ParentValueNotOverwritten(t *testing.T) {
	report := model.NewRunReport("t")
	entities := []model.Entity{
		{EntityID: "usa-union-parent", Independent: true, MemberCount: floatp(50000)},
		{EntityID: "usa-union-child", ParentID: "usa-union-parent", MemberCount: floatp(12000)},
	}
	out, _, err := RollUp(entities, report)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, 50000.0, *out[0].MemberCount)
}

func TestRollUp_IndependentChildNotFolded(t *testing.T) {
	report := model.NewRunReport("t")
	entities := []model.Entity{
		{EntityID: "usa-union-parent", Independent: true},
		{EntityID: "usa-union-child", ParentID: "usa-union-parent", Independent: true, MemberCount: floatp(12000)},
	}
	out, remap, err := RollUp(entities, report)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Nil(t, out[0].MemberCount)
	assert.Empty(t, remap)
}

func TestRollUp_ChainAbsorbsToSurvivingAncestor(t *testing.T) {
	report := model.NewRunReport("t")
	entities := []model.Entity{
		{EntityID: "usa-union-top", Independent: true},
		{EntityID: "usa-union-mid", ParentID: "usa-union-top"},
		{EntityID: "usa-union-leaf", ParentID: "usa-union-mid", FundingUSD: floatp(2e9), FundingYear: intp(2022)},
	}
	out, remap, err := RollUp(entities, report)
	require.NoError(t, err)

	require.Len(t, out, 1)
	assert.Equal(t, "usa-union-top", out[0].EntityID)
	require.NotNil(t, out[0].FundingUSD)
	assert.Equal(t, 2e9, *out[0].FundingUSD)
	assert.Equal(t, "usa-union-top", remap["usa-union-mid"])
	assert.Equal(t, "usa-union-top", remap["usa-union-leaf"])
}

func TestRollUp_UnknownParentWarnsAndKeepsChild(t *testing.T) {
	report := model.NewRunReport("t")
	entities := []model.Entity{
		{EntityID: "usa-union-child", ParentID: "missing"},
	}
	out, _, err := RollUp(entities, report)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.NotEmpty(t, report.Warnings)
}

func TestRollUp_CycleAborts(t *testing.T) {
	report := model.NewRunReport("t")
	entities := []model.Entity{
		{EntityID: "a", ParentID: "b"},
		{EntityID: "b", ParentID: "a"},
	}
	_, _, err := RollUp(entities, report)
	assert.ErrorIs(t, err, model.ErrParentCycle)
}

func TestRollUp_SelfParentAborts(t *testing.T) {
	report := model.NewRunReport("t")
	entities := []model.Entity{
		{EntityID: "a", ParentID: "a"},
	}
	_, _, err := RollUp(entities, report)
	assert.ErrorIs(t, err, model.ErrParentCycle)
}
