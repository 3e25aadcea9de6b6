package experiment

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/restaurant-phone-agent/internal/model"
)

// alternating builds n calls whose overall score alternates between lo
// and hi, starting with lo.
func alternating(variant string, n int, lo, hi float64) []model.ScoredCall {
	calls := make([]model.ScoredCall, 0, n)
	for i := 0; i < n; i++ {
		v := lo
		if i%2 == 1 {
			v = hi
		}
		calls = append(calls, model.ScoredCall{
			CallID:           variant,
			Variant:          variant,
			BookingCompleted: i%3 == 0,
			Quality:          model.CallQuality{Overall: v, Efficiency: v, Accuracy: 100},
		})
	}
	return calls
}

func find(t *testing.T, r Report, name string) VariantStats {
	t.Helper()
	for _, v := range r.Variants {
		if v.Variant == name {
			return v
		}
	}
	t.Fatalf("variant %s missing", name)
	return VariantStats{}
}

func TestAnalyzeSignificantGapWithEnoughCalls(t *testing.T) {
	calls := append(alternating("v2_friendly", 35, 80, 90), alternating("v1_baseline", 35, 77.5, 87.5)...)

	r := Analyze(calls)

	require.Len(t, r.Variants, 2)
	assert.Equal(t, "v2_friendly", r.Leader)
	leader := find(t, r, "v2_friendly")
	assert.True(t, leader.Winner)
	assert.Equal(t, 1, leader.Rank)
	assert.Nil(t, leader.VsLeader)

	lower := find(t, r, "v1_baseline")
	require.NotNil(t, lower.VsLeader)
	assert.Greater(t, math.Abs(lower.VsLeader.TStatistic), 1.96)
	assert.Greater(t, lower.VsLeader.DegreesFree, 30.0)
	assert.Equal(t, 0.05, lower.VsLeader.PValue)
	assert.True(t, lower.VsLeader.IsSignificant)
}

func TestAnalyzeSmallSamplesNeverSignificant(t *testing.T) {
	calls := append(alternating("v2_friendly", 10, 80, 90), alternating("v1_baseline", 10, 60, 70)...)

	r := Analyze(calls)

	leader := find(t, r, "v2_friendly")
	assert.False(t, leader.Winner)
	lower := find(t, r, "v1_baseline")
	assert.Nil(t, lower.VsLeader)
}

func TestAnalyzeOnlyLeaderNeedsEnoughSamplesToWin(t *testing.T) {
	calls := append(alternating("v3_efficient", 30, 90, 90), alternating("v1_baseline", 5, 50, 50)...)

	r := Analyze(calls)

	assert.True(t, find(t, r, "v3_efficient").Winner)
	assert.Nil(t, find(t, r, "v1_baseline").VsLeader)
}

func TestAnalyzeAggregates(t *testing.T) {
	calls := []model.ScoredCall{
		{Variant: "a", BookingCompleted: true, Quality: model.CallQuality{Overall: 80, Efficiency: 90, Accuracy: 70, Helpfulness: 100, Naturalness: 75, Professionalism: 75}},
		{Variant: "a", BookingCompleted: false, Quality: model.CallQuality{Overall: 60, Efficiency: 70, Accuracy: 90, Helpfulness: 50, Naturalness: 75, Professionalism: 85}},
		{Variant: "b", BookingCompleted: true, Quality: model.CallQuality{Overall: 70}},
		{Variant: "", Quality: model.CallQuality{Overall: 70}},
	}

	r := Analyze(calls)

	assert.Equal(t, 4, r.TotalCalls)
	require.Len(t, r.Variants, 3)
	a := find(t, r, "a")
	assert.Equal(t, 2, a.Calls)
	assert.InDelta(t, 0.5, a.BookingRate, 1e-9)
	assert.InDelta(t, 70, a.MeanOverall, 1e-9)
	assert.InDelta(t, 80, a.MeanEfficiency, 1e-9)
	assert.InDelta(t, 80, a.MeanAccuracy, 1e-9)
	assert.InDelta(t, 75, a.MeanHelpfulness, 1e-9)
	assert.InDelta(t, 80, a.MeanProfessionalism, 1e-9)

	// equal means rank by name
	assert.Equal(t, []string{"a", "b", "unknown"}, []string{r.Variants[0].Variant, r.Variants[1].Variant, r.Variants[2].Variant})
}

func TestAnalyzeEmpty(t *testing.T) {
	r := Analyze(nil)
	assert.Empty(t, r.Variants)
	assert.Empty(t, r.Leader)
}

func TestWelchZeroVariance(t *testing.T) {
	tStat, df := welch([]float64{80, 80}, 80, []float64{70, 70, 70}, 70)
	assert.True(t, math.IsInf(tStat, 1))
	assert.Equal(t, 3.0, df)

	tStat, _ = welch([]float64{80, 80}, 80, []float64{80, 80}, 80)
	assert.Zero(t, tStat)
}

func TestApproximatePValue(t *testing.T) {
	assert.Equal(t, 0.01, approximatePValue(-2.6, 40))
	assert.Equal(t, 0.05, approximatePValue(2.0, 40))
	assert.Equal(t, 0.10, approximatePValue(1.7, 40))
	assert.Equal(t, 0.20, approximatePValue(1.0, 40))
	assert.Equal(t, 0.10, approximatePValue(5.0, 30))
}
