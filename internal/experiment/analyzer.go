// Package experiment compares conversational variants by the quality of
// the calls they handled.
package experiment

import (
	"math"
	"sort"

	"github.com/iliyamo/restaurant-phone-agent/internal/model"
)

// MinSamples is the number of calls a variant needs before it is
// tested for significance or declared the winner.
const MinSamples = 30

// Comparison is a Welch test of one variant against the leader.
type Comparison struct {
	Against       string  `json:"against"`
	TStatistic    float64 `json:"t_statistic"`
	DegreesFree   float64 `json:"degrees_of_freedom"`
	PValue        float64 `json:"p_value"`
	IsSignificant bool    `json:"is_significant"`
}

// VariantStats aggregates the scored calls of one variant.
type VariantStats struct {
	Variant             string      `json:"variant"`
	Rank                int         `json:"rank"`
	Calls               int         `json:"calls"`
	BookingRate         float64     `json:"booking_rate"`
	MeanOverall         float64     `json:"mean_overall"`
	MeanEfficiency      float64     `json:"mean_efficiency"`
	MeanAccuracy        float64     `json:"mean_accuracy"`
	MeanHelpfulness     float64     `json:"mean_helpfulness"`
	MeanNaturalness     float64     `json:"mean_naturalness"`
	MeanProfessionalism float64     `json:"mean_professionalism"`
	StdDevOverall       float64     `json:"stddev_overall"`
	Winner              bool        `json:"winner"`
	VsLeader            *Comparison `json:"vs_leader,omitempty"`

	overall []float64
}

// Report ranks variants by mean overall quality, best first.
type Report struct {
	TotalCalls int            `json:"total_calls"`
	Leader     string         `json:"leader,omitempty"`
	Variants   []VariantStats `json:"variants"`
}

// Analyze groups calls by variant, ranks the variants and tests the
// leader against every other variant.  Calls without a variant tag are
// grouped under "unknown".
func Analyze(calls []model.ScoredCall) Report {
	groups := map[string]*VariantStats{}
	for _, c := range calls {
		name := c.Variant
		if name == "" {
			name = "unknown"
		}
		g, ok := groups[name]
		if !ok {
			g = &VariantStats{Variant: name}
			groups[name] = g
		}
		g.Calls++
		if c.BookingCompleted {
			g.BookingRate++
		}
		q := c.Quality
		g.MeanOverall += q.Overall
		g.MeanEfficiency += q.Efficiency
		g.MeanAccuracy += q.Accuracy
		g.MeanHelpfulness += q.Helpfulness
		g.MeanNaturalness += q.Naturalness
		g.MeanProfessionalism += q.Professionalism
		g.overall = append(g.overall, q.Overall)
	}

	report := Report{TotalCalls: len(calls)}
	for _, g := range groups {
		n := float64(g.Calls)
		g.BookingRate /= n
		g.MeanOverall /= n
		g.MeanEfficiency /= n
		g.MeanAccuracy /= n
		g.MeanHelpfulness /= n
		g.MeanNaturalness /= n
		g.MeanProfessionalism /= n
		g.StdDevOverall = math.Sqrt(sampleVariance(g.overall, g.MeanOverall))
		report.Variants = append(report.Variants, *g)
	}
	sort.Slice(report.Variants, func(i, j int) bool {
		a, b := report.Variants[i], report.Variants[j]
		if a.MeanOverall != b.MeanOverall {
			return a.MeanOverall > b.MeanOverall
		}
		return a.Variant < b.Variant
	})
	if len(report.Variants) == 0 {
		return report
	}

	leader := &report.Variants[0]
	report.Leader = leader.Variant
	leader.Winner = leader.Calls >= MinSamples
	for i := range report.Variants {
		v := &report.Variants[i]
		v.Rank = i + 1
		if i == 0 || leader.Calls < MinSamples || v.Calls < MinSamples {
			continue
		}
		t, df := welch(leader.overall, leader.MeanOverall, v.overall, v.MeanOverall)
		p := approximatePValue(t, df)
		v.VsLeader = &Comparison{
			Against:       leader.Variant,
			TStatistic:    t,
			DegreesFree:   df,
			PValue:        p,
			IsSignificant: p <= 0.05,
		}
	}
	return report
}

// welch returns Welch's t statistic for the difference of means and the
// Welch-Satterthwaite degrees of freedom.  Both samples need at least
// two observations.
func welch(a []float64, meanA float64, b []float64, meanB float64) (t, df float64) {
	na, nb := float64(len(a)), float64(len(b))
	va := sampleVariance(a, meanA) / na
	vb := sampleVariance(b, meanB) / nb
	se := math.Sqrt(va + vb)
	if se == 0 {
		switch {
		case meanA == meanB:
			t = 0
		case meanA > meanB:
			t = math.Inf(1)
		default:
			t = math.Inf(-1)
		}
		return t, na + nb - 2
	}
	t = (meanA - meanB) / se
	df = (va + vb) * (va + vb) / (va*va/(na-1) + vb*vb/(nb-1))
	return t, df
}

// approximatePValue maps |t| to a two-sided p-value with fixed normal
// breakpoints rather than a t-distribution CDF.  At 30 degrees of freedom
// or fewer it reports 0.10 whatever t is.
func approximatePValue(t, df float64) float64 {
	if df <= 30 {
		return 0.10
	}
	switch at := math.Abs(t); {
	case at > 2.58:
		return 0.01
	case at > 1.96:
		return 0.05
	case at > 1.64:
		return 0.10
	default:
		return 0.20
	}
}

func sampleVariance(xs []float64, mean float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		d := x - mean
		sum += d * d
	}
	return sum / float64(len(xs)-1)
}
