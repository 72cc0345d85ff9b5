package experiment

import (
	"math"
	"sort"
	"time"
)

// ProviderSummary aggregates one provider's records. Cost and token
// statistics cover successful calls only.
type ProviderSummary struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`

	Calls       int     `json:"calls"`
	Succeeded   int     `json:"succeeded"`
	Failed      int     `json:"failed"`
	SuccessRate float64 `json:"success_rate"` // percent

	TotalCost  float64 `json:"total_cost"`
	MeanCost   float64 `json:"mean_cost"`
	MinCost    float64 `json:"min_cost"`
	MaxCost    float64 `json:"max_cost"`
	StdDevCost float64 `json:"stddev_cost"` // sample standard deviation

	InputTokens       int64 `json:"input_tokens"`
	CachedInputTokens int64 `json:"cached_input_tokens"`
	OutputTokens      int64 `json:"output_tokens"`
	ReasoningTokens   int64 `json:"reasoning_tokens"`

	// OutputTokensPerDollar is zero when nothing was billed.
	OutputTokensPerDollar float64 `json:"output_tokens_per_dollar"`

	MeanLatency       time.Duration `json:"mean_latency"`
	Retries           int           `json:"retries"`
	PricingIncomplete int           `json:"pricing_incomplete"`
}

// Outlier points at a record whose value exceeds mean + 2σ across all
// successful records of the run.
type Outlier struct {
	Trial    int     `json:"trial"`
	Provider string  `json:"provider"`
	Value    float64 `json:"value"`
	Limit    float64 `json:"limit"`
}

// Summary is the analytic view of a Result.
type Summary struct {
	RunID       string  `json:"run_id"`
	TotalCalls  int     `json:"total_calls"`
	Succeeded   int     `json:"succeeded"`
	Failed      int     `json:"failed"`
	SuccessRate float64 `json:"success_rate"`
	TotalCost   float64 `json:"total_cost"`

	// Providers follow the plan order.
	Providers []ProviderSummary `json:"providers"`

	CostOutliers   []Outlier `json:"cost_outliers,omitempty"`
	TokenOutliers  []Outlier `json:"token_outliers,omitempty"`
	LengthOutliers []Outlier `json:"length_outliers,omitempty"`
}

// Summarize computes per-provider statistics and outliers for a result.
func Summarize(res *Result) Summary {
	records := res.Snapshot()
	s := Summary{RunID: res.RunID, TotalCalls: len(records)}

	order := append([]string(nil), res.Plan.Providers...)
	byProvider := make(map[string][]CallRecord)
	for _, rec := range records {
		if _, seen := byProvider[rec.Provider]; !seen && !containsID(order, rec.Provider) {
			order = append(order, rec.Provider)
		}
		byProvider[rec.Provider] = append(byProvider[rec.Provider], rec)
	}

	var successful []CallRecord
	for _, id := range order {
		recs := byProvider[id]
		if len(recs) == 0 {
			continue
		}
		ps := summarizeProvider(id, recs)
		s.Providers = append(s.Providers, ps)
		s.Succeeded += ps.Succeeded
		s.Failed += ps.Failed
		for _, rec := range recs {
			s.TotalCost += rec.Cost.TotalCost
			if rec.Success {
				successful = append(successful, rec)
			}
		}
	}
	s.SuccessRate = percent(s.Succeeded, s.TotalCalls)

	s.CostOutliers = highOutliers(successful, func(r CallRecord) float64 { return r.Cost.TotalCost })
	s.TokenOutliers = highOutliers(successful, func(r CallRecord) float64 { return float64(r.Usage.OutputTokens) })
	s.LengthOutliers = iqrOutliers(successful, func(r CallRecord) float64 { return float64(len(r.Output)) })

	return s
}

func summarizeProvider(id string, recs []CallRecord) ProviderSummary {
	ps := ProviderSummary{Provider: id, Calls: len(recs)}

	var latency time.Duration
	var cost []float64
	for _, rec := range recs {
		latency += rec.Latency
		if rec.Attempts > 1 {
			ps.Retries += rec.Attempts - 1
		}
		if !rec.Success {
			ps.Failed++
			continue
		}
		ps.Succeeded++
		if ps.Model == "" {
			ps.Model = rec.Model
		}
		cost = append(cost, rec.Cost.TotalCost)
		ps.InputTokens += rec.Usage.InputTokens
		ps.CachedInputTokens += rec.Usage.CachedInputTokens
		ps.OutputTokens += rec.Usage.OutputTokens
		ps.ReasoningTokens += rec.Usage.ReasoningTokens
		if rec.Cost.PricingIncomplete {
			ps.PricingIncomplete++
		}
	}
	if ps.Model == "" && len(recs) > 0 {
		ps.Model = recs[0].Model
	}

	ps.SuccessRate = percent(ps.Succeeded, ps.Calls)
	ps.MeanLatency = latency / time.Duration(len(recs))

	if len(cost) > 0 {
		ps.MinCost, ps.MaxCost = cost[0], cost[0]
		for _, c := range cost {
			ps.TotalCost += c
			ps.MinCost = math.Min(ps.MinCost, c)
			ps.MaxCost = math.Max(ps.MaxCost, c)
		}
		ps.MeanCost, ps.StdDevCost = meanStdDev(cost)
	}
	if ps.TotalCost > 0 {
		ps.OutputTokensPerDollar = float64(ps.OutputTokens) / ps.TotalCost
	}

	return ps
}

// highOutliers returns records whose value is strictly above mean + 2σ.
func highOutliers(recs []CallRecord, value func(CallRecord) float64) []Outlier {
	if len(recs) < 2 {
		return nil
	}
	vals := make([]float64, len(recs))
	for i, rec := range recs {
		vals[i] = value(rec)
	}
	mean, sd := meanStdDev(vals)
	limit := mean + 2*sd

	var out []Outlier
	for i, rec := range recs {
		if vals[i] > limit {
			out = append(out, Outlier{Trial: rec.Trial, Provider: rec.Provider, Value: vals[i], Limit: limit})
		}
	}
	return out
}

// iqrOutliers returns records outside [Q1 - 1.5·IQR, Q3 + 1.5·IQR].
// Limit holds the bound that was crossed.
func iqrOutliers(recs []CallRecord, value func(CallRecord) float64) []Outlier {
	if len(recs) < 4 {
		return nil
	}
	vals := make([]float64, len(recs))
	for i, rec := range recs {
		vals[i] = value(rec)
	}
	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)

	q1, q3 := quantile(sorted, 0.25), quantile(sorted, 0.75)
	iqr := q3 - q1
	low, high := q1-1.5*iqr, q3+1.5*iqr

	var out []Outlier
	for i, rec := range recs {
		switch {
		case vals[i] < low:
			out = append(out, Outlier{Trial: rec.Trial, Provider: rec.Provider, Value: vals[i], Limit: low})
		case vals[i] > high:
			out = append(out, Outlier{Trial: rec.Trial, Provider: rec.Provider, Value: vals[i], Limit: high})
		}
	}
	return out
}

// meanStdDev returns the mean and the sample (n-1) standard deviation.
func meanStdDev(vals []float64) (float64, float64) {
	if len(vals) == 0 {
		return 0, 0
	}
	var sum float64
	for _, v := range vals {
		sum += v
	}
	mean := sum / float64(len(vals))
	if len(vals) < 2 {
		return mean, 0
	}
	var sq float64
	for _, v := range vals {
		sq += (v - mean) * (v - mean)
	}
	return mean, math.Sqrt(sq / float64(len(vals)-1))
}

// quantile interpolates linearly between closest ranks of sorted values.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	return sorted[lo] + (sorted[hi]-sorted[lo])*(pos-float64(lo))
}

func percent(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total) * 100
}

func containsID(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
