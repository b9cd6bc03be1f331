package llmcall

import (
	"context"
	"sort"
	"time"
)

// Stats summarizes a set of recorded calls.
type Stats struct {
	Count        int `json:"count" yaml:"count"`
	SuccessCount int `json:"success_count" yaml:"success_count"`
	ErrorCount   int `json:"error_count" yaml:"error_count"`

	InputTokens  int `json:"input_tokens" yaml:"input_tokens"`
	OutputTokens int `json:"output_tokens" yaml:"output_tokens"`

	// Latency percentiles
	LatencyP50 time.Duration `json:"latency_p50" yaml:"latency_p50"`
	LatencyP95 time.Duration `json:"latency_p95" yaml:"latency_p95"`
	LatencyAvg time.Duration `json:"latency_avg" yaml:"latency_avg"`
	LatencyMax time.Duration `json:"latency_max" yaml:"latency_max"`

	ByModel map[string]int `json:"by_model,omitempty" yaml:"by_model,omitempty"`
}

// Stats returns statistics for the calls matching the filter. Limit is
// ignored.
func (s *Store) Stats(ctx context.Context, f QueryFilter) (*Stats, error) {
	f.Limit = 0
	calls, err := s.List(ctx, f)
	if err != nil {
		return nil, err
	}
	return Summarize(calls), nil
}

// Summarize aggregates calls.
func Summarize(calls []Call) *Stats {
	st := &Stats{Count: len(calls)}
	if len(calls) == 0 {
		return st
	}
	st.ByModel = make(map[string]int)

	latencies := make([]time.Duration, 0, len(calls))
	var total time.Duration
	for _, c := range calls {
		if c.Success {
			st.SuccessCount++
		} else {
			st.ErrorCount++
		}
		st.InputTokens += c.InputTokens
		st.OutputTokens += c.OutputTokens
		st.ByModel[c.Provider+"/"+c.Model]++

		d := time.Duration(c.LatencyMs) * time.Millisecond
		latencies = append(latencies, d)
		total += d
	}

	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })
	st.LatencyP50 = percentile(latencies, 50)
	st.LatencyP95 = percentile(latencies, 95)
	st.LatencyAvg = total / time.Duration(len(latencies))
	st.LatencyMax = latencies[len(latencies)-1]
	return st
}

// percentile uses nearest rank on sorted values.
func percentile(sorted []time.Duration, p int) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := (p*len(sorted) + 99) / 100
	if idx < 1 {
		idx = 1
	}
	if idx > len(sorted) {
		idx = len(sorted)
	}
	return sorted[idx-1]
}
