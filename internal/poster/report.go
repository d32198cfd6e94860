package poster

import (
	"fmt"
	"log"
	"strings"
)

// Report is the tally of one poster run.
type Report struct {
	Results []Result
	Counts  map[Outcome]int
}

func buildReport(results []Result) *Report {
	counts := make(map[Outcome]int)
	for _, r := range results {
		counts[r.Outcome]++
	}
	return &Report{Results: results, Counts: counts}
}

// HasFailures reports whether any record failed to post or resolve.
// Calling automation uses this to pick the process exit code.
func (r *Report) HasFailures() bool {
	return r.Counts[OutcomeFailed] > 0 || r.Counts[OutcomeResolveFailed] > 0
}

// Summary renders the per-outcome tally in a fixed order.
func (r *Report) Summary() string {
	order := []Outcome{
		OutcomeSuccess,
		OutcomeResolveFailed,
		OutcomeFailed,
		OutcomeSkipped,
		OutcomePending,
		OutcomeNoThreadID,
		OutcomeAlreadyPosted,
	}
	parts := make([]string, 0, len(order))
	for _, o := range order {
		parts = append(parts, fmt.Sprintf("%s=%d", o, r.Counts[o]))
	}
	return strings.Join(parts, " ")
}

// Log writes the summary and every failed record to the diagnostic stream.
func (r *Report) Log() {
	log.Printf("[Poster] Processed %d records: %s", len(r.Results), r.Summary())
	for _, res := range r.Results {
		if res.Err != nil {
			log.Printf("[Poster]   %s (%s): %s: %v", res.ID, res.Source, res.Outcome, res.Err)
		}
	}
}
