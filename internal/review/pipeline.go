package review

import (
	"log"

	"github.com/reviewsync/reviewsync/internal/document"
)

// Prepare runs the presentation pipeline over freshly fetched comments:
// purely laudatory comments are dropped, the rest are classified by source
// and priority, and duplicates across sources are linked.
func Prepare(comments []*document.Comment) []*document.Comment {
	kept := make([]*document.Comment, 0, len(comments))
	dropped := 0
	for _, c := range comments {
		if IsPositiveOnly(c.Body) {
			dropped++
			continue
		}
		c.Source = ClassifySource(c.Author)
		c.Priority = ClassifyPriority(c.Body)
		kept = append(kept, c)
	}
	if dropped > 0 {
		log.Printf("[Classifier] Dropped %d positive-only comments", dropped)
	}

	DetectDuplicates(kept)
	return kept
}
