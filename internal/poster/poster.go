// Package poster replies to and resolves review threads recorded in a
// document, idempotently across runs.
package poster

import (
	"context"
	"log"
	"time"

	"github.com/reviewsync/reviewsync/internal/document"
)

// ThreadMutator performs the two thread mutations the poster needs.
type ThreadMutator interface {
	ReplyToThread(ctx context.Context, repo, threadID, body string) error
	ResolveThread(ctx context.Context, repo, threadID string) error
}

// Outcome tags the result of processing one record. Every per-record error
// is converted into one of these; nothing propagates past the record
// boundary.
type Outcome string

const (
	OutcomeSuccess       Outcome = "success"
	OutcomeResolveFailed Outcome = "resolve_failed"
	OutcomeFailed        Outcome = "failed"
	OutcomeSkipped       Outcome = "skipped"
	OutcomePending       Outcome = "pending"
	OutcomeNoThreadID    Outcome = "no_thread_id"
	OutcomeAlreadyPosted Outcome = "already_posted"
)

// Result is the per-record outcome of a poster run.
type Result struct {
	ID      string
	Source  document.Source
	Outcome Outcome
	Err     error
}

// Default replies used when the decision phase supplied no text.
const (
	defaultAddressedReply    = "Addressed."
	defaultSkippedReply      = "Skipped."
	defaultNotAddressedReply = "Acknowledged, but not addressed in this round."
)

// Poster runs the reply/resolve state machine over a document.
type Poster struct {
	client  ThreadMutator
	workers int
	now     func() time.Time
}

// New creates a poster with a bounded number of concurrent mutations.
func New(client ThreadMutator, workers int) *Poster {
	if workers <= 0 {
		workers = 5
	}
	return &Poster{
		client:  client,
		workers: workers,
		now:     time.Now,
	}
}

// Run processes every record of the document and returns the per-record
// outcomes. Canonical records go first; duplicates are then replied to and
// resolved alongside whatever happened to their canonical record. The
// document is mutated in memory only; the caller persists it afterwards.
func (p *Poster) Run(ctx context.Context, doc *document.Document) *Report {
	// Records without a thread id must never reach the network, whatever
	// path produced the document.
	document.GuardThreadIDs(doc)

	repo := doc.Metadata.Repository()

	var canonical, duplicates []*document.Comment
	for _, c := range doc.All() {
		if c.IsDuplicate {
			duplicates = append(duplicates, c)
		} else {
			canonical = append(canonical, c)
		}
	}

	results := runPool(ctx, p.workers, canonical, func(c *document.Comment) Result {
		return p.processCanonical(ctx, repo, c)
	})

	results = append(results, runPool(ctx, p.workers, duplicates, func(c *document.Comment) Result {
		return p.processDuplicate(ctx, repo, doc, c)
	})...)

	report := buildReport(results)
	report.Log()
	return report
}

// processCanonical runs one record through the state machine:
// pending -> posted (reply sent) -> resolved | left-open.
func (p *Poster) processCanonical(ctx context.Context, repo string, c *document.Comment) Result {
	res := Result{ID: c.StableID(), Source: c.Source}

	if c.ThreadID == "" {
		res.Outcome = OutcomeNoThreadID
		return res
	}

	if c.Posted() {
		// Resolve-only retry: the reply went out on an earlier run but the
		// resolve did not. Never re-send the reply.
		if c.ResolvedAt == nil && shouldResolve(c.Source, c.Status) {
			if err := p.client.ResolveThread(ctx, repo, c.ThreadID); err != nil {
				log.Printf("[Poster] Resolve retry failed for %s: %v", c.StableID(), err)
				res.Outcome = OutcomeResolveFailed
				res.Err = err
				return res
			}
			now := p.now()
			c.ResolvedAt = &now
			res.Outcome = OutcomeSuccess
			return res
		}
		res.Outcome = OutcomeAlreadyPosted
		return res
	}

	switch c.Status {
	case document.StatusPending:
		res.Outcome = OutcomePending
		return res
	case document.StatusAddressed, document.StatusSkipped, document.StatusNotAddressed:
		// fall through to posting
	default:
		log.Printf("[Poster] Warning: record %s has unknown status %q, skipping", c.StableID(), c.Status)
		res.Outcome = OutcomeSkipped
		return res
	}

	body := replyBody(c)
	if err := p.client.ReplyToThread(ctx, repo, c.ThreadID, body); err != nil {
		log.Printf("[Poster] Reply failed for %s: %v", c.StableID(), err)
		res.Outcome = OutcomeFailed
		res.Err = err
		return res
	}
	now := p.now()
	c.PostedAt = &now

	if !shouldResolve(c.Source, c.Status) {
		res.Outcome = OutcomeSuccess
		return res
	}
	if err := p.client.ResolveThread(ctx, repo, c.ThreadID); err != nil {
		// The reply is durable; only the resolve is retried on rerun.
		log.Printf("[Poster] Replied to %s but resolve failed: %v", c.StableID(), err)
		res.Outcome = OutcomeResolveFailed
		res.Err = err
		return res
	}
	resolvedAt := p.now()
	c.ResolvedAt = &resolvedAt
	res.Outcome = OutcomeSuccess
	return res
}

// processDuplicate replies to a duplicate thread with a cross-reference
// once its canonical record has been posted, and resolves it under the
// same source policy with the canonical record's status.
func (p *Poster) processDuplicate(ctx context.Context, repo string, doc *document.Document, c *document.Comment) Result {
	res := Result{ID: c.StableID(), Source: c.Source}

	if c.ThreadID == "" {
		res.Outcome = OutcomeNoThreadID
		return res
	}
	if c.Posted() {
		if c.ResolvedAt == nil && shouldResolve(c.Source, c.Status) {
			if err := p.client.ResolveThread(ctx, repo, c.ThreadID); err != nil {
				res.Outcome = OutcomeResolveFailed
				res.Err = err
				return res
			}
			now := p.now()
			c.ResolvedAt = &now
			res.Outcome = OutcomeSuccess
			return res
		}
		res.Outcome = OutcomeAlreadyPosted
		return res
	}

	canonical := doc.Find(c.DuplicateOf)
	if canonical == nil || !canonical.Posted() {
		// Canonical not handled yet (still pending, or its post failed
		// this run). The duplicate waits for a future run.
		res.Outcome = OutcomePending
		return res
	}

	// The duplicate inherits the canonical decision so the resolution
	// policy stays a pure function of source and status.
	c.Status = canonical.Status

	body := duplicateReplyBody(canonical)
	if err := p.client.ReplyToThread(ctx, repo, c.ThreadID, body); err != nil {
		log.Printf("[Poster] Reply failed for duplicate %s: %v", c.StableID(), err)
		res.Outcome = OutcomeFailed
		res.Err = err
		return res
	}
	now := p.now()
	c.PostedAt = &now

	if !shouldResolve(c.Source, c.Status) {
		res.Outcome = OutcomeSuccess
		return res
	}
	if err := p.client.ResolveThread(ctx, repo, c.ThreadID); err != nil {
		log.Printf("[Poster] Replied to duplicate %s but resolve failed: %v", c.StableID(), err)
		res.Outcome = OutcomeResolveFailed
		res.Err = err
		return res
	}
	resolvedAt := p.now()
	c.ResolvedAt = &resolvedAt
	res.Outcome = OutcomeSuccess
	return res
}

// shouldResolve is the resolution policy: bot threads are always resolved
// once replied to; human threads only when the comment was addressed.
func shouldResolve(source document.Source, status document.Status) bool {
	if source == document.SourceHuman {
		return status == document.StatusAddressed
	}
	return true
}

// replyBody derives the reply text from the decision fields.
func replyBody(c *document.Comment) string {
	switch c.Status {
	case document.StatusAddressed:
		if c.Reply != "" {
			return c.Reply
		}
		return defaultAddressedReply
	case document.StatusSkipped:
		if c.SkipReason != "" {
			return "Skipped: " + c.SkipReason
		}
		if c.Reply != "" {
			return c.Reply
		}
		return defaultSkippedReply
	case document.StatusNotAddressed:
		if c.Reply != "" {
			return c.Reply
		}
		if c.SkipReason != "" {
			return "Not addressed: " + c.SkipReason
		}
		return defaultNotAddressedReply
	}
	return c.Reply
}

func duplicateReplyBody(canonical *document.Comment) string {
	loc := canonical.Path
	if loc == "" {
		loc = "another thread"
	}
	return "Duplicate of a comment already handled on " + loc + "; see the reply there."
}
