// Package document defines the persisted review-comment document: the
// single JSON file shared between the fetch, decision and posting stages.
package document

import (
	"fmt"
	"time"
)

// Source identifies who authored a review comment.
type Source string

const (
	SourceHuman Source = "human"
	SourceBotA  Source = "bot_a"
	SourceBotB  Source = "bot_b"
)

// Priority is a best-effort sort hint derived from the comment body.
type Priority string

const (
	PriorityHigh   Priority = "HIGH"
	PriorityMedium Priority = "MEDIUM"
	PriorityLow    Priority = "LOW"
)

// Status tracks a comment through the decision and posting lifecycle.
type Status string

const (
	StatusPending      Status = "pending"
	StatusAddressed    Status = "addressed"
	StatusSkipped      Status = "skipped"
	StatusNotAddressed Status = "not_addressed"
)

// ValidStatus reports whether s is one of the defined status values.
func ValidStatus(s Status) bool {
	switch s {
	case StatusPending, StatusAddressed, StatusSkipped, StatusNotAddressed:
		return true
	}
	return false
}

// Comment is one review-thread opener tracked across runs.
//
// ThreadID is the only identifier valid as a mutation target; NodeID and
// CommentID exist for lookups. A comment without a ThreadID is never posted.
type Comment struct {
	ThreadID  string `json:"thread_id,omitempty"`
	NodeID    string `json:"node_id,omitempty"`
	CommentID int64  `json:"comment_id,omitempty"`

	Author string `json:"author"`
	Path   string `json:"path,omitempty"`
	Line   *int   `json:"line"`
	Body   string `json:"body"`

	Source   Source   `json:"source"`
	Priority Priority `json:"priority"`

	IsDuplicate      bool     `json:"is_duplicate"`
	DuplicateOf      string   `json:"duplicate_of,omitempty"`
	DuplicateSources []Source `json:"duplicate_sources,omitempty"`

	Status     Status `json:"status"`
	Reply      string `json:"reply,omitempty"`
	SkipReason string `json:"skip_reason,omitempty"`

	PostedAt   *time.Time `json:"posted_at,omitempty"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
}

// StableID returns an identifier that stays consistent across runs:
// the thread id when present, otherwise "source:comment_id".
func (c *Comment) StableID() string {
	if c.ThreadID != "" {
		return c.ThreadID
	}
	return fmt.Sprintf("%s:%d", c.Source, c.CommentID)
}

// Posted reports whether a reply has already been sent for this comment.
func (c *Comment) Posted() bool {
	return c.PostedAt != nil
}

// Metadata identifies the pull request a document was fetched from.
type Metadata struct {
	SnapshotID string    `json:"snapshot_id"`
	Owner      string    `json:"owner"`
	Repo       string    `json:"repo"`
	PRNumber   int       `json:"pr_number"`
	FetchedAt  time.Time `json:"fetched_at"`
}

// Repository returns the "owner/repo" form used by the API clients.
func (m Metadata) Repository() string {
	return m.Owner + "/" + m.Repo
}

// Document is the on-disk reconciliation ledger. Comments are bucketed by
// source so the decision phase can present them separately.
type Document struct {
	Metadata Metadata   `json:"metadata"`
	Human    []*Comment `json:"human"`
	BotA     []*Comment `json:"bot_a"`
	BotB     []*Comment `json:"bot_b"`
}

// New creates an empty document for the given pull request.
func New(snapshotID, owner, repo string, prNumber int, fetchedAt time.Time) *Document {
	return &Document{
		Metadata: Metadata{
			SnapshotID: snapshotID,
			Owner:      owner,
			Repo:       repo,
			PRNumber:   prNumber,
			FetchedAt:  fetchedAt,
		},
		Human: []*Comment{},
		BotA:  []*Comment{},
		BotB:  []*Comment{},
	}
}

// Add places a comment into the bucket matching its source.
// Comments with an unknown source are bucketed as human so they are never
// silently dropped.
func (d *Document) Add(c *Comment) {
	switch c.Source {
	case SourceBotA:
		d.BotA = append(d.BotA, c)
	case SourceBotB:
		d.BotB = append(d.BotB, c)
	default:
		d.Human = append(d.Human, c)
	}
}

// All returns every comment across the three buckets.
// The returned slice shares the underlying comment pointers.
func (d *Document) All() []*Comment {
	all := make([]*Comment, 0, len(d.Human)+len(d.BotA)+len(d.BotB))
	all = append(all, d.Human...)
	all = append(all, d.BotA...)
	all = append(all, d.BotB...)
	return all
}

// Find returns the comment with the given stable id, or nil.
func (d *Document) Find(stableID string) *Comment {
	for _, c := range d.All() {
		if c.StableID() == stableID {
			return c
		}
	}
	return nil
}

// Canonical returns all non-duplicate comments. Only these are shown to
// the decision phase; duplicates ride along with their canonical record.
func (d *Document) Canonical() []*Comment {
	var out []*Comment
	for _, c := range d.All() {
		if !c.IsDuplicate {
			out = append(out, c)
		}
	}
	return out
}

// Pending returns canonical comments still awaiting a decision.
func (d *Document) Pending() []*Comment {
	var out []*Comment
	for _, c := range d.Canonical() {
		if c.Status == StatusPending {
			out = append(out, c)
		}
	}
	return out
}
