// Package fetch walks the review threads of a pull request and normalizes
// them into document comments.
package fetch

import (
	"context"
	"fmt"
	"log"

	"github.com/reviewsync/reviewsync/internal/document"
	"github.com/reviewsync/reviewsync/internal/github"
)

// ThreadLister pages through the review threads of a pull request.
type ThreadLister interface {
	FetchReviewThreads(ctx context.Context, owner, repo string, prNumber int) ([]github.ReviewThread, error)
}

// ReviewCommentLister fetches comments through the REST endpoints.
type ReviewCommentLister interface {
	ListReviewComments(ctx context.Context, owner, repo string, prNumber int, reviewID int64) ([]github.ReviewComment, error)
	GetReviewComment(ctx context.Context, owner, repo string, commentID int64) (*github.ReviewComment, error)
}

// Fetcher turns platform review threads into document comments.
type Fetcher struct {
	gql  ThreadLister
	rest ReviewCommentLister
}

// New creates a fetcher over the given clients.
func New(gql ThreadLister, rest ReviewCommentLister) *Fetcher {
	return &Fetcher{gql: gql, rest: rest}
}

// FetchUnresolved returns one comment per unresolved review thread: the
// thread's opening comment, which stands for the whole thread.
func (f *Fetcher) FetchUnresolved(ctx context.Context, owner, repo string, prNumber int) ([]*document.Comment, error) {
	threads, err := f.gql.FetchReviewThreads(ctx, owner, repo, prNumber)
	if err != nil {
		return nil, fmt.Errorf("fetch unresolved threads: %w", err)
	}

	var comments []*document.Comment
	skippedEmpty := 0
	for _, t := range threads {
		if t.IsResolved {
			continue
		}
		if len(t.Comments.Nodes) == 0 {
			skippedEmpty++
			continue
		}
		opener := t.Comments.Nodes[0]
		comments = append(comments, &document.Comment{
			ThreadID:  t.ID,
			NodeID:    opener.ID,
			CommentID: opener.DatabaseID,
			Author:    opener.Author.Login,
			Path:      opener.Path,
			Line:      opener.Line,
			Body:      opener.Body,
			Status:    document.StatusPending,
		})
	}
	if skippedEmpty > 0 {
		log.Printf("[Fetcher] Warning: %d unresolved threads had no comments, skipped", skippedEmpty)
	}
	log.Printf("[Fetcher] %d unresolved threads on %s/%s#%d", len(comments), owner, repo, prNumber)
	return comments, nil
}
