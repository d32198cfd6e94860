package fetch

import (
	"context"
	"log"
	"regexp"
	"strconv"

	"github.com/reviewsync/reviewsync/internal/document"
	"github.com/reviewsync/reviewsync/internal/github"
)

// Recognized reference forms for the optional --review argument:
// a review URL fragment, a discussion-comment URL fragment, or a bare id
// (treated as a review id).
var (
	reviewFragmentRe     = regexp.MustCompile(`#pullrequestreview-(\d+)`)
	discussionFragmentRe = regexp.MustCompile(`#discussion_r(\d+)`)
	bareIDRe             = regexp.MustCompile(`^\d+$`)
)

type refKind int

const (
	refUnknown refKind = iota
	refReview
	refDiscussion
)

func parseReviewRef(urlOrID string) (refKind, int64) {
	if m := discussionFragmentRe.FindStringSubmatch(urlOrID); m != nil {
		id, _ := strconv.ParseInt(m[1], 10, 64)
		return refDiscussion, id
	}
	if m := reviewFragmentRe.FindStringSubmatch(urlOrID); m != nil {
		id, _ := strconv.ParseInt(m[1], 10, 64)
		return refReview, id
	}
	if bareIDRe.MatchString(urlOrID) {
		id, _ := strconv.ParseInt(urlOrID, 10, 64)
		return refReview, id
	}
	return refUnknown, 0
}

// MergeSpecific unions the comments of one named review (or a single
// discussion comment) into an already-fetched set. Items already present
// by comment_id are not added twice: the thread-backed entry, which can be
// replied to and resolved, always wins over the narrower REST-only one.
//
// An unrecognized reference logs a warning and fetches nothing extra; it
// never fails the run.
func (f *Fetcher) MergeSpecific(ctx context.Context, comments []*document.Comment, owner, repo string, prNumber int, urlOrID string) []*document.Comment {
	kind, id := parseReviewRef(urlOrID)

	var extra []github.ReviewComment
	switch kind {
	case refReview:
		fetched, err := f.rest.ListReviewComments(ctx, owner, repo, prNumber, id)
		if err != nil {
			log.Printf("[Fetcher] Warning: could not fetch review %d: %v", id, err)
			return comments
		}
		extra = fetched
	case refDiscussion:
		fetched, err := f.rest.GetReviewComment(ctx, owner, repo, id)
		if err != nil {
			if github.IsNotFound(err) {
				log.Printf("[Fetcher] Warning: comment %d not found (deleted?)", id)
			} else {
				log.Printf("[Fetcher] Warning: could not fetch comment %d: %v", id, err)
			}
			return comments
		}
		extra = []github.ReviewComment{*fetched}
	default:
		log.Printf("[Fetcher] Warning: unrecognized review reference %q, skipping merge", urlOrID)
		return comments
	}

	seen := make(map[int64]struct{}, len(comments))
	for _, c := range comments {
		if c.CommentID != 0 {
			seen[c.CommentID] = struct{}{}
		}
	}

	added := 0
	for _, rc := range extra {
		if _, ok := seen[rc.CommentID]; ok {
			continue
		}
		seen[rc.CommentID] = struct{}{}
		comments = append(comments, &document.Comment{
			NodeID:    rc.NodeID,
			CommentID: rc.CommentID,
			Author:    rc.Author,
			Path:      rc.Path,
			Line:      rc.Line,
			Body:      rc.Body,
			Status:    document.StatusPending,
		})
		added++
	}
	if added > 0 {
		log.Printf("[Fetcher] Merged %d comments from %q", added, urlOrID)
	}
	return comments
}
