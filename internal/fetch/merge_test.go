package fetch

import (
	"context"
	"errors"
	"testing"

	"github.com/reviewsync/reviewsync/internal/document"
	"github.com/reviewsync/reviewsync/internal/github"
)

func TestParseReviewRef(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		kind   refKind
		wantID int64
	}{
		{"review-url", "https://github.com/o/r/pull/7#pullrequestreview-123456", refReview, 123456},
		{"discussion-url", "https://github.com/o/r/pull/7#discussion_r987654", refDiscussion, 987654},
		{"bare-id", "2468", refReview, 2468},
		{"garbage", "not-a-reference", refUnknown, 0},
		{"pr-url-without-fragment", "https://github.com/o/r/pull/7", refUnknown, 0},
		{"empty", "", refUnknown, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			kind, id := parseReviewRef(tc.input)
			if kind != tc.kind || id != tc.wantID {
				t.Fatalf("parseReviewRef(%q) = (%v, %d), want (%v, %d)", tc.input, kind, id, tc.kind, tc.wantID)
			}
		})
	}
}

func TestMergeSpecific_DedupByCommentID(t *testing.T) {
	existing := []*document.Comment{
		{ThreadID: "T1", CommentID: 101, Body: "from thread", Status: document.StatusPending},
	}
	rest := &fakeRESTLister{comments: []github.ReviewComment{
		{CommentID: 101, Author: "octocat", Body: "from rest"}, // already present
		{CommentID: 200, Author: "octocat", Path: "d.go", Body: "new one"},
	}}
	f := New(&fakeThreadLister{}, rest)

	merged := f.MergeSpecific(context.Background(), existing, "o", "r", 7, "123")
	if len(merged) != 2 {
		t.Fatalf("got %d comments, want 2", len(merged))
	}
	// The thread-backed entry wins over the narrower REST one.
	if merged[0].Body != "from thread" || merged[0].ThreadID != "T1" {
		t.Fatalf("thread entry was displaced: %+v", merged[0])
	}
	if merged[1].CommentID != 200 || merged[1].ThreadID != "" {
		t.Fatalf("REST entry malformed: %+v", merged[1])
	}
	if merged[1].Status != document.StatusPending {
		t.Fatalf("merged comment status = %q", merged[1].Status)
	}
}

func TestMergeSpecific_DiscussionRef(t *testing.T) {
	rest := &fakeRESTLister{comment: &github.ReviewComment{CommentID: 55, Author: "u", Body: "single"}}
	f := New(&fakeThreadLister{}, rest)

	merged := f.MergeSpecific(context.Background(), nil, "o", "r", 7, "https://github.com/o/r/pull/7#discussion_r55")
	if !rest.getCalled {
		t.Fatal("discussion ref should use the single-comment endpoint")
	}
	if len(merged) != 1 || merged[0].CommentID != 55 {
		t.Fatalf("merged = %+v", merged)
	}
}

func TestMergeSpecific_UnrecognizedRefIsNoop(t *testing.T) {
	rest := &fakeRESTLister{}
	f := New(&fakeThreadLister{}, rest)
	existing := []*document.Comment{{ThreadID: "T1", CommentID: 1}}

	merged := f.MergeSpecific(context.Background(), existing, "o", "r", 7, "???")
	if len(merged) != 1 {
		t.Fatalf("unrecognized ref changed the set: %d", len(merged))
	}
	if rest.listCalled || rest.getCalled {
		t.Fatal("unrecognized ref must not hit the API")
	}
}

func TestMergeSpecific_FetchErrorIsNoop(t *testing.T) {
	rest := &fakeRESTLister{listErr: errors.New("api unavailable")}
	f := New(&fakeThreadLister{}, rest)
	existing := []*document.Comment{{ThreadID: "T1", CommentID: 1}}

	merged := f.MergeSpecific(context.Background(), existing, "o", "r", 7, "123")
	if len(merged) != 1 {
		t.Fatalf("fetch error must not change the set: %d", len(merged))
	}
}
