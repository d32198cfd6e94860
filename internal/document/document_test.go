package document

import (
	"testing"
	"time"
)

func TestStableID(t *testing.T) {
	tests := []struct {
		name    string
		comment Comment
		want    string
	}{
		{"thread-id", Comment{ThreadID: "PRRT_abc", Source: SourceBotA, CommentID: 5}, "PRRT_abc"},
		{"fallback", Comment{Source: SourceBotA, CommentID: 5}, "bot_a:5"},
		{"fallback-human", Comment{Source: SourceHuman, CommentID: 99}, "human:99"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.comment.StableID(); got != tc.want {
				t.Fatalf("StableID() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestValidStatus(t *testing.T) {
	for _, s := range []Status{StatusPending, StatusAddressed, StatusSkipped, StatusNotAddressed} {
		if !ValidStatus(s) {
			t.Fatalf("ValidStatus(%q) = false", s)
		}
	}
	if ValidStatus("done") {
		t.Fatalf("ValidStatus(done) = true, want false")
	}
	if ValidStatus("") {
		t.Fatalf("ValidStatus(\"\") = true, want false")
	}
}

func TestDocumentAddBuckets(t *testing.T) {
	doc := New("snap", "owner", "repo", 1, time.Now())
	doc.Add(&Comment{ThreadID: "1", Source: SourceHuman})
	doc.Add(&Comment{ThreadID: "2", Source: SourceBotA})
	doc.Add(&Comment{ThreadID: "3", Source: SourceBotB})
	doc.Add(&Comment{ThreadID: "4", Source: "mystery"})

	if len(doc.Human) != 2 {
		t.Fatalf("human bucket = %d, want 2 (unknown sources land in human)", len(doc.Human))
	}
	if len(doc.BotA) != 1 || len(doc.BotB) != 1 {
		t.Fatalf("bot buckets = %d/%d, want 1/1", len(doc.BotA), len(doc.BotB))
	}
	if len(doc.All()) != 4 {
		t.Fatalf("All() = %d comments, want 4", len(doc.All()))
	}
}

func TestDocumentFind(t *testing.T) {
	doc := New("snap", "owner", "repo", 1, time.Now())
	c := &Comment{ThreadID: "PRRT_1", Source: SourceBotA}
	doc.Add(c)
	doc.Add(&Comment{CommentID: 7, Source: SourceBotB})

	if got := doc.Find("PRRT_1"); got != c {
		t.Fatalf("Find(PRRT_1) returned wrong comment")
	}
	if got := doc.Find("bot_b:7"); got == nil {
		t.Fatalf("Find by composite id failed")
	}
	if got := doc.Find("nope"); got != nil {
		t.Fatalf("Find(nope) = %v, want nil", got)
	}
}

func TestCanonicalAndPending(t *testing.T) {
	doc := New("snap", "owner", "repo", 1, time.Now())
	doc.Add(&Comment{ThreadID: "1", Source: SourceHuman, Status: StatusPending})
	doc.Add(&Comment{ThreadID: "2", Source: SourceBotA, Status: StatusAddressed})
	doc.Add(&Comment{ThreadID: "3", Source: SourceBotA, Status: StatusPending, IsDuplicate: true, DuplicateOf: "1"})

	if got := len(doc.Canonical()); got != 2 {
		t.Fatalf("Canonical() = %d, want 2", got)
	}
	pending := doc.Pending()
	if len(pending) != 1 || pending[0].ThreadID != "1" {
		t.Fatalf("Pending() = %v, want the single pending canonical record", pending)
	}
}

func TestMetadataRepository(t *testing.T) {
	m := Metadata{Owner: "octo", Repo: "hello"}
	if got := m.Repository(); got != "octo/hello" {
		t.Fatalf("Repository() = %q", got)
	}
}
