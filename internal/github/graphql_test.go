package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func testClient(t *testing.T, handler http.HandlerFunc) *GraphQLClient {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	c := NewGraphQLClient(&TokenAuth{AccessToken: "test-token"}, 5*time.Second)
	c.endpoint = ts.URL
	return c
}

func TestGraphQLDo_Headers(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("expected POST")
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Fatalf("bad auth header: %q", got)
		}
		if r.Header.Get("Accept") == "" || r.Header.Get("Content-Type") == "" || r.Header.Get("X-GitHub-Api-Version") == "" {
			t.Fatalf("missing standard headers")
		}
		io.Copy(io.Discard, r.Body)
		_ = json.NewEncoder(w).Encode(map[string]any{"data": map[string]any{"ok": true}})
	})

	var out struct {
		Ok bool `json:"ok"`
	}
	if err := c.Do(context.Background(), "o/r", "query {}", nil, &out); err != nil {
		t.Fatalf("Do() error: %v", err)
	}
	if !out.Ok {
		t.Fatal("data not decoded")
	}
}

func TestGraphQLDo_ErrorKinds(t *testing.T) {
	tests := []struct {
		name string
		body string
		want ErrorKind
	}{
		{"graphql-error", `{"errors":[{"message":"Resource not accessible"}]}`, KindGraphQL},
		{"not-found-type", `{"errors":[{"type":"NOT_FOUND","message":"no such thread"}]}`, KindNotFound},
		{"not-found-message", `{"errors":[{"message":"Could not resolve to a node"}]}`, KindNotFound},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
				io.Copy(io.Discard, r.Body)
				fmt.Fprint(w, tc.body)
			})
			err := c.Do(context.Background(), "o/r", "query {}", nil, nil)
			if err == nil {
				t.Fatal("expected error")
			}
			if got := KindOf(err); got != tc.want {
				t.Fatalf("KindOf = %v, want %v (err: %v)", got, tc.want, err)
			}
		})
	}
}

func TestGraphQLDo_TransportError(t *testing.T) {
	c := NewGraphQLClient(&TokenAuth{AccessToken: "t"}, time.Second)
	c.endpoint = "http://127.0.0.1:1" // nothing listens here
	err := c.Do(context.Background(), "o/r", "query {}", nil, nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if KindOf(err) != KindTransport {
		t.Fatalf("KindOf = %v, want transport", KindOf(err))
	}
}

func TestGraphQLDo_HTTPStatusError(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.Copy(io.Discard, r.Body)
		w.WriteHeader(http.StatusBadGateway)
	})
	err := c.Do(context.Background(), "o/r", "query {}", nil, nil)
	if err == nil || KindOf(err) != KindTransport {
		t.Fatalf("expected transport error, got %v", err)
	}
}

func threadsPage(nodes string, hasNext bool, cursor string) string {
	return fmt.Sprintf(`{"data":{"repository":{"pullRequest":{"reviewThreads":{
		"pageInfo":{"hasNextPage":%t,"endCursor":%q},
		"nodes":[%s]}}}}}`, hasNext, cursor, nodes)
}

const threadNode = `{"id":"PRRT_%d","isResolved":%t,"comments":{"nodes":[{"id":"C_%d","databaseId":%d,"body":"b","author":{"login":"u"},"path":"f.go","line":3}]}}`

func TestFetchReviewThreads_Paginates(t *testing.T) {
	calls := 0
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		var req graphQLRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		switch calls {
		case 1:
			if _, ok := req.Variables["after"]; ok {
				t.Fatalf("first page should not carry a cursor")
			}
			fmt.Fprint(w, threadsPage(fmt.Sprintf(threadNode, 1, false, 1, 1), true, "cur1"))
		case 2:
			if req.Variables["after"] != "cur1" {
				t.Fatalf("second page cursor = %v", req.Variables["after"])
			}
			fmt.Fprint(w, threadsPage(fmt.Sprintf(threadNode, 2, true, 2, 2), false, ""))
		default:
			t.Fatalf("unexpected page %d", calls)
		}
	})

	threads, err := c.FetchReviewThreads(context.Background(), "o", "r", 7)
	if err != nil {
		t.Fatalf("FetchReviewThreads() error: %v", err)
	}
	if len(threads) != 2 {
		t.Fatalf("got %d threads, want 2", len(threads))
	}
	if threads[0].ID != "PRRT_1" || threads[1].ID != "PRRT_2" {
		t.Fatalf("thread ids: %s, %s", threads[0].ID, threads[1].ID)
	}
	if !threads[1].IsResolved {
		t.Fatal("isResolved not decoded")
	}
}

func TestFetchReviewThreads_FirstPageFailureIsError(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.Copy(io.Discard, r.Body)
		fmt.Fprint(w, `{"errors":[{"message":"boom"}]}`)
	})
	if _, err := c.FetchReviewThreads(context.Background(), "o", "r", 7); err == nil {
		t.Fatal("expected error on first-page failure")
	}
}

func TestFetchReviewThreads_LaterPageFailureReturnsPartial(t *testing.T) {
	calls := 0
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		io.Copy(io.Discard, r.Body)
		if calls == 1 {
			fmt.Fprint(w, threadsPage(fmt.Sprintf(threadNode, 1, false, 1, 1), true, "cur1"))
			return
		}
		fmt.Fprint(w, `{"errors":[{"message":"secondary rate limit"}]}`)
	})

	threads, err := c.FetchReviewThreads(context.Background(), "o", "r", 7)
	if err != nil {
		t.Fatalf("later-page failure must not error, got %v", err)
	}
	if len(threads) != 1 {
		t.Fatalf("got %d threads, want the 1 accumulated before the failure", len(threads))
	}
}

func TestReplyToThread(t *testing.T) {
	var gotVars map[string]interface{}
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req graphQLRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		gotVars = req.Variables
		fmt.Fprint(w, `{"data":{"addPullRequestReviewThreadReply":{"comment":{"id":"C_new"}}}}`)
	})

	if err := c.ReplyToThread(context.Background(), "o/r", "PRRT_1", "Addressed."); err != nil {
		t.Fatalf("ReplyToThread() error: %v", err)
	}
	if gotVars["threadId"] != "PRRT_1" || gotVars["body"] != "Addressed." {
		t.Fatalf("mutation variables: %v", gotVars)
	}
}

func TestReplyToThread_GraphQLErrorNotRetried(t *testing.T) {
	calls := 0
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		io.Copy(io.Discard, r.Body)
		fmt.Fprint(w, `{"errors":[{"message":"Thread is locked"}]}`)
	})
	err := c.ReplyToThread(context.Background(), "o/r", "PRRT_1", "x")
	if err == nil {
		t.Fatal("expected error")
	}
	if KindOf(err) != KindGraphQL {
		t.Fatalf("KindOf = %v, want graphql", KindOf(err))
	}
	if calls != 1 {
		t.Fatalf("graphql rejection retried %d times, want 1 call", calls)
	}
}

func TestResolveThread(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.Copy(io.Discard, r.Body)
		fmt.Fprint(w, `{"data":{"resolveReviewThread":{"thread":{"id":"PRRT_1","isResolved":true}}}}`)
	})
	if err := c.ResolveThread(context.Background(), "o/r", "PRRT_1"); err != nil {
		t.Fatalf("ResolveThread() error: %v", err)
	}
}
