package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

// GraphQLClient is a thin GitHub GraphQL client. It acquires a token from
// the auth provider per request so it works for both PAT and App auth.
type GraphQLClient struct {
	httpClient   *http.Client
	endpoint     string
	authProvider AuthProvider
}

// NewGraphQLClient creates a GraphQL client using the provided auth provider.
func NewGraphQLClient(auth AuthProvider, timeout time.Duration) *GraphQLClient {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &GraphQLClient{
		httpClient:   &http.Client{Timeout: timeout},
		endpoint:     "https://api.github.com/graphql",
		authProvider: auth,
	}
}

// graphQLRequest represents a GraphQL request body.
type graphQLRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables,omitempty"`
}

// Do executes a GraphQL POST against GitHub for the given "owner/repo".
// The response is decoded into out. Failures are returned as *APIError so
// callers can recover per record: transport errors for network problems,
// graphql errors when the API returned an errors array, not_found when the
// target object no longer exists.
func (c *GraphQLClient) Do(ctx context.Context, repo, query string, variables map[string]interface{}, out interface{}) error {
	if repo == "" {
		return fmt.Errorf("repo is required (owner/repo)")
	}

	token, err := c.authProvider.Token(repo)
	if err != nil {
		return transportErr(fmt.Errorf("failed to get token: %w", err))
	}

	reqBody := graphQLRequest{Query: query, Variables: variables}
	buf := &bytes.Buffer{}
	if err := json.NewEncoder(buf).Encode(reqBody); err != nil {
		return fmt.Errorf("encode graphql request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, buf)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return transportErr(fmt.Errorf("graphql http error: %w", err))
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return transportErr(fmt.Errorf("read response: %w", err))
	}
	if resp.StatusCode != http.StatusOK {
		return transportErr(fmt.Errorf("graphql status %d: %s", resp.StatusCode, string(body)))
	}

	var wrapper struct {
		Data   json.RawMessage `json:"data"`
		Errors []struct {
			Type    string `json:"type"`
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := json.Unmarshal(body, &wrapper); err != nil {
		return fmt.Errorf("decode graphql envelope: %w", err)
	}
	if len(wrapper.Errors) > 0 {
		// Surface the first error message verbatim.
		first := wrapper.Errors[0]
		if first.Type == "NOT_FOUND" || strings.Contains(first.Message, "Could not resolve") {
			return notFoundErr(first.Message)
		}
		return graphqlErr(first.Message)
	}
	if len(wrapper.Data) == 0 {
		// Some queries legitimately have null data. Decode against JSON
		// null to avoid EOF when "data" is absent.
		if out != nil {
			wrapper.Data = json.RawMessage("null")
		}
	}
	if out != nil {
		if err := json.Unmarshal(wrapper.Data, out); err != nil {
			return fmt.Errorf("decode graphql data: %w", err)
		}
	}
	return nil
}

// GraphQL review-thread types (trimmed to what's needed)

type ThreadAuthor struct {
	Login string `json:"login"`
}

// ThreadComment is one comment inside a review thread.
type ThreadComment struct {
	ID         string       `json:"id"`
	DatabaseID int64        `json:"databaseId"`
	Body       string       `json:"body"`
	Author     ThreadAuthor `json:"author"`
	Path       string       `json:"path"`
	Line       *int         `json:"line"`
}

// ReviewThread is one file/line-anchored thread on a pull request.
type ReviewThread struct {
	ID         string `json:"id"`
	IsResolved bool   `json:"isResolved"`
	IsOutdated bool   `json:"isOutdated"`
	Comments   struct {
		Nodes []ThreadComment `json:"nodes"`
	} `json:"comments"`
}

type reviewThreadsResponse struct {
	Repository struct {
		PullRequest struct {
			ReviewThreads struct {
				PageInfo struct {
					HasNextPage bool   `json:"hasNextPage"`
					EndCursor   string `json:"endCursor"`
				} `json:"pageInfo"`
				Nodes []ReviewThread `json:"nodes"`
			} `json:"reviewThreads"`
		} `json:"pullRequest"`
	} `json:"repository"`
}

const reviewThreadsPageSize = 100

// FetchReviewThreads pages through every review thread of a pull request.
// A failure on the first page is an error; on a later page the threads
// accumulated so far are returned with a warning, so one bad page never
// discards a mostly complete fetch.
func (c *GraphQLClient) FetchReviewThreads(ctx context.Context, owner, repo string, prNumber int) ([]ReviewThread, error) {
	repository := owner + "/" + repo
	var threads []ReviewThread
	var cursor *string

	for page := 1; ; page++ {
		variables := map[string]interface{}{
			"owner":  owner,
			"repo":   repo,
			"number": prNumber,
			"first":  reviewThreadsPageSize,
		}
		if cursor != nil {
			variables["after"] = *cursor
		}

		var resp reviewThreadsResponse
		if err := c.Do(ctx, repository, reviewThreadsQuery, variables, &resp); err != nil {
			if page == 1 {
				return nil, fmt.Errorf("fetch review threads page 1: %w", err)
			}
			log.Printf("[GraphQL] Warning: review threads page %d failed, returning %d threads fetched so far: %v", page, len(threads), err)
			return threads, nil
		}

		rt := resp.Repository.PullRequest.ReviewThreads
		threads = append(threads, rt.Nodes...)
		if !rt.PageInfo.HasNextPage {
			return threads, nil
		}
		end := rt.PageInfo.EndCursor
		cursor = &end
	}
}

type replyResponse struct {
	AddPullRequestReviewThreadReply struct {
		Comment struct {
			ID string `json:"id"`
		} `json:"comment"`
	} `json:"addPullRequestReviewThreadReply"`
}

// ReplyToThread posts a reply comment on a review thread.
func (c *GraphQLClient) ReplyToThread(ctx context.Context, repo, threadID, body string) error {
	return retryTransient(func() error {
		var resp replyResponse
		err := c.Do(ctx, repo, replyMutation, map[string]interface{}{
			"threadId": threadID,
			"body":     body,
		}, &resp)
		if err != nil {
			return fmt.Errorf("reply to thread %s: %w", threadID, err)
		}
		return nil
	})
}

type resolveResponse struct {
	ResolveReviewThread struct {
		Thread struct {
			ID         string `json:"id"`
			IsResolved bool   `json:"isResolved"`
		} `json:"thread"`
	} `json:"resolveReviewThread"`
}

// ResolveThread marks a review thread resolved. Independent of reply.
func (c *GraphQLClient) ResolveThread(ctx context.Context, repo, threadID string) error {
	return retryTransient(func() error {
		err := c.Do(ctx, repo, resolveMutation, map[string]interface{}{
			"threadId": threadID,
		}, &resolveResponse{})
		if err != nil {
			return fmt.Errorf("resolve thread %s: %w", threadID, err)
		}
		return nil
	})
}

// GraphQL queries

const reviewThreadsQuery = `query ReviewThreads($owner: String!, $repo: String!, $number: Int!, $first: Int!, $after: String) {
  repository(owner: $owner, name: $repo) {
    pullRequest(number: $number) {
      reviewThreads(first: $first, after: $after) {
        pageInfo {
          hasNextPage
          endCursor
        }
        nodes {
          id
          isResolved
          isOutdated
          comments(first: 1) {
            nodes {
              id
              databaseId
              body
              author { login }
              path
              line
            }
          }
        }
      }
    }
  }
}`

const replyMutation = `mutation ReplyToThread($threadId: ID!, $body: String!) {
  addPullRequestReviewThreadReply(input: {pullRequestReviewThreadId: $threadId, body: $body}) {
    comment { id }
  }
}`

const resolveMutation = `mutation ResolveThread($threadId: ID!) {
  resolveReviewThread(input: {threadId: $threadId}) {
    thread { id isResolved }
  }
}`
