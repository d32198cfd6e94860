package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	gogithub "github.com/google/go-github/v66/github"
)

// RESTClient wraps the go-github client for the few REST-only lookups the
// reconciler needs: a named review's comments and single-comment detail.
type RESTClient struct {
	authProvider AuthProvider
	baseURL      string // overridable for tests
}

// NewRESTClient creates a REST client using the provided auth provider.
func NewRESTClient(auth AuthProvider) *RESTClient {
	return &RESTClient{authProvider: auth}
}

func (c *RESTClient) clientFor(repo string) (*gogithub.Client, error) {
	token, err := c.authProvider.Token(repo)
	if err != nil {
		return nil, transportErr(fmt.Errorf("failed to get token: %w", err))
	}
	client := gogithub.NewClient(nil).WithAuthToken(token)
	if c.baseURL != "" {
		var cerr error
		client, cerr = client.WithEnterpriseURLs(c.baseURL, c.baseURL)
		if cerr != nil {
			return nil, fmt.Errorf("configure base URL: %w", cerr)
		}
	}
	return client, nil
}

// ReviewComment is a comment obtained through the REST listing endpoints.
// It carries no thread id, so it can never be a mutation target on its own.
type ReviewComment struct {
	CommentID int64
	NodeID    string
	Author    string
	Path      string
	Line      *int
	Body      string
}

const reviewCommentsPageSize = 100

// ListReviewComments fetches the comments of one named review. A single
// page of 100 is an acceptable bound for one review; no pagination.
func (c *RESTClient) ListReviewComments(ctx context.Context, owner, repo string, prNumber int, reviewID int64) ([]ReviewComment, error) {
	client, err := c.clientFor(owner + "/" + repo)
	if err != nil {
		return nil, err
	}

	comments, resp, err := client.PullRequests.ListReviewComments(ctx, owner, repo, prNumber, reviewID, &gogithub.ListOptions{
		PerPage: reviewCommentsPageSize,
	})
	if err != nil {
		return nil, classifyRESTError(resp, err)
	}

	out := make([]ReviewComment, 0, len(comments))
	for _, rc := range comments {
		out = append(out, convertRESTComment(rc))
	}
	return out, nil
}

// GetReviewComment fetches a single pull-request review comment by its
// numeric id (the discussion_r fragment of a comment URL).
func (c *RESTClient) GetReviewComment(ctx context.Context, owner, repo string, commentID int64) (*ReviewComment, error) {
	client, err := c.clientFor(owner + "/" + repo)
	if err != nil {
		return nil, err
	}

	rc, resp, err := client.PullRequests.GetComment(ctx, owner, repo, commentID)
	if err != nil {
		return nil, classifyRESTError(resp, err)
	}

	out := convertRESTComment(rc)
	return &out, nil
}

func convertRESTComment(rc *gogithub.PullRequestComment) ReviewComment {
	out := ReviewComment{
		CommentID: rc.GetID(),
		NodeID:    rc.GetNodeID(),
		Author:    rc.GetUser().GetLogin(),
		Path:      rc.GetPath(),
		Body:      rc.GetBody(),
	}
	if rc.Line != nil {
		line := rc.GetLine()
		out.Line = &line
	}
	return out
}

func classifyRESTError(resp *gogithub.Response, err error) error {
	var ghErr *gogithub.ErrorResponse
	if errors.As(err, &ghErr) {
		if ghErr.Response != nil && ghErr.Response.StatusCode == http.StatusNotFound {
			return notFoundErr(ghErr.Message)
		}
		return graphqlErr(ghErr.Message)
	}
	if resp != nil && resp.StatusCode == http.StatusNotFound {
		return notFoundErr(err.Error())
	}
	return transportErr(err)
}
