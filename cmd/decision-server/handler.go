package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/reviewsync/reviewsync/internal/document"
)

// Handler serves the decision tools over one document file.
// The mutex serializes writers; every call reloads the document so the
// server composes safely with the web UI and the poster.
type Handler struct {
	DocPath string

	mu sync.Mutex
}

// ListPendingParams defines the (empty) input for list_pending_comments.
type ListPendingParams struct{}

// pendingComment is the decision-facing projection of a comment.
type pendingComment struct {
	ID       string   `json:"id"`
	Source   string   `json:"source"`
	Priority string   `json:"priority"`
	Author   string   `json:"author"`
	Path     string   `json:"path,omitempty"`
	Line     *int     `json:"line"`
	Body     string   `json:"body"`
	AlsoFrom []string `json:"also_flagged_by,omitempty"`
}

// HandleListPending returns the canonical records still awaiting a decision.
func (h *Handler) HandleListPending(
	ctx context.Context,
	req *mcp.CallToolRequest,
	params ListPendingParams,
) (*mcp.CallToolResult, any, error) {
	doc, err := document.Load(h.DocPath)
	if err != nil {
		return errorResult(err), nil, nil
	}

	pending := doc.Pending()
	out := make([]pendingComment, 0, len(pending))
	for _, c := range pending {
		pc := pendingComment{
			ID:       c.StableID(),
			Source:   string(c.Source),
			Priority: string(c.Priority),
			Author:   c.Author,
			Path:     c.Path,
			Line:     c.Line,
			Body:     c.Body,
		}
		for _, s := range c.DuplicateSources {
			pc.AlsoFrom = append(pc.AlsoFrom, string(s))
		}
		out = append(out, pc)
	}

	payload, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return errorResult(err), nil, nil
	}

	log.Printf("[Decision Server] Listed %d pending comments", len(out))
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(payload)}},
	}, nil, nil
}

// SetDecisionParams defines the input for set_decision.
type SetDecisionParams struct {
	ID         string `json:"id" jsonschema:"Stable id of the comment (from list_pending_comments)"`
	Status     string `json:"status" jsonschema:"One of: addressed, skipped, not_addressed"`
	Reply      string `json:"reply,omitempty" jsonschema:"Reply text to post on the thread"`
	SkipReason string `json:"skip_reason,omitempty" jsonschema:"Why the comment was skipped or not addressed"`
}

// HandleSetDecision records one decision into the document.
func (h *Handler) HandleSetDecision(
	ctx context.Context,
	req *mcp.CallToolRequest,
	params SetDecisionParams,
) (*mcp.CallToolResult, any, error) {
	if params.ID == "" {
		return nil, nil, fmt.Errorf("id parameter is required")
	}
	status := document.Status(params.Status)
	if !document.ValidStatus(status) || status == document.StatusPending {
		return nil, nil, fmt.Errorf("invalid status %q (want addressed, skipped or not_addressed)", params.Status)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	doc, err := document.Load(h.DocPath)
	if err != nil {
		return errorResult(err), nil, nil
	}

	c := doc.Find(params.ID)
	if c == nil {
		return errorResult(fmt.Errorf("comment %s not found", params.ID)), nil, nil
	}
	if c.Posted() {
		return errorResult(fmt.Errorf("comment %s was already posted and is immutable", params.ID)), nil, nil
	}
	if c.IsDuplicate {
		return errorResult(fmt.Errorf("comment %s is a duplicate of %s; decide on the canonical record", params.ID, c.DuplicateOf)), nil, nil
	}

	c.Status = status
	c.Reply = params.Reply
	c.SkipReason = params.SkipReason

	if err := document.Save(doc, h.DocPath); err != nil {
		return errorResult(err), nil, nil
	}

	log.Printf("[Decision Server] Decision recorded for %s: %s", params.ID, status)
	resultText := fmt.Sprintf(`{
  "success": true,
  "id": %q,
  "status": %q
}`, params.ID, status)
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: resultText}},
	}, nil, nil
}

func errorResult(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: fmt.Sprintf("Error: %v", err)}},
		IsError: true,
	}
}
