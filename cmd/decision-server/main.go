// decision-server exposes the review document to an LLM-driven decision
// phase over MCP stdio: list the comments awaiting a decision, record one
// decision at a time. It never talks to the code-hosting platform itself.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func main() {
	_ = godotenv.Load()

	docPath := os.Getenv("REVIEWSYNC_DOC")
	if docPath == "" {
		log.Fatalf("[Decision Server] Missing required environment variable: REVIEWSYNC_DOC")
	}

	log.Println("[Decision Server] Starting review decision MCP server v1.0.0")
	log.Printf("[Decision Server] Document: %s", docPath)

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "review-decision-server",
		Version: "v1.0.0",
	}, nil)

	h := &Handler{DocPath: docPath}

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_pending_comments",
		Description: "List review comments that still need a decision (canonical records only; duplicates are handled automatically)",
	}, h.HandleListPending)
	log.Println("[Decision Server] Registered tool: list_pending_comments")

	mcp.AddTool(server, &mcp.Tool{
		Name:        "set_decision",
		Description: "Record a decision (addressed/skipped/not_addressed) with optional reply text for one review comment",
	}, h.HandleSetDecision)
	log.Println("[Decision Server] Registered tool: set_decision")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Println("[Decision Server] Received shutdown signal")
		cancel()
	}()

	log.Println("[Decision Server] Starting on stdio transport...")
	if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil {
		log.Fatalf("[Decision Server] Server error: %v", err)
	}
	log.Println("[Decision Server] Server stopped gracefully")
}
