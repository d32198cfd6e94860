// reviewsync reconciles pull-request review threads with a local decision
// document: fetch unresolved threads, record decisions, post replies and
// resolve threads idempotently.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"

	"github.com/reviewsync/reviewsync/internal/config"
	"github.com/reviewsync/reviewsync/internal/document"
	"github.com/reviewsync/reviewsync/internal/fetch"
	"github.com/reviewsync/reviewsync/internal/github"
	"github.com/reviewsync/reviewsync/internal/poster"
	"github.com/reviewsync/reviewsync/internal/review"
	"github.com/reviewsync/reviewsync/internal/web"
)

var (
	loadDotEnv         = godotenv.Load
	defaultListenServe = http.ListenAndServe
)

const usage = `Usage: reviewsync <command> [flags]

Commands:
  fetch   Fetch unresolved review threads into the document
  post    Post replies and resolve threads from the document
  status  Print the document tally without touching the network
  serve   Run the decision web UI over the document
`

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatalf("reviewsync: %v", err)
	}
}

func run(args []string) error {
	// Load .env file (ignore error if file doesn't exist)
	_ = loadDotEnv()

	if len(args) == 0 {
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("missing command")
	}

	switch args[0] {
	case "fetch":
		return runFetch(args[1:])
	case "post":
		return runPost(args[1:])
	case "status":
		return runStatus(args[1:])
	case "serve":
		return runServe(args[1:])
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command: %s", args[0])
	}
}

func authProvider(cfg *config.Config) github.AuthProvider {
	if cfg.UseAppAuth() {
		return &github.AppAuth{AppID: cfg.GitHubAppID, PrivateKey: cfg.GitHubPrivateKey}
	}
	return &github.TokenAuth{AccessToken: cfg.GitHubToken}
}

// splitRepo parses "owner/repo".
func splitRepo(repository string) (string, string, error) {
	parts := strings.Split(repository, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid repository format: %s (want owner/repo)", repository)
	}
	return parts[0], parts[1], nil
}

func runFetch(args []string) error {
	fs := flag.NewFlagSet("fetch", flag.ContinueOnError)
	repoFlag := fs.String("repo", "", "repository as owner/name (required)")
	prFlag := fs.Int("pr", 0, "pull request number (required)")
	reviewFlag := fs.String("review", "", "optional review URL or id to merge in")
	docFlag := fs.String("doc", "", "document path (default from REVIEWSYNC_DOC)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if *repoFlag == "" || *prFlag <= 0 {
		return fmt.Errorf("fetch requires --repo owner/name and --pr number")
	}
	owner, repo, err := splitRepo(*repoFlag)
	if err != nil {
		return err
	}
	docPath := *docFlag
	if docPath == "" {
		docPath = cfg.DocumentPath
	}

	auth := authProvider(cfg)
	gql := github.NewGraphQLClient(auth, cfg.HTTPTimeout)
	rest := github.NewRESTClient(auth)
	fetcher := fetch.New(gql, rest)

	ctx := context.Background()
	comments, err := fetcher.FetchUnresolved(ctx, owner, repo, *prFlag)
	if err != nil {
		return err
	}
	if *reviewFlag != "" {
		comments = fetcher.MergeSpecific(ctx, comments, owner, repo, *prFlag, *reviewFlag)
	}

	comments = review.Prepare(comments)

	doc := document.New(uuid.NewString(), owner, repo, *prFlag, time.Now().UTC())
	for _, c := range comments {
		doc.Add(c)
	}
	if guarded := document.GuardThreadIDs(doc); guarded > 0 {
		log.Printf("[Fetcher] %d records have no thread id and were marked skipped", guarded)
	}

	if err := document.Save(doc, docPath); err != nil {
		return err
	}
	log.Printf("[Fetcher] Wrote %d comments (human=%d bot_a=%d bot_b=%d) to %s",
		len(comments), len(doc.Human), len(doc.BotA), len(doc.BotB), docPath)
	return nil
}

func runPost(args []string) error {
	fs := flag.NewFlagSet("post", flag.ContinueOnError)
	docFlag := fs.String("doc", "", "document path (default from REVIEWSYNC_DOC)")
	workersFlag := fs.Int("workers", 0, "concurrent mutation workers (default from REVIEWSYNC_WORKERS)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	docPath := *docFlag
	if docPath == "" {
		docPath = cfg.DocumentPath
	}
	workers := *workersFlag
	if workers <= 0 {
		workers = cfg.Workers
	}

	// Document-load failure is the one fatal error: never guess at state.
	doc, err := document.Load(docPath)
	if err != nil {
		return err
	}

	auth := authProvider(cfg)
	gql := github.NewGraphQLClient(auth, cfg.HTTPTimeout)

	p := poster.New(gql, workers)
	report := p.Run(context.Background(), doc)

	// Successful mutations are durable even when others failed: write the
	// document back before deciding the exit code.
	if err := document.Save(doc, docPath); err != nil {
		return err
	}

	if report.HasFailures() {
		return fmt.Errorf("%d records failed to post or resolve",
			report.Counts[poster.OutcomeFailed]+report.Counts[poster.OutcomeResolveFailed])
	}
	return nil
}

func runStatus(args []string) error {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	docFlag := fs.String("doc", "", "document path (default from REVIEWSYNC_DOC)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	docPath := *docFlag
	if docPath == "" {
		docPath = getenvDefault("REVIEWSYNC_DOC", "review-comments.json")
	}

	doc, err := document.Load(docPath)
	if err != nil {
		return err
	}

	var posted, resolved, noThread, duplicates int
	byStatus := map[document.Status]int{}
	for _, c := range doc.All() {
		byStatus[c.Status]++
		if c.Posted() {
			posted++
		}
		if c.ResolvedAt != nil {
			resolved++
		}
		if c.ThreadID == "" {
			noThread++
		}
		if c.IsDuplicate {
			duplicates++
		}
	}

	fmt.Printf("%s/%s PR #%d (snapshot %s)\n", doc.Metadata.Owner, doc.Metadata.Repo, doc.Metadata.PRNumber, doc.Metadata.SnapshotID)
	fmt.Printf("  pending=%d addressed=%d skipped=%d not_addressed=%d\n",
		byStatus[document.StatusPending], byStatus[document.StatusAddressed],
		byStatus[document.StatusSkipped], byStatus[document.StatusNotAddressed])
	fmt.Printf("  posted=%d resolved=%d duplicates=%d no_thread_id=%d\n", posted, resolved, duplicates, noThread)
	return nil
}

func runServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	docFlag := fs.String("doc", "", "document path (default from REVIEWSYNC_DOC)")
	portFlag := fs.Int("port", 0, "listen port (default from PORT)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	docPath := *docFlag
	if docPath == "" {
		docPath = getenvDefault("REVIEWSYNC_DOC", "review-comments.json")
	}
	port := *portFlag
	if port == 0 {
		port = 8000
		if v := os.Getenv("PORT"); v != "" {
			fmt.Sscanf(v, "%d", &port)
		}
	}

	handler, err := web.NewHandler(docPath)
	if err != nil {
		return fmt.Errorf("failed to initialize web handler: %w", err)
	}

	r := mux.NewRouter()
	handler.RegisterRoutes(r)
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET")

	addr := fmt.Sprintf(":%d", port)
	log.Printf("[Web] Decision UI listening on %s (document: %s)", addr, docPath)
	if err := defaultListenServe(addr, r); err != nil {
		return fmt.Errorf("server failed to start: %w", err)
	}
	return nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
