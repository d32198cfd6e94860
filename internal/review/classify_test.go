package review

import (
	"testing"

	"github.com/reviewsync/reviewsync/internal/document"
)

func TestClassifySource(t *testing.T) {
	tests := []struct {
		name   string
		author string
		want   document.Source
	}{
		{"coderabbit-bot", "coderabbitai[bot]", document.SourceBotA},
		{"copilot-bot", "copilot-pull-request-reviewer[bot]", document.SourceBotB},
		{"copilot-bot-short", "Copilot[bot]", document.SourceBotB},
		{"human", "octocat", document.SourceHuman},
		{"human-with-bot-in-name", "botsmith", document.SourceHuman},
		{"unknown-bot", "dependabot[bot]", document.SourceHuman},
		{"empty", "", document.SourceHuman},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := ClassifySource(tc.author); got != tc.want {
				t.Fatalf("ClassifySource(%q) = %v, want %v", tc.author, got, tc.want)
			}
		})
	}
}

func TestClassifyPriority(t *testing.T) {
	tests := []struct {
		name string
		body string
		want document.Priority
	}{
		{"security", "This has a SQL injection vulnerability", document.PriorityHigh},
		{"breaking", "This is a breaking change for API consumers", document.PriorityHigh},
		{"race", "Possible race condition when two workers share this map", document.PriorityHigh},
		{"error-handling", "The error is not checked here, add error handling", document.PriorityMedium},
		{"leak", "This goroutine will leak if the channel is never closed", document.PriorityMedium},
		{"null-check", "Missing null check before dereferencing", document.PriorityMedium},
		{"style", "Minor style: prefer early return here", document.PriorityLow},
		{"naming", "naming could be clearer", document.PriorityLow},
		{"no-markers", "what does this block do?", document.PriorityLow},
		{"high-beats-low", "typo here, but also a security problem", document.PriorityHigh},
		{"empty", "", document.PriorityLow},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := ClassifyPriority(tc.body); got != tc.want {
				t.Fatalf("ClassifyPriority(%q) = %v, want %v", tc.body, got, tc.want)
			}
		})
	}
}

func TestIsPositiveOnly(t *testing.T) {
	tests := []struct {
		name string
		body string
		want bool
	}{
		{"pure-praise", "Nice work, this looks good!", true},
		{"lgtm", "LGTM", true},
		{"praise-with-suggestion", "Good approach, but you should handle the nil case", false},
		{"praise-with-consider", "Nice! Consider extracting this into a helper", false},
		{"plain-issue", "There is an issue with the locking here", false},
		{"no-praise", "Please rename this variable", false},
		{"empty", "", false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsPositiveOnly(tc.body); got != tc.want {
				t.Fatalf("IsPositiveOnly(%q) = %v, want %v", tc.body, got, tc.want)
			}
		})
	}
}
