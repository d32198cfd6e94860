// Package review holds the pure classification and deduplication logic
// applied to fetched comments. Nothing here touches the network.
package review

import (
	"strings"

	"github.com/reviewsync/reviewsync/internal/document"
)

// Known bot identities. A login must carry the "[bot]" suffix and one of
// the name tokens to be classified as that source; everything else is human.
var botIdentities = []struct {
	source document.Source
	tokens []string
}{
	{document.SourceBotA, []string{"coderabbit"}},
	{document.SourceBotB, []string{"copilot"}},
}

// ClassifySource derives the comment source from the author login.
func ClassifySource(author string) document.Source {
	login := strings.ToLower(author)
	if !strings.Contains(login, "[bot]") {
		return document.SourceHuman
	}
	for _, bot := range botIdentities {
		for _, token := range bot.tokens {
			if strings.Contains(login, token) {
				return bot.source
			}
		}
	}
	return document.SourceHuman
}

// Keyword markers for priority classification. Scanned high first so a
// comment mentioning both a vulnerability and naming stays HIGH.
var (
	highMarkers = []string{
		"security",
		"vulnerability",
		"vulnerable",
		"injection",
		"breaking change",
		"breaks",
		"crash",
		"panic",
		"data loss",
		"race condition",
		"incorrect",
		"wrong",
		"bug",
	}
	mediumMarkers = []string{
		"error handling",
		"unhandled",
		"error is not",
		"type safety",
		"type-safety",
		"null check",
		"nil check",
		"leak",
		"resource",
		"deadlock",
		"missing check",
		"validation",
	}
	lowMarkers = []string{
		"style",
		"naming",
		"typo",
		"dead code",
		"unused",
		"documentation",
		"docstring",
		"comment",
		"readability",
		"nit",
		"formatting",
	}
)

// ClassifyPriority scans the body for severity markers. This is a
// best-effort sort hint, not a guarantee; absence of any marker is LOW.
func ClassifyPriority(body string) document.Priority {
	b := strings.ToLower(body)
	for _, marker := range highMarkers {
		if strings.Contains(b, marker) {
			return document.PriorityHigh
		}
	}
	for _, marker := range mediumMarkers {
		if strings.Contains(b, marker) {
			return document.PriorityMedium
		}
	}
	for _, marker := range lowMarkers {
		if strings.Contains(b, marker) {
			return document.PriorityLow
		}
	}
	return document.PriorityLow
}

var (
	praiseTerms = []string{
		"good",
		"nice",
		"well done",
		"great",
		"correct",
		"lgtm",
		"looks good",
	}
	actionableTerms = []string{
		"should",
		"consider",
		"recommend",
		"suggest",
		"issue",
		"change",
		"fix",
		"must",
		"needs",
		"instead",
	}
)

// IsPositiveOnly reports whether the body is purely laudatory: it contains
// praise and none of the actionable terms. Such comments are filtered out
// entirely, not just deprioritized.
func IsPositiveOnly(body string) bool {
	b := strings.ToLower(body)
	hasPraise := false
	for _, term := range praiseTerms {
		if strings.Contains(b, term) {
			hasPraise = true
			break
		}
	}
	if !hasPraise {
		return false
	}
	for _, term := range actionableTerms {
		if strings.Contains(b, term) {
			return false
		}
	}
	return true
}
