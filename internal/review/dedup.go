package review

import (
	"sort"
	"strings"

	"github.com/reviewsync/reviewsync/internal/document"
)

// Two comments describe the same issue when they sit on the same file,
// their lines are within this many of each other (or both are nil), and
// their bodies share salient keywords.
const duplicateLineSlack = 5

// Keyword similarity threshold: bodies match when they share at least two
// salient keywords, or at least 40% of the smaller keyword set. Tiny bodies
// (two or fewer keywords) match on a single shared keyword.
const duplicateOverlapRatio = 0.4

// DetectDuplicates groups comments that describe the same underlying issue
// and marks all but one as duplicates. The surviving canonical record gets
// duplicate_sources listing every source that flagged the issue; each
// duplicate points back at the canonical record's stable id.
func DetectDuplicates(comments []*document.Comment) {
	n := len(comments)
	if n < 2 {
		return
	}

	keywords := make([]map[string]struct{}, n)
	for i, c := range comments {
		keywords[i] = salientKeywords(c.Body)
	}

	// Union-find over pairwise matches so transitive duplicates end up in
	// one group with a single canonical record.
	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(i int) int {
		if parent[i] != i {
			parent[i] = find(parent[i])
		}
		return parent[i]
	}
	union := func(i, j int) {
		ri, rj := find(i), find(j)
		if ri != rj {
			parent[rj] = ri
		}
	}

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if sameIssue(comments[i], comments[j], keywords[i], keywords[j]) {
				union(i, j)
			}
		}
	}

	groups := make(map[int][]int)
	for i := range comments {
		root := find(i)
		groups[root] = append(groups[root], i)
	}

	for _, members := range groups {
		if len(members) < 2 {
			continue
		}
		canonical := chooseCanonical(comments, members)

		sources := map[document.Source]struct{}{}
		for _, idx := range members {
			sources[comments[idx].Source] = struct{}{}
		}
		canonical.DuplicateSources = sortedSources(sources)
		canonical.IsDuplicate = false
		canonical.DuplicateOf = ""

		for _, idx := range members {
			c := comments[idx]
			if c == canonical {
				continue
			}
			c.IsDuplicate = true
			c.DuplicateOf = canonical.StableID()
		}
	}
}

func sameIssue(a, b *document.Comment, ka, kb map[string]struct{}) bool {
	if a.Path != b.Path {
		return false
	}
	if !linesAdjacent(a.Line, b.Line) {
		return false
	}
	return keywordsSimilar(ka, kb)
}

func linesAdjacent(a, b *int) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	diff := *a - *b
	if diff < 0 {
		diff = -diff
	}
	return diff <= duplicateLineSlack
}

func keywordsSimilar(a, b map[string]struct{}) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	shared := 0
	for k := range a {
		if _, ok := b[k]; ok {
			shared++
		}
	}
	if shared == 0 {
		return false
	}

	smaller := len(a)
	if len(b) < smaller {
		smaller = len(b)
	}
	if smaller <= 2 {
		return shared >= 1
	}
	if shared >= 2 {
		return true
	}
	return float64(shared) >= duplicateOverlapRatio*float64(smaller)
}

var stopwords = map[string]struct{}{
	"this": {}, "that": {}, "with": {}, "from": {}, "have": {}, "will": {},
	"would": {}, "should": {}, "could": {}, "please": {}, "when": {},
	"here": {}, "there": {}, "which": {}, "into": {}, "your": {}, "then": {},
	"them": {}, "they": {}, "been": {}, "being": {}, "also": {}, "some": {},
	"more": {}, "than": {}, "consider": {}, "might": {}, "does": {},
	"code": {}, "line": {}, "file": {}, "function": {}, "method": {},
}

// salientKeywords extracts the distinctive terms of a comment body:
// lowercased words of four or more characters with stopwords removed.
func salientKeywords(body string) map[string]struct{} {
	out := make(map[string]struct{})
	word := strings.Builder{}
	flush := func() {
		if word.Len() >= 4 {
			w := word.String()
			if _, stop := stopwords[w]; !stop {
				out[w] = struct{}{}
			}
		}
		word.Reset()
	}
	for _, r := range strings.ToLower(body) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' {
			word.WriteRune(r)
			continue
		}
		flush()
	}
	flush()
	return out
}

// chooseCanonical picks the group member that carries the authoritative
// reply/resolve action: prefer records with a thread id (they can actually
// be mutated), then human over bot sources (the human resolution policy
// must stay in force), then the lowest stable id for determinism.
func chooseCanonical(comments []*document.Comment, members []int) *document.Comment {
	best := comments[members[0]]
	for _, idx := range members[1:] {
		c := comments[idx]
		if canonicalLess(c, best) {
			best = c
		}
	}
	return best
}

func canonicalLess(a, b *document.Comment) bool {
	aThread, bThread := a.ThreadID != "", b.ThreadID != ""
	if aThread != bThread {
		return aThread
	}
	ra, rb := sourceRank(a.Source), sourceRank(b.Source)
	if ra != rb {
		return ra < rb
	}
	return a.StableID() < b.StableID()
}

func sourceRank(s document.Source) int {
	switch s {
	case document.SourceHuman:
		return 0
	case document.SourceBotA:
		return 1
	case document.SourceBotB:
		return 2
	}
	return 3
}

func sortedSources(set map[document.Source]struct{}) []document.Source {
	out := make([]document.Source, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		return sourceRank(out[i]) < sourceRank(out[j])
	})
	return out
}
