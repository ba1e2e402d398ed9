package content

import (
	"sort"
	"strings"
	"unicode"
)

// Index is a small inverted keyword index over the question bank, built once
// per snapshot. Tokens come from authored keywords and prompt words.
type Index struct {
	postings map[string][]int
	order    map[int]int
}

// BuildIndex tokenizes every question into the index.
func BuildIndex(questions []Question) *Index {
	idx := &Index{
		postings: make(map[string][]int),
		order:    make(map[int]int, len(questions)),
	}
	for i, q := range questions {
		idx.order[q.ID] = i
		seen := make(map[string]bool)
		for _, kw := range q.Keywords {
			idx.add(strings.ToLower(kw), q.ID, seen)
		}
		for _, tok := range tokenize(q.Prompt) {
			idx.add(tok, q.ID, seen)
		}
	}
	return idx
}

func (idx *Index) add(token string, id int, seen map[string]bool) {
	if len(token) < 2 || seen[token] {
		return
	}
	seen[token] = true
	idx.postings[token] = append(idx.postings[token], id)
}

// Search returns question ids ranked by matched token count, ties broken by
// bank order so results are stable.
func (idx *Index) Search(query string, limit int) []int {
	hits := make(map[int]int)
	for _, tok := range tokenize(query) {
		for _, id := range idx.postings[tok] {
			hits[id]++
		}
	}
	ids := make([]int, 0, len(hits))
	for id := range hits {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(a, b int) bool {
		if hits[ids[a]] != hits[ids[b]] {
			return hits[ids[a]] > hits[ids[b]]
		}
		return idx.order[ids[a]] < idx.order[ids[b]]
	})
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	return ids
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-'
	})
}
