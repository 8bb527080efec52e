package javac

import (
	"sort"
	"strings"

	edlib "github.com/hbollon/go-edlib"
)

// SymbolMatch is one workspace-symbol search hit.
type SymbolMatch struct {
	Element *Element
	Span    Span
}

// FindSymbols searches every workspace declaration for the query, ranking
// exact and substring hits first and fuzzy hits by string similarity.
func (s *CompilerService) FindSymbols(query string, limit int) []SymbolMatch {
	type scored struct {
		match SymbolMatch
		score float32
	}
	var hits []scored

	for _, uri := range s.store.JavaSourceURIs() {
		p := s.ParseFile(uri)
		if p == nil {
			continue
		}
		for _, d := range p.Declarations() {
			score := symbolScore(query, d.Name)
			if score <= 0 {
				continue
			}
			hits = append(hits, scored{
				match: SymbolMatch{Element: d, Span: p.Span(p.Node(d))},
				score: score,
			})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].score != hits[j].score {
			return hits[i].score > hits[j].score
		}
		return hits[i].match.Element.Name < hits[j].match.Element.Name
	})
	if len(hits) > limit {
		hits = hits[:limit]
	}
	out := make([]SymbolMatch, len(hits))
	for i, h := range hits {
		out[i] = h.match
	}
	return out
}

func symbolScore(query, name string) float32 {
	if query == "" {
		return 1
	}
	lq, ln := strings.ToLower(query), strings.ToLower(name)
	switch {
	case lq == ln:
		return 3
	case strings.HasPrefix(ln, lq):
		return 2.5
	case strings.Contains(ln, lq):
		return 2
	}
	sim, err := edlib.StringsSimilarity(lq, ln, edlib.Levenshtein)
	if err != nil || sim < 0.45 {
		return 0
	}
	return sim
}
