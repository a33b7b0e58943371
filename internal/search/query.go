package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
)

// Search limits.
const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Params configures a search.
type Params struct {
	OwnerID string // Required; results never cross owners
	Query   string
	// IncludeCompleted keeps completed todos in the results.
	IncludeCompleted bool
	Limit            int
	Offset           int
}

// Result is one page of ranked hits.
type Result struct {
	Query  string `json:"query"`
	Total  uint64 `json:"total"`
	TookMs int64  `json:"took_ms"`
	Hits   []Hit  `json:"hits"`
}

// Hit is a single matching todo.
type Hit struct {
	ID         string            `json:"id"`
	Score      float64           `json:"score"`
	Title      string            `json:"title"`
	Highlights map[string]string `json:"highlights,omitempty"`
}

// Search runs a ranked query over the owner's todos.
func (s *Index) Search(ctx context.Context, params Params) (*Result, error) {
	if params.OwnerID == "" {
		return nil, fmt.Errorf("search: owner is required")
	}
	if params.Limit <= 0 {
		params.Limit = DefaultLimit
	}
	params.Limit = min(params.Limit, MaxLimit)
	params.Offset = max(params.Offset, 0)

	result := &Result{Query: params.Query, Hits: []Hit{}}
	if strings.TrimSpace(params.Query) == "" {
		return result, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	req := bleve.NewSearchRequestOptions(buildQuery(params), params.Limit, params.Offset, false)
	req.SortBy([]string{"-_score", "_id"})
	req.Fields = []string{"title"}
	req.Highlight = bleve.NewHighlight()
	req.Highlight.AddField("title")
	req.Highlight.AddField("description")

	res, err := s.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}

	result.Total = res.Total
	result.TookMs = res.Took.Milliseconds()
	for _, h := range res.Hits {
		hit := Hit{ID: h.ID, Score: h.Score}
		if t, ok := h.Fields["title"].(string); ok {
			hit.Title = t
		}
		if len(h.Fragments) > 0 {
			hit.Highlights = make(map[string]string, len(h.Fragments))
			for field, fragments := range h.Fragments {
				if len(fragments) > 0 {
					hit.Highlights[field] = fragments[0]
				}
			}
		}
		result.Hits = append(result.Hits, hit)
	}
	return result, nil
}

// buildQuery matches the text against title (boosted), description, tags
// and category name, with fuzzy and prefix fallbacks on the title, then
// restricts to the owner.
func buildQuery(params Params) query.Query {
	text := strings.TrimSpace(params.Query)

	titleMatch := bleve.NewMatchQuery(text)
	titleMatch.SetField("title")
	titleMatch.SetBoost(3.0)

	descMatch := bleve.NewMatchQuery(text)
	descMatch.SetField("description")

	tagsMatch := bleve.NewMatchQuery(text)
	tagsMatch.SetField("tags")
	tagsMatch.SetBoost(2.0)

	categoryMatch := bleve.NewMatchQuery(text)
	categoryMatch.SetField("category_name")
	categoryMatch.SetBoost(1.5)

	fuzzy := bleve.NewFuzzyQuery(strings.ToLower(text))
	fuzzy.SetFuzziness(1)
	fuzzy.SetField("title")
	fuzzy.SetBoost(0.8)

	textQueries := []query.Query{titleMatch, descMatch, tagsMatch, categoryMatch, fuzzy}

	// Prefix matching for type-ahead, minimum 2 chars.
	if len(text) >= 2 && !strings.ContainsAny(text, " \t") {
		prefix := bleve.NewPrefixQuery(strings.ToLower(text))
		prefix.SetField("title")
		prefix.SetBoost(0.5)
		textQueries = append(textQueries, prefix)
	}

	owner := bleve.NewTermQuery(params.OwnerID)
	owner.SetField("owner_id")

	queries := []query.Query{owner, bleve.NewDisjunctionQuery(textQueries...)}

	if !params.IncludeCompleted {
		pending := bleve.NewBoolFieldQuery(false)
		pending.SetField("completed")
		queries = append(queries, pending)
	}

	return bleve.NewConjunctionQuery(queries...)
}
