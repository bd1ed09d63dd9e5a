package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/dipa/notefournote-server/internal/errors"
)

// SearchParams configures a note search query.
type SearchParams struct {
	// Username scopes results to notes the user can read. Required.
	Username string

	// Text is matched against title and content. Optional.
	Text string

	// Tags are normalized tag names a note must ALL carry. Optional.
	Tags []string

	// Pagination
	Limit  int
	Offset int
}

// defaultLimit bounds result sets when the caller doesn't set one.
const defaultLimit = 100

// SearchResult holds the outcome of a search, ordered by relevance.
type SearchResult struct {
	Total  uint64 `json:"total"`
	TookMs int64  `json:"took_ms"`

	// IDs are the matching note IDs in descending relevance order.
	IDs []string `json:"ids"`
}

// Search executes a note search and returns matching note IDs ordered by
// relevance. The results are already restricted to notes the user owns or
// has been granted through a share.
//
// At least one of Text or Tags must be set; a search with no criteria is
// rejected rather than silently returning the user's whole corpus.
func (s *NoteIndex) Search(ctx context.Context, params SearchParams) (*SearchResult, error) {
	if params.Username == "" {
		return nil, errors.Validation("search requires a username")
	}
	// Whitespace-only text is no criterion at all.
	params.Text = strings.TrimSpace(params.Text)
	if params.Text == "" && len(params.Tags) == 0 {
		return nil, errors.Validation("search requires text or at least one tag")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	searchQuery := buildSearchQuery(params)

	limit := params.Limit
	if limit <= 0 {
		limit = defaultLimit
	}

	searchRequest := bleve.NewSearchRequestOptions(searchQuery, limit, params.Offset, false)
	searchRequest.SortBy([]string{"-_score", "-updated_at"})

	searchResult, err := s.index.SearchInContext(ctx, searchRequest)
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}

	result := &SearchResult{
		Total:  searchResult.Total,
		TookMs: searchResult.Took.Milliseconds(),
		IDs:    make([]string, 0, len(searchResult.Hits)),
	}
	for _, hit := range searchResult.Hits {
		result.IDs = append(result.IDs, hit.ID)
	}

	return result, nil
}

// buildSearchQuery constructs the Bleve query from params.
//
// Shape: access AND text AND tags.
//   - access: the user is the owner OR among the share recipients
//   - text: matches title (boosted) or content
//   - tags: every requested tag must be present
func buildSearchQuery(params SearchParams) query.Query {
	var queries []query.Query

	// Access predicate
	ownerQuery := bleve.NewTermQuery(params.Username)
	ownerQuery.SetField("owner_username")
	sharedQuery := bleve.NewTermQuery(params.Username)
	sharedQuery.SetField("shared_with_usernames")
	queries = append(queries, bleve.NewDisjunctionQuery(ownerQuery, sharedQuery))

	// Text criterion
	if params.Text != "" {
		titleMatch := bleve.NewMatchQuery(params.Text)
		titleMatch.SetField("title")
		titleMatch.SetBoost(2.0)

		contentMatch := bleve.NewMatchQuery(params.Text)
		contentMatch.SetField("content")

		queries = append(queries, bleve.NewDisjunctionQuery(titleMatch, contentMatch))
	}

	// Tag criterion. Conjunction: the note must carry ALL requested tags.
	for _, tag := range params.Tags {
		tq := bleve.NewTermQuery(tag)
		tq.SetField("tags")
		queries = append(queries, tq)
	}

	if len(queries) == 1 {
		return queries[0]
	}
	return bleve.NewConjunctionQuery(queries...)
}
