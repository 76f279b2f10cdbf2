package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
)

// pageSize is how many hits each request pulls while collecting IDs.
const pageSize = 500

// Searchable reports whether term can be expressed as a wildcard query.
// Terms carrying wildcard characters of their own cannot.
func Searchable(term string) bool {
	return term != "" && !strings.ContainsAny(term, "*?")
}

// MatchBookIDs returns the IDs of books whose title contains term,
// ignoring case. Order is unspecified.
func (s *Index) MatchBookIDs(ctx context.Context, term string) ([]string, error) {
	if !Searchable(term) {
		return nil, nil
	}
	return s.collect(ctx, bleve.NewConjunctionQuery(
		typeQuery(DocTypeBook),
		containsQuery("title", term),
	))
}

// MatchAuthorIDs returns the IDs of authors whose first or last name
// contains term, ignoring case. Order is unspecified.
func (s *Index) MatchAuthorIDs(ctx context.Context, term string) ([]string, error) {
	if !Searchable(term) {
		return nil, nil
	}
	return s.collect(ctx, bleve.NewConjunctionQuery(
		typeQuery(DocTypeAuthor),
		bleve.NewDisjunctionQuery(
			containsQuery("first_name", term),
			containsQuery("last_name", term),
		),
	))
}

func typeQuery(t DocType) query.Query {
	q := bleve.NewTermQuery(string(t))
	q.SetField("type")
	return q
}

func containsQuery(field, term string) query.Query {
	q := bleve.NewWildcardQuery("*" + fold(term) + "*")
	q.SetField(field)
	return q
}

// collect pages through every hit of q and returns the document IDs.
func (s *Index) collect(ctx context.Context, q query.Query) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var ids []string
	for from := 0; ; from += pageSize {
		req := bleve.NewSearchRequestOptions(q, pageSize, from, false)
		req.SortBy([]string{"_id"})

		res, err := s.index.SearchInContext(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("execute search: %w", err)
		}
		for _, hit := range res.Hits {
			ids = append(ids, hit.ID)
		}
		if len(res.Hits) < pageSize {
			return ids, nil
		}
	}
}
