package search

import (
	"fmt"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/custom"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	"github.com/blevesearch/bleve/v2/analysis/tokenizer/single"
	"github.com/blevesearch/bleve/v2/mapping"
)

// lowerKeyword indexes a whole field value as one lowercased term, so a
// "*term*" wildcard behaves like a case-insensitive substring match.
const lowerKeyword = "lower_keyword"

func buildIndexMapping() (mapping.IndexMapping, error) {
	indexMapping := bleve.NewIndexMapping()

	err := indexMapping.AddCustomAnalyzer(lowerKeyword, map[string]any{
		"type":          custom.Name,
		"tokenizer":     single.Name,
		"token_filters": []string{lowercase.Name},
	})
	if err != nil {
		return nil, fmt.Errorf("register analyzer: %w", err)
	}
	indexMapping.DefaultAnalyzer = lowerKeyword

	docMapping := bleve.NewDocumentMapping()

	typeField := bleve.NewTextFieldMapping()
	typeField.Analyzer = keyword.Name
	docMapping.AddFieldMappingsAt("type", typeField)

	for _, name := range []string{"title", "first_name", "last_name"} {
		f := bleve.NewTextFieldMapping()
		f.Analyzer = lowerKeyword
		f.Store = false
		f.IncludeInAll = false
		docMapping.AddFieldMappingsAt(name, f)
	}

	indexMapping.AddDocumentMapping("_default", docMapping)
	return indexMapping, nil
}
