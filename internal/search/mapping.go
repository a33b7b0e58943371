package search

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/simple"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/mapping"
)

// buildIndexMapping creates the Bleve mapping for todo documents.
//
// Title and description use English stemming. Tags and category names use
// the simple analyzer so "groceries" does not match "grocery". Owner and
// priority are exact keywords used only as filters.
func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = en.AnalyzerName

	docMapping := bleve.NewDocumentMapping()

	titleFieldMapping := bleve.NewTextFieldMapping()
	titleFieldMapping.Analyzer = en.AnalyzerName
	titleFieldMapping.Store = true
	titleFieldMapping.IncludeTermVectors = true // For highlighting
	docMapping.AddFieldMappingsAt("title", titleFieldMapping)

	descFieldMapping := bleve.NewTextFieldMapping()
	descFieldMapping.Analyzer = en.AnalyzerName
	descFieldMapping.Store = false
	descFieldMapping.IncludeTermVectors = true
	docMapping.AddFieldMappingsAt("description", descFieldMapping)

	tagsFieldMapping := bleve.NewTextFieldMapping()
	tagsFieldMapping.Analyzer = simple.Name
	tagsFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("tags", tagsFieldMapping)

	categoryFieldMapping := bleve.NewTextFieldMapping()
	categoryFieldMapping.Analyzer = simple.Name
	categoryFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("category_name", categoryFieldMapping)

	ownerFieldMapping := bleve.NewTextFieldMapping()
	ownerFieldMapping.Analyzer = keyword.Name
	ownerFieldMapping.Store = false
	ownerFieldMapping.IncludeInAll = false
	docMapping.AddFieldMappingsAt("owner_id", ownerFieldMapping)

	priorityFieldMapping := bleve.NewTextFieldMapping()
	priorityFieldMapping.Analyzer = keyword.Name
	priorityFieldMapping.Store = true
	priorityFieldMapping.IncludeInAll = false
	docMapping.AddFieldMappingsAt("priority", priorityFieldMapping)

	completedFieldMapping := bleve.NewBooleanFieldMapping()
	completedFieldMapping.Store = true
	completedFieldMapping.IncludeInAll = false
	docMapping.AddFieldMappingsAt("completed", completedFieldMapping)

	createdFieldMapping := bleve.NewDateTimeFieldMapping()
	createdFieldMapping.Store = false
	createdFieldMapping.IncludeInAll = false
	docMapping.AddFieldMappingsAt("created_at", createdFieldMapping)

	idFieldMapping := bleve.NewTextFieldMapping()
	idFieldMapping.Analyzer = keyword.Name
	idFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("id", idFieldMapping)

	indexMapping.AddDocumentMapping("_default", docMapping)

	return indexMapping
}
