package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/ecotrack/ecotrack-backend/internal/services"
)

type SearchHandler struct {
	keywordSearch  services.KeywordSearchService
	semanticSearch services.SemanticSearchService
}

func NewSearchHandler(keywordSearch services.KeywordSearchService, semanticSearch services.SemanticSearchService) *SearchHandler {
	return &SearchHandler{keywordSearch: keywordSearch, semanticSearch: semanticSearch}
}

func (sh *SearchHandler) Keyword(c *gin.Context) {
	query := c.Query("query")
	language := c.Query("lang")
	username := c.Query("username")

	results, err := sh.keywordSearch.Search(c.Request.Context(), query, language, username)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"results": results})
}

func (sh *SearchHandler) Semantic(c *gin.Context) {
	query := c.Query("query")
	username := c.Query("username")

	results, err := sh.semanticSearch.Search(c.Request.Context(), query, username)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"results": results})
}
