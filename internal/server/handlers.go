package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"

	"filing-rag/internal/helper"
	"filing-rag/internal/logger"
	"filing-rag/internal/models"
	"filing-rag/internal/rag"
)

type QueryRequest struct {
	Query string `json:"query"`
	K     *int   `json:"k"`
}

type SourceResponse struct {
	Company string `json:"company"`
	Year    string `json:"year"`
	Excerpt string `json:"excerpt"`
	Page    *int   `json:"page"`
}

type QueryResponse struct {
	Query      string           `json:"query"`
	Answer     string           `json:"answer"`
	Reasoning  string           `json:"reasoning"`
	SubQueries []string         `json:"sub_queries"`
	Sources    []SourceResponse `json:"sources"`
}

func (s *Server) root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "RAG API is running"})
}

func (s *Server) health(c *gin.Context) {
	n := s.index.Count()
	c.JSON(http.StatusOK, gin.H{
		"status":             "healthy",
		"vector_store_ready": n > 0,
		"documents":          n,
	})
}

func (s *Server) query(c *gin.Context) {
	var req QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	k := 0
	if req.K != nil {
		k = *req.K
	}

	res, err := s.rag.Query(c.Request.Context(), req.Query, k)
	if err != nil {
		if errors.Is(err, rag.ErrEmptyQuery) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Query text is required"})
			return
		}
		logger.FromContext(c.Request.Context()).Error().Err(err).Msg("Query failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error processing query: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, toResponse(res))
}

func toResponse(res *models.QueryResult) QueryResponse {
	subs := res.SubQueries
	if subs == nil {
		subs = []string{}
	}
	return QueryResponse{
		Query:      res.Query,
		Answer:     res.Answer,
		Reasoning:  res.Reasoning,
		SubQueries: subs,
		Sources: lo.Map(res.Sources, func(c models.Citation, _ int) SourceResponse {
			company, year := helper.CompanyYear(c.SourcePath)
			return SourceResponse{Company: company, Year: year, Excerpt: c.Excerpt, Page: c.Page}
		}),
	}
}
