package server

import (
	"strconv"
	"strings"

	"baby-name-game/internal/backend"
	"baby-name-game/internal/web"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	defaultPerPage = 10
	maxPerPage     = 50
)

func parsePagination(c *gin.Context, defaultPerPage, maxPerPage int) (int, int) {
	page := positiveQuery(c, "page", 1)
	perPage := positiveQuery(c, "per_page", defaultPerPage)
	if maxPerPage > 0 {
		perPage = min(perPage, maxPerPage)
	}
	return page, perPage
}

func positiveQuery(c *gin.Context, key string, fallback int) int {
	value, err := strconv.Atoi(strings.TrimSpace(c.Query(key)))
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}

// buildPaginationData clamps page into 1..TotalPages; an empty list still has one page.
func buildPaginationData(basePath string, page, perPage int, total int64) web.PaginationData {
	perPage = max(perPage, 1)
	totalPages := max(int((total+int64(perPage)-1)/int64(perPage)), 1)
	page = min(max(page, 1), totalPages)
	data := web.PaginationData{
		BasePath:   basePath,
		Page:       page,
		PerPage:    perPage,
		Total:      int(total),
		TotalPages: totalPages,
		HasPrev:    page > 1,
		HasNext:    page < totalPages,
	}
	if data.HasPrev {
		data.PrevPage = page - 1
	}
	if data.HasNext {
		data.NextPage = page + 1
	}
	return data
}

func pageOffset(page, perPage int) int {
	return (max(page, 1) - 1) * perPage
}

// parentGamesPage loads the requested window of a parent's games from the backend.
// A page past the end is served as the last page.
func (s *Server) parentGamesPage(c *gin.Context, parentID uuid.UUID, basePath string) ([]backend.GameSummary, web.PaginationData, error) {
	ctx := c.Request.Context()
	page, perPage := parsePagination(c, defaultPerPage, maxPerPage)
	games, total, err := s.svc.ListParentGamesPage(ctx, parentID, perPage, pageOffset(page, perPage))
	if err != nil {
		return nil, buildPaginationData(basePath, 1, perPage, 0), err
	}
	pagination := buildPaginationData(basePath, page, perPage, total)
	if pagination.Page == page {
		return games, pagination, nil
	}
	games, total, err = s.svc.ListParentGamesPage(ctx, parentID, perPage, pageOffset(pagination.Page, perPage))
	if err != nil {
		return nil, pagination, err
	}
	return games, buildPaginationData(basePath, pagination.Page, perPage, total), nil
}
