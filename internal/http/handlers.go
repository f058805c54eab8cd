package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/gaffar-dulkadir/vectord/internal/collections"
	"github.com/gaffar-dulkadir/vectord/internal/material"
	"github.com/gaffar-dulkadir/vectord/internal/registry"
	"github.com/gaffar-dulkadir/vectord/internal/vectorstore"
)

const (
	defaultSearchLimit   = 10
	defaultScrollLimit   = 100
	defaultDiscoverLimit = 10
)

// Collections

func (s *Server) handleListCollections(c echo.Context) error {
	names, err := s.manager.List(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, ListCollectionsResponse{
		Collections: names,
		Count:       len(names),
	})
}

func (s *Server) handleCreateCollection(c echo.Context) error {
	var req CreateCollectionRequest
	if err := c.Bind(&req); err != nil {
		s.logger.Warn("invalid create collection request", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	distance, err := vectorstore.ParseDistance(req.DistanceMetric)
	if err != nil {
		return writeError(c, err)
	}

	meta := registry.CollectionMetadata{
		Name:           req.Name,
		VectorSize:     req.VectorSize,
		DistanceMetric: distance,
		Description:    req.Description,
		Department:     req.Department,
		Team:           req.Team,
		Project:        req.Project,
		SourceType:     req.SourceType,
		AccessLevel:    req.AccessLevel,
		ContentType:    req.ContentType,
		Tags:           req.Tags,
		Priority:       registry.Priority(req.Priority),
		Metadata:       req.Metadata,
		IsActive:       req.IsActive == nil || *req.IsActive,
	}

	if err := s.manager.Create(c.Request().Context(), meta); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, meta)
}

func (s *Server) handleGetCollection(c echo.Context) error {
	details, err := s.manager.Get(c.Request().Context(), c.Param("name"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, details)
}

func (s *Server) handleUpdateCollection(c echo.Context) error {
	var req UpdateCollectionRequest
	if err := c.Bind(&req); err != nil {
		s.logger.Warn("invalid update collection request", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	meta := registry.CollectionMetadata{
		Name:        c.Param("name"),
		Description: req.Description,
		Department:  req.Department,
		Team:        req.Team,
		Project:     req.Project,
		SourceType:  req.SourceType,
		AccessLevel: req.AccessLevel,
		ContentType: req.ContentType,
		Tags:        req.Tags,
		Priority:    registry.Priority(req.Priority),
		Metadata:    req.Metadata,
		IsActive:    req.IsActive == nil || *req.IsActive,
	}

	if err := s.manager.Update(c.Request().Context(), meta); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, meta)
}

func (s *Server) handleDeleteCollection(c echo.Context) error {
	if err := s.manager.Delete(c.Request().Context(), c.Param("name")); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleDiscover(c echo.Context) error {
	var req DiscoverRequest
	if err := c.Bind(&req); err != nil {
		s.logger.Warn("invalid discover request", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Limit <= 0 {
		req.Limit = defaultDiscoverLimit
	}

	results, err := s.registry.Discover(c.Request().Context(), req.Query, req.Filter, req.Limit)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, DiscoverResponse{
		Results: results,
		Count:   len(results),
	})
}

// Points

func (s *Server) handleUpsertPoint(c echo.Context) error {
	name := c.Param("name")
	if err := collections.GuardWritable(name); err != nil {
		return writeError(c, err)
	}

	var req UpsertPointRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if len(req.Vector) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "vector field is required")
	}

	id, err := s.store.UpsertPoint(c.Request().Context(), name, vectorstore.Point{
		ID:      req.ID,
		Vector:  req.Vector,
		Payload: req.Payload,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, UpsertPointResponse{ID: id})
}

func (s *Server) handleGetPoint(c echo.Context) error {
	name := c.Param("name")
	if err := collections.GuardWritable(name); err != nil {
		return writeError(c, err)
	}

	point, err := s.store.GetPoint(c.Request().Context(), name, c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, point)
}

func (s *Server) handleUpdatePoint(c echo.Context) error {
	name := c.Param("name")
	if err := collections.GuardWritable(name); err != nil {
		return writeError(c, err)
	}

	var req UpdatePointRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if len(req.Vector) == 0 && req.Payload == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "vector or payload is required")
	}

	point, err := s.store.UpdatePoint(c.Request().Context(), name, c.Param("id"), req.Vector, req.Payload)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, point)
}

func (s *Server) handleDeletePoint(c echo.Context) error {
	name := c.Param("name")
	if err := collections.GuardWritable(name); err != nil {
		return writeError(c, err)
	}

	if err := s.store.DeletePoint(c.Request().Context(), name, c.Param("id")); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleSearchPoints(c echo.Context) error {
	name := c.Param("name")
	if err := collections.GuardWritable(name); err != nil {
		return writeError(c, err)
	}

	var req SearchRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if len(req.Vector) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "vector field is required")
	}
	if req.Limit <= 0 {
		req.Limit = defaultSearchLimit
	}

	params := vectorstore.SearchParams{
		Limit:          req.Limit,
		ScoreThreshold: req.ScoreThreshold,
	}
	if len(req.Match) > 0 || len(req.MatchAny) > 0 {
		params.Filter = &vectorstore.Filter{
			Match:    req.Match,
			MatchAny: req.MatchAny,
		}
	}

	hits, err := s.store.SearchPoints(c.Request().Context(), name, req.Vector, params)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, SearchResponse{
		Hits:  hits,
		Count: len(hits),
	})
}

func (s *Server) handleScrollPoints(c echo.Context) error {
	name := c.Param("name")
	if err := collections.GuardWritable(name); err != nil {
		return writeError(c, err)
	}

	var req ScrollRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Limit <= 0 {
		req.Limit = defaultScrollLimit
	}

	page, err := s.store.ScrollPoints(c.Request().Context(), name, req.Cursor, req.Limit)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, page)
}

// Materials

func (s *Server) handleIndexMaterial(c echo.Context) error {
	name := c.Param("name")
	if err := collections.GuardWritable(name); err != nil {
		return writeError(c, err)
	}

	var req IndexMaterialRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	result, err := s.pipeline.IndexOne(c.Request().Context(), name, req.toPipeline())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, result)
}

func (s *Server) handleIndexBatch(c echo.Context) error {
	name := c.Param("name")
	if err := collections.GuardWritable(name); err != nil {
		return writeError(c, err)
	}

	var req IndexBatchRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if len(req.Materials) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "materials field is required")
	}

	reqs := make([]material.IndexRequest, len(req.Materials))
	for i, m := range req.Materials {
		reqs[i] = m.toPipeline()
	}

	result := s.pipeline.IndexBatch(c.Request().Context(), name, reqs)
	return c.JSON(http.StatusOK, batchResponse(result))
}
