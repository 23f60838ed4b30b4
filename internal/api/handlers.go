package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tejusbharadwaj/hydrotel/internal/hydrotel"
	"github.com/tejusbharadwaj/hydrotel/internal/models"
)

// selectorParam reads a repeatable, comma separated query parameter. An
// absent parameter selects everything.
func selectorParam(c *gin.Context, name string) any {
	raw, ok := c.GetQueryArray(name)
	if !ok {
		return nil
	}
	values := make([]any, 0, len(raw))
	for _, r := range raw {
		for _, v := range strings.Split(r, ",") {
			if v = strings.TrimSpace(v); v != "" {
				values = append(values, v)
			}
		}
	}
	return values
}

// handleListMTypes returns the measurement type catalogue
// GET /api/v1/mtypes
func (s *Server) handleListMTypes(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), s.timeout)
	defer cancel()

	mtypes, err := s.api.ListMeasurementTypes(ctx)
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": mtypes,
		"meta": gin.H{"count": len(mtypes)},
	})
}

// handleResolve returns the points behind measurement types and sites
// GET /api/v1/sites?mtype=flow&mtype=rainfall&site=69607
func (s *Server) handleResolve(c *gin.Context) {
	mtypes, err := hydrotel.SelectorFromValue(hydrotel.ParamMTypes, selectorParam(c, "mtype"))
	if err != nil {
		s.fail(c, err)
		return
	}
	sites, err := hydrotel.SelectorFromValue(hydrotel.ParamSites, selectorParam(c, "site"))
	if err != nil {
		s.fail(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), s.timeout)
	defer cancel()

	points, err := s.api.Resolve(ctx, mtypes, sites)
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": points,
		"meta": gin.H{"count": len(points)},
	})
}

// handleFetch returns resampled time series
// GET /api/v1/timeseries?mtype=flow&site=69607&from=2024-01-01&bucket=day&multiplier=1&rounding=3&min_count=2&pivot=true&rule=flow:max
func (s *Server) handleFetch(c *gin.Context) {
	values := map[string]any{
		hydrotel.ParamMTypes:     selectorParam(c, "mtype"),
		hydrotel.ParamSites:      selectorParam(c, "site"),
		hydrotel.ParamFrom:       c.Query("from"),
		hydrotel.ParamTo:         c.Query("to"),
		hydrotel.ParamBucket:     c.Query("bucket"),
		hydrotel.ParamMultiplier: c.Query("multiplier"),
		hydrotel.ParamRounding:   c.Query("rounding"),
		hydrotel.ParamMinCount:   c.Query("min_count"),
		hydrotel.ParamPivot:      c.Query("pivot"),
	}

	if rules := c.QueryArray("rule"); len(rules) > 0 {
		table := make(map[string]any, len(rules))
		for _, r := range rules {
			mtype, rule, ok := strings.Cut(r, ":")
			if !ok {
				s.fail(c, fmt.Errorf("%w: rule must look like mtype:rule, got %q", hydrotel.ErrInvalidArgument, r))
				return
			}
			table[mtype] = rule
		}
		values[hydrotel.ParamRules] = table
	}

	req, err := hydrotel.FetchRequestFromValues(values, s.now())
	if err != nil {
		s.fail(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), s.timeout)
	defer cancel()

	set, err := s.api.FetchTimeSeries(ctx, req)
	if err != nil {
		s.fail(c, err)
		return
	}
	if set == nil {
		set = &models.SeriesSet{Observations: []models.Observation{}}
	}

	body := gin.H{
		"data": set.Observations,
		"meta": gin.H{"count": set.Len()},
	}
	if set.Pivot != nil {
		body["pivot"] = set.Pivot
	}
	c.JSON(http.StatusOK, body)
}

type createMTypeRequest struct {
	ReferencePoint *int64 `json:"reference_point" binding:"required"`
	Name           string `json:"name" binding:"required"`
}

// handleCreateMType clones a point of the site under a new measurement type
// POST /api/v1/sites/:site/mtypes {"reference_point": 100, "name": "Backup Flow"}
func (s *Server) handleCreateMType(c *gin.Context) {
	var body createMTypeRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		s.fail(c, fmt.Errorf("%w: %v", hydrotel.ErrInvalidArgument, err))
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), s.timeout)
	defer cancel()

	points, err := s.api.CreateMeasurementType(ctx, c.Param("site"), *body.ReferencePoint, body.Name)
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"data": points,
		"meta": gin.H{"count": len(points)},
	})
}
