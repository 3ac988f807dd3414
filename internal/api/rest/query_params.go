package rest

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/intentscan/bridge-indexer/internal/analytics"
)

const dateLayout = "2006-01-02"

// Metric names one of the matrix views.
type Metric string

const (
	MetricSlippage Metric = "slippage"
	MetricCounts   Metric = "counts"
	MetricVolume   Metric = "volume"
)

// DateRangeParams holds the shared start_date/end_date query parameters,
// both optional, YYYY-MM-DD, inclusive.
type DateRangeParams struct {
	StartDate string `form:"start_date"`
	EndDate   string `form:"end_date"`
}

// Range parses the calendar bounds into an analytics date range.
func (p *DateRangeParams) Range() (analytics.DateRange, error) {
	var rng analytics.DateRange
	if p.StartDate != "" {
		t, err := time.Parse(dateLayout, p.StartDate)
		if err != nil {
			return rng, fmt.Errorf("invalid start_date %q, expected YYYY-MM-DD", p.StartDate)
		}
		rng.Start = &t
	}
	if p.EndDate != "" {
		t, err := time.Parse(dateLayout, p.EndDate)
		if err != nil {
			return rng, fmt.Errorf("invalid end_date %q, expected YYYY-MM-DD", p.EndDate)
		}
		rng.End = &t
	}
	if rng.Start != nil && rng.End != nil && rng.End.Before(*rng.Start) {
		return rng, fmt.Errorf("end_date precedes start_date")
	}
	return rng, nil
}

// MatrixQueryParams holds query parameters for GET /symbols/:symbol/matrix
type MatrixQueryParams struct {
	DateRangeParams
	Metric     Metric `form:"metric,default=slippage"`
	Percentile string `form:"percentile,default=avg"`
}

// ParseMatrixQuery parses query parameters for GET /symbols/:symbol/matrix
func ParseMatrixQuery(c *gin.Context) (*MatrixQueryParams, analytics.Selector, error) {
	var params MatrixQueryParams
	if err := c.ShouldBindQuery(&params); err != nil {
		return nil, analytics.Selector{}, err
	}

	switch params.Metric {
	case MetricSlippage, MetricCounts, MetricVolume:
	default:
		return nil, analytics.Selector{}, fmt.Errorf("invalid metric %q", params.Metric)
	}

	sel, err := analytics.ParseSelector(params.Percentile)
	if err != nil {
		return nil, analytics.Selector{}, err
	}

	return &params, sel, nil
}

// RoutesQueryParams holds query parameters for GET /routes
type RoutesQueryParams struct {
	DateRangeParams
	MinAmount *float64 `form:"min_amount"`
	MaxAmount *float64 `form:"max_amount"`
}

// ParseRoutesQuery parses query parameters for GET /routes
func ParseRoutesQuery(c *gin.Context) (*RoutesQueryParams, error) {
	var params RoutesQueryParams
	if err := c.ShouldBindQuery(&params); err != nil {
		return nil, err
	}

	if params.MinAmount != nil && *params.MinAmount < 0 {
		return nil, fmt.Errorf("min_amount must be non-negative")
	}
	if params.MinAmount != nil && params.MaxAmount != nil && *params.MaxAmount <= *params.MinAmount {
		return nil, fmt.Errorf("max_amount must exceed min_amount")
	}

	return &params, nil
}

// RouteQueryParams holds query parameters for the single-route endpoints
// GET /routes/daily and GET /routes/slippage
type RouteQueryParams struct {
	DateRangeParams
	FromSymbol string `form:"from_symbol"`
	FromChain  string `form:"from_chain"`
	ToSymbol   string `form:"to_symbol"`
	ToChain    string `form:"to_chain"`
	Percentile string `form:"percentile,default=avg"`
}

// ParseRouteQuery parses query parameters for the single-route endpoints
func ParseRouteQuery(c *gin.Context) (*RouteQueryParams, analytics.Selector, error) {
	var params RouteQueryParams
	if err := c.ShouldBindQuery(&params); err != nil {
		return nil, analytics.Selector{}, err
	}

	if params.FromSymbol == "" || params.FromChain == "" || params.ToSymbol == "" || params.ToChain == "" {
		return nil, analytics.Selector{}, fmt.Errorf("from_symbol, from_chain, to_symbol and to_chain are required")
	}

	sel, err := analytics.ParseSelector(params.Percentile)
	if err != nil {
		return nil, analytics.Selector{}, err
	}

	return &params, sel, nil
}

// Source returns the origin endpoint of the queried route.
func (p *RouteQueryParams) Source() analytics.Endpoint {
	return analytics.Endpoint{Symbol: p.FromSymbol, Chain: p.FromChain}
}

// Destination returns the destination endpoint of the queried route.
func (p *RouteQueryParams) Destination() analytics.Endpoint {
	return analytics.Endpoint{Symbol: p.ToSymbol, Chain: p.ToChain}
}
