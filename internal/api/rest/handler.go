package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/intentscan/bridge-indexer/internal/analytics"
)

// Handler defines the REST API surface
type Handler interface {
	// ListSymbols returns every known token symbol and the earliest data date
	// GET /api/v1/symbols
	ListSymbols(c *gin.Context)

	// GetMatrix returns a chain-by-chain matrix for one symbol
	// GET /api/v1/symbols/:symbol/matrix?metric=slippage|counts|volume&percentile=avg|p1..p99&start_date=<date>&end_date=<date>
	GetMatrix(c *gin.Context)

	// GetDailySeries returns per-day volume and count for one symbol
	// GET /api/v1/symbols/:symbol/daily?start_date=<date>&end_date=<date>
	GetDailySeries(c *gin.Context)

	// GetSymbolStats returns summed count and volume for one symbol
	// GET /api/v1/symbols/:symbol/stats?start_date=<date>&end_date=<date>
	GetSymbolStats(c *gin.Context)

	// ListRoutes returns aggregated routes sorted by volume
	// GET /api/v1/routes?start_date=<date>&end_date=<date>&min_amount=<usd>&max_amount=<usd>
	ListRoutes(c *gin.Context)

	// GetRouteDailySeries returns per-day volume and count for one route
	// GET /api/v1/routes/daily?from_symbol=<s>&from_chain=<c>&to_symbol=<s>&to_chain=<c>
	GetRouteDailySeries(c *gin.Context)

	// GetRouteSlippage returns the selected slippage statistic for one route
	// GET /api/v1/routes/slippage?from_symbol=<s>&from_chain=<c>&to_symbol=<s>&to_chain=<c>&percentile=avg|p1..p99
	GetRouteSlippage(c *gin.Context)

	// GetOverallStats returns summed count and volume over all transactions
	// GET /api/v1/stats?start_date=<date>&end_date=<date>
	GetOverallStats(c *gin.Context)

	// HealthCheck returns the health status of the API
	// GET /health
	HealthCheck(c *gin.Context)
}

// handler implements the Handler interface
type handler struct {
	engine *analytics.Engine
}

// NewHandler creates a new REST API handler over the analytics engine
func NewHandler(engine *analytics.Engine) Handler {
	return &handler{engine: engine}
}

// ListSymbols returns every known token symbol and the earliest data date
func (h *handler) ListSymbols(c *gin.Context) {
	symbols, err := h.engine.AvailableSymbols(c.Request.Context())
	if err != nil {
		respondInternalError(c, err, "Failed to list symbols")
		return
	}

	earliest, err := h.engine.EarliestDate(c.Request.Context())
	if err != nil {
		respondInternalError(c, err, "Failed to resolve earliest date")
		return
	}

	resp := gin.H{"symbols": symbols}
	if earliest != nil {
		resp["earliest_date"] = earliest.Format(dateLayout)
	}
	c.JSON(http.StatusOK, resp)
}

// GetMatrix returns a chain-by-chain matrix for one symbol
func (h *handler) GetMatrix(c *gin.Context) {
	symbol := c.Param("symbol")
	params, sel, err := ParseMatrixQuery(c)
	if err != nil {
		respondValidationError(c, err.Error())
		return
	}
	rng, err := params.Range()
	if err != nil {
		respondValidationError(c, err.Error())
		return
	}

	ctx := c.Request.Context()
	var matrix *analytics.Matrix
	switch params.Metric {
	case MetricSlippage:
		matrix, err = h.engine.SlippageMatrix(ctx, symbol, rng, sel)
	case MetricCounts:
		matrix, err = h.engine.CountMatrix(ctx, symbol, rng)
	case MetricVolume:
		matrix, err = h.engine.VolumeMatrix(ctx, symbol, rng)
	}
	if err != nil {
		respondInternalError(c, err, "Failed to build matrix", zap.String("symbol", symbol))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"symbol":     matrix.Symbol,
		"metric":     params.Metric,
		"percentile": sel.String(),
		"chains":     matrix.Chains,
		"cells":      matrix.Cells,
	})
}

// GetDailySeries returns per-day volume and count for one symbol
func (h *handler) GetDailySeries(c *gin.Context) {
	symbol := c.Param("symbol")
	rng, err := bindDateRange(c)
	if err != nil {
		respondValidationError(c, err.Error())
		return
	}

	points, err := h.engine.DailySeries(c.Request.Context(), symbol, rng)
	if err != nil {
		respondInternalError(c, err, "Failed to build daily series", zap.String("symbol", symbol))
		return
	}

	c.JSON(http.StatusOK, gin.H{"symbol": symbol, "days": toDailyDTOs(points)})
}

// GetSymbolStats returns summed count and volume for one symbol
func (h *handler) GetSymbolStats(c *gin.Context) {
	symbol := c.Param("symbol")
	rng, err := bindDateRange(c)
	if err != nil {
		respondValidationError(c, err.Error())
		return
	}

	stats, err := h.engine.TokenStats(c.Request.Context(), symbol, rng)
	if err != nil {
		respondInternalError(c, err, "Failed to compute symbol stats", zap.String("symbol", symbol))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"symbol":   symbol,
		"tx_count": stats.TxCount,
		"volume":   stats.Volume,
	})
}

// ListRoutes returns aggregated routes sorted by volume
func (h *handler) ListRoutes(c *gin.Context) {
	params, err := ParseRoutesQuery(c)
	if err != nil {
		respondValidationError(c, err.Error())
		return
	}
	rng, err := params.Range()
	if err != nil {
		respondValidationError(c, err.Error())
		return
	}

	routes, err := h.engine.Routes(c.Request.Context(), rng, params.MinAmount, params.MaxAmount)
	if err != nil {
		respondInternalError(c, err, "Failed to list routes")
		return
	}

	c.JSON(http.StatusOK, gin.H{"routes": toRouteDTOs(routes)})
}

// GetRouteDailySeries returns per-day volume and count for one route
func (h *handler) GetRouteDailySeries(c *gin.Context) {
	params, _, err := ParseRouteQuery(c)
	if err != nil {
		respondValidationError(c, err.Error())
		return
	}
	rng, err := params.Range()
	if err != nil {
		respondValidationError(c, err.Error())
		return
	}

	points, err := h.engine.RouteDailySeries(c.Request.Context(), params.Source(), params.Destination(), rng)
	if err != nil {
		respondInternalError(c, err, "Failed to build route daily series")
		return
	}

	c.JSON(http.StatusOK, gin.H{"days": toDailyDTOs(points)})
}

// GetRouteSlippage returns the selected slippage statistic for one route
func (h *handler) GetRouteSlippage(c *gin.Context) {
	params, sel, err := ParseRouteQuery(c)
	if err != nil {
		respondValidationError(c, err.Error())
		return
	}
	rng, err := params.Range()
	if err != nil {
		respondValidationError(c, err.Error())
		return
	}

	value, ok, err := h.engine.RouteSlippage(c.Request.Context(), params.Source(), params.Destination(), sel, rng)
	if err != nil {
		respondInternalError(c, err, "Failed to compute route slippage")
		return
	}
	if !ok {
		respondNotFound(c, "No transactions for route")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"percentile": sel.String(),
		"slippage":   value,
	})
}

// GetOverallStats returns summed count and volume over all transactions
func (h *handler) GetOverallStats(c *gin.Context) {
	rng, err := bindDateRange(c)
	if err != nil {
		respondValidationError(c, err.Error())
		return
	}

	stats, err := h.engine.OverallStats(c.Request.Context(), rng)
	if err != nil {
		respondInternalError(c, err, "Failed to compute overall stats")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tx_count": stats.TxCount,
		"volume":   stats.Volume,
	})
}

// HealthCheck returns the health status of the API
func (h *handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "bridge-indexer-api",
	})
}

func bindDateRange(c *gin.Context) (analytics.DateRange, error) {
	var params DateRangeParams
	if err := c.ShouldBindQuery(&params); err != nil {
		return analytics.DateRange{}, err
	}
	return params.Range()
}

type dailyDTO struct {
	Date    string  `json:"date"`
	Volume  float64 `json:"volume"`
	TxCount int64   `json:"tx_count"`
}

func toDailyDTOs(points []analytics.DailyPoint) []dailyDTO {
	out := make([]dailyDTO, 0, len(points))
	for _, p := range points {
		out = append(out, dailyDTO{
			Date:    p.Date.Format(dateLayout),
			Volume:  p.Volume,
			TxCount: p.TxCount,
		})
	}
	return out
}

type routeDTO struct {
	FromSymbol  string  `json:"from_symbol"`
	FromChain   string  `json:"from_chain"`
	ToSymbol    string  `json:"to_symbol"`
	ToChain     string  `json:"to_chain"`
	Volume      float64 `json:"volume"`
	AvgSlippage float64 `json:"avg_slippage"`
	TxCount     int64   `json:"tx_count"`
	AvgTxSize   float64 `json:"avg_tx_size"`
	ZeroFee     bool    `json:"zero_fee"`
}

func toRouteDTOs(routes []analytics.Route) []routeDTO {
	out := make([]routeDTO, 0, len(routes))
	for _, r := range routes {
		out = append(out, routeDTO{
			FromSymbol:  r.SourceSymbol,
			FromChain:   r.SourceChain,
			ToSymbol:    r.DestSymbol,
			ToChain:     r.DestChain,
			Volume:      r.Volume,
			AvgSlippage: r.AvgSlippage,
			TxCount:     r.TxCount,
			AvgTxSize:   r.AvgTxSize,
			ZeroFee:     r.ZeroFee,
		})
	}
	return out
}
