package api

import (
	"strings"

	"MarketScout/internal/domain/models"
	drepo "MarketScout/internal/domain/repository"
	xhttp "MarketScout/pkg/http"
	xlogger "MarketScout/pkg/logger"

	"github.com/labstack/echo/v4"
)

// ArtifactHandler serves the latest published artifact read-only. It never
// touches the pipeline; the dashboard consumes the same JSON from disk.
type ArtifactHandler struct {
	logger *xlogger.Logger
	store  drepo.ArtifactStore
}

func NewArtifactHandler(logger *xlogger.Logger, store drepo.ArtifactStore) *ArtifactHandler {
	return &ArtifactHandler{logger: logger, store: store}
}

func (h *ArtifactHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Health)
	g := e.Group("/api")
	g.GET("/artifact", h.Artifact)
	g.GET("/rankings", h.Rankings)
	g.GET("/tickers/:symbol", h.Ticker)
}

func (h *ArtifactHandler) Health(c echo.Context) error {
	return xhttp.SuccessResponse(c, map[string]string{"status": "ok"})
}

func (h *ArtifactHandler) Artifact(c echo.Context) error {
	a, err := h.latest(c)
	if err != nil {
		return xhttp.AppErrorResponse(c, err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "public, max-age=300")
	return xhttp.SuccessResponse(c, a)
}

// latest loads the published artifact, folding store failures and the
// nothing-published-yet case into AppErrors.
func (h *ArtifactHandler) latest(c echo.Context) (*models.Artifact, error) {
	a, err := h.store.Latest(c.Request().Context())
	if err != nil {
		h.logger.Error("read artifact", xlogger.Error(err))
		return nil, xhttp.InternalError("artifact store unavailable").WithError(err)
	}
	if a == nil {
		return nil, xhttp.NotFoundError("no artifact published yet")
	}
	return a, nil
}

// RankingsRequest limits the returned ranking length; 0 means all.
type RankingsRequest struct {
	Limit int `query:"limit" validate:"gte=0"`
}

func (h *ArtifactHandler) Rankings(c echo.Context) error {
	req := &RankingsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	a, err := h.latest(c)
	if err != nil {
		return xhttp.AppErrorResponse(c, err)
	}

	rankings := a.Rankings
	if req.Limit > 0 && len(rankings) > req.Limit {
		rankings = rankings[:req.Limit]
	}
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"as_of":    a.AsOf,
		"rankings": rankings,
	})
}

func (h *ArtifactHandler) Ticker(c echo.Context) error {
	symbol := strings.ToUpper(strings.TrimSpace(c.Param("symbol")))
	if symbol == "" {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError("symbol is required"))
	}

	a, err := h.latest(c)
	if err != nil {
		return xhttp.AppErrorResponse(c, err)
	}

	report, ok := a.Tickers[symbol]
	if !ok {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundErrorf("unknown symbol %s", symbol))
	}
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"as_of":  a.AsOf,
		"symbol": symbol,
		"report": report,
		"rank":   a.RankOf(symbol),
	})
}
