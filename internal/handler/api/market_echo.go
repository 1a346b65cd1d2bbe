package api

import (
	"time"

	"github.com/labstack/echo/v4"

	models "AuctionPulse/internal/domain/models"
	domsvc "AuctionPulse/internal/domain/service"
	xhttp "AuctionPulse/pkg/http"
	xlogger "AuctionPulse/pkg/logger"
	"AuctionPulse/pkg/util"
)

// MarketEchoHandler exposes the read-only analysis queries over Echo.
type MarketEchoHandler struct {
	logger    *xlogger.Logger
	analytics domsvc.MarketAnalytics
}

func NewMarketEchoHandler(logger *xlogger.Logger, analytics domsvc.MarketAnalytics) *MarketEchoHandler {
	return &MarketEchoHandler{logger: logger, analytics: analytics}
}

func (h *MarketEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/trend", h.Trend)
	g.GET("/structure", h.Structure)
	g.GET("/concepts", h.Concepts)
	g.GET("/concentration", h.Concentration)
}

func (h *MarketEchoHandler) Trend(c echo.Context) error {
	req := &models.TrendRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	end := util.ParseDateDefault(req.Date, time.Time{})

	rows, err := h.analytics.Trend(c.Request().Context(), end, req.Days)
	if err != nil {
		h.logger.Error("trend query error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, rows)
}

func (h *MarketEchoHandler) Structure(c echo.Context) error {
	req := &models.StructureRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	date, ok := util.ParseDate(req.Date)
	if !ok {
		return xhttp.BadRequestResponse(c, []xhttp.ValidationError{{
			Code: "ERR_DATETIME", Field: "date", Message: "must be a valid trade date",
		}})
	}
	prior := util.ParseDateDefault(req.Prior, time.Time{})

	tags, err := h.analytics.Structure(c.Request().Context(), date, prior)
	if err != nil {
		h.logger.Error("structure query error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, tags)
}

func (h *MarketEchoHandler) Concepts(c echo.Context) error {
	req := &models.ConceptsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	date, ok := util.ParseDate(req.Date)
	if !ok {
		return xhttp.BadRequestResponse(c, []xhttp.ValidationError{{
			Code: "ERR_DATETIME", Field: "date", Message: "must be a valid trade date",
		}})
	}

	aggs, err := h.analytics.Concepts(c.Request().Context(), date)
	if err != nil {
		h.logger.Error("concepts query error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, aggs)
}

func (h *MarketEchoHandler) Concentration(c echo.Context) error {
	req := &models.ConcentrationRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	date, ok := util.ParseDate(req.Date)
	if !ok {
		return xhttp.BadRequestResponse(c, []xhttp.ValidationError{{
			Code: "ERR_DATETIME", Field: "date", Message: "must be a valid trade date",
		}})
	}

	report, err := h.analytics.Concentration(c.Request().Context(), date, req.Window, req.Top)
	if err != nil {
		h.logger.Error("concentration query error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, report)
}
