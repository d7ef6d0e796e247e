package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"pricewatch/internal/service"
)

// ReportHandler handles price report endpoints.
type ReportHandler struct {
	reportService       service.ReportService
	verificationService service.VerificationService
}

// NewReportHandler creates a new report handler.
func NewReportHandler(reportService service.ReportService, verificationService service.VerificationService) *ReportHandler {
	return &ReportHandler{
		reportService:       reportService,
		verificationService: verificationService,
	}
}

// SubmitReportRequest is a community price observation.
type SubmitReportRequest struct {
	ProductName   string          `json:"product_name" validate:"required"`
	MarketName    string          `json:"market_name" validate:"required"`
	ShopName      string          `json:"shop_name" validate:"required"`
	ReportedPrice decimal.Decimal `json:"reported_price" swaggertype:"number" validate:"gt=0"`
}

// Submit godoc
// @Summary Submit a price report
// @Tags reports
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body SubmitReportRequest true "Report"
// @Success 201 {object} model.PriceReport
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /reports [post]
func (h *ReportHandler) Submit(c echo.Context) error {
	var req SubmitReportRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	claims, err := ClaimsFrom(c)
	if err != nil {
		return err
	}

	report, err := h.reportService.Submit(c.Request().Context(), service.ReportSubmission{
		ProductName:   req.ProductName,
		MarketName:    req.MarketName,
		ShopName:      req.ShopName,
		ReportedPrice: req.ReportedPrice,
		ReporterID:    claims.UserID,
	})
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusCreated, report)
}

// MyReports godoc
// @Summary The caller's reports, newest first
// @Tags reports
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.PriceReport
// @Failure 401 {object} errors.ErrorResponse
// @Router /reports/myreports [get]
func (h *ReportHandler) MyReports(c echo.Context) error {
	claims, err := ClaimsFrom(c)
	if err != nil {
		return err
	}
	reports, err := h.reportService.MyReports(c.Request().Context(), claims.UserID)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, reports)
}

// Pending godoc
// @Summary Reports awaiting verification
// @Tags reports
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.PriceReport
// @Failure 403 {object} errors.ErrorResponse
// @Router /reports/pending [get]
func (h *ReportHandler) Pending(c echo.Context) error {
	reports, err := h.reportService.Pending(c.Request().Context())
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, reports)
}

// Public godoc
// @Summary Recently approved reports
// @Tags reports
// @Produce json
// @Param limit query int false "Maximum number of reports"
// @Success 200 {array} model.PriceReport
// @Router /reports/public [get]
func (h *ReportHandler) Public(c echo.Context) error {
	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid limit")
		}
		limit = n
	}
	reports, err := h.reportService.Public(c.Request().Context(), limit)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, reports)
}

// Get godoc
// @Summary Get a report
// @Tags reports
// @Produce json
// @Security BearerAuth
// @Param id path string true "Report ID"
// @Success 200 {object} model.PriceReport
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /reports/{id} [get]
func (h *ReportHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	claims, err := ClaimsFrom(c)
	if err != nil {
		return err
	}
	report, err := h.reportService.Get(c.Request().Context(), id)
	if err != nil {
		return fail(err)
	}
	if report.ReportedByID != claims.UserID && !claims.Role.CanApproveReports() {
		return forbidden()
	}
	return c.JSON(http.StatusOK, report)
}

// Approve godoc
// @Summary Approve a pending report
// @Description Resolves or provisions the shop owner and product, then records the price.
// @Tags reports
// @Produce json
// @Security BearerAuth
// @Param id path string true "Report ID"
// @Success 200 {object} service.ApprovalResult
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /reports/{id}/approve [put]
func (h *ReportHandler) Approve(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	result, err := h.verificationService.Approve(c.Request().Context(), id)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, result)
}

// Reject godoc
// @Summary Reject and delete a pending report
// @Tags reports
// @Produce json
// @Security BearerAuth
// @Param id path string true "Report ID"
// @Success 200 {object} MessageResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /reports/{id} [delete]
func (h *ReportHandler) Reject(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.verificationService.Reject(c.Request().Context(), id); err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "report rejected"})
}
