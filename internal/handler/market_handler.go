package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"pricewatch/internal/service"
)

// MarketHandler handles market endpoints.
type MarketHandler struct {
	marketService service.MarketService
}

// NewMarketHandler creates a new market handler.
func NewMarketHandler(marketService service.MarketService) *MarketHandler {
	return &MarketHandler{marketService: marketService}
}

// CreateMarketRequest represents a new market.
type CreateMarketRequest struct {
	Name        string   `json:"name" validate:"required"`
	Location    string   `json:"location" validate:"required"`
	Description string   `json:"description"`
	Latitude    *float64 `json:"lat" validate:"omitempty,latitude"`
	Longitude   *float64 `json:"lng" validate:"omitempty,longitude"`
}

// Create godoc
// @Summary Create a market
// @Tags markets
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateMarketRequest true "Market data"
// @Success 201 {object} model.Market
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /markets [post]
func (h *MarketHandler) Create(c echo.Context) error {
	var req CreateMarketRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	market, err := h.marketService.Create(c.Request().Context(), service.CreateMarketInput{
		Name:        req.Name,
		Location:    req.Location,
		Description: req.Description,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
	})
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusCreated, market)
}

// List godoc
// @Summary List markets
// @Tags markets
// @Produce json
// @Success 200 {array} model.Market
// @Router /markets [get]
func (h *MarketHandler) List(c echo.Context) error {
	markets, err := h.marketService.List(c.Request().Context())
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, markets)
}

// Get godoc
// @Summary Get a market
// @Tags markets
// @Produce json
// @Param id path string true "Market ID"
// @Success 200 {object} model.Market
// @Failure 404 {object} errors.ErrorResponse
// @Router /markets/{id} [get]
func (h *MarketHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	market, err := h.marketService.Get(c.Request().Context(), id)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, market)
}
