package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"pricewatch/internal/repository"
	"pricewatch/internal/service"
)

// ProductHandler handles product, price and shop endpoints.
type ProductHandler struct {
	productService service.ProductService
}

// NewProductHandler creates a new product handler.
func NewProductHandler(productService service.ProductService) *ProductHandler {
	return &ProductHandler{productService: productService}
}

// CreateProductRequest represents a new product.
type CreateProductRequest struct {
	Name        string `json:"name" validate:"required"`
	Category    string `json:"category"`
	Description string `json:"description"`
	MarketID    string `json:"market_id" validate:"required,uuid"`
}

// AddPriceRequest is a shop owner's own price for a product.
type AddPriceRequest struct {
	Price decimal.Decimal `json:"price" swaggertype:"number" validate:"gt=0"`
}

// BulkImportRequest carries rows for a bulk product import.
type BulkImportRequest struct {
	Products []service.ProductRow `json:"products"`
}

// Create godoc
// @Summary Create a product
// @Tags products
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateProductRequest true "Product data"
// @Success 201 {object} model.Product
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /products [post]
func (h *ProductHandler) Create(c echo.Context) error {
	var req CreateProductRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	marketID, err := uuid.Parse(req.MarketID)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid market_id")
	}

	product, err := h.productService.Create(c.Request().Context(), service.CreateProductInput{
		Name:        req.Name,
		Category:    req.Category,
		Description: req.Description,
		MarketID:    marketID,
	})
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusCreated, product)
}

// List godoc
// @Summary List products
// @Tags products
// @Produce json
// @Param market_id query string false "Market ID"
// @Param category query string false "Category"
// @Param q query string false "Name search"
// @Success 200 {array} model.Product
// @Failure 400 {object} errors.ErrorResponse
// @Router /products [get]
func (h *ProductHandler) List(c echo.Context) error {
	filter := repository.ProductFilter{
		Category: c.QueryParam("category"),
		Query:    c.QueryParam("q"),
	}
	if raw := c.QueryParam("market_id"); raw != "" {
		marketID, err := uuid.Parse(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid market_id")
		}
		filter.MarketID = &marketID
	}

	products, err := h.productService.List(c.Request().Context(), filter)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, products)
}

// Get godoc
// @Summary Get a product with its price history
// @Tags products
// @Produce json
// @Param id path string true "Product ID"
// @Success 200 {object} model.Product
// @Failure 404 {object} errors.ErrorResponse
// @Router /products/{id} [get]
func (h *ProductHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	product, err := h.productService.Get(c.Request().Context(), id)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, product)
}

// AddPrice godoc
// @Summary Record the caller's own price for a product
// @Tags products
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Product ID"
// @Param request body AddPriceRequest true "Price"
// @Success 200 {object} model.Product
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /products/{id}/prices [post]
func (h *ProductHandler) AddPrice(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req AddPriceRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	claims, err := ClaimsFrom(c)
	if err != nil {
		return err
	}

	product, err := h.productService.AddPrice(c.Request().Context(), id, req.Price, claims.UserID)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, product)
}

// BulkImport godoc
// @Summary Import the caller's prices for many products
// @Description Rows missing a name or a positive price, or naming an unknown market, are skipped.
// @Tags products
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body BulkImportRequest true "Rows"
// @Success 200 {object} service.BulkResult
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /products/bulk [post]
func (h *ProductHandler) BulkImport(c echo.Context) error {
	var req BulkImportRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if len(req.Products) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "products must not be empty")
	}
	claims, err := ClaimsFrom(c)
	if err != nil {
		return err
	}

	result, err := h.productService.BulkImport(c.Request().Context(), claims.UserID, req.Products)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, result)
}

// ShopDetails godoc
// @Summary A shop's products at that shop's latest price
// @Tags shops
// @Produce json
// @Param id path string true "Shop owner ID"
// @Success 200 {object} service.ShopDetails
// @Failure 404 {object} errors.ErrorResponse
// @Router /shops/{id} [get]
func (h *ProductHandler) ShopDetails(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	details, err := h.productService.ShopDetails(c.Request().Context(), id)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, details)
}
