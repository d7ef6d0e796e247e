package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"pricewatch/internal/model"
	"pricewatch/internal/service"
)

// UserHandler bundles the admin user endpoints.
type UserHandler struct {
	svc service.UserService
}

// NewUserHandler creates a handler layer.
func NewUserHandler(svc service.UserService) *UserHandler {
	return &UserHandler{svc: svc}
}

// UpdateUserRequest carries optional changes; omitted fields stay as they are.
// An empty market_id clears the market.
type UpdateUserRequest struct {
	Name     *string `json:"name"`
	Email    *string `json:"email" validate:"omitempty,email"`
	Role     *string `json:"role" validate:"omitempty,oneof=User ShopOwner Admin"`
	ShopName *string `json:"shop_name"`
	MarketID *string `json:"market_id"`
	Password *string `json:"password" validate:"omitempty,min=8"`
}

// BulkShopOwnersRequest carries shop owner rows.
type BulkShopOwnersRequest struct {
	ShopOwners []service.ShopOwnerRow `json:"shop_owners"`
}

// ListUsers godoc
// @Summary List users
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.User
// @Failure 403 {object} errors.ErrorResponse
// @Router /users [get]
func (h *UserHandler) ListUsers(c echo.Context) error {
	users, err := h.svc.List(c.Request().Context())
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, users)
}

// GetUser godoc
// @Summary Get user by id
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {object} model.User
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /users/{id} [get]
func (h *UserHandler) GetUser(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	user, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, user)
}

// UpdateUser godoc
// @Summary Update a user
// @Description Changing the role re-validates shop name and market.
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Param request body UpdateUserRequest true "Changes"
// @Success 200 {object} model.User
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /users/{id} [put]
func (h *UserHandler) UpdateUser(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req UpdateUserRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	in := service.UpdateUserInput{
		Name:     req.Name,
		Email:    req.Email,
		ShopName: req.ShopName,
		Password: req.Password,
	}
	if req.Role != nil {
		role := model.Role(*req.Role)
		in.Role = &role
	}
	if req.MarketID != nil {
		marketID := uuid.Nil
		if *req.MarketID != "" {
			if marketID, err = uuid.Parse(*req.MarketID); err != nil {
				return echo.NewHTTPError(http.StatusBadRequest, "invalid market_id")
			}
		}
		in.MarketID = &marketID
	}

	user, err := h.svc.Update(c.Request().Context(), id, in)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, user)
}

// DeleteUser godoc
// @Summary Delete a user
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {object} MessageResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /users/{id} [delete]
func (h *UserHandler) DeleteUser(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "user deleted"})
}

// BulkCreateShopOwners godoc
// @Summary Create many shop owners
// @Description Invalid rows, unknown markets and taken emails are skipped.
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body BulkShopOwnersRequest true "Rows"
// @Success 200 {object} service.BulkResult
// @Failure 400 {object} errors.ErrorResponse
// @Router /users/shop-owners/bulk [post]
func (h *UserHandler) BulkCreateShopOwners(c echo.Context) error {
	var req BulkShopOwnersRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if len(req.ShopOwners) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "shop_owners must not be empty")
	}

	result, err := h.svc.BulkCreateShopOwners(c.Request().Context(), req.ShopOwners)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, result)
}
