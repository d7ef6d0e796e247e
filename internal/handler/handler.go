package handler

import (
	"net/http"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"pricewatch/internal/auth"
	"pricewatch/internal/errors"
)

// ContextKeyToken is where the echo-jwt middleware stores the parsed token.
const ContextKeyToken = "user"

// MessageResponse is a plain acknowledgement.
type MessageResponse struct {
	Message string `json:"message"`
}

// ClaimsFrom returns the authenticated caller's claims.
func ClaimsFrom(c echo.Context) (*auth.Claims, error) {
	token, ok := c.Get(ContextKeyToken).(*jwt.Token)
	if !ok {
		return nil, unauthorized("missing token")
	}
	claims, ok := token.Claims.(*auth.Claims)
	if !ok || claims.UserID == uuid.Nil {
		return nil, unauthorized("invalid token")
	}
	return claims, nil
}

func unauthorized(msg string) *echo.HTTPError {
	return echo.NewHTTPError(http.StatusUnauthorized, errors.ErrorResponse{
		Error: msg,
		Code:  "UNAUTHORIZED",
	})
}

// fail maps a service error onto the HTTP error echo renders. Unexpected
// errors keep the cause as the internal error so the access log records it.
func fail(err error) error {
	mapped := errors.MapErrorToHTTP(err)
	httpErr := echo.NewHTTPError(mapped.StatusCode, mapped.ToErrorResponse())
	if mapped.StatusCode >= http.StatusInternalServerError {
		httpErr = httpErr.SetInternal(err)
	}
	return httpErr
}

// bind decodes and validates the request body into req.
func bind(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
			Error: "invalid request body",
			Code:  "INVALID_REQUEST",
		})
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
			Error: err.Error(),
			Code:  "VALIDATION_ERROR",
		})
	}
	return nil
}

// pathID parses a UUID path parameter.
func pathID(c echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
			Error: "invalid " + name,
			Code:  "INVALID_UUID",
		})
	}
	return id, nil
}

func forbidden() *echo.HTTPError {
	return echo.NewHTTPError(http.StatusForbidden, errors.ErrorResponse{
		Error: errors.ErrForbidden.Error(),
		Code:  "FORBIDDEN",
	})
}
