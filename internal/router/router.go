package router

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.uber.org/zap"

	"pricewatch/internal/auth"
	"pricewatch/internal/errors"
	"pricewatch/internal/handler"
	"pricewatch/internal/logging"
	"pricewatch/internal/model"
	"pricewatch/internal/service"
)

// Handlers groups the HTTP handlers the router mounts.
type Handlers struct {
	Auth     *handler.AuthHandler
	Markets  *handler.MarketHandler
	Products *handler.ProductHandler
	Reports  *handler.ReportHandler
	Users    *handler.UserHandler
}

// Register wires routes and middleware.
func Register(
	e *echo.Echo,
	jwtService *auth.JWTService,
	tokenStore auth.TokenStoreInterface,
	h Handlers,
	logger *zap.Logger,
) {
	logger = logging.OrNop(logger)

	e.Use(middleware.RequestID())
	e.Use(requestLogger(logger))
	e.Use(middleware.Recover())

	e.Validator = &CustomValidator{validator: service.NewValidator()}

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/api")

	// Public routes
	api.POST("/auth/register", h.Auth.Register)
	api.POST("/auth/login", h.Auth.Login)
	api.POST("/auth/refresh", h.Auth.Refresh)
	api.POST("/auth/forgot-password", h.Auth.ForgotPassword)
	api.POST("/auth/reset-password", h.Auth.ResetPassword)
	api.GET("/markets", h.Markets.List)
	api.GET("/markets/:id", h.Markets.Get)
	api.GET("/products", h.Products.List)
	api.GET("/products/:id", h.Products.Get)
	api.GET("/reports/public", h.Reports.Public)
	api.GET("/shops/:id", h.Products.ShopDetails)

	// Secured routes (require JWT authentication)
	secured := api.Group("", echojwt.WithConfig(echojwt.Config{
		SigningKey:    jwtService.Secret(),
		SigningMethod: jwt.SigningMethodHS256.Alg(),
		TokenLookup:   "header:" + echo.HeaderAuthorization + ":Bearer ",
		ContextKey:    handler.ContextKeyToken,
		NewClaimsFunc: func(echo.Context) jwt.Claims { return new(auth.Claims) },
		ErrorHandler: func(c echo.Context, err error) error {
			return echo.NewHTTPError(http.StatusUnauthorized, errors.ErrorResponse{
				Error: "missing or invalid token",
				Code:  "UNAUTHORIZED",
			})
		},
	}), rejectRevoked(tokenStore))

	secured.POST("/auth/logout", h.Auth.Logout)
	secured.GET("/auth/me", h.Auth.Profile)

	// Report routes
	secured.POST("/reports", h.Reports.Submit, requireRole(model.Role.CanSubmitReports))
	secured.GET("/reports/myreports", h.Reports.MyReports)
	secured.GET("/reports/pending", h.Reports.Pending, requireRole(model.Role.CanApproveReports))
	secured.GET("/reports/:id", h.Reports.Get)
	secured.PUT("/reports/:id/approve", h.Reports.Approve, requireRole(model.Role.CanApproveReports))
	secured.DELETE("/reports/:id", h.Reports.Reject, requireRole(model.Role.CanApproveReports))

	// Market routes
	secured.POST("/markets", h.Markets.Create, requireRole(model.Role.CanManageMarkets))

	// Product routes
	secured.POST("/products", h.Products.Create, requireRole(model.Role.CanCreateProducts))
	secured.POST("/products/bulk", h.Products.BulkImport, requireRole(model.Role.CanOwnShop))
	secured.POST("/products/:id/prices", h.Products.AddPrice, requireRole(model.Role.CanOwnShop))

	// User administration
	users := secured.Group("/users", requireRole(model.Role.CanManageUsers))
	users.GET("", h.Users.ListUsers)
	users.POST("/shop-owners/bulk", h.Users.BulkCreateShopOwners)
	users.GET("/:id", h.Users.GetUser)
	users.PUT("/:id", h.Users.UpdateUser)
	users.DELETE("/:id", h.Users.DeleteUser)
}

// requireRole admits callers whose role has the capability.
func requireRole(can func(model.Role) bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, err := handler.ClaimsFrom(c)
			if err != nil {
				return err
			}
			if !can(claims.Role) {
				return echo.NewHTTPError(http.StatusForbidden, errors.ErrorResponse{
					Error: errors.ErrForbidden.Error(),
					Code:  "FORBIDDEN",
				})
			}
			return next(c)
		}
	}
}

// rejectRevoked refuses access tokens blacklisted at logout.
func rejectRevoked(tokenStore auth.TokenStoreInterface) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, err := handler.ClaimsFrom(c)
			if err != nil {
				return err
			}
			revoked, err := tokenStore.IsAccessTokenBlacklisted(c.Request().Context(), claims.ID)
			if err != nil {
				return err
			}
			if revoked {
				return echo.NewHTTPError(http.StatusUnauthorized, errors.ErrorResponse{
					Error: "token has been revoked",
					Code:  "TOKEN_REVOKED",
				})
			}
			return next(c)
		}
	}
}

func requestLogger(logger *zap.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("request_id", v.RequestID),
			}
			switch {
			case v.Status >= http.StatusInternalServerError:
				if v.Error != nil {
					fields = append(fields, zap.Error(v.Error))
				}
				logger.Error("request", fields...)
			default:
				logger.Info("request", fields...)
			}
			return nil
		},
	})
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
