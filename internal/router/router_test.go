package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pricewatch/internal/auth"
	"pricewatch/internal/handler"
	"pricewatch/internal/model"
	"pricewatch/internal/provision"
	"pricewatch/internal/repository"
	"pricewatch/internal/service"
	"pricewatch/internal/testutil"
)

type apiFixture struct {
	e     *echo.Echo
	store *repository.Store
}

func newAPI(t *testing.T) *apiFixture {
	t.Helper()
	store := testutil.NewStore(t)
	policy := provision.NewPolicy("")
	jwtService := auth.NewJWTService("test-secret")
	tokenStore := auth.NewTokenStore(nil)

	e := echo.New()
	Register(e, jwtService, tokenStore, Handlers{
		Auth:     handler.NewAuthHandler(service.NewAuthService(store.Users, store.Markets, jwtService, tokenStore, time.Hour, nil), true),
		Markets:  handler.NewMarketHandler(service.NewMarketService(store.Markets)),
		Products: handler.NewProductHandler(service.NewProductService(store, policy, nil, nil)),
		Reports:  handler.NewReportHandler(service.NewReportService(store, nil), service.NewVerificationService(store, policy, nil, nil)),
		Users:    handler.NewUserHandler(service.NewUserService(store.Users, store.Markets, policy, nil)),
	}, nil)
	return &apiFixture{e: e, store: store}
}

func (f *apiFixture) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)
	return rec
}

func (f *apiFixture) login(t *testing.T, email, password string) handler.AuthResponse {
	t.Helper()
	rec := f.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": email, "password": password})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp handler.AuthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst), rec.Body.String())
}

func TestAPI_ReportLifecycle(t *testing.T) {
	f := newAPI(t)
	testutil.CreateMarket(t, f.store, "Kasuwar Rimi")
	testutil.CreateAdmin(t, f.store, "admin@example.com")

	rec := f.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": "Amina", "email": "amina@example.com", "password": "password123",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	user := f.login(t, "amina@example.com", "password123")
	admin := f.login(t, "admin@example.com", "password123")

	rec = f.do(t, http.MethodPost, "/api/reports", user.AccessToken, map[string]interface{}{
		"product_name": "Tomatoes", "market_name": "Kasuwar Rimi", "shop_name": "Sani's Grains", "reported_price": 15000,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var report model.PriceReport
	decode(t, rec, &report)
	assert.Equal(t, model.ReportStatusPending, report.Status)

	rec = f.do(t, http.MethodPut, "/api/reports/"+report.ID.String()+"/approve", user.AccessToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/reports/pending", admin.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var pending []model.PriceReport
	decode(t, rec, &pending)
	require.Len(t, pending, 1)
	assert.Equal(t, "amina@example.com", pending[0].ReportedBy.Email)

	rec = f.do(t, http.MethodPut, "/api/reports/"+report.ID.String()+"/approve", admin.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var result service.ApprovalResult
	decode(t, rec, &result)
	assert.True(t, result.ShopOwnerCreated)
	assert.True(t, testutil.Price("15000").Equal(result.Product.AveragePrice))

	rec = f.do(t, http.MethodPut, "/api/reports/"+report.ID.String()+"/approve", admin.AccessToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/shops/"+result.ShopOwner.ID.String(), "", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var details service.ShopDetails
	decode(t, rec, &details)
	require.Len(t, details.Products, 1)
	assert.Equal(t, "Tomatoes", details.Products[0].Name)

	rec = f.do(t, http.MethodGet, "/api/reports/myreports", user.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var mine []model.PriceReport
	decode(t, rec, &mine)
	require.Len(t, mine, 1)
	assert.Equal(t, model.ReportStatusApproved, mine[0].Status)
}

func TestAPI_ApproveUnknownMarketIsBadRequest(t *testing.T) {
	f := newAPI(t)
	testutil.CreateAdmin(t, f.store, "admin@example.com")
	reporter := testutil.CreateUser(t, f.store, "Amina", "amina@example.com")
	admin := f.login(t, "admin@example.com", "password123")

	report := &model.PriceReport{
		ProductName: "Rice", MarketName: "Atlantis", ShopName: "New Shop",
		ReportedPrice: testutil.Price("10"), ReportedByID: reporter.ID, Status: model.ReportStatusPending,
	}
	require.NoError(t, f.store.Reports.Create(context.Background(), report))

	rec := f.do(t, http.MethodPut, "/api/reports/"+report.ID.String()+"/approve", admin.AccessToken, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "VALIDATION_ERROR")
}

func TestAPI_SubmitValidation(t *testing.T) {
	f := newAPI(t)
	testutil.CreateUser(t, f.store, "Amina", "amina@example.com")
	user := f.login(t, "amina@example.com", "password123")

	rec := f.do(t, http.MethodPost, "/api/reports", user.AccessToken, map[string]interface{}{
		"product_name": "Tomatoes", "market_name": "Kasuwar Rimi", "shop_name": "Sani's Grains", "reported_price": -1,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/reports", "", map[string]interface{}{
		"product_name": "Tomatoes", "market_name": "Kasuwar Rimi", "shop_name": "Sani's Grains", "reported_price": 10,
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAPI_LogoutRevokesAccessToken(t *testing.T) {
	f := newAPI(t)
	testutil.CreateUser(t, f.store, "Amina", "amina@example.com")
	session := f.login(t, "amina@example.com", "password123")

	rec := f.do(t, http.MethodGet, "/api/auth/me", session.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/auth/logout", session.AccessToken, map[string]string{"refresh_token": session.RefreshToken})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = f.do(t, http.MethodGet, "/api/auth/me", session.AccessToken, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/auth/refresh", "", map[string]string{"refresh_token": session.RefreshToken})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAPI_ShopOwnerPrices(t *testing.T) {
	f := newAPI(t)
	market := testutil.CreateMarket(t, f.store, "Kasuwar Rimi")
	shop := testutil.CreateShopOwner(t, f.store, "Sani's Grains", market)
	product := testutil.CreateProduct(t, f.store, "Rice", market)
	session := f.login(t, shop.Email, "password123")

	rec := f.do(t, http.MethodPost, "/api/products/"+product.ID.String()+"/prices", session.AccessToken, map[string]interface{}{"price": "120.50"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = f.do(t, http.MethodPost, "/api/products/bulk", session.AccessToken, map[string]interface{}{
		"products": []map[string]interface{}{
			{"name": "Rice", "price": 130},
			{"name": "", "price": 10},
		},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var bulk service.BulkResult
	decode(t, rec, &bulk)
	assert.Equal(t, 1, bulk.Updated)
	assert.Len(t, bulk.Skipped, 1)

	rec = f.do(t, http.MethodGet, "/api/products/"+product.ID.String(), "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var got model.Product
	decode(t, rec, &got)
	assert.Len(t, got.PriceHistory, 2)
	assert.True(t, testutil.Price("125.25").Equal(got.AveragePrice))
}

func TestAPI_AdminOnlyRoutes(t *testing.T) {
	f := newAPI(t)
	testutil.CreateUser(t, f.store, "Amina", "amina@example.com")
	testutil.CreateAdmin(t, f.store, "admin@example.com")
	user := f.login(t, "amina@example.com", "password123")
	admin := f.login(t, "admin@example.com", "password123")

	body := map[string]interface{}{"name": "Sabon Gari", "location": "Kano"}
	assert.Equal(t, http.StatusForbidden, f.do(t, http.MethodPost, "/api/markets", user.AccessToken, body).Code)
	assert.Equal(t, http.StatusCreated, f.do(t, http.MethodPost, "/api/markets", admin.AccessToken, body).Code)
	assert.Equal(t, http.StatusConflict, f.do(t, http.MethodPost, "/api/markets", admin.AccessToken, body).Code)

	assert.Equal(t, http.StatusForbidden, f.do(t, http.MethodGet, "/api/users", user.AccessToken, nil).Code)
	assert.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/api/users", admin.AccessToken, nil).Code)

	rec := f.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": "Root", "email": "root@example.com", "password": "password123", "role": "Admin",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAPI_Healthz(t *testing.T) {
	f := newAPI(t)
	rec := f.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}
