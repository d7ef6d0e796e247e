package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "pricewatch/internal/errors"
	"pricewatch/internal/model"
	"pricewatch/internal/testutil"
)

func TestReportService_SubmitValidation(t *testing.T) {
	store := testutil.NewStore(t)
	svc := NewReportService(store, nil)
	reporter := testutil.CreateUser(t, store, "Amina", "amina@example.com")

	valid := ReportSubmission{
		ProductName:   "Tomatoes",
		MarketName:    "Kasuwar Rimi",
		ShopName:      "Sani's Grains",
		ReportedPrice: testutil.Price("15000"),
		ReporterID:    reporter.ID,
	}

	tests := []struct {
		name   string
		mutate func(*ReportSubmission)
		reason string
	}{
		{"empty product", func(s *ReportSubmission) { s.ProductName = "  " }, "product name is required"},
		{"empty market", func(s *ReportSubmission) { s.MarketName = "" }, "market name is required"},
		{"empty shop", func(s *ReportSubmission) { s.ShopName = "\t" }, "shop name is required"},
		{"zero price", func(s *ReportSubmission) { s.ReportedPrice = testutil.Price("0") }, "positive"},
		{"negative price", func(s *ReportSubmission) { s.ReportedPrice = testutil.Price("-5") }, "positive"},
		{"sub-cent price", func(s *ReportSubmission) { s.ReportedPrice = testutil.Price("1.005") }, "decimal places"},
		{"no reporter", func(s *ReportSubmission) { s.ReporterID = uuid.Nil }, "reporter is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid
			tt.mutate(&in)
			report, err := svc.Submit(context.Background(), in)
			assert.Nil(t, report)
			require.Error(t, err)
			assert.True(t, apperrors.IsValidation(err))
			assert.Contains(t, err.Error(), tt.reason)
		})
	}

	t.Run("unknown reporter", func(t *testing.T) {
		in := valid
		in.ReporterID = uuid.New()
		_, err := svc.Submit(context.Background(), in)
		assert.True(t, apperrors.IsNotFound(err))
	})

	mine, err := svc.MyReports(context.Background(), reporter.ID)
	require.NoError(t, err)
	assert.Empty(t, mine, "rejected submissions store nothing")
}

func TestReportService_SubmitTouchesOnlyReports(t *testing.T) {
	store := testutil.NewStore(t)
	svc := NewReportService(store, nil)
	reporter := testutil.CreateUser(t, store, "Amina", "amina@example.com")
	testutil.CreateMarket(t, store, "Kasuwar Rimi")

	report, err := svc.Submit(context.Background(), ReportSubmission{
		ProductName:   " Tomatoes ",
		MarketName:    "Kasuwar Rimi",
		ShopName:      "Sani's Grains",
		ReportedPrice: testutil.Price("15000"),
		ReporterID:    reporter.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, "Tomatoes", report.ProductName)
	assert.Equal(t, model.ReportStatusPending, report.Status)

	users, err := store.Users.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, users, 1)
	products, err := store.Products.List(context.Background(), productFilterAll)
	require.NoError(t, err)
	assert.Empty(t, products)
}

func TestReportService_Views(t *testing.T) {
	f := newVerificationFixture(t)
	ctx := context.Background()
	testutil.CreateMarket(t, f.store, "Kasuwar Rimi")
	other := testutil.CreateUser(t, f.store, "Bello", "bello@example.com")

	approved := f.submit(t, "Rice", "Kasuwar Rimi", "Sani's Grains", "100")
	pending := f.submit(t, "Beans", "Kasuwar Rimi", "Sani's Grains", "200")
	_, err := f.reports.Submit(ctx, ReportSubmission{
		ProductName: "Yam", MarketName: "Kasuwar Rimi", ShopName: "Other",
		ReportedPrice: testutil.Price("50"), ReporterID: other.ID,
	})
	require.NoError(t, err)
	_, err = f.verifier.Approve(ctx, approved.ID)
	require.NoError(t, err)

	mine, err := f.reports.MyReports(ctx, f.reporter.ID)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	for _, r := range mine {
		assert.Equal(t, f.reporter.ID, r.ReportedByID)
	}

	queue, err := f.reports.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, queue, 2)
	for _, r := range queue {
		assert.Equal(t, model.ReportStatusPending, r.Status)
		require.NotNil(t, r.ReportedBy)
		assert.NotEmpty(t, r.ReportedBy.Email)
	}
	assert.Contains(t, []uuid.UUID{queue[0].ID, queue[1].ID}, pending.ID)

	public, err := f.reports.Public(ctx, 0)
	require.NoError(t, err)
	require.Len(t, public, 1)
	assert.Equal(t, approved.ID, public[0].ID)
	require.NotNil(t, public[0].ReportedBy)
	assert.Equal(t, "Amina", public[0].ReportedBy.Name)
	assert.Empty(t, public[0].ReportedBy.Email)
}
