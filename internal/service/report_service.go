package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	apperrors "pricewatch/internal/errors"
	"pricewatch/internal/logging"
	"pricewatch/internal/model"
	"pricewatch/internal/repository"
)

// DefaultPublicReportLimit caps the public feed when no limit is given.
const DefaultPublicReportLimit = 50

// ReportSubmission is an unverified price observation as entered by a user.
type ReportSubmission struct {
	ProductName   string
	MarketName    string
	ShopName      string
	ReportedPrice decimal.Decimal
	ReporterID    uuid.UUID
}

// ReportService records community reports and serves report views.
type ReportService interface {
	// Submit validates and stores a Pending report. No product or user is touched.
	Submit(ctx context.Context, in ReportSubmission) (*model.PriceReport, error)
	Get(ctx context.Context, id uuid.UUID) (*model.PriceReport, error)
	// MyReports lists the reporter's reports, newest first.
	MyReports(ctx context.Context, reporterID uuid.UUID) ([]model.PriceReport, error)
	// Pending lists reports awaiting verification with reporter name and email.
	Pending(ctx context.Context) ([]model.PriceReport, error)
	// Public lists the most recent approved reports.
	Public(ctx context.Context, limit int) ([]model.PriceReport, error)
}

type reportService struct {
	store  *repository.Store
	logger *zap.Logger
}

// NewReportService creates a new report service.
func NewReportService(store *repository.Store, logger *zap.Logger) ReportService {
	return &reportService{store: store, logger: logging.OrNop(logger)}
}

func (s *reportService) Submit(ctx context.Context, in ReportSubmission) (*model.PriceReport, error) {
	fields := []struct {
		name  string
		value *string
	}{
		{"product name", &in.ProductName},
		{"market name", &in.MarketName},
		{"shop name", &in.ShopName},
	}
	for _, f := range fields {
		*f.value = strings.TrimSpace(*f.value)
		if *f.value == "" {
			return nil, apperrors.Validation("%s is required", f.name)
		}
	}
	if err := positivePrice(in.ReportedPrice); err != nil {
		return nil, err
	}
	if in.ReporterID == uuid.Nil {
		return nil, apperrors.Validation("reporter is required")
	}
	if _, err := s.store.Users.FindByID(ctx, in.ReporterID); err != nil {
		return nil, notFound(err, "User")
	}

	report := &model.PriceReport{
		ProductName:   in.ProductName,
		MarketName:    in.MarketName,
		ShopName:      in.ShopName,
		ReportedPrice: in.ReportedPrice,
		ReportedByID:  in.ReporterID,
		Status:        model.ReportStatusPending,
	}
	if err := s.store.Reports.Create(ctx, report); err != nil {
		return nil, fmt.Errorf("create report: %w", err)
	}

	s.logger.Info("report submitted",
		zap.Stringer("report_id", report.ID),
		zap.Stringer("reporter_id", report.ReportedByID),
		zap.String("product", report.ProductName),
		zap.String("shop", report.ShopName))
	return report, nil
}

func (s *reportService) Get(ctx context.Context, id uuid.UUID) (*model.PriceReport, error) {
	report, err := s.store.Reports.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "Report")
	}
	return report, nil
}

func (s *reportService) MyReports(ctx context.Context, reporterID uuid.UUID) ([]model.PriceReport, error) {
	return s.store.Reports.ListByReporter(ctx, reporterID)
}

func (s *reportService) Pending(ctx context.Context) ([]model.PriceReport, error) {
	return s.store.Reports.ListByStatus(ctx, model.ReportStatusPending, 0)
}

func (s *reportService) Public(ctx context.Context, limit int) ([]model.PriceReport, error) {
	if limit <= 0 {
		limit = DefaultPublicReportLimit
	}
	reports, err := s.store.Reports.ListByStatus(ctx, model.ReportStatusApproved, limit)
	if err != nil {
		return nil, err
	}
	// The public feed shows who reported, not how to reach them.
	for i := range reports {
		if reports[i].ReportedBy != nil {
			reports[i].ReportedBy.Email = ""
		}
	}
	return reports, nil
}
