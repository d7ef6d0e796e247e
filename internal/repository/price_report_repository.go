package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"pricewatch/internal/model"
)

// PriceReportRepository defines price report persistence operations.
type PriceReportRepository interface {
	Create(ctx context.Context, report *model.PriceReport) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.PriceReport, error)
	ListByReporter(ctx context.Context, reporterID uuid.UUID) ([]model.PriceReport, error)
	// ListByStatus returns reports in status, newest first, with the reporter's
	// name and email preloaded. limit <= 0 means no limit.
	ListByStatus(ctx context.Context, status model.ReportStatus, limit int) ([]model.PriceReport, error)
	// TransitionStatus moves a report from one status to another only if it is
	// still in from. It reports whether the row was changed.
	TransitionStatus(ctx context.Context, id uuid.UUID, from, to model.ReportStatus) (bool, error)
	// DeleteIfStatus removes the report only while it is in status.
	DeleteIfStatus(ctx context.Context, id uuid.UUID, status model.ReportStatus) (bool, error)
}

type priceReportRepository struct {
	db *gorm.DB
}

// NewPriceReportRepository creates a new price report repository.
func NewPriceReportRepository(db *gorm.DB) PriceReportRepository {
	return &priceReportRepository{db: db}
}

func (r *priceReportRepository) Create(ctx context.Context, report *model.PriceReport) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(report).Error
}

func (r *priceReportRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.PriceReport, error) {
	var report model.PriceReport
	if err := r.db.WithContext(ctx).Preload("ReportedBy", reporterColumns).
		Where("id = ?", id).First(&report).Error; err != nil {
		return nil, err
	}
	return &report, nil
}

func (r *priceReportRepository) ListByReporter(ctx context.Context, reporterID uuid.UUID) ([]model.PriceReport, error) {
	var reports []model.PriceReport
	if err := r.db.WithContext(ctx).
		Where("reported_by_id = ?", reporterID).
		Order("created_at DESC").
		Find(&reports).Error; err != nil {
		return nil, err
	}
	return reports, nil
}

func (r *priceReportRepository) ListByStatus(ctx context.Context, status model.ReportStatus, limit int) ([]model.PriceReport, error) {
	q := r.db.WithContext(ctx).
		Preload("ReportedBy", reporterColumns).
		Where("status = ?", status).
		Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	var reports []model.PriceReport
	if err := q.Find(&reports).Error; err != nil {
		return nil, err
	}
	return reports, nil
}

func (r *priceReportRepository) TransitionStatus(ctx context.Context, id uuid.UUID, from, to model.ReportStatus) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.PriceReport{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *priceReportRepository) DeleteIfStatus(ctx context.Context, id uuid.UUID, status model.ReportStatus) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("id = ? AND status = ?", id, status).
		Delete(&model.PriceReport{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func reporterColumns(db *gorm.DB) *gorm.DB {
	return db.Select("id", "name", "email")
}
