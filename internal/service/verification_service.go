package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"pricewatch/internal/cache"
	apperrors "pricewatch/internal/errors"
	"pricewatch/internal/logging"
	"pricewatch/internal/model"
	"pricewatch/internal/provision"
	"pricewatch/internal/repository"
)

// ApprovalResult describes what an approval changed.
type ApprovalResult struct {
	Report           *model.PriceReport `json:"report"`
	Product          *model.Product     `json:"product"`
	ShopOwner        *model.User        `json:"shop_owner"`
	ShopOwnerCreated bool               `json:"shop_owner_created"`
	ProductCreated   bool               `json:"product_created"`
}

// VerificationService moves pending reports to their terminal state.
type VerificationService interface {
	// Approve turns a pending report into a price entry on the product it
	// names, creating the shop owner and product when they do not exist yet.
	// Either every write lands or none do.
	Approve(ctx context.Context, reportID uuid.UUID) (*ApprovalResult, error)
	// Reject deletes a pending report.
	Reject(ctx context.Context, reportID uuid.UUID) error
}

type verificationService struct {
	store  *repository.Store
	policy *provision.Policy
	cache  *cache.Client
	logger *zap.Logger
}

// NewVerificationService creates a new verification service.
func NewVerificationService(store *repository.Store, policy *provision.Policy, cache *cache.Client, logger *zap.Logger) VerificationService {
	return &verificationService{
		store:  store,
		policy: policy,
		cache:  cache,
		logger: logging.OrNop(logger),
	}
}

func (s *verificationService) Approve(ctx context.Context, reportID uuid.UUID) (*ApprovalResult, error) {
	var result *ApprovalResult
	err := s.store.WithTransaction(ctx, func(ctx context.Context, tx *repository.Store) error {
		var err error
		result, err = s.approve(ctx, tx, reportID)
		return err
	})
	if err != nil {
		return nil, err
	}

	_ = s.cache.Delete(ctx, cache.ProductKey(result.Product.ID), cache.ShopKey(result.ShopOwner.ID))

	if result.ShopOwnerCreated {
		s.logger.Info("shop owner auto-provisioned",
			zap.Stringer("user_id", result.ShopOwner.ID),
			zap.String("shop_name", result.ShopOwner.ShopNameValue()),
			zap.String("email", result.ShopOwner.Email))
	}
	if result.ProductCreated {
		s.logger.Info("product auto-created",
			zap.Stringer("product_id", result.Product.ID),
			zap.String("name", result.Product.Name))
	}
	s.logger.Info("report approved",
		zap.Stringer("report_id", result.Report.ID),
		zap.Stringer("product_id", result.Product.ID),
		zap.Stringer("shop_owner_id", result.ShopOwner.ID),
		zap.String("average_price", result.Product.AveragePrice.String()))
	return result, nil
}

// approve runs every step of an approval against tx, which the caller commits
// or rolls back as a whole.
func (s *verificationService) approve(ctx context.Context, tx *repository.Store, reportID uuid.UUID) (*ApprovalResult, error) {
	report, err := loadPendingReport(ctx, tx, reportID)
	if err != nil {
		return nil, err
	}

	// The conditional update is the mutual-exclusion gate: of two
	// concurrent approvals only one sees a row change.
	claimed, err := tx.Reports.TransitionStatus(ctx, report.ID, model.ReportStatusPending, model.ReportStatusApproved)
	if err != nil {
		return nil, fmt.Errorf("claim report: %w", err)
	}
	if !claimed {
		return nil, apperrors.Conflict("report %s is no longer pending", report.ID)
	}

	owner, ownerCreated, err := s.resolveShopOwner(ctx, tx, report)
	if err != nil {
		return nil, err
	}

	product, productCreated, err := tx.Products.FindOrCreate(ctx, &model.Product{
		Name:     report.ProductName,
		Category: model.DefaultCategory,
		MarketID: *owner.MarketID,
	})
	if err != nil {
		return nil, fmt.Errorf("resolve product: %w", err)
	}

	updated, err := tx.Products.AppendPrice(ctx, product.ID, &model.PriceEntry{
		Price:       report.ReportedPrice,
		ShopOwnerID: owner.ID,
	})
	if err != nil {
		return nil, fmt.Errorf("append price: %w", err)
	}

	report.Status = model.ReportStatusApproved
	return &ApprovalResult{
		Report:           report,
		Product:          updated,
		ShopOwner:        owner,
		ShopOwnerCreated: ownerCreated,
		ProductCreated:   productCreated,
	}, nil
}

func (s *verificationService) Reject(ctx context.Context, reportID uuid.UUID) error {
	report, err := loadPendingReport(ctx, s.store, reportID)
	if err != nil {
		return err
	}

	deleted, err := s.store.Reports.DeleteIfStatus(ctx, report.ID, model.ReportStatusPending)
	if err != nil {
		return fmt.Errorf("delete report: %w", err)
	}
	if !deleted {
		return apperrors.Conflict("report %s is no longer pending", report.ID)
	}

	s.logger.Info("report rejected", zap.Stringer("report_id", report.ID))
	return nil
}

// resolveShopOwner finds the shop owner a report names or provisions one.
// A shop owner without a market is a hard stop: products are market-scoped.
func (s *verificationService) resolveShopOwner(ctx context.Context, tx *repository.Store, report *model.PriceReport) (*model.User, bool, error) {
	owner, err := tx.Users.FindShopOwnerByShopName(ctx, report.ShopName)
	if err == nil {
		if owner.MarketID == nil {
			return nil, false, apperrors.Validation("Shop %q has no market; assign one manually", report.ShopName)
		}
		return owner, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, fmt.Errorf("find shop owner: %w", err)
	}

	markets, err := tx.Markets.List(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("list markets: %w", err)
	}
	market, err := s.policy.MatchMarket(report.MarketName, markets)
	switch {
	case errors.Is(err, provision.ErrNoMarketMatch):
		return nil, false, apperrors.Validation("Market %q not found for shop %q; assign manually", report.MarketName, report.ShopName)
	case errors.Is(err, provision.ErrAmbiguousMarket):
		return nil, false, apperrors.Validation("Market %q matches several markets for shop %q; assign manually", report.MarketName, report.ShopName)
	case err != nil:
		return nil, false, err
	}

	candidate, err := s.policy.NewShopOwner(report.ShopName, market)
	if err != nil {
		return nil, false, err
	}
	owner, created, err := tx.Users.CreateIfAbsent(ctx, candidate)
	if err != nil {
		return nil, false, fmt.Errorf("provision shop owner: %w", err)
	}
	if created {
		return owner, true, nil
	}
	if !owner.Role.CanOwnShop() || owner.MarketID == nil {
		return nil, false, apperrors.Conflict("placeholder email %s already belongs to another account", candidate.Email)
	}
	// Shop names differing only in case or spacing share a placeholder email.
	if owner.ShopNameValue() != candidate.ShopNameValue() {
		return nil, false, apperrors.Conflict("placeholder email %s already belongs to shop %q; assign %q manually",
			candidate.Email, owner.ShopNameValue(), report.ShopName)
	}
	return owner, created, nil
}

func loadPendingReport(ctx context.Context, store *repository.Store, id uuid.UUID) (*model.PriceReport, error) {
	report, err := store.Reports.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "Report")
	}
	if report.Status != model.ReportStatusPending {
		return nil, apperrors.AlreadyResolved("Report")
	}
	return report, nil
}
