package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/backoffice/backend/internal/domain/refund"
	"github.com/backoffice/backend/internal/domain/shared"
	"github.com/backoffice/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormRefundRepository implements refund.Repository using GORM
type GormRefundRepository struct {
	db *gorm.DB
}

// NewGormRefundRepository creates a new GormRefundRepository
func NewGormRefundRepository(db *gorm.DB) *GormRefundRepository {
	return &GormRefundRepository{db: db}
}

// FindByID finds a refund by its ID
func (r *GormRefundRepository) FindByID(ctx context.Context, id uuid.UUID) (*refund.Refund, error) {
	var ref refund.Refund
	if err := r.db.WithContext(ctx).
		Preload("Items").
		First(&ref, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &ref, nil
}

// FindByInvoice returns all refunds raised against an invoice
func (r *GormRefundRepository) FindByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]refund.Refund, error) {
	var refunds []refund.Refund
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("invoice_id = ?", invoiceID).
		Order("created_at ASC").
		Find(&refunds).Error; err != nil {
		return nil, err
	}
	return refunds, nil
}

// FindAll finds all refunds matching the filter
func (r *GormRefundRepository) FindAll(ctx context.Context, filter shared.Filter) ([]refund.Refund, error) {
	var refunds []refund.Refund
	query := r.applyFilter(r.db.WithContext(ctx).Model(&refund.Refund{}), filter)

	if err := query.Preload("Items").Find(&refunds).Error; err != nil {
		return nil, err
	}
	return refunds, nil
}

// Count counts refunds matching the filter
func (r *GormRefundRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(r.db.WithContext(ctx).Model(&refund.Refund{}), filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// SumActiveForInvoice totals the amounts of non-cancelled monetary
// refunds for an invoice. The sum backs the invoice-total cap:
// cancelled refunds release their share, and exchanges are left out
// because they hand back goods rather than money.
func (r *GormRefundRepository) SumActiveForInvoice(ctx context.Context, invoiceID uuid.UUID) (valueobject.Money, error) {
	var totalMinor int64
	err := r.db.WithContext(ctx).
		Model(&refund.Refund{}).
		Where("invoice_id = ? AND status <> ? AND refund_type <> ?",
			invoiceID, refund.StatusCancelled, refund.TypeExchange).
		Select("COALESCE(SUM(total_amount), 0)").
		Scan(&totalMinor).Error
	if err != nil {
		return valueobject.Zero(), err
	}
	return valueobject.FromMinorUnits(totalMinor), nil
}

// Save creates or updates a refund together with its items. A unique
// violation on the refund number is reported as
// shared.ErrDuplicateReference so the caller can regenerate and retry.
func (r *GormRefundRepository) Save(ctx context.Context, ref *refund.Refund) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(ref).Error; err != nil {
			return err
		}
		return r.saveItems(tx, ref)
	})
	if isNumberConflict(err, "refund_number") {
		return shared.ErrDuplicateReference
	}
	return err
}

// SaveWithLock persists the refund only if the stored version still
// matches expectedVersion, returning shared.ErrConcurrencyConflict when
// another transaction won the race.
func (r *GormRefundRepository) SaveWithLock(ctx context.Context, ref *refund.Refund, expectedVersion int) error {
	result := r.db.WithContext(ctx).
		Model(&refund.Refund{}).
		Where("id = ? AND version = ?", ref.ID, expectedVersion).
		Updates(map[string]interface{}{
			"status":              ref.Status,
			"approved_by":         ref.ApprovedBy,
			"approved_at":         ref.ApprovedAt,
			"processed_by":        ref.ProcessedBy,
			"processed_at":        ref.ProcessedAt,
			"completed_by":        ref.CompletedBy,
			"completed_at":        ref.CompletedAt,
			"cancelled_by":        ref.CancelledBy,
			"cancelled_at":        ref.CancelledAt,
			"cancellation_reason": ref.CancellationReason,
			"version":             ref.Version,
			"updated_at":          ref.UpdatedAt,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

func (r *GormRefundRepository) saveItems(tx *gorm.DB, ref *refund.Refund) error {
	if ref.ID == uuid.Nil {
		return nil
	}

	currentItemIDs := make([]uuid.UUID, len(ref.Items))
	for i, item := range ref.Items {
		currentItemIDs[i] = item.ID
	}

	if len(currentItemIDs) > 0 {
		if err := tx.Where("refund_id = ? AND id NOT IN ?", ref.ID, currentItemIDs).
			Delete(&refund.Item{}).Error; err != nil {
			return err
		}
	} else {
		if err := tx.Where("refund_id = ?", ref.ID).
			Delete(&refund.Item{}).Error; err != nil {
			return err
		}
	}

	for i := range ref.Items {
		ref.Items[i].RefundID = ref.ID
		if err := tx.Save(&ref.Items[i]).Error; err != nil {
			return err
		}
	}
	return nil
}

// GenerateRefundNumber returns the next REF{YYYY}{MM}{NNNN} number for
// the month of the given date.
func (r *GormRefundRepository) GenerateRefundNumber(ctx context.Context, at time.Time) (string, error) {
	prefix := fmt.Sprintf("REF%04d%02d", at.Year(), int(at.Month()))

	// Get the highest refund number for this period
	var lastRefund refund.Refund
	err := r.db.WithContext(ctx).
		Model(&refund.Refund{}).
		Where("refund_number LIKE ?", prefix+"%").
		Order("refund_number DESC").
		First(&lastRefund).Error

	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", err
	}

	var nextNum int64 = 1
	if err == nil && strings.HasPrefix(lastRefund.RefundNumber, prefix) {
		var num int64
		if _, parseErr := fmt.Sscanf(lastRefund.RefundNumber[len(prefix):], "%d", &num); parseErr == nil {
			nextNum = num + 1
		}
	}

	refundNumber := fmt.Sprintf("%s%04d", prefix, nextNum)

	exists, err := r.existsByNumber(ctx, refundNumber)
	if err != nil {
		return "", err
	}
	if exists {
		for i := 0; i < 100; i++ {
			nextNum++
			refundNumber = fmt.Sprintf("%s%04d", prefix, nextNum)
			exists, err = r.existsByNumber(ctx, refundNumber)
			if err != nil {
				return "", err
			}
			if !exists {
				break
			}
		}
	}

	return refundNumber, nil
}

func (r *GormRefundRepository) existsByNumber(ctx context.Context, refundNumber string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&refund.Refund{}).
		Where("refund_number = ?", refundNumber).
		Count(&count).Error
	return count > 0, err
}

// applyFilter applies filter options to the query
func (r *GormRefundRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	orderBy := ValidateSortField(filter.OrderBy, RefundSortFields, "created_at")
	query = query.Order(orderBy + " " + ValidateSortOrder(filter.OrderDir))

	return query
}

// applyFilterWithoutPagination applies filter options without pagination
func (r *GormRefundRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		query = query.Where("refund_number ILIKE ?", "%"+filter.Search+"%")
	}

	for key, value := range filter.Filters {
		switch key {
		case "status":
			query = query.Where("status = ?", value)
		case "customer_id":
			query = query.Where("customer_id = ?", value)
		case "invoice_id":
			query = query.Where("invoice_id = ?", value)
		case "refund_type":
			query = query.Where("refund_type = ?", value)
		case "method":
			query = query.Where("method = ?", value)
		}
	}

	return query
}

// Ensure GormRefundRepository implements refund.Repository
var _ refund.Repository = (*GormRefundRepository)(nil)
