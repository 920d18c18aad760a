package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/backoffice/backend/internal/domain/refund"
	"github.com/backoffice/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormRefundRequestRepository implements refund.RequestRepository using GORM
type GormRefundRequestRepository struct {
	db *gorm.DB
}

// NewGormRefundRequestRepository creates a new GormRefundRequestRepository
func NewGormRefundRequestRepository(db *gorm.DB) *GormRefundRequestRepository {
	return &GormRefundRequestRepository{db: db}
}

// FindByID finds a refund request by its ID
func (r *GormRefundRequestRepository) FindByID(ctx context.Context, id uuid.UUID) (*refund.Request, error) {
	var req refund.Request
	if err := r.db.WithContext(ctx).
		Preload("Items").
		First(&req, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &req, nil
}

// FindAll finds all refund requests matching the filter
func (r *GormRefundRequestRepository) FindAll(ctx context.Context, filter shared.Filter) ([]refund.Request, error) {
	var requests []refund.Request
	query := r.applyFilter(r.db.WithContext(ctx).Model(&refund.Request{}), filter)

	if err := query.Preload("Items").Find(&requests).Error; err != nil {
		return nil, err
	}
	return requests, nil
}

// Count counts refund requests matching the filter
func (r *GormRefundRequestRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(r.db.WithContext(ctx).Model(&refund.Request{}), filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// HasPendingForInvoice reports whether a pending request already exists
// for the invoice
func (r *GormRefundRequestRepository) HasPendingForInvoice(ctx context.Context, invoiceID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&refund.Request{}).
		Where("invoice_id = ? AND status = ?", invoiceID, refund.RequestStatusPending).
		Count(&count).Error
	return count > 0, err
}

// Save creates or updates a refund request together with its items. A
// unique violation on the request number is reported as
// shared.ErrDuplicateReference so the caller can regenerate and retry.
func (r *GormRefundRequestRepository) Save(ctx context.Context, req *refund.Request) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(req).Error; err != nil {
			return err
		}
		return r.saveItems(tx, req)
	})
	if isNumberConflict(err, "request_number") {
		return shared.ErrDuplicateReference
	}
	return err
}

// SaveWithLock persists the request only if the stored version still
// matches expectedVersion, returning shared.ErrConcurrencyConflict when
// another transaction won the race.
func (r *GormRefundRequestRepository) SaveWithLock(ctx context.Context, req *refund.Request, expectedVersion int) error {
	result := r.db.WithContext(ctx).
		Model(&refund.Request{}).
		Where("id = ? AND version = ?", req.ID, expectedVersion).
		Updates(map[string]interface{}{
			"status":          req.Status,
			"tracking_number": req.TrackingNumber,
			"reviewed_by":     req.ReviewedBy,
			"reviewed_at":     req.ReviewedAt,
			"review_notes":    req.ReviewNotes,
			"refund_id":       req.RefundID,
			"version":         req.Version,
			"updated_at":      req.UpdatedAt,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

func (r *GormRefundRequestRepository) saveItems(tx *gorm.DB, req *refund.Request) error {
	if req.ID == uuid.Nil {
		return nil
	}

	currentItemIDs := make([]uuid.UUID, len(req.Items))
	for i, item := range req.Items {
		currentItemIDs[i] = item.ID
	}

	if len(currentItemIDs) > 0 {
		if err := tx.Where("request_id = ? AND id NOT IN ?", req.ID, currentItemIDs).
			Delete(&refund.RequestItem{}).Error; err != nil {
			return err
		}
	} else {
		if err := tx.Where("request_id = ?", req.ID).
			Delete(&refund.RequestItem{}).Error; err != nil {
			return err
		}
	}

	for i := range req.Items {
		req.Items[i].RequestID = req.ID
		if err := tx.Save(&req.Items[i]).Error; err != nil {
			return err
		}
	}
	return nil
}

// GenerateRequestNumber returns the next RRN{YYYY}{MM}{DD}{NNNN} number
// for the given date. The sequence starts over each day.
func (r *GormRefundRequestRepository) GenerateRequestNumber(ctx context.Context, at time.Time) (string, error) {
	prefix := fmt.Sprintf("RRN%04d%02d%02d", at.Year(), int(at.Month()), at.Day())

	// Get the highest request number for this day
	var lastRequest refund.Request
	err := r.db.WithContext(ctx).
		Model(&refund.Request{}).
		Where("request_number LIKE ?", prefix+"%").
		Order("request_number DESC").
		First(&lastRequest).Error

	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", err
	}

	var nextNum int64 = 1
	if err == nil && strings.HasPrefix(lastRequest.RequestNumber, prefix) {
		var num int64
		if _, parseErr := fmt.Sscanf(lastRequest.RequestNumber[len(prefix):], "%d", &num); parseErr == nil {
			nextNum = num + 1
		}
	}

	requestNumber := fmt.Sprintf("%s%04d", prefix, nextNum)

	exists, err := r.existsByNumber(ctx, requestNumber)
	if err != nil {
		return "", err
	}
	if exists {
		for i := 0; i < 100; i++ {
			nextNum++
			requestNumber = fmt.Sprintf("%s%04d", prefix, nextNum)
			exists, err = r.existsByNumber(ctx, requestNumber)
			if err != nil {
				return "", err
			}
			if !exists {
				break
			}
		}
	}

	return requestNumber, nil
}

func (r *GormRefundRequestRepository) existsByNumber(ctx context.Context, requestNumber string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&refund.Request{}).
		Where("request_number = ?", requestNumber).
		Count(&count).Error
	return count > 0, err
}

// applyFilter applies filter options to the query
func (r *GormRefundRequestRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
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
func (r *GormRefundRequestRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		query = query.Where("request_number ILIKE ?", "%"+filter.Search+"%")
	}

	for key, value := range filter.Filters {
		switch key {
		case "status":
			query = query.Where("status = ?", value)
		case "customer_id":
			query = query.Where("customer_id = ?", value)
		case "invoice_id":
			query = query.Where("invoice_id = ?", value)
		case "kind":
			query = query.Where("kind = ?", value)
		}
	}

	return query
}

// Ensure GormRefundRequestRepository implements refund.RequestRepository
var _ refund.RequestRepository = (*GormRefundRequestRepository)(nil)
