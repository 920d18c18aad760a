package fulfillment

import (
	"context"
	"time"

	"github.com/backoffice/backend/internal/domain/catalog"
	"github.com/backoffice/backend/internal/domain/ledger"
	"github.com/backoffice/backend/internal/domain/shared"
	"github.com/backoffice/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreateProductRequest represents a request to add a catalog product
type CreateProductRequest struct {
	SKU          string `json:"sku" binding:"required,min=1,max=50"`
	Name         string `json:"name" binding:"required,min=1,max=200"`
	Description  string `json:"description"`
	Unit         string `json:"unit" binding:"required,min=1,max=20"`
	SellingPrice string `json:"selling_price" binding:"required"`
}

// UpdateProductRequest represents a request to update product details
type UpdateProductRequest struct {
	Name         string  `json:"name" binding:"required,min=1,max=200"`
	Description  string  `json:"description"`
	SellingPrice *string `json:"selling_price"`
}

// AdjustStockRequest sets a product's stock to an absolute quantity,
// recording the delta in the ledger
type AdjustStockRequest struct {
	Quantity int64  `json:"quantity" binding:"min=0"`
	Notes    string `json:"notes" binding:"max=500"`
}

// ProductResponse represents a product in API responses
type ProductResponse struct {
	ID            uuid.UUID `json:"id"`
	SKU           string    `json:"sku"`
	Name          string    `json:"name"`
	Description   string    `json:"description,omitempty"`
	Unit          string    `json:"unit"`
	SellingPrice  string    `json:"selling_price"`
	StockQuantity int64     `json:"stock_quantity"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ToProductResponse converts a product aggregate into its API shape
func ToProductResponse(p *catalog.Product) ProductResponse {
	return ProductResponse{
		ID:            p.ID,
		SKU:           p.SKU,
		Name:          p.Name,
		Description:   p.Description,
		Unit:          p.Unit,
		SellingPrice:  p.SellingPrice.MajorString(),
		StockQuantity: p.StockQuantity,
		Status:        string(p.Status),
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

// ProductListFilter represents filter options for product lists
type ProductListFilter struct {
	Search   string `form:"search"`
	Status   string `form:"status" binding:"omitempty,oneof=active inactive"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// ProductService handles catalog maintenance and manual stock
// adjustments. Adjustments go through the ledger like every other stock
// change.
type ProductService struct {
	productRepo  catalog.ProductRepository
	movementRepo ledger.StockMovementRepository
	txScope      TransactionScope
	stockLedger  *ledger.StockLedger
	logger       *zap.Logger
}

// NewProductService creates a new ProductService
func NewProductService(
	productRepo catalog.ProductRepository,
	movementRepo ledger.StockMovementRepository,
	txScope TransactionScope,
	logger *zap.Logger,
) *ProductService {
	return &ProductService{
		productRepo:  productRepo,
		movementRepo: movementRepo,
		txScope:      txScope,
		stockLedger:  ledger.NewStockLedger(),
		logger:       logger,
	}
}

// Create adds a product to the catalog
func (s *ProductService) Create(ctx context.Context, actor shared.Actor, req CreateProductRequest) (*ProductResponse, error) {
	if !actor.Role.IsStaff() {
		return nil, shared.ErrForbidden
	}

	price, err := valueobject.ParseMajor(req.SellingPrice)
	if err != nil {
		return nil, shared.NewDomainError("INVALID_PRICE", err.Error())
	}

	p, err := catalog.NewProduct(req.SKU, req.Name, req.Unit, price)
	if err != nil {
		return nil, err
	}
	p.Description = req.Description

	if err := s.productRepo.Save(ctx, p); err != nil {
		return nil, err
	}

	response := ToProductResponse(p)
	return &response, nil
}

// Update changes a product's details and price
func (s *ProductService) Update(ctx context.Context, actor shared.Actor, productID uuid.UUID, req UpdateProductRequest) (*ProductResponse, error) {
	if !actor.Role.IsStaff() {
		return nil, shared.ErrForbidden
	}

	p, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	expectedVersion := p.Version
	if err := p.Update(req.Name, req.Description); err != nil {
		return nil, err
	}
	if req.SellingPrice != nil {
		price, err := valueobject.ParseMajor(*req.SellingPrice)
		if err != nil {
			return nil, shared.NewDomainError("INVALID_PRICE", err.Error())
		}
		if err := p.SetSellingPrice(price); err != nil {
			return nil, err
		}
	}

	if err := s.productRepo.SaveWithLock(ctx, p, expectedVersion); err != nil {
		return nil, err
	}

	response := ToProductResponse(p)
	return &response, nil
}

// AdjustStock sets the product's stock to an absolute quantity under a
// row lock, leaving an adjustment movement behind
func (s *ProductService) AdjustStock(ctx context.Context, actor shared.Actor, productID uuid.UUID, req AdjustStockRequest) (*ProductResponse, error) {
	if !actor.Role.IsStaff() {
		return nil, shared.ErrForbidden
	}

	var adjusted *catalog.Product
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		p, err := repos.Products().FindByIDForUpdate(ctx, productID)
		if err != nil {
			return err
		}

		expected := p.Version
		mov, changed, err := s.stockLedger.Adjust(p, req.Quantity)
		if err != nil {
			return err
		}
		if changed {
			mov = mov.WithActor(actor.ID).WithNotes(req.Notes)
			if err := repos.Movements().Save(ctx, &mov); err != nil {
				return err
			}
			if err := repos.Products().SaveWithLock(ctx, p, expected); err != nil {
				return err
			}
		}

		adjusted = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	response := ToProductResponse(adjusted)
	return &response, nil
}

// GetByID retrieves a product
func (s *ProductService) GetByID(ctx context.Context, productID uuid.UUID) (*ProductResponse, error) {
	p, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	response := ToProductResponse(p)
	return &response, nil
}

// List retrieves products with filtering and pagination
func (s *ProductService) List(ctx context.Context, filter ProductListFilter) (*shared.Paginated[ProductResponse], error) {
	f := shared.DefaultFilter()
	if filter.Page > 0 {
		f.Page = filter.Page
	}
	if filter.PageSize > 0 {
		f.PageSize = filter.PageSize
	}
	f.Search = filter.Search
	if filter.Status != "" {
		f.Filters["status"] = filter.Status
	}

	products, err := s.productRepo.FindAll(ctx, f)
	if err != nil {
		return nil, err
	}
	total, err := s.productRepo.Count(ctx, f)
	if err != nil {
		return nil, err
	}

	items := make([]ProductResponse, 0, len(products))
	for i := range products {
		items = append(items, ToProductResponse(&products[i]))
	}

	page := shared.NewPaginated(items, total, f.Page, f.PageSize)
	return &page, nil
}

// Movements returns a product's ledger history, oldest first
func (s *ProductService) Movements(ctx context.Context, actor shared.Actor, productID uuid.UUID) ([]StockMovementResponse, error) {
	if !actor.Role.IsStaff() {
		return nil, shared.ErrForbidden
	}

	movements, err := s.movementRepo.FindByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	items := make([]StockMovementResponse, 0, len(movements))
	for _, m := range movements {
		items = append(items, ToStockMovementResponse(m))
	}
	return items, nil
}
