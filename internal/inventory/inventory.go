package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/quotex-api/internal/common"
	"github.com/noah-isme/quotex-api/internal/store"
)

// Category groups stock items by the part of a table they belong to.
type Category string

const (
	CategoryBase      Category = "base"
	CategoryTop       Category = "top"
	CategoryFinish    Category = "finish"
	CategoryAccessory Category = "accessory"
	CategoryHardware  Category = "hardware"
)

// Item is a stocked component.
type Item struct {
	ID              string          `json:"id"`
	SKU             string          `json:"sku"`
	Name            string          `json:"name"`
	Category        Category        `json:"category"`
	Quantity        int             `json:"quantity"`
	ReorderPoint    int             `json:"reorderPoint"`
	ReorderQuantity int             `json:"reorderQuantity"`
	UnitCost        decimal.Decimal `json:"unitCost"`
	Supplier        string          `json:"supplier,omitempty"`
	LastRestocked   *time.Time      `json:"lastRestocked,omitempty"`
	Notes           string          `json:"notes,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// OutOfStock reports an empty bin.
func (it Item) OutOfStock() bool { return it.Quantity <= 0 }

// LowStock reports stock at or under the reorder point but not yet empty.
func (it Item) LowStock() bool {
	return it.Quantity > 0 && it.Quantity <= it.ReorderPoint
}

// Value is quantity times unit cost.
func (it Item) Value() decimal.Decimal {
	return it.UnitCost.Mul(decimal.NewFromInt(int64(it.Quantity)))
}

// Filter narrows inventory listings.
type Filter struct {
	Category Category
	Query    string
	LowStock bool
	Page     store.Page
}

// Matches applies the filter to one item.
func (f Filter) Matches(it Item) bool {
	if f.Category != "" && it.Category != f.Category {
		return false
	}
	if f.LowStock && !(it.LowStock() || it.OutOfStock()) {
		return false
	}
	if q := strings.ToLower(strings.TrimSpace(f.Query)); q != "" {
		if !strings.Contains(strings.ToLower(it.Name), q) &&
			!strings.Contains(strings.ToLower(it.SKU), q) &&
			!strings.Contains(strings.ToLower(it.Supplier), q) {
			return false
		}
	}
	return true
}

// Summary aggregates stock health.
type Summary struct {
	TotalItems int             `json:"totalItems"`
	TotalValue decimal.Decimal `json:"totalValue"`
	LowStock   int             `json:"lowStock"`
	OutOfStock int             `json:"outOfStock"`
}

// Summarize folds items into a Summary.
func Summarize(items []Item) Summary {
	s := Summary{TotalItems: len(items), TotalValue: decimal.Zero}
	for _, it := range items {
		s.TotalValue = s.TotalValue.Add(it.Value())
		switch {
		case it.OutOfStock():
			s.OutOfStock++
		case it.LowStock():
			s.LowStock++
		}
	}
	return s
}

// Repository persists items. Create and Update return store.ErrConflict on a
// duplicate SKU.
type Repository interface {
	CreateItem(ctx context.Context, it Item) error
	GetItem(ctx context.Context, id string) (Item, error)
	ListItems(ctx context.Context, f Filter) ([]Item, int, error)
	UpdateItem(ctx context.Context, it Item) error
	DeleteItem(ctx context.Context, id string) error
}

// Input is the writable part of an item.
type Input struct {
	SKU             string          `json:"sku" validate:"required,max=64"`
	Name            string          `json:"name" validate:"required,max=200"`
	Category        Category        `json:"category" validate:"required,oneof=base top finish accessory hardware"`
	Quantity        int             `json:"quantity" validate:"gte=0"`
	ReorderPoint    int             `json:"reorderPoint" validate:"gte=0"`
	ReorderQuantity int             `json:"reorderQuantity" validate:"gte=0"`
	UnitCost        decimal.Decimal `json:"unitCost"`
	Supplier        string          `json:"supplier"`
	Notes           string          `json:"notes"`
}

func (in Input) check() error {
	if err := common.ValidateStruct(in); err != nil {
		return err
	}
	if in.UnitCost.IsNegative() {
		return common.Validation("request validation failed", map[string]string{"unitCost": "must not be negative"}, nil)
	}
	return nil
}

// Service manages inventory.
type Service struct {
	Repo Repository
	Now  func() time.Time
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) ready() error {
	if s == nil || s.Repo == nil {
		return errors.New("inventory service not configured")
	}
	return nil
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case common.IsAppError(err):
		return err
	case errors.Is(err, store.ErrNotFound):
		return common.NotFound("inventory item not found", err)
	case errors.Is(err, store.ErrConflict):
		return common.Conflict("DUPLICATE_SKU", "an item with this SKU already exists", err)
	default:
		return fmt.Errorf("inventory: %w", err)
	}
}

// Create adds an item.
func (s *Service) Create(ctx context.Context, in Input) (Item, error) {
	if err := s.ready(); err != nil {
		return Item{}, err
	}
	if err := in.check(); err != nil {
		return Item{}, err
	}
	now := s.now().UTC()
	it := Item{ID: uuid.NewString(), CreatedAt: now}
	apply(&it, in, now)
	if err := s.Repo.CreateItem(ctx, it); err != nil {
		return Item{}, translate(err)
	}
	return it, nil
}

func apply(it *Item, in Input, now time.Time) {
	it.SKU = strings.TrimSpace(in.SKU)
	it.Name = strings.TrimSpace(in.Name)
	it.Category = in.Category
	it.Quantity = in.Quantity
	it.ReorderPoint = in.ReorderPoint
	it.ReorderQuantity = in.ReorderQuantity
	it.UnitCost = in.UnitCost
	it.Supplier = strings.TrimSpace(in.Supplier)
	it.Notes = in.Notes
	it.UpdatedAt = now
}

// Get loads an item.
func (s *Service) Get(ctx context.Context, id string) (Item, error) {
	if err := s.ready(); err != nil {
		return Item{}, err
	}
	it, err := s.Repo.GetItem(ctx, id)
	return it, translate(err)
}

// List returns a filtered page of items.
func (s *Service) List(ctx context.Context, f Filter) ([]Item, int, error) {
	if err := s.ready(); err != nil {
		return nil, 0, err
	}
	items, total, err := s.Repo.ListItems(ctx, f)
	return items, total, translate(err)
}

// Update replaces the writable fields of an item.
func (s *Service) Update(ctx context.Context, id string, in Input) (Item, error) {
	if err := in.check(); err != nil {
		return Item{}, err
	}
	it, err := s.Get(ctx, id)
	if err != nil {
		return Item{}, err
	}
	apply(&it, in, s.now().UTC())
	if err := s.Repo.UpdateItem(ctx, it); err != nil {
		return Item{}, translate(err)
	}
	return it, nil
}

// Delete removes an item.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.ready(); err != nil {
		return err
	}
	return translate(s.Repo.DeleteItem(ctx, id))
}

// Restock adds qty units. A zero qty restocks the item's reorder quantity.
func (s *Service) Restock(ctx context.Context, id string, qty int) (Item, error) {
	if qty < 0 {
		return Item{}, common.Validation("request validation failed", map[string]string{"quantity": "must not be negative"}, nil)
	}
	it, err := s.Get(ctx, id)
	if err != nil {
		return Item{}, err
	}
	if qty == 0 {
		qty = it.ReorderQuantity
	}
	if qty == 0 {
		return Item{}, common.Validation("request validation failed", map[string]string{"quantity": "is required when the item has no reorder quantity"}, nil)
	}
	now := s.now().UTC()
	it.Quantity += qty
	it.LastRestocked = &now
	it.UpdatedAt = now
	if err := s.Repo.UpdateItem(ctx, it); err != nil {
		return Item{}, translate(err)
	}
	return it, nil
}

// Summary aggregates every item.
func (s *Service) Summary(ctx context.Context) (Summary, error) {
	items, err := s.all(ctx, Filter{})
	if err != nil {
		return Summary{}, err
	}
	return Summarize(items), nil
}

// Reorder lists items that are low or out of stock.
func (s *Service) Reorder(ctx context.Context) ([]Item, error) {
	return s.all(ctx, Filter{LowStock: true})
}

func (s *Service) all(ctx context.Context, f Filter) ([]Item, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	items, _, err := s.Repo.ListItems(ctx, f)
	return items, translate(err)
}
