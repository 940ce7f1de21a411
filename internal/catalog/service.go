package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/bissquit/shop-subscriptions/internal/domain"
	"github.com/bissquit/shop-subscriptions/internal/events"
	"github.com/bissquit/shop-subscriptions/internal/meta"
)

// Service provides product and subscription settings logic.
type Service struct {
	repo Repository
	meta meta.Store
}

// NewService creates a new catalog service.
func NewService(repo Repository, metaStore meta.Store) *Service {
	return &Service{
		repo: repo,
		meta: metaStore,
	}
}

// CreateProduct stores a new product.
func (s *Service) CreateProduct(ctx context.Context, product *domain.Product) error {
	return s.repo.CreateProduct(ctx, product)
}

// GetProduct returns a product by ID.
func (s *Service) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	return s.repo.GetProductByID(ctx, id)
}

// IsSubscriptionProduct reports whether the product is flagged as a subscription.
func (s *Service) IsSubscriptionProduct(ctx context.Context, productID int64) (bool, error) {
	v, err := meta.Value(ctx, s.meta, meta.EntityProduct, productID, domain.MetaIsSubscriptionProduct)
	if err != nil {
		return false, err
	}
	return v == domain.MetaYes, nil
}

// SubscriptionDuration returns the stored duration, unset if none was chosen.
func (s *Service) SubscriptionDuration(ctx context.Context, productID int64) (domain.SubscriptionDuration, error) {
	v, err := meta.Value(ctx, s.meta, meta.EntityProduct, productID, domain.MetaSubscriptionDuration)
	if err != nil {
		return domain.DurationUnset, err
	}
	return domain.SubscriptionDuration(v), nil
}

// SubscriptionFields returns the edit form fields with their stored values.
func (s *Service) SubscriptionFields(ctx context.Context, productID int64) ([]FormField, error) {
	if _, err := s.repo.GetProductByID(ctx, productID); err != nil {
		return nil, err
	}

	flag, err := meta.Value(ctx, s.meta, meta.EntityProduct, productID, domain.MetaIsSubscriptionProduct)
	if err != nil {
		return nil, err
	}

	duration, err := s.SubscriptionDuration(ctx, productID)
	if err != nil {
		return nil, err
	}

	return subscriptionFields(flag, duration), nil
}

// SaveSubscriptionSettings persists the posted subscription fields.
// A missing checkbox means "no". An empty duration keeps the stored one.
func (s *Service) SaveSubscriptionSettings(ctx context.Context, productID int64, form url.Values) error {
	duration := domain.SubscriptionDuration(strings.TrimSpace(form.Get(domain.MetaSubscriptionDuration)))
	if duration != domain.DurationUnset && !duration.IsValid() {
		return ErrInvalidDuration
	}

	flag := domain.MetaNo
	if form.Has(domain.MetaIsSubscriptionProduct) {
		flag = domain.MetaYes
	}

	if err := s.meta.Set(ctx, meta.EntityProduct, productID, domain.MetaIsSubscriptionProduct, flag); err != nil {
		return fmt.Errorf("save subscription flag: %w", err)
	}

	if duration != domain.DurationUnset {
		if err := s.meta.Set(ctx, meta.EntityProduct, productID, domain.MetaSubscriptionDuration, string(duration)); err != nil {
			return fmt.Errorf("save subscription duration: %w", err)
		}
	}

	slog.Info("product subscription settings saved",
		"product_id", productID,
		"is_subscription", flag,
		"duration", duration,
	)

	return nil
}

// HandleProductSaved is the events.ProductSavedHandler of the catalog.
func (s *Service) HandleProductSaved(ctx context.Context, e events.ProductSaved) error {
	return s.SaveSubscriptionSettings(ctx, e.ProductID, e.Form)
}
