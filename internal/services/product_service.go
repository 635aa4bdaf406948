// internal/services/product_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/javajoker/artisans-backend/internal/events"
	"github.com/javajoker/artisans-backend/internal/models"
	"github.com/javajoker/artisans-backend/internal/utils"
)

var (
	ErrProductNotFound    = errors.New("product not found")
	ErrProductNotEditable = errors.New("product cannot be modified in its current state")
	ErrTooManyImages      = errors.New("too many product images")
)

const maxProductImages = 10

type ProductService struct {
	db      *gorm.DB
	bus     events.Publisher
	shops   *ShopService
	storage *StorageService
}

type CreateProductRequest struct {
	Name             string                 `json:"name" validate:"required,min=2,max=200"`
	Description      string                 `json:"description,omitempty" validate:"max=5000"`
	ShortDescription string                 `json:"short_description,omitempty" validate:"max=300"`
	Price            float64                `json:"price" validate:"required,gt=0"`
	ComparePrice     *float64               `json:"compare_price,omitempty" validate:"omitempty,gt=0"`
	Category         string                 `json:"category,omitempty" validate:"max=100"`
	Subcategory      string                 `json:"subcategory,omitempty" validate:"max=100"`
	Tags             []string               `json:"tags,omitempty"`
	Materials        []string               `json:"materials,omitempty"`
	Techniques       []string               `json:"techniques,omitempty"`
	Images           []string               `json:"images,omitempty" validate:"max=10,dive,url"`
	Inventory        int                    `json:"inventory" validate:"min=0"`
	SKU              *string                `json:"sku,omitempty" validate:"omitempty,max=64"`
	Weight           *float64               `json:"weight,omitempty" validate:"omitempty,gt=0"`
	Dimensions       map[string]interface{} `json:"dimensions,omitempty"`
}

// UpdateProductRequest lists the fields an owner may change. Nil means unchanged.
type UpdateProductRequest struct {
	Name             *string                `json:"name,omitempty" validate:"omitempty,min=2,max=200"`
	Description      *string                `json:"description,omitempty" validate:"omitempty,max=5000"`
	ShortDescription *string                `json:"short_description,omitempty" validate:"omitempty,max=300"`
	Price            *float64               `json:"price,omitempty" validate:"omitempty,gt=0"`
	ComparePrice     *float64               `json:"compare_price,omitempty" validate:"omitempty,gt=0"`
	Category         *string                `json:"category,omitempty"`
	Subcategory      *string                `json:"subcategory,omitempty"`
	Tags             []string               `json:"tags,omitempty"`
	Materials        []string               `json:"materials,omitempty"`
	Techniques       []string               `json:"techniques,omitempty"`
	Images           []string               `json:"images,omitempty" validate:"omitempty,max=10,dive,url"`
	Inventory        *int                   `json:"inventory,omitempty" validate:"omitempty,min=0"`
	SKU              *string                `json:"sku,omitempty" validate:"omitempty,max=64"`
	Weight           *float64               `json:"weight,omitempty" validate:"omitempty,gt=0"`
	Dimensions       map[string]interface{} `json:"dimensions,omitempty"`
}

type ProductSearchParams struct {
	utils.PaginationParams
	ShopID      *uuid.UUID `json:"shop_id,omitempty"`
	Subcategory string     `json:"subcategory,omitempty"`
	PriceMin    *float64   `json:"price_min,omitempty"`
	PriceMax    *float64   `json:"price_max,omitempty"`
	Tags        []string   `json:"tags,omitempty"`
	InStock     *bool      `json:"in_stock,omitempty"`
	Featured    *bool      `json:"featured,omitempty"`
}

func NewProductService(db *gorm.DB, bus events.Publisher, shops *ShopService, storage *StorageService) *ProductService {
	return &ProductService{
		db:      db,
		bus:     bus,
		shops:   shops,
		storage: storage,
	}
}

// Editable reports whether the owner may change a product in this state.
func Editable(status models.ModerationStatus) bool {
	return status != models.ModerationStatusPending && status != models.ModerationStatusArchived
}

func (s *ProductService) CreateProduct(ctx context.Context, userID uuid.UUID, req *CreateProductRequest) (*models.Product, error) {
	shop, err := s.shops.GetByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	product := &models.Product{
		ShopID:           shop.ID,
		Name:             strings.TrimSpace(req.Name),
		Description:      req.Description,
		ShortDescription: req.ShortDescription,
		Price:            req.Price,
		ComparePrice:     req.ComparePrice,
		Currency:         "COP",
		Category:         req.Category,
		Subcategory:      req.Subcategory,
		Tags:             pq.StringArray(req.Tags),
		Materials:        pq.StringArray(req.Materials),
		Techniques:       pq.StringArray(req.Techniques),
		Images:           pq.StringArray(req.Images),
		Inventory:        req.Inventory,
		SKU:              req.SKU,
		Weight:           req.Weight,
		Dimensions:       models.JSONB(req.Dimensions),
		ModerationStatus: models.ModerationStatusDraft,
	}
	product.ShippingDataComplete = product.HasShippingData()

	if err := s.db.WithContext(ctx).Create(product).Error; err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	s.bus.Publish(ctx, events.Event{
		Name:    events.ProductWizardCompleted,
		UserID:  userID,
		Payload: map[string]interface{}{"productId": product.ID.String(), "shopId": shop.ID.String()},
	})
	return product, nil
}

// GetProduct returns a product visible to viewer: marketplace products to
// everyone, any product to its shop owner.
func (s *ProductService) GetProduct(ctx context.Context, id uuid.UUID, viewer *uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := s.db.WithContext(ctx).Preload("Shop").First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if viewer != nil && product.Shop != nil && product.Shop.UserID == *viewer {
		return &product, nil
	}
	if !product.Active || !product.ModerationStatus.Visible() || product.Shop == nil || !product.Shop.PubliclyVisible() {
		return nil, ErrProductNotFound
	}
	return &product, nil
}

// owned loads a product of the user's shop. Products of other shops are
// reported as not found.
func (s *ProductService) owned(ctx context.Context, userID, productID uuid.UUID) (*models.Product, *models.ArtisanShop, error) {
	shop, err := s.shops.GetByUser(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	var product models.Product
	if err := s.db.WithContext(ctx).
		Where("id = ? AND shop_id = ?", productID, shop.ID).
		First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrProductNotFound
		}
		return nil, nil, fmt.Errorf("database error: %w", err)
	}
	return &product, shop, nil
}

// ProductUpdates converts the request to a column map. It reports whether
// listing content changed and whether the inventory changed.
func ProductUpdates(req *UpdateProductRequest) (updates map[string]interface{}, content, inventory bool) {
	updates = make(map[string]interface{})

	setString := func(col string, v *string) {
		if v != nil {
			updates[col] = strings.TrimSpace(*v)
			content = true
		}
	}
	setString("name", req.Name)
	setString("description", req.Description)
	setString("short_description", req.ShortDescription)
	setString("category", req.Category)
	setString("subcategory", req.Subcategory)

	arrays := map[string][]string{
		"tags":       req.Tags,
		"materials":  req.Materials,
		"techniques": req.Techniques,
		"images":     req.Images,
	}
	for col, v := range arrays {
		if v != nil {
			updates[col] = pq.StringArray(v)
			content = true
		}
	}

	if req.Price != nil {
		updates["price"] = *req.Price
		content = true
	}
	if req.ComparePrice != nil {
		updates["compare_price"] = *req.ComparePrice
	}
	if req.SKU != nil {
		updates["sku"] = strings.TrimSpace(*req.SKU)
	}
	if req.Weight != nil {
		updates["weight"] = *req.Weight
	}
	if req.Dimensions != nil {
		updates["dimensions"] = models.JSONB(req.Dimensions)
	}
	if req.Inventory != nil {
		updates["inventory"] = *req.Inventory
		inventory = true
	}
	return updates, content, inventory
}

// UpdateProduct applies owner edits. Content changes on a product already in
// the marketplace send it back to moderation.
func (s *ProductService) UpdateProduct(ctx context.Context, userID, productID uuid.UUID, req *UpdateProductRequest) (*models.Product, error) {
	product, _, err := s.owned(ctx, userID, productID)
	if err != nil {
		return nil, err
	}
	if !Editable(product.ModerationStatus) {
		return nil, ErrProductNotEditable
	}

	updates, content, inventory := ProductUpdates(req)
	if len(updates) == 0 {
		return product, nil
	}
	if content && product.ModerationStatus.Visible() {
		updates["moderation_status"] = models.ModerationStatusPending
		updates["active"] = false
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(product).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to update product: %w", err)
		}
		if err := tx.First(product, "id = ?", product.ID).Error; err != nil {
			return fmt.Errorf("failed to reload product: %w", err)
		}
		shipping := product.HasShippingData()
		if shipping != product.ShippingDataComplete {
			product.ShippingDataComplete = shipping
			return tx.Model(product).Update("shipping_data_complete", shipping).Error
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if inventory {
		s.bus.Publish(ctx, events.Event{
			Name:    events.InventoryUpdated,
			UserID:  userID,
			Payload: map[string]interface{}{"productId": product.ID.String(), "inventory": product.Inventory},
		})
	}
	return product, nil
}

// SubmitForModeration moves a draft or a product with requested changes to
// the moderation queue.
func (s *ProductService) SubmitForModeration(ctx context.Context, userID, productID uuid.UUID) (*models.Product, error) {
	product, _, err := s.owned(ctx, userID, productID)
	if err != nil {
		return nil, err
	}
	if product.ModerationStatus != models.ModerationStatusDraft && product.ModerationStatus != models.ModerationStatusChangesRequested {
		return nil, ErrProductNotEditable
	}

	res := s.db.WithContext(ctx).Model(&models.Product{}).
		Where("id = ? AND moderation_status = ?", product.ID, product.ModerationStatus).
		Update("moderation_status", models.ModerationStatusPending)
	if res.Error != nil {
		return nil, fmt.Errorf("failed to submit product: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrProductNotEditable
	}
	product.ModerationStatus = models.ModerationStatusPending
	return product, nil
}

// ArchiveProduct hides the product for good. Products are never hard deleted
// since orders reference them.
func (s *ProductService) ArchiveProduct(ctx context.Context, userID, productID uuid.UUID) error {
	product, _, err := s.owned(ctx, userID, productID)
	if err != nil {
		return err
	}
	if product.ModerationStatus == models.ModerationStatusArchived {
		return nil
	}
	if err := s.db.WithContext(ctx).Model(product).Updates(map[string]interface{}{
		"moderation_status": models.ModerationStatusArchived,
		"active":            false,
	}).Error; err != nil {
		return fmt.Errorf("failed to archive product: %w", err)
	}

	s.bus.Publish(ctx, events.Event{Name: events.InventoryUpdated, UserID: userID, Payload: map[string]interface{}{"productId": product.ID.String()}})
	return nil
}

// UploadImage stores an image and appends its URL to the product.
func (s *ProductService) UploadImage(ctx context.Context, userID, productID uuid.UUID, file multipart.File, header *multipart.FileHeader) (*models.Product, error) {
	product, _, err := s.owned(ctx, userID, productID)
	if err != nil {
		return nil, err
	}
	if !Editable(product.ModerationStatus) {
		return nil, ErrProductNotEditable
	}
	if len(product.Images) >= maxProductImages {
		return nil, ErrTooManyImages
	}

	result, err := s.storage.UploadFile(ctx, file, header, s.storage.GetDefaultUploadOptions("products"))
	if err != nil {
		return nil, err
	}

	images := append(pq.StringArray{}, product.Images...)
	images = append(images, result.URL)
	if err := s.db.WithContext(ctx).Model(product).Update("images", images).Error; err != nil {
		if delErr := s.storage.DeleteFile(ctx, result.Key); delErr != nil {
			logrus.WithError(delErr).WithField("key", result.Key).Warn("Failed to clean up orphaned upload")
		}
		return nil, fmt.Errorf("failed to attach image: %w", err)
	}
	product.Images = images
	return product, nil
}

// RemoveImage detaches an image URL and deletes the stored object.
func (s *ProductService) RemoveImage(ctx context.Context, userID, productID uuid.UUID, url string) (*models.Product, error) {
	product, _, err := s.owned(ctx, userID, productID)
	if err != nil {
		return nil, err
	}
	if !Editable(product.ModerationStatus) {
		return nil, ErrProductNotEditable
	}

	images := make(pq.StringArray, 0, len(product.Images))
	for _, img := range product.Images {
		if img != url {
			images = append(images, img)
		}
	}
	if len(images) == len(product.Images) {
		return product, nil
	}
	if err := s.db.WithContext(ctx).Model(product).Update("images", images).Error; err != nil {
		return nil, fmt.Errorf("failed to detach image: %w", err)
	}
	product.Images = images

	if err := s.storage.DeleteByURL(ctx, url); err != nil {
		logrus.WithError(err).WithField("url", url).Warn("Failed to delete product image")
	}
	return product, nil
}

// ListMine returns every product of the user's shop, archived ones included
// when status asks for them.
func (s *ProductService) ListMine(ctx context.Context, userID uuid.UUID, params utils.PaginationParams) ([]models.Product, int64, error) {
	shop, err := s.shops.GetByUser(ctx, userID)
	if err != nil {
		return nil, 0, err
	}

	query := s.db.WithContext(ctx).Model(&models.Product{}).Where("shop_id = ?", shop.ID)
	if params.Status != "" {
		query = query.Where("moderation_status = ?", params.Status)
	} else {
		query = query.Where("moderation_status <> ?", models.ModerationStatusArchived)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	query = utils.ApplySort(query, params, "created_at", "updated_at", "name", "price", "inventory")
	query = utils.ApplyPagination(query, params)

	var products []models.Product
	if err := query.Find(&products).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch products: %w", err)
	}
	return products, total, nil
}

// SearchProducts is the public marketplace listing: approved, active
// products of published and approved shops.
func (s *ProductService) SearchProducts(ctx context.Context, params ProductSearchParams) ([]models.Product, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.Product{}).
		Joins("JOIN shop.artisan_shops ON artisan_shops.id = products.shop_id").
		Where("products.active = ?", true).
		Where("products.moderation_status IN ?", []models.ModerationStatus{models.ModerationStatusApproved, models.ModerationStatusApprovedWithEdits}).
		Where("artisan_shops.active = ? AND artisan_shops.publish_status = ? AND artisan_shops.marketplace_approved = ?",
			true, models.PublishStatusPublished, true)

	if params.ShopID != nil {
		query = query.Where("products.shop_id = ?", *params.ShopID)
	}
	if params.Category != "" {
		query = query.Where("products.category = ?", params.Category)
	}
	if params.Subcategory != "" {
		query = query.Where("products.subcategory = ?", params.Subcategory)
	}
	if params.Region != "" {
		query = query.Where("artisan_shops.region = ?", params.Region)
	}
	if params.Search != "" {
		searchTerm := "%" + strings.ToLower(params.Search) + "%"
		query = query.Where("LOWER(products.name) LIKE ? OR LOWER(products.description) LIKE ?", searchTerm, searchTerm)
	}
	if params.PriceMin != nil {
		query = query.Where("products.price >= ?", *params.PriceMin)
	}
	if params.PriceMax != nil {
		query = query.Where("products.price <= ?", *params.PriceMax)
	}
	if len(params.Tags) > 0 {
		query = query.Where("products.tags && ?", pq.StringArray(params.Tags))
	}
	if params.InStock != nil && *params.InStock {
		query = query.Where("products.inventory > 0")
	}
	if params.Featured != nil {
		query = query.Where("products.featured = ?", *params.Featured)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	sortField := "created_at"
	switch params.Sort {
	case "updated_at", "name", "price":
		sortField = params.Sort
	}
	query = query.Order("products." + sortField + " " + params.Order)
	query = utils.ApplyPagination(query, params.PaginationParams)

	var products []models.Product
	if err := query.Select("products.*").Preload("Shop").Find(&products).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch products: %w", err)
	}
	return products, total, nil
}

// CountByShop is used by the progress source and mission discovery.
func (s *ProductService) CountByShop(ctx context.Context, shopID uuid.UUID) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Product{}).
		Where("shop_id = ? AND moderation_status <> ?", shopID, models.ModerationStatusArchived).
		Count(&count).Error
	return count, err
}
