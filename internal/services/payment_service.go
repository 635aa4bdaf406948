// internal/services/payment_service.go
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/paymentintent"
	"github.com/stripe/stripe-go/v74/webhook"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/javajoker/artisans-backend/internal/config"
	"github.com/javajoker/artisans-backend/internal/events"
	"github.com/javajoker/artisans-backend/internal/models"
)

var (
	ErrPaymentUnavailable = errors.New("payments are not configured")
	ErrCartNotFound       = errors.New("cart not found")
	ErrCartEmpty          = errors.New("cart is empty")
	ErrCartItemNotFound   = errors.New("cart item not found")
	ErrItemUnavailable    = errors.New("product is not available")
	ErrCheckoutNotFound   = errors.New("checkout not found")
	ErrInvalidWebhook     = errors.New("invalid webhook signature")
)

const (
	stripeProviderCode   = "stripe"
	webhookIntentSuccess = "payment_intent.succeeded"
	webhookIntentFailed  = "payment_intent.payment_failed"
)

// IntentRequest is what the gateway needs to open a card payment.
type IntentRequest struct {
	AmountMinor    int64
	Currency       string
	IdempotencyKey string
	Metadata       map[string]string
}

type IntentResult struct {
	ID           string
	ClientSecret string
	Status       string
}

// WebhookEvent is the part of a provider webhook the service acts on.
type WebhookEvent struct {
	Type     string
	IntentID string
	Status   string
}

// PaymentGateway hides the card processor.
type PaymentGateway interface {
	CreateIntent(ctx context.Context, req IntentRequest) (*IntentResult, error)
	ParseWebhook(payload []byte, signature string) (*WebhookEvent, error)
}

type stripeGateway struct {
	webhookSecret string
}

// NewStripeGateway sets the global Stripe key and returns a gateway, or nil
// when no key is configured.
func NewStripeGateway(cfg config.PaymentConfig) PaymentGateway {
	if cfg.StripeSecretKey == "" {
		return nil
	}
	stripe.Key = cfg.StripeSecretKey
	return &stripeGateway{webhookSecret: cfg.StripeWebhookSecret}
}

func (g *stripeGateway) CreateIntent(ctx context.Context, req IntentRequest) (*IntentResult, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(req.AmountMinor),
		Currency: stripe.String(strings.ToLower(req.Currency)),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}

	pi, err := paymentintent.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment intent: %w", err)
	}
	return &IntentResult{ID: pi.ID, ClientSecret: pi.ClientSecret, Status: string(pi.Status)}, nil
}

func (g *stripeGateway) ParseWebhook(payload []byte, signature string) (*WebhookEvent, error) {
	event, err := webhook.ConstructEvent(payload, signature, g.webhookSecret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWebhook, err)
	}
	out := &WebhookEvent{Type: string(event.Type)}
	if event.Data != nil && strings.HasPrefix(out.Type, "payment_intent.") {
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
			return nil, fmt.Errorf("failed to decode payment intent: %w", err)
		}
		out.IntentID = pi.ID
		out.Status = string(pi.Status)
	}
	return out, nil
}

type AddCartItemRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,min=1,max=100"`
}

type CheckoutRequest struct {
	IdempotencyKey string `json:"idempotency_key,omitempty" validate:"omitempty,max=100"`
}

type CheckoutResponse struct {
	Checkout     *models.Checkout `json:"checkout"`
	ClientSecret string           `json:"client_secret,omitempty"`
	IntentID     string           `json:"payment_intent_id,omitempty"`
}

type ShopBalance struct {
	ShopID    uuid.UUID `json:"shop_id"`
	Currency  string    `json:"currency"`
	Pending   int64     `json:"pending_minor"`
	Available int64     `json:"available_minor"`
}

// LedgerLine is one planned ledger entry. Debits are positive, credits negative.
type LedgerLine struct {
	OwnerType   models.LedgerOwnerType
	OwnerID     *uuid.UUID
	AccountType models.LedgerAccountType
	AmountMinor int64
}

type PaymentService struct {
	db      *gorm.DB
	config  *config.Config
	gateway PaymentGateway
	bus     events.Publisher
	now     func() time.Time
}

func NewPaymentService(db *gorm.DB, config *config.Config, gateway PaymentGateway, bus events.Publisher) *PaymentService {
	return &PaymentService{
		db:      db,
		config:  config,
		gateway: gateway,
		bus:     bus,
		now:     time.Now,
	}
}

// CheckoutAmounts applies the platform commission, charged to the buyer on
// top of the subtotal. Fractions of a minor unit round half up.
func CheckoutAmounts(subtotalMinor int64, feeBps int) (chargesMinor, totalMinor int64) {
	chargesMinor = (subtotalMinor*int64(feeBps) + 5000) / 10000
	return chargesMinor, subtotalMinor + chargesMinor
}

// SettlementLines plans the ledger transaction of a paid checkout: the
// clearing account receives the total, each seller shop's pending account
// is credited its gross and the platform revenue account the commission.
func SettlementLines(totalMinor, chargesMinor int64, grossByShop map[uuid.UUID]int64) []LedgerLine {
	lines := []LedgerLine{{
		OwnerType:   models.LedgerOwnerPlatform,
		AccountType: models.LedgerAccountClearing,
		AmountMinor: totalMinor,
	}}

	shops := make([]uuid.UUID, 0, len(grossByShop))
	for id := range grossByShop {
		shops = append(shops, id)
	}
	sort.Slice(shops, func(i, j int) bool { return shops[i].String() < shops[j].String() })
	for _, id := range shops {
		shopID := id
		lines = append(lines, LedgerLine{
			OwnerType:   models.LedgerOwnerShop,
			OwnerID:     &shopID,
			AccountType: models.LedgerAccountPending,
			AmountMinor: -grossByShop[id],
		})
	}
	if chargesMinor != 0 {
		lines = append(lines, LedgerLine{
			OwnerType:   models.LedgerOwnerPlatform,
			AccountType: models.LedgerAccountRevenue,
			AmountMinor: -chargesMinor,
		})
	}
	return lines
}

// Balanced reports whether the lines sum to zero.
func Balanced(lines []LedgerLine) bool {
	var sum int64
	for _, l := range lines {
		sum += l.AmountMinor
	}
	return sum == 0
}

func (s *PaymentService) currency() string {
	if s.config.Payment.DefaultCurrency != "" {
		return strings.ToUpper(s.config.Payment.DefaultCurrency)
	}
	return "COP"
}

func (s *PaymentService) openCart(tx *gorm.DB, buyerID uuid.UUID) (*models.Cart, error) {
	var cart models.Cart
	err := tx.Where("buyer_user_id = ? AND status = ?", buyerID, models.CartStatusOpen).
		Order("created_at DESC").
		Preload("Items").Preload("Items.Product").
		First(&cart).Error
	if err == nil {
		return &cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}

	cart = models.Cart{BuyerUserID: buyerID, Context: "marketplace", Currency: s.currency(), Status: models.CartStatusOpen, Version: 1}
	if err := tx.Create(&cart).Error; err != nil {
		return nil, fmt.Errorf("failed to create cart: %w", err)
	}
	return &cart, nil
}

// GetCart returns the buyer's open cart, creating an empty one.
func (s *PaymentService) GetCart(ctx context.Context, buyerID uuid.UUID) (*models.Cart, error) {
	return s.openCart(s.db.WithContext(ctx), buyerID)
}

// purchasable loads a product that is visible in the marketplace.
func purchasable(tx *gorm.DB, productID uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := tx.Preload("Shop").First(&product, "id = ?", productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrItemUnavailable
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	if !product.Active || !product.ModerationStatus.Visible() || product.Shop == nil || !product.Shop.PubliclyVisible() {
		return nil, ErrItemUnavailable
	}
	return &product, nil
}

// AddItem adds a product at its current price. Adding a product already in
// the cart increases its quantity.
func (s *PaymentService) AddItem(ctx context.Context, buyerID uuid.UUID, req *AddCartItemRequest) (*models.Cart, error) {
	var cartID uuid.UUID
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		product, err := purchasable(tx, req.ProductID)
		if err != nil {
			return err
		}
		cart, err := s.openCart(tx, buyerID)
		if err != nil {
			return err
		}
		cartID = cart.ID

		quantity := req.Quantity
		var existing *models.CartItem
		for i := range cart.Items {
			if cart.Items[i].ProductID == product.ID {
				existing = &cart.Items[i]
				quantity += existing.Quantity
			}
		}
		if product.Inventory < quantity {
			return ErrItemUnavailable
		}

		if existing != nil {
			return tx.Model(existing).Updates(map[string]interface{}{
				"quantity":         quantity,
				"unit_price_minor": product.PriceMinor(),
			}).Error
		}
		return tx.Create(&models.CartItem{
			CartID:         cart.ID,
			ProductID:      product.ID,
			SellerShopID:   product.ShopID,
			Quantity:       quantity,
			Currency:       cart.Currency,
			UnitPriceMinor: product.PriceMinor(),
			PriceSource:    "product_base",
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return s.cartByID(ctx, cartID)
}

func (s *PaymentService) RemoveItem(ctx context.Context, buyerID, itemID uuid.UUID) (*models.Cart, error) {
	cart, err := s.GetCart(ctx, buyerID)
	if err != nil {
		return nil, err
	}
	res := s.db.WithContext(ctx).Where("id = ? AND cart_id = ?", itemID, cart.ID).Delete(&models.CartItem{})
	if res.Error != nil {
		return nil, fmt.Errorf("failed to remove cart item: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrCartItemNotFound
	}
	return s.cartByID(ctx, cart.ID)
}

func (s *PaymentService) cartByID(ctx context.Context, id uuid.UUID) (*models.Cart, error) {
	var cart models.Cart
	if err := s.db.WithContext(ctx).Preload("Items").Preload("Items.Product").First(&cart, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCartNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &cart, nil
}

// Checkout locks the open cart, prices it and opens a card payment. A
// repeated idempotency key returns the checkout created the first time.
func (s *PaymentService) Checkout(ctx context.Context, buyerID uuid.UUID, req *CheckoutRequest) (*CheckoutResponse, error) {
	if s.gateway == nil {
		return nil, ErrPaymentUnavailable
	}
	key := strings.TrimSpace(req.IdempotencyKey)
	if key == "" {
		key = uuid.NewString()
	}

	if resp, err := s.existingCheckout(ctx, buyerID, key); err != nil || resp != nil {
		return resp, err
	}

	var (
		checkout models.Checkout
		provider models.PaymentProvider
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("code = ? AND is_active = ?", stripeProviderCode, true).First(&provider).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPaymentUnavailable
			}
			return fmt.Errorf("database error: %w", err)
		}

		var cart models.Cart
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("buyer_user_id = ? AND status = ?", buyerID, models.CartStatusOpen).
			Order("created_at DESC").
			First(&cart).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCartEmpty
			}
			return fmt.Errorf("database error: %w", err)
		}
		if err := tx.Where("cart_id = ?", cart.ID).Find(&cart.Items).Error; err != nil {
			return fmt.Errorf("failed to load cart items: %w", err)
		}
		if len(cart.Items) == 0 {
			return ErrCartEmpty
		}
		for _, item := range cart.Items {
			product, err := purchasable(tx, item.ProductID)
			if err != nil {
				return err
			}
			if product.Inventory < item.Quantity {
				return ErrItemUnavailable
			}
		}

		subtotal := cart.SubtotalMinor()
		charges, total := CheckoutAmounts(subtotal, s.config.Payment.PlatformFeeBps)
		now := s.now()

		if err := tx.Model(&cart).Updates(map[string]interface{}{
			"status":    models.CartStatusLocked,
			"locked_at": now,
			"version":   gorm.Expr("version + 1"),
		}).Error; err != nil {
			return fmt.Errorf("failed to lock cart: %w", err)
		}

		checkout = models.Checkout{
			CartID:            cart.ID,
			BuyerUserID:       buyerID,
			Context:           cart.Context,
			Currency:          cart.Currency,
			Status:            models.CheckoutStatusAwaitingPayment,
			SubtotalMinor:     subtotal,
			ChargesTotalMinor: charges,
			TotalMinor:        total,
			IdempotencyKey:    key,
		}
		if err := tx.Create(&checkout).Error; err != nil {
			return fmt.Errorf("failed to create checkout: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	intent, err := s.gateway.CreateIntent(ctx, IntentRequest{
		AmountMinor:    checkout.TotalMinor,
		Currency:       checkout.Currency,
		IdempotencyKey: key,
		Metadata: map[string]string{
			"checkout_id": checkout.ID.String(),
			"buyer_id":    buyerID.String(),
		},
	})
	if err != nil {
		s.abandonCheckout(ctx, &checkout)
		return nil, err
	}

	externalID := intent.ID
	pi := &models.PaymentIntent{
		CheckoutID:       checkout.ID,
		ProviderID:       provider.ID,
		Currency:         checkout.Currency,
		AmountMinor:      checkout.TotalMinor,
		Status:           intent.Status,
		ExternalIntentID: &externalID,
		ProviderData:     models.JSONB{"client_secret": intent.ClientSecret},
	}
	if err := s.db.WithContext(ctx).Create(pi).Error; err != nil {
		return nil, fmt.Errorf("failed to store payment intent: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"checkout_id": checkout.ID,
		"buyer_id":    buyerID,
		"total_minor": checkout.TotalMinor,
	}).Info("Checkout created")

	return &CheckoutResponse{Checkout: &checkout, ClientSecret: intent.ClientSecret, IntentID: intent.ID}, nil
}

func (s *PaymentService) existingCheckout(ctx context.Context, buyerID uuid.UUID, key string) (*CheckoutResponse, error) {
	var checkout models.Checkout
	err := s.db.WithContext(ctx).Where("buyer_user_id = ? AND idempotency_key = ?", buyerID, key).First(&checkout).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}

	resp := &CheckoutResponse{Checkout: &checkout}
	var pi models.PaymentIntent
	if err := s.db.WithContext(ctx).Where("checkout_id = ?", checkout.ID).Order("created_at DESC").First(&pi).Error; err == nil {
		resp.ClientSecret = pi.ProviderData.String("client_secret")
		if pi.ExternalIntentID != nil {
			resp.IntentID = *pi.ExternalIntentID
		}
	}
	return resp, nil
}

// abandonCheckout reopens the cart when the processor refused the intent.
func (s *PaymentService) abandonCheckout(ctx context.Context, checkout *models.Checkout) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(checkout).Update("status", models.CheckoutStatusFailed).Error; err != nil {
			return err
		}
		return tx.Model(&models.Cart{}).Where("id = ?", checkout.CartID).Updates(map[string]interface{}{
			"status":    models.CartStatusOpen,
			"locked_at": nil,
		}).Error
	})
	if err != nil {
		logrus.WithError(err).WithField("checkout_id", checkout.ID).Error("Failed to reopen cart after intent failure")
	}
}

func (s *PaymentService) GetCheckout(ctx context.Context, buyerID, id uuid.UUID) (*models.Checkout, error) {
	var checkout models.Checkout
	if err := s.db.WithContext(ctx).Where("id = ? AND buyer_user_id = ?", id, buyerID).First(&checkout).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCheckoutNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &checkout, nil
}

// HandleWebhook verifies and applies a processor webhook. Unknown event
// types are acknowledged and ignored.
func (s *PaymentService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	if s.gateway == nil {
		return ErrPaymentUnavailable
	}
	event, err := s.gateway.ParseWebhook(payload, signature)
	if err != nil {
		return err
	}

	log := logrus.WithFields(logrus.Fields{"type": event.Type, "intent_id": event.IntentID})
	switch event.Type {
	case webhookIntentSuccess:
		log.Info("Payment succeeded")
		return s.markPaid(ctx, event.IntentID)
	case webhookIntentFailed:
		log.Warn("Payment failed")
		return s.markFailed(ctx, event.IntentID)
	default:
		log.Debug("Ignoring webhook event")
		return nil
	}
}

func (s *PaymentService) intentByExternalID(tx *gorm.DB, externalID string) (*models.PaymentIntent, error) {
	var pi models.PaymentIntent
	if err := tx.Where("external_intent_id = ?", externalID).First(&pi).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCheckoutNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &pi, nil
}

// markPaid settles a checkout: one order per seller shop, inventory
// decremented and a balanced ledger transaction. Replays are no-ops.
func (s *PaymentService) markPaid(ctx context.Context, externalID string) error {
	var checkout models.Checkout
	settled := false

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		pi, err := s.intentByExternalID(tx, externalID)
		if err != nil {
			return err
		}
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&checkout, "id = ?", pi.CheckoutID).Error; err != nil {
			return fmt.Errorf("failed to load checkout: %w", err)
		}
		if checkout.Status == models.CheckoutStatusPaid {
			return nil
		}

		now := s.now()
		if err := tx.Model(pi).Update("status", "succeeded").Error; err != nil {
			return fmt.Errorf("failed to update intent: %w", err)
		}
		if err := tx.Model(&checkout).Update("status", models.CheckoutStatusPaid).Error; err != nil {
			return fmt.Errorf("failed to update checkout: %w", err)
		}
		if err := tx.Model(&models.Cart{}).Where("id = ?", checkout.CartID).Updates(map[string]interface{}{
			"status":       models.CartStatusConverted,
			"converted_at": now,
		}).Error; err != nil {
			return fmt.Errorf("failed to convert cart: %w", err)
		}

		var items []models.CartItem
		if err := tx.Where("cart_id = ?", checkout.CartID).Find(&items).Error; err != nil {
			return fmt.Errorf("failed to load cart items: %w", err)
		}
		grossByShop, err := s.createOrders(tx, &checkout, items)
		if err != nil {
			return err
		}
		if err := s.postLedger(tx, &checkout, grossByShop); err != nil {
			return err
		}
		checkout.Status = models.CheckoutStatusPaid
		settled = true
		return nil
	})
	if err != nil {
		return err
	}

	if settled {
		s.bus.Publish(ctx, events.Event{
			Name:    events.CheckoutPaid,
			UserID:  checkout.BuyerUserID,
			Payload: map[string]interface{}{"checkoutId": checkout.ID.String(), "totalMinor": checkout.TotalMinor},
		})
	}
	return nil
}

func (s *PaymentService) createOrders(tx *gorm.DB, checkout *models.Checkout, items []models.CartItem) (map[uuid.UUID]int64, error) {
	byShop := make(map[uuid.UUID][]models.CartItem)
	for _, item := range items {
		byShop[item.SellerShopID] = append(byShop[item.SellerShopID], item)
	}

	gross := make(map[uuid.UUID]int64, len(byShop))
	for shopID, shopItems := range byShop {
		order := models.Order{
			CheckoutID:   checkout.ID,
			SellerShopID: shopID,
			Currency:     checkout.Currency,
			Status:       "pending_fulfillment",
		}
		for _, item := range shopItems {
			line := item.UnitPriceMinor * int64(item.Quantity)
			order.GrossSubtotalMinor += line
			order.Items = append(order.Items, models.OrderItem{
				ProductID:      item.ProductID,
				Quantity:       item.Quantity,
				Currency:       item.Currency,
				UnitPriceMinor: item.UnitPriceMinor,
				LineTotalMinor: line,
			})
		}
		order.NetToSellerMinor = order.GrossSubtotalMinor
		if err := tx.Create(&order).Error; err != nil {
			return nil, fmt.Errorf("failed to create order: %w", err)
		}
		gross[shopID] = order.GrossSubtotalMinor

		for _, item := range shopItems {
			if err := tx.Model(&models.Product{}).
				Where("id = ?", item.ProductID).
				Update("inventory", gorm.Expr("GREATEST(inventory - ?, 0)", item.Quantity)).Error; err != nil {
				return nil, fmt.Errorf("failed to update inventory: %w", err)
			}
		}
	}
	return gross, nil
}

func (s *PaymentService) postLedger(tx *gorm.DB, checkout *models.Checkout, grossByShop map[uuid.UUID]int64) error {
	lines := SettlementLines(checkout.TotalMinor, checkout.ChargesTotalMinor, grossByShop)
	if !Balanced(lines) {
		return fmt.Errorf("ledger transaction for checkout %s does not balance", checkout.ID)
	}

	txn := models.LedgerTransaction{
		ReferenceType:  "checkout",
		ReferenceID:    checkout.ID,
		Currency:       checkout.Currency,
		Description:    "Marketplace checkout settlement",
		IdempotencyKey: "checkout:" + checkout.ID.String(),
	}
	for _, line := range lines {
		account, err := ledgerAccount(tx, line.OwnerType, line.OwnerID, checkout.Currency, line.AccountType)
		if err != nil {
			return err
		}
		txn.Entries = append(txn.Entries, models.LedgerEntry{AccountID: account.ID, AmountMinor: line.AmountMinor})
	}
	if err := tx.Create(&txn).Error; err != nil {
		return fmt.Errorf("failed to post ledger transaction: %w", err)
	}
	return nil
}

func ledgerAccount(tx *gorm.DB, ownerType models.LedgerOwnerType, ownerID *uuid.UUID, currency string, accountType models.LedgerAccountType) (*models.LedgerAccount, error) {
	query := tx.Where("owner_type = ? AND currency = ? AND account_type = ?", ownerType, currency, accountType)
	if ownerID != nil {
		query = query.Where("owner_id = ?", *ownerID)
	} else {
		query = query.Where("owner_id IS NULL")
	}

	var account models.LedgerAccount
	err := query.First(&account).Error
	if err == nil {
		return &account, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to load ledger account: %w", err)
	}

	account = models.LedgerAccount{OwnerType: ownerType, OwnerID: ownerID, Currency: currency, AccountType: accountType}
	if err := tx.Create(&account).Error; err != nil {
		return nil, fmt.Errorf("failed to create ledger account: %w", err)
	}
	return &account, nil
}

func (s *PaymentService) markFailed(ctx context.Context, externalID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		pi, err := s.intentByExternalID(tx, externalID)
		if err != nil {
			return err
		}
		if err := tx.Model(pi).Update("status", "failed").Error; err != nil {
			return fmt.Errorf("failed to update intent: %w", err)
		}
		res := tx.Model(&models.Checkout{}).
			Where("id = ? AND status <> ?", pi.CheckoutID, models.CheckoutStatusPaid).
			Update("status", models.CheckoutStatusFailed)
		return res.Error
	})
}

// ShopBalance reads a shop's pending and available funds from the ledger.
// Shop accounts hold credits, so balances are the negated entry sums.
func (s *PaymentService) ShopBalance(ctx context.Context, shopID uuid.UUID) (*ShopBalance, error) {
	var rows []struct {
		AccountType models.LedgerAccountType
		Total       int64
	}
	if err := s.db.WithContext(ctx).
		Table("ledger.entries AS e").
		Select("a.account_type, COALESCE(SUM(e.amount_minor), 0) AS total").
		Joins("JOIN ledger.accounts a ON a.id = e.account_id").
		Where("a.owner_type = ? AND a.owner_id = ? AND a.currency = ?", models.LedgerOwnerShop, shopID, s.currency()).
		Group("a.account_type").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to read shop balance: %w", err)
	}

	balance := &ShopBalance{ShopID: shopID, Currency: s.currency()}
	for _, r := range rows {
		switch r.AccountType {
		case models.LedgerAccountPending:
			balance.Pending = -r.Total
		case models.LedgerAccountAvailable:
			balance.Available = -r.Total
		}
	}
	return balance, nil
}
