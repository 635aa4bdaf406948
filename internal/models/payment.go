// internal/models/payment.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// Tables in this file live in the payments and ledger schemas created by the
// CreatePaymentsAndLedgerSchema migration. Amounts are minor units.

type CartStatus string

const (
	CartStatusOpen      CartStatus = "open"
	CartStatusLocked    CartStatus = "locked"
	CartStatusConverted CartStatus = "converted"
	CartStatusAbandoned CartStatus = "abandoned"
)

type CheckoutStatus string

const (
	CheckoutStatusCreated         CheckoutStatus = "created"
	CheckoutStatusAwaitingPayment CheckoutStatus = "awaiting_payment"
	CheckoutStatusPaid            CheckoutStatus = "paid"
	CheckoutStatusFailed          CheckoutStatus = "failed"
	CheckoutStatusCanceled        CheckoutStatus = "canceled"
	CheckoutStatusRefunded        CheckoutStatus = "refunded"
)

type PaymentProvider struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	Code         string    `json:"code"`
	DisplayName  string    `json:"display_name"`
	IsActive     bool      `json:"is_active"`
	Capabilities JSONB     `json:"capabilities" gorm:"type:jsonb"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (PaymentProvider) TableName() string { return "payments.payment_providers" }

type Cart struct {
	ID          uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	BuyerUserID uuid.UUID  `json:"buyer_user_id" gorm:"type:uuid;not null"`
	Context     string     `json:"context" gorm:"default:'marketplace'"`
	Currency    string     `json:"currency" gorm:"type:char(3);default:'COP'"`
	Status      CartStatus `json:"status" gorm:"default:'open'"`
	Version     int        `json:"version" gorm:"default:1"`
	LockedAt    *time.Time `json:"locked_at"`
	ConvertedAt *time.Time `json:"converted_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	Items []CartItem `json:"items,omitempty" gorm:"foreignKey:CartID"`
}

func (Cart) TableName() string { return "payments.carts" }

// SubtotalMinor sums the line totals of the cart.
func (c *Cart) SubtotalMinor() int64 {
	var total int64
	for _, item := range c.Items {
		total += item.UnitPriceMinor * int64(item.Quantity)
	}
	return total
}

type CartItem struct {
	ID             uuid.UUID `json:"id" gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	CartID         uuid.UUID `json:"cart_id" gorm:"type:uuid;not null"`
	ProductID      uuid.UUID `json:"product_id" gorm:"type:uuid;not null"`
	SellerShopID   uuid.UUID `json:"seller_shop_id" gorm:"type:uuid;not null"`
	Quantity       int       `json:"quantity" gorm:"not null"`
	Currency       string    `json:"currency" gorm:"type:char(3);not null"`
	UnitPriceMinor int64     `json:"unit_price_minor" gorm:"not null"`
	PriceSource    string    `json:"price_source" gorm:"not null;default:'product_base'"`
	Metadata       JSONB     `json:"metadata" gorm:"type:jsonb"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`

	Product *Product `json:"product,omitempty" gorm:"foreignKey:ProductID"`
}

func (CartItem) TableName() string { return "payments.cart_items" }

type Checkout struct {
	ID                uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	CartID            uuid.UUID      `json:"cart_id" gorm:"type:uuid;not null"`
	BuyerUserID       uuid.UUID      `json:"buyer_user_id" gorm:"type:uuid;not null"`
	Context           string         `json:"context" gorm:"not null;default:'marketplace'"`
	Currency          string         `json:"currency" gorm:"type:char(3);not null"`
	Status            CheckoutStatus `json:"status" gorm:"default:'created'"`
	SubtotalMinor     int64          `json:"subtotal_minor"`
	ChargesTotalMinor int64          `json:"charges_total_minor"`
	TotalMinor        int64          `json:"total_minor"`
	IdempotencyKey    string         `json:"idempotency_key" gorm:"not null"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

func (Checkout) TableName() string { return "payments.checkouts" }

type Order struct {
	ID                 uuid.UUID `json:"id" gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	CheckoutID         uuid.UUID `json:"checkout_id" gorm:"type:uuid;not null"`
	SellerShopID       uuid.UUID `json:"seller_shop_id" gorm:"type:uuid;not null"`
	Currency           string    `json:"currency" gorm:"type:char(3);not null"`
	GrossSubtotalMinor int64     `json:"gross_subtotal_minor"`
	NetToSellerMinor   int64     `json:"net_to_seller_minor"`
	Status             string    `json:"status" gorm:"default:'pending_fulfillment'"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`

	Items []OrderItem `json:"items,omitempty" gorm:"foreignKey:OrderID"`
}

func (Order) TableName() string { return "payments.orders" }

type OrderItem struct {
	ID             uuid.UUID `json:"id" gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	OrderID        uuid.UUID `json:"order_id" gorm:"type:uuid;not null"`
	ProductID      uuid.UUID `json:"product_id" gorm:"type:uuid;not null"`
	Quantity       int       `json:"quantity"`
	Currency       string    `json:"currency" gorm:"type:char(3)"`
	UnitPriceMinor int64     `json:"unit_price_minor"`
	LineTotalMinor int64     `json:"line_total_minor"`
	Metadata       JSONB     `json:"metadata" gorm:"type:jsonb"`
	CreatedAt      time.Time `json:"created_at"`
}

func (OrderItem) TableName() string { return "payments.order_items" }

type PaymentIntent struct {
	ID               uuid.UUID `json:"id" gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	CheckoutID       uuid.UUID `json:"checkout_id" gorm:"type:uuid;not null"`
	ProviderID       uuid.UUID `json:"provider_id" gorm:"type:uuid;not null"`
	Currency         string    `json:"currency" gorm:"type:char(3)"`
	AmountMinor      int64     `json:"amount_minor"`
	Status           string    `json:"status" gorm:"default:'requires_payment_method'"`
	ExternalIntentID *string   `json:"external_intent_id"`
	ProviderData     JSONB     `json:"provider_data" gorm:"type:jsonb"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func (PaymentIntent) TableName() string { return "payments.payment_intents" }

type Payout struct {
	ID               uuid.UUID `json:"id" gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	ShopID           uuid.UUID `json:"shop_id" gorm:"type:uuid;not null"`
	Currency         string    `json:"currency" gorm:"type:char(3)"`
	AmountMinor      int64     `json:"amount_minor"`
	Status           string    `json:"status" gorm:"default:'requested'"`
	ExternalPayoutID *string   `json:"external_payout_id"`
	Destination      JSONB     `json:"destination" gorm:"type:jsonb"`
	IdempotencyKey   string    `json:"idempotency_key"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func (Payout) TableName() string { return "payments.payouts" }

type LedgerOwnerType string

const (
	LedgerOwnerPlatform LedgerOwnerType = "platform"
	LedgerOwnerShop     LedgerOwnerType = "shop"
)

type LedgerAccountType string

const (
	LedgerAccountClearing        LedgerAccountType = "clearing"
	LedgerAccountRevenue         LedgerAccountType = "revenue"
	LedgerAccountPending         LedgerAccountType = "pending"
	LedgerAccountAvailable       LedgerAccountType = "available"
	LedgerAccountPayoutInTransit LedgerAccountType = "payout_in_transit"
)

type LedgerAccount struct {
	ID          uuid.UUID         `json:"id" gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	OwnerType   LedgerOwnerType   `json:"owner_type"`
	OwnerID     *uuid.UUID        `json:"owner_id" gorm:"type:uuid"`
	Currency    string            `json:"currency" gorm:"type:char(3)"`
	AccountType LedgerAccountType `json:"account_type"`
	CreatedAt   time.Time         `json:"created_at"`
}

func (LedgerAccount) TableName() string { return "ledger.accounts" }

type LedgerTransaction struct {
	ID             uuid.UUID `json:"id" gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	ReferenceType  string    `json:"reference_type"`
	ReferenceID    uuid.UUID `json:"reference_id" gorm:"type:uuid"`
	Currency       string    `json:"currency" gorm:"type:char(3)"`
	Description    string    `json:"description"`
	IdempotencyKey string    `json:"idempotency_key"`
	CreatedAt      time.Time `json:"created_at"`

	Entries []LedgerEntry `json:"entries,omitempty" gorm:"foreignKey:TransactionID"`
}

func (LedgerTransaction) TableName() string { return "ledger.transactions" }

type LedgerEntry struct {
	ID            uuid.UUID `json:"id" gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	TransactionID uuid.UUID `json:"transaction_id" gorm:"type:uuid;not null"`
	AccountID     uuid.UUID `json:"account_id" gorm:"type:uuid;not null"`
	AmountMinor   int64     `json:"amount_minor" gorm:"not null"`
	Metadata      JSONB     `json:"metadata" gorm:"type:jsonb"`
	CreatedAt     time.Time `json:"created_at"`
}

func (LedgerEntry) TableName() string { return "ledger.entries" }
