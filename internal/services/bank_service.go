package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/javajoker/artisans-backend/internal/clients/cobre"
	"github.com/javajoker/artisans-backend/internal/events"
	"github.com/javajoker/artisans-backend/internal/models"
)

var (
	ErrBankDataExists     = errors.New("bank data already registered for this shop")
	ErrBankDataIncomplete = errors.New("all bank data fields are required")
	ErrBankUnavailable    = errors.New("bank integration is not configured")
)

// Counterparties is the part of the Cobre client the service uses.
type Counterparties interface {
	Enabled() bool
	CreateCounterparty(ctx context.Context, data cobre.BankData) (string, error)
	GetBalance(ctx context.Context) (*cobre.Balance, error)
}

type BankStatus struct {
	ShopID          uuid.UUID             `json:"shop_id"`
	Status          models.BankDataStatus `json:"status"`
	HasCounterparty bool                  `json:"has_counterparty"`
}

type BankService struct {
	db    *gorm.DB
	cobre Counterparties
	bus   events.Publisher
}

func NewBankService(db *gorm.DB, client Counterparties, bus events.Publisher) *BankService {
	return &BankService{db: db, cobre: client, bus: bus}
}

func (s *BankService) Status(ctx context.Context, userID uuid.UUID) (*BankStatus, error) {
	shop, err := s.shopFor(ctx, "user_id = ?", userID)
	if err != nil {
		return nil, err
	}
	return &BankStatus{ShopID: shop.ID, Status: shop.BankDataStatus, HasCounterparty: shop.HasCounterparty()}, nil
}

// Register creates the owner's payout counterparty.
func (s *BankService) Register(ctx context.Context, userID uuid.UUID, data cobre.BankData) (*BankStatus, error) {
	shop, err := s.shopFor(ctx, "user_id = ?", userID)
	if err != nil {
		return nil, err
	}
	return s.register(ctx, shop, data, userID)
}

// RegisterForShop lets an admin create the counterparty on an artisan's behalf.
func (s *BankService) RegisterForShop(ctx context.Context, adminID, shopID uuid.UUID, data cobre.BankData) (*BankStatus, error) {
	shop, err := s.shopFor(ctx, "id = ?", shopID)
	if err != nil {
		return nil, err
	}
	return s.register(ctx, shop, data, adminID)
}

func (s *BankService) register(ctx context.Context, shop *models.ArtisanShop, data cobre.BankData, actorID uuid.UUID) (*BankStatus, error) {
	if shop.HasCounterparty() {
		return nil, ErrBankDataExists
	}
	if !data.Complete() {
		return nil, ErrBankDataIncomplete
	}
	if s.cobre == nil || !s.cobre.Enabled() {
		return nil, ErrBankUnavailable
	}

	counterpartyID, err := s.cobre.CreateCounterparty(ctx, data)
	if err != nil {
		logrus.WithError(err).WithField("shop_id", shop.ID).Error("Failed to create Cobre counterparty")
		return nil, fmt.Errorf("failed to register bank data: %w", err)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.ArtisanShop{}).
			Where("id = ? AND (id_contraparty IS NULL OR id_contraparty = '')", shop.ID).
			Updates(map[string]interface{}{
				"id_contraparty":   counterpartyID,
				"bank_data_status": models.BankDataStatusApproved,
			})
		if res.Error != nil {
			return fmt.Errorf("failed to store counterparty: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrBankDataExists
		}
		return writeAudit(tx, actorID, "BANK_DATA_REGISTERED", "artisan_shop", &shop.ID,
			map[string]interface{}{"bank_data_status": shop.BankDataStatus},
			map[string]interface{}{"bank_data_status": models.BankDataStatusApproved, "bank_code": data.BankCode, "account_type": data.AccountType})
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{"shop_id": shop.ID, "actor_id": actorID}).Info("Bank data registered")
	s.bus.Publish(ctx, events.Event{
		Name:    events.BankDataCompleted,
		UserID:  shop.UserID,
		Payload: map[string]interface{}{"shopId": shop.ID.String()},
	})
	return &BankStatus{ShopID: shop.ID, Status: models.BankDataStatusApproved, HasCounterparty: true}, nil
}

// PlatformBalance reads the platform's Cobre account.
func (s *BankService) PlatformBalance(ctx context.Context) (*cobre.Balance, error) {
	if s.cobre == nil || !s.cobre.Enabled() {
		return nil, ErrBankUnavailable
	}
	return s.cobre.GetBalance(ctx)
}

func (s *BankService) shopFor(ctx context.Context, where string, arg uuid.UUID) (*models.ArtisanShop, error) {
	var shop models.ArtisanShop
	if err := s.db.WithContext(ctx).Where(where, arg).First(&shop).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrShopNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &shop, nil
}
