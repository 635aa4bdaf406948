package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/javajoker/artisans-backend/internal/clients/cobre"
	"github.com/javajoker/artisans-backend/internal/i18n"
	"github.com/javajoker/artisans-backend/internal/services"
	"github.com/javajoker/artisans-backend/internal/utils"
)

type BankHandler struct {
	bankService    *services.BankService
	paymentService *services.PaymentService
	shopService    *services.ShopService
}

func NewBankHandler(bankService *services.BankService, paymentService *services.PaymentService, shopService *services.ShopService) *BankHandler {
	return &BankHandler{bankService: bankService, paymentService: paymentService, shopService: shopService}
}

// GET /bank/status
func (h *BankHandler) Status(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	status, err := h.bankService.Status(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, status)
}

// POST /bank/counterparty
func (h *BankHandler) Register(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req cobre.BankData
	if !bind(c, &req) {
		return
	}

	status, err := h.bankService.Register(c.Request.Context(), userID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.CreatedResponse(c, gin.H{
		"message": i18n.T(utils.GetLangFromContext(c), i18n.KeyBankDataCreated),
		"status":  status,
	})
}

// GET /bank/balance
func (h *BankHandler) ShopBalance(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	shop, err := h.shopService.GetByUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	balance, err := h.paymentService.ShopBalance(c.Request.Context(), shop.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, balance)
}

// POST /admin/shops/:id/counterparty
func (h *BankHandler) RegisterForShop(c *gin.Context) {
	adminID, ok := currentUser(c)
	if !ok {
		return
	}
	shopID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req cobre.BankData
	if !bind(c, &req) {
		return
	}

	status, err := h.bankService.RegisterForShop(c.Request.Context(), adminID, shopID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.CreatedResponse(c, gin.H{"status": status})
}

// GET /admin/bank/balance
func (h *BankHandler) PlatformBalance(c *gin.Context) {
	balance, err := h.bankService.PlatformBalance(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, balance)
}
