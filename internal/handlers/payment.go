// internal/handlers/payment.go
package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/artisans-backend/internal/services"
	"github.com/javajoker/artisans-backend/internal/utils"
)

// Stripe keeps webhook payloads well under this.
const maxWebhookBytes = 65536

type PaymentHandler struct {
	paymentService *services.PaymentService
}

func NewPaymentHandler(paymentService *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
	}
}

// GET /cart
func (h *PaymentHandler) GetCart(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	cart, err := h.paymentService.GetCart(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, gin.H{"cart": cart, "subtotal_minor": cart.SubtotalMinor()})
}

// POST /cart/items
func (h *PaymentHandler) AddItem(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req services.AddCartItemRequest
	if !bind(c, &req) {
		return
	}

	cart, err := h.paymentService.AddItem(c.Request.Context(), userID, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, gin.H{"cart": cart, "subtotal_minor": cart.SubtotalMinor()})
}

// DELETE /cart/items/:id
func (h *PaymentHandler) RemoveItem(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	itemID, ok := pathID(c, "id")
	if !ok {
		return
	}

	cart, err := h.paymentService.RemoveItem(c.Request.Context(), userID, itemID)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, gin.H{"cart": cart, "subtotal_minor": cart.SubtotalMinor()})
}

// POST /checkout
func (h *PaymentHandler) Checkout(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req services.CheckoutRequest
	if c.Request.ContentLength > 0 && !bind(c, &req) {
		return
	}
	if req.IdempotencyKey == "" {
		req.IdempotencyKey = c.GetHeader("Idempotency-Key")
	}

	resp, err := h.paymentService.Checkout(c.Request.Context(), userID, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.CreatedResponse(c, resp)
}

// GET /checkout/:id
func (h *PaymentHandler) GetCheckout(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	checkout, err := h.paymentService.GetCheckout(c.Request.Context(), userID, id)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, gin.H{"checkout": checkout})
}

// POST /webhooks/stripe
func (h *PaymentHandler) StripeWebhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBytes))
	if err != nil {
		c.Status(http.StatusServiceUnavailable)
		return
	}

	if err := h.paymentService.HandleWebhook(c.Request.Context(), payload, c.GetHeader("Stripe-Signature")); err != nil {
		logrus.WithError(err).Warn("Stripe webhook rejected")
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}
