package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/javajoker/artisans-backend/internal/i18n"
	"github.com/javajoker/artisans-backend/internal/models"
	"github.com/javajoker/artisans-backend/internal/services"
	"github.com/javajoker/artisans-backend/internal/utils"
)

type ShopHandler struct {
	shopService    *services.ShopService
	productService *services.ProductService
}

func NewShopHandler(shopService *services.ShopService, productService *services.ProductService) *ShopHandler {
	return &ShopHandler{shopService: shopService, productService: productService}
}

// GET /shops
func (h *ShopHandler) ListShops(c *gin.Context) {
	params := utils.GetPaginationParams(c)
	filter := services.ShopFilter{
		PaginationParams: params,
		CraftType:        c.Query("craft_type"),
	}
	if featured, err := strconv.ParseBool(c.Query("featured")); err == nil {
		filter.Featured = &featured
	}

	shops, total, err := h.shopService.ListPublic(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.PaginatedResponse(c, utils.CreatePaginationResult(shops, total, params))
}

// GET /shops/:slug
func (h *ShopHandler) GetShop(c *gin.Context) {
	shop, err := h.shopService.GetBySlug(c.Request.Context(), c.Param("slug"), viewerID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, gin.H{"shop": shop})
}

// GET /shops/:slug/products
func (h *ShopHandler) GetShopProducts(c *gin.Context) {
	shop, err := h.shopService.GetBySlug(c.Request.Context(), c.Param("slug"), viewerID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	params := utils.GetPaginationParams(c)
	products, total, err := h.productService.SearchProducts(c.Request.Context(), services.ProductSearchParams{
		PaginationParams: params,
		ShopID:           &shop.ID,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	utils.PaginatedResponse(c, utils.CreatePaginationResult(products, total, params))
}

// POST /shops
func (h *ShopHandler) CreateShop(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req services.CreateShopRequest
	if !bind(c, &req) {
		return
	}

	shop, err := h.shopService.Create(c.Request.Context(), userID, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.CreatedResponse(c, gin.H{
		"message": i18n.T(utils.GetLangFromContext(c), i18n.KeyShopCreated),
		"shop":    shop,
	})
}

// GET /shops/me
func (h *ShopHandler) GetMyShop(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	shop, err := h.shopService.GetByUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	count, err := h.productService.CountByShop(c.Request.Context(), shop.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, gin.H{"shop": shop, "product_count": count})
}

// PUT /shops/me
func (h *ShopHandler) UpdateShop(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req services.UpdateShopRequest
	if !bind(c, &req) {
		return
	}

	shop, err := h.shopService.Update(c.Request.Context(), userID, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(utils.GetLangFromContext(c), i18n.KeyShopUpdated),
		"shop":    shop,
	})
}

// POST /shops/me/publish
func (h *ShopHandler) PublishShop(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	shop, err := h.shopService.Publish(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(utils.GetLangFromContext(c), i18n.KeyShopPublished),
		"shop":    shop,
	})
}

// GET /admin/shops
func (h *ShopHandler) ListForApproval(c *gin.Context) {
	params := utils.GetPaginationParams(c)
	shops, total, err := h.shopService.ListForApproval(c.Request.Context(), models.ApprovalStatus(params.Status), params)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.PaginatedResponse(c, utils.CreatePaginationResult(shops, total, params))
}

// PUT /admin/shops/:id/approve
func (h *ShopHandler) ApproveShop(c *gin.Context) {
	adminID, ok := currentUser(c)
	if !ok {
		return
	}
	shopID, ok := pathID(c, "id")
	if !ok {
		return
	}

	shop, err := h.shopService.Approve(c.Request.Context(), adminID, shopID)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, gin.H{"shop": shop})
}

// PUT /admin/shops/:id/reject
func (h *ShopHandler) RejectShop(c *gin.Context) {
	adminID, ok := currentUser(c)
	if !ok {
		return
	}
	shopID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req struct {
		Reason string `json:"reason" validate:"required,max=1000"`
	}
	if !bind(c, &req) {
		return
	}

	shop, err := h.shopService.Reject(c.Request.Context(), adminID, shopID, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, gin.H{"shop": shop})
}
