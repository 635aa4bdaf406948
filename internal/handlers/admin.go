// internal/handlers/admin.go
package handlers

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/javajoker/artisans-backend/internal/i18n"
	"github.com/javajoker/artisans-backend/internal/models"
	"github.com/javajoker/artisans-backend/internal/services"
	"github.com/javajoker/artisans-backend/internal/utils"
)

type AdminHandler struct {
	adminService *services.AdminService
}

func NewAdminHandler(adminService *services.AdminService) *AdminHandler {
	return &AdminHandler{
		adminService: adminService,
	}
}

// GET /admin/dashboard/stats
func (h *AdminHandler) GetDashboardStats(c *gin.Context) {
	stats, err := h.adminService.GetDashboardStats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"stats": stats,
	})
}

// GET /admin/users
func (h *AdminHandler) GetUsers(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	filter := services.AdminUserFilter{
		PaginationParams: params,
	}

	if role := c.Query("role"); role != "" {
		r := models.Role(role)
		filter.Role = &r
	}

	if anonymous, err := strconv.ParseBool(c.Query("anonymous")); err == nil {
		filter.Anonymous = &anonymous
	}

	if createdAfter := c.Query("created_after"); createdAfter != "" {
		if t, err := time.Parse("2006-01-02", createdAfter); err == nil {
			filter.CreatedAfter = &t
		}
	}

	if createdBefore := c.Query("created_before"); createdBefore != "" {
		if t, err := time.Parse("2006-01-02", createdBefore); err == nil {
			filter.CreatedBefore = &t
		}
	}

	users, total, err := h.adminService.GetUsers(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	result := utils.CreatePaginationResult(users, total, params)
	utils.PaginatedResponse(c, result)
}

// PUT /admin/users/:id/ban
func (h *AdminHandler) BanUser(c *gin.Context) {
	adminID, ok := currentUser(c)
	if !ok {
		return
	}
	userID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req struct {
		Until  *time.Time `json:"until,omitempty"`
		Reason string     `json:"reason,omitempty" validate:"max=1000"`
	}
	if !bind(c, &req) {
		return
	}

	if err := h.adminService.BanUser(c.Request.Context(), adminID, userID, req.Until, req.Reason); err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, gin.H{"user_id": userID, "banned_until": req.Until})
}

type roleRequest struct {
	Role models.Role `json:"role" validate:"required,oneof=admin moderator shop_owner"`
}

// POST /admin/users/:id/roles
func (h *AdminHandler) GrantRole(c *gin.Context) {
	adminID, ok := currentUser(c)
	if !ok {
		return
	}
	userID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req roleRequest
	if !bind(c, &req) {
		return
	}

	if err := h.adminService.GrantRole(c.Request.Context(), adminID, userID, req.Role); err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(utils.GetLangFromContext(c), i18n.KeyRoleGranted),
	})
}

// DELETE /admin/users/:id/roles/:role
func (h *AdminHandler) RevokeRole(c *gin.Context) {
	adminID, ok := currentUser(c)
	if !ok {
		return
	}
	userID, ok := pathID(c, "id")
	if !ok {
		return
	}

	req := roleRequest{Role: models.Role(c.Param("role"))}
	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	if err := h.adminService.RevokeRole(c.Request.Context(), adminID, userID, req.Role); err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(utils.GetLangFromContext(c), i18n.KeyRoleRevoked),
	})
}

// GET /admin/roles/:role
func (h *AdminHandler) ListRole(c *gin.Context) {
	roles, err := h.adminService.ListRole(c.Request.Context(), models.Role(c.Param("role")))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, gin.H{"users": roles})
}

// GET /admin/settings
func (h *AdminHandler) GetSettings(c *gin.Context) {
	settings, err := h.adminService.GetSettings(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"settings": settings,
	})
}

// PUT /admin/settings
func (h *AdminHandler) UpdateSettings(c *gin.Context) {
	adminID, ok := currentUser(c)
	if !ok {
		return
	}

	var req struct {
		Settings []struct {
			Category string      `json:"category" validate:"required,max=50"`
			Key      string      `json:"key" validate:"required,max=100"`
			Value    interface{} `json:"value"`
			DataType string      `json:"data_type" validate:"required,oneof=string number boolean json"`
		} `json:"settings" validate:"required,min=1,dive"`
	}
	if !bind(c, &req) {
		return
	}

	for _, s := range req.Settings {
		if err := h.adminService.UpdateSetting(c.Request.Context(), adminID, s.Category, s.Key, s.Value, s.DataType); err != nil {
			respondError(c, err)
			return
		}
	}
	utils.SuccessResponse(c, gin.H{"updated": len(req.Settings)})
}

// GET /admin/audit-logs
func (h *AdminHandler) AuditLogs(c *gin.Context) {
	params := utils.GetPaginationParams(c)
	filter := services.AuditLogFilter{
		PaginationParams: params,
		Action:           c.Query("action"),
		ResourceType:     c.Query("resource_type"),
	}
	if id, err := uuid.Parse(c.Query("user_id")); err == nil {
		filter.UserID = &id
	}

	logs, total, err := h.adminService.AuditLogs(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.PaginatedResponse(c, utils.CreatePaginationResult(logs, total, params))
}
