// internal/handlers/user.go
package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/javajoker/artisans-backend/internal/i18n"
	"github.com/javajoker/artisans-backend/internal/services"
	"github.com/javajoker/artisans-backend/internal/utils"
)

type UserHandler struct {
	userService *services.UserService
}

func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

// PUT /users/profile
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req services.UpdateUserProfileRequest
	if !bind(c, &req) {
		return
	}

	user, err := h.userService.UpdateProfile(c.Request.Context(), userID, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, gin.H{"user": user})
}

// POST /users/avatar
func (h *UserHandler) UploadAvatar(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	file, header, err := c.Request.FormFile("avatar")
	if err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyFileUploadFailed), err.Error())
		return
	}
	defer file.Close()

	user, err := h.userService.UploadAvatar(c.Request.Context(), userID, file, header)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, gin.H{"user": user})
}

// DELETE /users/account
func (h *UserHandler) DeleteAccount(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req struct {
		Password string `json:"password"`
	}
	_ = c.ShouldBindJSON(&req)

	if err := h.userService.DeleteAccount(c.Request.Context(), userID, req.Password); err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) || errors.Is(err, services.ErrUserNotFound) {
			respondError(c, err)
			return
		}
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}
	utils.SuccessResponse(c, gin.H{"deleted": true})
}

// GET /users/master-context
func (h *UserHandler) GetMasterContext(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	mc, err := h.userService.GetMasterContext(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, mc)
}

// PUT /users/master-context
func (h *UserHandler) UpdateMasterContext(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req services.UpdateMasterContextRequest
	if !bind(c, &req) {
		return
	}

	mc, err := h.userService.UpdateMasterContext(c.Request.Context(), userID, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, mc)
}

// POST /users/maturity
func (h *UserHandler) SaveMaturity(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req services.SaveMaturityRequest
	if !bind(c, &req) {
		return
	}

	score, err := h.userService.SaveMaturityScores(c.Request.Context(), userID, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.CreatedResponse(c, score)
}

// GET /users/maturity
func (h *UserHandler) GetMaturity(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	score, err := h.userService.LatestMaturityScores(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, gin.H{"scores": score})
}
