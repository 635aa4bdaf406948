package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/javajoker/artisans-backend/internal/i18n"
	"github.com/javajoker/artisans-backend/internal/services"
	"github.com/javajoker/artisans-backend/internal/utils"
)

type UploadHandler struct {
	storageService *services.StorageService
}

func NewUploadHandler(storageService *services.StorageService) *UploadHandler {
	return &UploadHandler{storageService: storageService}
}

// POST /uploads?category=shops
func (h *UploadHandler) Upload(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	if _, ok := currentUser(c); !ok {
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyFileUploadFailed), err.Error())
		return
	}
	defer file.Close()

	category := c.DefaultQuery("category", "general")
	result, err := h.storageService.UploadFile(c.Request.Context(), file, header, h.storageService.GetDefaultUploadOptions(category))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.CreatedResponse(c, result)
}
