package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/artisans-backend/internal/i18n"
	"github.com/javajoker/artisans-backend/internal/services"
	"github.com/javajoker/artisans-backend/internal/utils"
)

// respondError maps service errors onto the API envelope. Anything it does
// not recognise goes through the safe database message.
func respondError(c *gin.Context, err error) {
	lang := utils.GetLangFromContext(c)

	var limited *services.RateLimitError
	switch {
	case errors.As(err, &limited):
		utils.TooManyRequestsResponse(c, limited.RetryAfterSeconds())

	case errors.Is(err, services.ErrUserNotFound):
		utils.NotFoundResponse(c, "user")
	case errors.Is(err, services.ErrShopNotFound):
		utils.NotFoundResponse(c, "shop")
	case errors.Is(err, services.ErrProductNotFound):
		utils.NotFoundResponse(c, "product")
	case errors.Is(err, services.ErrTaskNotFound):
		utils.NotFoundResponse(c, "task")
	case errors.Is(err, services.ErrNotificationNotFound):
		utils.NotFoundResponse(c, "notification")
	case errors.Is(err, services.ErrCartNotFound), errors.Is(err, services.ErrCartItemNotFound):
		utils.NotFoundResponse(c, "cart")
	case errors.Is(err, services.ErrCheckoutNotFound):
		utils.NotFoundResponse(c, "checkout")

	case errors.Is(err, services.ErrInvalidCredentials):
		utils.UnauthorizedResponse(c, i18n.T(lang, i18n.KeyAuthInvalidCredentials))
	case errors.Is(err, services.ErrEmailNotVerified):
		utils.ErrorResponse(c, http.StatusForbidden, "EMAIL_NOT_VERIFIED", i18n.T(lang, i18n.KeyAuthEmailNotVerified), nil)
	case errors.Is(err, services.ErrAccountBanned):
		utils.ForbiddenResponse(c, i18n.T(lang, i18n.KeyAuthAccountBanned))
	case errors.Is(err, services.ErrUserExists):
		utils.ConflictResponse(c, i18n.T(lang, i18n.KeyAuthUserExists))
	case errors.Is(err, services.ErrAlreadyVerified):
		utils.ErrorResponse(c, http.StatusBadRequest, "ALREADY_VERIFIED", i18n.T(lang, i18n.KeyAuthAlreadyVerified), nil)
	case errors.Is(err, services.ErrInvalidVerificationToken), errors.Is(err, services.ErrInvalidResetToken):
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyAuthInvalidVerifyToken), nil)
	case errors.Is(err, services.ErrInvalidOTP):
		utils.UnauthorizedResponse(c, i18n.T(lang, i18n.KeyAuthOTPInvalid))

	case errors.Is(err, services.ErrShopExists):
		utils.ConflictResponse(c, i18n.T(lang, i18n.KeyShopExists))
	case errors.Is(err, services.ErrProductNotEditable):
		utils.ErrorResponse(c, http.StatusConflict, "NOT_EDITABLE", i18n.T(lang, i18n.KeyProductNotEditable), nil)
	case errors.Is(err, services.ErrTooManyImages):
		utils.BadRequestResponse(c, err.Error(), nil)
	case errors.Is(err, services.ErrInvalidModerationAction), errors.Is(err, services.ErrInvalidEdit):
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyModerationInvalidAction), err.Error())
	case errors.Is(err, services.ErrNotModeratable):
		utils.ConflictResponse(c, i18n.T(lang, i18n.KeyModerationNotPending))
	case errors.Is(err, services.ErrTaskExists):
		utils.ConflictResponse(c, err.Error())
	case errors.Is(err, services.ErrTaskArchived):
		utils.ConflictResponse(c, err.Error())

	case errors.Is(err, services.ErrBankDataExists):
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyBankDataExists), nil)
	case errors.Is(err, services.ErrBankDataIncomplete):
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyBankDataIncomplete), nil)
	case errors.Is(err, services.ErrBankUnavailable):
		utils.ErrorResponse(c, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", i18n.T(lang, i18n.KeyBankUnavailable), nil)
	case errors.Is(err, services.ErrAIUnavailable):
		utils.ErrorResponse(c, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", i18n.T(lang, i18n.KeyAIUnavailable), nil)
	case errors.Is(err, services.ErrPaymentUnavailable):
		utils.ErrorResponse(c, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", i18n.T(lang, i18n.KeyPaymentUnavailable), nil)

	case errors.Is(err, services.ErrCartEmpty):
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyCartEmpty), nil)
	case errors.Is(err, services.ErrItemUnavailable):
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyCartItemUnavailable), nil)
	case errors.Is(err, services.ErrInvalidWebhook):
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyWebhookInvalid), nil)

	case errors.Is(err, services.ErrFileTooLarge):
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyFileTooLarge), nil)
	case errors.Is(err, services.ErrFileTypeInvalid):
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyFileInvalidType), nil)

	case errors.Is(err, services.ErrSelfDemotion), errors.Is(err, services.ErrBanAdmin):
		utils.ForbiddenResponse(c, err.Error())

	default:
		logrus.WithError(err).WithField("path", c.FullPath()).Error("Request failed")
		utils.DatabaseErrorResponse(c, err)
	}
}

// currentUser reads the authenticated user, answering 401 when absent.
func currentUser(c *gin.Context) (uuid.UUID, bool) {
	userID, ok := utils.GetUserIDFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
	}
	return userID, ok
}

func pathID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		utils.BadRequestResponse(c, i18n.T(utils.GetLangFromContext(c), i18n.KeyValidationInvalid, name), nil)
		return uuid.Nil, false
	}
	return id, true
}

// bind decodes and validates a JSON body.
func bind(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		utils.BadRequestResponse(c, i18n.T(utils.GetLangFromContext(c), i18n.KeyValidationInvalid, "input"), err.Error())
		return false
	}
	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return false
	}
	return true
}

// viewerID is the optional caller of a public endpoint.
func viewerID(c *gin.Context) *uuid.UUID {
	if id, ok := utils.GetUserIDFromContext(c); ok {
		return &id
	}
	return nil
}
