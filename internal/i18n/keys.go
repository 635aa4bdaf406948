// internal/i18n/keys.go
package i18n

// Translation keys constants
const (
	KeyInternalError = "error.internal"
	KeyAccessDenied  = "error.access_denied"
	KeyRateLimited   = "error.rate_limited"

	// Authentication
	KeyAuthRequired           = "auth.required"
	KeyAuthInvalidToken       = "auth.invalid_token"
	KeyAuthTokenExpired       = "auth.token_expired"
	KeyAuthInvalidCredentials = "auth.invalid_credentials"
	KeyAuthUserExists         = "auth.user_exists"
	KeyAuthEmailNotVerified   = "auth.email_not_verified"
	KeyAuthAccountBanned      = "auth.account_banned"
	KeyAuthLogoutSuccess      = "auth.logout_success"
	KeyAuthRegisterSuccess    = "auth.register_success"
	KeyAuthPasswordReset      = "auth.password_reset"
	KeyAuthPasswordResetSent  = "auth.password_reset_sent"
	KeyAuthVerified           = "auth.email_verified"
	KeyAuthAlreadyVerified    = "auth.already_verified"
	KeyAuthVerificationSent   = "auth.verification_sent"
	KeyAuthInvalidVerifyToken = "auth.invalid_verification_token"
	KeyAuthOTPSent            = "auth.otp_sent"
	KeyAuthOTPInvalid         = "auth.otp_invalid"

	KeyUserNotFound = "user.not_found"

	// Shops
	KeyShopCreated       = "shop.created"
	KeyShopUpdated       = "shop.updated"
	KeyShopPublished     = "shop.published"
	KeyShopExists        = "shop.exists"
	KeyShopSlugTaken     = "shop.slug_taken"
	KeyShopApprovedTitle = "shop.approved_title"
	KeyShopApprovedMsg   = "shop.approved_message"
	KeyShopRejectedTitle = "shop.rejected_title"
	KeyShopRejectedMsg   = "shop.rejected_message"

	// Products
	KeyProductCreated     = "product.created"
	KeyProductUpdated     = "product.updated"
	KeyProductArchived    = "product.archived"
	KeyProductSubmitted   = "product.submitted"
	KeyProductNotEditable = "product.not_editable"

	// Moderation
	KeyModerationInvalidAction = "moderation.invalid_action"
	KeyModerationNotPending    = "moderation.not_pending"
	KeyModerationApprovedTitle = "moderation.approved_title"
	KeyModerationApprovedMsg   = "moderation.approved_message"
	KeyModerationEditedTitle   = "moderation.approved_with_edits_title"
	KeyModerationEditedMsg     = "moderation.approved_with_edits_message"
	KeyModerationChangesTitle  = "moderation.changes_requested_title"
	KeyModerationChangesMsg    = "moderation.changes_requested_message"
	KeyModerationRejectedTitle = "moderation.rejected_title"
	KeyModerationRejectedMsg   = "moderation.rejected_message"

	// Tasks and progress
	KeyTaskCompleted           = "task.completed"
	KeyTaskArchived            = "task.archived"
	KeyMilestoneCompletedTitle = "milestone.completed_title"
	KeyMilestoneCompletedMsg   = "milestone.completed_message"
	KeyMilestoneUnlockedTitle  = "milestone.unlocked_title"
	KeyMilestoneUnlockedMsg    = "milestone.unlocked_message"
	KeyAchievementTitle        = "achievement.unlocked_title"
	KeyLevelUpTitle            = "level.up_title"
	KeyLevelUpMsg              = "level.up_message"

	// Bank data
	KeyBankDataExists     = "bank.exists"
	KeyBankDataIncomplete = "bank.incomplete"
	KeyBankDataCreated    = "bank.created"
	KeyBankUnavailable    = "bank.unavailable"

	// Payments
	KeyCartEmpty           = "cart.empty"
	KeyCartItemUnavailable = "cart.item_unavailable"
	KeyPaymentUnavailable  = "payment.unavailable"
	KeyWebhookInvalid      = "payment.webhook_invalid"

	// Validation
	KeyValidationInvalid = "validation.invalid"

	// File Upload
	KeyFileUploadFailed = "file.upload_failed"
	KeyFileInvalidType  = "file.invalid_type"
	KeyFileTooLarge     = "file.too_large"

	KeyAIUnavailable = "ai.unavailable"

	KeyNotificationRead = "notification.read"

	KeyRoleGranted = "admin.role_granted"
	KeyRoleRevoked = "admin.role_revoked"
)
