// internal/events/names.go
package events

const (
	BrandWizardCompleted   = "brand.wizard.completed"
	ProductWizardCompleted = "product.wizard.completed"
	InventoryUpdated       = "inventory.updated"
	MasterContextUpdated   = "master.context.updated"
	TaskUpdated            = "task.updated"
	TaskCompleted          = "task.completed"
	TasksGenerated         = "tasks.generated"
	LegalNITCompleted      = "legal.nit.completed"
	ShopCreated            = "shop.created"
	ShopPublished          = "shop.published"
	ProductModerated       = "product.moderated"
	MilestoneCompleted     = "milestone.completed"
	MilestoneUnlocked      = "milestone.unlocked"
	MilestoneAlmostDone    = "milestone.almost.complete"
	ProgressUpdated        = "progress.updated"
	AchievementUnlocked    = "achievement.unlocked"
	LevelUp                = "level.up"
	BankDataCompleted      = "bank.data.completed"
	CheckoutPaid           = "checkout.paid"
)

// ProgressTriggers are the events after which unified progress is recomputed.
var ProgressTriggers = []string{
	BrandWizardCompleted,
	ProductWizardCompleted,
	InventoryUpdated,
	MasterContextUpdated,
	TaskUpdated,
	LegalNITCompleted,
	ShopCreated,
	BankDataCompleted,
}
