// internal/progress/calculator.go
package progress

import "math"

type MilestoneStatus string

const (
	StatusLocked    MilestoneStatus = "locked"
	StatusActive    MilestoneStatus = "active"
	StatusCompleted MilestoneStatus = "completed"
)

// Weights of each milestone in the total progress.
var Weights = map[string]int{
	"formalization": 10,
	"brand":         20,
	"shop":          50,
	"sales":         70,
	"community":     90,
}

// MasterState is the subset of the user's business context the calculator reads.
type MasterState struct {
	NIT            string `json:"nit"`
	NITPending     bool   `json:"nit_pendiente"`
	BrandLogo      string `json:"brand_logo"`
	BrandColors    int    `json:"brand_colors"`
	BrandScore     int    `json:"brand_score"`
	HasShop        bool   `json:"has_shop"`
	ProductCount   int    `json:"product_count"`
	HasHeroSlider  bool   `json:"has_hero_slider"`
	HasStory       bool   `json:"has_story"`
	HasContactInfo bool   `json:"has_contact_info"`
	HasSocialLinks bool   `json:"has_social_links"`
}

type MaturityScores struct {
	IdeaValidation int `json:"ideaValidation"`
	UserExperience int `json:"userExperience"`
	MarketFit      int `json:"marketFit"`
	Monetization   int `json:"monetization"`
}

type Gamification struct {
	Level       int `json:"level"`
	XP          int `json:"xp"`
	NextLevelXP int `json:"nextLevelXP"`
}

// DefaultGamification is used when the user has no progress row yet.
func DefaultGamification() Gamification {
	return Gamification{Level: 1, XP: 0, NextLevelXP: 100}
}

type Action struct {
	ID        string `json:"id"`
	Label     string `json:"label"`
	Completed bool   `json:"completed"`
	Route     string `json:"route"`
}

type Milestone struct {
	ID             string          `json:"id"`
	Label          string          `json:"label"`
	Progress       int             `json:"progress"`
	TasksCompleted int             `json:"tasksCompleted"`
	TotalTasks     int             `json:"totalTasks"`
	Status         MilestoneStatus `json:"status"`
	Actions        []Action        `json:"actions"`
	Threshold      int             `json:"threshold"`
}

func (m Milestone) TasksLeft() int {
	return m.TotalTasks - m.TasksCompleted
}

type Milestones struct {
	Formalization Milestone `json:"formalization"`
	Brand         Milestone `json:"brand"`
	Shop          Milestone `json:"shop"`
	Sales         Milestone `json:"sales"`
	Community     Milestone `json:"community"`
}

// All returns the milestones in path order.
func (m Milestones) All() []Milestone {
	return []Milestone{m.Formalization, m.Brand, m.Shop, m.Sales, m.Community}
}

type UnifiedProgress struct {
	TotalProgress  int            `json:"totalProgress"`
	Milestones     Milestones     `json:"milestones"`
	MaturityScores MaturityScores `json:"maturityScores"`
	Gamification   Gamification   `json:"gamification"`
	NextActions    []Action       `json:"nextActions"`
}

func Calculate(state MasterState, scores MaturityScores, gamification Gamification) UnifiedProgress {
	milestones := Milestones{
		Formalization: formalization(state),
		Brand:         brand(state),
		Shop:          shop(state),
		Sales:         sales(),
		Community:     community(state),
	}

	return UnifiedProgress{
		TotalProgress:  total(milestones),
		Milestones:     milestones,
		MaturityScores: scores,
		Gamification:   gamification,
		NextActions:    nextActions(milestones),
	}
}

func newMilestone(id, label string, actions []Action) Milestone {
	done := 0
	for _, a := range actions {
		if a.Completed {
			done++
		}
	}
	progress := 0
	if len(actions) > 0 {
		progress = int(math.Round(float64(done) / float64(len(actions)) * 100))
	}
	return Milestone{
		ID:             id,
		Label:          label,
		Progress:       progress,
		TasksCompleted: done,
		TotalTasks:     len(actions),
		Actions:        actions,
		Threshold:      Weights[id],
	}
}

func completedOrActive(progress int) MilestoneStatus {
	if progress == 100 {
		return StatusCompleted
	}
	return StatusActive
}

// Formalization is never locked, even when the RUT is done.
func formalization(s MasterState) Milestone {
	m := newMilestone("formalization", "Formalización", []Action{
		{ID: "rut_completed", Label: "RUT completado", Completed: s.NIT != "" && !s.NITPending, Route: "/profile?modal=rut"},
	})
	m.Status = StatusActive
	return m
}

func brand(s MasterState) Milestone {
	m := newMilestone("brand", "Identidad de Marca", []Action{
		{ID: "brand_identity", Label: "Identidad de marca definida", Completed: s.BrandLogo != "" && s.BrandColors > 0, Route: "/dashboard/brand-wizard"},
		{ID: "brand_reviewed", Label: "Diagnóstico de marca completado", Completed: s.BrandScore >= 60, Route: "/dashboard/brand-wizard?mode=diagnostic"},
	})
	m.Status = completedOrActive(m.Progress)
	return m
}

func shop(s MasterState) Milestone {
	has := s.HasShop
	m := newMilestone("shop", "Tienda Online", []Action{
		{ID: "shop_created", Label: "Tienda creada", Completed: has, Route: "/dashboard/create-shop"},
		{ID: "first_product", Label: "Primer producto subido", Completed: has && s.ProductCount >= 1, Route: "/productos/subir"},
		{ID: "five_products", Label: "5 productos subidos", Completed: has && s.ProductCount >= 5, Route: "/productos/subir"},
		{ID: "ten_products", Label: "10 productos subidos", Completed: has && s.ProductCount >= 10, Route: "/productos/subir"},
		{ID: "shop_story", Label: "Historia contada", Completed: has && s.HasStory, Route: "/dashboard/shop-about-wizard"},
		{ID: "contact_info", Label: "Información de contacto", Completed: has && s.HasContactInfo, Route: "/dashboard/shop-contact-wizard"},
		{ID: "hero_slider", Label: "Hero slider personalizado", Completed: has && s.HasHeroSlider, Route: "/dashboard/shop-hero-wizard"},
	})
	m.Status = completedOrActive(m.Progress)
	return m
}

// Sales has no actions yet and stays locked.
func sales() Milestone {
	m := newMilestone("sales", "Ventas", []Action{})
	m.Status = StatusLocked
	return m
}

func community(s MasterState) Milestone {
	m := newMilestone("community", "Comunidad", []Action{
		{ID: "social_links", Label: "Redes sociales agregadas", Completed: s.HasSocialLinks, Route: "/dashboard/social-links-wizard"},
	})
	if !s.HasShop {
		m.Status = StatusLocked
	} else {
		m.Status = completedOrActive(m.Progress)
	}
	return m
}

// total is the weighted average of the non-locked milestones.
func total(ms Milestones) int {
	var weighted, weights int
	for _, m := range ms.All() {
		if m.Status == StatusLocked {
			continue
		}
		weighted += m.Progress * Weights[m.ID]
		weights += Weights[m.ID]
	}
	if weights == 0 {
		return 0
	}
	return int(math.Round(float64(weighted) / float64(weights)))
}

func nextActions(ms Milestones) []Action {
	out := []Action{}
	for _, m := range ms.All() {
		if m.Status != StatusActive {
			continue
		}
		for _, a := range m.Actions {
			if !a.Completed {
				out = append(out, a)
				break
			}
		}
	}
	return out
}
