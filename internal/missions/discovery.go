package missions

import (
	_ "embed"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/javajoker/artisans-backend/internal/models"
)

//go:embed catalog.yaml
var catalogYAML []byte

const (
	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"

	// MaxSuggestions is how many missions Discover returns.
	MaxSuggestions = 5

	// BrandScoreThreshold is the diagnosis score from which a brand counts as defined.
	BrandScoreThreshold = 80

	defaultReason = "Paso fundamental en tu camino artesanal"
)

type Action struct {
	Type        string `yaml:"type" json:"type"`
	Destination string `yaml:"destination" json:"destination"`
}

type ProductRequirement struct {
	Min int `yaml:"min" json:"min"`
}

type MustHave struct {
	Shop     bool                `yaml:"shop" json:"shop,omitempty"`
	Brand    bool                `yaml:"brand" json:"brand,omitempty"`
	Products *ProductRequirement `yaml:"products" json:"products,omitempty"`
}

type Requirements struct {
	MustComplete []string `yaml:"must_complete" json:"mustComplete,omitempty"`
	MustHave     MustHave `yaml:"must_have" json:"mustHave"`
}

// Mission is one entry of the fixed catalog.
type Mission struct {
	ID               string                   `yaml:"id" json:"id"`
	Title            string                   `yaml:"title" json:"title"`
	Description      string                   `yaml:"description" json:"description"`
	Action           Action                   `yaml:"action" json:"action"`
	Requirements     Requirements             `yaml:"requirements" json:"requirements"`
	Milestone        models.MilestoneCategory `yaml:"milestone" json:"milestone"`
	Priority         int                      `yaml:"priority" json:"priority"`
	Icon             string                   `yaml:"icon" json:"icon"`
	EstimatedMinutes int                      `yaml:"estimated_minutes" json:"estimatedMinutes"`
	Deliverable      string                   `yaml:"deliverable" json:"deliverable"`
	Reason           string                   `yaml:"reason" json:"-"`
}

type Catalog struct {
	Missions []Mission
	byID     map[string]int
}

// Load parses the embedded catalog.
func Load() (*Catalog, error) {
	return Parse(catalogYAML)
}

// Parse builds a catalog from YAML, rejecting duplicate ids and requirements
// on unknown missions.
func Parse(data []byte) (*Catalog, error) {
	var missions []Mission
	if err := yaml.Unmarshal(data, &missions); err != nil {
		return nil, fmt.Errorf("failed to parse mission catalog: %w", err)
	}

	c := &Catalog{Missions: missions, byID: make(map[string]int, len(missions))}
	for i, m := range missions {
		if m.ID == "" {
			return nil, fmt.Errorf("mission %d has no id", i)
		}
		if _, dup := c.byID[m.ID]; dup {
			return nil, fmt.Errorf("duplicate mission id %q", m.ID)
		}
		c.byID[m.ID] = i
	}
	for _, m := range missions {
		for _, dep := range m.Requirements.MustComplete {
			if _, ok := c.byID[dep]; !ok {
				return nil, fmt.Errorf("mission %q requires unknown mission %q", m.ID, dep)
			}
		}
	}
	return c, nil
}

func (c *Catalog) Get(id string) (Mission, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Mission{}, false
	}
	return c.Missions[i], true
}

// UserState is what discovery knows about the artisan.
type UserState struct {
	HasShop          bool
	BrandScore       int
	ProductCount     int
	HasRUT           bool
	HasBankData      bool
	HasHeroSlider    bool
	HasStory         bool
	HasContactInfo   bool
	HasSocialLinks   bool
	HasBrandIdentity bool
	ArtisanProfile   bool
	// MaturityAnswered is the number of maturity questions answered.
	MaturityAnswered int
}

func (s UserState) HasBrand() bool {
	return s.BrandScore >= BrandScoreThreshold
}

// Suggestion is a mission proposed to the user.
type Suggestion struct {
	ID               string                   `json:"id"`
	Title            string                   `json:"title"`
	Description      string                   `json:"description"`
	Reason           string                   `json:"reason"`
	Priority         string                   `json:"priority"`
	Category         models.MilestoneCategory `json:"category"`
	EstimatedMinutes int                      `json:"estimatedMinutes"`
	Action           Action                   `json:"action"`
	Dynamic          bool                     `json:"dynamic"`
	Deliverable      string                   `json:"deliverable,omitempty"`
}

// Relevance maps the suggestion priority class to the task relevance column.
func (s Suggestion) Relevance() models.TaskRelevance {
	switch s.Priority {
	case PriorityHigh:
		return models.RelevanceHigh
	case PriorityMedium:
		return models.RelevanceMedium
	default:
		return models.RelevanceLow
	}
}

// PriorityClass buckets a catalog priority.
func PriorityClass(p int) string {
	switch {
	case p <= 3:
		return PriorityHigh
	case p <= 6:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

// AutoCompleted derives the catalog missions already satisfied by the
// user's data, independent of any task rows.
func AutoCompleted(s UserState) []string {
	var out []string
	add := func(cond bool, id string) {
		if cond {
			out = append(out, id)
		}
	}

	add(s.HasRUT, "complete_rut")
	add(s.HasBankData, "complete_bank_data")
	add(s.HasShop, "create_shop")
	add(s.HasShop && s.ProductCount >= 1, "first_product")
	add(s.HasShop && s.ProductCount >= 5, "five_products")
	add(s.HasShop && s.ProductCount >= 10, "ten_products")
	add(s.HasShop && s.ArtisanProfile, "create_artisan_profile")
	add(s.HasShop && s.HasContactInfo, "add_contact")
	add(s.HasShop && s.HasHeroSlider, "customize_shop")
	add(s.HasShop && s.HasSocialLinks, "add_social_links")
	add(s.HasBrandIdentity, "create_brand")
	add(s.HasBrand(), "review_brand")

	blocks := s.MaturityAnswered / 5
	if blocks > 6 {
		blocks = 6
	}
	for i := 1; i <= blocks; i++ {
		out = append(out, fmt.Sprintf("maturity_block_%d", i))
	}
	return out
}

// Available reports whether a mission can be suggested.
func Available(m Mission, s UserState, completed map[string]bool) bool {
	if completed[m.ID] {
		return false
	}
	for _, dep := range m.Requirements.MustComplete {
		if !completed[dep] {
			return false
		}
	}
	must := m.Requirements.MustHave
	if must.Shop && !s.HasShop {
		return false
	}
	if must.Brand && !s.HasBrand() {
		return false
	}
	if must.Products != nil && s.ProductCount < must.Products.Min {
		return false
	}
	return true
}

// Discover returns up to MaxSuggestions missions: the available catalog
// missions plus the dynamic ones, ordered by priority class. Catalog order
// is kept inside a class.
func (c *Catalog) Discover(s UserState, completedIDs []string) []Suggestion {
	completed := make(map[string]bool, len(completedIDs))
	for _, id := range completedIDs {
		completed[id] = true
	}

	var out []Suggestion
	for _, m := range c.Missions {
		if !Available(m, s, completed) {
			continue
		}
		reason := m.Reason
		if reason == "" {
			reason = defaultReason
		}
		out = append(out, Suggestion{
			ID:               m.ID,
			Title:            m.Title,
			Description:      m.Description,
			Reason:           reason,
			Priority:         PriorityClass(m.Priority),
			Category:         m.Milestone,
			EstimatedMinutes: m.EstimatedMinutes,
			Action:           m.Action,
			Deliverable:      m.Deliverable,
		})
	}
	out = append(out, dynamic(s)...)

	rank := map[string]int{PriorityHigh: 0, PriorityMedium: 1, PriorityLow: 2}
	sort.SliceStable(out, func(i, j int) bool {
		return rank[out[i].Priority] < rank[out[j].Priority]
	})

	if len(out) > MaxSuggestions {
		out = out[:MaxSuggestions]
	}
	return out
}

func dynamic(s UserState) []Suggestion {
	var out []Suggestion

	if s.ProductCount >= 3 && !s.HasHeroSlider {
		out = append(out, Suggestion{
			ID:               "dynamic_hero",
			Title:            "Crea un hero slider impactante",
			Description:      "Destaca tus mejores productos en la portada de tu tienda",
			Reason:           "Destaca tus mejores productos",
			Priority:         PriorityHigh,
			Category:         models.MilestoneShop,
			EstimatedMinutes: 15,
			Action:           Action{Type: "wizard", Destination: "/dashboard/shop-hero-wizard"},
			Dynamic:          true,
		})
	}

	if s.ProductCount >= 5 && s.HasShop && !s.HasStory {
		out = append(out, Suggestion{
			ID:               "dynamic_story",
			Title:            "Cuenta tu historia artesanal",
			Description:      "Comparte el origen de tu oficio con tus clientes",
			Reason:           "Diferénciate con tu historia",
			Priority:         PriorityHigh,
			Category:         models.MilestoneBrand,
			EstimatedMinutes: 20,
			Action:           Action{Type: "wizard", Destination: "/dashboard/shop-about-wizard"},
			Dynamic:          true,
		})
	}

	if s.ProductCount >= 1 && s.ProductCount < 3 {
		out = append(out, Suggestion{
			ID:               "dynamic_more_products",
			Title:            "Agrega más productos",
			Description:      "Las tiendas con al menos 3 productos reciben más visitas",
			Reason:           "Amplía tu catálogo",
			Priority:         PriorityMedium,
			Category:         models.MilestoneShop,
			EstimatedMinutes: 20,
			Action:           Action{Type: "route", Destination: "/productos/subir"},
			Dynamic:          true,
		})
	}

	return out
}
