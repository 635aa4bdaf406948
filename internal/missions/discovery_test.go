package missions

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javajoker/artisans-backend/internal/models"
)

func loadCatalog(t *testing.T) *Catalog {
	t.Helper()
	c, err := Load()
	require.NoError(t, err)
	return c
}

func ids(ss []Suggestion) []string {
	var out []string
	for _, s := range ss {
		out = append(out, s.ID)
	}
	return out
}

func TestLoadCatalog(t *testing.T) {
	c := loadCatalog(t)
	assert.Len(t, c.Missions, 18)

	m, ok := c.Get("maturity_block_4")
	require.True(t, ok)
	assert.Equal(t, []string{"maturity_block_3"}, m.Requirements.MustComplete)
	assert.Equal(t, 13, m.Priority)

	ten, _ := c.Get("ten_products")
	require.NotNil(t, ten.Requirements.MustHave.Products)
	assert.Equal(t, 5, ten.Requirements.MustHave.Products.Min)
	assert.Equal(t, models.MilestoneShop, ten.Milestone)
}

func TestCatalogActionsParse(t *testing.T) {
	c := loadCatalog(t)

	rut, ok := c.Get("complete_rut")
	require.True(t, ok)
	assert.Equal(t, Action{Type: "modal", Destination: "/profile?modal=rut"}, rut.Action)

	for _, m := range c.Missions {
		assert.NotEmpty(t, m.Action.Type, m.ID)
		assert.True(t, strings.HasPrefix(m.Action.Destination, "/"), m.ID)
	}
}

func TestParseRejectsBrokenCatalogs(t *testing.T) {
	_, err := Parse([]byte("- id: a\n- id: a\n"))
	assert.ErrorContains(t, err, "duplicate")

	_, err = Parse([]byte("- id: a\n  requirements: {must_complete: [b]}\n"))
	assert.ErrorContains(t, err, "unknown mission")
}

func TestPriorityClass(t *testing.T) {
	assert.Equal(t, PriorityHigh, PriorityClass(1))
	assert.Equal(t, PriorityHigh, PriorityClass(3))
	assert.Equal(t, PriorityMedium, PriorityClass(4))
	assert.Equal(t, PriorityMedium, PriorityClass(6))
	assert.Equal(t, PriorityLow, PriorityClass(7))
}

func TestDiscoverNewUser(t *testing.T) {
	got := loadCatalog(t).Discover(UserState{}, nil)

	want := []string{"complete_rut", "complete_bank_data", "maturity_block_1", "create_shop", "create_brand"}
	if diff := cmp.Diff(want, ids(got)); diff != "" {
		t.Errorf("suggestions mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, PriorityHigh, got[0].Priority)
	assert.Equal(t, "Formaliza tu negocio para acceder a más oportunidades", got[0].Reason)
	assert.Equal(t, defaultReason, got[1].Reason)
}

func TestDiscoverShopWithOneProduct(t *testing.T) {
	s := UserState{HasShop: true, ProductCount: 1}
	got := loadCatalog(t).Discover(s, AutoCompleted(s))

	want := []string{"complete_rut", "complete_bank_data", "five_products", "create_artisan_profile", "dynamic_more_products"}
	if diff := cmp.Diff(want, ids(got)); diff != "" {
		t.Errorf("suggestions mismatch (-want +got):\n%s", diff)
	}
	assert.True(t, got[4].Dynamic)
	assert.Equal(t, models.RelevanceMedium, got[4].Relevance())
}

func TestDiscoverDynamicHeroAndStory(t *testing.T) {
	s := UserState{HasShop: true, ProductCount: 6, HasRUT: true, HasBankData: true}
	got := loadCatalog(t).Discover(s, AutoCompleted(s))

	require.GreaterOrEqual(t, len(got), 2)
	assert.Contains(t, ids(got), "dynamic_hero")
	assert.Contains(t, ids(got), "dynamic_story")
	assert.NotContains(t, ids(got), "dynamic_more_products")
	for _, sg := range got {
		assert.NotEqual(t, "five_products", sg.ID)
	}
}

func TestMustHaveProductsBlocksMission(t *testing.T) {
	c := loadCatalog(t)
	five, _ := c.Get("five_products")
	completed := map[string]bool{"first_product": true}

	assert.False(t, Available(five, UserState{ProductCount: 0}, completed))
	assert.True(t, Available(five, UserState{ProductCount: 1}, completed))
	assert.False(t, Available(five, UserState{ProductCount: 1}, map[string]bool{"first_product": true, "five_products": true}))
}

func TestMaturityBlocksAreChained(t *testing.T) {
	s := UserState{MaturityAnswered: 12}
	done := AutoCompleted(s)
	assert.Equal(t, []string{"maturity_block_1", "maturity_block_2"}, done)

	got := loadCatalog(t).Discover(s, done)
	assert.Contains(t, ids(got), "maturity_block_3")
	assert.NotContains(t, ids(got), "maturity_block_4")
}

func TestAutoCompletedCapsMaturityBlocks(t *testing.T) {
	done := AutoCompleted(UserState{MaturityAnswered: 60})
	assert.Len(t, done, 6)
	assert.Equal(t, "maturity_block_6", done[5])
}

func TestBrandNeedsScoreThreshold(t *testing.T) {
	assert.False(t, UserState{BrandScore: 79}.HasBrand())
	assert.True(t, UserState{BrandScore: 80}.HasBrand())
	assert.Contains(t, AutoCompleted(UserState{BrandScore: 85}), "review_brand")
}
