package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONBScan(t *testing.T) {
	var j JSONB
	require.NoError(t, j.Scan([]byte(`{"email":"a@b.co"}`)))
	assert.Equal(t, "a@b.co", j.String("email"))

	require.NoError(t, j.Scan(`{"phone":"300"}`))
	assert.Equal(t, "300", j.String("phone"))

	assert.Error(t, j.Scan(42))
}

func TestJSONArrayNilValue(t *testing.T) {
	var a JSONArray
	v, err := a.Value()
	require.NoError(t, err)
	assert.Equal(t, []byte("[]"), v)
}

func TestProductShippingData(t *testing.T) {
	w := 1.5
	p := Product{Weight: &w, Dimensions: JSONB{"length": 10.0, "width": 5.0, "height": 2.0}}
	assert.True(t, p.HasShippingData())

	p.Dimensions["height"] = 0.0
	assert.False(t, p.HasShippingData())

	p.Weight = nil
	assert.False(t, p.HasShippingData())
}

func TestProductPriceMinor(t *testing.T) {
	p := Product{Price: 19.99}
	assert.Equal(t, int64(1999), p.PriceMinor())
}

func TestShopHelpers(t *testing.T) {
	shop := ArtisanShop{
		HeroConfig:    JSONB{"slides": []interface{}{map[string]interface{}{"title": "a"}}},
		AboutContent:  JSONB{"story": "Tejemos desde 1980"},
		ContactConfig: JSONB{"whatsapp": "+57 300"},
		SocialLinks:   JSONB{"instagram": "", "facebook": "fb.com/x"},
	}
	assert.Equal(t, 1, shop.HeroSlideCount())
	assert.True(t, shop.HasStory())
	assert.Equal(t, "+57 300", shop.ContactPhone())
	assert.Equal(t, "", shop.ContactEmail())
	assert.True(t, shop.HasSocialLinks())
	assert.False(t, shop.HasCounterparty())
	assert.False(t, shop.PubliclyVisible())
}

func TestOTPCode(t *testing.T) {
	otp := OTPCode{ExpiresAt: time.Now().Add(time.Minute)}
	require.NoError(t, otp.SetCode("123456"))
	assert.True(t, otp.Matches("123456"))
	assert.False(t, otp.Matches("654321"))
	assert.False(t, otp.Expired(time.Now()))
	assert.True(t, otp.Expired(time.Now().Add(2*time.Minute)))
}

func TestModerationVisibility(t *testing.T) {
	assert.True(t, ModerationStatusApproved.Visible())
	assert.True(t, ModerationStatusApprovedWithEdits.Visible())
	assert.False(t, ModerationStatusPending.Visible())
}

func TestCartSubtotal(t *testing.T) {
	c := Cart{Items: []CartItem{{UnitPriceMinor: 1000, Quantity: 2}, {UnitPriceMinor: 500, Quantity: 1}}}
	assert.Equal(t, int64(2500), c.SubtotalMinor())
}
