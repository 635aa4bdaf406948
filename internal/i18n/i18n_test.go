package i18n

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranslate(t *testing.T) {
	require.NoError(t, Initialize("es"))

	assert.Equal(t, "Tienda no encontrada", T("es", "shop.not_found"))
	assert.Equal(t, "Shop not found", T("en", "shop.not_found"))
	assert.Equal(t, "Tienda no encontrada", T("pt", "shop.not_found"))
	assert.Equal(t, "Ahora eres nivel 3", T("es", KeyLevelUpMsg, 3))
	assert.Equal(t, "missing.key", T("en", "missing.key"))
	assert.Equal(t, []string{"en", "es"}, GetSupportedLanguages())
	assert.True(t, Supported("en"))
	assert.False(t, Supported("zh_TW"))
}

func TestLocalesHaveTheSameKeys(t *testing.T) {
	read := func(name string) map[string]string {
		data, err := localeFS.ReadFile("locales/" + name)
		require.NoError(t, err)
		var m map[string]string
		require.NoError(t, json.Unmarshal(data, &m))
		return m
	}
	es, en := read("es.json"), read("en.json")

	for key := range es {
		assert.Contains(t, en, key)
	}
	for key := range en {
		assert.Contains(t, es, key)
	}
}
