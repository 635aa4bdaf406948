// internal/middleware/i18n.go
package middleware

import (
	"github.com/gin-gonic/gin"
	"golang.org/x/text/language"

	"github.com/javajoker/artisans-backend/internal/i18n"
)

var (
	supportedTags = []language.Tag{language.Spanish, language.English}
	langMatcher   = language.NewMatcher(supportedTags)
)

// PreferredLanguage picks es or en from an Accept-Language header.
// Anything else falls back to Spanish.
func PreferredLanguage(header string) string {
	if header == "" {
		return i18n.DefaultLang
	}
	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil || len(tags) == 0 {
		return i18n.DefaultLang
	}
	_, idx, conf := langMatcher.Match(tags...)
	if conf == language.No {
		return i18n.DefaultLang
	}
	base, _ := supportedTags[idx].Base()
	return base.String()
}

func I18nMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		lang := c.Query("lang")
		if !i18n.Supported(lang) {
			lang = PreferredLanguage(c.GetHeader("Accept-Language"))
		}
		c.Set("lang", lang)
		c.Next()
	}
}
