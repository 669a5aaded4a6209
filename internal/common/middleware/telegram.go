package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	initdata "github.com/telegram-mini-apps/init-data-golang"
)

// Context keys populated by TelegramInitData.
const (
	UserCtxKey       = "user"
	StartParamCtxKey = "start_param"
)

// TelegramInitData validates Telegram Mini App init-data and stores the parsed
// user and start parameter in the request context. The bot token is injected
// at construction time rather than read from the ambient environment.
//
// Init-data is expected in the "init_data" header, falling back to the
// "init_data" query parameter. expIn == 0 disables the expiration check.
func TelegramInitData(botToken string, expIn time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader("init_data")
		if raw == "" {
			raw = c.Query("init_data")
		}
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: Telegram Init Data required"})
			return
		}

		if botToken == "" {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Server configuration error"})
			return
		}

		if err := initdata.Validate(raw, botToken, expIn); err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid init data"})
			return
		}

		parsed, err := initdata.Parse(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Failed to parse init data"})
			return
		}

		c.Set(UserCtxKey, parsed.User)
		if parsed.StartParam != "" {
			c.Set(StartParamCtxKey, parsed.StartParam)
		}
		c.Next()
	}
}

// UserFromContext extracts the parsed Telegram user stored by TelegramInitData.
func UserFromContext(c *gin.Context) (initdata.User, bool) {
	v, exists := c.Get(UserCtxKey)
	if !exists {
		return initdata.User{}, false
	}
	u, ok := v.(initdata.User)
	return u, ok
}
