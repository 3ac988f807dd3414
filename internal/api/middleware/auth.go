package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/intentscan/bridge-indexer/internal/logger"
)

// AuthConfig holds authentication configuration. An empty key list disables
// authentication, the read-only API is public by default.
type AuthConfig struct {
	APIKeys []string
}

// Enabled reports whether any API key is configured.
func (cfg AuthConfig) Enabled() bool {
	for _, key := range cfg.APIKeys {
		if key != "" {
			return true
		}
	}
	return false
}

// APIKeyAuth returns a gin middleware validating the Authorization header
// against the configured API keys. Accepts "ApiKey <key>" or a bare key.
func APIKeyAuth(cfg AuthConfig) gin.HandlerFunc {
	apiKeyMap := make(map[string]bool)
	for _, key := range cfg.APIKeys {
		if key != "" {
			apiKeyMap[key] = true
		}
	}

	return func(c *gin.Context) {
		if len(apiKeyMap) == 0 {
			c.Next()
			return
		}

		key, err := extractAPIKey(c.GetHeader("Authorization"))
		if err == nil && !apiKeyMap[key] {
			err = errors.New("invalid API key")
		}
		if err != nil {
			logger.Warn("Authentication failed",
				zap.Error(err),
				zap.String("path", c.Request.URL.Path),
				zap.String("client_ip", c.ClientIP()),
			)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{
					"code":    "unauthorized",
					"message": "Authentication failed",
				},
			})
			return
		}

		c.Next()
	}
}

func extractAPIKey(authHeader string) (string, error) {
	if authHeader == "" {
		return "", errors.New("missing Authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) == 1 {
		return parts[0], nil
	}
	if !strings.EqualFold(parts[0], "apikey") {
		return "", errors.New("unsupported authorization type: " + parts[0])
	}
	return parts[1], nil
}
