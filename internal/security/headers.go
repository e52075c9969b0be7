package security

import (
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	// apiPolicy forbids every resource load; API responses are JSON only.
	apiPolicy = "default-src 'none'; frame-ancestors 'none'; base-uri 'none'; form-action 'none'"

	// docsPolicy lets the bundled Swagger UI load its own scripts and styles.
	docsPolicy = "default-src 'self'; script-src 'self' 'unsafe-inline'; style-src 'self' 'unsafe-inline'; " +
		"img-src 'self' data:; frame-ancestors 'none'"
)

// HeadersConfig selects optional headers
type HeadersConfig struct {
	// HSTS adds Strict-Transport-Security. Only enable it behind TLS.
	HSTS bool
	// DocsPrefix is the path prefix served with the relaxed docs policy
	DocsPrefix string
}

// HeadersMiddleware sets the security headers on every response
func HeadersMiddleware(cfg HeadersConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("X-Frame-Options", "DENY")
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Permissions-Policy", "geolocation=(), microphone=(), camera=()")
		h.Set("Content-Security-Policy", policyFor(c.Request.URL.Path, cfg.DocsPrefix))

		if cfg.HSTS {
			h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}

func policyFor(path, docsPrefix string) string {
	if docsPrefix != "" && strings.HasPrefix(path, docsPrefix) {
		return docsPolicy
	}
	return apiPolicy
}
