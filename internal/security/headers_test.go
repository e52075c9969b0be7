package security

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(cfg HeadersConfig, path string) *httptest.ResponseRecorder {
	r := gin.New()
	r.Use(HeadersMiddleware(cfg))
	r.GET("/*any", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestHeadersMiddleware(t *testing.T) {
	tests := []struct {
		name       string
		cfg        HeadersConfig
		path       string
		wantPolicy string
		wantHSTS   bool
	}{
		{"api path", HeadersConfig{DocsPrefix: "/swagger"}, "/api/v1/insights/compare", apiPolicy, false},
		{"docs path", HeadersConfig{DocsPrefix: "/swagger"}, "/swagger/index.html", docsPolicy, false},
		{"no docs prefix", HeadersConfig{}, "/swagger/index.html", apiPolicy, false},
		{"hsts", HeadersConfig{HSTS: true}, "/health", apiPolicy, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(tt.cfg, tt.path)

			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
			assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
			assert.Equal(t, tt.wantPolicy, w.Header().Get("Content-Security-Policy"))
			if tt.wantHSTS {
				assert.NotEmpty(t, w.Header().Get("Strict-Transport-Security"))
			} else {
				assert.Empty(t, w.Header().Get("Strict-Transport-Security"))
			}
		})
	}
}
