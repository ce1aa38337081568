// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements site authentication for the lead API. It validates the
// X-API-Key request header, performs a user-defined lookup to resolve the
// owning site configuration, and annotates the request context so downstream
// handlers can read the resolved site without touching the store.
//
// Design goals:
//   - Keep transport concerns (validation, context stashing) in middleware.
//   - Decouple persistence via a narrow SiteLookup function type.
//   - Remain framework-agnostic beyond Gin's context.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/lodgera/go-leads-backend/internal/domain"
)

// HeaderAPIKey is the canonical request header that sites use to authenticate
// webhook deliveries and API calls.
const HeaderAPIKey = "X-API-Key"

// ctxKeySite stashes the resolved site configuration. The key is intentionally
// unexported and referenced via the SiteFrom accessor.
const ctxKeySite = "auth.site"

// SiteFrom returns the site configuration stored in the Gin context by
// SiteAuth, or nil when authentication did not run or failed.
//
// Handlers should prefer this function over reading the header directly.
func SiteFrom(c *gin.Context) *domain.SiteConfig {
	v, ok := c.Get(ctxKeySite)
	if !ok {
		return nil
	}
	s, _ := v.(*domain.SiteConfig)
	return s
}

// SiteLookup resolves an API key to its owning site configuration.
// Implementations return (nil, nil) when no site owns the key and an error
// only for store failures.
type SiteLookup func(ctx context.Context, apiKey string) (*domain.SiteConfig, error)

// AuthErrorWriter renders an authentication failure. Injected so the router
// can reuse the handlers package's error envelope without an import cycle.
type AuthErrorWriter func(c *gin.Context, status int, code, msg string)

// SiteAuth authenticates every request via the X-API-Key header.
//
// Behavior:
//   - missing or blank key        -> 401 unauthorized
//   - unknown key                 -> 401 unauthorized (indistinguishable from missing)
//   - store failure during lookup -> 500 internal_error
//   - inactive site               -> 403 forbidden
//
// On success the resolved site is stashed for SiteFrom.
func SiteAuth(lookup SiteLookup, writeErr AuthErrorWriter) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := strings.TrimSpace(c.GetHeader(HeaderAPIKey))
		if key == "" {
			writeErr(c, http.StatusUnauthorized, "unauthorized", "missing API key")
			return
		}

		site, err := lookup(c.Request.Context(), key)
		if err != nil {
			writeErr(c, http.StatusInternalServerError, "internal_error", "credential lookup failed")
			return
		}
		if site == nil {
			writeErr(c, http.StatusUnauthorized, "unauthorized", "unknown API key")
			return
		}
		if !site.Active {
			writeErr(c, http.StatusForbidden, "forbidden", "site is inactive")
			return
		}

		c.Set(ctxKeySite, site)
		c.Next()
	}
}
