package middleware

import (
	"strings"

	"swifttasks-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

const (
	devPasswordHeader = "dev-password"
	corsAllowMethods  = "GET, POST, PUT, PATCH, DELETE, OPTIONS"
	corsAllowHeaders  = "Content-Type, dev-password, X-Trace-Id"
	corsMaxAge        = "600"
)

// CORSConfig holds CORS configuration. AllowedSuffix may list several comma-separated
// suffixes (e.g. ".swifttasks.io,.swifttasks.dev").
type CORSConfig struct {
	AllowedSuffix string
	DevPassword   string
}

// CORS allows credentialed requests from origins ending with an allowed suffix, or carrying
// the dev-password header. Preflights are answered here for allowed origins and for
// localhost, whose browsers cannot attach the dev-password header to a preflight.
func CORS(cfg CORSConfig) fiber.Handler {
	suffixes := splitSuffixes(cfg.AllowedSuffix)
	return func(c *fiber.Ctx) error {
		origin := c.Get(fiber.HeaderOrigin)
		if origin == "" {
			return c.Next()
		}
		c.Vary(fiber.HeaderOrigin)

		allowed := suffixAllowed(origin, suffixes) ||
			(cfg.DevPassword != "" && c.Get(devPasswordHeader) == cfg.DevPassword)

		if c.Method() == fiber.MethodOptions && c.Get(fiber.HeaderAccessControlRequestMethod) != "" {
			if !allowed && !isLocalOrigin(origin) {
				return notAllowed(c, origin)
			}
			setCORSHeaders(c, origin)
			c.Set(fiber.HeaderAccessControlAllowMethods, corsAllowMethods)
			c.Set(fiber.HeaderAccessControlMaxAge, corsMaxAge)
			return c.SendStatus(fiber.StatusNoContent)
		}
		if !allowed {
			return notAllowed(c, origin)
		}
		setCORSHeaders(c, origin)
		return c.Next()
	}
}

func splitSuffixes(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func suffixAllowed(origin string, suffixes []string) bool {
	origin = strings.ToLower(origin)
	for _, s := range suffixes {
		if strings.HasSuffix(origin, s) {
			return true
		}
	}
	return false
}

func isLocalOrigin(origin string) bool {
	return strings.HasPrefix(origin, "http://localhost:") || strings.HasPrefix(origin, "http://127.0.0.1:")
}

func notAllowed(c *fiber.Ctx, origin string) error {
	return response.Error(c, "Not allowed by CORS", fiber.StatusForbidden, map[string]interface{}{"origin": origin})
}

func setCORSHeaders(c *fiber.Ctx, origin string) {
	c.Set(fiber.HeaderAccessControlAllowOrigin, origin)
	c.Set(fiber.HeaderAccessControlAllowCredentials, "true")
	c.Set(fiber.HeaderAccessControlAllowHeaders, corsAllowHeaders)
}
