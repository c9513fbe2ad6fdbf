package middleware

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
)

const defaultAllowedHeaders = "Content-Type, Authorization"

type CORSOptions struct {
	AllowOrigins     []string
	AllowMethods     []string
	AllowCredentials bool
	ExposeHeaders    []string
	MaxAge           time.Duration
}

type corsGlobalMiddleware struct {
	anyOrigin   bool
	origins     map[string]struct{}
	credentials bool
	methods     string
	expose      string
	maxAge      string
}

// NewCORSGlobalMiddleware lets dashboards on other origins call the admin
// API. Preflights are answered here, before the auth middleware sees them.
func NewCORSGlobalMiddleware(opts CORSOptions) Middleware {
	m := &corsGlobalMiddleware{
		origins:     make(map[string]struct{}, len(opts.AllowOrigins)),
		credentials: opts.AllowCredentials,
		methods:     strings.Join(opts.AllowMethods, ", "),
		expose:      strings.Join(opts.ExposeHeaders, ", "),
	}
	for _, o := range opts.AllowOrigins {
		if o == "*" {
			m.anyOrigin = true
			continue
		}
		m.origins[strings.ToLower(o)] = struct{}{}
	}
	if opts.MaxAge > 0 {
		m.maxAge = strconv.Itoa(int(opts.MaxAge.Seconds()))
	}
	return m
}

func (m *corsGlobalMiddleware) allowed(origin string) bool {
	if m.anyOrigin {
		return true
	}
	_, ok := m.origins[strings.ToLower(origin)]
	return ok
}

func (m *corsGlobalMiddleware) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		origin := c.Get(fiber.HeaderOrigin)
		if origin == "" || !m.allowed(origin) {
			return c.Next()
		}

		c.Vary(fiber.HeaderOrigin)
		// a wildcard cannot be combined with credentials, so the origin is echoed
		if m.anyOrigin && !m.credentials {
			c.Set(fiber.HeaderAccessControlAllowOrigin, "*")
		} else {
			c.Set(fiber.HeaderAccessControlAllowOrigin, origin)
		}
		if m.credentials {
			c.Set(fiber.HeaderAccessControlAllowCredentials, "true")
		}
		if m.expose != "" {
			c.Set(fiber.HeaderAccessControlExposeHeaders, m.expose)
		}

		if c.Method() != fiber.MethodOptions || c.Get(fiber.HeaderAccessControlRequestMethod) == "" {
			return c.Next()
		}
		c.Set(fiber.HeaderAccessControlAllowMethods, m.methods)
		headers := c.Get(fiber.HeaderAccessControlRequestHeaders)
		if headers == "" {
			headers = defaultAllowedHeaders
		}
		c.Set(fiber.HeaderAccessControlAllowHeaders, headers)
		if m.maxAge != "" {
			c.Set(fiber.HeaderAccessControlMaxAge, m.maxAge)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
