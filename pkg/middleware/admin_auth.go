package middleware

import (
	"errors"
	"strings"

	"github.com/NeuralTrust/IPGuard/pkg/common"
	"github.com/NeuralTrust/IPGuard/pkg/infra/auth/jwt"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

const (
	bearerScheme = "Bearer"
	adminRole    = "admin"
)

var (
	errMissingCredentials = errors.New("authorization required")
	errMalformedHeader    = errors.New("authorization header must be 'Bearer <token>'")
)

type adminAuthMiddleware struct {
	logger     *logrus.Logger
	jwtManager jwt.Manager
}

// NewAdminAuthMiddleware guards the admin API with tokens issued by the
// token command. The token subject is stored as the acting operator.
func NewAdminAuthMiddleware(logger *logrus.Logger, jwtManager jwt.Manager) Middleware {
	return &adminAuthMiddleware{
		logger:     logger,
		jwtManager: jwtManager,
	}
}

func (m *adminAuthMiddleware) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, err := bearerToken(c.Get(fiber.HeaderAuthorization))
		if err != nil {
			return m.reject(c, fiber.StatusUnauthorized, err)
		}

		claims, err := m.jwtManager.DecodeToken(token)
		switch {
		case errors.Is(err, jwt.ErrExpiredToken):
			return m.reject(c, fiber.StatusUnauthorized, err)
		case err != nil:
			return m.reject(c, fiber.StatusUnauthorized, jwt.ErrInvalidToken)
		}
		if claims.Role != "" && claims.Role != adminRole {
			return m.reject(c, fiber.StatusForbidden, errors.New("admin role required"))
		}

		c.Locals(common.AdminSubject, claims.Subject)
		return c.Next()
	}
}

func (m *adminAuthMiddleware) reject(c *fiber.Ctx, status int, err error) error {
	m.logger.WithFields(logrus.Fields{
		"path":   c.Path(),
		"remote": c.IP(),
	}).WithError(err).Debug("admin request rejected")
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}

func bearerToken(header string) (string, error) {
	if header == "" {
		return "", errMissingCredentials
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, bearerScheme) {
		return "", errMalformedHeader
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", errMalformedHeader
	}
	return token, nil
}
