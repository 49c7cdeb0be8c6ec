package middleware

import (
	"strings"

	"stash-backend/domain"
	"stash-backend/internal/api/presenters"
	"stash-backend/pkg/jwt"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

const LocalsUserID = "user_id"

type (
	Middleware interface {
		CORSMiddleware() fiber.Handler
		RecoverMiddleware() fiber.Handler
		AuthMiddleware(jwtService jwt.JWTService) fiber.Handler
		UserMatch(source UserIDSource) fiber.Handler
	}

	// UserIDSource extracts the user a request acts on.
	UserIDSource func(c *fiber.Ctx) string

	middleware struct {
		authRequired bool
	}
)

// NewMiddleware builds the middleware set. Auth handlers are no-ops unless authRequired is set.
func NewMiddleware(authRequired bool) Middleware {
	return &middleware{
		authRequired: authRequired,
	}
}

func (m *middleware) CORSMiddleware() fiber.Handler {
	return cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	})
}

func (m *middleware) RecoverMiddleware() fiber.Handler {
	return recover.New()
}

func (m *middleware) AuthMiddleware(jwtService jwt.JWTService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !m.authRequired {
			return c.Next()
		}

		header := c.Get(fiber.HeaderAuthorization)
		if header == "" {
			return presenters.ErrorResponse(c, fiber.StatusUnauthorized, domain.MessageFailedTokenInvalid, domain.ErrTokenNotFound)
		}
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			return presenters.ErrorResponse(c, fiber.StatusUnauthorized, domain.MessageFailedTokenInvalid, domain.ErrTokenInvalid)
		}

		userID, err := jwtService.GetUserIDByToken(token)
		if err != nil {
			return presenters.ErrorResponse(c, fiber.StatusUnauthorized, domain.MessageFailedTokenInvalid, err)
		}

		c.Locals(LocalsUserID, userID)
		return c.Next()
	}
}

// UserMatch rejects requests whose target user differs from the authenticated one.
func (m *middleware) UserMatch(source UserIDSource) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !m.authRequired {
			return c.Next()
		}
		authenticated, _ := c.Locals(LocalsUserID).(string)
		if target := source(c); target != "" && target != authenticated {
			return presenters.ErrorResponse(c, fiber.StatusForbidden, domain.MessageUserNotAllowed, domain.ErrUserNotAllowed)
		}
		return c.Next()
	}
}

func ParamUserID(c *fiber.Ctx) string {
	return c.Params("userId")
}

// BodyUserID reads userId from a JSON or form body without consuming it.
func BodyUserID(c *fiber.Ctx) string {
	var body struct {
		UserID string `json:"userId" form:"userId"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.FormValue("userId")
	}
	return body.UserID
}
