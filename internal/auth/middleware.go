package auth

import (
	"strings"
	"time"

	"lojistik-backend/internal/config"
	"lojistik-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const (
	CtxClaimsKey   = "claims"
	CtxUserRoleKey = "user_role"
)

// bearerToken: "Bearer <token>" başlığından token'ı ayıklar
func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func JWTMiddleware(cfg *config.Config) fiber.Handler {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(30*time.Second),
	)
	secret := []byte(cfg.JWTSecret)

	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "Authorization header eksik")
		}
		raw, ok := bearerToken(authHeader)
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "Authorization formatı 'Bearer <token>' olmalı")
		}

		claims := &JWTCustomClaims{}
		if _, err := parser.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
			return secret, nil
		}); err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Geçersiz veya süresi dolmuş token")
		}
		if claims.UserID == 0 {
			return fiber.NewError(fiber.StatusUnauthorized, "Token kullanıcı bilgisi içermiyor")
		}

		c.Locals(CtxClaimsKey, claims)
		c.Locals(CtxUserRoleKey, claims.Role)
		return c.Next()
	}
}

// RequireRole: JWTMiddleware'den sonra kullanılmalı
func RequireRole(allowedRoles ...models.UserRole) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, ok := c.Locals(CtxUserRoleKey).(models.UserRole)
		if !ok {
			return fiber.NewError(fiber.StatusForbidden, "Rol bilgisi alınamadı")
		}
		for _, r := range allowedRoles {
			if r == role {
				return c.Next()
			}
		}
		return fiber.NewError(fiber.StatusForbidden, "Bu işlem için yetkiniz yok")
	}
}

// CurrentUser: istek sahibinin ID ve adı; token yoksa 0, ""
func CurrentUser(c *fiber.Ctx) (uint, string) {
	claims, ok := c.Locals(CtxClaimsKey).(*JWTCustomClaims)
	if !ok || claims == nil {
		return 0, ""
	}
	return claims.UserID, claims.Name
}
