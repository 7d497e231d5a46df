package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	echojwt "github.com/labstack/echo-jwt/v4"
)

const contextClaimsKey = "user"

// Middleware builds the echo-jwt bearer-auth middleware, grounded on
// auth_handlers.go's configureJWTMiddleware.
func Middleware(secret string) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		NewClaimsFunc: func(c echo.Context) jwt.Claims {
			return new(Claims)
		},
		SigningKey:  []byte(secret),
		ContextKey:  contextClaimsKey,
		TokenLookup: "header:Authorization:Bearer ",
	})
}

// UserIDFromContext extracts the authenticated user id set by Middleware.
func UserIDFromContext(c echo.Context) (string, bool) {
	raw := c.Get(contextClaimsKey)
	token, ok := raw.(*jwt.Token)
	if !ok {
		return "", false
	}
	claims, ok := token.Claims.(*Claims)
	if !ok {
		return "", false
	}
	return claims.Subject, true
}
