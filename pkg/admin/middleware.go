package admin

import (
	"crypto/subtle"

	"github.com/jdmarquezdev/tribitr-web/pkg/errcodes"
	"github.com/labstack/echo/v4"
)

// TokenHeader carries the admin token on every /admin request.
const TokenHeader = "X-Admin-Token"

// RequireToken rejects requests whose TokenHeader doesn't match token.
func RequireToken(token string) echo.MiddlewareFunc {
	expected := []byte(token)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			got := []byte(c.Request().Header.Get(TokenHeader))
			if len(expected) == 0 || subtle.ConstantTimeCompare(got, expected) != 1 {
				return errcodes.Unauthorized()
			}
			return next(c)
		}
	}
}
