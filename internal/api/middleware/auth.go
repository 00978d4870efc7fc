package middleware

import (
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"

	"github.com/grocerypos/accounts/internal/api/handler"
	"github.com/grocerypos/accounts/internal/core/ports"
)

const realm = "GroceryPOS"

// Auth checks HTTP Basic credentials on every request through the auth
// service and injects the authenticated user and its role into the context.
// Unknown credentials are answered with 401; store failures propagate to the
// error handler.
func Auth(auth ports.AuthService) echo.MiddlewareFunc {
	return echomiddleware.BasicAuthWithConfig(echomiddleware.BasicAuthConfig{
		Realm: realm,
		Validator: func(username, password string, c echo.Context) (bool, error) {
			user, err := auth.Authenticate(c.Request().Context(), username, password)
			if err != nil {
				return false, err
			}
			if user == nil {
				return false, nil
			}
			c.Set(handler.CtxUser, user)
			c.Set(handler.CtxRole, user.Role)
			return true, nil
		},
	})
}
