package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/grocerypos/accounts/internal/core/domain"
)

// Context keys set by the authentication middleware.
const (
	CtxUser = "user"
	CtxRole = "role"
)

// ctxUser returns the authenticated user injected by the Auth middleware.
// Its absence means the route was wired without authentication.
func ctxUser(c echo.Context) (*domain.User, error) {
	u, _ := c.Get(CtxUser).(*domain.User)
	if u == nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "missing authenticated user")
	}
	return u, nil
}
