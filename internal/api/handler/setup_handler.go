package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/grocerypos/accounts/internal/core/domain"
	"github.com/grocerypos/accounts/internal/core/ports"
)

// SetupHandler serves the first-run administrator flow.
type SetupHandler struct {
	bootstrap ports.BootstrapService
}

func NewSetupHandler(bootstrap ports.BootstrapService) *SetupHandler {
	return &SetupHandler{bootstrap: bootstrap}
}

type setupStatusResponse struct {
	State domain.BootstrapState `json:"state"`
}

type adminSetupRequest struct {
	Username        string `json:"username"         validate:"required,max=50"`
	Password        string `json:"password"         validate:"required"`
	ConfirmPassword string `json:"confirm_password" validate:"required"`
	FirstName       string `json:"first_name"       validate:"required,max=100"`
	LastName        string `json:"last_name"        validate:"max=100"`
}

// Status reports whether the installation still needs its first
// administrator.
func (h *SetupHandler) Status(c echo.Context) error {
	state, err := h.bootstrap.Decide(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, setupStatusResponse{State: state})
}

// ProvisionAdmin creates the first administrator account.
func (h *SetupHandler) ProvisionAdmin(c echo.Context) error {
	var req adminSetupRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	err := h.bootstrap.ProvisionAdmin(c.Request().Context(), ports.AdminSetupInput{
		Username:        req.Username,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
		FirstName:       req.FirstName,
		LastName:        req.LastName,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, setupStatusResponse{State: domain.ReadyForLogin})
}
