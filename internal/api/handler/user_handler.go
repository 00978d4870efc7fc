package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/grocerypos/accounts/internal/core/domain"
	"github.com/grocerypos/accounts/internal/core/ports"
)

// UserHandler serves account administration. Every route sits behind the
// admin role check.
type UserHandler struct {
	authService ports.AuthService
	users       ports.UserStoreFactory
}

func NewUserHandler(authService ports.AuthService, users ports.UserStoreFactory) *UserHandler {
	return &UserHandler{authService: authService, users: users}
}

type createUserRequest struct {
	Username  string `json:"username"   validate:"required,max=50"`
	Password  string `json:"password"   validate:"required"`
	FirstName string `json:"first_name" validate:"required,max=100"`
	LastName  string `json:"last_name"  validate:"max=100"`
	Role      string `json:"role"       validate:"required"`
}

// updateUserRequest carries a partial profile update; nil fields are left
// unchanged.
type updateUserRequest struct {
	FirstName     *string `json:"first_name"     validate:"omitempty,max=100"`
	LastName      *string `json:"last_name"      validate:"omitempty,max=100"`
	ContactNumber *string `json:"contact_number" validate:"omitempty,max=20"`
	Email         *string `json:"email"          validate:"omitempty,max=100,email"`
	Role          *string `json:"role"`
}

type userListResponse struct {
	Items []*domain.User `json:"items"`
	Total int            `json:"total"`
}

// List returns every active account.
func (h *UserHandler) List(c echo.Context) error {
	users, err := h.users().GetAll(c.Request().Context())
	if err != nil {
		return err
	}
	if users == nil {
		users = []*domain.User{}
	}
	return c.JSON(http.StatusOK, userListResponse{Items: users, Total: len(users)})
}

// Get returns one active account.
func (h *UserHandler) Get(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	user, err := h.users().GetByID(c.Request().Context(), id)
	if err != nil {
		return err
	}
	if user == nil {
		return domain.ErrUserNotFound
	}
	return c.JSON(http.StatusOK, userResponse{User: user})
}

// Create registers a new employee or administrator.
func (h *UserHandler) Create(c echo.Context) error {
	var req createUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	role, ok := domain.ParseRole(req.Role)
	if !ok {
		return echo.NewHTTPError(http.StatusBadRequest, "role must be one of: admin employee")
	}

	ctx := c.Request().Context()
	created, err := h.authService.Register(ctx, req.Username, req.Password, req.FirstName, req.LastName, role)
	if err != nil {
		return err
	}
	if !created {
		return domain.ErrRegistrationRejected
	}

	user, err := h.users().GetByUsername(ctx, req.Username)
	if err != nil {
		return err
	}
	if user == nil {
		return domain.ErrUserNotFound
	}
	return c.JSON(http.StatusCreated, userResponse{User: user})
}

// Update applies a partial profile update through the unit of work, so a
// concurrent edit surfaces as a conflict.
func (h *UserHandler) Update(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req updateUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	store := h.users()
	user, err := store.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if user == nil {
		return domain.ErrUserNotFound
	}

	if req.FirstName != nil {
		user.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		user.LastName = *req.LastName
	}
	if req.ContactNumber != nil {
		user.ContactNumber = *req.ContactNumber
	}
	if req.Email != nil {
		user.Email = *req.Email
	}
	if req.Role != nil {
		role, ok := domain.ParseRole(*req.Role)
		if !ok {
			return echo.NewHTTPError(http.StatusBadRequest, "role must be one of: admin employee")
		}
		user.Role = role
	}

	if err := store.Update(ctx, user); err != nil {
		return err
	}
	if err := store.SaveChanges(ctx); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, userResponse{User: user})
}

// Delete deactivates an account. Administrators cannot remove themselves.
func (h *UserHandler) Delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	caller, err := ctxUser(c)
	if err != nil {
		return err
	}
	if caller.ID == id {
		return echo.NewHTTPError(http.StatusConflict, "administrators cannot delete their own account")
	}

	ctx := c.Request().Context()
	store := h.users()
	if err := store.Delete(ctx, id); err != nil {
		return err
	}
	if err := store.SaveChanges(ctx); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func pathID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "id must be a positive integer")
	}
	return id, nil
}
