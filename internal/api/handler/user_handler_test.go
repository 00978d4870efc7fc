package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/grocerypos/accounts/internal/core/domain"
	"github.com/grocerypos/accounts/internal/core/ports"
	"github.com/grocerypos/accounts/internal/core/service"
	"github.com/grocerypos/accounts/internal/infrastructure/db/sqlite"
	"github.com/grocerypos/accounts/pkg/password"
)

type userFixture struct {
	handler *UserHandler
	client  *sqlite.Client
	auth    *service.AuthService
}

func newUserFixture(t *testing.T) *userFixture {
	t.Helper()
	client, err := sqlite.Connect(context.Background(), sqlite.Config{
		Path: filepath.Join(t.TempDir(), "accounts.db"),
	}, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	factory := ports.UserStoreFactory(client.NewUserStore)
	auth := service.NewAuthService(factory, password.NewCodec(bcrypt.MinCost), nil, zerolog.Nop())
	return &userFixture{
		handler: NewUserHandler(auth, factory),
		client:  client,
		auth:    auth,
	}
}

func (f *userFixture) register(t *testing.T, username string, role domain.Role) *domain.User {
	t.Helper()
	ok, err := f.auth.Register(context.Background(), username, "secret1", "First", "Last", role)
	require.NoError(t, err)
	require.True(t, ok)
	u, err := f.client.NewUserStore().GetByUsername(context.Background(), username)
	require.NoError(t, err)
	require.NotNil(t, u)
	return u
}

func TestUserHandler_CreateAndGet(t *testing.T) {
	f := newUserFixture(t)

	c, rec := newTestContext(http.MethodPost, "/users",
		`{"username":"bob","password":"pw","first_name":"Bob","role":"Employee"}`)
	require.NoError(t, f.handler.Create(c))
	assert.Equal(t, http.StatusCreated, rec.Code)

	var created struct {
		User domain.User `json:"user"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "bob", created.User.Username)
	assert.Equal(t, domain.RoleEmployee, created.User.Role)
	assert.True(t, created.User.IsActive)
	assert.NotZero(t, created.User.ID)

	id := strconv.FormatInt(created.User.ID, 10)
	c, rec = newTestContext(http.MethodGet, "/users/"+id, "")
	c.SetParamNames("id")
	c.SetParamValues(id)
	require.NoError(t, f.handler.Get(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"username":"bob"`)
}

func TestUserHandler_CreateRejections(t *testing.T) {
	f := newUserFixture(t)
	f.register(t, "bob", domain.RoleEmployee)

	c, _ := newTestContext(http.MethodPost, "/users",
		`{"username":"bob","password":"pw","first_name":"Bob","role":"employee"}`)
	assert.ErrorIs(t, f.handler.Create(c), domain.ErrRegistrationRejected)

	c, _ = newTestContext(http.MethodPost, "/users",
		`{"username":"carol","password":"pw","first_name":"Carol","role":"manager"}`)
	assert.Equal(t, http.StatusBadRequest, httpCode(t, f.handler.Create(c)))

	c, _ = newTestContext(http.MethodPost, "/users", `{"username":"carol","role":"employee"}`)
	assert.Equal(t, http.StatusBadRequest, httpCode(t, f.handler.Create(c)))
}

func TestUserHandler_List(t *testing.T) {
	f := newUserFixture(t)

	c, rec := newTestContext(http.MethodGet, "/users", "")
	require.NoError(t, f.handler.List(c))
	assert.JSONEq(t, `{"items":[],"total":0}`, rec.Body.String())

	f.register(t, "admin", domain.RoleAdmin)
	f.register(t, "bob", domain.RoleEmployee)

	c, rec = newTestContext(http.MethodGet, "/users", "")
	require.NoError(t, f.handler.List(c))

	var resp struct {
		Items []domain.User `json:"items"`
		Total int           `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Total)
	assert.Equal(t, "admin", resp.Items[0].Username)
	assert.Equal(t, "bob", resp.Items[1].Username)
}

func TestUserHandler_GetMissing(t *testing.T) {
	f := newUserFixture(t)

	c, _ := newTestContext(http.MethodGet, "/users/42", "")
	c.SetParamNames("id")
	c.SetParamValues("42")
	assert.ErrorIs(t, f.handler.Get(c), domain.ErrUserNotFound)

	c, _ = newTestContext(http.MethodGet, "/users/abc", "")
	c.SetParamNames("id")
	c.SetParamValues("abc")
	assert.Equal(t, http.StatusBadRequest, httpCode(t, f.handler.Get(c)))
}

func TestUserHandler_Update(t *testing.T) {
	f := newUserFixture(t)
	u := f.register(t, "bob", domain.RoleEmployee)
	id := strconv.FormatInt(u.ID, 10)

	c, rec := newTestContext(http.MethodPatch, "/users/"+id,
		`{"email":"bob@example.com","contact_number":"555-0101","role":"admin"}`)
	c.SetParamNames("id")
	c.SetParamValues(id)
	require.NoError(t, f.handler.Update(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	got, err := f.client.NewUserStore().GetByID(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, "bob@example.com", got.Email)
	assert.Equal(t, "555-0101", got.ContactNumber)
	assert.Equal(t, domain.RoleAdmin, got.Role)
	assert.Equal(t, "First", got.FirstName)
	require.NotNil(t, got.ModifiedAt)
	assert.False(t, got.ModifiedAt.Before(got.CreatedAt))
}

func TestUserHandler_UpdateInvalid(t *testing.T) {
	f := newUserFixture(t)
	u := f.register(t, "bob", domain.RoleEmployee)
	id := strconv.FormatInt(u.ID, 10)

	for _, body := range []string{`{"email":"not-an-email"}`, `{"role":"owner"}`} {
		c, _ := newTestContext(http.MethodPatch, "/users/"+id, body)
		c.SetParamNames("id")
		c.SetParamValues(id)
		assert.Equal(t, http.StatusBadRequest, httpCode(t, f.handler.Update(c)), body)
	}

	c, _ := newTestContext(http.MethodPatch, "/users/999", `{"first_name":"X"}`)
	c.SetParamNames("id")
	c.SetParamValues("999")
	assert.ErrorIs(t, f.handler.Update(c), domain.ErrUserNotFound)
}

func TestUserHandler_Delete(t *testing.T) {
	f := newUserFixture(t)
	admin := f.register(t, "admin", domain.RoleAdmin)
	bob := f.register(t, "bob", domain.RoleEmployee)
	id := strconv.FormatInt(bob.ID, 10)

	c, rec := newTestContext(http.MethodDelete, "/users/"+id, "")
	c.SetParamNames("id")
	c.SetParamValues(id)
	c.Set(CtxUser, admin)
	require.NoError(t, f.handler.Delete(c))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	got, err := f.client.NewUserStore().GetByID(context.Background(), bob.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	user, err := f.auth.Authenticate(context.Background(), "bob", "secret1")
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestUserHandler_DeleteSelfRefused(t *testing.T) {
	f := newUserFixture(t)
	admin := f.register(t, "admin", domain.RoleAdmin)
	id := strconv.FormatInt(admin.ID, 10)

	c, _ := newTestContext(http.MethodDelete, "/users/"+id, "")
	c.SetParamNames("id")
	c.SetParamValues(id)
	c.Set(CtxUser, admin)
	assert.Equal(t, http.StatusConflict, httpCode(t, f.handler.Delete(c)))

	ok, err := f.auth.IsAdminProvisioned(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestUserHandler_DeleteWithoutCaller(t *testing.T) {
	f := newUserFixture(t)

	c, _ := newTestContext(http.MethodDelete, "/users/1", "")
	c.SetParamNames("id")
	c.SetParamValues("1")
	assert.Equal(t, http.StatusUnauthorized, httpCode(t, f.handler.Delete(c)))
}
