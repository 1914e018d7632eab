package apiclient

import (
	"context"
	"net/http"

	"github.com/granme/caprisystem/pkg/types"
)

// UserConflictRules identify which unique user field a rejected write
// collided on.
var UserConflictRules = []ConflictRule{
	{Field: "email", Patterns: []string{"email", "correo"}, Message: "El correo electrónico ya está registrado."},
	{Field: "code", Patterns: []string{"code", "código", "codigo"}, Message: "El código de usuario ya está registrado."},
	{Field: "idCard", Patterns: []string{"idcard", "id_card", "cédula", "cedula"}, Message: "La cédula ya está registrada."},
}

// Users adds the account endpoints to the users collection.
type Users struct {
	*Resource[types.User]
}

// NewUsers returns the users resource of c.
func NewUsers(c *Client) *Users {
	return &Users{Resource: NewResource[types.User](c, types.ResourceUsers, UserConflictRules...)}
}

// Login exchanges credentials for a token. It is sent without a bearer
// token and a 401 does not run the unauthorized hook.
func (u *Users) Login(ctx context.Context, creds types.Credentials) (types.LoginResponse, error) {
	var resp types.LoginResponse
	err := u.client.do(ctx, request{
		method:   http.MethodPost,
		path:     "/users/login",
		resource: types.ResourceUsers,
		body:     creds,
		public:   true,
	}, &resp)
	return resp, err
}

// Register creates an account. The response is decoded when present but
// not checked, since registration does not authenticate.
func (u *Users) Register(ctx context.Context, reg types.Registration) (types.User, error) {
	var user types.User
	err := u.client.do(ctx, request{
		method:   http.MethodPost,
		path:     "/users",
		resource: types.ResourceUsers,
		body:     reg,
		public:   true,
		rules:    UserConflictRules,
	}, &user)
	return user, err
}

// ForgotPassword asks the server to send a reset link to the account's
// email. Like login it is sent without a bearer token.
func (u *Users) ForgotPassword(ctx context.Context, req types.PasswordRecovery) error {
	return u.client.do(ctx, request{
		method:   http.MethodPost,
		path:     "/forgot-password",
		resource: types.ResourceUsers,
		body:     req,
		public:   true,
	}, nil)
}

// Logout asks the server to invalidate the current token.
func (u *Users) Logout(ctx context.Context) error {
	return u.client.do(ctx, request{
		method:   http.MethodPost,
		path:     "/users/logout",
		resource: types.ResourceUsers,
	}, nil)
}

// UpdateProfile puts the editable profile fields of user id and returns
// the server's view of the user.
func (u *Users) UpdateProfile(ctx context.Context, id int64, update types.ProfileUpdate) (types.User, error) {
	var user types.User
	if id <= 0 {
		return user, types.ErrInvalidID
	}
	err := u.client.do(ctx, u.req(http.MethodPut, id, update), &user)
	return user, err
}
