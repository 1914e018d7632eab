package session

import (
	"errors"
	"net/http"

	"github.com/granme/caprisystem/internal/apiclient"
)

// Session errors. Each *Error wraps one of these.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNoPermission       = errors.New("no permission to access the system")
	ErrMissingToken       = errors.New("no authentication token received")
	ErrLoginFailed        = errors.New("login failed")
	ErrRegistration       = errors.New("registration failed")
	ErrPasswordRecovery   = errors.New("password recovery failed")
	ErrInvalidEmail       = errors.New("invalid email")
	ErrNotAuthenticated   = errors.New("not authenticated")
)

// User-facing messages.
const (
	MsgInvalidCredentials = "Credenciales incorrectas"
	MsgNoPermission       = "No tiene permisos para acceder al sistema"
	MsgMissingToken       = "No se recibió un token de autenticación válido"
	MsgNotAuthenticated   = "Debe iniciar sesión para continuar"

	MsgRegisterInvalid  = "Datos de registro inválidos. Por favor verifica la información."
	MsgRegisterExists   = "El usuario ya existe. Por favor intenta con otro correo electrónico."
	MsgRegisterServer   = "Error interno del servidor. Por favor intenta más tarde."
	MsgRegisterFallback = "Error en el registro"

	MsgEmailRequired    = "El correo electrónico es obligatorio"
	MsgEmailInvalid     = "El formato del correo electrónico no es válido"
	MsgRecoverySent     = "Se ha enviado un enlace de recuperación a tu correo electrónico."
	MsgRecoveryNotFound = "No se encontró una cuenta con ese correo electrónico."
	MsgRecoveryInvalid  = "Datos inválidos."
	MsgRecoveryServer   = "Error interno del servidor. Intenta más tarde."
	MsgRecoveryFallback = "Error en la recuperación de contraseña"
)

// Error is a classified session failure. Message is shown to the user;
// Cause keeps the underlying request error.
type Error struct {
	Err     error
	Message string
	Cause   error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Err }

// classifyLogin maps a failed login request to a session error.
func classifyLogin(err error) *Error {
	switch apiclient.StatusOf(err) {
	case http.StatusUnauthorized:
		return &Error{Err: ErrInvalidCredentials, Message: MsgInvalidCredentials, Cause: err}
	case http.StatusForbidden:
		return &Error{Err: ErrNoPermission, Message: MsgNoPermission, Cause: err}
	}
	msg := apiclient.Message(err)
	var apiErr *apiclient.Error
	if errors.As(err, &apiErr) && apiErr.ServerText != "" && apiErr.Kind != apiclient.KindUnreachable {
		msg = apiErr.ServerText
	}
	return &Error{Err: ErrLoginFailed, Message: msg, Cause: err}
}

// classifyRegister maps a failed registration request to a session error.
func classifyRegister(err error) *Error {
	e := &Error{Err: ErrRegistration, Cause: err}
	var apiErr *apiclient.Error
	if !errors.As(err, &apiErr) {
		e.Message = err.Error()
		return e
	}
	switch {
	case apiErr.Kind == apiclient.KindUnreachable:
		e.Message = apiErr.Message
	case apiErr.Kind == apiclient.KindConflict && apiErr.Field != "":
		e.Message = apiErr.Message
	case apiErr.Status == http.StatusBadRequest:
		e.Message = MsgRegisterInvalid
	case apiErr.Status == http.StatusConflict:
		e.Message = MsgRegisterExists
	case apiErr.Status == http.StatusInternalServerError:
		e.Message = MsgRegisterServer
	case apiErr.ServerText != "":
		e.Message = apiErr.ServerText
	default:
		e.Message = MsgRegisterFallback
	}
	return e
}

// classifyRecovery maps a failed password recovery request to a session error.
func classifyRecovery(err error) *Error {
	e := &Error{Err: ErrPasswordRecovery, Cause: err}
	var apiErr *apiclient.Error
	if !errors.As(err, &apiErr) {
		e.Message = err.Error()
		return e
	}
	switch {
	case apiErr.Kind == apiclient.KindUnreachable:
		e.Message = apiErr.Message
	case apiErr.Status == http.StatusNotFound:
		e.Message = MsgRecoveryNotFound
	case apiErr.Status == http.StatusBadRequest:
		e.Message = MsgRecoveryInvalid
	case apiErr.Status == http.StatusInternalServerError:
		e.Message = MsgRecoveryServer
	case apiErr.ServerText != "":
		e.Message = apiErr.ServerText
	default:
		e.Message = MsgRecoveryFallback
	}
	return e
}
