package types

import "strings"

// User is an account of the admin application. Email, Code and IDCard are
// each unique across users.
type User struct {
	ID        int64  `json:"id,omitempty"`
	IDCard    string `json:"idCard"`
	Code      string `json:"code"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Role      string `json:"role,omitempty"`
	Avatar    string `json:"avatar,omitempty"`
}

// RecordID returns the server-assigned ID.
func (u User) RecordID() int64 { return u.ID }

// Check reports ErrInvalidRecord when the user lacks its ID or email.
func (u User) Check() error {
	if u.ID <= 0 || u.Email == "" {
		return ErrInvalidRecord
	}
	return nil
}

// FullName joins first and last name.
func (u User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// Field returns the value of the named JSON field.
func (u User) Field(name string) any {
	switch name {
	case "id":
		return u.ID
	case "idCard":
		return u.IDCard
	case "code":
		return u.Code
	case "firstName":
		return u.FirstName
	case "lastName":
		return u.LastName
	case "fullName":
		return u.FullName()
	case "email":
		return u.Email
	case "phone":
		return u.Phone
	case "role":
		return u.Role
	default:
		return nil
	}
}

// Credentials are the login form values.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// PasswordRecovery asks the server to mail a password reset link.
type PasswordRecovery struct {
	Email string `json:"email"`
}

// LoginResponse is returned by the login endpoint.
type LoginResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

// Registration is the sign-up payload. Phone is always sent, empty when unset.
type Registration struct {
	IDCard    string `json:"idCard"`
	Code      string `json:"code"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Password  string `json:"password"`
}

// Normalize trims every field except the password and lower-cases the email.
func (r Registration) Normalize() Registration {
	return Registration{
		IDCard:    strings.TrimSpace(r.IDCard),
		Code:      strings.TrimSpace(r.Code),
		FirstName: strings.TrimSpace(r.FirstName),
		LastName:  strings.TrimSpace(r.LastName),
		Email:     strings.ToLower(strings.TrimSpace(r.Email)),
		Phone:     strings.TrimSpace(r.Phone),
		Password:  r.Password,
	}
}

// ProfileUpdate carries the editable profile fields of a user.
type ProfileUpdate struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone"`
	Avatar    string `json:"avatar,omitempty"`
}

// Normalize trims the fields and lower-cases the email.
func (p ProfileUpdate) Normalize() ProfileUpdate {
	return ProfileUpdate{
		FirstName: strings.TrimSpace(p.FirstName),
		LastName:  strings.TrimSpace(p.LastName),
		Email:     strings.ToLower(strings.TrimSpace(p.Email)),
		Phone:     strings.TrimSpace(p.Phone),
		Avatar:    p.Avatar,
	}
}
