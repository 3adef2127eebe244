// Package model defines the data structures used throughout the application.
package model

import "time"

// User represents a registered account.
//
// Registration is email + password: the password is stored only as a bcrypt
// hash, and the account stays unusable until the email is verified. The
// verification token is a single-use uuid with a 24-hour expiry; both the
// token and its expiry are NULLed out on successful verification, which is
// what makes the token single-use.
//
// WHY POINTER FIELDS FOR THE TOKEN?
// VerificationToken and VerificationExpires are nullable in the database
// (NULL once the account is verified). A *string/*time.Time maps cleanly to
// NULL — the zero value of a plain string ("") would be ambiguous with a
// real, empty token.
//
// The `json:"-"` tags keep the hash and the token out of every API
// response; PublicProfile is the only user shape handlers return.
type User struct {
	ID                  string     `json:"id"`
	FirstName           string     `json:"firstName"`
	LastName            string     `json:"lastName"`
	Email               string     `json:"email"` // unique, stored lowercased
	PasswordHash        string     `json:"-"`
	EmailVerified       bool       `json:"-"`
	VerificationToken   *string    `json:"-"`
	VerificationExpires *time.Time `json:"-"`
	CreatedAt           time.Time  `json:"createdAt"`
	UpdatedAt           time.Time  `json:"updatedAt"`
}

// PublicProfile is the user shape returned by the API (e.g. the login
// response). It deliberately carries no credential material.
type PublicProfile struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
}

// Public returns the API-safe view of the user.
func (u *User) Public() PublicProfile {
	return PublicProfile{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
	}
}
