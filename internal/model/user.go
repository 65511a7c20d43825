package model

import "time"

// User represents a storefront account. Passwords are stored as given.
type User struct {
	ID        string    `json:"id" db:"id"`
	Username  string    `json:"username" db:"username"`
	Email     string    `json:"email" db:"email"`
	Password  string    `json:"-" db:"password"`
	IsAdmin   bool      `json:"isAdmin" db:"is_admin"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// Actor is the authenticated identity performing an operation.
type Actor struct {
	UserID   string
	Username string
	IsAdmin  bool
}

// SignupRequest is the payload for creating an account.
type SignupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest is the payload for logging in.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthResponse is returned by signup and login.
type AuthResponse struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}

// Anonymous reports whether no user is attached.
func (a Actor) Anonymous() bool {
	return a.UserID == ""
}

// Owns reports whether the actor placed an order for userID.
func (a Actor) Owns(userID string) bool {
	return !a.Anonymous() && a.UserID == userID
}
