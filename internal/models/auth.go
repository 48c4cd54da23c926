package models

import "github.com/golang-jwt/jwt/v5"

// APIRole names the access level carried by an API token.
type APIRole string

const (
	RoleAdmin     APIRole = "ADMIN"
	RoleScheduler APIRole = "SCHEDULER"
	RoleViewer    APIRole = "VIEWER"
)

// APIClaims represents the JWT payload for access tokens.
type APIClaims struct {
	UserID   string  `json:"user_id"`
	Role     APIRole `json:"role"`
	Email    string  `json:"email"`
	FullName string  `json:"full_name"`
	jwt.RegisteredClaims
}
