package dto

import "github.com/golang-jwt/jwt/v5"

// Access levels carried in staff tokens.
const (
	AccessStaff   = "staff"
	AccessManager = "manager"
)

// StaffClaims are issued by the external sign-in service and only verified here.
type StaffClaims struct {
	StaffID      string `json:"staff_id"`
	RestaurantID string `json:"restaurant_id"`
	RoleID       string `json:"role_id"`
	Access       string `json:"access"` // "staff" or "manager"
	jwt.RegisteredClaims
}

// IsManager reports whether the token grants management operations.
func (c *StaffClaims) IsManager() bool {
	return c.Access == AccessManager
}

// AttemptClaims back the opaque attempt token handed out at attempt start.
type AttemptClaims struct {
	SessionID    string `json:"sid"`
	StaffID      string `json:"staff_id"`
	QuizID       string `json:"quiz_id"`
	RestaurantID string `json:"restaurant_id"`
	jwt.RegisteredClaims
}
