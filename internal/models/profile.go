package models

import "time"

type ProfileRole string

const (
	ProfileRoleAdmin    ProfileRole = "admin"
	ProfileRoleManager  ProfileRole = "manager"
	ProfileRoleEmployee ProfileRole = "employee"
)

// Profile carries the CRM-facing attributes of a user. It is keyed by the
// user id and fetched best-effort on every authenticated request; a request
// may proceed with a nil profile.
type Profile struct {
	UserID                 string
	Email                  string
	FullName               *string
	Role                   ProfileRole
	Department             *string
	Phone                  *string
	AvatarURL              *string
	Status                 string
	RequiresPasswordChange bool
	CreatedAt              time.Time
	UpdatedAt              time.Time
}
