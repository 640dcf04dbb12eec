package models

import "time"

type ClientStatus string

const (
	ClientStatusActive   ClientStatus = "active"
	ClientStatusInactive ClientStatus = "inactive"
	ClientStatusArchived ClientStatus = "archived"
)

func (s ClientStatus) Valid() bool {
	switch s {
	case ClientStatusActive, ClientStatusInactive, ClientStatusArchived:
		return true
	}
	return false
}

type Client struct {
	ID                  string
	OwnerID             string
	Name                string
	Email               string
	Phone               string
	Company             string
	Status              ClientStatus
	ContractValue       *float64
	ConvertedFromLeadID *string
	Notes               *string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

type ClientUpdate struct {
	Name          *string
	Email         *string
	Phone         *string
	Company       *string
	Status        *ClientStatus
	ContractValue *float64
	Notes         *string
}
