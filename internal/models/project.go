package models

import "time"

type ProjectStatus string

const (
	ProjectStatusPlanning   ProjectStatus = "planning"
	ProjectStatusInProgress ProjectStatus = "in_progress"
	ProjectStatusOnHold     ProjectStatus = "on_hold"
	ProjectStatusCompleted  ProjectStatus = "completed"
)

func (s ProjectStatus) Valid() bool {
	switch s {
	case ProjectStatusPlanning, ProjectStatusInProgress, ProjectStatusOnHold, ProjectStatusCompleted:
		return true
	}
	return false
}

type Project struct {
	ID          string
	OwnerID     string
	ClientID    *string
	Name        string
	Description *string
	Status      ProjectStatus
	Budget      *float64
	Spent       *float64
	StartDate   *time.Time
	EndDate     *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type ProjectUpdate struct {
	ClientID    *string
	Name        *string
	Description *string
	Status      *ProjectStatus
	Budget      *float64
	Spent       *float64
	StartDate   *time.Time
	EndDate     *time.Time
}
