package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	ProjectStatusPlanned = "planned"
	ProjectStatusActive  = "active"
	ProjectStatusOnHold  = "on_hold"
	ProjectStatusDone    = "done"
)

const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

type Project struct {
	ID          uuid.UUID
	AuthorID    uuid.UUID
	Name        string
	Description string
	Status      string
	Priority    string
	Progress    int32
	DueDate     *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
