package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Тип события аудита.
type EventType string

const (
	EventTypeAppointmentCreated       EventType = "appointment_created"
	EventTypeAppointmentUpdated       EventType = "appointment_updated"
	EventTypeAppointmentDeleted       EventType = "appointment_deleted"
	EventTypeAppointmentStatusChanged EventType = "appointment_status_changed"
	EventTypeShiftSaved               EventType = "shift_saved"
	EventTypeShiftDeleted             EventType = "shift_deleted"
	EventTypeTimeOffSaved             EventType = "time_off_saved"
	EventTypeTimeOffDeleted           EventType = "time_off_deleted"
	EventTypeBlockedTimeSaved         EventType = "blocked_time_saved"
	EventTypeBlockedTimeDeleted       EventType = "blocked_time_deleted"
	EventTypeCreditsAdjusted          EventType = "credits_adjusted"
)

// events — события аудита, пишутся в той же транзакции, что и изменение.
type Event struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	EventType EventType `gorm:"type:varchar(64);not null;index"`

	CreatedAt time.Time `gorm:"not null;index"`

	EntityID *uuid.UUID `gorm:"type:uuid;index"`
	StaffID  *uuid.UUID `gorm:"type:uuid;index"`
	// оператор, от имени которого сделано изменение; nil без авторизации
	ActorID  *uuid.UUID `gorm:"type:uuid;index"`

	Details datatypes.JSON
}

func (e *Event) BeforeCreate(*gorm.DB) error {
	ensureID(&e.ID)
	return nil
}
