package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/Leganyst/salon-booking/internal/calendar"
)

// shifts — рабочие часы сотрудника на конкретную дату, не повторяются.
type Shift struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	StaffID   uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_shifts_staff_date"`
	ShiftDate datatypes.Date `gorm:"type:date;not null;uniqueIndex:idx_shifts_staff_date"`

	StartTime calendar.Clock `gorm:"type:varchar(5);not null"`
	EndTime   calendar.Clock `gorm:"type:varchar(5);not null"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`

	Staff *Staff `gorm:"foreignKey:StaffID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (s *Shift) BeforeCreate(*gorm.DB) error {
	ensureID(&s.ID)
	return nil
}

func (s *Shift) Date() time.Time {
	return calendar.DateOf(time.Time(s.ShiftDate))
}

func (s *Shift) Window() calendar.Range {
	return calendar.Range{Start: s.StartTime, End: s.EndTime}
}

func (s *Shift) Validate() error {
	if s.StaffID == uuid.Nil {
		return fmt.Errorf("%w: shift staff is required", ErrInvalidEntity)
	}
	if time.Time(s.ShiftDate).IsZero() {
		return fmt.Errorf("%w: shift date is required", ErrInvalidEntity)
	}
	if _, err := calendar.NewRange(s.StartTime, s.EndTime); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidEntity, err)
	}
	return nil
}
