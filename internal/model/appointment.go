package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Leganyst/salon-booking/internal/calendar"
)

type AppointmentStatus string

const (
	AppointmentBooked     AppointmentStatus = "Booked"
	AppointmentConfirmed  AppointmentStatus = "Confirmed"
	AppointmentReschedule AppointmentStatus = "Reschedule"
	AppointmentNoShow     AppointmentStatus = "No show"
	AppointmentCancelled  AppointmentStatus = "Cancelled"
)

func (s AppointmentStatus) Valid() bool {
	switch s {
	case AppointmentBooked, AppointmentConfirmed, AppointmentReschedule, AppointmentNoShow, AppointmentCancelled:
		return true
	}
	return false
}

type PaymentMethod string

const (
	PaymentCredits PaymentMethod = "Credits"
	PaymentCard    PaymentMethod = "Card"
	PaymentCash    PaymentMethod = "Cash"
)

func (m PaymentMethod) Valid() bool {
	return m == PaymentCredits || m == PaymentCard || m == PaymentCash
}

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "Pending"
	PaymentPaid     PaymentStatus = "Paid"
	PaymentFailed   PaymentStatus = "Failed"
	PaymentRefunded PaymentStatus = "Refunded"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentPaid, PaymentFailed, PaymentRefunded:
		return true
	}
	return false
}

// appointments
//
// StartsAt/EndsAt — настенное время бизнес-зоны, хранится без часового пояса.
type Appointment struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	CustomerID uuid.UUID `gorm:"type:uuid;not null;index"`
	StaffID    uuid.UUID `gorm:"type:uuid;not null;index:idx_appointments_staff_start"`
	ServiceID  uuid.UUID `gorm:"type:uuid;not null;index"`
	OutletID   uuid.UUID `gorm:"type:uuid;not null;index"`

	StartsAt time.Time `gorm:"type:timestamp;not null;index:idx_appointments_staff_start;index"`
	EndsAt   time.Time `gorm:"type:timestamp;not null"`

	PaymentMethod PaymentMethod   `gorm:"type:varchar(16);not null"`
	PaymentStatus PaymentStatus   `gorm:"type:varchar(16);not null"`
	CreditsPaid   int             `gorm:"not null;default:0;check:chk_appointments_credits_paid,credits_paid >= 0"`
	CashPaid      decimal.Decimal `gorm:"type:numeric(10,2);not null;default:0"`

	Status AppointmentStatus `gorm:"type:varchar(16);not null;index"`
	Notes  *string           `gorm:"type:text"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`

	Customer *Customer `gorm:"foreignKey:CustomerID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	Staff    *Staff    `gorm:"foreignKey:StaffID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	Service  *Service  `gorm:"foreignKey:ServiceID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	Outlet   *Outlet   `gorm:"foreignKey:OutletID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
}

func (a *Appointment) BeforeCreate(*gorm.DB) error {
	ensureID(&a.ID)
	return nil
}

// AfterFind приводит время к UTC: драйверы могут вернуть timestamp в локальной зоне процесса.
func (a *Appointment) AfterFind(*gorm.DB) error {
	a.StartsAt = wallClock(a.StartsAt)
	a.EndsAt = wallClock(a.EndsAt)
	return nil
}

func (a *Appointment) Date() time.Time {
	return calendar.DateOf(a.StartsAt)
}

func (a *Appointment) Window() calendar.Range {
	return calendar.Range{Start: calendar.ClockOf(a.StartsAt), End: calendar.ClockOf(a.EndsAt)}
}

func (a *Appointment) Validate() error {
	if a.CustomerID == uuid.Nil || a.StaffID == uuid.Nil || a.ServiceID == uuid.Nil || a.OutletID == uuid.Nil {
		return fmt.Errorf("%w: appointment needs customer, staff, service and outlet", ErrInvalidEntity)
	}
	if !calendar.SameDate(a.StartsAt, a.EndsAt) {
		return fmt.Errorf("%w: appointment must start and end on the same date", ErrInvalidEntity)
	}
	if _, err := calendar.NewRange(calendar.ClockOf(a.StartsAt), calendar.ClockOf(a.EndsAt)); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidEntity, err)
	}
	if !a.PaymentMethod.Valid() {
		return fmt.Errorf("%w: unknown payment method %q", ErrInvalidEntity, a.PaymentMethod)
	}
	if !a.PaymentStatus.Valid() {
		return fmt.Errorf("%w: unknown payment status %q", ErrInvalidEntity, a.PaymentStatus)
	}
	if !a.Status.Valid() {
		return fmt.Errorf("%w: unknown appointment status %q", ErrInvalidEntity, a.Status)
	}
	if a.CreditsPaid < 0 || a.CashPaid.IsNegative() {
		return fmt.Errorf("%w: payments must not be negative", ErrInvalidEntity)
	}
	if !a.CashPaid.Equal(a.CashPaid.Round(2)) {
		return fmt.Errorf("%w: cash paid allows at most two decimal places", ErrInvalidEntity)
	}
	return nil
}

// wallClock переносит показания часов в UTC без пересчёта.
func wallClock(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

// WallClock — то же для входных данных API.
func WallClock(t time.Time) time.Time {
	return wallClock(t.Truncate(time.Minute))
}
