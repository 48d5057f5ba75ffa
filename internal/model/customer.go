package model

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	// ErrInvalidEntity — сущность нарушает собственные инварианты.
	ErrInvalidEntity = errors.New("invalid entity")
	ErrImmutable     = errors.New("record is append-only")
)

type MembershipStatus string

const (
	MembershipActive   MembershipStatus = "Active"
	MembershipInactive MembershipStatus = "Inactive"
)

type ReminderPreference string

const (
	RemindersEmailSMS  ReminderPreference = "Email + SMS"
	RemindersSMSOnly   ReminderPreference = "SMS only"
	RemindersEmailOnly ReminderPreference = "Email only"
)

// customers
type Customer struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	FirstName string          `gorm:"type:varchar(100);not null;index"`
	LastName  string          `gorm:"type:varchar(100);not null;index"`
	Email     string          `gorm:"type:varchar(255);not null;uniqueIndex"`
	Phone     string          `gorm:"type:varchar(20);not null;index"`
	Birthday  *datatypes.Date `gorm:"type:date"`

	MembershipType   *string          `gorm:"type:varchar(50)"`
	MembershipStatus MembershipStatus `gorm:"type:varchar(16);not null;default:'Active'"`

	PreferredTherapistID *uuid.UUID `gorm:"type:uuid"`
	PreferredOutletID    *uuid.UUID `gorm:"type:uuid"`

	Allergies datatypes.JSONSlice[string]
	Reminders ReminderPreference `gorm:"type:varchar(32);not null;default:'Email + SMS'"`

	// После создания меняется только через ledger.Adjuster.
	CreditBalance int `gorm:"not null;default:0;check:chk_customers_credit_balance,credit_balance >= 0"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (c *Customer) BeforeCreate(*gorm.DB) error {
	ensureID(&c.ID)
	if c.MembershipStatus == "" {
		c.MembershipStatus = MembershipActive
	}
	if c.Reminders == "" {
		c.Reminders = RemindersEmailSMS
	}
	if c.Allergies == nil {
		c.Allergies = datatypes.JSONSlice[string]{}
	}
	return nil
}

func (c *Customer) DisplayName() string {
	return c.FirstName
}

func (c *Customer) Validate() error {
	if c.FirstName == "" || c.LastName == "" {
		return fmt.Errorf("%w: customer name is required", ErrInvalidEntity)
	}
	if c.Email == "" || c.Phone == "" {
		return fmt.Errorf("%w: customer email and phone are required", ErrInvalidEntity)
	}
	if c.CreditBalance < 0 {
		return fmt.Errorf("%w: credit balance must not be negative", ErrInvalidEntity)
	}
	return nil
}
