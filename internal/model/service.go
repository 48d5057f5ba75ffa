package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PriceType string

const (
	PriceTypeFixed PriceType = "Fixed"
	PriceTypeFree  PriceType = "Free"
)

// services
type Service struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	Name        string `gorm:"type:varchar(255);not null"`
	Description string `gorm:"type:text"`

	// В минутах.
	DurationMin int `gorm:"not null;check:chk_services_duration,duration_min > 0"`

	PriceType  PriceType       `gorm:"type:varchar(16);not null"`
	CreditCost int             `gorm:"not null;default:0;check:chk_services_credit_cost,credit_cost >= 0"`
	CashPrice  decimal.Decimal `gorm:"type:numeric(10,2);not null;default:0"`

	Active         bool `gorm:"not null;default:true;index"`
	OnlineBookings bool `gorm:"not null;default:false"`
	Commissions    bool `gorm:"not null;default:false"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (s *Service) BeforeCreate(*gorm.DB) error {
	ensureID(&s.ID)
	return nil
}

func (s *Service) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("%w: service name is required", ErrInvalidEntity)
	}
	if s.DurationMin <= 0 {
		return fmt.Errorf("%w: service duration must be positive", ErrInvalidEntity)
	}
	if s.PriceType != PriceTypeFixed && s.PriceType != PriceTypeFree {
		return fmt.Errorf("%w: unknown price type %q", ErrInvalidEntity, s.PriceType)
	}
	if s.CreditCost < 0 || s.CashPrice.IsNegative() {
		return fmt.Errorf("%w: service prices must not be negative", ErrInvalidEntity)
	}
	return nil
}

// service_outlets — кастомная join-таблица многие-ко-многим.
type ServiceOutlet struct {
	ServiceID uuid.UUID `gorm:"type:uuid;primaryKey"`
	OutletID  uuid.UUID `gorm:"type:uuid;primaryKey;index"`

	Service *Service `gorm:"foreignKey:ServiceID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Outlet  *Outlet  `gorm:"foreignKey:OutletID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}
