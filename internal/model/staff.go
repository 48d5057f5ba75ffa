package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// staffs
type Staff struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	FirstName string `gorm:"type:varchar(100);not null"`
	LastName  string `gorm:"type:varchar(100);not null"`
	Email     string `gorm:"type:varchar(255);not null;uniqueIndex"`
	Phone     string `gorm:"type:varchar(20);not null"`
	Role      string `gorm:"type:varchar(100);not null"`

	// Фильтры календаря.
	Bookable bool `gorm:"not null;default:true;index"`
	Active   bool `gorm:"not null;default:true;index"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (Staff) TableName() string { return "staffs" }

func (s *Staff) BeforeCreate(*gorm.DB) error {
	ensureID(&s.ID)
	return nil
}

// DisplayName — имя, которое попадает в сообщения о конфликтах.
func (s *Staff) DisplayName() string {
	return s.FirstName
}

// staff_outlets — в каких филиалах работает сотрудник (комбинированный PK).
type StaffOutlet struct {
	StaffID  uuid.UUID `gorm:"type:uuid;primaryKey"`
	OutletID uuid.UUID `gorm:"type:uuid;primaryKey;index"`

	Staff  *Staff  `gorm:"foreignKey:StaffID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Outlet *Outlet `gorm:"foreignKey:OutletID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// StaffStats — агрегаты для экрана персонала.
type StaffStats struct {
	Total    int64 `json:"total"`
	Active   int64 `json:"active"`
	Bookable int64 `json:"bookable"`
}
