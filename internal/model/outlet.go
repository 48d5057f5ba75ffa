package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// outlets
type Outlet struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	Name    string  `gorm:"type:varchar(255);not null"`
	Address string  `gorm:"type:text;not null"`
	Phone   *string `gorm:"type:varchar(20)"`
	Active  bool    `gorm:"not null;default:true;index"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (o *Outlet) BeforeCreate(*gorm.DB) error {
	ensureID(&o.ID)
	return nil
}

// ensureID проставляет UUID, если вызывающий код его не задал.
// Генерация на стороне приложения одинаково работает в Postgres и sqlite.
func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}
