package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CreditTransactionType string

const (
	CreditUsage      CreditTransactionType = "usage"
	CreditRefund     CreditTransactionType = "refund"
	// ручная правка баланса администратором
	CreditAdjustment CreditTransactionType = "adjustment"
)

// credit_transactions — журнал изменений баланса, только вставка.
type CreditTransaction struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	CustomerID uuid.UUID `gorm:"type:uuid;not null;index"`

	// Без внешнего ключа: запись о возврате переживает удалённую запись.
	AppointmentID *uuid.UUID `gorm:"type:uuid;index"`

	// > 0 — начисление, < 0 — списание.
	Amount      int                   `gorm:"not null"`
	Type        CreditTransactionType `gorm:"type:varchar(16);not null"`
	Description string                `gorm:"type:text"`

	CreatedAt time.Time `gorm:"not null;index"`

	Customer *Customer `gorm:"foreignKey:CustomerID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (c *CreditTransaction) BeforeCreate(*gorm.DB) error {
	ensureID(&c.ID)
	return nil
}

func (*CreditTransaction) BeforeUpdate(*gorm.DB) error {
	return ErrImmutable
}
