package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Leganyst/salon-booking/internal/model"
)

// CreditTransactionRepository — журнал только на вставку, обновлений и удалений нет.
type CreditTransactionRepository interface {
	Create(ctx context.Context, tx *model.CreditTransaction) error
	ListByCustomer(ctx context.Context, customerID uuid.UUID, limit, offset int) ([]model.CreditTransaction, int64, error)
	ListByAppointment(ctx context.Context, appointmentID uuid.UUID) ([]model.CreditTransaction, error)
}

type GormCreditTransactionRepository struct {
	db *gorm.DB
}

func NewGormCreditTransactionRepository(db *gorm.DB) *GormCreditTransactionRepository {
	return &GormCreditTransactionRepository{db: db}
}

func (r *GormCreditTransactionRepository) Create(ctx context.Context, tx *model.CreditTransaction) error {
	return r.db.WithContext(ctx).Create(tx).Error
}

func (r *GormCreditTransactionRepository) ListByCustomer(
	ctx context.Context,
	customerID uuid.UUID,
	limit, offset int,
) ([]model.CreditTransaction, int64, error) {
	q := r.db.WithContext(ctx).
		Model(&model.CreditTransaction{}).
		Where("customer_id = ?", customerID)

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if limit > 0 {
		q = q.Limit(limit).Offset(offset)
	}

	var items []model.CreditTransaction
	if err := q.Order("created_at DESC").Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *GormCreditTransactionRepository) ListByAppointment(ctx context.Context, appointmentID uuid.UUID) ([]model.CreditTransaction, error) {
	var items []model.CreditTransaction
	err := r.db.WithContext(ctx).
		Where("appointment_id = ?", appointmentID).
		Order("created_at ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}
