package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Leganyst/salon-booking/internal/model"
)

type BlockedTimeRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.BlockedTime, error)
	// ListByStaff — все блокировки сотрудников, активность на дату решает вызывающий.
	ListByStaff(ctx context.Context, staffIDs ...uuid.UUID) ([]model.BlockedTime, error)
	Create(ctx context.Context, blockedTime *model.BlockedTime) error
	Update(ctx context.Context, blockedTime *model.BlockedTime) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type GormBlockedTimeRepository struct {
	db *gorm.DB
}

func NewGormBlockedTimeRepository(db *gorm.DB) *GormBlockedTimeRepository {
	return &GormBlockedTimeRepository{db: db}
}

func (r *GormBlockedTimeRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.BlockedTime, error) {
	var t model.BlockedTime
	if err := r.db.WithContext(ctx).First(&t, "id = ?", id).Error; err != nil {
		return nil, wrapFind(err, "blocked time", id)
	}
	return &t, nil
}

func (r *GormBlockedTimeRepository) ListByStaff(ctx context.Context, staffIDs ...uuid.UUID) ([]model.BlockedTime, error) {
	if len(staffIDs) == 0 {
		return []model.BlockedTime{}, nil
	}

	var blockedTimes []model.BlockedTime
	err := r.db.WithContext(ctx).
		Where("staff_id IN ?", staffIDs).
		Order("start_date ASC, from_time ASC").
		Find(&blockedTimes).Error
	if err != nil {
		return nil, err
	}
	return blockedTimes, nil
}

func (r *GormBlockedTimeRepository) Create(ctx context.Context, blockedTime *model.BlockedTime) error {
	return r.db.WithContext(ctx).Create(blockedTime).Error
}

func (r *GormBlockedTimeRepository) Update(ctx context.Context, blockedTime *model.BlockedTime) error {
	res := updateAll(ctx, r.db, blockedTime)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notFound("blocked time", blockedTime.ID)
	}
	return nil
}

func (r *GormBlockedTimeRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&model.BlockedTime{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notFound("blocked time", id)
	}
	return nil
}
