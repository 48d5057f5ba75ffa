package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Leganyst/salon-booking/internal/model"
)

type TimeOffRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.TimeOff, error)
	// ListByStaff — все отгулы сотрудников, активность на дату решает вызывающий.
	ListByStaff(ctx context.Context, staffIDs ...uuid.UUID) ([]model.TimeOff, error)
	Create(ctx context.Context, timeOff *model.TimeOff) error
	Update(ctx context.Context, timeOff *model.TimeOff) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type GormTimeOffRepository struct {
	db *gorm.DB
}

func NewGormTimeOffRepository(db *gorm.DB) *GormTimeOffRepository {
	return &GormTimeOffRepository{db: db}
}

func (r *GormTimeOffRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.TimeOff, error) {
	var t model.TimeOff
	if err := r.db.WithContext(ctx).First(&t, "id = ?", id).Error; err != nil {
		return nil, wrapFind(err, "time off", id)
	}
	return &t, nil
}

func (r *GormTimeOffRepository) ListByStaff(ctx context.Context, staffIDs ...uuid.UUID) ([]model.TimeOff, error) {
	if len(staffIDs) == 0 {
		return []model.TimeOff{}, nil
	}

	var timeOffs []model.TimeOff
	err := r.db.WithContext(ctx).
		Where("staff_id IN ?", staffIDs).
		Order("start_date ASC, start_time ASC").
		Find(&timeOffs).Error
	if err != nil {
		return nil, err
	}
	return timeOffs, nil
}

func (r *GormTimeOffRepository) Create(ctx context.Context, timeOff *model.TimeOff) error {
	return r.db.WithContext(ctx).Create(timeOff).Error
}

func (r *GormTimeOffRepository) Update(ctx context.Context, timeOff *model.TimeOff) error {
	res := updateAll(ctx, r.db, timeOff)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notFound("time off", timeOff.ID)
	}
	return nil
}

func (r *GormTimeOffRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&model.TimeOff{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notFound("time off", id)
	}
	return nil
}
