package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Leganyst/salon-booking/internal/model"
)

type OutletRepository interface {
	List(ctx context.Context) ([]model.Outlet, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Outlet, error)
	Create(ctx context.Context, outlet *model.Outlet) error
	// StaffIDs — сотрудники, закреплённые за филиалом.
	StaffIDs(ctx context.Context, outletID uuid.UUID) ([]uuid.UUID, error)
}

type GormOutletRepository struct {
	db *gorm.DB
}

func NewGormOutletRepository(db *gorm.DB) *GormOutletRepository {
	return &GormOutletRepository{db: db}
}

func (r *GormOutletRepository) List(ctx context.Context) ([]model.Outlet, error) {
	var outlets []model.Outlet
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&outlets).Error; err != nil {
		return nil, err
	}
	return outlets, nil
}

func (r *GormOutletRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Outlet, error) {
	var o model.Outlet
	if err := r.db.WithContext(ctx).First(&o, "id = ?", id).Error; err != nil {
		return nil, wrapFind(err, "outlet", id)
	}
	return &o, nil
}

func (r *GormOutletRepository) Create(ctx context.Context, outlet *model.Outlet) error {
	return r.db.WithContext(ctx).Create(outlet).Error
}

func (r *GormOutletRepository) StaffIDs(ctx context.Context, outletID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&model.StaffOutlet{}).
		Where("outlet_id = ?", outletID).
		Pluck("staff_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}
