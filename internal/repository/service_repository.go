package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Leganyst/salon-booking/internal/model"
)

type ServiceRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Service, error)
	Create(ctx context.Context, service *model.Service) error
	Update(ctx context.Context, service *model.Service) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, onlyActive bool) ([]model.Service, error)
	ListByOutlet(ctx context.Context, outletID uuid.UUID) ([]model.Service, error)
	// OutletIDs — филиалы, где оказывается услуга.
	OutletIDs(ctx context.Context, serviceID uuid.UUID) ([]uuid.UUID, error)
	// ReplaceOutlets заменяет набор филиалов услуги целиком.
	ReplaceOutlets(ctx context.Context, serviceID uuid.UUID, outletIDs []uuid.UUID) error
}

type GormServiceRepository struct {
	db *gorm.DB
}

func NewGormServiceRepository(db *gorm.DB) *GormServiceRepository {
	return &GormServiceRepository{db: db}
}

func (r *GormServiceRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Service, error) {
	var s model.Service
	if err := r.db.WithContext(ctx).First(&s, "id = ?", id).Error; err != nil {
		return nil, wrapFind(err, "service", id)
	}
	return &s, nil
}

func (r *GormServiceRepository) Create(ctx context.Context, service *model.Service) error {
	return r.db.WithContext(ctx).Create(service).Error
}

func (r *GormServiceRepository) Update(ctx context.Context, service *model.Service) error {
	res := updateAll(ctx, r.db, service)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notFound("service", service.ID)
	}
	return nil
}

func (r *GormServiceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&model.Service{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notFound("service", id)
	}
	return nil
}

func (r *GormServiceRepository) List(ctx context.Context, onlyActive bool) ([]model.Service, error) {
	q := r.db.WithContext(ctx).Model(&model.Service{})
	if onlyActive {
		q = q.Where("active = ?", true)
	}

	var services []model.Service
	if err := q.Order("name ASC").Find(&services).Error; err != nil {
		return nil, err
	}
	return services, nil
}

func (r *GormServiceRepository) ListByOutlet(ctx context.Context, outletID uuid.UUID) ([]model.Service, error) {
	var services []model.Service
	err := r.db.WithContext(ctx).
		Joins("JOIN service_outlets ON service_outlets.service_id = services.id").
		Where("service_outlets.outlet_id = ?", outletID).
		Order("services.name ASC").
		Find(&services).Error
	if err != nil {
		return nil, err
	}
	return services, nil
}

func (r *GormServiceRepository) OutletIDs(ctx context.Context, serviceID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&model.ServiceOutlet{}).
		Where("service_id = ?", serviceID).
		Pluck("outlet_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *GormServiceRepository) ReplaceOutlets(ctx context.Context, serviceID uuid.UUID, outletIDs []uuid.UUID) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("service_id = ?", serviceID).Delete(&model.ServiceOutlet{}).Error; err != nil {
		return err
	}
	if len(outletIDs) == 0 {
		return nil
	}

	links := make([]model.ServiceOutlet, 0, len(outletIDs))
	for _, id := range outletIDs {
		links = append(links, model.ServiceOutlet{ServiceID: serviceID, OutletID: id})
	}
	return db.Create(&links).Error
}
