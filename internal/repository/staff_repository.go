package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Leganyst/salon-booking/internal/model"
)

type StaffRepository interface {
	List(ctx context.Context) ([]model.Staff, error)
	ListByOutlet(ctx context.Context, outletID uuid.UUID) ([]model.Staff, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Staff, error)
	Create(ctx context.Context, staff *model.Staff) error
	Update(ctx context.Context, staff *model.Staff) error
	Delete(ctx context.Context, id uuid.UUID) error
	Stats(ctx context.Context) (model.StaffStats, error)
	// AssignOutlets добавляет привязки к филиалам (существующие не трогает).
	AssignOutlets(ctx context.Context, staffID uuid.UUID, outletIDs ...uuid.UUID) error
	// ReplaceOutlets заменяет набор филиалов сотрудника целиком.
	ReplaceOutlets(ctx context.Context, staffID uuid.UUID, outletIDs []uuid.UUID) error
	OutletIDs(ctx context.Context, staffID uuid.UUID) ([]uuid.UUID, error)
}

type GormStaffRepository struct {
	db *gorm.DB
}

func NewGormStaffRepository(db *gorm.DB) *GormStaffRepository {
	return &GormStaffRepository{db: db}
}

func (r *GormStaffRepository) List(ctx context.Context) ([]model.Staff, error) {
	var staff []model.Staff
	err := r.db.WithContext(ctx).
		Order("first_name ASC, last_name ASC").
		Find(&staff).Error
	if err != nil {
		return nil, err
	}
	return staff, nil
}

func (r *GormStaffRepository) ListByOutlet(ctx context.Context, outletID uuid.UUID) ([]model.Staff, error) {
	var staff []model.Staff
	err := r.db.WithContext(ctx).
		Joins("JOIN staff_outlets ON staff_outlets.staff_id = staffs.id").
		Where("staff_outlets.outlet_id = ?", outletID).
		Order("staffs.first_name ASC, staffs.last_name ASC").
		Find(&staff).Error
	if err != nil {
		return nil, err
	}
	return staff, nil
}

func (r *GormStaffRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Staff, error) {
	var s model.Staff
	if err := r.db.WithContext(ctx).First(&s, "id = ?", id).Error; err != nil {
		return nil, wrapFind(err, "staff", id)
	}
	return &s, nil
}

func (r *GormStaffRepository) Create(ctx context.Context, staff *model.Staff) error {
	return r.db.WithContext(ctx).Create(staff).Error
}

func (r *GormStaffRepository) Update(ctx context.Context, staff *model.Staff) error {
	res := updateAll(ctx, r.db, staff)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notFound("staff", staff.ID)
	}
	return nil
}

func (r *GormStaffRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&model.Staff{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notFound("staff", id)
	}
	return nil
}

func (r *GormStaffRepository) Stats(ctx context.Context) (model.StaffStats, error) {
	var stats model.StaffStats
	err := r.db.WithContext(ctx).
		Model(&model.Staff{}).
		Select(
			"COUNT(*) AS total, " +
				"COALESCE(SUM(CASE WHEN active THEN 1 ELSE 0 END), 0) AS active, " +
				"COALESCE(SUM(CASE WHEN bookable THEN 1 ELSE 0 END), 0) AS bookable",
		).
		Scan(&stats).Error
	return stats, err
}

func (r *GormStaffRepository) AssignOutlets(ctx context.Context, staffID uuid.UUID, outletIDs ...uuid.UUID) error {
	if len(outletIDs) == 0 {
		return nil
	}
	links := make([]model.StaffOutlet, 0, len(outletIDs))
	for _, id := range outletIDs {
		links = append(links, model.StaffOutlet{StaffID: staffID, OutletID: id})
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&links).Error
}

func (r *GormStaffRepository) ReplaceOutlets(ctx context.Context, staffID uuid.UUID, outletIDs []uuid.UUID) error {
	if err := r.db.WithContext(ctx).Where("staff_id = ?", staffID).Delete(&model.StaffOutlet{}).Error; err != nil {
		return err
	}
	return r.AssignOutlets(ctx, staffID, outletIDs...)
}

func (r *GormStaffRepository) OutletIDs(ctx context.Context, staffID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&model.StaffOutlet{}).
		Where("staff_id = ?", staffID).
		Pluck("outlet_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}
