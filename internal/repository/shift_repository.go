package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Leganyst/salon-booking/internal/calendar"
	"github.com/Leganyst/salon-booking/internal/model"
)

type ShiftRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Shift, error)
	// FindByStaffAndDate возвращает nil без ошибки, если смены нет.
	FindByStaffAndDate(ctx context.Context, staffID uuid.UUID, date time.Time) (*model.Shift, error)
	ListByDate(ctx context.Context, date time.Time, staffIDs ...uuid.UUID) ([]model.Shift, error)
	// Upsert создаёт смену или перезаписывает часы существующей на (staff, date).
	Upsert(ctx context.Context, shift *model.Shift) error
	Update(ctx context.Context, shift *model.Shift) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type GormShiftRepository struct {
	db *gorm.DB
}

func NewGormShiftRepository(db *gorm.DB) *GormShiftRepository {
	return &GormShiftRepository{db: db}
}

func (r *GormShiftRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Shift, error) {
	var s model.Shift
	if err := r.db.WithContext(ctx).First(&s, "id = ?", id).Error; err != nil {
		return nil, wrapFind(err, "shift", id)
	}
	return &s, nil
}

func (r *GormShiftRepository) FindByStaffAndDate(ctx context.Context, staffID uuid.UUID, date time.Time) (*model.Shift, error) {
	var s model.Shift
	err := r.db.WithContext(ctx).
		Where("staff_id = ? AND shift_date = ?", staffID, datatypes.Date(calendar.DateOf(date))).
		First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *GormShiftRepository) ListByDate(ctx context.Context, date time.Time, staffIDs ...uuid.UUID) ([]model.Shift, error) {
	if len(staffIDs) == 0 {
		return []model.Shift{}, nil
	}

	var shifts []model.Shift
	err := r.db.WithContext(ctx).
		Where("staff_id IN ? AND shift_date = ?", staffIDs, datatypes.Date(calendar.DateOf(date))).
		Order("start_time ASC").
		Find(&shifts).Error
	if err != nil {
		return nil, err
	}
	return shifts, nil
}

func (r *GormShiftRepository) Upsert(ctx context.Context, shift *model.Shift) error {
	shift.ShiftDate = datatypes.Date(calendar.DateOf(time.Time(shift.ShiftDate)))

	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "staff_id"}, {Name: "shift_date"}},
			DoUpdates: clause.AssignmentColumns([]string{"start_time", "end_time", "updated_at"}),
		}).
		Create(shift).Error
	if err != nil {
		return err
	}

	// При конфликте строка осталась со своим id — перечитываем.
	stored, err := r.FindByStaffAndDate(ctx, shift.StaffID, time.Time(shift.ShiftDate))
	if err != nil {
		return err
	}
	if stored != nil {
		*shift = *stored
	}
	return nil
}

func (r *GormShiftRepository) Update(ctx context.Context, shift *model.Shift) error {
	shift.ShiftDate = datatypes.Date(calendar.DateOf(time.Time(shift.ShiftDate)))

	res := updateAll(ctx, r.db, shift)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notFound("shift", shift.ID)
	}
	return nil
}

func (r *GormShiftRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&model.Shift{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notFound("shift", id)
	}
	return nil
}
