package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Leganyst/salon-booking/internal/calendar"
	"github.com/Leganyst/salon-booking/internal/model"
)

// AppointmentFilter сужает выборку записей за день. Пустые поля не фильтруют.
type AppointmentFilter struct {
	StaffIDs   []uuid.UUID
	CustomerID *uuid.UUID
	OutletID   *uuid.UUID
}

type AppointmentRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
	// ListByDate — записи, начинающиеся в дату date.
	ListByDate(ctx context.Context, date time.Time, filter AppointmentFilter) ([]model.Appointment, error)
	List(ctx context.Context, limit, offset int) ([]model.Appointment, int64, error)
	ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]model.Appointment, error)
	Create(ctx context.Context, appointment *model.Appointment) error
	Update(ctx context.Context, appointment *model.Appointment) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.AppointmentStatus) error
	// SetPayment сверяет оплату кредитами после работы ledger.
	SetPayment(ctx context.Context, id uuid.UUID, creditsPaid int, status model.PaymentStatus) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type GormAppointmentRepository struct {
	db *gorm.DB
}

func NewGormAppointmentRepository(db *gorm.DB) *GormAppointmentRepository {
	return &GormAppointmentRepository{db: db}
}

func (r *GormAppointmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	var a model.Appointment
	if err := r.db.WithContext(ctx).First(&a, "id = ?", id).Error; err != nil {
		return nil, wrapFind(err, "appointment", id)
	}
	return &a, nil
}

func (r *GormAppointmentRepository) ListByDate(ctx context.Context, date time.Time, filter AppointmentFilter) ([]model.Appointment, error) {
	from, to := calendar.DayBounds(date)

	q := r.db.WithContext(ctx).
		Model(&model.Appointment{}).
		Where("starts_at >= ? AND starts_at < ?", from, to)

	if filter.StaffIDs != nil {
		if len(filter.StaffIDs) == 0 {
			return []model.Appointment{}, nil
		}
		q = q.Where("staff_id IN ?", filter.StaffIDs)
	}
	if filter.CustomerID != nil {
		q = q.Where("customer_id = ?", *filter.CustomerID)
	}
	if filter.OutletID != nil {
		q = q.Where("outlet_id = ?", *filter.OutletID)
	}

	var appointments []model.Appointment
	if err := q.Order("starts_at ASC").Find(&appointments).Error; err != nil {
		return nil, err
	}
	return appointments, nil
}

func (r *GormAppointmentRepository) List(ctx context.Context, limit, offset int) ([]model.Appointment, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Appointment{})

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if limit > 0 {
		q = q.Limit(limit).Offset(offset)
	}

	var appointments []model.Appointment
	if err := q.Order("starts_at DESC").Find(&appointments).Error; err != nil {
		return nil, 0, err
	}
	return appointments, total, nil
}

func (r *GormAppointmentRepository) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]model.Appointment, error) {
	var appointments []model.Appointment
	err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("starts_at DESC").
		Find(&appointments).Error
	if err != nil {
		return nil, err
	}
	return appointments, nil
}

func (r *GormAppointmentRepository) Create(ctx context.Context, appointment *model.Appointment) error {
	return r.db.WithContext(ctx).Create(appointment).Error
}

func (r *GormAppointmentRepository) Update(ctx context.Context, appointment *model.Appointment) error {
	res := updateAll(ctx, r.db, appointment)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notFound("appointment", appointment.ID)
	}
	return nil
}

func (r *GormAppointmentRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.AppointmentStatus) error {
	res := r.db.WithContext(ctx).
		Model(&model.Appointment{}).
		Where("id = ?", id).
		Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notFound("appointment", id)
	}
	return nil
}

func (r *GormAppointmentRepository) SetPayment(ctx context.Context, id uuid.UUID, creditsPaid int, status model.PaymentStatus) error {
	res := r.db.WithContext(ctx).
		Model(&model.Appointment{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"credits_paid":   creditsPaid,
			"payment_status": status,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notFound("appointment", id)
	}
	return nil
}

func (r *GormAppointmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&model.Appointment{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notFound("appointment", id)
	}
	return nil
}
