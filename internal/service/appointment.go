package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Leganyst/salon-booking/internal/calendar"
	"github.com/Leganyst/salon-booking/internal/crosscheck"
	"github.com/Leganyst/salon-booking/internal/ledger"
	"github.com/Leganyst/salon-booking/internal/lock"
	"github.com/Leganyst/salon-booking/internal/model"
	"github.com/Leganyst/salon-booking/internal/repository"
)

type AppointmentInput struct {
	CustomerID uuid.UUID
	StaffID    uuid.UUID
	ServiceID  uuid.UUID
	OutletID   uuid.UUID

	Date  time.Time
	Range calendar.Range

	PaymentMethod model.PaymentMethod
	PaymentStatus model.PaymentStatus
	CashPaid      decimal.Decimal

	Status model.AppointmentStatus
	Notes  *string
}

func (in AppointmentInput) toModel() model.Appointment {
	date := calendar.DateOf(in.Date)
	a := model.Appointment{
		CustomerID:    in.CustomerID,
		StaffID:       in.StaffID,
		ServiceID:     in.ServiceID,
		OutletID:      in.OutletID,
		StartsAt:      in.Range.Start.On(date),
		EndsAt:        in.Range.End.On(date),
		PaymentMethod: in.PaymentMethod,
		PaymentStatus: in.PaymentStatus,
		CashPaid:      in.CashPaid,
		Status:        in.Status,
		Notes:         in.Notes,
	}
	if a.PaymentStatus == "" {
		a.PaymentStatus = model.PaymentPending
	}
	if a.Status == "" {
		a.Status = model.AppointmentBooked
	}
	return a
}

// SaveAppointment создаёт (id == nil) или обновляет запись клиента.
//
// Порядок внутри транзакции: проверка конфликтов → сохранение записи →
// расчёт кредитов. Нехватка кредитов откатывает и саму запись.
func (c *Calendar) SaveAppointment(ctx context.Context, id *uuid.UUID, in AppointmentInput) (*model.Appointment, error) {
	appt := in.toModel()
	if err := appt.Validate(); err != nil {
		return nil, classify(c.logger, "save appointment", err)
	}

	keys := []string{lock.StaffKey(in.StaffID), lock.CustomerKey(in.CustomerID)}
	if id != nil {
		// старые сотрудник и клиент тоже блокируются: запись уходит из их календаря
		current, err := c.store.Appointments.GetByID(ctx, *id)
		if err != nil {
			return nil, classify(c.logger, "save appointment", err)
		}
		keys = append(keys, lock.StaffKey(current.StaffID), lock.CustomerKey(current.CustomerID))
	}

	fields := []zap.Field{
		zap.String("staff_id", in.StaffID.String()),
		zap.String("customer_id", in.CustomerID.String()),
		zap.String("date", calendar.FormatDate(in.Date)),
	}

	err := c.write(ctx, "save appointment", keys, func(tx *repository.Store) ([]*model.Event, error) {
		staff, err := tx.Staff.GetByID(ctx, in.StaffID)
		if err != nil {
			return nil, err
		}
		customer, err := tx.Customers.GetByID(ctx, in.CustomerID)
		if err != nil {
			return nil, err
		}
		svc, err := tx.Services.GetByID(ctx, in.ServiceID)
		if err != nil {
			return nil, err
		}
		if _, err := tx.Outlets.GetByID(ctx, in.OutletID); err != nil {
			return nil, err
		}

		var existing *model.Appointment
		if id != nil {
			if existing, err = tx.Appointments.GetByID(ctx, *id); err != nil {
				return nil, err
			}
		}

		err = c.validator(tx).Validate(ctx, crosscheck.Proposal{
			Kind:      crosscheck.KindAppointment,
			Staff:     staffActor(staff),
			Customer:  customerActor(customer),
			Date:      in.Date,
			Range:     in.Range,
			ExcludeID: id,
		})
		if err != nil {
			return nil, err
		}

		adjuster := ledger.NewAdjuster(tx)
		var evts []*model.Event

		previouslyPaid := 0
		if existing != nil {
			previouslyPaid = existing.CreditsPaid
			if existing.CustomerID != in.CustomerID {
				// кредиты прежнего клиента возвращаются ему, новый платит заново
				plan, err := adjuster.RefundDeleted(ctx, existing)
				if err != nil {
					return nil, err
				}
				if plan.Delta != 0 {
					evts = append(evts, creditsEvent(existing.ID, existing.StaffID, existing.CustomerID, plan))
				}
				previouslyPaid = 0
			}
		}

		appt = in.toModel()
		appt.CreditsPaid = previouslyPaid
		if existing != nil {
			appt.ID = existing.ID
			appt.CreatedAt = existing.CreatedAt
			err = tx.Appointments.Update(ctx, &appt)
		} else {
			err = tx.Appointments.Create(ctx, &appt)
		}
		if repository.IsOverlapViolation(err) {
			return nil, &crosscheck.ConflictError{
				Kind:  crosscheck.KindAppointment,
				Check: crosscheck.CheckStaffOverlap,
				With:  crosscheck.KindAppointment,
				Range: in.Range,
				Actor: staffActor(staff),
			}
		}
		if err != nil {
			return nil, err
		}

		plan, err := adjuster.Settle(ctx, &appt, svc.CreditCost, previouslyPaid, existing != nil)
		if err != nil {
			return nil, err
		}

		evtType := model.EventTypeAppointmentCreated
		if existing != nil {
			evtType = model.EventTypeAppointmentUpdated
		}
		evts = append([]*model.Event{newEvent(evtType, appt.ID, appt.StaffID, map[string]any{
			"customer_id":    appt.CustomerID,
			"service_id":     appt.ServiceID,
			"date":           calendar.FormatDate(appt.Date()),
			"start":          in.Range.Start.String(),
			"end":            in.Range.End.String(),
			"payment_method": appt.PaymentMethod,
			"credits_paid":   appt.CreditsPaid,
		})}, evts...)
		if plan.Delta != 0 {
			evts = append(evts, creditsEvent(appt.ID, appt.StaffID, appt.CustomerID, plan))
		}
		return evts, nil
	}, fields...)
	if err != nil {
		return nil, err
	}
	return &appt, nil
}

func creditsEvent(appointmentID, staffID, customerID uuid.UUID, plan ledger.Plan) *model.Event {
	details := map[string]any{
		"customer_id": customerID,
		"delta":       plan.Delta,
	}
	if plan.Entry != nil {
		details["description"] = plan.Entry.Description
	}
	return newEvent(model.EventTypeCreditsAdjusted, appointmentID, staffID, details)
}

// UpdateAppointmentStatus меняет только статус; оплата и кредиты не пересчитываются.
func (c *Calendar) UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, status model.AppointmentStatus) (*model.Appointment, error) {
	if !status.Valid() {
		return nil, invalidf("unknown appointment status %q", status)
	}

	current, err := c.store.Appointments.GetByID(ctx, id)
	if err != nil {
		return nil, classify(c.logger, "update appointment status", err)
	}

	var updated *model.Appointment
	err = c.write(ctx, "update appointment status", []string{lock.StaffKey(current.StaffID)}, func(tx *repository.Store) ([]*model.Event, error) {
		if err := tx.Appointments.UpdateStatus(ctx, id, status); err != nil {
			return nil, err
		}
		a, err := tx.Appointments.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		updated = a
		return []*model.Event{newEvent(model.EventTypeAppointmentStatusChanged, id, a.StaffID, map[string]any{
			"from": current.Status,
			"to":   status,
		})}, nil
	}, zap.String("appointment_id", id.String()))
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteAppointment удаляет запись и возвращает оплаченные кредиты.
func (c *Calendar) DeleteAppointment(ctx context.Context, id uuid.UUID) error {
	current, err := c.store.Appointments.GetByID(ctx, id)
	if err != nil {
		return classify(c.logger, "delete appointment", err)
	}

	keys := []string{lock.StaffKey(current.StaffID), lock.CustomerKey(current.CustomerID)}
	return c.write(ctx, "delete appointment", keys, func(tx *repository.Store) ([]*model.Event, error) {
		appt, err := tx.Appointments.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if err := tx.Appointments.Delete(ctx, id); err != nil {
			return nil, err
		}

		plan, err := ledger.NewAdjuster(tx).RefundDeleted(ctx, appt)
		if err != nil {
			return nil, err
		}

		evts := []*model.Event{newEvent(model.EventTypeAppointmentDeleted, id, appt.StaffID, map[string]any{
			"customer_id": appt.CustomerID,
			"date":        calendar.FormatDate(appt.Date()),
			"start":       appt.Window().Start.String(),
			"end":         appt.Window().End.String(),
		})}
		if plan.Delta != 0 {
			evts = append(evts, creditsEvent(id, appt.StaffID, appt.CustomerID, plan))
		}
		return evts, nil
	}, zap.String("appointment_id", id.String()))
}

func (c *Calendar) GetAppointment(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	a, err := c.store.Appointments.GetByID(ctx, id)
	if err != nil {
		return nil, classify(c.logger, "get appointment", err)
	}
	return a, nil
}

// ListAppointments — все записи постранично, новые сверху.
func (c *Calendar) ListAppointments(ctx context.Context, page, pageSize int) (calendar.Page[model.Appointment], error) {
	page, pageSize, offset := calendar.NormalizePage(page, pageSize)
	items, total, err := c.store.Appointments.List(ctx, pageSize, offset)
	if err != nil {
		return calendar.Page[model.Appointment]{}, classify(c.logger, "list appointments", err)
	}
	return calendar.NewPage(items, page, pageSize, int(total)), nil
}

func (c *Calendar) AppointmentsOn(ctx context.Context, scope crosscheck.Scope, date time.Time) ([]model.Appointment, error) {
	items, err := crosscheck.NewResolver(c.store).Appointments(ctx, scope, date)
	if err != nil {
		return nil, classify(c.logger, "list appointments", err)
	}
	return items, nil
}
