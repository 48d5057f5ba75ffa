package crosscheck

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Leganyst/salon-booking/internal/calendar"
	"github.com/Leganyst/salon-booking/internal/model"
	"github.com/Leganyst/salon-booking/internal/repository"
)

// Scope — чья занятость нужна: одного сотрудника или всех сотрудников филиала.
// Ровно одно из полей должно быть заполнено.
type Scope struct {
	StaffID  *uuid.UUID
	OutletID *uuid.UUID
}

func StaffScope(id uuid.UUID) Scope  { return Scope{StaffID: &id} }
func OutletScope(id uuid.UUID) Scope { return Scope{OutletID: &id} }

// Resolver отвечает на вопрос "что активно в дату D" для сотрудника или филиала.
type Resolver struct {
	store *repository.Store
}

func NewResolver(store *repository.Store) *Resolver {
	return &Resolver{store: store}
}

// StaffIDs раскрывает scope в список сотрудников. Филиал без сотрудников — пустой список.
func (r *Resolver) StaffIDs(ctx context.Context, scope Scope) ([]uuid.UUID, error) {
	switch {
	case scope.StaffID != nil && scope.OutletID == nil:
		return []uuid.UUID{*scope.StaffID}, nil
	case scope.OutletID != nil && scope.StaffID == nil:
		if _, err := r.store.Outlets.GetByID(ctx, *scope.OutletID); err != nil {
			return nil, err
		}
		ids, err := r.store.Outlets.StaffIDs(ctx, *scope.OutletID)
		if err != nil {
			return nil, fmt.Errorf("outlet staff: %w", err)
		}
		return ids, nil
	default:
		return nil, fmt.Errorf("%w: scope needs exactly one of staff or outlet", ErrInvalidProposal)
	}
}

// Appointments — записи в дату. Для филиала берутся записи, оформленные в этом
// филиале, а не все записи его сотрудников.
func (r *Resolver) Appointments(ctx context.Context, scope Scope, date time.Time) ([]model.Appointment, error) {
	if scope.OutletID != nil && scope.StaffID == nil {
		if _, err := r.store.Outlets.GetByID(ctx, *scope.OutletID); err != nil {
			return nil, err
		}
		return r.store.Appointments.ListByDate(ctx, date, repository.AppointmentFilter{OutletID: scope.OutletID})
	}

	ids, err := r.StaffIDs(ctx, scope)
	if err != nil {
		return nil, err
	}
	return r.store.Appointments.ListByDate(ctx, date, repository.AppointmentFilter{StaffIDs: ids})
}

func (r *Resolver) BlockedTimes(ctx context.Context, scope Scope, date time.Time) ([]model.BlockedTime, error) {
	ids, err := r.StaffIDs(ctx, scope)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []model.BlockedTime{}, nil
	}
	items, err := r.store.BlockedTimes.ListByStaff(ctx, ids...)
	if err != nil {
		return nil, err
	}
	return ActiveBlockedTimes(items, date), nil
}

func (r *Resolver) TimeOffs(ctx context.Context, scope Scope, date time.Time) ([]model.TimeOff, error) {
	ids, err := r.StaffIDs(ctx, scope)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []model.TimeOff{}, nil
	}
	items, err := r.store.TimeOffs.ListByStaff(ctx, ids...)
	if err != nil {
		return nil, err
	}
	return ActiveTimeOffs(items, date), nil
}

func (r *Resolver) Shifts(ctx context.Context, scope Scope, date time.Time) ([]model.Shift, error) {
	ids, err := r.StaffIDs(ctx, scope)
	if err != nil {
		return nil, err
	}
	return r.store.Shifts.ListByDate(ctx, date, ids...)
}

// Occurrences — занятость вида kind в дату date, без привязки к сущностям.
func (r *Resolver) Occurrences(ctx context.Context, kind Kind, scope Scope, date time.Time) ([]Occurrence, error) {
	var src Source
	switch kind {
	case KindAppointment:
		appointments, err := r.Appointments(ctx, scope, date)
		if err != nil {
			return nil, err
		}
		items := make([]Occurrence, 0, len(appointments))
		for i := range appointments {
			items = append(items, appointmentOccurrence(&appointments[i], appointments[i].StaffID))
		}
		return items, nil
	case KindBlockedTime:
		src = BlockedTimes(r.store)
	case KindTimeOff:
		src = TimeOffs(r.store)
	default:
		return nil, fmt.Errorf("%w: no occurrences for %q", ErrInvalidProposal, kind)
	}

	ids, err := r.StaffIDs(ctx, scope)
	if err != nil {
		return nil, err
	}
	items, err := src.Occurrences(ctx, ids, date)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []Occurrence{}
	}
	return items, nil
}

// ===== shift window =====

// DefaultHours — окна на случай, когда смены на дату нет.
type DefaultHours struct {
	Weekday calendar.Range
	Weekend calendar.Range
}

// StandardHours — 09:00-21:00 по будням и 10:00-19:00 в выходные.
var StandardHours = DefaultHours{
	Weekday: calendar.MustRange("09:00", "21:00"),
	Weekend: calendar.MustRange("10:00", "19:00"),
}

func (h DefaultHours) For(date time.Time) calendar.Range {
	if calendar.IsWeekday(date) {
		return h.Weekday
	}
	return h.Weekend
}

// Window — рабочее окно сотрудника в дату. Shift == nil — окно по умолчанию.
type Window struct {
	Range calendar.Range
	Shift *model.Shift
}

func (w Window) IsDefault() bool { return w.Shift == nil }

type ShiftResolver struct {
	shifts repository.ShiftRepository
	hours  DefaultHours
}

func NewShiftResolver(shifts repository.ShiftRepository, hours DefaultHours) *ShiftResolver {
	return &ShiftResolver{shifts: shifts, hours: hours}
}

func (r *ShiftResolver) Window(ctx context.Context, staffID uuid.UUID, date time.Time) (Window, error) {
	shift, err := r.shifts.FindByStaffAndDate(ctx, staffID, date)
	if err != nil {
		return Window{}, fmt.Errorf("find shift: %w", err)
	}
	if shift != nil {
		return Window{Range: shift.Window(), Shift: shift}, nil
	}
	return Window{Range: r.hours.For(date)}, nil
}
