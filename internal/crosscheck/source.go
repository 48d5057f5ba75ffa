package crosscheck

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Leganyst/salon-booking/internal/calendar"
	"github.com/Leganyst/salon-booking/internal/model"
	"github.com/Leganyst/salon-booking/internal/repository"
)

// Occurrence — занятость владельца в конкретную дату.
type Occurrence struct {
	ID      uuid.UUID
	OwnerID uuid.UUID
	Kind    Kind
	Range   calendar.Range
}

// Source отдаёт занятость владельцев (сотрудников или клиента) в дату.
// Строки перечитываются на каждый вызов.
type Source interface {
	Kind() Kind
	Occurrences(ctx context.Context, ownerIDs []uuid.UUID, date time.Time) ([]Occurrence, error)
}

// ===== appointments =====

type appointmentSource struct {
	appointments repository.AppointmentRepository
	byCustomer   bool
}

// StaffAppointments — записи сотрудников, начинающиеся в дату.
func StaffAppointments(store *repository.Store) Source {
	return &appointmentSource{appointments: store.Appointments}
}

// CustomerAppointments — записи клиентов, начинающиеся в дату.
func CustomerAppointments(store *repository.Store) Source {
	return &appointmentSource{appointments: store.Appointments, byCustomer: true}
}

func (s *appointmentSource) Kind() Kind { return KindAppointment }

func (s *appointmentSource) Occurrences(ctx context.Context, ownerIDs []uuid.UUID, date time.Time) ([]Occurrence, error) {
	if len(ownerIDs) == 0 {
		return nil, nil
	}

	var out []Occurrence
	if s.byCustomer {
		for _, id := range ownerIDs {
			customerID := id
			items, err := s.appointments.ListByDate(ctx, date, repository.AppointmentFilter{CustomerID: &customerID})
			if err != nil {
				return nil, err
			}
			for i := range items {
				out = append(out, appointmentOccurrence(&items[i], items[i].CustomerID))
			}
		}
		return out, nil
	}

	items, err := s.appointments.ListByDate(ctx, date, repository.AppointmentFilter{StaffIDs: ownerIDs})
	if err != nil {
		return nil, err
	}
	for i := range items {
		out = append(out, appointmentOccurrence(&items[i], items[i].StaffID))
	}
	return out, nil
}

func appointmentOccurrence(a *model.Appointment, owner uuid.UUID) Occurrence {
	return Occurrence{ID: a.ID, OwnerID: owner, Kind: KindAppointment, Range: a.Window()}
}

// ===== blocked times =====

type blockedTimeSource struct {
	blocked repository.BlockedTimeRepository
}

func BlockedTimes(store *repository.Store) Source {
	return &blockedTimeSource{blocked: store.BlockedTimes}
}

func (s *blockedTimeSource) Kind() Kind { return KindBlockedTime }

func (s *blockedTimeSource) Occurrences(ctx context.Context, ownerIDs []uuid.UUID, date time.Time) ([]Occurrence, error) {
	if len(ownerIDs) == 0 {
		return nil, nil
	}
	items, err := s.blocked.ListByStaff(ctx, ownerIDs...)
	if err != nil {
		return nil, err
	}

	active := ActiveBlockedTimes(items, date)
	out := make([]Occurrence, 0, len(active))
	for i := range active {
		out = append(out, Occurrence{
			ID:      active[i].ID,
			OwnerID: active[i].StaffID,
			Kind:    KindBlockedTime,
			Range:   active[i].Window(),
		})
	}
	return out, nil
}

// ActiveBlockedTimes оставляет блокировки, повторение которых приходится на date.
func ActiveBlockedTimes(items []model.BlockedTime, date time.Time) []model.BlockedTime {
	out := make([]model.BlockedTime, 0, len(items))
	for i := range items {
		if items[i].ActiveOn(date) {
			out = append(out, items[i])
		}
	}
	return out
}

// ===== time offs =====

type timeOffSource struct {
	timeOffs repository.TimeOffRepository
}

func TimeOffs(store *repository.Store) Source {
	return &timeOffSource{timeOffs: store.TimeOffs}
}

func (s *timeOffSource) Kind() Kind { return KindTimeOff }

func (s *timeOffSource) Occurrences(ctx context.Context, ownerIDs []uuid.UUID, date time.Time) ([]Occurrence, error) {
	if len(ownerIDs) == 0 {
		return nil, nil
	}
	items, err := s.timeOffs.ListByStaff(ctx, ownerIDs...)
	if err != nil {
		return nil, err
	}

	active := ActiveTimeOffs(items, date)
	out := make([]Occurrence, 0, len(active))
	for i := range active {
		out = append(out, Occurrence{
			ID:      active[i].ID,
			OwnerID: active[i].StaffID,
			Kind:    KindTimeOff,
			Range:   active[i].Window(),
		})
	}
	return out, nil
}

// ActiveTimeOffs оставляет отгулы, действующие в date.
func ActiveTimeOffs(items []model.TimeOff, date time.Time) []model.TimeOff {
	out := make([]model.TimeOff, 0, len(items))
	for i := range items {
		if items[i].ActiveOn(date) {
			out = append(out, items[i])
		}
	}
	return out
}
