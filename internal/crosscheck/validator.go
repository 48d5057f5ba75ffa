// Package crosscheck проверяет, что смена, отгул, блокировка или запись
// не конфликтуют с остальным календарём сотрудника и клиента.
package crosscheck

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Leganyst/salon-booking/internal/calendar"
	"github.com/Leganyst/salon-booking/internal/repository"
)

// Proposal — то, что собираются сохранить.
type Proposal struct {
	Kind  Kind
	Staff Actor
	// Customer — только для записи; nil пропускает проверку клиента.
	Customer *Actor
	Date     time.Time
	Range    calendar.Range
	// ExcludeID — id редактируемой сущности, чтобы она не конфликтовала сама с собой.
	ExcludeID *uuid.UUID
}

func (p Proposal) validate() error {
	if !p.Kind.Valid() {
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidProposal, p.Kind)
	}
	if p.Staff.ID == uuid.Nil {
		return fmt.Errorf("%w: staff is required", ErrInvalidProposal)
	}
	if p.Date.IsZero() {
		return fmt.Errorf("%w: date is required", ErrInvalidProposal)
	}
	if _, err := calendar.NewRange(p.Range.Start, p.Range.End); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidProposal, err)
	}
	if p.Customer != nil && p.Customer.ID == uuid.Nil {
		return fmt.Errorf("%w: customer id is empty", ErrInvalidProposal)
	}
	return nil
}

// Validator прогоняет предложение через проверки в фиксированном порядке и
// возвращает первый конфликт. Строится на том Store, в транзакции которого
// потом будет запись.
type Validator struct {
	shifts *ShiftResolver

	staffAppointments    Source
	blockedTimes         Source
	timeOffs             Source
	customerAppointments Source
}

func NewValidator(store *repository.Store, hours DefaultHours) *Validator {
	return &Validator{
		shifts:               NewShiftResolver(store.Shifts, hours),
		staffAppointments:    StaffAppointments(store),
		blockedTimes:         BlockedTimes(store),
		timeOffs:             TimeOffs(store),
		customerAppointments: CustomerAppointments(store),
	}
}

// Validate: nil — можно сохранять; *ConflictError — первая коллизия.
//
// Порядок для записи: часы смены, записи сотрудника, блокировки, отгулы,
// записи клиента. Блокировка и отгул проходят первые четыре шага. Смена
// проверяется наоборот: вся существующая занятость должна остаться внутри.
func (v *Validator) Validate(ctx context.Context, p Proposal) error {
	if err := p.validate(); err != nil {
		return err
	}

	if p.Kind == KindShift {
		return v.checkNewHours(ctx, p)
	}

	if err := v.checkShiftHours(ctx, p); err != nil {
		return err
	}

	for _, src := range []Source{v.staffAppointments, v.blockedTimes, v.timeOffs} {
		if err := v.checkOverlap(ctx, p, src, p.Staff, CheckStaffOverlap); err != nil {
			return err
		}
	}

	if p.Kind == KindAppointment && p.Customer != nil {
		return v.checkOverlap(ctx, p, v.customerAppointments, *p.Customer, CheckCustomerOverlap)
	}
	return nil
}

func (v *Validator) checkShiftHours(ctx context.Context, p Proposal) error {
	w, err := v.shifts.Window(ctx, p.Staff.ID, p.Date)
	if err != nil {
		return err
	}
	if !w.Range.Contains(p.Range) {
		return &ConflictError{Kind: p.Kind, Check: CheckShiftHours, With: KindShift, Range: p.Range, Actor: p.Staff}
	}
	return nil
}

func (v *Validator) checkOverlap(ctx context.Context, p Proposal, src Source, owner Actor, check Check) error {
	items, err := src.Occurrences(ctx, []uuid.UUID{owner.ID}, p.Date)
	if err != nil {
		return fmt.Errorf("load %s: %w", src.Kind().plural(), err)
	}

	for _, occ := range items {
		if p.ExcludeID != nil && occ.Kind == p.Kind && occ.ID == *p.ExcludeID {
			continue
		}
		if occ.Range.Overlaps(p.Range) {
			return &ConflictError{Kind: p.Kind, Check: check, With: src.Kind(), Range: p.Range, Actor: owner}
		}
	}
	return nil
}

// checkNewHours — смена не должна оставить записи, отгулы и блокировки за своими границами.
func (v *Validator) checkNewHours(ctx context.Context, p Proposal) error {
	for _, src := range []Source{v.staffAppointments, v.timeOffs, v.blockedTimes} {
		items, err := src.Occurrences(ctx, []uuid.UUID{p.Staff.ID}, p.Date)
		if err != nil {
			return fmt.Errorf("load %s: %w", src.Kind().plural(), err)
		}
		for _, occ := range items {
			if !p.Range.Contains(occ.Range) {
				return &ConflictError{Kind: KindShift, Check: CheckOutsideNewHours, With: src.Kind(), Range: p.Range, Actor: p.Staff}
			}
		}
	}
	return nil
}
