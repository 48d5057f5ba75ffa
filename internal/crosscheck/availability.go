package crosscheck

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Leganyst/salon-booking/internal/calendar"
)

// SlotQuery — поиск свободных слотов под запись.
type SlotQuery struct {
	Staff    uuid.UUID
	Customer *uuid.UUID
	Date     time.Time
	// Duration и Step в минутах; Step <= 0 — шаг равен длительности.
	Duration int
	Step     int
}

// FreeSlots режет рабочее окно на слоты и оставляет те, что прошли бы
// Validate для записи. Занятость читается один раз на весь запрос.
func (v *Validator) FreeSlots(ctx context.Context, q SlotQuery) ([]calendar.Range, error) {
	if q.Staff == uuid.Nil || q.Date.IsZero() {
		return nil, fmt.Errorf("%w: staff and date are required", ErrInvalidProposal)
	}

	w, err := v.shifts.Window(ctx, q.Staff, q.Date)
	if err != nil {
		return nil, err
	}

	slots, err := calendar.SplitToSlots(w.Range, q.Duration, q.Step)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidProposal, err)
	}

	var busy []calendar.Range
	for _, src := range []Source{v.staffAppointments, v.blockedTimes, v.timeOffs} {
		items, err := src.Occurrences(ctx, []uuid.UUID{q.Staff}, q.Date)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", src.Kind().plural(), err)
		}
		for _, occ := range items {
			busy = append(busy, occ.Range)
		}
	}
	if q.Customer != nil {
		items, err := v.customerAppointments.Occurrences(ctx, []uuid.UUID{*q.Customer}, q.Date)
		if err != nil {
			return nil, fmt.Errorf("load customer appointments: %w", err)
		}
		for _, occ := range items {
			busy = append(busy, occ.Range)
		}
	}

	free := make([]calendar.Range, 0, len(slots))
	for _, slot := range slots {
		if clash, _ := calendar.HasOverlap(slot, busy, false); !clash {
			free = append(free, slot)
		}
	}
	return free, nil
}
