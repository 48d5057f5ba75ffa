package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/Leganyst/salon-booking/internal/calendar"
	"github.com/Leganyst/salon-booking/internal/crosscheck"
	"github.com/Leganyst/salon-booking/internal/lock"
	"github.com/Leganyst/salon-booking/internal/model"
	"github.com/Leganyst/salon-booking/internal/repository"
)

type ShiftInput struct {
	StaffID uuid.UUID
	Date    time.Time
	Range   calendar.Range
}

func (in ShiftInput) toModel() model.Shift {
	return model.Shift{
		StaffID:   in.StaffID,
		ShiftDate: datatypes.Date(calendar.DateOf(in.Date)),
		StartTime: in.Range.Start,
		EndTime:   in.Range.End,
	}
}

// SaveShift создаёт или перезаписывает смену. id == nil — upsert по (сотрудник, дата).
func (c *Calendar) SaveShift(ctx context.Context, id *uuid.UUID, in ShiftInput) (*model.Shift, error) {
	shift := in.toModel()
	if err := shift.Validate(); err != nil {
		return nil, classify(c.logger, "save shift", err)
	}

	fields := []zap.Field{zap.String("staff_id", in.StaffID.String()), zap.String("date", calendar.FormatDate(in.Date))}

	err := c.write(ctx, "save shift", []string{lock.StaffKey(in.StaffID)}, func(tx *repository.Store) ([]*model.Event, error) {
		staff, err := tx.Staff.GetByID(ctx, in.StaffID)
		if err != nil {
			return nil, err
		}

		var existing *model.Shift
		if id != nil {
			if existing, err = tx.Shifts.GetByID(ctx, *id); err != nil {
				return nil, err
			}
		}

		err = c.validator(tx).Validate(ctx, crosscheck.Proposal{
			Kind:  crosscheck.KindShift,
			Staff: staffActor(staff),
			Date:  in.Date,
			Range: in.Range,
		})
		if err != nil {
			return nil, err
		}

		shift = in.toModel()
		if existing != nil {
			shift.ID = existing.ID
			shift.CreatedAt = existing.CreatedAt
			err = tx.Shifts.Update(ctx, &shift)
		} else {
			err = tx.Shifts.Upsert(ctx, &shift)
		}
		if err != nil {
			return nil, err
		}

		return []*model.Event{newEvent(model.EventTypeShiftSaved, shift.ID, shift.StaffID, map[string]any{
			"date":  calendar.FormatDate(shift.Date()),
			"start": shift.StartTime.String(),
			"end":   shift.EndTime.String(),
		})}, nil
	}, fields...)
	if err != nil {
		return nil, err
	}
	return &shift, nil
}

func (c *Calendar) DeleteShift(ctx context.Context, id uuid.UUID) error {
	current, err := c.store.Shifts.GetByID(ctx, id)
	if err != nil {
		return classify(c.logger, "delete shift", err)
	}

	return c.write(ctx, "delete shift", []string{lock.StaffKey(current.StaffID)}, func(tx *repository.Store) ([]*model.Event, error) {
		if err := tx.Shifts.Delete(ctx, id); err != nil {
			return nil, err
		}
		return []*model.Event{newEvent(model.EventTypeShiftDeleted, id, current.StaffID, map[string]any{
			"date": calendar.FormatDate(current.Date()),
		})}, nil
	}, zap.String("shift_id", id.String()))
}

// ShiftFor — смена сотрудника в дату; nil, если смены нет.
func (c *Calendar) ShiftFor(ctx context.Context, staffID uuid.UUID, date time.Time) (*model.Shift, error) {
	if _, err := c.store.Staff.GetByID(ctx, staffID); err != nil {
		return nil, classify(c.logger, "get shift", err)
	}
	shift, err := c.store.Shifts.FindByStaffAndDate(ctx, staffID, date)
	if err != nil {
		return nil, classify(c.logger, "get shift", err, zap.String("staff_id", staffID.String()))
	}
	return shift, nil
}

func (c *Calendar) Shifts(ctx context.Context, scope crosscheck.Scope, date time.Time) ([]model.Shift, error) {
	items, err := crosscheck.NewResolver(c.store).Shifts(ctx, scope, date)
	if err != nil {
		return nil, classify(c.logger, "list shifts", err)
	}
	return items, nil
}
