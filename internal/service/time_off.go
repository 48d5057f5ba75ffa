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

type TimeOffInput struct {
	StaffID     uuid.UUID
	Type        model.TimeOffType
	Duration    float64
	StartDate   time.Time
	Range       calendar.Range
	Frequency   model.TimeOffFrequency
	EndsDate    *time.Time
	Description string
	Approved    bool
}

func (in TimeOffInput) toModel() model.TimeOff {
	t := model.TimeOff{
		StaffID:     in.StaffID,
		Type:        in.Type,
		Duration:    in.Duration,
		StartDate:   datatypes.Date(calendar.DateOf(in.StartDate)),
		StartTime:   in.Range.Start,
		EndTime:     in.Range.End,
		Frequency:   in.Frequency,
		Description: in.Description,
		Approved:    in.Approved,
	}
	if t.Frequency == "" {
		t.Frequency = model.TimeOffOnce
	}
	if in.EndsDate != nil {
		d := datatypes.Date(calendar.DateOf(*in.EndsDate))
		t.EndsDate = &d
	}
	return t
}

// SaveTimeOff создаёт (id == nil) или обновляет отгул.
//
// Повторяющийся отгул проверяется только на дату начала.
func (c *Calendar) SaveTimeOff(ctx context.Context, id *uuid.UUID, in TimeOffInput) (*model.TimeOff, error) {
	timeOff := in.toModel()
	if err := timeOff.Validate(); err != nil {
		return nil, classify(c.logger, "save time off", err)
	}

	fields := []zap.Field{zap.String("staff_id", in.StaffID.String()), zap.String("date", calendar.FormatDate(in.StartDate))}

	err := c.write(ctx, "save time off", []string{lock.StaffKey(in.StaffID)}, func(tx *repository.Store) ([]*model.Event, error) {
		staff, err := tx.Staff.GetByID(ctx, in.StaffID)
		if err != nil {
			return nil, err
		}

		var existing *model.TimeOff
		if id != nil {
			if existing, err = tx.TimeOffs.GetByID(ctx, *id); err != nil {
				return nil, err
			}
		}

		err = c.validator(tx).Validate(ctx, crosscheck.Proposal{
			Kind:      crosscheck.KindTimeOff,
			Staff:     staffActor(staff),
			Date:      in.StartDate,
			Range:     in.Range,
			ExcludeID: id,
		})
		if err != nil {
			return nil, err
		}

		timeOff = in.toModel()
		if existing != nil {
			timeOff.ID = existing.ID
			timeOff.CreatedAt = existing.CreatedAt
			err = tx.TimeOffs.Update(ctx, &timeOff)
		} else {
			err = tx.TimeOffs.Create(ctx, &timeOff)
		}
		if err != nil {
			return nil, err
		}

		return []*model.Event{newEvent(model.EventTypeTimeOffSaved, timeOff.ID, timeOff.StaffID, map[string]any{
			"date":      calendar.FormatDate(timeOff.Date()),
			"start":     timeOff.StartTime.String(),
			"end":       timeOff.EndTime.String(),
			"frequency": timeOff.Frequency,
		})}, nil
	}, fields...)
	if err != nil {
		return nil, err
	}
	return &timeOff, nil
}

func (c *Calendar) DeleteTimeOff(ctx context.Context, id uuid.UUID) error {
	current, err := c.store.TimeOffs.GetByID(ctx, id)
	if err != nil {
		return classify(c.logger, "delete time off", err)
	}

	return c.write(ctx, "delete time off", []string{lock.StaffKey(current.StaffID)}, func(tx *repository.Store) ([]*model.Event, error) {
		if err := tx.TimeOffs.Delete(ctx, id); err != nil {
			return nil, err
		}
		return []*model.Event{newEvent(model.EventTypeTimeOffDeleted, id, current.StaffID, nil)}, nil
	}, zap.String("time_off_id", id.String()))
}

func (c *Calendar) GetTimeOff(ctx context.Context, id uuid.UUID) (*model.TimeOff, error) {
	t, err := c.store.TimeOffs.GetByID(ctx, id)
	if err != nil {
		return nil, classify(c.logger, "get time off", err)
	}
	return t, nil
}

// TimeOffs — отгулы, действующие в дату.
func (c *Calendar) TimeOffs(ctx context.Context, scope crosscheck.Scope, date time.Time) ([]model.TimeOff, error) {
	items, err := crosscheck.NewResolver(c.store).TimeOffs(ctx, scope, date)
	if err != nil {
		return nil, classify(c.logger, "list time offs", err)
	}
	return items, nil
}
