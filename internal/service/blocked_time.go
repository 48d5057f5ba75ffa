package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Leganyst/salon-booking/internal/calendar"
	"github.com/Leganyst/salon-booking/internal/crosscheck"
	"github.com/Leganyst/salon-booking/internal/lock"
	"github.com/Leganyst/salon-booking/internal/model"
	"github.com/Leganyst/salon-booking/internal/repository"
)

type BlockedTimeInput struct {
	StaffID     uuid.UUID
	Title       string
	Range       calendar.Range
	Rule        calendar.Rule
	Description string
	Approved    bool
}

func (in BlockedTimeInput) toModel() model.BlockedTime {
	b := model.BlockedTime{
		StaffID:     in.StaffID,
		Title:       in.Title,
		FromTime:    in.Range.Start,
		ToTime:      in.Range.End,
		Description: in.Description,
		Approved:    in.Approved,
	}
	b.SetRecurrence(in.Rule)
	return b
}

// SaveBlockedTime создаёт (id == nil) или обновляет блокировку.
// Повторяющаяся блокировка проверяется на дату начала правила.
func (c *Calendar) SaveBlockedTime(ctx context.Context, id *uuid.UUID, in BlockedTimeInput) (*model.BlockedTime, error) {
	blocked := in.toModel()
	if err := blocked.Validate(); err != nil {
		return nil, classify(c.logger, "save blocked time", err)
	}

	fields := []zap.Field{zap.String("staff_id", in.StaffID.String()), zap.String("date", calendar.FormatDate(in.Rule.Start))}

	err := c.write(ctx, "save blocked time", []string{lock.StaffKey(in.StaffID)}, func(tx *repository.Store) ([]*model.Event, error) {
		staff, err := tx.Staff.GetByID(ctx, in.StaffID)
		if err != nil {
			return nil, err
		}

		var existing *model.BlockedTime
		if id != nil {
			if existing, err = tx.BlockedTimes.GetByID(ctx, *id); err != nil {
				return nil, err
			}
		}

		err = c.validator(tx).Validate(ctx, crosscheck.Proposal{
			Kind:      crosscheck.KindBlockedTime,
			Staff:     staffActor(staff),
			Date:      in.Rule.Start,
			Range:     in.Range,
			ExcludeID: id,
		})
		if err != nil {
			return nil, err
		}

		blocked = in.toModel()
		if existing != nil {
			blocked.ID = existing.ID
			blocked.CreatedAt = existing.CreatedAt
			err = tx.BlockedTimes.Update(ctx, &blocked)
		} else {
			err = tx.BlockedTimes.Create(ctx, &blocked)
		}
		if err != nil {
			return nil, err
		}

		return []*model.Event{newEvent(model.EventTypeBlockedTimeSaved, blocked.ID, blocked.StaffID, map[string]any{
			"date":      calendar.FormatDate(blocked.Date()),
			"start":     blocked.FromTime.String(),
			"end":       blocked.ToTime.String(),
			"frequency": blocked.Frequency,
		})}, nil
	}, fields...)
	if err != nil {
		return nil, err
	}
	return &blocked, nil
}

func (c *Calendar) DeleteBlockedTime(ctx context.Context, id uuid.UUID) error {
	current, err := c.store.BlockedTimes.GetByID(ctx, id)
	if err != nil {
		return classify(c.logger, "delete blocked time", err)
	}

	return c.write(ctx, "delete blocked time", []string{lock.StaffKey(current.StaffID)}, func(tx *repository.Store) ([]*model.Event, error) {
		if err := tx.BlockedTimes.Delete(ctx, id); err != nil {
			return nil, err
		}
		return []*model.Event{newEvent(model.EventTypeBlockedTimeDeleted, id, current.StaffID, nil)}, nil
	}, zap.String("blocked_time_id", id.String()))
}

func (c *Calendar) GetBlockedTime(ctx context.Context, id uuid.UUID) (*model.BlockedTime, error) {
	b, err := c.store.BlockedTimes.GetByID(ctx, id)
	if err != nil {
		return nil, classify(c.logger, "get blocked time", err)
	}
	return b, nil
}

// BlockedTimes — блокировки, повторение которых приходится на дату.
func (c *Calendar) BlockedTimes(ctx context.Context, scope crosscheck.Scope, date time.Time) ([]model.BlockedTime, error) {
	items, err := crosscheck.NewResolver(c.store).BlockedTimes(ctx, scope, date)
	if err != nil {
		return nil, classify(c.logger, "list blocked times", err)
	}
	return items, nil
}
