package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/Leganyst/salon-booking/internal/auth"
	"github.com/Leganyst/salon-booking/internal/calendar"
	"github.com/Leganyst/salon-booking/internal/crosscheck"
	"github.com/Leganyst/salon-booking/internal/events"
	"github.com/Leganyst/salon-booking/internal/lock"
	"github.com/Leganyst/salon-booking/internal/model"
	"github.com/Leganyst/salon-booking/internal/repository"
)

// Calendar — сценарии записи в календарь: смены, отгулы, блокировки, записи.
//
// Каждая запись идёт по одной схеме: блокировка сотрудника (и клиента) →
// транзакция → проверка конфликтов на той же транзакции → сохранение →
// кредиты → строка аудита → коммит → публикация события.
type Calendar struct {
	store     *repository.Store
	locker    lock.Locker
	publisher events.Publisher
	hours     crosscheck.DefaultHours
	logger    *zap.Logger
}

func NewCalendar(
	store *repository.Store,
	locker lock.Locker,
	publisher events.Publisher,
	hours crosscheck.DefaultHours,
	logger *zap.Logger,
) *Calendar {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &Calendar{
		store:     store,
		locker:    locker,
		publisher: publisher,
		hours:     hours,
		logger:    logger,
	}
}

// write выполняет fn под блокировкой keys в одной транзакции. События,
// которые вернула fn, пишутся в ту же транзакцию и публикуются после коммита.
func (c *Calendar) write(
	ctx context.Context,
	op string,
	keys []string,
	fn func(tx *repository.Store) ([]*model.Event, error),
	fields ...zap.Field,
) error {
	unlock, err := c.locker.Acquire(ctx, keys...)
	if err != nil {
		return classify(c.logger, op, err, fields...)
	}
	defer unlock()

	operator, hasOperator := auth.FromContext(ctx)

	var recorded []*model.Event
	err = c.store.Transaction(ctx, func(tx *repository.Store) error {
		evts, err := fn(tx)
		if err != nil {
			return err
		}
		for _, e := range evts {
			if hasOperator {
				actor := operator.StaffID
				e.ActorID = &actor
			}
			if err := tx.Events.Create(ctx, e); err != nil {
				return fmt.Errorf("record event: %w", err)
			}
		}
		recorded = evts
		return nil
	})
	if err != nil {
		return classify(c.logger, op, err, fields...)
	}

	for _, e := range recorded {
		if err := c.publisher.Publish(ctx, events.FromModel(e)); err != nil {
			c.logger.Warn("event not published",
				zap.String("event_type", string(e.EventType)),
				zap.Error(err),
			)
		}
	}
	return nil
}

func (c *Calendar) validator(tx *repository.Store) *crosscheck.Validator {
	return crosscheck.NewValidator(tx, c.hours)
}

func newEvent(t model.EventType, entityID, staffID uuid.UUID, details map[string]any) *model.Event {
	raw, err := json.Marshal(details)
	if err != nil {
		raw = []byte("{}")
	}
	return &model.Event{
		EventType: t,
		EntityID:  &entityID,
		StaffID:   &staffID,
		Details:   datatypes.JSON(raw),
	}
}

func staffActor(s *model.Staff) crosscheck.Actor {
	return crosscheck.Actor{ID: s.ID, Name: s.DisplayName()}
}

func customerActor(cu *model.Customer) *crosscheck.Actor {
	return &crosscheck.Actor{ID: cu.ID, Name: cu.DisplayName()}
}

// ===== чтение =====

// ProposalInput — сухой прогон проверок без сохранения.
type ProposalInput struct {
	Kind       crosscheck.Kind
	StaffID    uuid.UUID
	CustomerID *uuid.UUID
	Date       time.Time
	Range      calendar.Range
	ExcludeID  *uuid.UUID
}

// Validate отвечает, можно ли сохранить такое предложение прямо сейчас.
func (c *Calendar) Validate(ctx context.Context, in ProposalInput) error {
	if !in.Kind.Valid() {
		return invalidf("unknown kind %q", in.Kind)
	}

	staff, err := c.store.Staff.GetByID(ctx, in.StaffID)
	if err != nil {
		return classify(c.logger, "validate proposal", err)
	}

	p := crosscheck.Proposal{
		Kind:      in.Kind,
		Staff:     staffActor(staff),
		Date:      in.Date,
		Range:     in.Range,
		ExcludeID: in.ExcludeID,
	}
	if in.CustomerID != nil {
		cu, err := c.store.Customers.GetByID(ctx, *in.CustomerID)
		if err != nil {
			return classify(c.logger, "validate proposal", err)
		}
		p.Customer = customerActor(cu)
	}

	return classify(c.logger, "validate proposal", c.validator(c.store).Validate(ctx, p))
}

// Window — рабочее окно сотрудника в дату.
func (c *Calendar) Window(ctx context.Context, staffID uuid.UUID, date time.Time) (crosscheck.Window, error) {
	if _, err := c.store.Staff.GetByID(ctx, staffID); err != nil {
		return crosscheck.Window{}, classify(c.logger, "resolve window", err)
	}
	w, err := crosscheck.NewShiftResolver(c.store.Shifts, c.hours).Window(ctx, staffID, date)
	if err != nil {
		return crosscheck.Window{}, classify(c.logger, "resolve window", err, zap.String("staff_id", staffID.String()))
	}
	return w, nil
}

func (c *Calendar) Occurrences(ctx context.Context, kind crosscheck.Kind, scope crosscheck.Scope, date time.Time) ([]crosscheck.Occurrence, error) {
	items, err := crosscheck.NewResolver(c.store).Occurrences(ctx, kind, scope, date)
	if err != nil {
		return nil, classify(c.logger, "resolve occurrences", err)
	}
	return items, nil
}

// Availability — свободные слоты длительностью duration минут с шагом step.
func (c *Calendar) Availability(ctx context.Context, staffID uuid.UUID, customerID *uuid.UUID, date time.Time, duration, step int) ([]calendar.Range, error) {
	if duration <= 0 {
		return nil, invalidf("duration must be positive")
	}
	if _, err := c.store.Staff.GetByID(ctx, staffID); err != nil {
		return nil, classify(c.logger, "availability", err)
	}

	slots, err := c.validator(c.store).FreeSlots(ctx, crosscheck.SlotQuery{
		Staff:    staffID,
		Customer: customerID,
		Date:     date,
		Duration: duration,
		Step:     step,
	})
	if err != nil {
		return nil, classify(c.logger, "availability", err, zap.String("staff_id", staffID.String()))
	}
	return slots, nil
}
