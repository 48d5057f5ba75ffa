package service

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Leganyst/salon-booking/internal/calendar"
	"github.com/Leganyst/salon-booking/internal/crosscheck"
	"github.com/Leganyst/salon-booking/internal/ledger"
	"github.com/Leganyst/salon-booking/internal/lock"
	"github.com/Leganyst/salon-booking/internal/model"
	"github.com/Leganyst/salon-booking/internal/repository"
)

// ErrInvalidInput — запрос не прошёл проверку формата или инвариантов сущности.
var ErrInvalidInput = errors.New("invalid input")

// PersistenceError — сбой хранилища. Наружу уходит общее сообщение,
// подробности только в лог.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// classify приводит ошибку к одному из типов, которые понимают транспорты.
// Всё неопознанное считается сбоем хранилища и логируется.
func classify(logger *zap.Logger, op string, err error, fields ...zap.Field) error {
	if err == nil {
		return nil
	}

	var (
		conflict     *crosscheck.ConflictError
		insufficient *ledger.InsufficientCreditsError
	)
	switch {
	case errors.As(err, &conflict),
		errors.As(err, &insufficient),
		errors.Is(err, repository.ErrNotFound),
		errors.Is(err, ErrInvalidInput),
		errors.Is(err, lock.ErrBusy):
		return err
	case errors.Is(err, model.ErrInvalidEntity),
		errors.Is(err, crosscheck.ErrInvalidProposal),
		errors.Is(err, calendar.ErrInvalidClock),
		errors.Is(err, calendar.ErrInvalidTimeRange):
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	case repository.IsUniqueViolation(err):
		return fmt.Errorf("%w: record already exists", ErrInvalidInput)
	case repository.IsCheckViolation(err):
		return fmt.Errorf("%w: value violates a constraint", ErrInvalidInput)
	}

	logger.Error(op+" failed", append(fields, zap.Error(err))...)
	return &PersistenceError{Op: op, Err: err}
}
