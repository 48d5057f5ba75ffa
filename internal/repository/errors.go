package repository

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// ErrNotFound — общий признак отсутствующей строки, под ним матчится NotFoundError.
var ErrNotFound = errors.New("not found")

// NotFoundError — ссылка на отсутствующую сущность.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return e.Entity + " not found"
	}
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

func notFound(entity string, id any) error {
	return &NotFoundError{Entity: entity, ID: fmt.Sprint(id)}
}

// wrapFind превращает gorm.ErrRecordNotFound в NotFoundError.
func wrapFind(err error, entity string, id any) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound(entity, id)
	}
	return err
}

// SQLSTATE, на которые реагирует календарь.
const (
	sqlStateSerializationFailure = "40001"
	sqlStateDeadlockDetected     = "40P01"
	sqlStateExclusionViolation   = "23P01"
	sqlStateCheckViolation       = "23514"
	sqlStateUniqueViolation      = "23505"
)

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// IsRetryable — транзакцию можно повторить целиком.
func IsRetryable(err error) bool {
	code := pgCode(err)
	return code == sqlStateSerializationFailure || code == sqlStateDeadlockDetected
}

// IsOverlapViolation — сработал exclusion-констрейнт на записи сотрудника.
func IsOverlapViolation(err error) bool {
	return pgCode(err) == sqlStateExclusionViolation
}

func IsCheckViolation(err error) bool {
	return pgCode(err) == sqlStateCheckViolation
}

func IsUniqueViolation(err error) bool {
	return pgCode(err) == sqlStateUniqueViolation || errors.Is(err, gorm.ErrDuplicatedKey)
}
