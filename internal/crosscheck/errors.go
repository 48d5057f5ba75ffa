package crosscheck

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/Leganyst/salon-booking/internal/calendar"
)

// ErrInvalidProposal — предложение собрано неверно (нет сотрудника, пустой интервал).
var ErrInvalidProposal = errors.New("invalid proposal")

// Kind — вид календарной сущности. Значения совпадают с подписями в сообщениях.
type Kind string

const (
	KindAppointment Kind = "Appointment"
	KindBlockedTime Kind = "Blocked time"
	KindTimeOff     Kind = "Time off"
	KindShift       Kind = "Shift"
)

func (k Kind) Valid() bool {
	switch k {
	case KindAppointment, KindBlockedTime, KindTimeOff, KindShift:
		return true
	}
	return false
}

func (k Kind) plural() string {
	switch k {
	case KindAppointment:
		return "appointments"
	case KindBlockedTime:
		return "blocked times"
	case KindTimeOff:
		return "time offs"
	default:
		return "shifts"
	}
}

// Check — какая из проверок не прошла.
type Check int

const (
	// CheckShiftHours — интервал не помещается в окно смены.
	CheckShiftHours Check = iota + 1
	// CheckStaffOverlap — пересечение с занятостью сотрудника (With — с чем именно).
	CheckStaffOverlap
	// CheckCustomerOverlap — пересечение с другими записями клиента.
	CheckCustomerOverlap
	// CheckOutsideNewHours — новая смена оставляет существующие записи снаружи.
	CheckOutsideNewHours
)

func (c Check) String() string {
	switch c {
	case CheckShiftHours:
		return "shift_hours"
	case CheckStaffOverlap:
		return "staff_overlap"
	case CheckCustomerOverlap:
		return "customer_overlap"
	case CheckOutsideNewHours:
		return "outside_new_hours"
	default:
		return "unknown"
	}
}

// Actor — сотрудник или клиент, от имени которого формулируется конфликт.
type Actor struct {
	ID   uuid.UUID
	Name string
}

// ConflictError — первая найденная коллизия, остальные проверки не выполняются.
type ConflictError struct {
	Kind  Kind
	Check Check
	// With — вид сущности, с которой столкнулись.
	With  Kind
	Range calendar.Range
	Actor Actor
}

func (e *ConflictError) Error() string {
	switch e.Check {
	case CheckShiftHours:
		return fmt.Sprintf("%s %s by staff %s is outside shift hours.", e.Kind, e.Range, e.Actor.Name)
	case CheckStaffOverlap:
		return fmt.Sprintf("%s %s by staff %s has clashing %s.", e.Kind, e.Range, e.Actor.Name, e.With.plural())
	case CheckCustomerOverlap:
		return fmt.Sprintf("%s %s by customer %s has clashing appointments.", e.Kind, e.Range, e.Actor.Name)
	case CheckOutsideNewHours:
		return fmt.Sprintf("Existing %s fall outside new hours", e.With.plural())
	default:
		return fmt.Sprintf("%s %s conflicts with the calendar", e.Kind, e.Range)
	}
}

// IsConflict — удобная обёртка над errors.As для краёв системы.
func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}
