package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/Leganyst/salon-booking/internal/model"
	"github.com/Leganyst/salon-booking/internal/repository"
)

var ErrZeroAdjustment = errors.New("adjustment amount must not be zero")

// Adjuster применяет план к балансу, журналу и записи. Должен работать на Store
// той же транзакции, что и сохранение записи: ошибка откатывает всё вместе.
type Adjuster struct {
	store *repository.Store
}

func NewAdjuster(store *repository.Store) *Adjuster {
	return &Adjuster{store: store}
}

// Settle сверяет оплату сохранённой записи appt со стоимостью услуги cost.
// previouslyPaid — credits_paid записи до изменения (0 при создании).
func (a *Adjuster) Settle(ctx context.Context, appt *model.Appointment, cost, previouslyPaid int, update bool) (Plan, error) {
	customer, err := a.store.Customers.GetByID(ctx, appt.CustomerID)
	if err != nil {
		return Plan{}, err
	}

	plan, err := Settle(Input{
		Method:         appt.PaymentMethod,
		Cost:           cost,
		PreviouslyPaid: previouslyPaid,
		Balance:        customer.CreditBalance,
		Update:         update,
	})
	if err != nil {
		return Plan{}, err
	}

	if err := a.apply(ctx, appt.CustomerID, appt.ID, plan, update); err != nil {
		return Plan{}, err
	}

	if plan.Reconcile {
		if err := a.store.Appointments.SetPayment(ctx, appt.ID, plan.CreditsPaid, plan.Status); err != nil {
			return Plan{}, fmt.Errorf("reconcile payment: %w", err)
		}
		appt.CreditsPaid = plan.CreditsPaid
		appt.PaymentStatus = plan.Status
	} else if appt.PaymentMethod != model.PaymentCredits && appt.CreditsPaid != 0 {
		// кредиты у некредитной записи не храним
		if err := a.store.Appointments.SetPayment(ctx, appt.ID, 0, appt.PaymentStatus); err != nil {
			return Plan{}, fmt.Errorf("reconcile payment: %w", err)
		}
		appt.CreditsPaid = 0
	}
	return plan, nil
}

// RefundDeleted возвращает кредиты удалённой записи. Запись в журнале
// сохраняет appointment_id, хотя самой записи уже нет.
func (a *Adjuster) RefundDeleted(ctx context.Context, appt *model.Appointment) (Plan, error) {
	plan := Refund(appt.PaymentMethod, appt.CreditsPaid)
	if err := a.apply(ctx, appt.CustomerID, appt.ID, plan, false); err != nil {
		return Plan{}, err
	}
	return plan, nil
}

// Adjust — ручная правка баланса: amount > 0 начисляет, < 0 списывает.
// Баланс не уходит в минус, строка журнала без appointment_id.
func (a *Adjuster) Adjust(ctx context.Context, customerID uuid.UUID, amount int, description string) (*model.CreditTransaction, error) {
	if amount == 0 {
		return nil, ErrZeroAdjustment
	}

	if amount < 0 {
		ok, err := a.store.Customers.Debit(ctx, customerID, -amount)
		if err != nil {
			return nil, fmt.Errorf("debit credits: %w", err)
		}
		if !ok {
			available := 0
			if c, err := a.store.Customers.GetByID(ctx, customerID); err == nil {
				available = c.CreditBalance
			}
			return nil, &InsufficientCreditsError{Required: -amount, Available: available, Manual: true}
		}
	} else if err := a.store.Customers.Credit(ctx, customerID, amount); err != nil {
		return nil, fmt.Errorf("grant credits: %w", err)
	}

	entry := &model.CreditTransaction{
		CustomerID:  customerID,
		Amount:      amount,
		Type:        model.CreditAdjustment,
		Description: description,
	}
	if err := a.store.Credits.Create(ctx, entry); err != nil {
		return nil, fmt.Errorf("append credit transaction: %w", err)
	}
	return entry, nil
}

func (a *Adjuster) apply(ctx context.Context, customerID, appointmentID uuid.UUID, plan Plan, update bool) error {
	switch {
	case plan.Delta < 0:
		ok, err := a.store.Customers.Debit(ctx, customerID, -plan.Delta)
		if err != nil {
			return fmt.Errorf("debit credits: %w", err)
		}
		if !ok {
			// баланс успели потратить между чтением и списанием
			available := 0
			if c, err := a.store.Customers.GetByID(ctx, customerID); err == nil {
				available = c.CreditBalance
			}
			return &InsufficientCreditsError{Required: -plan.Delta, Available: available, Update: update}
		}
	case plan.Delta > 0:
		if err := a.store.Customers.Credit(ctx, customerID, plan.Delta); err != nil {
			return fmt.Errorf("refund credits: %w", err)
		}
	}

	if plan.Entry == nil {
		return nil
	}

	entry := *plan.Entry
	entry.CustomerID = customerID
	entry.AppointmentID = &appointmentID
	if err := a.store.Credits.Create(ctx, &entry); err != nil {
		return fmt.Errorf("append credit transaction: %w", err)
	}
	plan.Entry.ID = entry.ID
	return nil
}
