// Package ledger держит баланс кредитов клиента в согласии с записями,
// оплаченными кредитами. Любое изменение баланса сопровождается строкой
// в журнале credit_transactions.
package ledger

import (
	"fmt"

	"github.com/Leganyst/salon-booking/internal/model"
)

// InsufficientCreditsError — у клиента меньше кредитов, чем нужно списать.
type InsufficientCreditsError struct {
	Required  int
	Available int
	Update    bool
	Manual    bool
}

func (e *InsufficientCreditsError) Error() string {
	if e.Manual {
		return "Insufficient credits for adjustment"
	}
	if e.Update {
		return "Insufficient credits for updated appointment"
	}
	return "Insufficient credits for new appointment"
}

// Input — всё, что нужно для расчёта, без обращения к БД.
type Input struct {
	Method model.PaymentMethod
	// Cost — стоимость услуги в кредитах.
	Cost int
	// PreviouslyPaid — credits_paid сохранённой записи, 0 при создании.
	PreviouslyPaid int
	Balance        int
	Update         bool
}

// Plan — что сделать с балансом, журналом и оплатой записи.
type Plan struct {
	// Delta > 0 — вернуть клиенту, < 0 — списать.
	Delta int
	// Entry == nil — журнал не трогаем.
	Entry *model.CreditTransaction

	// Reconcile — выставить записи CreditsPaid и PaymentStatus.
	Reconcile   bool
	CreditsPaid int
	Status      model.PaymentStatus
}

// Settle рассчитывает план. Единственная ошибка — *InsufficientCreditsError.
func Settle(in Input) (Plan, error) {
	if in.Method != model.PaymentCredits {
		return switchAway(in), nil
	}

	plan := Plan{Reconcile: true, CreditsPaid: in.Cost, Status: model.PaymentPaid}

	diff := in.Cost - in.PreviouslyPaid
	switch {
	case diff > 0:
		if in.Balance < diff {
			return Plan{}, &InsufficientCreditsError{Required: diff, Available: in.Balance, Update: in.Update}
		}
		desc := fmt.Sprintf("Used %d credits for new appointment", in.Cost)
		if in.Update {
			desc = fmt.Sprintf("Extra %d credits used for updated appointment", diff)
		}
		plan.Delta = -diff
		plan.Entry = &model.CreditTransaction{Amount: -diff, Type: model.CreditUsage, Description: desc}
	case diff < 0:
		refund := -diff
		plan.Delta = refund
		plan.Entry = &model.CreditTransaction{
			Amount:      refund,
			Type:        model.CreditRefund,
			Description: fmt.Sprintf("Refunded %d credits after service change", refund),
		}
	}
	return plan, nil
}

// switchAway — оплата не кредитами. Если раньше платили кредитами, возвращаем всё.
func switchAway(in Input) Plan {
	if !in.Update || in.PreviouslyPaid <= 0 {
		return Plan{}
	}
	return Plan{
		Delta: in.PreviouslyPaid,
		Entry: &model.CreditTransaction{
			Amount:      in.PreviouslyPaid,
			Type:        model.CreditRefund,
			Description: fmt.Sprintf("Refunded %d credits after switching to card/cash payment", in.PreviouslyPaid),
		},
		Reconcile:   true,
		CreditsPaid: 0,
		Status:      model.PaymentPending,
	}
}

// Refund — план возврата при удалении записи.
func Refund(method model.PaymentMethod, creditsPaid int) Plan {
	if method != model.PaymentCredits || creditsPaid <= 0 {
		return Plan{}
	}
	return Plan{
		Delta: creditsPaid,
		Entry: &model.CreditTransaction{
			Amount:      creditsPaid,
			Type:        model.CreditRefund,
			Description: fmt.Sprintf("Refunded %d credits for cancelled appointment", creditsPaid),
		},
	}
}
