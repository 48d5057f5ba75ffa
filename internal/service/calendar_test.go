package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Leganyst/salon-booking/internal/auth"
	"github.com/Leganyst/salon-booking/internal/calendar"
	"github.com/Leganyst/salon-booking/internal/crosscheck"
	"github.com/Leganyst/salon-booking/internal/events"
	"github.com/Leganyst/salon-booking/internal/ledger"
	"github.com/Leganyst/salon-booking/internal/lock"
	"github.com/Leganyst/salon-booking/internal/model"
	"github.com/Leganyst/salon-booking/internal/repository"
	"github.com/Leganyst/salon-booking/internal/service"
	"github.com/Leganyst/salon-booking/internal/storetest"
)

const monday = "2025-01-06"

type env struct {
	cal      *service.Calendar
	store    *repository.Store
	fixture  *storetest.Fixture
	recorder *events.Recorder
}

func setup(t *testing.T, balance, cost int) *env {
	t.Helper()
	store := storetest.NewStore(t)
	f := storetest.Seed(t, store, balance, cost)
	storetest.AddShift(t, store, f.Staff.ID, monday, "09:00", "17:00")

	rec := &events.Recorder{}
	cal := service.NewCalendar(store, lock.NewLocalLocker(), rec, crosscheck.StandardHours, zap.NewNop())
	return &env{cal: cal, store: store, fixture: f, recorder: rec}
}

func (e *env) input(from, to string, method model.PaymentMethod) service.AppointmentInput {
	return service.AppointmentInput{
		CustomerID:    e.fixture.Customer.ID,
		StaffID:       e.fixture.Staff.ID,
		ServiceID:     e.fixture.Service.ID,
		OutletID:      e.fixture.Outlet.ID,
		Date:          calendar.MustDate(monday),
		Range:         calendar.MustRange(from, to),
		PaymentMethod: method,
		CashPaid:      decimal.Zero,
	}
}

func (e *env) balance(t *testing.T, id uuid.UUID) int {
	t.Helper()
	c, err := e.store.Customers.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("load customer: %v", err)
	}
	return c.CreditBalance
}

func (e *env) eventTypes() []model.EventType {
	var out []model.EventType
	for _, m := range e.recorder.Messages() {
		out = append(out, m.Type)
	}
	return out
}

func TestSaveAppointment_DoubleBookingConflicts(t *testing.T) {
	e := setup(t, 0, 0)
	ctx := context.Background()

	appt, err := e.cal.SaveAppointment(ctx, nil, e.input("10:00", "10:30", model.PaymentCash))
	if err != nil {
		t.Fatalf("expected first booking to succeed, got %v", err)
	}
	if appt.ID == uuid.Nil {
		t.Fatalf("expected appointment id to be assigned")
	}
	if appt.PaymentStatus != model.PaymentPending || appt.Status != model.AppointmentBooked {
		t.Fatalf("expected Pending/Booked defaults, got %s/%s", appt.PaymentStatus, appt.Status)
	}

	_, err = e.cal.SaveAppointment(ctx, nil, e.input("10:00", "10:30", model.PaymentCash))
	var ce *crosscheck.ConflictError
	if !errors.As(err, &ce) {
		t.Fatalf("expected ConflictError, got %v", err)
	}
	want := "Appointment 10:00-10:30 by staff Mia has clashing appointments."
	if err.Error() != want {
		t.Fatalf("expected %q, got %q", want, err.Error())
	}

	types := e.eventTypes()
	if len(types) != 1 || types[0] != model.EventTypeAppointmentCreated {
		t.Fatalf("expected one appointment_created event, got %v", types)
	}
}

func TestSaveAppointment_TouchingAndUpdateInPlace(t *testing.T) {
	e := setup(t, 0, 0)
	ctx := context.Background()

	first, err := e.cal.SaveAppointment(ctx, nil, e.input("10:00", "10:30", model.PaymentCash))
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if _, err := e.cal.SaveAppointment(ctx, nil, e.input("10:30", "11:00", model.PaymentCash)); err != nil {
		t.Fatalf("expected touching booking to succeed, got %v", err)
	}

	// сдвиг внутри собственного интервала не конфликтует сам с собой
	moved, err := e.cal.SaveAppointment(ctx, &first.ID, e.input("09:45", "10:15", model.PaymentCash))
	if err != nil {
		t.Fatalf("expected update to succeed, got %v", err)
	}
	if moved.ID != first.ID {
		t.Fatalf("expected id %s to be kept, got %s", first.ID, moved.ID)
	}

	stored, err := e.cal.GetAppointment(ctx, first.ID)
	if err != nil {
		t.Fatalf("get appointment: %v", err)
	}
	if got := stored.Window().String(); got != "09:45-10:15" {
		t.Fatalf("expected 09:45-10:15, got %s", got)
	}
}

func TestSaveAppointment_OutsideShift(t *testing.T) {
	e := setup(t, 0, 0)

	_, err := e.cal.SaveAppointment(context.Background(), nil, e.input("16:45", "17:15", model.PaymentCard))
	want := "Appointment 16:45-17:15 by staff Mia is outside shift hours."
	if err == nil || err.Error() != want {
		t.Fatalf("expected %q, got %v", want, err)
	}
}

func TestSaveAppointment_UnknownReferences(t *testing.T) {
	e := setup(t, 0, 0)

	in := e.input("10:00", "10:30", model.PaymentCash)
	in.ServiceID = uuid.New()

	_, err := e.cal.SaveAppointment(context.Background(), nil, in)
	var nf *repository.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
	if nf.Entity != "service" {
		t.Fatalf("expected entity service, got %s", nf.Entity)
	}
}

func TestSaveAppointment_InvalidInput(t *testing.T) {
	e := setup(t, 0, 0)

	in := e.input("10:00", "10:30", model.PaymentMethod("Voucher"))
	_, err := e.cal.SaveAppointment(context.Background(), nil, in)
	if !errors.Is(err, service.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestSaveAppointment_CreditsLifecycle(t *testing.T) {
	e := setup(t, 20, 8)
	ctx := context.Background()
	customerID := e.fixture.Customer.ID

	appt, err := e.cal.SaveAppointment(ctx, nil, e.input("10:00", "10:30", model.PaymentCredits))
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if appt.CreditsPaid != 8 || appt.PaymentStatus != model.PaymentPaid {
		t.Fatalf("expected 8 credits paid, got %d (%s)", appt.CreditsPaid, appt.PaymentStatus)
	}
	if got := e.balance(t, customerID); got != 12 {
		t.Fatalf("expected balance 12, got %d", got)
	}

	cheaper := model.Service{
		Name: "Express facial", DurationMin: 30, PriceType: model.PriceTypeFixed,
		CreditCost: 5, CashPrice: decimal.RequireFromString("50.00"), Active: true,
	}
	if err := e.store.Services.Create(ctx, &cheaper); err != nil {
		t.Fatalf("create service: %v", err)
	}

	in := e.input("10:00", "10:30", model.PaymentCredits)
	in.ServiceID = cheaper.ID
	updated, err := e.cal.SaveAppointment(ctx, &appt.ID, in)
	if err != nil {
		t.Fatalf("expected update to succeed, got %v", err)
	}
	if updated.CreditsPaid != 5 {
		t.Fatalf("expected 5 credits paid, got %d", updated.CreditsPaid)
	}
	if got := e.balance(t, customerID); got != 15 {
		t.Fatalf("expected balance 15, got %d", got)
	}

	if err := e.cal.DeleteAppointment(ctx, appt.ID); err != nil {
		t.Fatalf("expected delete to succeed, got %v", err)
	}
	if got := e.balance(t, customerID); got != 20 {
		t.Fatalf("expected balance 20, got %d", got)
	}

	history, err := service.NewDirectory(e.store, zap.NewNop()).CreditHistory(ctx, customerID, 1, 10)
	if err != nil {
		t.Fatalf("credit history: %v", err)
	}
	if history.Total != 3 {
		t.Fatalf("expected 3 ledger entries, got %d", history.Total)
	}
	sum := 0
	for _, tx := range history.Items {
		sum += tx.Amount
	}
	if sum != 0 {
		t.Fatalf("expected ledger to net to zero, got %d", sum)
	}

	types := e.eventTypes()
	want := []model.EventType{
		model.EventTypeAppointmentCreated, model.EventTypeCreditsAdjusted,
		model.EventTypeAppointmentUpdated, model.EventTypeCreditsAdjusted,
		model.EventTypeAppointmentDeleted, model.EventTypeCreditsAdjusted,
	}
	if len(types) != len(want) {
		t.Fatalf("expected events %v, got %v", want, types)
	}
	for i := range want {
		if types[i] != want[i] {
			t.Fatalf("expected events %v, got %v", want, types)
		}
	}
}

func TestSaveAppointment_InsufficientCreditsLeavesNoTrace(t *testing.T) {
	e := setup(t, 10, 15)
	ctx := context.Background()

	_, err := e.cal.SaveAppointment(ctx, nil, e.input("10:00", "10:30", model.PaymentCredits))
	var ic *ledger.InsufficientCreditsError
	if !errors.As(err, &ic) {
		t.Fatalf("expected InsufficientCreditsError, got %v", err)
	}
	if err.Error() != "Insufficient credits for new appointment" {
		t.Fatalf("expected new appointment message, got %q", err.Error())
	}

	items, err := e.cal.AppointmentsOn(ctx, crosscheck.StaffScope(e.fixture.Staff.ID), calendar.MustDate(monday))
	if err != nil {
		t.Fatalf("list appointments: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("expected no appointments, got %d", len(items))
	}
	if got := e.balance(t, e.fixture.Customer.ID); got != 10 {
		t.Fatalf("expected balance 10, got %d", got)
	}
	if len(e.recorder.Messages()) != 0 {
		t.Fatalf("expected no published events, got %d", len(e.recorder.Messages()))
	}
}

func TestSaveAppointment_JournalFailureRollsBackBalance(t *testing.T) {
	e := setup(t, 20, 5)
	ctx := context.Background()

	// журнал кредитов недоступен: списание с баланса уже сделано, строка журнала — нет
	if err := e.store.DB().Migrator().DropTable(&model.CreditTransaction{}); err != nil {
		t.Fatalf("drop credit_transactions: %v", err)
	}

	_, err := e.cal.SaveAppointment(ctx, nil, e.input("10:00", "10:30", model.PaymentCredits))
	var pe *service.PersistenceError
	if !errors.As(err, &pe) {
		t.Fatalf("expected PersistenceError, got %v", err)
	}

	if got := e.balance(t, e.fixture.Customer.ID); got != 20 {
		t.Fatalf("expected balance 20, got %d", got)
	}
	var count int64
	if err := e.store.DB().Model(&model.Appointment{}).Count(&count).Error; err != nil {
		t.Fatalf("count appointments: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected no appointments, got %d", count)
	}
	if len(e.recorder.Messages()) != 0 {
		t.Fatalf("expected no published events, got %d", len(e.recorder.Messages()))
	}
}

func TestSaveAppointment_CustomerChangeRefundsPreviousCustomer(t *testing.T) {
	e := setup(t, 20, 8)
	ctx := context.Background()

	other := model.Customer{
		FirstName: "Sam", LastName: "Ong", Email: uuid.NewString() + "@mail.test",
		Phone: "+6593333333", CreditBalance: 10,
	}
	if err := e.store.Customers.Create(ctx, &other); err != nil {
		t.Fatalf("create customer: %v", err)
	}

	appt, err := e.cal.SaveAppointment(ctx, nil, e.input("10:00", "10:30", model.PaymentCredits))
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}

	in := e.input("10:00", "10:30", model.PaymentCredits)
	in.CustomerID = other.ID
	if _, err := e.cal.SaveAppointment(ctx, &appt.ID, in); err != nil {
		t.Fatalf("expected update to succeed, got %v", err)
	}

	if got := e.balance(t, e.fixture.Customer.ID); got != 20 {
		t.Fatalf("expected previous customer back at 20, got %d", got)
	}
	if got := e.balance(t, other.ID); got != 2 {
		t.Fatalf("expected new customer at 2, got %d", got)
	}
}

func TestSaveAppointment_CustomerClashAcrossStaff(t *testing.T) {
	e := setup(t, 0, 0)
	ctx := context.Background()

	jo := e.fixture.AddStaff(t, e.store, "Jo")
	storetest.AddShift(t, e.store, jo.ID, monday, "09:00", "17:00")

	if _, err := e.cal.SaveAppointment(ctx, nil, e.input("10:00", "10:30", model.PaymentCash)); err != nil {
		t.Fatalf("expected success, got %v", err)
	}

	in := e.input("10:15", "10:45", model.PaymentCash)
	in.StaffID = jo.ID
	_, err := e.cal.SaveAppointment(ctx, nil, in)
	want := "Appointment 10:15-10:45 by customer Alex has clashing appointments."
	if err == nil || err.Error() != want {
		t.Fatalf("expected %q, got %v", want, err)
	}
}

func TestSaveAppointment_RecordsOperator(t *testing.T) {
	e := setup(t, 0, 0)
	manager := e.fixture.AddStaff(t, e.store, "Lena")
	ctx := auth.WithOperator(context.Background(), &auth.Operator{StaffID: manager.ID, Name: "Lena Test"})

	appt, err := e.cal.SaveAppointment(ctx, nil, e.input("10:00", "10:30", model.PaymentCash))
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	msgs := e.recorder.Messages()
	if len(msgs) == 0 {
		t.Fatalf("expected published events")
	}
	for _, m := range msgs {
		if m.ActorID != manager.ID.String() {
			t.Fatalf("expected actor %s on %s, got %q", manager.ID, m.Type, m.ActorID)
		}
	}

	var row model.Event
	if err := e.store.DB().Where("entity_id = ?", appt.ID).First(&row).Error; err != nil {
		t.Fatalf("load event: %v", err)
	}
	if row.ActorID == nil || *row.ActorID != manager.ID {
		t.Fatalf("expected stored actor %s, got %v", manager.ID, row.ActorID)
	}

	if _, err := e.cal.SaveAppointment(context.Background(), nil, e.input("11:00", "11:30", model.PaymentCash)); err != nil {
		t.Fatalf("save without operator: %v", err)
	}
	last := e.recorder.Messages()[len(e.recorder.Messages())-1]
	if last.ActorID != "" {
		t.Fatalf("expected no actor without operator, got %q", last.ActorID)
	}
}

func TestUpdateAppointmentStatus(t *testing.T) {
	e := setup(t, 0, 0)
	ctx := context.Background()

	appt, err := e.cal.SaveAppointment(ctx, nil, e.input("10:00", "10:30", model.PaymentCash))
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}

	if _, err := e.cal.UpdateAppointmentStatus(ctx, appt.ID, "Done"); !errors.Is(err, service.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}

	updated, err := e.cal.UpdateAppointmentStatus(ctx, appt.ID, model.AppointmentConfirmed)
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if updated.Status != model.AppointmentConfirmed {
		t.Fatalf("expected Confirmed, got %s", updated.Status)
	}

	if _, err := e.cal.UpdateAppointmentStatus(ctx, uuid.New(), model.AppointmentConfirmed); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListAppointments_Paginates(t *testing.T) {
	e := setup(t, 0, 0)
	ctx := context.Background()

	for _, r := range [][2]string{{"10:00", "10:30"}, {"11:00", "11:30"}, {"12:00", "12:30"}} {
		if _, err := e.cal.SaveAppointment(ctx, nil, e.input(r[0], r[1], model.PaymentCash)); err != nil {
			t.Fatalf("save %s: %v", r[0], err)
		}
	}

	page, err := e.cal.ListAppointments(ctx, 1, 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page.Items) != 2 || page.Total != 3 || !page.HasNext || page.HasPrev {
		t.Fatalf("expected 2 of 3 with next page, got %d of %d next=%v prev=%v",
			len(page.Items), page.Total, page.HasNext, page.HasPrev)
	}

	page, err = e.cal.ListAppointments(ctx, 2, 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page.Items) != 1 || page.HasNext || !page.HasPrev {
		t.Fatalf("expected last page with 1 item, got %d next=%v prev=%v", len(page.Items), page.HasNext, page.HasPrev)
	}
}
