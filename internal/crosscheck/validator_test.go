package crosscheck_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/Leganyst/salon-booking/internal/calendar"
	"github.com/Leganyst/salon-booking/internal/crosscheck"
	"github.com/Leganyst/salon-booking/internal/model"
	"github.com/Leganyst/salon-booking/internal/repository"
	"github.com/Leganyst/salon-booking/internal/storetest"
)

const monday = "2025-01-06"

func setup(t *testing.T) (*repository.Store, *storetest.Fixture, *crosscheck.Validator) {
	t.Helper()
	store := storetest.NewStore(t)
	f := storetest.Seed(t, store, 0, 0)
	return store, f, crosscheck.NewValidator(store, crosscheck.StandardHours)
}

func appointmentProposal(f *storetest.Fixture, date, from, to string) crosscheck.Proposal {
	return crosscheck.Proposal{
		Kind:     crosscheck.KindAppointment,
		Staff:    crosscheck.Actor{ID: f.Staff.ID, Name: f.Staff.FirstName},
		Customer: &crosscheck.Actor{ID: f.Customer.ID, Name: f.Customer.FirstName},
		Date:     calendar.MustDate(date),
		Range:    calendar.MustRange(from, to),
	}
}

func expectConflict(t *testing.T, err error, check crosscheck.Check, with crosscheck.Kind) *crosscheck.ConflictError {
	t.Helper()
	var ce *crosscheck.ConflictError
	if !errors.As(err, &ce) {
		t.Fatalf("expected ConflictError, got %v", err)
	}
	if ce.Check != check || ce.With != with {
		t.Fatalf("expected %s with %q, got %s with %q (%v)", check, with, ce.Check, ce.With, ce)
	}
	return ce
}

func addBlocked(t *testing.T, store *repository.Store, staffID uuid.UUID, rule calendar.Rule, from, to string) model.BlockedTime {
	t.Helper()
	bt := model.BlockedTime{
		StaffID:  staffID,
		Title:    "Training",
		FromTime: calendar.MustClock(from),
		ToTime:   calendar.MustClock(to),
	}
	bt.SetRecurrence(rule)
	if err := store.BlockedTimes.Create(context.Background(), &bt); err != nil {
		t.Fatalf("create blocked time: %v", err)
	}
	return bt
}

func addTimeOff(t *testing.T, store *repository.Store, staffID uuid.UUID, date, from, to string, until string) model.TimeOff {
	t.Helper()
	off := model.TimeOff{
		StaffID:   staffID,
		Type:      model.TimeOffPersonal,
		StartDate: datatypes.Date(calendar.MustDate(date)),
		StartTime: calendar.MustClock(from),
		EndTime:   calendar.MustClock(to),
		Frequency: model.TimeOffOnce,
	}
	if until != "" {
		end := datatypes.Date(calendar.MustDate(until))
		off.Frequency = model.TimeOffRepeat
		off.EndsDate = &end
	}
	if err := store.TimeOffs.Create(context.Background(), &off); err != nil {
		t.Fatalf("create time off: %v", err)
	}
	return off
}

func TestValidate_ShiftContainmentEdges(t *testing.T) {
	store, f, v := setup(t)
	storetest.AddShift(t, store, f.Staff.ID, monday, "09:00", "18:00")

	cases := []struct {
		from, to string
		ok       bool
	}{
		{"09:00", "09:30", true},
		{"17:30", "18:00", true},
		{"09:00", "18:00", true},
		{"08:30", "09:30", false},
		{"17:45", "18:15", false},
		{"06:00", "07:00", false},
	}

	for _, tc := range cases {
		err := v.Validate(context.Background(), appointmentProposal(f, monday, tc.from, tc.to))
		if tc.ok && err != nil {
			t.Fatalf("%s-%s: expected ok, got %v", tc.from, tc.to, err)
		}
		if !tc.ok {
			expectConflict(t, err, crosscheck.CheckShiftHours, crosscheck.KindShift)
		}
	}
}

func TestValidate_DefaultHoursWithoutShift(t *testing.T) {
	_, f, v := setup(t)
	ctx := context.Background()

	// будни 09:00-21:00
	if err := v.Validate(ctx, appointmentProposal(f, monday, "20:30", "21:00")); err != nil {
		t.Fatalf("expected weekday evening to fit, got %v", err)
	}
	// суббота 10:00-19:00
	err := v.Validate(ctx, appointmentProposal(f, "2025-01-11", "09:30", "10:00"))
	expectConflict(t, err, crosscheck.CheckShiftHours, crosscheck.KindShift)
}

func TestValidate_StaffAppointmentsTouchingAndSelf(t *testing.T) {
	store, f, v := setup(t)
	ctx := context.Background()
	existing := f.AddAppointment(t, store, monday, "10:00", "10:30")

	if err := v.Validate(ctx, appointmentProposal(f, monday, "10:30", "11:00")); err != nil {
		t.Fatalf("expected touching appointments to pass, got %v", err)
	}

	err := v.Validate(ctx, appointmentProposal(f, monday, "10:15", "10:45"))
	ce := expectConflict(t, err, crosscheck.CheckStaffOverlap, crosscheck.KindAppointment)
	if ce.Error() != "Appointment 10:15-10:45 by staff Mia has clashing appointments." {
		t.Fatalf("unexpected message %q", ce.Error())
	}

	p := appointmentProposal(f, monday, "10:00", "10:30")
	p.ExcludeID = &existing.ID
	if err := v.Validate(ctx, p); err != nil {
		t.Fatalf("expected appointment not to clash with itself, got %v", err)
	}
}

func TestValidate_OrderIsFailFast(t *testing.T) {
	store, f, v := setup(t)
	ctx := context.Background()
	storetest.AddShift(t, store, f.Staff.ID, monday, "09:00", "12:00")
	f.AddAppointment(t, store, monday, "11:00", "11:30")

	rule, _ := calendar.NewRule(calendar.MustDate(monday), calendar.FrequencyNone, nil)
	addBlocked(t, store, f.Staff.ID, rule, "11:00", "12:00")

	// и за сменой, и пересекается: первой срабатывает смена
	err := v.Validate(ctx, appointmentProposal(f, monday, "11:30", "12:30"))
	expectConflict(t, err, crosscheck.CheckShiftHours, crosscheck.KindShift)

	// пересекается и с записью, и с блокировкой: первой — запись
	err = v.Validate(ctx, appointmentProposal(f, monday, "11:00", "11:30"))
	expectConflict(t, err, crosscheck.CheckStaffOverlap, crosscheck.KindAppointment)

	err = v.Validate(ctx, appointmentProposal(f, monday, "11:30", "12:00"))
	expectConflict(t, err, crosscheck.CheckStaffOverlap, crosscheck.KindBlockedTime)
}

func TestValidate_RecurringBlockedTimeAndTimeOff(t *testing.T) {
	store, f, v := setup(t)
	ctx := context.Background()

	rule, err := calendar.NewRule(calendar.MustDate(monday), calendar.FrequencyWeekly, calendar.EndsAfter{Occurrences: 3})
	if err != nil {
		t.Fatalf("rule: %v", err)
	}
	addBlocked(t, store, f.Staff.ID, rule, "13:00", "14:00")
	addTimeOff(t, store, f.Staff.ID, "2025-01-07", "15:00", "16:00", "2025-01-09")

	// третья неделя — блокировка ещё действует
	err = v.Validate(ctx, appointmentProposal(f, "2025-01-20", "13:30", "14:00"))
	expectConflict(t, err, crosscheck.CheckStaffOverlap, crosscheck.KindBlockedTime)

	// четвёртая — уже нет
	if err := v.Validate(ctx, appointmentProposal(f, "2025-01-27", "13:30", "14:00")); err != nil {
		t.Fatalf("expected blocked time to be over after 3 occurrences, got %v", err)
	}

	err = v.Validate(ctx, appointmentProposal(f, "2025-01-08", "15:30", "16:30"))
	ce := expectConflict(t, err, crosscheck.CheckStaffOverlap, crosscheck.KindTimeOff)
	if ce.Error() != "Appointment 15:30-16:30 by staff Mia has clashing time offs." {
		t.Fatalf("unexpected message %q", ce.Error())
	}

	if err := v.Validate(ctx, appointmentProposal(f, "2025-01-10", "15:30", "16:30")); err != nil {
		t.Fatalf("expected time off to end on 2025-01-09, got %v", err)
	}
}

func TestValidate_BlockedTimeExcludesItselfOnly(t *testing.T) {
	store, f, v := setup(t)
	ctx := context.Background()

	rule, _ := calendar.NewRule(calendar.MustDate(monday), calendar.FrequencyNone, nil)
	bt := addBlocked(t, store, f.Staff.ID, rule, "12:00", "13:00")

	p := crosscheck.Proposal{
		Kind:      crosscheck.KindBlockedTime,
		Staff:     crosscheck.Actor{ID: f.Staff.ID, Name: f.Staff.FirstName},
		Date:      calendar.MustDate(monday),
		Range:     calendar.MustRange("12:30", "13:30"),
		ExcludeID: &bt.ID,
	}
	if err := v.Validate(ctx, p); err != nil {
		t.Fatalf("expected blocked time to be movable over itself, got %v", err)
	}

	// тот же id у записи не должен ничего исключать
	appt := appointmentProposal(f, monday, "12:30", "13:30")
	appt.ExcludeID = &bt.ID
	err := v.Validate(ctx, appt)
	expectConflict(t, err, crosscheck.CheckStaffOverlap, crosscheck.KindBlockedTime)
}

func TestValidate_CustomerOverlapAcrossStaff(t *testing.T) {
	store, f, v := setup(t)
	ctx := context.Background()
	other := f.AddStaff(t, store, "Noor")
	f.AddAppointment(t, store, monday, "10:00", "11:00")

	p := appointmentProposal(f, monday, "10:30", "11:30")
	p.Staff = crosscheck.Actor{ID: other.ID, Name: other.FirstName}

	err := v.Validate(ctx, p)
	ce := expectConflict(t, err, crosscheck.CheckCustomerOverlap, crosscheck.KindAppointment)
	if ce.Error() != "Appointment 10:30-11:30 by customer Alex has clashing appointments." {
		t.Fatalf("unexpected message %q", ce.Error())
	}
}

func TestValidate_ShiftKeepsExistingInside(t *testing.T) {
	store, f, v := setup(t)
	ctx := context.Background()
	f.AddAppointment(t, store, monday, "10:00", "10:30")
	addTimeOff(t, store, f.Staff.ID, monday, "16:00", "17:00", "")

	shift := func(from, to string) crosscheck.Proposal {
		return crosscheck.Proposal{
			Kind:  crosscheck.KindShift,
			Staff: crosscheck.Actor{ID: f.Staff.ID, Name: f.Staff.FirstName},
			Date:  calendar.MustDate(monday),
			Range: calendar.MustRange(from, to),
		}
	}

	if err := v.Validate(ctx, shift("10:00", "17:00")); err != nil {
		t.Fatalf("expected shift covering everything to pass, got %v", err)
	}

	err := v.Validate(ctx, shift("10:15", "18:00"))
	ce := expectConflict(t, err, crosscheck.CheckOutsideNewHours, crosscheck.KindAppointment)
	if ce.Error() != "Existing appointments fall outside new hours" {
		t.Fatalf("unexpected message %q", ce.Error())
	}

	err = v.Validate(ctx, shift("09:00", "16:30"))
	expectConflict(t, err, crosscheck.CheckOutsideNewHours, crosscheck.KindTimeOff)
}

func TestValidate_RejectsBrokenProposal(t *testing.T) {
	_, f, v := setup(t)

	p := appointmentProposal(f, monday, "10:00", "10:30")
	p.Staff.ID = uuid.Nil
	if err := v.Validate(context.Background(), p); !errors.Is(err, crosscheck.ErrInvalidProposal) {
		t.Fatalf("expected ErrInvalidProposal, got %v", err)
	}

	p = appointmentProposal(f, monday, "10:00", "10:30")
	p.Range = calendar.Range{Start: calendar.MustClock("11:00"), End: calendar.MustClock("10:00")}
	if err := v.Validate(context.Background(), p); !errors.Is(err, crosscheck.ErrInvalidProposal) {
		t.Fatalf("expected ErrInvalidProposal for reversed range, got %v", err)
	}
}
