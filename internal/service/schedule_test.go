package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/Leganyst/salon-booking/internal/calendar"
	"github.com/Leganyst/salon-booking/internal/crosscheck"
	"github.com/Leganyst/salon-booking/internal/model"
	"github.com/Leganyst/salon-booking/internal/repository"
	"github.com/Leganyst/salon-booking/internal/service"
)

func TestSaveShift_RejectsHoursThatDropAppointments(t *testing.T) {
	e := setup(t, 0, 0)
	ctx := context.Background()

	e.fixture.AddAppointment(t, e.store, monday, "10:00", "10:30")

	in := service.ShiftInput{
		StaffID: e.fixture.Staff.ID,
		Date:    calendar.MustDate(monday),
		Range:   calendar.MustRange("11:00", "17:00"),
	}
	_, err := e.cal.SaveShift(ctx, nil, in)
	want := "Existing appointments fall outside new hours"
	if err == nil || err.Error() != want {
		t.Fatalf("expected %q, got %v", want, err)
	}

	in.Range = calendar.MustRange("10:00", "12:00")
	shift, err := e.cal.SaveShift(ctx, nil, in)
	if err != nil {
		t.Fatalf("expected shift to be saved, got %v", err)
	}

	w, err := e.cal.Window(ctx, e.fixture.Staff.ID, calendar.MustDate(monday))
	if err != nil {
		t.Fatalf("window: %v", err)
	}
	if w.IsDefault() || w.Range.String() != "10:00-12:00" {
		t.Fatalf("expected shift window 10:00-12:00, got %s (default=%v)", w.Range, w.IsDefault())
	}

	if err := e.cal.DeleteShift(ctx, shift.ID); err != nil {
		t.Fatalf("delete shift: %v", err)
	}
	w, err = e.cal.Window(ctx, e.fixture.Staff.ID, calendar.MustDate(monday))
	if err != nil {
		t.Fatalf("window: %v", err)
	}
	if !w.IsDefault() || w.Range.String() != "09:00-21:00" {
		t.Fatalf("expected default weekday window, got %s", w.Range)
	}
}

func TestSaveTimeOff_ConflictsWithAppointment(t *testing.T) {
	e := setup(t, 0, 0)
	ctx := context.Background()

	e.fixture.AddAppointment(t, e.store, monday, "10:00", "10:30")

	in := service.TimeOffInput{
		StaffID:   e.fixture.Staff.ID,
		Type:      model.TimeOffPersonal,
		Duration:  1,
		StartDate: calendar.MustDate(monday),
		Range:     calendar.MustRange("10:00", "11:00"),
	}
	_, err := e.cal.SaveTimeOff(ctx, nil, in)
	want := "Time off 10:00-11:00 by staff Mia has clashing appointments."
	if err == nil || err.Error() != want {
		t.Fatalf("expected %q, got %v", want, err)
	}

	in.Range = calendar.MustRange("13:00", "14:00")
	saved, err := e.cal.SaveTimeOff(ctx, nil, in)
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if saved.Frequency != model.TimeOffOnce {
		t.Fatalf("expected frequency None, got %s", saved.Frequency)
	}

	items, err := e.cal.TimeOffs(ctx, crosscheck.OutletScope(e.fixture.Outlet.ID), calendar.MustDate(monday))
	if err != nil {
		t.Fatalf("list time offs: %v", err)
	}
	if len(items) != 1 || items[0].ID != saved.ID {
		t.Fatalf("expected the saved time off, got %d items", len(items))
	}
}

func TestSaveTimeOff_RepeatNeedsEndDate(t *testing.T) {
	e := setup(t, 0, 0)

	_, err := e.cal.SaveTimeOff(context.Background(), nil, service.TimeOffInput{
		StaffID:   e.fixture.Staff.ID,
		Type:      model.TimeOffSickLeave,
		StartDate: calendar.MustDate(monday),
		Range:     calendar.MustRange("09:00", "17:00"),
		Frequency: model.TimeOffRepeat,
	})
	if !errors.Is(err, service.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestSaveBlockedTime_UpdateExcludesItself(t *testing.T) {
	e := setup(t, 0, 0)
	ctx := context.Background()

	rule, err := calendar.NewRule(calendar.MustDate(monday), calendar.FrequencyWeekly, calendar.EndsAfter{Occurrences: 3})
	if err != nil {
		t.Fatalf("rule: %v", err)
	}
	in := service.BlockedTimeInput{
		StaffID: e.fixture.Staff.ID,
		Title:   "Team meeting",
		Range:   calendar.MustRange("12:00", "13:00"),
		Rule:    rule,
	}
	saved, err := e.cal.SaveBlockedTime(ctx, nil, in)
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}

	in.Range = calendar.MustRange("12:30", "13:30")
	if _, err := e.cal.SaveBlockedTime(ctx, &saved.ID, in); err != nil {
		t.Fatalf("expected update to ignore its own row, got %v", err)
	}

	// второй экземпляр правила через неделю, третий через две
	for _, d := range []string{"2025-01-13", "2025-01-20"} {
		items, err := e.cal.BlockedTimes(ctx, crosscheck.StaffScope(e.fixture.Staff.ID), calendar.MustDate(d))
		if err != nil {
			t.Fatalf("list blocked times: %v", err)
		}
		if len(items) != 1 {
			t.Fatalf("expected blocked time on %s, got %d", d, len(items))
		}
	}
	items, err := e.cal.BlockedTimes(ctx, crosscheck.StaffScope(e.fixture.Staff.ID), calendar.MustDate("2025-01-27"))
	if err != nil {
		t.Fatalf("list blocked times: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("expected rule to end after 3 occurrences, got %d", len(items))
	}

	in.Range = calendar.MustRange("13:30", "14:30")
	in.Title = "Training"
	if _, err := e.cal.SaveBlockedTime(ctx, nil, in); err != nil {
		t.Fatalf("expected touching blocked time to succeed, got %v", err)
	}
	in.Range = calendar.MustRange("14:00", "14:45")
	_, err = e.cal.SaveBlockedTime(ctx, nil, in)
	want := "Blocked time 14:00-14:45 by staff Mia has clashing blocked times."
	if err == nil || err.Error() != want {
		t.Fatalf("expected %q, got %v", want, err)
	}

	if err := e.cal.DeleteBlockedTime(ctx, saved.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := e.cal.GetBlockedTime(ctx, saved.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestValidate_DryRun(t *testing.T) {
	e := setup(t, 0, 0)
	ctx := context.Background()

	e.fixture.AddAppointment(t, e.store, monday, "10:00", "10:30")
	customerID := e.fixture.Customer.ID

	err := e.cal.Validate(ctx, service.ProposalInput{
		Kind:       crosscheck.KindAppointment,
		StaffID:    e.fixture.Staff.ID,
		CustomerID: &customerID,
		Date:       calendar.MustDate(monday),
		Range:      calendar.MustRange("10:15", "10:45"),
	})
	if !crosscheck.IsConflict(err) {
		t.Fatalf("expected conflict, got %v", err)
	}

	err = e.cal.Validate(ctx, service.ProposalInput{
		Kind:    crosscheck.Kind("Holiday"),
		StaffID: e.fixture.Staff.ID,
		Date:    calendar.MustDate(monday),
		Range:   calendar.MustRange("10:15", "10:45"),
	})
	if !errors.Is(err, service.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}

	err = e.cal.Validate(ctx, service.ProposalInput{
		Kind:    crosscheck.KindAppointment,
		StaffID: uuid.New(),
		Date:    calendar.MustDate(monday),
		Range:   calendar.MustRange("10:15", "10:45"),
	})
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAvailability_SkipsBusySlots(t *testing.T) {
	e := setup(t, 0, 0)
	ctx := context.Background()

	e.fixture.AddAppointment(t, e.store, monday, "09:00", "16:00")

	slots, err := e.cal.Availability(ctx, e.fixture.Staff.ID, nil, calendar.MustDate(monday), 30, 30)
	if err != nil {
		t.Fatalf("availability: %v", err)
	}
	got := make([]string, 0, len(slots))
	for _, s := range slots {
		got = append(got, s.String())
	}
	want := []string{"16:00-16:30", "16:30-17:00"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("expected %v, got %v", want, got)
	}

	if _, err := e.cal.Availability(ctx, e.fixture.Staff.ID, nil, calendar.MustDate(monday), 0, 30); !errors.Is(err, service.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
