package crosscheck_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/Leganyst/salon-booking/internal/calendar"
	"github.com/Leganyst/salon-booking/internal/crosscheck"
	"github.com/Leganyst/salon-booking/internal/model"
	"github.com/Leganyst/salon-booking/internal/repository"
	"github.com/Leganyst/salon-booking/internal/storetest"
)

func TestResolver_OutletExpandsToStaff(t *testing.T) {
	store := storetest.NewStore(t)
	f := storetest.Seed(t, store, 0, 0)
	other := f.AddStaff(t, store, "Noor")
	ctx := context.Background()

	f.AddAppointment(t, store, monday, "10:00", "10:30")
	appt := f.Appointment(monday, "11:00", "11:30", model.PaymentCash)
	appt.StaffID = other.ID
	if err := store.Appointments.Create(ctx, &appt); err != nil {
		t.Fatalf("create: %v", err)
	}

	r := crosscheck.NewResolver(store)

	items, err := r.Occurrences(ctx, crosscheck.KindAppointment, crosscheck.OutletScope(f.Outlet.ID), calendar.MustDate(monday))
	if err != nil {
		t.Fatalf("occurrences: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 outlet appointments, got %d", len(items))
	}

	mine, err := r.Occurrences(ctx, crosscheck.KindAppointment, crosscheck.StaffScope(other.ID), calendar.MustDate(monday))
	if err != nil {
		t.Fatalf("occurrences: %v", err)
	}
	if len(mine) != 1 || mine[0].Range != calendar.MustRange("11:00", "11:30") {
		t.Fatalf("expected one 11:00-11:30 occurrence, got %+v", mine)
	}

	empty, err := r.Occurrences(ctx, crosscheck.KindTimeOff, crosscheck.OutletScope(f.Outlet.ID), calendar.MustDate(monday))
	if err != nil || len(empty) != 0 {
		t.Fatalf("expected no time offs, got %d, err %v", len(empty), err)
	}
}

func TestResolver_OutletAppointmentsByBookingOutlet(t *testing.T) {
	store := storetest.NewStore(t)
	f := storetest.Seed(t, store, 0, 0)
	ctx := context.Background()

	tampines := model.Outlet{Name: "Tampines", Address: "2 Tampines Ave", Active: true}
	if err := store.Outlets.Create(ctx, &tampines); err != nil {
		t.Fatalf("create outlet: %v", err)
	}
	if err := store.Staff.AssignOutlets(ctx, f.Staff.ID, tampines.ID); err != nil {
		t.Fatalf("assign outlet: %v", err)
	}

	// Mia работает в обоих филиалах, запись оформлена в Tampines.
	appt := f.Appointment(monday, "10:00", "10:30", model.PaymentCash)
	appt.OutletID = tampines.ID
	if err := store.Appointments.Create(ctx, &appt); err != nil {
		t.Fatalf("create: %v", err)
	}

	// Сотрудник без привязки к Tampines, но запись оформлена там.
	guest := f.AddStaff(t, store, "Noor")
	visit := f.Appointment(monday, "12:00", "12:30", model.PaymentCash)
	visit.StaffID = guest.ID
	visit.OutletID = tampines.ID
	if err := store.Appointments.Create(ctx, &visit); err != nil {
		t.Fatalf("create: %v", err)
	}

	r := crosscheck.NewResolver(store)
	date := calendar.MustDate(monday)

	orchard, err := r.Appointments(ctx, crosscheck.OutletScope(f.Outlet.ID), date)
	if err != nil {
		t.Fatalf("orchard appointments: %v", err)
	}
	if len(orchard) != 0 {
		t.Fatalf("expected no Orchard appointments, got %d", len(orchard))
	}

	items, err := r.Occurrences(ctx, crosscheck.KindAppointment, crosscheck.OutletScope(tampines.ID), date)
	if err != nil {
		t.Fatalf("tampines occurrences: %v", err)
	}
	if len(items) != 2 || items[0].OwnerID != f.Staff.ID || items[1].OwnerID != guest.ID {
		t.Fatalf("expected both Tampines bookings ordered by start, got %+v", items)
	}

	mine, err := r.Appointments(ctx, crosscheck.StaffScope(f.Staff.ID), date)
	if err != nil || len(mine) != 1 {
		t.Fatalf("expected staff scope to keep the Tampines booking, got %d, err %v", len(mine), err)
	}
}

func TestResolver_UnknownOutlet(t *testing.T) {
	store := storetest.NewStore(t)
	r := crosscheck.NewResolver(store)

	_, err := r.BlockedTimes(context.Background(), crosscheck.OutletScope(uuid.New()), calendar.MustDate(monday))
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestShiftResolver_Window(t *testing.T) {
	store := storetest.NewStore(t)
	f := storetest.Seed(t, store, 0, 0)
	storetest.AddShift(t, store, f.Staff.ID, monday, "11:00", "15:00")

	hours := crosscheck.DefaultHours{
		Weekday: calendar.MustRange("08:00", "20:00"),
		Weekend: calendar.MustRange("12:00", "16:00"),
	}
	r := crosscheck.NewShiftResolver(store.Shifts, hours)
	ctx := context.Background()

	cases := []struct {
		date    string
		want    calendar.Range
		isShift bool
	}{
		{monday, calendar.MustRange("11:00", "15:00"), true},
		{"2025-01-07", hours.Weekday, false},
		{"2025-01-12", hours.Weekend, false},
	}

	for _, tc := range cases {
		w, err := r.Window(ctx, f.Staff.ID, calendar.MustDate(tc.date))
		if err != nil {
			t.Fatalf("%s: window: %v", tc.date, err)
		}
		if w.Range != tc.want || w.IsDefault() == tc.isShift {
			t.Fatalf("%s: expected %s (shift=%v), got %s (default=%v)", tc.date, tc.want, tc.isShift, w.Range, w.IsDefault())
		}
	}
}
