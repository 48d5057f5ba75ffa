// Package storetest поднимает in-memory sqlite со схемой календаря для тестов.
package storetest

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/Leganyst/salon-booking/internal/calendar"
	"github.com/Leganyst/salon-booking/internal/model"
	"github.com/Leganyst/salon-booking/internal/repository"
)

// Open открывает отдельную базу на тест. Одно соединение: всё, что идёт
// внутри транзакции, обязано ходить через неё.
func Open(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:salon_%s?mode=memory&cache=shared", strings.ReplaceAll(uuid.NewString(), "-", ""))

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:  gormlogger.Default.LogMode(gormlogger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := model.AutoMigrate(db); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}
	return db
}

func NewStore(t testing.TB) *repository.Store {
	t.Helper()
	return repository.NewStore(Open(t))
}

// Fixture — минимальный набор справочников для записи.
type Fixture struct {
	Outlet   model.Outlet
	Staff    model.Staff
	Customer model.Customer
	Service  model.Service
}

// Seed создаёт филиал, сотрудника в нём, клиента с balance кредитов
// и услугу стоимостью cost кредитов на 30 минут.
func Seed(t testing.TB, store *repository.Store, balance, cost int) *Fixture {
	t.Helper()
	ctx := context.Background()

	f := &Fixture{
		Outlet: model.Outlet{Name: "Orchard", Address: "1 Orchard Rd", Active: true},
		Staff: model.Staff{
			FirstName: "Mia", LastName: "Tan", Email: uuid.NewString() + "@salon.test",
			Phone: "+6590000000", Role: "Therapist", Bookable: true, Active: true,
		},
		Customer: model.Customer{
			FirstName: "Alex", LastName: "Lim", Email: uuid.NewString() + "@mail.test",
			Phone: "+6591111111", CreditBalance: balance,
		},
		Service: model.Service{
			Name: "Facial", DurationMin: 30, PriceType: model.PriceTypeFixed,
			CreditCost: cost, CashPrice: decimal.RequireFromString("80.00"), Active: true,
		},
	}

	must(t, store.Outlets.Create(ctx, &f.Outlet))
	must(t, store.Staff.Create(ctx, &f.Staff))
	must(t, store.Staff.AssignOutlets(ctx, f.Staff.ID, f.Outlet.ID))
	must(t, store.Customers.Create(ctx, &f.Customer))
	must(t, store.Services.Create(ctx, &f.Service))
	must(t, store.Services.ReplaceOutlets(ctx, f.Service.ID, []uuid.UUID{f.Outlet.ID}))
	return f
}

// AddStaff добавляет ещё одного сотрудника в филиал фикстуры.
func (f *Fixture) AddStaff(t testing.TB, store *repository.Store, firstName string) model.Staff {
	t.Helper()
	s := model.Staff{
		FirstName: firstName, LastName: "Test", Email: uuid.NewString() + "@salon.test",
		Phone: "+6592222222", Role: "Therapist", Bookable: true, Active: true,
	}
	must(t, store.Staff.Create(context.Background(), &s))
	must(t, store.Staff.AssignOutlets(context.Background(), s.ID, f.Outlet.ID))
	return s
}

// AddShift записывает смену сотрудника на дату.
func AddShift(t testing.TB, store *repository.Store, staffID uuid.UUID, date, from, to string) model.Shift {
	t.Helper()
	s := model.Shift{
		StaffID:   staffID,
		ShiftDate: datatypes.Date(calendar.MustDate(date)),
		StartTime: calendar.MustClock(from),
		EndTime:   calendar.MustClock(to),
	}
	must(t, store.Shifts.Upsert(context.Background(), &s))
	return s
}

// Appointment собирает запись фикстуры на date from-to без сохранения.
func (f *Fixture) Appointment(date, from, to string, method model.PaymentMethod) model.Appointment {
	d := calendar.MustDate(date)
	return model.Appointment{
		CustomerID:    f.Customer.ID,
		StaffID:       f.Staff.ID,
		ServiceID:     f.Service.ID,
		OutletID:      f.Outlet.ID,
		StartsAt:      calendar.MustClock(from).On(d),
		EndsAt:        calendar.MustClock(to).On(d),
		PaymentMethod: method,
		PaymentStatus: model.PaymentPending,
		CashPaid:      decimal.Zero,
		Status:        model.AppointmentBooked,
	}
}

// AddAppointment сохраняет запись напрямую, минуя проверки календаря.
func (f *Fixture) AddAppointment(t testing.TB, store *repository.Store, date, from, to string) model.Appointment {
	t.Helper()
	a := f.Appointment(date, from, to, model.PaymentCash)
	must(t, store.Appointments.Create(context.Background(), &a))
	return a
}

func must(t testing.TB, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
}
