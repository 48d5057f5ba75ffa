package model

import (
	"fmt"

	"gorm.io/gorm"
)

// AutoMigrate выполняет миграцию всех сущностей календарного ядра.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&Outlet{},
		&Staff{},
		&StaffOutlet{},
		&Service{},
		&ServiceOutlet{},
		&Customer{},
		&Shift{},
		&TimeOff{},
		&BlockedTime{},
		&Appointment{},
		&CreditTransaction{},
		&Event{},
	)
}

// AppointmentOverlapConstraint — имя exclusion-констрейнта на записи одного сотрудника.
const AppointmentOverlapConstraint = "appointments_staff_no_overlap"

// EnsureExclusionConstraints добавляет вторую линию защиты от двойной записи:
// Postgres сам отклонит пересекающиеся [starts_at, ends_at) одного сотрудника.
// Только для Postgres; повторный вызов ничего не меняет.
func EnsureExclusionConstraints(db *gorm.DB) error {
	if db.Dialector.Name() != "postgres" {
		return nil
	}

	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS btree_gist").Error; err != nil {
		return fmt.Errorf("create btree_gist: %w", err)
	}

	var exists bool
	err := db.Raw(
		"SELECT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = ?)",
		AppointmentOverlapConstraint,
	).Scan(&exists).Error
	if err != nil {
		return fmt.Errorf("check %s: %w", AppointmentOverlapConstraint, err)
	}
	if exists {
		return nil
	}

	stmt := fmt.Sprintf(
		`ALTER TABLE appointments ADD CONSTRAINT %s
		 EXCLUDE USING gist (staff_id WITH =, tsrange(starts_at, ends_at, '[)') WITH &&)`,
		AppointmentOverlapConstraint,
	)
	if err := db.Exec(stmt).Error; err != nil {
		return fmt.Errorf("add %s: %w", AppointmentOverlapConstraint, err)
	}
	return nil
}
