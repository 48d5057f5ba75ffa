package repository

import (
	"context"
	"database/sql"
	"time"

	"gorm.io/gorm"
)

// Store собирает все репозитории над одним *gorm.DB. Внутри Transaction
// репозитории работают на транзакции, снаружи — на пуле соединений.
type Store struct {
	db         *gorm.DB
	isolation  sql.IsolationLevel
	maxRetries int
	inTx       bool

	Outlets      OutletRepository
	Staff        StaffRepository
	Services     ServiceRepository
	Customers    CustomerRepository
	Shifts       ShiftRepository
	TimeOffs     TimeOffRepository
	BlockedTimes BlockedTimeRepository
	Appointments AppointmentRepository
	Credits      CreditTransactionRepository
	Events       EventRepository
}

type StoreOption func(*Store)

// WithIsolation задаёт уровень изоляции транзакций записи.
func WithIsolation(level sql.IsolationLevel) StoreOption {
	return func(s *Store) { s.isolation = level }
}

// WithMaxRetries — сколько раз повторять транзакцию после 40001/40P01.
func WithMaxRetries(n int) StoreOption {
	return func(s *Store) { s.maxRetries = n }
}

func NewStore(db *gorm.DB, opts ...StoreOption) *Store {
	s := &Store{db: db, isolation: sql.LevelDefault}
	for _, opt := range opts {
		opt(s)
	}
	s.bind(db)
	return s
}

func (s *Store) bind(db *gorm.DB) {
	s.db = db
	s.Outlets = NewGormOutletRepository(db)
	s.Staff = NewGormStaffRepository(db)
	s.Services = NewGormServiceRepository(db)
	s.Customers = NewGormCustomerRepository(db)
	s.Shifts = NewGormShiftRepository(db)
	s.TimeOffs = NewGormTimeOffRepository(db)
	s.BlockedTimes = NewGormBlockedTimeRepository(db)
	s.Appointments = NewGormAppointmentRepository(db)
	s.Credits = NewGormCreditTransactionRepository(db)
	s.Events = NewGormEventRepository(db)
}

func (s *Store) DB() *gorm.DB {
	return s.db
}

// Transaction выполняет fn в одной транзакции. Ошибки сериализации
// повторяются до maxRetries раз, поэтому fn не должна иметь побочных
// эффектов вне tx. Вложенный вызов переиспользует текущую транзакцию.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	if s.inTx {
		return fn(s)
	}

	opts := &sql.TxOptions{Isolation: s.isolation}

	var err error
	for attempt := 0; ; attempt++ {
		err = s.db.WithContext(ctx).Transaction(func(gtx *gorm.DB) error {
			tx := &Store{isolation: s.isolation, maxRetries: s.maxRetries, inTx: true}
			tx.bind(gtx)
			return fn(tx)
		}, opts)

		if err == nil || !IsRetryable(err) || attempt >= s.maxRetries {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt+1) * 20 * time.Millisecond):
		}
	}
}

// IsolationLevel переводит строку из конфига в sql.IsolationLevel.
func IsolationLevel(name string) sql.IsolationLevel {
	switch name {
	case "serializable":
		return sql.LevelSerializable
	case "repeatable read":
		return sql.LevelRepeatableRead
	case "read committed":
		return sql.LevelReadCommitted
	default:
		return sql.LevelDefault
	}
}
