package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Leganyst/salon-booking/internal/calendar"
	"github.com/Leganyst/salon-booking/internal/ledger"
	"github.com/Leganyst/salon-booking/internal/model"
	"github.com/Leganyst/salon-booking/internal/repository"
)

const defaultSearchLimit = 20

// Directory — справочники вокруг календаря: филиалы, сотрудники, клиенты, услуги.
// Проверки конфликтов здесь не нужны, поэтому и блокировок нет.
type Directory struct {
	store  *repository.Store
	logger *zap.Logger
}

func NewDirectory(store *repository.Store, logger *zap.Logger) *Directory {
	return &Directory{store: store, logger: logger}
}

// ===== филиалы =====

func (d *Directory) Outlets(ctx context.Context) ([]model.Outlet, error) {
	items, err := d.store.Outlets.List(ctx)
	if err != nil {
		return nil, classify(d.logger, "list outlets", err)
	}
	return items, nil
}

// ===== сотрудники =====

// StaffProfile — сотрудник вместе с филиалами, где он работает.
type StaffProfile struct {
	model.Staff
	OutletIDs []uuid.UUID
}

func (d *Directory) Staff(ctx context.Context) ([]model.Staff, error) {
	items, err := d.store.Staff.List(ctx)
	if err != nil {
		return nil, classify(d.logger, "list staff", err)
	}
	return items, nil
}

func (d *Directory) StaffByOutlet(ctx context.Context, outletID uuid.UUID) ([]model.Staff, error) {
	if _, err := d.store.Outlets.GetByID(ctx, outletID); err != nil {
		return nil, classify(d.logger, "list staff by outlet", err)
	}
	items, err := d.store.Staff.ListByOutlet(ctx, outletID)
	if err != nil {
		return nil, classify(d.logger, "list staff by outlet", err, zap.String("outlet_id", outletID.String()))
	}
	return items, nil
}

func (d *Directory) StaffStats(ctx context.Context) (model.StaffStats, error) {
	stats, err := d.store.Staff.Stats(ctx)
	if err != nil {
		return model.StaffStats{}, classify(d.logger, "staff stats", err)
	}
	return stats, nil
}

func (d *Directory) GetStaff(ctx context.Context, id uuid.UUID) (*StaffProfile, error) {
	s, err := d.store.Staff.GetByID(ctx, id)
	if err != nil {
		return nil, classify(d.logger, "get staff", err)
	}
	outlets, err := d.store.Staff.OutletIDs(ctx, id)
	if err != nil {
		return nil, classify(d.logger, "get staff", err, zap.String("staff_id", id.String()))
	}
	return &StaffProfile{Staff: *s, OutletIDs: outlets}, nil
}

// SaveStaff создаёт (id == nil) или обновляет сотрудника и заменяет набор филиалов.
func (d *Directory) SaveStaff(ctx context.Context, id *uuid.UUID, in StaffProfile) (*StaffProfile, error) {
	staff := in.Staff
	if strings.TrimSpace(staff.FirstName) == "" || strings.TrimSpace(staff.Email) == "" {
		return nil, invalidf("staff first name and email are required")
	}

	err := d.store.Transaction(ctx, func(tx *repository.Store) error {
		if err := d.checkOutlets(ctx, tx, in.OutletIDs); err != nil {
			return err
		}
		if id != nil {
			existing, err := tx.Staff.GetByID(ctx, *id)
			if err != nil {
				return err
			}
			staff.ID = existing.ID
			staff.CreatedAt = existing.CreatedAt
			if err := tx.Staff.Update(ctx, &staff); err != nil {
				return err
			}
		} else {
			staff.ID = uuid.Nil
			if err := tx.Staff.Create(ctx, &staff); err != nil {
				return err
			}
		}
		return tx.Staff.ReplaceOutlets(ctx, staff.ID, in.OutletIDs)
	})
	if err != nil {
		return nil, classify(d.logger, "save staff", err)
	}
	return &StaffProfile{Staff: staff, OutletIDs: in.OutletIDs}, nil
}

func (d *Directory) DeleteStaff(ctx context.Context, id uuid.UUID) error {
	if err := d.store.Staff.Delete(ctx, id); err != nil {
		return classify(d.logger, "delete staff", err, zap.String("staff_id", id.String()))
	}
	return nil
}

func (d *Directory) checkOutlets(ctx context.Context, tx *repository.Store, ids []uuid.UUID) error {
	for _, id := range ids {
		if _, err := tx.Outlets.GetByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// ===== клиенты =====

func (d *Directory) Customers(ctx context.Context) ([]model.Customer, error) {
	items, err := d.store.Customers.List(ctx)
	if err != nil {
		return nil, classify(d.logger, "list customers", err)
	}
	return items, nil
}

func (d *Directory) SearchCustomers(ctx context.Context, query string) ([]model.Customer, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []model.Customer{}, nil
	}
	items, err := d.store.Customers.Search(ctx, query, defaultSearchLimit)
	if err != nil {
		return nil, classify(d.logger, "search customers", err)
	}
	return items, nil
}

func (d *Directory) GetCustomer(ctx context.Context, id uuid.UUID) (*model.Customer, error) {
	c, err := d.store.Customers.GetByID(ctx, id)
	if err != nil {
		return nil, classify(d.logger, "get customer", err)
	}
	return c, nil
}

// CreateCustomer — единственное место, где баланс задаётся напрямую.
func (d *Directory) CreateCustomer(ctx context.Context, in model.Customer) (*model.Customer, error) {
	in.ID = uuid.Nil
	if err := in.Validate(); err != nil {
		return nil, classify(d.logger, "create customer", err)
	}
	if err := d.store.Customers.Create(ctx, &in); err != nil {
		return nil, classify(d.logger, "create customer", err)
	}
	return &in, nil
}

// UpdateCustomer меняет карточку. Переданный баланс игнорируется: баланс
// меняется только через AdjustCredits и журнал.
func (d *Directory) UpdateCustomer(ctx context.Context, id uuid.UUID, in model.Customer) (*model.Customer, error) {
	var updated *model.Customer
	err := d.store.Transaction(ctx, func(tx *repository.Store) error {
		existing, err := tx.Customers.GetByID(ctx, id)
		if err != nil {
			return err
		}
		in.ID = existing.ID
		in.CreatedAt = existing.CreatedAt
		in.CreditBalance = existing.CreditBalance
		if err := in.Validate(); err != nil {
			return err
		}
		if err := tx.Customers.Update(ctx, &in); err != nil {
			return err
		}
		updated, err = tx.Customers.GetByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, classify(d.logger, "update customer", err, zap.String("customer_id", id.String()))
	}
	return updated, nil
}

// AdjustCredits — ручная правка баланса администратором с записью в журнал.
func (d *Directory) AdjustCredits(ctx context.Context, id uuid.UUID, amount int, description string) (*model.Customer, *model.CreditTransaction, error) {
	if amount == 0 {
		return nil, nil, invalidf("amount must not be zero")
	}

	var (
		customer *model.Customer
		entry    *model.CreditTransaction
	)
	err := d.store.Transaction(ctx, func(tx *repository.Store) error {
		if _, err := tx.Customers.GetByID(ctx, id); err != nil {
			return err
		}
		var err error
		entry, err = ledger.NewAdjuster(tx).Adjust(ctx, id, amount, strings.TrimSpace(description))
		if err != nil {
			return err
		}
		customer, err = tx.Customers.GetByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, nil, classify(d.logger, "adjust credits", err,
			zap.String("customer_id", id.String()),
			zap.Int("amount", amount),
		)
	}

	d.logger.Info("credits adjusted",
		zap.String("customer_id", id.String()),
		zap.Int("amount", amount),
		zap.Int("balance", customer.CreditBalance),
	)
	return customer, entry, nil
}

// CustomerAppointments — история записей клиента постранично. История одного
// клиента невелика, поэтому режем срез в памяти.
func (d *Directory) CustomerAppointments(ctx context.Context, id uuid.UUID, page, pageSize int) (calendar.Page[model.Appointment], error) {
	if _, err := d.store.Customers.GetByID(ctx, id); err != nil {
		return calendar.Page[model.Appointment]{}, classify(d.logger, "customer appointments", err)
	}
	items, err := d.store.Appointments.ListByCustomer(ctx, id)
	if err != nil {
		return calendar.Page[model.Appointment]{}, classify(d.logger, "customer appointments", err, zap.String("customer_id", id.String()))
	}
	return calendar.Paginate(items, page, pageSize), nil
}

// CreditHistory — журнал кредитов клиента постранично, новые сверху.
func (d *Directory) CreditHistory(ctx context.Context, id uuid.UUID, page, pageSize int) (calendar.Page[model.CreditTransaction], error) {
	if _, err := d.store.Customers.GetByID(ctx, id); err != nil {
		return calendar.Page[model.CreditTransaction]{}, classify(d.logger, "credit history", err)
	}
	page, pageSize, offset := calendar.NormalizePage(page, pageSize)
	items, total, err := d.store.Credits.ListByCustomer(ctx, id, pageSize, offset)
	if err != nil {
		return calendar.Page[model.CreditTransaction]{}, classify(d.logger, "credit history", err, zap.String("customer_id", id.String()))
	}
	return calendar.NewPage(items, page, pageSize, int(total)), nil
}

// ===== услуги =====

// ServiceProfile — услуга вместе с филиалами, где её оказывают.
type ServiceProfile struct {
	model.Service
	OutletIDs []uuid.UUID
}

func (d *Directory) Services(ctx context.Context, onlyActive bool) ([]model.Service, error) {
	items, err := d.store.Services.List(ctx, onlyActive)
	if err != nil {
		return nil, classify(d.logger, "list services", err)
	}
	return items, nil
}

func (d *Directory) ServicesByOutlet(ctx context.Context, outletID uuid.UUID) ([]model.Service, error) {
	if _, err := d.store.Outlets.GetByID(ctx, outletID); err != nil {
		return nil, classify(d.logger, "list services by outlet", err)
	}
	items, err := d.store.Services.ListByOutlet(ctx, outletID)
	if err != nil {
		return nil, classify(d.logger, "list services by outlet", err, zap.String("outlet_id", outletID.String()))
	}
	return items, nil
}

func (d *Directory) GetService(ctx context.Context, id uuid.UUID) (*ServiceProfile, error) {
	s, err := d.store.Services.GetByID(ctx, id)
	if err != nil {
		return nil, classify(d.logger, "get service", err)
	}
	outlets, err := d.store.Services.OutletIDs(ctx, id)
	if err != nil {
		return nil, classify(d.logger, "get service", err, zap.String("service_id", id.String()))
	}
	return &ServiceProfile{Service: *s, OutletIDs: outlets}, nil
}

func (d *Directory) SaveService(ctx context.Context, id *uuid.UUID, in ServiceProfile) (*ServiceProfile, error) {
	svc := in.Service
	if err := svc.Validate(); err != nil {
		return nil, classify(d.logger, "save service", err)
	}

	err := d.store.Transaction(ctx, func(tx *repository.Store) error {
		if err := d.checkOutlets(ctx, tx, in.OutletIDs); err != nil {
			return err
		}
		if id != nil {
			existing, err := tx.Services.GetByID(ctx, *id)
			if err != nil {
				return err
			}
			svc.ID = existing.ID
			svc.CreatedAt = existing.CreatedAt
			if err := tx.Services.Update(ctx, &svc); err != nil {
				return err
			}
		} else {
			svc.ID = uuid.Nil
			if err := tx.Services.Create(ctx, &svc); err != nil {
				return err
			}
		}
		return tx.Services.ReplaceOutlets(ctx, svc.ID, in.OutletIDs)
	})
	if err != nil {
		return nil, classify(d.logger, "save service", err)
	}
	return &ServiceProfile{Service: svc, OutletIDs: in.OutletIDs}, nil
}

func (d *Directory) DeleteService(ctx context.Context, id uuid.UUID) error {
	if err := d.store.Services.Delete(ctx, id); err != nil {
		return classify(d.logger, "delete service", err, zap.String("service_id", id.String()))
	}
	return nil
}
