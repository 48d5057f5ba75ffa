package repository

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Leganyst/salon-booking/internal/model"
)

type CustomerRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Customer, error)
	List(ctx context.Context) ([]model.Customer, error)
	// Search ищет по имени, фамилии, email и телефону (без учёта регистра).
	Search(ctx context.Context, query string, limit int) ([]model.Customer, error)
	Create(ctx context.Context, customer *model.Customer) error
	// Update меняет карточку клиента; баланс кредитов не трогает.
	Update(ctx context.Context, customer *model.Customer) error
	// Debit списывает amount, только если баланса хватает. false — не хватило.
	Debit(ctx context.Context, id uuid.UUID, amount int) (bool, error)
	// Credit начисляет amount.
	Credit(ctx context.Context, id uuid.UUID, amount int) error
}

type GormCustomerRepository struct {
	db *gorm.DB
}

func NewGormCustomerRepository(db *gorm.DB) *GormCustomerRepository {
	return &GormCustomerRepository{db: db}
}

func (r *GormCustomerRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Customer, error) {
	var c model.Customer
	if err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		return nil, wrapFind(err, "customer", id)
	}
	return &c, nil
}

func (r *GormCustomerRepository) List(ctx context.Context) ([]model.Customer, error) {
	var customers []model.Customer
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&customers).Error
	if err != nil {
		return nil, err
	}
	return customers, nil
}

func (r *GormCustomerRepository) Search(ctx context.Context, query string, limit int) ([]model.Customer, error) {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return []model.Customer{}, nil
	}
	if limit <= 0 {
		limit = 20
	}

	like := "%" + query + "%"
	var customers []model.Customer
	err := r.db.WithContext(ctx).
		Where(
			"LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ? OR LOWER(email) LIKE ? OR phone LIKE ?",
			like, like, like, like,
		).
		Order("first_name ASC, last_name ASC").
		Limit(limit).
		Find(&customers).Error
	if err != nil {
		return nil, err
	}
	return customers, nil
}

func (r *GormCustomerRepository) Create(ctx context.Context, customer *model.Customer) error {
	return r.db.WithContext(ctx).Create(customer).Error
}

func (r *GormCustomerRepository) Update(ctx context.Context, customer *model.Customer) error {
	res := r.db.WithContext(ctx).
		Model(customer).
		Select("*").
		Omit("id", "created_at", "credit_balance").
		Updates(customer)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notFound("customer", customer.ID)
	}
	return nil
}

func (r *GormCustomerRepository) Debit(ctx context.Context, id uuid.UUID, amount int) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Customer{}).
		Where("id = ? AND credit_balance >= ?", id, amount).
		UpdateColumn("credit_balance", gorm.Expr("credit_balance - ?", amount))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *GormCustomerRepository) Credit(ctx context.Context, id uuid.UUID, amount int) error {
	res := r.db.WithContext(ctx).
		Model(&model.Customer{}).
		Where("id = ?", id).
		UpdateColumn("credit_balance", gorm.Expr("credit_balance + ?", amount))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notFound("customer", id)
	}
	return nil
}
