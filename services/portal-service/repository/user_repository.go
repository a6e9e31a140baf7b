package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"grievance-portal/services/portal-service/models"

	"gorm.io/gorm"
)

type UserFilter struct {
	AccountType string
	Active      *bool
	Search      string
}

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	Save(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id string) error
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByIDs(ctx context.Context, ids []string) ([]models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByEmailAndType(ctx context.Context, email, accountType string) (*models.User, error)
	FindByResetToken(ctx context.Context, digest string, now time.Time) (*models.User, error)
	FindActiveNodalOfficer(ctx context.Context, departmentID string) (*models.User, error)
	ListActiveByType(ctx context.Context, accountType string) ([]models.User, error)
	List(ctx context.Context, filter UserFilter, offset, limit int) ([]models.User, int64, error)
}

type gormUserRepository struct {
	db *gorm.DB
}

func NewGormUserRepository(db *gorm.DB) UserRepository {
	return &gormUserRepository{db: db}
}

func (r *gormUserRepository) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *gormUserRepository) Save(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Save(user).Error
}

func (r *gormUserRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&models.User{}, "id = ?", id).Error
}

func (r *gormUserRepository) first(ctx context.Context, query interface{}, args ...interface{}) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where(query, args...).Order("created_at asc").First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *gormUserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *gormUserRepository) FindByIDs(ctx context.Context, ids []string) ([]models.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var users []models.User
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error
	return users, err
}

func (r *gormUserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.first(ctx, "email = ?", strings.ToLower(email))
}

func (r *gormUserRepository) FindByEmailAndType(ctx context.Context, email, accountType string) (*models.User, error) {
	return r.first(ctx, "email = ? AND account_type = ?", strings.ToLower(email), accountType)
}

func (r *gormUserRepository) FindByResetToken(ctx context.Context, digest string, now time.Time) (*models.User, error) {
	return r.first(ctx, "reset_token = ? AND reset_password_expires > ?", digest, now)
}

// FindActiveNodalOfficer returns the earliest registered active officer of
// the department.
func (r *gormUserRepository) FindActiveNodalOfficer(ctx context.Context, departmentID string) (*models.User, error) {
	return r.first(ctx, "department_id = ? AND account_type = ? AND active = ?", departmentID, models.AccountNodal, true)
}

func (r *gormUserRepository) ListActiveByType(ctx context.Context, accountType string) ([]models.User, error) {
	var users []models.User
	err := r.db.WithContext(ctx).
		Where("account_type = ? AND active = ?", accountType, true).
		Order("created_at asc").
		Find(&users).Error
	return users, err
}

func (r *gormUserRepository) List(ctx context.Context, filter UserFilter, offset, limit int) ([]models.User, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.User{})

	if filter.AccountType != "" {
		query = query.Where("account_type = ?", filter.AccountType)
	}
	if filter.Active != nil {
		query = query.Where("active = ?", *filter.Active)
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		like := "%" + escapeLike(strings.ToLower(s)) + "%"
		query = query.Where(
			"LOWER(first_name) LIKE ? ESCAPE '\\' OR LOWER(last_name) LIKE ? ESCAPE '\\' OR LOWER(email) LIKE ? ESCAPE '\\'",
			like, like, like,
		)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []models.User
	err := query.Order("created_at desc").Offset(offset).Limit(limit).Find(&users).Error
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
