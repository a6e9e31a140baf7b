package repository

import (
	"context"
	"errors"

	"grievance-portal/services/portal-service/models"

	"gorm.io/gorm"
)

type DepartmentRepository interface {
	Create(ctx context.Context, dept *models.Department) error
	Save(ctx context.Context, dept *models.Department) error
	Delete(ctx context.Context, id string) error
	FindByID(ctx context.Context, id string) (*models.Department, error)
	FindByName(ctx context.Context, name string) (*models.Department, error)
	FindByIDs(ctx context.Context, ids []string) ([]models.Department, error)
	List(ctx context.Context) ([]models.Department, error)
}

type gormDepartmentRepository struct {
	db *gorm.DB
}

func NewGormDepartmentRepository(db *gorm.DB) DepartmentRepository {
	return &gormDepartmentRepository{db: db}
}

func (r *gormDepartmentRepository) Create(ctx context.Context, dept *models.Department) error {
	return r.db.WithContext(ctx).Create(dept).Error
}

func (r *gormDepartmentRepository) Save(ctx context.Context, dept *models.Department) error {
	return r.db.WithContext(ctx).Save(dept).Error
}

func (r *gormDepartmentRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&models.Department{}, "id = ?", id).Error
}

func (r *gormDepartmentRepository) FindByID(ctx context.Context, id string) (*models.Department, error) {
	var dept models.Department
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&dept).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &dept, nil
}

func (r *gormDepartmentRepository) FindByName(ctx context.Context, name string) (*models.Department, error) {
	var dept models.Department
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&dept).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &dept, nil
}

func (r *gormDepartmentRepository) FindByIDs(ctx context.Context, ids []string) ([]models.Department, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var depts []models.Department
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&depts).Error
	return depts, err
}

func (r *gormDepartmentRepository) List(ctx context.Context) ([]models.Department, error) {
	var depts []models.Department
	err := r.db.WithContext(ctx).Order("name asc").Find(&depts).Error
	return depts, err
}
