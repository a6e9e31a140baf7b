package repository

import (
	"grievance-portal/services/portal-service/models"

	"gorm.io/gorm"
)

func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&models.Department{}, &models.User{})
}
