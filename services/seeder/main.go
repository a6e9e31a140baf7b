package main

import (
	"context"
	"log"
	"os"

	"grievance-portal/pkg/config"
	"grievance-portal/pkg/database"
	"grievance-portal/services/portal-service/repository"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[ERROR] Invalid configuration: %v", err)
	}

	file, err := os.Open(cfg.SeedFile)
	if err != nil {
		log.Fatalf("[ERROR] Failed to open seed file: %v", err)
	}
	defer file.Close()

	seed, err := Parse(file)
	if err != nil {
		log.Fatalf("[ERROR] %v", err)
	}

	db, err := database.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("[ERROR] Failed to connect to PostgreSQL: %v", err)
	}
	if err := repository.AutoMigrate(db); err != nil {
		log.Fatalf("[ERROR] Failed to migrate: %v", err)
	}

	seeder := NewSeeder(repository.NewGormUserRepository(db), repository.NewGormDepartmentRepository(db))
	sum, err := seeder.Apply(context.Background(), seed)
	if err != nil {
		log.Fatalf("[ERROR] Seeding failed: %v", err)
	}

	log.Printf("[INFO] Departments: %d created, %d already present", sum.DepartmentsCreated, sum.DepartmentsSkipped)
	log.Printf("[INFO] Accounts: %d created, %d already present", sum.UsersCreated, sum.UsersSkipped)
}
