package db

import (
	"log"

	"pulsefeed/internal/config"
	"pulsefeed/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func Init(cfg config.Config) {
	var err error
	DB, err = gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	log.Println("Database connection established")

	if err := Migrate(DB); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	log.Println("Database migration completed")

	seedAdmin(DB, cfg)
}

// Migrate creates or updates the schema. Shared with the test suite.
func Migrate(g *gorm.DB) error {
	return g.AutoMigrate(
		&models.User{},
		&models.Credential{},
		&models.Token{},
		&models.Post{},
		&models.Reaction{},
	)
}

// seedAdmin provisions the first admin account from the environment.
// Registration always creates plain users and no role-change operation
// exists, so without a seed there would be no way to obtain an admin.
func seedAdmin(g *gorm.DB, cfg config.Config) {
	if cfg.AdminLogin == "" || cfg.AdminPassword == "" {
		return
	}

	var count int64
	if err := g.Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&count).Error; err != nil {
		log.Printf("Failed to check for an existing admin: %v", err)
		return
	}
	if count > 0 {
		log.Println("Admin already seeded, skipping")
		return
	}

	admin := models.User{FirstName: "Admin", LastName: "Admin", Role: models.RoleAdmin}
	if err := g.Create(&admin).Error; err != nil {
		log.Printf("Failed to create admin user: %v", err)
		return
	}
	credential := models.Credential{
		UserID:       admin.ID,
		Login:        cfg.AdminLogin,
		PasswordHash: cfg.HashParams().Hash(cfg.AdminPassword),
	}
	if err := g.Create(&credential).Error; err != nil {
		log.Printf("Failed to create admin credentials: %v", err)
		return
	}
	log.Println("Initial admin account created")
}
