package database

import (
	"log/slog"

	"cmcs/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

func Init(dsn string) error {
	var err error
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return err
	}

	if err := Migrate(DB); err != nil {
		return err
	}

	return seedDefaultAdmin()
}

// Migrate applies the schema. Split out of Init so tests can run it
// against their own database.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Claim{},
		&models.Document{},
		&models.Notification{},
		&models.Invite{},
	)
}

func seedDefaultAdmin() error {
	var count int64
	DB.Model(&models.User{}).Where("username = ?", "admin").Count(&count)
	if count > 0 {
		return nil
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte("admin"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	admin := models.User{
		Username:           "admin",
		FirstName:          "System",
		LastName:           "Administrator",
		PasswordHash:       string(hashedPassword),
		Role:               models.RoleAdministrator,
		HourlyRate:         250,
		MustChangePassword: true,
	}

	if err := DB.Create(&admin).Error; err != nil {
		return err
	}

	slog.Info("default admin user created", "username", "admin")
	return nil
}

func GetDB() *gorm.DB {
	return DB
}
