package db

import (
	"log"
	"os"

	"quill/internal/models"
	"quill/internal/utils"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var DB *gorm.DB

func Init() {
	var err error
	DB, err = Open()
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	log.Println("Database connection established")

	if err := Migrate(DB); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	log.Println("Database migration completed")

	Seed(DB)
}

// Open connects to Postgres when DATABASE_URL is set, otherwise to a local
// SQLite file at DB_PATH so the engine runs without a database server.
func Open() (*gorm.DB, error) {
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		return gorm.Open(postgres.Open(dsn), &gorm.Config{})
	}
	path := os.Getenv("DB_PATH")
	if path == "" {
		path = "quill.db"
	}
	return OpenSQLite(path)
}

// OpenSQLite opens a SQLite database with foreign keys enforced, so cascade
// and set-null constraints behave the same as on Postgres.
func OpenSQLite(path string) (*gorm.DB, error) {
	return gorm.Open(sqlite.Open(path+"?_foreign_keys=on"), &gorm.Config{})
}

func Migrate(gdb *gorm.DB) error {
	return gdb.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Post{},
		&models.Comment{},
	)
}

// Seed fills an empty database with the default categories and, when
// ADMIN_EMAIL and ADMIN_PASSWORD are configured, a bootstrap admin account.
// Safe to run on every start.
func Seed(gdb *gorm.DB) {
	seedCategories(gdb)
	seedAdmin(gdb)
}

func seedCategories(gdb *gorm.DB) {
	var count int64
	gdb.Model(&models.Category{}).Count(&count)
	if count > 0 {
		return
	}

	categories := []models.Category{
		{Name: "General", Description: "Anything that fits nowhere else"},
		{Name: "Tutorials", Description: "Step-by-step guides and walkthroughs"},
		{Name: "Notes", Description: "Short writeups and work-in-progress thoughts"},
	}

	for _, category := range categories {
		category.Slug = utils.UniqueSlug(category.Name, func(string) bool { return false })
		if err := gdb.Create(&category).Error; err != nil {
			log.Printf("Failed to create category %s: %v", category.Name, err)
		}
	}
	log.Println("Default categories created")
}

func seedAdmin(gdb *gorm.DB) {
	email := os.Getenv("ADMIN_EMAIL")
	password := os.Getenv("ADMIN_PASSWORD")
	if email == "" || password == "" {
		return
	}

	var count int64
	gdb.Model(&models.User{}).Where("email = ?", email).Count(&count)
	if count > 0 {
		return
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		log.Printf("Failed to hash admin password: %v", err)
		return
	}

	username := os.Getenv("ADMIN_USERNAME")
	if username == "" {
		username = "admin"
	}

	admin := models.User{
		Username: username,
		Email:    email,
		Password: hash,
		Role:     models.RoleAdmin,
	}
	if err := gdb.Create(&admin).Error; err != nil {
		log.Printf("Failed to create admin account: %v", err)
		return
	}
	log.Printf("Bootstrap admin %s created", email)
}
