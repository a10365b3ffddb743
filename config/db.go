package config

import (
	"log"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"agriaid/global"
	"agriaid/models"
)

func initDB() {
	dsn := AppConfig.Database.Dsn
	if dsn == "" {
		log.Println("database dsn empty, skipping db init")
		return
	}

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("Failed to get database handle: %v", err)
	}
	sqlDB.SetMaxIdleConns(AppConfig.Database.MaxIdleConns)
	sqlDB.SetMaxOpenConns(AppConfig.Database.MaxOpenConns)

	if err := db.AutoMigrate(&models.User{}, &models.Like{}); err != nil {
		log.Fatalf("Failed to migrate tables: %v", err)
	}

	global.Db = db
	log.Println("Database initialized")
}
