package database

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"pingwatch/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Database struct {
	DB    *gorm.DB
	mutex sync.RWMutex
}

func InitializeDatabase(path string) (*Database, error) {
	if path == "" {
		return nil, fmt.Errorf("database path is empty")
	}

	// Create the directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	return open(path)
}

func InitializeTestDatabase() (*Database, error) {
	return open("file::memory:")
}

func open(dsn string) (*Database, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database connection: %w", err)
	}

	// One connection: sqlite serializes writers, and every ":memory:"
	// connection would otherwise see its own empty database.
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	if err := db.AutoMigrate(&models.History{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database schema: %w", err)
	}

	return &Database{DB: db}, nil
}

func (db *Database) SaveHistory(history *models.History) error {
	db.mutex.Lock()
	defer db.mutex.Unlock()

	return db.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(history).Error; err != nil {
			return fmt.Errorf("failed to save history: %w", err)
		}
		return nil
	})
}

// Summary groups every stored probe by URL and outcome type.
func (db *Database) Summary() ([]models.HistorySummary, error) {
	db.mutex.RLock()
	defer db.mutex.RUnlock()

	var summaries []models.HistorySummary
	err := db.DB.Model(&models.History{}).
		Select("url, type, COUNT(*) AS count, AVG(response_time) AS avg_response_time, MAX(check_number) AS last_check").
		Group("url, type").
		Order("url, type").
		Scan(&summaries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to summarize history: %w", err)
	}

	return summaries, nil
}

func (db *Database) Recent(url string, limit int) ([]models.History, error) {
	db.mutex.RLock()
	defer db.mutex.RUnlock()

	if limit <= 0 {
		limit = 100
	}

	var histories []models.History
	query := db.DB.Order("created_at DESC, check_number DESC").Limit(limit)
	if url != "" {
		query = query.Where("url = ?", url)
	}
	if err := query.Find(&histories).Error; err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}

	// Reverse record
	for i, j := 0, len(histories)-1; i < j; i, j = i+1, j-1 {
		histories[i], histories[j] = histories[j], histories[i]
	}

	return histories, nil
}

func (db *Database) Close() error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
