// Package storage keeps a local sqlite journal of submitted
// transactions and a cache of the last fetched market table, so offline
// startups still see a usable market snapshot.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"drift_go/internal/domain"
)

// TxRecord journals one submitted transaction.
type TxRecord struct {
	ID        uint   `gorm:"primaryKey"`
	Signature string `gorm:"index"`
	Op        string `gorm:"index"`
	Market    string
	RawAmount uint64
	CreatedAt time.Time
}

// MarketRow caches one market table entry between sessions.
type MarketRow struct {
	Name      string `gorm:"primaryKey"` // "<SYMBOL>-<KIND>"
	Symbol    string
	Kind      string
	Index     uint16
	Precision int32
	UpdatedAt time.Time
}

// Storage wraps the sqlite database.
type Storage struct {
	db *gorm.DB
}

// NewStorage opens (or creates) the database under the user config dir.
func NewStorage() (*Storage, error) {
	dbPath, err := getDBPath()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve DB path: %w", err)
	}
	return open(dbPath)
}

// NewStorageAt opens a database at an explicit path (used by tests).
func NewStorageAt(path string) (*Storage, error) {
	return open(path)
}

func open(dbPath string) (*Storage, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create DB directory: %w", err)
	}

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(&TxRecord{}, &MarketRow{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return &Storage{db: db}, nil
}

func getDBPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "DriftGo", "data", "driftgo.db"), nil
}

// RecordTx appends one journal entry.
func (s *Storage) RecordTx(rec *TxRecord) error {
	return s.db.Create(rec).Error
}

// RecentTx returns the latest n journal entries, newest first.
func (s *Storage) RecentTx(n int) ([]TxRecord, error) {
	var recs []TxRecord
	err := s.db.Order("id desc").Limit(n).Find(&recs).Error
	return recs, err
}

// SaveMarkets replaces the cached market table with a fresh snapshot.
func (s *Storage) SaveMarkets(markets []domain.Market) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&MarketRow{}).Error; err != nil {
			return err
		}
		for _, m := range markets {
			row := MarketRow{
				Name:      m.Name(),
				Symbol:    m.Symbol,
				Kind:      string(m.Kind),
				Index:     m.Index,
				Precision: m.Precision,
				UpdatedAt: time.Now(),
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// LoadMarkets returns the cached market table, empty when never saved.
func (s *Storage) LoadMarkets() ([]domain.Market, error) {
	var rows []MarketRow
	if err := s.db.Find(&rows).Error; err != nil {
		return nil, err
	}
	markets := make([]domain.Market, 0, len(rows))
	for _, r := range rows {
		markets = append(markets, domain.Market{
			Symbol:    r.Symbol,
			Kind:      domain.MarketKind(r.Kind),
			Index:     r.Index,
			Precision: r.Precision,
		})
	}
	return markets, nil
}
