package history

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const (
	defaultMaxOpenConns = 8
	defaultRecentLimit  = 50
	maxRecentLimit      = 500
)

// Record is one completed translation. Failed attempts are not recorded;
// history answers "what did we translate", not "what went wrong".
type Record struct {
	ID             int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	SourceText     string    `gorm:"type:text;not null" json:"source_text"`
	TranslatedText string    `gorm:"type:text;not null" json:"translated_text"`
	SourceLang     string    `gorm:"size:10;not null" json:"source_lang"`
	TargetLang     string    `gorm:"size:10;not null;index" json:"target_lang"`
	DetectedLang   string    `gorm:"size:10" json:"detected_lang,omitempty"`
	Service        string    `gorm:"size:50;not null" json:"service"`
	SameLanguage   bool      `gorm:"not null;default:false" json:"same_language"`
	CreatedAt      time.Time `gorm:"not null;index" json:"created_at"`
}

func (Record) TableName() string {
	return "translation_history"
}

// Store persists translation history in Postgres.
type Store struct {
	gdb *gorm.DB
}

// Open connects, configures the pool, and migrates the history table.
func Open(ctx context.Context, databaseURL string, environment string) (*Store, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, fmt.Errorf("database URL is empty")
	}

	logLevel := gormlogger.Warn
	if strings.EqualFold(strings.TrimSpace(environment), "local") {
		logLevel = gormlogger.Info
	}

	gdb, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		Logger: gormlogger.Default.LogMode(logLevel),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("get history sql db: %w", err)
	}
	sqlDB.SetMaxOpenConns(defaultMaxOpenConns)
	sqlDB.SetMaxIdleConns(2)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping history database: %w", err)
	}

	if err := gdb.WithContext(ctx).AutoMigrate(&Record{}); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("migrate history schema: %w", err)
	}

	return &Store{gdb: gdb}, nil
}

// Save inserts one completed translation.
func (s *Store) Save(ctx context.Context, record *Record) error {
	if s == nil || s.gdb == nil {
		return fmt.Errorf("history store is not initialized")
	}
	if record == nil {
		return fmt.Errorf("history record is nil")
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	if err := s.gdb.WithContext(ctx).Create(record).Error; err != nil {
		return fmt.Errorf("insert history record: %w", err)
	}
	return nil
}

// Recent returns the newest records, capped at maxRecentLimit.
func (s *Store) Recent(ctx context.Context, limit int) ([]Record, error) {
	if s == nil || s.gdb == nil {
		return nil, fmt.Errorf("history store is not initialized")
	}
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	if limit > maxRecentLimit {
		limit = maxRecentLimit
	}

	records := make([]Record, 0, limit)
	err := s.gdb.WithContext(ctx).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("query history records: %w", err)
	}
	return records, nil
}

// Count reports how many translations have been recorded.
func (s *Store) Count(ctx context.Context) (int64, error) {
	if s == nil || s.gdb == nil {
		return 0, fmt.Errorf("history store is not initialized")
	}
	var total int64
	if err := s.gdb.WithContext(ctx).Model(&Record{}).Count(&total).Error; err != nil {
		return 0, fmt.Errorf("count history records: %w", err)
	}
	return total, nil
}

func (s *Store) Close() error {
	if s == nil || s.gdb == nil {
		return nil
	}
	sqlDB, err := s.gdb.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
