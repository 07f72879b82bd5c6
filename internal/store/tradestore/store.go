package tradestore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"tradepilot/internal/advisor"
	"tradepilot/internal/logger"
	"tradepilot/internal/position"

	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// tradeModel is the persisted shape of one executed plan action.
type tradeModel struct {
	ID         uint   `gorm:"primaryKey;autoIncrement"`
	Timestamp  int64  `gorm:"column:ts;index:idx_trades_symbol_ts,priority:2"`
	Symbol     string `gorm:"column:symbol;index:idx_trades_symbol_ts,priority:1"`
	Kind       string `gorm:"column:kind"`
	Side       string `gorm:"column:side"`
	Size       float64
	Leverage   int
	Price      float64
	Source     string         `gorm:"column:source"`
	SignalJSON datatypes.JSON `gorm:"column:signal_json;type:TEXT"`
	Error      string         `gorm:"column:error"`
	CreatedAt  time.Time
}

func (tradeModel) TableName() string { return "trades" }

// TradeRecord is the read-side view served by the admin API.
type TradeRecord struct {
	ID        uint            `json:"id"`
	Timestamp int64           `json:"ts"`
	Symbol    string          `json:"symbol"`
	Kind      string          `json:"kind"`
	Side      string          `json:"side,omitempty"`
	Size      float64         `json:"size,omitempty"`
	Leverage  int             `json:"leverage,omitempty"`
	Price     float64         `json:"price,omitempty"`
	Source    string          `json:"source,omitempty"`
	Signal    json.RawMessage `json:"signal,omitempty"`
	Error     string          `json:"error,omitempty"`
}

// Store persists executed actions with Gorm over SQLite.
type Store struct {
	db *gorm.DB
}

func New(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("trade store path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&cache=shared", path)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                                   gormlogger.Default.LogMode(gormlogger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&tradeModel{}); err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// SQLite + WAL: keep a little parallelism for admin reads without lock
	// contention on the write path.
	sqlDB.SetMaxOpenConns(2)
	sqlDB.SetMaxIdleConns(2)
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// RecordTrade satisfies the executor's recorder hook. Persistence failures
// are logged and swallowed so they never interrupt plan execution.
func (s *Store) RecordTrade(ctx context.Context, symbol string, act position.Action, sig advisor.Signal, execErr error) {
	sigJSON, err := json.Marshal(sig)
	if err != nil {
		sigJSON = nil
	}
	row := tradeModel{
		Timestamp:  time.Now().UnixMilli(),
		Symbol:     symbol,
		Kind:       string(act.Kind),
		Side:       string(act.Side),
		Size:       act.Size,
		Leverage:   act.Leverage,
		Price:      act.Price,
		Source:     sig.Source,
		SignalJSON: datatypes.JSON(sigJSON),
	}
	if execErr != nil {
		row.Error = execErr.Error()
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		logger.Warnf("tradestore: record %s %s failed: %v", symbol, act.Kind, err)
	}
}

// ListTrades returns the newest trades first, optionally filtered by symbol.
func (s *Store) ListTrades(ctx context.Context, symbol string, limit int) ([]TradeRecord, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	q := s.db.WithContext(ctx).Model(&tradeModel{}).Order("ts DESC, id DESC").Limit(limit)
	if sym := strings.TrimSpace(symbol); sym != "" {
		q = q.Where("symbol = ?", sym)
	}
	var rows []tradeModel
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]TradeRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, TradeRecord{
			ID:        r.ID,
			Timestamp: r.Timestamp,
			Symbol:    r.Symbol,
			Kind:      r.Kind,
			Side:      r.Side,
			Size:      r.Size,
			Leverage:  r.Leverage,
			Price:     r.Price,
			Source:    r.Source,
			Signal:    json.RawMessage(r.SignalJSON),
			Error:     r.Error,
		})
	}
	return out, nil
}
