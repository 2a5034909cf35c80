package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"signal-trader/internal/interfaces"
	"signal-trader/internal/types"
)

type tradeRow struct {
	ID         uint            `gorm:"primaryKey"`
	Seq        int             `gorm:"index"`
	Time       time.Time       `gorm:"not null"`
	Symbol     string          `gorm:"size:32"`
	Action     string          `gorm:"size:8;not null"`
	Price      decimal.Decimal `gorm:"type:text;not null"`
	Quantity   decimal.Decimal `gorm:"type:text;not null"`
	ProfitLoss decimal.Decimal `gorm:"type:text;not null"`
	OrderID    string          `gorm:"size:64"`
	Reasoning  string
}

func (tradeRow) TableName() string { return "trades" }

type performanceRow struct {
	ID                uint `gorm:"primaryKey"`
	TotalTrades       int
	BuyTrades         int
	SellTrades        int
	TotalProfitLoss   decimal.Decimal `gorm:"type:text"`
	AverageProfitLoss decimal.Decimal `gorm:"type:text"`
	WinRate           decimal.Decimal `gorm:"type:text"`
	LastUpdated       time.Time
}

func (performanceRow) TableName() string { return "performance" }

// SQLStore keeps the two ledger tables in SQLite. Each save replaces both in one transaction.
type SQLStore struct {
	db *gorm.DB
}

var _ interfaces.LedgerStore = (*SQLStore)(nil)

func OpenSQLStore(path string) (*SQLStore, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite ledger: %w", err)
	}
	if err := db.AutoMigrate(&tradeRow{}, &performanceRow{}); err != nil {
		return nil, fmt.Errorf("migrate sqlite ledger: %w", err)
	}
	return &SQLStore{db: db}, nil
}

func (s *SQLStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *SQLStore) Load(ctx context.Context) ([]types.TradeRecord, error) {
	var rows []tradeRow
	if err := s.db.WithContext(ctx).Order("seq asc").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load trades: %w", err)
	}
	out := make([]types.TradeRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, types.TradeRecord{
			Time:       r.Time,
			Symbol:     r.Symbol,
			Action:     types.Action(r.Action),
			Price:      r.Price,
			Quantity:   r.Quantity,
			ProfitLoss: r.ProfitLoss,
			OrderID:    r.OrderID,
			Reasoning:  r.Reasoning,
		})
	}
	return out, nil
}

func (s *SQLStore) Save(ctx context.Context, records []types.TradeRecord, summary types.PerformanceSummary) error {
	rows := make([]tradeRow, 0, len(records))
	for i, r := range records {
		rows = append(rows, tradeRow{
			Seq:        i,
			Time:       r.Time,
			Symbol:     r.Symbol,
			Action:     string(r.Action),
			Price:      r.Price,
			Quantity:   r.Quantity,
			ProfitLoss: r.ProfitLoss,
			OrderID:    r.OrderID,
			Reasoning:  r.Reasoning,
		})
	}
	perf := performanceRow{
		TotalTrades:       summary.TotalTrades,
		BuyTrades:         summary.BuyTrades,
		SellTrades:        summary.SellTrades,
		TotalProfitLoss:   summary.TotalProfitLoss,
		AverageProfitLoss: summary.AverageProfitLoss,
		WinRate:           summary.WinRate,
		LastUpdated:       summary.LastUpdated,
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		all := tx.Session(&gorm.Session{AllowGlobalUpdate: true})
		if err := all.Delete(&tradeRow{}).Error; err != nil {
			return err
		}
		if err := all.Delete(&performanceRow{}).Error; err != nil {
			return err
		}
		if len(rows) > 0 {
			if err := tx.CreateInBatches(rows, 200).Error; err != nil {
				return err
			}
		}
		return tx.Create(&perf).Error
	})
}

// LastSummary returns the persisted performance row, if any.
func (s *SQLStore) LastSummary(ctx context.Context) (*types.PerformanceSummary, error) {
	var row performanceRow
	res := s.db.WithContext(ctx).Order("id desc").Limit(1).Find(&row)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return &types.PerformanceSummary{
		TotalTrades:       row.TotalTrades,
		BuyTrades:         row.BuyTrades,
		SellTrades:        row.SellTrades,
		TotalProfitLoss:   row.TotalProfitLoss,
		AverageProfitLoss: row.AverageProfitLoss,
		WinRate:           row.WinRate,
		LastUpdated:       row.LastUpdated,
	}, nil
}
