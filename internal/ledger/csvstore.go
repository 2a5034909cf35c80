package ledger

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"signal-trader/internal/interfaces"
	"signal-trader/internal/logger"
	"signal-trader/internal/types"
)

const (
	sectionHeader      = "section"
	sectionTrade       = "trade"
	sectionPerformance = "performance"
)

var ErrCorrupt = errors.New("ledger file is corrupt")

var (
	tradeColumns       = []string{sectionHeader, "timestamp", "action", "price", "quantity", "profit_loss", "reasoning", "symbol", "order_id"}
	performanceColumns = []string{sectionHeader, "total_trades", "buy_trades", "sell_trades", "total_profit_loss", "average_profit_loss", "win_rate", "last_updated"}
)

// CSVStore keeps the trade table and the performance row in one CSV file. Every row is
// tagged with its section so both tables survive a single whole-file rewrite.
type CSVStore struct {
	path string
}

var _ interfaces.LedgerStore = (*CSVStore)(nil)

func NewCSVStore(path string) *CSVStore {
	return &CSVStore{path: path}
}

func (s *CSVStore) Path() string { return s.path }

// Load returns no records when the file does not exist. A file that cannot be parsed is
// renamed to <path>.corrupt and reported as ErrCorrupt.
func (s *CSVStore) Load(ctx context.Context) ([]types.TradeRecord, error) {
	f, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	records, perr := parseCSV(f)
	f.Close()
	if perr == nil {
		return records, nil
	}

	backup := s.path + ".corrupt"
	if rerr := os.Rename(s.path, backup); rerr != nil {
		logger.Warn(ctx, "Could not move corrupt ledger aside", "path", s.path, "error", rerr)
	} else {
		logger.Warn(ctx, "Corrupt ledger moved aside", "path", s.path, "backup", backup)
	}
	return nil, fmt.Errorf("%w: %v", ErrCorrupt, perr)
}

func parseCSV(r io.Reader) ([]types.TradeRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	var records []types.TradeRecord
	line := 0
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		line++
		if len(row) == 0 {
			continue
		}
		switch row[0] {
		case sectionHeader:
		case sectionTrade:
			rec, err := decodeTrade(row)
			if err != nil {
				return nil, fmt.Errorf("row %d: %w", line, err)
			}
			records = append(records, rec)
		case sectionPerformance:
			if len(row) != len(performanceColumns) {
				return nil, fmt.Errorf("row %d: performance row has %d fields", line, len(row))
			}
		default:
			return nil, fmt.Errorf("row %d: unknown section %q", line, row[0])
		}
	}
	return records, nil
}

func decodeTrade(row []string) (types.TradeRecord, error) {
	if len(row) != len(tradeColumns) {
		return types.TradeRecord{}, fmt.Errorf("trade row has %d fields", len(row))
	}
	ts, err := time.Parse(time.RFC3339Nano, row[1])
	if err != nil {
		return types.TradeRecord{}, fmt.Errorf("timestamp: %w", err)
	}
	action := types.Action(row[2])
	if action != types.ActionBuy && action != types.ActionSell {
		return types.TradeRecord{}, fmt.Errorf("action %q", row[2])
	}
	var nums [3]decimal.Decimal
	for i, raw := range row[3:6] {
		if nums[i], err = decimal.NewFromString(raw); err != nil {
			return types.TradeRecord{}, fmt.Errorf("%s: %w", tradeColumns[3+i], err)
		}
	}
	return types.TradeRecord{
		Time:       ts,
		Action:     action,
		Price:      nums[0],
		Quantity:   nums[1],
		ProfitLoss: nums[2],
		Reasoning:  row[6],
		Symbol:     row[7],
		OrderID:    row[8],
	}, nil
}

// Save rewrites the whole file: write a temp file next to the target, fsync, then rename.
func (s *CSVStore) Save(ctx context.Context, records []types.TradeRecord, summary types.PerformanceSummary) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp ledger: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	w := csv.NewWriter(tmp)
	rows := make([][]string, 0, len(records)+3)
	rows = append(rows, tradeColumns)
	for _, r := range records {
		rows = append(rows, []string{
			sectionTrade,
			r.Time.UTC().Format(time.RFC3339Nano),
			string(r.Action),
			r.Price.String(),
			r.Quantity.String(),
			r.ProfitLoss.String(),
			r.Reasoning,
			r.Symbol,
			r.OrderID,
		})
	}
	rows = append(rows, performanceColumns, []string{
		sectionPerformance,
		strconv.Itoa(summary.TotalTrades),
		strconv.Itoa(summary.BuyTrades),
		strconv.Itoa(summary.SellTrades),
		summary.TotalProfitLoss.String(),
		summary.AverageProfitLoss.String(),
		summary.WinRate.String(),
		summary.LastUpdated.UTC().Format(time.RFC3339Nano),
	})
	if err := w.WriteAll(rows); err != nil {
		tmp.Close()
		return fmt.Errorf("write ledger: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync ledger: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close ledger: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace ledger: %w", err)
	}
	logger.Debug(ctx, "Ledger saved", "path", s.path, "records", len(records))
	return nil
}
