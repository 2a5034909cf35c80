// Package zerodha adapts Kite Connect to the market data and broker contracts for NSE/BSE equities.
package zerodha

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	kiteconnect "github.com/zerodha/gokiteconnect/v4"

	"signal-trader/internal/interfaces"
	"signal-trader/internal/logger"
	"signal-trader/internal/types"
)

type Params struct {
	APIKey      string
	AccessToken string
	Exchange    string
	BaseURI     string
	// how long to wait for a market order to reach a terminal state
	FillTimeout  time.Duration
	PollInterval time.Duration
}

type Zerodha struct {
	p  Params
	kc *kiteconnect.Client
	im *instrumentMapper
}

var (
	_ interfaces.MarketData = (*Zerodha)(nil)
	_ interfaces.Broker     = (*Zerodha)(nil)
)

var ErrOrderNotFilled = errors.New("order did not fill")

func NewZerodha(p Params) *Zerodha {
	if p.Exchange == "" {
		p.Exchange = kiteconnect.ExchangeNSE
	}
	if p.FillTimeout <= 0 {
		p.FillTimeout = 10 * time.Second
	}
	if p.PollInterval <= 0 {
		p.PollInterval = 500 * time.Millisecond
	}
	kc := kiteconnect.New(p.APIKey)
	kc.SetAccessToken(p.AccessToken)
	if p.BaseURI != "" {
		kc.SetBaseURI(strings.TrimRight(p.BaseURI, "/"))
	}
	return &Zerodha{p: p, kc: kc, im: newInstrumentMapper()}
}

// Ping verifies the access token by fetching the user profile.
func (z *Zerodha) Ping(ctx context.Context) error {
	profile, err := z.kc.GetUserProfile()
	if err != nil {
		return fmt.Errorf("kite profile: %w", err)
	}
	logger.Info(ctx, "Connected to Kite", "user_id", profile.UserID)
	return nil
}

func (z *Zerodha) instrument(symbol string) string {
	return z.p.Exchange + ":" + symbol
}

func (z *Zerodha) Ticker(ctx context.Context, symbol string) (types.Ticker, error) {
	key := z.instrument(symbol)
	quotes, err := z.kc.GetQuote(key)
	if err != nil {
		return types.Ticker{}, fmt.Errorf("kite quote %s: %w", key, err)
	}
	q, ok := quotes[key]
	if !ok {
		return types.Ticker{}, fmt.Errorf("kite quote %s: missing from response", key)
	}
	t := types.Ticker{
		Symbol:      symbol,
		LastPrice:   q.LastPrice,
		PriceChange: q.NetChange,
		High:        q.OHLC.High,
		Low:         q.OHLC.Low,
		Volume:      float64(q.Volume),
		CloseTime:   q.Timestamp.Time,
	}
	// OHLC.Close is the previous session close in a Kite quote.
	if q.OHLC.Close != 0 {
		t.PriceChangePercent = (q.LastPrice - q.OHLC.Close) / q.OHLC.Close * 100
	}
	return t, nil
}

func kiteInterval(interval string) string {
	switch interval {
	case "1m":
		return "minute"
	case "5m":
		return "5minute"
	case "15m":
		return "15minute"
	case "30m":
		return "30minute"
	case "1h":
		return "60minute"
	case "1d":
		return "day"
	default:
		return interval
	}
}

func (z *Zerodha) HistoricalCandles(ctx context.Context, symbol, interval string, since time.Time) ([]types.Candle, error) {
	token, err := z.im.resolve(symbol, z.loadInstruments)
	if err != nil {
		return nil, err
	}
	rows, err := z.kc.GetHistoricalData(token, kiteInterval(interval), since, time.Now(), false, false)
	if err != nil {
		return nil, fmt.Errorf("kite historical %s: %w", symbol, err)
	}
	out := make([]types.Candle, 0, len(rows))
	for _, r := range rows {
		out = append(out, types.Candle{
			Ts:    r.Date.Time.Unix(),
			Open:  r.Open,
			High:  r.High,
			Low:   r.Low,
			Close: r.Close,
			Vol:   float64(r.Volume),
		})
	}
	return out, nil
}

func (z *Zerodha) loadInstruments() (map[string]int, error) {
	insts, err := z.kc.GetInstrumentsByExchange(z.p.Exchange)
	if err != nil {
		return nil, err
	}
	out := make(map[string]int, len(insts))
	for _, in := range insts {
		out[in.Tradingsymbol] = int(in.InstrumentToken)
	}
	return out, nil
}

// PlaceMarketOrder submits one MARKET order, then polls the order history until it
// completes. Polling reads status only and never resubmits.
func (z *Zerodha) PlaceMarketOrder(ctx context.Context, req types.OrderReq) (types.Fill, error) {
	var txn string
	switch req.Side {
	case types.ActionBuy:
		txn = kiteconnect.TransactionTypeBuy
	case types.ActionSell:
		txn = kiteconnect.TransactionTypeSell
	default:
		return types.Fill{}, fmt.Errorf("unsupported order side %q", req.Side)
	}
	if !req.Qty.Equal(req.Qty.Truncate(0)) || !req.Qty.IsPositive() {
		return types.Fill{}, fmt.Errorf("kite quantity must be a positive whole number, got %s", req.Qty)
	}

	params := kiteconnect.OrderParams{
		Exchange:        z.p.Exchange,
		Tradingsymbol:   req.Symbol,
		Validity:        kiteconnect.ValidityDay,
		Product:         kiteconnect.ProductCNC,
		OrderType:       kiteconnect.OrderTypeMarket,
		TransactionType: txn,
		Quantity:        int(req.Qty.IntPart()),
		Tag:             shortTag(req.ClientOrderID),
	}
	resp, err := z.kc.PlaceOrder(kiteconnect.VarietyRegular, params)
	if err != nil {
		return types.Fill{}, fmt.Errorf("kite place order: %w", err)
	}
	logger.Debug(ctx, "Kite order accepted", "order_id", resp.OrderID, "symbol", req.Symbol)

	deadline := time.Now().Add(z.p.FillTimeout)
	for {
		hist, err := z.kc.GetOrderHistory(resp.OrderID)
		if err != nil {
			return types.Fill{}, fmt.Errorf("kite order history %s: %w", resp.OrderID, err)
		}
		if len(hist) > 0 {
			last := hist[len(hist)-1]
			switch last.Status {
			case "COMPLETE":
				return types.Fill{
					OrderID:  resp.OrderID,
					Status:   last.Status,
					Price:    decimal.NewFromFloat(float64(last.AveragePrice)),
					Quantity: decimal.NewFromFloat(float64(last.FilledQuantity)),
					Time:     time.Now(),
				}, nil
			case "REJECTED", "CANCELLED":
				return types.Fill{}, fmt.Errorf("%w: %s %s: %s", ErrOrderNotFilled, resp.OrderID, last.Status, last.StatusMessage)
			}
		}
		if time.Now().After(deadline) {
			return types.Fill{}, fmt.Errorf("%w: %s still open after %s", ErrOrderNotFilled, resp.OrderID, z.p.FillTimeout)
		}
		select {
		case <-ctx.Done():
			return types.Fill{}, ctx.Err()
		case <-time.After(z.p.PollInterval):
		}
	}
}

// Kite tags are limited to 20 characters.
func shortTag(id string) string {
	id = strings.ReplaceAll(id, "-", "")
	if len(id) > 20 {
		return id[:20]
	}
	return id
}
