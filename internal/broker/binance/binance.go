// Package binance adapts the Binance spot API to the market data and broker contracts.
package binance

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/adshao/go-binance/v2/common"
	"github.com/shopspring/decimal"

	"signal-trader/internal/interfaces"
	"signal-trader/internal/logger"
	"signal-trader/internal/types"
)

const maxKlines = 1000

type Params struct {
	APIKey    string
	SecretKey string
	BaseURL   string
	Timeout   time.Duration
}

type Client struct {
	client *binance.Client
}

var (
	_ interfaces.MarketData = (*Client)(nil)
	_ interfaces.Broker     = (*Client)(nil)
)

func New(p Params) *Client {
	c := binance.NewClient(p.APIKey, p.SecretKey)
	if p.BaseURL != "" {
		c.BaseURL = strings.TrimRight(p.BaseURL, "/")
	}
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	c.HTTPClient = &http.Client{Timeout: timeout}
	return &Client{client: c}
}

// Ping checks connectivity and reports the exchange clock skew.
func (c *Client) Ping(ctx context.Context) error {
	serverMs, err := c.client.NewServerTimeService().Do(ctx)
	if err != nil {
		return fmt.Errorf("binance server time: %w", err)
	}
	skew := time.Since(time.UnixMilli(serverMs))
	logger.Info(ctx, "Connected to Binance", "server_time", time.UnixMilli(serverMs).UTC(), "skew_ms", skew.Milliseconds())
	return nil
}

func (c *Client) Ticker(ctx context.Context, symbol string) (types.Ticker, error) {
	stats, err := c.client.NewListPriceChangeStatsService().Symbol(symbol).Do(ctx)
	if err != nil {
		return types.Ticker{}, fmt.Errorf("binance 24h ticker %s: %w", symbol, err)
	}
	if len(stats) == 0 || stats[0] == nil {
		return types.Ticker{}, fmt.Errorf("binance 24h ticker %s: empty response", symbol)
	}
	s := stats[0]
	t := types.Ticker{Symbol: s.Symbol, CloseTime: time.UnixMilli(s.CloseTime)}
	fields := []struct {
		name string
		raw  string
		dst  *float64
	}{
		{"lastPrice", s.LastPrice, &t.LastPrice},
		{"priceChange", s.PriceChange, &t.PriceChange},
		{"priceChangePercent", s.PriceChangePercent, &t.PriceChangePercent},
		{"highPrice", s.HighPrice, &t.High},
		{"lowPrice", s.LowPrice, &t.Low},
		{"volume", s.Volume, &t.Volume},
	}
	for _, f := range fields {
		v, err := strconv.ParseFloat(f.raw, 64)
		if err != nil {
			return types.Ticker{}, fmt.Errorf("binance 24h ticker %s: field %s: %w", symbol, f.name, err)
		}
		*f.dst = v
	}
	return t, nil
}

// HistoricalCandles pages through klines from since until now.
func (c *Client) HistoricalCandles(ctx context.Context, symbol, interval string, since time.Time) ([]types.Candle, error) {
	var out []types.Candle
	start := since.UnixMilli()
	for {
		kls, err := c.client.NewKlinesService().
			Symbol(symbol).
			Interval(interval).
			StartTime(start).
			Limit(maxKlines).
			Do(ctx)
		if err != nil {
			return nil, fmt.Errorf("binance klines %s: %w", symbol, err)
		}
		for _, kl := range kls {
			if kl == nil {
				continue
			}
			candle, err := convertKline(kl)
			if err != nil {
				return nil, fmt.Errorf("binance klines %s: %w", symbol, err)
			}
			out = append(out, candle)
		}
		if len(kls) < maxKlines {
			break
		}
		start = kls[len(kls)-1].CloseTime + 1
	}
	return out, nil
}

func convertKline(kl *binance.Kline) (types.Candle, error) {
	vals := [5]float64{}
	for i, raw := range []string{kl.Open, kl.High, kl.Low, kl.Close, kl.Volume} {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return types.Candle{}, fmt.Errorf("kline %d: %w", kl.OpenTime, err)
		}
		vals[i] = v
	}
	return types.Candle{
		Ts:    kl.OpenTime / 1000,
		Open:  vals[0],
		High:  vals[1],
		Low:   vals[2],
		Close: vals[3],
		Vol:   vals[4],
	}, nil
}

// PlaceMarketOrder submits one MARKET order and reads price and quantity from the fills.
func (c *Client) PlaceMarketOrder(ctx context.Context, req types.OrderReq) (types.Fill, error) {
	side := binance.SideTypeBuy
	switch req.Side {
	case types.ActionBuy:
	case types.ActionSell:
		side = binance.SideTypeSell
	default:
		return types.Fill{}, fmt.Errorf("unsupported order side %q", req.Side)
	}

	svc := c.client.NewCreateOrderService().
		Symbol(req.Symbol).
		Side(side).
		Type(binance.OrderTypeMarket).
		Quantity(req.Qty.String()).
		NewOrderRespType(binance.NewOrderRespTypeFULL)
	if req.ClientOrderID != "" {
		svc = svc.NewClientOrderID(req.ClientOrderID)
	}

	resp, err := svc.Do(ctx)
	if err != nil {
		var apiErr *common.APIError
		if errors.As(err, &apiErr) {
			return types.Fill{}, fmt.Errorf("binance rejected order (code %d): %s", apiErr.Code, apiErr.Message)
		}
		return types.Fill{}, fmt.Errorf("binance order: %w", err)
	}
	return fillFromResponse(resp)
}

func fillFromResponse(resp *binance.CreateOrderResponse) (types.Fill, error) {
	qty, err := decimal.NewFromString(resp.ExecutedQuantity)
	if err != nil {
		return types.Fill{}, fmt.Errorf("executed quantity %q: %w", resp.ExecutedQuantity, err)
	}

	price := decimal.Zero
	filled := decimal.Zero
	notional := decimal.Zero
	for _, f := range resp.Fills {
		if f == nil {
			continue
		}
		p, perr := decimal.NewFromString(f.Price)
		q, qerr := decimal.NewFromString(f.Quantity)
		if perr != nil || qerr != nil {
			continue
		}
		notional = notional.Add(p.Mul(q))
		filled = filled.Add(q)
	}
	switch {
	case filled.IsPositive():
		price = notional.Div(filled)
	case qty.IsPositive():
		quote, qerr := decimal.NewFromString(resp.CummulativeQuoteQuantity)
		if qerr == nil {
			price = quote.Div(qty)
		}
	}

	return types.Fill{
		OrderID:  strconv.FormatInt(resp.OrderID, 10),
		Status:   string(resp.Status),
		Price:    price,
		Quantity: qty,
		Time:     time.UnixMilli(resp.TransactTime),
	}, nil
}
