package types

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Candle struct {
	Ts                          int64
	Open, High, Low, Close, Vol float64
}

// Ticker is the raw 24h rolling snapshot a market data provider reports.
type Ticker struct {
	Symbol             string
	LastPrice          float64
	PriceChange        float64
	PriceChangePercent float64
	High               float64
	Low                float64
	Volume             float64
	CloseTime          time.Time
}

// TrendStats summarises the trailing 24 closes handed to the reasoning prompt.
type TrendStats struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Std    float64 `json:"std"`
	Min    float64 `json:"min"`
	Q25    float64 `json:"q25"`
	Median float64 `json:"median"`
	Q75    float64 `json:"q75"`
	Max    float64 `json:"max"`
	SMA    float64 `json:"sma"`
	RSI    float64 `json:"rsi"`
}

type MarketSnapshot struct {
	Symbol             string    `json:"symbol"`
	LastPrice          float64   `json:"last_price"`
	PriceChange        float64   `json:"price_change"`
	PriceChangePercent float64   `json:"price_change_percent"`
	High24h            float64   `json:"high_24h"`
	Low24h             float64   `json:"low_24h"`
	Volume24h          float64   `json:"volume_24h"`
	Time               time.Time `json:"time"`

	// Change24h is the candle-derived percent change; nil when fewer than 24 samples exist.
	Change24h *float64    `json:"change_24h,omitempty"`
	Trend     *TrendStats `json:"trend,omitempty"`
	Candles   []Candle    `json:"-"`
}

func (s MarketSnapshot) ChangeAvailable() bool { return s.Change24h != nil }

type NewsItem struct {
	Title       string `json:"title"`
	PublishedAt string `json:"published_at"`
	Source      string `json:"source"`
	URL         string `json:"url"`
	Description string `json:"description"`
}

func (n NewsItem) IsEmpty() bool {
	return n.Title == "" && n.PublishedAt == "" && n.Source == "" && n.URL == "" && n.Description == ""
}

type SentimentSample struct {
	ID           string    `json:"id"`
	Text         string    `json:"text"`
	AuthorName   string    `json:"author_name"`
	AuthorHandle string    `json:"author_handle"`
	Likes        int64     `json:"likes"`
	Retweets     int64     `json:"retweets"`
	Replies      int64     `json:"replies"`
	CreatedAt    time.Time `json:"created_at"`
	URLs         []string  `json:"urls,omitempty"`
}

type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
	ActionHold Action = "HOLD"
)

// ParseAction maps free text onto the closed action set; anything unknown is HOLD.
func ParseAction(s string) Action {
	switch Action(strings.ToUpper(strings.TrimSpace(s))) {
	case ActionBuy:
		return ActionBuy
	case ActionSell:
		return ActionSell
	default:
		return ActionHold
	}
}

type Decision struct {
	Action     Action   `json:"action"`
	Reasoning  string   `json:"reasoning"`
	Confidence *float64 `json:"confidence,omitempty"`
	Raw        string   `json:"-"`
}

type TradeRecord struct {
	Time       time.Time       `json:"time"`
	Symbol     string          `json:"symbol"`
	Action     Action          `json:"action"`
	Price      decimal.Decimal `json:"price"`
	Quantity   decimal.Decimal `json:"quantity"`
	ProfitLoss decimal.Decimal `json:"profit_loss"`
	OrderID    string          `json:"order_id"`
	Reasoning  string          `json:"reasoning"`
}

type PerformanceSummary struct {
	TotalTrades       int             `json:"total_trades"`
	BuyTrades         int             `json:"buy_trades"`
	SellTrades        int             `json:"sell_trades"`
	TotalProfitLoss   decimal.Decimal `json:"total_profit_loss"`
	AverageProfitLoss decimal.Decimal `json:"average_profit_loss"`
	WinRate           decimal.Decimal `json:"win_rate"`
	LastUpdated       time.Time       `json:"last_updated"`
}

type OrderReq struct {
	Symbol        string
	Side          Action
	Qty           decimal.Decimal
	ClientOrderID string
}

// Fill is what the broker reports back; price and quantity are the executed values.
type Fill struct {
	OrderID  string
	Status   string
	Price    decimal.Decimal
	Quantity decimal.Decimal
	Time     time.Time
}

type CycleResult struct {
	CycleID  string       `json:"cycle_id"`
	Symbol   string       `json:"symbol"`
	Started  time.Time    `json:"started"`
	Finished time.Time    `json:"finished"`
	Decision Decision     `json:"decision"`
	Trade    *TradeRecord `json:"trade,omitempty"`
	Degraded []string     `json:"degraded,omitempty"`
	Err      string       `json:"error,omitempty"`
}
