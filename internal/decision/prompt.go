package decision

import (
	"fmt"
	"strings"

	"signal-trader/internal/types"
)

// Limits bound how much context reaches the model.
type Limits struct {
	MaxHeadlines int
	MaxSentiment int
	History      int
}

func DefaultLimits() Limits {
	return Limits{MaxHeadlines: 5, MaxSentiment: 5, History: 5}
}

const responseFormat = `Please provide your analysis in the following format:
1. Market Overview: Brief summary of current market conditions
2. Key Factors: List the most important factors influencing the decision
3. Risk Assessment: Evaluate potential risks and rewards
4. Recommendation: Choose ONE of the following:
   - BUY: If conditions suggest a buying opportunity
   - SELL: If conditions suggest selling is advisable
   - HOLD: If current position should be maintained
5. Reasoning: Detailed explanation of your recommendation
6. Confidence Level: Rate your confidence in this decision (1-10)`

// BuildPrompt renders the user prompt for one cycle.
func BuildPrompt(snap types.MarketSnapshot, news []types.NewsItem, sentiment []types.SentimentSample, history []types.TradeRecord, lim Limits) string {
	var b strings.Builder
	b.WriteString("Based on the following data, provide a detailed trading analysis:\n\n")

	b.WriteString("MARKET DATA:\n")
	fmt.Fprintf(&b, "- Symbol: %s\n", snap.Symbol)
	if snap.LastPrice > 0 {
		fmt.Fprintf(&b, "- Current Price: %s\n", num(snap.LastPrice))
	} else {
		b.WriteString("- Current Price: unavailable\n")
	}
	if snap.Change24h != nil {
		fmt.Fprintf(&b, "- 24h Price Change: %.2f%%\n", *snap.Change24h)
	} else {
		b.WriteString("- 24h Price Change: unavailable\n")
	}
	if snap.High24h > 0 || snap.Low24h > 0 {
		fmt.Fprintf(&b, "- 24h High/Low: %s / %s\n", num(snap.High24h), num(snap.Low24h))
	}
	if snap.Volume24h > 0 {
		fmt.Fprintf(&b, "- 24h Volume: %s\n", num(snap.Volume24h))
	}
	if t := snap.Trend; t != nil {
		fmt.Fprintf(&b, "- Recent Price Trend (last %d closes):\n", t.Count)
		fmt.Fprintf(&b, "    mean %s, std %s, min %s, 25%% %s, 50%% %s, 75%% %s, max %s\n",
			num(t.Mean), num(t.Std), num(t.Min), num(t.Q25), num(t.Median), num(t.Q75), num(t.Max))
		if t.RSI > 0 {
			fmt.Fprintf(&b, "    RSI(14) %.1f\n", t.RSI)
		}
	}

	b.WriteString("\nNEWS SENTIMENT:\n")
	headlines := 0
	for _, n := range news {
		if headlines >= cap5(lim.MaxHeadlines) {
			break
		}
		if n.Title == "" {
			continue
		}
		fmt.Fprintf(&b, "- %s\n", oneLine(n.Title, 200))
		headlines++
	}
	if headlines == 0 {
		b.WriteString("- no headlines available\n")
	}

	b.WriteString("\nSOCIAL SENTIMENT:\n")
	posts := 0
	for _, s := range sentiment {
		if posts >= cap5(lim.MaxSentiment) {
			break
		}
		author := s.AuthorHandle
		if author == "" {
			author = "unknown"
		}
		fmt.Fprintf(&b, "- @%s: %s\n", author, oneLine(s.Text, 280))
		posts++
	}
	if posts == 0 {
		b.WriteString("- no posts available\n")
	}

	b.WriteString("\nTRADING HISTORY:\n")
	if lim.History > 0 && len(history) > lim.History {
		history = history[len(history)-lim.History:]
	}
	if len(history) == 0 {
		b.WriteString("- no previous trades\n")
	}
	for _, r := range history {
		fmt.Fprintf(&b, "- %s %s %s @ %s\n", r.Time.UTC().Format("2006-01-02 15:04"), r.Action, r.Quantity, r.Price)
	}

	b.WriteString("\n")
	b.WriteString(responseFormat)
	b.WriteString("\n")
	return b.String()
}

func cap5(n int) int {
	if n <= 0 || n > 5 {
		return 5
	}
	return n
}

func num(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

func oneLine(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	if len([]rune(s)) > max {
		return string([]rune(s)[:max]) + "..."
	}
	return s
}
