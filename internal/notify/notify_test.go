package notify

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alias1177/nicempc/internal/model"
	"github.com/Alias1177/nicempc/internal/screener"
)

func blockedEvaluation() model.Evaluation {
	failed := 3
	return model.Evaluation{
		Ticker:    "BTC",
		LastClose: 64000,
		Aggregate: model.AggregateReport{
			WeightedScore: 62.5,
			Confidence:    88,
			Results: []model.AgentResult{
				{Agent: "Technical", Score: 70, Detail: "RSI 28.0"},
				{Agent: "Macro", Score: 55, Detail: "range stable"},
			},
		},
		Guard: model.GuardReport{
			FailedPhase: &failed,
			Phases: []model.GuardPhaseResult{
				{Phase: 1, Name: "data_integrity", Passed: true, Level: model.GuardPass},
				{Phase: 2, Name: "market_state", Passed: true, Level: model.GuardPass},
				{Phase: 3, Name: "liquidity", Level: model.GuardFail, Reason: "spread 300.0 bps exceeds 100.0 bps"},
			},
		},
		Sizing:    model.SizingResult{KellyFractionRaw: 0.4, SafeFractionPct: 0.05, AllocationAmount: decimal.NewFromInt(500_000)},
		Synthesis: model.Synthesis{Label: model.LabelWait, Reasoning: "guard blocked"},
		Tier:      "TIER 2 (BUY)",
	}
}

func TestConsolePrintEvaluation(t *testing.T) {
	var buf bytes.Buffer
	NewConsole(&buf).PrintEvaluation(blockedEvaluation())

	out := buf.String()
	assert.Contains(t, out, "BTC")
	assert.Contains(t, out, "RSI 28.0")
	assert.Contains(t, out, "BLOCKED at phase 3")
	assert.Contains(t, out, "300.0 bps")
	assert.Contains(t, out, "500000.00")
	assert.Contains(t, out, "WAIT")
}

func TestConsolePrintBacktest(t *testing.T) {
	pnl := 10.99
	var buf bytes.Buffer
	NewConsole(&buf).PrintBacktest(model.BacktestResult{
		Ticker:         "DIP",
		InitialBalance: 100,
		FinalBalance:   110.99,
		ReturnPct:      10.99,
		TotalTrades:    1,
		Trades: []model.Trade{
			{Type: model.TradeBuy, Price: 191, Index: 107},
			{Type: model.TradeSell, Price: 212, Index: 114, PnL: &pnl},
		},
	})

	out := buf.String()
	assert.Contains(t, out, "+10.99%")
	assert.Contains(t, out, "191.0000")
	assert.Contains(t, out, "+10.99")
	// в таблице абсолютный PnL, без процентов в заголовке
	assert.Contains(t, strings.ToUpper(out), "PNL")
	assert.NotContains(t, strings.ToUpper(out), "PNL %")
}

func TestConsoleLogsTableErrors(t *testing.T) {
	var logs bytes.Buffer
	c := NewConsole(&bytes.Buffer{})
	c.logger = zerolog.New(&logs)

	c.check("trades", nil)
	assert.Empty(t, logs.String())

	c.check("trades", errors.New("writer closed"))
	assert.Contains(t, logs.String(), `"table":"trades"`)
	assert.Contains(t, logs.String(), "writer closed")
	assert.Contains(t, logs.String(), `"level":"warn"`)
}

func TestConsolePrintScreener(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf)

	c.PrintScreener(nil)
	assert.Contains(t, buf.String(), "no candidates")

	buf.Reset()
	c.PrintScreener([]screener.Ranked{
		{Symbol: "XRP", Price: 800, MomentumPct: -4.2, TradeValue24h: 3.5e10, Scored: true, WeightedScore: 58, Tier: "TIER 3 (HOLD)"},
		{Symbol: "DOGE", Price: 200, MomentumPct: 1.1, TradeValue24h: 2e6},
	})
	out := buf.String()
	assert.Contains(t, out, "XRP")
	assert.Contains(t, out, "-4.20")
	assert.Contains(t, out, "35.00B")
	assert.Contains(t, out, "(guard)")
	assert.Contains(t, out, "2.00M")
}

func TestFormatEvaluation(t *testing.T) {
	text := FormatEvaluation(blockedEvaluation())
	assert.True(t, strings.HasPrefix(text, "⛔ BTC"))
	assert.Contains(t, text, "Guard blocked at 3 (liquidity)")
	assert.Contains(t, text, "• Technical: 70")
	assert.Contains(t, text, "Verdict: WAIT - guard blocked")
}

type fakeTelegram struct {
	mu    sync.Mutex
	texts []string
	chats []string
}

func (f *fakeTelegram) handler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	switch {
	case strings.HasSuffix(r.URL.Path, "/getMe"):
		w.Write([]byte(`{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"nicempc","username":"nicempc_bot"}}`))
	case strings.HasSuffix(r.URL.Path, "/sendMessage"):
		_ = r.ParseForm()
		f.mu.Lock()
		f.texts = append(f.texts, r.FormValue("text"))
		f.chats = append(f.chats, r.FormValue("chat_id"))
		f.mu.Unlock()
		w.Write([]byte(`{"ok":true,"result":{"message_id":7,"date":0,"chat":{"id":42,"type":"private"}}}`))
	default:
		w.Write([]byte(`{"ok":false,"error_code":404,"description":"Not Found"}`))
	}
}

func TestTelegramSendEvaluation(t *testing.T) {
	fake := &fakeTelegram{}
	srv := httptest.NewServer(http.HandlerFunc(fake.handler))
	defer srv.Close()

	tg, err := NewTelegram(TelegramOptions{
		Token:    "test-token",
		ChatID:   42,
		Endpoint: srv.URL + "/bot%s/%s",
		Client:   srv.Client(),
	})
	require.NoError(t, err)

	require.NoError(t, tg.SendEvaluation(blockedEvaluation()))
	require.Len(t, fake.texts, 1)
	assert.Equal(t, "42", fake.chats[0])
	assert.Contains(t, fake.texts[0], "BTC")
}

func TestNewTelegramValidation(t *testing.T) {
	_, err := NewTelegram(TelegramOptions{ChatID: 1})
	assert.Error(t, err)
	_, err = NewTelegram(TelegramOptions{Token: "x"})
	assert.Error(t, err)
}
