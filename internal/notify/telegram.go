package notify

import (
	"fmt"
	"net/http"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/nicempc/internal/model"
)

// TelegramOptions configures the chat sink
type TelegramOptions struct {
	Token  string `yaml:"token"`
	ChatID int64  `yaml:"chat_id"`
	// Endpoint overrides tgbotapi.APIEndpoint
	Endpoint string       `yaml:"endpoint"`
	Client   *http.Client `yaml:"-"`
}

// Telegram sends evaluation summaries to one chat
type Telegram struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	logger zerolog.Logger
}

// NewTelegram authenticates the bot
func NewTelegram(opts TelegramOptions) (*Telegram, error) {
	if opts.Token == "" {
		return nil, fmt.Errorf("telegram token is empty")
	}
	if opts.ChatID == 0 {
		return nil, fmt.Errorf("telegram chat id is empty")
	}
	if opts.Endpoint == "" {
		opts.Endpoint = tgbotapi.APIEndpoint
	}
	if opts.Client == nil {
		opts.Client = &http.Client{}
	}

	bot, err := tgbotapi.NewBotAPIWithClient(opts.Token, opts.Endpoint, opts.Client)
	if err != nil {
		return nil, fmt.Errorf("initializing telegram bot: %w", err)
	}

	logger := log.With().Str("component", "telegram").Logger()
	logger.Info().Str("bot", bot.Self.UserName).Msg("Telegram bot authorized")

	return &Telegram{bot: bot, chatID: opts.ChatID, logger: logger}, nil
}

// SendEvaluation posts a short summary of ev
func (t *Telegram) SendEvaluation(ev model.Evaluation) error {
	msg := tgbotapi.NewMessage(t.chatID, FormatEvaluation(ev))
	if _, err := t.bot.Send(msg); err != nil {
		t.logger.Error().Err(err).Int64("chat_id", t.chatID).Msg("Failed to send message")
		return fmt.Errorf("sending evaluation for %s: %w", ev.Ticker, err)
	}
	return nil
}

// FormatEvaluation renders ev as plain chat text
func FormatEvaluation(ev model.Evaluation) string {
	var b strings.Builder

	icon := "✅"
	if !ev.Guard.AllPassed {
		icon = "⛔"
	}
	fmt.Fprintf(&b, "%s %s @ %.4f\n", icon, ev.Ticker, ev.LastClose)
	fmt.Fprintf(&b, "Score %.1f (confidence %.1f) - %s\n", ev.Aggregate.WeightedScore, ev.Aggregate.Confidence, ev.Tier)

	for _, r := range ev.Aggregate.Results {
		fmt.Fprintf(&b, "• %s: %.0f\n", r.Agent, r.Score)
	}

	if !ev.Guard.AllPassed && ev.Guard.FailedPhase != nil {
		p := ev.Guard.Phases[len(ev.Guard.Phases)-1]
		fmt.Fprintf(&b, "Guard blocked at %d (%s): %s\n", *ev.Guard.FailedPhase, p.Name, p.Reason)
	}
	for _, p := range ev.Guard.Cautions() {
		fmt.Fprintf(&b, "⚠️ %s\n", p.Detail)
	}

	fmt.Fprintf(&b, "Allocation %s (%.2f%%)\n", ev.Sizing.AllocationAmount.StringFixed(0), ev.Sizing.SafeFractionPct*100)
	fmt.Fprintf(&b, "Verdict: %s", ev.Synthesis.Label)
	if ev.Synthesis.Reasoning != "" {
		fmt.Fprintf(&b, " - %s", ev.Synthesis.Reasoning)
	}
	return b.String()
}
