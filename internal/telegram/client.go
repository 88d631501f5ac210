// Package telegram sends digest summaries and cycle alerts through the Telegram Bot API.
package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/rewired-gh/seatscout/internal/excitement"
	"github.com/rewired-gh/seatscout/internal/models"
)

// Client handles Telegram notifications.
type Client struct {
	bot            *tgbotapi.BotAPI
	chatID         int64
	maxRetries     int
	retryDelayBase time.Duration
	status         func() string
}

// NewClient creates a new Telegram client.
func NewClient(botToken, chatID string, maxRetries int, retryDelayBase time.Duration) (*Client, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}

	chatIDInt, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid chat ID: %w", err)
	}

	if maxRetries <= 0 {
		maxRetries = 3
	}
	if retryDelayBase <= 0 {
		retryDelayBase = time.Second
	}

	return &Client{
		bot:            bot,
		chatID:         chatIDInt,
		maxRetries:     maxRetries,
		retryDelayBase: retryDelayBase,
	}, nil
}

// SetStatusFunc installs the handler behind the /status command.
func (c *Client) SetStatusFunc(fn func() string) {
	c.status = fn
}

// ListenForCommands starts a goroutine that polls for Telegram updates and handles bot commands.
// It returns immediately; the goroutine stops when ctx is cancelled.
func (c *Client) ListenForCommands(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := c.bot.GetUpdatesChan(u)

	go func() {
		for {
			select {
			case <-ctx.Done():
				c.bot.StopReceivingUpdates()
				return
			case update, ok := <-updates:
				if !ok {
					return
				}
				if update.Message != nil && update.Message.IsCommand() {
					c.handleCommand(update.Message)
				}
			}
		}
	}()
}

func (c *Client) handleCommand(msg *tgbotapi.Message) {
	var text string
	switch msg.Command() {
	case "ping":
		text = "Pong"
	case "status":
		if c.status == nil {
			return
		}
		text = c.status()
	default:
		return
	}
	c.bot.Send(tgbotapi.NewMessage(msg.Chat.ID, text)) //nolint:errcheck
}

// sendMarkdownV2 sends a MarkdownV2 message with linear-backoff retry.
func (c *Client) sendMarkdownV2(text string) error {
	msg := tgbotapi.NewMessage(c.chatID, text)
	msg.ParseMode = "MarkdownV2"

	var lastErr error
	for i := 0; i < c.maxRetries; i++ {
		if _, err := c.bot.Send(msg); err == nil {
			return nil
		} else {
			lastErr = err
		}
		time.Sleep(c.retryDelayBase * time.Duration(i+1))
	}
	return fmt.Errorf("failed after %d retries: %w", c.maxRetries, lastErr)
}

// SendError sends a digest cycle error notification.
// Call this only on the first occurrence of a consecutive error sequence.
func (c *Client) SendError(cycleErr error) error {
	text := fmt.Sprintf("⚠️ *Digest error*\n`%s`", escapeMarkdownV2(cycleErr.Error()))
	return c.sendMarkdownV2(text)
}

// SendRecovery sends a recovery notification after consecutive failures.
func (c *Client) SendRecovery(failureCount int) error {
	text := fmt.Sprintf("✅ *Digest recovered* after %d consecutive failure\\(s\\)", failureCount)
	return c.sendMarkdownV2(text)
}

// SendSeats sends the best pick for each event.
func (c *Client) SendSeats(team string, recs []models.EventRecommendation) error {
	return c.sendMarkdownV2(formatSeats(team, recs))
}

// SendMatchups sends the ranked matchup list.
func (c *Client) SendMatchups(team string, matchups []models.MatchupRecommendation) error {
	return c.sendMarkdownV2(formatMatchups(team, matchups))
}

// formatSeats formats the top pick per event into a Telegram MarkdownV2 message.
func formatSeats(team string, recs []models.EventRecommendation) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🏟 *%s seat picks*\n\n", escapeMarkdownV2(team))

	if len(recs) == 0 {
		b.WriteString(escapeMarkdownV2("No recommendations this cycle."))
		return b.String()
	}

	for i, er := range recs {
		if len(er.Recommendations) == 0 {
			continue
		}
		title := escapeMarkdownV2(er.Event.Title)
		if er.Event.URL != "" {
			title = fmt.Sprintf("[%s](%s)", title, er.Event.URL)
		}
		date := escapeMarkdownV2(er.Event.Date.Format("Mon Jan 2 15:04"))
		fmt.Fprintf(&b, "%d\\. %s \\(%s\\)\n", i+1, title, date)

		top := er.Recommendations[0]
		detail := fmt.Sprintf("Sec %s row %d, %d seats at $%s (score %.1f)",
			top.Section, top.Row, top.Quantity(), top.PricePerSeat.StringFixed(2), top.Score)
		fmt.Fprintf(&b, "   🎟 %s\n", escapeMarkdownV2(detail))
		if more := len(er.Recommendations) - 1; more > 0 {
			fmt.Fprintf(&b, "   \\+%d more\n", more)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// formatMatchups formats rated matchups into a Telegram MarkdownV2 message.
func formatMatchups(team string, matchups []models.MatchupRecommendation) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🔥 *%s matchups*\n\n", escapeMarkdownV2(team))

	if len(matchups) == 0 {
		b.WriteString(escapeMarkdownV2("No upcoming home games."))
		return b.String()
	}

	for i, m := range matchups {
		band := excitement.BandFor(m.Rating.Excitement).Label()
		line := fmt.Sprintf("%s (%s) %d/10 %s", m.Event.Title, m.Event.Date.Format("Jan 2"), m.Rating.Excitement, band)
		star := ""
		if m.Rating.Preferred {
			star = " ⭐"
		}
		fmt.Fprintf(&b, "%d\\. %s%s\n", i+1, escapeMarkdownV2(line), star)
	}
	return b.String()
}

// escapeMarkdownV2 escapes special characters for Telegram MarkdownV2.
func escapeMarkdownV2(text string) string {
	var b strings.Builder
	b.Grow(len(text) + len(text)/4) // pre-allocate with room for escapes
	for _, char := range text {
		switch char {
		case '_', '*', '[', ']', '(', ')', '~', '`', '>', '#', '+', '-', '=', '|', '{', '}', '.', '!':
			b.WriteByte('\\')
		}
		b.WriteRune(char)
	}
	return b.String()
}
