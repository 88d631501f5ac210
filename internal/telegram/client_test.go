package telegram

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rewired-gh/seatscout/internal/models"
)

func TestEscapeMarkdownV2(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Hello World", "Hello World"},
		{"Hello_World", "Hello\\_World"},
		{"Test*bold*", "Test\\*bold\\*"},
		{"Price: $100.50", "Price: $100\\.50"},
		{"[link](url)", "\\[link\\]\\(url\\)"},
		{"~strikethrough~", "\\~strikethrough\\~"},
		{"`code`", "\\`code\\`"},
		{">blockquote", "\\>blockquote"},
		{"#header", "\\#header"},
		{"+plus-minus", "\\+plus\\-minus"},
		{"=equal|pipe", "\\=equal\\|pipe"},
		{"{brace}", "\\{brace\\}"},
		{"end!", "end\\!"},
		{"", ""},
		{"_*[]()~`>#+-=|{}.!", "\\_\\*\\[\\]\\(\\)\\~\\`\\>\\#\\+\\-\\=\\|\\{\\}\\.\\!"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := escapeMarkdownV2(tt.input)
			if result != tt.expected {
				t.Errorf("escapeMarkdownV2(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestNewClient_InvalidChatID(t *testing.T) {
	// NewClient with non-numeric chatID should return an error
	// Note: This test exercises the chat ID parsing error path
	// The bot token validation happens first (network call), so we use a clearly
	// invalid format to test the error handling flow
	_, err := NewClient("", "not-a-number", 3, time.Second)
	if err == nil {
		t.Error("Expected error for invalid chat ID, got nil")
	}
}

func TestFormatSeats(t *testing.T) {
	date := time.Date(2026, 11, 20, 19, 30, 0, 0, time.UTC)
	recs := []models.EventRecommendation{{
		Event: models.Event{Title: "Celtics at Knicks", Date: date, URL: "https://tickets.example.com/e1"},
		Recommendations: []models.Recommendation{
			{Listing: models.Listing{Section: "104", Row: 3, Seats: []int{1, 2}, PricePerSeat: decimal.NewFromFloat(250.5)}, Score: 151.2},
			{Listing: models.Listing{Section: "105", Row: 9, Seats: []int{1, 2}, PricePerSeat: decimal.NewFromInt(300)}, Score: 120},
		},
	}}

	msg := formatSeats("Knicks", recs)
	for _, want := range []string{
		"*Knicks seat picks*",
		"1\\. [Celtics at Knicks](https://tickets.example.com/e1)",
		"Sec 104 row 3, 2 seats at $250\\.50 \\(score 151\\.2\\)",
		"\\+1 more",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q:\n%s", want, msg)
		}
	}
	if strings.Contains(msg, "Sec 105") {
		t.Error("only the top pick per event should be listed")
	}
}

func TestFormatSeats_Empty(t *testing.T) {
	msg := formatSeats("Knicks", nil)
	if !strings.Contains(msg, "No recommendations this cycle\\.") {
		t.Errorf("unexpected empty message: %s", msg)
	}
}

func TestFormatMatchups(t *testing.T) {
	matchups := []models.MatchupRecommendation{
		{
			Event:  models.Event{Title: "Celtics at Knicks", Date: time.Date(2026, 11, 20, 0, 0, 0, 0, time.UTC)},
			Rating: models.ExcitementRating{Excitement: 10, Preferred: true},
		},
		{
			Event:  models.Event{Title: "Wizards at Knicks", Date: time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC)},
			Rating: models.ExcitementRating{Excitement: 3},
		},
	}
	msg := formatMatchups("Knicks", matchups)
	for _, want := range []string{
		"1\\. Celtics at Knicks \\(Nov 20\\) 10/10 must\\-see ⭐",
		"2\\. Wizards at Knicks \\(Dec 1\\) 3/10 standard",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q:\n%s", want, msg)
		}
	}
}
