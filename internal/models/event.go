package models

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Event is an upcoming home game as reported by the ticket source.
type Event struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Date     time.Time `json:"date"`
	Opponent string    `json:"opponent"`
	Venue    string    `json:"venue"`
	URL      string    `json:"url,omitempty"`
}

// Validate checks event field constraints.
func (e *Event) Validate() error {
	if e.ID == "" {
		return errors.New("event ID must not be empty")
	}
	if e.Title == "" {
		return errors.New("event title must not be empty")
	}
	if e.Opponent == "" {
		return errors.New("event opponent must not be empty")
	}
	if e.Date.IsZero() {
		return errors.New("event date must be set")
	}
	return nil
}

// Listing is one purchasable group of adjacent seats. Listings are rebuilt on
// every fetch cycle and never persisted.
type Listing struct {
	ID           string          `json:"id"`
	EventID      string          `json:"event_id"`
	Section      string          `json:"section"`
	Row          int             `json:"row"`
	Seats        []int           `json:"seats"`
	PricePerSeat decimal.Decimal `json:"price_per_seat"`
	Aisle        bool            `json:"aisle"`
	URL          string          `json:"url,omitempty"`
}

// Quantity is the number of seats in the listing.
func (l Listing) Quantity() int {
	return len(l.Seats)
}

// TotalCost is the per-seat price multiplied by the seat count.
func (l Listing) TotalCost() decimal.Decimal {
	return l.PricePerSeat.Mul(decimal.NewFromInt(int64(len(l.Seats))))
}

// Validate reports whether the listing carries every field needed for scoring.
// A listing that fails is unscoreable and must be skipped, not surfaced as a fault.
func (l Listing) Validate() error {
	if l.Section == "" {
		return errors.New("listing section must not be empty")
	}
	if len(l.Seats) == 0 {
		return errors.New("listing must contain at least one seat")
	}
	if !l.PricePerSeat.IsPositive() {
		return errors.New("listing price must be positive")
	}
	if l.Row < 0 {
		return errors.New("listing row must not be negative")
	}
	return nil
}

// EventListings pairs an event with the listings fetched for it, in source order.
type EventListings struct {
	Event    Event
	Listings []Listing
}
