package tickets

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
)

// Marketplace feeds are loose about numeric fields: prices and rows show up as
// numbers, quoted numbers, null, or free text ("GA"). These types decode all of
// them without failing the whole payload; Valid is false when the value could
// not be read.

type flexInt struct {
	Value int
	Valid bool
}

func (f *flexInt) UnmarshalJSON(b []byte) error {
	*f = flexInt{}
	s := unquote(b)
	if s == "" {
		return nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		*f = flexInt{Value: n, Valid: true}
		return nil
	}
	if fl, err := strconv.ParseFloat(s, 64); err == nil && fl == float64(int(fl)) {
		*f = flexInt{Value: int(fl), Valid: true}
	}
	return nil
}

type flexDecimal struct {
	Value decimal.Decimal
	Valid bool
}

func (f *flexDecimal) UnmarshalJSON(b []byte) error {
	*f = flexDecimal{}
	s := strings.TrimPrefix(unquote(b), "$")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return nil
	}
	if d, err := decimal.NewFromString(s); err == nil {
		*f = flexDecimal{Value: d, Valid: true}
	}
	return nil
}

type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	*f = flexString(unquote(b))
	return nil
}

func unquote(b []byte) string {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return ""
	}
	if len(b) >= 2 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err == nil {
			return strings.TrimSpace(s)
		}
		return ""
	}
	return string(b)
}
