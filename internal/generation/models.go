// Package generation builds model prompts for gyoza cycling courses and parses
// the structured payload out of the model's free-text reply.
package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"strconv"
	"strings"
)

// ErrGenerationParse indicates the model reply held no usable JSON payload.
var ErrGenerationParse = errors.New("could not parse generated course")

// Generator is a generative text model.
type Generator interface {
	// Generate returns the model's free-text reply to prompt.
	Generate(ctx context.Context, prompt string) (string, error)
	// Name returns the model identifier for logging and metrics.
	Name() string
}

// Candidate is one course proposed by the model.
type Candidate struct {
	Title            string   `json:"title"`
	ShortDescription string   `json:"short_description"`
	Description      string   `json:"description"`
	Stops            []string `json:"stops"`
	Spots            []Spot   `json:"spots"`
}

// Spot is the model's detail record for an intermediate stop.
type Spot struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Menu        string `json:"menu"`
	Price       Amount `json:"price"`
	Calories    Amount `json:"calories"`
}

// Shop is the single gyoza shop returned for the legacy contract.
type Shop struct {
	Name    string `json:"name"`
	Comment string `json:"comment"`
}

var amountPattern = regexp.MustCompile(`-?[0-9]+(?:\.[0-9]+)?`)

// Amount is a numeric field the model may emit as a number ("450") or as
// text ("450kcal", "1,200円"). The original form is kept for output.
type Amount struct {
	raw json.RawMessage
}

// NewAmount returns an Amount holding a plain number.
func NewAmount(v float64) Amount {
	return Amount{raw: json.RawMessage(strconv.FormatFloat(v, 'f', -1, 64))}
}

// Value returns the first number found in the amount.
func (a Amount) Value() (float64, bool) {
	if a.IsZero() {
		return 0, false
	}

	var n float64
	if err := json.Unmarshal(a.raw, &n); err == nil {
		return n, true
	}

	var s string
	if err := json.Unmarshal(a.raw, &s); err != nil {
		return 0, false
	}
	m := amountPattern.FindString(strings.ReplaceAll(s, ",", ""))
	if m == "" {
		return 0, false
	}
	n, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// IsZero reports whether the model omitted the amount.
func (a Amount) IsZero() bool {
	return len(a.raw) == 0 || bytes.Equal(a.raw, []byte("null"))
}

// MarshalJSON emits the amount in the form the model produced.
func (a Amount) MarshalJSON() ([]byte, error) {
	if a.IsZero() {
		return []byte("null"), nil
	}
	return a.raw, nil
}

// UnmarshalJSON accepts a JSON number, string or null.
func (a *Amount) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return errors.New("empty amount")
	}
	switch trimmed[0] {
	case '"', 'n', '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
	default:
		return errors.New("amount must be a number or a string")
	}
	if !json.Valid(trimmed) {
		return errors.New("invalid amount")
	}
	a.raw = append(a.raw[:0], trimmed...)
	return nil
}
