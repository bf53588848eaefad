package generation

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// fencePattern matches the first fenced block, optionally tagged json.
var fencePattern = regexp.MustCompile("(?s)```(?:json|JSON)?\\s*(.*?)\\s*```")

// ExtractJSON returns the payload of the first fenced block in reply.
func ExtractJSON(reply string) ([]byte, error) {
	m := fencePattern.FindStringSubmatch(reply)
	if m == nil {
		return nil, fmt.Errorf("%w: no fenced JSON block in reply", ErrGenerationParse)
	}

	payload := strings.TrimSpace(m[1])
	if !json.Valid([]byte(payload)) {
		return nil, fmt.Errorf("%w: fenced block is not valid JSON", ErrGenerationParse)
	}
	return []byte(payload), nil
}

// ParseCandidates decodes a reply holding a JSON array of courses.
func ParseCandidates(reply string) ([]Candidate, error) {
	payload, err := ExtractJSON(reply)
	if err != nil {
		return nil, err
	}

	var candidates []Candidate
	if err := json.Unmarshal(payload, &candidates); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGenerationParse, err)
	}
	return candidates, nil
}

// ParseCandidate decodes a reply holding a single course object.
func ParseCandidate(reply string) (*Candidate, error) {
	payload, err := ExtractJSON(reply)
	if err != nil {
		return nil, err
	}

	var candidate Candidate
	if err := json.Unmarshal(payload, &candidate); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGenerationParse, err)
	}
	return &candidate, nil
}

// ParseShop decodes a reply holding a single shop object.
func ParseShop(reply string) (*Shop, error) {
	payload, err := ExtractJSON(reply)
	if err != nil {
		return nil, err
	}

	var shop Shop
	if err := json.Unmarshal(payload, &shop); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGenerationParse, err)
	}
	if strings.TrimSpace(shop.Name) == "" {
		return nil, fmt.Errorf("%w: shop name is empty", ErrGenerationParse)
	}
	return &shop, nil
}
