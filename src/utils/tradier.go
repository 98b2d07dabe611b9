package utils

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

const tagPrefix = "tradebox"

func ValidateTag(tag string) error {
	// Maximum length of 255 characters.
	// Valid characters are letters, numbers and -
	if len(tag) > 255 {
		return fmt.Errorf("tag is too long: %d", len(tag))
	}

	for _, c := range tag {
		if !((c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '-') {
			return fmt.Errorf("invalid character in tag: %c (%s)", c, tag)
		}
	}

	return nil
}

// EncodeTag names a brokerage order after the order intent that placed it.
// attempt is a loop attempt number, or "e" for the emergency fill.
func EncodeTag(orderID uint, attempt string) string {
	return fmt.Sprintf("%s-%d-%s", tagPrefix, orderID, attempt)
}

// tradebox-12-3
func DecodeTag(tag string) (uint, string, error) {
	parts := strings.Split(tag, "-")
	if len(parts) != 3 || parts[0] != tagPrefix {
		return 0, "", fmt.Errorf("invalid tag: expected %s-<order>-<attempt>: %s", tagPrefix, tag)
	}

	orderID, err := strconv.ParseUint(parts[1], 10, 64)
	if err != nil {
		return 0, "", fmt.Errorf("failed to parse order id: %w", err)
	}

	return uint(orderID), parts[2], nil
}

// ParseTradierResponse unwraps Tradier's {"things": {"thing": ...}} envelope,
// where the inner value is either one object, a list, or the string "null".
func ParseTradierResponse[T any](response []byte) ([]T, error) {
	header := make(map[string]json.RawMessage)

	if err := json.Unmarshal(response, &header); err != nil {
		return nil, fmt.Errorf("ParseTradierResponse(): failed to unmarshal header in response: %w", err)
	}

	if len(header) != 1 {
		return nil, fmt.Errorf("ParseTradierResponse(): expected 1 key in header, got %v", len(header))
	}

	var v json.RawMessage
	for _, raw := range header {
		v = raw
	}

	if string(v) == "\"null\"" || string(v) == "null" {
		return []T{}, nil
	}

	data := make(map[string]json.RawMessage)
	if err := json.Unmarshal(v, &data); err != nil {
		return nil, fmt.Errorf("ParseTradierResponse(): failed to unmarshal data in response: %w", err)
	}

	if len(data) != 1 {
		return nil, fmt.Errorf("ParseTradierResponse(): expected 1 key in data, got %v", len(data))
	}

	var inner json.RawMessage
	for _, raw := range data {
		inner = raw
	}

	var dtos []T

	var singleDTO T
	if err := json.Unmarshal(inner, &singleDTO); err == nil {
		dtos = append(dtos, singleDTO)
	} else if err := json.Unmarshal(inner, &dtos); err != nil {
		return nil, fmt.Errorf("ParseTradierResponse(): failed to unmarshal dtos in response: %w", err)
	}

	return dtos, nil
}
