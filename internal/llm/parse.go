package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"
)

// ErrNoRecord reports that the response contains no interpretable JSON record.
var ErrNoRecord = errors.New("no structured record found in response")

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
}

// FirstJSONObject returns the first balanced {...} region of s, tolerating
// surrounding prose. String literals and escapes are honored so braces inside
// quoted values do not confuse the scan.
func FirstJSONObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

// ParseFields interprets the field extractor's raw response. It locates the
// first balanced JSON object and normalizes each target field independently:
// an unusable date becomes nil, a missing merchant becomes "Unknown", and a
// non-numeric amount becomes 0. Only a response with no recognizable record
// at all is an error.
func ParseFields(raw []byte, logger *slog.Logger) (ReceiptFields, error) {
	if logger == nil {
		logger = slog.Default()
	}

	obj, ok := FirstJSONObject(string(raw))
	if !ok {
		return ReceiptFields{}, ErrNoRecord
	}

	var m map[string]any
	if err := json.Unmarshal([]byte(obj), &m); err != nil {
		return ReceiptFields{}, fmt.Errorf("%w: %v", ErrNoRecord, err)
	}

	if err := ValidateJSONAgainstSchema(BuildReceiptJSONSchema(), []byte(obj)); err != nil {
		// Individual fields are normalized below regardless; the schema result
		// is diagnostic only.
		logger.Warn("llm.parse.schema_mismatch", "error", err)
	}

	return ReceiptFields{
		PurchasedAt:  normalizeDate(m["purchased_at"]),
		MerchantName: normalizeMerchant(m["merchant_name"]),
		TotalAmount:  normalizeAmount(m["total_amount"]),
	}, nil
}

func normalizeDate(v any) *time.Time {
	s, ok := v.(string)
	if !ok {
		return nil
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}

func normalizeMerchant(v any) string {
	if s, ok := v.(string); ok {
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}
	return "Unknown"
}

func normalizeAmount(v any) float64 {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case string:
		s := strings.TrimSpace(t)
		s = strings.TrimLeft(s, "$€£")
		s = strings.ReplaceAll(s, ",", "")
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0
		}
		f = parsed
	default:
		return 0
	}
	if f < 0 {
		return 0
	}
	return f
}
