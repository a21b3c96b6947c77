// Package tracker implements the value model: how a Thing's kind governs its
// default value, completion status, input coercion, and display text.
package tracker

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mkoster/daymark/internal/apperr"
	"github.com/mkoster/daymark/internal/models"
)

// DefaultValue returns the Thing's configured default. Every Thing must be
// provisioned with one; there is no implicit type-based fallback.
func DefaultValue(t models.Thing) (any, error) {
	if !t.HasDefault {
		return nil, fmt.Errorf("thing %s: %w", t.ID, apperr.ErrMissingDefault)
	}
	return t.DefaultValue, nil
}

// StatusOf computes the 3-valued completion status for a value recorded
// against t. Rules are evaluated in order; the numeric rule only applies
// when both the value and the target are numeric.
func StatusOf(t models.Thing, value any) models.Status {
	if value == nil {
		return models.StatusMissed
	}
	switch t.Kind {
	case models.KindCheckbox:
		if b, ok := value.(bool); ok && b {
			return models.StatusComplete
		}
		return models.StatusMissed
	case models.KindText:
		if s, ok := value.(string); ok && strings.TrimSpace(s) != "" {
			return models.StatusComplete
		}
		return models.StatusMissed
	case models.KindCounter, models.KindScale:
		v, ok := value.(float64)
		if !ok || t.Target == nil {
			return models.StatusMissed
		}
		switch {
		case v >= *t.Target:
			return models.StatusComplete
		case v > 0:
			return models.StatusPartial
		default:
			return models.StatusMissed
		}
	default:
		return models.StatusMissed
	}
}

// CoerceInput normalizes a client-submitted value to t's kind: bool for
// checkbox, string for text (empty when nil), float64 for counter/scale.
// An unparsable numeric input falls back to the configured default, which
// makes a missing default an error here too.
func CoerceInput(t models.Thing, raw any) (any, error) {
	switch t.Kind {
	case models.KindCheckbox:
		return truthy(raw), nil
	case models.KindText:
		if raw == nil {
			return "", nil
		}
		return stringify(raw), nil
	case models.KindCounter, models.KindScale:
		if f, ok := raw.(float64); ok {
			return f, nil
		}
		if f, ok := parseNumber(raw); ok {
			return f, nil
		}
		return DefaultValue(t)
	default:
		return raw, nil
	}
}

// DisplayText renders a value for compact UI summaries.
func DisplayText(t models.Thing, value any) string {
	switch t.Kind {
	case models.KindCheckbox:
		if truthy(value) {
			return "Done"
		}
		return "Not logged"
	case models.KindText:
		if s := stringify(value); s != "" {
			return s
		}
		return "Not logged"
	default:
		if f, ok := value.(float64); ok {
			if t.Unit != "" {
				return FormatNumber(f) + " " + t.Unit
			}
			return FormatNumber(f)
		}
		return ""
	}
}

// FormatNumber renders a float without trailing zeros ("5", "2.5").
func FormatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// truthy follows loose-value semantics: false for nil, zero, empty string,
// and the literal strings "false"/"0"; true otherwise.
func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case float64:
		return x != 0
	case string:
		s := strings.TrimSpace(strings.ToLower(x))
		return s != "" && s != "false" && s != "0"
	default:
		return true
	}
}

func stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return FormatNumber(x)
	default:
		return fmt.Sprintf("%v", x)
	}
}

func parseNumber(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
