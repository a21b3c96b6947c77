package storage

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/mkoster/daymark/internal/apperr"
	"github.com/mkoster/daymark/internal/models"
)

// The catalog and entries tables went through several column-naming
// generations (snake_case, camelCase, values folded into a metadata blob).
// Each logical field resolves through an ordered candidate list so the rest
// of the core only ever sees the canonical record.

var metadataKeys = []string{"target_metadata", "targetMetadata", "metadata", "target metadata"}

// rowMetadata extracts the metadata blob, tolerating both an embedded object
// and a JSON string. Unparsable blobs degrade to empty, not to an error.
func rowMetadata(row Row) map[string]any {
	for _, key := range metadataKeys {
		raw, ok := row[key]
		if !ok || raw == nil {
			continue
		}
		switch m := raw.(type) {
		case map[string]any:
			return m
		case string:
			var parsed map[string]any
			if err := json.Unmarshal([]byte(m), &parsed); err == nil {
				return parsed
			}
		}
		return map[string]any{}
	}
	return map[string]any{}
}

// MapThing translates a raw catalog row into a Thing, failing with a
// MappingError when a stored default cannot be coerced to the declared type.
func MapThing(row Row) (models.Thing, error) {
	id := rowString(row["id"])
	kind, err := models.ParseKind(rowString(row["type"]))
	if err != nil {
		return models.Thing{}, &apperr.MappingError{RecordID: id, Reason: err.Error()}
	}

	meta := rowMetadata(row)

	t := models.Thing{
		ID:          id,
		Label:       firstString(row["label"], row["name"]),
		Description: rowString(row["description"]),
		Icon:        rowString(row["icon"]),
		Kind:        kind,
		Target:      firstNumber(row["target"], meta["target"]),
		Unit:        firstString(row["unit"], row["units"], meta["unit"]),
		Min:         firstNumber(row["min_value"], meta["min"], meta["min_value"]),
		Max:         firstNumber(row["max_value"], meta["max"], meta["max_value"]),
		Step:        1,
	}
	if step := firstNumber(row["step"], meta["step"]); step != nil {
		t.Step = *step
	}

	raw, ok := pickDefault(row, meta)
	if ok {
		coerced, err := coerceDefault(kind, raw)
		if err != nil {
			return models.Thing{}, &apperr.MappingError{RecordID: id, Reason: err.Error()}
		}
		t.DefaultValue = coerced
		t.HasDefault = true
	}
	return t, nil
}

// pickDefault returns the first populated candidate among the legacy default
// columns and metadata keys. The boolean reports whether any candidate was
// present at all; a present-but-null default is legal.
func pickDefault(row Row, meta map[string]any) (any, bool) {
	for _, key := range []string{"default_value", "defaultValue", "start_value"} {
		if v, ok := row[key]; ok {
			return v, true
		}
	}
	for _, key := range []string{"default", "default_value", "start"} {
		if v, ok := meta[key]; ok {
			return v, true
		}
	}
	return nil, false
}

func coerceDefault(kind models.Kind, raw any) (any, error) {
	if raw == nil {
		return nil, nil
	}
	switch kind {
	case models.KindCheckbox:
		switch v := raw.(type) {
		case bool:
			return v, nil
		case float64:
			return v != 0, nil
		case string:
			switch strings.ToLower(strings.TrimSpace(v)) {
			case "true", "1":
				return true, nil
			case "false", "0":
				return false, nil
			}
		}
		return nil, fmt.Errorf("invalid checkbox default %v", raw)
	case models.KindCounter, models.KindScale:
		if n := asNumber(raw); n != nil {
			return *n, nil
		}
		return nil, fmt.Errorf("invalid numeric default %v", raw)
	default:
		return raw, nil
	}
}

// EntryValue resolves the recorded value from a raw entry row, coerced to
// the owning Thing's kind. Numeric-looking strings become numbers; checkbox
// values accept bool, "true"/"1" and numeric forms.
func EntryValue(row Row, t models.Thing) any {
	var raw any
	for _, key := range []string{"value", "value_numeric", "value_boolean", "value_json"} {
		if v, ok := row[key]; ok && v != nil {
			raw = v
			break
		}
	}
	switch t.Kind {
	case models.KindText:
		if raw == nil {
			return ""
		}
		return rowString(raw)
	case models.KindCheckbox:
		switch v := raw.(type) {
		case bool:
			return v
		case string:
			s := strings.ToLower(v)
			return s == "true" || s == "1"
		case float64:
			return v != 0
		default:
			return false
		}
	default:
		if n := asNumber(raw); n != nil {
			return *n
		}
		return raw
	}
}

// EntryThingID returns the entry row's tracker reference.
func EntryThingID(row Row) string {
	return rowString(row["tracking_id"])
}

// EntryRowID returns the storage-level row id, empty when absent.
func EntryRowID(row Row) string {
	return rowString(row["id"])
}

// EntryDate returns the entry row's ISO date.
func EntryDate(row Row) string {
	return rowString(row["entry_date"])
}

func rowString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		b, _ := json.Marshal(x)
		return string(b)
	}
}

func firstString(candidates ...any) string {
	for _, c := range candidates {
		if s, ok := c.(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func firstNumber(candidates ...any) *float64 {
	for _, c := range candidates {
		if n := asNumber(c); n != nil {
			return n
		}
	}
	return nil
}

// asNumber parses a number or a non-blank numeric string; anything else is nil.
func asNumber(v any) *float64 {
	switch x := v.(type) {
	case float64:
		return &x
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil
		}
		return &f
	default:
		return nil
	}
}
