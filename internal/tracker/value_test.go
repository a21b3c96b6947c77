package tracker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkoster/daymark/internal/apperr"
	"github.com/mkoster/daymark/internal/models"
)

func thing(kind models.Kind) models.Thing {
	return models.Thing{ID: "t1", Kind: kind}
}

func withDefault(t models.Thing, def any) models.Thing {
	t.DefaultValue = def
	t.HasDefault = true
	return t
}

func withTarget(t models.Thing, target float64) models.Thing {
	t.Target = &target
	return t
}

func TestDefaultValue(t *testing.T) {
	got, err := DefaultValue(withDefault(thing(models.KindCheckbox), false))
	require.NoError(t, err)
	assert.Equal(t, false, got)

	// A configured null default is legal.
	got, err = DefaultValue(withDefault(thing(models.KindText), nil))
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = DefaultValue(thing(models.KindCounter))
	require.ErrorIs(t, err, apperr.ErrMissingDefault)
	assert.Contains(t, err.Error(), "t1")
}

func TestStatusOf(t *testing.T) {
	tests := []struct {
		name  string
		thing models.Thing
		value any
		want  models.Status
	}{
		{"nil is missed for every kind", thing(models.KindCounter), nil, models.StatusMissed},
		{"nil checkbox missed", thing(models.KindCheckbox), nil, models.StatusMissed},
		{"nil text missed", thing(models.KindText), nil, models.StatusMissed},
		{"checkbox true", thing(models.KindCheckbox), true, models.StatusComplete},
		{"checkbox false", thing(models.KindCheckbox), false, models.StatusMissed},
		{"text non-blank", thing(models.KindText), "ran 5k", models.StatusComplete},
		{"text whitespace only", thing(models.KindText), "   ", models.StatusMissed},
		{"text empty", thing(models.KindText), "", models.StatusMissed},
		{"counter at target", withTarget(thing(models.KindCounter), 8.0), 8.0, models.StatusComplete},
		{"counter above target", withTarget(thing(models.KindCounter), 8.0), 9.5, models.StatusComplete},
		{"counter below target", withTarget(thing(models.KindCounter), 8.0), 3.0, models.StatusPartial},
		{"counter zero", withTarget(thing(models.KindCounter), 8.0), 0.0, models.StatusMissed},
		{"counter negative", withTarget(thing(models.KindCounter), 8.0), -1.0, models.StatusMissed},
		{"scale at target", withTarget(thing(models.KindScale), 3.0), 3.0, models.StatusComplete},
		{"numeric without target", thing(models.KindCounter), 5.0, models.StatusMissed},
		{"non-numeric value on counter", withTarget(thing(models.KindCounter), 8.0), "lots", models.StatusMissed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusOf(tt.thing, tt.value))
		})
	}
}

func TestCoerceInput(t *testing.T) {
	checkbox := withDefault(thing(models.KindCheckbox), false)
	text := withDefault(thing(models.KindText), "")
	counter := withDefault(thing(models.KindCounter), 2.0)

	tests := []struct {
		name  string
		thing models.Thing
		raw   any
		want  any
	}{
		{"checkbox bool", checkbox, true, true},
		{"checkbox number", checkbox, 1.0, true},
		{"checkbox zero", checkbox, 0.0, false},
		{"checkbox string false", checkbox, "false", false},
		{"text nil becomes empty", text, nil, ""},
		{"text number stringified", text, 7.0, "7"},
		{"counter number", counter, 5.0, 5.0},
		{"counter numeric string", counter, "5", 5.0},
		{"counter decimal string", counter, "2.5", 2.5},
		{"counter unparsable falls back to default", counter, "a lot", 2.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CoerceInput(tt.thing, tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	// Unparsable numeric input with no configured default is an error.
	_, err := CoerceInput(thing(models.KindCounter), "nope")
	require.ErrorIs(t, err, apperr.ErrMissingDefault)
}

func TestDisplayText(t *testing.T) {
	water := withTarget(thing(models.KindCounter), 8)
	water.Unit = "glasses"

	assert.Equal(t, "Done", DisplayText(thing(models.KindCheckbox), true))
	assert.Equal(t, "Not logged", DisplayText(thing(models.KindCheckbox), false))
	assert.Equal(t, "slept well", DisplayText(thing(models.KindText), "slept well"))
	assert.Equal(t, "Not logged", DisplayText(thing(models.KindText), ""))
	assert.Equal(t, "5 glasses", DisplayText(water, 5.0))
	assert.Equal(t, "2.5", DisplayText(thing(models.KindScale), 2.5))
	assert.Equal(t, "", DisplayText(thing(models.KindScale), nil))
}
