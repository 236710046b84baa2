package observability

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonathan/posting-assistant/internal/types"
)

func TestFormatValue(t *testing.T) {
	tests := []struct {
		name     string
		field    types.FieldKey
		value    types.Value
		lang     string
		expected string
	}{
		{"unset fr", types.FieldTitle, types.Value{}, "fr", "Non spécifié"},
		{"unset es", types.FieldTitle, types.Value{}, "es", "No especificado"},
		{"availability immediate", types.FieldAvailability, types.NumberValue(0), "en", "Immediate"},
		{"availability one week", types.FieldAvailability, types.NumberValue(1), "fr", "1 semaine"},
		{"availability weeks", types.FieldAvailability, types.NumberValue(6), "es", "6 semanas"},
		{"hourly euro", types.FieldMinHourlyRate, types.NumberValue(55), "fr", "55€/h"},
		{"hourly dollar", types.FieldMaxHourlyRate, types.NumberValue(72.5), "en", "$72.5/h"},
		{"salary euro", types.FieldMinFullTimeSalary, types.NumberValue(48000), "es", "48000€"},
		{"salary dollar", types.FieldMaxPartTimeSalary, types.NumberValue(30000), "en", "$30000"},
		{"hours", types.FieldWeeklyHours, types.NumberValue(35), "en", "35"},
		{"enum", types.FieldJobType, types.EnumValue("FREELANCE"), "fr", "FREELANCE"},
		{
			"languages", types.FieldLanguages,
			types.LanguagesValue([]types.Language{{Name: "French", Level: "C1"}, {Name: "English"}}),
			"en", "French (C1), English",
		},
		{
			"skills", types.FieldSkills,
			types.SkillsValue([]types.Skill{{Name: "Go", Mandatory: true}, {Name: "Rust"}}),
			"fr", "Go (requis), Rust (optionnel)",
		},
		{
			"regions", types.FieldRegions,
			types.PlacesValue([]types.Place{{Name: "Île-de-France", Country: "France"}, {Name: types.AllMarker, Country: types.AllMarker}}),
			"fr", "Île-de-France (France), ALL",
		},
		{"country", types.FieldCountry, types.PlaceValue(types.Place{Name: "Spain"}), "en", "Spain"},
		{
			"time zone", types.FieldTimeZone,
			types.TimeZoneValue(types.TimeZone{Name: "CET", Overlap: 4}),
			"fr", "CET (chevauchement: 4h)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatValue(tt.field, tt.value, tt.lang))
		})
	}
}

func TestFormatValue_LongTextTruncated(t *testing.T) {
	long := "Une mission longue qui décrit en détail le contexte et les attentes du poste"
	got := FormatValue(types.FieldDescription, types.TextValue(long), "fr")
	assert.Equal(t, 53, len([]rune(got)))
	assert.True(t, len(got) < len(long))
}

func TestFormatField(t *testing.T) {
	r := types.Record{WeeklyHours: ptr(35.0)}
	assert.Equal(t, "35", FormatField(r, types.FieldWeeklyHours, "en"))
	assert.Equal(t, "Not specified", FormatField(r, types.FieldCity, "en"))
}

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger("debug", true)
	assert.NoError(t, err)
	assert.NotNil(t, logger)

	logger, err = NewLogger("", false)
	assert.NoError(t, err)
	assert.NotNil(t, logger)

	_, err = NewLogger("loud", false)
	assert.Error(t, err)
}
