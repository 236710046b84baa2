package contradiction

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/posting-assistant/internal/oracle"
	"github.com/jonathan/posting-assistant/internal/types"
)

func ptr[T any](v T) *T { return &v }

func TestCheck_Bounds(t *testing.T) {
	tests := []struct {
		name        string
		record      types.Record
		field       types.FieldKey
		value       float64
		counterpart types.FieldKey
	}{
		{
			name:        "min above existing max",
			record:      types.Record{MaxHourlyRate: ptr(60.0)},
			field:       types.FieldMinHourlyRate,
			value:       80,
			counterpart: types.FieldMaxHourlyRate,
		},
		{
			name:        "max below existing min",
			record:      types.Record{MinFullTimeSalary: ptr(50000.0)},
			field:       types.FieldMaxFullTimeSalary,
			value:       40000,
			counterpart: types.FieldMinFullTimeSalary,
		},
		{
			name:        "part time pair",
			record:      types.Record{MaxPartTimeSalary: ptr(20000.0)},
			field:       types.FieldMinPartTimeSalary,
			value:       25000,
			counterpart: types.FieldMaxPartTimeSalary,
		},
	}

	d := NewDetector(&oracle.Scripted{}, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := d.Check(context.Background(), tt.field, types.NumberValue(tt.value), tt.record, "en")
			require.NoError(t, err)
			require.NotNil(t, c)
			assert.Equal(t, SourceBounds, c.Source)
			assert.Equal(t, tt.counterpart, c.Counterpart)
			assert.NotEmpty(t, c.Message)
		})
	}
}

func TestCheck_BoundsConsistent(t *testing.T) {
	d := NewDetector(nil, nil)
	r := types.Record{MinHourlyRate: ptr(50.0)}

	c, err := d.Check(context.Background(), types.FieldMaxHourlyRate, types.NumberValue(50), r, "fr")
	require.NoError(t, err)
	assert.Nil(t, c)

	c, err = d.Check(context.Background(), types.FieldMaxHourlyRate, types.NumberValue(70), r, "fr")
	require.NoError(t, err)
	assert.Nil(t, c)

	c, err = d.Check(context.Background(), types.FieldMinHourlyRate, types.NumberValue(90), types.Record{}, "fr")
	require.NoError(t, err)
	assert.Nil(t, c)
}

func TestCheck_WeeklyHours(t *testing.T) {
	d := NewDetector(nil, nil)

	c, err := d.Check(context.Background(), types.FieldWeeklyHours, types.NumberValue(169), types.Record{}, "fr")
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, SourceHours, c.Source)
	assert.Contains(t, c.Message, "169")
	assert.Contains(t, c.Message, "168")

	c, err = d.Check(context.Background(), types.FieldWeeklyHours, types.NumberValue(168), types.Record{}, "fr")
	require.NoError(t, err)
	assert.Nil(t, c)
}

func TestCheck_MessagesFollowLanguage(t *testing.T) {
	d := NewDetector(nil, nil)
	r := types.Record{MaxHourlyRate: ptr(60.0)}

	tests := []struct {
		lang     string
		expected string
	}{
		{"fr", "taux horaire minimum"},
		{"en", "minimum hourly rate"},
		{"es", "tarifa por hora mínima"},
		{"de", "taux horaire minimum"},
	}
	for _, tt := range tests {
		t.Run(tt.lang, func(t *testing.T) {
			c, err := d.Check(context.Background(), types.FieldMinHourlyRate, types.NumberValue(80), r, tt.lang)
			require.NoError(t, err)
			require.NotNil(t, c)
			assert.Contains(t, c.Message, tt.expected)
			assert.Contains(t, c.Message, "80")
			assert.Contains(t, c.Message, "60")
		})
	}
}

func TestCheck_Geography(t *testing.T) {
	var got oracle.GeoCheckRequest
	o := &oracle.Scripted{
		CheckGeographyFunc: func(req oracle.GeoCheckRequest) (oracle.GeoCheckResult, error) {
			got = req
			return oracle.GeoCheckResult{Contradiction: true, Message: "Lyon n'est pas en Espagne."}, nil
		},
	}
	d := NewDetector(o, nil)
	r := types.Record{Country: &types.Place{Name: "Spain"}}

	c, err := d.Check(context.Background(), types.FieldCity, types.TextValue("Lyon"), r, "fr")
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, SourceGeography, c.Source)
	assert.Equal(t, "Lyon n'est pas en Espagne.", c.Message)
	assert.Equal(t, types.FieldCity, got.Field)
	assert.Equal(t, "fr", got.Language)
}

func TestCheck_GeographyDefaultMessage(t *testing.T) {
	o := &oracle.Scripted{
		CheckGeographyFunc: func(oracle.GeoCheckRequest) (oracle.GeoCheckResult, error) {
			return oracle.GeoCheckResult{Contradiction: true}, nil
		},
	}
	d := NewDetector(o, nil)

	c, err := d.Check(context.Background(), types.FieldCity, types.TextValue("Lyon"), types.Record{}, "en")
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Contains(t, c.Message, "Lyon")
}

func TestCheck_GeographyOracleFailureIsNoContradiction(t *testing.T) {
	o := &oracle.Scripted{
		CheckGeographyFunc: func(oracle.GeoCheckRequest) (oracle.GeoCheckResult, error) {
			return oracle.GeoCheckResult{}, &oracle.UnavailableError{Op: "check-geography", Cause: errors.New("503")}
		},
	}
	d := NewDetector(o, nil)

	c, err := d.Check(context.Background(), types.FieldCountries, types.PlacesValue([]types.Place{{Name: "France"}}), types.Record{}, "fr")
	require.NoError(t, err)
	assert.Nil(t, c)
}

func TestCheck_GeographyCanceled(t *testing.T) {
	o := &oracle.Scripted{
		CheckGeographyFunc: func(oracle.GeoCheckRequest) (oracle.GeoCheckResult, error) {
			return oracle.GeoCheckResult{}, context.Canceled
		},
	}
	d := NewDetector(o, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := d.Check(ctx, types.FieldCity, types.TextValue("Lyon"), types.Record{}, "fr")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCheck_NonGeographyTextSkipsOracle(t *testing.T) {
	o := &oracle.Scripted{}
	d := NewDetector(o, nil)

	c, err := d.Check(context.Background(), types.FieldTitle, types.TextValue("Dev"), types.Record{}, "fr")
	require.NoError(t, err)
	assert.Nil(t, c)
	assert.Zero(t, o.CallCount("CheckGeography"))
}
