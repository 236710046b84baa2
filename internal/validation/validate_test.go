package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/posting-assistant/internal/types"
)

func with(t *testing.T, r types.Record, f types.FieldKey, v types.Value) types.Record {
	t.Helper()
	out, err := r.With(f, v)
	require.NoError(t, err)
	return out
}

func places(names ...string) types.Value {
	p := make([]types.Place, 0, len(names))
	for _, n := range names {
		p = append(p, types.Place{Name: n})
	}
	return types.PlacesValue(p)
}

func requireCode(t *testing.T, err error, code Code) *ValidationError {
	t.Helper()
	require.Error(t, err)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, code, ve.Code)
	return ve
}

func TestValidate_MinMaxOrdering(t *testing.T) {
	e := New(nil)

	tests := []struct {
		name     string
		existing types.FieldKey
		value    float64
		field    types.FieldKey
		newValue float64
		wantErr  bool
	}{
		{"min above existing max", types.FieldMaxHourlyRate, 50, types.FieldMinHourlyRate, 60, true},
		{"min equal to max", types.FieldMaxHourlyRate, 50, types.FieldMinHourlyRate, 50, false},
		{"max below existing min", types.FieldMinFullTimeSalary, 50000, types.FieldMaxFullTimeSalary, 40000, true},
		{"max above min", types.FieldMinFullTimeSalary, 50000, types.FieldMaxFullTimeSalary, 60000, false},
		{"part time inverted", types.FieldMaxPartTimeSalary, 1000, types.FieldMinPartTimeSalary, 1500, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := with(t, types.Record{}, tt.existing, types.NumberValue(tt.value))
			before := r.Clone()

			err := e.Validate(r, tt.field, types.NumberValue(tt.newValue))
			if tt.wantErr {
				ve := requireCode(t, err, CodeRange)
				assert.Equal(t, tt.existing, ve.Counterpart)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, before, r)
		})
	}
}

func TestValidate_WeeklyHours(t *testing.T) {
	e := New(nil)

	assert.NoError(t, e.Validate(types.Record{}, types.FieldWeeklyHours, types.NumberValue(168)))
	requireCode(t, e.Validate(types.Record{}, types.FieldWeeklyHours, types.NumberValue(169)), CodeBound)
}

func TestValidate_NegativeAvailability(t *testing.T) {
	e := New(nil)

	requireCode(t, e.Validate(types.Record{}, types.FieldAvailability, types.NumberValue(-1)), CodeNegative)
	assert.NoError(t, e.Validate(types.Record{}, types.FieldAvailability, types.NumberValue(0)))
}

func TestValidate_Enum(t *testing.T) {
	e := New(nil)

	assert.NoError(t, e.Validate(types.Record{}, types.FieldJobType, types.EnumValue(types.JobTypePartTime)))
	requireCode(t, e.Validate(types.Record{}, types.FieldJobType, types.EnumValue("INTERN")), CodeEnum)
}

func TestValidate_Shape(t *testing.T) {
	e := New(nil)

	requireCode(t, e.Validate(types.Record{}, types.FieldTitle, types.NumberValue(3)), CodeShape)
	requireCode(t, e.Validate(types.Record{}, types.FieldTitle, types.TextValue("  ")), CodeEmpty)
	requireCode(t, e.Validate(types.Record{}, types.FieldSkills, types.SkillsValue(nil)), CodeEmpty)
}

func TestValidate_TimeZoneOverlap(t *testing.T) {
	e := New(nil)

	assert.NoError(t, e.Validate(types.Record{}, types.FieldTimeZone, types.TimeZoneValue(types.TimeZone{Name: "CET", Overlap: 4})))
	requireCode(t, e.Validate(types.Record{}, types.FieldTimeZone, types.TimeZoneValue(types.TimeZone{Name: "CET", Overlap: 25})), CodeBound)
}

func TestValidate_CountriesWithinContinents(t *testing.T) {
	e := New(nil)
	r := with(t, types.Record{}, types.FieldContinents, places("Europe"))

	ve := requireCode(t, e.Validate(r, types.FieldCountries, places("Brazil")), CodeContainment)
	assert.Equal(t, "Brazil", ve.Offending)

	assert.NoError(t, e.Validate(r, types.FieldCountries, places("France")))
	assert.NoError(t, e.Validate(r, types.FieldCountries, places(types.AllMarker)))
	requireCode(t, e.Validate(r, types.FieldCountries, places("Narnia")), CodeUnknown)
}

func TestValidate_RegionsWithinCountries(t *testing.T) {
	e := New(nil)
	r := with(t, types.Record{}, types.FieldCountries, places("France"))

	ok := types.PlacesValue([]types.Place{{Name: "Île-de-France", Country: "France"}})
	assert.NoError(t, e.Validate(r, types.FieldRegions, ok))

	notSub := types.PlacesValue([]types.Place{{Name: "Bavaria", Country: "France"}})
	requireCode(t, e.Validate(r, types.FieldRegions, notSub), CodeContainment)

	otherCountry := types.PlacesValue([]types.Place{{Name: "Bavaria", Country: "Germany"}})
	requireCode(t, e.Validate(r, types.FieldRegions, otherCountry), CodeContainment)

	all := types.PlacesValue([]types.Place{{Name: types.AllMarker, Country: "France"}})
	assert.NoError(t, e.Validate(r, types.FieldRegions, all))
}

func TestValidate_ParentChangeKeepsStoredChildren(t *testing.T) {
	e := New(nil)

	t.Run("continents that drop a stored country", func(t *testing.T) {
		r := with(t, types.Record{}, types.FieldContinents, places("Europe"))
		r = with(t, r, types.FieldCountries, places("France"))

		ve := requireCode(t, e.Validate(r, types.FieldContinents, places("Asia")), CodeContainment)
		assert.Equal(t, "France", ve.Offending)
		assert.Equal(t, types.FieldCountries, ve.Counterpart)

		assert.NoError(t, e.Validate(r, types.FieldContinents, places("Europe", "Asia")))
	})

	t.Run("continents with unrestricted countries", func(t *testing.T) {
		r := with(t, types.Record{}, types.FieldCountries, places(types.AllMarker))
		assert.NoError(t, e.Validate(r, types.FieldContinents, places("Asia")))
	})

	t.Run("countries that drop a stored region", func(t *testing.T) {
		r := with(t, types.Record{}, types.FieldCountries, places("France", "Germany"))
		r = with(t, r, types.FieldRegions, types.PlacesValue([]types.Place{
			{Name: "Île-de-France", Country: "France"},
			{Name: "Bavaria", Country: "Germany"},
		}))

		ve := requireCode(t, e.Validate(r, types.FieldCountries, places("France")), CodeContainment)
		assert.Equal(t, "Bavaria", ve.Offending)
		assert.Equal(t, types.FieldRegions, ve.Counterpart)

		assert.NoError(t, e.Validate(r, types.FieldCountries, places("France", "Germany", "Spain")))
		assert.NoError(t, e.Validate(r, types.FieldCountries, places(types.AllMarker)))
	})

	t.Run("restricted countries under unrestricted regions", func(t *testing.T) {
		r := with(t, types.Record{}, types.FieldRegions, types.PlacesValue([]types.Place{{Name: types.AllMarker}}))
		requireCode(t, e.Validate(r, types.FieldCountries, places("France")), CodeContainment)
	})

	t.Run("country that drops the stored city", func(t *testing.T) {
		r := with(t, types.Record{}, types.FieldCity, types.TextValue("Lyon"))

		ve := requireCode(t, e.Validate(r, types.FieldCountry, types.PlaceValue(types.Place{Name: "Spain"})), CodeContainment)
		assert.Equal(t, "Lyon", ve.Offending)
		assert.NoError(t, e.Validate(r, types.FieldCountry, types.PlaceValue(types.Place{Name: "France"})))
	})
}

func TestValidate_City(t *testing.T) {
	e := New(nil)
	r := with(t, types.Record{}, types.FieldCountry, types.PlaceValue(types.Place{Name: "France"}))

	assert.NoError(t, e.Validate(r, types.FieldCity, types.TextValue("Lyon")))
	assert.NoError(t, e.Validate(r, types.FieldCity, types.TextValue("Annecy-le-Vieux")))
	requireCode(t, e.Validate(r, types.FieldCity, types.TextValue("Madrid")), CodeContainment)
}

func TestCheckRecord(t *testing.T) {
	e := New(nil)

	r := types.Record{}
	r = with(t, r, types.FieldMinHourlyRate, types.NumberValue(40))
	r = with(t, r, types.FieldMaxHourlyRate, types.NumberValue(60))
	assert.NoError(t, e.CheckRecord(r))

	lo, hi := 80.0, 60.0
	r.MinHourlyRate, r.MaxHourlyRate = &lo, &hi
	var recErr *RecordError
	assert.ErrorAs(t, e.CheckRecord(r), &recErr)

	bad := with(t, types.Record{}, types.FieldContinents, places("Asia"))
	bad.Countries = []types.Place{{Name: "France"}}
	assert.ErrorAs(t, e.CheckRecord(bad), &recErr)
}

func TestCounterpart(t *testing.T) {
	other, ok := Counterpart(types.FieldMaxFullTimeSalary)
	require.True(t, ok)
	assert.Equal(t, types.FieldMinFullTimeSalary, other)

	_, ok = Counterpart(types.FieldWeeklyHours)
	assert.False(t, ok)
}
