package schema

import (
	"github.com/jonathan/posting-assistant/internal/types"
)

// BaseFields are always required, in the order they are asked.
var BaseFields = []types.FieldKey{
	types.FieldTitle,
	types.FieldDescription,
	types.FieldDiscipline,
	types.FieldAvailability,
	types.FieldSeniority,
	types.FieldLanguages,
	types.FieldSkills,
	types.FieldJobType,
	types.FieldWorkMode,
}

// JobTypeFields are required once jobType holds the key value.
var JobTypeFields = map[string][]types.FieldKey{
	types.JobTypeFreelance: {
		types.FieldMinHourlyRate,
		types.FieldMaxHourlyRate,
		types.FieldWeeklyHours,
		types.FieldEstimatedWeeks,
	},
	types.JobTypeFullTime: {
		types.FieldMinFullTimeSalary,
		types.FieldMaxFullTimeSalary,
	},
	types.JobTypePartTime: {
		types.FieldMinPartTimeSalary,
		types.FieldMaxPartTimeSalary,
	},
}

// WorkModeFields are required once workMode holds the key value.
var WorkModeFields = map[string][]types.FieldKey{
	types.WorkModeRemote: {
		types.FieldContinents,
		types.FieldCountries,
		types.FieldRegions,
		types.FieldTimeZone,
	},
	types.WorkModeOnsite: {
		types.FieldCountry,
		types.FieldCity,
	},
	types.WorkModeHybrid: {
		types.FieldCountry,
		types.FieldCity,
	},
}

// RequiredFields returns every field required by the current record, in
// priority order: base fields, then contract fields, then location fields.
func RequiredFields(r types.Record) []types.FieldKey {
	out := append([]types.FieldKey(nil), BaseFields...)
	out = append(out, JobTypeFields[r.Enum(types.FieldJobType)]...)
	out = append(out, WorkModeFields[r.Enum(types.FieldWorkMode)]...)
	return out
}

// IsRequired reports whether a field is required by the current record.
func IsRequired(r types.Record, field types.FieldKey) bool {
	for _, f := range RequiredFields(r) {
		if f == field {
			return true
		}
	}
	return false
}

// MissingFields returns the required fields that hold no value, in priority
// order. It is always computed from the record.
func MissingFields(r types.Record) []types.FieldKey {
	var out []types.FieldKey
	for _, f := range RequiredFields(r) {
		if !r.IsFilled(f) {
			out = append(out, f)
		}
	}
	return out
}

// IsComplete reports whether no required field is missing.
func IsComplete(r types.Record) bool {
	return len(MissingFields(r)) == 0
}

// NextField returns the first missing field that is neither processed nor
// deferred and whose prerequisite is filled or settled. It returns false when
// no field can be asked.
func NextField(r types.Record, processed, deferred types.FieldSet) (types.FieldKey, bool) {
	for _, f := range MissingFields(r) {
		if processed.Has(f) || deferred.Has(f) {
			continue
		}
		if pre := MustLookup(f).Prerequisite; pre != "" {
			settled := r.IsFilled(pre) || processed.Has(pre) || deferred.Has(pre)
			if !settled {
				continue
			}
		}
		return f, true
	}
	return "", false
}
