package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Île-de-France", "ile de france"},
		{"  Côte  d'Azur ", "cote d azur"},
		{"ESPAÑA", "espana"},
		{"Fès-Meknès", "fes meknes"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, Normalize(tt.input))
		})
	}
}

func TestDefault_Loads(t *testing.T) {
	s := Default()
	require.NotNil(t, s)
	assert.Len(t, s.Continents(), 6)
}

func TestResolveContinent(t *testing.T) {
	s := Default()

	tests := []struct {
		input string
		code  string
	}{
		{"Europe", "EU"},
		{"europa", "EU"},
		{"Amérique du Sud", "SA"},
		{"Océanie", "OC"},
		{"África", "AF"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			c, ok := s.ResolveContinent(tt.input)
			require.True(t, ok)
			assert.Equal(t, tt.code, c.Code)
		})
	}

	_, ok := s.ResolveContinent("Atlantis")
	assert.False(t, ok)
}

func TestResolveCountry(t *testing.T) {
	s := Default()

	c, err := s.ResolveCountry("Espagne")
	require.NoError(t, err)
	assert.Equal(t, "ES", c.Code)
	assert.Equal(t, "EU", c.Continent)

	c, err = s.ResolveCountry("brésil")
	require.NoError(t, err)
	assert.Equal(t, "SA", c.Continent)

	_, err = s.ResolveCountry("Wakanda")
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "country", nf.Kind)
}

func TestContinentOf(t *testing.T) {
	s := Default()
	code, ok := s.ContinentOf("MA")
	require.True(t, ok)
	assert.Equal(t, "AF", code)

	_, ok = s.ContinentOf("XX")
	assert.False(t, ok)
}

func TestResolveSubdivision(t *testing.T) {
	s := Default()

	sub, err := s.ResolveSubdivision("ile de france", []string{"FR"})
	require.NoError(t, err)
	assert.Equal(t, "Île-de-France", sub.Name)
	assert.Equal(t, "FR", sub.Country)
	assert.False(t, sub.Unverified)

	sub, err = s.ResolveSubdivision("Lyon", []string{"ES", "FR"})
	require.NoError(t, err)
	assert.Equal(t, "Auvergne-Rhône-Alpes", sub.Name)

	_, err = s.ResolveSubdivision("Bavaria", []string{"FR"})
	assert.Error(t, err)

	sub, err = s.ResolveSubdivision("Zurich", []string{"FR", "CH"})
	require.NoError(t, err)
	assert.Equal(t, "CH", sub.Country)
	assert.True(t, sub.Unverified)

	_, err = s.ResolveSubdivision("Somewhere", []string{"CH", "NL"})
	assert.Error(t, err)
}

func TestSubdivisionsOf(t *testing.T) {
	s := Default()
	assert.Contains(t, s.SubdivisionsOf("FR"), "Bretagne")
	assert.Empty(t, s.SubdivisionsOf("CH"))
}

func TestCountryOfCity(t *testing.T) {
	s := Default()
	code, ok := s.CountryOfCity("Casablanca")
	require.True(t, ok)
	assert.Equal(t, "MA", code)

	_, ok = s.CountryOfCity("Gotham")
	assert.False(t, ok)
}

func TestLoad_UnknownContinent(t *testing.T) {
	_, err := Load([]byte(`
continents:
  - code: EU
    name: Europe
countries:
  - code: FR
    name: France
    continent: XX
`))
	assert.Error(t, err)
}
