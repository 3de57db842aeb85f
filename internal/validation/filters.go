// Package validation checks user-supplied matching-preference values
// before they are persisted.
package validation

import (
	"fmt"
	"strings"

	"anonrelay/internal/models"
)

var validGenders = map[models.Gender]struct{}{
	models.GenderMale:   {},
	models.GenderFemale: {},
}

var validRegions = map[models.Region]struct{}{
	models.RegionAfrica:       {},
	models.RegionAsia:         {},
	models.RegionEurope:       {},
	models.RegionNorthAmerica: {},
	models.RegionSouthAmerica: {},
	models.RegionOceania:      {},
	models.RegionAntarctica:   {},
}

var validLanguages = map[models.Language]struct{}{
	models.LanguageEN: {},
	models.LanguageAR: {},
	models.LanguageHI: {},
	models.LanguageID: {},
}

// ValidateGender checks a raw /filters value against the supported gender set.
func ValidateGender(raw string) (models.Gender, error) {
	g := models.Gender(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := validGenders[g]; !ok {
		return "", fmt.Errorf("gender must be one of: male, female")
	}
	return g, nil
}

// ValidateRegion checks a raw /filters value against the supported region set.
func ValidateRegion(raw string) (models.Region, error) {
	r := models.Region(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := validRegions[r]; !ok {
		return "", fmt.Errorf("region must be one of: africa, asia, europe, north_america, south_america, oceania, antarctica")
	}
	return r, nil
}

// ValidateLanguage checks a raw /filters value against the supported language set.
func ValidateLanguage(raw string) (models.Language, error) {
	l := models.Language(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := validLanguages[l]; !ok {
		return "", fmt.Errorf("language must be one of: en, ar, hi, id")
	}
	return l, nil
}
