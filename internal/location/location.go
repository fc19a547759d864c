// Package location canonicalises free-text locations and answers the
// location questions asked by extraction and scoring.
package location

import (
	"strings"
)

// Indeed endpoint variants.
const (
	DomesticEndpoint      = "in.indeed.com"
	InternationalEndpoint = "www.indeed.com"
)

type alias struct {
	key       string
	canonical string
}

// aliases is ordered so that multi-word keys win over their substrings.
var aliases = []alias{
	{"bangalore", "Bengaluru, Karnataka"},
	{"banglore", "Bengaluru, Karnataka"},
	{"bengaluru", "Bengaluru, Karnataka"},
	{"bangaluru", "Bengaluru, Karnataka"},
	{"mumbai", "Mumbai, Maharashtra"},
	{"bombay", "Mumbai, Maharashtra"},
	{"new delhi", "Delhi, Delhi"},
	{"delhi", "Delhi, Delhi"},
	{"hyderabad", "Hyderabad, Telangana"},
	{"chennai", "Chennai, Tamil Nadu"},
	{"madras", "Chennai, Tamil Nadu"},
	{"pune", "Pune, Maharashtra"},
	{"coimbatore", "Coimbatore, Tamil Nadu"},
}

// variationFamilies lists the spellings that count as the same place. The
// family key is matched against the requested location.
var variationFamilies = []struct {
	keys       []string
	variations []string
}{
	{
		keys:       []string{"remote", "work from home", "wfh"},
		variations: []string{"remote", "work from home", "wfh", "anywhere", "work from anywhere", "work remotely"},
	},
	{
		keys:       []string{"bangalore", "banglore", "bengaluru", "bangaluru"},
		variations: []string{"bangalore", "bengaluru", "bangaluru", "banglore"},
	},
	{
		keys:       []string{"mumbai", "bombay"},
		variations: []string{"mumbai", "bombay"},
	},
	{
		keys:       []string{"delhi"},
		variations: []string{"delhi", "ncr", "new delhi", "gurgaon", "gurugram", "noida"},
	},
	{keys: []string{"hyderabad"}, variations: []string{"hyderabad"}},
	{keys: []string{"chennai", "madras"}, variations: []string{"chennai", "madras"}},
	{keys: []string{"pune"}, variations: []string{"pune"}},
	{keys: []string{"coimbatore"}, variations: []string{"coimbatore"}},
	{keys: []string{"india"}, variations: []string{"india", "indian"}},
}

var domesticCities = []string{
	"bangalore", "banglore", "bengaluru", "bangaluru",
	"mumbai", "bombay", "delhi", "hyderabad", "chennai", "madras", "pune", "coimbatore",
}

var foreignIndicators = map[string]struct{}{
	"ca": {}, "co": {}, "ny": {}, "tx": {}, "il": {}, "pa": {}, "ut": {}, "md": {},
	"al": {}, "wa": {}, "or": {}, "az": {}, "fl": {}, "ma": {}, "nc": {},
	"usa": {}, "us": {},
}

// Canonicalize maps a known city alias to "City, Region". Unknown locations
// are returned trimmed and otherwise unchanged.
func Canonicalize(raw string) string {
	trimmed := strings.TrimSpace(raw)
	lower := strings.ToLower(trimmed)
	if lower == "" {
		return ""
	}
	for _, a := range aliases {
		if strings.Contains(lower, a.key) {
			return a.canonical
		}
	}
	return trimmed
}

// Recognized reports whether raw contains a known alias.
func Recognized(raw string) bool {
	lower := strings.ToLower(raw)
	if lower == "" {
		return false
	}
	for _, a := range aliases {
		if strings.Contains(lower, a.key) {
			return true
		}
	}
	return false
}

// ResolveEndpoint picks the Indeed host serving the location.
func ResolveEndpoint(raw string) string {
	lower := strings.ToLower(raw)
	if Recognized(raw) || strings.Contains(lower, "india") {
		return DomesticEndpoint
	}
	return InternationalEndpoint
}

// IsDomesticCity reports whether raw names a known domestic city.
func IsDomesticCity(raw string) bool {
	lower := strings.ToLower(raw)
	for _, city := range domesticCities {
		if strings.Contains(lower, city) {
			return true
		}
	}
	return false
}

// Variations returns every spelling that matches the requested location.
// An unrecognized location matches only itself.
func Variations(requested string) []string {
	lower := strings.ToLower(strings.TrimSpace(requested))
	if lower == "" {
		return nil
	}
	var out []string
	for _, family := range variationFamilies {
		for _, key := range family.keys {
			if strings.Contains(lower, key) {
				out = append(out, family.variations...)
				break
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return []string{clean(lower)}
}

// Matches reports whether jobLocation satisfies the requested location.
func Matches(jobLocation, requested string) bool {
	job := clean(strings.ToLower(jobLocation))
	if job == "" {
		return false
	}
	for _, v := range Variations(requested) {
		if v != "" && strings.Contains(job, v) {
			return true
		}
	}
	return false
}

// HasForeignIndicator reports whether jobLocation names the United States,
// either spelled out or by a state code appearing as a whole token.
func HasForeignIndicator(jobLocation string) bool {
	lower := strings.ToLower(jobLocation)
	if strings.Contains(lower, "united states") {
		return true
	}
	for _, token := range strings.FieldsFunc(lower, func(r rune) bool {
		return !(r >= 'a' && r <= 'z')
	}) {
		if _, ok := foreignIndicators[token]; ok {
			return true
		}
	}
	return false
}

func clean(s string) string {
	s = strings.NewReplacer(",", "", ".", "").Replace(s)
	return strings.Join(strings.Fields(s), " ")
}
