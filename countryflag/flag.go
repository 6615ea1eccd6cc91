// Package countryflag resolves a race's country field, which may hold an ISO
// 3166-1 alpha-2 code or a free-text country name, to flag emoji and display
// strings. Stateless lookups only.
package countryflag

import (
	"strings"

	"github.com/biter777/countries"
)

const regionalIndicatorA = 0x1F1E6 // Unicode for the 'A' regional indicator

func isAlpha2(s string) bool {
	return len(s) == 2 &&
		s[0] >= 'A' && s[0] <= 'Z' &&
		s[1] >= 'A' && s[1] <= 'Z'
}

func codeToEmoji(code string) string {
	upper := strings.ToUpper(code)
	if !isAlpha2(upper) {
		return ""
	}
	return string([]rune{
		regionalIndicatorA + rune(upper[0]-'A'),
		regionalIndicatorA + rune(upper[1]-'A'),
	})
}

// ResolveCode returns the ISO alpha-2 code for a country value, which may
// already be a code ("FR") or a name ("France"). Empty string when the value
// is blank or unknown.
func ResolveCode(country string) string {
	trimmed := strings.TrimSpace(country)
	if trimmed == "" {
		return ""
	}

	if upper := strings.ToUpper(trimmed); isAlpha2(upper) {
		return upper
	}

	if c := countries.ByName(trimmed); c != countries.Unknown {
		return c.Alpha2()
	}
	return ""
}

// FlagEmoji returns the flag emoji for a country code or name, "" when it
// cannot be resolved.
func FlagEmoji(country string) string {
	trimmed := strings.TrimSpace(country)
	if trimmed == "" {
		return ""
	}

	if upper := strings.ToUpper(trimmed); isAlpha2(upper) {
		return codeToEmoji(upper)
	}

	if code := ResolveCode(trimmed); code != "" {
		return codeToEmoji(code)
	}
	return ""
}

// CountryName returns the full country name for display ("France" from "FR"
// or "France"), "" when unresolvable.
func CountryName(country string) string {
	code := ResolveCode(country)
	if code == "" {
		return ""
	}
	c := countries.ByName(code)
	if c == countries.Unknown {
		return ""
	}
	return c.String()
}

// DisplayName renders "[flag] - [name]" when the country resolves to a flag,
// otherwise just the race name.
func DisplayName(name, country string) string {
	if flag := FlagEmoji(country); flag != "" {
		return flag + " - " + name
	}
	return name
}

// LocationDisplay renders "[city], [countryName] [emoji]", dropping whichever
// parts are missing.
func LocationDisplay(city, country string) string {
	city = strings.TrimSpace(city)
	countryPart := CountryName(country)
	if countryPart != "" {
		if emoji := FlagEmoji(country); emoji != "" {
			countryPart += " " + emoji
		}
	}

	parts := make([]string, 0, 2)
	if city != "" {
		parts = append(parts, city)
	}
	if countryPart != "" {
		parts = append(parts, countryPart)
	}
	return strings.Join(parts, ", ")
}
