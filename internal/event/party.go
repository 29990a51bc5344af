package event

import "strings"

// NormalizeName lowercases and whitespace-collapses a display name for
// case-insensitive lookups.
func NormalizeName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}

// FindPartyByName returns the first party whose display name matches the
// given name, ignoring case and surrounding whitespace. Returns nil when no
// party matches.
func FindPartyByName(parties []Party, name string) *Party {
	want := NormalizeName(name)
	if want == "" {
		return nil
	}
	for i := range parties {
		if NormalizeName(parties[i].DisplayName) == want {
			return &parties[i]
		}
	}
	return nil
}

// FindPartyOrFirst matches by name like FindPartyByName, falling back to the
// first supplied party. Several schedulers prefer a degraded assignment over
// dropping a due transaction when the configured vendor is absent.
func FindPartyOrFirst(parties []Party, name string) *Party {
	if p := FindPartyByName(parties, name); p != nil {
		return p
	}
	if len(parties) > 0 {
		return &parties[0]
	}
	return nil
}
