// Package consent models the visitor's cookie consent choices.
package consent

import "time"

type Category string

const (
	Necessary  Category = "necessary"
	Functional Category = "functional"
	Analytics  Category = "analytics"
	Marketing  Category = "marketing"
)

// Preferences records which optional categories the visitor accepted. Necessary is always on.
type Preferences struct {
	Necessary  bool      `json:"necessary"`
	Functional bool      `json:"functional"`
	Analytics  bool      `json:"analytics"`
	Marketing  bool      `json:"marketing"`
	UpdatedAt  time.Time `json:"timestamp"`
}

// Default is the state before the visitor has chosen anything.
func Default() Preferences {
	return Preferences{Necessary: true}
}

// Given reports whether the visitor has made a choice.
func (p Preferences) Given() bool {
	return !p.UpdatedAt.IsZero()
}

func (p Preferences) Allows(category Category) bool {
	switch category {
	case Necessary:
		return true
	case Functional:
		return p.Functional
	case Analytics:
		return p.Analytics
	case Marketing:
		return p.Marketing
	default:
		return false
	}
}

// Update returns next with Necessary forced on and the timestamp set, plus the categories
// that were allowed before and are not anymore.
func Update(prev, next Preferences, now time.Time) (Preferences, []Category) {
	next.Necessary = true
	next.UpdatedAt = now.UTC()

	var revoked []Category
	for _, category := range []Category{Functional, Analytics, Marketing} {
		if prev.Allows(category) && !next.Allows(category) {
			revoked = append(revoked, category)
		}
	}
	return next, revoked
}
