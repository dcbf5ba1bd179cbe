// Package social provides the community: a fixed-position population that
// speaks at most one language.
package social

// CommunityID is a dense, 1-based community identifier.
type CommunityID = uint64

// Community is a population unit occupying one land cell.
type Community struct {
	ID         CommunityID `json:"id"`
	X          int         `json:"x"`
	Y          int         `json:"y"`
	Population int         `json:"population"`
	Prestige   float64     `json:"prestige"`    // Local prestige, 0.0–1.0
	LanguageID uint64      `json:"language_id"` // Zero until a language is acquired
}

// HasLanguage reports whether the community speaks a language.
func (c *Community) HasLanguage() bool {
	return c.LanguageID != 0
}

// Adopt switches the community to lang and averages in the prestige of the
// community it learned from.
func (c *Community) Adopt(lang uint64, sourcePrestige float64) {
	c.LanguageID = lang
	c.Prestige = (c.Prestige + sourcePrestige) / 2
}
