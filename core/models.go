package core

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Sentinel values substituted when a character enrichment lookup fails.
const (
	UnknownClass      = "Unknown"
	DefaultClassColor = "#FFFFFF"
)

// classColors maps a character class name to its display color.
var classColors = map[string]string{
	"Warrior":      "#C79C6E",
	"Paladin":      "#F58CBA",
	"Hunter":       "#ABD473",
	"Rogue":        "#FFF569",
	"Priest":       "#FFFFFF",
	"Death Knight": "#C41F3B",
	"Shaman":       "#0070DE",
	"Mage":         "#69CCF0",
	"Warlock":      "#9482C9",
	"Monk":         "#00FF96",
	"Druid":        "#FF7D0A",
	"Demon Hunter": "#A330C9",
}

// ClassColor returns the display color for a class name. Unknown classes
// map to DefaultClassColor.
func ClassColor(class string) string {
	if color, ok := classColors[class]; ok {
		return color
	}
	return DefaultClassColor
}

// ProfileSnapshot is the aggregated account profile returned to the caller.
type ProfileSnapshot struct {
	ID          int64          `json:"id,omitempty"`
	WowAccounts []AccountGroup `json:"wow_accounts"`
}

// AccountGroup is one owned account holding a list of characters.
type AccountGroup struct {
	Characters []Character `json:"characters"`
}

// Realm identifies the server a character lives on.
type Realm struct {
	Slug string `json:"slug"`
	Name string `json:"name,omitempty"`
}

// CharacterMedia holds the resolved avatar image for a character.
type CharacterMedia struct {
	AvatarURL string `json:"avatar_url"`
}

// Character is one game character. The enrichment fields (media, score,
// class, item level, color) are populated by independent lookups and each
// falls back to its sentinel when its lookup fails.
type Character struct {
	Name  string `json:"name"`
	Level int    `json:"level"`
	Realm Realm  `json:"realm"`

	Media           CharacterMedia `json:"media"`
	MythicPlusScore NumberOrNA     `json:"mythic_plus_score"`
	Class           string         `json:"class"`
	ItemLevel       NumberOrNA     `json:"itemLevel"`
	ClassColor      string         `json:"classColor"`
}

// NumberOrNA is a numeric field that renders as its value when known and as
// the literal string "N/A" when the lookup that populates it was unavailable.
type NumberOrNA struct {
	Value float64
	Valid bool
}

// KnownNumber returns a populated NumberOrNA.
func KnownNumber(v float64) NumberOrNA {
	return NumberOrNA{Value: v, Valid: true}
}

func (n NumberOrNA) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return json.Marshal("N/A")
	}
	return json.Marshal(n.Value)
}

func (n *NumberOrNA) UnmarshalJSON(data []byte) error {
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		// Anything non-numeric (including the sentinel) means "not available".
		n.Value = 0
		n.Valid = false
		return nil
	}
	n.Value = v
	n.Valid = true
	return nil
}

// Session is the server-side record backing the session credential strategy.
// The provider access token is stored encrypted; the cookie key is stored
// only as a bcrypt hash.
type Session struct {
	ID             string    `json:"id"`
	KeyHash        string    `json:"key_hash"`
	Subject        string    `json:"subject"`
	EncryptedToken string    `json:"encrypted_token"`
	CreatedAt      time.Time `json:"created_at"`
	ExpiresAt      time.Time `json:"expires_at"`
}

// Group is a player-created event on the group board.
type Group struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title" validate:"required"`
	Description string    `json:"description"`
	Time        string    `json:"time" validate:"required"`
	Leader      string    `json:"leader" validate:"required"`
	Role        string    `json:"role"`
	Owner       string    `json:"owner" validate:"required"`
	CreatedAt   time.Time `json:"createdAt"`
}
