// Package genealogy defines the person, place and search types shared by the
// candidate source, the ranking engine and the API layer.
package genealogy

import "strconv"

// Gender is the recorded sex of a person. The empty value means unknown to the source.
type Gender string

// Recognised gender values.
const (
	GenderMale    Gender = "Male"
	GenderFemale  Gender = "Female"
	GenderUnknown Gender = "Unknown"
)

// Place is an entry from the place authority.
// JurisdictionPath lists ancestor place ids, nearest first (city -> state -> country).
type Place struct {
	ID               string   `json:"id"`
	DisplayName      string   `json:"displayName"`
	Type             string   `json:"type,omitempty"`
	JurisdictionPath []string `json:"jurisdictionPath,omitempty"`
}

// PersonRef is a lightweight pointer to a relative. It is only compared, never dereferenced.
type PersonRef struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// Person is one candidate record as mapped from the upstream source.
type Person struct {
	ID               string     `json:"id"`
	Name             string     `json:"name"`
	Gender           Gender     `json:"gender,omitempty"`
	BirthYear        *int       `json:"birthYear,omitempty"`
	DeathYear        *int       `json:"deathYear,omitempty"`
	Lifespan         string     `json:"lifespan,omitempty"`
	PrimaryPlace     *Place     `json:"primaryPlace,omitempty"`
	PrimaryPlaceText string     `json:"primaryPlaceText,omitempty"`
	Father           *PersonRef `json:"father,omitempty"`
	Mother           *PersonRef `json:"mother,omitempty"`
	Spouse           *PersonRef `json:"spouse,omitempty"`
	FSURL            string     `json:"fsUrl"`
}

// PlaceText returns the text used for free-text place matching:
// the structured place's display name when present, else the raw place text.
func (p Person) PlaceText() string {
	if p.PrimaryPlace != nil && p.PrimaryPlace.DisplayName != "" {
		return p.PrimaryPlace.DisplayName
	}
	return p.PrimaryPlaceText
}

// SearchParams is the user's search intent.
// PlaceID, when set, is preferred over PlaceText for place matching.
// Father, Mother and Spouse are optional relative hints; the search form
// usually leaves them empty.
type SearchParams struct {
	Name          string     `json:"name"`
	BirthYearFrom *int       `json:"birthYearFrom,omitempty"`
	BirthYearTo   *int       `json:"birthYearTo,omitempty"`
	PlaceID       string     `json:"placeId,omitempty"`
	PlaceText     string     `json:"placeText,omitempty"`
	Father        *PersonRef `json:"father,omitempty"`
	Mother        *PersonRef `json:"mother,omitempty"`
	Spouse        *PersonRef `json:"spouse,omitempty"`
}

// MatchCandidate is a scored candidate with the explanation chips shown in the UI.
type MatchCandidate struct {
	Person       Person   `json:"person"`
	Score        float64  `json:"score"`
	Explanations []string `json:"explanations"`
}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int {
	return &v
}

// Lifespan formats a "1840–1902" style range. A missing side is rendered as "…".
// Returns "" when both years are missing.
func Lifespan(birth, death *int) string {
	if birth == nil && death == nil {
		return ""
	}
	from, to := "…", "…"
	if birth != nil {
		from = strconv.Itoa(*birth)
	}
	if death != nil {
		to = strconv.Itoa(*death)
	}
	return from + "–" + to
}
