package gedcomx

import (
	"net/url"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/onnwee/kinmatch/internal/genealogy"
)

// PersonURLBase is the tree page prefix used for Person.FSURL.
const PersonURLBase = "https://www.familysearch.org/tree/person/details/"

// PersonURL builds the tree page link for a person id.
func PersonURL(id string) string {
	return PersonURLBase + url.PathEscape(id)
}

// MapPerson maps one GEDCOM-X person. places resolves the birth fact's place
// reference and may be nil. It returns false when the person has no id.
func MapPerson(raw gjson.Result, places map[string]genealogy.Place) (genealogy.Person, bool) {
	if !raw.IsObject() {
		return genealogy.Person{}, false
	}

	id := firstString(raw.Get("id"), raw.Get("identifier"))
	if id == "" {
		id = extractIdentifier(raw.Get("identifiers"))
	}
	if id == "" {
		return genealogy.Person{}, false
	}

	display := raw.Get("display")

	name := firstString(display.Get("name"))
	if name == "" {
		name = nameFromNames(raw.Get("names"))
	}
	if name == "" {
		name = id
	}

	birthFact := findFact(raw.Get("facts"), "Birth")
	deathFact := findFact(raw.Get("facts"), "Death")

	person := genealogy.Person{
		ID:        id,
		Name:      name,
		Gender:    mapGender(firstString(display.Get("gender"), raw.Get("gender.type"))),
		BirthYear: firstYear(yearFromFact(birthFact), display.Get("birthDate"), raw.Get("birthDate")),
		DeathYear: firstYear(yearFromFact(deathFact), display.Get("deathDate"), raw.Get("deathDate")),
		Father:    firstRef(display.Get("ancestorSummary.father"), raw.Get("father")),
		Mother:    firstRef(display.Get("ancestorSummary.mother"), raw.Get("mother")),
		Spouse:    firstRef(display.Get("spouse")),
		FSURL:     PersonURL(id),
	}

	factPlace := birthFact.Get("place")
	if ref := NormalizeRef(firstString(factPlace.Get("descriptionRef"), factPlace.Get("descriptionId"))); ref != "" {
		if p, ok := places[ref]; ok {
			person.PrimaryPlace = &p
		}
	}

	if person.PrimaryPlace != nil {
		person.PrimaryPlaceText = person.PrimaryPlace.DisplayName
	} else {
		person.PrimaryPlaceText = firstString(
			display.Get("birthPlace"),
			factPlace.Get("original"),
			factPlace.Get("normalized.0.value"),
			factPlace.Get("normalizedDescription"),
			factPlace.Get("description"),
		)
	}

	person.Lifespan = firstString(display.Get("lifespan"))
	if person.Lifespan == "" {
		person.Lifespan = genealogy.Lifespan(person.BirthYear, person.DeathYear)
	}

	return person, true
}

// findFact returns the first fact whose type ends with suffix, case-insensitively.
// GEDCOM-X fact types are URIs such as "http://gedcomx.org/Birth".
func findFact(facts gjson.Result, suffix string) gjson.Result {
	suffix = strings.ToLower(suffix)
	for _, fact := range facts.Array() {
		if strings.HasSuffix(strings.ToLower(fact.Get("type").String()), suffix) {
			return fact
		}
	}
	return gjson.Result{}
}

// yearFromFact returns the fact's date text, formal form first.
func yearFromFact(fact gjson.Result) gjson.Result {
	date := fact.Get("date")
	for _, path := range []string{"formal", "normalized.0.value", "original"} {
		if v := date.Get(path); v.Type == gjson.String && v.String() != "" {
			return v
		}
	}
	return gjson.Result{}
}

// firstYear returns the year of the first present date text. Only the first
// present text is parsed, matching how the upstream prefers its own fields.
func firstYear(dates ...gjson.Result) *int {
	text := firstString(dates...)
	if text == "" {
		return nil
	}
	year, ok := ExtractYear(text)
	if !ok {
		return nil
	}
	return genealogy.IntPtr(year)
}

// mapGender reads a display gender or a gender type URI.
func mapGender(input string) genealogy.Gender {
	s := strings.ToLower(input)
	switch {
	case s == "":
		return ""
	case strings.Contains(s, "female"):
		return genealogy.GenderFemale
	case strings.Contains(s, "male"):
		return genealogy.GenderMale
	case strings.Contains(s, "unknown"):
		return genealogy.GenderUnknown
	default:
		return ""
	}
}

// firstRef maps the first relative summary that yields a reference.
func firstRef(candidates ...gjson.Result) *genealogy.PersonRef {
	for _, raw := range candidates {
		if ref := mapPersonRef(raw); ref != nil {
			return ref
		}
	}
	return nil
}

func mapPersonRef(raw gjson.Result) *genealogy.PersonRef {
	if !raw.IsObject() {
		return nil
	}

	id := firstString(raw.Get("id"), raw.Get("personId"))
	if id == "" {
		id = NormalizeRef(firstString(
			raw.Get("resourceId"),
			raw.Get("resource"),
			raw.Get("href"),
			raw.Get("identifier"),
			raw.Get("summaryId"),
		))
	}
	name := firstString(raw.Get("name"), raw.Get("displayName"), raw.Get("fullName"), raw.Get("text"))

	switch {
	case id == "" && name == "":
		return nil
	case id == "":
		id = name
	case name == "":
		name = id
	}
	return &genealogy.PersonRef{ID: id, Name: name}
}
