package gedcomx

import (
	"errors"

	"github.com/tidwall/gjson"

	"github.com/onnwee/kinmatch/internal/genealogy"
)

// ErrInvalidDocument is returned when a response body is not valid JSON.
var ErrInvalidDocument = errors.New("invalid gedcomx document")

// MaxPlaceResults caps the places returned from one place search response.
const MaxPlaceResults = 25

// entryDocument returns the GEDCOM-X document embedded in a search entry.
func entryDocument(entry gjson.Result) (gjson.Result, bool) {
	content := entry.Get("content")
	for _, key := range []string{"gedcomx", "gedcom"} {
		if doc := content.Get(key); doc.IsObject() {
			return doc, true
		}
	}
	if content.IsObject() {
		return content, true
	}
	return gjson.Result{}, false
}

// MapSearchResponse maps a person search response (an "entries" feed) to
// persons in upstream order. Each entry contributes its principal person, or
// its first person when none is marked principal. Place descriptions are
// shared across entries so a later entry can reference an earlier place.
func MapSearchResponse(body []byte) ([]genealogy.Person, error) {
	if !gjson.ValidBytes(body) {
		return nil, ErrInvalidDocument
	}
	root := gjson.ParseBytes(body)

	persons := []genealogy.Person{}
	placeCache := make(map[string]genealogy.Place)

	for _, entry := range root.Get("entries").Array() {
		doc, ok := entryDocument(entry)
		if !ok {
			continue
		}

		for _, p := range CollectPlaces(doc) {
			if _, exists := placeCache[p.ID]; !exists {
				placeCache[p.ID] = p
			}
		}

		raw, ok := principalPerson(doc.Get("persons"))
		if !ok {
			continue
		}
		person, ok := MapPerson(raw, placeCache)
		if !ok {
			continue
		}
		persons = append(persons, person)
	}

	return persons, nil
}

func principalPerson(persons gjson.Result) (gjson.Result, bool) {
	all := persons.Array()
	if len(all) == 0 {
		return gjson.Result{}, false
	}
	for _, p := range all {
		if p.Get("principal").Bool() {
			return p, true
		}
	}
	return all[0], true
}

// MapPlaceSearchResponse maps a place search response to de-duplicated places
// in upstream order, at most MaxPlaceResults of them.
func MapPlaceSearchResponse(body []byte) ([]genealogy.Place, error) {
	if !gjson.ValidBytes(body) {
		return nil, ErrInvalidDocument
	}
	root := gjson.ParseBytes(body)

	places := []genealogy.Place{}
	seen := make(map[string]struct{})

	for _, entry := range root.Get("entries").Array() {
		doc, ok := entryDocument(entry)
		if !ok {
			continue
		}
		for _, p := range CollectPlaces(doc) {
			if _, dup := seen[p.ID]; dup {
				continue
			}
			seen[p.ID] = struct{}{}
			places = append(places, p)
		}
	}

	if len(places) > MaxPlaceResults {
		places = places[:MaxPlaceResults]
	}
	return places, nil
}
