package gedcomx

import (
	"github.com/tidwall/gjson"

	"github.com/onnwee/kinmatch/internal/genealogy"
)

// MapPlace maps one GEDCOM-X place description.
//
// The id comes from "id", then "identifiers", then a slug of the first name.
// The display name comes from "display.name", "fullText", then the names list.
// It returns false when neither an id nor a display name can be found.
func MapPlace(raw gjson.Result) (genealogy.Place, bool) {
	if !raw.IsObject() {
		return genealogy.Place{}, false
	}

	id := NormalizeRef(firstString(raw.Get("id")))
	if id == "" {
		id = extractIdentifier(raw.Get("identifiers"))
	}
	if id == "" {
		if first := firstString(raw.Get("names.0.value")); first != "" {
			id = slugify(first)
		}
	}

	displayName := firstString(raw.Get("display.name"), raw.Get("fullText"), raw.Get("names.0.value"))
	if displayName == "" {
		displayName = nameFromNames(raw.Get("names"))
	}

	if id == "" && displayName == "" {
		return genealogy.Place{}, false
	}
	if id == "" {
		id = displayName
	}
	if displayName == "" {
		displayName = id
	}

	place := genealogy.Place{
		ID:          id,
		DisplayName: displayName,
	}
	if t := firstString(raw.Get("type")); t != "" {
		place.Type = lastSegment(t)
	}
	place.JurisdictionPath = jurisdictionPath(raw.Get("jurisdiction"))

	return place, true
}

// jurisdictionPath accepts a single jurisdiction reference or a list of them.
func jurisdictionPath(jurisdiction gjson.Result) []string {
	var refs []gjson.Result
	switch {
	case jurisdiction.IsArray():
		refs = jurisdiction.Array()
	case jurisdiction.IsObject():
		refs = []gjson.Result{jurisdiction}
	default:
		return nil
	}

	var path []string
	for _, ref := range refs {
		if id := NormalizeRef(firstString(ref.Get("resourceId"), ref.Get("resource"))); id != "" {
			path = append(path, id)
		}
	}
	return path
}

// CollectPlaces maps the place descriptions of a GEDCOM-X document, read from
// "places" or "place". Places are returned in document order; for repeated ids
// the first description wins.
func CollectPlaces(doc gjson.Result) []genealogy.Place {
	list := doc.Get("places")
	if !list.IsArray() {
		list = doc.Get("place")
	}
	if !list.IsArray() {
		return nil
	}

	var places []genealogy.Place
	seen := make(map[string]struct{})
	for _, raw := range list.Array() {
		place, ok := MapPlace(raw)
		if !ok {
			continue
		}
		if _, dup := seen[place.ID]; dup {
			continue
		}
		seen[place.ID] = struct{}{}
		places = append(places, place)
	}
	return places
}

// PlaceIndex indexes places by id. Earlier entries win on collision.
func PlaceIndex(places []genealogy.Place) map[string]genealogy.Place {
	index := make(map[string]genealogy.Place, len(places))
	for _, p := range places {
		if _, ok := index[p.ID]; !ok {
			index[p.ID] = p
		}
	}
	return index
}
