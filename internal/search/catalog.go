package search

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/onnwee/kinmatch/internal/gedcomx"
	"github.com/onnwee/kinmatch/internal/genealogy"
	"github.com/onnwee/kinmatch/internal/normalize"
)

//go:embed fixtures/persons.json fixtures/places.json
var fixtures embed.FS

const (
	embeddedPersons = "fixtures/persons.json"
	embeddedPlaces  = "fixtures/places.json"
)

// MaxCatalogPlaceResults caps the places returned by Catalog.SearchPlaces.
const MaxCatalogPlaceResults = 10

// Catalog is an in-memory candidate source and place authority built from
// GEDCOM-X documents. It is read-only after construction and safe for
// concurrent use.
type Catalog struct {
	persons []genealogy.Person
	places  []genealogy.Place
	byID    map[string]genealogy.Place
}

// NewCatalog builds a catalog from already mapped values. Places referenced
// by a person but missing from places are added to the authority.
func NewCatalog(persons []genealogy.Person, places []genealogy.Place) *Catalog {
	c := &Catalog{
		persons: append([]genealogy.Person(nil), persons...),
		places:  make([]genealogy.Place, 0, len(places)),
		byID:    make(map[string]genealogy.Place, len(places)),
	}

	add := func(p genealogy.Place) {
		if _, ok := c.byID[p.ID]; ok {
			return
		}
		c.byID[p.ID] = p
		c.places = append(c.places, p)
	}
	for _, p := range places {
		add(p)
	}
	for _, person := range persons {
		if person.PrimaryPlace != nil {
			add(*person.PrimaryPlace)
		}
	}

	return c
}

// ParseCatalog maps a person search response document and a GEDCOM-X place
// document into a catalog.
func ParseCatalog(personsDoc, placesDoc []byte) (*Catalog, error) {
	persons, err := gedcomx.MapSearchResponse(personsDoc)
	if err != nil {
		return nil, fmt.Errorf("failed to map persons: %w", err)
	}

	if !gjson.ValidBytes(placesDoc) {
		return nil, fmt.Errorf("failed to map places: %w", gedcomx.ErrInvalidDocument)
	}
	places := gedcomx.CollectPlaces(gjson.ParseBytes(placesDoc))

	return NewCatalog(persons, places), nil
}

// DefaultCatalog returns the catalog built from the embedded fixtures.
func DefaultCatalog() (*Catalog, error) {
	return LoadCatalog("", "")
}

// LoadCatalog reads the persons and places documents from disk. An empty path
// selects the corresponding embedded fixture.
func LoadCatalog(personsPath, placesPath string) (*Catalog, error) {
	personsDoc, err := readDocument(personsPath, embeddedPersons)
	if err != nil {
		return nil, err
	}
	placesDoc, err := readDocument(placesPath, embeddedPlaces)
	if err != nil {
		return nil, err
	}
	return ParseCatalog(personsDoc, placesDoc)
}

func readDocument(path, embedded string) ([]byte, error) {
	if path == "" {
		data, err := fixtures.ReadFile(embedded)
		if err != nil {
			return nil, fmt.Errorf("failed to read embedded %s: %w", embedded, err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

// Candidates returns catalog persons whose normalized name contains the
// normalized query name or shares a name token with it. An empty query name
// matches every person. Results keep catalog order.
func (c *Catalog) Candidates(ctx context.Context, params genealogy.SearchParams) ([]genealogy.Person, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	query := normalize.Name(params.Name)
	out := make([]genealogy.Person, 0, len(c.persons))
	for _, p := range c.persons {
		if query == "" || strings.Contains(normalize.Name(p.Name), query) || normalize.NameVariantMatch(query, p.Name) > 0 {
			out = append(out, p)
		}
	}
	return out, nil
}

// SearchPlaces returns places whose display name contains q, case-insensitively,
// at most MaxCatalogPlaceResults of them. A blank query returns no places.
func (c *Catalog) SearchPlaces(ctx context.Context, q string) ([]genealogy.Place, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	q = strings.ToLower(strings.TrimSpace(q))
	out := []genealogy.Place{}
	if q == "" {
		return out, nil
	}
	for _, p := range c.places {
		if strings.Contains(strings.ToLower(p.DisplayName), q) {
			out = append(out, p)
			if len(out) == MaxCatalogPlaceResults {
				break
			}
		}
	}
	return out, nil
}

// PlaceByID resolves an authority id. References such as "#PL-1" or a place
// URL are normalized first.
func (c *Catalog) PlaceByID(ctx context.Context, id string) (genealogy.Place, bool, error) {
	if err := ctx.Err(); err != nil {
		return genealogy.Place{}, false, err
	}
	p, ok := c.byID[gedcomx.NormalizeRef(id)]
	return p, ok, nil
}

// Resolve is PlaceByID without a context, shaped as a ranking.PlaceResolver.
func (c *Catalog) Resolve(id string) (genealogy.Place, bool) {
	p, ok := c.byID[gedcomx.NormalizeRef(id)]
	return p, ok
}

// Len returns the number of persons and places in the catalog.
func (c *Catalog) Len() (persons, places int) {
	return len(c.persons), len(c.places)
}

// ErrEmptyCatalog is reported by HealthCheck when there is nothing to rank.
var ErrEmptyCatalog = errors.New("catalog has no candidates")

// HealthCheck reports the catalog as unready when it holds no persons.
func (c *Catalog) HealthCheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(c.persons) == 0 {
		return ErrEmptyCatalog
	}
	return nil
}
