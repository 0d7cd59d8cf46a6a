package genealogy

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestLifespan(t *testing.T) {
	tests := []struct {
		name  string
		birth *int
		death *int
		want  string
	}{
		{name: "both years", birth: IntPtr(1840), death: IntPtr(1902), want: "1840–1902"},
		{name: "birth only", birth: IntPtr(1840), want: "1840–…"},
		{name: "death only", death: IntPtr(1902), want: "…–1902"},
		{name: "neither", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Lifespan(tt.birth, tt.death); got != tt.want {
				t.Errorf("Lifespan() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPerson_PlaceText(t *testing.T) {
	p := Person{PrimaryPlaceText: "Lisboa"}
	if got := p.PlaceText(); got != "Lisboa" {
		t.Errorf("expected raw text fallback, got %q", got)
	}

	p.PrimaryPlace = &Place{ID: "P1", DisplayName: "Lisboa, Portugal"}
	if got := p.PlaceText(); got != "Lisboa, Portugal" {
		t.Errorf("expected structured display name, got %q", got)
	}
}

func TestPerson_JSONShape(t *testing.T) {
	p := Person{
		ID:        "KWQ7-123",
		Name:      "Maria Silva",
		BirthYear: IntPtr(1904),
		FSURL:     "https://example.org/tree/person/details/KWQ7-123",
	}

	data, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	body := string(data)

	for _, key := range []string{`"birthYear":1904`, `"fsUrl":`} {
		if !strings.Contains(body, key) {
			t.Errorf("expected %s in %s", key, body)
		}
	}
	for _, key := range []string{"deathYear", "primaryPlace", "father"} {
		if strings.Contains(body, key) {
			t.Errorf("expected %s to be omitted from %s", key, body)
		}
	}
}
