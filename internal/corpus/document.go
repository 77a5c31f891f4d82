// Package corpus models the railway document corpus the catalogue is built
// from: typed links, documents and their events, the read-only Store the
// catalogue consumes, and a YAML loader producing an in-memory Library.
package corpus

import (
	"iter"
	"strings"

	"github.com/Aman-CERP/railcat/internal/lang"
)

// Subtype is the subtype of an organization document.
type Subtype string

// SubtypeCountry marks organizations that represent a country.
const SubtypeCountry Subtype = "country"

// Concession records who a concession was granted to.
type Concession struct {
	To []Link
}

// Event is a dated fact in a document's history.
type Event struct {
	Date       EventDate
	Name       string
	Owner      []Link
	Operator   []Link
	Concession *Concession
	Connection []Link
}

// LineInfo holds the line-specific part of a document.
type LineInfo struct {
	// Points are the points along the line, in order.
	Points []Link
	// Jurisdiction is an explicit country code. When empty the code is
	// taken from the key.
	Jurisdiction string
}

// OrganizationInfo holds the organization-specific part of a document.
type OrganizationInfo struct {
	Subtype    Subtype
	ShortNames map[lang.Lang]string
}

// SourceInfo holds the source-specific part of a document.
type SourceInfo struct {
	Date         EventDate
	Author       []Link
	Editor       []Link
	Organization []Link
	Publisher    []Link
	// Collection is the collection the source is part of. The zero Link
	// means none.
	Collection Link
	Also       []Link
	Regards    []Link
}

// Document is the resolved content behind a Link. Kind decides which of
// the kind-specific parts is meaningful.
type Document struct {
	Key    string
	Kind   Kind
	Names  []string
	Events []Event

	Line         *LineInfo
	Organization *OrganizationInfo
	Source       *SourceInfo
}

// AsLine returns the line part if the document is a line.
func (d *Document) AsLine() (*LineInfo, bool) {
	if d == nil || d.Kind != KindLine || d.Line == nil {
		return nil, false
	}
	return d.Line, true
}

// AsOrganization returns the organization part if the document is one.
func (d *Document) AsOrganization() (*OrganizationInfo, bool) {
	if d == nil || d.Kind != KindOrganization || d.Organization == nil {
		return nil, false
	}
	return d.Organization, true
}

// AsSource returns the source part if the document is a source.
func (d *Document) AsSource() (*SourceInfo, bool) {
	if d == nil || d.Kind != KindSource || d.Source == nil {
		return nil, false
	}
	return d.Source, true
}

// AllNames yields every distinct display name the document is known by:
// its names, the names its events introduce and, for organizations, the
// localized short names. The key is not included.
func (d *Document) AllNames() iter.Seq[string] {
	return func(yield func(string) bool) {
		if d == nil {
			return
		}
		seen := make(map[string]struct{})
		emit := func(name string) bool {
			if name == "" {
				return true
			}
			if _, ok := seen[name]; ok {
				return true
			}
			seen[name] = struct{}{}
			return yield(name)
		}

		for _, name := range d.Names {
			if !emit(name) {
				return
			}
		}
		for _, ev := range d.Events {
			if !emit(ev.Name) {
				return
			}
		}
		if org, ok := d.AsOrganization(); ok {
			for _, l := range lang.All() {
				if !emit(org.ShortNames[l]) {
					return
				}
			}
		}
	}
}

// Country returns the upper-case country code of a line document. It comes
// from the line's jurisdiction or else from the key, where "line.de.001"
// belongs to DE.
func (d *Document) Country() (string, bool) {
	line, ok := d.AsLine()
	if !ok {
		return "", false
	}
	if line.Jurisdiction != "" {
		return countryCode(line.Jurisdiction)
	}

	parts := strings.SplitN(d.Key, ".", 3)
	if len(parts) < 3 || parts[0] != "line" {
		return "", false
	}
	return countryCode(parts[1])
}

func countryCode(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if len(s) != 2 {
		return "", false
	}
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return "", false
		}
	}
	return strings.ToUpper(s), true
}

// ShortName returns the organization's short name in l, falling back to
// the default language, the first name and finally the key.
func (d *Document) ShortName(l lang.Lang) string {
	if d == nil {
		return ""
	}
	if org, ok := d.AsOrganization(); ok {
		if name := org.ShortNames[l]; name != "" {
			return name
		}
		if name := org.ShortNames[lang.Default]; name != "" {
			return name
		}
	}
	if len(d.Names) > 0 && d.Names[0] != "" {
		return d.Names[0]
	}
	return d.Key
}

// DisplayName returns the name to show for the document in listings.
func (d *Document) DisplayName(l lang.Lang) string {
	if d == nil {
		return ""
	}
	if d.Kind == KindOrganization {
		return d.ShortName(l)
	}
	for i := len(d.Events) - 1; i >= 0; i-- {
		if d.Events[i].Name != "" {
			return d.Events[i].Name
		}
	}
	if len(d.Names) > 0 && d.Names[0] != "" {
		return d.Names[0]
	}
	return d.Key
}

// CountryOrgKey is the conventional key of the organization representing
// a country code: "org." followed by the lowercased code.
func CountryOrgKey(code string) string {
	return "org." + strings.ToLower(code)
}
