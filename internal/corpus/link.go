package corpus

import (
	"cmp"
	"fmt"
	"strings"
)

// Kind is the kind of a corpus document.
type Kind uint8

// Document kinds. The zero Kind is invalid.
const (
	KindLine Kind = iota + 1
	KindOrganization
	KindPath
	KindPoint
	KindSource
	KindStructure
)

var kindNames = map[Kind]string{
	KindLine:         "line",
	KindOrganization: "organization",
	KindPath:         "path",
	KindPoint:        "point",
	KindSource:       "source",
	KindStructure:    "structure",
}

// Kinds returns all valid kinds in declaration order.
func Kinds() []Kind {
	return []Kind{KindLine, KindOrganization, KindPath, KindPoint, KindSource, KindStructure}
}

// String returns the lowercase kind name.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Valid reports whether k is one of the declared kinds.
func (k Kind) Valid() bool {
	_, ok := kindNames[k]
	return ok
}

// ParseKind parses a kind name. "org" is accepted for organizations.
func ParseKind(s string) (Kind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "org" {
		return KindOrganization, nil
	}
	for k, name := range kindNames {
		if name == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown document kind %q", s)
}

// Link is an opaque handle to one document of a Store. Links are small,
// comparable values and can be used as map keys. They never carry document
// content; use Store.Resolve for that.
type Link struct {
	kind Kind
	n    uint32
}

// Kind returns the kind of the linked document.
func (l Link) Kind() Kind {
	return l.kind
}

// Valid reports whether l was issued by a store. The zero Link is invalid.
func (l Link) Valid() bool {
	return l.kind.Valid()
}

// String implements fmt.Stringer.
func (l Link) String() string {
	return fmt.Sprintf("%s#%d", l.kind, l.n)
}

// Compare orders links by kind, then issue order. The order carries no
// meaning beyond being total and stable for one store.
func (l Link) Compare(other Link) int {
	if c := cmp.Compare(l.kind, other.kind); c != 0 {
		return c
	}
	return cmp.Compare(l.n, other.n)
}
