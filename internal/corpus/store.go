package corpus

import (
	"fmt"
	"iter"
	"math"
)

// Store is the read-only document collection the catalogue is built from.
type Store interface {
	// Links enumerates every document link exactly once. The sequence can
	// be enumerated again for each build.
	Links() iter.Seq[Link]

	// Resolve returns the document behind a link, or nil if the link is
	// dangling.
	Resolve(link Link) *Document

	// Get looks up a document link by key.
	Get(key string) (Link, bool)
}

// Library is an immutable in-memory Store.
type Library struct {
	docs  []*Document
	kinds []Kind
	keys  map[string]Link
}

// Verify interface implementation
var _ Store = (*Library)(nil)

// Links implements Store.
func (lib *Library) Links() iter.Seq[Link] {
	return func(yield func(Link) bool) {
		for i, doc := range lib.docs {
			if doc == nil {
				continue
			}
			if !yield(Link{kind: lib.kinds[i], n: uint32(i)}) {
				return
			}
		}
	}
}

// Resolve implements Store.
func (lib *Library) Resolve(link Link) *Document {
	if !link.Valid() || int64(link.n) >= int64(len(lib.docs)) {
		return nil
	}
	if lib.kinds[link.n] != link.kind {
		return nil
	}
	return lib.docs[link.n]
}

// Get implements Store. Keys whose document was never set are not found.
func (lib *Library) Get(key string) (Link, bool) {
	link, ok := lib.keys[key]
	if !ok || lib.docs[link.n] == nil {
		return Link{}, false
	}
	return link, true
}

// Len returns the number of documents in the library.
func (lib *Library) Len() int {
	n := 0
	for _, doc := range lib.docs {
		if doc != nil {
			n++
		}
	}
	return n
}

// LibraryBuilder assembles a Library. Links are reserved before documents
// exist so that documents can reference each other in any order.
// A LibraryBuilder is not safe for concurrent use.
type LibraryBuilder struct {
	lib      *Library
	finished bool
}

// NewLibraryBuilder creates an empty builder.
func NewLibraryBuilder() *LibraryBuilder {
	return &LibraryBuilder{
		lib: &Library{keys: make(map[string]Link)},
	}
}

// Reserve returns the link for key, issuing a new one if the key is new.
// It fails if the key was already reserved with a different kind.
func (b *LibraryBuilder) Reserve(key string, kind Kind) (Link, error) {
	if !kind.Valid() {
		return Link{}, fmt.Errorf("reserve %q: invalid kind", key)
	}
	if link, ok := b.lib.keys[key]; ok {
		if link.kind != kind {
			return Link{}, fmt.Errorf("reserve %q: already reserved as %s", key, link.kind)
		}
		return link, nil
	}
	if len(b.lib.docs) >= math.MaxUint32 {
		return Link{}, fmt.Errorf("reserve %q: library full", key)
	}

	link := Link{kind: kind, n: uint32(len(b.lib.docs))}
	b.lib.docs = append(b.lib.docs, nil)
	b.lib.kinds = append(b.lib.kinds, kind)
	b.lib.keys[key] = link
	return link, nil
}

// Lookup returns a previously reserved link.
func (b *LibraryBuilder) Lookup(key string) (Link, bool) {
	link, ok := b.lib.keys[key]
	return link, ok
}

// Set stores the document for a reserved link. The document's key and
// kind must match the reservation.
func (b *LibraryBuilder) Set(link Link, doc *Document) error {
	if b.finished {
		return fmt.Errorf("set %s: library already finished", link)
	}
	if doc == nil {
		return fmt.Errorf("set %s: nil document", link)
	}
	if !link.Valid() || int64(link.n) >= int64(len(b.lib.docs)) || b.lib.kinds[link.n] != link.kind {
		return fmt.Errorf("set %s: link was not reserved here", link)
	}
	if doc.Kind != link.kind {
		return fmt.Errorf("set %s: document %q has kind %s", link, doc.Key, doc.Kind)
	}
	if reserved := b.lib.keys[doc.Key]; reserved != link {
		return fmt.Errorf("set %s: document key %q belongs to %s", link, doc.Key, reserved)
	}
	b.lib.docs[link.n] = doc
	return nil
}

// Add reserves a link for doc and stores it in one step.
func (b *LibraryBuilder) Add(doc *Document) (Link, error) {
	if doc == nil {
		return Link{}, fmt.Errorf("add: nil document")
	}
	link, err := b.Reserve(doc.Key, doc.Kind)
	if err != nil {
		return Link{}, err
	}
	return link, b.Set(link, doc)
}

// Finish freezes the library. Links that were reserved but never set stay
// dangling: they resolve to nil and are not enumerated.
func (b *LibraryBuilder) Finish() *Library {
	b.finished = true
	return b.lib
}
