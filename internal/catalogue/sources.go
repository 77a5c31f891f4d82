package catalogue

import (
	"slices"
	"sort"

	"github.com/Aman-CERP/railcat/internal/corpus"
)

// Roles are the parts an organization played in creating a source.
type Roles struct {
	Author       bool `json:"author,omitempty"`
	Editor       bool `json:"editor,omitempty"`
	Organization bool `json:"organization,omitempty"`
	Publisher    bool `json:"publisher,omitempty"`
}

// CreatorRef is one source an organization helped create.
type CreatorRef struct {
	Source corpus.Link
	Date   corpus.EventDate
	Roles  Roles
}

// DatedSource is a source with its date, as kept in date-ordered buckets.
type DatedSource struct {
	Source corpus.Link
	Date   corpus.EventDate
}

// insertByDate inserts v after every element not later than it, so equal
// dates keep their insertion order.
func insertByDate[T any](s []T, v T, date func(T) corpus.EventDate) []T {
	d := date(v)
	i := sort.Search(len(s), func(i int) bool {
		return corpus.SortCmp(date(s[i]), d) > 0
	})
	return slices.Insert(s, i, v)
}

func creatorDate(c CreatorRef) corpus.EventDate { return c.Date }
func datedSourceDate(s DatedSource) corpus.EventDate { return s.Date }

type sourceRefsBuilder struct {
	creators        *shardedMap[corpus.Link, []CreatorRef]
	collectionItems *shardedMap[corpus.Link, []DatedSource]
	also            *shardedMap[corpus.Link, map[corpus.Link]struct{}]
	regards         *shardedMap[corpus.Link, []DatedSource]
}

func newSourceRefsBuilder() *sourceRefsBuilder {
	return &sourceRefsBuilder{
		creators:        newShardedMap[corpus.Link, []CreatorRef](),
		collectionItems: newShardedMap[corpus.Link, []DatedSource](),
		also:            newShardedMap[corpus.Link, map[corpus.Link]struct{}](),
		regards:         newShardedMap[corpus.Link, []DatedSource](),
	}
}

func (b *sourceRefsBuilder) insert(doc *corpus.Document, link corpus.Link) {
	src, ok := doc.AsSource()
	if !ok {
		return
	}

	// One record per organization, whatever combination of roles it held.
	var order []corpus.Link
	roles := make(map[corpus.Link]*Roles)
	role := func(org corpus.Link) *Roles {
		r, ok := roles[org]
		if !ok {
			r = &Roles{}
			roles[org] = r
			order = append(order, org)
		}
		return r
	}
	for _, org := range src.Author {
		role(org).Author = true
	}
	for _, org := range src.Editor {
		role(org).Editor = true
	}
	for _, org := range src.Organization {
		role(org).Organization = true
	}
	for _, org := range src.Publisher {
		role(org).Publisher = true
	}
	for _, org := range order {
		ref := CreatorRef{Source: link, Date: src.Date, Roles: *roles[org]}
		b.creators.update(org, func(refs []CreatorRef) []CreatorRef {
			return insertByDate(refs, ref, creatorDate)
		})
	}

	item := DatedSource{Source: link, Date: src.Date}
	if src.Collection.Valid() {
		b.collectionItems.update(src.Collection, func(items []DatedSource) []DatedSource {
			return insertByDate(items, item, datedSourceDate)
		})
	}

	for _, other := range src.Also {
		if other == link {
			b.also.update(link, addToSet(link))
			continue
		}
		b.also.updatePair(link, other, addToSet(other), addToSet(link))
	}

	for _, target := range src.Regards {
		b.regards.update(target, func(items []DatedSource) []DatedSource {
			return insertByDate(items, item, datedSourceDate)
		})
	}
}

// finalize only freezes: every bucket is already in date order.
func (b *sourceRefsBuilder) finalize() *SourceRefs {
	also := b.also.drain()
	sr := &SourceRefs{
		creators:        b.creators.drain(),
		collectionItems: b.collectionItems.drain(),
		also:            make(map[corpus.Link][]corpus.Link, len(also)),
		regards:         b.regards.drain(),
	}
	for l, set := range also {
		sr.also[l] = sortedSet(set)
	}
	return sr
}

// SourceRefs holds the bibliographic cross-references between sources,
// their creators, collections and subjects.
type SourceRefs struct {
	creators        map[corpus.Link][]CreatorRef
	collectionItems map[corpus.Link][]DatedSource
	also            map[corpus.Link][]corpus.Link
	regards         map[corpus.Link][]DatedSource
}

// Creators returns the sources an organization created, oldest first.
func (sr *SourceRefs) Creators(org corpus.Link) []CreatorRef {
	return sr.creators[org]
}

// CollectionItems returns the sources in a collection, oldest first.
func (sr *SourceRefs) CollectionItems(collection corpus.Link) []DatedSource {
	return sr.collectionItems[collection]
}

// Also returns the sources published together with source.
func (sr *SourceRefs) Also(source corpus.Link) []corpus.Link {
	return sr.also[source]
}

// Regards returns the sources about doc, oldest first.
func (sr *SourceRefs) Regards(doc corpus.Link) []DatedSource {
	return sr.regards[doc]
}

// CreatorOrgs returns every organization with at least one source.
func (sr *SourceRefs) CreatorOrgs() []corpus.Link {
	return sortedKeys(sr.creators)
}

// Collections returns every collection with at least one item.
func (sr *SourceRefs) Collections() []corpus.Link {
	return sortedKeys(sr.collectionItems)
}

// AlsoSources returns every source with an also-relation.
func (sr *SourceRefs) AlsoSources() []corpus.Link {
	return sortedKeys(sr.also)
}

// RegardedDocuments returns every document some source is about.
func (sr *SourceRefs) RegardedDocuments() []corpus.Link {
	return sortedKeys(sr.regards)
}

func sortedKeys[V any](m map[corpus.Link]V) []corpus.Link {
	out := make([]corpus.Link, 0, len(m))
	for l := range m {
		out = append(out, l)
	}
	slices.SortFunc(out, corpus.Link.Compare)
	return out
}
