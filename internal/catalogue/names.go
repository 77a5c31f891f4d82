package catalogue

import (
	"bytes"
	"cmp"
	"fmt"
	"iter"
	"maps"
	"slices"
	"strings"

	"github.com/blevesearch/vellum"

	"github.com/Aman-CERP/railcat/internal/corpus"
	"github.com/Aman-CERP/railcat/internal/normalize"
)

// NameEntry is one display name and the document it belongs to.
type NameEntry struct {
	Name string
	Link corpus.Link
}

type nameIndexBuilder struct {
	buckets *shardedMap[string, []NameEntry]
}

func newNameIndexBuilder() *nameIndexBuilder {
	return &nameIndexBuilder{buckets: newShardedMap[string, []NameEntry]()}
}

func (b *nameIndexBuilder) insert(doc *corpus.Document, link corpus.Link) {
	b.add(doc.Key, link)
	for name := range doc.AllNames() {
		b.add(name, link)
	}
}

func (b *nameIndexBuilder) add(name string, link corpus.Link) {
	term := normalize.Name(name)
	entry := NameEntry{Name: name, Link: link}
	b.buckets.update(term, func(entries []NameEntry) []NameEntry {
		return append(entries, entry)
	})
}

// finalize freezes the terms into an FST mapping each term to its bucket.
// Buckets are ordered by link, then name, so the result does not depend on
// how inserts were scheduled.
func (b *nameIndexBuilder) finalize() (*NameIndex, error) {
	m := b.buckets.drain()
	terms := slices.Sorted(maps.Keys(m))

	idx := &NameIndex{
		terms:   terms,
		buckets: make([][]NameEntry, len(terms)),
	}
	for i, term := range terms {
		bucket := m[term]
		slices.SortStableFunc(bucket, func(a, b NameEntry) int {
			return cmp.Or(a.Link.Compare(b.Link), strings.Compare(a.Name, b.Name))
		})
		idx.buckets[i] = bucket
	}
	if len(terms) == 0 {
		return idx, nil
	}

	var buf bytes.Buffer
	fb, err := vellum.New(&buf, nil)
	if err != nil {
		return nil, fmt.Errorf("create name fst: %w", err)
	}
	for i, term := range terms {
		if err := fb.Insert([]byte(term), uint64(i)); err != nil {
			return nil, fmt.Errorf("insert term %q: %w", term, err)
		}
	}
	if err := fb.Close(); err != nil {
		return nil, fmt.Errorf("close name fst: %w", err)
	}

	fst, err := vellum.Load(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("load name fst: %w", err)
	}
	idx.fst = fst
	return idx, nil
}

// NameIndex is the frozen prefix index over normalized names.
type NameIndex struct {
	fst     *vellum.FST
	terms   []string
	buckets [][]NameEntry
}

// Len returns the number of distinct normalized terms.
func (idx *NameIndex) Len() int {
	return len(idx.terms)
}

// Search returns at most count entries whose normalized name starts with
// the normalized prefix. Entries of one term are never deduplicated, so
// "Müller" and "Muller" both come back for "mul".
func (idx *NameIndex) Search(prefix string, count int) []NameEntry {
	if count <= 0 {
		return nil
	}
	var out []NameEntry
	for e := range idx.Prefix(prefix) {
		out = append(out, e)
		if len(out) == count {
			break
		}
	}
	return out
}

// Prefix lazily yields every entry under a term starting with the
// normalized prefix, in term byte order. An empty prefix yields all.
func (idx *NameIndex) Prefix(prefix string) iter.Seq[NameEntry] {
	return func(yield func(NameEntry) bool) {
		for _, bucket := range idx.PrefixTerms(prefix) {
			for _, e := range bucket {
				if !yield(e) {
					return
				}
			}
		}
	}
}

// PrefixTerms yields each term starting with the normalized prefix together
// with its entries.
func (idx *NameIndex) PrefixTerms(prefix string) iter.Seq2[string, []NameEntry] {
	return func(yield func(string, []NameEntry) bool) {
		if idx.fst == nil {
			return
		}
		var start []byte
		if term := normalize.Name(prefix); term != "" {
			start = []byte(term)
		}
		it, err := idx.fst.Iterator(start, prefixEnd(start))
		for err == nil {
			term, ord := it.Current()
			if !yield(string(term), idx.buckets[ord]) {
				return
			}
			err = it.Next()
		}
	}
}

// Buckets yields every normalized term with its entries in term order.
func (idx *NameIndex) Buckets() iter.Seq2[string, []NameEntry] {
	return func(yield func(string, []NameEntry) bool) {
		for i, term := range idx.terms {
			if !yield(term, idx.buckets[i]) {
				return
			}
		}
	}
}

// prefixEnd returns the smallest key greater than every key starting with
// prefix, or nil when there is none.
func prefixEnd(prefix []byte) []byte {
	end := bytes.Clone(prefix)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] < 0xff {
			end[i]++
			return end[:i+1]
		}
	}
	return nil
}
