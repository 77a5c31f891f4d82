package catalogue

import (
	"sync/atomic"

	"github.com/Aman-CERP/railcat/internal/corpus"
)

// DocumentNumbers counts documents per kind. Total is always the sum of
// the kind counters.
type DocumentNumbers struct {
	Total         int `json:"total"`
	Lines         int `json:"lines"`
	Organizations int `json:"organizations"`
	Paths         int `json:"paths"`
	Points        int `json:"points"`
	Sources       int `json:"sources"`
	Structures    int `json:"structures"`
}

// ByKind returns the counter for kind.
func (n DocumentNumbers) ByKind(kind corpus.Kind) int {
	switch kind {
	case corpus.KindLine:
		return n.Lines
	case corpus.KindOrganization:
		return n.Organizations
	case corpus.KindPath:
		return n.Paths
	case corpus.KindPoint:
		return n.Points
	case corpus.KindSource:
		return n.Sources
	case corpus.KindStructure:
		return n.Structures
	default:
		return 0
	}
}

type numbersBuilder struct {
	total  atomic.Int64
	byKind [corpus.KindStructure + 1]atomic.Int64
}

func (b *numbersBuilder) insert(doc *corpus.Document) {
	if !doc.Kind.Valid() {
		return
	}
	b.byKind[doc.Kind].Add(1)
	b.total.Add(1)
}

func (b *numbersBuilder) finalize() DocumentNumbers {
	count := func(k corpus.Kind) int { return int(b.byKind[k].Load()) }
	return DocumentNumbers{
		Total:         int(b.total.Load()),
		Lines:         count(corpus.KindLine),
		Organizations: count(corpus.KindOrganization),
		Paths:         count(corpus.KindPath),
		Points:        count(corpus.KindPoint),
		Sources:       count(corpus.KindSource),
		Structures:    count(corpus.KindStructure),
	}
}
