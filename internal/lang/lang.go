// Package lang defines the languages the catalogue is localized for.
package lang

import (
	"fmt"
	"strings"
)

// Lang is a supported display language.
type Lang int

const (
	// En is English, the default language.
	En Lang = iota
	// De is German.
	De
)

// Default is the language used when nothing else is requested.
const Default = En

var all = []Lang{En, De}

// All returns every supported language, default first.
func All() []Lang {
	out := make([]Lang, len(all))
	copy(out, all)
	return out
}

// FromCode maps a language code to a Lang, falling back to the default.
func FromCode(code string) Lang {
	l, err := Parse(code)
	if err != nil {
		return Default
	}
	return l
}

// Parse maps a language code to a Lang and rejects unknown codes.
func Parse(code string) (Lang, error) {
	switch strings.ToLower(strings.TrimSpace(code)) {
	case "en":
		return En, nil
	case "de":
		return De, nil
	default:
		return Default, fmt.Errorf("unsupported language %q (use: en, de)", code)
	}
}

// Code returns the two-letter language code.
func (l Lang) Code() string {
	switch l {
	case De:
		return "de"
	default:
		return "en"
	}
}

// String implements fmt.Stringer.
func (l Lang) String() string {
	return l.Code()
}
