// Package sortpolicy defines the comparison and group-key strategies
// used to order directory entries.
package sortpolicy

import (
	"fmt"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"

	"github.com/Ning0612/Cloudbrowse/internal/domain"
)

// Direction is the ordering mode of a policy
type Direction int

const (
	Ascending Direction = iota
	Descending
)

// String returns the string representation of the direction
func (d Direction) String() string {
	if d == Descending {
		return "desc"
	}
	return "asc"
}

// Field identifies the attribute a policy orders by
type Field string

const (
	FieldName Field = "name"
	FieldDate Field = "date"
	FieldSize Field = "size"
)

// Policy maps two entries to an order and an entry to a group key
type Policy interface {
	// Compare returns a negative number when a sorts before b,
	// a positive number when after, and zero for ties
	Compare(a, b *domain.Entry) int

	// Key returns the group key of the entry
	Key(e *domain.Entry) string

	// Name returns the policy identifier, e.g. "size-desc"
	Name() string

	// Field returns the attribute ordered by
	Field() Field

	// Direction returns the ordering mode
	Direction() Direction
}

// policy pairs an ascending comparator with a direction.
// Descending negates the ascending result.
type policy struct {
	field Field
	dir   Direction
	cmp   func(a, b *domain.Entry) int
	key   func(e *domain.Entry) string
}

func (p *policy) Compare(a, b *domain.Entry) int {
	c := p.cmp(a, b)
	if p.dir == Descending {
		return -c
	}
	return c
}

func (p *policy) Key(e *domain.Entry) string {
	return p.key(e)
}

func (p *policy) Name() string {
	return string(p.field) + "-" + p.dir.String()
}

func (p *policy) Field() Field {
	return p.field
}

func (p *policy) Direction() Direction {
	return p.dir
}

// Name orders entries by case-folded name. The group key is the
// upper-cased first character of the folded name, so names that sort
// together group together ("ßb" sits under "S").
func Name(dir Direction) Policy {
	return &policy{
		field: FieldName,
		dir:   dir,
		cmp:   compareName,
		key:   nameKey,
	}
}

// Date orders entries by modification time. The group key is the short
// date in the given locale (BCP 47 tag, e.g. "en-US").
func Date(dir Direction, locale string) Policy {
	layout := ShortDateLayout(locale)
	return &policy{
		field: FieldDate,
		dir:   dir,
		cmp:   compareDate,
		key: func(e *domain.Entry) string {
			return e.ModTime.Format(layout)
		},
	}
}

// Size orders entries by byte count. The group key is the magnitude unit
// of the size (B, KB, MB, ... YB).
func Size(dir Direction) Policy {
	return &policy{
		field: FieldSize,
		dir:   dir,
		cmp:   compareSize,
		key: func(e *domain.Entry) string {
			return SizeUnit(float64(e.Size))
		},
	}
}

// Lookup resolves a policy identifier such as "name-asc" or "size-desc".
// A bare field name means ascending.
func Lookup(name, locale string) (Policy, error) {
	field, dirName, _ := strings.Cut(strings.ToLower(strings.TrimSpace(name)), "-")

	dir := Ascending
	switch dirName {
	case "", "asc", "ascending":
	case "desc", "descending":
		dir = Descending
	default:
		return nil, fmt.Errorf("unknown sort direction %q in %q", dirName, name)
	}

	switch Field(field) {
	case FieldName:
		return Name(dir), nil
	case FieldDate:
		return Date(dir, locale), nil
	case FieldSize:
		return Size(dir), nil
	}
	return nil, fmt.Errorf("unknown sort field %q in %q", field, name)
}

func compareName(a, b *domain.Entry) int {
	return strings.Compare(foldName(a.Name), foldName(b.Name))
}

// foldName returns the Unicode case folding of name. A Caser carries
// state and is not safe for concurrent use, so each call builds its own.
func foldName(name string) string {
	return cases.Fold().String(name)
}

func compareDate(a, b *domain.Entry) int {
	return a.ModTime.Compare(b.ModTime)
}

func compareSize(a, b *domain.Entry) int {
	switch {
	case a.Size < b.Size:
		return -1
	case a.Size > b.Size:
		return 1
	}
	return 0
}

func nameKey(e *domain.Entry) string {
	folded := foldName(e.Name)
	r, size := utf8.DecodeRuneInString(folded)
	switch {
	case size == 0:
		return ""
	case r == utf8.RuneError && size == 1:
		return folded[:1]
	}
	// Only upper-case when it round-trips; "ı" and "i" must not share "I"
	if u := unicode.ToUpper(r); unicode.ToLower(u) == r {
		return string(u)
	}
	return string(r)
}

type foldedEntry struct {
	entry *domain.Entry
	name  string
}

// SortStable sorts entries in place by p, keeping the input order of ties.
// Name policies fold every name once up front instead of twice per
// comparison.
func SortStable(entries []*domain.Entry, p Policy) {
	np, ok := p.(*policy)
	if !ok || np.field != FieldName {
		slices.SortStableFunc(entries, p.Compare)
		return
	}

	folded := make([]foldedEntry, len(entries))
	for i, e := range entries {
		folded[i] = foldedEntry{entry: e, name: foldName(e.Name)}
	}
	slices.SortStableFunc(folded, func(a, b foldedEntry) int {
		c := strings.Compare(a.name, b.name)
		if np.dir == Descending {
			return -c
		}
		return c
	})
	for i := range folded {
		entries[i] = folded[i].entry
	}
}
