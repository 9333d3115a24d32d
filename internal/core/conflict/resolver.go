// Package conflict decides what an upload does when its name is already
// taken in the target directory.
package conflict

import (
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/Ning0612/Cloudbrowse/internal/domain"
)

// Strategy selects how a name collision is resolved
type Strategy string

const (
	// StrategyFail refuses the upload
	StrategyFail Strategy = "fail"
	// StrategyOverwrite replaces an existing file
	StrategyOverwrite Strategy = "overwrite"
	// StrategySkip leaves the existing entry and skips the upload
	StrategySkip Strategy = "skip"
	// StrategyKeepBoth uploads under the first free "name (n).ext"
	StrategyKeepBoth Strategy = "keep-both"
)

// maxSuffix bounds the keep-both search
const maxSuffix = 1000

// ErrConflict indicates the name is taken and the strategy refuses it
var ErrConflict = errors.New("name already exists")

// ParseStrategy parses a strategy name
func ParseStrategy(s string) (Strategy, error) {
	switch st := Strategy(strings.ToLower(strings.TrimSpace(s))); st {
	case StrategyFail, StrategyOverwrite, StrategySkip, StrategyKeepBoth:
		return st, nil
	case "":
		return StrategyFail, nil
	}
	return "", fmt.Errorf("unknown conflict strategy %q (want fail, overwrite, skip or keep-both)", s)
}

// Action is the outcome of a resolution
type Action int

const (
	ActionUpload Action = iota
	ActionSkip
)

// String returns the string representation of the action
func (a Action) String() string {
	if a == ActionSkip {
		return "skip"
	}
	return "upload"
}

// Decision tells the caller what to do with an upload
type Decision struct {
	Action Action
	// Name is the name to upload under (may differ from the requested one)
	Name   string
	Reason string
}

// Lookup finds an entry by name in the target directory, or returns nil
type Lookup func(name string) *domain.Entry

// Resolve applies strategy to an upload named name. An error wrapping
// ErrConflict means the upload must not proceed.
func Resolve(strategy Strategy, name string, lookup Lookup) (Decision, error) {
	existing := lookup(name)
	if existing == nil {
		return Decision{Action: ActionUpload, Name: name, Reason: "no conflict"}, nil
	}

	switch strategy {
	case StrategyOverwrite:
		if existing.IsDir() {
			return Decision{}, fmt.Errorf("%w: %s is a directory", ErrConflict, name)
		}
		return Decision{Action: ActionUpload, Name: name, Reason: "overwriting existing file"}, nil

	case StrategySkip:
		return Decision{Action: ActionSkip, Name: name, Reason: "keeping existing entry"}, nil

	case StrategyKeepBoth:
		ext := path.Ext(name)
		stem := strings.TrimSuffix(name, ext)
		for i := 1; i <= maxSuffix; i++ {
			candidate := fmt.Sprintf("%s (%d)%s", stem, i, ext)
			if lookup(candidate) == nil {
				return Decision{Action: ActionUpload, Name: candidate, Reason: "renamed to keep both"}, nil
			}
		}
		return Decision{}, fmt.Errorf("%w: no free name for %s after %d attempts", ErrConflict, name, maxSuffix)

	default:
		return Decision{}, fmt.Errorf("%w: %s", ErrConflict, name)
	}
}
