package accounts

import (
	"fmt"
	"strings"
)

// Reconcilable is a sub-account that can be matched by id and compared
// field by field with a previous version of itself.
type Reconcilable[T any] interface {
	GetID() string
	// Diff returns the names of the fields that differ from other
	Diff(other T) []string
}

// Reconciliation is the outcome of ReconcileSubAccounts
type Reconciliation[T any] struct {
	SubAccounts []T
	// Changes describes what differs from the previous sync. Empty when
	// SubAccounts is the previous slice itself.
	Changes []string
}

// Changed reports whether anything differs from the previous sync
func (r Reconciliation[T]) Changed() bool {
	return len(r.Changes) > 0
}

// ReconcileSubAccounts combines freshly derived sub-accounts with the ones
// of the previous sync. A derived sub-account equal in every field to its
// previous version is replaced by that previous value, and when nothing
// changed at all the previous slice is returned itself, so callers can
// detect changes by identity. A nil previous means there was no previous
// sync and derived is returned verbatim.
func ReconcileSubAccounts[T Reconcilable[T]](derived, previous []T) Reconciliation[T] {
	if previous == nil {
		return Reconciliation[T]{SubAccounts: derived}
	}

	var changes []string
	if len(derived) != len(previous) {
		changes = append(changes, fmt.Sprintf("sub-accounts count changed from %d to %d", len(previous), len(derived)))
	}

	previousByID := make(map[string]T, len(previous))
	for _, p := range previous {
		previousByID[p.GetID()] = p
	}

	out := make([]T, 0, len(derived))
	for _, d := range derived {
		p, ok := previousByID[d.GetID()]
		if !ok {
			changes = append(changes, "new token account "+d.GetID())
			out = append(out, d)
			continue
		}
		if fields := d.Diff(p); len(fields) > 0 {
			changes = append(changes, fmt.Sprintf("field %s changed for %s", strings.Join(fields, ","), d.GetID()))
			out = append(out, d)
			continue
		}
		out = append(out, p)
	}

	if len(changes) == 0 {
		return Reconciliation[T]{SubAccounts: previous}
	}
	return Reconciliation[T]{SubAccounts: out, Changes: changes}
}
