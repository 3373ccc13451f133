package operations

import (
	"slices"
	"sort"

	"github.com/xrpscan/tezsync/models"
)

// SameOp reports whether two operations carry the same settled data
func SameOp(a, b models.Operation) bool {
	return a.ID == b.ID &&
		a.Hash == b.Hash &&
		a.Type == b.Type &&
		a.Value.Equal(b.Value) &&
		a.Fee.Equal(b.Fee) &&
		a.BlockHeight == b.BlockHeight &&
		a.BlockHash == b.BlockHash &&
		a.HasFailed == b.HasFailed &&
		a.Date.Equal(b.Date) &&
		slices.Equal(a.Senders, b.Senders) &&
		slices.Equal(a.Recipients, b.Recipients)
}

// MergeOps merges freshly fetched operations into the existing, most
// recent first, sequence. Operations are deduplicated by id; a fetched
// operation replaces an existing one with the same id when their data
// differ. When nothing is new, existing is returned as is, so merging the
// same fetched set twice is a no-op. existing is never modified.
func MergeOps(existing, fetched []models.Operation) []models.Operation {
	if len(fetched) == 0 {
		return existing
	}

	existingByID := make(map[string]models.Operation, len(existing))
	for _, op := range existing {
		existingByID[op.ID] = op
	}

	var added []models.Operation
	seen := make(map[string]struct{}, len(fetched))
	addedIDs := make(map[string]struct{})
	for _, op := range fetched {
		// first occurrence of an id wins
		if _, dup := seen[op.ID]; dup {
			continue
		}
		seen[op.ID] = struct{}{}
		if prev, ok := existingByID[op.ID]; ok && SameOp(prev, op) {
			continue
		}
		addedIDs[op.ID] = struct{}{}
		added = append(added, op)
	}
	if len(added) == 0 {
		return existing
	}

	all := make([]models.Operation, 0, len(added)+len(existing))
	all = append(all, added...)
	for _, op := range existing {
		if _, replaced := addedIDs[op.ID]; !replaced {
			all = append(all, op)
		}
	}

	// Stable so operations sharing a date keep their relative order
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Date.After(all[j].Date)
	})
	return all
}
