package entity

import (
	"github.com/roach88/appstore/internal/apperror"
	"github.com/roach88/appstore/internal/ir"
)

// Authorize reports whether caller may write a successor of current.
// Only the editors of the current revision qualify; the author has no
// standing once removed from the editor set.
func Authorize[P any](caller ir.AgentID, current ir.Revision[P]) bool {
	return caller != "" && current.HasEditor(caller)
}

// Guard returns an Unauthorized error when caller may not write a
// successor of current.
func Guard[P any](caller ir.AgentID, id ir.Hash, current ir.Revision[P]) error {
	if Authorize(caller, current) {
		return nil
	}
	return apperror.Newf(apperror.Unauthorized, "agent %q is not an editor of %s", caller, id.Short()).
		With("caller", string(caller)).
		With("entity", string(id))
}

// normalizeEditors drops empty and duplicate entries, keeping first-seen
// order.
func normalizeEditors(editors []ir.AgentID) []ir.AgentID {
	out := make([]ir.AgentID, 0, len(editors))
	seen := make(map[ir.AgentID]bool, len(editors))
	for _, e := range editors {
		if e == "" || seen[e] {
			continue
		}
		seen[e] = true
		out = append(out, e)
	}
	return out
}

// foundingEditors prepends caller when absent, then normalizes.
func foundingEditors(caller ir.AgentID, editors []ir.AgentID) []ir.AgentID {
	for _, e := range editors {
		if e == caller {
			return normalizeEditors(editors)
		}
	}
	return normalizeEditors(append([]ir.AgentID{caller}, editors...))
}
