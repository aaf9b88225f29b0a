// Package policy holds the project visibility predicates.
//
// Both the project detail view and the project card need the same decision,
// and so does the list query filter. Keeping the predicate in one package is
// the whole point — callers must not re-derive it inline, or the two call
// sites drift apart.
package policy

import "github.com/sunhaksan-research-lab/sunhaksan/internal/model"

// CanView decides whether a viewer may see a project at all.
//
//	PUBLIC   → anyone, including anonymous visitors
//	INTERNAL → any authenticated viewer
//	PRIVATE  → the owner only, even against other authenticated users
//
// No other input affects the decision: there is no role hierarchy, group
// membership, or delegation anywhere in the system.
func CanView(visibility model.Visibility, ownerID, viewerID string, authenticated bool) bool {
	switch visibility {
	case model.VisibilityPublic:
		return true
	case model.VisibilityInternal:
		return authenticated
	case model.VisibilityPrivate:
		return authenticated && viewerID == ownerID
	}
	return false
}

// CanViewStats decides whether the star/fork/watcher counters are shown.
// Weaker than CanView: counters of PUBLIC and INTERNAL projects are visible
// to everyone who can see the card; PRIVATE counters only to the owner.
func CanViewStats(visibility model.Visibility, ownerID, viewerID string) bool {
	if visibility != model.VisibilityPrivate {
		return true
	}
	return viewerID != "" && viewerID == ownerID
}
