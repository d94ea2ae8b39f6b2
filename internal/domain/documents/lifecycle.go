package documents

import (
	"charterbooks/internal/core/apperror"
	"charterbooks/internal/core/entity"
)

// Transition checks that a document of kind may move from one status to another.
// An empty from means the document has never been saved and counts as draft.
//
//	draft  -> draft | active
//	active -> active | void
//	void   -> (nothing)
//
// Active is issued for invoices and notes, paid for receipts. Drafts are
// deleted rather than voided.
func Transition(kind Kind, from, to entity.Status) error {
	if from == "" {
		from = entity.StatusDraft
	}
	if from == entity.StatusVoid {
		return apperror.NewDocumentVoid(nil).WithDetail("to", string(to))
	}

	active := kind.ActiveStatus()
	if active == "" {
		return apperror.NewInvalidTransition(string(from), string(to)).WithDetail("kind", string(kind))
	}
	if from.IsActive() && from != active {
		return apperror.NewInvalidTransition(string(from), string(to))
	}

	switch {
	case from == entity.StatusDraft && (to == entity.StatusDraft || to == active):
		return nil
	case from == active && (to == active || to == entity.StatusVoid):
		return nil
	}
	return apperror.NewInvalidTransition(string(from), string(to))
}

// CanTransition is the boolean form of Transition.
func CanTransition(kind Kind, from, to entity.Status) bool {
	return Transition(kind, from, to) == nil
}
