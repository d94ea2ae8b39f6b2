package document_repo

import (
	"context"

	"charterbooks/internal/core/entity"
	"charterbooks/internal/core/id"
	"charterbooks/internal/domain/documents"
	"charterbooks/internal/infrastructure/storage/postgres"
)

// auditMetadata is stored next to the snapshot of every document event.
type auditMetadata struct {
	Kind   documents.Kind `json:"kind"`
	Number string         `json:"number,omitempty"`
	From   entity.Status  `json:"from,omitempty"`
	To     entity.Status  `json:"to,omitempty"`
}

// DocumentAuditor writes document events to sys_audit with the document
// snapshot as the changes payload.
type DocumentAuditor struct {
	audit *postgres.AuditService
}

var _ documents.Auditor = (*DocumentAuditor)(nil)

// NewDocumentAuditor creates a new auditor.
func NewDocumentAuditor(audit *postgres.AuditService) *DocumentAuditor {
	return &DocumentAuditor{audit: audit}
}

// Record implements documents.Auditor.
func (a *DocumentAuditor) Record(ctx context.Context, event documents.AuditEvent) error {
	var snapshot any
	if event.Snapshot != nil {
		snapshot = event.Snapshot
	}
	return a.audit.LogChange(ctx, documentsTable, event.DocumentID, string(event.Action), snapshot, auditMetadata{
		Kind:   event.Kind,
		Number: event.Number,
		From:   event.From,
		To:     event.To,
	})
}

// History returns the newest audit entries of a document.
func (a *DocumentAuditor) History(ctx context.Context, docID id.ID, limit int) ([]postgres.AuditEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	return a.audit.History(ctx, documentsTable, docID, limit)
}
