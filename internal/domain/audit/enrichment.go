// Package audit provides utilities for audit field enrichment in domain entities.
package audit

import (
	"context"
	"time"

	appctx "charterbooks/internal/core/context"
	"charterbooks/internal/core/entity"
)

// EnrichCreated sets CreatedBy, UpdatedBy and both timestamps from the context user.
// If userID is not in context, only the timestamps are set.
func EnrichCreated(ctx context.Context, doc *entity.BaseDocument) {
	now := time.Now().UTC()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	doc.UpdatedAt = now

	if userID := appctx.GetUserID(ctx); userID != "" {
		doc.CreatedBy = userID
		doc.UpdatedBy = userID
	}
}

// EnrichUpdated sets UpdatedBy and UpdatedAt.
func EnrichUpdated(ctx context.Context, doc *entity.BaseDocument) {
	doc.UpdatedAt = time.Now().UTC()
	if userID := appctx.GetUserID(ctx); userID != "" {
		doc.UpdatedBy = userID
	}
}
