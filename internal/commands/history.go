package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"charterbooks/internal/config"
	"charterbooks/internal/core/id"
	"charterbooks/internal/infrastructure/storage/postgres"
	"charterbooks/internal/infrastructure/storage/postgres/document_repo"
)

func newHistoryCommand(loadConfig func() (*config.Config, error)) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history <document-id>",
		Short: "Print the audit trail of a document, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			docID, err := id.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid document id %q: %w", args[0], err)
			}
			return withPool(cmd.Context(), loadConfig, func(ctx context.Context, pool *postgres.Pool) error {
				audit, err := postgres.NewAuditService(postgres.NewTxManager(pool))
				if err != nil {
					return err
				}
				entries, err := document_repo.NewDocumentAuditor(audit).History(ctx, docID, limit)
				if err != nil {
					return err
				}
				return writeHistory(cmd.OutOrStdout(), entries)
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of entries")
	return cmd
}

type historyLine struct {
	At       string          `json:"at"`
	Action   string          `json:"action"`
	User     string          `json:"user,omitempty"`
	Metadata json.RawMessage `json:"metadata,omitempty"`
	Snapshot json.RawMessage `json:"snapshot,omitempty"`
}

func writeHistory(w io.Writer, entries []postgres.AuditEntry) error {
	enc := json.NewEncoder(w)
	for _, e := range entries {
		if err := enc.Encode(historyLine{
			At:       e.CreatedAt.UTC().Format(time.RFC3339),
			Action:   e.Action,
			User:     e.UserID,
			Metadata: e.Metadata,
			Snapshot: e.Changes,
		}); err != nil {
			return err
		}
	}
	return nil
}
