package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"charterbooks/internal/config"
	"charterbooks/internal/core/id"
	"charterbooks/internal/domain/documents"
	"charterbooks/internal/infrastructure/numerator"
	"charterbooks/internal/infrastructure/storage/postgres"
)

func newNumberingCommand(loadConfig func() (*config.Config, error)) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "numbering",
		Short: "Manage document number sequences",
	}

	var (
		company string
		kind    string
		year    int
		last    int64
	)
	setLast := &cobra.Command{
		Use:   "set-last",
		Short: "Continue a sequence after the last number issued by a previous system",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			companyID, err := id.Parse(company)
			if err != nil {
				return fmt.Errorf("invalid company id %q: %w", company, err)
			}
			k, err := documents.ParseKind(kind)
			if err != nil {
				return err
			}
			if last < 0 {
				return fmt.Errorf("last must not be negative")
			}
			period := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
			scope := k.NumberScope(companyID)

			return withPool(cmd.Context(), loadConfig, func(ctx context.Context, pool *postgres.Pool) error {
				if err := numerator.New(pool).SetNextNumber(ctx, scope, period, last); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "next %s number: %s\n", k, scope.Format(period, last+1))
				return nil
			})
		},
	}
	setLast.Flags().StringVar(&company, "company", "", "company id")
	setLast.Flags().StringVar(&kind, "kind", "", "document kind (invoice, receipt, credit_note, debit_note)")
	setLast.Flags().IntVar(&year, "year", time.Now().Year(), "numbering year")
	setLast.Flags().Int64Var(&last, "last", 0, "last number already issued")
	_ = setLast.MarkFlagRequired("company")
	_ = setLast.MarkFlagRequired("kind")

	cmd.AddCommand(setLast)
	return cmd
}
