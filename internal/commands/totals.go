package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"charterbooks/internal/domain/documents"
	"charterbooks/internal/infrastructure/http/v1/dto"
)

func newTotalsCommand() *cobra.Command {
	var file string
	var kind string

	cmd := &cobra.Command{
		Use:   "totals",
		Short: "Compute line amounts and totals of a document JSON file",
		Long: "Reads a document in the API request format and prints the calculated\n" +
			"subtotal, VAT, total, withholding and net amount. Use -f - for stdin.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var in io.Reader = cmd.InOrStdin()
			if file != "-" {
				f, err := os.Open(file)
				if err != nil {
					return fmt.Errorf("opening document: %w", err)
				}
				defer f.Close()
				in = f
			}
			return runTotals(in, cmd.OutOrStdout(), kind)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "document JSON file (required)")
	_ = cmd.MarkFlagRequired("file")
	cmd.Flags().StringVar(&kind, "kind", "", "document kind, overrides the file's kind (default invoice)")

	return cmd
}

func runTotals(in io.Reader, out io.Writer, kindFlag string) error {
	var req dto.CalculateRequest
	if err := json.NewDecoder(in).Decode(&req); err != nil {
		return fmt.Errorf("decoding document: %w", err)
	}

	raw := req.Kind
	if kindFlag != "" {
		raw = kindFlag
	}
	kind := documents.KindInvoice
	if raw != "" {
		k, err := documents.ParseKind(raw)
		if err != nil {
			return err
		}
		kind = k
	}

	doc, err := req.ToDocument(kind)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(doc.Summarize())
}
