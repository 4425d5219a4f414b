package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/pfrederiksen/potsdam-status/internal/scraper"
	"github.com/pfrederiksen/potsdam-status/internal/status"
)

func newParseCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "parse FILE",
		Short: "Extract and parse the status from a saved HTML page",
		Long: `Runs text extraction and status parsing on a saved copy of the status page
without touching the network or the ledger. Use "-" to read from stdin.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, format, err := resolveConfig(cmd, opts)
			if err != nil {
				return err
			}

			body, err := readInput(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}

			text, err := scraper.ExtractDocument(scraper.NewDocument(args[0], body, ""))
			if err != nil {
				return fmt.Errorf("extracting text: %w", err)
			}

			st, err := status.Parse(text)
			if err != nil {
				return fmt.Errorf("parsing status: %w", err)
			}

			return WriteStatus(cmd.OutOrStdout(), st, format)
		},
	}
}

func readInput(stdin io.Reader, name string) ([]byte, error) {
	if name == "-" {
		body, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
		return body, nil
	}

	body, err := os.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	return body, nil
}
