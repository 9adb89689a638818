package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"contractguard-backend/report"
	"contractguard-backend/service"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func analyzeCmd(flags *globalFlags) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Check a contract for violations of Egyptian law",
		Long: `Reads a contract and prints a compliance report.

Without --file the contract is read from standard input: paste it and
type DONE on a line of its own (or send EOF) when finished.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.loadConfig()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			contract, err := contractInput(cmd.InOrStdin(), out, file)
			if err != nil {
				return err
			}
			if strings.TrimSpace(contract) == "" {
				fmt.Fprintln(out, "No contract provided")
				return nil
			}

			ctx := cmd.Context()
			rt, err := newDeps(ctx, cfg)
			if err != nil {
				return err
			}
			defer rt.Close()

			fmt.Fprintln(out, "\nRetrieving relevant laws...")
			result, err := rt.analysisService(cfg).Analyze(ctx, contract)
			if errors.Is(err, service.ErrNoLawsRetrieved) {
				fmt.Fprintln(out, "No laws retrieved. Check your database.")
				return nil
			}
			if err != nil {
				return err
			}

			return report.NewTextRenderer(flags.colorize()).Render(out, result.Laws, result.Report)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Read the contract from a file instead of standard input")
	return cmd
}

func contractInput(in io.Reader, out io.Writer, file string) (string, error) {
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("failed to read contract: %w", err)
		}
		return string(data), nil
	}

	banner := color.New(color.FgCyan, color.Bold)
	fmt.Fprintln(out, banner.Sprint("EGYPTIAN CONTRACT COMPLIANCE CHECKER"))
	fmt.Fprintf(out, "Paste your contract below. Type %s on its own line when finished.\n\n", doneMarker)
	return readContract(in)
}
