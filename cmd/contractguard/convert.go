package main

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"contractguard-backend/service"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func convertPolicyCmd(flags *globalFlags) *cobra.Command {
	var (
		req     service.ConvertRequest
		noSave  bool
		harness bool
	)

	cmd := &cobra.Command{
		Use:   "convert-policy [policy sentence]",
		Short: "Convert a policy sentence into an OCL constraint",
		Long: `Asks the model for an OCL constraint expressing the policy, validates
it, and stores it as a policy unless --no-save is given.

The sentence is taken from the arguments or, if there are none, from
the first line of standard input.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.loadConfig()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			req.Text = strings.Join(args, " ")
			if req.Text == "" {
				fmt.Fprint(out, "Enter policy: ")
				if req.Text, err = readLine(cmd.InOrStdin()); err != nil {
					return err
				}
			}
			if strings.TrimSpace(req.Text) == "" {
				fmt.Fprintln(out, "No policy provided")
				return nil
			}

			ctx := cmd.Context()
			rt, err := newDeps(ctx, cfg)
			if err != nil {
				return err
			}
			defer rt.Close()

			policies := rt.policyService()
			if noSave {
				conv, err := policies.Convert(ctx, req)
				if err != nil {
					return err
				}
				printConversion(out, conv, flags.colorize())
				return nil
			}

			policy, conv, err := policies.ConvertAndSave(ctx, req)
			if err != nil {
				return err
			}
			printConversion(out, conv, flags.colorize())
			fmt.Fprintf(out, "\nSaved policy %s (%s)\n", policy.ID, policy.Name)

			if harness {
				key, err := policies.GenerateHarness(ctx, policy.ID)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Test harness stored at %s\n", key)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&req.Name, "name", "", "Policy name (defaults to the detected category)")
	cmd.Flags().StringVar(&req.LegalFramework, "framework", "Egyptian Law", "Legal framework the policy belongs to")
	cmd.Flags().StringVar(&req.CompanyName, "company", "", "Company the policy applies to")
	cmd.Flags().BoolVar(&noSave, "no-save", false, "Print the constraint without storing it")
	cmd.Flags().BoolVar(&harness, "harness", false, "Also render and store a Go test harness")
	return cmd
}

func printConversion(out io.Writer, conv *service.Conversion, colorize bool) {
	label := color.New(color.FgWhite, color.Bold)
	code := color.New(color.FgGreen)
	if !colorize {
		label.DisableColor()
		code.DisableColor()
	}

	fmt.Fprintf(out, "\n%s %s\n", label.Sprint("OCL:"), code.Sprint(conv.Expression))
	fmt.Fprintf(out, "%s %s\n", label.Sprint("Category:"), conv.Category)
	fmt.Fprintf(out, "%s %s\n", label.Sprint("Keywords:"), strings.Join(conv.Keywords, ", "))
	fmt.Fprintf(out, "%s %s\n", label.Sprint("Evaluation:"), conv.PolicyType)

	names := make([]string, 0, len(conv.Properties))
	for name := range conv.Properties {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Fprintln(out, label.Sprint("Properties:"))
	for _, name := range names {
		fmt.Fprintf(out, "   %s: %s\n", name, conv.Properties[name])
	}
	if conv.Attempts > 1 {
		fmt.Fprintf(out, "(valid after %d attempts)\n", conv.Attempts)
	}
}
