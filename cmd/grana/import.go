package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/granaflow/grana/internal/common"
	"github.com/granaflow/grana/internal/ofx"
)

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file.ofx>",
		Short: "Import and classify an OFX/QFX statement",
		Long: `Parse an OFX/QFX bank statement and run every transaction through the
classifier, printing per-transaction categories and the confidence summary.

Examples:
  grana import extrato.ofx --user joana --location SP
  grana import fatura.qfx --json`,
		Args: cobra.ExactArgs(1),
		RunE: runImport,
	}

	cmd.Flags().StringP("user", "u", "", "user whose learned patterns apply")
	cmd.Flags().StringP("location", "l", "", "user state for state-specific entries")
	cmd.Flags().Bool("json", false, "print the full response as JSON")

	_ = viper.BindPFlag("import.user", cmd.Flags().Lookup("user"))
	_ = viper.BindPFlag("import.location", cmd.Flags().Lookup("location"))

	return cmd
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	userID := viper.GetString("import.user")
	location := viper.GetString("import.location")
	asJSON, _ := cmd.Flags().GetBool("json")

	f, err := os.Open(args[0]) // #nosec G304 -- user-supplied statement file
	if err != nil {
		return fmt.Errorf("failed to open statement: %w", err)
	}
	defer func() { _ = f.Close() }()

	txns, err := ofx.NewParser().ParseFile(ctx, f)
	if err != nil {
		return err
	}
	if len(txns) == 0 {
		return fmt.Errorf("%s: %w", args[0], common.ErrNoTransactions)
	}

	eng, cleanup, err := buildEngine(ctx, 0)
	if err != nil {
		return err
	}
	defer cleanup()

	response, err := classifyWithProgress(ctx, eng, txns, userID, location)
	if err != nil {
		return err
	}

	if asJSON {
		return printJSON(cmd, response)
	}

	printResults(cmd, response)
	return nil
}
