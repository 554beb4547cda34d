package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/granaflow/grana/internal/common"
	"github.com/granaflow/grana/internal/engine"
	"github.com/granaflow/grana/internal/model"
)

func classifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "classify [description]",
		Short: "Categorize transactions",
		Long: `Categorize one transaction description, or a JSON file of transactions.

Examples:
  grana classify "SUPERMERCADO PAO DE ACUCAR 1234"
  grana classify --file extrato.json --user joana --location SP
  grana classify --file extrato.json --json > results.json`,
		Args: cobra.MaximumNArgs(1),
		RunE: runClassify,
	}

	cmd.Flags().StringP("file", "f", "", "JSON file with an array of transactions")
	cmd.Flags().StringP("user", "u", "", "user whose learned patterns apply")
	cmd.Flags().StringP("location", "l", "", "user state for state-specific entries (e.g. SP)")
	cmd.Flags().Int("batch-size", 0, "chunk size for large batches (1-500)")
	cmd.Flags().Bool("json", false, "print the full response as JSON")

	// Keys are namespaced per command: viper keeps only the last binding
	// for a key, so commands must not share one.
	_ = viper.BindPFlag("classify.user", cmd.Flags().Lookup("user"))
	_ = viper.BindPFlag("classify.location", cmd.Flags().Lookup("location"))
	_ = viper.BindPFlag("classify.batch_size", cmd.Flags().Lookup("batch-size"))

	return cmd
}

func runClassify(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	userID := viper.GetString("classify.user")
	location := viper.GetString("classify.location")
	asJSON, _ := cmd.Flags().GetBool("json")
	file, _ := cmd.Flags().GetString("file")

	var txns []model.Transaction
	switch {
	case file != "":
		var err error
		txns, err = loadTransactionsFile(file)
		if err != nil {
			return err
		}
	case len(args) == 1:
		txns = []model.Transaction{{Description: args[0], Type: model.TypeExpense}}
	default:
		return fmt.Errorf("provide a description argument or --file")
	}

	eng, cleanup, err := buildEngine(ctx, viper.GetInt("classify.batch_size"))
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

// loadTransactionsFile reads a JSON array of transactions for batch
// classification. An empty array is an error: there is nothing to classify.
func loadTransactionsFile(path string) ([]model.Transaction, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- user-supplied input file
	if err != nil {
		return nil, fmt.Errorf("failed to read transactions file: %w", err)
	}

	var txns []model.Transaction
	if err := json.Unmarshal(data, &txns); err != nil {
		return nil, fmt.Errorf("failed to parse transactions file: %w", err)
	}
	if len(txns) == 0 {
		return nil, fmt.Errorf("%s: %w", path, common.ErrNoTransactions)
	}

	return txns, nil
}

func classifyWithProgress(ctx context.Context, eng *engine.ClassificationEngine, txns []model.Transaction, userID, location string) (*model.BatchResponse, error) {
	var bar *progressbar.ProgressBar
	progress := func(completed, total int) {
		if bar == nil && total > 1 {
			bar = progressbar.Default(int64(total), "classifying")
		}
		if bar != nil {
			_ = bar.Set(completed)
		}
	}

	response, err := eng.ClassifyBatchWithProgress(ctx, txns, userID, location, progress)
	if bar != nil {
		_ = bar.Finish()
	}
	if err != nil {
		return nil, err
	}
	return response, nil
}

func printResults(cmd *cobra.Command, response *model.BatchResponse) {
	for _, r := range response.Results {
		category := r.Category
		if r.Subcategory != "" {
			category += " / " + r.Subcategory
		}

		flag := ""
		if engine.NeedsReview(r.Confidence) {
			flag = "  [needs review]"
		}

		cmd.Printf("%-50s %-30s %3d%%  %s%s\n",
			truncate(r.Description, 50), category, r.Confidence, r.Method, flag)
	}

	stats := response.Stats
	cmd.Printf("\n%d classified in %dms: %d high, %d medium, %d low confidence\n",
		stats.Total, stats.ProcessingTimeMs,
		stats.HighConfidence, stats.MediumConfidence, stats.LowConfidence)
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode response: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

// truncate shortens s to at most n runes. Descriptions are routinely
// accented, so slicing happens on runes, never bytes.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-3]) + "..."
}
