package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/granaflow/grana/internal/model"
)

func learnCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "learn <description> <category>",
		Short: "Teach the classifier a correction",
		Long: `Record a confirmed or corrected classification as a learned pattern.
Learned patterns take precedence over the curated dictionary for future
identical descriptions.

Examples:
  grana learn "PIX QR DINAMICO PADARIA STELLA" "Alimentação" --subcategory Padaria --user joana`,
		Args: cobra.ExactArgs(2),
		RunE: runLearn,
	}

	cmd.Flags().StringP("subcategory", "s", "", "subcategory for the learned pattern")
	cmd.Flags().StringP("user", "u", "", "user the pattern belongs to")
	_ = viper.BindPFlag("learn.user", cmd.Flags().Lookup("user"))

	return cmd
}

func runLearn(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	description, category := args[0], args[1]
	subcategory, _ := cmd.Flags().GetString("subcategory")
	userID := viper.GetString("learn.user")

	if userID == "" {
		return fmt.Errorf("--user is required: learned patterns are per-user")
	}

	eng, cleanup, err := buildEngine(ctx, 0)
	if err != nil {
		return err
	}
	defer cleanup()

	txn := model.Transaction{Description: description, Type: model.TypeExpense}
	pattern, err := eng.Learn(ctx, userID, txn, category, subcategory)
	if err != nil {
		return err
	}

	cmd.Printf("Learned: %q -> %s (confidence %d, used %d time(s))\n",
		pattern.NormalizedDescription, pattern.Category, pattern.Confidence, pattern.UseCount)

	return nil
}
