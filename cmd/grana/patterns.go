package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func patternsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "patterns",
		Short: "Manage learned classification patterns",
	}

	cmd.AddCommand(patternsListCmd())
	cmd.AddCommand(patternsForgetCmd())

	return cmd
}

func patternsListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List a user's active learned patterns",
		RunE:  runPatternsList,
	}

	cmd.Flags().StringP("user", "u", "", "user whose patterns to list")
	_ = viper.BindPFlag("patterns.user", cmd.Flags().Lookup("user"))

	return cmd
}

func runPatternsList(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	userID := viper.GetString("patterns.user")
	if userID == "" {
		return fmt.Errorf("--user is required")
	}

	store, err := openStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	patterns, err := store.ListActiveLearnedPatterns(ctx, userID)
	if err != nil {
		return err
	}

	if len(patterns) == 0 {
		cmd.Println("No learned patterns.")
		return nil
	}

	cmd.Printf("%-6s %-40s %-25s %5s %5s\n", "ID", "PATTERN", "CATEGORY", "CONF", "USES")
	for _, p := range patterns {
		category := p.Category
		if p.Subcategory != "" {
			category += " / " + p.Subcategory
		}
		cmd.Printf("%-6d %-40s %-25s %4d%% %5d\n",
			p.ID, truncate(p.NormalizedDescription, 40), category, p.Confidence, p.UseCount)
	}

	return nil
}

func patternsForgetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "forget <id>",
		Short: "Deactivate a learned pattern",
		Long: `Deactivate a learned pattern by ID. The pattern stops applying but is
kept for history; it is never hard-deleted.`,
		Args: cobra.ExactArgs(1),
		RunE: runPatternsForget,
	}
}

func runPatternsForget(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid pattern id %q: %w", args[0], err)
	}

	store, err := openStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if err := store.DeactivateLearnedPattern(ctx, id); err != nil {
		return err
	}

	cmd.Printf("Pattern %d deactivated.\n", id)
	return nil
}
