package main

import (
	"github.com/spf13/cobra"

	"github.com/granaflow/grana/internal/model"
)

func dictionaryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dictionary",
		Short: "Inspect the curated classification dictionary",
	}

	cmd.AddCommand(dictionaryCheckCmd())
	cmd.AddCommand(dictionaryShowCmd())

	return cmd
}

func dictionaryCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate the dictionary and report entry counts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			dict, err := loadDictionary()
			if err != nil {
				return err
			}

			counts := make(map[model.EntryType]int)
			for _, e := range dict.Entries() {
				counts[e.Type]++
			}

			cmd.Printf("Dictionary OK: %d entries\n", dict.Len())
			for _, t := range []model.EntryType{model.EntryMerchant, model.EntryBankingPattern, model.EntryUtility, model.EntryKeyword} {
				cmd.Printf("  %-16s %d\n", t, counts[t])
			}
			return nil
		},
	}
}

func dictionaryShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "List dictionary entries",
		RunE: func(cmd *cobra.Command, _ []string) error {
			dict, err := loadDictionary()
			if err != nil {
				return err
			}

			cmd.Printf("%-30s %-16s %-25s %4s %4s\n", "KEY", "TYPE", "CATEGORY", "CONF", "PRIO")
			for _, e := range dict.Entries() {
				category := e.Category
				if e.Subcategory != "" {
					category += " / " + e.Subcategory
				}
				cmd.Printf("%-30s %-16s %-25s %.2f %4d\n",
					truncate(e.Key, 30), e.Type, truncate(category, 25), e.ConfidenceModifier, e.Priority)
			}
			return nil
		},
	}
}
