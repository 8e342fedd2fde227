package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/vinnienasta1/ProITech-pub/internal/inventory"
)

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Rebuild the local catalog index and print the source report",
	RunE: func(cmd *cobra.Command, args []string) error {
		report := application.Indexer.Reindex(cmd.Context())
		for _, kind := range inventory.Kinds() {
			sr := report.Items[kind]
			if sr.Err != nil {
				fmt.Printf("%-12s failed: %v\n", kind, sr.Err)
				continue
			}
			fmt.Printf("%-12s %d records\n", kind, sr.Count)
		}
		for _, entity := range inventory.EntityTypes() {
			sr := report.Entities[entity]
			if sr.Err != nil {
				fmt.Printf("%-12s failed: %v\n", entity, sr.Err)
				continue
			}
			fmt.Printf("%-12s %d labels\n", entity, sr.Count)
		}
		fmt.Printf("contacts     %d values\n", report.Contacts)
		fmt.Printf("took %s, complete=%v\n", report.Took.Round(time.Millisecond), report.Complete())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(reindexCmd)
}
