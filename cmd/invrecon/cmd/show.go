package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vinnienasta1/ProITech-pub/internal/inventory"
	"github.com/vinnienasta1/ProITech-pub/internal/resolve"
)

var showCmd = &cobra.Command{
	Use:   "show <serial>",
	Short: "Show the full field view of one record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		outcome, err := application.Resolve.Resolve(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		switch len(outcome.Matches) {
		case 0:
			return fmt.Errorf("no record matches %q", outcome.Normalized)
		case 1:
		default:
			for _, m := range outcome.Matches {
				fmt.Printf("%s/%d %s (serial %s)\n", m.Kind, m.ID, m.Field("name"), m.ResolvedSerial())
			}
			return fmt.Errorf("%d records match %q, refine the input", len(outcome.Matches), outcome.Normalized)
		}
		return showRecord(cmd, outcome)
	},
}

func showRecord(cmd *cobra.Command, outcome resolve.Outcome) error {
	match := outcome.Matches[0]
	// refetch so the view reflects the live record, not the snapshot
	rec, err := application.Client.Get(cmd.Context(), match.Kind, match.ID)
	if err != nil {
		application.Log.Warn("live refresh failed, showing indexed record", "kind", match.Kind, "id", match.ID, "error", err)
		rec = match
	}
	snap := application.Store.Current()
	fmt.Printf("%-16s %s\n", "Тип", rec.Kind.DisplayName())
	for _, m := range application.Fields.VisibleEntries() {
		if m.APIKey == "type" {
			continue
		}
		value := rec.Field(m.APIKey)
		if entity, ok := inventory.ReferenceFields[m.APIKey]; ok {
			label := inventory.LabelMissing
			if snap != nil {
				if l, ok := snap.EntityLabel(entity, value); ok {
					label = l
				}
			}
			value = label
		}
		if m.APIKey == "locations_id" {
			value = inventory.TrimLocationRoot(value)
		}
		if value == "" {
			value = inventory.LabelMissing
		}
		fmt.Printf("%-16s %s\n", m.DisplayName, value)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(showCmd)
}
