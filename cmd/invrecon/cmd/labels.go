package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vinnienasta1/ProITech-pub/internal/index"
	"github.com/vinnienasta1/ProITech-pub/internal/inventory"
)

var labelTableOrder = []string{"user", "group", "location", "state", "contact"}

var labelsCmd = &cobra.Command{
	Use:   "labels [user|group|location|state|contact]",
	Short: "List the known values usable in filter clauses and apply",
	Long: `List the display labels of the reference tables (user, group,
location, state) and the free-text shelf values (contact), as indexed by the
last reindex. These are the values 'filter --where' and 'apply --value'
match against. Without an argument every table is printed.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		snap := application.Store.Current()
		if snap == nil {
			application.Indexer.Reindex(cmd.Context())
			snap = application.Store.Current()
		}

		if len(args) == 1 {
			values, err := labelValues(snap, strings.ToLower(args[0]))
			if err != nil {
				return err
			}
			for _, v := range values {
				fmt.Println(v)
			}
			return nil
		}
		for _, name := range labelTableOrder {
			values, err := labelValues(snap, name)
			if err != nil {
				return err
			}
			fmt.Printf("%s:\n", name)
			for _, v := range values {
				fmt.Printf("  %s\n", v)
			}
		}
		return nil
	},
}

// labelValues returns one table's values in display form; locations print
// root-trimmed, the same form the clause and value matching compares
// against.
func labelValues(snap *index.Snapshot, name string) ([]string, error) {
	switch name {
	case "user":
		return snap.EntityLabels(inventory.EntityUser), nil
	case "group":
		return snap.EntityLabels(inventory.EntityGroup), nil
	case "location":
		labels := snap.EntityLabels(inventory.EntityLocation)
		for i, l := range labels {
			labels[i] = inventory.TrimLocationRoot(l)
		}
		return labels, nil
	case "state":
		return snap.EntityLabels(inventory.EntityState), nil
	case "contact":
		return snap.ContactValues(), nil
	default:
		return nil, fmt.Errorf("unknown table %q: want one of %s", name, strings.Join(labelTableOrder, ", "))
	}
}

func init() {
	rootCmd.AddCommand(labelsCmd)
}
