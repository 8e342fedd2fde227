package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var addFile string

var addCmd = &cobra.Command{
	Use:   "add [serials...]",
	Short: "Resolve serials and add them to the working buffer",
	Long: `Resolve each serial (or inventory number) against the catalog and
add the result to the working buffer. Serials may be given as arguments
or imported from a file with --file; file tokens split on semicolons,
commas, tabs, spaces and newlines, and only numeric tokens are kept.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		serials, err := gatherSerials(args, addFile)
		if err != nil {
			return err
		}
		if len(serials) == 0 {
			return fmt.Errorf("nothing to add: pass serials or --file")
		}
		if err := addAndWait(cmd.Context(), serials); err != nil {
			return err
		}
		printEntries()
		return nil
	},
}

func init() {
	addCmd.Flags().StringVarP(&addFile, "file", "f", "", "file with serials to import")
	rootCmd.AddCommand(addCmd)
}
