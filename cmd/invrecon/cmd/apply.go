package cmd

import (
	"bufio"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vinnienasta1/ProITech-pub/internal/confirm"
	"github.com/vinnienasta1/ProITech-pub/internal/mutate"
)

var (
	applyFile  string
	applyField string
	applyValue string
	applyYes   bool
)

var applyCmd = &cobra.Command{
	Use:   "apply [serials...]",
	Short: "Apply one field change to every resolved record",
	Long: `Resolve the given serials, then write one field change to every
record that resolved cleanly. Reference fields (user, group, location,
status) take display labels as values; use "Очистить" to reset a field.
Comment values append to the existing comment instead of replacing it.

Each record is an independent remote write: one failure never stops the
rest, and the per-record outcome is printed at the end.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if applyField == "" {
			return fmt.Errorf("--field is required")
		}
		serials, err := gatherSerials(args, applyFile)
		if err != nil {
			return err
		}
		if len(serials) == 0 {
			return fmt.Errorf("nothing to update: pass serials or --file")
		}
		if err := addAndWait(cmd.Context(), serials); err != nil {
			return err
		}
		targets := application.Buffer.FoundRecords()
		if len(targets) == 0 {
			printEntries()
			return fmt.Errorf("no serials resolved cleanly, nothing to update")
		}
		if !applyYes {
			ok, err := confirmInteractive(len(targets))
			if err != nil {
				return err
			}
			if !ok {
				fmt.Println("aborted")
				return nil
			}
		}
		field := applyField
		if m, ok := application.Fields.ByDisplayName(applyField); ok {
			field = m.APIKey
		}
		change := mutate.Change{Field: field, Value: applyValue}
		results, err := application.Mutator.ApplyFieldChange(cmd.Context(), change, targets)
		if err != nil {
			return err
		}
		failed := 0
		for _, res := range results {
			if res.Err != nil {
				failed++
				fmt.Printf("%-20s FAILED: %v\n", res.Record.ResolvedSerial(), res.Err)
				continue
			}
			application.Buffer.ReplaceRecord(res.Record.ResolvedSerial(), res.Record)
			fmt.Printf("%-20s updated\n", res.Record.ResolvedSerial())
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d updates failed", failed, len(results))
		}
		return nil
	},
}

func init() {
	applyCmd.Flags().StringVarP(&applyFile, "file", "f", "", "file with serials to import")
	applyCmd.Flags().StringVar(&applyField, "field", "", "display field name to change")
	applyCmd.Flags().StringVar(&applyValue, "value", "", "new value (label for reference fields, Очистить to reset)")
	applyCmd.Flags().BoolVarP(&applyYes, "yes", "y", false, "skip the interactive confirmation")
	rootCmd.AddCommand(applyCmd)
}

// confirmInteractive asks for Enter twice; the second press must land
// within the confirmation window or the request disarms.
func confirmInteractive(n int) (bool, error) {
	c := confirm.New(confirm.DefaultTTL)
	reader := bufio.NewReader(os.Stdin)
	fmt.Printf("about to update %d records; press Enter twice within %s to confirm\n", n, confirm.DefaultTTL)
	if _, err := reader.ReadString('\n'); err != nil {
		return false, err
	}
	c.Press()
	fmt.Println("press Enter again to confirm")
	if _, err := reader.ReadString('\n'); err != nil {
		return false, err
	}
	// a second press after the window expired re-arms instead of
	// committing, which reads as an abort here
	return c.Press(), nil
}
