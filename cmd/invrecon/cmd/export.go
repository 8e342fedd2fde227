package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/vinnienasta1/ProITech-pub/internal/export"
)

var (
	exportFile   string
	exportFormat string
	exportOut    string
)

var exportCmd = &cobra.Command{
	Use:   "export [serials...]",
	Short: "Resolve serials and export the visible fields as CSV or TSV",
	RunE: func(cmd *cobra.Command, args []string) error {
		serials, err := gatherSerials(args, exportFile)
		if err != nil {
			return err
		}
		if len(serials) == 0 {
			return fmt.Errorf("nothing to export: pass serials or --file")
		}
		if err := addAndWait(cmd.Context(), serials); err != nil {
			return err
		}
		records := application.Buffer.FoundRecords()
		if len(records) == 0 {
			printEntries()
			return fmt.Errorf("no serials resolved cleanly, nothing to export")
		}
		rows := export.Table(application.Fields, application.Store.Current(), records)

		var w io.Writer = os.Stdout
		if exportOut != "" {
			f, err := os.Create(exportOut)
			if err != nil {
				return err
			}
			defer f.Close()
			w = f
		}
		switch exportFormat {
		case "csv":
			return export.WriteCSV(w, rows)
		case "tsv":
			return export.WriteTSV(w, rows)
		default:
			return fmt.Errorf("unknown format %q: want csv or tsv", exportFormat)
		}
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportFile, "file", "f", "", "file with serials to import")
	exportCmd.Flags().StringVar(&exportFormat, "format", "csv", "output format: csv or tsv")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "write to file instead of stdout")
	rootCmd.AddCommand(exportCmd)
}
