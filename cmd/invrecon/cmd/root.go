package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vinnienasta1/ProITech-pub/internal/app"
	"github.com/vinnienasta1/ProITech-pub/internal/buffer"
	"github.com/vinnienasta1/ProITech-pub/internal/export"
	"github.com/vinnienasta1/ProITech-pub/internal/platform/logger"
)

var (
	configPath  string
	application *app.App
)

var rootCmd = &cobra.Command{
	Use:   "invrecon",
	Short: "Inventory reconciliation client for the GLPI asset catalog",
	Long: `invrecon resolves inventory/serial numbers against a GLPI-style
asset catalog, collects the matches into a working buffer, and supports
bulk field updates, filter-based imports and export of the resolved set.

Credentials come from the config file or the GLPI_BASE_URL,
GLPI_APP_TOKEN and GLPI_USER_TOKEN environment variables.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "completion" ||
			(cmd.Parent() != nil && cmd.Parent().Name() == "completion") {
			return nil
		}
		cfg, err := app.LoadConfig(configPath)
		if err != nil {
			return err
		}
		log, err := logger.New(cfg.LogMode)
		if err != nil {
			return err
		}
		application, err = app.New(log, cfg, nil)
		if err != nil {
			return err
		}
		return application.Start(cmd.Context())
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if application != nil {
			application.Shutdown(cmd.Context())
			application.Log.Sync()
		}
	},
}

func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "invrecon.yaml", "path to the configuration file")
}

// gatherSerials merges positional arguments with an optional import file.
func gatherSerials(args []string, file string) ([]string, error) {
	serials := append([]string(nil), args...)
	if file != "" {
		f, err := os.Open(file)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		imported, err := export.ParseSerials(f)
		if err != nil {
			return nil, err
		}
		serials = append(serials, imported...)
	}
	return serials, nil
}

// addAndWait feeds serials into the buffer and waits for every resolution.
func addAndWait(ctx context.Context, serials []string) error {
	for _, s := range serials {
		if _, err := application.Buffer.Add(ctx, s); err != nil {
			fmt.Fprintf(os.Stderr, "skipped %q: %v\n", s, err)
		}
	}
	application.Buffer.Wait()
	return nil
}

func printEntries() {
	for _, e := range application.Buffer.Entries() {
		switch e.State {
		case buffer.StateFound:
			fmt.Printf("%-20s %s %s %s\n", e.ResolvedSerial, e.State, e.Record.Kind.DisplayName(), e.Record.Field("name"))
		case buffer.StateAmbiguous:
			var names []string
			for _, c := range e.Candidates {
				names = append(names, fmt.Sprintf("%s/%d %s", c.Kind, c.ID, c.Field("name")))
			}
			fmt.Printf("%-20s %s [%s]\n", e.Normalized, e.State, strings.Join(names, ", "))
		default:
			fmt.Printf("%-20s %s\n", e.Normalized, e.State)
		}
	}
	entries, found := application.Buffer.Counts()
	fmt.Printf("entries: %d, found: %d\n", entries, found)
}
