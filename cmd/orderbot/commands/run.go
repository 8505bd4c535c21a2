package commands

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"orderbot/lib/configutil"
	"orderbot/lib/serviceutil"
	"orderbot/lib/telemetry"
	"orderbot/services/archive"
	"orderbot/services/orders"
	"orderbot/services/pipeline"
	"orderbot/services/receipts"
	"orderbot/services/storefront"

	"dario.cat/mergo"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

type Config struct {
	StorefrontUrl string `json:"storefront_url"`
	OrdersUrl     string `json:"orders_url"`
	OrdersPath    string `json:"orders_path"`
	OutputDir     string `json:"output_dir"`
	Headed        bool   `json:"headed"`
}

var defaultConfig = Config{
	StorefrontUrl: "https://robotsparebinindustries.com/#/robot-order",
	OrdersUrl:     "https://robotsparebinindustries.com/orders.csv",
	OrdersPath:    "orders.csv",
	OutputDir:     "output",
}

var (
	ordersPath *string
	outputDir  *string
	fetch      *bool
	headed     *bool
)

func init() {
	ordersPath = runCmd.Flags().String("orders", "", "Path to the orders CSV (defaults to orders.csv).")
	outputDir = runCmd.Flags().String("output", "", "Directory receiving the receipts archive (defaults to output/).")
	fetch = runCmd.Flags().Bool("fetch", false, "Download the orders CSV from the storefront before the run.")
	headed = runCmd.Flags().Bool("headed", false, "Run the browser with a visible window.")
	rootCmd.AddCommand(runCmd)
}

func loadConfig() Config {
	cfg, err := configutil.ReadConfig[Config]("orderbot.json5")
	if err != nil && !os.IsNotExist(err) {
		serviceutil.Fatal("failed to read config", err)
	}
	if err := mergo.Merge(&cfg, defaultConfig); err != nil {
		serviceutil.Fatal("failed to apply config defaults", err)
	}
	if *ordersPath != "" {
		cfg.OrdersPath = *ordersPath
	}
	if *outputDir != "" {
		cfg.OutputDir = *outputDir
	}
	if *headed {
		cfg.Headed = true
	}
	return cfg
}

var runCmd = &cobra.Command{
	Use:   "run [--orders <path/to/orders.csv>] [--output <dir>]",
	Short: "Places every order from the CSV and archives the receipts into one zip.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		cfg := loadConfig()

		telemetry.InstrumentPerfStats(ctx)

		if *fetch {
			if err := orders.Fetch(ctx, cfg.OrdersUrl, cfg.OrdersPath); err != nil {
				serviceutil.Fatal("failed to fetch orders file", err)
			}
		}

		rows, err := orders.Read(ctx, cfg.OrdersPath)
		if err != nil {
			serviceutil.Fatal("failed to read orders", err)
		}
		slog.Info("orders loaded", "path", cfg.OrdersPath, "count", len(rows))

		receiptsDir := filepath.Join(cfg.OutputDir, "receipts")
		nav := storefront.NewNavigator(storefront.Options{
			URL:      cfg.StorefrontUrl,
			Headless: !cfg.Headed,
		})
		runner := pipeline.New(pipeline.Options{
			Navigator:   pipeline.LiveNavigator(nav),
			Builder:     receipts.NewBuilder(receiptsDir),
			Archiver:    archive.Bundler{},
			ArchivePath: filepath.Join(cfg.OutputDir, "receipts.zip"),
		})

		t1 := time.Now()
		outcome, runErr := runner.Run(ctx, rows)
		renderReport(outcome)

		if runErr != nil {
			serviceutil.Fatal("run failed", runErr)
		}

		// the scratch dir is redundant once everything is archived
		if err := os.RemoveAll(receiptsDir); err != nil {
			slog.Warn("failed to remove receipts scratch dir", "dir", receiptsDir, "err", err)
		}

		slog.Info("run time", "seconds", time.Since(t1).Seconds())
	},
}

func renderReport(outcome pipeline.Outcome) {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(os.Stdout)

	t.AppendHeader(table.Row{"Order", "Status", "Attempts", "Error"})
	for _, result := range outcome.Results {
		errText := ""
		if result.Err != nil {
			errText = result.Err.Error()
		}
		t.AppendRow(table.Row{result.OrderNumber, result.Status, result.Attempts, errText})
	}
	t.AppendFooter(table.Row{
		"total", len(outcome.Results),
		"ok/failed", fmt.Sprintf("%d/%d", outcome.Succeeded(), outcome.Failed()),
	})
	t.Render()
}
