// audioctl is the operator CLI for the audio capture service:
// progress reports, ledger exports, direct storage scans, and batch
// capture driving.
package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"audio-capture-go/internal/batch"
	"audio-capture-go/internal/config"
	"audio-capture-go/internal/ledger"
	"audio-capture-go/internal/logger"
	"audio-capture-go/internal/report"
	"audio-capture-go/internal/store"
)

func main() {
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:           "audioctl",
		Short:         "Operate the conversation audio capture service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(reportCmd(), exportCmd(), scanCmd(), batchCmd(), targetCmd())

	if err := root.Execute(); err != nil {
		logger.New().WithError(err).Error("command failed")
		os.Exit(1)
	}
}

func openLedger(cfg config.Config) (*ledger.Ledger, func(), error) {
	var docStore ledger.DocumentStore
	var err error
	switch cfg.LedgerBackend {
	case "bolt":
		docStore, err = ledger.NewBoltStore(cfg.LedgerPath)
	case "", "file":
		docStore = ledger.NewFileStore(cfg.LedgerPath)
	default:
		err = fmt.Errorf("unknown ledger backend %q", cfg.LedgerBackend)
	}
	if err != nil {
		return nil, nil, err
	}
	return ledger.New(docStore), func() { docStore.Close() }, nil
}

func reportCmd() *cobra.Command {
	var target float64
	var snapshot bool

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print a collection progress report",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.FromEnv()
			led, closeLedger, err := openLedger(cfg)
			if err != nil {
				return err
			}
			defer closeLedger()

			rep := report.New(led, cfg.ReportsDir)
			snap, err := rep.Build(target)
			if err != nil {
				return err
			}
			report.Render(cmd.OutOrStdout(), snap)
			if snapshot {
				path, err := rep.Persist(snap)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Snapshot saved: %s\n", path)
			}
			return nil
		},
	}
	cmd.Flags().Float64Var(&target, "target", 0, "target hours of audio to collect")
	cmd.Flags().BoolVar(&snapshot, "snapshot", false, "persist a timestamped snapshot document")
	return cmd
}

func exportCmd() *cobra.Command {
	var format string
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the ledger as a flattened table",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.FromEnv()
			led, closeLedger, err := openLedger(cfg)
			if err != nil {
				return err
			}
			defer closeLedger()

			var n int
			switch format {
			case "csv":
				if output == "" {
					output = "conversations_metadata.csv"
				}
				n, err = led.ExportCSV(output)
			case "xlsx":
				if output == "" {
					output = "conversations_metadata.xlsx"
				}
				n, err = led.ExportXLSX(output)
			default:
				return fmt.Errorf("unknown format %q (want csv or xlsx)", format)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d conversations to %s\n", n, output)
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "csv", "export format: csv or xlsx")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file")
	return cmd
}

func scanCmd() *cobra.Command {
	var path string
	var target float64

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Analyze stored audio directly from disk, independent of the ledger",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.FromEnv()
			if path == "" {
				path = cfg.StorageDir
			}
			res, err := store.New(path).Scan()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Scanned: %s\n", path)
			fmt.Fprintf(out, "Conversations: %d (%d files)\n", res.TotalConversations, res.TotalFiles)
			fmt.Fprintf(out, "Duration: %.2f hours (%.2f minutes)\n", res.TotalHours, res.TotalMinutes)
			fmt.Fprintf(out, "Storage: %.2f GB (%.2f MB)\n", res.TotalSizeGB, res.TotalSizeMB)
			if res.TotalConversations > 0 {
				fmt.Fprintf(out, "Average: %.2f min, %.2f MB per conversation\n",
					res.AverageDurationMin, res.AverageSizeMB)
			}
			if res.IncompleteConversations > 0 {
				fmt.Fprintf(out, "Incomplete conversations: %d\n", res.IncompleteConversations)
				for _, c := range res.Incomplete {
					missing := ""
					if !c.HasAgent {
						missing = "missing agent"
					}
					if !c.HasCustomer {
						if missing != "" {
							missing += ", "
						}
						missing += "missing customer"
					}
					fmt.Fprintf(out, "  - %s: %s\n", c.Folder, missing)
				}
			}
			if target > 0 {
				remaining := target - res.TotalHours
				pct := res.TotalHours / target * 100
				fmt.Fprintf(out, "\nTarget: %.2f hours, current %.2f, remaining %.2f (%.1f%%)\n",
					target, res.TotalHours, remaining, pct)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "path", "", "storage folder to scan (defaults to AUDIO_STORAGE_DIR)")
	cmd.Flags().Float64Var(&target, "target", 0, "target hours of audio to collect")
	return cmd
}

func batchCmd() *cobra.Command {
	var csvFile string
	var server string
	var delay time.Duration

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Drive dual captures from a CSV of conversation URLs",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			client := batch.NewClient(server)
			if !client.Healthy() {
				return fmt.Errorf("capture service at %s is not reachable", server)
			}
			var rows []batch.Row
			var err error
			if strings.HasSuffix(strings.ToLower(csvFile), ".xlsx") {
				rows, err = batch.ReadXLSX(csvFile)
			} else {
				rows, err = batch.ReadCSV(csvFile)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Found %d conversations to process\n\n", len(rows))

			result := batch.Run(out, client, csvFile, rows, delay)
			path, err := batch.SaveResults(result)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Results saved to: %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVar(&csvFile, "csv", "paired_conversation_urls.csv", "CSV or XLSX of conversation_id,agent_url,customer_url rows")
	cmd.Flags().StringVar(&server, "server", "http://localhost:8888", "capture service base URL")
	cmd.Flags().DurationVar(&delay, "delay", time.Second, "delay between requests")
	return cmd
}

func targetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "target HOURS",
		Short: "Exit 0 when the collection target is reached, 1 otherwise",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var hours float64
			if _, err := fmt.Sscanf(args[0], "%f", &hours); err != nil {
				return fmt.Errorf("invalid target hours %q", args[0])
			}
			cfg := config.FromEnv()
			led, closeLedger, err := openLedger(cfg)
			if err != nil {
				return err
			}
			defer closeLedger()

			progress, err := led.ProgressToward(hours)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%.2f / %.2f hours (%.1f%%)\n",
				progress.CurrentHours, progress.TargetHours, progress.ProgressPercentage)
			if !progress.TargetReached {
				os.Exit(1)
			}
			return nil
		},
	}
}
