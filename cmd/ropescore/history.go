package main

import (
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/verte-zerg/ropescore/internal/config"
	"github.com/verte-zerg/ropescore/internal/history"
	"github.com/verte-zerg/ropescore/internal/historyui"
	"github.com/verte-zerg/ropescore/internal/model"
	"github.com/verte-zerg/ropescore/internal/scoring"
)

var (
	historyRulebook    string
	historySince       string
	historyLast        int
	historyTrendWindow int
	historyPlot        bool
	historyExportOut   string
)

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Browse saved scores",
		Args:  cobra.NoArgs,
		RunE:  runHistoryCmd,
	}
	cmd.PersistentFlags().StringVar(&historyRulebook, "rulebook", "", "rulebook filter (new or old)")
	cmd.PersistentFlags().StringVar(&historySince, "since", "", "start date in UTC (YYYY-MM-DD)")
	cmd.PersistentFlags().IntVar(&historyLast, "last", 0, "limit to last N scores")
	cmd.PersistentFlags().IntVar(&historyTrendWindow, "trend-window", defaultTrendWindow, "moving average window")

	list := &cobra.Command{
		Use:   "list",
		Short: "Print saved scores",
		Args:  cobra.NoArgs,
		RunE:  runHistoryListCmd,
	}
	list.Flags().BoolVar(&historyPlot, "plot", false, "draw the difficulty trend")

	export := &cobra.Command{
		Use:   "export",
		Short: "Export saved scores to a spreadsheet",
		Args:  cobra.NoArgs,
		RunE:  runHistoryExportCmd,
	}
	export.Flags().StringVar(&historyExportOut, "out", "", "output .xlsx path (default: XDG data dir)")

	cmd.AddCommand(list, export)
	return cmd
}

func historyFilter(cmd *cobra.Command, fileCfg config.FileConfig) (model.HistoryFilter, error) {
	applyIntConfig(cmd, "last", &historyLast, fileCfg.History.Last)
	applyIntConfig(cmd, "trend-window", &historyTrendWindow, fileCfg.History.TrendWindow)

	filter := model.HistoryFilter{Last: historyLast, TrendWindow: historyTrendWindow}
	if historyLast < 0 {
		return filter, fmt.Errorf("--last must be 0 or positive")
	}
	if historyTrendWindow < 1 {
		return filter, fmt.Errorf("--trend-window must be at least 1")
	}
	if historyRulebook != "" {
		version, err := scoring.ParseRulebookVersion(historyRulebook)
		if err != nil {
			return filter, fmt.Errorf("invalid --rulebook: %w", err)
		}
		filter.Rulebook = version.String()
	}
	if historySince != "" {
		parsed, err := history.ParseSince(historySince)
		if err != nil {
			return filter, fmt.Errorf("invalid --since value: %w", err)
		}
		filter.Since = &parsed
	}
	return filter, nil
}

func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := loadFileConfig()
	if err != nil {
		return err
	}
	filter, err := historyFilter(cmd, fileCfg)
	if err != nil {
		return err
	}
	logger, err := newLogger(cmd, fileCfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	st, closeStore, err := openStore(logger)
	if err != nil {
		return err
	}
	defer closeStore()

	m := historyui.NewModel(st, filter, logger)
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run history TUI: %w", err)
	}
	return nil
}

func loadReport(cmd *cobra.Command) (history.Report, error) {
	fileCfg, err := loadFileConfig()
	if err != nil {
		return history.Report{}, err
	}
	filter, err := historyFilter(cmd, fileCfg)
	if err != nil {
		return history.Report{}, err
	}
	logger, err := newLogger(cmd, fileCfg)
	if err != nil {
		return history.Report{}, err
	}
	defer func() { _ = logger.Sync() }()

	st, closeStore, err := openStore(logger)
	if err != nil {
		return history.Report{}, err
	}
	defer closeStore()

	report, err := history.BuildReport(cmd.Context(), st, filter)
	if err != nil {
		return history.Report{}, fmt.Errorf("failed to load history: %w", err)
	}
	logger.Debug("loaded history", zap.Int("records", len(report.Records)))
	return report, nil
}

func runHistoryListCmd(cmd *cobra.Command, _ []string) error {
	report, err := loadReport(cmd)
	if err != nil {
		return err
	}
	return printReport(cmd.OutOrStdout(), report, historyPlot)
}

func printReport(w io.Writer, report history.Report, plot bool) error {
	if err := history.RenderSummary(w, report.Summary); err != nil {
		return err
	}
	if len(report.Records) == 0 {
		return nil
	}
	if _, err := fmt.Fprintf(w, "Trend: %s\n\n", history.Sparkline(report.Trend)); err != nil {
		return err
	}
	if err := history.RenderTable(w, report.Records); err != nil {
		return err
	}
	if !plot {
		return nil
	}
	if _, err := io.WriteString(w, "\n"); err != nil {
		return err
	}
	return history.PlotTrend(w, "Difficulty trend", history.TrendSeries(report), 0, 0, history.UseColor(w))
}

func runHistoryExportCmd(cmd *cobra.Command, _ []string) error {
	report, err := loadReport(cmd)
	if err != nil {
		return err
	}
	out := historyExportOut
	if out == "" {
		out = config.DefaultExportPath()
	}
	if err := history.ExportXLSX(out, report); err != nil {
		return fmt.Errorf("failed to export history: %w", err)
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Exported %d scores to %s\n", len(report.Records), out)
	return err
}
