package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"
	serveradapter "github.com/evanschultz/dragboard/internal/adapters/server"
	servercommon "github.com/evanschultz/dragboard/internal/adapters/server/common"
	"github.com/evanschultz/dragboard/internal/app"
	"github.com/evanschultz/dragboard/internal/config"
	"github.com/evanschultz/dragboard/internal/domain"
	"github.com/evanschultz/dragboard/internal/layout"
	"github.com/evanschultz/dragboard/internal/tui"
	"github.com/spf13/cobra"
)

// serveCommandRunner starts the HTTP+MCP serve flow.
var serveCommandRunner = func(ctx context.Context, cfg serveradapter.Config, deps serveradapter.Dependencies) error {
	return serveradapter.Run(ctx, cfg, deps)
}

func newTUICommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Open the terminal board",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd.Context(), opts)
		},
	}
}

// cardConfig maps the [tui] config table onto the card sizing of the terminal board.
func cardConfig(cfg config.Config) tui.CardConfig {
	return tui.CardConfig{
		ColumnWidth:      cfg.TUI.ColumnWidth,
		CardHeight:       cfg.TUI.CardHeight,
		ShowDescriptions: cfg.TUI.ShowDescriptions,
	}
}

// runTUI runs the terminal board until the program exits.
func runTUI(ctx context.Context, opts *rootOptions) error {
	env, err := openEnv(ctx, opts, envOptions{
		command: "tui",
		quiet:   true,
		grid: func(cfg config.Config) layout.GridConfig {
			return cardConfig(cfg).GridConfig(80, 24)
		},
		tuning: config.Config.TUITuning,
	})
	if err != nil {
		return err
	}
	defer env.close()

	cfg := env.cfg
	m := tui.NewModel(env.svc,
		tui.WithCardConfig(cardConfig(cfg)),
		tui.WithTuning(cfg.TUITuning),
		tui.WithLogger(env.logger.Component("tui")),
	)
	p := programFactory(m)

	watchCtx, stopWatch := context.WithCancel(ctx)
	defer stopWatch()
	env.watchConfig(watchCtx, func(next config.Config) {
		p.Send(tui.TuningReloadedMsg{Tuning: next.TUITuning})
	})

	env.logger.Info("command flow start", "command", "tui")
	if _, err := p.Run(); err != nil {
		env.logger.Error("tui program terminated with error", "err", err)
		return fmt.Errorf("run tui program: %w", err)
	}
	env.logger.Info("command flow complete", "command", "tui")
	return nil
}

func newServeCommand(opts *rootOptions) *cobra.Command {
	var (
		bind        string
		apiEndpoint string
		mcpEndpoint string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the board over HTTP and MCP",
		Long: `Serve the board over a JSON HTTP API and an MCP streamable HTTP endpoint.

Drag tuning follows the config file while the server runs.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			env, err := openEnv(ctx, opts, envOptions{command: "serve"})
			if err != nil {
				return err
			}
			defer env.close()

			watchCtx, stopWatch := context.WithCancel(ctx)
			defer stopWatch()
			env.watchConfig(watchCtx, func(next config.Config) {
				t := next.Tuning(env.grid.Config().ViewportWidth)
				if err := env.svc.SetTuning(watchCtx, t); err != nil {
					env.logger.Warn("drag tuning reload failed", "err", err)
				}
			})

			serverCfg := serveradapter.Config{
				HTTPBind:      firstNonBlank(bind, env.cfg.Server.Bind),
				APIEndpoint:   firstNonBlank(apiEndpoint, env.cfg.Server.APIEndpoint),
				MCPEndpoint:   firstNonBlank(mcpEndpoint, env.cfg.Server.MCPEndpoint),
				ServerName:    opts.appName,
				ServerVersion: version,
			}
			env.logger.Info("command flow start", "command", "serve", "bind", serverCfg.HTTPBind)
			err = serveCommandRunner(ctx, serverCfg, serveradapter.Dependencies{
				Board:  servercommon.NewAppServiceAdapter(env.svc),
				Logger: env.logger.Component("http"),
			})
			if err != nil {
				env.logger.Error("command flow failed", "command", "serve", "err", err)
				return fmt.Errorf("run serve command: %w", err)
			}
			env.logger.Info("command flow complete", "command", "serve")
			return nil
		},
	}
	cmd.Flags().StringVar(&bind, "http", "", "listen address (default from server.bind)")
	cmd.Flags().StringVar(&apiEndpoint, "api-endpoint", "", "HTTP API base path")
	cmd.Flags().StringVar(&mcpEndpoint, "mcp-endpoint", "", "MCP endpoint path")
	return cmd
}

func newReplayCommand(opts *rootOptions) *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "replay SCRIPT",
		Short: "Replay a recorded pointer script against a scratch board",
		Long: `Replay a YAML pointer script on an in-memory board and print every drag result.

The script board is used when present; otherwise the configured seed columns are.
The stored board is never touched.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(cmd.Context(), opts, args[0], outPath)
		},
	}
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "write the final board snapshot here (json or yaml by extension)")
	return cmd
}

// runReplay runs the requested command flow.
func runReplay(ctx context.Context, opts *rootOptions, scriptPath, outPath string) error {
	f, err := os.Open(scriptPath)
	if err != nil {
		return fmt.Errorf("open replay script: %w", err)
	}
	script, err := app.LoadScript(f)
	_ = f.Close()
	if err != nil {
		return err
	}

	env, err := openEnv(ctx, opts, envOptions{
		command:  "replay",
		quiet:    true,
		inMemory: true,
		grid: func(cfg config.Config) layout.GridConfig {
			g := cfg.Grid
			if script.Viewport.Width > 0 {
				g.ViewportWidth = script.Viewport.Width
			}
			if script.Viewport.Height > 0 {
				g.ViewportHeight = script.Viewport.Height
			}
			return g
		},
	})
	if err != nil {
		return err
	}
	defer env.close()

	if script.Board != nil {
		if err := env.svc.ImportSnapshot(ctx, *script.Board); err != nil {
			return fmt.Errorf("load script board: %w", err)
		}
	}
	results, replayErr := env.svc.Replay(ctx, script.Samples)
	if err := printResults(opts.stdout, results); err != nil {
		return err
	}
	if replayErr != nil {
		env.logger.Warn("replay finished with skipped samples", "err", replayErr)
		_, _ = fmt.Fprintf(opts.stderr, "skipped samples:\n%v\n", replayErr)
	}
	if outPath != "" {
		snap, err := env.svc.ExportSnapshot(ctx)
		if err != nil {
			return fmt.Errorf("export replayed board: %w", err)
		}
		if err := writeSnapshotFile(outPath, snap, app.FormatFromPath(outPath)); err != nil {
			return err
		}
	}
	return nil
}

// printResults writes one table line per finished drag.
func printResults(w io.Writer, results []domain.DragResult) error {
	rows := make([][]string, 0, len(results))
	for i, res := range results {
		moved := "no"
		if res.Moved() {
			moved = "yes"
		}
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			string(res.Kind),
			res.ItemID,
			formatPosition(res.Kind, res.From),
			formatPosition(res.Kind, res.To),
			moved,
		})
	}
	_, err := fmt.Fprintln(w, renderTable([]string{"#", "KIND", "ITEM", "FROM", "TO", "MOVED"}, rows))
	return err
}

func formatPosition(kind domain.DragKind, pos domain.Position) string {
	if kind == domain.DragColumn || pos.ColumnID == "" {
		return strconv.Itoa(pos.Index)
	}
	return pos.ColumnID + ":" + strconv.Itoa(pos.Index)
}

func newExportCommand(opts *rootOptions) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "export [PATH]",
		Short: "Export the board as a JSON or YAML snapshot",
		Long: `Export the board as a snapshot. Without PATH the snapshot goes to stdout.

The format follows --format, else the file extension, else JSON.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			outPath := "-"
			if len(args) == 1 {
				outPath = args[0]
			}
			f, err := resolveFormat(format, outPath)
			if err != nil {
				return err
			}
			env, err := openEnv(ctx, opts, envOptions{command: "export", quiet: true})
			if err != nil {
				return err
			}
			defer env.close()

			snap, err := env.svc.ExportSnapshot(ctx)
			if err != nil {
				return fmt.Errorf("export snapshot: %w", err)
			}
			if outPath == "-" {
				return app.EncodeSnapshot(opts.stdout, snap, f)
			}
			if err := writeSnapshotFile(outPath, snap, f); err != nil {
				return err
			}
			env.logger.Info("command flow complete", "command", "export", "path", outPath)
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "", "snapshot format: json or yaml")
	return cmd
}

func newImportCommand(opts *rootOptions) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "import PATH",
		Short: "Replace the board with a snapshot file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			inPath := args[0]
			f, err := resolveFormat(format, inPath)
			if err != nil {
				return err
			}
			file, err := os.Open(inPath)
			if err != nil {
				return fmt.Errorf("read import file: %w", err)
			}
			snap, err := app.DecodeSnapshot(file, f)
			_ = file.Close()
			if err != nil {
				return err
			}

			env, err := openEnv(ctx, opts, envOptions{command: "import", quiet: true})
			if err != nil {
				return err
			}
			defer env.close()
			if err := env.svc.ImportSnapshot(ctx, snap); err != nil {
				return fmt.Errorf("import snapshot: %w", err)
			}
			env.logger.Info("command flow complete", "command", "import", "path", inPath)
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "", "snapshot format: json or yaml")
	return cmd
}

// resolveFormat prefers an explicit format over the path extension.
func resolveFormat(raw, path string) (app.Format, error) {
	if strings.TrimSpace(raw) != "" {
		return app.ParseFormat(raw)
	}
	if path == "-" {
		return app.FormatJSON, nil
	}
	return app.FormatFromPath(path), nil
}

func writeSnapshotFile(path string, snap app.Snapshot, format app.Format) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create export output dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}
	if err := app.EncodeSnapshot(f, snap, format); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close export file: %w", err)
	}
	return nil
}

func newShowCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the board as a table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			env, err := openEnv(ctx, opts, envOptions{command: "show", quiet: true})
			if err != nil {
				return err
			}
			defer env.close()
			columns, err := env.svc.Columns(ctx)
			if err != nil {
				return fmt.Errorf("list columns: %w", err)
			}
			_, err = fmt.Fprintln(opts.stdout, renderBoardTable(columns))
			return err
		},
	}
}

// renderBoardTable lays columns side by side with their rows underneath.
func renderBoardTable(columns []domain.Column) string {
	headers := make([]string, 0, len(columns))
	depth := 0
	for _, col := range columns {
		h := fmt.Sprintf("%s (%d)", col.Data.Name, len(col.Rows))
		if col.Data.WIPLimit > 0 {
			h = fmt.Sprintf("%s (%d/%d)", col.Data.Name, len(col.Rows), col.Data.WIPLimit)
		}
		if col.OverLimit() {
			h += " !"
		}
		headers = append(headers, h)
		depth = max(depth, len(col.Rows))
	}
	rows := make([][]string, depth)
	for i := range rows {
		rows[i] = make([]string, len(columns))
		for c, col := range columns {
			if i < len(col.Rows) {
				rows[i][c] = col.Rows[i].Data.Title
			}
		}
	}
	return renderTable(headers, rows)
}

func newEventsCommand(opts *rootOptions) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "events",
		Short: "List recent drag commits, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			env, err := openEnv(ctx, opts, envOptions{command: "events", quiet: true})
			if err != nil {
				return err
			}
			defer env.close()
			events, err := env.svc.ListDragEvents(ctx, servercommon.NormalizeEventLimit(limit))
			if err != nil {
				return fmt.Errorf("list drag events: %w", err)
			}
			rows := make([][]string, 0, len(events))
			for _, ev := range events {
				rows = append(rows, []string{
					strconv.FormatInt(ev.ID, 10),
					ev.OccurredAt.Local().Format("2006-01-02 15:04:05"),
					string(ev.Kind),
					ev.ItemID,
					formatPosition(ev.Kind, domain.Position{ColumnID: ev.FromColumnID, Index: ev.FromIndex}),
					formatPosition(ev.Kind, domain.Position{ColumnID: ev.ToColumnID, Index: ev.ToIndex}),
				})
			}
			_, err = fmt.Fprintln(opts.stdout, renderTable([]string{"ID", "AT", "KIND", "ITEM", "FROM", "TO"}, rows))
			return err
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum events to list")
	return cmd
}

func newInitCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a default config file if none exists",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := opts.resolvePaths()
			if err != nil {
				return err
			}
			wrote, err := config.WriteDefault(paths.ConfigPath, config.Default(paths.DBPath))
			if err != nil {
				return err
			}
			status := "exists"
			if wrote {
				status = "written"
			}
			_, err = fmt.Fprintf(opts.stdout, "config %s: %s\n", status, paths.ConfigPath)
			return err
		},
	}
}

func newPathsCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "paths",
		Short: "Print resolved config and data paths",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := opts.resolvePaths()
			if err != nil {
				return err
			}
			rows := [][]string{
				{"app", opts.appName},
				{"dev_mode", strconv.FormatBool(opts.devMode)},
				{"config", paths.ConfigPath},
				{"data_dir", paths.DataDir},
				{"db", paths.DBPath},
				{"snapshots", paths.SnapshotDir},
			}
			_, err = fmt.Fprintln(opts.stdout, renderTable([]string{"NAME", "PATH"}, rows))
			return err
		},
	}
}

var (
	tableHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("62")).Padding(0, 1)
	tableCellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

// renderTable renders rows under headers with a rounded border.
func renderTable(headers []string, rows [][]string) string {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("239"))).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return tableHeaderStyle
			}
			return tableCellStyle
		}).
		Headers(headers...).
		Rows(rows...).
		String()
}

// firstNonBlank returns the first non-blank value.
func firstNonBlank(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
