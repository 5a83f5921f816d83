package main

import (
	"fmt"
	"os"
	"strconv"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/muurk/rfqedit/internal/binding"
	"github.com/muurk/rfqedit/internal/config"
	"github.com/muurk/rfqedit/internal/logging"
	"github.com/muurk/rfqedit/internal/mockserver"
	"github.com/muurk/rfqedit/internal/report"
	"github.com/muurk/rfqedit/internal/rfq"
	"github.com/muurk/rfqedit/internal/rfqapi"
	"github.com/muurk/rfqedit/internal/session"
	"github.com/muurk/rfqedit/internal/tui"
)

// Command flags
var (
	configFile   string
	outputFormat string
	query        string
	forceInit    bool

	lineQty   string
	lineUOM   string
	linePrice string

	mockHost string
	mockPort int
	mockData string
)

func init() {
	// Connection and logging flags are resolved through config.Load, so
	// their names match the configuration keys.
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configFile, "config", "", "Config file (default: <config dir>/config.yaml)")
	pf.String("server", config.DefaultServer, "RFQ service base URL")
	pf.Int("rfq-id", config.DefaultRFQID, "Record id")
	pf.Duration("timeout", config.DefaultTimeout, "HTTP request timeout")
	pf.Int("retries", 0, "Extra attempts for failed reads")
	pf.String("log-level", "", "Log level (debug, info, warn, error); empty disables logging")
	pf.String("log-file", "", "Log file (default: <config dir>/rfqedit.log in the interactive view, stderr otherwise)")
	pf.String("layout", "", "Field layout file (default: <config dir>/layout.yaml)")

	showCmd.Flags().StringVar(&outputFormat, "format", "detailed", "Output format (detailed, compact, json)")
	showCmd.Flags().StringVar(&query, "query", "", "JMESPath expression applied to the JSON output")

	addLineCmd.Flags().StringVar(&lineQty, "qty", "", "Quantity")
	addLineCmd.Flags().StringVar(&lineUOM, "uom", "", "Unit of measure")
	addLineCmd.Flags().StringVar(&linePrice, "price", "", "Unit price")

	mockCmd.Flags().StringVar(&mockHost, "host", "127.0.0.1", "Listen address")
	mockCmd.Flags().IntVar(&mockPort, "port", 5012, "Listen port")
	mockCmd.Flags().StringVar(&mockData, "data", "", "YAML file to persist records in (default: in memory)")

	configInitCmd.Flags().BoolVar(&forceInit, "force", false, "Overwrite existing files")
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)

	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(setCmd)
	rootCmd.AddCommand(renameTabCmd)
	rootCmd.AddCommand(setLineCmd)
	rootCmd.AddCommand(addLineCmd)
	rootCmd.AddCommand(deleteLineCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(mockCmd)
	rootCmd.AddCommand(configCmd)
}

// setup resolves the configuration and starts logging. The interactive
// view owns the terminal, so its logs default to a file.
func setup(cmd *cobra.Command, interactive bool) (*config.Config, error) {
	cfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return nil, err
	}

	logFile := cfg.LogFile
	if logFile == "" && interactive {
		if logFile, err = config.GetLogPath(); err != nil {
			return nil, err
		}
	}
	if err := logging.Initialize(cfg.LogLevel, logFile); err != nil {
		return nil, err
	}
	logging.Debug("Configuration resolved",
		zap.String("server", cfg.Server),
		zap.Int("rfq_id", cfg.RFQID),
		zap.String("config_file", cfg.File),
	)
	return cfg, nil
}

func newClient(cfg *config.Config) *rfqapi.Client {
	client := rfqapi.NewClient(cfg.Server, cfg.RFQID)
	client.SetTimeout(cfg.Timeout)
	if cfg.Retries > 0 {
		client.SetRetry(cfg.Retries, rfqapi.DefaultRetryDelay)
	}
	return client
}

func loadLayout(cfg *config.Config) (*config.Layout, error) {
	path := cfg.Layout
	if path == "" {
		var err error
		if path, err = config.GetLayoutPath(); err != nil {
			return nil, err
		}
	}
	return config.LoadLayout(path)
}

func runTUI(cmd *cobra.Command, args []string) error {
	cfg, err := setup(cmd, true)
	if err != nil {
		return err
	}
	layout, err := loadLayout(cfg)
	if err != nil {
		return err
	}

	sess := session.New(cmd.Context(), newClient(cfg), binding.NewRegistry())
	app := tui.NewAppModel(sess, layout, cfg.RFQID, cfg.Server)

	program := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("interactive view failed: %w", err)
	}
	return nil
}

// showCmd prints the record and its lines
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the record and its lines",
	Long: `Fetch the record and its line table and print them.

The detailed format follows the field layout; json includes every record
field and the displayed text of every line cell.`,
	Example: `  # Show record 1 on the default server
  rfqedit show

  # Compact summary of another record
  rfqedit show --rfq-id 7 --format compact

  # Line totals of the first tab
  rfqedit show --format json --query 'tabs[0].lines[].line_total'`,
	Args: cobra.NoArgs,
	RunE: runShow,
}

func runShow(cmd *cobra.Command, args []string) error {
	cfg, err := setup(cmd, false)
	if err != nil {
		return err
	}

	r, err := report.Fetch(cmd.Context(), newClient(cfg), cfg.RFQID)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if query != "" {
		outputFormat = "json"
	}

	switch outputFormat {
	case "compact":
		fmt.Fprint(out, r.FormatCompact())
	case "json":
		data, err := r.JSON()
		if err != nil {
			return err
		}
		if query != "" {
			if data, err = report.Query(data, query); err != nil {
				return err
			}
		}
		if f, ok := out.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
			return report.Highlight(out, string(data)+"\n")
		}
		fmt.Fprintln(out, string(data))
	case "detailed":
		layout, err := loadLayout(cfg)
		if err != nil {
			return err
		}
		fmt.Fprint(out, r.FormatDetailed(layout))
	default:
		return fmt.Errorf("unknown format %q (use detailed, compact or json)", outputFormat)
	}
	return nil
}

var setCmd = &cobra.Command{
	Use:   "set FIELD VALUE",
	Short: "Write one record field",
	Long: `Write one record field and print its value as stored by the service.
The value is trimmed first, as in the interactive view.`,
	Example: `  rfqedit set supplier "ACME Ltd"`,
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := setup(cmd, false)
		if err != nil {
			return err
		}
		field := args[0]
		rec, err := newClient(cfg).PatchRecord(cmd.Context(), field, rfq.Normalize(args[1]))
		if err != nil {
			return fmt.Errorf("failed to write %s: %w", field, err)
		}
		text, _ := rfq.FormatField(field, rec[field])
		fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", field, text)
		return nil
	},
}

var renameTabCmd = &cobra.Command{
	Use:     "rename-tab INDEX NAME",
	Short:   "Rename a tab of the line table",
	Example: `  rfqedit rename-tab 0 "Pumps"`,
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		index, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid tab index %q", args[0])
		}
		if args[1] == "" {
			return fmt.Errorf("tab name must not be empty")
		}
		cfg, err := setup(cmd, false)
		if err != nil {
			return err
		}
		tab, err := newClient(cfg).PatchTab(cmd.Context(), index, args[1])
		if err != nil {
			return fmt.Errorf("failed to rename tab %d: %w", index, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Tab %d renamed to %q\n", tab.Index, tab.Name)
		return nil
	},
}

var setLineCmd = &cobra.Command{
	Use:   "set-line LINE_ID FIELD VALUE",
	Short: "Write one cell of a line",
	Long: `Write one cell of a line. Numeric fields (qty, unit_price, line_total)
are sent as numbers; empty or non-numeric text is sent as null.`,
	Example: `  rfqedit set-line 2 qty 5`,
	Args:    cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := setup(cmd, false)
		if err != nil {
			return err
		}
		edit := rfq.LineEdit{
			ID:    rfq.LineID(args[0]),
			Field: args[1],
			Value: rfq.CoerceCell(args[1], rfq.Normalize(args[2])),
		}
		if !newClient(cfg).PatchLine(cmd.Context(), edit.ID, edit.Payload()) {
			return fmt.Errorf("line %s was not saved", edit.ID)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Line %s: %s saved\n", edit.ID, edit.Field)
		return nil
	},
}

var addLineCmd = &cobra.Command{
	Use:     "add-line TAB ITEM",
	Short:   "Append a line to a tab",
	Example: `  rfqedit add-line 0 "Gate valve" --qty 4 --uom ea --price 19.50`,
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		tab, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid tab index %q", args[0])
		}
		cfg, err := setup(cmd, false)
		if err != nil {
			return err
		}
		line := rfq.NewLineFromText(tab, args[1], lineQty, lineUOM, linePrice)
		if err := newClient(cfg).AddLine(cmd.Context(), line); err != nil {
			return fmt.Errorf("failed to add line: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Line added to tab %d\n", tab)
		return nil
	},
}

var deleteLineCmd = &cobra.Command{
	Use:   "delete-line LINE_ID",
	Short: "Delete a line",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := setup(cmd, false)
		if err != nil {
			return err
		}
		id := rfq.LineID(args[0])
		if err := newClient(cfg).DeleteLine(cmd.Context(), id); err != nil {
			return fmt.Errorf("failed to delete line %s: %w", id, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Line %s deleted\n", id)
		return nil
	},
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check that the RFQ service answers",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := setup(cmd, false)
		if err != nil {
			return err
		}
		if err := newClient(cfg).Health(cmd.Context()); err != nil {
			return fmt.Errorf("%s: %s", cfg.Server, rfqapi.ShortMessage(err))
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: ok\n", cfg.Server)
		return nil
	},
}

// mockCmd runs a local RFQ service
var mockCmd = &cobra.Command{
	Use:   "mock",
	Short: "Run a local RFQ service with demo data",
	Long: `Serve the RFQ API with one seeded record (id 1) and two tabs of lines.

Records live in memory unless --data names a YAML file, which is created
on first start and rewritten after every change.`,
	Example: `  # Serve on the default address
  rfqedit mock

  # Keep changes between runs
  rfqedit mock --data ./rfq-demo.yaml --log-level debug`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := setup(cmd, false); err != nil {
			return err
		}
		srv, err := mockserver.New(&mockserver.Config{Host: mockHost, Port: mockPort, DataFile: mockData})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Serving RFQ API on http://%s:%d/api\n", mockHost, mockPort)
		return srv.Start()
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the config and layout files",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default config and layout files",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		written, err := config.Init(forceInit)
		for _, p := range written {
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", p)
		}
		if err != nil {
			return err
		}
		if len(written) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "Config files already exist (use --force to overwrite)")
		}
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config directory",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := config.GetConfigDir()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), dir)
		return nil
	},
}

// Compile-time check that the client serves reports.
var _ report.Fetcher = (*rfqapi.Client)(nil)
