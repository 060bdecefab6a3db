package cli

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/five82/frontdesk/internal/config"
	"github.com/five82/frontdesk/internal/logtail"
)

func logsCmd(flags *globalFlags) *cobra.Command {
	var (
		lines     int
		level     string
		component string
		file      string
		noColor   bool
	)

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show recent log entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := strings.TrimSpace(file)
			if path == "" {
				cfg, err := config.Load(flags.configPath)
				if err != nil {
					return fmt.Errorf("load config: %w", err)
				}
				path = cfg.EngineLogPath()
			}

			minLevel, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
			if err != nil {
				return fmt.Errorf("level %q: %w", level, err)
			}

			entries, err := logtail.ReadEntries(path, lines)
			if err != nil {
				return err
			}
			entries = logtail.Filter(entries, minLevel, component)

			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintf(out, "no log entries in %s\n", path)
				return nil
			}
			render := logtail.Colorize
			if noColor || color.NoColor {
				render = logtail.Format
			}
			for _, e := range entries {
				fmt.Fprintln(out, render(e))
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&lines, "lines", "n", 200, "read the last n lines (0 for all)")
	cmd.Flags().StringVar(&level, "level", "info", "minimum level")
	cmd.Flags().StringVar(&component, "component", "", "only entries from this component (realtime, cache, ui, app)")
	cmd.Flags().StringVar(&file, "file", "", "log file (default from config)")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "disable colors")
	return cmd
}
