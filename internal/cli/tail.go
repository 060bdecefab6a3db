package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/five82/frontdesk/internal/protocol"
	"github.com/five82/frontdesk/internal/realtime"
	"github.com/five82/frontdesk/internal/ui"
)

func tailCmd(flags *globalFlags) *cobra.Command {
	var includeLocal, asJSON bool

	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Stream notifications until interrupted",
		Long: `Connect to the server and print every event that would raise a
notification in the TUI: new customer messages, reservation changes and
vacation updates. Changes made from this machine are hidden unless
--local is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			ctx := cmd.Context()
			s, err := openSession(ctx, flags)
			if err != nil {
				return err
			}
			defer func() {
				if cerr := s.close(); err == nil {
					err = cerr
				}
			}()

			ch, unsubscribe := s.rt.Engine.Notifications().Subscribe(128)
			defer unsubscribe()

			out := cmd.OutOrStdout()
			for {
				select {
				case <-ctx.Done():
					return nil
				case n, ok := <-ch:
					if !ok {
						return nil
					}
					if n.Local && !includeLocal {
						continue
					}
					line, err := formatNotification(n, asJSON)
					if err != nil {
						return err
					}
					fmt.Fprintln(out, line)
				}
			}
		},
	}

	cmd.Flags().BoolVar(&includeLocal, "local", false, "include changes made from this machine")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print one JSON object per event")
	return cmd
}

type notificationJSON struct {
	Type  string          `json:"type"`
	Data  json.RawMessage `json:"data,omitempty"`
	TS    string          `json:"ts"`
	Local bool            `json:"local,omitempty"`
}

// formatNotification renders one tail line, colored by event kind.
func formatNotification(n realtime.Notification, asJSON bool) (string, error) {
	if asJSON {
		b, err := json.Marshal(notificationJSON{
			Type:  n.Type,
			Data:  n.Data,
			TS:    n.TS.UTC().Format(time.RFC3339),
			Local: n.Local,
		})
		if err != nil {
			return "", fmt.Errorf("encode notification: %w", err)
		}
		return string(b), nil
	}

	ts := color.New(color.FgHiBlack).Sprint(n.TS.Local().Format("15:04:05"))
	label := eventColor(n.Type).Sprintf("[%s]", ui.EventLabel(n.Type))
	line := ts + " " + label + " " + ui.DescribeNotification(n)
	if n.Local {
		line += color.New(color.Faint).Sprint(" (local)")
	}
	return line, nil
}

func eventColor(typ string) *color.Color {
	switch typ {
	case protocol.TypeConversationMessage:
		return color.New(color.FgMagenta, color.Bold)
	case protocol.TypeReservationCreated, protocol.TypeReservationReinstated:
		return color.New(color.FgGreen)
	case protocol.TypeReservationCancelled:
		return color.New(color.FgRed)
	case protocol.TypeVacationUpdated:
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgCyan)
	}
}
