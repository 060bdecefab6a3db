package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/five82/frontdesk/internal/protocol"
	"github.com/five82/frontdesk/internal/state"
)

func statusCmd(flags *globalFlags) *cobra.Command {
	var wait time.Duration
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Connect, wait for the first snapshot and print a summary",
		Args:  cobra.NoArgs,
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

			if s.waitConnected(ctx, wait) {
				s.waitSynced(ctx, wait)
			}
			snap := s.rt.Engine.State()
			metrics, _ := s.rt.Engine.Metrics()
			out := cmd.OutOrStdout()
			if asJSON {
				return writeStateJSON(out, snap, metrics.Data)
			}
			writeStatus(out, snap, s.rt.Engine.QueueLen())
			if len(metrics.Data) > 0 {
				fmt.Fprintf(out, "Metrics:       %s\n", metrics.Data)
			}
			return nil
		},
	}

	cmd.Flags().DurationVar(&wait, "wait", 5*time.Second, "how long to wait for the server")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full dataset as JSON")
	return cmd
}

type stateJSON struct {
	Connected     bool                                     `json:"connected"`
	LastUpdate    *time.Time                               `json:"last_update,omitempty"`
	Reservations  map[protocol.WaID][]protocol.Reservation `json:"reservations"`
	Conversations map[protocol.WaID][]protocol.Message     `json:"conversations"`
	Vacations     []protocol.VacationPeriod                `json:"vacations"`
	Metrics       json.RawMessage                          `json:"metrics,omitempty"`
}

func writeStateJSON(w io.Writer, snap state.Snapshot, metrics json.RawMessage) error {
	doc := stateJSON{
		Metrics:       metrics,
		Connected:     snap.IsConnected,
		Reservations:  snap.Reservations,
		Conversations: snap.Conversations,
		Vacations:     snap.Vacations,
	}
	if !snap.LastUpdate.IsZero() {
		t := snap.LastUpdate
		doc.LastUpdate = &t
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// writeStatus prints a short human summary of snap.
func writeStatus(w io.Writer, snap state.Snapshot, queued int) {
	conn := color.New(color.FgGreen).Sprint("connected")
	if !snap.IsConnected {
		conn = color.New(color.FgRed).Sprint("offline")
		if snap.LastError != nil {
			conn += fmt.Sprintf(" (%v)", snap.LastError)
		}
	}
	fmt.Fprintf(w, "Server:        %s\n", conn)

	active, cancelled := 0, 0
	for _, list := range snap.Reservations {
		for _, r := range list {
			if r.Cancelled {
				cancelled++
			} else {
				active++
			}
		}
	}
	customers := make(map[protocol.WaID]bool)
	for id := range snap.Reservations {
		customers[id] = true
	}
	for id := range snap.Conversations {
		customers[id] = true
	}

	fmt.Fprintf(w, "Customers:     %d\n", len(customers))
	fmt.Fprintf(w, "Reservations:  %d active, %d cancelled\n", active, cancelled)
	fmt.Fprintf(w, "Conversations: %d\n", len(snap.Conversations))
	if queued > 0 {
		fmt.Fprintf(w, "Queued:        %s\n", color.New(color.FgYellow).Sprint(queued))
	}
	if snap.LastUpdate.IsZero() {
		fmt.Fprintln(w, "Last update:   never")
	} else {
		fmt.Fprintf(w, "Last update:   %s\n", snap.LastUpdate.Local().Format("2006-01-02 15:04:05"))
	}

	if len(snap.Vacations) == 0 {
		return
	}
	periods := append([]protocol.VacationPeriod(nil), snap.Vacations...)
	sort.Slice(periods, func(i, j int) bool { return periods[i].Start < periods[j].Start })
	fmt.Fprintln(w, "Vacations:")
	for _, p := range periods {
		line := fmt.Sprintf("  %s .. %s", p.Start, p.End)
		if p.Title != "" {
			line += "  " + p.Title
		}
		fmt.Fprintln(w, line)
	}
}
