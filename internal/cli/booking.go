package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/five82/frontdesk/internal/app"
	"github.com/five82/frontdesk/internal/backend"
	"github.com/five82/frontdesk/internal/protocol"
)

func bookCmd(flags *globalFlags) *cobra.Command {
	var (
		name    string
		resType int
	)

	cmd := &cobra.Command{
		Use:   "book <wa_id> <date> <time_slot>",
		Short: "Book a reservation",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := backend.ReservationRequest{
				WaID:         protocol.WaID(strings.TrimSpace(args[0])),
				CustomerName: strings.TrimSpace(name),
				Date:         strings.TrimSpace(args[1]),
				TimeSlot:     strings.TrimSpace(args[2]),
			}
			if req.WaID == "" || req.Date == "" || req.TimeSlot == "" {
				return errors.New("wa_id, date and time_slot are required")
			}
			if cmd.Flags().Changed("type") {
				req.Type = &resType
			}

			rt, err := app.Open(flags.options())
			if err != nil {
				return err
			}
			defer rt.Close()

			res, err := rt.Engine.CreateReservation(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "reservation %d booked for %s on %s %s\n",
				res.ID, req.WaID, orDefault(res.Date, req.Date), orDefault(res.TimeSlot, req.TimeSlot))
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "customer name")
	cmd.Flags().IntVar(&resType, "type", 0, "reservation type")
	return cmd
}

func modifyCmd(flags *globalFlags) *cobra.Command {
	var (
		date     string
		timeSlot string
		name     string
		resType  int
	)

	cmd := &cobra.Command{
		Use:   "modify <reservation_id>",
		Short: "Move or rename a reservation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseReservationID(args[0])
			if err != nil {
				return err
			}
			req := backend.ReservationRequest{
				ID:           id,
				Date:         strings.TrimSpace(date),
				TimeSlot:     strings.TrimSpace(timeSlot),
				CustomerName: strings.TrimSpace(name),
			}
			if cmd.Flags().Changed("type") {
				req.Type = &resType
			}
			if req.Date == "" && req.TimeSlot == "" && req.CustomerName == "" && req.Type == nil {
				return errors.New("nothing to change: set --date, --time, --name or --type")
			}

			rt, err := app.Open(flags.options())
			if err != nil {
				return err
			}
			defer rt.Close()

			if _, err := rt.Engine.ModifyReservation(cmd.Context(), req); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "reservation %d modified\n", id)
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "new date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&timeSlot, "time", "", "new time slot")
	cmd.Flags().StringVar(&name, "name", "", "new customer name")
	cmd.Flags().IntVar(&resType, "type", 0, "new reservation type")
	return cmd
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
