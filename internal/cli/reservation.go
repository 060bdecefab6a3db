package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/five82/frontdesk/internal/app"
	"github.com/five82/frontdesk/internal/realtime"
)

func cancelCmd(flags *globalFlags) *cobra.Command {
	return reservationCmd(flags, "cancel", "Cancel a reservation", "cancelled",
		func(ctx context.Context, e *realtime.Engine, id int64) error {
			_, err := e.CancelReservation(ctx, id)
			return err
		})
}

func reinstateCmd(flags *globalFlags) *cobra.Command {
	return reservationCmd(flags, "reinstate", "Reinstate a cancelled reservation", "reinstated",
		func(ctx context.Context, e *realtime.Engine, id int64) error {
			_, err := e.ReinstateReservation(ctx, id)
			return err
		})
}

// reservationCmd builds a REST-only command; no socket is opened.
func reservationCmd(flags *globalFlags, use, short, done string, run func(context.Context, *realtime.Engine, int64) error) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <reservation_id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseReservationID(args[0])
			if err != nil {
				return err
			}
			rt, err := app.Open(flags.options())
			if err != nil {
				return err
			}
			defer rt.Close()

			if err := run(cmd.Context(), rt.Engine, id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "reservation %d %s\n", id, done)
			return nil
		},
	}
}

func parseReservationID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid reservation id %q", raw)
	}
	return id, nil
}
