package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/five82/frontdesk/internal/protocol"
)

func sendCmd(flags *globalFlags) *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "send <wa_id> <message...>",
		Short: "Send a chat message to a customer",
		Long: `Send a message over the socket. If the socket cannot deliver it
before the queue timeout the message is posted through the REST API instead.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			waID := protocol.WaID(strings.TrimSpace(args[0]))
			text := strings.Join(args[1:], " ")

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			s, err := openSession(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer func() {
				if cerr := s.close(); err == nil {
					err = cerr
				}
			}()

			if err := s.rt.Engine.SendChatMessage(ctx, waID, text); err != nil {
				return fmt.Errorf("send to %s: %w", waID, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "sent to %s\n", waID)
			return nil
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "give up after this long")
	return cmd
}
