package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/camscan-io/camscan/internal/rtsp"
	"github.com/spf13/cobra"
)

func testCmd(props *CommandProps) *cobra.Command {
	var username string
	var password string
	var timeout int

	cmd := &cobra.Command{
		Use:   "test <rtsp-url>",
		Short: "Validate a single rtsp stream",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(
					ctx,
					time.Duration(timeout)*time.Second,
				)
				defer cancel()
			}

			var creds *rtsp.Credentials

			if username != "" || password != "" {
				creds = &rtsp.Credentials{
					Username: username,
					Password: password,
				}
			}

			outcome := props.Service.TestConnection(ctx, args[0], creds)

			out, err := json.MarshalIndent(outcome, "", "  ")

			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), string(out))

			if !outcome.Success {
				return errors.New("stream validation failed")
			}

			return nil
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "username for stream authentication")
	cmd.Flags().StringVarP(&password, "password", "p", "", "password for stream authentication")
	cmd.Flags().IntVarP(&timeout, "timeout", "t", 0, "per-attempt timeout in seconds")

	return cmd
}
