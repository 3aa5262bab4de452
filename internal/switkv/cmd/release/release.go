package release

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/innovationmech/switkv/internal/switkv/config"
	"github.com/innovationmech/switkv/pkg/coordination"
)

func NewReleaseCmd() *cobra.Command {
	var sessionID string

	cmd := &cobra.Command{
		Use:   "release <key>",
		Short: "Release the lock on a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := config.NewClient()
			if err != nil {
				return err
			}
			key := args[0]

			pair := &coordination.KVPair{Key: key, Session: sessionID}
			ok, _, err := client.KV().Release(cmd.Context(), pair, nil)
			if err != nil {
				return fmt.Errorf("release %q: %w", key, err)
			}
			if !ok {
				color.Red("session %q does not hold the lock on %q", sessionID, key)
				return nil
			}
			color.Green("released %q", key)
			return nil
		},
	}

	cmd.Flags().StringVar(&sessionID, "session", "", "session that holds the lock")
	_ = cmd.MarkFlagRequired("session")
	return cmd
}
