package status

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/innovationmech/switkv/internal/switkv/config"
)

func NewStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show cluster status",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "leader",
		Short: "Print the current leader address",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := config.NewClient()
			if err != nil {
				return err
			}
			leader, err := client.Status().Leader(cmd.Context())
			if err != nil {
				return fmt.Errorf("status leader: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), leader)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "peers",
		Short: "Print the raft peer addresses",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := config.NewClient()
			if err != nil {
				return err
			}
			peers, err := client.Status().Peers(cmd.Context())
			if err != nil {
				return fmt.Errorf("status peers: %w", err)
			}
			for _, peer := range peers {
				fmt.Fprintln(cmd.OutOrStdout(), peer)
			}
			return nil
		},
	})

	return cmd
}
