// Copyright © 2025 jackelyj <dreamerlyj@gmail.com>
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.
//

package session

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/innovationmech/switkv/internal/switkv/config"
	"github.com/innovationmech/switkv/pkg/coordination"
)

// NewSessionCmd creates the 'session' command group.
func NewSessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Manage sessions used for lock ownership",
	}

	cmd.AddCommand(newCreateCmd())
	cmd.AddCommand(newDestroyCmd())
	cmd.AddCommand(newInfoCmd())
	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newRenewCmd())
	return cmd
}

func newCreateCmd() *cobra.Command {
	var (
		name      string
		ttl       string
		behavior  string
		lockDelay time.Duration
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a session and print its ID",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := config.NewClient()
			if err != nil {
				return err
			}
			entry := &coordination.SessionEntry{
				Name:      name,
				TTL:       ttl,
				Behavior:  behavior,
				LockDelay: lockDelay,
			}
			id, _, err := client.Session().Create(cmd.Context(), entry, nil)
			if err != nil {
				return fmt.Errorf("create session: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "human readable session name")
	cmd.Flags().StringVar(&ttl, "ttl", "", "session TTL, e.g. 30s")
	cmd.Flags().StringVar(&behavior, "behavior", coordination.SessionBehaviorRelease, "release or delete held locks on invalidation")
	cmd.Flags().DurationVar(&lockDelay, "lock-delay", 0, "lock-delay applied after the session is invalidated")
	return cmd
}

func newDestroyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "destroy <id>",
		Short: "Destroy a session, releasing or deleting its locks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := config.NewClient()
			if err != nil {
				return err
			}
			if _, err := client.Session().Destroy(cmd.Context(), args[0], nil); err != nil {
				return fmt.Errorf("destroy session %q: %w", args[0], err)
			}
			color.Green("destroyed session %q", args[0])
			return nil
		},
	}
}

func newInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info <id>",
		Short: "Show a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := config.NewClient()
			if err != nil {
				return err
			}
			entry, _, err := client.Session().Info(cmd.Context(), args[0], nil)
			if err != nil {
				return fmt.Errorf("session info %q: %w", args[0], err)
			}
			if entry == nil {
				color.Yellow("session %q not found", args[0])
				return nil
			}
			printSession(cmd, entry)
			return nil
		},
	}
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := config.NewClient()
			if err != nil {
				return err
			}
			entries, _, err := client.Session().List(cmd.Context(), nil)
			if err != nil {
				return fmt.Errorf("list sessions: %w", err)
			}
			out := cmd.OutOrStdout()
			for _, entry := range entries {
				fmt.Fprintf(out, "%s\t%s\n", entry.ID, entry.Name)
			}
			return nil
		},
	}
}

func newRenewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "renew <id>",
		Short: "Renew a session's TTL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := config.NewClient()
			if err != nil {
				return err
			}
			entry, _, err := client.Session().Renew(cmd.Context(), args[0], nil)
			if err != nil {
				return fmt.Errorf("renew session %q: %w", args[0], err)
			}
			if entry == nil {
				color.Yellow("session %q not found", args[0])
				return nil
			}
			color.Green("renewed session %q", entry.ID)
			return nil
		},
	}
}

func printSession(cmd *cobra.Command, entry *coordination.SessionEntry) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "ID:        %s\n", entry.ID)
	if entry.Name != "" {
		fmt.Fprintf(out, "Name:      %s\n", entry.Name)
	}
	fmt.Fprintf(out, "Node:      %s\n", entry.Node)
	fmt.Fprintf(out, "Behavior:  %s\n", entry.Behavior)
	if entry.TTL != "" {
		fmt.Fprintf(out, "TTL:       %s\n", entry.TTL)
	}
	fmt.Fprintf(out, "LockDelay: %s\n", entry.LockDelay)
}
