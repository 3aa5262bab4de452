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

package lock

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/innovationmech/switkv/internal/switkv/config"
	"github.com/innovationmech/switkv/pkg/coordination"
)

// NewLockCmd creates the 'lock' command. It acquires the lock on a key with
// an existing session, or creates a session first when --session is not
// given. Acquisition fails without error when any session already holds the
// lock, the caller's own included.
func NewLockCmd() *cobra.Command {
	var (
		sessionID string
		ttl       string
		behavior  string
		value     string
	)

	cmd := &cobra.Command{
		Use:   "lock <key>",
		Short: "Acquire the lock on a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := config.NewClient()
			if err != nil {
				return err
			}
			key := args[0]
			created := false

			if sessionID == "" {
				entry := &coordination.SessionEntry{
					Name:     "switkv-lock/" + key,
					TTL:      ttl,
					Behavior: behavior,
				}
				id, _, err := client.Session().Create(cmd.Context(), entry, nil)
				if err != nil {
					return fmt.Errorf("create session: %w", err)
				}
				sessionID = id
				created = true
			}

			pair := &coordination.KVPair{Key: key, Session: sessionID}
			if value != "" {
				pair.Value = []byte(value)
			}
			ok, _, err := client.KV().Acquire(cmd.Context(), pair, nil)
			if err != nil {
				return fmt.Errorf("acquire %q: %w", key, err)
			}

			if !ok {
				if created {
					// Roll back the session we just made so it does not
					// linger with nothing to hold.
					_, _ = client.Session().Destroy(cmd.Context(), sessionID, nil)
				}
				color.Red("lock %q is already held", key)
				return nil
			}

			color.Green("locked %q", key)
			fmt.Fprintln(cmd.OutOrStdout(), sessionID)
			return nil
		},
	}

	cmd.Flags().StringVar(&sessionID, "session", "", "session to acquire with (created when empty)")
	cmd.Flags().StringVar(&ttl, "ttl", "30s", "TTL for the created session")
	cmd.Flags().StringVar(&behavior, "behavior", coordination.SessionBehaviorRelease, "what session invalidation does to held locks (release or delete)")
	cmd.Flags().StringVar(&value, "value", "", "value stored with the lock entry")
	return cmd
}
