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

package del

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/innovationmech/switkv/internal/switkv/config"
	"github.com/innovationmech/switkv/pkg/coordination"
)

// NewDeleteCmd creates the 'delete' command. Deleting a key that does not
// exist succeeds; with --recurse every key under the prefix is removed.
func NewDeleteCmd() *cobra.Command {
	var (
		recurse bool
		cas     uint64
	)

	cmd := &cobra.Command{
		Use:   "delete <key>",
		Short: "Delete a key, or a whole prefix with --recurse",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := config.NewClient()
			if err != nil {
				return err
			}
			key := args[0]

			switch {
			case recurse:
				if _, err := client.KV().DeleteTree(cmd.Context(), key, nil); err != nil {
					return fmt.Errorf("delete tree %q: %w", key, err)
				}
				color.Green("deleted prefix %q", key)
			case cmd.Flags().Changed("cas"):
				pair := &coordination.KVPair{Key: key, ModifyIndex: cas}
				ok, _, err := client.KV().DeleteCAS(cmd.Context(), pair, nil)
				if err != nil {
					return fmt.Errorf("delete %q: %w", key, err)
				}
				if !ok {
					color.Red("delete %q rejected, index %d is stale", key, cas)
					return nil
				}
				color.Green("deleted %q", key)
			default:
				if _, err := client.KV().Delete(cmd.Context(), key, nil); err != nil {
					return fmt.Errorf("delete %q: %w", key, err)
				}
				color.Green("deleted %q", key)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&recurse, "recurse", false, "delete every key under the given prefix")
	cmd.Flags().Uint64Var(&cas, "cas", 0, "only delete when the entry's modify index matches")
	return cmd
}
