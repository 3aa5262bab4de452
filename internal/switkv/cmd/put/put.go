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

package put

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/innovationmech/switkv/internal/switkv/config"
	"github.com/innovationmech/switkv/pkg/coordination"
)

// NewPutCmd creates the 'put' command. The value argument is optional: a put
// without one stores the key with a null value, which is still a real entry
// the store reports as existing.
func NewPutCmd() *cobra.Command {
	var (
		flags uint64
		cas   uint64
	)

	cmd := &cobra.Command{
		Use:   "put <key> [value]",
		Short: "Store a value under a key",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := config.NewClient()
			if err != nil {
				return err
			}

			pair := &coordination.KVPair{Key: args[0], Flags: flags}
			if len(args) == 2 {
				pair.Value = []byte(args[1])
			}

			if cmd.Flags().Changed("cas") {
				pair.ModifyIndex = cas
				ok, _, err := client.KV().CAS(cmd.Context(), pair, nil)
				if err != nil {
					return fmt.Errorf("put %q: %w", pair.Key, err)
				}
				if !ok {
					color.Red("put %q rejected, index %d is stale", pair.Key, cas)
					return nil
				}
				color.Green("put %q ok", pair.Key)
				return nil
			}

			if _, _, err := client.KV().Put(cmd.Context(), pair, nil); err != nil {
				return fmt.Errorf("put %q: %w", pair.Key, err)
			}
			color.Green("put %q ok", pair.Key)
			return nil
		},
	}

	cmd.Flags().Uint64Var(&flags, "flags", 0, "opaque flags stored with the entry")
	cmd.Flags().Uint64Var(&cas, "cas", 0, "only write when the entry's modify index matches (0 means create only)")
	return cmd
}
