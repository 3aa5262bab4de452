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

package list

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/innovationmech/switkv/internal/switkv/config"
)

// NewListCmd creates the 'list' command. Without a prefix argument it lists
// the entire store; a prefix with no entries under it prints nothing.
func NewListCmd() *cobra.Command {
	var (
		keysOnly  bool
		separator string
	)

	cmd := &cobra.Command{
		Use:   "list [prefix]",
		Short: "List entries under a prefix",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := config.NewClient()
			if err != nil {
				return err
			}
			prefix := ""
			if len(args) == 1 {
				prefix = args[0]
			}
			out := cmd.OutOrStdout()

			if keysOnly || separator != "" {
				keys, _, err := client.KV().Keys(cmd.Context(), prefix, separator, nil)
				if err != nil {
					return fmt.Errorf("list keys %q: %w", prefix, err)
				}
				for _, k := range keys {
					fmt.Fprintln(out, k)
				}
				return nil
			}

			pairs, _, err := client.KV().List(cmd.Context(), prefix, nil)
			if err != nil {
				return fmt.Errorf("list %q: %w", prefix, err)
			}
			for _, pair := range pairs {
				if pair.Value == nil {
					fmt.Fprintf(out, "%s\t%s\n", color.CyanString(pair.Key), "(none)")
					continue
				}
				fmt.Fprintf(out, "%s\t%s\n", color.CyanString(pair.Key), string(pair.Value))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&keysOnly, "keys", false, "print key names only")
	cmd.Flags().StringVar(&separator, "separator", "", "collapse keys past this separator (implies --keys)")
	return cmd
}
