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

package get

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/innovationmech/switkv/internal/switkv/config"
)

func NewGetCmd() *cobra.Command {
	var detailed bool

	cmd := &cobra.Command{
		Use:   "get <key>",
		Short: "Read the value stored under a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGet(cmd, args[0], detailed)
		},
	}

	cmd.Flags().BoolVar(&detailed, "detailed", false, "show the full entry, indexes and lock session included")
	return cmd
}

func runGet(cmd *cobra.Command, key string, detailed bool) error {
	client, err := config.NewClient()
	if err != nil {
		return err
	}

	pair, meta, err := client.KV().Get(cmd.Context(), key, nil)
	if err != nil {
		return fmt.Errorf("get %q: %w", key, err)
	}
	if pair == nil {
		color.Yellow("key %q not found", key)
		return nil
	}

	if !detailed {
		if pair.Value == nil {
			color.Yellow("key %q has no value", key)
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(pair.Value))
		return nil
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Key:         %s\n", pair.Key)
	if pair.Value == nil {
		fmt.Fprintf(out, "Value:       (none)\n")
	} else {
		fmt.Fprintf(out, "Value:       %s\n", string(pair.Value))
	}
	fmt.Fprintf(out, "Flags:       %d\n", pair.Flags)
	fmt.Fprintf(out, "CreateIndex: %d\n", pair.CreateIndex)
	fmt.Fprintf(out, "ModifyIndex: %d\n", pair.ModifyIndex)
	fmt.Fprintf(out, "LockIndex:   %d\n", pair.LockIndex)
	if pair.Session != "" {
		fmt.Fprintf(out, "Session:     %s\n", pair.Session)
	}
	fmt.Fprintf(out, "LastIndex:   %d\n", meta.LastIndex)
	return nil
}
