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

package watch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/innovationmech/switkv/internal/switkv/config"
	"github.com/innovationmech/switkv/pkg/coordination"
)

// NewWatchCmd creates the 'watch' command. It runs blocking queries against
// a key in a loop and prints each change until the context is canceled or
// --max-events changes have been seen.
func NewWatchCmd() *cobra.Command {
	var (
		wait      time.Duration
		maxEvents int
	)

	cmd := &cobra.Command{
		Use:   "watch <key>",
		Short: "Watch a key and print every change",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := config.NewClient()
			if err != nil {
				return err
			}
			return runWatch(cmd, client, args[0], wait, maxEvents)
		},
	}

	cmd.Flags().DurationVar(&wait, "wait", 30*time.Second, "how long each blocking query may hold")
	cmd.Flags().IntVar(&maxEvents, "max-events", 0, "stop after this many changes (0 means run until interrupted)")
	return cmd
}

func runWatch(cmd *cobra.Command, client *coordination.Client, key string, wait time.Duration, maxEvents int) error {
	out := cmd.OutOrStdout()
	var lastIndex uint64
	seen := 0

	for {
		q := &coordination.QueryOptions{WaitIndex: lastIndex, WaitTime: wait}
		pair, meta, err := client.KV().Get(cmd.Context(), key, q)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return fmt.Errorf("watch %q: %w", key, err)
		}

		// An unchanged index means the wait expired without a write.
		if meta.LastIndex == lastIndex {
			continue
		}
		if lastIndex != 0 {
			seen++
			switch {
			case pair == nil:
				color.Yellow("%s deleted", key)
			case pair.Value == nil:
				fmt.Fprintf(out, "%s\t(none)\n", key)
			default:
				fmt.Fprintf(out, "%s\t%s\n", key, string(pair.Value))
			}
			if maxEvents > 0 && seen >= maxEvents {
				return nil
			}
		}
		lastIndex = meta.LastIndex
	}
}
