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

package snapshot

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/innovationmech/switkv/internal/switkv/config"
	"github.com/innovationmech/switkv/pkg/coordination"
)

// snapshotEntry is one stored key in a snapshot file. Value is a pointer so
// entries stored without a value stay valueless when restored.
type snapshotEntry struct {
	Key   string  `yaml:"key"`
	Value *string `yaml:"value,omitempty"`
	Flags uint64  `yaml:"flags,omitempty"`
}

type snapshotFile struct {
	Entries []snapshotEntry `yaml:"entries"`
}

// NewSnapshotCmd creates the 'snapshot' command group for saving the store
// to a YAML file and loading it back.
func NewSnapshotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Save or restore the key/value store",
	}

	cmd.AddCommand(newSaveCmd())
	cmd.AddCommand(newRestoreCmd())
	return cmd
}

func newSaveCmd() *cobra.Command {
	var prefix string

	cmd := &cobra.Command{
		Use:   "save <file>",
		Short: "Write all entries to a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := config.NewClient()
			if err != nil {
				return err
			}

			pairs, _, err := client.KV().List(cmd.Context(), prefix, nil)
			if err != nil {
				return fmt.Errorf("list %q: %w", prefix, err)
			}

			snap := snapshotFile{Entries: make([]snapshotEntry, 0, len(pairs))}
			for _, pair := range pairs {
				entry := snapshotEntry{Key: pair.Key, Flags: pair.Flags}
				if pair.Value != nil {
					v := string(pair.Value)
					entry.Value = &v
				}
				snap.Entries = append(snap.Entries, entry)
			}

			data, err := yaml.Marshal(&snap)
			if err != nil {
				return fmt.Errorf("encode snapshot: %w", err)
			}
			if err := os.WriteFile(args[0], data, 0o644); err != nil {
				return fmt.Errorf("write snapshot: %w", err)
			}
			color.Green("saved %d entries to %s", len(snap.Entries), args[0])
			return nil
		},
	}

	cmd.Flags().StringVar(&prefix, "prefix", "", "only save entries under this prefix")
	return cmd
}

func newRestoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore <file>",
		Short: "Load entries from a YAML file into the store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := config.NewClient()
			if err != nil {
				return err
			}

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read snapshot: %w", err)
			}
			var snap snapshotFile
			if err := yaml.Unmarshal(data, &snap); err != nil {
				return fmt.Errorf("decode snapshot: %w", err)
			}

			for _, entry := range snap.Entries {
				pair := &coordination.KVPair{Key: entry.Key, Flags: entry.Flags}
				if entry.Value != nil {
					pair.Value = []byte(*entry.Value)
				}
				if _, _, err := client.KV().Put(cmd.Context(), pair, nil); err != nil {
					return fmt.Errorf("restore %q: %w", entry.Key, err)
				}
			}
			color.Green("restored %d entries from %s", len(snap.Entries), args[0])
			return nil
		},
	}
}
