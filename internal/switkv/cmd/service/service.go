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

package service

import (
	"fmt"
	"sort"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/innovationmech/switkv/internal/switkv/config"
	"github.com/innovationmech/switkv/pkg/coordination"
	"github.com/innovationmech/switkv/pkg/discovery"
)

// NewServiceCmd creates the 'service' command group for registering
// instances with the agent and resolving them back.
func NewServiceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "service",
		Short: "Register and resolve service instances",
	}

	cmd.AddCommand(newRegisterCmd())
	cmd.AddCommand(newDeregisterCmd())
	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newResolveCmd())
	return cmd
}

func newRegisterCmd() *cobra.Command {
	var (
		id      string
		address string
		port    int
		tags    []string
	)

	cmd := &cobra.Command{
		Use:   "register <name>",
		Short: "Register a service instance with the agent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := config.NewClient()
			if err != nil {
				return err
			}
			reg := &coordination.AgentServiceRegistration{
				ID:      id,
				Name:    args[0],
				Address: address,
				Port:    port,
				Tags:    tags,
			}
			if err := client.Agent().ServiceRegister(cmd.Context(), reg); err != nil {
				return fmt.Errorf("register service %q: %w", args[0], err)
			}
			color.Green("registered %q", args[0])
			return nil
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "instance ID (defaults to the service name)")
	cmd.Flags().StringVar(&address, "address", "", "address the instance serves on")
	cmd.Flags().IntVar(&port, "port", 0, "port the instance serves on")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "tag to attach (repeatable)")
	return cmd
}

func newDeregisterCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "deregister <id>",
		Short: "Deregister a service instance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := config.NewClient()
			if err != nil {
				return err
			}
			if err := client.Agent().ServiceDeregister(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("deregister %q: %w", args[0], err)
			}
			color.Green("deregistered %q", args[0])
			return nil
		},
	}
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List services registered with the agent",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := config.NewClient()
			if err != nil {
				return err
			}
			services, err := client.Agent().Services(cmd.Context())
			if err != nil {
				return fmt.Errorf("list services: %w", err)
			}

			ids := make([]string, 0, len(services))
			for id := range services {
				ids = append(ids, id)
			}
			sort.Strings(ids)

			out := cmd.OutOrStdout()
			for _, sid := range ids {
				svc := services[sid]
				fmt.Fprintf(out, "%s\t%s\t%s:%d\n", sid, svc.Service, svc.Address, svc.Port)
			}
			return nil
		},
	}
}

func newResolveCmd() *cobra.Command {
	var random bool

	cmd := &cobra.Command{
		Use:   "resolve <name>",
		Short: "Pick a healthy instance of a service",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sd, err := discovery.NewServiceDiscovery(viper.GetString("agent.address"))
			if err != nil {
				return err
			}

			var instance string
			if random {
				instance, err = sd.GetInstanceRandom(args[0])
			} else {
				instance, err = sd.GetInstanceRoundRobin(args[0])
			}
			if err != nil {
				return fmt.Errorf("resolve %q: %w", args[0], err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), instance)
			return nil
		},
	}

	cmd.Flags().BoolVar(&random, "random", false, "pick at random instead of round robin")
	return cmd
}
