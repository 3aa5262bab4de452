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

package config

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"

	"github.com/innovationmech/switkv/pkg/coordination"
	"github.com/innovationmech/switkv/pkg/logger"
)

var (
	cfg  *Config
	once sync.Once
)

// Config carries the tool configuration, read from switkv.yaml when one is
// present and overridable through SWITKV_* environment variables. A missing
// config file is fine; the defaults point at a local agent.
type Config struct {
	Agent struct {
		Address    string `json:"address" yaml:"address"`
		Scheme     string `json:"scheme" yaml:"scheme"`
		Token      string `json:"token" yaml:"token"`
		Datacenter string `json:"datacenter" yaml:"datacenter"`
		WaitTime   string `json:"waitTime" yaml:"waitTime"`
	} `json:"agent" yaml:"agent"`
	Output struct {
		NoColor bool `json:"noColor" yaml:"noColor"`
	} `json:"output" yaml:"output"`
	Log struct {
		Level string `json:"level" yaml:"level"`
	} `json:"log" yaml:"log"`
}

func GetConfig() *Config {
	once.Do(func() {
		viper.SetConfigName("switkv")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.switkv")

		viper.SetEnvPrefix("switkv")
		viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		viper.AutomaticEnv()

		viper.SetDefault("agent.address", coordination.DefaultAddress)
		viper.SetDefault("agent.scheme", "http")
		viper.SetDefault("agent.token", "")
		viper.SetDefault("agent.datacenter", "")
		viper.SetDefault("agent.waitTime", "")
		viper.SetDefault("output.noColor", false)
		viper.SetDefault("log.level", "info")

		if err := viper.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				panic(fmt.Errorf("FATAL ERROR CONFIG FILE: %s", err))
			}
		}

		cfg = &Config{}
		if err := viper.Unmarshal(cfg); err != nil {
			panic(fmt.Errorf("UNABLE TO DECODE INTO STRUCT, %v", err))
		}
	})
	return cfg
}

// NewClient builds a coordination client from the effective configuration.
// Values are read live from viper so that bound command-line flags and
// environment variables take effect.
func NewClient() (*coordination.Client, error) {
	GetConfig()

	clientConfig := coordination.DefaultConfig()
	if addr := viper.GetString("agent.address"); addr != "" {
		clientConfig.Address = addr
	}
	if scheme := viper.GetString("agent.scheme"); scheme != "" {
		clientConfig.Scheme = scheme
	}
	if token := viper.GetString("agent.token"); token != "" {
		clientConfig.Token = token
	}
	if dc := viper.GetString("agent.datacenter"); dc != "" {
		clientConfig.Datacenter = dc
	}
	if wt := viper.GetString("agent.waitTime"); wt != "" {
		wait, err := time.ParseDuration(wt)
		if err != nil {
			return nil, fmt.Errorf("invalid agent.waitTime %q: %w", wt, err)
		}
		clientConfig.WaitTime = wait
	}
	// At debug verbosity every agent round-trip is logged.
	if logger.GetLevel() == zapcore.DebugLevel {
		clientConfig.Logger = logger.GetLogger()
	}
	return coordination.NewClient(clientConfig)
}

// ClientConfig renders the tool configuration as a coordination client
// config.
func (c *Config) ClientConfig() (*coordination.Config, error) {
	clientConfig := coordination.DefaultConfig()
	if c.Agent.Address != "" {
		clientConfig.Address = c.Agent.Address
	}
	if c.Agent.Scheme != "" {
		clientConfig.Scheme = c.Agent.Scheme
	}
	if c.Agent.Token != "" {
		clientConfig.Token = c.Agent.Token
	}
	clientConfig.Datacenter = c.Agent.Datacenter

	if c.Agent.WaitTime != "" {
		wait, err := time.ParseDuration(c.Agent.WaitTime)
		if err != nil {
			return nil, fmt.Errorf("invalid agent.waitTime %q: %w", c.Agent.WaitTime, err)
		}
		clientConfig.WaitTime = wait
	}
	return clientConfig, nil
}
