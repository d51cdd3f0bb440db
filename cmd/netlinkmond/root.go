/*
 * MIT License
 *
 * Copyright (c) 2025 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sabouaram/netlinkmon/config"
)

var cfgFile string

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "netlinkmond",
		Short:         "netlinkmond dispatches decoded netlink events through a filterable, rate-limited pipeline",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "/etc/netlinkmond/config.yaml", "path to the YAML configuration file")
	cmd.AddCommand(newRunCommand(), newVerifyAuditCommand(), newVersionCommand())
	return cmd
}

// loadSnapshot reads cfgFile through viper and decodes it into a
// config.Snapshot. It does not validate the result; callers decide
// whether a load failure or a validation failure is the relevant exit
// code for their subcommand.
func loadSnapshot() (*config.Snapshot, error) {
	v := viper.New()
	v.SetConfigFile(cfgFile)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", cfgFile, err)
	}
	return config.FromViper(v)
}

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		if ec, ok := err.(*exitError); ok {
			if ec.err != nil {
				fmt.Fprintln(os.Stderr, ec.err)
			}
			return ec.code
		}
		fmt.Fprintln(os.Stderr, err)
		return exitGeneric
	}
	return exitOK
}
