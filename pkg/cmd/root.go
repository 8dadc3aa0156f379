// Copyright Consensys Software Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with
// the License. You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
// an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
// specific language governing permissions and limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

// Package cmd implements the lnastc command-line driver (§4.8, §6): decode
// an RTL circuit, run it through the lowering engine and semantic validator,
// and report diagnostics.
package cmd

import (
	"fmt"
	"os"
	"runtime/debug"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// Version is filled when building with make, but *not* when installing via
// "go install".
var Version string

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "lnastc",
	Short: "An RTL-to-LNAST lowering and validation driver.",
	Long:  "lnastc lowers a decoded RTL circuit into one LNAST per module, validates it, and reports diagnostics.",
	Run: func(cmd *cobra.Command, args []string) {
		if GetFlag(cmd, "version") {
			fmt.Print("lnastc ")

			switch {
			case Version != "":
				// Built via "make"
				fmt.Printf("%s", Version)
			default:
				if info, ok := debug.ReadBuildInfo(); ok {
					// Built via "go install"
					fmt.Printf("%s", info.Main.Version)
				} else {
					// Unknown, perhaps "go run"
					fmt.Printf("(unknown version)")
				}
			}

			fmt.Println()
		}
	},
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main(). It only needs to happen
// once to the rootCmd.
func Execute() {
	configureLogging()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// configureLogging installs a logrus text formatter, enabling ANSI colour
// only when stdout is attached to a terminal.
func configureLogging() {
	log.SetFormatter(&log.TextFormatter{
		ForceColors:   term.IsTerminal(int(os.Stdout.Fd())),
		FullTimestamp: false,
	})
}

func init() {
	rootCmd.Flags().Bool("version", false, "report the version of this executable")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "increase logging verbosity")
}
