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
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/openhdl/lnast-core/pkg/rtl"
)

// GetFlag reads an expected boolean flag, exiting the process on any
// programmer error (an undeclared flag name).
func GetFlag(cmd *cobra.Command, flag string) bool {
	r, err := cmd.Flags().GetBool(flag)
	if err != nil {
		fmt.Println(err)
		os.Exit(2)
	}

	return r
}

// GetString reads an expected string flag.
func GetString(cmd *cobra.Command, flag string) string {
	r, err := cmd.Flags().GetString(flag)
	if err != nil {
		fmt.Println(err)
		os.Exit(2)
	}

	return r
}

// GetStringArray reads an expected string-array flag (one element per flag
// occurrence; values are not split on commas).
func GetStringArray(cmd *cobra.Command, flag string) []string {
	r, err := cmd.Flags().GetStringArray(flag)
	if err != nil {
		fmt.Println(err)
		os.Exit(2)
	}

	return r
}

// LoadCircuit reads and decodes every file in files (§6's "files" option,
// comma-separated on the command line but already split by the caller) into
// a single rtl.Circuit. Each file independently decodes to a Circuit; this
// CLI only drives single-file inputs, mirroring the one-module-set-per-run
// contract of §4.5.1.
func LoadCircuit(files []string) (rtl.Circuit, error) {
	if len(files) == 0 {
		return rtl.Circuit{}, fmt.Errorf("no input files given")
	}

	if len(files) > 1 {
		return rtl.Circuit{}, fmt.Errorf("only a single circuit file is supported, got %d", len(files))
	}

	data, err := os.ReadFile(files[0])
	if err != nil {
		return rtl.Circuit{}, fmt.Errorf("reading %s: %w", files[0], err)
	}

	return rtl.DecodeCircuit(data)
}

// SplitFiles splits the comma-separated --files value, trimming whitespace
// and dropping empty entries.
func SplitFiles(raw string) []string {
	var out []string

	for _, f := range strings.Split(raw, ",") {
		f = strings.TrimSpace(f)
		if f != "" {
			out = append(out, f)
		}
	}

	return out
}
