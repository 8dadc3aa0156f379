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
	"path/filepath"

	"github.com/segmentio/encoding/json"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/openhdl/lnast-core/pkg/lnast"
	"github.com/openhdl/lnast-core/pkg/lower"
	"github.com/openhdl/lnast-core/pkg/registry"
	"github.com/openhdl/lnast-core/pkg/semantic"
)

// CompilationConfig carries every flag of §6's CLI surface, populated from
// cobra/pflag and passed by value to the rest of the pipeline.
type CompilationConfig struct {
	Path     string
	Files    []string
	Firrtl   bool
	Top      string
	Odir     string
	Gviz     bool
	DumpJSON bool
}

var compileCmd = &cobra.Command{
	Use:   "compile [flags] file",
	Short: "lower an RTL circuit to LNAST and validate it.",
	Long: `Decode an RTL circuit, lower every user module to an LNAST (C5), run the
semantic validator over each (C6), and report errors and warnings.`,
	Args: cobra.ArbitraryArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if GetFlag(cmd, "verbose") {
			log.SetLevel(log.DebugLevel)
		}

		cfg := CompilationConfig{
			Path:     GetString(cmd, "path"),
			Files:    SplitFiles(GetString(cmd, "files")),
			Firrtl:   GetFlag(cmd, "firrtl"),
			Top:      GetString(cmd, "top"),
			Odir:     GetString(cmd, "odir"),
			Gviz:     GetFlag(cmd, "gviz"),
			DumpJSON: GetFlag(cmd, "dump-json"),
		}

		cfg.Files = append(cfg.Files, args...)

		if cfg.Firrtl && cfg.Top == "" {
			fmt.Println("error: --top is required when --firrtl is set")
			os.Exit(2)
		}

		if cfg.Gviz {
			log.Warn("--gviz requested but graph visualization is not produced by this build")
		}

		if err := runCompile(cfg); err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	},
}

// runCompile is Run's testable, error-returning body.
func runCompile(cfg CompilationConfig) error {
	circuit, err := LoadCircuit(cfg.Files)
	if err != nil {
		return fmt.Errorf("loading circuit: %w", err)
	}

	if cfg.Firrtl {
		circuit.Top = cfg.Top
	}

	reg := registry.Instance(cfg.Path)
	engine := lower.New(reg)

	trees, err := engine.LowerCircuit(circuit)
	if err != nil {
		return fmt.Errorf("lowering: %w", err)
	}

	for _, w := range engine.Warnings {
		log.Warn(w)
	}

	var failed bool

	for name, tree := range trees {
		result := semantic.Check(tree)

		for _, e := range result.Errors {
			log.Errorf("%s: %s", name, e)

			failed = true
		}

		for _, w := range result.Warnings {
			log.Warnf("%s: %s", name, w)
		}

		if cfg.DumpJSON {
			if err := dumpJSON(cfg.Odir, name, tree); err != nil {
				return fmt.Errorf("dumping %s: %w", name, err)
			}
		}
	}

	if err := reg.Sync(); err != nil {
		return fmt.Errorf("syncing registry: %w", err)
	}

	if failed {
		return fmt.Errorf("semantic validation failed")
	}

	return nil
}

// dumpJSON writes tree's JSON Dump (§2B's --dump-json debug surface) to
// <odir>/<module>.lnast.json.
func dumpJSON(odir, module string, tree *lnast.Tree) error {
	if err := os.MkdirAll(odir, 0o755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(tree.Dump(), "", "  ")
	if err != nil {
		return err
	}

	path := filepath.Join(odir, module+".lnast.json")

	return os.WriteFile(path, data, 0o644)
}

//nolint:errcheck
func init() {
	rootCmd.AddCommand(compileCmd)
	compileCmd.Flags().String("path", "lgdb", "module registry root directory")
	compileCmd.Flags().String("files", "", "comma-separated input circuit file(s)")
	compileCmd.Flags().Bool("firrtl", false, "select the firrtl front-end")
	compileCmd.Flags().String("top", "", "top module name (required when --firrtl)")
	compileCmd.Flags().String("odir", ".", "output directory")
	compileCmd.Flags().Bool("gviz", false, "emit a graph visualization (not implemented)")
	compileCmd.Flags().Bool("dump-json", false, "dump each lowered LNAST as JSON into odir")
}
