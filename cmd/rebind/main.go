/* Copyright 2019 Comcast Cable Communications Management, LLC
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 * http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package main is a command-line tool that renders templates, checks
// them, and serves pages that are kept current as their data
// changes.
//
//   rebind render -t page.html -d data.yaml
//   rebind check -t page.html
//   rebind serve -c serve.yaml
package main

import (
	"os"

	"github.com/Comcast/rebind/util"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "rebind",
		Short:        "Render and serve reactive HTML templates",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if v, _ := cmd.Flags().GetBool("verbose"); v {
				util.Logging = true
			}
		},
	}
	root.PersistentFlags().BoolP("verbose", "v", false, "Verbose logging")

	root.AddCommand(renderCmd(), checkCmd(), serveCmd())

	return root
}
