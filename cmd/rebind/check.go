package main

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/Comcast/rebind/core"
	"github.com/Comcast/rebind/tools"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func checkCmd() *cobra.Command {
	var (
		template string
		attr     string
		asJSON   bool
		html     string
		doc      string
	)

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Report problems with a template without rendering it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := loadTemplate(template)
			if err != nil {
				return err
			}

			a := tools.Analyze(root, attr)

			out := cmd.OutOrStdout()
			if asJSON {
				js, err := json.MarshalIndent(a, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%s\n", js)
			} else {
				fmt.Fprintf(out, "%d nodes, %d loops, refs %v\n", a.Nodes, a.Loops, a.Refs)
				for _, f := range a.Findings {
					fmt.Fprintf(out, "%s\n", f)
				}
			}

			if html != "" {
				var md string
				if doc != "" {
					bs, err := ioutil.ReadFile(doc)
					if err != nil {
						return err
					}
					md = string(bs)
				}
				f, err := os.Create(html)
				if err != nil {
					return err
				}
				if err = tools.RenderReportPage(a, filepath.Base(template), md, nil, f); err != nil {
					f.Close()
					return err
				}
				if err = f.Close(); err != nil {
					return err
				}
			}

			if n := len(a.Findings); 0 < n {
				return errors.Errorf("%d problem(s) in %s", n, template)
			}
			return nil
		},
	}

	fs := cmd.Flags()
	fs.StringVarP(&template, "template", "t", "", "Template filename (HTML or markdown)")
	fs.StringVar(&attr, "attr", core.DefaultAttr, "Directive attribute")
	fs.BoolVar(&asJSON, "json", false, "Write the analysis as JSON")
	fs.StringVar(&html, "html", "", "Optional filename for an HTML report")
	fs.StringVar(&doc, "doc", "", "Optional markdown file describing the template (for the HTML report)")
	cmd.MarkFlagRequired("template")

	return cmd
}
