package main

import (
	"context"
	"os"
	"time"

	"github.com/Comcast/rebind/core"
	"github.com/Comcast/rebind/tools"
	"github.com/Comcast/rebind/util"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func renderCmd() *cobra.Command {
	var (
		template string
		data     string
		attr     string
		strict   bool
		timeout  time.Duration
		dot      string
		mermaid  string
		png      string
	)

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a template with data and print the markup",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()

			e := core.NewEngine(core.NewRegistry())
			e.Attr = attr
			e.Strict = strict
			e.Debug = util.Logging

			root, err := loadTemplate(template)
			if err != nil {
				return err
			}
			scope, _, err := loadScope(ctx, e, data)
			if err != nil {
				return err
			}

			if _, err = e.Render(root, scope); err != nil {
				return errors.Wrap(err, "rendering")
			}
			util.Logf("rendered %d bindings", e.Registry.Len())

			if err = root.Render(cmd.OutOrStdout()); err != nil {
				return err
			}
			if _, err = cmd.OutOrStdout().Write([]byte("\n")); err != nil {
				return err
			}

			if dot != "" {
				f, err := os.Create(dot)
				if err != nil {
					return err
				}
				if err = tools.Dot(e.Registry, f); err != nil {
					f.Close()
					return err
				}
				if err = f.Close(); err != nil {
					return err
				}
			}
			if mermaid != "" {
				f, err := os.Create(mermaid)
				if err != nil {
					return err
				}
				if err = tools.Mermaid(e.Registry, f, nil); err != nil {
					f.Close()
					return err
				}
				if err = f.Close(); err != nil {
					return err
				}
			}
			if png != "" {
				if _, err = tools.PNG(e.Registry, png); err != nil {
					return errors.Wrap(err, "making PNG")
				}
			}

			return nil
		},
	}

	fs := cmd.Flags()
	fs.StringVarP(&template, "template", "t", "", "Template filename (HTML or markdown)")
	fs.StringVarP(&data, "data", "d", "", "Data filename (YAML, JSON, or JavaScript)")
	fs.StringVar(&attr, "attr", core.DefaultAttr, "Directive attribute")
	fs.BoolVar(&strict, "strict", false, "Unresolvable references are errors")
	fs.DurationVar(&timeout, "timeout", 10*time.Second, "Timeout for loading data")
	fs.StringVar(&dot, "dot", "", "Optional filename for a Graphviz graph of the bindings")
	fs.StringVar(&mermaid, "mermaid", "", "Optional filename for a Mermaid graph of the bindings")
	fs.StringVar(&png, "png", "", "Optional basename for a PNG graph of the bindings (needs 'dot')")
	cmd.MarkFlagRequired("template")

	return cmd
}
