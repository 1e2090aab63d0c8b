package cli

import (
	"context"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// InitConfig captures the options for the init command.
type InitConfig struct {
	OutputPath string
	Force      bool
}

var initRunner = runInit

func newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Scaffold a sample raml2go configuration file",
		Long:  "Scaffold a commented raml2go configuration file that documents available options.",
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := cmd.Flags().GetString("out")
			if err != nil {
				return err
			}
			force, err := cmd.Flags().GetBool("force")
			if err != nil {
				return err
			}
			cfg := &InitConfig{
				OutputPath: out,
				Force:      force,
			}
			return initRunner(cmd.Context(), cfg)
		},
	}

	cmd.Flags().String("out", "raml2go.yaml", "Where to write the sample config file")
	cmd.Flags().Bool("force", false, "Overwrite the target file if it already exists")

	return cmd
}

func runInit(ctx context.Context, cfg *InitConfig) error {
	_ = ctx

	out := strings.TrimSpace(cfg.OutputPath)
	if out == "" {
		out = "raml2go.yaml"
	}
	content := strings.TrimSpace(sampleConfigYAML) + "\n"
	return writeFileAtomic(out, []byte(content), cfg.Force, os.Stdout)
}

// sampleConfigYAML is a commented example config documenting available options.
const sampleConfigYAML = `# raml2go configuration (YAML or JSON)
# All fields are optional. Command-line flags override config values.

# Path or http(s) URL of the RAML 0.8 or 1.0 document.
# input: ./api.raml

# Go import path of the generated code. Controllers land in
# <basePackage>/controllers, bodies in <basePackage>/models.
# basePackage: example.com/shop

# Replace the path of the document's baseUri (e.g. /api/v2). An empty
# value mounts the routes at the root.
# baseUri: /api

# Controller rule, one of controller-stub, controller-interface or
# controller-decorator. Run "raml2go rules" for the full list.
# rule: controller-stub

# Body rule.
# modelRule: model-struct

# Use the default rule when the requested one cannot be resolved.
# ruleFallback: true

# Controller grouping, one of first-segment, resource or single.
# groupBy: first-segment

# Skip actions whose bodies lack the default media type.
# mediaTypeFilter: false

# Preferred body media type. Defaults to the document's mediaType, then
# application/json.
# defaultMediaType: application/json

# Output directory.
# out: ./generated

# Suffix the output directory with the Unix time in milliseconds.
# timestampFolder: false

# Number of controllers generated concurrently.
# parallel: 1

# Preview planned outputs without writing files.
# dryRun: false

# Overwrite non-empty output directory.
# force: false

# Enable verbose logging.
# verbose: false
`
