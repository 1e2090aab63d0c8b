package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mark3labs/raml2go/internal/export"
	"github.com/mark3labs/raml2go/internal/raml"
	"github.com/mark3labs/raml2go/internal/spec"
)

// ExportConfig captures the options for the export command.
type ExportConfig struct {
	Input  string
	Format string
	// Out is a file path; empty writes to stdout. A .yaml or .yml
	// extension selects YAML for OpenAPI output, JSON otherwise.
	Out   string
	Force bool
}

var exportRunner = runExport

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Re-serialize a RAML document as RAML or OpenAPI 3",
		Example: strings.TrimSpace(`  raml2go export --input api.raml --format openapi --out openapi.yaml
  raml2go export --input api.raml --format raml`),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := &ExportConfig{}
			var err error
			if cfg.Input, err = cmd.Flags().GetString("input"); err != nil {
				return err
			}
			if cfg.Format, err = cmd.Flags().GetString("format"); err != nil {
				return err
			}
			if cfg.Out, err = cmd.Flags().GetString("out"); err != nil {
				return err
			}
			if cfg.Force, err = cmd.Flags().GetBool("force"); err != nil {
				return err
			}
			cfg.Input = strings.TrimSpace(cfg.Input)
			cfg.Format = strings.ToLower(strings.TrimSpace(cfg.Format))
			cfg.Out = strings.TrimSpace(cfg.Out)
			if cfg.Input == "" {
				return newUsageError("export: --input is required")
			}
			switch cfg.Format {
			case "openapi", "raml":
			default:
				return newUsageError(fmt.Sprintf("export: unsupported --format %q (allowed: openapi, raml)", cfg.Format))
			}
			return exportRunner(cmd.Context(), cfg)
		},
	}

	cmd.Flags().String("input", "", "Path or http(s) URL of the RAML document")
	cmd.Flags().String("format", "openapi", "Output format (openapi|raml)")
	cmd.Flags().String("out", "", "Output file (stdout when omitted)")
	cmd.Flags().Bool("force", false, "Overwrite the output file if it already exists")

	return cmd
}

func runExport(ctx context.Context, cfg *ExportConfig) error {
	root, err := spec.Load(ctx, cfg.Input)
	if err != nil {
		return describeRunError(err)
	}

	var data []byte
	switch cfg.Format {
	case "raml":
		data, err = export.ToRAML(root)
	default:
		data, err = openAPIBytes(ctx, root, cfg.Out)
	}
	if err != nil {
		return err
	}

	if cfg.Out == "" {
		_, err := os.Stdout.Write(data)
		return err
	}
	return writeFileAtomic(cfg.Out, data, cfg.Force, os.Stdout)
}

func openAPIBytes(ctx context.Context, root raml.Root, out string) ([]byte, error) {
	doc, err := export.ToOpenAPI(ctx, root)
	if err != nil {
		return nil, err
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("export: marshal openapi: %w", err)
	}
	switch strings.ToLower(filepath.Ext(out)) {
	case ".yaml", ".yml":
		// JSON is YAML; decoding into a node keeps the key order.
		var node yaml.Node
		if err := yaml.Unmarshal(data, &node); err != nil {
			return nil, fmt.Errorf("export: convert to yaml: %w", err)
		}
		plainStyle(&node)
		return yaml.Marshal(&node)
	}
	return append(data, '\n'), nil
}

// plainStyle drops the JSON quoting and flow styles; the encoder still
// quotes strings that would otherwise read as another type.
func plainStyle(n *yaml.Node) {
	n.Style = 0
	for _, c := range n.Content {
		plainStyle(c)
	}
}

// writeFileAtomic writes data to path via a temporary file and reports the
// destination on w.
func writeFileAtomic(path string, data []byte, force bool, w io.Writer) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve output path: %w", err)
	}
	if st, err := os.Stat(absPath); err == nil && !force && st.Mode().IsRegular() {
		return newUsageError(fmt.Sprintf("%q already exists (use --force to overwrite)", absPath))
	}
	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		return newUsageError(fmt.Sprintf("cannot create parent directory: %v", err))
	}
	tmp := absPath + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return newUsageError(fmt.Sprintf("cannot write temp file: %v\nHint: choose a different --out or check directory permissions.", err))
	}
	if err := os.Rename(tmp, absPath); err != nil {
		_ = os.Remove(tmp)
		return newUsageError(fmt.Sprintf("cannot place file at %s: %v", absPath, err))
	}
	fmt.Fprintf(w, "Wrote %s\n", absPath)
	return nil
}
