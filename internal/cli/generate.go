package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-logr/logr"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/mod/module"
	"gopkg.in/yaml.v3"

	"github.com/mark3labs/raml2go/internal/generate"
	"github.com/mark3labs/raml2go/internal/metadata"
	"github.com/mark3labs/raml2go/internal/raml"
	"github.com/mark3labs/raml2go/internal/rules"
	"github.com/mark3labs/raml2go/internal/writer"
)

// GenerateConfig captures all inputs that influence the generate command after
// merging defaults, config file values, and CLI overrides.
type GenerateConfig struct {
	Input       string
	BasePackage string
	// BasePath replaces the path of the document's baseUri when set.
	BasePath         *string
	Rule             string
	ModelRule        string
	RuleFallback     bool
	GroupBy          string
	MediaTypeFilter  bool
	DefaultMediaType string
	Out              string
	TimestampFolder  bool
	Parallel         int
	ConfigPath       string
	DryRun           bool
	Force            bool
	Verbose          bool
}

func defaultGenerateConfig() GenerateConfig {
	return GenerateConfig{
		Out:          "generated",
		RuleFallback: true,
		GroupBy:      string(metadata.GroupByFirstSegment),
		Parallel:     1,
	}
}

var generateRunner = runGenerate

func newGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate Go controllers and models from a RAML document",
		Long: "Generate Go controllers and models from a RAML 0.8 or 1.0 document. " +
			"Options can be provided via flags, config files, or defaults.",
		Example: strings.TrimSpace(`  raml2go generate --input api.raml --base-package example.com/shop --out ./gen
  raml2go --config raml2go.yaml generate --rule controller-decorator --force`),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveGenerateConfig(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if cfg.Verbose {
				// verbose may come from the config file, after the root
				// installed its logger.
				ctx = logr.NewContext(ctx, newLogger(true))
			}
			return generateRunner(ctx, cfg)
		},
	}

	flags := cmd.Flags()
	flags.String("input", "", "Path or http(s) URL of the RAML document")
	flags.String("base-package", "", "Go import path of the generated code, e.g. example.com/shop")
	flags.String("base-uri", "", "Override the base path taken from the document's baseUri")
	flags.String("rule", "", "Controller rule identifier (see raml2go rules)")
	flags.String("model-rule", "", "Body rule identifier (see raml2go rules)")
	flags.Bool("rule-fallback", true, "Use the default rule when the requested one cannot be resolved")
	flags.String("group-by", "", "Controller grouping ("+joinGroupBy()+")")
	flags.Bool("media-type-filter", false, "Skip actions whose bodies lack the default media type")
	flags.String("default-media-type", "", "Preferred body media type (defaults to the document's, then application/json)")
	flags.String("out", "", "Output directory (defaults to ./generated)")
	flags.Bool("timestamp-folder", false, "Suffix the output directory with the current Unix time in milliseconds")
	flags.Int("parallel", 0, "Number of controllers generated concurrently")
	flags.Bool("dry-run", false, "Preview planned outputs without writing files")
	flags.Bool("force", false, "Overwrite existing output when set")

	return cmd
}

func joinGroupBy() string { return strings.Join(metadata.GroupByValues(), "|") }

func resolveGenerateConfig(cmd *cobra.Command) (*GenerateConfig, error) {
	cfg := defaultGenerateConfig()

	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	configPath = strings.TrimSpace(configPath)
	if configPath != "" {
		cfg.ConfigPath = configPath
		if err := applyGenerateConfigFromFile(&cfg, configPath); err != nil {
			return nil, err
		}
	}

	if err := applyGenerateFlagOverrides(cmd.Flags(), &cfg); err != nil {
		return nil, err
	}

	cfg.normalize()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func applyGenerateFlagOverrides(flags *pflag.FlagSet, cfg *GenerateConfig) error {
	strs := map[string]*string{
		"input":              &cfg.Input,
		"base-package":       &cfg.BasePackage,
		"rule":               &cfg.Rule,
		"model-rule":         &cfg.ModelRule,
		"group-by":           &cfg.GroupBy,
		"default-media-type": &cfg.DefaultMediaType,
		"out":                &cfg.Out,
	}
	for name, dst := range strs {
		if !flags.Changed(name) {
			continue
		}
		value, err := flags.GetString(name)
		if err != nil {
			return err
		}
		*dst = strings.TrimSpace(value)
	}
	if flags.Changed("base-uri") {
		value, err := flags.GetString("base-uri")
		if err != nil {
			return err
		}
		value = strings.TrimSpace(value)
		cfg.BasePath = &value
	}

	bools := map[string]*bool{
		"rule-fallback":     &cfg.RuleFallback,
		"media-type-filter": &cfg.MediaTypeFilter,
		"timestamp-folder":  &cfg.TimestampFolder,
		"dry-run":           &cfg.DryRun,
		"force":             &cfg.Force,
		"verbose":           &cfg.Verbose,
	}
	for name, dst := range bools {
		if !flags.Changed(name) {
			continue
		}
		value, err := flags.GetBool(name)
		if err != nil {
			return err
		}
		*dst = value
	}

	if flags.Changed("parallel") {
		value, err := flags.GetInt("parallel")
		if err != nil {
			return err
		}
		cfg.Parallel = value
	}

	return nil
}

func (c *GenerateConfig) normalize() {
	c.Input = strings.TrimSpace(c.Input)
	c.BasePackage = strings.TrimSpace(c.BasePackage)
	c.Rule = strings.TrimSpace(c.Rule)
	c.ModelRule = strings.TrimSpace(c.ModelRule)
	c.GroupBy = strings.ToLower(strings.TrimSpace(c.GroupBy))
	c.DefaultMediaType = strings.TrimSpace(c.DefaultMediaType)
	c.Out = strings.TrimSpace(c.Out)
	if c.Out == "" {
		c.Out = "generated"
	}
	if c.Parallel < 1 {
		c.Parallel = 1
	}
}

func (c *GenerateConfig) validate() error {
	if c.Input == "" {
		return newUsageError("generate: --input is required (set via flag or config file)")
	}
	if c.BasePackage == "" {
		return newUsageError("generate: --base-package is required (set via flag or config file)")
	}
	if err := module.CheckImportPath(c.BasePackage); err != nil {
		return newUsageError(fmt.Sprintf("generate: invalid --base-package %q: %v", c.BasePackage, err))
	}
	if _, err := metadata.ParseGroupBy(c.GroupBy); err != nil {
		return newUsageError(fmt.Sprintf("generate: unsupported --group-by %q (allowed: %s)", c.GroupBy, strings.ReplaceAll(joinGroupBy(), "|", ", ")))
	}
	return nil
}

func runGenerate(ctx context.Context, cfg *GenerateConfig) error {
	groupBy, err := metadata.ParseGroupBy(cfg.GroupBy)
	if err != nil {
		return newUsageError(err.Error())
	}

	res, err := generate.Run(ctx, generate.Config{
		Input:            cfg.Input,
		BasePackage:      cfg.BasePackage,
		BasePath:         cfg.BasePath,
		GroupBy:          groupBy,
		MediaTypeFilter:  cfg.MediaTypeFilter,
		DefaultMediaType: cfg.DefaultMediaType,
		ControllerRule:   cfg.Rule,
		BodyRule:         cfg.ModelRule,
		Fallback:         cfg.RuleFallback,
		Parallel:         cfg.Parallel,
	})
	if err != nil {
		return describeRunError(err)
	}
	for _, w := range res.Warnings {
		fmt.Fprintf(os.Stderr, "warning: %v\n", w)
	}

	outDir := writer.Resolve(cfg.Out, cfg.TimestampFolder, time.Now())
	absOut := outDir
	if ap, err := filepath.Abs(outDir); err == nil {
		absOut = ap
	}

	written, werr := writer.Write(ctx, outDir, res.Units, writer.Options{Force: cfg.Force, DryRun: cfg.DryRun})
	if errors.Is(werr, writer.ErrNotEmpty) {
		return wrapOutputError(werr, absOut)
	}
	if cfg.DryRun {
		paths := make([]string, len(res.Units))
		for i, u := range res.Units {
			paths[i] = u.Path
		}
		printPlan(absOut, len(paths), paths)
	} else if len(written) > 0 {
		fmt.Fprintf(os.Stdout, "Wrote %d files to %s\n", len(written), absOut)
	}

	if uerr := res.Err(); uerr != nil || werr != nil {
		return describeUnitErrors(res.Failures, werr)
	}
	return nil
}

// describeRunError maps fatal run errors onto usage-style messages.
func describeRunError(err error) error {
	var (
		se *raml.SpecError
		ce *metadata.ConsistencyError
		re *rules.ResolutionError
	)
	switch {
	case errors.As(err, &se):
		msg := fmt.Sprintf("spec: %s", se.Message)
		if se.Location != "" {
			msg = fmt.Sprintf("%s\nLocation: %s", msg, se.Location)
		}
		if se.Path != "" {
			msg = fmt.Sprintf("%s\nPath: %s", msg, se.Path)
		}
		return newUsageError(msg)
	case errors.As(err, &ce):
		return newUsageError(ce.Error())
	case errors.As(err, &re):
		return newUsageError(re.Error() + "\nHint: run `raml2go rules` to list the registered rules.")
	}
	return err
}

func describeUnitErrors(failures []*generate.UnitError, werr error) error {
	var b strings.Builder
	for _, f := range failures {
		fmt.Fprintf(&b, "\n- %s %s: %v", f.Kind, f.Name, f.Err)
	}
	var joined interface{ Unwrap() []error }
	if errors.As(werr, &joined) {
		for _, e := range joined.Unwrap() {
			fmt.Fprintf(&b, "\n- %v", e)
		}
	} else if werr != nil {
		fmt.Fprintf(&b, "\n- %v", werr)
	}
	return fmt.Errorf("generate: some units failed:%s", b.String())
}

func printPlan(outDir string, count int, relPaths []string) {
	fmt.Fprintf(os.Stdout, "Planned writes to %s (%d files):\n", outDir, count)
	for _, p := range relPaths {
		fmt.Fprintf(os.Stdout, "- %s\n", p)
	}
}

func wrapOutputError(err error, outDir string) error {
	// Provide clearer guidance for common FS failures.
	msg := err.Error()
	lower := strings.ToLower(msg)
	if strings.Contains(lower, "permission") || strings.Contains(lower, "read-only") || strings.Contains(lower, "mkdir") || strings.Contains(lower, "rename") || strings.Contains(lower, "output directory") {
		return newUsageError(fmt.Sprintf("output error for %s: %s\nHint: choose a different --out or use --force when appropriate.", outDir, msg))
	}
	return err
}

func applyGenerateConfigFromFile(cfg *GenerateConfig, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return newUsageError(fmt.Sprintf("read config file %q: %v", path, err))
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return newUsageError(fmt.Sprintf("parse config file %q: %v", path, err))
	}

	strs := map[string]*string{
		"input":            &cfg.Input,
		"basepackage":      &cfg.BasePackage,
		"rule":             &cfg.Rule,
		"modelrule":        &cfg.ModelRule,
		"groupby":          &cfg.GroupBy,
		"defaultmediatype": &cfg.DefaultMediaType,
		"out":              &cfg.Out,
	}
	bools := map[string]*bool{
		"rulefallback":    &cfg.RuleFallback,
		"mediatypefilter": &cfg.MediaTypeFilter,
		"timestampfolder": &cfg.TimestampFolder,
		"dryrun":          &cfg.DryRun,
		"force":           &cfg.Force,
		"verbose":         &cfg.Verbose,
	}

	for key, value := range raw {
		normalized := normalizeKey(key)
		if dst, ok := strs[normalized]; ok {
			str, err := valueAsString(value)
			if err != nil {
				return newUsageError(fmt.Sprintf("config field %q: %v", key, err))
			}
			*dst = str
			continue
		}
		if dst, ok := bools[normalized]; ok {
			val, err := valueAsBool(value)
			if err != nil {
				return newUsageError(fmt.Sprintf("config field %q: %v", key, err))
			}
			*dst = val
			continue
		}
		switch normalized {
		case "baseuri":
			str, err := valueAsString(value)
			if err != nil {
				return newUsageError(fmt.Sprintf("config field %q: %v", key, err))
			}
			cfg.BasePath = &str
		case "parallel":
			n, err := valueAsInt(value)
			if err != nil {
				return newUsageError(fmt.Sprintf("config field %q: %v", key, err))
			}
			cfg.Parallel = n
		default:
			return newUsageError(fmt.Sprintf("config file %q: unknown field %q", path, key))
		}
	}

	return nil
}

func normalizeKey(raw string) string {
	lowered := strings.ToLower(strings.TrimSpace(raw))
	lowered = strings.ReplaceAll(lowered, "-", "")
	lowered = strings.ReplaceAll(lowered, "_", "")
	return lowered
}

func valueAsString(v any) (string, error) {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val), nil
	case nil:
		return "", nil
	default:
		return "", fmt.Errorf("expected string, got %T", v)
	}
}

func valueAsInt(v any) (int, error) {
	switch val := v.(type) {
	case int:
		return val, nil
	case nil:
		return 0, nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(val))
		if err != nil {
			return 0, fmt.Errorf("invalid integer value %q", val)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("expected integer, got %T", v)
	}
}

func valueAsBool(v any) (bool, error) {
	switch val := v.(type) {
	case bool:
		return val, nil
	case string:
		trimmed := strings.ToLower(strings.TrimSpace(val))
		switch trimmed {
		case "true", "t", "1", "yes", "y":
			return true, nil
		case "false", "f", "0", "no", "n":
			return false, nil
		case "":
			return false, nil
		default:
			return false, fmt.Errorf("invalid boolean value %q", val)
		}
	case nil:
		return false, nil
	default:
		return false, fmt.Errorf("expected boolean, got %T", v)
	}
}
