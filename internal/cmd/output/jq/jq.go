// Package jq post-processes JSON command output with gojq expressions.
// Filtered results can render as colorized JSON (chroma) or as YAML,
// depending on the selected output format.
package jq

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/itchyny/gojq"
	"github.com/mattn/go-isatty"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	cmdpkg "github.com/pegasus-infra/pegasusctl/internal/cmd"
	cmdcommon "github.com/pegasus-infra/pegasusctl/internal/cmd/common"
	"github.com/pegasus-infra/pegasusctl/internal/config"
)

const (
	FlagName               = "jq"
	ColorFlagName          = "jq-color"
	ColorEnabledConfigPath = "jq.color.enabled"
	ColorThemeConfigPath   = "jq.color.theme"
	DefaultTheme           = "friendly"
)

var queryCache sync.Map

// Settings holds the resolved jq behavior for one command execution.
type Settings struct {
	Filter    string
	ColorMode cmdcommon.ColorMode
	Theme     string
}

// AddFlags registers the jq flags on a command flag set.
func AddFlags(flags *pflag.FlagSet) {
	flags.String(
		FlagName,
		"",
		"Filter JSON or YAML output using a jq expression (powered by gojq)",
	)

	jqColor := cmdpkg.NewEnum([]string{
		cmdcommon.ColorModeAuto.String(),
		cmdcommon.ColorModeAlways.String(),
		cmdcommon.ColorModeNever.String(),
	}, cmdcommon.ColorModeAuto.String())

	flags.Var(
		jqColor,
		ColorFlagName,
		fmt.Sprintf(`Controls colorized output for jq filter results.
- Config path: [ %s ]
- Allowed    : [ auto|always|never ]`, ColorEnabledConfigPath),
	)
}

// ResolveSettings merges flag and config values into a Settings.
func ResolveSettings(flags *pflag.FlagSet, cfg config.Hook) (Settings, error) {
	settings := Settings{
		Theme:     DefaultTheme,
		ColorMode: cmdcommon.ColorModeAuto,
	}

	if flags == nil || flags.Lookup(FlagName) == nil {
		return settings, nil
	}

	filter, err := flags.GetString(FlagName)
	if err != nil {
		return Settings{}, err
	}
	filter = strings.TrimSpace(filter)
	if flags.Changed(FlagName) && filter == "" {
		filter = "."
	}
	settings.Filter = filter

	if cfg != nil {
		mode, err := cmdcommon.ColorModeStringToIota(
			strings.TrimSpace(cfg.GetString(ColorEnabledConfigPath)))
		if err != nil {
			return Settings{}, err
		}
		settings.ColorMode = mode
		if theme := strings.TrimSpace(cfg.GetString(ColorThemeConfigPath)); theme != "" {
			settings.Theme = theme
		}
	}

	if f := flags.Lookup(ColorFlagName); f != nil && f.Changed {
		mode, err := cmdcommon.ColorModeStringToIota(f.Value.String())
		if err != nil {
			return Settings{}, err
		}
		settings.ColorMode = mode
	}

	return settings, nil
}

func HasFilter(settings Settings) bool {
	return strings.TrimSpace(settings.Filter) != ""
}

// ValidateOutputFormat rejects jq usage with text output.
func ValidateOutputFormat(outType cmdcommon.OutputFormat, settings Settings) error {
	if !HasFilter(settings) {
		return nil
	}
	if outType == cmdcommon.JSON || outType == cmdcommon.YAML {
		return nil
	}
	return fmt.Errorf("--%s is only supported with --output json or --output yaml", FlagName)
}

// Apply runs the filter over raw and writes the rendered results to out.
// It reports whether it handled the printing (false when no filter is set).
func Apply(raw any, outType cmdcommon.OutputFormat, settings Settings, out io.Writer) (bool, error) {
	if !HasFilter(settings) {
		return false, nil
	}
	if err := ValidateOutputFormat(outType, settings); err != nil {
		return false, err
	}

	body, err := json.Marshal(raw)
	if err != nil {
		return false, fmt.Errorf("failed to encode output before applying jq filter: %w", err)
	}

	results, err := evaluate(body, settings.Filter)
	if err != nil {
		return false, err
	}

	if outType == cmdcommon.YAML {
		return true, writeYAML(results, out)
	}
	return true, writeJSON(results, settings, out)
}

func evaluate(body []byte, filter string) ([]any, error) {
	if len(body) == 0 {
		return nil, errors.New("output is empty, cannot apply jq filter")
	}

	var payload any
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("output is not valid JSON: %w", err)
	}

	query, err := cachedQuery(strings.TrimSpace(filter))
	if err != nil {
		return nil, err
	}

	iter := query.Run(payload)
	var results []any
	for {
		v, ok := iter.Next()
		if !ok {
			break
		}
		if err, isErr := v.(error); isErr {
			return nil, fmt.Errorf("jq filter failed: %w", err)
		}
		results = append(results, v)
	}
	return results, nil
}

func cachedQuery(filter string) (*gojq.Code, error) {
	if cached, ok := queryCache.Load(filter); ok {
		return cached.(*gojq.Code), nil
	}

	parsed, err := gojq.Parse(filter)
	if err != nil {
		return nil, fmt.Errorf("invalid jq expression %q: %w", filter, err)
	}
	code, err := gojq.Compile(parsed)
	if err != nil {
		return nil, fmt.Errorf("cannot compile jq expression %q: %w", filter, err)
	}

	queryCache.Store(filter, code)
	return code, nil
}

func writeJSON(results []any, settings Settings, out io.Writer) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	for _, result := range results {
		if err := enc.Encode(result); err != nil {
			return err
		}
	}

	text := strings.TrimRight(buf.String(), "\n")
	if shouldUseColor(settings.ColorMode, out) {
		text = colorize(text, settings.Theme)
	}
	_, err := fmt.Fprintln(out, text)
	return err
}

func writeYAML(results []any, out io.Writer) error {
	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	defer enc.Close()
	for _, result := range results {
		if err := enc.Encode(result); err != nil {
			return err
		}
	}
	return nil
}

func shouldUseColor(mode cmdcommon.ColorMode, out io.Writer) bool {
	switch mode {
	case cmdcommon.ColorModeAlways:
		return true
	case cmdcommon.ColorModeNever:
		return false
	default:
		f, ok := out.(*os.File)
		return ok && isatty.IsTerminal(f.Fd())
	}
}

func colorize(text, theme string) string {
	lexer := lexers.Get("json")
	if lexer == nil {
		return text
	}
	style := styles.Get(theme)
	if style == nil {
		style = styles.Fallback
	}
	formatter := formatters.Get("terminal256")
	if formatter == nil {
		return text
	}

	iterator, err := lexer.Tokenise(nil, text)
	if err != nil {
		return text
	}
	var buf bytes.Buffer
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return text
	}
	return strings.TrimRight(buf.String(), "\n")
}
