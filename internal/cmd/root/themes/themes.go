package themes

import (
	"fmt"
	"sort"

	"github.com/segmentio/cli"
	"github.com/spf13/cobra"

	"github.com/pegasus-infra/pegasusctl/internal/cmd"
	"github.com/pegasus-infra/pegasusctl/internal/cmd/common"
	"github.com/pegasus-infra/pegasusctl/internal/meta"
	"github.com/pegasus-infra/pegasusctl/internal/theme"
	"github.com/pegasus-infra/pegasusctl/internal/util/i18n"
	"github.com/pegasus-infra/pegasusctl/internal/util/normalizers"
)

var (
	themesUse   = "themes [name]"
	themesShort = i18n.T("root.themes.themesShort", "Display the available color themes")
	themesLong  = normalizers.LongDesc(i18n.T("root.themes.themesLong",
		`The themes command lists the color themes available for the interactive
table and the dashboard, or displays the colors of one theme when a name
is given. The active theme is selected with the 'theme' configuration key.`))
	themesExamples = normalizers.Examples(i18n.T("root.themes.themesExamples",
		fmt.Sprintf(`
		# List the available themes
		%[1]s themes
		# Show the colors of a theme
		%[1]s themes pegasus-light
		`, meta.CLIName)))
)

func NewThemesCmd() *cobra.Command {
	rv := &cobra.Command{
		Use:     themesUse,
		Short:   themesShort,
		Long:    themesLong,
		Example: themesExamples,
		Aliases: []string{"theme"},
		Args:    cobra.MaximumNArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			helper := cmd.BuildHelper(c, args)
			return run(helper)
		},
	}
	return rv
}

func run(helper cmd.Helper) error {
	outType, err := helper.GetOutputFormat()
	if err != nil {
		return err
	}
	streams := helper.GetStreams()

	if args := helper.GetArgs(); len(args) == 1 {
		return runGetOne(args[0], outType, helper)
	}

	names := theme.Available()
	active := theme.Current().Name

	if outType == common.TEXT {
		for _, name := range names {
			marker := "  "
			if name == active {
				marker = "* "
			}
			if _, err := fmt.Fprintln(streams.Out, marker+name); err != nil {
				return err
			}
		}
		return nil
	}

	p, err := cli.Format(outType.String(), streams.Out)
	if err != nil {
		return err
	}
	defer p.Flush()
	p.Print(map[string]any{
		"active": active,
		"themes": names,
	})
	return nil
}

func runGetOne(name string, outType common.OutputFormat, helper cmd.Helper) error {
	palette, ok := theme.Get(name)
	if !ok {
		return &cmd.ConfigurationError{
			Err: fmt.Errorf("unknown color theme %q", name),
		}
	}
	streams := helper.GetStreams()

	tokens := make([]string, 0, len(palette.Colors))
	for token := range palette.Colors {
		tokens = append(tokens, string(token))
	}
	sort.Strings(tokens)

	if outType == common.TEXT {
		if _, err := fmt.Fprintf(streams.Out, "%s (%s)\n", palette.DisplayName, palette.Name); err != nil {
			return err
		}
		for _, token := range tokens {
			color := palette.Colors[theme.Token(token)]
			if _, err := fmt.Fprintf(streams.Out, "  %-16s %s / %s\n",
				token, color.Light, color.Dark); err != nil {
				return err
			}
		}
		return nil
	}

	colors := make(map[string]map[string]string, len(tokens))
	for _, token := range tokens {
		color := palette.Colors[theme.Token(token)]
		colors[token] = map[string]string{"light": color.Light, "dark": color.Dark}
	}

	p, err := cli.Format(outType.String(), streams.Out)
	if err != nil {
		return err
	}
	defer p.Flush()
	p.Print(map[string]any{
		"name":         palette.Name,
		"display_name": palette.DisplayName,
		"colors":       colors,
	})
	return nil
}
