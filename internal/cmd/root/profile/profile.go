package profile

import (
	"fmt"
	"sort"
	"strings"

	"github.com/segmentio/cli"
	"github.com/spf13/cobra"

	"github.com/pegasus-infra/pegasusctl/internal/cmd"
	"github.com/pegasus-infra/pegasusctl/internal/cmd/common"
	"github.com/pegasus-infra/pegasusctl/internal/meta"
	"github.com/pegasus-infra/pegasusctl/internal/profile"
	"github.com/pegasus-infra/pegasusctl/internal/util/i18n"
	"github.com/pegasus-infra/pegasusctl/internal/util/normalizers"
)

var (
	profileUse   = "profile [name]"
	profileShort = i18n.T("root.profile.profileShort", "Display the configuration profiles")
	profileLong  = normalizers.LongDesc(i18n.T("root.profile.profileLong",
		`The profile command lists the profiles found in the configuration file,
or displays the settings of one profile when a name is given.`))
	profileExamples = normalizers.Examples(i18n.T("root.profile.profileExamples",
		fmt.Sprintf(`
		# List the configured profiles
		%[1]s profile
		# Show the settings of the staging profile
		%[1]s profile staging
		`, meta.CLIName)))
)

func NewProfileCmd() *cobra.Command {
	rv := &cobra.Command{
		Use:     profileUse,
		Short:   profileShort,
		Long:    profileLong,
		Example: profileExamples,
		Aliases: []string{"profiles"},
		Args:    cobra.MaximumNArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			helper := cmd.BuildHelper(c, args)

			manager, ok := c.Context().Value(profile.ProfileManagerKey).(profile.Manager)
			if !ok {
				return fmt.Errorf("no profile manager in context")
			}
			return run(helper, manager)
		},
	}
	return rv
}

func run(helper cmd.Helper, manager profile.Manager) error {
	outType, err := helper.GetOutputFormat()
	if err != nil {
		return err
	}
	streams := helper.GetStreams()

	if args := helper.GetArgs(); len(args) == 1 {
		return runGetOne(manager, args[0], outType, helper)
	}

	names := manager.GetProfiles()
	sort.Strings(names)

	if outType == common.TEXT {
		active := ""
		if cfg, cfgErr := helper.GetConfig(); cfgErr == nil {
			active = cfg.GetProfile()
		}
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
	p.Print(names)
	return nil
}

func runGetOne(manager profile.Manager, name string, outType common.OutputFormat, helper cmd.Helper) error {
	if !hasProfile(manager, name) {
		return &cmd.ConfigurationError{
			Err: fmt.Errorf("unknown profile %q", name),
		}
	}

	settings, err := manager.GetProfile(name)
	if err != nil {
		return err
	}
	streams := helper.GetStreams()

	if outType == common.TEXT {
		keys := make([]string, 0, len(settings))
		for key := range settings {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			if _, err := fmt.Fprintf(streams.Out, "%s: %v\n", key, settings[key]); err != nil {
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
	p.Print(settings)
	return nil
}

func hasProfile(manager profile.Manager, name string) bool {
	name = strings.ToLower(name)
	for _, candidate := range manager.GetProfiles() {
		if candidate == name {
			return true
		}
	}
	return false
}
