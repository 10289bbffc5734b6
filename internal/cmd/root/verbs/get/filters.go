package get

import (
	"fmt"
	"sort"

	"github.com/segmentio/cli"
	"github.com/spf13/cobra"

	"github.com/pegasus-infra/pegasusctl/internal/cmd"
	"github.com/pegasus-infra/pegasusctl/internal/cmd/common"
	"github.com/pegasus-infra/pegasusctl/internal/cmd/output/jq"
	"github.com/pegasus-infra/pegasusctl/internal/meta"
	"github.com/pegasus-infra/pegasusctl/internal/pegasus"
	"github.com/pegasus-infra/pegasusctl/internal/util/i18n"
	"github.com/pegasus-infra/pegasusctl/internal/util/normalizers"
	"github.com/pegasus-infra/pegasusctl/internal/view/detail"
)

var filtersExamples = normalizers.Examples(i18n.T("root.verbs.get.filtersExamples",
	fmt.Sprintf(`
	# Which fields can filter the sites dataset, and with which values
	%[1]s get filters sites
	`, meta.CLIName)))

func newFiltersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "filters <dataset>",
		Short: i18n.T("root.verbs.get.filtersShort",
			"List the allowed server side filter values for a dataset"),
		Example: filtersExamples,
		Args:    cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			helper := cmd.BuildHelper(c, args)
			return runFilters(helper)
		},
	}
}

func runFilters(helper cmd.Helper) error {
	ds, err := pegasus.ParseDataset(helper.GetArgs()[0])
	if err != nil {
		return &cmd.ConfigurationError{Err: err}
	}

	cfg, err := helper.GetConfig()
	if err != nil {
		return err
	}
	logger, err := helper.GetLogger()
	if err != nil {
		return err
	}
	client, err := helper.GetPegasusClient(cfg, logger)
	if err != nil {
		return err
	}

	values, err := client.GetFilterValues(helper.GetContext(), ds)
	if err != nil {
		attrs := cmd.TryConvertErrorToAttrs(err)
		return cmd.PrepareExecutionError(
			fmt.Sprintf("Failed to list filters for %s", ds.Title()), err, helper.GetCmd(), attrs...)
	}

	outType, err := helper.GetOutputFormat()
	if err != nil {
		return err
	}
	streams := helper.GetStreams()

	if outType != common.TEXT {
		settings, err := jq.ResolveSettings(helper.GetCmd().Flags(), cfg)
		if err != nil {
			return err
		}
		if handled, err := jq.Apply(values, outType, settings, streams.Out); handled || err != nil {
			return err
		}

		printer, err := cli.Format(outType.String(), streams.Out)
		if err != nil {
			return err
		}
		defer printer.Flush()
		printer.Print(values)
		return nil
	}

	fields := make([]string, 0, len(values))
	for field := range values {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	for _, field := range fields {
		if _, err := fmt.Fprintf(streams.Out, "%s:\n", detail.Humanize(field)); err != nil {
			return err
		}
		for _, value := range values[field] {
			if _, err := fmt.Fprintf(streams.Out, "  %s\n", value); err != nil {
				return err
			}
		}
	}
	return nil
}
