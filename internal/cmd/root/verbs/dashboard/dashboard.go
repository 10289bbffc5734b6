// Package dashboard renders the Pegasus KPI view: the stats counters of a
// dataset plus one bar chart per aggregate dimension. Counts and ratios are
// computed server side; this command only shapes and draws them.
package dashboard

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/segmentio/cli"
	"github.com/spf13/cobra"

	"github.com/pegasus-infra/pegasusctl/internal/cmd"
	"github.com/pegasus-infra/pegasusctl/internal/cmd/common"
	"github.com/pegasus-infra/pegasusctl/internal/cmd/output/jq"
	"github.com/pegasus-infra/pegasusctl/internal/meta"
	"github.com/pegasus-infra/pegasusctl/internal/pegasus"
	"github.com/pegasus-infra/pegasusctl/internal/theme"
	"github.com/pegasus-infra/pegasusctl/internal/util/i18n"
	"github.com/pegasus-infra/pegasusctl/internal/util/normalizers"
	"github.com/pegasus-infra/pegasusctl/internal/view/chart"
	"github.com/pegasus-infra/pegasusctl/internal/view/detail"
)

const (
	GroupByFlagName = "group-by"
	WidthFlagName   = "width"
)

var defaultGroupBy = map[pegasus.Dataset][]string{
	pegasus.DatasetSites: {"province", "class"},
	pegasus.DatasetTRB:   {"severity", "status"},
	pegasus.DatasetPMWO:  {"pm_cluster", "status"},
	pegasus.DatasetSWO:   {"work_type", "status"},
}

var (
	dashboardShort = i18n.T("root.verbs.dashboard.dashboardShort",
		"Display the Pegasus KPI dashboard for a dataset")
	dashboardLong = normalizers.LongDesc(i18n.T("root.verbs.dashboard.dashboardLong",
		`The dashboard verb fetches the stats and aggregate endpoints of a
dataset and renders counters plus one bar chart per aggregate dimension.`))
	dashboardExamples = normalizers.Examples(i18n.T("root.verbs.dashboard.dashboardExamples",
		fmt.Sprintf(`
		# KPI view over the sites dataset
		%[1]s dashboard
		# Trouble ticket KPIs grouped by province
		%[1]s dashboard trb --group-by province
		`, meta.CLIName)))
)

// payload is the combined dashboard data for structured output.
type payload struct {
	Dataset    string                         `json:"dataset"`
	Stats      pegasus.Stats                  `json:"stats"`
	Aggregates map[string][]pegasus.Aggregate `json:"aggregates"`
}

func NewDashboardCmd() (*cobra.Command, error) {
	dashboardCmd := &cobra.Command{
		Use:       "dashboard [dataset]",
		Short:     dashboardShort,
		Long:      dashboardLong,
		Example:   dashboardExamples,
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: datasetNames(),
		RunE: func(c *cobra.Command, args []string) error {
			helper := cmd.BuildHelper(c, args)
			return run(helper)
		},
	}

	flags := dashboardCmd.Flags()
	flags.StringArray(GroupByFlagName, nil,
		"Aggregate dimension to chart. Repeatable; defaults depend on the dataset.")
	flags.Int(WidthFlagName, 100,
		"Total rendering width of the charts.")
	jq.AddFlags(flags)

	return dashboardCmd, nil
}

func datasetNames() []string {
	names := make([]string, 0, len(pegasus.Datasets()))
	for _, ds := range pegasus.Datasets() {
		names = append(names, ds.String())
	}
	return names
}

func run(helper cmd.Helper) error {
	ds := pegasus.DatasetSites
	if args := helper.GetArgs(); len(args) == 1 {
		parsed, err := pegasus.ParseDataset(args[0])
		if err != nil {
			return &cmd.ConfigurationError{Err: err}
		}
		ds = parsed
	}

	flags := helper.GetCmd().Flags()
	groupBy, err := flags.GetStringArray(GroupByFlagName)
	if err != nil {
		return err
	}
	if len(groupBy) == 0 {
		groupBy = defaultGroupBy[ds]
	}
	width, err := flags.GetInt(WidthFlagName)
	if err != nil {
		return err
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

	ctx := helper.GetContext()
	stats, err := client.GetStats(ctx, ds)
	if err != nil {
		attrs := cmd.TryConvertErrorToAttrs(err)
		return cmd.PrepareExecutionError(
			fmt.Sprintf("Failed to load stats for %s", ds.Title()), err, helper.GetCmd(), attrs...)
	}

	data := payload{
		Dataset:    ds.String(),
		Stats:      stats,
		Aggregates: make(map[string][]pegasus.Aggregate, len(groupBy)),
	}
	for _, by := range groupBy {
		aggregates, err := client.GetAggregate(ctx, ds, by)
		if err != nil {
			attrs := cmd.TryConvertErrorToAttrs(err)
			return cmd.PrepareExecutionError(
				fmt.Sprintf("Failed to aggregate %s by %s", ds.Title(), by),
				err, helper.GetCmd(), attrs...)
		}
		data.Aggregates[by] = aggregates
	}

	outType, err := helper.GetOutputFormat()
	if err != nil {
		return err
	}
	streams := helper.GetStreams()

	if outType != common.TEXT {
		settings, err := jq.ResolveSettings(flags, cfg)
		if err != nil {
			return err
		}
		if handled, err := jq.Apply(data, outType, settings, streams.Out); handled || err != nil {
			return err
		}

		printer, err := cli.Format(outType.String(), streams.Out)
		if err != nil {
			return err
		}
		defer printer.Flush()
		printer.Print(data)
		return nil
	}

	_, err = fmt.Fprintln(streams.Out, renderText(ds, data, groupBy, width))
	return err
}

func renderText(ds pegasus.Dataset, data payload, groupBy []string, width int) string {
	palette := theme.Current()
	titleStyle := palette.ForegroundStyle(theme.ColorAccent).Bold(true)
	headerStyle := palette.ForegroundStyle(theme.ColorTextSecondary).Bold(true)
	boxStyle := lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(palette.Adaptive(theme.ColorBorder)).
		Padding(0, 1)
	barStyles := chart.BarStyles{
		Label: palette.ForegroundStyle(theme.ColorTextPrimary),
		Bar:   palette.ForegroundStyle(theme.ColorInfo),
		Note:  palette.ForegroundStyle(theme.ColorTextMuted),
	}

	var sections []string
	sections = append(sections, titleStyle.Render("Tableau de bord — "+ds.Title()))
	sections = append(sections, boxStyle.Render(renderStats(data.Stats)))

	for _, by := range groupBy {
		chartData := chart.FromAggregates(data.Aggregates[by])
		body := chart.Render(chartData, width-4, barStyles)
		if body == "" {
			body = "(aucune donnée)"
		}
		block := headerStyle.Render("Par "+detail.Humanize(by)) + "\n" + body
		sections = append(sections, boxStyle.Render(block))
	}

	return strings.Join(sections, "\n")
}

func renderStats(stats pegasus.Stats) string {
	if len(stats) == 0 {
		return "(aucune statistique)"
	}

	names := make([]string, 0, len(stats))
	for name := range stats {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s : %s",
			detail.Humanize(name), formatStat(stats[name])))
	}
	return strings.Join(parts, "\n")
}

// formatStat prints counts as integers and ratios as percentages.
func formatStat(value float64) string {
	if value == float64(int64(value)) {
		return strconv.FormatInt(int64(value), 10)
	}
	if value >= 0 && value <= 1 {
		return fmt.Sprintf("%.1f%%", value*100)
	}
	return strconv.FormatFloat(value, 'f', 2, 64)
}
