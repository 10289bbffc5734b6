package get

import (
	"context"
	"fmt"

	"github.com/segmentio/cli"
	"github.com/spf13/cobra"

	"github.com/pegasus-infra/pegasusctl/internal/cmd"
	"github.com/pegasus-infra/pegasusctl/internal/cmd/common"
	"github.com/pegasus-infra/pegasusctl/internal/cmd/output/jq"
	"github.com/pegasus-infra/pegasusctl/internal/cmd/output/tableview"
	"github.com/pegasus-infra/pegasusctl/internal/pegasus"
	"github.com/pegasus-infra/pegasusctl/internal/util/i18n"
	"github.com/pegasus-infra/pegasusctl/internal/view/dataview"
)

type datasetCmd struct {
	ds pegasus.Dataset
}

func newDatasetCmd(ds pegasus.Dataset) *cobra.Command {
	impl := &datasetCmd{ds: ds}
	return &cobra.Command{
		Use:   ds.String(),
		Short: i18n.T("root.verbs.get."+ds.String()+"Short",
			fmt.Sprintf("Display the %s dataset", ds.Title())),
		Args: cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			helper := cmd.BuildHelper(c, args)
			if err := impl.validate(helper); err != nil {
				return err
			}
			return impl.run(helper)
		},
	}
}

type listRequest struct {
	search   string
	sort     dataview.Sort
	page     dataview.Page
	limit    int
	offset   int
	filters  map[string]string
	interact bool
}

func (c *datasetCmd) parseRequest(helper cmd.Helper) (listRequest, error) {
	flags := helper.GetCmd().Flags()

	var req listRequest
	var err error
	if req.search, err = flags.GetString(SearchFlagName); err != nil {
		return req, err
	}
	sortBy, err := flags.GetString(SortByFlagName)
	if err != nil {
		return req, err
	}
	desc, err := flags.GetBool(DescFlagName)
	if err != nil {
		return req, err
	}
	req.sort = dataview.Sort{Key: sortBy, Descending: desc}

	if req.page.Index, err = flags.GetInt(PageFlagName); err != nil {
		return req, err
	}
	if req.page.Size, err = flags.GetInt(PageSizeFlagName); err != nil {
		return req, err
	}
	// the flag wins over the profile configuration
	if !flags.Changed(PageSizeFlagName) {
		cfg, cfgErr := helper.GetConfig()
		if cfgErr != nil {
			return req, cfgErr
		}
		req.page.Size = cfg.GetIntOrElse(common.PageSizeConfigPath, req.page.Size)
	}
	if req.limit, err = flags.GetInt(LimitFlagName); err != nil {
		return req, err
	}
	if req.offset, err = flags.GetInt(OffsetFlagName); err != nil {
		return req, err
	}

	rawFilters, err := flags.GetStringArray(FilterFlagName)
	if err != nil {
		return req, err
	}
	if req.filters, err = parseFilters(rawFilters); err != nil {
		return req, err
	}

	if req.interact, err = helper.IsInteractive(); err != nil {
		return req, err
	}
	return req, nil
}

func (c *datasetCmd) validate(helper cmd.Helper) error {
	req, err := c.parseRequest(helper)
	if err != nil {
		return err
	}
	if req.page.Index < 1 {
		return &cmd.ConfigurationError{
			Err: fmt.Errorf("--%s must be at least 1", PageFlagName),
		}
	}
	if req.page.Size < 1 {
		return &cmd.ConfigurationError{
			Err: fmt.Errorf("--%s must be greater than 0", PageSizeFlagName),
		}
	}
	if req.limit < 0 || req.offset < 0 {
		return &cmd.ConfigurationError{
			Err: fmt.Errorf("--%s and --%s must not be negative", LimitFlagName, OffsetFlagName),
		}
	}
	return nil
}

func (c *datasetCmd) fetch(ctx context.Context, helper cmd.Helper, req listRequest) ([]dataview.Row, error) {
	cfg, err := helper.GetConfig()
	if err != nil {
		return nil, err
	}
	logger, err := helper.GetLogger()
	if err != nil {
		return nil, err
	}
	client, err := helper.GetPegasusClient(cfg, logger)
	if err != nil {
		return nil, err
	}

	if req.limit > 0 {
		return client.ListRows(ctx, c.ds, pegasus.ListOptions{
			Limit:   req.limit,
			Offset:  req.offset,
			Filters: req.filters,
		})
	}
	return client.GetAllRows(ctx, c.ds, 1000, req.filters)
}

func (c *datasetCmd) run(helper cmd.Helper) error {
	req, err := c.parseRequest(helper)
	if err != nil {
		return err
	}

	rows, err := c.fetch(helper.GetContext(), helper, req)
	if err != nil {
		attrs := cmd.TryConvertErrorToAttrs(err)
		return cmd.PrepareExecutionError(
			fmt.Sprintf("Failed to list %s", c.ds.Title()), err, helper.GetCmd(), attrs...)
	}

	outType, err := helper.GetOutputFormat()
	if err != nil {
		return err
	}
	streams := helper.GetStreams()
	columns := ColumnsFor(c.ds)

	if outType != common.TEXT {
		cfg, _ := helper.GetConfig()
		settings, err := jq.ResolveSettings(helper.GetCmd().Flags(), cfg)
		if err != nil {
			return err
		}
		if handled, err := jq.Apply(rows, outType, settings, streams.Out); handled || err != nil {
			return err
		}

		printer, err := cli.Format(outType.String(), streams.Out)
		if err != nil {
			return err
		}
		defer printer.Flush()
		printer.Print(rows)
		return nil
	}

	view := dataview.ComputeView(rows, columns, req.search, req.sort, req.page)

	opts := []tableview.Option{
		tableview.WithTitle(c.ds.Title()),
		tableview.WithPageSize(req.page.Size),
	}
	if cfg, cfgErr := helper.GetConfig(); cfgErr == nil {
		opts = append(opts, tableview.WithProfileName(cfg.GetProfile()))
	}

	if req.interact {
		opts = append(opts, tableview.WithReloader(func(ctx context.Context) ([]dataview.Row, error) {
			return c.fetch(ctx, helper, req)
		}))
		// the interactive view owns search/sort/page state from here on;
		// flag provided rows are its starting dataset
		return tableview.Render(helper.GetContext(), streams, rows, columns, opts...)
	}

	if err := tableview.Render(helper.GetContext(), streams, view.PageItems, columns, opts...); err != nil {
		return err
	}
	if view.TotalPages > 1 {
		_, err = fmt.Fprintf(streams.Out, "Page %d/%d — %d lignes au total\n",
			clampPage(req.page.Index, view.TotalPages), view.TotalPages, view.TotalFiltered)
	}
	return err
}

func clampPage(index, totalPages int) int {
	if index < 1 {
		return 1
	}
	if index > totalPages {
		return totalPages
	}
	return index
}
