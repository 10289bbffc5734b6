package get

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pegasus-infra/pegasusctl/internal/cmd"
	"github.com/pegasus-infra/pegasusctl/internal/cmd/common"
	"github.com/pegasus-infra/pegasusctl/internal/cmd/output/jq"
	"github.com/pegasus-infra/pegasusctl/internal/meta"
	"github.com/pegasus-infra/pegasusctl/internal/pegasus"
	"github.com/pegasus-infra/pegasusctl/internal/util/i18n"
	"github.com/pegasus-infra/pegasusctl/internal/util/normalizers"
)

const (
	SearchFlagName   = "search"
	SortByFlagName   = "sort-by"
	DescFlagName     = "desc"
	PageFlagName     = "page"
	PageSizeFlagName = "page-size"
	LimitFlagName    = "limit"
	OffsetFlagName   = "offset"
	FilterFlagName   = "filter"
)

var (
	getShort = i18n.T("root.verbs.get.getShort",
		"Fetch and display Pegasus datasets")
	getLong = normalizers.LongDesc(i18n.T("root.verbs.get.getLong",
		`Use the get verb to fetch rows from the Pegasus passive infrastructure
API and display them as a table. Search, sort, and pagination apply to the
fetched rows; server side filters narrow what is fetched.`))
	getExamples = normalizers.Examples(i18n.T("root.verbs.get.getExamples",
		fmt.Sprintf(`
		# List sites as a table
		%[1]s get sites
		# Browse trouble tickets interactively
		%[1]s get trb -i
		# Filter server side, then search client side
		%[1]s get sites --filter province=Kinshasa --search "solar"
		# Third page of 25 work orders, sorted by status
		%[1]s get pmwo --page 3 --page-size 25 --sort-by status
		# Raw JSON through a jq expression
		%[1]s get swo -o json --jq '.[].site_id'
		`, meta.CLIName)))
)

// NewGetCmd builds the get verb with one subcommand per dataset plus the
// distinct-filter-values listing.
func NewGetCmd() (*cobra.Command, error) {
	getCmd := &cobra.Command{
		Use:     "get",
		Short:   getShort,
		Long:    getLong,
		Example: getExamples,
		Aliases: []string{"g"},
	}

	flags := getCmd.PersistentFlags()
	flags.String(SearchFlagName, "",
		"Case-insensitive text searched across every field of each row.")
	flags.String(SortByFlagName, "",
		"Field to sort the rows by.")
	flags.Bool(DescFlagName, false,
		"Sort in descending order.")
	flags.Int(PageFlagName, 1,
		"Page of results to display (1-based).")
	flags.Int(PageSizeFlagName, common.DefaultPageSize,
		"Number of rows per page.")
	flags.Int(LimitFlagName, 0,
		"Maximum number of rows to fetch from the API (0 fetches everything).")
	flags.Int(OffsetFlagName, 0,
		"Number of rows the API should skip before returning results.")
	flags.StringArray(FilterFlagName, nil,
		"Server side filter as field=value. Repeatable. Allowed values: 'get filters <dataset>'.")
	flags.BoolP(common.InteractiveFlagName, common.InteractiveFlagShort, false,
		"Browse the rows in an interactive table.")
	jq.AddFlags(flags)

	for _, ds := range pegasus.Datasets() {
		getCmd.AddCommand(newDatasetCmd(ds))
	}
	getCmd.AddCommand(newFiltersCmd())

	return getCmd, nil
}

// parseFilters turns repeated field=value flags into the query map.
func parseFilters(raw []string) (map[string]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	filters := make(map[string]string, len(raw))
	for _, entry := range raw {
		field, value, ok := strings.Cut(entry, "=")
		field = strings.TrimSpace(field)
		if !ok || field == "" {
			return nil, &cmd.ConfigurationError{
				Err: fmt.Errorf("invalid --%s value %q, expected field=value", FilterFlagName, entry),
			}
		}
		filters[field] = strings.TrimSpace(value)
	}
	return filters, nil
}
