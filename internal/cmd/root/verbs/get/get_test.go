package get

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	cmdpkg "github.com/pegasus-infra/pegasusctl/internal/cmd"
	"github.com/pegasus-infra/pegasusctl/internal/config"
	"github.com/pegasus-infra/pegasusctl/internal/iostreams"
	"github.com/pegasus-infra/pegasusctl/internal/log"
	"github.com/pegasus-infra/pegasusctl/internal/pegasus"
	utilviper "github.com/pegasus-infra/pegasusctl/internal/util/viper"
)

func TestParseFilters(t *testing.T) {
	filters, err := parseFilters([]string{"province=Nord", "status = open "})
	require.NoError(t, err)
	require.Equal(t, map[string]string{"province": "Nord", "status": "open"}, filters)

	filters, err = parseFilters(nil)
	require.NoError(t, err)
	require.Nil(t, filters)

	for _, bad := range []string{"province", "=Nord", "  =x"} {
		_, err = parseFilters([]string{bad})
		var cfgErr *cmdpkg.ConfigurationError
		require.ErrorAs(t, err, &cfgErr, "entry %q", bad)
	}
}

func TestClampPage(t *testing.T) {
	require.Equal(t, 1, clampPage(0, 3))
	require.Equal(t, 2, clampPage(2, 3))
	require.Equal(t, 3, clampPage(9, 3))
}

func TestColumnsForCoversEveryDataset(t *testing.T) {
	for _, ds := range pegasus.Datasets() {
		columns := ColumnsFor(ds)
		require.NotEmpty(t, columns, "dataset %s", ds)
		for _, col := range columns {
			require.NotEmpty(t, col.Key)
			require.NotEmpty(t, col.Label)
		}
	}
}

// testContext builds the runtime context a command expects, wired to a stub
// API server and an in-memory configuration.
func testContext(t *testing.T, handler http.Handler, output string) (context.Context, *bytes.Buffer) {
	t.Helper()
	return testContextWithSettings(t, handler, map[string]any{"output": output})
}

// testContextWithSettings is testContext with full control over the profile
// settings map.
func testContextWithSettings(t *testing.T, handler http.Handler, settings map[string]any,
) (context.Context, *bytes.Buffer) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	mainv := utilviper.NewViper("nonexistent.yaml")
	mainv.Set("default", settings)
	cfg := config.BuildProfiledConfig("default", "nonexistent.yaml", mainv)

	streams, _, out, _ := iostreams.NewTestIOStreams()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	var factory cmdpkg.PegasusClientFactory = func(
		config.Hook, *slog.Logger,
	) (*pegasus.Client, error) {
		return pegasus.New(server.URL, logger, pegasus.WithDoer(server.Client()))
	}

	ctx := context.WithValue(context.Background(), config.ConfigKey, config.Hook(cfg))
	ctx = context.WithValue(ctx, iostreams.StreamsKey, streams)
	ctx = context.WithValue(ctx, log.LoggerKey, logger)
	ctx = context.WithValue(ctx, cmdpkg.PegasusClientFactoryKey, factory)
	return ctx, out
}

func runGetCommand(t *testing.T, ctx context.Context, args ...string) error {
	t.Helper()
	getCmd, err := NewGetCmd()
	require.NoError(t, err)
	getCmd.SetArgs(args)
	getCmd.SetOut(io.Discard)
	getCmd.SetErr(io.Discard)
	return getCmd.ExecuteContext(ctx)
}

func TestGetSitesRendersStaticTable(t *testing.T) {
	ctx, out := testContext(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/sites/", r.URL.Path)
		fmt.Fprint(w, `[
			{"site_id":"SIT-001","site_name":"Kin Centre","province":"Kinshasa"},
			{"site_id":"SIT-002","site_name":"Goma Nord","province":"Nord-Kivu"}
		]`)
	}), "text")

	require.NoError(t, runGetCommand(t, ctx, "sites", "--limit", "10"))

	text := out.String()
	require.Contains(t, text, "Nom du site")
	require.Contains(t, text, "SIT-001")
	require.Contains(t, text, "Goma Nord")
	require.Contains(t, text, "(2 lignes)")
}

func TestGetSitesPageSizeFromConfig(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `[
			{"site_id":"SIT-001","site_name":"Alpha","province":"Nord"},
			{"site_id":"SIT-002","site_name":"Beta","province":"Sud"},
			{"site_id":"SIT-003","site_name":"Gamma","province":"Nord"}
		]`)
	})

	ctx, out := testContextWithSettings(t, handler, map[string]any{
		"output":  "text",
		"pegasus": map[string]any{"page-size": 2},
	})

	require.NoError(t, runGetCommand(t, ctx, "sites", "--limit", "10"))

	text := out.String()
	require.Contains(t, text, "SIT-002")
	require.NotContains(t, text, "SIT-003")
	require.Contains(t, text, "Page 1/2")

	// an explicit flag still wins over the profile configuration
	ctx, out = testContextWithSettings(t, handler, map[string]any{
		"output":  "text",
		"pegasus": map[string]any{"page-size": 2},
	})
	require.NoError(t, runGetCommand(t, ctx, "sites", "--limit", "10", "--page-size", "50"))
	require.Contains(t, out.String(), "SIT-003")
}

func TestGetSitesAppliesSearchAndSort(t *testing.T) {
	ctx, out := testContext(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `[
			{"site_id":"SIT-001","site_name":"Alpha","province":"Nord"},
			{"site_id":"SIT-002","site_name":"Beta","province":"Sud"},
			{"site_id":"SIT-003","site_name":"Gamma","province":"Nord"}
		]`)
	}), "text")

	require.NoError(t, runGetCommand(t, ctx,
		"sites", "--limit", "10", "--search", "nord", "--sort-by", "site_id", "--desc"))

	text := out.String()
	require.Contains(t, text, "SIT-003")
	require.Contains(t, text, "SIT-001")
	require.NotContains(t, text, "SIT-002")
	require.Less(t, strings.Index(text, "SIT-003"), strings.Index(text, "SIT-001"))
}

func TestGetSitesJSONOutputWithJq(t *testing.T) {
	ctx, out := testContext(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `[{"site_id":"SIT-001"},{"site_id":"SIT-002"}]`)
	}), "json")

	require.NoError(t, runGetCommand(t, ctx,
		"sites", "--limit", "10", "--jq", ".[].site_id", "--jq-color", "never"))

	require.Equal(t, "\"SIT-001\"\n\"SIT-002\"\n", out.String())
}

func TestGetRejectsBadPaging(t *testing.T) {
	ctx, _ := testContext(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `[]`)
	}), "text")

	err := runGetCommand(t, ctx, "sites", "--page", "0")
	var cfgErr *cmdpkg.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)

	err = runGetCommand(t, ctx, "sites", "--limit", "-1")
	require.ErrorAs(t, err, &cfgErr)
}

func TestGetReportsAPIFailure(t *testing.T) {
	ctx, _ := testContext(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}), "text")

	err := runGetCommand(t, ctx, "trb")
	var execErr *cmdpkg.ExecutionError
	require.ErrorAs(t, err, &execErr)
	require.Contains(t, execErr.Msg, "Trouble Tickets")
}

func TestGetFiltersListsDistinctValues(t *testing.T) {
	ctx, out := testContext(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/sites/filters", r.URL.Path)
		fmt.Fprint(w, `{"province":["Kinshasa","Nord-Kivu"],"class":["A","B"]}`)
	}), "text")

	require.NoError(t, runGetCommand(t, ctx, "filters", "sites"))

	text := out.String()
	require.Contains(t, text, "Class:")
	require.Contains(t, text, "  A\n  B\n")
	require.Contains(t, text, "Province:")
	require.Contains(t, text, "  Kinshasa")

	// alphabetical field order
	require.Less(t, strings.Index(text, "Class:"), strings.Index(text, "Province:"))
}
