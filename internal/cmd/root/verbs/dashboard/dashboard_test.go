package dashboard

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	cmdpkg "github.com/pegasus-infra/pegasusctl/internal/cmd"
	"github.com/pegasus-infra/pegasusctl/internal/config"
	"github.com/pegasus-infra/pegasusctl/internal/iostreams"
	"github.com/pegasus-infra/pegasusctl/internal/log"
	"github.com/pegasus-infra/pegasusctl/internal/pegasus"
	utilviper "github.com/pegasus-infra/pegasusctl/internal/util/viper"
)

func TestFormatStat(t *testing.T) {
	tests := []struct {
		value float64
		want  string
	}{
		{120, "120"},
		{0, "0"},
		{0.42, "42.0%"},
		{1, "1"},
		{3.14159, "3.14"},
	}
	for _, tt := range tests {
		if got := formatStat(tt.value); got != tt.want {
			t.Fatalf("formatStat(%v) = %q, want %q", tt.value, got, tt.want)
		}
	}
}

func TestDefaultGroupByCoversEveryDataset(t *testing.T) {
	for _, ds := range pegasus.Datasets() {
		require.NotEmpty(t, defaultGroupBy[ds], "dataset %s", ds)
	}
}

func testContext(t *testing.T, handler http.Handler, output string) (context.Context, *bytes.Buffer) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	mainv := utilviper.NewViper("nonexistent.yaml")
	mainv.Set("default", map[string]any{"output": output})
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

func pegasusStubHandler(t *testing.T) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/api/v1/trb/stats":
			fmt.Fprint(w, `{"total":57,"open_ratio":0.25}`)
		case r.URL.Path == "/api/v1/trb/aggregate" && r.URL.Query().Get("by") == "severity":
			fmt.Fprint(w, `[{"category":"critical","count":7},{"category":"minor","count":50}]`)
		default:
			t.Errorf("unexpected request %s %s", r.URL.Path, r.URL.RawQuery)
			w.WriteHeader(http.StatusNotFound)
		}
	})
}

func runDashboard(t *testing.T, ctx context.Context, args ...string) error {
	t.Helper()
	c, err := NewDashboardCmd()
	require.NoError(t, err)
	c.SetArgs(args)
	c.SetOut(io.Discard)
	c.SetErr(io.Discard)
	return c.ExecuteContext(ctx)
}

func TestDashboardRendersStatsAndCharts(t *testing.T) {
	ctx, out := testContext(t, pegasusStubHandler(t), "text")

	require.NoError(t, runDashboard(t, ctx, "trb", "--group-by", "severity"))

	text := out.String()
	require.Contains(t, text, "Tableau de bord")
	require.Contains(t, text, "Trouble Tickets")
	require.Contains(t, text, "Total : 57")
	require.Contains(t, text, "Open Ratio : 25.0%")
	require.Contains(t, text, "Par Severity")
	require.Contains(t, text, "critical")
	require.Contains(t, text, "7 • 12.3%")
}

func TestDashboardJSONOutput(t *testing.T) {
	ctx, out := testContext(t, pegasusStubHandler(t), "json")

	require.NoError(t, runDashboard(t, ctx, "trb", "--group-by", "severity"))

	text := out.String()
	require.Contains(t, text, `"dataset"`)
	require.Contains(t, text, `"trb"`)
	require.Contains(t, text, `"severity"`)
	require.Contains(t, text, `"critical"`)
}

func TestDashboardRejectsUnknownDataset(t *testing.T) {
	ctx, _ := testContext(t, pegasusStubHandler(t), "text")

	err := runDashboard(t, ctx, "towers")
	var cfgErr *cmdpkg.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
}

func TestDashboardReportsStatsFailure(t *testing.T) {
	ctx, _ := testContext(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}), "text")

	err := runDashboard(t, ctx, "sites")
	var execErr *cmdpkg.ExecutionError
	require.ErrorAs(t, err, &execErr)
	require.Contains(t, execErr.Msg, "stats")
}
