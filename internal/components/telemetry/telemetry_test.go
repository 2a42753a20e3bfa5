package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScopedAPI(t *testing.T) {
	recorder := NewRecorderAPI()
	scoped := NewScopedAPI("samvidha", recorder)

	scoped.ReportBroken("client.fetch", "detail")
	scoped.ReportWarning("client.login")
	scoped.ReportDebug("fetching")
	scoped.ReportCount("cache.hit", 3)

	require.Equal(t, []string{"samvidha: client.fetch"}, recorder.Ids("broken"))
	require.Equal(t, []string{"samvidha: client.login"}, recorder.Ids("warning"))
	require.Equal(t, []string{"samvidha: fetching"}, recorder.Ids("debug"))

	counts := recorder.Reports("count")
	require.Len(t, counts, 1)
	require.Equal(t, []any{int64(3)}, counts[0].Params)
}

func TestSetupWithoutEndpoints(t *testing.T) {
	tel, err := Setup(context.Background(), "test:telemetry", Config{})
	require.NoError(t, err)
	require.Nil(t, tel.TracerProvider)
	require.Nil(t, tel.MeterProvider)
	require.NoError(t, tel.Shutdown(context.Background()))
}
