package telemetry

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScopedAPI(t *testing.T) {
	recorder := &Recorder{}
	scoped := NewScopedAPI("panda", recorder)

	scoped.ReportBroken("client.get-json", "endpoint")
	scoped.ReportWarning("client.logout")
	scoped.ReportCount("service.site-count", 3)

	broken := recorder.Reports("broken")
	require.Len(t, broken, 1)
	require.Equal(t, "panda: client.get-json", broken[0].Id)
	require.Equal(t, []any{"endpoint"}, broken[0].Params)

	require.Equal(t, "panda: client.logout", recorder.Reports("warning")[0].Id)
	require.Equal(t, []any{int64(3)}, recorder.Reports("count")[0].Params)
	require.Empty(t, recorder.Reports("debug"))
}
