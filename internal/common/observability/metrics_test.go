// internal/common/observability/metrics_test.go
package observability

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObservability_RecordsToRegistry(t *testing.T) {
	reg := promclient.NewRegistry()
	obs, err := New("leadfollow-test", reg)
	require.NoError(t, err)
	defer obs.Shutdown(context.Background())

	ctx := context.Background()
	obs.RecordOperation(ctx, "get_alerts", 12*time.Millisecond, nil)
	obs.RecordOperation(ctx, "get_alerts", 3*time.Millisecond, errors.New("db down"))
	obs.RecordAlertCount(ctx, 4)

	families, err := reg.Gather()
	require.NoError(t, err)

	var names []string
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.True(t, containsPrefix(names, "followup_operations"), "got %v", names)
	assert.True(t, containsPrefix(names, "followup_operation_duration"), "got %v", names)
	assert.True(t, containsPrefix(names, "followup_alerts_per_user"), "got %v", names)
}

func containsPrefix(names []string, prefix string) bool {
	for _, n := range names {
		if strings.HasPrefix(n, prefix) {
			return true
		}
	}
	return false
}

func TestObservability_NoopIsSafe(t *testing.T) {
	var nilObs *Observability
	assert.NotPanics(t, func() {
		NewNoop().RecordOperation(context.Background(), "x", time.Second, nil)
		NewNoop().RecordAlertCount(context.Background(), 1)
		nilObs.RecordOperation(context.Background(), "x", time.Second, nil)
		assert.NoError(t, nilObs.Shutdown(context.Background()))
	})
}
