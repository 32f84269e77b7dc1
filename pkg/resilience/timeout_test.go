package resilience

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTimeoutConfig(t *testing.T) {
	config := DefaultTimeoutConfig()

	assert.Greater(t, config.CronJob, config.GatewayOperation)
	assert.Greater(t, config.GatewayOperation, config.GatewayAttempt)
	assert.Greater(t, config.GatewayAttempt, config.DatabaseQuery)

	// three attempts and two pauses must fit inside one operation
	worstCase := 3*config.GatewayAttempt + 2*GatewayRetryBackoff().Delay
	assert.GreaterOrEqual(t, config.GatewayOperation, worstCase)

	assert.Equal(t, 90*time.Second, config.GatewayAttempt)
}

func TestTestTimeoutConfig(t *testing.T) {
	config := TestTimeoutConfig()

	assert.Less(t, config.GatewayOperation, 10*time.Second)
	assert.Greater(t, config.CronJob, config.GatewayOperation)
	assert.Greater(t, config.GatewayOperation, config.GatewayAttempt)
}

func TestTimeoutHierarchyPreservation(t *testing.T) {
	config := DefaultTimeoutConfig()

	parent, parentCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer parentCancel()

	child, childCancel := config.GatewayContext(parent)
	defer childCancel()

	parentDeadline, _ := parent.Deadline()
	childDeadline, _ := child.Deadline()
	assert.False(t, childDeadline.After(parentDeadline))
}

func TestContextTimeout(t *testing.T) {
	config := TestTimeoutConfig()
	config.DatabaseQuery = 50 * time.Millisecond

	ctx, cancel := config.QueryContext(context.Background())
	defer cancel()

	select {
	case <-ctx.Done():
		assert.ErrorIs(t, ctx.Err(), context.DeadlineExceeded)
	case <-time.After(500 * time.Millisecond):
		t.Error("Context should time out after 50ms")
	}
}

func TestAllContextCreators(t *testing.T) {
	config := DefaultTimeoutConfig()
	parent := context.Background()

	tests := []struct {
		name    string
		creator func(context.Context) (context.Context, context.CancelFunc)
		timeout time.Duration
	}{
		{"CronContext", config.CronContext, config.CronJob},
		{"GatewayContext", config.GatewayContext, config.GatewayOperation},
		{"QueryContext", config.QueryContext, config.DatabaseQuery},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := tt.creator(parent)
			defer cancel()

			deadline, ok := ctx.Deadline()
			require.True(t, ok, "%s should have deadline", tt.name)

			diff := deadline.Sub(time.Now().Add(tt.timeout)).Abs()
			assert.Less(t, diff, 100*time.Millisecond)
		})
	}
}
