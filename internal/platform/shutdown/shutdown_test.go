package shutdown

import (
	"errors"
	"testing"

	"github.com/SlpAus/little-learners-backend/internal/testutil"
	"github.com/SlpAus/little-learners-backend/pkg/lifecycle"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShutdown_StopsServicesThenFinalizes(t *testing.T) {
	testutil.QuietLogs()
	graceful := lifecycle.NewManager(nil)
	forceful := lifecycle.NewManager(nil)

	stopped := make(chan struct{})
	require.NoError(t, graceful.Go("worker", func(h *lifecycle.Handle) {
		defer h.Close()
		<-h.Done()
		close(stopped)
	}))

	var order []string
	c := NewCoordinator(graceful, forceful,
		func() error {
			select {
			case <-stopped:
				order = append(order, "after-worker")
			default:
				order = append(order, "before-worker")
			}
			return nil
		},
		func() error {
			order = append(order, "second")
			return errors.New("ignored")
		},
	)
	c.Shutdown(nil)

	assert.Equal(t, []string{"after-worker", "second"}, order)
}
