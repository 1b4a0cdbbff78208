package main

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/7vars/rxkit"
)

func TestRunAutoconnect(t *testing.T) {
	var buf bytes.Buffer
	err := run(context.Background(), rxkit.Settings{
		Interval: 20 * time.Millisecond,
		Observe:  150 * time.Millisecond,
		Mode:     rxkit.ModeAutoconnect,
		Every:    1,
	}, rxkit.NewLoggerTo(&buf))

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "received tick")
	assert.Contains(t, buf.String(), "mode=autoconnect")
}

func TestRunConnectAfterObserveWindow(t *testing.T) {
	var buf bytes.Buffer
	err := run(context.Background(), rxkit.Settings{
		Interval:     10 * time.Millisecond,
		Observe:      50 * time.Millisecond,
		Mode:         rxkit.ModeConnect,
		ConnectDelay: time.Hour,
		Every:        1,
	}, rxkit.NewLoggerTo(&buf))

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "received 0 ticks")
}

func TestRunRejectsEvery(t *testing.T) {
	err := run(context.Background(), rxkit.Settings{Interval: time.Second, Every: 0}, rxkit.Discard())
	assert.Error(t, err)
}

func TestRunRejectsInterval(t *testing.T) {
	err := run(context.Background(), rxkit.Settings{Every: 1}, rxkit.Discard())
	assert.ErrorIs(t, err, rxkit.ErrInvalidInterval)
}
