package scheduler

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewScheduledTask_InvalidSpec(t *testing.T) {
	_, err := NewScheduledTask("bad", "not a cron", logrus.New(), func(context.Context) error { return nil })
	assert.Error(t, err)
}

func TestScheduledTask_NextAndCancel(t *testing.T) {
	task, err := NewScheduledTask("refresh", "*/5 * * * *", logrus.New(), func(context.Context) error { return nil })
	require.NoError(t, err)

	assert.Equal(t, "refresh", task.Name)
	assert.Equal(t, "*/5 * * * *", task.Spec)
	assert.False(t, task.Next().IsZero())

	task.Cancel()
	assert.True(t, task.Next().IsZero())
}
