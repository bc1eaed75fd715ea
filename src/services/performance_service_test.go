package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"portfolio/src/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotAll_UpsertsPerPeriod(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.fetcher.set("AAPL", d("110"))
	pid := env.newPortfolio(t, "Main")
	env.trade(t, pid, models.TransactionTypeBuy, "AAPL", 10, "100", day(2024, 1, 1))

	at := time.Date(2031, time.March, 31, 23, 55, 0, 0, time.UTC)
	summary, err := env.performance.SnapshotAll(ctx, at)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Month)
	assert.Equal(t, 2031, summary.Year)
	assert.Equal(t, 1, summary.Upserted)

	env.fetcher.set("AAPL", d("120"))
	_, err = env.refresher.RefreshAll(ctx)
	require.NoError(t, err)
	_, err = env.performance.SnapshotAll(ctx, at)
	require.NoError(t, err)

	history, err := env.portfolios.PerformanceHistory(ctx, owner, pid)
	require.NoError(t, err)
	require.Len(t, history, 2, "creation row plus one row for March 2031")

	last := history[len(history)-1]
	assert.Equal(t, 2031, last.Year)
	assert.True(t, last.Value.Equal(d("1200")))
	assert.True(t, last.CapitalGain.Equal(d("200")))
	assert.True(t, last.Performance.Equal(d("20")))
}

func TestSnapshotAll_ContinuesPastFailures(t *testing.T) {
	env := newTestEnv(t)
	broken := env.newPortfolio(t, "Broken")
	env.newPortfolio(t, "Fine")
	env.store.failPerformance[broken] = errors.New("constraint violation")

	summary, err := env.performance.SnapshotAll(context.Background(), time.Date(2031, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Upserted)
	assert.Equal(t, 1, summary.Failed)
}
