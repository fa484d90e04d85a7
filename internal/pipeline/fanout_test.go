package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MaxShih147/brew-signal/internal/collector"
	"github.com/MaxShih147/brew-signal/internal/domain"
)

func TestRunAll_FansOutAcrossIPs(t *testing.T) {
	alias := domain.Alias{ID: uuid.New(), Text: "one", Weight: 1, Enabled: true}
	ipA, ipB := uuid.New(), uuid.New()

	coll := &fakeCollector{source: "pytrends", results: map[string]collector.FetchResult{
		"one": {Points: []collector.DataPoint{{Date: time.Now(), Value: 50}}},
	}}

	runnerA, _, _ := newTestRunner(coll, []domain.Alias{alias})
	// Both jobs run on the one Runner and its store; the alias carries no
	// IPID, so neither ipA nor ipB has enabled aliases and each job ends
	// with a fail outcome but no error.
	jobs := []Job{
		{IPID: ipA, Geo: "TW", Timeframe: "12m", SourceKey: "pytrends"},
		{IPID: ipB, Geo: "TW", Timeframe: "12m", SourceKey: "pytrends"},
	}

	results := runnerA.RunAll(context.Background(), jobs, 2)
	require.Len(t, results, 2)
	for _, res := range results {
		assert.NoError(t, res.Err)
	}
}

func TestRunAll_UnknownSourceProducesPerJobError(t *testing.T) {
	runner, _, _ := newTestRunner(&fakeCollector{source: "pytrends"}, nil)
	jobs := []Job{{IPID: uuid.New(), Geo: "TW", Timeframe: "12m", SourceKey: "nope"}}

	results := runner.RunAll(context.Background(), jobs, 1)
	require.Len(t, results, 1)
	assert.Error(t, results[0].Err)
}
