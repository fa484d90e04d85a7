package pipeline

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MaxShih147/brew-signal/internal/aggregate"
	"github.com/MaxShih147/brew-signal/internal/breaker"
	"github.com/MaxShih147/brew-signal/internal/collector"
	"github.com/MaxShih147/brew-signal/internal/domain"
	"github.com/MaxShih147/brew-signal/internal/ratelimit"
	"github.com/MaxShih147/brew-signal/internal/retry"
	"github.com/MaxShih147/brew-signal/internal/store"
)

// fakeCollector returns a fixed outcome per alias keyword, used to drive
// run_collection through success/partial/fail paths deterministically.
type fakeCollector struct {
	source  string
	results map[string]collector.FetchResult
}

func (f *fakeCollector) SourceKey() string { return f.source }
func (f *fakeCollector) Fetch(_ context.Context, req collector.Request) (collector.FetchResult, error) {
	if r, ok := f.results[req.Keyword]; ok {
		return r, nil
	}
	return collector.FetchResult{Failure: &collector.Failure{Kind: collector.ErrEmpty}}, nil
}

type memAliasRepo struct {
	mu      sync.Mutex
	aliases map[uuid.UUID]domain.Alias
}

func (m *memAliasRepo) Create(_ context.Context, a domain.Alias) (domain.Alias, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.aliases[a.ID] = a
	return a, nil
}
func (m *memAliasRepo) ListByIP(_ context.Context, ipID uuid.UUID) ([]domain.Alias, error) {
	return m.ListEnabledByIP(context.Background(), ipID)
}
func (m *memAliasRepo) ListEnabledByIP(_ context.Context, ipID uuid.UUID) ([]domain.Alias, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Alias
	for _, a := range m.aliases {
		if a.IPID == ipID && a.Enabled {
			out = append(out, a)
		}
	}
	return out, nil
}
func (m *memAliasRepo) Get(_ context.Context, id uuid.UUID) (domain.Alias, error) {
	return m.aliases[id], nil
}
func (m *memAliasRepo) Update(_ context.Context, a domain.Alias) error {
	m.aliases[a.ID] = a
	return nil
}
func (m *memAliasRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.aliases, id)
	return nil
}
func (m *memAliasRepo) ResetWeight(_ context.Context, id uuid.UUID) (domain.Alias, error) {
	a := m.aliases[id]
	a.Weight = a.OriginalWeight
	m.aliases[id] = a
	return a, nil
}

type memSampleRepo struct {
	mu      sync.Mutex
	samples []domain.Sample
}

func (m *memSampleRepo) Upsert(_ context.Context, s domain.Sample) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, existing := range m.samples {
		if existing.IPID == s.IPID && existing.AliasID == s.AliasID && existing.Geo == s.Geo &&
			existing.Timeframe == s.Timeframe && existing.Date.Equal(s.Date) {
			m.samples[i] = s
			return nil
		}
	}
	m.samples = append(m.samples, s)
	return nil
}
func (m *memSampleRepo) ListForComposite(_ context.Context, ipID uuid.UUID, geo, timeframe string) ([]domain.Sample, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Sample
	for _, s := range m.samples {
		if s.IPID == ipID && s.Geo == geo && s.Timeframe == timeframe {
			out = append(out, s)
		}
	}
	return out, nil
}
func (m *memSampleRepo) ListByAliasSince(_ context.Context, aliasID uuid.UUID, since time.Time) ([]domain.Sample, error) {
	return nil, nil
}

type memCompositeRepo struct {
	mu     sync.Mutex
	series []domain.CompositeDaily
}

func (m *memCompositeRepo) ReplaceSeries(_ context.Context, ipID uuid.UUID, geo, timeframe string, rows []domain.CompositeDaily) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.series = rows
	return nil
}
func (m *memCompositeRepo) ListSeries(_ context.Context, ipID uuid.UUID, geo, timeframe string) ([]domain.CompositeDaily, error) {
	return m.series, nil
}
func (m *memCompositeRepo) Latest(_ context.Context, ipID uuid.UUID, geo, timeframe string) (*domain.CompositeDaily, error) {
	if len(m.series) == 0 {
		return nil, nil
	}
	last := m.series[len(m.series)-1]
	return &last, nil
}

type memSourceRunRepo struct {
	mu   sync.Mutex
	runs []domain.SourceRun
}

func (m *memSourceRunRepo) Create(_ context.Context, r domain.SourceRun) (domain.SourceRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, r)
	return r, nil
}
func (m *memSourceRunRepo) ListBySource(_ context.Context, sourceKey string, limit int) ([]domain.SourceRun, error) {
	return m.runs, nil
}
func (m *memSourceRunRepo) ListRecent(_ context.Context, limit int) ([]domain.SourceRun, error) {
	return m.runs, nil
}

type memSourceHealthRepo struct {
	mu   sync.Mutex
	rows map[string]domain.IPSourceHealth
}

func (m *memSourceHealthRepo) Upsert(_ context.Context, h domain.IPSourceHealth) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.rows == nil {
		m.rows = map[string]domain.IPSourceHealth{}
	}
	m.rows[h.IPID.String()+"/"+h.SourceKey] = h
	return nil
}
func (m *memSourceHealthRepo) ListByIP(_ context.Context, ipID uuid.UUID) ([]domain.IPSourceHealth, error) {
	var out []domain.IPSourceHealth
	for _, h := range m.rows {
		if h.IPID == ipID {
			out = append(out, h)
		}
	}
	return out, nil
}
func (m *memSourceHealthRepo) Get(_ context.Context, ipID uuid.UUID, sourceKey string) (*domain.IPSourceHealth, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.rows[ipID.String()+"/"+sourceKey]
	if !ok {
		return nil, nil
	}
	return &h, nil
}
func (m *memSourceHealthRepo) ListAll(_ context.Context) ([]domain.IPSourceHealth, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.IPSourceHealth, 0, len(m.rows))
	for _, h := range m.rows {
		out = append(out, h)
	}
	return out, nil
}

func newTestRunner(coll collector.Collector, aliases []domain.Alias) (*Runner, *memCompositeRepo, *memSourceRunRepo) {
	aliasMap := map[uuid.UUID]domain.Alias{}
	for _, a := range aliases {
		aliasMap[a.ID] = a
	}
	composites := &memCompositeRepo{}
	runs := &memSourceRunRepo{}
	s := store.Store{
		Aliases:      &memAliasRepo{aliases: aliasMap},
		Samples:      &memSampleRepo{},
		Composites:   composites,
		SourceRuns:   runs,
		SourceHealth: &memSourceHealthRepo{},
	}
	return &Runner{
		Collectors: map[string]collector.Collector{coll.SourceKey(): coll},
		RateLimits: ratelimit.NewManager(),
		Breakers:   breaker.NewManager(5, time.Second),
		Retry:      retry.NewPolicy(1, 0.001),
		Store:      s,
		Thresholds: aggregate.Thresholds{TWow: 0.30, PBreak: 85},
		Logger:     zerolog.Nop(),
	}, composites, runs
}

func TestRunCollection_AllSucceed(t *testing.T) {
	alias1 := domain.Alias{ID: uuid.New(), Text: "one", Weight: 1, Enabled: true}
	alias2 := domain.Alias{ID: uuid.New(), Text: "two", Weight: 1, Enabled: true}
	ipID := uuid.New()
	alias1.IPID, alias2.IPID = ipID, ipID

	coll := &fakeCollector{source: "pytrends", results: map[string]collector.FetchResult{
		"one": {Points: []collector.DataPoint{{Date: time.Now(), Value: 50}}},
		"two": {Points: []collector.DataPoint{{Date: time.Now(), Value: 60}}},
	}}
	runner, _, runs := newTestRunner(coll, []domain.Alias{alias1, alias2})

	summary, err := runner.RunCollection(context.Background(), ipID, "TW", "12m", "pytrends")
	require.NoError(t, err)
	assert.Equal(t, OutcomeSuccess, summary.Outcome)
	assert.Len(t, summary.Aliases, 2)
	assert.Len(t, runs.runs, 2)
}

func TestRunCollection_PartialSuccess(t *testing.T) {
	alias1 := domain.Alias{ID: uuid.New(), Text: "one", Weight: 1, Enabled: true}
	alias2 := domain.Alias{ID: uuid.New(), Text: "two", Weight: 1, Enabled: true}
	ipID := uuid.New()
	alias1.IPID, alias2.IPID = ipID, ipID

	coll := &fakeCollector{source: "pytrends", results: map[string]collector.FetchResult{
		"one": {Points: []collector.DataPoint{{Date: time.Now(), Value: 50}}},
	}}
	runner, _, _ := newTestRunner(coll, []domain.Alias{alias1, alias2})

	summary, err := runner.RunCollection(context.Background(), ipID, "TW", "12m", "pytrends")
	require.NoError(t, err)
	assert.Equal(t, OutcomeSuccessPartial, summary.Outcome)
}

func TestRunCollection_AllFail(t *testing.T) {
	alias1 := domain.Alias{ID: uuid.New(), Text: "one", Weight: 1, Enabled: true}
	ipID := uuid.New()
	alias1.IPID = ipID

	coll := &fakeCollector{source: "pytrends", results: map[string]collector.FetchResult{}}
	runner, composites, _ := newTestRunner(coll, []domain.Alias{alias1})

	summary, err := runner.RunCollection(context.Background(), ipID, "TW", "12m", "pytrends")
	require.NoError(t, err)
	assert.Equal(t, OutcomeFail, summary.Outcome)
	assert.Empty(t, composites.series)
}

func TestRunCollection_UnknownSource(t *testing.T) {
	runner, _, _ := newTestRunner(&fakeCollector{source: "pytrends"}, nil)
	_, err := runner.RunCollection(context.Background(), uuid.New(), "TW", "12m", "nope")
	assert.Error(t, err)
}
