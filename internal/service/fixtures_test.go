package service

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"labcatalog/internal/auth"
	"labcatalog/internal/domain"
	"labcatalog/internal/notify"
	"labcatalog/internal/repository"
	"labcatalog/internal/store"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var (
	adminCtx = auth.WithPrincipal(context.Background(), auth.Principal{Email: "admin@lab.example", Role: auth.RoleAdmin})
	userCtx  = auth.WithPrincipal(context.Background(), auth.Principal{Email: "tech@lab.example", Role: "user"})
)

type testEnv struct {
	store     *store.MemoryStore
	repo      *repository.Repository
	kv        *fakeKV
	events    *recordingPublisher
	resolver  *Resolver
	search    *SearchService
	catalog   *CatalogService
	notes     *NoteService
	transfer  *TransferService
	trainings *TrainingService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := zap.NewNop()
	s := store.NewMemoryStore()
	repo := repository.New(s)
	kv := newFakeKV()
	events := &recordingPublisher{}

	resolver := NewResolver(repo, repo, logger)
	search := NewSearchService(repo, kv, time.Minute, logger)
	return &testEnv{
		store:     s,
		repo:      repo,
		kv:        kv,
		events:    events,
		resolver:  resolver,
		search:    search,
		catalog:   NewCatalogService(repo, resolver, search, logger),
		notes:     NewNoteService(repo, repo, events, logger),
		transfer:  NewTransferService(repo, resolver, search, events, logger),
		trainings: NewTrainingService(repo, events, logger),
	}
}

func (e *testEnv) seedCompound(t *testing.T, c domain.Compound) string {
	t.Helper()
	if c.Methods == nil {
		c.Methods = []string{}
	}
	if c.Panels == nil {
		c.Panels = []string{}
	}
	id, err := e.repo.CreateCompound(context.Background(), &c)
	require.NoError(t, err)
	return id
}

func (e *testEnv) seedMethod(t *testing.T, m domain.Method) string {
	t.Helper()
	id, err := e.repo.CreateMethod(context.Background(), &m)
	require.NoError(t, err)
	return id
}

func (e *testEnv) seedPanel(t *testing.T, p domain.Panel) string {
	t.Helper()
	id, err := e.repo.CreatePanel(context.Background(), &p)
	require.NoError(t, err)
	return id
}

func names(cs []*domain.Compound) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.Name
	}
	return out
}

// fakeKV in-memory KV for cache tests
type fakeKV struct {
	mu   sync.Mutex
	data map[string]string
}

func newFakeKV() *fakeKV {
	return &fakeKV{data: map[string]string{}}
}

func (f *fakeKV) Get(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.data[key]
	if !ok {
		return "", store.ErrMiss
	}
	return v, nil
}

func (f *fakeKV) Set(_ context.Context, key, value string, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = value
	return nil
}

func (f *fakeKV) Del(_ context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, k := range keys {
		delete(f.data, k)
	}
	return nil
}

func (f *fakeKV) ScanKeys(_ context.Context, pattern string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	prefix := strings.TrimSuffix(pattern, "*")
	var out []string
	for k := range f.data {
		if strings.HasPrefix(k, prefix) {
			out = append(out, k)
		}
	}
	return out, nil
}

func (f *fakeKV) Incr(_ context.Context, key string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := int64(0)
	if v, ok := f.data[key]; ok {
		var err error
		if n, err = strconv.ParseInt(v, 10, 64); err != nil {
			return 0, err
		}
	}
	n++
	f.data[key] = strconv.FormatInt(n, 10)
	return n, nil
}

// len counts cached entries, not the generation counter.
func (f *fakeKV) len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for k := range f.data {
		if strings.HasPrefix(k, cachePrefix) {
			n++
		}
	}
	return n
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []notify.Event
}

func (p *recordingPublisher) Publish(_ context.Context, ev notify.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, ev := range p.events {
		out[i] = ev.Type
	}
	return out
}
