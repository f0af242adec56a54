package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"labcatalog/internal/domain"
	"labcatalog/internal/models"
	"labcatalog/internal/repository"
	"labcatalog/internal/store"

	"go.uber.org/zap"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// rangeEnd sorts after any single character that can follow a prefix, so
// [p, p+rangeEnd) selects every name starting with p.
const rangeEnd = "\U0010FFFF"

// DigitsKey browse key for names starting with a digit.
const DigitsKey = "#"

const cachePrefix = "labcatalog:cache:"

// generationKey counts invalidations. Cache keys embed the generation read
// before the store read, so a fill racing an invalidation lands under a key
// no later reader asks for.
const generationKey = "labcatalog:cache-generation"

// Browse one page of a letter or panel browse. Query echoes the request key.
type Browse struct {
	Query string `json:"query"`
	models.Page[*domain.Compound]
}

// PanelGroup compounds carrying one panel label
type PanelGroup struct {
	Panel     string             `json:"panel"`
	Compounds []*domain.Compound `json:"compounds"`
}

// SearchService substring search, letter/panel browse and panel aggregation.
// Stateless per call; the optional KV only caches derived results.
type SearchService struct {
	compounds repository.CompoundsRepository
	kv        store.KV
	ttl       time.Duration
	logger    *zap.Logger
}

// NewSearchService kv may be nil (no caching).
func NewSearchService(compounds repository.CompoundsRepository, kv store.KV, ttl time.Duration, logger *zap.Logger) *SearchService {
	return &SearchService{compounds: compounds, kv: kv, ttl: ttl, logger: logger}
}

// Search case-insensitive substring match on name, CAS or any panel entry.
// An empty term matches everything.
func (s *SearchService) Search(ctx context.Context, term string) ([]*domain.Compound, error) {
	needle := strings.ToLower(strings.TrimSpace(term))
	key, cached := s.cacheKey(ctx, "search:"+needle)

	var out []*domain.Compound
	if cached && s.cacheGet(ctx, key, &out) {
		return out, nil
	}

	all, err := s.compounds.ListCompounds(ctx)
	if err != nil {
		return nil, fmt.Errorf("search compounds: %w", err)
	}
	out = make([]*domain.Compound, 0)
	for _, c := range all {
		if matchesTerm(c, needle) {
			out = append(out, c)
		}
	}
	sortCompounds(out)
	if cached {
		s.cacheSet(ctx, key, out)
	}
	return out, nil
}

func matchesTerm(c *domain.Compound, needle string) bool {
	if needle == "" {
		return true
	}
	if strings.Contains(strings.ToLower(c.Name), needle) || strings.Contains(strings.ToLower(c.CAS), needle) {
		return true
	}
	for _, p := range c.Panels {
		if strings.Contains(strings.ToLower(p), needle) {
			return true
		}
	}
	return false
}

// letterRanges maps a browse key to half-open name ranges.
func letterRanges(key string) ([][2]string, error) {
	key = strings.TrimSpace(key)
	if key == DigitsKey {
		return [][2]string{{"0", "9" + rangeEnd}}, nil
	}
	r, size := utf8.DecodeRuneInString(key)
	if size == 0 || size != len(key) || !unicode.IsLetter(r) {
		return nil, domain.Validationf("letter must be a single letter or %q, got %q", DigitsKey, key)
	}
	upper, lower := string(unicode.ToUpper(r)), string(unicode.ToLower(r))
	if upper == lower {
		return [][2]string{{upper, upper + rangeEnd}}, nil
	}
	return [][2]string{{upper, upper + rangeEnd}, {lower, lower + rangeEnd}}, nil
}

// BrowseByLetter compounds whose name starts with letter (either case), or
// with a digit for "#". page is 1-based.
func (s *SearchService) BrowseByLetter(ctx context.Context, letter string, page int) (*Browse, error) {
	ranges, err := letterRanges(letter)
	if err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	var hits []*domain.Compound
	for _, rg := range ranges {
		found, err := s.compounds.CompoundsByNameRange(ctx, rg[0], rg[1])
		if err != nil {
			return nil, fmt.Errorf("browse %q: %w", letter, err)
		}
		for _, c := range found {
			if !seen[c.ID] {
				seen[c.ID] = true
				hits = append(hits, c)
			}
		}
	}
	sortCompounds(hits)
	return &Browse{Query: strings.TrimSpace(letter), Page: models.Paginate(hits, page, models.DefaultPageSize)}, nil
}

// BrowseByPanel compounds whose panel list contains panel exactly.
func (s *SearchService) BrowseByPanel(ctx context.Context, panel string, page int) (*Browse, error) {
	if strings.TrimSpace(panel) == "" {
		return nil, domain.Validationf("panel is required")
	}
	hits, err := s.compounds.CompoundsByPanel(ctx, panel)
	if err != nil {
		return nil, fmt.Errorf("browse panel %q: %w", panel, err)
	}
	sortCompounds(hits)
	return &Browse{Query: panel, Page: models.Paginate(hits, page, models.DefaultPageSize)}, nil
}

// PanelGroups groups every compound under each of its panel labels. Blank
// labels are skipped; a label listed twice on a compound lists it twice.
// Groups are ordered by English collation of the label.
func (s *SearchService) PanelGroups(ctx context.Context) ([]PanelGroup, error) {
	key, cached := s.cacheKey(ctx, "panel-groups")
	var out []PanelGroup
	if cached && s.cacheGet(ctx, key, &out) {
		return out, nil
	}

	all, err := s.compounds.ListCompounds(ctx)
	if err != nil {
		return nil, fmt.Errorf("panel groups: %w", err)
	}
	sortCompounds(all)
	out = GroupByPanel(all)
	if cached {
		s.cacheSet(ctx, key, out)
	}
	return out, nil
}

// GroupByPanel aggregation behind PanelGroups, preserving compound order.
func GroupByPanel(compounds []*domain.Compound) []PanelGroup {
	groups := map[string][]*domain.Compound{}
	for _, c := range compounds {
		for _, p := range c.Panels {
			if strings.TrimSpace(p) == "" {
				continue
			}
			groups[p] = append(groups[p], c)
		}
	}
	labels := make([]string, 0, len(groups))
	for p := range groups {
		labels = append(labels, p)
	}
	col := collate.New(language.English)
	sort.Slice(labels, func(i, j int) bool {
		if c := col.CompareString(labels[i], labels[j]); c != 0 {
			return c < 0
		}
		return labels[i] < labels[j]
	})

	out := make([]PanelGroup, 0, len(labels))
	for _, p := range labels {
		out = append(out, PanelGroup{Panel: p, Compounds: groups[p]})
	}
	return out
}

// Invalidate bumps the cache generation, then drops every cached search result
// and panel grouping. Entries of older generations are never read again even
// when the delete fails.
func (s *SearchService) Invalidate(ctx context.Context) {
	if s.kv == nil {
		return
	}
	if _, err := s.kv.Incr(ctx, generationKey); err != nil {
		s.logger.Warn("cache generation bump failed", zap.Error(err))
	}
	keys, err := s.kv.ScanKeys(ctx, cachePrefix+"*")
	if err == nil {
		err = s.kv.Del(ctx, keys...)
	}
	if err != nil {
		s.logger.Warn("cache invalidation failed", zap.Error(err))
	}
}

// cacheKey returns the key for name under the current generation. ok is false
// when caching is off or the generation cannot be read.
func (s *SearchService) cacheKey(ctx context.Context, name string) (key string, ok bool) {
	if s.kv == nil {
		return "", false
	}
	gen, err := s.kv.Get(ctx, generationKey)
	switch {
	case errors.Is(err, store.ErrMiss):
		gen = "0"
	case err != nil:
		s.logger.Warn("cache generation read failed", zap.Error(err))
		return "", false
	}
	return cachePrefix + gen + ":" + name, true
}

func (s *SearchService) cacheGet(ctx context.Context, key string, out any) bool {
	if s.kv == nil {
		return false
	}
	raw, err := s.kv.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, store.ErrMiss) {
			s.logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		s.logger.Warn("cache entry corrupt", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (s *SearchService) cacheSet(ctx context.Context, key string, v any) {
	if s.kv == nil {
		return
	}
	b, err := json.Marshal(v)
	if err == nil {
		err = s.kv.Set(ctx, key, string(b), s.ttl)
	}
	if err != nil {
		s.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// sortCompounds orders by name (English collation), then id.
func sortCompounds(cs []*domain.Compound) {
	col := collate.New(language.English)
	sort.SliceStable(cs, func(i, j int) bool {
		if c := col.CompareString(cs[i].Name, cs[j].Name); c != 0 {
			return c < 0
		}
		return cs[i].ID < cs[j].ID
	})
}
