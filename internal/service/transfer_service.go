package service

import (
	"context"
	"fmt"
	"io"
	"strings"

	"labcatalog/internal/auth"
	"labcatalog/internal/domain"
	"labcatalog/internal/notify"
	"labcatalog/internal/repository"
	"labcatalog/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Transfer kinds
const (
	KindCompounds = "compounds"
	KindMethods   = "methods"
	KindPanels    = "panels"
	KindNotes     = "notes"
)

// Import modes
const (
	ImportMerge   = "merge"
	ImportReplace = "replace"
)

// XLSXContentType MIME type of exported workbooks
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// TransferStore repositories used by spreadsheet import/export
type TransferStore interface {
	CatalogStore
	repository.NotesRepository
}

// RowError a skipped sheet row
type RowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// ImportReport outcome of one import
type ImportReport struct {
	Kind    string     `json:"type"`
	Mode    string     `json:"mode"`
	Rows    int        `json:"rows"`
	Written int        `json:"written"`
	Deleted int        `json:"deleted"`
	Errors  []RowError `json:"errors"`
}

// TransferService xlsx export of every catalog collection and notes, and
// import of compounds, methods and panels. Admin only.
type TransferService struct {
	repo      TransferStore
	resolver  *Resolver
	cache     CacheInvalidator
	publisher notify.Publisher
	logger    *zap.Logger
	newID     func() string
}

func NewTransferService(repo TransferStore, resolver *Resolver, cache CacheInvalidator, publisher notify.Publisher, logger *zap.Logger) *TransferService {
	if publisher == nil {
		publisher = notify.Nop{}
	}
	return &TransferService{
		repo:      repo,
		resolver:  resolver,
		cache:     cache,
		publisher: publisher,
		logger:    logger,
		newID:     uuid.NewString,
	}
}

// Export renders kind as a workbook and suggests a file name.
func (s *TransferService) Export(ctx context.Context, kind string) ([]byte, string, error) {
	if _, err := auth.RequireAdmin(ctx, "export data"); err != nil {
		return nil, "", err
	}
	var (
		data []byte
		err  error
	)
	switch kind {
	case KindCompounds:
		var recs []*domain.Compound
		if recs, err = s.repo.ListCompounds(ctx); err == nil {
			sortCompounds(recs)
			data, err = exportSheet("Compounds", compoundColumns, recs)
		}
	case KindMethods:
		var recs []*domain.Method
		if recs, err = s.repo.ListMethods(ctx); err == nil {
			data, err = exportSheet("Methods", methodColumns, recs)
		}
	case KindPanels:
		var recs []*domain.Panel
		if recs, err = s.repo.ListPanels(ctx); err == nil {
			data, err = exportSheet("Panels", panelColumns, recs)
		}
	case KindNotes:
		var recs []*domain.Note
		if recs, err = s.repo.ListNotes(ctx, ""); err == nil {
			data, err = exportSheet("Notes", noteColumns, recs)
		}
	default:
		return nil, "", domain.Validationf("unknown export type %q", kind)
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to export %s: %w", kind, err)
	}
	s.logger.Info("exported", zap.String("type", kind), zap.Int("bytes", len(data)))
	return data, kind + "-export.xlsx", nil
}

func exportSheet[T any](sheet string, cols []column[T], recs []*T) ([]byte, error) {
	headers, widths := headersOf(cols)
	return writeWorkbook(sheet, headers, widths, rowsOf(cols, recs))
}

// Import upserts rows of the first sheet into kind. Rows with an ID cell keep
// that id; others get a new one. ImportReplace also deletes every document of
// the collection that the sheet does not mention. All writes go in one batch;
// invalid rows are reported and skipped.
func (s *TransferService) Import(ctx context.Context, kind string, r io.Reader, mode string) (*ImportReport, error) {
	if _, err := auth.RequireAdmin(ctx, "import data"); err != nil {
		return nil, err
	}
	mode = strings.ToLower(strings.TrimSpace(mode))
	if mode == "" {
		mode = ImportMerge
	}
	if mode != ImportMerge && mode != ImportReplace {
		return nil, domain.Validationf("unknown import mode %q", mode)
	}
	if kind != KindCompounds && kind != KindMethods && kind != KindPanels {
		return nil, domain.Validationf("unknown import type %q", kind)
	}

	rows, err := readWorkbook(r)
	if err != nil {
		return nil, err
	}
	idx, err := s.resolver.Index(ctx)
	if err != nil {
		return nil, err
	}

	report := &ImportReport{Kind: kind, Mode: mode, Errors: []RowError{}}
	var (
		ops      []store.WriteOp
		existing []string
	)
	switch kind {
	case KindCompounds:
		ops, err = importRows(report, compoundColumns, rows, "Name", s.newID, repository.CollectionCompounds,
			func(c *domain.Compound) (string, error) {
				c.Name = strings.TrimSpace(c.Name)
				if c.Name == "" {
					return "", fmt.Errorf("name is required")
				}
				if c.Methods == nil {
					c.Methods = []string{}
				}
				c.Panels = canonicalPanels(idx, c.Panels)
				return c.ID, nil
			}, func(c *domain.Compound, id string) { c.ID = id })
		if err == nil && mode == ImportReplace {
			var recs []*domain.Compound
			recs, err = s.repo.ListCompounds(ctx)
			existing = compoundIDs(recs)
		}
	case KindMethods:
		ops, err = importRows(report, methodColumns, rows, "Method", s.newID, repository.CollectionMethods,
			func(m *domain.Method) (string, error) {
				if m.Name == "" {
					return "", fmt.Errorf("method is required")
				}
				m.Panels = canonicalPanels(idx, m.Panels)
				return m.ID, nil
			}, func(m *domain.Method, id string) { m.ID = id })
		if err == nil && mode == ImportReplace {
			var recs []*domain.Method
			recs, err = s.repo.ListMethods(ctx)
			existing = methodIDs(recs)
		}
	case KindPanels:
		ops, err = importRows(report, panelColumns, rows, "Name", s.newID, repository.CollectionPanels,
			func(p *domain.Panel) (string, error) {
				if p.Name == "" {
					return "", fmt.Errorf("name is required")
				}
				p.AssociatedPanels = canonicalPanels(idx, p.AssociatedPanels)
				return p.ID, nil
			}, func(p *domain.Panel, id string) { p.ID = id })
		if err == nil && mode == ImportReplace {
			var recs []*domain.Panel
			recs, err = s.repo.ListPanels(ctx)
			existing = panelIDs(recs)
		}
	}
	if err != nil {
		return nil, err
	}

	report.Written = len(ops)
	if mode == ImportReplace {
		kept := make(map[string]bool, len(ops))
		for _, op := range ops {
			kept[op.ID] = true
		}
		for _, id := range existing {
			if !kept[id] {
				ops = append(ops, store.DeleteOp(collectionOf(kind), id))
				report.Deleted++
			}
		}
	}

	if len(ops) > 0 {
		if err := s.repo.Batch(ctx, ops); err != nil {
			return nil, fmt.Errorf("failed to import %s: %w", kind, err)
		}
		if s.cache != nil {
			s.cache.Invalidate(ctx)
		}
	}

	s.logger.Info("import finished",
		zap.String("type", kind),
		zap.String("mode", mode),
		zap.Int("rows", report.Rows),
		zap.Int("written", report.Written),
		zap.Int("deleted", report.Deleted),
		zap.Int("errors", len(report.Errors)),
	)
	if err := s.publisher.Publish(ctx, notify.Event{
		Type:    notify.EventCatalogImported,
		Subject: kind,
		Payload: map[string]any{"mode": mode, "written": report.Written, "deleted": report.Deleted},
	}); err != nil {
		s.logger.Warn("import event not delivered", zap.Error(err))
	}
	return report, nil
}

// importRows parses rows into set ops. check normalizes a record and returns
// its id ("" for new records) or a row-level problem.
func importRows[T any](report *ImportReport, cols []column[T], rows [][]string, required string, newID func() string,
	collection string, check func(*T) (string, error), setID func(*T, string)) ([]store.WriteOp, error) {
	parsed, err := parseRows(cols, rows, required)
	if err != nil {
		return nil, err
	}
	report.Rows = len(parsed)

	ops := make([]store.WriteOp, 0, len(parsed))
	for _, row := range parsed {
		id, err := check(row.record)
		if err != nil {
			report.Errors = append(report.Errors, RowError{Row: row.line, Message: err.Error()})
			continue
		}
		if id == "" {
			id = newID()
			setID(row.record, id)
		}
		op, err := repository.SetOp(collection, id, row.record)
		if err != nil {
			report.Errors = append(report.Errors, RowError{Row: row.line, Message: err.Error()})
			continue
		}
		ops = append(ops, op)
	}
	return ops, nil
}

func compoundIDs(recs []*domain.Compound) []string {
	out := make([]string, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.ID)
	}
	return out
}

func methodIDs(recs []*domain.Method) []string {
	out := make([]string, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.ID)
	}
	return out
}

func panelIDs(recs []*domain.Panel) []string {
	out := make([]string, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.ID)
	}
	return out
}

func collectionOf(kind string) string {
	switch kind {
	case KindMethods:
		return repository.CollectionMethods
	case KindPanels:
		return repository.CollectionPanels
	}
	return repository.CollectionCompounds
}
