package pgx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/collabnext/backend/internal/util"
	"github.com/collabnext/backend/pkg/logger"
	"github.com/collabnext/backend/pkg/store"
	pgxv5 "github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

type pgxIConn interface {
	QueryRow(ctx context.Context, sql string, optionsAndArgs ...any) pgxv5.Row
	Ping(ctx context.Context) error
}

// ResearchDBStorage implements store.ResearchStore on top of the stored
// functions defined in migrations/. Every call is a single round trip and is
// never retried.
type ResearchDBStorage struct {
	conn   pgxIConn
	log    *logger.Logger
	tracer trace.Tracer
}

type ResearchDBStorageOption func(*ResearchDBStorage)

func WithLogger(log *logger.Logger) ResearchDBStorageOption {
	return func(s *ResearchDBStorage) {
		s.log = log
	}
}

func WithTracer(tracer trace.Tracer) ResearchDBStorageOption {
	return func(s *ResearchDBStorage) {
		s.tracer = tracer
	}
}

// NewResearchDBStorage wraps an existing connection or pool.
func NewResearchDBStorage(conn pgxIConn, opts ...ResearchDBStorageOption) *ResearchDBStorage {
	s := &ResearchDBStorage{
		conn:   conn,
		tracer: noop.NewTracerProvider().Tracer("store"),
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(s)
	}
	return s
}

func (s *ResearchDBStorage) Ping(ctx context.Context) error {
	return s.conn.Ping(ctx)
}

// ResolveAuthorID returns the first id get_author_ids yields for name.
func (s *ResearchDBStorage) ResolveAuthorID(ctx context.Context, name string) (string, error) {
	ctx, span := s.tracer.Start(ctx, "store.ResolveAuthorID")
	defer span.End()

	s.log.Debug("Getting author ids", "name", name)
	raw, err := s.selectJSON(ctx, "SELECT get_author_ids($1)", util.SanitizePostgresText(name))
	if err != nil {
		return "", s.fail(span, "get_author_ids", err)
	}

	var ids []struct {
		AuthorID string `json:"author_id"`
	}
	if err := json.Unmarshal(raw, &ids); err != nil {
		return "", s.fail(span, "get_author_ids", fmt.Errorf("decode: %w", err))
	}
	if len(ids) == 0 || ids[0].AuthorID == "" {
		s.log.Warn("No author ids found", "name", name)
		return "", store.ErrNotFound
	}
	return ids[0].AuthorID, nil
}

// ResolveInstitutionID maps an institution name onto its id.
func (s *ResearchDBStorage) ResolveInstitutionID(ctx context.Context, name string) (string, error) {
	ctx, span := s.tracer.Start(ctx, "store.ResolveInstitutionID")
	defer span.End()

	s.log.Debug("Getting institution id", "name", name)
	raw, err := s.selectJSON(ctx, "SELECT get_institution_id($1)", util.SanitizePostgresText(name))
	if err != nil {
		return "", s.fail(span, "get_institution_id", err)
	}

	var res struct {
		InstitutionID string `json:"institution_id"`
	}
	if err := json.Unmarshal(raw, &res); err != nil {
		return "", s.fail(span, "get_institution_id", fmt.Errorf("decode: %w", err))
	}
	if res.InstitutionID == "" {
		s.log.Warn("No institution id found", "name", name)
		return "", store.ErrNotFound
	}
	return res.InstitutionID, nil
}

// Search invokes one stored search function with positional arguments.
func (s *ResearchDBStorage) Search(ctx context.Context, fn store.SearchFunc, args ...string) (*store.Record, error) {
	ctx, span := s.tracer.Start(ctx, "store.Search", trace.WithAttributes(attribute.String("function", string(fn))))
	defer span.End()

	if fn.Arity() != len(args) {
		return nil, fmt.Errorf("%s takes %d arguments, got %d", fn, fn.Arity(), len(args))
	}

	placeholders := make([]string, len(args))
	params := make([]any, len(args))
	for i, a := range args {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		params[i] = util.SanitizePostgresText(a)
	}
	sql := fmt.Sprintf("SELECT %s(%s)", fn, strings.Join(placeholders, ", "))

	s.log.Debug("Executing search", "function", string(fn), "args", args)
	raw, err := s.selectJSON(ctx, sql, params...)
	if err != nil {
		return nil, s.fail(span, string(fn), err)
	}

	var rec store.Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, s.fail(span, string(fn), fmt.Errorf("decode: %w", err))
	}
	s.log.Info("Search returned results", "function", string(fn), "rows", len(rec.Data))
	return &rec, nil
}

// selectJSON runs a single-value JSON select. SQL NULL, JSON null and an
// empty object all mean the store has nothing.
func (s *ResearchDBStorage) selectJSON(ctx context.Context, sql string, args ...any) ([]byte, error) {
	var raw []byte
	if err := s.conn.QueryRow(ctx, sql, args...).Scan(&raw); err != nil {
		if errors.Is(err, pgxv5.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	switch strings.TrimSpace(string(raw)) {
	case "", "null", "{}", "[]":
		return nil, store.ErrNotFound
	}
	return raw, nil
}

func (s *ResearchDBStorage) fail(span trace.Span, op string, err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return err
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	s.log.Error("Database error", "op", op, "err", err)
	return fmt.Errorf("%s: %w", op, err)
}
