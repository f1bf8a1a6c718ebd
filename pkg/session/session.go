// pkg/session/session.go
package session

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DanCorvesor/environ-policies/pkg/cleaner"
	"github.com/DanCorvesor/environ-policies/pkg/loader"
	"github.com/DanCorvesor/environ-policies/pkg/model"
	"github.com/DanCorvesor/environ-policies/pkg/validator"
)

// Stage marks how far a session's pipeline has progressed. Stages advance
// strictly in order; skipping is a checkable precondition violation.
type Stage string

const (
	StageCreated   Stage = "created"
	StageLoaded    Stage = "loaded"
	StageCleaned   Stage = "cleaned"
	StageValidated Stage = "validated"
	StagePersisted Stage = "persisted"
)

var (
	// ErrStageOrder indicates a pipeline stage was invoked before its
	// predecessor completed.
	ErrStageOrder = errors.New("pipeline stage out of order")
	// ErrUnknownKind indicates the record kind could not be determined from
	// the file and was not supplied explicitly.
	ErrUnknownKind = errors.New("cannot determine record kind")
)

// Store is the destination-table write seam consumed by a session.
type Store interface {
	Persist(ctx context.Context, records []model.Record, kind model.Kind, table string, policy model.ConflictPolicy) (*model.WriteSummary, error)
}

// Session binds exactly one input file to the clean → validate → persist
// pipeline. A session never reprocesses a different file; create a new one
// per file.
type Session struct {
	id    uuid.UUID
	path  string
	kind  model.Kind
	stage Stage

	loader    *loader.Loader
	cleaner   *cleaner.Cleaner
	validator *validator.Validator
	store     Store
	logger    *zap.Logger

	raw      *model.RawTable
	cleaned  *model.CleanedTable
	report   *model.CleaningReport
	outcomes []model.ValidationOutcome
	summary  *model.WriteSummary
}

// Option customizes a session at construction.
type Option func(*Session)

// WithKind overrides kind detection from the file name.
func WithKind(kind model.Kind) Option {
	return func(s *Session) { s.kind = kind }
}

// WithListDelimiter sets the multi-value delimiter used during cleaning.
func WithListDelimiter(d string) Option {
	return func(s *Session) { s.cleaner = s.cleaner.WithListDelimiter(d) }
}

// New creates a session for one input file. The file must exist and its
// record kind must be determinable (from the name, or via WithKind).
func New(path string, store Store, logger *zap.Logger, opts ...Option) (*Session, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", loader.ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("checking %s: %w", path, err)
	}

	s := &Session{
		id:        uuid.New(),
		path:      path,
		kind:      model.DetectKind(path),
		stage:     StageCreated,
		loader:    loader.NewLoader(logger),
		cleaner:   cleaner.NewCleaner(logger),
		validator: validator.NewValidator(logger),
		store:     store,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logger.Named("session").With(
		zap.String("session_id", s.id.String()),
		zap.String("path", path),
		zap.String("kind", s.kind.String()))

	if !s.kind.Known() {
		return nil, fmt.Errorf("%w for %s", ErrUnknownKind, path)
	}

	s.logger.Info("Session created")
	return s, nil
}

// ID returns the session identifier used for log and report correlation.
func (s *Session) ID() uuid.UUID { return s.id }

// Kind returns the record kind bound at construction.
func (s *Session) Kind() model.Kind { return s.kind }

// Stage returns the session's current pipeline stage.
func (s *Session) Stage() Stage { return s.stage }

func (s *Session) requireStage(expected Stage) error {
	if s.stage != expected {
		return fmt.Errorf("%w: at %q, expected %q", ErrStageOrder, s.stage, expected)
	}
	return nil
}

// Load reads the input file into the session's raw table.
func (s *Session) Load() (*model.RawTable, error) {
	if err := s.requireStage(StageCreated); err != nil {
		return nil, err
	}
	raw, err := s.loader.Load(s.path)
	if err != nil {
		return nil, err
	}
	s.raw = raw
	s.stage = StageLoaded
	return raw, nil
}

// Clean applies the kind's cleaning rules to the loaded table.
func (s *Session) Clean() (*model.CleaningReport, error) {
	if err := s.requireStage(StageLoaded); err != nil {
		return nil, err
	}
	cleaned, report, err := s.cleaner.Clean(s.raw, s.kind)
	if err != nil {
		return nil, err
	}
	s.cleaned = cleaned
	s.report = report
	s.stage = StageCleaned
	return report, nil
}

// Validate maps every cleaned row to a typed record or a failure.
func (s *Session) Validate() ([]model.ValidationOutcome, error) {
	if err := s.requireStage(StageCleaned); err != nil {
		return nil, err
	}
	outcomes, err := s.validator.Validate(s.cleaned)
	if err != nil {
		return nil, err
	}
	s.outcomes = outcomes
	s.stage = StageValidated
	return outcomes, nil
}

// Persist writes the validated records to the destination table under the
// given conflict policy.
func (s *Session) Persist(ctx context.Context, table string, policy model.ConflictPolicy) (*model.WriteSummary, error) {
	if err := s.requireStage(StageValidated); err != nil {
		return nil, err
	}
	if s.store == nil {
		return nil, errors.New("session has no store")
	}
	records, _ := model.SplitOutcomes(s.outcomes)
	summary, err := s.store.Persist(ctx, records, s.kind, table, policy)
	if err != nil {
		return nil, err
	}
	s.summary = summary
	s.stage = StagePersisted
	return summary, nil
}

// WriteCleaned exports the cleaned table as a delimited file, same dialect,
// header preserved. Available once cleaning has completed.
func (s *Session) WriteCleaned(path, listDelimiter string) error {
	if s.cleaned == nil {
		return fmt.Errorf("%w: at %q, cleaned table not available", ErrStageOrder, s.stage)
	}
	return s.loader.WriteCSV(s.cleaned, path, listDelimiter)
}

// Run executes the full pipeline in order and returns the session result.
func (s *Session) Run(ctx context.Context, table string, policy model.ConflictPolicy) (*Result, error) {
	if _, err := s.Load(); err != nil {
		return s.Result(), err
	}
	if _, err := s.Clean(); err != nil {
		return s.Result(), err
	}
	if _, err := s.Validate(); err != nil {
		return s.Result(), err
	}
	if _, err := s.Persist(ctx, table, policy); err != nil {
		return s.Result(), err
	}
	return s.Result(), nil
}
