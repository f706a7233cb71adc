// Package api provides the gRPC FormulaService implementation.
//
// Messages are google.protobuf.Struct documents, so the service needs no
// generated code: requests are decoded from Struct into plain Go structs and
// responses encoded back the same way.
package api

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/solatis/formulary/internal/computed"
	"github.com/solatis/formulary/internal/core/config"
	"github.com/solatis/formulary/internal/core/db"
	"github.com/solatis/formulary/internal/types"
)

// FormGetter loads stored form definitions. Implemented by *db.FormStore.
type FormGetter interface {
	Get(ctx context.Context, id types.FormID) (db.StoredForm, error)
}

// FormulaService implements FormulaServiceServer.
// Thin orchestration layer delegating to the formula, computed and db packages.
type FormulaService struct {
	engine *computed.Engine
	forms  FormGetter
	cfg    *config.ServiceConfig
	logger *slog.Logger
}

// NewFormulaService creates service instance with dependencies.
// forms may be nil, in which case requests naming a form_id are rejected.
func NewFormulaService(engine *computed.Engine, forms FormGetter, cfg *config.ServiceConfig, logger *slog.Logger) (*FormulaService, error) {
	if engine == nil {
		return nil, fmt.Errorf("engine cannot be nil")
	}
	if cfg == nil {
		return nil, fmt.Errorf("cfg cannot be nil")
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &FormulaService{
		engine: engine,
		forms:  forms,
		cfg:    cfg,
		logger: logger,
	}, nil
}

// resolveForm returns the definition a request refers to: the stored form
// when formID is set, otherwise the inline variables and fields.
func (s *FormulaService) resolveForm(ctx context.Context, formID string, vars []types.ComputedVariable, fields []types.FieldDescriptor) (types.FormDefinition, error) {
	if formID == "" {
		return types.FormDefinition{Variables: vars, Fields: fields}, nil
	}
	if s.forms == nil {
		return types.FormDefinition{}, errNoFormStore
	}

	id, err := types.ParseFormID(formID)
	if err != nil {
		return types.FormDefinition{}, fmt.Errorf("form_id %q: %w", formID, err)
	}
	stored, err := s.forms.Get(ctx, id)
	if err != nil {
		return types.FormDefinition{}, err
	}
	return stored.FormDefinition, nil
}

// checkLimits rejects variable sets larger than the configured maximum.
func (s *FormulaService) checkLimits(vars []types.ComputedVariable) error {
	if s.cfg.MaxVariables > 0 && len(vars) > s.cfg.MaxVariables {
		return fmt.Errorf("%w: %d variables exceeds limit of %d", types.ErrTooManyVariables, len(vars), s.cfg.MaxVariables)
	}
	return nil
}
