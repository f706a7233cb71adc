package api

import (
	"context"
	"time"

	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/solatis/formulary/internal/computed"
	"github.com/solatis/formulary/internal/formula"
	"github.com/solatis/formulary/internal/types"
)

type evaluateRequest struct {
	FormID    string                   `json:"form_id"`
	Variables []types.ComputedVariable `json:"variables"`
	Data      map[string]any           `json:"data"`
}

type validateRequest struct {
	FormID    string                   `json:"form_id"`
	Variables []types.ComputedVariable `json:"variables"`
	Fields    []types.FieldDescriptor  `json:"fields"`
}

type validateResponse struct {
	Valid  bool                     `json:"valid"`
	Errors []computed.VariableError `json:"errors"`
}

type validateFormulaRequest struct {
	Formula     string   `json:"formula"`
	FieldIDs    []string `json:"field_ids"`
	VariableIDs []string `json:"variable_ids"`
	VariableID  string   `json:"variable_id"`
}

type listFunctionsResponse struct {
	Functions []formula.FunctionDef `json:"functions"`
}

// Evaluate computes every variable of a form against a data snapshot.
// Per-variable failures are blank values, never request errors.
func (s *FormulaService) Evaluate(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req evaluateRequest
	if err := decodeStruct(in, &req); err != nil {
		return nil, toStatus(err)
	}

	form, err := s.resolveForm(ctx, req.FormID, req.Variables, nil)
	if err != nil {
		return nil, toStatus(err)
	}
	if err := s.checkLimits(form.Variables); err != nil {
		return nil, toStatus(err)
	}

	start := time.Now()
	result := s.engine.Evaluate(form.Variables, req.Data)
	s.logger.DebugContext(ctx, "evaluated computed variables",
		"variables", len(form.Variables),
		"failed", len(result.Failed),
		"duration", time.Since(start),
	)

	out, err := encodeStruct(result)
	return out, toStatus(err)
}

// Validate checks a variable set against the form's fields.
func (s *FormulaService) Validate(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req validateRequest
	if err := decodeStruct(in, &req); err != nil {
		return nil, toStatus(err)
	}

	form, err := s.resolveForm(ctx, req.FormID, req.Variables, req.Fields)
	if err != nil {
		return nil, toStatus(err)
	}
	if err := s.checkLimits(form.Variables); err != nil {
		return nil, toStatus(err)
	}

	errs := computed.ValidateVariables(form.Variables, form.Fields)
	if errs == nil {
		errs = []computed.VariableError{}
	}

	out, err := encodeStruct(validateResponse{Valid: len(errs) == 0, Errors: errs})
	return out, toStatus(err)
}

// ValidateFormula checks a single formula while it is being edited.
func (s *FormulaService) ValidateFormula(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req validateFormulaRequest
	if err := decodeStruct(in, &req); err != nil {
		return nil, toStatus(err)
	}

	result := formula.Validate(req.Formula, formula.ValidateOptions{
		FieldIDs:    req.FieldIDs,
		VariableIDs: req.VariableIDs,
		VariableID:  req.VariableID,
	})

	out, err := encodeStruct(result)
	return out, toStatus(err)
}

// ListFunctions describes every built-in function for editor autocomplete.
func (s *FormulaService) ListFunctions(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	out, err := encodeStruct(listFunctionsResponse{Functions: formula.Builtins.All()})
	return out, toStatus(err)
}
