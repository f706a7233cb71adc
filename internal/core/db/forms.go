package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/solatis/formulary/internal/types"
)

// StoredForm is a form definition together with its bookkeeping timestamps.
type StoredForm struct {
	types.FormDefinition
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// formRow mirrors the forms table. fields and variables hold JSON arrays.
type formRow struct {
	FormID    string    `db:"form_id"`
	Name      string    `db:"name"`
	Fields    []byte    `db:"fields"`
	Variables []byte    `db:"variables"`
	CreatedAt Timestamp `db:"created_at"`
	UpdatedAt Timestamp `db:"updated_at"`
}

// FormStore persists form definitions.
type FormStore struct {
	db      *sqlx.DB
	queries *Queries
	now     func() time.Time
}

// NewFormStore creates a FormStore over a migrated database.
func NewFormStore(db *sqlx.DB) (*FormStore, error) {
	queries, err := LoadQueries(db)
	if err != nil {
		return nil, err
	}
	return &FormStore{db: db, queries: queries, now: time.Now}, nil
}

// Save inserts or replaces a form definition. A form without an id is
// assigned a new UUIDv7 id; the creation time of an existing form is kept.
func (s *FormStore) Save(ctx context.Context, form types.FormDefinition) (StoredForm, error) {
	if form.ID == "" {
		form.ID = types.NewFormID()
	} else if _, err := types.ParseFormID(string(form.ID)); err != nil {
		return StoredForm{}, fmt.Errorf("form %q: %w", form.ID, err)
	}

	fields, err := marshalList(form.Fields)
	if err != nil {
		return StoredForm{}, fmt.Errorf("failed to encode fields: %w", err)
	}
	variables, err := marshalList(form.Variables)
	if err != nil {
		return StoredForm{}, fmt.Errorf("failed to encode variables: %w", err)
	}

	now := timestampArg(s.db.DriverName(), s.now())
	if _, err := s.queries.Exec(ctx, "upsert-form",
		string(form.ID), form.Name, fields, variables, now, now,
	); err != nil {
		return StoredForm{}, fmt.Errorf("failed to save form %s: %w", form.ID, err)
	}

	return s.Get(ctx, form.ID)
}

// Get loads one form definition. Returns types.ErrFormNotFound if absent.
func (s *FormStore) Get(ctx context.Context, id types.FormID) (StoredForm, error) {
	var row formRow
	err := s.queries.Get(ctx, "get-form", &row, string(id))
	if errors.Is(err, sql.ErrNoRows) {
		return StoredForm{}, fmt.Errorf("form %s: %w", id, types.ErrFormNotFound)
	}
	if err != nil {
		return StoredForm{}, fmt.Errorf("failed to load form %s: %w", id, err)
	}
	return row.toStoredForm()
}

// List returns every stored form ordered by id, which for UUIDv7 ids is
// creation order.
func (s *FormStore) List(ctx context.Context) ([]StoredForm, error) {
	var rows []formRow
	if err := s.queries.Select(ctx, "list-forms", &rows); err != nil {
		return nil, fmt.Errorf("failed to list forms: %w", err)
	}

	forms := make([]StoredForm, 0, len(rows))
	for _, row := range rows {
		form, err := row.toStoredForm()
		if err != nil {
			return nil, err
		}
		forms = append(forms, form)
	}
	return forms, nil
}

// Delete removes a form definition. Returns types.ErrFormNotFound if absent.
func (s *FormStore) Delete(ctx context.Context, id types.FormID) error {
	res, err := s.queries.Exec(ctx, "delete-form", string(id))
	if err != nil {
		return fmt.Errorf("failed to delete form %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete form %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("form %s: %w", id, types.ErrFormNotFound)
	}
	return nil
}

// Count returns the number of stored forms.
func (s *FormStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.queries.Get(ctx, "count-forms", &n); err != nil {
		return 0, fmt.Errorf("failed to count forms: %w", err)
	}
	return n, nil
}

func (r formRow) toStoredForm() (StoredForm, error) {
	form := StoredForm{
		FormDefinition: types.FormDefinition{
			ID:   types.FormID(r.FormID),
			Name: r.Name,
		},
		CreatedAt: r.CreatedAt.Time,
		UpdatedAt: r.UpdatedAt.Time,
	}
	if err := json.Unmarshal(r.Fields, &form.Fields); err != nil {
		return StoredForm{}, fmt.Errorf("form %s: corrupt fields column: %w", r.FormID, err)
	}
	if err := json.Unmarshal(r.Variables, &form.Variables); err != nil {
		return StoredForm{}, fmt.Errorf("form %s: corrupt variables column: %w", r.FormID, err)
	}
	return form, nil
}

// marshalList encodes a slice as a JSON array; nil encodes as [] to satisfy
// the NOT NULL JSON columns.
func marshalList[T any](items []T) (string, error) {
	if items == nil {
		items = []T{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
