package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/solatis/formulary/internal/types"
)

func invoiceForm() types.FormDefinition {
	return types.FormDefinition{
		Name: "Invoice",
		Fields: []types.FieldDescriptor{
			{ID: "quantity", Name: "Quantity", Type: "number"},
			{ID: "unit_price", Name: "Unit price", Type: "number"},
		},
		Variables: []types.ComputedVariable{
			{ID: "cv_subtotal", Name: "Subtotal", Formula: "{quantity} * {unit_price}", ResultType: types.ResultTypeNumber},
			{ID: "cv_total", Name: "Total", Formula: "{cv_subtotal} * 1.2"},
		},
	}
}

func TestFormStore_SaveAndGet(t *testing.T) {
	ctx := context.Background()
	store, err := NewFormStore(openTestDB(t))
	if err != nil {
		t.Fatalf("NewFormStore() error = %v", err)
	}

	saved, err := store.Save(ctx, invoiceForm())
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if _, err := types.ParseFormID(string(saved.ID)); err != nil {
		t.Fatalf("Save() assigned invalid id %q", saved.ID)
	}
	if saved.CreatedAt.IsZero() || saved.UpdatedAt.IsZero() {
		t.Errorf("Save() timestamps not set: %+v", saved)
	}

	got, err := store.Get(ctx, saved.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Name != "Invoice" {
		t.Errorf("Name = %q, want Invoice", got.Name)
	}
	if len(got.Fields) != 2 || got.Fields[1].ID != "unit_price" {
		t.Errorf("Fields = %+v", got.Fields)
	}
	if len(got.Variables) != 2 || got.Variables[1].Formula != "{cv_subtotal} * 1.2" {
		t.Errorf("Variables = %+v", got.Variables)
	}
	if got.Variables[0].ResultType != types.ResultTypeNumber {
		t.Errorf("ResultType = %q, want number", got.Variables[0].ResultType)
	}
}

func TestFormStore_SaveReplacesAndKeepsCreatedAt(t *testing.T) {
	ctx := context.Background()
	store, err := NewFormStore(openTestDB(t))
	if err != nil {
		t.Fatalf("NewFormStore() error = %v", err)
	}

	created := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return created }
	first, err := store.Save(ctx, invoiceForm())
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	updated := created.Add(time.Hour)
	store.now = func() time.Time { return updated }
	form := first.FormDefinition
	form.Name = "Invoice v2"
	form.Variables = form.Variables[:1]
	second, err := store.Save(ctx, form)
	if err != nil {
		t.Fatalf("second Save() error = %v", err)
	}

	if second.ID != first.ID {
		t.Errorf("id changed from %s to %s", first.ID, second.ID)
	}
	if second.Name != "Invoice v2" || len(second.Variables) != 1 {
		t.Errorf("replacement not stored: %+v", second)
	}
	if !second.CreatedAt.Equal(created) {
		t.Errorf("CreatedAt = %v, want %v", second.CreatedAt, created)
	}
	if !second.UpdatedAt.Equal(updated) {
		t.Errorf("UpdatedAt = %v, want %v", second.UpdatedAt, updated)
	}

	n, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if n != 1 {
		t.Errorf("Count() = %d, want 1", n)
	}
}

func TestFormStore_NilListsStoredAsEmpty(t *testing.T) {
	ctx := context.Background()
	store, err := NewFormStore(openTestDB(t))
	if err != nil {
		t.Fatalf("NewFormStore() error = %v", err)
	}

	saved, err := store.Save(ctx, types.FormDefinition{Name: "Empty"})
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if saved.Fields == nil || saved.Variables == nil {
		t.Errorf("Save() returned nil lists: %+v", saved)
	}
	if len(saved.Fields) != 0 || len(saved.Variables) != 0 {
		t.Errorf("Save() returned non-empty lists: %+v", saved)
	}
}

func TestFormStore_InvalidID(t *testing.T) {
	store, err := NewFormStore(openTestDB(t))
	if err != nil {
		t.Fatalf("NewFormStore() error = %v", err)
	}

	form := invoiceForm()
	form.ID = "not-a-uuid"
	_, err = store.Save(context.Background(), form)
	if !errors.Is(err, types.ErrInvalidFormID) {
		t.Errorf("Save() error = %v, want ErrInvalidFormID", err)
	}
}

func TestFormStore_ListAndDelete(t *testing.T) {
	ctx := context.Background()
	store, err := NewFormStore(openTestDB(t))
	if err != nil {
		t.Fatalf("NewFormStore() error = %v", err)
	}

	var ids []types.FormID
	for _, name := range []string{"First", "Second", "Third"} {
		form := invoiceForm()
		form.Name = name
		saved, err := store.Save(ctx, form)
		if err != nil {
			t.Fatalf("Save(%s) error = %v", name, err)
		}
		ids = append(ids, saved.ID)
	}

	forms, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(forms) != 3 {
		t.Fatalf("List() returned %d forms, want 3", len(forms))
	}
	for i := 1; i < len(forms); i++ {
		if forms[i-1].ID >= forms[i].ID {
			t.Errorf("List() not ordered by id: %s before %s", forms[i-1].ID, forms[i].ID)
		}
	}

	if err := store.Delete(ctx, ids[1]); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := store.Get(ctx, ids[1]); !errors.Is(err, types.ErrFormNotFound) {
		t.Errorf("Get() after Delete() error = %v, want ErrFormNotFound", err)
	}
	if err := store.Delete(ctx, ids[1]); !errors.Is(err, types.ErrFormNotFound) {
		t.Errorf("second Delete() error = %v, want ErrFormNotFound", err)
	}

	n, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if n != 2 {
		t.Errorf("Count() = %d, want 2", n)
	}
}

func TestFormStore_GetMissing(t *testing.T) {
	store, err := NewFormStore(openTestDB(t))
	if err != nil {
		t.Fatalf("NewFormStore() error = %v", err)
	}

	_, err = store.Get(context.Background(), types.NewFormID())
	if !errors.Is(err, types.ErrFormNotFound) {
		t.Errorf("Get() error = %v, want ErrFormNotFound", err)
	}
}
