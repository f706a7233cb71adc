package formfile

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/solatis/formulary/internal/types"
)

const invoiceJSON = `{
  "name": "invoice",
  "fields": [
    {"id": "price", "name": "Price", "type": "number"},
    {"id": "qty", "name": "Quantity", "type": "number"}
  ],
  "variables": [
    {"id": "cv_subtotal", "name": "Subtotal", "formula": "{price} * {qty}", "result_type": "number"},
    {"id": "cv_tax", "name": "Tax", "formula": "{cv_subtotal} * 0.1"}
  ]
}`

const invoiceYAML = `name: invoice
fields:
  - id: price
    name: Price
    type: number
  - id: qty
    name: Quantity
    type: number
variables:
  - id: cv_subtotal
    name: Subtotal
    formula: "{price} * {qty}"
    result_type: number
  - id: cv_tax
    name: Tax
    formula: "{cv_subtotal} * 0.1"
`

const invoiceTOML = `name = "invoice"

[[fields]]
id = "price"
name = "Price"
type = "number"

[[fields]]
id = "qty"
name = "Quantity"
type = "number"

[[variables]]
id = "cv_subtotal"
name = "Subtotal"
formula = "{price} * {qty}"
result_type = "number"

[[variables]]
id = "cv_tax"
name = "Tax"
formula = "{cv_subtotal} * 0.1"
`

var invoice = &types.FormDefinition{
	Name: "invoice",
	Fields: []types.FieldDescriptor{
		{ID: "price", Name: "Price", Type: "number"},
		{ID: "qty", Name: "Quantity", Type: "number"},
	},
	Variables: []types.ComputedVariable{
		{ID: "cv_subtotal", Name: "Subtotal", Formula: "{price} * {qty}", ResultType: types.ResultTypeNumber},
		{ID: "cv_tax", Name: "Tax", Formula: "{cv_subtotal} * 0.1"},
	},
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func TestLoad(t *testing.T) {
	tests := []struct {
		file    string
		content string
	}{
		{"form.json", invoiceJSON},
		{"form.yaml", invoiceYAML},
		{"form.yml", invoiceYAML},
		{"form.toml", invoiceTOML},
	}

	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			form, err := Load(writeFile(t, tt.file, tt.content))
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if !reflect.DeepEqual(form, invoice) {
				t.Errorf("Load() = %+v\nwant %+v", form, invoice)
			}
		})
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		wantErr string
	}{
		{name: "unknown extension", file: "form.xml", content: "<form/>", wantErr: "unsupported file format"},
		{name: "unknown json key", file: "form.json", content: `{"name": "x", "varaibles": []}`, wantErr: "unknown field"},
		{name: "unknown yaml key", file: "form.yaml", content: "name: x\nvaraibles: []\n", wantErr: "not found"},
		{name: "unknown toml key", file: "form.toml", content: "name = \"x\"\nvaraibles = []\n", wantErr: "unknown key"},
		{name: "malformed json", file: "form.json", content: `{"name": `, wantErr: "invalid form json"},
		{name: "bad form id", file: "form.json", content: `{"id": "not-a-uuid", "name": "x"}`, wantErr: "invalid form id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tt.file, tt.content))
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Load() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_UnsupportedFormatSentinel(t *testing.T) {
	_, err := Load("form.ini")
	if !errors.Is(err, types.ErrUnsupportedFormat) {
		t.Errorf("Load() error = %v, want ErrUnsupportedFormat", err)
	}
}

func TestLoadData(t *testing.T) {
	tests := []struct {
		file    string
		content string
	}{
		{"data.json", `{"price": 100, "qty": "2", "tags": ["a", "b"]}`},
		{"data.yaml", "price: 100\nqty: \"2\"\ntags: [a, b]\n"},
		{"data.toml", "price = 100\nqty = \"2\"\ntags = [\"a\", \"b\"]\n"},
	}

	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			data, err := LoadData(writeFile(t, tt.file, tt.content))
			if err != nil {
				t.Fatalf("LoadData() error = %v", err)
			}
			if len(data) != 3 {
				t.Fatalf("LoadData() = %#v", data)
			}
			if data["qty"] != "2" {
				t.Errorf("qty = %#v", data["qty"])
			}
			tags, ok := data["tags"].([]any)
			if !ok || len(tags) != 2 || tags[0] != "a" {
				t.Errorf("tags = %#v", data["tags"])
			}
		})
	}
}

func TestDecodeData_Empty(t *testing.T) {
	for _, format := range []Format{FormatJSON, FormatYAML, FormatTOML} {
		data, err := DecodeData(nil, format)
		if err != nil || data == nil || len(data) != 0 {
			t.Errorf("DecodeData(nil, %s) = %#v, %v", format, data, err)
		}
	}
}

func TestEncode_RoundTrip(t *testing.T) {
	for _, format := range []Format{FormatJSON, FormatYAML, FormatTOML} {
		t.Run(string(format), func(t *testing.T) {
			var buf bytes.Buffer
			if err := Encode(&buf, invoice, format); err != nil {
				t.Fatalf("Encode() error = %v", err)
			}
			got, err := Decode(buf.Bytes(), format)
			if err != nil {
				t.Fatalf("Decode() error = %v\n%s", err, buf.String())
			}
			if !reflect.DeepEqual(got, invoice) {
				t.Errorf("round trip = %+v, want %+v", got, invoice)
			}
		})
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"JSON": FormatJSON, "yml": FormatYAML, "yaml": FormatYAML, "toml": FormatTOML} {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Errorf("ParseFormat(%q) = %q, %v", in, got, err)
		}
	}
}
