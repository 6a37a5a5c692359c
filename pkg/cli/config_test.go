package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

const accountsManifest = `sources:
  - name: accounts
    kind: csv
    path: accounts.csv
    header: true
    fields:
      - name: name
        type: string
      - name: balance
        type: int
`

func TestLoadManifest(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "ember.yaml", accountsManifest)

	m, err := LoadManifest(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(m.Sources) != 1 {
		t.Fatalf("sources = %v", m.Sources)
	}
	src := m.Sources[0]
	if src.Name != "accounts" || src.Kind != "csv" || !src.Header {
		t.Errorf("source = %+v", src)
	}

	sh, err := src.RowShape()
	if err != nil {
		t.Fatal(err)
	}
	if got := sh.String(); got != "var * {name: STRING, balance: INT}" {
		t.Errorf("shape = %s", got)
	}
}

func TestLoadManifestErrors(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		wantPart string
	}{
		{"empty", "sources: []\n", "no sources"},
		{
			"duplicate",
			"sources:\n" +
				"  - name: a\n    kind: csv\n    fields: [{name: x, type: int}]\n" +
				"  - name: a\n    kind: csv\n    fields: [{name: x, type: int}]\n",
			"duplicate source",
		},
		{
			"unknown type",
			"sources:\n  - name: a\n    kind: csv\n    fields: [{name: x, type: decimal}]\n",
			`unknown type "decimal"`,
		},
		{
			"nameless source",
			"sources:\n  - kind: csv\n    fields: [{name: x, type: int}]\n",
			"has no name",
		},
		{
			"no fields",
			"sources:\n  - name: a\n    kind: csv\n",
			"no fields declared",
		},
	}
	for _, tt := range tests {
		path := writeFile(t, t.TempDir(), "ember.yaml", tt.content)
		_, err := LoadManifest(path)
		if err == nil {
			t.Errorf("%s: no error", tt.name)
			continue
		}
		if !strings.Contains(err.Error(), tt.wantPart) {
			t.Errorf("%s: error = %v, want it to mention %q", tt.name, err, tt.wantPart)
		}
	}
}

func TestFindManifest(t *testing.T) {
	dir := t.TempDir()
	if _, err := FindManifest(dir); err == nil {
		t.Error("found a manifest in an empty directory")
	}

	want := writeFile(t, dir, "ember.yml", accountsManifest)
	got, err := FindManifest(dir)
	if err != nil {
		t.Fatal(err)
	}
	if got != want {
		t.Errorf("FindManifest = %s, want %s", got, want)
	}
}
