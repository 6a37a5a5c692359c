package cli

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
)

const accountsCSV = `name,balance
Alice,100
Bob,-200
Charlie,-300
Dennis,400
`

func accountsDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, dir, "ember.yaml", accountsManifest)
	writeFile(t, dir, "accounts.csv", accountsCSV)
	return dir
}

func run(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var out, errOut bytes.Buffer
	code := Run(args, &out, &errOut)
	return code, out.String(), errOut.String()
}

func TestRunFilteredField(t *testing.T) {
	manifest := filepath.Join(accountsDir(t), "ember.yaml")
	code, out, errOut := run(t, "-m", manifest, `accounts[accounts.balance < 0].name`)

	if code != 0 {
		t.Fatalf("exit = %d, stderr = %s", code, errOut)
	}
	if out != "Bob\nCharlie\n" {
		t.Errorf("output = %q", out)
	}
}

func TestRunAggregate(t *testing.T) {
	manifest := filepath.Join(accountsDir(t), "ember.yaml")
	code, out, errOut := run(t, "-m", manifest, `sum(accounts.balance) + 1`)

	if code != 0 {
		t.Fatalf("exit = %d, stderr = %s", code, errOut)
	}
	if out != "1\n" {
		t.Errorf("output = %q", out)
	}
}

func TestRunRowOutput(t *testing.T) {
	manifest := filepath.Join(accountsDir(t), "ember.yaml")
	code, out, _ := run(t, "-m", manifest, `head(sort(accounts, balance, desc), 2)`)

	if code != 0 {
		t.Fatalf("exit = %d", code)
	}
	if out != "Dennis\t400\nAlice\t100\n" {
		t.Errorf("output = %q", out)
	}
}

func TestRunUnknownSource(t *testing.T) {
	manifest := filepath.Join(accountsDir(t), "ember.yaml")
	code, _, errOut := run(t, "-m", manifest, `u.name`)

	if code != 1 {
		t.Fatalf("exit = %d", code)
	}
	if !strings.Contains(errOut, "P002") || !strings.Contains(errOut, `unknown source "u"`) {
		t.Errorf("stderr = %q", errOut)
	}
}

func TestRunUnknownField(t *testing.T) {
	manifest := filepath.Join(accountsDir(t), "ember.yaml")
	code, _, errOut := run(t, "-m", manifest, `accounts.missing`)

	if code != 1 {
		t.Fatalf("exit = %d", code)
	}
	if !strings.Contains(errOut, "P003") {
		t.Errorf("stderr = %q", errOut)
	}
}

func TestRunMissingSourceFile(t *testing.T) {
	dir := t.TempDir()
	manifest := writeFile(t, dir, "ember.yaml", accountsManifest)
	code, _, errOut := run(t, "-m", manifest, `count(accounts)`)

	if code != 1 {
		t.Fatalf("exit = %d", code)
	}
	if !strings.Contains(errOut, "B001") || !strings.Contains(errOut, `source "accounts"`) {
		t.Errorf("stderr = %q", errOut)
	}
}

func TestRunBadManifestPath(t *testing.T) {
	code, _, errOut := run(t, "-m", filepath.Join(t.TempDir(), "nope.yaml"), `count(accounts)`)
	if code != 1 {
		t.Fatalf("exit = %d", code)
	}
	if !strings.Contains(errOut, "Error:") {
		t.Errorf("stderr = %q", errOut)
	}
}

func TestRunFlagHandling(t *testing.T) {
	code, out, _ := run(t, "--help")
	if code != 0 || !strings.Contains(out, "Usage:") {
		t.Errorf("help: exit = %d, output = %q", code, out)
	}

	code, _, errOut := run(t)
	if code != 1 || !strings.Contains(errOut, "Usage:") {
		t.Errorf("no query: exit = %d, stderr = %q", code, errOut)
	}

	code, _, errOut = run(t, "--frobnicate", "q")
	if code != 1 || !strings.Contains(errOut, "unknown flag") {
		t.Errorf("bad flag: exit = %d, stderr = %q", code, errOut)
	}

	code, _, errOut = run(t, "-m")
	if code != 1 || !strings.Contains(errOut, "needs a path") {
		t.Errorf("dangling -m: exit = %d, stderr = %q", code, errOut)
	}

	code, _, errOut = run(t, "a", "b")
	if code != 1 || !strings.Contains(errOut, "more than one query") {
		t.Errorf("two queries: exit = %d, stderr = %q", code, errOut)
	}
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{nil, "null"},
		{int64(42), "42"},
		{2.5, "2.5"},
		{3.0, "3"},
		{"x", "x"},
		{true, "true"},
	}
	for _, tt := range tests {
		if got := formatValue(tt.in); got != tt.want {
			t.Errorf("formatValue(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
