package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func runRoot(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		params = nil
	})
	err := rootCmd.Execute()
	return out.String(), errOut.String(), err
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	want := []string{"parse", "execute-sql", "plugins", "mcp", "version"}
	for _, name := range want {
		cmd, _, err := rootCmd.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}

func TestParseCommand(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "parts.csv")
	if err := os.WriteFile(path, []byte("name,qty\nbolt,4\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	out, _, err := runRoot(t, "parse", path, "--output", "yaml")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !strings.Contains(out, "columns:") || !strings.Contains(out, "bolt") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestParseCommandReportsFailures(t *testing.T) {
	_, errOut, err := runRoot(t, "parse", filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("expected an error for a missing file")
	}
	if !strings.Contains(errOut, "error:") {
		t.Errorf("expected a formatted parse error, got %q", errOut)
	}
}

func TestPluginsCommand(t *testing.T) {
	out, _, err := runRoot(t, "plugins")
	if err != nil {
		t.Fatalf("plugins: %v", err)
	}
	for _, name := range []string{"yaml", "expand-parameters", "version-gate"} {
		if !strings.Contains(out, name) {
			t.Errorf("plugins output missing %q:\n%s", name, out)
		}
	}
}

func TestExecuteSQLCommand(t *testing.T) {
	out, _, err := runRoot(t, "execute-sql", "--dsn", ":memory:", "--sql", "create table t (id int); select count(*) as n from t")
	if err != nil {
		t.Fatalf("execute-sql: %v", err)
	}
	if !strings.Contains(out, "Successfully Executed") || !strings.Contains(out, "0 | ") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestInvalidParam(t *testing.T) {
	_, _, err := runRoot(t, "plugins", "--param", "novalue")
	if err == nil || !strings.Contains(err.Error(), "want key=value") {
		t.Fatalf("expected invalid parameter error, got %v", err)
	}
}
