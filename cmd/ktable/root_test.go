package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/JonMunkholm/ktable/internal/config"
	"github.com/JonMunkholm/ktable/internal/core"
)

func writeKTable(t *testing.T, rows int) string {
	t.Helper()
	var b strings.Builder
	for j := 1; j <= 30; j++ {
		fmt.Fprintf(&b, ",0.%04d", j)
	}
	b.WriteString("\n")
	for i := 0; i < rows; i++ {
		fmt.Fprint(&b, i*10)
		for j := 1; j <= 30; j++ {
			fmt.Fprintf(&b, ",0.%03d%03d", i, j)
		}
		b.WriteString("\n")
	}
	path := filepath.Join(t.TempDir(), "k-table.csv")
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		t.Fatalf("write table: %v", err)
	}
	return path
}

func runCommand(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DB_URL", "")
	t.Setenv("LOG_LEVEL", "error")

	var stdout, stderr bytes.Buffer
	cmd := NewRootCommand(strings.NewReader(stdin), &stdout, &stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), err
}

func TestLoadDryRun(t *testing.T) {
	out, err := runCommand(t, "", "load", "--dry-run", "-f", writeKTable(t, 91))
	if err != nil {
		t.Fatalf("load --dry-run error = %v", err)
	}
	if !strings.HasPrefix(out, "dry run ok: 2730 cells in 10 batches") {
		t.Errorf("output = %q", out)
	}
}

func TestLoadDryRun_ShapeMismatch(t *testing.T) {
	_, err := runCommand(t, "", "load", "--dry-run", "-f", writeKTable(t, 90))
	if core.StageOf(err) != core.StageShape {
		t.Fatalf("load --dry-run error = %v, want stage %q", err, core.StageShape)
	}
	if msg := core.FormatUserError(err); !strings.Contains(msg, "SHAPE001") {
		t.Errorf("FormatUserError() = %q, want SHAPE001", msg)
	}
}

func TestLoadDryRun_FileFromEnv(t *testing.T) {
	t.Setenv("KTABLE_FILE", writeKTable(t, 91))

	if _, err := runCommand(t, "", "load", "--dry-run"); err != nil {
		t.Fatalf("load --dry-run error = %v", err)
	}
}

func TestCommandsNeedDatabase(t *testing.T) {
	for _, args := range [][]string{
		{"load", "-f", "unused.csv"},
		{"history"},
		{"reset", "--yes"},
	} {
		t.Run(args[0], func(t *testing.T) {
			_, err := runCommand(t, "", args...)
			if !errors.Is(err, config.ErrDatabaseURLMissing) {
				t.Errorf("%v error = %v, want ErrDatabaseURLMissing", args, err)
			}
		})
	}
}

func TestInvalidConfig(t *testing.T) {
	t.Setenv("LEDGER_CALL_TIMEOUT", "soon")

	var stdout, stderr bytes.Buffer
	cmd := NewRootCommand(strings.NewReader(""), &stdout, &stderr)
	cmd.SetArgs([]string{"load", "--dry-run"})
	if err := cmd.ExecuteContext(context.Background()); err == nil {
		t.Fatal("Execute() error = nil, want config error")
	}
}
