package cli

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eshaffer321/statement-reconciler/internal/infrastructure/config"
)

func newTestRuntime(t *testing.T, mutate func(*config.Config)) *Runtime {
	t.Helper()
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "")

	cfg := config.Defaults()
	cfg.Storage.DatabasePath = filepath.Join(t.TempDir(), "cli.db")
	if mutate != nil {
		mutate(cfg)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	rt, err := NewRuntime(context.Background(), cfg, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rt.Close() })
	return rt
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestNewRuntime(t *testing.T) {
	t.Run("metrics enabled registers collector", func(t *testing.T) {
		rt := newTestRuntime(t, nil)

		require.NotNil(t, rt.Registry)
		assert.False(t, rt.Service.ExtractionEnabled())

		families, err := rt.Registry.Gather()
		require.NoError(t, err)
		assert.NotEmpty(t, families)
	})

	t.Run("metrics disabled", func(t *testing.T) {
		rt := newTestRuntime(t, func(cfg *config.Config) {
			cfg.Observability.Metrics.Enabled = false
		})

		assert.Nil(t, rt.Registry)
	})
}

func TestRunImportAndList(t *testing.T) {
	// Arrange
	rt := newTestRuntime(t, func(cfg *config.Config) {
		cfg.Parser.Delimiter = ";"
	})
	path := writeFile(t, "march.csv", "Date;Amount;Description\n2024-03-01;42,50;COFFEE SHOP\n2024-03-04;7,00;BAKERY\n")
	ctx := context.Background()
	var out bytes.Buffer

	// Act
	err := RunImport(ctx, rt, &out, ImportFlags{}, path)

	// Assert
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Inserted=2 Skipped=0 Source=csv")

	out.Reset()
	require.NoError(t, RunList(ctx, rt, &out, ListFlags{Status: "pending", Limit: 1}))
	assert.Contains(t, out.String(), "COFFEE SHOP")
	assert.NotContains(t, out.String(), "BAKERY")
	assert.Contains(t, out.String(), "Showing 1 of 2 transactions")
}

func TestRunImport_Errors(t *testing.T) {
	rt := newTestRuntime(t, nil)
	ctx := context.Background()

	t.Run("missing file", func(t *testing.T) {
		err := RunImport(ctx, rt, io.Discard, ImportFlags{}, filepath.Join(t.TempDir(), "nope.csv"))
		assert.ErrorContains(t, err, "failed to read statement")
	})

	t.Run("extraction disabled", func(t *testing.T) {
		path := writeFile(t, "statement.txt", "some statement text")
		err := RunImport(ctx, rt, io.Discard, ImportFlags{Extract: true}, path)
		assert.Error(t, err)
	})
}

func TestRunList_InvalidStatus(t *testing.T) {
	rt := newTestRuntime(t, nil)

	err := RunList(context.Background(), rt, io.Discard, ListFlags{Status: "archived"})

	assert.Error(t, err)
}

func TestRunAutoReportsAndStats(t *testing.T) {
	rt := newTestRuntime(t, nil)
	ctx := context.Background()
	path := writeFile(t, "subs.csv", "Date,Amount,Description\n"+
		"2024-01-15,15.99,NETFLIX\n"+
		"2024-02-15,15.99,NETFLIX\n")
	require.NoError(t, RunImport(ctx, rt, io.Discard, ImportFlags{Name: "subs"}, path))

	t.Run("auto", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, RunAuto(ctx, rt, &out, AutoFlags{}))
		assert.Contains(t, out.String(), "Considered=2 Confirmed=0 Unassigned=2")
	})

	t.Run("recurring report", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, RunReport(ctx, rt, &out, "recurring"))
		assert.Contains(t, out.String(), "x2")
	})

	t.Run("vendors report", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, RunReport(ctx, rt, &out, "vendors"))
		assert.Contains(t, out.String(), "31.98")
	})

	t.Run("unknown report", func(t *testing.T) {
		assert.Error(t, RunReport(ctx, rt, io.Discard, "weekly"))
	})

	t.Run("stats", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, RunStats(ctx, rt, &out))
		assert.Contains(t, out.String(), "Transactions: 2 (pending 2, matched 0, discrepancy 0)")
		assert.Contains(t, out.String(), "Imports: 1")
	})
}

func TestParseFlags(t *testing.T) {
	t.Run("global flags stop at subcommand", func(t *testing.T) {
		flags, rest, err := ParseGlobalFlags([]string{"-db", "x.db", "-verbose", "list", "-status", "matched"}, io.Discard)

		require.NoError(t, err)
		assert.Equal(t, "x.db", flags.DBPath)
		assert.True(t, flags.Verbose)
		assert.Equal(t, []string{"list", "-status", "matched"}, rest)
	})

	t.Run("import flags", func(t *testing.T) {
		flags, rest, err := ParseImportFlags([]string{"-extract", "-name", "april", "april.pdf"}, io.Discard)

		require.NoError(t, err)
		assert.True(t, flags.Extract)
		assert.Equal(t, "april", flags.Name)
		assert.Equal(t, []string{"april.pdf"}, rest)
	})

	t.Run("list defaults", func(t *testing.T) {
		flags, err := ParseListFlags(nil, io.Discard)

		require.NoError(t, err)
		assert.Equal(t, 50, flags.Limit)
	})

	t.Run("unknown flag", func(t *testing.T) {
		_, err := ParseAutoFlags([]string{"-bogus"}, io.Discard)

		assert.Error(t, err)
	})
}
