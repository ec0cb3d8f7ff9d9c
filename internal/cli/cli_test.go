package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eshaffer321/travel-backoffice/internal/domain/audit"
	"github.com/eshaffer321/travel-backoffice/internal/domain/reconciler"
	"github.com/eshaffer321/travel-backoffice/internal/infrastructure/config"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newTestServices(t *testing.T) *Services {
	t.Helper()
	cfg := &config.Config{}
	cfg.Storage.DatabasePath = filepath.Join(t.TempDir(), "cli.db")
	cfg.Observability.Logging.Level = "error"

	svcs, err := OpenServices(cfg, cfg.Observability.Logging)
	require.NoError(t, err)
	t.Cleanup(func() { _ = svcs.Close() })
	return svcs
}

func TestParseGlobalFlags(t *testing.T) {
	flags, rest, err := ParseGlobalFlags([]string{"-config", "prod.yaml", "-verbose", "reconcile", "-company", "a.json"})

	require.NoError(t, err)
	assert.Equal(t, "prod.yaml", flags.ConfigPath)
	assert.True(t, flags.Verbose)
	assert.Equal(t, []string{"reconcile", "-company", "a.json"}, rest)
}

func TestParseServeFlags(t *testing.T) {
	flags, err := ParseServeFlags([]string{"-port", "9000"})
	require.NoError(t, err)
	assert.Equal(t, 9000, flags.Port)

	flags, err = ParseServeFlags(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, flags.Port)

	_, err = ParseServeFlags([]string{"-port", "abc"})
	assert.Error(t, err)
}

func TestParseReconcileFlags(t *testing.T) {
	t.Run("parses files", func(t *testing.T) {
		flags, err := ParseReconcileFlags([]string{"-company", "c.json", "-supplier", "s.json", "-filters", "f.yaml", "-out", "o.json"})

		require.NoError(t, err)
		assert.Equal(t, "c.json", flags.CompanyPath)
		assert.Equal(t, "s.json", flags.SupplierPath)
		assert.Equal(t, "f.yaml", flags.FiltersPath)
		assert.Equal(t, "o.json", flags.OutputPath)
	})

	t.Run("requires both sides", func(t *testing.T) {
		_, err := ParseReconcileFlags([]string{"-company", "c.json"})

		assert.ErrorIs(t, err, ErrMissingInput)
	})
}

func TestLoadRows(t *testing.T) {
	dir := t.TempDir()

	t.Run("array", func(t *testing.T) {
		path := writeFile(t, dir, "array.json", `[{"PNR": "ABC123", "Amount": 100}]`)

		rows, err := LoadRows(path)

		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, "ABC123", rows[0]["PNR"])
		assert.Equal(t, 100.0, rows[0]["Amount"])
	})

	t.Run("wrapped", func(t *testing.T) {
		path := writeFile(t, dir, "wrapped.json", `{"rows": [{"PNR": "A"}, {"PNR": "B"}]}`)

		rows, err := LoadRows(path)

		require.NoError(t, err)
		assert.Len(t, rows, 2)
	})

	t.Run("rejects other shapes", func(t *testing.T) {
		path := writeFile(t, dir, "bad.json", `{"data": 1}`)

		_, err := LoadRows(path)

		assert.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadRows(filepath.Join(dir, "nope.json"))

		assert.Error(t, err)
	})
}

func TestLoadFilters(t *testing.T) {
	dir := t.TempDir()

	t.Run("yaml", func(t *testing.T) {
		path := writeFile(t, dir, "filters.yaml", "- field: price\n  condition: greater_than\n  value: \"100\"\n")

		filters, err := LoadFilters(path)

		require.NoError(t, err)
		require.Len(t, filters, 1)
		assert.Equal(t, reconciler.FilterGreaterThan, filters[0].Condition)
	})

	t.Run("json", func(t *testing.T) {
		path := writeFile(t, dir, "filters.json", `[{"field": "route", "condition": "contains", "value": "DXB"}]`)

		filters, err := LoadFilters(path)

		require.NoError(t, err)
		require.Len(t, filters, 1)
		assert.Equal(t, "route", filters[0].Field)
	})

	t.Run("empty list disables filtering", func(t *testing.T) {
		path := writeFile(t, dir, "empty.json", `[]`)

		filters, err := LoadFilters(path)

		require.NoError(t, err)
		assert.NotNil(t, filters)
		assert.Empty(t, filters)
	})

	t.Run("rejects unknown condition", func(t *testing.T) {
		path := writeFile(t, dir, "invalid.yaml", "- field: price\n  condition: between\n")

		_, err := LoadFilters(path)

		assert.Error(t, err)
	})
}

func TestRunReconcile(t *testing.T) {
	// Arrange
	svcs := newTestServices(t)
	dir := t.TempDir()
	company := writeFile(t, dir, "company.json", `[
		{"PNR": "ABC123", "Passenger Name": "Mohammed Ali", "Amount": "500"},
		{"PNR": "DEF456", "Passenger Name": "Sara Ahmed", "Amount": "300"}
	]`)
	supplier := writeFile(t, dir, "supplier.json", `[
		{"booking_reference": "ABC123", "passenger_name": "Muhammad Ali", "price": 500}
	]`)
	out := filepath.Join(dir, "records.json")
	var buf bytes.Buffer

	// Act
	err := RunReconcile(context.Background(), svcs, &ReconcileFlags{
		CompanyPath:  company,
		SupplierPath: supplier,
		OutputPath:   out,
	}, &buf)

	// Assert
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "backoffice: reconcile")
	assert.Contains(t, buf.String(), "Partial=1")
	assert.Contains(t, buf.String(), "MissingInSupplier=1")

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	var records []reconciler.ReconciledRecord
	require.NoError(t, json.Unmarshal(data, &records))
	assert.Len(t, records, 2)

	runs, err := svcs.Recon.Runs(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestRunAudit(t *testing.T) {
	svcs := newTestServices(t)
	ctx := context.Background()
	outbound := audit.FlightReport{
		ID: "OUT", FileName: "out.xlsx", FlightDate: "2024-02-01", Route: "BGW-DXB", TotalRevenue: 300,
		Passengers: []audit.Passenger{{Name: "Ali Hassan", BookingReference: "ABC123", Payable: 300}},
	}
	inbound := audit.FlightReport{
		ID: "IN", FileName: "in.xlsx", FlightDate: "2024-02-09", Route: "DXB-BGW", TotalRevenue: 300,
		Passengers: []audit.Passenger{{Name: "Ali Hassan", BookingReference: "ABC123", Payable: 300}},
	}
	require.NoError(t, svcs.Store.SaveReports(ctx, []audit.FlightReport{outbound, inbound}))

	t.Run("summary", func(t *testing.T) {
		var buf bytes.Buffer

		require.NoError(t, RunAudit(ctx, svcs, &AuditFlags{}, &buf))

		out := buf.String()
		assert.Contains(t, out, "Reports=2")
		assert.Contains(t, out, "Discount=300.00")
		assert.Contains(t, out, "UNMATCHED_RETURN")
		assert.Contains(t, out, "Issues:")
	})

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer

		require.NoError(t, RunAudit(ctx, svcs, &AuditFlags{JSON: true}, &buf))

		var reports []audit.FlightReport
		require.NoError(t, json.Unmarshal(buf.Bytes(), &reports))
		require.Len(t, reports, 2)
		assert.Equal(t, "IN", reports[0].ID)
	})
}

func TestPrintAuditSummary_NoIssues(t *testing.T) {
	var buf bytes.Buffer

	PrintAuditSummary(&buf, nil, audit.Summarize(nil))

	assert.Contains(t, buf.String(), "Reports=0")
	assert.Contains(t, buf.String(), "No issues found.")
}
