package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/eshaffer321/travel-backoffice/internal/domain/audit"
	"github.com/eshaffer321/travel-backoffice/internal/domain/reconciler"
)

// RunAudit re-audits every stored report and prints the result.
func RunAudit(ctx context.Context, svcs *Services, flags *AuditFlags, w io.Writer) error {
	reports, err := svcs.Audits.RunAudit(ctx)
	if err != nil {
		return err
	}

	if flags.JSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(reports)
	}

	PrintHeader(w, "audit")
	PrintAuditSummary(w, reports, audit.Summarize(reports))
	return nil
}

// RunReconcile reconciles two row files, records the run and prints the
// summary. Records are written to flags.OutputPath when set.
func RunReconcile(ctx context.Context, svcs *Services, flags *ReconcileFlags, w io.Writer) error {
	companyRows, err := LoadRows(flags.CompanyPath)
	if err != nil {
		return err
	}
	supplierRows, err := LoadRows(flags.SupplierPath)
	if err != nil {
		return err
	}

	var filters []reconciler.FilterRule
	if flags.FiltersPath != "" {
		if filters, err = LoadFilters(flags.FiltersPath); err != nil {
			return err
		}
	}

	run, err := svcs.Recon.Reconcile(ctx, companyRows, supplierRows, filters)
	if err != nil {
		return err
	}

	if flags.OutputPath != "" && run.Result != nil {
		data, err := json.MarshalIndent(run.Result.Records, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode records: %w", err)
		}
		if err := os.WriteFile(flags.OutputPath, data, 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", flags.OutputPath, err)
		}
	}

	PrintHeader(w, "reconcile")
	PrintReconcileSummary(w, run)
	return nil
}

// LoadRows reads statement rows from a JSON file holding either an array of
// objects or {"rows": [...]}.
func LoadRows(path string) ([]map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}

	var rows []map[string]any
	if err := json.Unmarshal(data, &rows); err == nil {
		return rows, nil
	}

	var wrapped struct {
		Rows []map[string]any `json:"rows"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if wrapped.Rows == nil {
		return nil, fmt.Errorf("parse %s: no rows found", path)
	}
	return wrapped.Rows, nil
}

// LoadFilters reads filter rules from a YAML or JSON file. An empty list
// disables filtering.
func LoadFilters(path string) ([]reconciler.FilterRule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read filters: %w", err)
	}

	filters := []reconciler.FilterRule{}
	if err := yaml.Unmarshal(data, &filters); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := reconciler.ValidateFilters(filters); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return filters, nil
}
