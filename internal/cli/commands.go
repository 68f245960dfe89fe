package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/eshaffer321/statement-reconciler/internal/application/service"
	"github.com/eshaffer321/statement-reconciler/internal/domain/reconcile"
	"github.com/eshaffer321/statement-reconciler/internal/infrastructure/storage"
)

// RunImport imports one statement file and prints the summary.
func RunImport(ctx context.Context, rt *Runtime, w io.Writer, flags ImportFlags, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read statement: %w", err)
	}

	name := flags.Name
	if name == "" {
		name = filepath.Base(path)
	}

	var result *service.ImportResult
	if flags.Extract {
		result, err = rt.Service.ImportStatement(ctx, name, string(data))
	} else {
		result, err = rt.Service.ImportCSV(ctx, name, string(data))
	}
	if err != nil {
		return err
	}

	PrintImportSummary(w, result)
	return nil
}

// RunList prints transactions matching the flags.
func RunList(ctx context.Context, rt *Runtime, w io.Writer, flags ListFlags) error {
	filter := storage.TransactionFilter{
		ImportID: flags.ImportID,
		Limit:    flags.Limit,
	}
	if flags.Status != "" {
		status, err := reconcile.ParseStatus(flags.Status)
		if err != nil {
			return err
		}
		filter.Status = status
	}

	result, err := rt.Service.ListTransactions(ctx, filter)
	if err != nil {
		return err
	}
	PrintTransactions(w, result.Transactions, result.TotalCount)
	return nil
}

// RunAuto runs batch reconciliation.
func RunAuto(ctx context.Context, rt *Runtime, w io.Writer, flags AutoFlags) error {
	result, err := rt.Service.AutoReconcile(ctx, flags.MinScore)
	if err != nil {
		return err
	}
	PrintAutoSummary(w, result)
	return nil
}

// RunReport prints the named report: "recurring" or "vendors".
func RunReport(ctx context.Context, rt *Runtime, w io.Writer, report string) error {
	switch report {
	case "recurring":
		payments, err := rt.Service.RecurringPayments(ctx)
		if err != nil {
			return err
		}
		PrintRecurring(w, payments)
	case "vendors", "top-vendors":
		vendors, err := rt.Service.TopVendors(ctx, 0)
		if err != nil {
			return err
		}
		PrintTopVendors(w, vendors)
	default:
		return fmt.Errorf("unknown report %q (want recurring or vendors)", report)
	}
	return nil
}

// RunStats prints aggregate statistics.
func RunStats(ctx context.Context, rt *Runtime, w io.Writer) error {
	stats, err := rt.Service.Stats(ctx)
	if err != nil {
		return err
	}
	PrintStats(w, stats)
	return nil
}
