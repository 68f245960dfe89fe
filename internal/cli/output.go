package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/eshaffer321/statement-reconciler/internal/application/service"
	"github.com/eshaffer321/statement-reconciler/internal/domain/reconcile"
	"github.com/eshaffer321/statement-reconciler/internal/domain/recurring"
	"github.com/eshaffer321/statement-reconciler/internal/infrastructure/storage"
)

// PrintHeader prints the application header
func PrintHeader(w io.Writer, command, dbPath string) {
	fmt.Fprintf(w, "reconcile: %s (db: %s)\n", command, dbPath)
}

// PrintImportSummary prints the outcome of one import
func PrintImportSummary(w io.Writer, result *service.ImportResult) {
	fmt.Fprintln(w, strings.Repeat("-", 60))
	fmt.Fprintf(w, "Import %s: Inserted=%d Skipped=%d Source=%s\n",
		result.Run.ID,
		len(result.Transactions),
		result.Skipped,
		result.Run.Source)
}

// PrintTransactions prints one line per transaction
func PrintTransactions(w io.Writer, txs []reconcile.Transaction, total int) {
	for _, t := range txs {
		line := fmt.Sprintf("%s  %s  %10s  %-12s %s", t.ID, t.Date, t.Amount.StringFixed(2), t.Status, t.Description)
		if t.MatchedExpenseID != "" {
			line += "  -> " + t.MatchedExpenseID
		}
		fmt.Fprintln(w, line)
	}
	fmt.Fprintf(w, "\nShowing %d of %d transactions\n", len(txs), total)
}

// PrintAutoSummary prints the auto-reconcile result
func PrintAutoSummary(w io.Writer, result *service.AutoReconcileResult) {
	fmt.Fprintln(w, strings.Repeat("-", 60))
	fmt.Fprintf(w, "Summary: Considered=%d Confirmed=%d Unassigned=%d Conflicts=%d (min score %d)\n",
		result.Considered,
		result.Confirmed,
		result.Unassigned,
		result.Conflicts,
		result.MinScore)

	for _, m := range result.Matches {
		fmt.Fprintf(w, "  %s -> %s (%d, %s)\n", m.TransactionID, m.ExpenseID, m.Score, m.MatchType)
	}
}

// PrintStats prints aggregate statistics
func PrintStats(w io.Writer, stats *storage.Stats) {
	fmt.Fprintf(w, "Transactions: %d (pending %d, matched %d, discrepancy %d)\n",
		stats.TotalTransactions,
		stats.PendingCount,
		stats.MatchedCount,
		stats.DiscrepancyCount)
	fmt.Fprintf(w, "Amounts: total $%s | pending $%s | matched $%s | discrepancy $%s\n",
		stats.TotalAmount.StringFixed(2),
		stats.PendingAmount.StringFixed(2),
		stats.MatchedAmount.StringFixed(2),
		stats.DiscrepancyAmount.StringFixed(2))
	fmt.Fprintf(w, "Ledger: %d expenses, %d reconciled | Imports: %d\n",
		stats.ExpenseCount,
		stats.ReconciledExpenses,
		stats.ImportRuns)
}

// PrintRecurring prints detected recurring payments
func PrintRecurring(w io.Writer, payments []recurring.RecurringPayment) {
	if len(payments) == 0 {
		fmt.Fprintln(w, "No recurring payments detected.")
		return
	}
	for _, p := range payments {
		fmt.Fprintf(w, "%-30s $%8s  x%d  %-9s %s .. %s\n",
			p.Description, p.Amount.StringFixed(2), p.Occurrences, p.Frequency, p.FirstSeen, p.LastSeen)
	}
}

// PrintTopVendors prints the vendors with the highest spend
func PrintTopVendors(w io.Writer, vendors []recurring.VendorTotal) {
	for i, v := range vendors {
		fmt.Fprintf(w, "%2d. %-30s $%10s  (%d)\n", i+1, v.Vendor, v.Total.StringFixed(2), v.Count)
	}
}
