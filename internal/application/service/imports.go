package service

import (
	"context"
	"fmt"

	"github.com/eshaffer321/statement-reconciler/internal/domain/reconcile"
	"github.com/eshaffer321/statement-reconciler/internal/domain/statement"
	"github.com/eshaffer321/statement-reconciler/internal/infrastructure/storage"
)

// ImportResult describes one finished import.
type ImportResult struct {
	Run          *storage.ImportRun      `json:"import_run"`
	Transactions []reconcile.Transaction `json:"transactions"`
	Skipped      int                     `json:"skipped"`
}

// ImportCSV parses a CSV statement and stores every valid row in one batch.
// A statement that cannot be parsed stores nothing and marks the run failed.
func (s *ReconcileService) ImportCSV(ctx context.Context, filename, raw string) (*ImportResult, error) {
	run, err := s.storage.StartImportRun(ctx, reconcile.SourceCSV, filename)
	if err != nil {
		return nil, fmt.Errorf("failed to start import run: %w", err)
	}

	result, err := s.parser.Parse(raw)
	if err != nil {
		skipped := 0
		if result != nil {
			skipped = result.SkippedCount
		}
		s.failImport(ctx, run, storage.ImportCounts{Skipped: skipped}, err)
		return nil, err
	}

	return s.persist(ctx, run, result.Transactions, result.SkippedCount)
}

// ImportExtracted stores records produced outside the CSV parser. Records
// that fail validation are skipped and counted.
func (s *ReconcileService) ImportExtracted(ctx context.Context, name string, records []statement.ParsedTransaction) (*ImportResult, error) {
	run, err := s.storage.StartImportRun(ctx, reconcile.SourceExtracted, name)
	if err != nil {
		return nil, fmt.Errorf("failed to start import run: %w", err)
	}
	return s.importRecords(ctx, run, records)
}

// ImportStatement runs free-form statement text through the extractor and
// imports the result.
func (s *ReconcileService) ImportStatement(ctx context.Context, name, text string) (*ImportResult, error) {
	if s.extractor == nil {
		return nil, ErrExtractorUnavailable
	}

	run, err := s.storage.StartImportRun(ctx, reconcile.SourceExtracted, name)
	if err != nil {
		return nil, fmt.Errorf("failed to start import run: %w", err)
	}

	records, err := s.extractor.Extract(ctx, text)
	if err != nil {
		err = fmt.Errorf("extraction failed: %w", err)
		s.failImport(ctx, run, storage.ImportCounts{}, err)
		return nil, err
	}

	return s.importRecords(ctx, run, records)
}

func (s *ReconcileService) importRecords(ctx context.Context, run *storage.ImportRun, records []statement.ParsedTransaction) (*ImportResult, error) {
	valid := make([]statement.ParsedTransaction, 0, len(records))
	skipped := 0
	for _, rec := range records {
		rec = rec.Normalize()
		if err := rec.Validate(); err != nil {
			s.logger.Debug("skipping invalid record", "import_id", run.ID, "error", err)
			skipped++
			continue
		}
		valid = append(valid, rec)
	}

	if len(valid) == 0 {
		err := &statement.ParseError{
			Err:    statement.ErrNoValidRows,
			Detail: fmt.Sprintf("%d records, all invalid", len(records)),
		}
		s.failImport(ctx, run, storage.ImportCounts{Skipped: skipped}, err)
		return nil, err
	}

	return s.persist(ctx, run, valid, skipped)
}

// persist writes parsed rows as pending transactions and completes the run.
func (s *ReconcileService) persist(ctx context.Context, run *storage.ImportRun, parsed []statement.ParsedTransaction, skipped int) (*ImportResult, error) {
	txs := make([]*reconcile.Transaction, len(parsed))
	for i, p := range parsed {
		txs[i] = &reconcile.Transaction{
			ImportID:    run.ID,
			Source:      run.Source,
			Date:        p.Date,
			Amount:      p.Amount,
			Description: p.Description,
		}
	}

	counts := storage.ImportCounts{Parsed: len(parsed), Skipped: skipped}
	if err := s.storage.CreateBatch(ctx, txs); err != nil {
		err = fmt.Errorf("failed to save transactions: %w", err)
		s.failImport(ctx, run, counts, err)
		return nil, err
	}

	counts.Inserted = len(txs)
	if err := s.storage.CompleteImportRun(ctx, run.ID, counts); err != nil {
		// Rows are already committed; report them even if the run record lags.
		s.logger.Error("failed to complete import run", "import_id", run.ID, "error", err)
	}
	s.metrics.RecordImport(string(run.Source), true, counts.Inserted, counts.Skipped)

	s.logger.Info("import completed",
		"import_id", run.ID,
		"source", run.Source,
		"filename", run.Filename,
		"inserted", counts.Inserted,
		"skipped", counts.Skipped,
	)

	result := &ImportResult{
		Run:          run,
		Transactions: make([]reconcile.Transaction, len(txs)),
		Skipped:      skipped,
	}
	for i, t := range txs {
		result.Transactions[i] = *t
	}
	if latest, err := s.storage.GetImportRun(ctx, run.ID); err == nil {
		result.Run = latest
	}
	return result, nil
}

func (s *ReconcileService) failImport(ctx context.Context, run *storage.ImportRun, counts storage.ImportCounts, cause error) {
	s.metrics.RecordImport(string(run.Source), false, 0, counts.Skipped)
	s.logger.Warn("import failed",
		"import_id", run.ID,
		"source", run.Source,
		"filename", run.Filename,
		"error", cause,
	)
	if err := s.storage.FailImportRun(ctx, run.ID, counts, cause.Error()); err != nil {
		s.logger.Error("failed to record failed import run", "import_id", run.ID, "error", err)
	}
}
