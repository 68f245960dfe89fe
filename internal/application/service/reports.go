package service

import (
	"context"
	"fmt"

	"github.com/eshaffer321/statement-reconciler/internal/domain/reconcile"
	"github.com/eshaffer321/statement-reconciler/internal/domain/recurring"
	"github.com/eshaffer321/statement-reconciler/internal/infrastructure/storage"
)

// RecurringPayments detects recurring payments across all stored transactions.
func (s *ReconcileService) RecurringPayments(ctx context.Context) ([]recurring.RecurringPayment, error) {
	v, err, _ := s.reports.Do("recurring", func() (interface{}, error) {
		txs, err := s.allTransactions(ctx)
		if err != nil {
			return nil, err
		}
		return s.detector.Detect(txs), nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]recurring.RecurringPayment), nil
}

// TopVendors returns the n description groups with the highest spend.
// n <= 0 uses the detector default.
func (s *ReconcileService) TopVendors(ctx context.Context, n int) ([]recurring.VendorTotal, error) {
	v, err, _ := s.reports.Do(fmt.Sprintf("top-vendors:%d", n), func() (interface{}, error) {
		txs, err := s.allTransactions(ctx)
		if err != nil {
			return nil, err
		}
		return s.detector.TopVendors(txs, n), nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]recurring.VendorTotal), nil
}

func (s *ReconcileService) allTransactions(ctx context.Context) ([]reconcile.Transaction, error) {
	list, err := s.storage.ListTransactions(ctx, storage.TransactionFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return list.Transactions, nil
}
