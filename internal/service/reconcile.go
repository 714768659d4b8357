package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/mmeshcher/vetbill/internal/model"
)

// Reconcile сверяет сумму оплаты каждого счёта с суммой его платежей и возвращает расхождения.
func (s *Service) Reconcile(ctx context.Context) ([]model.PaymentDrift, error) {
	drifts, err := s.store.FindPaymentDrift(ctx)
	if err != nil {
		return nil, err
	}

	for _, d := range drifts {
		s.logger.Warn("bill payment total drift",
			zap.String("bill_id", d.BillID.String()),
			zap.String("invoice", d.InvoiceNumber),
			zap.Int64("current_payment", d.CurrentPayment),
			zap.Int64("payments_sum", d.PaymentsSum),
		)
	}

	return drifts, nil
}

// StartReconciliation запускает фоновую сверку с указанным интервалом.
// При неположительном интервале сверка отключена.
func (s *Service) StartReconciliation(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := s.Reconcile(ctx); err != nil && ctx.Err() == nil {
					s.logger.Error("reconciliation failed", zap.Error(err))
				}
			}
		}
	}()
}
