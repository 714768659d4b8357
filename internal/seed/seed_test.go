package seed

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmeshcher/vetbill/internal/model"
	"github.com/mmeshcher/vetbill/internal/repository"
)

func TestRun(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryRepository()

	res, err := Run(ctx, repo, nil)
	require.NoError(t, err)

	first, err := repo.GetBill(ctx, ID("bill", "INV-001"))
	require.NoError(t, err)
	assert.Equal(t, int64(20000), first.TotalAmount)
	assert.Equal(t, model.BillStatusUnpaid, first.Status)
	assert.Empty(t, first.Payments)

	second, err := repo.GetBill(ctx, ID("bill", "INV-002"))
	require.NoError(t, err)
	assert.Equal(t, int64(18000), second.TotalAmount)
	assert.Equal(t, model.BillStatusPaid, second.Status)
	assert.Equal(t, second.TotalAmount, second.CurrentPayment)
	assert.Len(t, second.Payments, 1)

	bills, err := repo.ListBills(ctx, model.BillFilter{})
	require.NoError(t, err)
	require.Len(t, bills, 2)
	assert.Equal(t, "INV-001", bills[0].InvoiceNumber, "newest date first")

	drifts, err := repo.FindPaymentDrift(ctx)
	require.NoError(t, err)
	assert.Empty(t, drifts)

	admin, err := repo.GetUser(ctx, res.Admin.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, admin.Role)

	var seq int64
	require.NoError(t, repo.InTx(ctx, func(tx repository.LedgerTx) error {
		var err error
		seq, err = tx.NextInvoiceSeq(ctx)
		return err
	}))
	assert.Equal(t, int64(3), seq, "new bills continue after seeded numbers")

	_, err = Run(ctx, repo, nil)
	assert.ErrorIs(t, err, repository.ErrUserExists)
}
