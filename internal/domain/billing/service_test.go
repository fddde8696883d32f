package billing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"texcore/internal/core/id"
	"texcore/internal/core/types"
)

type fakeTxManager struct{}

func (fakeTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeRepo struct {
	orders   []OpenOrder
	payments types.Money
}

func (r *fakeRepo) SumPayments(_ context.Context, _ id.ID) (types.Money, error) {
	return r.payments, nil
}

func (r *fakeRepo) ListOrdersOldestFirst(_ context.Context, customerID id.ID) ([]OpenOrder, error) {
	var out []OpenOrder
	for _, o := range r.orders {
		if o.CustomerID == customerID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (r *fakeRepo) SetOrderPaid(_ context.Context, orderID id.ID, paid bool) error {
	for i := range r.orders {
		if r.orders[i].ID == orderID {
			r.orders[i].Paid = paid
			return nil
		}
	}
	return nil
}

func (r *fakeRepo) OutstandingTotal(_ context.Context, customerID id.ID) (types.Money, error) {
	total := types.Zero()
	for _, o := range r.orders {
		if o.CustomerID == customerID && !o.Paid {
			total = total.Add(o.Total)
		}
	}
	return total, nil
}

func money(s string) types.Money { return types.MustQuantity(s) }

func newBillingFixture() (*Service, *fakeRepo, id.ID) {
	customer := id.New()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	repo := &fakeRepo{
		orders: []OpenOrder{
			{ID: id.New(), CustomerID: customer, DocRef: "PED-001", IssuedAt: base, Total: money("100")},
			{ID: id.New(), CustomerID: customer, DocRef: "PED-002", IssuedAt: base.AddDate(0, 0, 7), Total: money("80")},
		},
	}
	return NewService(repo, fakeTxManager{}), repo, customer
}

func TestReconcilePaysOldestFirst(t *testing.T) {
	svc, repo, customer := newBillingFixture()
	repo.payments = money("150")

	res, err := svc.Reconcile(context.Background(), customer)
	require.NoError(t, err)
	require.Equal(t, 1, res.MarkedPaid)
	require.Equal(t, 0, res.MarkedUnpaid)
	require.True(t, res.TotalPaid.Equal(money("150")))

	// 150 covers the 100 order; the remaining 50 does not cover the 80 one.
	require.True(t, repo.orders[0].Paid)
	require.False(t, repo.orders[1].Paid)

	balance, err := svc.OutstandingBalance(context.Background(), customer)
	require.NoError(t, err)
	require.True(t, balance.Equal(money("80")))
}

func TestReconcileCoversAllOrders(t *testing.T) {
	svc, repo, customer := newBillingFixture()
	repo.payments = money("200")

	res, err := svc.Reconcile(context.Background(), customer)
	require.NoError(t, err)
	require.Equal(t, 2, res.MarkedPaid)
	require.True(t, repo.orders[0].Paid)
	require.True(t, repo.orders[1].Paid)

	balance, err := svc.OutstandingBalance(context.Background(), customer)
	require.NoError(t, err)
	require.True(t, balance.IsZero())
}

func TestReconcileRerunIsNoop(t *testing.T) {
	svc, repo, customer := newBillingFixture()
	repo.payments = money("150")

	_, err := svc.Reconcile(context.Background(), customer)
	require.NoError(t, err)

	res, err := svc.Reconcile(context.Background(), customer)
	require.NoError(t, err)
	require.Equal(t, 0, res.MarkedPaid)
	require.Equal(t, 0, res.MarkedUnpaid)
}

func TestReconcileFlipsBackWhenPaymentsShrink(t *testing.T) {
	svc, repo, customer := newBillingFixture()
	repo.payments = money("150")
	_, err := svc.Reconcile(context.Background(), customer)
	require.NoError(t, err)

	// A reversed payment drops the balance below the first order's total.
	repo.payments = money("50")
	res, err := svc.Reconcile(context.Background(), customer)
	require.NoError(t, err)
	require.Equal(t, 0, res.MarkedPaid)
	require.Equal(t, 1, res.MarkedUnpaid)
	require.False(t, repo.orders[0].Paid)
	require.False(t, repo.orders[1].Paid)
}

func TestReconcileNoOrders(t *testing.T) {
	svc := NewService(&fakeRepo{payments: money("500")}, fakeTxManager{})

	res, err := svc.Reconcile(context.Background(), id.New())
	require.NoError(t, err)
	require.Equal(t, 0, res.MarkedPaid)
	require.True(t, res.TotalPaid.Equal(money("500")))
}
