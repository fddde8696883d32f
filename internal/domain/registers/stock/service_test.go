package stock

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"texcore/internal/core/apperror"
	"texcore/internal/core/entity"
	"texcore/internal/core/id"
	"texcore/internal/core/types"
)

// --- In-memory fakes ---

type fakeTxManager struct{}

func (m *fakeTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (m *fakeTxManager) ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type recordingSnapshots struct {
	written []entity.MovementEntry
}

func (s *recordingSnapshots) WriteSnapshot(_ context.Context, e entity.MovementEntry) error {
	s.written = append(s.written, e)
	return nil
}

type fakeRepo struct {
	rows    map[string]*entity.StockRow
	entries []entity.MovementEntry
	audits  []entity.AuditEntry
	alerts  []LowStockAlert
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{rows: make(map[string]*entity.StockRow)}
}

func rowKey(warehouseID, productID id.ID, lotID *id.ID) string {
	key := warehouseID.String() + "|" + productID.String() + "|"
	if lotID != nil {
		key += lotID.String()
	}
	return key
}

func (r *fakeRepo) GetRowForUpdate(_ context.Context, warehouseID, productID id.ID, lotID *id.ID) (entity.StockRow, bool, error) {
	if row, ok := r.rows[rowKey(warehouseID, productID, lotID)]; ok {
		return *row, true, nil
	}
	return entity.StockRow{}, false, nil
}

func (r *fakeRepo) AddRowQuantity(_ context.Context, warehouseID, productID id.ID, lotID *id.ID, delta types.Quantity) (entity.StockRow, error) {
	key := rowKey(warehouseID, productID, lotID)
	row, ok := r.rows[key]
	if !ok {
		created := entity.NewStockRow(warehouseID, productID, lotID)
		row = &created
		r.rows[key] = row
	}
	row.Quantity = row.Quantity.Add(delta)
	return *row, nil
}

func (r *fakeRepo) SetRowQuantity(_ context.Context, rowID id.ID, qty types.Quantity) error {
	for _, row := range r.rows {
		if row.ID == rowID {
			row.Quantity = qty
			return nil
		}
	}
	return apperror.NewNotFound("stock row", rowID.String())
}

func (r *fakeRepo) InsertEntries(_ context.Context, entries []entity.MovementEntry) error {
	r.entries = append(r.entries, entries...)
	return nil
}

func (r *fakeRepo) GetEntryForUpdate(_ context.Context, entryID id.ID) (entity.MovementEntry, error) {
	for _, e := range r.entries {
		if e.ID == entryID {
			return e, nil
		}
	}
	return entity.MovementEntry{}, apperror.NewNotFound("movement", entryID.String())
}

func (r *fakeRepo) UpdateEntry(_ context.Context, e entity.MovementEntry) error {
	for i := range r.entries {
		if r.entries[i].ID == e.ID {
			r.entries[i] = e
			return nil
		}
	}
	return apperror.NewNotFound("movement", e.ID.String())
}

func (r *fakeRepo) ListMovements(_ context.Context, warehouseID, productID id.ID) ([]entity.MovementEntry, error) {
	var out []entity.MovementEntry
	for _, e := range r.entries {
		if e.ProductID != productID {
			continue
		}
		touches := (e.SourceWarehouseID != nil && *e.SourceWarehouseID == warehouseID) ||
			(e.DestWarehouseID != nil && *e.DestWarehouseID == warehouseID)
		if touches {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *fakeRepo) InsertAuditEntries(_ context.Context, rows []entity.AuditEntry) error {
	r.audits = append(r.audits, rows...)
	return nil
}

func (r *fakeRepo) ListAuditEntries(_ context.Context, movementID id.ID) ([]entity.AuditEntry, error) {
	// Newest first, like the repository contract.
	var out []entity.AuditEntry
	for i := len(r.audits) - 1; i >= 0; i-- {
		if r.audits[i].MovementID == movementID {
			out = append(out, r.audits[i])
		}
	}
	return out, nil
}

func (r *fakeRepo) ListLowStock(_ context.Context) ([]LowStockAlert, error) {
	return r.alerts, nil
}

func (r *fakeRepo) quantity(warehouseID, productID id.ID, lotID *id.ID) types.Quantity {
	if row, ok := r.rows[rowKey(warehouseID, productID, lotID)]; ok {
		return row.Quantity
	}
	return types.Zero()
}

func newTestService() (*Service, *fakeRepo, *recordingSnapshots) {
	repo := newFakeRepo()
	snaps := &recordingSnapshots{}
	return NewService(repo, snaps, &fakeTxManager{}), repo, snaps
}

func qty(s string) types.Quantity { return types.MustQuantity(s) }

// --- RecordMovement ---

func TestRecordMovementPurchaseCreatesRowAndEntry(t *testing.T) {
	svc, repo, _ := newTestService()
	warehouse, product := id.New(), id.New()

	posted, err := svc.RecordMovement(context.Background(), MovementInput{
		Kind:            entity.KindPurchase,
		ProductID:       product,
		DestWarehouseID: &warehouse,
		Quantity:        qty("100"),
		Actor:           "ana",
	})
	require.NoError(t, err)

	require.True(t, repo.quantity(warehouse, product, nil).Equal(qty("100")))
	require.Equal(t, entity.KindPurchase, posted.Kind)
	require.True(t, posted.ResultingBalance.Equal(qty("100")))
	require.Equal(t, "ana", posted.Actor)
	require.False(t, posted.Edited)
	require.Len(t, repo.entries, 1)
}

func TestRecordMovementDebitFailsOnInsufficientStock(t *testing.T) {
	svc, repo, _ := newTestService()
	warehouse, product := id.New(), id.New()
	_, err := repo.AddRowQuantity(context.Background(), warehouse, product, nil, qty("30"))
	require.NoError(t, err)

	_, err = svc.RecordMovement(context.Background(), MovementInput{
		Kind:              entity.KindSale,
		ProductID:         product,
		SourceWarehouseID: &warehouse,
		Quantity:          qty("50"),
		Actor:             "ana",
	})
	require.True(t, apperror.IsCode(err, apperror.CodeInsufficientStock))

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	require.Equal(t, "50", appErr.Details["required"])
	require.Equal(t, "30", appErr.Details["available"])

	// Nothing posted, row untouched.
	require.True(t, repo.quantity(warehouse, product, nil).Equal(qty("30")))
	require.Empty(t, repo.entries)
}

func TestRecordMovementDebitFromMissingRowCountsAsZero(t *testing.T) {
	svc, repo, _ := newTestService()
	warehouse, product := id.New(), id.New()

	_, err := svc.RecordMovement(context.Background(), MovementInput{
		Kind:              entity.KindSale,
		ProductID:         product,
		SourceWarehouseID: &warehouse,
		Quantity:          qty("1"),
		Actor:             "ana",
	})
	require.True(t, apperror.IsCode(err, apperror.CodeInsufficientStock))
	require.Empty(t, repo.entries)
}

func TestRecordMovementValidation(t *testing.T) {
	svc, _, _ := newTestService()
	warehouse, product := id.New(), id.New()

	cases := []struct {
		name string
		in   MovementInput
	}{
		{"unknown kind", MovementInput{Kind: "teleport", ProductID: product, DestWarehouseID: &warehouse, Quantity: qty("1")}},
		{"transfer kind", MovementInput{Kind: entity.KindTransfer, ProductID: product, DestWarehouseID: &warehouse, Quantity: qty("1")}},
		{"zero quantity", MovementInput{Kind: entity.KindPurchase, ProductID: product, DestWarehouseID: &warehouse, Quantity: qty("0")}},
		{"negative quantity", MovementInput{Kind: entity.KindPurchase, ProductID: product, DestWarehouseID: &warehouse, Quantity: qty("-5")}},
		{"both warehouses", MovementInput{Kind: entity.KindPurchase, ProductID: product, SourceWarehouseID: &warehouse, DestWarehouseID: &warehouse, Quantity: qty("1")}},
		{"purchase missing destination", MovementInput{Kind: entity.KindPurchase, ProductID: product, Quantity: qty("1")}},
		{"sale missing source", MovementInput{Kind: entity.KindSale, ProductID: product, Quantity: qty("1")}},
		{"adjustment missing both", MovementInput{Kind: entity.KindAdjustment, ProductID: product, Quantity: qty("1")}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.RecordMovement(context.Background(), tc.in)
			require.True(t, apperror.IsCode(err, apperror.CodeValidation))
		})
	}
}

func TestRecordMovementAdjustmentFollowsNamedSide(t *testing.T) {
	svc, repo, _ := newTestService()
	warehouse, product := id.New(), id.New()

	_, err := svc.RecordMovement(context.Background(), MovementInput{
		Kind:            entity.KindAdjustment,
		ProductID:       product,
		DestWarehouseID: &warehouse,
		Quantity:        qty("15"),
		Actor:           "ana",
	})
	require.NoError(t, err)
	require.True(t, repo.quantity(warehouse, product, nil).Equal(qty("15")))

	_, err = svc.RecordMovement(context.Background(), MovementInput{
		Kind:              entity.KindAdjustment,
		ProductID:         product,
		SourceWarehouseID: &warehouse,
		Quantity:          qty("4"),
		Actor:             "ana",
	})
	require.NoError(t, err)
	require.True(t, repo.quantity(warehouse, product, nil).Equal(qty("11")))
}

// --- Transfer ---

func TestTransferMovesQuantityBetweenWarehouses(t *testing.T) {
	svc, repo, _ := newTestService()
	source, dest, product := id.New(), id.New(), id.New()
	_, err := repo.AddRowQuantity(context.Background(), source, product, nil, qty("100"))
	require.NoError(t, err)

	posted, err := svc.Transfer(context.Background(), TransferInput{
		ProductID:         product,
		Quantity:          qty("30"),
		SourceWarehouseID: source,
		DestWarehouseID:   dest,
		Actor:             "ana",
	})
	require.NoError(t, err)

	require.True(t, repo.quantity(source, product, nil).Equal(qty("70")))
	require.True(t, repo.quantity(dest, product, nil).Equal(qty("30")))

	// Single journal entry carrying both warehouses.
	require.Len(t, repo.entries, 1)
	require.Equal(t, entity.KindTransfer, posted.Kind)
	require.Equal(t, source, *posted.SourceWarehouseID)
	require.Equal(t, dest, *posted.DestWarehouseID)
	require.True(t, posted.ResultingBalance.Equal(qty("30")))
}

func TestTransferConservesTotalQuantity(t *testing.T) {
	svc, repo, _ := newTestService()
	source, dest, product := id.New(), id.New(), id.New()
	_, err := repo.AddRowQuantity(context.Background(), source, product, nil, qty("100"))
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := svc.Transfer(context.Background(), TransferInput{
			ProductID:         product,
			Quantity:          qty("12.50"),
			SourceWarehouseID: source,
			DestWarehouseID:   dest,
			Actor:             "ana",
		})
		require.NoError(t, err)
	}

	total := repo.quantity(source, product, nil).Add(repo.quantity(dest, product, nil))
	require.True(t, total.Equal(qty("100")))
}

func TestTransferRejectsSameWarehouse(t *testing.T) {
	svc, _, _ := newTestService()
	warehouse, product := id.New(), id.New()

	_, err := svc.Transfer(context.Background(), TransferInput{
		ProductID:         product,
		Quantity:          qty("10"),
		SourceWarehouseID: warehouse,
		DestWarehouseID:   warehouse,
		Actor:             "ana",
	})
	require.True(t, apperror.IsCode(err, apperror.CodeSameWarehouse))
}

func TestTransferInsufficientSourcePostsNothing(t *testing.T) {
	svc, repo, _ := newTestService()
	source, dest, product := id.New(), id.New(), id.New()
	_, err := repo.AddRowQuantity(context.Background(), source, product, nil, qty("5"))
	require.NoError(t, err)

	_, err = svc.Transfer(context.Background(), TransferInput{
		ProductID:         product,
		Quantity:          qty("10"),
		SourceWarehouseID: source,
		DestWarehouseID:   dest,
		Actor:             "ana",
	})
	require.True(t, apperror.IsCode(err, apperror.CodeInsufficientStock))
	require.True(t, repo.quantity(dest, product, nil).IsZero())
	require.Empty(t, repo.entries)
}

// --- Correct ---

func postPurchase(t *testing.T, svc *Service, warehouse, product id.ID, amount string) entity.MovementEntry {
	t.Helper()
	docRef := "FAC-001"
	posted, err := svc.RecordMovement(context.Background(), MovementInput{
		Kind:            entity.KindPurchase,
		ProductID:       product,
		DestWarehouseID: &warehouse,
		Quantity:        qty(amount),
		DocRef:          &docRef,
		Actor:           "ana",
	})
	require.NoError(t, err)
	return posted
}

func TestCorrectQuantityAdjustsRowAndWritesAudit(t *testing.T) {
	svc, repo, snaps := newTestService()
	warehouse, product := id.New(), id.New()
	posted := postPurchase(t, svc, warehouse, product, "100")

	newQty := qty("90")
	corrected, err := svc.Correct(context.Background(), CorrectInput{
		EntryID:  posted.ID,
		Quantity: &newQty,
		Reason:   "supplier delivered ten kilos short",
		Actor:    "bruno",
	})
	require.NoError(t, err)

	require.True(t, repo.quantity(warehouse, product, nil).Equal(qty("90")))
	require.True(t, corrected.Quantity.Equal(qty("90")))
	require.True(t, corrected.ResultingBalance.Equal(qty("90")))
	require.True(t, corrected.Edited)
	require.NotNil(t, corrected.LastEditedAt)

	// Pre-correction snapshot holds the original figures.
	require.Len(t, snaps.written, 1)
	require.True(t, snaps.written[0].Quantity.Equal(qty("100")))

	trail, err := svc.AuditTrail(context.Background(), posted.ID)
	require.NoError(t, err)
	require.Len(t, trail, 1)
	require.Equal(t, entity.AuditFieldQuantity, trail[0].Field)
	require.Equal(t, "100", trail[0].OldValue)
	require.Equal(t, "90", trail[0].NewValue)
	require.Equal(t, "bruno", trail[0].Actor)
}

func TestCorrectDocRefOnly(t *testing.T) {
	svc, repo, _ := newTestService()
	warehouse, product := id.New(), id.New()
	posted := postPurchase(t, svc, warehouse, product, "100")

	newRef := "FAC-002"
	corrected, err := svc.Correct(context.Background(), CorrectInput{
		EntryID: posted.ID,
		DocRef:  &newRef,
		Reason:  "invoice number was mistyped",
		Actor:   "bruno",
	})
	require.NoError(t, err)

	require.Equal(t, "FAC-002", *corrected.DocRef)
	// Quantity untouched.
	require.True(t, repo.quantity(warehouse, product, nil).Equal(qty("100")))

	trail, err := svc.AuditTrail(context.Background(), posted.ID)
	require.NoError(t, err)
	require.Len(t, trail, 1)
	require.Equal(t, entity.AuditFieldDocRef, trail[0].Field)
	require.Equal(t, "FAC-001", trail[0].OldValue)
	require.Equal(t, "FAC-002", trail[0].NewValue)
}

func TestCorrectRejectsShortReason(t *testing.T) {
	svc, _, _ := newTestService()
	warehouse, product := id.New(), id.New()
	posted := postPurchase(t, svc, warehouse, product, "100")

	newQty := qty("90")
	_, err := svc.Correct(context.Background(), CorrectInput{
		EntryID:  posted.ID,
		Quantity: &newQty,
		Reason:   "typo",
		Actor:    "bruno",
	})
	require.True(t, apperror.IsCode(err, apperror.CodeReasonTooShort))
}

func TestCorrectRejectsNonPurchaseEntries(t *testing.T) {
	svc, repo, _ := newTestService()
	warehouse, product := id.New(), id.New()
	_, err := repo.AddRowQuantity(context.Background(), warehouse, product, nil, qty("50"))
	require.NoError(t, err)

	sale, err := svc.RecordMovement(context.Background(), MovementInput{
		Kind:              entity.KindSale,
		ProductID:         product,
		SourceWarehouseID: &warehouse,
		Quantity:          qty("10"),
		Actor:             "ana",
	})
	require.NoError(t, err)

	newQty := qty("5")
	_, err = svc.Correct(context.Background(), CorrectInput{
		EntryID:  sale.ID,
		Quantity: &newQty,
		Reason:   "we sold less than registered",
		Actor:    "bruno",
	})
	require.True(t, apperror.IsCode(err, apperror.CodeNotEditable))
}

func TestCorrectWouldUnderflow(t *testing.T) {
	svc, repo, _ := newTestService()
	warehouse, product := id.New(), id.New()
	posted := postPurchase(t, svc, warehouse, product, "100")

	// Downstream consumption leaves 20 on hand.
	_, err := svc.RecordMovement(context.Background(), MovementInput{
		Kind:              entity.KindSale,
		ProductID:         product,
		SourceWarehouseID: &warehouse,
		Quantity:          qty("80"),
		Actor:             "ana",
	})
	require.NoError(t, err)

	// Correcting the purchase down to 10 would drive the row to -70.
	newQty := qty("10")
	_, err = svc.Correct(context.Background(), CorrectInput{
		EntryID:  posted.ID,
		Quantity: &newQty,
		Reason:   "received far less than invoiced",
		Actor:    "bruno",
	})
	require.True(t, apperror.IsCode(err, apperror.CodeWouldUnderflow))
	require.True(t, repo.quantity(warehouse, product, nil).Equal(qty("20")))
}

func TestCorrectNoChangesRejected(t *testing.T) {
	svc, _, _ := newTestService()
	warehouse, product := id.New(), id.New()
	posted := postPurchase(t, svc, warehouse, product, "100")

	_, err := svc.Correct(context.Background(), CorrectInput{
		EntryID: posted.ID,
		Reason:  "nothing actually changed here",
		Actor:   "bruno",
	})
	require.True(t, apperror.IsCode(err, apperror.CodeValidation))
}

// --- Kardex ---

func TestKardexReplaysRunningBalance(t *testing.T) {
	svc, _, _ := newTestService()
	w1, w2, product := id.New(), id.New(), id.New()

	postPurchase(t, svc, w1, product, "100")
	_, err := svc.Transfer(context.Background(), TransferInput{
		ProductID:         product,
		Quantity:          qty("30"),
		SourceWarehouseID: w1,
		DestWarehouseID:   w2,
		Actor:             "ana",
	})
	require.NoError(t, err)

	// Source view: entrance 100, then exit 30.
	lines, err := svc.Kardex(context.Background(), w1, product)
	require.NoError(t, err)
	require.Len(t, lines, 2)
	require.NotNil(t, lines[0].Entrance)
	require.True(t, lines[0].Entrance.Equal(qty("100")))
	require.True(t, lines[0].Balance.Equal(qty("100")))
	require.NotNil(t, lines[1].Exit)
	require.True(t, lines[1].Exit.Equal(qty("30")))
	require.True(t, lines[1].Balance.Equal(qty("70")))

	// Destination view of the same transfer entry: entrance 30.
	lines, err = svc.Kardex(context.Background(), w2, product)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	require.NotNil(t, lines[0].Entrance)
	require.True(t, lines[0].Balance.Equal(qty("30")))
}

func TestKardexIgnoresStoredBalancesAfterCorrection(t *testing.T) {
	svc, _, _ := newTestService()
	warehouse, product := id.New(), id.New()
	posted := postPurchase(t, svc, warehouse, product, "100")

	newQty := qty("90")
	_, err := svc.Correct(context.Background(), CorrectInput{
		EntryID:  posted.ID,
		Quantity: &newQty,
		Reason:   "supplier delivered ten kilos short",
		Actor:    "bruno",
	})
	require.NoError(t, err)

	lines, err := svc.Kardex(context.Background(), warehouse, product)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	// Replay uses the corrected quantity.
	require.True(t, lines[0].Balance.Equal(qty("90")))
}

// --- Reports ---

func TestLowStockReportsShortfall(t *testing.T) {
	svc, repo, _ := newTestService()
	repo.alerts = []LowStockAlert{
		{
			WarehouseID: id.New(),
			Warehouse:   "Planta",
			ProductID:   id.New(),
			ProductCode: "TEL-001",
			Product:     "Jersey 30/1",
			Quantity:    qty("12"),
			MinStock:    qty("50"),
			Shortfall:   qty("38"),
		},
	}

	alerts, err := svc.LowStock(context.Background())
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	require.True(t, alerts[0].Shortfall.Equal(alerts[0].MinStock.Sub(alerts[0].Quantity)))
}

func TestAuditTrailListsCorrectionHistory(t *testing.T) {
	svc, _, _ := newTestService()
	warehouse, product := id.New(), id.New()
	posted := postPurchase(t, svc, warehouse, product, "100")

	first := qty("90")
	_, err := svc.Correct(context.Background(), CorrectInput{
		EntryID:  posted.ID,
		Quantity: &first,
		Reason:   "supplier delivered ten kilos short",
		Actor:    "bruno",
	})
	require.NoError(t, err)

	ref := "FAC-001-R"
	_, err = svc.Correct(context.Background(), CorrectInput{
		EntryID: posted.ID,
		DocRef:  &ref,
		Reason:  "re-issued invoice replaces the original",
		Actor:   "bruno",
	})
	require.NoError(t, err)

	trail, err := svc.AuditTrail(context.Background(), posted.ID)
	require.NoError(t, err)
	require.Len(t, trail, 2)
	for _, a := range trail {
		require.Equal(t, posted.ID, a.MovementID)
		require.Equal(t, "bruno", a.Actor)
	}

	// Newest first: the doc_ref correction came after the quantity one.
	require.Equal(t, entity.AuditFieldDocRef, trail[0].Field)
	require.Equal(t, entity.AuditFieldQuantity, trail[1].Field)

	other, err := svc.AuditTrail(context.Background(), id.New())
	require.NoError(t, err)
	require.Empty(t, other)
}
