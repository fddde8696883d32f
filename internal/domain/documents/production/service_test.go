package production

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"texcore/internal/core/apperror"
	"texcore/internal/core/entity"
	"texcore/internal/core/id"
	"texcore/internal/core/types"
	"texcore/internal/domain/catalogs/formula"
	"texcore/internal/domain/registers/stock"
)

// --- In-memory world shared by the stock and production fakes ---
//
// The fake transaction manager snapshots the world before the outermost
// transaction and restores it when fn fails, which lets tests assert that
// multi-step operations leave no partial state behind.

type world struct {
	rows     map[string]*entity.StockRow
	entries  []entity.MovementEntry
	audits   []entity.AuditEntry
	lots     map[id.ID]Lot
	orders   map[id.ID]Order
	supplies map[id.ID]bool // product ids that are packaging supplies
}

func newWorld() *world {
	return &world{
		rows:     make(map[string]*entity.StockRow),
		lots:     make(map[id.ID]Lot),
		orders:   make(map[id.ID]Order),
		supplies: make(map[id.ID]bool),
	}
}

func (w *world) clone() *world {
	c := newWorld()
	for k, v := range w.rows {
		row := *v
		c.rows[k] = &row
	}
	c.entries = append(c.entries, w.entries...)
	c.audits = append(c.audits, w.audits...)
	for k, v := range w.lots {
		c.lots[k] = v
	}
	for k, v := range w.orders {
		c.orders[k] = v
	}
	for k, v := range w.supplies {
		c.supplies[k] = v
	}
	return c
}

func rowKey(warehouseID, productID id.ID, lotID *id.ID) string {
	key := warehouseID.String() + "|" + productID.String() + "|"
	if lotID != nil {
		key += lotID.String()
	}
	return key
}

func (w *world) addStock(warehouseID, productID id.ID, lotID *id.ID, amount types.Quantity) {
	key := rowKey(warehouseID, productID, lotID)
	row, ok := w.rows[key]
	if !ok {
		created := entity.NewStockRow(warehouseID, productID, lotID)
		row = &created
		w.rows[key] = row
	}
	row.Quantity = row.Quantity.Add(amount)
}

func (w *world) quantity(warehouseID, productID id.ID, lotID *id.ID) types.Quantity {
	if row, ok := w.rows[rowKey(warehouseID, productID, lotID)]; ok {
		return row.Quantity
	}
	return types.Zero()
}

// fakeTx restores the world on failure of the outermost transaction.
type fakeTx struct {
	w     *world
	depth int
}

func (m *fakeTx) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	m.depth++
	if m.depth > 1 {
		defer func() { m.depth-- }()
		return fn(ctx)
	}
	snapshot := m.w.clone()
	err := fn(ctx)
	m.depth--
	if err != nil {
		*m.w = *snapshot
	}
	return err
}

func (m *fakeTx) ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// fakeStockRepo implements stock.Repository over the world.
type fakeStockRepo struct{ w *world }

func (r *fakeStockRepo) GetRowForUpdate(_ context.Context, warehouseID, productID id.ID, lotID *id.ID) (entity.StockRow, bool, error) {
	if row, ok := r.w.rows[rowKey(warehouseID, productID, lotID)]; ok {
		return *row, true, nil
	}
	return entity.StockRow{}, false, nil
}

func (r *fakeStockRepo) AddRowQuantity(_ context.Context, warehouseID, productID id.ID, lotID *id.ID, delta types.Quantity) (entity.StockRow, error) {
	r.w.addStock(warehouseID, productID, lotID, delta)
	return *r.w.rows[rowKey(warehouseID, productID, lotID)], nil
}

func (r *fakeStockRepo) SetRowQuantity(_ context.Context, rowID id.ID, qty types.Quantity) error {
	for _, row := range r.w.rows {
		if row.ID == rowID {
			row.Quantity = qty
			return nil
		}
	}
	return apperror.NewNotFound("stock row", rowID.String())
}

func (r *fakeStockRepo) InsertEntries(_ context.Context, entries []entity.MovementEntry) error {
	r.w.entries = append(r.w.entries, entries...)
	return nil
}

func (r *fakeStockRepo) GetEntryForUpdate(_ context.Context, entryID id.ID) (entity.MovementEntry, error) {
	for _, e := range r.w.entries {
		if e.ID == entryID {
			return e, nil
		}
	}
	return entity.MovementEntry{}, apperror.NewNotFound("movement", entryID.String())
}

func (r *fakeStockRepo) UpdateEntry(_ context.Context, e entity.MovementEntry) error {
	for i := range r.w.entries {
		if r.w.entries[i].ID == e.ID {
			r.w.entries[i] = e
			return nil
		}
	}
	return apperror.NewNotFound("movement", e.ID.String())
}

func (r *fakeStockRepo) ListMovements(_ context.Context, warehouseID, productID id.ID) ([]entity.MovementEntry, error) {
	var out []entity.MovementEntry
	for _, e := range r.w.entries {
		if e.ProductID != productID {
			continue
		}
		if (e.SourceWarehouseID != nil && *e.SourceWarehouseID == warehouseID) ||
			(e.DestWarehouseID != nil && *e.DestWarehouseID == warehouseID) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *fakeStockRepo) InsertAuditEntries(_ context.Context, rows []entity.AuditEntry) error {
	r.w.audits = append(r.w.audits, rows...)
	return nil
}

func (r *fakeStockRepo) ListAuditEntries(_ context.Context, movementID id.ID) ([]entity.AuditEntry, error) {
	var out []entity.AuditEntry
	for _, a := range r.w.audits {
		if a.MovementID == movementID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *fakeStockRepo) ListLowStock(_ context.Context) ([]stock.LowStockAlert, error) {
	return nil, nil
}

type noopSnapshots struct{}

func (noopSnapshots) WriteSnapshot(context.Context, entity.MovementEntry) error { return nil }

// fakeProductionRepo implements Repository over the world.
type fakeProductionRepo struct{ w *world }

func (r *fakeProductionRepo) GetOrder(_ context.Context, orderID id.ID) (Order, error) {
	if ord, ok := r.w.orders[orderID]; ok {
		return ord, nil
	}
	return Order{}, apperror.NewNotFound("production order", orderID.String())
}

func (r *fakeProductionRepo) CreateLot(_ context.Context, lot Lot) error {
	for _, existing := range r.w.lots {
		if existing.Code == lot.Code {
			return apperror.NewDuplicate("lot", "code", lot.Code)
		}
	}
	r.w.lots[lot.ID] = lot
	return nil
}

func (r *fakeProductionRepo) GetLot(_ context.Context, lotID id.ID) (Lot, error) {
	if lot, ok := r.w.lots[lotID]; ok {
		return lot, nil
	}
	return Lot{}, apperror.NewNotFound("lot", lotID.String())
}

func (r *fakeProductionRepo) DeleteLot(_ context.Context, lotID id.ID) error {
	if _, ok := r.w.lots[lotID]; !ok {
		return apperror.NewNotFound("lot", lotID.String())
	}
	delete(r.w.lots, lotID)
	return nil
}

func (r *fakeProductionRepo) ListSupplyRows(_ context.Context, warehouseID id.ID) ([]entity.StockRow, error) {
	var out []entity.StockRow
	for _, row := range r.w.rows {
		if row.WarehouseID != warehouseID || !r.w.supplies[row.ProductID] {
			continue
		}
		if row.Quantity.GreaterThanOrEqual(types.One()) {
			out = append(out, *row)
		}
	}
	return out, nil
}

// fakeFormulaRepo implements formula.Repository.
type fakeFormulaRepo struct {
	formulas map[id.ID][]formula.Line
}

func (r *fakeFormulaRepo) GetByID(_ context.Context, formulaID id.ID) (*formula.Formula, error) {
	if _, ok := r.formulas[formulaID]; ok {
		return &formula.Formula{ID: formulaID, Code: "FRM", Name: "test"}, nil
	}
	return nil, apperror.NewNotFound("formula", formulaID.String())
}

func (r *fakeFormulaRepo) Lines(_ context.Context, formulaID id.ID) ([]formula.Line, error) {
	return r.formulas[formulaID], nil
}

// --- Test fixture ---

type fixture struct {
	w        *world
	svc      *Service
	ledger   *stock.Service
	order    Order
	chemical id.ID
	supply   id.ID
}

func qty(s string) types.Quantity { return types.MustQuantity(s) }

// newFixture seeds a dye order for 10 kg of fabric with one chemical dosed
// at 50 g/kg: bulk fabric 100, chemical 5, three label packs on hand.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	w := newWorld()
	txm := &fakeTx{w: w}

	stockRepo := &fakeStockRepo{w: w}
	ledger := stock.NewService(stockRepo, noopSnapshots{}, txm)

	fabric, chemical, supply := id.New(), id.New(), id.New()
	warehouse, formulaID := id.New(), id.New()

	formulas := &fakeFormulaRepo{formulas: map[id.ID][]formula.Line{
		formulaID: {{FormulaID: formulaID, ChemicalProductID: chemical, GramsPerKilo: qty("50")}},
	}}

	ord := Order{
		ID:             id.New(),
		ProductID:      fabric,
		WarehouseID:    warehouse,
		FormulaID:      &formulaID,
		RequiredWeight: qty("10"),
	}
	w.orders[ord.ID] = ord
	w.supplies[supply] = true

	w.addStock(warehouse, fabric, nil, qty("100"))
	w.addStock(warehouse, chemical, nil, qty("5"))
	w.addStock(warehouse, supply, nil, qty("3"))

	svc := NewService(&fakeProductionRepo{w: w}, formulas, ledger, txm)
	return &fixture{w: w, svc: svc, ledger: ledger, order: ord, chemical: chemical, supply: supply}
}

func (f *fixture) register(t *testing.T, code string, net string) (Lot, []WeightWarning) {
	t.Helper()
	lot, warnings, err := f.svc.Register(context.Background(), RegisterInput{
		OrderID:   f.order.ID,
		LotCode:   code,
		NetWeight: qty(net),
		Machine:   "RAMA-2",
		Shift:     "night",
		StartedAt: time.Now().Add(-2 * time.Hour),
		EndedAt:   time.Now(),
		Actor:     "carla",
	})
	require.NoError(t, err)
	return lot, warnings
}

// --- Register ---

func TestRegisterConsumesInputsAndCreditsLot(t *testing.T) {
	f := newFixture(t)
	warehouse, fabric := f.order.WarehouseID, f.order.ProductID

	lot, warnings := f.register(t, "L-001", "10")
	require.Empty(t, warnings)

	// Raw material by output weight.
	require.True(t, f.w.quantity(warehouse, fabric, nil).Equal(qty("90")))
	// Chemical at 50 g/kg over 10 kg: 0.5 kg.
	require.True(t, f.w.quantity(warehouse, f.chemical, nil).Equal(qty("4.5")))
	// One label pack.
	require.True(t, f.w.quantity(warehouse, f.supply, nil).Equal(qty("2")))
	// Output pinned to the lot, not the bulk row.
	require.True(t, f.w.quantity(warehouse, fabric, &lot.ID).Equal(qty("10")))

	require.Equal(t, "L-001", lot.Code)
	require.Equal(t, "carla", lot.Operator)
	require.True(t, lot.NetWeight.Equal(qty("10")))

	// Consumption x3 plus the production-in credit.
	require.Len(t, f.w.entries, 4)
}

func TestRegisterWithoutFormula(t *testing.T) {
	f := newFixture(t)
	warehouse, fabric := f.order.WarehouseID, f.order.ProductID

	// No recipe on the order and no supplies on hand: only the raw debit
	// and the output credit are posted.
	plain := Order{
		ID:             id.New(),
		ProductID:      fabric,
		WarehouseID:    warehouse,
		RequiredWeight: qty("10"),
	}
	f.w.orders[plain.ID] = plain
	f.w.rows[rowKey(warehouse, f.supply, nil)].Quantity = qty("0")

	lot, warnings, err := f.svc.Register(context.Background(), RegisterInput{
		OrderID:   plain.ID,
		LotCode:   "L-010",
		NetWeight: qty("10"),
		Actor:     "carla",
	})
	require.NoError(t, err)
	require.Empty(t, warnings)

	require.True(t, f.w.quantity(warehouse, fabric, nil).Equal(qty("90")))
	require.True(t, f.w.quantity(warehouse, f.chemical, nil).Equal(qty("5")))
	require.True(t, f.w.quantity(warehouse, fabric, &lot.ID).Equal(qty("10")))
	require.Len(t, f.w.entries, 2)
}

func TestRegisterSkipsSuppliesUnderOneUnit(t *testing.T) {
	f := newFixture(t)
	warehouse := f.order.WarehouseID

	// Drain the supply row below a unit.
	f.w.rows[rowKey(warehouse, f.supply, nil)].Quantity = qty("0.4")

	f.register(t, "L-002", "10")
	require.True(t, f.w.quantity(warehouse, f.supply, nil).Equal(qty("0.4")))
}

func TestRegisterInsufficientChemicalRollsBackEverything(t *testing.T) {
	f := newFixture(t)
	warehouse, fabric := f.order.WarehouseID, f.order.ProductID

	// 0.1 kg on hand, 0.5 required.
	f.w.rows[rowKey(warehouse, f.chemical, nil)].Quantity = qty("0.1")

	_, _, err := f.svc.Register(context.Background(), RegisterInput{
		OrderID:   f.order.ID,
		LotCode:   "L-003",
		NetWeight: qty("10"),
		Actor:     "carla",
	})
	require.True(t, apperror.IsCode(err, apperror.CodeInsufficientStock))

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	require.Equal(t, f.chemical.String(), appErr.Details["chemical_product_id"])

	// No partial consumption survives the failure.
	require.True(t, f.w.quantity(warehouse, fabric, nil).Equal(qty("100")))
	require.True(t, f.w.quantity(warehouse, f.chemical, nil).Equal(qty("0.1")))
	require.Empty(t, f.w.lots)
	require.Empty(t, f.w.entries)
}

func TestRegisterDuplicateLotCodeRollsBack(t *testing.T) {
	f := newFixture(t)
	warehouse, fabric := f.order.WarehouseID, f.order.ProductID
	f.register(t, "L-004", "10")

	_, _, err := f.svc.Register(context.Background(), RegisterInput{
		OrderID:   f.order.ID,
		LotCode:   "L-004",
		NetWeight: qty("10"),
		Actor:     "carla",
	})
	require.True(t, apperror.IsCode(err, apperror.CodeDuplicate))

	// State is exactly the post-first-registration state.
	require.True(t, f.w.quantity(warehouse, fabric, nil).Equal(qty("90")))
	require.Len(t, f.w.lots, 1)
}

func TestRegisterValidation(t *testing.T) {
	f := newFixture(t)

	_, _, err := f.svc.Register(context.Background(), RegisterInput{
		OrderID: f.order.ID, LotCode: "  ", NetWeight: qty("10"), Actor: "carla",
	})
	require.True(t, apperror.IsCode(err, apperror.CodeValidation))

	_, _, err = f.svc.Register(context.Background(), RegisterInput{
		OrderID: f.order.ID, LotCode: "L-005", NetWeight: qty("0"), Actor: "carla",
	})
	require.True(t, apperror.IsCode(err, apperror.CodeValidation))
}

func TestRegisterWeightWarningsDoNotBlock(t *testing.T) {
	f := newFixture(t)

	gross, tare := qty("11"), qty("0.5")
	lot, warnings, err := f.svc.Register(context.Background(), RegisterInput{
		OrderID:     f.order.ID,
		LotCode:     "L-006",
		NetWeight:   qty("9"), // gross-tare says 10.5; required weight 10 deviates >5%
		GrossWeight: &gross,
		TareWeight:  &tare,
		Actor:       "carla",
	})
	require.NoError(t, err)
	require.Equal(t, "L-006", lot.Code)

	codes := make([]string, 0, len(warnings))
	for _, w := range warnings {
		codes = append(codes, w.Code)
	}
	require.Contains(t, codes, WarnNetTareMismatch)
	require.Contains(t, codes, WarnWeightDeviation)
}

// --- Reject ---

func TestRejectRestoresStockAndDeletesLot(t *testing.T) {
	f := newFixture(t)
	warehouse, fabric := f.order.WarehouseID, f.order.ProductID
	lot, _ := f.register(t, "L-007", "10")

	err := f.svc.Reject(context.Background(), lot.ID, "dora")
	require.NoError(t, err)

	// Raw material and chemical return to the bulk rows.
	require.True(t, f.w.quantity(warehouse, fabric, nil).Equal(qty("100")))
	require.True(t, f.w.quantity(warehouse, f.chemical, nil).Equal(qty("5")))
	// The lot row is emptied and the lot destroyed.
	require.True(t, f.w.quantity(warehouse, fabric, &lot.ID).IsZero())
	require.Empty(t, f.w.lots)
	// Supplies are not returned; a consumed label pack stays consumed.
	require.True(t, f.w.quantity(warehouse, f.supply, nil).Equal(qty("2")))
}

func TestRejectFailsWhenOutputAlreadyMoved(t *testing.T) {
	f := newFixture(t)
	warehouse, fabric := f.order.WarehouseID, f.order.ProductID
	lot, _ := f.register(t, "L-008", "10")

	// The lot's output was sold in the meantime.
	_, err := f.ledger.RecordMovement(context.Background(), stock.MovementInput{
		Kind:              entity.KindSale,
		ProductID:         fabric,
		LotID:             &lot.ID,
		SourceWarehouseID: &warehouse,
		Quantity:          qty("6"),
		Actor:             "dora",
	})
	require.NoError(t, err)

	err = f.svc.Reject(context.Background(), lot.ID, "dora")
	require.True(t, apperror.IsCode(err, apperror.CodeNothingToReverse))

	// Rejection rolled back wholesale: lot survives, nothing restored.
	require.Len(t, f.w.lots, 1)
	require.True(t, f.w.quantity(warehouse, fabric, nil).Equal(qty("90")))
	require.True(t, f.w.quantity(warehouse, fabric, &lot.ID).Equal(qty("4")))
}

func TestRejectUnknownLot(t *testing.T) {
	f := newFixture(t)
	err := f.svc.Reject(context.Background(), id.New(), "dora")
	require.True(t, apperror.IsNotFound(err))
}
