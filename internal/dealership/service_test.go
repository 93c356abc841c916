package dealership

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/AutoLedger/AutoLedger/internal/common/logger"
	"github.com/AutoLedger/AutoLedger/internal/xmldoc"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	dir := t.TempDir()
	store := NewStore(filepath.Join(dir, "dealership.xml"), xmldoc.DurabilityDirect)
	ledger := NewLedger(filepath.Join(dir, "sales.xml"), xmldoc.DurabilityDirect)
	log, err := logger.NewLogger("logrus", "error", "text", "stdout", "")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	return NewService(store, ledger, log)
}

func testSaleRequest(carID string) SaleRequest {
	return SaleRequest{
		CarID:         carID,
		CustomerID:    "cust-7",
		SalesmanID:    "sales-3",
		Price:         decimal.RequireFromString("18500.00"),
		PaymentMethod: PaymentCash,
	}
}

func TestSellMovesCarToLedger(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	if err := svc.AddCar(ctx, testCar("VIN-1")); err != nil {
		t.Fatalf("add: %v", err)
	}

	saleID, err := svc.Sell(ctx, testSaleRequest("VIN-1"))
	if err != nil {
		t.Fatalf("sell: %v", err)
	}
	if saleID == "" {
		t.Fatal("sale id must not be empty")
	}

	if _, err := svc.GetCar(ctx, "VIN-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("car should be gone from inventory, got %v", err)
	}

	sale, err := svc.GetSale(ctx, saleID)
	if err != nil {
		t.Fatalf("get sale: %v", err)
	}
	if sale.CarID != "VIN-1" || sale.CustomerID != "cust-7" || sale.PaymentMethod != PaymentCash {
		t.Fatalf("unexpected sale: %+v", sale)
	}
	if sale.Car == nil || sale.Car.Brand != "Toyota" || sale.Car.Horsepower != 139 {
		t.Fatalf("car snapshot not embedded: %+v", sale.Car)
	}
	if sale.DateTime.Location() != time.UTC {
		t.Fatalf("sale timestamp must be UTC, got %v", sale.DateTime.Location())
	}
}

func TestSellUnknownCar(t *testing.T) {
	svc := newTestService(t)
	if _, err := svc.Sell(context.Background(), testSaleRequest("VIN-404")); !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestSellValidatesRequest(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	req := testSaleRequest("VIN-1")
	req.CustomerID = " "
	if _, err := svc.Sell(ctx, req); !errors.Is(err, ErrValidation) {
		t.Fatalf("blank customer: got %v, want ErrValidation", err)
	}

	req = testSaleRequest("VIN-1")
	req.PaymentMethod = PaymentMethod("Barter")
	if _, err := svc.Sell(ctx, req); !errors.Is(err, ErrValidation) {
		t.Fatalf("bad payment method: got %v, want ErrValidation", err)
	}
}

func TestRevertWithinWindow(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	if err := svc.AddCar(ctx, testCar("VIN-1")); err != nil {
		t.Fatalf("add: %v", err)
	}
	saleID, err := svc.Sell(ctx, testSaleRequest("VIN-1"))
	if err != nil {
		t.Fatalf("sell: %v", err)
	}

	if err := svc.Revert(ctx, saleID); err != nil {
		t.Fatalf("revert: %v", err)
	}

	car, err := svc.GetCar(ctx, "VIN-1")
	if err != nil {
		t.Fatalf("car should be back in inventory: %v", err)
	}
	if car.Brand != "Toyota" || !car.Price.Value.Equal(decimal.RequireFromString("19999.99")) {
		t.Fatalf("restored car differs from snapshot: %+v", car)
	}
	if _, err := svc.GetSale(ctx, saleID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("sale should be gone, got %v", err)
	}
	// 再撤一次：记录已不存在
	if err := svc.Revert(ctx, saleID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second revert: got %v, want ErrNotFound", err)
	}
}

func TestRevertExpiredWindow(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	if err := svc.AddCar(ctx, testCar("VIN-1")); err != nil {
		t.Fatalf("add: %v", err)
	}
	saleID, err := svc.Sell(ctx, testSaleRequest("VIN-1"))
	if err != nil {
		t.Fatalf("sell: %v", err)
	}

	// 把时钟拨到窗口之外
	svc.now = func() time.Time { return time.Now().Add(RevertWindow + time.Minute) }

	if err := svc.Revert(ctx, saleID); !errors.Is(err, ErrWindowExpired) {
		t.Fatalf("got %v, want ErrWindowExpired", err)
	}
	// 两份文档都不应被触碰
	if _, err := svc.GetCar(ctx, "VIN-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("car must stay out of inventory, got %v", err)
	}
	if _, err := svc.GetSale(ctx, saleID); err != nil {
		t.Fatalf("sale must remain in ledger: %v", err)
	}
}

func TestRevertMissingSnapshot(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	sale := Sale{
		SaleID:        "sale-broken",
		SalesmanID:    "sales-3",
		CustomerID:    "cust-7",
		CarID:         "VIN-1",
		DateTime:      time.Now().UTC(),
		PaymentMethod: PaymentCash,
		Price:         decimal.NewFromInt(100),
	}
	if err := svc.ledger.Append(sale); err != nil {
		t.Fatalf("append: %v", err)
	}

	if err := svc.Revert(ctx, "sale-broken"); !errors.Is(err, ErrDataCorruption) {
		t.Fatalf("got %v, want ErrDataCorruption", err)
	}
}

func TestRevertConflictsWithReaddedCar(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	if err := svc.AddCar(ctx, testCar("VIN-1")); err != nil {
		t.Fatalf("add: %v", err)
	}
	saleID, err := svc.Sell(ctx, testSaleRequest("VIN-1"))
	if err != nil {
		t.Fatalf("sell: %v", err)
	}
	// 同一标识的车在撤销之前重新入库
	if err := svc.AddCar(ctx, testCar("VIN-1")); err != nil {
		t.Fatalf("re-add: %v", err)
	}

	if err := svc.Revert(ctx, saleID); !errors.Is(err, ErrConflict) {
		t.Fatalf("got %v, want ErrConflict", err)
	}
}

func TestConcurrentSells(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	for _, id := range []string{"VIN-1", "VIN-2"} {
		if err := svc.AddCar(ctx, testCar(id)); err != nil {
			t.Fatalf("add %s: %v", id, err)
		}
	}

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	for _, id := range []string{"VIN-1", "VIN-2"} {
		wg.Add(1)
		go func(carID string) {
			defer wg.Done()
			if _, err := svc.Sell(ctx, testSaleRequest(carID)); err != nil {
				errs <- err
			}
		}(id)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent sell failed: %v", err)
	}

	cars, err := svc.ListCars(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(cars) != 0 {
		t.Fatalf("inventory should be empty, got %d cars", len(cars))
	}
	counts, err := svc.SalesPerCustomer(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if counts["cust-7"] != 2 {
		t.Fatalf("expected 2 sales for cust-7, got %d", counts["cust-7"])
	}
}

func TestSalesPerCustomer(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	for _, id := range []string{"VIN-1", "VIN-2", "VIN-3"} {
		if err := svc.AddCar(ctx, testCar(id)); err != nil {
			t.Fatalf("add %s: %v", id, err)
		}
	}

	sellTo := func(carID, customer string) {
		req := testSaleRequest(carID)
		req.CustomerID = customer
		if _, err := svc.Sell(ctx, req); err != nil {
			t.Fatalf("sell %s: %v", carID, err)
		}
	}
	sellTo("VIN-1", "alice")
	sellTo("VIN-2", "alice")
	sellTo("VIN-3", "bob")

	counts, err := svc.SalesPerCustomer(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if counts["alice"] != 2 || counts["bob"] != 1 {
		t.Fatalf("unexpected counts: %v", counts)
	}
}
