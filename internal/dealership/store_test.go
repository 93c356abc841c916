package dealership

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/AutoLedger/AutoLedger/internal/xmldoc"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(filepath.Join(t.TempDir(), "dealership.xml"), xmldoc.DurabilityDirect)
}

func testCar(id string) Car {
	return Car{
		ID:         id,
		Brand:      "Toyota",
		Model:      "Corolla",
		Year:       2021,
		Price:      Price{Currency: "USD", Value: decimal.RequireFromString("19999.99")},
		Engine:     Engine{Type: "petrol", Description: "1.8L I4"},
		Horsepower: 139,
	}
}

func TestStoreAddAndGet(t *testing.T) {
	store := newTestStore(t)
	want := testCar("VIN-1")

	if err := store.Add(want); err != nil {
		t.Fatalf("add: %v", err)
	}
	got, err := store.GetByID("VIN-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Brand != want.Brand || got.Model != want.Model || got.Year != want.Year {
		t.Fatalf("got %+v, want %+v", got, want)
	}
	if !got.Price.Value.Equal(want.Price.Value) || got.Price.Currency != "USD" {
		t.Fatalf("price not preserved: %+v", got.Price)
	}
	if got.Engine.Type != "petrol" || got.Engine.Description != "1.8L I4" {
		t.Fatalf("engine not preserved: %+v", got.Engine)
	}
}

func TestStoreMissingDocumentIsEmpty(t *testing.T) {
	store := newTestStore(t)
	cars, err := store.GetAll()
	if err != nil {
		t.Fatalf("get all: %v", err)
	}
	if len(cars) != 0 {
		t.Fatalf("expected empty inventory, got %d cars", len(cars))
	}
}

func TestStoreAddRejectsBlankFields(t *testing.T) {
	store := newTestStore(t)

	car := testCar("  ")
	if err := store.Add(car); !errors.Is(err, ErrValidation) {
		t.Fatalf("blank id: got %v, want ErrValidation", err)
	}
	car = testCar("VIN-1")
	car.Brand = ""
	if err := store.Add(car); !errors.Is(err, ErrValidation) {
		t.Fatalf("blank brand: got %v, want ErrValidation", err)
	}
}

func TestStoreAddRejectsDuplicateID(t *testing.T) {
	store := newTestStore(t)
	if err := store.Add(testCar("VIN-1")); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := store.Add(testCar("VIN-1")); !errors.Is(err, ErrConflict) {
		t.Fatalf("got %v, want ErrConflict", err)
	}
}

func TestStoreAddDefaultsCurrency(t *testing.T) {
	store := newTestStore(t)
	car := testCar("VIN-1")
	car.Price.Currency = ""

	if err := store.Add(car); err != nil {
		t.Fatalf("add: %v", err)
	}
	got, err := store.GetByID("VIN-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Price.Currency != DefaultCurrency {
		t.Fatalf("currency = %q, want %q", got.Price.Currency, DefaultCurrency)
	}
}

func TestStoreUpdatePricePreservesCurrency(t *testing.T) {
	store := newTestStore(t)
	car := testCar("VIN-1")
	car.Price.Currency = "EUR"
	if err := store.Add(car); err != nil {
		t.Fatalf("add: %v", err)
	}

	if err := store.UpdatePrice("VIN-1", decimal.RequireFromString("15000")); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err := store.GetByID("VIN-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.Price.Value.Equal(decimal.RequireFromString("15000")) {
		t.Fatalf("value = %s, want 15000", got.Price.Value)
	}
	if got.Price.Currency != "EUR" {
		t.Fatalf("currency = %q, want EUR", got.Price.Currency)
	}

	if err := store.UpdatePrice("VIN-404", decimal.NewFromInt(1)); !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestStoreDelete(t *testing.T) {
	store := newTestStore(t)
	if err := store.Add(testCar("VIN-1")); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := store.Delete("VIN-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.GetByID("VIN-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
	if err := store.Delete("VIN-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete: got %v, want ErrNotFound", err)
	}
}

func TestStoreCorruptDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dealership.xml")
	if err := os.WriteFile(path, []byte("<dealership><cars>"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	store := NewStore(path, xmldoc.DurabilityDirect)

	if _, err := store.GetAll(); !errors.Is(err, ErrDataCorruption) {
		t.Fatalf("got %v, want ErrDataCorruption", err)
	}
	if err := store.Add(testCar("VIN-1")); !errors.Is(err, ErrDataCorruption) {
		t.Fatalf("add on corrupt doc: got %v, want ErrDataCorruption", err)
	}
}
