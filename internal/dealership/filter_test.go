package dealership

import (
	"testing"

	"github.com/shopspring/decimal"
)

func strPtr(s string) *string          { return &s }
func intPtr(i int) *int                { return &i }
func boolPtr(b bool) *bool             { return &b }
func decPtr(s string) *decimal.Decimal { d := decimal.RequireFromString(s); return &d }

func TestFilterEmptyMatchesEverything(t *testing.T) {
	car := testCar("VIN-1")
	if !(Filter{}).Matches(&car) {
		t.Fatal("empty filter should match any car")
	}
}

func TestFilterBrandIsCaseInsensitive(t *testing.T) {
	car := testCar("VIN-1")
	if !(Filter{Brand: strPtr("TOYOTA")}).Matches(&car) {
		t.Fatal("brand match should ignore case")
	}
	if (Filter{Brand: strPtr("Honda")}).Matches(&car) {
		t.Fatal("different brand should not match")
	}
}

func TestFilterConjunction(t *testing.T) {
	car := testCar("VIN-1")
	f := Filter{Brand: strPtr("toyota"), Model: strPtr("corolla"), Year: intPtr(2021)}
	if !f.Matches(&car) {
		t.Fatal("all predicates hold, should match")
	}
	f.Year = intPtr(2019)
	if f.Matches(&car) {
		t.Fatal("one failing predicate should reject the car")
	}
}

func TestFilterPriceBoundsAreInclusive(t *testing.T) {
	car := testCar("VIN-1") // 19999.99

	if !(Filter{MinPrice: decPtr("19999.99")}).Matches(&car) {
		t.Fatal("min bound equal to price should match")
	}
	if !(Filter{MaxPrice: decPtr("19999.99")}).Matches(&car) {
		t.Fatal("max bound equal to price should match")
	}
	if (Filter{MinPrice: decPtr("20000")}).Matches(&car) {
		t.Fatal("price below min should not match")
	}
	if (Filter{MaxPrice: decPtr("19999.98")}).Matches(&car) {
		t.Fatal("price above max should not match")
	}
}

func TestFilterHybrid(t *testing.T) {
	petrol := testCar("VIN-1")
	hybrid := testCar("VIN-2")
	hybrid.Engine.Type = EngineTypeHybrid

	if (Filter{IsHybrid: boolPtr(true)}).Matches(&petrol) {
		t.Fatal("petrol car should not match hybrid=true")
	}
	if !(Filter{IsHybrid: boolPtr(true)}).Matches(&hybrid) {
		t.Fatal("hybrid car should match hybrid=true")
	}
	if !(Filter{IsHybrid: boolPtr(false)}).Matches(&petrol) {
		t.Fatal("petrol car should match hybrid=false")
	}
	if (Filter{IsHybrid: boolPtr(false)}).Matches(&hybrid) {
		t.Fatal("hybrid car should not match hybrid=false")
	}
}

func TestStoreSearch(t *testing.T) {
	store := newTestStore(t)
	a := testCar("VIN-1")
	b := testCar("VIN-2")
	b.Brand = "Honda"
	b.Model = "Civic"
	for _, c := range []Car{a, b} {
		if err := store.Add(c); err != nil {
			t.Fatalf("add %s: %v", c.ID, err)
		}
	}

	got, err := store.Search(Filter{Brand: strPtr("honda")})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(got) != 1 || got[0].ID != "VIN-2" {
		t.Fatalf("unexpected search result: %+v", got)
	}

	got, err = store.Search(Filter{})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("empty filter should return all cars, got %d", len(got))
	}
}
