package redemption_test

import (
	"errors"
	"math"
	"strings"
	"testing"

	"ownerportal/internal/domain/redemption"
	"ownerportal/internal/domain/reward"
)

func testCatalog() reward.Catalog {
	return reward.NewCatalog([]reward.CatalogItem{
		{SKU: "A", Name: "Levelling ramps", Points: 10, MaxPerOrder: 5},
		{SKU: "FIT", Name: "Solar panel", Points: 25, MaxPerOrder: 1, RequiresFitting: true},
		{SKU: "C", Name: "Sticker pack", Points: 0.5},
	})
}

// TestAdvance_BlockedConditions verifies step 1 -> 2 is blocked iff the
// total is zero or exceeds the available points.
func TestAdvance_BlockedConditions(t *testing.T) {
	cat := testCatalog()

	t.Run("empty basket", func(t *testing.T) {
		st := redemption.New()
		if err := st.Advance(cat, 100); !errors.Is(err, redemption.ErrEmptyBasket) {
			t.Errorf("Advance = %v, want ErrEmptyBasket", err)
		}
		if st.Step != redemption.StepCatalog {
			t.Errorf("step = %d, want 1", st.Step)
		}
	})

	t.Run("total exceeds points", func(t *testing.T) {
		st := redemption.New()
		st.AddItem(cat, "A", 3) // 30
		if err := st.Advance(cat, 20); !errors.Is(err, redemption.ErrExceedsPoints) {
			t.Errorf("Advance = %v, want ErrExceedsPoints", err)
		}
		if st.Step != redemption.StepCatalog {
			t.Errorf("step = %d, want 1", st.Step)
		}
	})

	t.Run("total within points", func(t *testing.T) {
		st := redemption.New()
		st.AddItem(cat, "A", 2) // 20
		if err := st.Advance(cat, 20); err != nil {
			t.Fatalf("Advance returned error: %v", err)
		}
		if st.Step != redemption.StepDetails {
			t.Errorf("step = %d, want 2", st.Step)
		}
	})
}

// TestSubmitDetails_AddressRequired verifies a delivery-only basket with an
// incomplete address is rejected without a state transition.
func TestSubmitDetails_AddressRequired(t *testing.T) {
	cat := testCatalog()
	st := redemption.New()
	st.AddItem(cat, "A", 1)
	if err := st.Advance(cat, 100); err != nil {
		t.Fatalf("Advance: %v", err)
	}

	err := st.SubmitDetails(cat, redemption.Details{
		Shipping: redemption.Shipping{Line1: "1 Road", Postcode: "AB1 2CD"}, // town missing
	})
	if !errors.Is(err, redemption.ErrAddressRequired) {
		t.Errorf("SubmitDetails = %v, want ErrAddressRequired", err)
	}
	if st.Step != redemption.StepDetails {
		t.Errorf("step = %d, want 2 (no transition on failure)", st.Step)
	}
	if st.Shipping.Line1 != "" {
		t.Error("invalid details must not be partially saved")
	}
}

// TestSubmitDetails_ChassisRequired verifies a fitting-only basket with an
// empty chassis number is rejected with the chassis error.
func TestSubmitDetails_ChassisRequired(t *testing.T) {
	cat := testCatalog()
	st := redemption.New()
	st.AddItem(cat, "FIT", 1)
	if err := st.Advance(cat, 100); err != nil {
		t.Fatalf("Advance: %v", err)
	}

	err := st.SubmitDetails(cat, redemption.Details{ChassisNumber: "   "})
	if !errors.Is(err, redemption.ErrChassisRequired) {
		t.Errorf("SubmitDetails = %v, want ErrChassisRequired", err)
	}
	if !strings.Contains(err.Error(), "chassis number") {
		t.Errorf("error message %q should mention the chassis number", err.Error())
	}
	if st.Step != redemption.StepDetails {
		t.Errorf("step = %d, want 2", st.Step)
	}
}

// TestSubmitDetails_AddressCheckedBeforeChassis verifies validation order for
// a mixed basket missing both the address and the chassis number.
func TestSubmitDetails_AddressCheckedBeforeChassis(t *testing.T) {
	cat := testCatalog()
	st := redemption.New()
	st.AddItem(cat, "A", 1)
	st.AddItem(cat, "FIT", 1)
	if err := st.Advance(cat, 100); err != nil {
		t.Fatalf("Advance: %v", err)
	}

	err := st.SubmitDetails(cat, redemption.Details{})
	if !errors.Is(err, redemption.ErrAddressRequired) {
		t.Errorf("SubmitDetails = %v, want address error first", err)
	}
}

// TestSubmitDetails_CollectAtFitting verifies the flag is honored only when
// both a delivery and a fitting item are present.
func TestSubmitDetails_CollectAtFitting(t *testing.T) {
	cat := testCatalog()

	t.Run("mixed basket skips address", func(t *testing.T) {
		st := redemption.New()
		st.AddItem(cat, "A", 1)
		st.AddItem(cat, "FIT", 1)
		st.Advance(cat, 100)

		err := st.SubmitDetails(cat, redemption.Details{
			CollectAtFitting: true,
			ChassisNumber:    "GP-12345",
		})
		if err != nil {
			t.Fatalf("SubmitDetails: %v", err)
		}
		if !st.CollectAtFitting {
			t.Error("CollectAtFitting should be persisted for a mixed basket")
		}
	})

	t.Run("delivery-only basket requires address despite flag", func(t *testing.T) {
		st := redemption.New()
		st.AddItem(cat, "A", 1)
		st.Advance(cat, 100)

		err := st.SubmitDetails(cat, redemption.Details{CollectAtFitting: true})
		if !errors.Is(err, redemption.ErrAddressRequired) {
			t.Errorf("SubmitDetails = %v, want ErrAddressRequired (flag has no effect)", err)
		}
	})

	t.Run("flag dropped when fitting item is removed", func(t *testing.T) {
		st := redemption.New()
		st.AddItem(cat, "A", 1)
		st.AddItem(cat, "FIT", 1)
		st.Advance(cat, 100)
		st.SubmitDetails(cat, redemption.Details{CollectAtFitting: true, ChassisNumber: "GP-12345"})

		// Go back to step 1 and drop the fitting item.
		st.Back()
		st.Back()
		if err := st.SetItemQty(cat, "FIT", 0); err != nil {
			t.Fatalf("SetItemQty: %v", err)
		}
		st.Advance(cat, 100)

		err := st.SubmitDetails(cat, redemption.Details{CollectAtFitting: true})
		if !errors.Is(err, redemption.ErrAddressRequired) {
			t.Errorf("SubmitDetails = %v, want ErrAddressRequired after losing fitting item", err)
		}
	})
}

// TestBuildOrder_PayloadInvariants verifies the shipping/workshop nullability
// rules of the submission payload.
func TestBuildOrder_PayloadInvariants(t *testing.T) {
	cat := testCatalog()

	t.Run("fitting only", func(t *testing.T) {
		st := redemption.New()
		st.AddItem(cat, "FIT", 1)
		st.Advance(cat, 100)
		if err := st.SubmitDetails(cat, redemption.Details{ChassisNumber: "GP-1", PreferredDateISO: "2026-09-14"}); err != nil {
			t.Fatalf("SubmitDetails: %v", err)
		}

		order := st.BuildOrder(cat)
		if order.Shipping != nil {
			t.Error("shipping must be nil when there is no delivery item")
		}
		if order.Workshop == nil {
			t.Fatal("workshop must be present for a fitting item")
		}
		if order.Workshop.ChassisNumber != "GP-1" {
			t.Errorf("chassis = %q, want GP-1", order.Workshop.ChassisNumber)
		}
		if order.Workshop.PreferredDateISO == nil || *order.Workshop.PreferredDateISO != "2026-09-14" {
			t.Errorf("preferred date = %v, want 2026-09-14", order.Workshop.PreferredDateISO)
		}
	})

	t.Run("delivery only", func(t *testing.T) {
		st := redemption.New()
		st.AddItem(cat, "A", 2)
		st.Advance(cat, 100)
		if err := st.SubmitDetails(cat, redemption.Details{
			Shipping: redemption.Shipping{Line1: "1 Road", Town: "Town", Postcode: "AB1 2CD"},
		}); err != nil {
			t.Fatalf("SubmitDetails: %v", err)
		}

		order := st.BuildOrder(cat)
		if order.Workshop != nil {
			t.Error("workshop must be nil when there is no fitting item")
		}
		if order.Shipping == nil {
			t.Fatal("shipping must be present for a delivery item")
		}
		if order.Shipping.Town != "Town" {
			t.Errorf("town = %q, want Town", order.Shipping.Town)
		}
	})

	t.Run("collect at fitting drops shipping", func(t *testing.T) {
		st := redemption.New()
		st.AddItem(cat, "A", 1)
		st.AddItem(cat, "FIT", 1)
		st.Advance(cat, 100)
		if err := st.SubmitDetails(cat, redemption.Details{CollectAtFitting: true, ChassisNumber: "GP-1"}); err != nil {
			t.Fatalf("SubmitDetails: %v", err)
		}

		order := st.BuildOrder(cat)
		if order.Shipping != nil {
			t.Error("shipping must be nil when collect-at-fitting is chosen")
		}
		if !order.CollectAtFitting {
			t.Error("payload must carry collectAtFitting=true")
		}
		if order.Workshop == nil || order.Workshop.PreferredDateISO != nil {
			t.Errorf("workshop = %+v, want chassis only with nil preferred date", order.Workshop)
		}
	})
}

// TestEndToEnd_DeliveryOrder walks the happy path: 2 units of a 10-point
// delivery item against 50 available points.
func TestEndToEnd_DeliveryOrder(t *testing.T) {
	cat := testCatalog()
	st := redemption.New()

	if err := st.AddItem(cat, "A", 2); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	if got := st.Basket.Total(cat); got != 20 {
		t.Fatalf("total = %v, want 20", got)
	}
	if err := st.Advance(cat, 50); err != nil {
		t.Fatalf("Advance: %v", err)
	}

	err := st.SubmitDetails(cat, redemption.Details{
		Shipping: redemption.Shipping{Line1: "1 Road", Town: "Town", Postcode: "AB1 2CD"},
	})
	if err != nil {
		t.Fatalf("SubmitDetails: %v", err)
	}
	if st.Step != redemption.StepReview {
		t.Fatalf("step = %d, want 3", st.Step)
	}

	sum := st.Summarize(cat, 50)
	if len(sum.Rows) != 1 || math.Abs(sum.Rows[0].Subtotal-20) > 1e-9 {
		t.Errorf("summary rows = %+v, want one row with subtotal 20", sum.Rows)
	}
	if math.Abs(sum.After-30) > 1e-9 {
		t.Errorf("after-order points = %v, want 30", sum.After)
	}
	if err := st.ValidateSubmit(cat, 50); err != nil {
		t.Errorf("ValidateSubmit: %v", err)
	}
}

// TestEndToEnd_ReduceQuantityUnblocks reproduces the exceeds-points recovery:
// total 60 against 50 points is blocked, reducing to 40 unblocks.
func TestEndToEnd_ReduceQuantityUnblocks(t *testing.T) {
	cat := testCatalog()
	st := redemption.New()

	st.AddItem(cat, "A", 5)   // 50
	st.AddItem(cat, "C", 20)  // 10 -> total 60
	if err := st.Advance(cat, 50); !errors.Is(err, redemption.ErrExceedsPoints) {
		t.Fatalf("Advance = %v, want ErrExceedsPoints", err)
	}
	if msg := st.ExceedsMessage(cat, 50); !strings.Contains(msg, "60.00 > 50.00") {
		t.Errorf("exceeds message = %q, want both figures", msg)
	}

	if err := st.SetItemQty(cat, "A", 3); err != nil { // total 40
		t.Fatalf("SetItemQty: %v", err)
	}
	if msg := st.ExceedsMessage(cat, 50); msg != "" {
		t.Errorf("exceeds message should clear, got %q", msg)
	}
	if err := st.Advance(cat, 50); err != nil {
		t.Errorf("Advance after reduction: %v", err)
	}
}

// TestValidateSubmit_StalePoints verifies the step-3 re-check catches points
// spent elsewhere since step 1.
func TestValidateSubmit_StalePoints(t *testing.T) {
	cat := testCatalog()
	st := redemption.New()
	st.AddItem(cat, "A", 2) // 20
	st.Advance(cat, 50)
	st.SubmitDetails(cat, redemption.Details{
		Shipping: redemption.Shipping{Line1: "1 Road", Town: "Town", Postcode: "AB1 2CD"},
	})

	if err := st.ValidateSubmit(cat, 10); !errors.Is(err, redemption.ErrExceedsPoints) {
		t.Errorf("ValidateSubmit = %v, want ErrExceedsPoints with stale points", err)
	}
}

// TestBack_RetainsState verifies backward navigation keeps captured values.
func TestBack_RetainsState(t *testing.T) {
	cat := testCatalog()
	st := redemption.New()
	st.AddItem(cat, "A", 1)
	st.Advance(cat, 100)
	st.SubmitDetails(cat, redemption.Details{
		Shipping: redemption.Shipping{Line1: " 1 Road ", Town: "Town", Postcode: "AB1 2CD", Phone: "0123"},
	})

	st.Back()
	if st.Step != redemption.StepDetails {
		t.Fatalf("step = %d, want 2", st.Step)
	}
	if st.Shipping.Line1 != "1 Road" {
		t.Errorf("Line1 = %q, want trimmed value retained", st.Shipping.Line1)
	}
	st.Back()
	st.Back() // already at step 1, stays there
	if st.Step != redemption.StepCatalog {
		t.Fatalf("step = %d, want 1", st.Step)
	}
	if st.Basket.Qty("A") != 1 {
		t.Error("basket must survive backward navigation")
	}
}
