package order

import (
	"github.com/shopspring/decimal"

	"github.com/sulaiman-00/FoodCart/internal/domain/cart"
	"github.com/sulaiman-00/FoodCart/internal/domain/product"
)

// surchargeRate is the flat 2% added to every order subtotal.
var surchargeRate = decimal.New(2, -2)

// Quote is the priced form of a cart: snapshotted lines plus amounts.
type Quote struct {
	Lines     []Line
	Subtotal  decimal.Decimal
	Surcharge decimal.Decimal
	Total     decimal.Decimal
}

// SurchargeFor returns the flat surcharge for a subtotal, floor-rounded
// toward zero so fractional currency units never appear. The payment
// gateway reuses this exact arithmetic so provider-displayed totals match
// stored totals.
func SurchargeFor(subtotal decimal.Decimal) decimal.Decimal {
	return subtotal.Mul(surchargeRate).Floor()
}

// PriceCart resolves each cart line against the catalog snapshot and
// computes the totals. Unit prices come from the catalog's sale price at
// resolution time, never from the caller. A line referencing a product
// absent from the snapshot fails with ProductNotFoundError.
func PriceCart(lines []cart.Line, catalog map[string]product.Product) (Quote, error) {
	priced := make([]Line, len(lines))
	subtotal := decimal.Zero

	for i, l := range lines {
		p, ok := catalog[l.ProductID]
		if !ok {
			return Quote{}, &ProductNotFoundError{ProductID: l.ProductID}
		}

		priced[i] = Line{
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			UnitPrice: p.Price,
		}
		subtotal = subtotal.Add(p.Price.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}

	surcharge := SurchargeFor(subtotal)

	return Quote{
		Lines:     priced,
		Subtotal:  subtotal,
		Surcharge: surcharge,
		Total:     subtotal.Add(surcharge),
	}, nil
}
