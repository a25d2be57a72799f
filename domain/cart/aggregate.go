package cart

import (
	"slices"
	"time"

	"github.com/example/glamup-shop-verse/domain/catalog"
	"github.com/shopspring/decimal"
)

// AddOrMerge adds item to the rows of one user's cart. A row with the same
// variant has its quantity increased in place and keeps its id; otherwise a
// new row with id newID() is appended. The returned row is the one written.
func AddOrMerge(rows []Row, userID string, item Item, newID func() string, now time.Time) ([]Row, Row, bool, error) {
	if err := item.Validate(); err != nil {
		return rows, Row{}, false, err
	}

	key := NewVariant(item.ProductID, item.Size, item.Color)
	out := slices.Clone(rows)

	for i := range out {
		if out[i].Variant() == key {
			out[i].Quantity += item.Quantity
			out[i].UpdatedAt = now
			return out, out[i], true, nil
		}
	}

	row := Row{
		ID:            newID(),
		UserID:        userID,
		ProductID:     key.ProductID,
		SelectedSize:  key.Size,
		SelectedColor: key.Color,
		Quantity:      item.Quantity,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	return append(out, row), row, false, nil
}

// SetQuantity sets the quantity of the row with rowID. A quantity <= 0
// removes the row. It reports whether the row was removed.
func SetQuantity(rows []Row, rowID string, quantity int, now time.Time) ([]Row, Row, bool, error) {
	idx := slices.IndexFunc(rows, func(r Row) bool { return r.ID == rowID })
	if idx < 0 {
		return rows, Row{}, false, ErrRowNotFound
	}

	if quantity <= 0 {
		removed := rows[idx]
		return slices.Delete(slices.Clone(rows), idx, idx+1), removed, true, nil
	}

	out := slices.Clone(rows)
	out[idx].Quantity = quantity
	out[idx].UpdatedAt = now
	return out, out[idx], false, nil
}

// Remove drops the row with rowID. Removing an absent row is a no-op.
func Remove(rows []Row, rowID string) []Row {
	return slices.DeleteFunc(slices.Clone(rows), func(r Row) bool { return r.ID == rowID })
}

// Clear empties the cart.
func Clear(_ []Row) []Row {
	return []Row{}
}

// Line is one row of a view joined with its product. Product is nil when the
// product could not be resolved, and LineTotal is zero in that case.
type Line struct {
	Row       Row
	Product   *catalog.Product
	LineTotal decimal.Decimal
}

// View is the derived, never stored state of a cart.
type View struct {
	Lines      []Line
	Total      decimal.Decimal
	ItemCount  int
	MissingIDs []string
}

// ComputeView joins rows with products by id and computes the grand total in
// full precision. Rows whose product is missing stay in the view, contribute
// nothing to the total and are listed in MissingIDs.
func ComputeView(rows []Row, products map[string]catalog.Product) View {
	view := View{
		Lines: make([]Line, 0, len(rows)),
		Total: decimal.Zero,
	}

	for _, r := range rows {
		line := Line{Row: r, LineTotal: decimal.Zero}
		if p, ok := products[r.ProductID]; ok {
			line.Product = &p
			line.LineTotal = p.Price.Mul(decimal.NewFromInt(int64(r.Quantity)))
			view.Total = view.Total.Add(line.LineTotal)
			view.ItemCount += r.Quantity
		} else {
			view.MissingIDs = append(view.MissingIDs, r.ProductID)
		}
		view.Lines = append(view.Lines, line)
	}

	return view
}

// ProductIDs returns the distinct product ids referenced by rows, in row order.
func ProductIDs(rows []Row) []string {
	seen := make(map[string]bool, len(rows))
	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		if !seen[r.ProductID] {
			seen[r.ProductID] = true
			ids = append(ids, r.ProductID)
		}
	}
	return ids
}
