package orders

// FulfillmentState is the derived order-level view of per-line progress.
type FulfillmentState struct {
	Details   map[FulfillmentKey]Progress
	Completed bool
	Partial   bool
}

// DeriveFulfillment normalizes a staff fulfillment edit against the
// order's cart and recomputes the aggregate flags.
//
// Every cart line gets an entry: lines missing from the input are
// synthesized with zero fulfilled and the ordered quantity as total.
// Out-of-range values clamp into [0, total] rather than rejecting the
// write. Input entries whose key matches no cart line are kept as-is;
// the store may hold progress for lines removed from the cart later.
//
// completed and partial are mutually exclusive by construction:
// completed means every unit shipped, partial means some but not all.
func DeriveFulfillment(items []CartItem, entries map[FulfillmentKey]Progress) FulfillmentState {
	details := make(map[FulfillmentKey]Progress, len(items)+len(entries))

	for raw, progress := range entries {
		details[raw] = clampProgress(progress)
	}

	// Ordered quantities per key, summed across duplicate lines.
	ordered := make(map[FulfillmentKey]int, len(items))
	for _, item := range items {
		ordered[item.Key()] += item.Quantity
	}
	for key, qty := range ordered {
		if _, ok := details[key]; !ok {
			details[key] = Progress{Fulfilled: 0, Total: qty}
		}
	}

	var fulfilled, total int
	for _, progress := range details {
		fulfilled += progress.Fulfilled
		total += progress.Total
	}

	state := FulfillmentState{Details: details}
	if total > 0 {
		state.Completed = fulfilled == total
		state.Partial = fulfilled > 0 && fulfilled < total
	}
	return state
}

func clampProgress(p Progress) Progress {
	if p.Total < 0 {
		p.Total = 0
	}
	if p.Fulfilled < 0 {
		p.Fulfilled = 0
	}
	if p.Fulfilled > p.Total {
		p.Fulfilled = p.Total
	}
	return p
}
