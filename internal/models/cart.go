package models

// Cart is the session-scoped cart: product ID to requested quantity. It is
// serialized into the session store by the handlers, never persisted to the
// database.
type Cart map[string]int

// TotalCount returns the sum of all requested quantities.
func (c Cart) TotalCount() int {
	total := 0
	for _, qty := range c {
		total += qty
	}
	return total
}

// IsEmpty reports whether the cart has no lines.
func (c Cart) IsEmpty() bool {
	return len(c) == 0
}
