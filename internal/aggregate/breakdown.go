package aggregate

import "sort"

// unknownBucket collects records whose grouping key is missing so bucket
// totals still conserve the revenue that produced them.
const unknownBucket = "Unknown"

// Grouping attributes a transaction's revenue to one or more named keys.
// Transaction-level groupings contribute the transaction total once;
// line-item groupings contribute quantity × unit price per item.
type Grouping struct {
	contribute func(tx Transaction, add func(key string, amount float64))
}

// TxKey builds a grouping keyed per transaction, attributing the full
// transaction amount.
func TxKey(key func(Transaction) string) Grouping {
	return Grouping{contribute: func(tx Transaction, add func(string, float64)) {
		add(key(tx), tx.TotalAmount)
	}}
}

// ItemKey builds a grouping keyed per line item, attributing quantity × price.
func ItemKey(key func(LineItem) string) Grouping {
	return Grouping{contribute: func(tx Transaction, add func(string, float64)) {
		for _, it := range tx.Items {
			add(key(it), float64(it.Quantity)*it.UnitPrice)
		}
	}}
}

// GroupRevenue reduces the collection into (name, revenue) buckets sorted
// descending by revenue. Missing keys land in the "Unknown" bucket rather
// than being dropped, so the bucket sum equals the revenue contributed by
// the grouping.
func GroupRevenue(txs []Transaction, g Grouping) []Bucket {
	totals := make(map[string]float64)
	order := []string{}
	add := func(key string, amount float64) {
		if key == "" {
			key = unknownBucket
		}
		if _, seen := totals[key]; !seen {
			order = append(order, key)
		}
		totals[key] += amount
	}
	for _, tx := range txs {
		g.contribute(tx, add)
	}

	buckets := make([]Bucket, 0, len(order))
	for _, name := range order {
		buckets = append(buckets, Bucket{Name: name, Value: totals[name]})
	}
	// Stable sort keeps first-encountered order among equal values.
	sort.SliceStable(buckets, func(i, j int) bool {
		return buckets[i].Value > buckets[j].Value
	})
	return buckets
}
