package mining

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/bits-and-blooms/bitset"
)

// Pattern is an itemset found by a search with the value of its measures.
type Pattern struct {
	// Items holds the labels of the items, in increasing order.
	Items []int
	// Measures holds one value per measure of the search.
	Measures []int
	// Transactions is the cover of the pattern, when recorded.
	Transactions *bitset.BitSet
}

// Equal reports whether p and q have the same items and measures.
func (p Pattern) Equal(q Pattern) bool {
	return slices.Equal(p.Items, q.Items) && slices.Equal(p.Measures, q.Measures)
}

// IsDominatedBy reports whether q dominates p on the first m measures: q is
// at least as good everywhere and strictly better somewhere.
func (p Pattern) IsDominatedBy(q Pattern, m int) bool {
	worse := false
	for i := 0; i < m; i++ {
		if q.Measures[i] < p.Measures[i] {
			return false
		}
		if q.Measures[i] > p.Measures[i] {
			worse = true
		}
	}
	return worse
}

// Format renders p with the measure identifiers ids. When labels is not
// nil, the item at rank k of db is printed as labels[k].
func (p Pattern) Format(ids []string, db *Database, labels []string) string {
	items := make([]string, len(p.Items))
	for k, it := range p.Items {
		items[k] = strconv.Itoa(it)
		if labels == nil || db == nil {
			continue
		}
		if idx, ok := db.IndexOf(it); ok && idx < len(labels) {
			items[k] = labels[idx]
		}
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Pattern(items=[%s], measures={", strings.Join(items, ", "))
	for i, id := range ids {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s=%d", id, p.Measures[i])
	}
	b.WriteString("})")
	return b.String()
}

func (p Pattern) String() string {
	return fmt.Sprintf("Pattern(items=%v, measures=%v)", p.Items, p.Measures)
}
