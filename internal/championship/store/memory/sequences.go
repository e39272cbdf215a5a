package memory

import (
	"context"
	"fmt"

	"paddock/internal/championship/models"
)

// sequenceTable keeps one counter per collection. A counter never falls behind
// the highest stored id, so rows inserted with explicit ids are skipped.
type sequenceTable struct{ tables }

func (t sequenceTable) Reserve(_ context.Context, collection models.Collection, n int) (int, error) {
	if n <= 0 {
		return 0, fmt.Errorf("reserve %d ids for %s: count must be positive", n, collection)
	}
	var first int
	err := t.write(func(st *state) error {
		current := max(st.sequences[collection], st.maxID(collection))
		st.sequences[collection] = current + n
		first = current + 1
		return nil
	})
	if err != nil {
		return 0, err
	}
	return first, nil
}
