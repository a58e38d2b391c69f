package memory

// owned is any entity scoped to a single user.
type owned interface {
	OwnerID() int64
}

// table is an id-keyed collection that only hands rows to their owner.
// It is not safe for concurrent use; Store serializes access.
type table[T owned] struct {
	rows  map[int64]T
	order []int64
}

func newTable[T owned]() *table[T] {
	return &table[T]{rows: make(map[int64]T)}
}

func (t *table[T]) insert(id int64, row T) {
	t.rows[id] = row
	t.order = append(t.order, id)
}

func (t *table[T]) get(id, userID int64) (T, bool) {
	row, ok := t.rows[id]
	if !ok || row.OwnerID() != userID {
		var zero T
		return zero, false
	}
	return row, true
}

// find returns the user's rows accepted by match, in insertion order.
// A nil match accepts everything.
func (t *table[T]) find(userID int64, match func(T) bool) []T {
	out := make([]T, 0)
	for _, id := range t.order {
		row := t.rows[id]
		if row.OwnerID() != userID {
			continue
		}
		if match == nil || match(row) {
			out = append(out, row)
		}
	}
	return out
}

// update applies mutate to a copy of the row and stores it only when mutate succeeds.
func (t *table[T]) update(id, userID int64, mutate func(*T) error) (T, bool, error) {
	row, ok := t.get(id, userID)
	if !ok {
		return row, false, nil
	}
	if err := mutate(&row); err != nil {
		var zero T
		return zero, true, err
	}
	t.rows[id] = row
	return row, true, nil
}

func (t *table[T]) remove(id, userID int64) bool {
	if _, ok := t.get(id, userID); !ok {
		return false
	}
	delete(t.rows, id)
	for i, v := range t.order {
		if v == id {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
	return true
}
