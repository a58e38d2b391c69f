package memory

import (
	"context"
	"fmt"
	"sync"

	"caisse/internal/core"
	"caisse/internal/sheets"
)

// Writer keeps exported rows in memory. It stands in for the Google adapter
// in tests and local runs.
type Writer struct {
	mu   sync.Mutex
	rows [][]any
	seen map[int64]int
}

var _ sheets.LedgerWriter = (*Writer)(nil)

func New() *Writer {
	return &Writer{seen: make(map[int64]int)}
}

// AppendTransaction stores the row and returns a synthetic row reference.
// A transaction that was already exported keeps its original reference.
func (w *Writer) AppendTransaction(_ context.Context, tx core.Transaction) (string, error) {
	if tx.ID == 0 {
		return "", fmt.Errorf("transaction has no id")
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if n, ok := w.seen[tx.ID]; ok {
		return fmt.Sprintf("mem:%d", n), nil
	}
	w.rows = append(w.rows, sheets.Row(tx))
	w.seen[tx.ID] = len(w.rows)
	return fmt.Sprintf("mem:%d", len(w.rows)), nil
}

// Rows returns a copy of every exported row in append order.
func (w *Writer) Rows() [][]any {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([][]any, len(w.rows))
	for i, r := range w.rows {
		out[i] = append([]any(nil), r...)
	}
	return out
}
