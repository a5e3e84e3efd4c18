package recorder

import "sync"

// MemoryRecorder is an in-process MatchRecorder used by tests that want the
// Recorder contract without a filesystem or network dependency. It is the
// one place this package keeps an interface substitutability, per the
// design note that only truly substitutable components retain one.
type MemoryRecorder struct {
	mu      sync.Mutex
	records []Record
}

// NewMemoryRecorder returns an empty in-memory recorder.
func NewMemoryRecorder() *MemoryRecorder {
	return &MemoryRecorder{}
}

func (m *MemoryRecorder) Record(rec Record) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, rec)
	return rec.GameID, nil
}

func (m *MemoryRecorder) Recent(limit int) ([]Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Record, 0, limit)
	for i := len(m.records) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.records[i])
	}
	return out, nil
}

func (m *MemoryRecorder) Close() error {
	return nil
}
