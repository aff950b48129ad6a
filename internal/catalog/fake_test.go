package catalog

import (
	"context"
	"sync"
)

type fakeSource struct {
	kind SourceKind

	mu    sync.Mutex
	rows  [][]string
	err   error
	calls int
}

func (f *fakeSource) Kind() SourceKind { return f.kind }

func (f *fakeSource) Rows(ctx context.Context) ([][]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.rows, nil
}

func (f *fakeSource) set(rows [][]string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows, f.err = rows, err
}

func (f *fakeSource) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}
