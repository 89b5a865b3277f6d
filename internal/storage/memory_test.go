package storage

import (
	"context"
	"testing"

	"github.com/brightpath/learning-core/internal/lcerr"
	"github.com/brightpath/learning-core/internal/logger"
)

func TestMemoryBackendSaveLoadDelete(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryBackend(logger.NewNop())

	if err := m.Save(ctx, "u1/programs/p1", []byte(`{"a":1}`), Options{Owner: "u1"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	// Same-key save overwrites.
	if err := m.Save(ctx, "u1/programs/p1", []byte(`{"a":2}`), Options{Owner: "u1"}); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	value, ok, err := m.Load(ctx, "u1/programs/p1", Options{})
	if err != nil || !ok {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}
	if string(value) != `{"a":2}` {
		t.Fatalf("load value: want=%s got=%s", `{"a":2}`, value)
	}
	if m.Len() != 1 {
		t.Fatalf("len after overwrite: want=1 got=%d", m.Len())
	}

	if err := m.Delete(ctx, "u1/programs/p1", Options{}); err != nil {
		t.Fatalf("delete: %v", err)
	}
	_, ok, err = m.Load(ctx, "u1/programs/p1", Options{})
	if err != nil {
		t.Fatalf("load after delete: %v", err)
	}
	if ok {
		t.Fatalf("expected record to be absent after delete")
	}
}

func TestMemoryBackendListIsPrefixScopedAndKeyOrdered(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryBackend(logger.NewNop())

	_ = m.Save(ctx, "u1/tasks/b", []byte("2"), Options{})
	_ = m.Save(ctx, "u1/tasks/a", []byte("1"), Options{})
	_ = m.Save(ctx, "u2/tasks/a", []byte("x"), Options{})

	values, err := m.List(ctx, "u1/tasks/", Options{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(values) != 2 {
		t.Fatalf("list count: want=2 got=%d", len(values))
	}
	if string(values[0]) != "1" || string(values[1]) != "2" {
		t.Fatalf("list order: got=[%s %s]", values[0], values[1])
	}
}

func TestMemoryBackendReportsTimeoutOnExpiredContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	m := NewMemoryBackend(logger.NewNop())

	err := m.Save(ctx, "k", []byte("v"), Options{})
	if !lcerr.IsCode(err, lcerr.CodeStorageTimeout) {
		t.Fatalf("expected storage_timeout, got=%v", err)
	}
}
