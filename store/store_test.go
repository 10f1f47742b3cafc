package store

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/rushteam/airsat/core"
)

func testStore(t *testing.T, s core.Store) {
	t.Helper()
	ctx := context.Background()

	if _, err := s.Get(ctx, "missing"); !core.IsStoreNotFound(err) {
		t.Fatalf("%s Get(missing) error = %v, want not found", s.Name(), err)
	}
	if err := s.Set(ctx, "a", []byte("1")); err != nil {
		t.Fatalf("%s Set() error = %v", s.Name(), err)
	}
	if err := s.Set(ctx, "b", []byte("2")); err != nil {
		t.Fatalf("%s Set() error = %v", s.Name(), err)
	}
	got, err := s.Get(ctx, "a")
	if err != nil || string(got) != "1" {
		t.Fatalf("%s Get(a) = %q, %v", s.Name(), got, err)
	}

	batch, err := s.BatchGet(ctx, []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("%s BatchGet() error = %v", s.Name(), err)
	}
	if want := map[string][]byte{"a": []byte("1"), "b": []byte("2")}; !reflect.DeepEqual(batch, want) {
		t.Errorf("%s BatchGet() = %v, want %v", s.Name(), batch, want)
	}

	if err := s.Set(ctx, "a", []byte("3")); err != nil {
		t.Fatalf("%s Set() overwrite error = %v", s.Name(), err)
	}
	if got, _ := s.Get(ctx, "a"); string(got) != "3" {
		t.Errorf("%s Get(a) after overwrite = %q, want 3", s.Name(), got)
	}
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	testStore(t, s)

	v := []byte("x")
	_ = s.Set(context.Background(), "k", v)
	v[0] = 'y'
	got, _ := s.Get(context.Background(), "k")
	if string(got) != "x" {
		t.Errorf("stored value aliased caller slice: %q", got)
	}
}

func TestFileStore(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "models")
	s := NewFileStore(dir)
	testStore(t, s)

	if _, err := os.Stat(filepath.Join(dir, "b.json")); err != nil {
		t.Errorf("expected b.json on disk: %v", err)
	}
	if err := s.Set(context.Background(), "../escape", []byte("x")); !core.IsInvalidInput(err) {
		t.Errorf("Set(../escape) error = %v, want INVALID_INPUT", err)
	}
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("AIRSAT_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("AIRSAT_TEST_REDIS_ADDR not set, skipping Redis tests")
	}
	s, err := NewRedisStore(context.Background(), addr, 0, "airsat-test:")
	if err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	defer s.Close()
	testStore(t, s)
}

func TestCatalog(t *testing.T) {
	ctx := context.Background()
	c := NewCatalog(NewMemoryStore(), WithRunID("run-1"))

	order := []string{"gender", "age"}
	if err := c.Save(ctx, ArtifactColumnOrder, order); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	var got []string
	env, err := c.Load(ctx, ArtifactColumnOrder, &got)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !reflect.DeepEqual(got, order) {
		t.Errorf("Load() = %v, want %v", got, order)
	}
	if env.RunID != "run-1" || env.Name != ArtifactColumnOrder || env.SavedAt.IsZero() {
		t.Errorf("envelope = %+v", env)
	}

	if _, err := c.Load(ctx, ArtifactScore, &got); !core.IsStoreNotFound(err) {
		t.Errorf("Load(missing) error = %v, want not found", err)
	}

	_ = c.Store().Set(ctx, ArtifactScore, []byte("not json"))
	if _, err := c.Load(ctx, ArtifactScore, &got); !core.IsInvalidInput(err) {
		t.Errorf("Load(corrupt) error = %v, want INVALID_INPUT", err)
	}

	if NewCatalog(NewMemoryStore()).RunID() == "" {
		t.Error("default run id is empty")
	}
}

func TestCatalog_LoadAll(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	c := NewCatalog(s, WithRunID("run-1"))
	_ = c.Save(ctx, ArtifactColumnOrder, []string{"gender"})
	_ = c.Save(ctx, ArtifactScore, map[string]float64{"threshold": 0.7})

	var (
		order []string
		score map[string]float64
	)
	runID, err := c.LoadAll(ctx, map[string]any{ArtifactColumnOrder: &order, ArtifactScore: &score})
	if err != nil {
		t.Fatalf("LoadAll() error = %v", err)
	}
	if runID != "run-1" || !reflect.DeepEqual(order, []string{"gender"}) || score["threshold"] != 0.7 {
		t.Errorf("LoadAll() = %q, %v, %v", runID, order, score)
	}

	if _, err := c.LoadAll(ctx, map[string]any{ArtifactColumnOrder: &order, ArtifactMapping: &score}); !core.IsStoreNotFound(err) {
		t.Errorf("LoadAll(missing) error = %v, want not found", err)
	}

	_ = NewCatalog(s, WithRunID("run-2")).Save(ctx, ArtifactScore, map[string]float64{"threshold": 0.5})
	if _, err := c.LoadAll(ctx, map[string]any{ArtifactColumnOrder: &order, ArtifactScore: &score}); !core.IsInvalidInput(err) {
		t.Errorf("LoadAll(mixed runs) error = %v, want INVALID_INPUT", err)
	}
}
