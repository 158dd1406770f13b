package repository

import (
	"context"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/tobermory/strum/internal/config"
)

func testRepo(t *testing.T) *Repo {
	t.Helper()
	cfg := &config.Config{DataDir: t.TempDir()}
	db, err := OpenDB(cfg)
	if err != nil {
		t.Fatalf("OpenDB: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewRepo(db)
}

func TestUpsertSettingsSeedsDefaults(t *testing.T) {
	r := testRepo(t)
	ctx := context.Background()

	s, err := r.UpsertSettings(ctx, "g1")
	if err != nil {
		t.Fatalf("UpsertSettings: %v", err)
	}
	if s.DefaultVolume != 50 {
		t.Errorf("DefaultVolume = %d, want 50", s.DefaultVolume)
	}
	if s.QueuePageSize != 10 {
		t.Errorf("QueuePageSize = %d, want 10", s.QueuePageSize)
	}

	// A second upsert must not reset stored values.
	s.DefaultVolume = 80
	if err := r.UpdateSettings(ctx, s); err != nil {
		t.Fatalf("UpdateSettings: %v", err)
	}
	again, err := r.UpsertSettings(ctx, "g1")
	if err != nil {
		t.Fatalf("UpsertSettings: %v", err)
	}
	if again.DefaultVolume != 80 {
		t.Errorf("DefaultVolume after update = %d, want 80", again.DefaultVolume)
	}
}

func TestSettingsPerGuild(t *testing.T) {
	r := testRepo(t)
	ctx := context.Background()

	s1, err := r.UpsertSettings(ctx, "g1")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := r.UpsertSettings(ctx, "g2"); err != nil {
		t.Fatal(err)
	}

	s1.QueuePageSize = 5
	if err := r.UpdateSettings(ctx, s1); err != nil {
		t.Fatal(err)
	}
	s2, err := r.GetSettings(ctx, "g2")
	if err != nil {
		t.Fatal(err)
	}
	if s2.QueuePageSize != 10 {
		t.Errorf("g2 QueuePageSize = %d, want untouched default 10", s2.QueuePageSize)
	}
}
