package cache

import (
	"fmt"
	"testing"
	"time"
)

func TestSetGetRespectsTTL(t *testing.T) {
	s := NewStore[string]()
	now := time.Now()
	s.now = func() time.Time { return now }

	s.Set("k", "v", time.Minute)

	if got, ok := s.Get("k"); !ok || got != "v" {
		t.Fatalf("Get before expiry = %q, %v; want \"v\", true", got, ok)
	}

	now = now.Add(time.Minute + time.Second)
	if _, ok := s.Get("k"); ok {
		t.Fatal("Get after expiry should miss")
	}
	if s.Len() != 0 {
		t.Fatalf("expired entry not evicted on access, size=%d", s.Len())
	}
}

func TestSetEnforcesHardCap(t *testing.T) {
	s := NewStore[int]()
	for i := 0; i < HardCap+30; i++ {
		s.Set(fmt.Sprintf("k%03d", i), i, time.Hour)
		if s.Len() > HardCap {
			t.Fatalf("size %d exceeds hard cap %d after set %d", s.Len(), HardCap, i)
		}
	}
}

func TestCleanupEvictsLowestHitEntries(t *testing.T) {
	s := NewStore[int]()
	for i := 0; i < SoftCap+10; i++ {
		s.Set(fmt.Sprintf("k%03d", i), i, time.Hour)
	}
	// Warm the first 60 entries so they outrank the rest.
	for i := 0; i < 60; i++ {
		if _, ok := s.Get(fmt.Sprintf("k%03d", i)); !ok {
			t.Fatalf("warm get k%03d missed", i)
		}
	}

	s.Cleanup()

	if s.Len() != SoftCap+10-evictBatch {
		t.Fatalf("size after cleanup = %d, want %d", s.Len(), SoftCap+10-evictBatch)
	}
	// Every warmed entry must have survived.
	for i := 0; i < 60; i++ {
		if _, ok := s.Get(fmt.Sprintf("k%03d", i)); !ok {
			t.Fatalf("warmed entry k%03d evicted before cold entries", i)
		}
	}
}

func TestCleanupDropsExpiredFirst(t *testing.T) {
	s := NewStore[int]()
	now := time.Now()
	s.now = func() time.Time { return now }

	for i := 0; i < 50; i++ {
		s.Set(fmt.Sprintf("old%02d", i), i, time.Second)
	}
	now = now.Add(2 * time.Second)
	for i := 0; i < 40; i++ {
		s.Set(fmt.Sprintf("new%02d", i), i, time.Hour)
	}

	s.Cleanup()

	if s.Len() != 40 {
		t.Fatalf("size after cleanup = %d, want 40 (expired dropped, fresh kept)", s.Len())
	}
	if _, ok := s.Get("new00"); !ok {
		t.Fatal("fresh entry evicted while under soft cap")
	}
}

func TestStats(t *testing.T) {
	s := NewStore[int]()
	now := time.Now()
	s.now = func() time.Time { return now }

	s.Set("a", 1, time.Second)
	s.Set("b", 2, time.Hour)
	s.Get("b")
	s.Get("b")
	now = now.Add(2 * time.Second)

	st := s.Stats()
	if st.Size != 2 {
		t.Fatalf("Size = %d, want 2", st.Size)
	}
	if st.TotalHits != 2 {
		t.Fatalf("TotalHits = %d, want 2", st.TotalHits)
	}
	if st.Expired != 1 {
		t.Fatalf("Expired = %d, want 1", st.Expired)
	}
	if st.HitRate != 1.0 {
		t.Fatalf("HitRate = %v, want 1.0", st.HitRate)
	}
}

func TestStatsEmptyStore(t *testing.T) {
	s := NewStore[int]()
	st := s.Stats()
	if st.Size != 0 || st.TotalHits != 0 || st.HitRate != 0 {
		t.Fatalf("empty stats = %+v", st)
	}
}

func TestSweeperStops(t *testing.T) {
	s := NewStore[int]()
	s.StartSweeper(time.Millisecond)
	s.Set("k", 1, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	s.Stop()
	s.Stop() // idempotent

	if s.Len() != 0 {
		t.Fatalf("sweeper did not collect expired entry, size=%d", s.Len())
	}
}
