// If you are AI: This file contains unit tests for the registry.

package bus

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
)

// Test publisher attach/detach and entry removal.
func TestRegistryPublisherLifecycle(t *testing.T) {
	listener := &recordingListener{}
	reg := NewRegistry(WithListener(listener))
	key := NewStreamKey("live", "test")

	if err := reg.AddPublisher(key, "pub-1"); err != nil {
		t.Fatalf("AddPublisher failed: %v", err)
	}
	if !reg.HasPublisher(key) {
		t.Fatal("expected publisher to be present")
	}
	if reg.Count() != 1 {
		t.Errorf("Expected 1 stream, got %d", reg.Count())
	}

	if !reg.RemovePublisher(key, "pub-1") {
		t.Fatal("RemovePublisher should succeed for the attached publisher")
	}
	if reg.Count() != 0 {
		t.Errorf("Expected entry to be removed, got %d streams", reg.Count())
	}

	events := listener.snapshot()
	if len(events) != 2 || events[0] != "publish live/test" || events[1] != "unpublish live/test" {
		t.Fatalf("unexpected listener events: %v", events)
	}
}

// Test that a second publisher on the same key is rejected.
func TestRegistryRejectsSecondPublisher(t *testing.T) {
	reg := NewRegistry()
	key := NewStreamKey("live", "test")

	if err := reg.AddPublisher(key, "pub-1"); err != nil {
		t.Fatalf("AddPublisher failed: %v", err)
	}
	err := reg.AddPublisher(key, "pub-2")
	if !errors.Is(err, ErrPublisherExists) {
		t.Fatalf("expected ErrPublisherExists, got %v", err)
	}
	if reg.RemovePublisher(key, "pub-2") {
		t.Fatal("a rejected publisher must not detach the active one")
	}
	if !reg.HasPublisher(key) {
		t.Fatal("original publisher should still be attached")
	}
}

// Test that the entry survives until both publisher and last writer are gone.
func TestRegistryEntryRemovedWhenEmpty(t *testing.T) {
	reg := NewRegistry()
	key := NewStreamKey("live", "test")
	w := newRecordingWriter("w1", key)

	if err := reg.AddPublisher(key, "pub"); err != nil {
		t.Fatal(err)
	}
	reg.AddPlayer(w)
	reg.RemovePublisher(key, "pub")
	if reg.Count() != 1 {
		t.Fatalf("entry should survive while a writer is attached, got %d", reg.Count())
	}
	reg.RemovePlayer(w)
	if reg.Count() != 0 {
		t.Fatalf("entry should be removed after the last writer, got %d", reg.Count())
	}
}

// Test that a player can attach before the publisher appears.
func TestRegistryPlayerBeforePublisher(t *testing.T) {
	reg := NewRegistry()
	key := NewStreamKey("live", "early")
	w := newRecordingWriter("w1", key)
	reg.AddPlayer(w)

	info, ok := reg.Info(key)
	if !ok || info.HasPublisher || info.Writers != 1 {
		t.Fatalf("unexpected info: %+v ok=%v", info, ok)
	}
	if err := reg.AddPublisher(key, "pub"); err != nil {
		t.Fatal(err)
	}
	reg.WriteMediaPacket(videoSeqHdr(key))
	kf := keyFrame(key, 0)
	reg.WriteMediaPacket(kf)
	got := w.packets()
	if len(got) != 2 || got[1] != kf {
		t.Fatalf("expected header and key frame, got %d packets", len(got))
	}
}

// Test catch-up delivery: a late writer gets headers and mini-GOP exactly once.
func TestRegistryCatchUp(t *testing.T) {
	reg := NewRegistry(WithMinGop(1))
	key := NewStreamKey("live", "test")
	if err := reg.AddPublisher(key, "pub"); err != nil {
		t.Fatal(err)
	}

	vsh := videoSeqHdr(key)
	ash := audioSeqHdr(key)
	kf := keyFrame(key, 0)
	p1 := interFrame(key, 40)
	a1 := audioFrame(key, 42)
	for _, p := range []*MediaPacket{vsh, ash, kf, p1, a1} {
		if err := reg.WriteMediaPacket(p); err != nil {
			t.Fatal(err)
		}
	}

	w := newRecordingWriter("late", key)
	reg.AddPlayer(w)
	if len(w.packets()) != 0 {
		t.Fatal("writer must not receive anything before the next packet")
	}

	p2 := interFrame(key, 80)
	if err := reg.WriteMediaPacket(p2); err != nil {
		t.Fatal(err)
	}
	expected := []*MediaPacket{vsh, ash, kf, p1, a1, p2}
	got := w.packets()
	if len(got) != len(expected) {
		t.Fatalf("expected %d packets, got %d", len(expected), len(got))
	}
	for i := range expected {
		if got[i] != expected[i] {
			t.Fatalf("packet %d mismatch", i)
		}
	}

	p3 := interFrame(key, 120)
	reg.WriteMediaPacket(p3)
	got = w.packets()
	if len(got) != len(expected)+1 || got[len(got)-1] != p3 {
		t.Fatalf("expected only p3 to be forwarded after catch-up, got %d packets", len(got))
	}
}

// Test that a failing writer is evicted without affecting others.
func TestRegistryEvictsFailingWriter(t *testing.T) {
	var evicted atomic.Int32
	reg := NewRegistry(WithEvictFunc(func(key StreamKey, id string, err error) {
		evicted.Add(1)
	}))
	key := NewStreamKey("live", "test")
	reg.AddPublisher(key, "pub")
	good := newRecordingWriter("good", key)
	bad := newRecordingWriter("bad", key)
	bad.fail = ErrQueueFull
	reg.AddPlayer(good)
	reg.AddPlayer(bad)

	err := reg.WriteMediaPacket(audioFrame(key, 0))
	if !errors.Is(err, ErrQueueFull) {
		t.Fatalf("expected aggregated ErrQueueFull, got %v", err)
	}
	if evicted.Load() != 1 {
		t.Fatalf("expected one eviction, got %d", evicted.Load())
	}
	info, _ := reg.Info(key)
	if info.Writers != 1 {
		t.Fatalf("expected 1 writer left, got %d", info.Writers)
	}
	if err := reg.WriteMediaPacket(audioFrame(key, 20)); err != nil {
		t.Fatalf("unexpected error after eviction: %v", err)
	}
	if len(good.packets()) != 2 {
		t.Fatalf("good writer should have 2 packets, got %d", len(good.packets()))
	}
}

// Test that sinks receive private copies of every packet.
func TestRegistrySinkGetsClones(t *testing.T) {
	var mu sync.Mutex
	var got []*MediaPacket
	sink := SinkFunc(func(pkt *MediaPacket) error {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, pkt)
		return nil
	})
	reg := NewRegistry(WithSink(sink))
	key := NewStreamKey("live", "test")
	reg.AddPublisher(key, "pub")
	pkt := interFrame(key, 0)
	reg.WriteMediaPacket(pkt)

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 1 {
		t.Fatalf("expected sink to receive 1 packet, got %d", len(got))
	}
	if got[0] == pkt || &got[0].Payload[0] == &pkt.Payload[0] {
		t.Fatal("sink must receive a private copy")
	}
}

// Test that concurrent AddPublisher calls create exactly one entry and one winner.
func TestRegistryConcurrentAddPublisher(t *testing.T) {
	listener := &recordingListener{}
	reg := NewRegistry(WithListener(listener))
	key := NewStreamKey("live", "race")

	const n = 64
	var wg sync.WaitGroup
	var wins atomic.Int32
	start := make(chan struct{})
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			if err := reg.AddPublisher(key, string(rune('A'+i))); err == nil {
				wins.Add(1)
			}
		}(i)
	}
	close(start)
	wg.Wait()

	if wins.Load() != 1 {
		t.Fatalf("expected exactly one publisher to win, got %d", wins.Load())
	}
	if reg.Count() != 1 {
		t.Fatalf("expected a single entry, got %d", reg.Count())
	}
	if events := listener.snapshot(); len(events) != 1 {
		t.Fatalf("expected one publish notification, got %v", events)
	}
}

// Test that republishing resets catch-up so waiting writers get the new headers.
func TestRegistryRepublishReinitializesWriters(t *testing.T) {
	reg := NewRegistry()
	key := NewStreamKey("live", "test")
	w := newRecordingWriter("w", key)
	reg.AddPlayer(w)

	reg.AddPublisher(key, "pub-1")
	reg.WriteMediaPacket(videoSeqHdr(key))
	reg.WriteMediaPacket(keyFrame(key, 0))
	reg.RemovePublisher(key, "pub-1")

	reg.AddPublisher(key, "pub-2")
	vsh2 := videoSeqHdr(key)
	reg.WriteMediaPacket(vsh2)
	kf2 := keyFrame(key, 0)
	reg.WriteMediaPacket(kf2)

	got := w.packets()
	if len(got) != 4 || got[2] != vsh2 || got[3] != kf2 {
		t.Fatalf("expected new headers after republish, got %d packets", len(got))
	}
}

// Test the sorted snapshot used by the API.
func TestRegistrySnapshot(t *testing.T) {
	reg := NewRegistry()
	reg.AddPublisher(NewStreamKey("live", "b"), "1")
	reg.AddPublisher(NewStreamKey("live", "a"), "2")
	infos := reg.Snapshot()
	if len(infos) != 2 || infos[0].Key.Name != "a" || infos[1].Key.Name != "b" {
		t.Fatalf("unexpected snapshot order: %+v", infos)
	}
}
