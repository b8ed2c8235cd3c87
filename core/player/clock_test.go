package player

import (
	"testing"
	"time"

	"Shelfwave/model"
)

func testItem(durationMs int64) *model.MediaItem {
	return &model.MediaItem{ID: 1, Kind: model.KindMusic, Title: "t", DurationMs: durationMs}
}

func TestClockEngineLifecycle(t *testing.T) {
	e := NewClockEngine()
	defer e.Close()

	if err := e.Play(); err != ErrNoMedia {
		t.Fatalf("play without media = %v, want ErrNoMedia", err)
	}

	if err := e.Load(testItem(60_000)); err != nil {
		t.Fatal(err)
	}
	if e.State() != StateStopped {
		t.Fatalf("state after load = %v, want stopped", e.State())
	}
	if e.AudioSessionID() == 0 {
		t.Fatal("load did not allocate an audio session")
	}

	if err := e.Play(); err != nil {
		t.Fatal(err)
	}
	if e.State() != StatePlaying {
		t.Fatalf("state after play = %v", e.State())
	}

	if err := e.Pause(); err != nil {
		t.Fatal(err)
	}
	if e.State() != StatePaused {
		t.Fatalf("state after pause = %v", e.State())
	}
}

func TestClockEngineSeekClamps(t *testing.T) {
	e := NewClockEngine()
	defer e.Close()

	if err := e.Load(testItem(10_000)); err != nil {
		t.Fatal(err)
	}

	if err := e.SeekTo(-5 * time.Second); err != nil {
		t.Fatal(err)
	}
	if e.Position() != 0 {
		t.Fatalf("position = %v, want 0 after negative seek", e.Position())
	}

	if err := e.SeekTo(time.Minute); err != nil {
		t.Fatal(err)
	}
	if e.Position() != 10*time.Second {
		t.Fatalf("position = %v, want clamp at duration", e.Position())
	}
}

func TestClockEngineFiresFinished(t *testing.T) {
	e := NewClockEngine()
	defer e.Close()

	if err := e.Load(testItem(30)); err != nil {
		t.Fatal(err)
	}
	if err := e.Play(); err != nil {
		t.Fatal(err)
	}

	select {
	case <-e.FinishedChan():
	case <-time.After(2 * time.Second):
		t.Fatal("finished signal never arrived")
	}

	if e.State() != StateStopped {
		t.Fatalf("state after natural end = %v, want stopped", e.State())
	}
	if e.Position() != 30*time.Millisecond {
		t.Fatalf("position after natural end = %v, want duration", e.Position())
	}
}

func TestClockEnginePauseCancelsFinish(t *testing.T) {
	e := NewClockEngine()
	defer e.Close()

	if err := e.Load(testItem(50)); err != nil {
		t.Fatal(err)
	}
	if err := e.Play(); err != nil {
		t.Fatal(err)
	}
	if err := e.Pause(); err != nil {
		t.Fatal(err)
	}

	select {
	case <-e.FinishedChan():
		t.Fatal("finished fired while paused")
	case <-time.After(150 * time.Millisecond):
	}
}

func TestClockEngineClosedCommands(t *testing.T) {
	e := NewClockEngine()
	if err := e.Load(testItem(1000)); err != nil {
		t.Fatal(err)
	}
	if err := e.Close(); err != nil {
		t.Fatal(err)
	}

	if err := e.Play(); err != ErrEngineClosed {
		t.Fatalf("play on closed engine = %v, want ErrEngineClosed", err)
	}
	if err := e.SeekTo(time.Second); err != ErrEngineClosed {
		t.Fatalf("seek on closed engine = %v, want ErrEngineClosed", err)
	}
	if err := e.Close(); err != nil {
		t.Fatalf("second close = %v, want nil", err)
	}
}
