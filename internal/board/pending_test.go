package board

import "testing"

func TestTracker_MarkAndAck(t *testing.T) {
	tr := NewTracker()

	seq1 := tr.Mark("card-1")
	seq2 := tr.Mark("card-2")
	if seq2 <= seq1 {
		t.Errorf("sequences must increase: %d then %d", seq1, seq2)
	}
	if !tr.Pending("card-1") || !tr.Pending("card-2") {
		t.Error("marked identities should be pending")
	}
	if tr.Len() != 2 {
		t.Errorf("expected 2 markers, got %d", tr.Len())
	}

	if !tr.Ack("card-1", seq1) {
		t.Error("ack with the current sequence should clear the marker")
	}
	if tr.Pending("card-1") {
		t.Error("identity still pending after ack")
	}
	if tr.Ack("card-1", seq1) {
		t.Error("second ack should report false")
	}
	if tr.Len() != 1 {
		t.Errorf("expected 1 marker left, got %d", tr.Len())
	}
}

func TestTracker_LastIntentWins(t *testing.T) {
	tr := NewTracker()

	first := tr.Mark("card-1")
	second := tr.Mark("card-1")

	// The first call completing late must not clear the newer intent.
	if tr.Ack("card-1", first) {
		t.Error("stale ack should be ignored")
	}
	if !tr.Pending("card-1") {
		t.Error("identity must stay pending until the newest sequence acks")
	}
	if !tr.Ack("card-1", second) {
		t.Error("the newest sequence should clear the marker")
	}
	if tr.Pending("card-1") {
		t.Error("identity still pending after the newest ack")
	}
}

func TestTracker_AckUnknownIdentity(t *testing.T) {
	tr := NewTracker()
	if tr.Ack("card-1", 1) {
		t.Error("ack of an unmarked identity should report false")
	}
}

func TestTracker_SweepAbandonsStaleMarkers(t *testing.T) {
	tr := NewTracker()
	tr.Mark("card-1")

	for i := 0; i < 3; i++ {
		if abandoned := tr.Sweep(3); len(abandoned) != 0 {
			t.Fatalf("marker abandoned after %d cycles: %v", i+1, abandoned)
		}
	}

	abandoned := tr.Sweep(3)
	if len(abandoned) != 1 || abandoned[0] != "card-1" {
		t.Fatalf("expected card-1 abandoned on the fourth cycle, got %v", abandoned)
	}
	if tr.Pending("card-1") {
		t.Error("abandoned identity should no longer be pending")
	}
}

func TestTracker_RemarkResetsAbandonmentClock(t *testing.T) {
	tr := NewTracker()
	tr.Mark("card-1")

	tr.Sweep(3)
	tr.Sweep(3)
	tr.Mark("card-1") // fresh intent gets a full grace period

	for i := 0; i < 3; i++ {
		if abandoned := tr.Sweep(3); len(abandoned) != 0 {
			t.Fatalf("refreshed marker abandoned after %d more cycles: %v", i+1, abandoned)
		}
	}
	if abandoned := tr.Sweep(3); len(abandoned) != 1 {
		t.Errorf("refreshed marker should be abandoned after a full grace period, got %v", abandoned)
	}
}

func TestTracker_SweepOnlyDropsOverdueMarkers(t *testing.T) {
	tr := NewTracker()
	tr.Mark("card-old")
	tr.Sweep(2)
	tr.Sweep(2)
	tr.Mark("card-new")

	abandoned := tr.Sweep(2)
	if len(abandoned) != 1 || abandoned[0] != "card-old" {
		t.Fatalf("expected only card-old abandoned, got %v", abandoned)
	}
	if !tr.Pending("card-new") {
		t.Error("fresh marker should survive the sweep")
	}
}
