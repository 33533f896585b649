package shotlog

import (
	"testing"
	"time"

	"github.com/louisbranch/sinkline/internal/services/match/domain/board"
	"github.com/louisbranch/sinkline/internal/services/match/domain/rack"
	"github.com/louisbranch/sinkline/internal/services/match/domain/shot"
)

var testStamp = time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)

func sinkEvent(t *testing.T, log *Log, id string, cupID int, at time.Time, kind board.Kind, groupID string) shot.Event {
	t.Helper()
	current := log.Reconstruct()
	next, ok := current.Sink(board.SideB, cupID, "Jo", kind, at)
	if !ok {
		t.Fatalf("sink cup %d failed", cupID)
	}
	evt := shot.Event{
		ID:           id,
		At:           at,
		Side:         board.SideB,
		CupID:        cupID,
		PlayerHandle: "Jo",
		Kind:         kind,
		GroupID:      groupID,
		RemainingA:   next.Remaining(board.SideA),
		RemainingB:   next.Remaining(board.SideB),
		Snapshot:     next,
	}
	appended := log.Append(evt)
	return appended[0]
}

func TestAppendAssignsSeq(t *testing.T) {
	log := New(rack.SizeSix)
	first := sinkEvent(t, log, "evt-1", 0, testStamp, board.KindRegular, "")
	second := sinkEvent(t, log, "evt-2", 1, testStamp.Add(time.Second), board.KindRegular, "")
	if first.Seq != 1 || second.Seq != 2 {
		t.Fatalf("seqs = %d,%d, want 1,2", first.Seq, second.Seq)
	}
}

func TestReconstructEmptyLog(t *testing.T) {
	log := New(rack.SizeTen)
	snapshot := log.Reconstruct()
	if snapshot.Remaining(board.SideA) != 10 || snapshot.Remaining(board.SideB) != 10 {
		t.Fatalf("empty log remaining = %d/%d, want 10/10",
			snapshot.Remaining(board.SideA), snapshot.Remaining(board.SideB))
	}
}

func TestReconstructFollowsLastActiveEvent(t *testing.T) {
	log := New(rack.SizeSix)
	sinkEvent(t, log, "evt-1", 0, testStamp, board.KindRegular, "")
	sinkEvent(t, log, "evt-2", 1, testStamp.Add(time.Second), board.KindRegular, "")

	snapshot := log.Reconstruct()
	if snapshot.Remaining(board.SideB) != 4 {
		t.Fatalf("remaining = %d, want 4", snapshot.Remaining(board.SideB))
	}

	log.MarkUndone([]string{"evt-2"})
	snapshot = log.Reconstruct()
	if snapshot.Remaining(board.SideB) != 5 {
		t.Fatalf("remaining after undo = %d, want 5", snapshot.Remaining(board.SideB))
	}
	if cup, _ := snapshot.SideB.Cup(1); cup.Sunk {
		t.Fatal("cup 1 still sunk after its event was undone")
	}
}

func TestReconstructBreaksTimestampTiesBySeq(t *testing.T) {
	log := New(rack.SizeSix)
	// A bounce group: two events, one timestamp.
	sinkEvent(t, log, "evt-1", 0, testStamp, board.KindBounce, "grp-1")
	second := sinkEvent(t, log, "evt-2", 1, testStamp, board.KindBounce, "grp-1")

	snapshot := log.Reconstruct()
	if snapshot.Remaining(board.SideB) != second.RemainingB {
		t.Fatalf("remaining = %d, want %d from the later seq", snapshot.Remaining(board.SideB), second.RemainingB)
	}
}

func TestLastActiveGroupExpandsGroups(t *testing.T) {
	log := New(rack.SizeSix)
	sinkEvent(t, log, "evt-1", 5, testStamp, board.KindRegular, "")
	sinkEvent(t, log, "evt-2", 0, testStamp.Add(time.Second), board.KindBounce, "grp-1")
	sinkEvent(t, log, "evt-3", 1, testStamp.Add(time.Second), board.KindBounce, "grp-1")

	group, ok := log.LastActiveGroup()
	if !ok {
		t.Fatal("expected an active group")
	}
	if group.GroupID != "grp-1" || group.Kind != board.KindBounce {
		t.Fatalf("group = %+v", group)
	}
	if len(group.Events) != 2 {
		t.Fatalf("group events = %d, want 2", len(group.Events))
	}
	if group.TargetCupID() != 0 {
		t.Fatalf("target cup = %d, want 0", group.TargetCupID())
	}

	log.MarkUndone(group.EventIDs())
	group, ok = log.LastActiveGroup()
	if !ok {
		t.Fatal("expected the earlier regular event to become the active group")
	}
	if len(group.Events) != 1 || group.Events[0].ID != "evt-1" {
		t.Fatalf("group after undo = %+v", group)
	}
}

func TestLastActiveGroupEmptyLog(t *testing.T) {
	log := New(rack.SizeSix)
	if _, ok := log.LastActiveGroup(); ok {
		t.Fatal("empty log returned an active group")
	}
}

func TestMarkUndoneKeepsHistory(t *testing.T) {
	log := New(rack.SizeSix)
	sinkEvent(t, log, "evt-1", 0, testStamp, board.KindRegular, "")
	flipped := log.MarkUndone([]string{"evt-1", "missing"})
	if len(flipped) != 1 {
		t.Fatalf("flipped = %d events, want 1", len(flipped))
	}
	if log.Len() != 1 {
		t.Fatalf("log length = %d, want 1 (events are never removed)", log.Len())
	}
	events := log.Events()
	if !events[0].Undone {
		t.Fatal("event not marked undone")
	}
	// Flipping twice is a no-op.
	if again := log.MarkUndone([]string{"evt-1"}); len(again) != 0 {
		t.Fatal("marking an undone event flipped it again")
	}
}

func TestReplaceSnapshotKeepsUndoneFlag(t *testing.T) {
	log := New(rack.SizeSix)
	evt := sinkEvent(t, log, "evt-1", 0, testStamp, board.KindRegular, "")

	restored := evt.Snapshot.Restore(board.SideB, []int{0})
	replaced := log.ReplaceSnapshot([]string{"evt-1"}, restored, restored.Remaining(board.SideA), restored.Remaining(board.SideB))
	if len(replaced) != 1 {
		t.Fatalf("replaced = %d events, want 1", len(replaced))
	}
	if replaced[0].Undone {
		t.Fatal("replace snapshot flipped the undone flag")
	}
	snapshot := log.Reconstruct()
	if cup, _ := snapshot.SideB.Cup(0); cup.Sunk {
		t.Fatal("board still shows the cup sunk after snapshot replacement")
	}
	if snapshot.Remaining(board.SideB) != 6 {
		t.Fatalf("remaining = %d, want 6", snapshot.Remaining(board.SideB))
	}
}

func TestLoadPreservesStoredOrder(t *testing.T) {
	log := New(rack.SizeSix)
	sinkEvent(t, log, "evt-1", 0, testStamp, board.KindRegular, "")
	sinkEvent(t, log, "evt-2", 1, testStamp.Add(time.Second), board.KindRegular, "")
	events := log.Events()

	rehydrated := New(rack.SizeSix)
	// Stored rows may arrive in any order.
	rehydrated.Load([]shot.Event{events[1], events[0]})
	if rehydrated.Len() != 2 {
		t.Fatalf("rehydrated length = %d, want 2", rehydrated.Len())
	}
	snapshot := rehydrated.Reconstruct()
	if snapshot.Remaining(board.SideB) != 4 {
		t.Fatalf("rehydrated remaining = %d, want 4", snapshot.Remaining(board.SideB))
	}
}
