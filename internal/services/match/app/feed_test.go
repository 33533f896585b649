package app

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/net/websocket"
)

func testFrame(matchID string, remainingB int) Frame {
	return Frame{
		MatchID:    matchID,
		Phase:      "playing",
		RemainingA: 6,
		RemainingB: remainingB,
		At:         "2026-03-01T10:00:00Z",
	}
}

func TestHubSubscribeReplaysLatestFrame(t *testing.T) {
	hub := NewHub()
	hub.Broadcast("m1", testFrame("m1", 5))

	sub := hub.Subscribe("m1")
	defer sub.Close()

	select {
	case frame := <-sub.Frames():
		if frame.RemainingB != 5 {
			t.Fatalf("frame = %+v", frame)
		}
	default:
		t.Fatal("no replayed frame")
	}
}

func TestHubBroadcastFansOut(t *testing.T) {
	hub := NewHub()
	first := hub.Subscribe("m1")
	defer first.Close()
	second := hub.Subscribe("m1")
	defer second.Close()
	other := hub.Subscribe("m2")
	defer other.Close()

	hub.Broadcast("m1", testFrame("m1", 4))

	for name, sub := range map[string]*Subscription{"first": first, "second": second} {
		select {
		case frame := <-sub.Frames():
			if frame.MatchID != "m1" {
				t.Fatalf("%s got %+v", name, frame)
			}
		default:
			t.Fatalf("%s got no frame", name)
		}
	}
	select {
	case frame := <-other.Frames():
		t.Fatalf("m2 subscriber got %+v", frame)
	default:
	}
}

func TestHubSlowSubscriberDropsFrames(t *testing.T) {
	hub := NewHub()
	sub := hub.Subscribe("m1")
	defer sub.Close()

	for i := 0; i < subscriptionBuffer+10; i++ {
		hub.Broadcast("m1", testFrame("m1", i))
	}
	if got := len(sub.Frames()); got != subscriptionBuffer {
		t.Fatalf("buffered = %d, want %d", got, subscriptionBuffer)
	}
}

func TestSubscriptionCloseIsIdempotent(t *testing.T) {
	hub := NewHub()
	sub := hub.Subscribe("m1")
	sub.Close()
	sub.Close()

	if _, open := <-sub.Frames(); open {
		t.Fatal("channel still open after close")
	}
	// A broadcast after close must not panic or deliver.
	hub.Broadcast("m1", testFrame("m1", 3))
}

func dialFeed(t *testing.T, serverURL, query string) *websocket.Conn {
	t.Helper()
	wsURL := strings.Replace(serverURL, "http://", "ws://", 1) + "/ws" + query
	conn, err := websocket.Dial(wsURL, "", serverURL)
	if err != nil {
		t.Fatalf("dial %s: %v", wsURL, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestWebsocketFeedDeliversFrames(t *testing.T) {
	hub := NewHub()
	server := httptest.NewServer(hub.Handler())
	defer server.Close()

	hub.Broadcast("m1", testFrame("m1", 6))
	conn := dialFeed(t, server.URL, "?match_id=m1")

	var frame Frame
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := websocket.JSON.Receive(conn, &frame); err != nil {
		t.Fatalf("receive replay: %v", err)
	}
	if frame.MatchID != "m1" || frame.RemainingB != 6 {
		t.Fatalf("replay frame = %+v", frame)
	}

	hub.Broadcast("m1", testFrame("m1", 5))
	if err := websocket.JSON.Receive(conn, &frame); err != nil {
		t.Fatalf("receive broadcast: %v", err)
	}
	if frame.RemainingB != 5 {
		t.Fatalf("broadcast frame = %+v", frame)
	}
}

func TestWebsocketFeedRequiresMatchID(t *testing.T) {
	hub := NewHub()
	server := httptest.NewServer(hub.Handler())
	defer server.Close()

	conn := dialFeed(t, server.URL, "")

	var errFrame wsErrorFrame
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := websocket.JSON.Receive(conn, &errFrame); err != nil {
		t.Fatalf("receive error frame: %v", err)
	}
	if errFrame.Error == "" {
		t.Fatal("expected an error frame")
	}
}
