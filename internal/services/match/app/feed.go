package app

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"sync"

	"github.com/louisbranch/sinkline/internal/services/match/domain/board"
	"github.com/louisbranch/sinkline/internal/services/match/domain/shot"
	"golang.org/x/net/websocket"
)

// Frame is one live board update pushed to feed watchers after each state
// change.
type Frame struct {
	MatchID      string         `json:"match_id"`
	Phase        string         `json:"phase"`
	Board        board.Snapshot `json:"board"`
	RemainingA   int            `json:"remaining_a"`
	RemainingB   int            `json:"remaining_b"`
	Announcement string         `json:"announcement,omitempty"`
	LastGroup    *shot.Group    `json:"last_group,omitempty"`
	At           string         `json:"at"`
}

const subscriptionBuffer = 16

// Subscription is an in-process feed tap. Frames are dropped, not queued
// unboundedly, when the consumer falls behind.
type Subscription struct {
	frames chan Frame
	cancel func()
	once   sync.Once
}

// Frames returns the update channel. It closes when the subscription ends.
func (s *Subscription) Frames() <-chan Frame { return s.frames }

// Close detaches the subscription from its room.
func (s *Subscription) Close() {
	s.once.Do(s.cancel)
}

// wsPeer serializes concurrent frame writes onto one websocket connection.
type wsPeer struct {
	mu      sync.Mutex
	encoder *json.Encoder
}

func newWSPeer(conn io.Writer) *wsPeer {
	return &wsPeer{encoder: json.NewEncoder(conn)}
}

func (p *wsPeer) writeFrame(frame Frame) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.encoder.Encode(frame)
}

// matchRoom fans one match's frames out to its watchers. The latest frame is
// retained so a new watcher sees the board immediately.
type matchRoom struct {
	mu       sync.Mutex
	peers    map[*wsPeer]struct{}
	subs     map[*Subscription]struct{}
	lastSeen Frame
	hasFrame bool
}

func newMatchRoom() *matchRoom {
	return &matchRoom{
		peers: make(map[*wsPeer]struct{}),
		subs:  make(map[*Subscription]struct{}),
	}
}

// Hub routes feed frames to per-match rooms.
type Hub struct {
	mu    sync.Mutex
	rooms map[string]*matchRoom
}

// NewHub creates an empty feed hub.
func NewHub() *Hub {
	return &Hub{rooms: make(map[string]*matchRoom)}
}

func (h *Hub) room(matchID string) *matchRoom {
	h.mu.Lock()
	defer h.mu.Unlock()
	room, ok := h.rooms[matchID]
	if !ok {
		room = newMatchRoom()
		h.rooms[matchID] = room
	}
	return room
}

// Broadcast delivers a frame to every watcher of the match. A peer whose
// write fails is dropped; a subscription with a full buffer skips the frame.
func (h *Hub) Broadcast(matchID string, frame Frame) {
	room := h.room(matchID)

	room.mu.Lock()
	room.lastSeen = frame
	room.hasFrame = true
	peers := make([]*wsPeer, 0, len(room.peers))
	for peer := range room.peers {
		peers = append(peers, peer)
	}
	subs := make([]*Subscription, 0, len(room.subs))
	for sub := range room.subs {
		subs = append(subs, sub)
	}
	room.mu.Unlock()

	for _, peer := range peers {
		if err := peer.writeFrame(frame); err != nil {
			log.Printf("[feed] drop peer on match %s: %v", matchID, err)
			room.mu.Lock()
			delete(room.peers, peer)
			room.mu.Unlock()
		}
	}
	for _, sub := range subs {
		select {
		case sub.frames <- frame:
		default:
		}
	}
}

// Subscribe attaches an in-process watcher to a match, replaying the latest
// frame when one exists.
func (h *Hub) Subscribe(matchID string) *Subscription {
	room := h.room(matchID)
	sub := &Subscription{frames: make(chan Frame, subscriptionBuffer)}
	sub.cancel = func() {
		room.mu.Lock()
		delete(room.subs, sub)
		room.mu.Unlock()
		close(sub.frames)
	}

	room.mu.Lock()
	room.subs[sub] = struct{}{}
	if room.hasFrame {
		sub.frames <- room.lastSeen
	}
	room.mu.Unlock()
	return sub
}

// join attaches a websocket peer, sending the retained frame first.
func (h *Hub) join(matchID string, peer *wsPeer) {
	room := h.room(matchID)
	room.mu.Lock()
	room.peers[peer] = struct{}{}
	replay := room.lastSeen
	hasReplay := room.hasFrame
	room.mu.Unlock()
	if hasReplay {
		if err := peer.writeFrame(replay); err != nil {
			h.leave(matchID, peer)
		}
	}
}

func (h *Hub) leave(matchID string, peer *wsPeer) {
	room := h.room(matchID)
	room.mu.Lock()
	delete(room.peers, peer)
	room.mu.Unlock()
}

type wsErrorFrame struct {
	Error string `json:"error"`
}

// Handler returns the websocket endpoint serving the live feed. The match is
// named by the match_id query parameter; the connection stays open until the
// client hangs up.
func (h *Hub) Handler() http.Handler {
	return websocket.Handler(func(conn *websocket.Conn) {
		defer conn.Close()

		matchID := conn.Request().URL.Query().Get("match_id")
		if matchID == "" {
			_ = json.NewEncoder(conn).Encode(wsErrorFrame{Error: "match_id query parameter is required"})
			return
		}

		peer := newWSPeer(conn)
		h.join(matchID, peer)
		defer h.leave(matchID, peer)

		// The feed is one-way; the read loop exists to notice disconnects.
		discard := make([]byte, 512)
		for {
			if _, err := conn.Read(discard); err != nil {
				return
			}
		}
	})
}
