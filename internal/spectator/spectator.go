// Package spectator streams episode frames to WebSocket clients.
package spectator

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/tatianab/wumpus/internal/agent"
	"github.com/tatianab/wumpus/internal/driver"
	"github.com/tatianab/wumpus/internal/logging"
	"github.com/tatianab/wumpus/internal/models"
)

// Hidden marks a square the player has not seen.
const Hidden = '?'

// subscriberBuffer frames may queue per client before new ones are dropped.
const subscriberBuffer = 16

const writeWait = 5 * time.Second

// Frame is one published view of an episode.
type Frame struct {
	EpisodeID   string           `json:"episode_id"`
	Turn        int              `json:"turn"`
	Size        int              `json:"size"`
	Rows        []string         `json:"rows"`
	Position    models.Position  `json:"position"`
	Facing      models.Direction `json:"facing"`
	Percept     models.Percept   `json:"percept"`
	Score       int              `json:"score"`
	HasGold     bool             `json:"has_gold"`
	WumpusAlive bool             `json:"wumpus_alive"`
	GameOver    bool             `json:"game_over"`
	Status      models.Status    `json:"status"`
	Message     string           `json:"message"`
	Beliefs     string           `json:"beliefs"`
	Explanation string           `json:"explanation"`
}

// NewFrame builds a frame from a snapshot. Unless reveal is set, squares the
// player has never stood on are shown as Hidden.
func NewFrame(episodeID string, s models.WorldState, b agent.Beliefs, reveal bool) Frame {
	rows := s.Grid.Rows()
	if !reveal {
		for y, row := range rows {
			r := []byte(row)
			for x := range r {
				p := models.Position{X: x, Y: y}
				if p != s.Position && !s.WasVisited(p) {
					r[x] = Hidden
				}
			}
			rows[y] = string(r)
		}
	}
	return Frame{
		EpisodeID:   episodeID,
		Turn:        s.Turn,
		Size:        s.Size(),
		Rows:        rows,
		Position:    s.Position,
		Facing:      s.Facing,
		Percept:     s.Percept,
		Score:       s.Score,
		HasGold:     s.HasGold,
		WumpusAlive: s.WumpusAlive,
		GameOver:    s.GameOver,
		Status:      s.Status,
		Message:     s.Message,
		Beliefs:     b.Describe(),
		Explanation: agent.Explain(b, s),
	}
}

// Hub keeps the latest frame and fans every new one out to subscribers.
type Hub struct {
	logger   *zap.Logger
	upgrader websocket.Upgrader

	mu     sync.Mutex
	latest []byte
	subs   map[chan []byte]struct{}
	closed bool
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		logger: logging.OrNop(logger),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 16 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		subs: make(map[chan []byte]struct{}),
	}
}

// Publish stores f as the latest frame and queues it for every subscriber.
// A subscriber whose queue is full misses the frame.
func (h *Hub) Publish(f Frame) error {
	b, err := json.Marshal(f)
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.latest = b
	for ch := range h.subs {
		select {
		case ch <- b:
		default:
			h.logger.Debug("spectator lagging, frame dropped", zap.Int("turn", f.Turn))
		}
	}
	return nil
}

// Observer publishes every driver step.
func (h *Hub) Observer(reveal bool) driver.Observer {
	return driver.ObserverFunc(func(s driver.Step) error {
		return h.Publish(NewFrame(s.EpisodeID, s.State, s.Beliefs, reveal))
	})
}

// Close disconnects every subscriber. Later publishes are ignored.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for ch := range h.subs {
		delete(h.subs, ch)
		close(ch)
	}
}

func (h *Hub) subscribe() (chan []byte, []byte, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, nil, false
	}
	ch := make(chan []byte, subscriberBuffer)
	h.subs[ch] = struct{}{}
	return ch, h.latest, true
}

func (h *Hub) unsubscribe(ch chan []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[ch]; ok {
		delete(h.subs, ch)
		close(ch)
	}
}

// Mux serves Handler at /ws and StateHandler at /state.
func (h *Hub) Mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/ws", h.Handler())
	mux.Handle("/state", h.StateHandler())
	return mux
}

// Handler upgrades to a WebSocket, sends the latest frame if there is one,
// then every frame published after it.
func (h *Hub) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := h.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			h.logger.Debug("websocket upgrade failed", zap.Error(err))
			return
		}
		defer conn.Close()

		ch, latest, ok := h.subscribe()
		if !ok {
			closeConn(conn, websocket.CloseGoingAway, "hub closed")
			return
		}
		defer h.unsubscribe(ch)
		h.logger.Debug("spectator connected", zap.String("remote", r.RemoteAddr))

		// Spectators never send anything meaningful; reading only detects
		// the client going away.
		gone := make(chan struct{})
		go func() {
			defer close(gone)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		if latest != nil {
			if err := write(conn, latest); err != nil {
				return
			}
		}
		for {
			select {
			case <-gone:
				return
			case b, ok := <-ch:
				if !ok {
					closeConn(conn, websocket.CloseGoingAway, "hub closed")
					return
				}
				if err := write(conn, b); err != nil {
					h.logger.Debug("spectator write failed", zap.Error(err))
					return
				}
			}
		}
	}
}

// StateHandler returns the latest frame as JSON, or 204 before the first one.
func (h *Hub) StateHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			rw.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.mu.Lock()
		latest := h.latest
		h.mu.Unlock()

		if latest == nil {
			rw.WriteHeader(http.StatusNoContent)
			return
		}
		rw.Header().Set("Content-Type", "application/json")
		_, _ = rw.Write(latest)
	}
}

func write(conn *websocket.Conn, b []byte) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(websocket.TextMessage, b)
}

func closeConn(conn *websocket.Conn, code int, reason string) {
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), time.Now().Add(time.Second))
}
