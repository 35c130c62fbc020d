package httpadapter

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"svw.info/advent/internal/domain"
	"svw.info/advent/internal/progress"
)

const (
	eventsWriteWait = 5 * time.Second
	eventsBuffer    = 4
)

// upgrader leaves CheckOrigin unset, so browsers may only open the stream
// from the serving origin.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
}

// eventMsg is pushed to websocket clients. Event is nil on the initial
// snapshot sent right after the connection opens.
type eventMsg struct {
	Event   *progress.Event       `json:"event,omitempty"`
	Puzzles []domain.PuzzleStatus `json:"puzzles"`
}

// handleEvents streams the full status list on connect and again after
// every progression event, replacing client-side polling.
func (h *Handler) handleEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	events, cancel, err := h.UC.Subscribe(eventsBuffer)
	if err != nil {
		writeError(w, err)
		return
	}
	defer cancel()

	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.Log.Warn("websocket upgrade failed", "err", err)
		return
	}
	defer ws.Close()

	// The client never sends anything we use; reading detects the close.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ctx := r.Context()
	send := func(ev *progress.Event) bool {
		ps, err := h.UC.Statuses(ctx)
		if err != nil {
			return false
		}
		_ = ws.SetWriteDeadline(time.Now().Add(eventsWriteWait))
		if err := ws.WriteJSON(eventMsg{Event: ev, Puzzles: ps}); err != nil {
			h.Log.Debug("websocket write failed", "err", err)
			return false
		}
		return true
	}

	if !send(nil) {
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-closed:
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if !send(&ev) {
				return
			}
		}
	}
}
