package httpadapter

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"golang.org/x/time/rate"

	"svw.info/advent/internal/domain"
	"svw.info/advent/internal/usecase"
)

type Handler struct {
	UC *usecase.Service
	// Limiter throttles answer submissions across all clients. Nil disables it.
	Limiter *rate.Limiter
	Log     *slog.Logger
}

func New(uc *usecase.Service, limiter *rate.Limiter, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{UC: uc, Limiter: limiter, Log: log}
}

func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/puzzles", h.handleList)
	mux.HandleFunc("/api/puzzles/{n}", h.handleStatus)
	mux.HandleFunc("/api/puzzles/{n}/submit", h.handleSubmit)
	mux.HandleFunc("/api/puzzles/{n}/answers", h.handleAnswers)
	mux.HandleFunc("/api/events", h.handleEvents)
}

type errorResp struct {
	Error      string             `json:"error"`
	LockReason *domain.LockReason `json:"lockReason,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps use case errors onto HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	resp := errorResp{Error: err.Error()}
	status := http.StatusInternalServerError
	var locked *domain.LockedError
	switch {
	case errors.As(err, &locked):
		status = http.StatusForbidden
		resp.LockReason = &locked.Reason
	case errors.Is(err, domain.ErrUnknownPuzzle):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrIncompleteSubmission):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrNotCompleted):
		status = http.StatusConflict
	}
	writeJSON(w, status, resp)
}

func methodNotAllowed(w http.ResponseWriter) {
	writeJSON(w, http.StatusMethodNotAllowed, errorResp{Error: "method not allowed"})
}

func ordinal(r *http.Request) (domain.Ordinal, error) {
	n, err := strconv.Atoi(r.PathValue("n"))
	if err != nil || !domain.Ordinal(n).Valid() {
		return 0, domain.ErrUnknownPuzzle
	}
	return domain.Ordinal(n), nil
}

// ---- List / Status ----

type listResp struct {
	Puzzles []domain.PuzzleStatus `json:"puzzles"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	ps, err := h.UC.Statuses(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listResp{Puzzles: ps})
}

type statusResp struct {
	Status domain.PuzzleStatus `json:"status"`
	Puzzle *domain.Puzzle      `json:"puzzle,omitempty"`
}

// handleStatus only reveals the puzzle definition once it is playable.
func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	o, err := ordinal(r)
	if err != nil {
		writeError(w, err)
		return
	}
	st, err := h.UC.Status(r.Context(), o)
	if err != nil {
		writeError(w, err)
		return
	}
	resp := statusResp{Status: st}
	if st.Unlocked || st.Completed {
		if p, err := h.UC.Puzzle(o); err == nil {
			resp.Puzzle = &p
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// ---- Submit ----

type submitReq struct {
	Answers []string `json:"answers"`
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	o, err := ordinal(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if h.Limiter != nil && !h.Limiter.Allow() {
		writeJSON(w, http.StatusTooManyRequests, errorResp{Error: "too many submissions"})
		return
	}
	var req submitReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp{Error: "invalid JSON: " + err.Error()})
		return
	}
	res, err := h.UC.Submit(r.Context(), o, req.Answers)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// ---- Answers ----

type answersResp struct {
	Answers []string `json:"answers"`
}

func (h *Handler) handleAnswers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	o, err := ordinal(r)
	if err != nil {
		writeError(w, err)
		return
	}
	as, err := h.UC.Answers(r.Context(), o)
	if err != nil {
		writeError(w, err)
		return
	}
	if as == nil {
		as = []string{}
	}
	writeJSON(w, http.StatusOK, answersResp{Answers: as})
}
