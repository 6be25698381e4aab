package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"solana-revival-lab/internal/domain"
	"solana-revival-lab/internal/metrics"
	"solana-revival-lab/internal/paper"
)

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, errorResponse{Error: code, Message: msg})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"time":   s.now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handlePortfolio(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, toSummary(s.book.Summary()))
}

func (s *Server) handlePositions(w http.ResponseWriter, _ *http.Request) {
	open := s.book.OpenPositions()
	out := make([]positionJSON, len(open))
	for i, p := range open {
		out[i] = toPosition(p)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handlePosition(w http.ResponseWriter, r *http.Request) {
	pos, err := s.book.Position(mux.Vars(r)["id"])
	if err != nil {
		s.writeBookError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPosition(pos))
}

func (s *Server) handleClose(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	trade, err := s.book.ManualClose(r.Context(), id)
	if trade == nil {
		s.writeBookError(w, err)
		return
	}
	if err != nil {
		// Closed in memory, store write failed.
		s.log.Warn().Err(err).Str("position", id).Msg("manual close not persisted")
	}
	if s.onTrade != nil {
		s.onTrade(trade)
	}
	writeJSON(w, http.StatusOK, toTrade(trade))
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if err := s.book.Reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "reset_failed", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, toSummary(s.book.Summary()))
}

func (s *Server) handleTrades(w http.ResponseWriter, r *http.Request) {
	var (
		trades []*domain.Trade
		err    error
	)
	if pid := r.URL.Query().Get("position_id"); pid != "" {
		trades, err = s.trades.GetByPositionID(r.Context(), pid)
	} else {
		trades, err = s.trades.ListAll(r.Context())
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "storage_error", err.Error())
		return
	}
	out := make([]tradeJSON, len(trades))
	for i, t := range trades {
		out[i] = toTrade(t)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleDecisions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var (
		decisions []*domain.ScoreDecision
		err       error
	)
	if addr := q.Get("address"); addr != "" {
		decisions, err = s.decisions.GetByAddress(r.Context(), addr)
	} else {
		from, ferr := parseMs(q.Get("from"), 0)
		to, terr := parseMs(q.Get("to"), s.now().UnixMilli())
		if ferr != nil || terr != nil || from > to {
			writeError(w, http.StatusBadRequest, "invalid_range", "from and to must be unix milliseconds with from <= to")
			return
		}
		decisions, err = s.decisions.List(r.Context(), from, to)
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "storage_error", err.Error())
		return
	}

	passedOnly := q.Get("passed") == "true"
	out := make([]decisionJSON, 0, len(decisions))
	for _, d := range decisions {
		if passedOnly && !d.Passed {
			continue
		}
		out = append(out, toDecision(d))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handlePerformance(w http.ResponseWriter, r *http.Request) {
	trades, err := s.trades.ListAll(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "storage_error", err.Error())
		return
	}
	snaps, err := s.snapshots.List(r.Context(), 0, s.now().UnixMilli())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "storage_error", err.Error())
		return
	}
	rep := metrics.Analyze(trades, snaps, s.book.Summary().InitialBalanceUSD)
	writeJSON(w, http.StatusOK, toPerformance(rep))
}

func (s *Server) writeBookError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, paper.ErrPositionNotFound):
		writeError(w, http.StatusNotFound, "position_not_found", err.Error())
	case errors.Is(err, paper.ErrPositionClosed):
		writeError(w, http.StatusConflict, "position_closed", err.Error())
	case err == nil:
		writeError(w, http.StatusInternalServerError, "internal", "no result")
	default:
		writeError(w, http.StatusBadGateway, "close_failed", err.Error())
	}
}

func parseMs(v string, def int64) (int64, error) {
	if v == "" {
		return def, nil
	}
	return strconv.ParseInt(v, 10, 64)
}
