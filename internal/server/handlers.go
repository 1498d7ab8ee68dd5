package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/ligun0805/swap-quote/internal/amount"
	"github.com/ligun0805/swap-quote/internal/chains"
	"github.com/ligun0805/swap-quote/internal/erc20"
	"github.com/ligun0805/swap-quote/internal/quote"
	"github.com/ligun0805/swap-quote/internal/router"
)

const maxBodyBytes = 1 << 20

type errorBody struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
	Message string `json:"message,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	n := 0
	if s.cfg.Chains != nil {
		n = len(s.cfg.Chains.Chains())
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "chains": n})
}

func (s *Server) handleChains(w http.ResponseWriter, r *http.Request) {
	list := []chains.Chain{}
	if s.cfg.Chains != nil {
		list = s.cfg.Chains.Chains()
	}
	writeJSON(w, http.StatusOK, map[string]any{"chains": list})
}

func (s *Server) handleQuote(t quote.Target) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in quote.Input
		if err := decode(w, r, &in); err != nil {
			s.writeError(w, r, err)
			return
		}
		res, err := s.cfg.Quotes.Quote(r.Context(), t, in)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func (s *Server) handleQuoteBatch(t quote.Target) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in quote.BatchInput
		if err := decode(w, r, &in); err != nil {
			s.writeError(w, r, err)
			return
		}
		items, err := s.cfg.Quotes.QuoteBatch(r.Context(), t, in)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"quotes": items})
	}
}

var errBadBody = errors.New("malformed request body")

func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %w", errBadBody, err)
	}
	return nil
}

// writeError maps service errors onto the response bodies clients already
// parse.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, quote.ErrMissingParameters):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "Missing required parameters.", Details: err.Error()})
	case errors.Is(err, router.ErrNoRoute):
		writeJSON(w, http.StatusBadRequest, errorBody{
			Error:   "No route found",
			Details: "Unable to find a valid trading route for the specified tokens.",
		})
	case errors.Is(err, chains.ErrUnsupportedChain):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "Wrong chain ID.", Details: err.Error()})
	case errors.Is(err, errBadBody),
		errors.Is(err, quote.ErrInvalidAddress),
		errors.Is(err, quote.ErrInvalidAmount),
		errors.Is(err, amount.ErrInvalidDecimalFormat),
		errors.Is(err, amount.ErrAmountPrecisionExceeded),
		errors.Is(err, amount.ErrInvalidPrecision),
		errors.Is(err, erc20.ErrNotToken),
		errors.Is(err, router.ErrUnsupported):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "Invalid parameters.", Details: err.Error()})
	default:
		s.log.Error().Err(err).Str("path", r.URL.Path).Msg("Route error")
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "Failed to process route.", Message: err.Error()})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
