package api

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/hns-tools/auctionwatch/internal/auction"
	"github.com/hns-tools/auctionwatch/internal/logger"
	"github.com/hns-tools/auctionwatch/pkg/chain"
)

// AuctionIndex is the query surface the API exposes.
// Implemented by internal/auction.Index.
type AuctionIndex interface {
	Tip() (chain.Hash, error)
	Count(name string, kind auction.Kind) (uint64, error)
	ListMembers(name string, kind auction.Kind) ([]chain.Outpoint, error)
	Wipe() (int, error)
}

// Handler handles HTTP requests for the API.
type Handler struct {
	index      AuctionIndex
	adminToken string
	log        *logger.Logger
}

// NewHandler creates a new API handler.
func NewHandler(index AuctionIndex, adminToken string, log *logger.Logger) *Handler {
	return &Handler{
		index:      index,
		adminToken: adminToken,
		log:        log,
	}
}

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetTip returns the hash of the last fully indexed block.
func (h *Handler) GetTip(w http.ResponseWriter, r *http.Request) {
	tip, err := h.index.Tip()
	if errors.Is(err, auction.ErrNotFound) {
		respondError(w, http.StatusNotFound, "no block indexed yet")
		return
	}
	if err != nil {
		h.log.Errorf("tip query failed: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to read tip")
		return
	}

	respondJSON(w, http.StatusOK, TipResponse{Tip: tip.String()})
}

// GetName returns the indexed bid and reveal records of one name.
func (h *Handler) GetName(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if name == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}

	resp := NameResponse{Name: name}

	var err error
	if resp.BidCount, err = h.index.Count(name, auction.Bid); err == nil {
		if resp.RevealCount, err = h.index.Count(name, auction.Reveal); err == nil {
			if resp.Bids, err = h.index.ListMembers(name, auction.Bid); err == nil {
				resp.Reveals, err = h.index.ListMembers(name, auction.Reveal)
			}
		}
	}
	if err != nil {
		h.log.Errorf("name query failed: name=%s err=%v", name, err)
		respondError(w, http.StatusInternalServerError, fmt.Sprintf("failed to query name '%s'", name))
		return
	}

	if resp.Bids == nil {
		resp.Bids = []chain.Outpoint{}
	}
	if resp.Reveals == nil {
		resp.Reveals = []chain.Outpoint{}
	}

	respondJSON(w, http.StatusOK, resp)
}

// WipeIndex deletes every bid and reveal record. Guarded by the admin
// token; disabled entirely when no token is configured.
func (h *Handler) WipeIndex(w http.ResponseWriter, r *http.Request) {
	if h.adminToken == "" {
		respondError(w, http.StatusForbidden, "administrative wipe is disabled")
		return
	}

	token := bearerToken(r)
	if subtle.ConstantTimeCompare([]byte(token), []byte(h.adminToken)) != 1 {
		respondError(w, http.StatusUnauthorized, "invalid admin token")
		return
	}

	deleted, err := h.index.Wipe()
	if err != nil {
		h.log.Errorf("wipe failed: %v", err)
		respondError(w, http.StatusInternalServerError, "wipe failed")
		return
	}

	h.log.Warnf("index wiped via API: deleted=%d", deleted)
	respondJSON(w, http.StatusOK, WipeResponse{Deleted: deleted})
}

// bearerToken extracts the token of an "Authorization: Bearer ..." header.
func bearerToken(r *http.Request) string {
	value := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(value, prefix) {
		return ""
	}
	return strings.TrimPrefix(value, prefix)
}

func respondJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		// headers already sent; nothing left to do
		return
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, ErrorResponse{Error: message})
}
