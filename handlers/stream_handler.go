package handlers

import (
	"net/http"

	"github.com/mlbb-arena/arena-backend/services"
)

type StreamHandler struct {
	streamService services.StreamService
}

func NewStreamHandler(streamService services.StreamService) *StreamHandler {
	return &StreamHandler{streamService: streamService}
}

func (h *StreamHandler) GetListing(w http.ResponseWriter, r *http.Request) {
	listing, err := h.streamService.GetListing(r.Context())
	if err != nil {
		serverErrorResponse(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"streams": listing}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
