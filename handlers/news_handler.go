package handlers

import (
	"errors"
	"net/http"

	"github.com/mlbb-arena/arena-backend/middleware"
	"github.com/mlbb-arena/arena-backend/models"
	"github.com/mlbb-arena/arena-backend/services"
)

type NewsHandler struct {
	newsService services.NewsService
}

func NewNewsHandler(newsService services.NewsService) *NewsHandler {
	return &NewsHandler{newsService: newsService}
}

func (h *NewsHandler) CreateNews(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	var input services.CreateNewsInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	item, err := h.newsService.CreateNews(r.Context(), currentUserID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"news": item}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *NewsHandler) GetNews(w http.ResponseWriter, r *http.Request) {
	newsID, err := idParam(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	item, err := h.newsService.GetNews(r.Context(), newsID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"news": item}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *NewsHandler) ListNews(w http.ResponseWriter, r *http.Request) {
	var category *models.NewsCategory
	if raw := r.URL.Query().Get("category"); raw != "" {
		c := models.NewsCategory(raw)
		category = &c
	}

	items, err := h.newsService.ListNews(r.Context(), category)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"news": items}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *NewsHandler) UpdateNews(w http.ResponseWriter, r *http.Request) {
	newsID, err := idParam(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.UpdateNewsInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	item, err := h.newsService.UpdateNews(r.Context(), newsID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"news": item}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *NewsHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	newsID, err := idParam(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		badRequestResponse(w, r, errors.New("content type required"))
		return
	}

	item, err := h.newsService.UploadImage(r.Context(), newsID, contentType, file)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"news": item}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *NewsHandler) DeleteNews(w http.ResponseWriter, r *http.Request) {
	newsID, err := idParam(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.newsService.DeleteNews(r.Context(), newsID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
