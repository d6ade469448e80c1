package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"plata/internal/core"
	"plata/internal/storage"
)

type categoryRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

func (req categoryRequest) toCore() core.Category {
	return core.Category{
		Name:  strings.TrimSpace(req.Name),
		Color: strings.TrimSpace(req.Color),
	}
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.store.ListCategories(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "List categories failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Error interno del servidor")
		return
	}

	out := make([]categoryJSON, 0, len(categories))
	for _, c := range categories {
		out = append(out, toCategoryJSON(c))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Formato de solicitud inválido")
		return
	}

	c := req.toCore()
	if err := c.Validate(); err != nil {
		msg, _ := validationMessage(err)
		if msg == "" {
			msg = "Datos inválidos"
		}
		writeError(w, http.StatusUnprocessableEntity, msg)
		return
	}

	created, err := s.store.CreateCategory(r.Context(), c)
	if err != nil {
		slog.ErrorContext(r.Context(), "Create category failed", "name", c.Name, "error", err)
		writeError(w, http.StatusInternalServerError, "Error interno del servidor")
		return
	}
	writeJSON(w, http.StatusCreated, toCategoryJSON(created))
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Identificador inválido")
		return
	}

	var req categoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Formato de solicitud inválido")
		return
	}

	c := req.toCore()
	if err := c.Validate(); err != nil {
		msg, _ := validationMessage(err)
		if msg == "" {
			msg = "Datos inválidos"
		}
		writeError(w, http.StatusUnprocessableEntity, msg)
		return
	}

	updated, err := s.store.UpdateCategory(r.Context(), id, c)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Categoría no encontrada")
		return
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "Update category failed", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "Error interno del servidor")
		return
	}
	writeJSON(w, http.StatusOK, toCategoryJSON(updated))
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Identificador inválido")
		return
	}

	if err := s.store.DeleteCategory(r.Context(), id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Categoría no encontrada")
			return
		}
		slog.ErrorContext(r.Context(), "Delete category failed", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "Error interno del servidor")
		return
	}
	writeMessage(w, http.StatusOK, "Categoría eliminada")
}
