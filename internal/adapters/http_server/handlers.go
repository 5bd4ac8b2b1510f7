package httpserver

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"hotelbook/internal/app"
	"hotelbook/internal/domain"
	"hotelbook/internal/search"
)

type Handlers struct{ D *app.Directory }

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

type hotelInput struct {
	Name     string `json:"name"`
	Location string `json:"location"`
}

type guestInput struct {
	Name    string `json:"name"`
	HotelID int64  `json:"hotel_id"`
}

type hotelGuests struct {
	Hotel  *domain.Hotel   `json:"hotel"`
	Guests []*domain.Guest `json:"guests"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })

	s.mux.Route("/v1/hotels", func(r chi.Router) {
		r.Get("/", h.listHotels)
		r.Post("/", h.createHotel)
		r.Get("/search", h.searchHotels)
		r.Get("/{id}", h.getHotel)
		r.Put("/{id}", h.updateHotel)
		r.Delete("/{id}", h.deleteHotel)
		r.Get("/{id}/guests", h.hotelGuests)
	})
	s.mux.Route("/v1/guests", func(r chi.Router) {
		r.Get("/", h.listGuests)
		r.Post("/", h.createGuest)
		r.Get("/search", h.searchGuests)
		r.Get("/{id}", h.getGuest)
		r.Put("/{id}", h.updateGuest)
		r.Delete("/{id}", h.deleteGuest)
	})
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// writeError maps directory errors onto problem responses.
func writeError(w http.ResponseWriter, err error) {
	var pe *search.PatternError
	switch {
	case errors.Is(err, domain.ErrValidation):
		writeProblem(w, http.StatusUnprocessableEntity, "Validation Failed", err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeProblem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, search.ErrEmptyPattern), errors.As(err, &pe):
		writeProblem(w, http.StatusBadRequest, "Invalid Pattern", err.Error())
	default:
		log.Error().Err(err).Msg("request failed")
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "")
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	return `W/"` + hex.EncodeToString(sum[:]) + `"`, body
}

// writeJSON answers with v, encoded while the directory lock is held so a
// concurrent update cannot change the entities mid-encode. Reads get a weak
// ETag and honour If-None-Match.
func (h *Handlers) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	var (
		etag string
		body []byte
	)
	h.D.View(func() { etag, body = calcETagAndBody(v) })
	if r.Method == http.MethodGet {
		if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
			w.Header().Set("ETag", etag)
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", etag)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write response body")
	}
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a positive number")
		return 0, false
	}
	return id, true
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return false
	}
	return true
}

// ---- hotels ----

func (h *Handlers) listHotels(w http.ResponseWriter, r *http.Request) {
	out, err := h.D.Hotels(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, nonNil(out))
}

func (h *Handlers) createHotel(w http.ResponseWriter, r *http.Request) {
	var in hotelInput
	if !decode(w, r, &in) {
		return
	}
	hotel, err := h.D.CreateHotel(r.Context(), in.Name, in.Location)
	if err != nil {
		writeError(w, err)
		return
	}
	h.writeJSON(w, r, http.StatusCreated, hotel)
}

func (h *Handlers) searchHotels(w http.ResponseWriter, r *http.Request) {
	out, err := h.D.SearchHotels(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, nonNil(out))
}

func (h *Handlers) getHotel(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	hotel, err := h.D.Hotel(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if hotel == nil {
		writeProblem(w, http.StatusNotFound, "Not Found", "hotel not found")
		return
	}
	h.writeJSON(w, r, http.StatusOK, hotel)
}

func (h *Handlers) updateHotel(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var in hotelInput
	if !decode(w, r, &in) {
		return
	}
	hotel, err := h.D.UpdateHotel(r.Context(), id, in.Name, in.Location)
	if err != nil {
		writeError(w, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, hotel)
}

func (h *Handlers) deleteHotel(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if _, err := h.D.DeleteHotel(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) hotelGuests(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	hotel, guests, err := h.D.HotelGuests(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if hotel == nil {
		writeProblem(w, http.StatusNotFound, "Not Found", "hotel not found")
		return
	}
	h.writeJSON(w, r, http.StatusOK, hotelGuests{Hotel: hotel, Guests: nonNil(guests)})
}

// ---- guests ----

func (h *Handlers) listGuests(w http.ResponseWriter, r *http.Request) {
	var (
		out []*domain.Guest
		err error
	)
	if ls := r.URL.Query().Get("max_name_length"); ls != "" {
		n, perr := strconv.Atoi(ls)
		if perr != nil || n < 0 {
			writeProblem(w, http.StatusBadRequest, "Invalid max_name_length", "max_name_length must be a non-negative integer")
			return
		}
		out, err = h.D.GuestsByNameLength(r.Context(), n)
	} else {
		out, err = h.D.Guests(r.Context())
	}
	if err != nil {
		writeError(w, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, nonNil(out))
}

func (h *Handlers) createGuest(w http.ResponseWriter, r *http.Request) {
	var in guestInput
	if !decode(w, r, &in) {
		return
	}
	g, err := h.D.CreateGuest(r.Context(), in.Name, in.HotelID)
	if err != nil {
		writeError(w, err)
		return
	}
	h.writeJSON(w, r, http.StatusCreated, g)
}

func (h *Handlers) searchGuests(w http.ResponseWriter, r *http.Request) {
	out, err := h.D.SearchGuests(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, nonNil(out))
}

func (h *Handlers) getGuest(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	g, err := h.D.Guest(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if g == nil {
		writeProblem(w, http.StatusNotFound, "Not Found", "guest not found")
		return
	}
	h.writeJSON(w, r, http.StatusOK, g)
}

func (h *Handlers) updateGuest(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var in guestInput
	if !decode(w, r, &in) {
		return
	}
	g, err := h.D.UpdateGuest(r.Context(), id, in.Name, in.HotelID)
	if err != nil {
		writeError(w, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, g)
}

func (h *Handlers) deleteGuest(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if _, err := h.D.DeleteGuest(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// nonNil keeps empty collections encoding as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
