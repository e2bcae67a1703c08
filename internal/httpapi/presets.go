package httpapi

import (
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"presethub/internal/app/presets"
	"presethub/internal/storage"
	"presethub/internal/store"
)

const (
	maxNameLength        = 100
	maxDescriptionLength = 1000
	maxSourceLength      = 200

	// multipartOverheadBytes leaves room for the text fields and part
	// boundaries beyond the preset file itself.
	multipartOverheadBytes = 64 << 10
)

type presetForm struct {
	name        string
	description *string
	source      *string
	isPublic    bool
	publicSet   bool
	tagIDs      []string
	tagsSet     bool
	file        *presets.Upload
}

// parsePresetForm reads and validates the multipart body shared by the
// create and update endpoints. It writes the error response itself when the
// form is unusable.
func (s *Server) parsePresetForm(w http.ResponseWriter, r *http.Request) (presetForm, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes+multipartOverheadBytes)

	if err := r.ParseMultipartForm(s.maxUploadBytes); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: "preset file is too large"})
			return presetForm{}, false
		}
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid multipart payload"})
		return presetForm{}, false
	}

	form := presetForm{
		name:     strings.TrimSpace(r.FormValue("name")),
		isPublic: true,
	}

	if form.name == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "name is required"})
		return presetForm{}, false
	}
	if len(form.name) > maxNameLength {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "name is too long"})
		return presetForm{}, false
	}

	if v := strings.TrimSpace(r.FormValue("description")); v != "" {
		if len(v) > maxDescriptionLength {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "description is too long"})
			return presetForm{}, false
		}
		form.description = &v
	}
	if v := strings.TrimSpace(r.FormValue("source")); v != "" {
		if len(v) > maxSourceLength {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "source is too long"})
			return presetForm{}, false
		}
		form.source = &v
	}

	if v := r.FormValue("isPublic"); v != "" {
		isPublic, err := strconv.ParseBool(v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid isPublic value"})
			return presetForm{}, false
		}
		form.isPublic = isPublic
		form.publicSet = true
	}

	if values, ok := r.MultipartForm.Value["tagIds"]; ok {
		form.tagsSet = true
		form.tagIDs = splitTagIDs(values)
	}

	file, header, err := r.FormFile("file")
	switch {
	case errors.Is(err, http.ErrMissingFile):
		// The services reject a missing file where it is required.
	case err != nil:
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid preset file"})
		return presetForm{}, false
	default:
		if header.Size == 0 {
			file.Close()
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "preset file is empty"})
			return presetForm{}, false
		}
		if header.Size > s.maxUploadBytes {
			file.Close()
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: "preset file is too large"})
			return presetForm{}, false
		}
		form.file = &presets.Upload{
			Body:        file,
			Filename:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Size:        header.Size,
		}
	}

	return form, true
}

func closeFormFile(form presetForm) {
	if form.file == nil {
		return
	}
	if closer, ok := form.file.Body.(multipart.File); ok {
		closer.Close()
	}
}

func splitTagIDs(values []string) []string {
	var ids []string
	for _, v := range values {
		for _, id := range strings.Split(v, ",") {
			if id = strings.TrimSpace(id); id != "" {
				ids = append(ids, id)
			}
		}
	}
	return ids
}

func (s *Server) handleListPresets(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := store.PresetFilter{
		Search:   query.Get("search"),
		AuthorID: query.Get("author"),
		TagIDs:   splitTagIDs(query["tags"]),
		SortBy:   query.Get("sort"),
	}

	if pageStr := query.Get("page"); pageStr != "" {
		page, err := strconv.Atoi(pageStr)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid page parameter"})
			return
		}
		filter.Page = page
	}
	if sizeStr := query.Get("pageSize"); sizeStr != "" {
		size, err := strconv.Atoi(sizeStr)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid pageSize parameter"})
			return
		}
		filter.PageSize = size
	}

	summaries, err := s.catalog.List(r.Context(), filter)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Presets []store.PresetSummary `json:"presets"`
	}{Presets: summaries})
}

func (s *Server) handleGetPreset(w http.ResponseWriter, r *http.Request) {
	detail, err := s.catalog.Get(r.Context(), r.PathValue("slug"))
	if err != nil {
		if errors.Is(err, store.ErrPresetNotFound) {
			writeJSON(w, http.StatusNotFound, errorResponse{Error: "preset not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, detail)
}

// handleCreatePreset publishes a preset. A valid bearer token attributes the
// preset to its author; anonymous uploads are accepted and stay unowned.
func (s *Server) handleCreatePreset(w http.ResponseWriter, r *http.Request) {
	claims, present, err := s.authenticate(r)
	if present && err != nil {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "invalid or expired token"})
		return
	}

	form, ok := s.parsePresetForm(w, r)
	if !ok {
		return
	}
	defer closeFormFile(form)

	in := presets.CreateInput{
		Name:        form.name,
		Description: form.description,
		Source:      form.source,
		IsPublic:    form.isPublic,
		TagIDs:      form.tagIDs,
		File:        form.file,
	}
	if present {
		in.AuthorID = &claims.UserID
	}

	created, err := s.presets.Create(r.Context(), in)
	if err != nil {
		writeJSON(w, presetErrorStatus(err), errorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdatePreset(w http.ResponseWriter, r *http.Request) {
	claims, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	form, ok := s.parsePresetForm(w, r)
	if !ok {
		return
	}
	defer closeFormFile(form)

	// An update replaces the preset's metadata wholesale, so the visibility
	// flag must be explicit; defaulting it would silently publish private
	// presets.
	if !form.publicSet {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "isPublic is required"})
		return
	}

	updated, err := s.presets.Update(r.Context(), r.PathValue("slug"), claims.UserID, presets.UpdateInput{
		Name:        form.name,
		Description: form.description,
		Source:      form.source,
		IsPublic:    form.isPublic,
		TagIDs:      form.tagIDs,
		ReplaceTags: form.tagsSet,
		File:        form.file,
	})
	if err != nil {
		writeJSON(w, presetErrorStatus(err), errorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeletePreset(w http.ResponseWriter, r *http.Request) {
	claims, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	if err := s.presets.Delete(r.Context(), r.PathValue("slug"), claims.UserID); err != nil {
		writeJSON(w, presetErrorStatus(err), errorResponse{Error: err.Error()})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type rateRequest struct {
	Stars int `json:"stars"`
}

type rateResponse struct {
	WilsonScore float64 `json:"wilsonScore"`
}

func (s *Server) handleRatePreset(w http.ResponseWriter, r *http.Request) {
	claims, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	var req rateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON payload"})
		return
	}

	score, err := s.catalog.Rate(r.Context(), r.PathValue("slug"), claims.UserID, req.Stars)
	if err != nil {
		writeJSON(w, presetErrorStatus(err), errorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, rateResponse{WilsonScore: score})
}

// handleDownloadPreset counts the download and redirects the client to a
// short-lived signed URL for the file.
func (s *Server) handleDownloadPreset(w http.ResponseWriter, r *http.Request) {
	url, err := s.presets.DownloadURL(r.Context(), r.PathValue("slug"))
	if err != nil {
		writeJSON(w, presetErrorStatus(err), errorResponse{Error: err.Error()})
		return
	}

	http.Redirect(w, r, url, http.StatusFound)
}

func (s *Server) handleAddFavorite(w http.ResponseWriter, r *http.Request) {
	claims, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	if err := s.favorites.Favorite(r.Context(), claims.UserID, r.PathValue("slug")); err != nil {
		writeJSON(w, presetErrorStatus(err), errorResponse{Error: err.Error()})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRemoveFavorite(w http.ResponseWriter, r *http.Request) {
	claims, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	if err := s.favorites.Unfavorite(r.Context(), claims.UserID, r.PathValue("slug")); err != nil {
		writeJSON(w, presetErrorStatus(err), errorResponse{Error: err.Error()})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := s.tags.List(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Tags []store.Tag `json:"tags"`
	}{Tags: tags})
}

func presetErrorStatus(err error) int {
	switch {
	case errors.Is(err, store.ErrPresetNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, store.ErrInvalidRating), errors.Is(err, presets.ErrFileRequired):
		return http.StatusBadRequest
	case errors.Is(err, storage.ErrStorageFailure):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
