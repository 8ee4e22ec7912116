package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"gwi.com/changelog-service/internal/core"
	"gwi.com/changelog-service/internal/gh"
	"gwi.com/changelog-service/internal/greptile"
	"gwi.com/changelog-service/internal/store"
)

const changelogPageSize = 10

type APIHandler struct {
	generator *core.GeneratorService
	history   *gh.Client
	inference *greptile.Client
	dbStore   *store.SQLiteStore
}

func NewAPIHandler(generator *core.GeneratorService, history *gh.Client, inference *greptile.Client, dbStore *store.SQLiteStore) *APIHandler {
	return &APIHandler{
		generator: generator,
		history:   history,
		inference: inference,
		dbStore:   dbStore,
	}
}

type GenerateRequest struct {
	Repository string `json:"repository"`
	Base       string `json:"base,omitempty"`
	Head       string `json:"head,omitempty"`
}

type GenerateResponse struct {
	Changes []store.ChangelogContent `json:"changes"`
}

func (h *APIHandler) GenerateHandler(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Repository == "" {
		respondError(w, http.StatusBadRequest, "Repository is required")
		return
	}

	result, err := h.generator.Generate(r.Context(), req.Repository, req.Base, req.Head)
	if err != nil {
		log.Printf("Error generating changelog for %s: %v", req.Repository, err)
		respondError(w, generateStatusCode(err), "An error occurred while generating the changelog: "+err.Error())
		return
	}

	if result.Indexing {
		respondJSONStatus(w, http.StatusAccepted, map[string]string{
			"message": "Repository indexing has started. Please try again in a few minutes.",
		})
		return
	}

	respondJSON(w, GenerateResponse{Changes: result.Changes})
}

// generateStatusCode maps the workflow error taxonomy onto HTTP statuses:
// caller mistakes are 4xx, upstream trouble is 502, everything else 500.
func generateStatusCode(err error) int {
	switch {
	case errors.Is(err, core.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrEmptyDiffWindow):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrBackendUnavailable),
		errors.Is(err, core.ErrMalformedResponse),
		errors.Is(err, core.ErrSchemaViolation):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

type ListChangelogsResponse struct {
	Changelogs  []store.Changelog `json:"changelogs"`
	TotalPages  int               `json:"totalPages"`
	CurrentPage int               `json:"currentPage"`
}

func (h *APIHandler) ListChangelogsHandler(w http.ResponseWriter, r *http.Request) {
	repository := r.URL.Query().Get("repository")
	page := queryInt(r, "page", 1)

	changelogs, total, err := h.dbStore.ListChangelogs(repository, page, changelogPageSize)
	if err != nil {
		log.Printf("Error listing changelogs for %q: %v", repository, err)
		respondError(w, http.StatusInternalServerError, "An error occurred while listing changelogs")
		return
	}
	if changelogs == nil {
		changelogs = []store.Changelog{}
	}

	respondJSON(w, ListChangelogsResponse{
		Changelogs:  changelogs,
		TotalPages:  (total + changelogPageSize - 1) / changelogPageSize,
		CurrentPage: page,
	})
}

func (h *APIHandler) ListRepositoriesHandler(w http.ResponseWriter, r *http.Request) {
	repositories, err := h.dbStore.ListRepositories()
	if err != nil {
		log.Printf("Error listing repositories: %v", err)
		respondError(w, http.StatusInternalServerError, "An error occurred while listing repositories")
		return
	}
	if repositories == nil {
		repositories = []string{}
	}
	respondJSON(w, repositories)
}

type CommitSummary struct {
	SHA     string `json:"sha"`
	Message string `json:"message"`
	Date    string `json:"date"`
	Author  string `json:"author"`
}

func (h *APIHandler) ListCommitsHandler(w http.ResponseWriter, r *http.Request) {
	repository := r.URL.Query().Get("repository")
	if repository == "" {
		respondError(w, http.StatusBadRequest, "Repository is required")
		return
	}
	ref, err := core.ParseRepository(repository)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	page := queryInt(r, "page", 1)
	perPage := queryInt(r, "per_page", 100)

	commits, err := h.history.ListCommits(r.Context(), ref.Owner, ref.Name, page, perPage)
	if err != nil {
		log.Printf("Error fetching commits for %s: %v", repository, err)
		respondError(w, http.StatusBadGateway, "An error occurred while fetching commits")
		return
	}

	summaries := make([]CommitSummary, 0, len(commits))
	for _, c := range commits {
		message, _, _ := strings.Cut(c.Message, "\n") // first line only
		summaries = append(summaries, CommitSummary{
			SHA:     c.SHA,
			Message: message,
			Date:    c.Date.Format(time.RFC3339),
			Author:  c.Author,
		})
	}
	respondJSON(w, map[string][]CommitSummary{"commits": summaries})
}

func (h *APIHandler) ListReleasesHandler(w http.ResponseWriter, r *http.Request) {
	repository := r.URL.Query().Get("repository")
	if repository == "" {
		respondError(w, http.StatusBadRequest, "Repository is required")
		return
	}
	ref, err := core.ParseRepository(repository)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	releases, err := h.history.ListReleases(r.Context(), ref.Owner, ref.Name, 10)
	if err != nil {
		log.Printf("Error fetching releases for %s: %v", repository, err)
		respondError(w, http.StatusBadGateway, "An error occurred while fetching releases")
		return
	}
	if releases == nil {
		releases = []gh.Release{}
	}
	respondJSON(w, releases)
}

func (h *APIHandler) IndexStatusHandler(w http.ResponseWriter, r *http.Request) {
	repository := r.URL.Query().Get("repository")
	if repository == "" {
		respondError(w, http.StatusBadRequest, "Repository is required")
		return
	}

	status, err := h.inference.CheckIndexed(r.Context(), repository)
	if err != nil {
		log.Printf("Error checking index status for %s: %v", repository, err)
		respondError(w, http.StatusBadGateway, "An error occurred while checking indexing status")
		return
	}
	respondJSON(w, status)
}

type TriggerIndexRequest struct {
	Repository string `json:"repository"`
}

func (h *APIHandler) TriggerIndexHandler(w http.ResponseWriter, r *http.Request) {
	var req TriggerIndexRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Repository == "" {
		respondError(w, http.StatusBadRequest, "Repository is required")
		return
	}

	if err := h.inference.Index(r.Context(), req.Repository); err != nil {
		log.Printf("Error triggering indexing for %s: %v", req.Repository, err)
		respondError(w, http.StatusBadGateway, "An error occurred while triggering indexing")
		return
	}

	respondJSONStatus(w, http.StatusAccepted, map[string]string{"message": "Repository indexing has started."})
}

func queryInt(r *http.Request, key string, defaultValue int) int {
	if value, err := strconv.Atoi(r.URL.Query().Get(key)); err == nil && value > 0 {
		return value
	}
	return defaultValue
}

func respondJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

func respondJSONStatus(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
