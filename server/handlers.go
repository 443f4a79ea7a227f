package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/componentize/repodata/errors"
	"github.com/componentize/repodata/version"
)

// enqueueRequest is the POST /v1/queue body. It accepts either a manual
// {url, tag} pair or a source-host create-event webhook payload; the
// webhook fields take precedence when present.
type enqueueRequest struct {
	URL string `json:"url"`
	Tag string `json:"tag"`

	Ref        string `json:"ref"`
	RefType    string `json:"ref_type"`
	Repository struct {
		HTMLURL string `json:"html_url"`
	} `json:"repository"`
}

func (req *enqueueRequest) isWebhook() bool {
	return req.RefType != "" || req.Repository.HTMLURL != ""
}

func (s *Server) handleEnqueue(w http.ResponseWriter, r *http.Request) {
	var req enqueueRequest
	if err := readJSON(r, &req); err != nil {
		writeDomainError(w, err)
		return
	}

	url, tag := req.URL, req.Tag
	if req.isWebhook() {
		// Webhooks fire for every created ref. Branches and non-release
		// tags are acknowledged without creating work.
		if req.RefType != "tag" {
			writeJSON(w, http.StatusAccepted, map[string]string{
				"message": "only tag refs are ingested",
			})
			return
		}
		if _, err := version.NormalizeTag(req.Ref); err != nil {
			writeJSON(w, http.StatusAccepted, map[string]string{
				"message": "only semver tags are ingested",
			})
			return
		}
		url, tag = req.Repository.HTMLURL, req.Ref
	}

	ing, err := s.ingestions.Enqueue(r.Context(), url, tag)
	if err != nil {
		if !errors.IsInvalidRequestError(err) && !errors.IsConflictError(err) {
			s.logger.Errorw("Failed to enqueue ingestion", "url", url, "tag", tag, "error", err)
		}
		writeDomainError(w, err)
		return
	}

	s.logger.Infow("Ingestion enqueued", "ingestion_id", ing.ID, "url", ing.URL, "tag", ing.Tag)
	writeJSON(w, http.StatusCreated, ing.Serialize())
}

func (s *Server) handleListQueue(w http.ResponseWriter, r *http.Request) {
	ingestions, err := s.ingestions.List(r.Context())
	if err != nil {
		s.logger.Errorw("Failed to list ingestion queue", "error", err)
		writeDomainError(w, err)
		return
	}

	serialized := make([]interface{}, 0, len(ingestions))
	for _, ing := range ingestions {
		serialized = append(serialized, ing.Serialize())
	}
	writeJSON(w, http.StatusOK, serialized)
}

func (s *Server) handleGetQueued(w http.ResponseWriter, r *http.Request) {
	ing, err := s.ingestions.Get(r.Context(), chi.URLParam(r, "ingestionID"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ing.Serialize())
}

func (s *Server) handleDeleteQueued(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "ingestionID")
	if err := s.ingestions.Delete(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}
	s.logger.Infow("Ingestion removed from queue", "ingestion_id", id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListRepos(w http.ResponseWriter, r *http.Request) {
	repos, err := s.versions.ListRepos(r.Context())
	if err != nil {
		s.logger.Errorw("Failed to list repos", "error", err)
		writeDomainError(w, err)
		return
	}

	summaries := make([]repoSummary, 0, len(repos))
	for _, v := range repos {
		summaries = append(summaries, serializeRepo(v))
	}
	writeJSON(w, http.StatusOK, summaries)
}

func (s *Server) handleListVersions(w http.ResponseWriter, r *http.Request) {
	versions, err := s.versions.ListByRepoID(r.Context(), chi.URLParam(r, "repoID"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if len(versions) == 0 {
		writeError(w, http.StatusNotFound, "repo not found")
		return
	}
	writeJSON(w, http.StatusOK, versions)
}

func (s *Server) handleGetVersion(w http.ResponseWriter, r *http.Request) {
	v, err := s.versions.GetByRepoIDAndID(r.Context(), chi.URLParam(r, "repoID"), chi.URLParam(r, "versionID"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.serializeVersion(v, r.URL.Query().Get("brand")))
}
