package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/custodia-labs/sercha-core/internal/core/domain"
	"github.com/custodia-labs/sercha-core/internal/core/ports/driving"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// StatusResponse is a simple status acknowledgement.
type StatusResponse struct {
	Status string `json:"status"`
}

// VersionResponse carries the running build's version string.
type VersionResponse struct {
	Version string `json:"version"`
}

// HealthResponse reports overall and per-dependency health.
type HealthResponse struct {
	Status     string                     `json:"status"`
	Components map[string]ComponentHealth `json:"components,omitempty"`
}

// ComponentHealth is the health of a single dependency.
type ComponentHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	components := make(map[string]ComponentHealth)
	allHealthy := true

	if s.db != nil {
		if err := s.db.Ping(r.Context()); err != nil {
			components["postgres"] = ComponentHealth{Status: "unhealthy", Message: err.Error()}
			allHealthy = false
		} else {
			components["postgres"] = ComponentHealth{Status: "healthy"}
		}
	}

	if s.vespaAdminService != nil {
		if err := s.vespaAdminService.HealthCheck(r.Context()); err != nil {
			components["vespa"] = ComponentHealth{Status: "unhealthy", Message: err.Error()}
			allHealthy = false
		} else {
			components["vespa"] = ComponentHealth{Status: "healthy"}
		}
	}

	if s.redisClient != nil {
		if err := s.redisClient.Ping(r.Context()); err != nil {
			components["redis"] = ComponentHealth{Status: "unhealthy", Message: err.Error()}
			allHealthy = false
		} else {
			components["redis"] = ComponentHealth{Status: "healthy"}
		}
	}

	components["server"] = ComponentHealth{Status: "healthy"}

	resp := HealthResponse{Status: "healthy", Components: components}
	if !allHealthy {
		resp.Status = "degraded"
	}

	// Always 200: the server is up and answering regardless of dependency health.
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, StatusResponse{Status: "ready"})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, VersionResponse{Version: s.version})
}

// Search

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var query domain.SearchQuery
	if err := json.NewDecoder(r.Body).Decode(&query); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if query.Limit <= 0 {
		query.Limit = domain.DefaultSearchQuery().Limit
	}

	result, err := s.searchService.Search(r.Context(), query)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "search failed")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// Settings

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	matterID := r.PathValue("matterId")

	settings, err := s.settingsService.Get(r.Context(), matterID)
	if err != nil {
		writeDomainError(w, err, "failed to get settings")
		return
	}

	writeJSON(w, http.StatusOK, settings)
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	matterID := r.PathValue("matterId")

	var req driving.UpdateSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	settings, err := s.settingsService.Update(r.Context(), matterID, req)
	if err != nil {
		writeDomainError(w, err, "failed to update settings")
		return
	}

	writeJSON(w, http.StatusOK, settings)
}

func (s *Server) handleGetAISettings(w http.ResponseWriter, r *http.Request) {
	matterID := r.PathValue("matterId")

	settings, err := s.settingsService.GetAISettings(r.Context(), matterID)
	if err != nil {
		writeDomainError(w, err, "failed to get AI settings")
		return
	}

	writeJSON(w, http.StatusOK, settings)
}

func (s *Server) handleUpdateAISettings(w http.ResponseWriter, r *http.Request) {
	matterID := r.PathValue("matterId")

	var req driving.UpdateAISettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	status, err := s.settingsService.UpdateAISettings(r.Context(), matterID, req)
	if err != nil {
		writeDomainError(w, err, "failed to update AI settings")
		return
	}

	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleGetAIStatus(w http.ResponseWriter, r *http.Request) {
	matterID := r.PathValue("matterId")

	status, err := s.settingsService.GetAIStatus(r.Context(), matterID)
	if err != nil {
		writeDomainError(w, err, "failed to get AI status")
		return
	}

	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleTestAIConnection(w http.ResponseWriter, r *http.Request) {
	matterID := r.PathValue("matterId")

	if err := s.settingsService.TestConnection(r.Context(), matterID); err != nil {
		writeDomainError(w, err, "AI connection test failed")
		return
	}

	writeJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
}

// Vespa admin

func (s *Server) handleVespaConnect(w http.ResponseWriter, r *http.Request) {
	var req driving.ConnectVespaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	status, err := s.vespaAdminService.Connect(r.Context(), req)
	if err != nil {
		writeDomainError(w, err, "failed to connect to Vespa")
		return
	}

	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleVespaStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.vespaAdminService.Status(r.Context())
	if err != nil {
		writeDomainError(w, err, "failed to get Vespa status")
		return
	}

	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleVespaHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.vespaAdminService.HealthCheck(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "vespa unhealthy: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, StatusResponse{Status: "healthy"})
}

// Connectors

type connectorInfo struct {
	Type          domain.ConnectorType `json:"type"`
	SupportsOAuth bool                 `json:"supports_oauth"`
}

func (s *Server) handleListConnectors(w http.ResponseWriter, r *http.Request) {
	types := s.connectorRegistry.List()
	infos := make([]connectorInfo, len(types))
	for i, t := range types {
		infos[i] = connectorInfo{Type: t, SupportsOAuth: s.connectorRegistry.SupportsOAuth(t)}
	}

	writeJSON(w, http.StatusOK, infos)
}

// Credentials

func (s *Server) handleListCredentials(w http.ResponseWriter, r *http.Request) {
	summaries, err := s.credentialsService.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list credentials")
		return
	}

	writeJSON(w, http.StatusOK, summaries)
}

func (s *Server) handleCreateCredentials(w http.ResponseWriter, r *http.Request) {
	var creds domain.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.credentialsService.Create(r.Context(), &creds); err != nil {
		writeDomainError(w, err, "failed to create credentials")
		return
	}

	writeJSON(w, http.StatusCreated, creds.ToSummary())
}

func (s *Server) handleGetCredentials(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	creds, err := s.credentialsService.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, err, "failed to get credentials")
		return
	}

	writeJSON(w, http.StatusOK, creds.ToSummary())
}

func (s *Server) handleUpdateCredentials(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var creds domain.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	creds.ID = id

	if err := s.credentialsService.Update(r.Context(), &creds); err != nil {
		writeDomainError(w, err, "failed to update credentials")
		return
	}

	writeJSON(w, http.StatusOK, creds.ToSummary())
}

func (s *Server) handleDeleteCredentials(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if err := s.credentialsService.Delete(r.Context(), id); err != nil {
		writeDomainError(w, err, "failed to delete credentials")
		return
	}

	writeJSON(w, http.StatusOK, StatusResponse{Status: "deleted"})
}

func (s *Server) handleRefreshCredentials(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	creds, err := s.credentialsService.Refresh(r.Context(), id)
	if err != nil {
		writeDomainError(w, err, "failed to refresh credentials")
		return
	}

	writeJSON(w, http.StatusOK, creds.ToSummary())
}

// Installations

func (s *Server) handleListInstallations(w http.ResponseWriter, r *http.Request) {
	installations, err := s.installationService.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list installations")
		return
	}

	writeJSON(w, http.StatusOK, installations)
}

func (s *Server) handleGetInstallation(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	installation, err := s.installationService.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, err, "failed to get installation")
		return
	}

	writeJSON(w, http.StatusOK, installation)
}

func (s *Server) handleDeleteInstallation(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if err := s.installationService.Delete(r.Context(), id); err != nil {
		writeDomainError(w, err, "failed to delete installation")
		return
	}

	writeJSON(w, http.StatusOK, StatusResponse{Status: "deleted"})
}

func (s *Server) handleTestInstallation(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if err := s.installationService.TestConnection(r.Context(), id); err != nil {
		writeDomainError(w, err, "installation connection test failed")
		return
	}

	writeJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
}

// OAuth

func (s *Server) handleOAuthAuthorize(w http.ResponseWriter, r *http.Request) {
	var req driving.AuthorizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := s.oauthService.Authorize(r.Context(), req)
	if err != nil {
		writeOAuthError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// handleOAuthCallback is public: the provider redirects here directly.
func (s *Server) handleOAuthCallback(w http.ResponseWriter, r *http.Request) {
	req := driving.CallbackRequest{
		Code:             r.URL.Query().Get("code"),
		State:            r.URL.Query().Get("state"),
		Error:            r.URL.Query().Get("error"),
		ErrorDescription: r.URL.Query().Get("error_description"),
	}

	resp, err := s.oauthService.Callback(r.Context(), req)
	if err != nil {
		writeOAuthError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func writeOAuthError(w http.ResponseWriter, err error) {
	var oauthErr *driving.OAuthError
	if errors.As(err, &oauthErr) {
		writeJSON(w, http.StatusBadRequest, oauthErr)
		return
	}
	writeError(w, http.StatusInternalServerError, "oauth flow failed")
}

// Orchestrator

func (s *Server) handleOrchestratorRun(w http.ResponseWriter, r *http.Request) {
	results, err := s.orchestrator.Run(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "orchestrator run failed")
		return
	}

	writeJSON(w, http.StatusOK, results)
}

func (s *Server) handleOrchestratorRunConnector(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("connectorName")

	result, err := s.orchestrator.RunConnector(r.Context(), name)
	if err != nil {
		writeDomainError(w, err, "connector run failed")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleOrchestratorState(w http.ResponseWriter, r *http.Request) {
	states, err := s.orchestrator.State(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get orchestrator state")
		return
	}

	writeJSON(w, http.StatusOK, states)
}

// Enrichment

type enrichmentSubmitRequest struct {
	MatterID    string                       `json:"matter_id"`
	DocumentIDs []string                     `json:"document_ids"`
	Prompt      string                       `json:"prompt"`
	Options     domain.EnrichmentJobOptions  `json:"options"`
}

func (s *Server) handleEnrichmentSubmit(w http.ResponseWriter, r *http.Request) {
	var req enrichmentSubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.DocumentIDs) == 0 {
		writeError(w, http.StatusBadRequest, "document_ids is required")
		return
	}

	job := domain.NewEnrichmentJob(req.MatterID, req.Prompt, req.DocumentIDs, req.Options)
	if err := s.enrichmentService.Submit(r.Context(), job); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to submit job")
		return
	}

	writeJSON(w, http.StatusAccepted, job)
}

func (s *Server) handleEnrichmentProgress(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("jobId")

	progress, err := s.enrichmentService.Progress(r.Context(), jobID)
	if err != nil {
		writeDomainError(w, err, "failed to get job progress")
		return
	}

	writeJSON(w, http.StatusOK, progress)
}

func (s *Server) handleEnrichmentSweep(w http.ResponseWriter, r *http.Request) {
	matterID := r.PathValue("matterId")

	job, err := s.enrichmentService.RunSweep(r.Context(), matterID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "sweep failed")
		return
	}
	if job == nil {
		writeJSON(w, http.StatusOK, StatusResponse{Status: "nothing to enrich"})
		return
	}

	writeJSON(w, http.StatusAccepted, job)
}

// writeDomainError maps the shared error taxonomy to an HTTP status.
func writeDomainError(w http.ResponseWriter, err error, fallbackMsg string) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, domain.ErrAlreadyExists):
		writeError(w, http.StatusConflict, "already exists")
	case errors.Is(err, domain.ErrConfig):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrAuth):
		writeError(w, http.StatusUnauthorized, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, fallbackMsg)
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}
