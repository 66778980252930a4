// Package api exposes the HTTP surface consumed by the GUI collaborator.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/PNOGillespie/aiidalab-qe/internal/domain"
	"github.com/PNOGillespie/aiidalab-qe/internal/platform/auth"
	"github.com/PNOGillespie/aiidalab-qe/internal/repo"
	"github.com/PNOGillespie/aiidalab-qe/internal/service/runs"
)

type API struct {
	logger *slog.Logger
	runs   *runs.Service
}

func New(logger *slog.Logger, svc *runs.Service) *API {
	return &API{logger: logger, runs: svc}
}

func (api *API) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/runs", api.handleSubmitRun)
	mux.HandleFunc("GET /v1/runs", api.handleListRuns)
	mux.HandleFunc("GET /v1/runs/{run_id}", api.handleGetRun)
	mux.HandleFunc("POST /v1/runs:blockers", api.handleBlockers)
}

type codeSelection struct {
	Ref      string `json:"ref"`
	Computer string `json:"computer,omitempty"`
}

type environmentStatus struct {
	SetupBusy        bool `json:"setup_busy"`
	PseudosInstalled bool `json:"pseudos_installed"`
}

type submitRunRequest struct {
	Structure   *domain.StructureData      `json:"structure"`
	Parameters  *domain.ParametersDocument `json:"parameters"`
	Codes       map[string]codeSelection   `json:"codes"`
	Environment environmentStatus          `json:"environment"`
}

type runView struct {
	RunID        string     `json:"run_id"`
	Label        string     `json:"label"`
	Formula      string     `json:"formula"`
	Properties   []string   `json:"properties"`
	State        string     `json:"state"`
	ExitStatus   int        `json:"exit_status"`
	UIParameters string     `json:"ui_parameters,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	EndedAt      *time.Time `json:"ended_at,omitempty"`
}

func toRunView(record domain.RunRecord, includeParameters bool) runView {
	view := runView{
		RunID:      record.ID,
		Label:      record.Label,
		Formula:    record.Formula,
		Properties: record.Properties,
		State:      string(record.State),
		ExitStatus: record.ExitStatus,
		CreatedAt:  record.CreatedAt,
		EndedAt:    record.EndedAt,
	}
	if view.Properties == nil {
		view.Properties = []string{}
	}
	if includeParameters {
		view.UIParameters = string(record.UIParameters)
	}
	return view
}

func (api *API) handleSubmitRun(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok || strings.TrimSpace(identity.Subject) == "" {
		api.writeError(w, r, http.StatusInternalServerError, "internal_error")
		return
	}
	sessionID, _ := auth.SessionIDFromContext(r.Context())
	if strings.TrimSpace(sessionID) == "" {
		api.writeError(w, r, http.StatusBadRequest, "session_id_required")
		return
	}

	var req submitRunRequest
	if err := decodeJSON(r, &req); err != nil {
		api.writeError(w, r, http.StatusBadRequest, "invalid_json")
		return
	}
	if err := req.Structure.Validate(); err != nil {
		api.writeError(w, r, http.StatusBadRequest, "invalid_structure")
		return
	}
	if req.Parameters == nil {
		api.writeError(w, r, http.StatusBadRequest, "parameters_required")
		return
	}
	if err := req.Parameters.Validate(); err != nil {
		api.writeError(w, r, http.StatusBadRequest, "invalid_parameters")
		return
	}

	record, err := api.runs.Submit(r.Context(), runs.SubmitRequest{
		SessionID:  sessionID,
		Structure:  req.Structure,
		Parameters: req.Parameters,
		Codes:      toCodeInfo(req.Codes),
		Environment: runs.Environment{
			SetupBusy:        req.Environment.SetupBusy,
			PseudosInstalled: req.Environment.PseudosInstalled,
		},
		Audit: runs.AuditInfo{
			Actor:     identity.Subject,
			RequestID: r.Header.Get("X-Request-Id"),
			UserAgent: r.UserAgent(),
			IP:        requestIP(r.RemoteAddr),
		},
	})
	if err != nil {
		var blocked *runs.BlockedError
		if errors.As(err, &blocked) {
			api.writeJSON(w, http.StatusConflict, map[string]any{
				"error":      "submission_blocked",
				"blockers":   blocked.Blockers,
				"request_id": r.Header.Get("X-Request-Id"),
			})
			return
		}
		if errors.Is(err, runs.ErrSubmissionInFlight) {
			api.writeError(w, r, http.StatusConflict, "run_in_flight")
			return
		}
		api.log().Error("run submission failed", "request_id", r.Header.Get("X-Request-Id"), "error", err.Error())
		api.writeError(w, r, http.StatusInternalServerError, "internal_error")
		return
	}

	api.writeJSON(w, http.StatusCreated, toRunView(record, false))
}

func (api *API) handleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := clampInt(parseIntQuery(r, "limit", 100), 1, 500)
	var state domain.RunState
	if raw := strings.TrimSpace(r.URL.Query().Get("state")); raw != "" {
		state = domain.NormalizeRunState(raw)
		if state == "" {
			api.writeError(w, r, http.StatusBadRequest, "invalid_state")
			return
		}
	}
	filter := repo.RunFilter{
		Property: strings.TrimSpace(r.URL.Query().Get("property")),
		State:    state,
		Limit:    limit,
	}

	records, err := api.runs.ListRuns(r.Context(), filter)
	if err != nil {
		api.log().Error("run list failed", "request_id", r.Header.Get("X-Request-Id"), "error", err.Error())
		api.writeError(w, r, http.StatusInternalServerError, "internal_error")
		return
	}

	out := make([]runView, 0, len(records))
	for _, record := range records {
		out = append(out, toRunView(record, false))
	}
	api.writeJSON(w, http.StatusOK, map[string]any{"runs": out})
}

func (api *API) handleGetRun(w http.ResponseWriter, r *http.Request) {
	runID := strings.TrimSpace(r.PathValue("run_id"))
	if runID == "" {
		api.writeError(w, r, http.StatusBadRequest, "run_id_required")
		return
	}

	record, err := api.runs.GetRun(r.Context(), runID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			api.writeError(w, r, http.StatusNotFound, "not_found")
			return
		}
		api.log().Error("run fetch failed", "request_id", r.Header.Get("X-Request-Id"), "error", err.Error())
		api.writeError(w, r, http.StatusInternalServerError, "internal_error")
		return
	}

	api.writeJSON(w, http.StatusOK, toRunView(record, true))
}

type blockersRequest struct {
	Parameters  *domain.ParametersDocument `json:"parameters"`
	Codes       map[string]codeSelection   `json:"codes"`
	Environment environmentStatus          `json:"environment"`
}

// handleBlockers previews the advisory blockers for a candidate selection
// without submitting anything.
func (api *API) handleBlockers(w http.ResponseWriter, r *http.Request) {
	var req blockersRequest
	if err := decodeJSON(r, &req); err != nil {
		api.writeError(w, r, http.StatusBadRequest, "invalid_json")
		return
	}

	blockers := runs.SubmissionBlockers(req.Parameters, toCodeInfo(req.Codes), runs.Environment{
		SetupBusy:        req.Environment.SetupBusy,
		PseudosInstalled: req.Environment.PseudosInstalled,
	})
	if blockers == nil {
		blockers = []string{}
	}
	api.writeJSON(w, http.StatusOK, map[string]any{"blockers": blockers})
}

func toCodeInfo(codes map[string]codeSelection) map[string]runs.CodeInfo {
	if len(codes) == 0 {
		return nil
	}
	out := make(map[string]runs.CodeInfo, len(codes))
	for name, code := range codes {
		out[name] = runs.CodeInfo{
			Ref:      strings.TrimSpace(code.Ref),
			Computer: strings.TrimSpace(code.Computer),
		}
	}
	return out
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return errors.New("multiple JSON values")
	}
	return nil
}

func (api *API) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(true)
	_ = enc.Encode(body)
}

func (api *API) writeError(w http.ResponseWriter, r *http.Request, status int, code string) {
	api.writeJSON(w, status, map[string]any{
		"error":      code,
		"request_id": r.Header.Get("X-Request-Id"),
	})
}

func (api *API) log() *slog.Logger {
	if api == nil || api.logger == nil {
		return slog.Default()
	}
	return api.logger
}

func requestIP(remoteAddr string) net.IP {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return nil
	}
	return net.ParseIP(host)
}

func parseIntQuery(r *http.Request, key string, fallback int) int {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

func clampInt(value, min, max int) int {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
