// Package httpapi exposes the journal ledger and policy registry over REST.
package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	app "github.com/moodvault/journal_layer/internal/app"
	"github.com/moodvault/journal_layer/internal/app/apperr"
	"github.com/moodvault/journal_layer/internal/app/domain/journal"
	"github.com/moodvault/journal_layer/internal/app/events"
	"github.com/moodvault/journal_layer/internal/app/metrics"
	"github.com/moodvault/journal_layer/internal/app/services/journals"
	"github.com/moodvault/journal_layer/internal/app/storage"
)

// Options configures the HTTP surface.
type Options struct {
	JWTSecret     []byte
	DevTokens     []string
	CORSOrigins   []string
	AuditMax      int
	AuditSinkPath string
}

// handler bundles HTTP endpoints for the application services.
type handler struct {
	app         *app.Application
	audit       *auditLog
	jwtSecret   []byte
	devTokens   []string
	corsOrigins []string
}

// NewHandler returns the REST API wrapped in the CORS, auth, audit, and
// metrics middleware chain.
func NewHandler(application *app.Application, opts Options) (http.Handler, error) {
	sink, err := newFileAuditSink(opts.AuditSinkPath)
	if err != nil {
		return nil, fmt.Errorf("open audit sink: %w", err)
	}

	h := &handler{
		app:         application,
		audit:       newAuditLog(opts.AuditMax, sink),
		jwtSecret:   opts.JWTSecret,
		devTokens:   opts.DevTokens,
		corsOrigins: opts.CORSOrigins,
	}

	r := mux.NewRouter()
	r.HandleFunc("/healthz", h.healthz).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	r.HandleFunc("/journals", h.createJournal).Methods(http.MethodPost)
	r.HandleFunc("/journals", h.listJournals).Methods(http.MethodGet)
	r.HandleFunc("/journals/{id}", h.getJournal).Methods(http.MethodGet)
	r.HandleFunc("/journals/{id}/entries", h.mintEntry).Methods(http.MethodPost)
	r.HandleFunc("/journals/{id}/entries", h.listEntryRefs).Methods(http.MethodGet)
	r.HandleFunc("/journals/{id}/entries/{seq}", h.getEntryBySeq).Methods(http.MethodGet)

	r.HandleFunc("/entries/{id}", h.getEntry).Methods(http.MethodGet)
	r.HandleFunc("/entries/{id}/transfer", h.transferEntry).Methods(http.MethodPost)

	r.HandleFunc("/policies", h.createPolicy).Methods(http.MethodPost)
	r.HandleFunc("/policies", h.listPolicies).Methods(http.MethodGet)
	r.HandleFunc("/policies/{entryID}", h.getPolicy).Methods(http.MethodGet)
	r.HandleFunc("/policies/{entryID}/access", h.policyAccess).Methods(http.MethodGet)
	r.HandleFunc("/policies/{entryID}/grants", h.grantAccess).Methods(http.MethodPost)
	r.HandleFunc("/policies/{entryID}/grants/{grantee}", h.revokeAccess).Methods(http.MethodDelete)

	r.HandleFunc("/events", h.listEvents).Methods(http.MethodGet)
	r.HandleFunc("/audit", h.listAudit).Methods(http.MethodGet)

	var chain http.Handler = r
	chain = h.wrapWithAudit(chain)
	chain = h.wrapWithAuth(chain)
	chain = h.wrapWithCORS(chain)
	chain = metrics.InstrumentHandler(chain)
	return chain, nil
}

func caller(r *http.Request) string {
	return r.Header.Get(callerHeader)
}

func (h *handler) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// --- Journals -----------------------------------------------------------------

func (h *handler) createJournal(w http.ResponseWriter, r *http.Request) {
	created, err := h.app.Journals.CreateJournal(r.Context(), caller(r))
	metrics.RecordLedgerOp("create_journal", err)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *handler) listJournals(w http.ResponseWriter, r *http.Request) {
	owned, err := h.app.Journals.ListJournals(r.Context(), r.URL.Query().Get("owner"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, owned)
}

func (h *handler) getJournal(w http.ResponseWriter, r *http.Request) {
	j, err := h.app.Journals.GetJournal(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, j)
}

type attachmentPayload struct {
	URL      string `json:"url"`
	MimeType string `json:"mime_type"`
	Hash     []byte `json:"hash"`
}

func (p attachmentPayload) toDomain() journal.Attachment {
	return journal.Attachment{URL: p.URL, MimeType: p.MimeType, Hash: p.Hash}
}

func (h *handler) mintEntry(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		MoodScore       uint8             `json:"mood_score"`
		MoodText        string            `json:"mood_text"`
		Tags            string            `json:"tags"`
		Image           attachmentPayload `json:"image"`
		Audio           attachmentPayload `json:"audio"`
		AudioDurationMS int64             `json:"audio_duration_ms"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	minted, err := h.app.Journals.MintEntry(r.Context(), caller(r), mux.Vars(r)["id"], journals.MintInput{
		MoodScore:       payload.MoodScore,
		MoodText:        payload.MoodText,
		Tags:            payload.Tags,
		Image:           payload.Image.toDomain(),
		Audio:           payload.Audio.toDomain(),
		AudioDurationMS: payload.AudioDurationMS,
	})
	metrics.RecordLedgerOp("mint_entry", err)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusCreated, minted)
}

func (h *handler) listEntryRefs(w http.ResponseWriter, r *http.Request) {
	refs, err := h.app.Journals.ListEntryRefs(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, refs)
}

func (h *handler) getEntryBySeq(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	seq, err := strconv.ParseUint(vars["seq"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid sequence %q", vars["seq"]))
		return
	}

	e, err := h.app.Journals.GetEntryBySeq(r.Context(), vars["id"], seq)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// --- Entries --------------------------------------------------------------------

func (h *handler) getEntry(w http.ResponseWriter, r *http.Request) {
	e, err := h.app.Journals.GetEntry(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (h *handler) transferEntry(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		To string `json:"to"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	moved, err := h.app.Journals.TransferEntry(r.Context(), caller(r), mux.Vars(r)["id"], payload.To)
	metrics.RecordLedgerOp("transfer_entry", err)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, moved)
}

// --- Policies ---------------------------------------------------------------------

func (h *handler) createPolicy(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		EntryID  string `json:"entry_id"`
		IsPublic bool   `json:"is_public"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	created, err := h.app.Policies.Create(r.Context(), payload.EntryID, caller(r), payload.IsPublic)
	metrics.RecordRegistryOp("create", err)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *handler) listPolicies(w http.ResponseWriter, r *http.Request) {
	all, err := h.app.Policies.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, all)
}

func (h *handler) getPolicy(w http.ResponseWriter, r *http.Request) {
	p, err := h.app.Policies.Get(r.Context(), mux.Vars(r)["entryID"])
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// policyAccess exposes the non-failing accessors in one read. It answers for
// any entry id, policy or not, because indexers probe entries blindly.
func (h *handler) policyAccess(w http.ResponseWriter, r *http.Request) {
	entryID := mux.Vars(r)["entryID"]
	ctx := r.Context()

	requester := r.URL.Query().Get("requester")
	if requester == "" {
		requester = caller(r)
	}

	writeJSON(w, http.StatusOK, struct {
		Exists     bool     `json:"exists"`
		Owner      string   `json:"owner"`
		SealPublic bool     `json:"seal_public"`
		Authorized []string `json:"authorized"`
		Requester  string   `json:"requester,omitempty"`
		HasAccess  bool     `json:"has_access"`
	}{
		Exists:     h.app.Policies.Exists(ctx, entryID),
		Owner:      h.app.Policies.PolicyOwner(ctx, entryID),
		SealPublic: h.app.Policies.IsPublicSeal(ctx, entryID),
		Authorized: h.app.Policies.Authorized(ctx, entryID),
		Requester:  requester,
		HasAccess:  h.app.Policies.HasAccess(ctx, entryID, requester),
	})
}

func (h *handler) grantAccess(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Grantee string `json:"grantee"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	updated, err := h.app.Policies.Grant(r.Context(), mux.Vars(r)["entryID"], payload.Grantee, caller(r))
	metrics.RecordRegistryOp("grant", err)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *handler) revokeAccess(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	updated, err := h.app.Policies.Revoke(r.Context(), vars["entryID"], vars["grantee"], caller(r))
	metrics.RecordRegistryOp("revoke", err)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// --- Events and audit ----------------------------------------------------------

func (h *handler) listEvents(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid limit %q", raw))
			return
		}
		limit = n
	}

	var recent []events.Event
	if typ := strings.TrimSpace(r.URL.Query().Get("type")); typ != "" {
		recent = h.app.Events.RecentByType(events.Type(typ), limit)
	} else {
		recent = h.app.Events.Recent(limit)
	}
	if recent == nil {
		recent = []events.Event{}
	}
	writeJSON(w, http.StatusOK, recent)
}

func (h *handler) listAudit(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid limit %q", raw))
			return
		}
		limit = n
	}
	writeJSON(w, http.StatusOK, h.audit.listLimit(limit))
}

// --- Helpers -----------------------------------------------------------------------

func statusFor(err error) int {
	switch {
	case errors.Is(err, apperr.ErrNotOwner):
		return http.StatusForbidden
	case errors.Is(err, apperr.ErrPolicyNotFound),
		errors.Is(err, apperr.ErrEntryRefNotFound),
		errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperr.ErrAlreadyExists),
		errors.Is(err, apperr.ErrAlreadyAuthorized),
		errors.Is(err, apperr.ErrNotAuthorized):
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}

func decodeJSON(body io.ReadCloser, dst interface{}) error {
	defer body.Close()
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	payload := struct {
		Error string `json:"error"`
		Code  int    `json:"code,omitempty"`
	}{Error: err.Error(), Code: apperr.CodeOf(err)}
	_ = json.NewEncoder(w).Encode(payload)
}
