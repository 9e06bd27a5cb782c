package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	appai "github.com/chainsleuth/casefile-api/internal/application/ai"
	appcases "github.com/chainsleuth/casefile-api/internal/application/cases"
	domai "github.com/chainsleuth/casefile-api/internal/domain/ai"
	"github.com/chainsleuth/casefile-api/internal/domain/audit"
	domain "github.com/chainsleuth/casefile-api/internal/domain/cases"
	"github.com/chainsleuth/casefile-api/internal/middleware"
)

type Router struct {
	caseSvc  *appcases.Service
	aiSvc    *appai.Service
	auditLog audit.Repository
}

func NewRouter(caseSvc *appcases.Service, aiSvc *appai.Service, auditLog audit.Repository) http.Handler {
	r := &Router{caseSvc: caseSvc, aiSvc: aiSvc, auditLog: auditLog}
	mux := chi.NewRouter()

	// The dApp frontend calls from the browser.
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	mux.Route("/v1", func(rt chi.Router) {
		rt.Post("/cases", r.wrap(r.handleOpenCase))
		rt.Get("/cases", r.wrap(r.handleListCases))
		rt.Get("/cases/{id}", r.wrap(r.handleGetCase))
		rt.Get("/cases/{id}/status", r.wrap(r.handleStatus))
		rt.Get("/cases/{id}/webhooks", r.wrap(r.handleListDeliveries))
		rt.Post("/cases/{id}/webhook", r.wrap(r.handleWebhook))
		rt.Post("/cases/{id}/retry", r.wrap(r.handleRetry))
		rt.Post("/cases/{id}/summarize", r.wrap(r.handleSummarize))

		rt.Get("/accounts/{account}/case", r.wrap(r.handleCaseBySubject))
		rt.Get("/owners/{owner}/records", r.wrap(r.handleRecordsByOwner))

		rt.Get("/mint-price", r.wrap(r.handleGetMintPrice))
		rt.Get("/contract-metadata", r.wrap(r.handleContractMetadata))

		rt.Post("/admin/migrate", r.wrap(r.handleMigrate))
		rt.Put("/admin/mint-price", r.wrap(r.handleSetMintPrice))
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if err := h(w, req); err != nil {
			switch {
			case errors.Is(err, domain.ErrNotFound):
				http.Error(w, err.Error(), http.StatusNotFound)
			case errors.Is(err, domain.ErrUnauthorized):
				http.Error(w, err.Error(), http.StatusForbidden)
			case errors.Is(err, domain.ErrInsufficientPayment):
				http.Error(w, err.Error(), http.StatusPaymentRequired)
			case errors.Is(err, domain.ErrDeserializationFailed):
				http.Error(w, err.Error(), http.StatusBadRequest)
			case errors.Is(err, domain.ErrVersionMismatch):
				http.Error(w, err.Error(), http.StatusConflict)
			case domain.IsRejected(err):
				http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			case errors.Is(err, domai.ErrQuotaExceeded):
				http.Error(w, "ai quota exceeded", http.StatusTooManyRequests)
			default:
				http.Error(w, err.Error(), http.StatusInternalServerError)
			}
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

// recordID pulls the record id path param; ids contain spaces and '#'
// so clients send them escaped.
func recordID(req *http.Request) (domain.RecordID, error) {
	raw := chi.URLParam(req, "id")
	id, err := url.PathUnescape(raw)
	if err != nil {
		return "", fmt.Errorf("%w: invalid record id: %v", domain.ErrDeserializationFailed, err)
	}
	if err := middleware.ValidateRecordID(id); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrDeserializationFailed, err)
	}
	return domain.RecordID(id), nil
}

// POST /v1/cases
// Body: {"target_account": "...", "deposit": "<yoctoNEAR>"}
func (r *Router) handleOpenCase(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		TargetAccount string `json:"target_account"`
		Deposit       string `json:"deposit"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrDeserializationFailed, err)
	}
	body.TargetAccount = middleware.SanitizeString(body.TargetAccount)
	if err := middleware.ValidateAccountID(body.TargetAccount); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrDeserializationFailed, err)
	}
	if body.Deposit != "" {
		if err := middleware.ValidateDeposit(body.Deposit); err != nil {
			return fmt.Errorf("%w: %v", domain.ErrDeserializationFailed, err)
		}
	}

	caller := middleware.GetCallerFromContext(req.Context())
	res, err := r.caseSvc.OpenCase(req.Context(), caller, body.TargetAccount, body.Deposit)
	if err != nil {
		if res.Status == domain.StatusFailed {
			middleware.IncrementMintsFailed()
		}
		return err
	}
	status := http.StatusCreated
	if res.AlreadyExists {
		status = http.StatusOK
	} else {
		middleware.IncrementCasesOpened()
	}
	return writeJSON(w, status, res)
}

// POST /v1/cases/{id}/webhook
// Body: {"type": "<Progress|Completion|Error|MetadataReady|Log>", "payload": {...}}
func (r *Router) handleWebhook(w http.ResponseWriter, req *http.Request) error {
	id, err := recordID(req)
	if err != nil {
		return err
	}
	var body struct {
		Type    string          `json:"type"`
		Payload json.RawMessage `json:"payload"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrDeserializationFailed, err)
	}

	caller := middleware.GetCallerFromContext(req.Context())
	c, err := r.caseSvc.ApplyWebhook(req.Context(), caller, id, domain.WebhookType(body.Type), body.Payload)
	if err != nil {
		middleware.IncrementWebhooksRejected()
		return err
	}
	middleware.IncrementWebhooksApplied()
	return writeJSON(w, http.StatusOK, c)
}

// POST /v1/cases/{id}/retry
func (r *Router) handleRetry(w http.ResponseWriter, req *http.Request) error {
	id, err := recordID(req)
	if err != nil {
		return err
	}
	caller := middleware.GetCallerFromContext(req.Context())
	c, err := r.caseSvc.RetryCase(req.Context(), caller, id)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, c)
}

// POST /v1/cases/{id}/summarize
// Runs the AI summarizer over the current case metadata and merges the
// result back into the case.
func (r *Router) handleSummarize(w http.ResponseWriter, req *http.Request) error {
	if r.aiSvc == nil {
		return fmt.Errorf("summarization is not configured")
	}
	id, err := recordID(req)
	if err != nil {
		return err
	}
	caller := middleware.GetCallerFromContext(req.Context())

	cw, err := r.caseSvc.GetCase(req.Context(), id)
	if err != nil {
		return err
	}
	meta, err := json.Marshal(cw.Case)
	if err != nil {
		return err
	}
	sums, err := r.aiSvc.Summarize(req.Context(), string(meta))
	if err != nil {
		return err
	}
	c, err := r.caseSvc.AttachSummaries(req.Context(), caller, id, sums)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, c)
}

// GET /v1/cases/{id}/status
func (r *Router) handleStatus(w http.ResponseWriter, req *http.Request) error {
	id, err := recordID(req)
	if err != nil {
		return err
	}
	status, err := r.caseSvc.Status(req.Context(), id)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string]string{
		"record_id": string(id),
		"status":    string(status),
	})
}

// GET /v1/cases/{id}
func (r *Router) handleGetCase(w http.ResponseWriter, req *http.Request) error {
	id, err := recordID(req)
	if err != nil {
		return err
	}
	cw, err := r.caseSvc.GetCase(req.Context(), id)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, cw)
}

// GET /v1/cases?page=&page_size=
func (r *Router) handleListCases(w http.ResponseWriter, req *http.Request) error {
	page, _ := strconv.Atoi(req.URL.Query().Get("page"))
	size, _ := strconv.Atoi(req.URL.Query().Get("page_size"))

	list, err := r.caseSvc.List(req.Context(), page, size)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, list)
}

// GET /v1/cases/{id}/webhooks?limit=
func (r *Router) handleListDeliveries(w http.ResponseWriter, req *http.Request) error {
	if r.auditLog == nil {
		return fmt.Errorf("%w: webhook audit is not configured", domain.ErrNotFound)
	}
	id, err := recordID(req)
	if err != nil {
		return err
	}
	limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))
	list, err := r.auditLog.ListByRecord(req.Context(), string(id), middleware.ValidateLimit(limit))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, list)
}

// GET /v1/accounts/{account}/case
func (r *Router) handleCaseBySubject(w http.ResponseWriter, req *http.Request) error {
	account := chi.URLParam(req, "account")
	cw, err := r.caseSvc.CaseBySubject(req.Context(), account)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, cw)
}

// GET /v1/owners/{owner}/records?page=&page_size=
func (r *Router) handleRecordsByOwner(w http.ResponseWriter, req *http.Request) error {
	owner := chi.URLParam(req, "owner")
	page, _ := strconv.Atoi(req.URL.Query().Get("page"))
	size, _ := strconv.Atoi(req.URL.Query().Get("page_size"))

	records, err := r.caseSvc.RecordsByOwner(req.Context(), owner, page, size)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, records)
}

// GET /v1/mint-price
func (r *Router) handleGetMintPrice(w http.ResponseWriter, req *http.Request) error {
	return writeJSON(w, http.StatusOK, map[string]string{"mint_price": r.caseSvc.MintPrice()})
}

// GET /v1/contract-metadata
func (r *Router) handleContractMetadata(w http.ResponseWriter, req *http.Request) error {
	return writeJSON(w, http.StatusOK, r.caseSvc.ContractMetadata())
}

// POST /v1/admin/migrate
func (r *Router) handleMigrate(w http.ResponseWriter, req *http.Request) error {
	caller := middleware.GetCallerFromContext(req.Context())
	from, to, err := r.caseSvc.MigrateSchema(req.Context(), caller)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string]uint32{"from_version": from, "to_version": to})
}

// PUT /v1/admin/mint-price
// Body: {"mint_price": "<yoctoNEAR>"}
func (r *Router) handleSetMintPrice(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		MintPrice string `json:"mint_price"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrDeserializationFailed, err)
	}
	caller := middleware.GetCallerFromContext(req.Context())
	if err := r.caseSvc.SetMintPrice(caller, body.MintPrice); err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string]string{"mint_price": r.caseSvc.MintPrice()})
}
