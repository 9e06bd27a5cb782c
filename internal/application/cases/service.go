package cases

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/chainsleuth/casefile-api/internal/application"
	domainai "github.com/chainsleuth/casefile-api/internal/domain/ai"
	"github.com/chainsleuth/casefile-api/internal/domain/audit"
	domain "github.com/chainsleuth/casefile-api/internal/domain/cases"
	"github.com/chainsleuth/casefile-api/internal/domain/summary"
)

// Schema versioning: a migration call moves the persisted layout from
// ExpectedSourceVersion to CurrentSchemaVersion, one step, never skipping.
const (
	ExpectedSourceVersion uint32 = 1
	CurrentSchemaVersion  uint32 = 2
)

// Service implements the investigation lifecycle use-cases. All
// state-mutating calls are serialized behind one mutex: the engine is a
// single authoritative executor, and each call either fully applies its
// effects or aborts with none of them visible.
type Service struct {
	Store    domain.Store
	Registry domain.RecordRegistry
	Audit    audit.Repository
	Archive  domain.PayloadArchive
	Clock    application.Clock

	// Admin is the only account allowed to apply webhooks, retry
	// failed mints, migrate the schema, and change the mint price.
	Admin string

	mu        sync.Mutex
	mintPrice *big.Int
	meta      domain.ContractMetadata
}

// DefaultMintPrice is 0.01 NEAR in yocto, the storage deposit required
// to open a case.
const DefaultMintPrice = "10000000000000000000000"

func NewService(store domain.Store, registry domain.RecordRegistry, auditRepo audit.Repository, archive domain.PayloadArchive, clock application.Clock, admin, mintPrice string) (*Service, error) {
	if mintPrice == "" {
		mintPrice = DefaultMintPrice
	}
	price, ok := new(big.Int).SetString(mintPrice, 10)
	if !ok || price.Sign() < 0 {
		return nil, fmt.Errorf("invalid mint price: %q", mintPrice)
	}
	return &Service{
		Store:     store,
		Registry:  registry,
		Audit:     auditRepo,
		Archive:   archive,
		Clock:     clock,
		Admin:     admin,
		mintPrice: price,
		meta:      domain.DefaultContractMetadata(),
	}, nil
}

//
// ==== USE CASES ====
//

type OpenCaseResult struct {
	RecordID      domain.RecordID            `json:"record_id"`
	Status        domain.InvestigationStatus `json:"status"`
	Note          string                     `json:"message,omitempty"`
	Refund        string                     `json:"refund,omitempty"`
	AlreadyExists bool                       `json:"-"`
}

// OpenCase opens an investigation against a subject. Opening twice for
// the same subject is idempotent: the existing record id and status come
// back with a note, no allocation and no mutation. The payment
// precondition is validated before any state changes, so an
// InsufficientPayment rejection leaves nothing behind.
func (s *Service) OpenCase(ctx context.Context, caller, subject, deposit string) (OpenCaseResult, error) {
	if strings.TrimSpace(subject) == "" {
		return OpenCaseResult{}, fmt.Errorf("target account is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Side-effect-free fast path for an existing investigation.
	existing, err := s.Store.CaseBySubject(ctx, subject)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return OpenCaseResult{}, err
	}
	if existing != nil {
		return OpenCaseResult{
			RecordID:      existing.RecordID,
			Status:        existing.Status,
			Note:          "Investigation already exists",
			AlreadyExists: true,
		}, nil
	}

	// Payment gate comes before the mint so a rejection cannot strand a
	// live record.
	attached, err := parseDeposit(deposit)
	if err != nil {
		return OpenCaseResult{}, err
	}
	if attached.Cmp(s.mintPrice) < 0 {
		return OpenCaseResult{}, fmt.Errorf("%w: must attach at least %s yoctoNEAR", domain.ErrInsufficientPayment, s.mintPrice)
	}
	refund := new(big.Int).Sub(attached, s.mintPrice)

	now := s.Clock.Now()
	caseNumber, err := s.Store.AllocateCaseNumber(ctx)
	if err != nil {
		return OpenCaseResult{}, err
	}
	c := domain.NewCase(caseNumber, subject, caller, now)
	extra, err := json.Marshal(c)
	if err != nil {
		return OpenCaseResult{}, err
	}

	if err := s.Registry.Mint(ctx, domain.RecordForCase(c, string(extra), now)); err != nil {
		// Park the snapshot so an administrator can retry; the case
		// stays visible as Failed and the subject stays claimed.
		c.Status = domain.StatusFailed
		if serr := s.Store.PutFailedMint(ctx, c.RecordID, string(extra)); serr != nil {
			return OpenCaseResult{}, serr
		}
		if serr := s.Store.SaveCase(ctx, c); serr != nil {
			return OpenCaseResult{}, serr
		}
		if serr := s.Store.RegisterSubject(ctx, subject, c.RecordID); serr != nil {
			return OpenCaseResult{}, serr
		}
		domain.EmitMintFailed(c.RecordID, subject, now)
		return OpenCaseResult{RecordID: c.RecordID, Status: domain.StatusFailed},
			fmt.Errorf("record mint failed: %w", err)
	}

	if err := s.Store.SaveCase(ctx, c); err != nil {
		return OpenCaseResult{}, err
	}
	if err := s.Store.RegisterSubject(ctx, subject, c.RecordID); err != nil {
		return OpenCaseResult{}, err
	}
	domain.EmitCaseOpened(subject, c.RecordID, caseNumber, now)

	res := OpenCaseResult{RecordID: c.RecordID, Status: domain.StatusPending}
	if refund.Sign() > 0 {
		res.Refund = refund.String()
	}
	return res, nil
}

// ApplyWebhook classifies an inbound report and drives the case state
// machine: status per the transition table, metadata merged for tags
// that carry an update, last_updated bumped, transition event emitted.
// Administrator only.
func (s *Service) ApplyWebhook(ctx context.Context, caller string, id domain.RecordID, tag domain.WebhookType, payload json.RawMessage) (*domain.Case, error) {
	if caller != s.Admin {
		return nil, fmt.Errorf("%w: webhook update from %q", domain.ErrUnauthorized, caller)
	}
	if !domain.ValidWebhookType(tag) {
		return nil, &domain.RejectedError{Reason: fmt.Sprintf("unknown webhook type %q", tag)}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.Store.GetCase(ctx, id)
	if err != nil {
		return nil, err
	}
	now := s.Clock.Now()
	deliveryID := uuid.New().String()
	archiveURL := s.archivePayload(ctx, id, deliveryID, payload)

	// A Log webhook carries no metadata update. The call is a no-op for
	// the case, but it must still be observable, so it lands in the
	// audit trail before being rejected.
	if tag == domain.WebhookLog {
		rejErr := &domain.RejectedError{Reason: "Log webhook does not update metadata"}
		s.recordDelivery(ctx, deliveryID, id, tag, audit.OutcomeRejected, rejErr.Reason, archiveURL, now)
		return nil, rejErr
	}

	// Error transitions the status without decoding the body; the tag
	// alone is the report.
	if !tag.RequiresMerge() {
		c.Status = tag.NextStatus(c.Status)
		c.LastUpdated = now
		if err := s.persistCase(ctx, c, now); err != nil {
			return nil, err
		}
		s.recordDelivery(ctx, deliveryID, id, tag, audit.OutcomeApplied, "", archiveURL, now)
		domain.EmitMetadataUpdated(id, tag, c.Status, now)
		return c, nil
	}

	partial, err := domain.DecodePartialUpdate(payload)
	if err != nil {
		domain.EmitDeserializationError(id, err.Error(), now)
		s.recordDelivery(ctx, deliveryID, id, tag, audit.OutcomeFailed, err.Error(), archiveURL, now)
		return nil, err
	}
	if !partial.Empty() {
		enrichFromSummary(&partial)
	}

	domain.Merge(c, partial, now)
	c.Status = tag.NextStatus(c.Status)
	if err := s.persistCase(ctx, c, now); err != nil {
		return nil, err
	}
	s.recordDelivery(ctx, deliveryID, id, tag, audit.OutcomeApplied, "", archiveURL, now)
	domain.EmitMetadataUpdated(id, tag, c.Status, now)
	return c, nil
}

// RetryCase re-mints a record whose creation failed, from the buffered
// metadata snapshot. Effectively idempotent against duplicate delivery:
// once the buffer entry is gone, a second retry reports NotFound
// instead of re-minting. Administrator only.
func (s *Service) RetryCase(ctx context.Context, caller string, id domain.RecordID) (*domain.Case, error) {
	if caller != s.Admin {
		return nil, fmt.Errorf("%w: retry from %q", domain.ErrUnauthorized, caller)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	buffered, err := s.Store.GetFailedMint(ctx, id)
	if err != nil {
		return nil, err
	}
	var c domain.Case
	if err := json.Unmarshal([]byte(buffered), &c); err != nil {
		return nil, fmt.Errorf("%w: buffered mint metadata: %v", domain.ErrDeserializationFailed, err)
	}

	now := s.Clock.Now()
	c.Status = domain.StatusPending
	c.LastUpdated = now
	if err := s.Registry.Mint(ctx, domain.RecordForCase(&c, buffered, now)); err != nil {
		// Buffer entry stays; the retry can be attempted again.
		return nil, fmt.Errorf("record mint failed: %w", err)
	}
	if err := s.Store.SaveCase(ctx, &c); err != nil {
		return nil, err
	}
	if err := s.Store.RegisterSubject(ctx, c.Subject, id); err != nil {
		return nil, err
	}
	if err := s.Store.DeleteFailedMint(ctx, id); err != nil {
		return nil, err
	}
	domain.EmitRetrySucceeded(id, c.Subject, now)
	return &c, nil
}

// MigrateSchema advances the persisted schema by exactly one version.
// Rejected unless the current version matches the expected source
// version. Administrator only.
func (s *Service) MigrateSchema(ctx context.Context, caller string) (uint32, uint32, error) {
	if caller != s.Admin {
		return 0, 0, fmt.Errorf("%w: migrate from %q", domain.ErrUnauthorized, caller)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.Store.SchemaVersion(ctx)
	if err != nil {
		return 0, 0, err
	}
	if current != ExpectedSourceVersion {
		return 0, 0, fmt.Errorf("%w: can only migrate from version %d, state is at %d",
			domain.ErrVersionMismatch, ExpectedSourceVersion, current)
	}
	next := current + 1
	if err := s.Store.SetSchemaVersion(ctx, next); err != nil {
		return 0, 0, err
	}
	domain.EmitMigrated(current, next, s.Clock.Now())
	return current, next, nil
}

// AttachSummaries merges AI-generated summaries into a case without
// touching its status. Administrator only.
func (s *Service) AttachSummaries(ctx context.Context, caller string, id domain.RecordID, sums domainai.Summaries) (*domain.Case, error) {
	if caller != s.Admin {
		return nil, fmt.Errorf("%w: summarize from %q", domain.ErrUnauthorized, caller)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.Store.GetCase(ctx, id)
	if err != nil {
		return nil, err
	}
	now := s.Clock.Now()
	domain.Merge(c, domain.PartialUpdate{Result: &domain.PartialResult{
		RobustSummary: &sums.RobustSummary,
		ShortSummary:  &sums.ShortSummary,
	}}, now)
	if err := s.persistCase(ctx, c, now); err != nil {
		return nil, err
	}
	return c, nil
}

// SetMintPrice changes the deposit threshold for opening a case.
// Administrator only.
func (s *Service) SetMintPrice(caller, price string) error {
	if caller != s.Admin {
		return fmt.Errorf("%w: set mint price from %q", domain.ErrUnauthorized, caller)
	}
	p, ok := new(big.Int).SetString(price, 10)
	if !ok || p.Sign() < 0 {
		return fmt.Errorf("invalid mint price: %q", price)
	}
	s.mu.Lock()
	s.mintPrice = p
	s.mu.Unlock()
	return nil
}

// MintPrice returns the current deposit threshold in yoctoNEAR.
func (s *Service) MintPrice() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mintPrice.String()
}

//
// ==== QUERIES (read-only, no authorization) ====
//

// Status returns the investigation status for a record id.
func (s *Service) Status(ctx context.Context, id domain.RecordID) (domain.InvestigationStatus, error) {
	c, err := s.Store.GetCase(ctx, id)
	if err != nil {
		return "", err
	}
	return c.Status, nil
}

// CaseWithRecord pairs engine-owned case state with the registry's view
// of the backing record.
type CaseWithRecord struct {
	Case   *domain.Case   `json:"case"`
	Record *domain.Record `json:"record,omitempty"`
}

// GetCase returns the full case plus the registry record when it exists.
func (s *Service) GetCase(ctx context.Context, id domain.RecordID) (*CaseWithRecord, error) {
	c, err := s.Store.GetCase(ctx, id)
	if err != nil {
		return nil, err
	}
	rec, err := s.Registry.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &CaseWithRecord{Case: c, Record: rec}, nil
}

// CaseBySubject resolves the live case for a subject account.
func (s *Service) CaseBySubject(ctx context.Context, subject string) (*CaseWithRecord, error) {
	c, err := s.Store.CaseBySubject(ctx, subject)
	if err != nil {
		return nil, err
	}
	return s.GetCase(ctx, c.RecordID)
}

// List enumerates cases with bounded pagination.
func (s *Service) List(ctx context.Context, page, pageSize int) (domain.PaginatedResult, error) {
	page, pageSize = domain.ClampPage(page, pageSize)
	return s.Store.Paginate(ctx, page, pageSize)
}

// RecordsByOwner enumerates registry records held by an owner.
func (s *Service) RecordsByOwner(ctx context.Context, owner string, page, pageSize int) ([]*domain.Record, error) {
	page, pageSize = domain.ClampPage(page, pageSize)
	return s.Registry.TokensForOwner(ctx, owner, (page-1)*pageSize, pageSize)
}

// ContractMetadata returns the static registry descriptor.
func (s *Service) ContractMetadata() domain.ContractMetadata {
	return s.meta
}

//
// ==== helpers ====
//

func parseDeposit(deposit string) (*big.Int, error) {
	if strings.TrimSpace(deposit) == "" {
		return big.NewInt(0), nil
	}
	v, ok := new(big.Int).SetString(deposit, 10)
	if !ok || v.Sign() < 0 {
		return nil, fmt.Errorf("invalid deposit: %q", deposit)
	}
	return v, nil
}

// persistCase writes the case back to the store and refreshes the
// registry blob when the record is live. The engine is the source of
// truth for the structured fields; a registry write failure is logged
// but does not fail the call.
func (s *Service) persistCase(ctx context.Context, c *domain.Case, now time.Time) error {
	if err := s.Store.SaveCase(ctx, c); err != nil {
		return err
	}
	rec, err := s.Registry.Get(ctx, c.RecordID)
	if err != nil || rec == nil {
		return nil
	}
	extra, err := json.Marshal(c)
	if err != nil {
		return nil
	}
	desc := "Investigation in progress..."
	if c.Analysis.RobustSummary != nil && *c.Analysis.RobustSummary != "" {
		desc = *c.Analysis.RobustSummary
	}
	if err := s.Registry.UpdateMetadata(ctx, c.RecordID, desc, string(extra)); err != nil {
		log.Printf("registry metadata update failed for %s: %v", c.RecordID, err)
	}
	return nil
}

func (s *Service) archivePayload(ctx context.Context, id domain.RecordID, deliveryID string, payload []byte) string {
	if s.Archive == nil || len(payload) == 0 {
		return ""
	}
	key := fmt.Sprintf("webhooks/%d/%s.json", crcKey(string(id)), deliveryID)
	url, err := s.Archive.Archive(ctx, key, payload, "application/json")
	if err != nil {
		log.Printf("payload archive failed for %s: %v", id, err)
		return ""
	}
	return url
}

// crcKey flattens a record id into an archive-safe numeric bucket; the
// id itself contains spaces and '#'.
func crcKey(id string) uint32 {
	var h uint32 = 2166136261
	for i := 0; i < len(id); i++ {
		h ^= uint32(id[i])
		h *= 16777619
	}
	return h
}

func (s *Service) recordDelivery(ctx context.Context, deliveryID string, id domain.RecordID, tag domain.WebhookType, outcome audit.Outcome, msg, archiveURL string, now time.Time) {
	if s.Audit == nil {
		return
	}
	d := &audit.Delivery{
		DeliveryID: deliveryID,
		RecordID:   string(id),
		Tag:        string(tag),
		Outcome:    outcome,
		Message:    msg,
		ArchiveURL: archiveURL,
		CreatedAt:  now,
	}
	if err := s.Audit.Save(ctx, d); err != nil {
		log.Printf("audit save failed for %s: %v", id, err)
	}
}

// enrichFromSummary backfills financial and analysis leaves from the
// robust summary text when the payload carried the text but not the
// structured fields. The parser is tolerant: anything it cannot read is
// simply left absent.
func enrichFromSummary(p *domain.PartialUpdate) {
	r := p.Result
	if r == nil || r.RobustSummary == nil {
		return
	}
	parsed := summary.Parse(*r.RobustSummary)

	if r.FinancialData == nil {
		fin := &domain.PartialFinancial{}
		touched := false
		if parsed.TotalUSDValue != "" {
			v := summary.CurrencyString(parsed.TotalUSDValue)
			fin.TotalUsdValue = &v
			touched = true
		}
		if parsed.NearBalance != "" {
			v := summary.CurrencyString(parsed.NearBalance)
			fin.NearBalance = &v
			touched = true
		}
		if parsed.DefiValue != "" {
			v := summary.CurrencyString(parsed.DefiValue)
			fin.DefiValue = &v
			touched = true
		}
		if touched {
			r.FinancialData = fin
		}
	}
	if r.TransactionCount == nil && parsed.TransactionCount != "" {
		v := summary.Count(parsed.TransactionCount)
		r.TransactionCount = &v
	}
	if r.IsBot == nil && parsed.IsBot == "false" {
		v := false
		r.IsBot = &v
	}
}
