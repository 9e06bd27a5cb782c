package cases

import "context"

// Store port: the single authoritative case store. Collections are
// independently keyed (counter, subject index, cases, failed-mint
// buffer, schema version); the engine maintains the invariants across
// them.
type Store interface {
	AllocateCaseNumber(ctx context.Context) (uint64, error)

	SaveCase(ctx context.Context, c *Case) error
	GetCase(ctx context.Context, id RecordID) (*Case, error)
	CaseBySubject(ctx context.Context, subject string) (*Case, error)

	RegisterSubject(ctx context.Context, subject string, id RecordID) error

	PutFailedMint(ctx context.Context, id RecordID, metadata string) error
	GetFailedMint(ctx context.Context, id RecordID) (string, error)
	DeleteFailedMint(ctx context.Context, id RecordID) error

	Paginate(ctx context.Context, page, pageSize int) (PaginatedResult, error)

	SchemaVersion(ctx context.Context) (uint32, error)
	SetSchemaVersion(ctx context.Context, v uint32) error
}

// RecordRegistry port: the external asset/ownership registry. The
// engine treats it as authoritative storage of ownership and of the
// last-written metadata blob, injected so the engine's invariants can
// be tested against a fake.
type RecordRegistry interface {
	Mint(ctx context.Context, rec Record) error
	Get(ctx context.Context, id RecordID) (*Record, error)
	UpdateMetadata(ctx context.Context, id RecordID, description, extra string) error
	Transfer(ctx context.Context, sender, receiver string, id RecordID) error
	// ResolveTransfer finalizes or rolls back a transfer; it returns
	// true when the transfer was rolled back to the previous owner.
	ResolveTransfer(ctx context.Context, previousOwner, receiver string, id RecordID) (bool, error)
	Tokens(ctx context.Context, from, limit int) ([]*Record, error)
	TokensForOwner(ctx context.Context, owner string, from, limit int) ([]*Record, error)
	TotalSupply(ctx context.Context) (uint64, error)
}

// PayloadArchive port: durable storage for raw webhook payloads and
// raw summary strings, kept for audit.
type PayloadArchive interface {
	Archive(ctx context.Context, key string, body []byte, contentType string) (string, error)
}
