package cases

import (
	"encoding/json"
	"log"
	"time"
)

// Transition events are emitted as single JSON log lines so downstream
// indexers can tail them the same way they tail the registry's own logs.

const eventStandard = "case-file"
const eventVersion = "1.0.0"

type Event struct {
	Standard string `json:"standard"`
	Version  string `json:"version"`
	Event    string `json:"event"`
	Data     any    `json:"data"`
}

func (e Event) Log() {
	b, err := json.Marshal(e)
	if err != nil {
		log.Printf("event marshal error: %v", err)
		return
	}
	log.Printf("EVENT_JSON:%s", b)
}

func emit(name string, data any) {
	Event{Standard: eventStandard, Version: eventVersion, Event: name, Data: data}.Log()
}

// EmitCaseOpened logs a successful case open.
func EmitCaseOpened(subject string, id RecordID, caseNumber uint64, ts time.Time) {
	emit("case_opened", map[string]any{
		"target_account": subject,
		"record_id":      id,
		"case_number":    caseNumber,
		"timestamp":      ts.UnixNano(),
	})
}

// EmitMetadataUpdated logs an applied webhook transition.
func EmitMetadataUpdated(id RecordID, tag WebhookType, status InvestigationStatus, ts time.Time) {
	emit("metadata_updated", map[string]any{
		"record_id": id,
		"tag":       tag,
		"status":    status,
		"timestamp": ts.UnixNano(),
	})
}

// EmitDeserializationError logs a rejected payload; the caller still
// gets the hard error.
func EmitDeserializationError(id RecordID, cause string, ts time.Time) {
	emit("deserialization_error", map[string]any{
		"record_id": id,
		"error":     cause,
		"timestamp": ts.UnixNano(),
	})
}

// EmitMintFailed logs a mint failure that was parked in the
// failed-mint buffer.
func EmitMintFailed(id RecordID, subject string, ts time.Time) {
	emit("mint_failed", map[string]any{
		"record_id":      id,
		"target_account": subject,
		"timestamp":      ts.UnixNano(),
	})
}

// EmitRetrySucceeded logs a retry that re-minted the record.
func EmitRetrySucceeded(id RecordID, subject string, ts time.Time) {
	emit("retry_succeeded", map[string]any{
		"record_id":      id,
		"target_account": subject,
		"timestamp":      ts.UnixNano(),
	})
}

// EmitMigrated logs a schema migration step.
func EmitMigrated(from, to uint32, ts time.Time) {
	emit("schema_migrated", map[string]any{
		"old_version": from,
		"new_version": to,
		"timestamp":   ts.UnixNano(),
	})
}
