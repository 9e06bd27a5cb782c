package cases

import (
	"errors"
	"testing"
)

func TestNextStatusTransitionTable(t *testing.T) {
	starts := []InvestigationStatus{StatusPending, StatusProcessing, StatusCompleted, StatusFailed}

	tests := []struct {
		tag  WebhookType
		want func(current InvestigationStatus) InvestigationStatus
	}{
		{WebhookProgress, func(InvestigationStatus) InvestigationStatus { return StatusProcessing }},
		{WebhookMetadataReady, func(InvestigationStatus) InvestigationStatus { return StatusProcessing }},
		{WebhookCompletion, func(InvestigationStatus) InvestigationStatus { return StatusCompleted }},
		{WebhookError, func(InvestigationStatus) InvestigationStatus { return StatusFailed }},
		{WebhookLog, func(current InvestigationStatus) InvestigationStatus { return current }},
	}

	for _, tt := range tests {
		for _, start := range starts {
			if got, want := tt.tag.NextStatus(start), tt.want(start); got != want {
				t.Errorf("%s from %s = %s, want %s", tt.tag, start, got, want)
			}
		}
	}
}

func TestValidWebhookType(t *testing.T) {
	for _, tag := range []WebhookType{WebhookProgress, WebhookCompletion, WebhookError, WebhookMetadataReady, WebhookLog} {
		if !ValidWebhookType(tag) {
			t.Errorf("ValidWebhookType(%s) = false", tag)
		}
	}
	if ValidWebhookType("Unknown") {
		t.Error("ValidWebhookType(Unknown) = true")
	}
	if ValidWebhookType("progress") {
		t.Error("tags must be case-sensitive")
	}
}

func TestRequiresMerge(t *testing.T) {
	tests := map[WebhookType]bool{
		WebhookProgress:      true,
		WebhookCompletion:    true,
		WebhookMetadataReady: true,
		WebhookError:         false,
		WebhookLog:           false,
	}
	for tag, want := range tests {
		if got := tag.RequiresMerge(); got != want {
			t.Errorf("RequiresMerge(%s) = %v, want %v", tag, got, want)
		}
	}
}

func TestDecodePartialUpdate(t *testing.T) {
	p, err := DecodePartialUpdate([]byte(`{"status":"Processing","result":{"transactionCount":7,"financialData":{"nearBalance":"1.5"}}}`))
	if err != nil {
		t.Fatalf("DecodePartialUpdate: %v", err)
	}
	if p.Status == nil || *p.Status != StatusProcessing {
		t.Errorf("Status = %v", p.Status)
	}
	if p.Result == nil || p.Result.TransactionCount == nil || *p.Result.TransactionCount != 7 {
		t.Errorf("TransactionCount not decoded: %+v", p.Result)
	}
	if p.Result.FinancialData == nil || *p.Result.FinancialData.NearBalance != "1.5" {
		t.Errorf("FinancialData not decoded: %+v", p.Result.FinancialData)
	}
}

func TestDecodePartialUpdateMalformed(t *testing.T) {
	if _, err := DecodePartialUpdate([]byte(`{not json`)); !errors.Is(err, ErrDeserializationFailed) {
		t.Errorf("err = %v, want ErrDeserializationFailed", err)
	}
}

func TestDecodePartialUpdateUnknownStatus(t *testing.T) {
	if _, err := DecodePartialUpdate([]byte(`{"status":"Archived"}`)); !errors.Is(err, ErrDeserializationFailed) {
		t.Errorf("err = %v, want ErrDeserializationFailed", err)
	}
}

func TestDecodePartialUpdateEmptyPayload(t *testing.T) {
	p, err := DecodePartialUpdate(nil)
	if err != nil {
		t.Fatalf("DecodePartialUpdate(nil): %v", err)
	}
	if !p.Empty() {
		t.Errorf("empty payload should decode to an empty update")
	}
}
