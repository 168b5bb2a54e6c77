package domain

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestEncodeDecodeCurrentSchema(t *testing.T) {
	issueDate := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	snap := EmptySnapshot()
	snap.Counterparty.Name = "Acme GmbH"
	snap.Terms.IssueDate = &issueDate
	snap.Terms.TaxRate = 20
	snap.Terms.TaxInclusive = true
	snap.Terms.DiscountPercent = 5
	snap.LineItems = []LineItem{{ID: "1", Name: "Widget", Quantity: 2, UnitPrice: 9.9}}

	raw, err := EncodeSnapshot(snap)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	got, err := DecodeSnapshot(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.SchemaVersion != SnapshotSchemaVersion {
		t.Fatalf("schema = %d, want %d", got.SchemaVersion, SnapshotSchemaVersion)
	}
	if got.Counterparty.Name != "Acme GmbH" || !got.Terms.TaxInclusive || got.Terms.DiscountPercent != 5 {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	if len(got.LineItems) != 1 || got.LineItems[0].Name != "Widget" {
		t.Fatalf("line items mismatch: %+v", got.LineItems)
	}
}

func TestDecodeMigratesLegacyPayload(t *testing.T) {
	legacy := map[string]any{
		"schema_version": 1,
		"counterparty":   map[string]any{"name": "Old Client"},
		"terms": map[string]any{
			"currency": "EUR",
			"tax_rate": 19,
			"discount": 7.5,
		},
		"line_items": []map[string]any{
			{"id": "1", "name": "Legacy item", "quantity": 1, "unit_price": 100},
		},
	}
	raw, err := json.Marshal(legacy)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	got, err := DecodeSnapshot(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.SchemaVersion != SnapshotSchemaVersion {
		t.Fatalf("schema = %d, want %d", got.SchemaVersion, SnapshotSchemaVersion)
	}
	if got.Terms.DiscountPercent != 7.5 {
		t.Fatalf("discount = %v, want 7.5 (migrated from flat discount)", got.Terms.DiscountPercent)
	}
	if got.Terms.TaxInclusive {
		t.Fatal("legacy payloads are always tax exclusive")
	}
	if got.Status != AggregateStatusEditing {
		t.Fatalf("status = %s, want editing default", got.Status)
	}
}

func TestDecodeUnversionedPayloadTreatedAsLegacy(t *testing.T) {
	raw := []byte(`{"counterparty":{"name":"No Version"},"terms":{"tax_rate":10}}`)
	got, err := DecodeSnapshot(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Counterparty.Name != "No Version" || got.SchemaVersion != SnapshotSchemaVersion {
		t.Fatalf("unexpected snapshot: %+v", got)
	}
}

func TestDecodeRejectsNewerAndGarbagePayloads(t *testing.T) {
	if _, err := DecodeSnapshot([]byte(`{"schema_version":99}`)); !errors.Is(err, ErrUnsupportedSnapshot) {
		t.Fatalf("err = %v, want ErrUnsupportedSnapshot", err)
	}
	if _, err := DecodeSnapshot([]byte(`not json`)); !errors.Is(err, ErrUnsupportedSnapshot) {
		t.Fatalf("err = %v, want ErrUnsupportedSnapshot", err)
	}
	if _, err := DecodeSnapshot(nil); !errors.Is(err, ErrUnsupportedSnapshot) {
		t.Fatalf("err = %v, want ErrUnsupportedSnapshot", err)
	}
}

func TestCloneIsDeep(t *testing.T) {
	validUntil := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	snap := EmptySnapshot()
	snap.Terms.ValidUntil = &validUntil
	snap.LineItems = []LineItem{{ID: "1", Name: "Widget"}}

	clone := snap.Clone()
	clone.LineItems[0].Name = "changed"
	*clone.Terms.ValidUntil = validUntil.AddDate(0, 1, 0)

	if snap.LineItems[0].Name != "Widget" {
		t.Fatal("clone aliased line items")
	}
	if !snap.Terms.ValidUntil.Equal(validUntil) {
		t.Fatal("clone aliased terms timestamps")
	}
}
