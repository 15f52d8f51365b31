package coinbase

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"testing"
)

func TestVerifyRoundTripAndBitFlips(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 64; i++ {
		body := make([]byte, rng.Intn(256)+1)
		_, _ = rng.Read(body)
		secret := fmt.Sprintf("secret-%d", i)
		sig := ComputeSignature(secret, body)

		if !Verify(body, sig, secret) {
			t.Fatalf("round trip verify failed for case %d", i)
		}

		bit := rng.Intn(len(body) * 8)
		mutated := append([]byte(nil), body...)
		mutated[bit/8] ^= 1 << (bit % 8)
		if Verify(mutated, sig, secret) {
			t.Fatalf("mutated body should not verify for case %d", i)
		}
	}
}

func TestVerifyRejectsEverySignatureBitFlip(t *testing.T) {
	body := []byte(`{"event":{"type":"charge:confirmed","data":{"metadata":{"order_id":"4004"}}}}`)
	sig := ComputeSignature("s", body)
	for pos := 0; pos < len(sig); pos++ {
		for bit := 0; bit < 8; bit++ {
			mutated := []byte(sig)
			mutated[pos] ^= 1 << bit
			if Verify(body, string(mutated), "s") {
				t.Fatalf("flipped bit %d at pos %d (%q -> %q) should not verify", bit, pos, sig[pos], mutated[pos])
			}
		}
	}
}

func TestVerifyRejectsUpperCaseSignature(t *testing.T) {
	body := []byte(`{"id":"1"}`)
	sig := ComputeSignature("s", body)
	upper := strings.ToUpper(sig)
	if upper == sig {
		t.Fatalf("expected signature to contain hex letters: %s", sig)
	}
	if Verify(body, upper, "s") {
		t.Fatalf("upper-case signature should not verify")
	}
	if !Verify(body, "  "+sig+" ", "s") {
		t.Fatalf("surrounding whitespace should be trimmed")
	}
}

func TestVerifyMissingHeaderOrSecret(t *testing.T) {
	body := []byte(`{"event":{"type":"charge:confirmed"}}`)
	sig := ComputeSignature("s", body)
	if Verify(body, "", "s") {
		t.Fatalf("empty header should not verify")
	}
	if Verify(body, sig, "") {
		t.Fatalf("empty secret should not verify")
	}
}

func TestVerifyRequestDistinguishesMissingAndInvalid(t *testing.T) {
	body := []byte(`{"id":"1"}`)
	err := VerifyRequest(map[string]string{}, "", body, "s")
	if !errors.Is(err, ErrSignatureMissing) {
		t.Fatalf("expected ErrSignatureMissing, got %v", err)
	}
	err = VerifyRequest(map[string]string{"x-cc-webhook-signature": "deadbeef"}, "", body, "s")
	if !errors.Is(err, ErrSignatureInvalid) {
		t.Fatalf("expected ErrSignatureInvalid, got %v", err)
	}
	headers := map[string]string{"X-CC-Webhook-Signature": ComputeSignature("s", body)}
	if err := VerifyRequest(headers, "", body, "s"); err != nil {
		t.Fatalf("expected valid signature, got %v", err)
	}
	if !VerifyHeaders(headers, body, "s") {
		t.Fatalf("VerifyHeaders should accept a valid signature")
	}
}

func TestClassifyOrderReference(t *testing.T) {
	cases := []struct {
		raw   string
		kind  OrderReferenceKind
		value string
	}{
		{raw: "12345", kind: OrderReferenceNumericID, value: "12345"},
		{raw: " 4004 ", kind: OrderReferenceNumericID, value: "4004"},
		{raw: "#1003", kind: OrderReferenceDisplayName, value: "#1003"},
		{raw: "1003a", kind: OrderReferenceDisplayName, value: "1003a"},
		{raw: "-5", kind: OrderReferenceDisplayName, value: "-5"},
		{raw: "", kind: OrderReferenceMissing},
		{raw: "   ", kind: OrderReferenceMissing},
	}
	for _, tc := range cases {
		got := ClassifyOrderReference(tc.raw)
		if got.Kind != tc.kind || got.Value != tc.value {
			t.Fatalf("classify %q: got %+v, want kind=%s value=%q", tc.raw, got, tc.kind, tc.value)
		}
	}
}

func TestParseEventChargeConfirmed(t *testing.T) {
	body := []byte(`{
		"id": "delivery-1",
		"event": {
			"id": "evt_1",
			"type": "charge:confirmed",
			"created_at": "2026-01-02T03:04:05Z",
			"data": {
				"id": "charge-uuid-1",
				"code": "ABCD1234",
				"metadata": {"shopify_order_id": "4004", "name": "#1003"},
				"pricing": {"local": {"amount": "12.50", "currency": "usd"}}
			}
		}
	}`)
	event, err := ParseEvent(body, "EUR")
	if err != nil {
		t.Fatalf("parse event failed: %v", err)
	}
	if !event.IsPaymentConfirmed() {
		t.Fatalf("expected payment confirmed kind, got %s", event.Kind)
	}
	if event.OrderReference.Kind != OrderReferenceNumericID || event.OrderReference.Value != "4004" {
		t.Fatalf("unexpected order reference: %+v", event.OrderReference)
	}
	if event.Amount != "12.50" || event.Currency != "USD" {
		t.Fatalf("unexpected pricing: %s %s", event.Amount, event.Currency)
	}
	if event.ChargeID != "charge-uuid-1" || event.ChargeCode != "ABCD1234" {
		t.Fatalf("unexpected charge: %s %s", event.ChargeID, event.ChargeCode)
	}
	if event.IdempotencyKey() != "charge-uuid-1" {
		t.Fatalf("unexpected idempotency key: %s", event.IdempotencyKey())
	}
	if event.OccurredAt == nil || event.OccurredAt.Year() != 2026 {
		t.Fatalf("unexpected occurred at: %v", event.OccurredAt)
	}
}

func TestParseEventDefaultsAndRootDataFallback(t *testing.T) {
	body := []byte(`{"event":{"type":"charge:pending"},"data":{"code":"XYZ","metadata":{"order_id":7788}}}`)
	event, err := ParseEvent(body, "usd")
	if err != nil {
		t.Fatalf("parse event failed: %v", err)
	}
	if event.Kind != EventKindOther {
		t.Fatalf("expected other kind, got %s", event.Kind)
	}
	if event.OrderReference.Value != "7788" || !event.OrderReference.IsNumeric() {
		t.Fatalf("unexpected order reference: %+v", event.OrderReference)
	}
	if event.Amount != "0" || event.Currency != "USD" {
		t.Fatalf("expected default pricing, got %s %s", event.Amount, event.Currency)
	}
	if event.ChargeID != "XYZ" {
		t.Fatalf("expected charge id fallback to code, got %s", event.ChargeID)
	}
}

func TestParseEventMetadataCombinations(t *testing.T) {
	keys := []string{"shopify_order_id", "order_id", "name"}
	values := map[string]string{"shopify_order_id": "111", "order_id": "222", "name": "#333"}
	for mask := 0; mask < 1<<len(keys); mask++ {
		for _, blank := range []bool{false, true} {
			var fields []string
			expected := ""
			for i, key := range keys {
				if mask&(1<<i) == 0 {
					continue
				}
				value := values[key]
				if blank && i == 0 {
					value = " "
				}
				fields = append(fields, fmt.Sprintf("%q:%q", key, value))
				if expected == "" && strings.TrimSpace(value) != "" {
					expected = value
				}
			}
			body := fmt.Sprintf(`{"event":{"type":"charge:confirmed","data":{"metadata":{%s}}}}`, strings.Join(fields, ","))
			event, err := ParseEvent([]byte(body), "USD")
			if err != nil {
				t.Fatalf("mask %d: parse failed: %v", mask, err)
			}
			want := ClassifyOrderReference(expected)
			if event.OrderReference != want {
				t.Fatalf("mask %d blank=%v: got %+v want %+v", mask, blank, event.OrderReference, want)
			}
		}
	}
}

func TestParseEventToleratesOddShapes(t *testing.T) {
	bodies := []string{
		`{}`,
		`{"event":null}`,
		`{"event":"charge:confirmed"}`,
		`{"event":{"type":42,"data":[]}}`,
		`{"event":{"type":"charge:confirmed","data":{"metadata":"x","pricing":{"local":[]}}}}`,
		`{"event":{"type":"charge:confirmed","data":{"pricing":{"local":{"amount":"abc"}}}}}`,
	}
	for _, body := range bodies {
		event, err := ParseEvent([]byte(body), "USD")
		if err != nil {
			t.Fatalf("parse %s failed: %v", body, err)
		}
		if event.Amount != "0" {
			t.Fatalf("expected zero amount for %s, got %s", body, event.Amount)
		}
	}
}

func TestParseEventMalformed(t *testing.T) {
	for _, body := range []string{"", "not-json", `[1,2]`, `"text"`, `{"event":`,
		`{"event":{"type":"charge:confirmed","data":{"metadata":{"shopify_order_id":"4004"}}}} }garbage`,
		`{"id":"1"} {"id":"2"}`} {
		if _, err := ParseEvent([]byte(body), "USD"); !errors.Is(err, ErrPayloadMalformed) {
			t.Fatalf("expected ErrPayloadMalformed for %q, got %v", body, err)
		}
	}
}

func TestNormalizeAmount(t *testing.T) {
	cases := map[string]string{
		"12.50":      "12.50",
		"12.5":       "12.50",
		"12":         "12.00",
		"0.00012345": "0.00012345",
		"-1":         "0",
		"0.00":       "0",
		"":           "0",
	}
	for raw, want := range cases {
		if got := normalizeAmount(raw); got != want {
			t.Fatalf("normalize %q: got %s want %s", raw, got, want)
		}
	}
}
