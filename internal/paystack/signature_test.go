package paystack

import "testing"

func TestVerifySignature(t *testing.T) {
	payload := []byte(`{"event":"charge.success","data":{"reference":"ref_1"}}`)
	sig := ComputeSignature(payload, "sk_test")

	if !VerifySignature(payload, sig, "sk_test") {
		t.Fatal("expected signature to verify")
	}
	if VerifySignature(payload, sig, "sk_other") {
		t.Fatal("expected mismatch with a different secret")
	}
	if VerifySignature([]byte(`{}`), sig, "sk_test") {
		t.Fatal("expected mismatch with a different payload")
	}
	if VerifySignature(payload, "not-hex", "sk_test") {
		t.Fatal("expected malformed signature to fail")
	}
	if VerifySignature(payload, "", "sk_test") {
		t.Fatal("expected empty signature to fail")
	}
}
