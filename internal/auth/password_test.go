package auth

import (
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHasher(t *testing.T) {
	h, err := NewHasher(bcrypt.MinCost)
	if err != nil {
		t.Fatalf("NewHasher: %v", err)
	}

	hash, err := h.Hash("pw123")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if strings.Contains(hash, "pw123") {
		t.Fatal("hash contains the plain password")
	}
	if !h.Verify("pw123", hash) {
		t.Error("Verify rejected the right password")
	}
	if h.Verify("wrong", hash) {
		t.Error("Verify accepted a wrong password")
	}
	if h.VerifyMissing("pw123") {
		t.Error("VerifyMissing must always fail")
	}
}

func TestNewHasher_CostRange(t *testing.T) {
	if _, err := NewHasher(bcrypt.MaxCost + 1); err == nil {
		t.Error("expected error for cost above range")
	}
}
