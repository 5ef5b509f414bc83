package auth

import (
	"encoding/json"
	"strconv"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

// --- Password Hashing Tests ---

func TestHashAndVerifyPassword(t *testing.T) {
	password := "my-secret-password-123"

	hash, err := hashPassword(password)
	if err != nil {
		t.Fatalf("hashPassword failed: %v", err)
	}
	if hash == "" {
		t.Fatal("expected non-empty hash")
	}

	if !verifyPassword(password, hash) {
		t.Error("expected correct password to verify")
	}
	if verifyPassword("wrong-password", hash) {
		t.Error("expected wrong password to fail verification")
	}
}

func TestVerifyPassword_InvalidHash(t *testing.T) {
	tests := []struct {
		name string
		hash string
	}{
		{"empty string", ""},
		{"random text", "not-a-hash"},
		{"too few parts", "$argon2id$v=19$m=65536"},
		{"wrong algorithm", "$argon2i$v=19$m=65536,t=3,p=4$c2FsdA$aGFzaA"},
		{"corrupted salt", "$argon2id$v=19$m=65536,t=3,p=4$!!!invalid$aGFzaA"},
		{"corrupted hash", "$argon2id$v=19$m=65536,t=3,p=4$c2FsdA$!!!invalid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if verifyPassword("password", tt.hash) {
				t.Error("expected invalid hash to fail verification")
			}
		})
	}
}

func TestHashPassword_UniqueSalts(t *testing.T) {
	hash1, err := hashPassword("same-password")
	if err != nil {
		t.Fatalf("hashPassword failed: %v", err)
	}
	hash2, err := hashPassword("same-password")
	if err != nil {
		t.Fatalf("hashPassword failed: %v", err)
	}
	if hash1 == hash2 {
		t.Error("expected different salts to produce different hashes")
	}
}

func TestVerifyPassword_LegacyBcrypt(t *testing.T) {
	legacy, err := bcrypt.GenerateFromPassword([]byte("imported-pass"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	if !verifyPassword("imported-pass", string(legacy)) {
		t.Error("expected legacy bcrypt hash to verify")
	}
	if verifyPassword("other", string(legacy)) {
		t.Error("expected wrong password to fail against bcrypt hash")
	}
}

// --- OTP Tests ---

func TestGenerateOTP_Range(t *testing.T) {
	for i := 0; i < 500; i++ {
		code, err := generateOTP()
		if err != nil {
			t.Fatal(err)
		}
		if len(code) != 6 {
			t.Fatalf("code %q is not six digits", code)
		}
		n, err := strconv.Atoi(code)
		if err != nil || n < 100000 || n > 999999 {
			t.Fatalf("code %q out of range", code)
		}
	}
}

func TestHashOTP_Matches(t *testing.T) {
	h, err := hashOTP("123456", bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	if !otpMatches("123456", h) {
		t.Error("expected code to match its hash")
	}
	if otpMatches("123457", h) {
		t.Error("expected other code not to match")
	}
}

func TestOTPCode_Unmarshal(t *testing.T) {
	tests := []struct {
		body string
		want string
	}{
		{`{"otp":"123456"}`, "123456"},
		{`{"otp":123456}`, "123456"},
		{`{"otp":null}`, ""},
		{`{}`, ""},
	}
	for _, tt := range tests {
		var req VerifyOTPRequest
		if err := json.Unmarshal([]byte(tt.body), &req); err != nil {
			t.Fatalf("%s: %v", tt.body, err)
		}
		if string(req.OTP) != tt.want {
			t.Errorf("%s: got %q, want %q", tt.body, req.OTP, tt.want)
		}
	}
}
