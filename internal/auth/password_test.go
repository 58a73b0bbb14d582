package auth

import "testing"

func TestVerifySecretPlaintext(t *testing.T) {
	if err := VerifySecret("hunter2", "hunter2"); err != nil {
		t.Fatalf("matching plaintext secret rejected: %v", err)
	}
	if err := VerifySecret("hunter2", "wrong"); err == nil {
		t.Fatal("mismatched plaintext secret accepted")
	}
}

func TestVerifySecretBcrypt(t *testing.T) {
	hashed, err := HashSecret("hunter2", 4)
	if err != nil {
		t.Fatalf("HashSecret: %v", err)
	}
	if err := VerifySecret(hashed, "hunter2"); err != nil {
		t.Fatalf("matching hashed secret rejected: %v", err)
	}
	if err := VerifySecret(hashed, "wrong"); err == nil {
		t.Fatal("mismatched hashed secret accepted")
	}
}

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("test-secret", 5)
	token, _, err := tm.GenerateToken("gooby")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	claims, err := tm.ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if claims.Username != "gooby" {
		t.Fatalf("claims username = %q", claims.Username)
	}
}

func TestParseTokenRejectsWrongKey(t *testing.T) {
	token, _, err := NewTokenManager("secret-a", 5).GenerateToken("gooby")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if _, err := NewTokenManager("secret-b", 5).ParseToken(token); err == nil {
		t.Fatal("token signed with different key accepted")
	}
}
