package auth

import (
	"errors"
	"testing"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("Sup3rSecret!")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	if hash == "Sup3rSecret!" {
		t.Fatalf("hash equals plaintext")
	}

	ok, err := CheckPassword("Sup3rSecret!", hash)
	if err != nil {
		t.Fatalf("check password: %v", err)
	}
	if !ok {
		t.Fatalf("expected password to match")
	}

	ok, err = CheckPassword("WrongSecret1!", hash)
	if err != nil {
		t.Fatalf("check wrong password: %v", err)
	}
	if ok {
		t.Fatalf("expected wrong password to be rejected")
	}
}

func TestHashPasswordSaltsEachCall(t *testing.T) {
	first, err := HashPassword("Sup3rSecret!")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	second, err := HashPassword("Sup3rSecret!")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	if first == second {
		t.Fatalf("expected distinct hashes for the same plaintext")
	}
}

func TestCheckPasswordMalformedHash(t *testing.T) {
	if _, err := CheckPassword("whatever", ""); err == nil {
		t.Fatalf("expected error for empty hash")
	}
	if _, err := CheckPassword("whatever", "not-a-bcrypt-hash"); err == nil {
		t.Fatalf("expected error for malformed hash")
	}
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{"valid", "Abcdef1!", false},
		{"valid long", "Sup3rSecretPassw0rd!", false},
		{"too short", "Ab1!xyz", true},
		{"no uppercase", "abcdef1!", true},
		{"no lowercase", "ABCDEF1!", true},
		{"no digit", "Abcdefg!", true},
		{"no symbol", "Abcdefg1", true},
		{"symbol outside accepted set", "Abcdefg1~", true},
		{"empty", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if tt.wantErr {
				if !errors.Is(err, ErrWeakPassword) {
					t.Fatalf("expected ErrWeakPassword, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}
