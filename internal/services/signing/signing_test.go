package signing

import (
	"errors"
	"testing"
	"time"
)

func TestSignVerify(t *testing.T) {
	t.Parallel()

	token, err := Sign("s3cret", time.Now())
	if err != nil {
		t.Fatalf("Sign() error = %v", err)
	}

	v, err := NewVerifier("s3cret")
	if err != nil {
		t.Fatalf("NewVerifier() error = %v", err)
	}
	if err := v.Verify(token); err != nil {
		t.Errorf("Verify() error = %v", err)
	}
}

func TestVerify_Rejects(t *testing.T) {
	t.Parallel()

	good, err := Sign("s3cret", time.Now())
	if err != nil {
		t.Fatalf("Sign() error = %v", err)
	}
	expired, err := Sign("s3cret", time.Now().Add(-2*DefaultTTL))
	if err != nil {
		t.Fatalf("Sign() error = %v", err)
	}

	tests := []struct {
		name   string
		secret string
		token  string
	}{
		{"wrong secret", "other", good},
		{"expired", "s3cret", expired},
		{"garbage", "s3cret", "not-a-token"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			v, err := NewVerifier(tt.secret)
			if err != nil {
				t.Fatalf("NewVerifier() error = %v", err)
			}
			if err := v.Verify(tt.token); err == nil {
				t.Error("expected verification error")
			}
		})
	}
}

func TestEmptySecret(t *testing.T) {
	t.Parallel()

	if _, err := Sign("", time.Now()); !errors.Is(err, ErrEmptySecret) {
		t.Errorf("Sign(\"\") error = %v, want ErrEmptySecret", err)
	}
	if _, err := NewVerifier(""); !errors.Is(err, ErrEmptySecret) {
		t.Errorf("NewVerifier(\"\") error = %v, want ErrEmptySecret", err)
	}
}
