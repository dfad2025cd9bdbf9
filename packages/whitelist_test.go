package packages

import (
	"errors"
	"testing"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		language string
		packages []string
		wantOK   bool
	}{
		{"empty is always valid", "python", nil, true},
		{"whitelisted python package", "python", []string{"numpy", "Pandas"}, true},
		{"rejected python package", "python", []string{"malicious-xyz"}, false},
		{"whitelisted js alias", "node", []string{"lodash"}, true},
		{"language with no whitelist rejects everything", "csharp", []string{"Newtonsoft.Json"}, false},
		{"unknown language rejects everything", "ruby", []string{"rails"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, rejected := Validate(tt.language, tt.packages)
			if ok != tt.wantOK {
				t.Fatalf("Validate(%q, %v) ok = %v, rejected = %v, want ok %v", tt.language, tt.packages, ok, rejected, tt.wantOK)
			}
			if ok && len(rejected) != 0 {
				t.Fatalf("expected no rejected packages, got %v", rejected)
			}
		})
	}
}

func TestCheckReturnsNilForAuthorizedRequest(t *testing.T) {
	if err := Check("python", []string{"numpy"}); err != nil {
		t.Fatalf("Check() = %v, want nil", err)
	}
}

func TestCheckReturnsTypedErrorForUnauthorizedRequest(t *testing.T) {
	err := Check("python", []string{"malicious-xyz"})
	var unauthorized *UnauthorizedPackageError
	if !errors.As(err, &unauthorized) {
		t.Fatalf("Check() = %v, want *UnauthorizedPackageError", err)
	}
	if unauthorized.Language != "python" || len(unauthorized.Rejected) != 1 {
		t.Fatalf("unexpected error: %+v", unauthorized)
	}
}
