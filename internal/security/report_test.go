package security

import (
	"slices"
	"testing"
	"time"
)

func TestBuildReportStrongConfigHasNoWarnings(t *testing.T) {
	r := BuildReport(ReportInput{
		ProductionMode:    true,
		SigningAlgorithm:  "hs256",
		AccessTTL:         15 * time.Minute,
		RefreshTTL:        240 * time.Hour,
		Password:          PasswordReport{Algorithm: "argon2id", Memory: 65536, Time: 3, Parallelism: 2, MinLength: 8},
		AuditEnabled:      true,
		CookieSameSite:    "lax",
		ShortestSecretLen: 64,
	})
	if len(r.Warnings) != 0 {
		t.Fatalf("expected no warnings, got %v", r.Warnings)
	}
}

func TestBuildReportFlagsWeakSettings(t *testing.T) {
	r := BuildReport(ReportInput{
		SigningAlgorithm:  "hs256",
		AccessTTL:         24 * time.Hour,
		Password:          PasswordReport{Algorithm: "bcrypt", BcryptCost: 10, MinLength: 4},
		CookieSameSite:    "none",
		ShortestSecretLen: 8,
	})
	for _, want := range []string{
		"access_ttl_long",
		"jwt_secret_short",
		"bcrypt_cost_low",
		"password_min_length_low",
		"audit_disabled",
		"cookie_samesite_none",
	} {
		if !slices.Contains(r.Warnings, want) {
			t.Fatalf("expected warning %s in %v", want, r.Warnings)
		}
	}
}
