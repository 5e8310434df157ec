package security

import "time"

type PasswordReport struct {
	Algorithm   string
	Memory      uint32
	Time        uint32
	Parallelism uint8
	BcryptCost  int
	MinLength   int
}

// Report is a configuration posture summary. Warnings lists settings that are
// valid but weaker than recommended.
type Report struct {
	ProductionMode   bool
	SigningAlgorithm string
	AccessTTL        time.Duration
	RefreshTTL       time.Duration
	Password         PasswordReport
	UpgradeOnLogin   bool
	AuditEnabled     bool
	MetricsEnabled   bool
	CookieSameSite   string
	Warnings         []string
}

type ReportInput struct {
	ProductionMode    bool
	SigningAlgorithm  string
	AccessTTL         time.Duration
	RefreshTTL        time.Duration
	Password          PasswordReport
	UpgradeOnLogin    bool
	AuditEnabled      bool
	AuditDropIfFull   bool
	MetricsEnabled    bool
	CookieSameSite    string
	ShortestSecretLen int
}

const (
	recommendedMaxAccessTTL = time.Hour
	recommendedMinSecretLen = 32
	recommendedArgonMemory  = 19 * 1024
	recommendedBcryptCost   = 12
)

func BuildReport(input ReportInput) Report {
	r := Report{
		ProductionMode:   input.ProductionMode,
		SigningAlgorithm: input.SigningAlgorithm,
		AccessTTL:        input.AccessTTL,
		RefreshTTL:       input.RefreshTTL,
		Password:         input.Password,
		UpgradeOnLogin:   input.UpgradeOnLogin,
		AuditEnabled:     input.AuditEnabled,
		MetricsEnabled:   input.MetricsEnabled,
		CookieSameSite:   input.CookieSameSite,
	}

	if input.AccessTTL > recommendedMaxAccessTTL {
		r.Warnings = append(r.Warnings, "access_ttl_long")
	}
	if input.SigningAlgorithm == "hs256" && input.ShortestSecretLen < recommendedMinSecretLen {
		r.Warnings = append(r.Warnings, "jwt_secret_short")
	}
	switch input.Password.Algorithm {
	case "bcrypt":
		if input.Password.BcryptCost < recommendedBcryptCost {
			r.Warnings = append(r.Warnings, "bcrypt_cost_low")
		}
	default:
		if input.Password.Memory < recommendedArgonMemory {
			r.Warnings = append(r.Warnings, "argon2_memory_low")
		}
	}
	if input.Password.MinLength < 8 {
		r.Warnings = append(r.Warnings, "password_min_length_low")
	}
	if !input.AuditEnabled {
		r.Warnings = append(r.Warnings, "audit_disabled")
	} else if input.AuditDropIfFull && input.ProductionMode {
		r.Warnings = append(r.Warnings, "audit_may_drop")
	}
	if input.CookieSameSite == "none" {
		r.Warnings = append(r.Warnings, "cookie_samesite_none")
	}
	return r
}
