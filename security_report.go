package tubeAuth

import (
	"net/http"
	"strings"

	"github.com/MrEthical07/tubeAuth/internal/security"
)

type (
	SecurityReport       = security.Report
	PasswordConfigReport = security.PasswordReport
)

// SecurityReport summarizes the effective security posture. It never contains
// key material.
func (e *Engine) SecurityReport() SecurityReport {
	if e == nil {
		return SecurityReport{}
	}

	method := strings.ToLower(e.config.JWT.SigningMethod)
	if method == "" {
		method = "hs256"
	}
	shortest := len(e.config.JWT.AccessSecret)
	if n := len(e.config.JWT.RefreshSecret); n < shortest {
		shortest = n
	}

	return security.BuildReport(security.ReportInput{
		ProductionMode:   e.config.Security.ProductionMode,
		SigningAlgorithm: method,
		AccessTTL:        e.config.JWT.AccessTTL,
		RefreshTTL:       e.config.JWT.RefreshTTL,
		Password: security.PasswordReport{
			Algorithm:   string(e.hasher.Algorithm()),
			Memory:      e.config.Password.Memory,
			Time:        e.config.Password.Time,
			Parallelism: e.config.Password.Parallelism,
			BcryptCost:  e.config.Password.BcryptCost,
			MinLength:   e.config.Password.MinLength,
		},
		UpgradeOnLogin:    e.config.Password.UpgradeOnLogin,
		AuditEnabled:      e.config.Audit.Enabled,
		AuditDropIfFull:   e.config.Audit.DropIfFull,
		MetricsEnabled:    e.config.Metrics.Enabled,
		CookieSameSite:    sameSiteName(e.config.Cookie.SameSite),
		ShortestSecretLen: shortest,
	})
}

func sameSiteName(s http.SameSite) string {
	switch s {
	case http.SameSiteStrictMode:
		return "strict"
	case http.SameSiteNoneMode:
		return "none"
	case http.SameSiteLaxMode:
		return "lax"
	default:
		return "default"
	}
}
