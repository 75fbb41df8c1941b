package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// TextPolicy selects how free-text questions are graded. The platform
// stores a reference answer but auto-grading free text is a policy
// choice, so it is configured rather than assumed.
type TextPolicy string

const (
	// TextPolicyManual scores text questions zero and flags them for
	// reviewer override.
	TextPolicyManual TextPolicy = "manual"
	// TextPolicyExact auto-grades by normalized string match against the
	// reference answer.
	TextPolicyExact TextPolicy = "exact"
	// TextPolicyExclude drops text questions from both total and max.
	TextPolicyExclude TextPolicy = "exclude"
)

type Config struct {
	HTTPAddr  string
	PublicURL string

	DBDriver string
	DBDSN    string

	BlobBasePath string

	AuthSecret string
	TokenTTL   time.Duration

	CORSOrigins []string

	Scoring ScoringPolicy
}

// ScoringPolicy is resolved once at startup and passed into the attempt
// service; nothing below it reads the environment.
type ScoringPolicy struct {
	// PassThreshold is the fraction of MaxScore required to pass, in [0,1].
	PassThreshold float64
	TextPolicy    TextPolicy

	// SingleActiveAttempt rejects starting a test while an unsubmitted
	// attempt on the same test exists for the user.
	SingleActiveAttempt bool

	// EnforceDuration rejects submissions arriving later than
	// started_at + duration + DurationGrace.
	EnforceDuration bool
	DurationGrace   time.Duration
}

func FromEnv() Config {
	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	return Config{
		HTTPAddr:     addr,
		PublicURL:    os.Getenv("PUBLIC_URL"),
		DBDriver:     envOr("DB_DRIVER", "sqlite"),
		DBDSN:        envOr("DB_DSN", ""),
		BlobBasePath: envOr("BLOB_BASE_PATH", "./data"),
		AuthSecret:   envOr("AUTH_HMAC_SECRET", "skillforge-dev-secret"),
		TokenTTL:     envDuration("TOKEN_TTL", 8*time.Hour),
		CORSOrigins:  csvOr("CORS_ORIGINS", "http://localhost:3000"),
		Scoring: ScoringPolicy{
			PassThreshold:       envFloat("PASS_THRESHOLD", 0.6),
			TextPolicy:          textPolicy(envOr("TEXT_GRADING_POLICY", string(TextPolicyManual))),
			SingleActiveAttempt: envBool("SINGLE_ACTIVE_ATTEMPT", false),
			EnforceDuration:     envBool("ENFORCE_DURATION", false),
			DurationGrace:       envDuration("DURATION_GRACE", 30*time.Second),
		},
	}
}

func textPolicy(s string) TextPolicy {
	switch TextPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case TextPolicyExact:
		return TextPolicyExact
	case TextPolicyExclude:
		return TextPolicyExclude
	default:
		return TextPolicyManual
	}
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func envBool(k string, def bool) bool {
	switch os.Getenv(k) {
	case "1", "true", "TRUE", "yes", "YES":
		return true
	case "0", "false", "FALSE", "no", "NO":
		return false
	default:
		return def
	}
}

func envFloat(k string, def float64) float64 {
	if v := os.Getenv(k); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f >= 0 && f <= 1 {
			return f
		}
	}
	return def
}

func envDuration(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return def
}

func csvOr(k, def string) []string {
	v := envOr(k, def)
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
