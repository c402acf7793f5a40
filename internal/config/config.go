package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config consolidates the deployment knobs that used to be scattered
// across per-site copies of the engine: pass mark, admin allow-list,
// which identity fields the start form collects, and what the
// certificate shows.
type Config struct {
	HTTPAddr string

	DBDriver string
	DBDSN    string

	// Engine
	PassMark     int // percentage threshold
	SampleSize   int
	AdvanceDelay time.Duration // single-choice auto-advance

	// Question bank: http(s) URL or local file path
	BankURL string

	// Identity capture
	AdminNames        []string // lower-cased, gate history views
	CollectEmployeeNo bool
	CollectDepartment bool

	// Certificate
	TemplatePath       string // http(s) URL or local file path
	FontPath           string
	CertShowDepartment bool
	CertIssuer         string
	CourseTitle        string

	CORSOrigins []string
}

// FromEnv builds the config from the environment, reading a .env file
// first when one is present.
func FromEnv() Config {
	_ = godotenv.Load()

	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	return Config{
		HTTPAddr: addr,

		DBDriver: envOr("DB_DRIVER", "sqlite"),
		DBDSN:    envOr("DB_DSN", ""),

		PassMark:     envInt("PASS_MARK", 10),
		SampleSize:   envInt("SAMPLE_SIZE", 10),
		AdvanceDelay: envDuration("ADVANCE_DELAY", 300*time.Millisecond),

		BankURL: envOr("BANK_URL", "./assets/questions.json"),

		AdminNames:        lower(csvOr("ADMIN_NAMES", "joseph-admin,queenie-admin")),
		CollectEmployeeNo: envBool("COLLECT_EMPLOYEE_NO", true),
		CollectDepartment: envBool("COLLECT_DEPARTMENT", true),

		TemplatePath:       envOr("CERT_TEMPLATE", "./assets/certCompleted.jpg"),
		FontPath:           envOr("CERT_FONT", "./assets/SimSun.ttf"),
		CertShowDepartment: envBool("CERT_SHOW_DEPARTMENT", true),
		CertIssuer:         envOr("CERT_ISSUER", "Bosch Automotive Products (Shenzhen)"),
		CourseTitle:        envOr("COURSE_TITLE", "MA Strategy quiz"),

		CORSOrigins: csvOr("CORS_ORIGINS", "http://localhost:3000"),
	}
}

// IsAdmin reports whether a participant name is on the allow-list.
func (c Config) IsAdmin(name string) bool {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, a := range c.AdminNames {
		if a == name {
			return true
		}
	}
	return false
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func envInt(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
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

func envDuration(k string, def time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
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

func lower(xs []string) []string {
	for i := range xs {
		xs[i] = strings.ToLower(xs[i])
	}
	return xs
}
