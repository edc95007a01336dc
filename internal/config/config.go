package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	AppPort string

	MySQLHost string
	MySQLPort string
	MySQLDB   string
	MySQLUser string
	MySQLPass string

	RedisAddr string
	RedisDB   int

	IdempTTLSecs int

	Mpesa  MpesaConfig
	Policy Policy
}

// MpesaConfig holds the Daraja credentials. BaseURL points at the sandbox by
// default; tests override it with an httptest server.
type MpesaConfig struct {
	BaseURL        string
	ConsumerKey    string
	ConsumerSecret string
	ShortCode      string
	Passkey        string
	CallbackURL    string
	CountryCode    string
	TimeoutSecs    int
}

// Policy carries the business numbers that product keeps revising.
// Everything here is injected, never read from package globals, so each
// number is independently testable.
type Policy struct {
	// Interest-rate table (annual percent).
	BaseRate          decimal.Decimal
	HighScoreCutoff   int             // score >= cutoff -> HighScoreDiscount
	HighScoreDiscount decimal.Decimal
	MidScoreCutoff    int
	MidScoreDiscount  decimal.Decimal
	LongTermMonths    int // term > this adds LongTermSurcharge
	LongTermSurcharge decimal.Decimal

	ActiveLoanCap int
	MinTermMonths int
	MaxTermMonths int
	CreditLine    decimal.Decimal
}

// DefaultPolicy mirrors the numbers product signed off on so far.
func DefaultPolicy() Policy {
	return Policy{
		BaseRate:          decimal.NewFromFloat(12.0),
		HighScoreCutoff:   750,
		HighScoreDiscount: decimal.NewFromFloat(4.0),
		MidScoreCutoff:    650,
		MidScoreDiscount:  decimal.NewFromFloat(2.0),
		LongTermMonths:    36,
		LongTermSurcharge: decimal.NewFromFloat(2.0),
		ActiveLoanCap:     3,
		MinTermMonths:     12,
		MaxTermMonths:     360,
		CreditLine:        decimal.NewFromInt(100_000),
	}
}

func getenv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func getenvInt(k string, d int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return d
}

func Load() *Config {
	// .env is optional; real deployments use the environment directly.
	_ = godotenv.Load()

	c := &Config{
		AppPort:   getenv("APP_PORT", "8080"),
		MySQLHost: getenv("MYSQL_HOST", "mysql"),
		MySQLPort: getenv("MYSQL_PORT", "3306"),
		MySQLDB:   getenv("MYSQL_DB", "loanflow"),
		MySQLUser: getenv("MYSQL_USER", "loanflow"),
		MySQLPass: getenv("MYSQL_PASS", "loanflow"),

		RedisAddr:    getenv("REDIS_ADDR", "redis:6379"),
		RedisDB:      getenvInt("REDIS_DB", 0),
		IdempTTLSecs: getenvInt("IDEMPOTENCY_TTL_SECONDS", 300),

		Mpesa: MpesaConfig{
			BaseURL:        getenv("MPESA_BASE_URL", "https://sandbox.safaricom.co.ke"),
			ConsumerKey:    getenv("MPESA_CONSUMER_KEY", ""),
			ConsumerSecret: getenv("MPESA_CONSUMER_SECRET", ""),
			ShortCode:      getenv("MPESA_SHORTCODE", ""),
			Passkey:        getenv("MPESA_PASSKEY", ""),
			CallbackURL:    getenv("MPESA_CALLBACK_URL", ""),
			CountryCode:    getenv("MPESA_COUNTRY_CODE", "254"),
			TimeoutSecs:    getenvInt("MPESA_TIMEOUT_SECONDS", 30),
		},
		Policy: DefaultPolicy(),
	}

	c.Policy.ActiveLoanCap = getenvInt("POLICY_ACTIVE_LOAN_CAP", c.Policy.ActiveLoanCap)
	c.Policy.MinTermMonths = getenvInt("POLICY_MIN_TERM_MONTHS", c.Policy.MinTermMonths)
	c.Policy.MaxTermMonths = getenvInt("POLICY_MAX_TERM_MONTHS", c.Policy.MaxTermMonths)
	return c
}

func (c *Config) Validate() error {
	if c.MySQLHost == "" || c.MySQLPort == "" || c.MySQLDB == "" || c.MySQLUser == "" {
		return errors.New("missing MySQL config (MYSQL_HOST/PORT/DB/USER)")
	}
	if _, err := net.LookupPort("tcp", c.MySQLPort); err != nil {
		return fmt.Errorf("invalid MYSQL_PORT %q: %w", c.MySQLPort, err)
	}
	if c.AppPort == "" {
		return errors.New("missing APP_PORT")
	}
	if c.Policy.ActiveLoanCap <= 0 {
		return errors.New("POLICY_ACTIVE_LOAN_CAP must be positive")
	}
	if c.Policy.MinTermMonths <= 0 || c.Policy.MaxTermMonths < c.Policy.MinTermMonths {
		return errors.New("invalid term-month policy bounds")
	}
	return nil
}

func (c *Config) mysqlAddr() string { return net.JoinHostPort(c.MySQLHost, c.MySQLPort) }

func (c *Config) MySQLDSN() string {
	// multiStatements=true is handy for migrations; parseTime needed for DATETIME
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?multiStatements=true&parseTime=true&charset=utf8mb4,utf8",
		c.MySQLUser, c.MySQLPass, c.mysqlAddr(), c.MySQLDB)
}
