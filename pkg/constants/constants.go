// Package constants provides shared constants for the emi-calculator application.
package constants

// DateTimeLayout is the month format used for optional payment dates in
// schedules.
const DateTimeLayout = "2006-01"

// Financial constants
const (
	// MonthsPerYear is the number of months in a year
	MonthsPerYear = 12

	// DecimalPrecision is the precision for currency rounding (2 decimal places)
	DecimalPrecision = 100

	// CurrencyDecimalPlaces is the number of decimal places shown for amounts
	CurrencyDecimalPlaces = 2

	// PercentageMultiplier is used for percentage conversions
	PercentageMultiplier = 100.0

	// BalloonFrequency is the number of months between balloon payments
	BalloonFrequency = MonthsPerYear
)

// Eligibility constants
const (
	// MinCreditScore is the lowest credit score accepted as input
	MinCreditScore = 300

	// MaxCreditScore is the highest credit score accepted as input
	MaxCreditScore = 900

	// EligibleCreditScore is the score below which an applicant is rejected
	EligibleCreditScore = 650
)

// Input limits used by the web UI and re-checked by the service.
const (
	MinPrincipal     = 10000.0
	MaxPrincipal     = 10000000.0
	PrincipalStep    = 10000.0
	DefaultPrincipal = 500000.0

	MinAnnualRate  = 1.0
	MaxAnnualRate  = 20.0
	AnnualRateStep = 0.1

	MinTenureMonths  = 6
	MaxTenureMonths  = 360
	TenureMonthsStep = 6

	ExtraPaymentStep   = 1000.0
	BalloonPaymentStep = 10000.0
	IncomeStep         = 1000.0
)

// Loan type names and their presets.
const (
	LoanTypeCustom   = "Custom"
	LoanTypeHome     = "Home Loan"
	LoanTypeCar      = "Car Loan"
	LoanTypePersonal = "Personal Loan"
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"

	// ExportFormatXLSX is the spreadsheet export format
	ExportFormatXLSX = "xlsx"

	// ExportFormatPDF is the PDF export format
	ExportFormatPDF = "pdf"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "config.yaml"

	// ExampleConfigFile is the example configuration file name
	ExampleConfigFile = "config.yaml.example"

	// DefaultServerConfigFile is the default server configuration file name
	DefaultServerConfigFile = "server-config.yaml"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address for the web UI
	DefaultServerAddress = ":8080"

	// DefaultMaxBodySizeBytes is the default maximum request body size (64 KB)
	DefaultMaxBodySizeBytes int64 = 64 * 1024

	// DefaultSessionTTLSeconds is how long an eligibility decision is remembered
	DefaultSessionTTLSeconds = 3600

	// SessionCookieName is the cookie carrying the session id
	SessionCookieName = "emi_session"

	// SessionBackendMemory keeps sessions in process memory
	SessionBackendMemory = "memory"

	// SessionBackendRedis keeps sessions in Redis
	SessionBackendRedis = "redis"

	// DefaultRedisAddress is used when the redis backend has no address set
	DefaultRedisAddress = "localhost:6379"
)

// Validation constants
const (
	// CurrencyTolerance is the tolerance for currency comparisons (1 cent)
	CurrencyTolerance = 0.01

	// ScheduleTolerance is the tolerance for sums across a full schedule
	ScheduleTolerance = 1e-6
)
