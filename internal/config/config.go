// Package config defines the data structures related to configuration and
// includes functions for loading and validating it.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/iwvelando/emi-calculator/pkg/constants"
	"github.com/spf13/viper"
)

// Configuration holds all configuration for emi-calculator.
type Configuration struct {
	Logging    LoggingConfig `yaml:"logging,omitempty"`
	Output     OutputConfig  `yaml:"output,omitempty"`
	Defaults   Defaults      `yaml:"defaults,omitempty"`
	LoanTypes  []LoanType    `yaml:"loanTypes,omitempty"`
	Currencies []string      `yaml:"currencies,omitempty"`
	Languages  []string      `yaml:"languages,omitempty"`
	Limits     Limits        `yaml:"limits,omitempty"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `yaml:"level,omitempty"`      // debug, info, warn, error
	Format     string `yaml:"format,omitempty"`     // json, console
	OutputFile string `yaml:"outputFile,omitempty"` // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `yaml:"format,omitempty"` // pretty, csv
}

// Defaults are the values the form starts with.
type Defaults struct {
	LoanType  string  `yaml:"loanType,omitempty"`
	Principal float64 `yaml:"principal,omitempty"`
	Currency  string  `yaml:"currency,omitempty"`
	Language  string  `yaml:"language,omitempty"`
}

// LoanType is a named preset for rate and tenure.
type LoanType struct {
	Name              string  `yaml:"name" json:"name"`
	AnnualRatePercent float64 `yaml:"annualRatePercent" json:"annualRatePercent"`
	TenureMonths      int     `yaml:"tenureMonths" json:"tenureMonths"`
}

// Range bounds one numeric form input.
type Range struct {
	Min  float64 `yaml:"min" json:"min"`
	Max  float64 `yaml:"max" json:"max"`
	Step float64 `yaml:"step" json:"step"`
}

// Contains reports whether v lies within the range. A zero Max means unbounded.
func (r Range) Contains(v float64) bool {
	if v < r.Min {
		return false
	}
	return r.Max == 0 || v <= r.Max
}

// Limits are the bounds of every form input.
type Limits struct {
	Principal      Range `yaml:"principal" json:"principal"`
	AnnualRate     Range `yaml:"annualRate" json:"annualRate"`
	TenureMonths   Range `yaml:"tenureMonths" json:"tenureMonths"`
	ExtraPayment   Range `yaml:"extraPayment" json:"extraPayment"`
	BalloonPayment Range `yaml:"balloonPayment" json:"balloonPayment"`
	Income         Range `yaml:"income" json:"income"`
	CreditScore    Range `yaml:"creditScore" json:"creditScore"`
}

// DefaultLoanTypes returns the built-in presets.
func DefaultLoanTypes() []LoanType {
	return []LoanType{
		{Name: constants.LoanTypeCustom, AnnualRatePercent: 7.5, TenureMonths: 120},
		{Name: constants.LoanTypeHome, AnnualRatePercent: 7.0, TenureMonths: 240},
		{Name: constants.LoanTypeCar, AnnualRatePercent: 9.5, TenureMonths: 60},
		{Name: constants.LoanTypePersonal, AnnualRatePercent: 12.0, TenureMonths: 36},
	}
}

// DefaultLimits returns the built-in input bounds.
func DefaultLimits() Limits {
	return Limits{
		Principal:      Range{Min: constants.MinPrincipal, Max: constants.MaxPrincipal, Step: constants.PrincipalStep},
		AnnualRate:     Range{Min: constants.MinAnnualRate, Max: constants.MaxAnnualRate, Step: constants.AnnualRateStep},
		TenureMonths:   Range{Min: constants.MinTenureMonths, Max: constants.MaxTenureMonths, Step: constants.TenureMonthsStep},
		ExtraPayment:   Range{Min: 0, Step: constants.ExtraPaymentStep},
		BalloonPayment: Range{Min: 0, Step: constants.BalloonPaymentStep},
		Income:         Range{Min: 0, Step: constants.IncomeStep},
		CreditScore:    Range{Min: constants.MinCreditScore, Max: constants.MaxCreditScore, Step: 1},
	}
}

// DefaultConfiguration returns a configuration populated with built-in values.
func DefaultConfiguration() *Configuration {
	conf := &Configuration{}
	conf.applyDefaults()
	return conf
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there. A missing file yields the built-in defaults.
func LoadConfiguration(configPath string) (*Configuration, error) {
	if _, err := os.Stat(configPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return DefaultConfiguration(), nil
		}
		return nil, fmt.Errorf("error reading config file, %s", err)
	}

	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yml")
	v.SetEnvPrefix("EMI")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file, %s", err)
	}
	return decode(v)
}

// LoadConfigurationFromReader loads YAML configuration from an arbitrary reader.
func LoadConfigurationFromReader(r io.Reader) (*Configuration, error) {
	v := viper.New()
	v.SetConfigType("yml")

	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("error reading config data, %s", err)
	}
	return decode(v)
}

func decode(v *viper.Viper) (*Configuration, error) {
	var configuration Configuration
	if err := v.Unmarshal(&configuration); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %s", err)
	}
	configuration.applyDefaults()
	return &configuration, nil
}

func (conf *Configuration) applyDefaults() {
	if len(conf.LoanTypes) == 0 {
		conf.LoanTypes = DefaultLoanTypes()
	}
	if len(conf.Currencies) == 0 {
		conf.Currencies = []string{"PKR", "₹", "$", "€", "£"}
	}
	if len(conf.Languages) == 0 {
		conf.Languages = []string{"English", "Urdu"}
	}

	defaults := DefaultLimits()
	if conf.Limits.Principal == (Range{}) {
		conf.Limits.Principal = defaults.Principal
	}
	if conf.Limits.AnnualRate == (Range{}) {
		conf.Limits.AnnualRate = defaults.AnnualRate
	}
	if conf.Limits.TenureMonths == (Range{}) {
		conf.Limits.TenureMonths = defaults.TenureMonths
	}
	if conf.Limits.ExtraPayment == (Range{}) {
		conf.Limits.ExtraPayment = defaults.ExtraPayment
	}
	if conf.Limits.BalloonPayment == (Range{}) {
		conf.Limits.BalloonPayment = defaults.BalloonPayment
	}
	if conf.Limits.Income == (Range{}) {
		conf.Limits.Income = defaults.Income
	}
	if conf.Limits.CreditScore == (Range{}) {
		conf.Limits.CreditScore = defaults.CreditScore
	}

	if conf.Defaults.LoanType == "" {
		conf.Defaults.LoanType = conf.LoanTypes[0].Name
	}
	if conf.Defaults.Principal == 0 {
		conf.Defaults.Principal = constants.DefaultPrincipal
	}
	if conf.Defaults.Currency == "" {
		conf.Defaults.Currency = conf.Currencies[0]
	}
	if conf.Defaults.Language == "" {
		conf.Defaults.Language = conf.Languages[0]
	}
}

// LoanType looks up a preset by name.
func (conf *Configuration) LoanType(name string) (LoanType, bool) {
	for _, lt := range conf.LoanTypes {
		if lt.Name == name {
			return lt, true
		}
	}
	return LoanType{}, false
}

// HasCurrency reports whether symbol is one of the configured currencies.
func (conf *Configuration) HasCurrency(symbol string) bool {
	return contains(conf.Currencies, symbol)
}

// HasLanguage reports whether name is one of the configured languages.
func (conf *Configuration) HasLanguage(name string) bool {
	return contains(conf.Languages, name)
}

func contains(values []string, want string) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}

// ValidateConfiguration performs general validation of the configuration and returns warnings
func (conf *Configuration) ValidateConfiguration() []string {
	var warnings []string

	seen := make(map[string]struct{}, len(conf.LoanTypes))
	for _, lt := range conf.LoanTypes {
		if lt.Name == "" {
			warnings = append(warnings, "Loan type with empty name")
			continue
		}
		if _, dup := seen[lt.Name]; dup {
			warnings = append(warnings, fmt.Sprintf("Loan type '%s' is defined more than once; the first definition is used", lt.Name))
		}
		seen[lt.Name] = struct{}{}

		if !conf.Limits.AnnualRate.Contains(lt.AnnualRatePercent) {
			warnings = append(warnings, fmt.Sprintf("Loan type '%s' rate %.2f%% is outside the allowed range %.2f-%.2f",
				lt.Name, lt.AnnualRatePercent, conf.Limits.AnnualRate.Min, conf.Limits.AnnualRate.Max))
		}
		if !conf.Limits.TenureMonths.Contains(float64(lt.TenureMonths)) {
			warnings = append(warnings, fmt.Sprintf("Loan type '%s' tenure %d months is outside the allowed range %.0f-%.0f",
				lt.Name, lt.TenureMonths, conf.Limits.TenureMonths.Min, conf.Limits.TenureMonths.Max))
		}
	}

	if _, ok := conf.LoanType(conf.Defaults.LoanType); !ok {
		warnings = append(warnings, fmt.Sprintf("Default loan type '%s' is not a configured loan type", conf.Defaults.LoanType))
	}
	if !conf.HasCurrency(conf.Defaults.Currency) {
		warnings = append(warnings, fmt.Sprintf("Default currency '%s' is not a configured currency", conf.Defaults.Currency))
	}
	if !conf.HasLanguage(conf.Defaults.Language) {
		warnings = append(warnings, fmt.Sprintf("Default language '%s' is not a configured language", conf.Defaults.Language))
	}
	if !conf.Limits.Principal.Contains(conf.Defaults.Principal) {
		warnings = append(warnings, fmt.Sprintf("Default principal %.2f is outside the allowed range %.2f-%.2f",
			conf.Defaults.Principal, conf.Limits.Principal.Min, conf.Limits.Principal.Max))
	}
	if conf.Limits.CreditScore.Min < constants.MinCreditScore || conf.Limits.CreditScore.Max > constants.MaxCreditScore {
		warnings = append(warnings, fmt.Sprintf("Credit score limits %.0f-%.0f exceed the supported range %d-%d",
			conf.Limits.CreditScore.Min, conf.Limits.CreditScore.Max, constants.MinCreditScore, constants.MaxCreditScore))
	}

	return warnings
}
