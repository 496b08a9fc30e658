// Package service orchestrates eligibility checks, schedule calculation and
// exports on behalf of the HTTP host and the CLI.
package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/iwvelando/emi-calculator/internal/apperror"
	"github.com/iwvelando/emi-calculator/internal/config"
	"github.com/iwvelando/emi-calculator/internal/export"
	"github.com/iwvelando/emi-calculator/internal/metrics"
	"github.com/iwvelando/emi-calculator/internal/session"
	"github.com/iwvelando/emi-calculator/pkg/datetime"
	"github.com/iwvelando/emi-calculator/pkg/eligibility"
	"github.com/iwvelando/emi-calculator/pkg/format"
	"github.com/iwvelando/emi-calculator/pkg/loans"
	"github.com/iwvelando/emi-calculator/pkg/validation"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Calculator is the session-aware front of the loan calculations. The only
// state it touches is the eligibility flag kept in the session store.
type Calculator struct {
	logger  *zap.Logger
	conf    *config.Configuration
	store   session.Store
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewCalculator wires a calculator. A nil logger is replaced with a no-op
// logger and a nil configuration with the built-in defaults. store may be nil
// for callers that only use Compute.
func NewCalculator(logger *zap.Logger, conf *config.Configuration, store session.Store, m *metrics.Metrics) *Calculator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if conf == nil {
		conf = config.DefaultConfiguration()
	}
	return &Calculator{
		logger:  logger,
		conf:    conf,
		store:   store,
		metrics: m,
		now:     time.Now,
	}
}

// EligibilityResult is the outcome of an eligibility check as shown to the user.
type EligibilityResult struct {
	Eligible bool   `json:"eligible"`
	Reason   string `json:"reason"`
	Message  string `json:"message"`
}

// CheckEligibility runs the rule chain and records the decision in the
// session. A later failing check revokes an earlier success.
func (c *Calculator) CheckEligibility(ctx context.Context, sessionID string, in eligibility.Input) (EligibilityResult, error) {
	result, err := eligibility.Check(in)
	if err != nil {
		c.metrics.ObserveEligibility(metrics.ResultInvalid)
		var inputErr *eligibility.InvalidInputError
		if errors.As(err, &inputErr) {
			return EligibilityResult{}, apperror.ValidationError(inputErr.Field, inputErr.Reason, err)
		}
		return EligibilityResult{}, apperror.ValidationError("", err.Error(), err)
	}

	if err := c.requireStore(); err != nil {
		return EligibilityResult{}, err
	}
	state := session.State{Eligible: result.Eligible, Reason: result.Reason, CheckedAt: c.now().UTC()}
	if err := c.store.Set(ctx, sessionID, state); err != nil {
		return EligibilityResult{}, apperror.Internal(fmt.Errorf("storing eligibility for session: %w", err))
	}

	if result.Eligible {
		c.metrics.ObserveEligibility(metrics.ResultEligible)
	} else {
		c.metrics.ObserveEligibility(metrics.ResultIneligible)
	}
	c.logger.Debug("eligibility checked",
		zap.String("op", "service.CheckEligibility"),
		zap.Bool("eligible", result.Eligible),
		zap.String("reason", result.Reason),
	)

	return EligibilityResult{
		Eligible: result.Eligible,
		Reason:   result.Reason,
		Message:  result.Message(),
	}, nil
}

// ResetSession forgets the eligibility decision held for sessionID.
func (c *Calculator) ResetSession(ctx context.Context, sessionID string) error {
	if err := c.requireStore(); err != nil {
		return err
	}
	if err := c.store.Delete(ctx, sessionID); err != nil {
		return apperror.Internal(fmt.Errorf("deleting session: %w", err))
	}
	c.logger.Debug("session reset",
		zap.String("op", "service.ResetSession"),
	)
	return nil
}

// SessionState returns the stored state for sessionID. Unknown sessions
// report as not eligible.
func (c *Calculator) SessionState(ctx context.Context, sessionID string) (session.State, error) {
	if err := c.requireStore(); err != nil {
		return session.State{}, err
	}
	state, ok, err := c.store.Get(ctx, sessionID)
	if err != nil {
		return session.State{}, apperror.Internal(fmt.Errorf("reading session: %w", err))
	}
	if !ok {
		return session.State{}, nil
	}
	return state, nil
}

// Calculate builds the schedule for an eligible session.
func (c *Calculator) Calculate(ctx context.Context, sessionID string, req CalculateRequest) (*CalculateResult, error) {
	start := c.now()
	if err := c.requireEligible(ctx, sessionID); err != nil {
		c.metrics.ObserveCalculation(resultFor(err), c.now().Sub(start), 0)
		return nil, err
	}

	res, err := c.Compute(req)
	if err != nil {
		c.metrics.ObserveCalculation(resultFor(err), c.now().Sub(start), 0)
		return nil, err
	}
	c.metrics.ObserveCalculation(metrics.ResultSuccess, c.now().Sub(start), res.Months)
	return res, nil
}

// Compute validates the request against the configured limits and builds the
// schedule. It does not consult the session.
func (c *Calculator) Compute(req CalculateRequest) (*CalculateResult, error) {
	req = c.applyDefaults(req)
	if err := c.validate(req); err != nil {
		return nil, err
	}

	terms := req.Terms()
	schedule, err := loans.BuildAmortizationSchedule(terms)
	if err != nil {
		return nil, mapLoanError(err)
	}

	c.logger.Debug("schedule computed",
		zap.String("op", "service.Compute"),
		zap.Float64("principal", terms.Principal),
		zap.Float64("annualRatePercent", terms.AnnualRatePercent),
		zap.Int("tenureMonths", terms.TenureMonths),
		zap.Int("months", len(schedule.Rows)),
	)
	return newResult(req, terms, schedule), nil
}

// ExportFile is a rendered download.
type ExportFile struct {
	Data        []byte
	ContentType string
	FileName    string
}

// Export renders the schedule for an eligible session in the given format.
func (c *Calculator) Export(ctx context.Context, sessionID, exportFormat string, req CalculateRequest) (*ExportFile, error) {
	start := c.now()
	if err := validation.ValidateExportFormat(exportFormat); err != nil {
		c.metrics.ObserveExport(exportFormat, metrics.ResultInvalid, c.now().Sub(start))
		return nil, apperror.Unsupported(err.Error())
	}

	res, err := c.Calculate(ctx, sessionID, req)
	if err != nil {
		c.metrics.ObserveExport(exportFormat, resultFor(err), c.now().Sub(start))
		return nil, err
	}

	summary := export.NewSummary(res.Terms, res.LoanType, res.Currency, res.Schedule)
	summary.GeneratedAt = c.now().UTC()
	data, err := export.Render(exportFormat, summary, res.Schedule)
	if err != nil {
		c.metrics.ObserveExport(exportFormat, metrics.ResultError, c.now().Sub(start))
		return nil, apperror.Internal(fmt.Errorf("rendering %s export: %w", exportFormat, err))
	}

	c.metrics.ObserveExport(exportFormat, metrics.ResultSuccess, c.now().Sub(start))
	c.logger.Debug("schedule exported",
		zap.String("op", "service.Export"),
		zap.String("format", exportFormat),
		zap.Int("bytes", len(data)),
	)
	return &ExportFile{
		Data:        data,
		ContentType: export.ContentType(exportFormat),
		FileName:    export.FileName(exportFormat, summary.GeneratedAt),
	}, nil
}

// Options describes the form inputs the UI should offer.
type Options struct {
	LoanTypes     []config.LoanType `json:"loanTypes"`
	Currencies    []string          `json:"currencies"`
	Languages     []string          `json:"languages"`
	Limits        config.Limits     `json:"limits"`
	Defaults      OptionDefaults    `json:"defaults"`
	ExportFormats []string          `json:"exportFormats"`
}

// OptionDefaults are the initial form values.
type OptionDefaults struct {
	LoanType   string  `json:"loanType"`
	Principal  float64 `json:"principal"`
	Currency   string  `json:"currency"`
	Language   string  `json:"language"`
	StartMonth string  `json:"startMonth"`
}

// Options returns the configured presets, pickers and limits.
func (c *Calculator) Options() Options {
	return Options{
		LoanTypes:  c.conf.LoanTypes,
		Currencies: c.conf.Currencies,
		Languages:  c.conf.Languages,
		Limits:     c.conf.Limits,
		Defaults: OptionDefaults{
			LoanType:   c.conf.Defaults.LoanType,
			Principal:  c.conf.Defaults.Principal,
			Currency:   c.conf.Defaults.Currency,
			Language:   c.conf.Defaults.Language,
			StartMonth: datetime.NextMonth(c.now()),
		},
		ExportFormats: export.Formats(),
	}
}

func (c *Calculator) requireStore() error {
	if c.store == nil {
		return apperror.Internal(errors.New("no session store configured"))
	}
	return nil
}

func (c *Calculator) requireEligible(ctx context.Context, sessionID string) error {
	state, err := c.SessionState(ctx, sessionID)
	if err != nil {
		return err
	}
	if !state.Eligible {
		if state.Reason != "" {
			return apperror.Ineligible(eligibility.Result{Reason: state.Reason}.Message())
		}
		return apperror.Ineligible("")
	}
	return nil
}

// applyDefaults fills unset fields from the selected loan type and the
// configured defaults. An omitted rate takes the preset; an explicit zero is
// kept. Tenure has no valid zero, so zero takes the preset too.
func (c *Calculator) applyDefaults(req CalculateRequest) CalculateRequest {
	if req.LoanType == "" {
		req.LoanType = c.conf.Defaults.LoanType
	}
	if preset, ok := c.conf.LoanType(req.LoanType); ok {
		if req.AnnualRatePercent == nil {
			rate := preset.AnnualRatePercent
			req.AnnualRatePercent = &rate
		}
		if req.TenureMonths == 0 {
			req.TenureMonths = preset.TenureMonths
		}
	}
	if req.Currency == "" {
		req.Currency = c.conf.Defaults.Currency
	}
	if req.Language == "" {
		req.Language = c.conf.Defaults.Language
	}
	return req
}

func (c *Calculator) validate(req CalculateRequest) error {
	if _, ok := c.conf.LoanType(req.LoanType); !ok {
		return apperror.ValidationError("loanType", fmt.Sprintf("unknown loan type %q", req.LoanType), nil)
	}
	if !c.conf.HasCurrency(req.Currency) {
		return apperror.ValidationError("currency", fmt.Sprintf("unsupported currency %q", req.Currency), nil)
	}
	if !c.conf.HasLanguage(req.Language) {
		return apperror.ValidationError("language", fmt.Sprintf("unsupported language %q", req.Language), nil)
	}

	l := c.conf.Limits
	err := validation.CheckBounds(
		bound("principal", req.Principal, l.Principal),
		bound("annualRatePercent", req.rate(), l.AnnualRate),
		bound("tenureMonths", float64(req.TenureMonths), l.TenureMonths),
		bound("extraMonthlyPayment", req.ExtraMonthlyPayment, l.ExtraPayment),
		bound("balloonPaymentPerYear", req.BalloonPaymentPerYear, l.BalloonPayment),
	)
	var boundsErr *validation.BoundsError
	if errors.As(err, &boundsErr) {
		return apperror.ValidationError(boundsErr.Field, boundsErr.Reason(), err)
	}
	return err
}

func bound(field string, value float64, r config.Range) validation.Bound {
	return validation.Bound{Field: field, Value: value, Min: r.Min, Max: r.Max, Step: r.Step}
}

func mapLoanError(err error) error {
	var inputErr *loans.InvalidInputError
	if errors.As(err, &inputErr) {
		return apperror.ValidationError(inputErr.Field, inputErr.Reason, err)
	}
	return apperror.Internal(fmt.Errorf("building schedule: %w", err))
}

func resultFor(err error) string {
	switch apperror.GetStatusCode(err) {
	case http.StatusForbidden:
		return metrics.ResultForbidden
	case http.StatusBadRequest:
		return metrics.ResultInvalid
	default:
		return metrics.ResultError
	}
}

func amounts(values []float64) []decimal.Decimal {
	out := make([]decimal.Decimal, len(values))
	for i, v := range values {
		out[i] = format.Amount(v)
	}
	return out
}
