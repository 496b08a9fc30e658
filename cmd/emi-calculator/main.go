package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/iwvelando/emi-calculator/internal/config"
	"github.com/iwvelando/emi-calculator/internal/logging"
	"github.com/iwvelando/emi-calculator/internal/service"
	"github.com/iwvelando/emi-calculator/pkg/constants"
	"github.com/iwvelando/emi-calculator/pkg/output"
	"github.com/iwvelando/emi-calculator/pkg/validation"
	"go.uber.org/zap"
)

func main() {
	// Process command line flags first to get config location
	configLocation := flag.String("config", constants.DefaultConfigFile, "path to configuration file")
	principal := flag.Float64("principal", 0, "loan principal (defaults to the configured default)")
	rate := flag.Float64("rate", 0, "annual interest rate in percent; omit to use the loan type preset, 0 for an interest-free loan")
	tenure := flag.Int("tenure", 0, "tenure in months (defaults to the loan type preset)")
	extra := flag.Float64("extra", 0, "extra payment applied every month")
	balloon := flag.Float64("balloon", 0, "balloon payment applied every twelfth month")
	loanType := flag.String("loan-type", "", "loan type preset (e.g. \"Home Loan\")")
	currency := flag.String("currency", "", "currency symbol used for display")
	startMonth := flag.String("start-month", "", "month of the first payment, YYYY-MM (optional)")
	outputFormatFlag := flag.String("output-format", "", "type of output override: pretty, csv")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	flag.Parse()

	conf, err := config.LoadConfiguration(*configLocation)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load configuration at %s\", \"error\": \"%v\"}\n", *configLocation, err)
		os.Exit(1)
	}

	logger, err := logging.New(conf.Logging, *logLevel)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": \"%v\"}\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	// CLI override takes precedence over config
	outputFormat := conf.Output.Format
	if *outputFormatFlag != "" {
		outputFormat = *outputFormatFlag
	}
	if outputFormat == "" {
		outputFormat = constants.OutputFormatPretty
	}

	if err := validation.ValidateOutputFormat(outputFormat); err != nil {
		logger.Fatal(err.Error(),
			zap.String("op", "main"),
		)
	}

	for _, warning := range conf.ValidateConfiguration() {
		logger.Warn("Configuration warning: "+warning,
			zap.String("op", "main"),
		)
	}

	req := service.CalculateRequest{
		LoanType:              *loanType,
		Principal:             *principal,
		TenureMonths:          *tenure,
		ExtraMonthlyPayment:   *extra,
		BalloonPaymentPerYear: *balloon,
		StartMonth:            *startMonth,
		Currency:              *currency,
	}
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "rate" {
			req.AnnualRatePercent = service.Rate(*rate)
		}
	})
	if req.Principal == 0 {
		req.Principal = conf.Defaults.Principal
	}

	calc := service.NewCalculator(logger, conf, nil, nil)
	res, err := calc.Compute(req)
	if err != nil {
		logger.Fatal("failed to compute schedule",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}

	switch outputFormat {
	case constants.OutputFormatPretty:
		output.PrettyFormat(os.Stdout, res.Schedule, res.Currency)
	case constants.OutputFormatCSV:
		if err := output.CsvFormat(os.Stdout, res.Schedule); err != nil {
			logger.Fatal("failed to write CSV output",
				zap.String("op", "main"),
				zap.Error(err),
			)
		}
	}
}
