package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"invoice-reconciliation-service/cmd/reconciler/config"
	"invoice-reconciliation-service/internal/parsers"
	"invoice-reconciliation-service/internal/reconciler"
	"invoice-reconciliation-service/internal/reporter"
	"invoice-reconciliation-service/internal/scoring"
	"invoice-reconciliation-service/pkg/logger"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flags for the reconcile command
var (
	invoiceFile       string
	mappingDir        string
	vendorHistoryFile string
	outputFormat      string
	outputFile        string
	matchingProfile   string
	stringThreshold   float64
	numberTolerance   float64
	maxConcurrency    int
)

// reconcileCmd represents the reconcile command
var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Reconcile a vendor invoice against mapping files",
	Long: `Reconcile compares an extracted vendor invoice against the planned
campaign lines in a folder of mapping files.

This command requires:
- A canonical invoice JSON file (from the extraction pipeline)
- A folder of JSON mapping files

Examples:
  # Basic reconciliation
  reconciler reconcile --invoice-file invoice.json --mapping-dir ./mappings

  # JSON output to a file, with the vendor's score history
  reconciler reconcile -i invoice.json -m ./mappings \
    --vendor-history history.json --output-format json --output-file report.json

  # Tighter thresholds for a high-value campaign
  reconciler reconcile -i invoice.json -m ./mappings --profile strict

  # Ad-hoc threshold overrides
  reconciler reconcile -i invoice.json -m ./mappings \
    --string-threshold 0.85 --number-tolerance 2.5`,

	PreRunE: validateReconcileFlags,
	RunE:    runReconcile,
}

func init() {
	rootCmd.AddCommand(reconcileCmd)

	// Required flags
	reconcileCmd.Flags().StringVarP(&invoiceFile, "invoice-file", "i", "", "path to the canonical invoice JSON file (required)")
	reconcileCmd.Flags().StringVarP(&mappingDir, "mapping-dir", "m", "", "path to the folder of JSON mapping files (required)")

	// Optional inputs
	reconcileCmd.Flags().StringVar(&vendorHistoryFile, "vendor-history", "", "path to the vendor's trust score history JSON file")

	// Output flags
	reconcileCmd.Flags().StringVarP(&outputFormat, "output-format", "f", "console", "output format: console, json, csv")
	reconcileCmd.Flags().StringVarP(&outputFile, "output-file", "o", "", "output file path (default: stdout)")

	// Matching configuration flags
	reconcileCmd.Flags().StringVar(&matchingProfile, "profile", "default", "matching profile: default, strict, relaxed")
	reconcileCmd.Flags().Float64Var(&stringThreshold, "string-threshold", -1, "minimum identity similarity for a match candidate (0.0-1.0)")
	reconcileCmd.Flags().Float64Var(&numberTolerance, "number-tolerance", -1, "numeric tolerance percentage (0.0-100.0)")
	reconcileCmd.Flags().IntVar(&maxConcurrency, "max-concurrency", 0, "mapping files scored in parallel (0 = profile default)")

	reconcileCmd.MarkFlagRequired("invoice-file")
	reconcileCmd.MarkFlagRequired("mapping-dir")

	viper.BindPFlag("invoice-file", reconcileCmd.Flags().Lookup("invoice-file"))
	viper.BindPFlag("mapping-dir", reconcileCmd.Flags().Lookup("mapping-dir"))
	viper.BindPFlag("vendor-history", reconcileCmd.Flags().Lookup("vendor-history"))
	viper.BindPFlag("output-format", reconcileCmd.Flags().Lookup("output-format"))
	viper.BindPFlag("output-file", reconcileCmd.Flags().Lookup("output-file"))
	viper.BindPFlag("profile", reconcileCmd.Flags().Lookup("profile"))
	viper.BindPFlag("string-threshold", reconcileCmd.Flags().Lookup("string-threshold"))
	viper.BindPFlag("number-tolerance", reconcileCmd.Flags().Lookup("number-tolerance"))
	viper.BindPFlag("max-concurrency", reconcileCmd.Flags().Lookup("max-concurrency"))
}

func validateReconcileFlags(cmd *cobra.Command, args []string) error {
	// Viper values allow overrides from config file and environment
	invoiceFile = viper.GetString("invoice-file")
	mappingDir = viper.GetString("mapping-dir")
	vendorHistoryFile = viper.GetString("vendor-history")
	outputFormat = viper.GetString("output-format")
	outputFile = viper.GetString("output-file")
	matchingProfile = viper.GetString("profile")
	stringThreshold = viper.GetFloat64("string-threshold")
	numberTolerance = viper.GetFloat64("number-tolerance")
	maxConcurrency = viper.GetInt("max-concurrency")

	if invoiceFile == "" {
		return fmt.Errorf("invoice-file is required")
	}
	if mappingDir == "" {
		return fmt.Errorf("mapping-dir is required")
	}

	if err := validateFileExists(invoiceFile, "invoice file"); err != nil {
		return err
	}

	info, err := os.Stat(mappingDir)
	if os.IsNotExist(err) {
		return fmt.Errorf("mapping directory does not exist: %s", mappingDir)
	}
	if err != nil {
		return fmt.Errorf("error accessing mapping directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("mapping-dir is not a directory: %s", mappingDir)
	}

	if vendorHistoryFile != "" {
		if err := validateFileExists(vendorHistoryFile, "vendor history file"); err != nil {
			return err
		}
	}

	validFormats := map[string]bool{"console": true, "json": true, "csv": true}
	if !validFormats[outputFormat] {
		return fmt.Errorf("invalid output format '%s'. Valid formats: console, json, csv", outputFormat)
	}

	if outputFile != "" {
		dir := filepath.Dir(outputFile)
		if dir != "." {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				return fmt.Errorf("output directory does not exist: %s", dir)
			}
		}
	}

	return nil
}

func validateFileExists(filePath, description string) error {
	if filePath == "" {
		return fmt.Errorf("%s path cannot be empty", description)
	}

	info, err := os.Stat(filePath)
	if os.IsNotExist(err) {
		return fmt.Errorf("%s does not exist: %s", description, filePath)
	}
	if err != nil {
		return fmt.Errorf("error accessing %s: %w", description, err)
	}

	if info.IsDir() {
		return fmt.Errorf("%s is a directory, expected a file: %s", description, filePath)
	}

	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("%s is not readable: %w", description, err)
	}
	file.Close()

	return nil
}

func runReconcile(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	handler := NewCLIErrorHandler()

	if viper.GetBool("verbose") {
		logger.SetGlobalLogger(mustLogger(logger.DebugConfig()))
	}

	matchingConfig, err := config.CreateMatchingConfig(matchingProfile, stringThreshold, numberTolerance, maxConcurrency)
	if err != nil {
		return err
	}

	invoice, err := parsers.LoadInvoice(invoiceFile)
	if err != nil {
		os.Exit(handler.HandleError(err))
	}

	mappingFiles, warnings, err := parsers.LoadMappingFiles(mappingDir)
	if err != nil {
		os.Exit(handler.HandleError(err))
	}

	history, err := parsers.LoadVendorHistory(vendorHistoryFile)
	if err != nil {
		os.Exit(handler.HandleError(err))
	}

	service := reconciler.NewService(matchingConfig, scoring.DefaultPenaltyWeights())
	result, err := service.Reconcile(ctx, invoice, mappingFiles, history)
	if err != nil {
		os.Exit(handler.HandleError(err))
	}
	result.Warnings = append(warnings, result.Warnings...)

	reportConfig, err := config.CreateReportConfig(outputFormat)
	if err != nil {
		return err
	}
	generator, err := reporter.NewReportGenerator(reportConfig)
	if err != nil {
		return err
	}

	writer, closeWriter, err := openOutput(outputFile)
	if err != nil {
		return err
	}
	defer closeWriter()

	return generator.GenerateReport(result, writer)
}

func openOutput(path string) (io.Writer, func(), error) {
	if path == "" {
		return os.Stdout, func() {}, nil
	}

	file, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return file, func() { file.Close() }, nil
}

func mustLogger(cfg *logger.Config) logger.Logger {
	l, err := logger.NewLogger(cfg)
	if err != nil {
		panic(err)
	}
	return l
}
