package cmd

import (
	"fmt"
	"os"

	"invoice-reconciliation-service/internal/parsers"
	"invoice-reconciliation-service/internal/scoring"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	vendorID        string
	historyFilePath string
)

// vendorScoreCmd folds a stored history snapshot into the vendor's current
// score without running a reconciliation
var vendorScoreCmd = &cobra.Command{
	Use:   "vendor-score",
	Short: "Show a vendor's longitudinal score from stored history",
	Long: `Vendor-score folds a vendor's trust score history into their current
longitudinal score and letter grade.

Examples:
  reconciler vendor-score --vendor acme-media --history history.json`,

	PreRunE: func(cmd *cobra.Command, args []string) error {
		vendorID = viper.GetString("vendor")
		historyFilePath = viper.GetString("history")

		if vendorID == "" {
			return fmt.Errorf("vendor is required")
		}
		if historyFilePath == "" {
			return fmt.Errorf("history is required")
		}
		return validateFileExists(historyFilePath, "history file")
	},
	RunE: runVendorScore,
}

func init() {
	rootCmd.AddCommand(vendorScoreCmd)

	vendorScoreCmd.Flags().StringVar(&vendorID, "vendor", "", "vendor identifier (required)")
	vendorScoreCmd.Flags().StringVar(&historyFilePath, "history", "", "path to the trust score history JSON file (required)")

	vendorScoreCmd.MarkFlagRequired("vendor")
	vendorScoreCmd.MarkFlagRequired("history")

	viper.BindPFlag("vendor", vendorScoreCmd.Flags().Lookup("vendor"))
	viper.BindPFlag("history", vendorScoreCmd.Flags().Lookup("history"))
}

func runVendorScore(cmd *cobra.Command, args []string) error {
	handler := NewCLIErrorHandler()

	history, err := parsers.LoadVendorHistory(historyFilePath)
	if err != nil {
		os.Exit(handler.HandleError(err))
	}

	aggregator := scoring.NewVendorAggregator()
	score, err := aggregator.Summarize(vendorID, history)
	if err != nil {
		os.Exit(handler.HandleError(err))
	}

	fmt.Printf("Vendor:   %s\n", score.VendorID)
	fmt.Printf("Score:    %.2f (grade %s)\n", score.Score, score.Grade)
	fmt.Printf("Reports:  %d\n", score.ReportsAnalyzed)
	fmt.Printf("Breakdown: %d critical, %d high, %d medium, %d low discrepancies across history\n",
		score.SeverityBreakdown.Critical, score.SeverityBreakdown.High,
		score.SeverityBreakdown.Medium, score.SeverityBreakdown.Low)

	return nil
}
