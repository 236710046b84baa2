package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/posting-assistant/internal/geo"
	"github.com/jonathan/posting-assistant/internal/observability"
	"github.com/jonathan/posting-assistant/internal/schema"
	"github.com/jonathan/posting-assistant/internal/schemas"
	"github.com/jonathan/posting-assistant/internal/types"
	"github.com/jonathan/posting-assistant/internal/validation"
)

var validateLang string

var validateCmd = &cobra.Command{
	Use:   "validate <record.json>",
	Short: "Check an exported job posting record",
	Long: `Re-import an exported record, check it against the record schema and the
field rules, and list the required fields that are still missing.

Exits with status 1 when the record has problems. Missing fields alone are
not a failure.`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().StringVar(&validateLang, "lang", "en", "Language used to display values")
	rootCmd.AddCommand(validateCmd)
}

// errRecordInvalid reports that problems were printed.
var errRecordInvalid = errors.New("record has problems")

// recordReport is the outcome of checking one record document.
type recordReport struct {
	Record   types.Record
	Problems []string
	Missing  []types.FieldKey
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(configPath, os.Getenv)
	if err != nil {
		return err
	}
	g, err := loadGeo(cfg)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read record: %w", err)
	}

	report, err := checkRecord(data, g)
	if err != nil {
		return err
	}

	printer := observability.NewPrinter(cmd.OutOrStdout())
	if len(report.Problems) > 0 {
		printer.PrintProblems(report.Problems)
		return errRecordInvalid
	}
	printer.PrintRecord(report.Record, validateLang)
	printer.PrintMissing(report.Record)
	return nil
}

// checkRecord runs the schema, then the field rules on the parsed record.
// Problems are collected; only unexpected failures are returned as errors.
func checkRecord(data []byte, g *geo.Service) (recordReport, error) {
	var report recordReport

	if !json.Valid(data) {
		report.Problems = append(report.Problems, "record is not valid JSON")
		return report, nil
	}
	if err := schemas.ValidateRecord(data); err != nil {
		var ve *schemas.ValidationError
		if !errors.As(err, &ve) {
			return report, err
		}
		report.Problems = append(report.Problems, ve.Problems()...)
		return report, nil
	}

	r, err := types.ParseRecord(data)
	if err != nil {
		report.Problems = append(report.Problems, err.Error())
		return report, nil
	}
	report.Record = r
	report.Missing = schema.MissingFields(r)

	if err := validation.New(g).CheckRecord(r); err != nil {
		report.Problems = append(report.Problems, err.Error())
	}
	return report, nil
}
