// Command survivalgen turns a pipe-delimited stream of EMR facts and
// events into truncated survival examples, grounded on the cobra
// command-tree and zerolog/config bootstrap idiom of
// _examples/Nirmitee-tech-headless-ehr-fhir/api/cmd/ehr-server/main.go.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ehr/survivalgen/internal/config"
	"github.com/ehr/survivalgen/internal/emr/drug"
	"github.com/ehr/survivalgen/internal/emr/errs"
	"github.com/ehr/survivalgen/internal/emr/event"
	"github.com/ehr/survivalgen/internal/emr/feature"
	"github.com/ehr/survivalgen/internal/emr/pipeline"
	"github.com/ehr/survivalgen/internal/emr/record"
	"github.com/ehr/survivalgen/internal/emr/studyperiod"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "survivalgen",
		Short: "Generate truncated survival examples from EMR event streams",
	}

	rootCmd.AddCommand(generateCmd())
	rootCmd.AddCommand(validateCmd())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger(cfg *config.Config) zerolog.Logger {
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()
	if cfg.LogFormat == "console" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	}
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	return logger.Level(level)
}

func generateCmd() *cobra.Command {
	var (
		exposuresPath string
		outcomesPath  string
		inPath        string
		outPath       string
		eraMaxGap     int
		minAge        float64
		maxAge        float64
		replaceMapped bool
		logLevel      string
		logFormat     string
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Read EMR records and write survival examples",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(generateArgs{
				exposuresPath: exposuresPath,
				outcomesPath:  outcomesPath,
				inPath:        inPath,
				outPath:       outPath,
				eraMaxGap:     eraMaxGap,
				minAge:        minAge,
				maxAge:        maxAge,
				replaceMapped: replaceMapped,
				logLevel:      logLevel,
				logFormat:     logFormat,
			})
		},
	}

	cmd.Flags().StringVar(&exposuresPath, "exposures", "", "path to a tbl|typ file listing exposure event types (required)")
	cmd.Flags().StringVar(&outcomesPath, "outcomes", "", "path to a tbl|typ file listing outcome event types (required)")
	cmd.Flags().StringVar(&inPath, "in", "", "input file (defaults to stdin)")
	cmd.Flags().StringVar(&outPath, "out", "", "output file (defaults to stdout)")
	cmd.Flags().IntVar(&eraMaxGap, "era-max-gap", -1, "override ERA_MAX_GAP_DAYS for this run")
	cmd.Flags().Float64Var(&minAge, "min-age", -1, "drop events before this age in years")
	cmd.Flags().Float64Var(&maxAge, "max-age", -1, "drop events after this age in years")
	cmd.Flags().BoolVar(&replaceMapped, "replace-mapped-events", false, "drop the original event once it has been mapped to exp/out")
	cmd.Flags().StringVar(&logLevel, "log-level", "", "override LOG_LEVEL for this run")
	cmd.Flags().StringVar(&logFormat, "log-format", "", "override LOG_FORMAT for this run (json or console)")
	_ = cmd.MarkFlagRequired("exposures")
	_ = cmd.MarkFlagRequired("outcomes")

	return cmd
}

type generateArgs struct {
	exposuresPath, outcomesPath string
	inPath, outPath             string
	eraMaxGap                   int
	minAge, maxAge              float64
	replaceMapped               bool
	logLevel, logFormat         string
}

func runGenerate(a generateArgs) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}
	if a.logFormat != "" {
		cfg.LogFormat = a.logFormat
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	logger := newLogger(cfg)

	exposuresFile, err := os.Open(a.exposuresPath)
	if err != nil {
		return fmt.Errorf("opening exposures file: %w", err)
	}
	defer exposuresFile.Close()
	exposures, err := pipeline.ReadEventTypes(exposuresFile, cfg.Delimiter, cfg.CommentChar)
	if err != nil {
		return fmt.Errorf("reading exposures: %w", err)
	}

	outcomesFile, err := os.Open(a.outcomesPath)
	if err != nil {
		return fmt.Errorf("opening outcomes file: %w", err)
	}
	defer outcomesFile.Close()
	outcomes, err := pipeline.ReadEventTypes(outcomesFile, cfg.Delimiter, cfg.CommentChar)
	if err != nil {
		return fmt.Errorf("reading outcomes: %w", err)
	}

	in, closeIn, err := openInput(a.inPath)
	if err != nil {
		return err
	}
	defer closeIn()

	out, closeOut, err := openOutput(a.outPath)
	if err != nil {
		return err
	}
	defer closeOut()

	eraMaxGap := cfg.EraMaxGapDays
	if a.eraMaxGap >= 0 {
		eraMaxGap = a.eraMaxGap
	}

	var studyPeriodDefiner func(*event.Sequence) (*event.Sequence, bool)
	if a.minAge >= 0 || a.maxAge >= 0 {
		var minPtr, maxPtr *float64
		if a.minAge >= 0 {
			minPtr = &a.minAge
		}
		if a.maxAge >= 0 {
			maxPtr = &a.maxAge
		}
		studyPeriodDefiner = func(seq *event.Sequence) (*event.Sequence, bool) {
			clipped, found := studyperiod.Clip(seq, minPtr, maxPtr)
			if !found {
				logger.Warn().Int("id", seq.ID).AnErr("cause", errs.ErrMissingDOB).Msg("study period not applied")
			}
			return clipped, found
		}
	}

	drugCfg := drug.DefaultConfig()
	drugCfg.MinDays = cfg.DrugMinDays
	drugCfg.WashoutDays = cfg.DrugWashoutDays
	drugCfg.DefaultRxDays = cfg.DrugDefaultRxDays

	driver := &pipeline.Driver{
		ExposureTypes:       exposures,
		OutcomeTypes:        outcomes,
		ReplaceMappedEvents: a.replaceMapped,
		EraMaxGap:           eraMaxGap,
		StudyPeriodDefiner:  studyPeriodDefiner,
		RecordTransformer:   pipeline.DefaultRecordTransformer(drugCfg),
		FeatureVectorFunc:   feature.Combine(feature.AgeAtFirstEvent),
		FeatureVectorHeader: []string{"age"},
		ReadOptions: record.ReadOptions{
			Delimiter:     cfg.Delimiter,
			CommentPrefix: cfg.CommentChar,
		},
		Delimiter: cfg.Delimiter,
		Logger:    logger,
	}

	if err := driver.Run(context.Background(), in, out); err != nil {
		logger.Error().Err(err).Msg("pipeline run failed")
		return err
	}
	return nil
}

func openInput(path string) (io.Reader, func(), error) {
	if path == "" {
		return os.Stdin, func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening input file: %w", err)
	}
	return f, func() { f.Close() }, nil
}

func openOutput(path string) (io.Writer, func(), error) {
	if path == "" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("creating output file: %w", err)
	}
	return f, func() { f.Close() }, nil
}

func validateCmd() *cobra.Command {
	var (
		delimiter   string
		commentChar string
	)

	cmd := &cobra.Command{
		Use:   "validate FILE...",
		Short: "Check that each given file parses as a tbl|typ event type list",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files := make(map[string]io.Reader, len(args))
			for _, path := range args {
				f, err := os.Open(path)
				if err != nil {
					return fmt.Errorf("opening %s: %w", path, err)
				}
				defer f.Close()
				files[path] = f
			}
			counts, err := pipeline.ValidateEventTypeFiles(files, delimiter, commentChar)
			if err != nil {
				return err
			}
			for _, path := range args {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %d event types\n", path, counts[path])
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&delimiter, "delimiter", "|", "field delimiter used by the event type files")
	cmd.Flags().StringVar(&commentChar, "comment-char", "#", "comment-line prefix used by the event type files")
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the survivalgen build version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), version)
			return nil
		},
	}
}
