package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/prasenjit/go-hooks/internal/action"
	"github.com/prasenjit/go-hooks/internal/logging"
	"github.com/prasenjit/go-hooks/internal/models"
	"github.com/prasenjit/go-hooks/internal/storage"
	"github.com/prasenjit/go-hooks/internal/template"
	"github.com/prasenjit/go-hooks/internal/variables"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run actions against a recorded exchange",
	Long: `Runs the actions of an action file against an exchange file and prints
the resulting report.

Both files may be YAML or JSON. The action file holds an "actions" list; the
exchange file holds "request" and "response" objects with url, method or
status, headers and body.

Without --apply the signals are only reported. With --apply they are applied
to the configured storage, so stored variables persist.`,
	RunE: runActionsCmd,
}

var (
	runActionsFile  string
	runExchangeFile string
	runApply        bool
)

func init() {
	runCmd.Flags().StringVarP(&runActionsFile, "actions", "a", "actions.yaml", "Action file")
	runCmd.Flags().StringVarP(&runExchangeFile, "exchange", "e", "", "Exchange file")
	runCmd.Flags().BoolVar(&runApply, "apply", false, "Apply signals to storage")
	runCmd.MarkFlagRequired("exchange")
}

// ActionFile is the on-disk form of a list of actions
type ActionFile struct {
	Actions []models.Action `yaml:"actions" json:"actions"`
}

func readYAML(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

func runActionsCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Logs go to stderr so the report on stdout stays parseable
	logger := logging.New(cfg.Logging, os.Stderr)

	var file ActionFile
	if err := readYAML(runActionsFile, &file); err != nil {
		return err
	}

	var input models.ExchangeInput
	if err := readYAML(runExchangeFile, &input); err != nil {
		return err
	}

	store, err := openStorage(cfg.Storage)
	if err != nil {
		return err
	}
	defer store.Close()

	report, runErr := runActions(cmd.Context(), store, file.Actions, input, runApply, logger)
	if err := writeReport(cmd.OutOrStdout(), report, runErr); err != nil {
		return err
	}
	return runErr
}

// runActions runs actions against the exchange. Variables already in store
// are visible to placeholders. Signals reach store only when apply is set.
func runActions(ctx context.Context, store storage.Storage, actions []models.Action, input models.ExchangeInput, apply bool, logger *slog.Logger) (*action.Report, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	vars := variables.NewStore(store, logger)

	var (
		sink   action.Sink     = vars
		lookup template.Lookup = vars
	)
	if !apply {
		// Unapplied signals still feed later placeholders in the run
		collector := action.NewCollector()
		sink = collector
		lookup = template.Chain(collector, vars)
	}

	processor := action.NewProcessor(sink,
		action.WithVariableEvaluator(template.NewEngine(lookup)),
		action.WithLogger(logger),
	)

	return processor.Run(ctx, actions, input.Exchange())
}

type runOutput struct {
	*action.Report
	Error string `json:"error,omitempty"`
}

func writeReport(w io.Writer, report *action.Report, runErr error) error {
	if report == nil {
		report = &action.Report{}
	}
	out := runOutput{Report: report}
	if runErr != nil {
		out.Error = runErr.Error()
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// exampleActions is written by init as a starting point
var exampleActions = ActionFile{
	Actions: []models.Action{
		{
			Source:      "response.body.token",
			Action:      models.ActionStoreVariable,
			Destination: "token",
			Conditions: []models.Condition{
				{Source: "response.headers.Content-Type", Operator: models.OpContains, Condition: "json"},
			},
		},
		{
			Source:      "response.body.items.*.id",
			Action:      models.ActionAssignVariable,
			Destination: "activeId",
			Iterator: &models.Iterator{
				Source:    "response.body.items.*.status",
				Operator:  models.OpEqual,
				Condition: "active",
			},
		},
	},
}
