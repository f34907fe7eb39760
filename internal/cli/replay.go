package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/AnatoleLucet/evstore"
)

// ReplayResult is the outcome of replaying a scenario.
type ReplayResult struct {
	Scenario string          `json:"scenario"`
	Steps    []StepResult    `json:"steps"`
	Final    json.RawMessage `json:"final"`
	Failed   int             `json:"failed"`
}

// StepResult holds what one dispatch did to the store.
// State is only set when watchers were notified.
type StepResult struct {
	Step  int             `json:"step"`
	Event string          `json:"event"`
	State json.RawMessage `json:"state,omitempty"`
	Error string          `json:"error,omitempty"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replay <scenario.yaml>",
		Short: "Replay a scenario against a store",
		Long: `Replay a scenario: create the store, bind one handler per event,
emit the dispatch list in order and print the state after every update.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runReplay(opts *RootOptions, path string, cmd *cobra.Command) error {
	logger := newLogger(opts, cmd.ErrOrStderr())

	scenario, err := LoadScenario(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "cannot load scenario", err)
	}
	if err := scenario.Validate(); err != nil {
		return WrapExitError(ExitCommandError, "invalid scenario", err)
	}

	logger.Info("replaying scenario", "name", scenario.Name, "steps", len(scenario.Dispatch))

	result, err := Replay(scenario, logger)
	if err != nil {
		return WrapExitError(ExitCommandError, "cannot replay scenario", err)
	}

	if err := writeReplay(cmd.OutOrStdout(), opts.Format, result); err != nil {
		return err
	}

	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d step(s) failed", result.Failed))
	}

	return nil
}

// Replay runs a validated scenario on a fresh runtime.
// A failing step is recorded and the replay goes on with the next one.
func Replay(s *Scenario, logger *slog.Logger) (*ReplayResult, error) {
	rt := evstore.NewRuntime(evstore.WithLogger(logger))
	defer rt.Close()

	store, err := evstore.NewStore(s.State, evstore.WithRuntime(rt))
	if err != nil {
		return nil, err
	}

	events := make(map[string]*evstore.Event[any], len(s.Events))
	for _, name := range s.EventNames() {
		ops := s.Events[name]
		ev := evstore.NewEvent[any](evstore.WithRuntime(rt))

		err := evstore.On(store, ev, func(d *evstore.Draft, info evstore.EventInfo[any]) error {
			for _, op := range ops {
				if err := apply(d, op, info.Payload); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("bind %s: %w", name, err)
		}

		events[name] = ev
	}

	var notified json.RawMessage
	err = store.Watch(func(snap evstore.Snapshot) error {
		notified = snap.Raw()
		return nil
	})
	if err != nil {
		return nil, err
	}

	result := &ReplayResult{Scenario: s.Name}
	for i, step := range s.Dispatch {
		notified = nil

		res := StepResult{Step: i + 1, Event: step.Event}
		if err := events[step.Event].Emit(step.Payload); err != nil {
			res.Error = err.Error()
			result.Failed++
			logger.Warn("step failed", "step", res.Step, "event", step.Event, "error", err)
		}
		res.State = notified

		result.Steps = append(result.Steps, res)
	}

	result.Final = store.Get().Raw()

	return result, nil
}

func apply(d *evstore.Draft, op Op, payload any) error {
	v := op.value(payload)

	switch op.Op {
	case OpSet:
		return d.Set(op.Path, v)
	case OpAdd:
		n, ok := number(v)
		if !ok {
			return fmt.Errorf("add %s: %T is not a number", op.Path, v)
		}
		return d.Add(op.Path, n)
	case OpAppend:
		return d.Append(op.Path, v)
	case OpDelete:
		return d.Delete(op.Path)
	}

	return fmt.Errorf("unknown op %q", op.Op)
}

func writeReplay(w io.Writer, format string, result *ReplayResult) error {
	if format == "json" {
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(result)
	}

	fmt.Fprintf(w, "scenario %s\n", result.Scenario)
	for _, step := range result.Steps {
		switch {
		case step.Error != "":
			fmt.Fprintf(w, "step %d %s: error: %s\n", step.Step, step.Event, step.Error)
		case step.State == nil:
			fmt.Fprintf(w, "step %d %s: unchanged\n", step.Step, step.Event)
		default:
			fmt.Fprintf(w, "step %d %s: %s\n", step.Step, step.Event, step.State)
		}
	}
	fmt.Fprintf(w, "final: %s\n", result.Final)

	return nil
}
