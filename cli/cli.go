package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/4gsim/bpmn-engine/engine"
	"github.com/4gsim/bpmn-engine/engine/mem"
	"github.com/4gsim/bpmn-engine/model"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const (
	envLookupAllowed = "envLookupAllowed" // flag level annotation that allows an environment variable lookup
	envPrefix        = "BPMN_ENGINE_"
	program          = "bpmn-engine"
)

func init() {
	log.SetFlags(0)
}

func New(version string) *Cli {
	cli := Cli{version: version}

	cli.rootCmd = newRootCmd(&cli)

	return &cli
}

type Cli struct {
	version string

	rootCmd *cobra.Command

	// newDefinition creates the definition to run. Overridable for testing.
	newDefinition func(definitions *model.Definitions, customizers ...func(*mem.Options)) (engine.Definition, error)
}

func (c *Cli) Execute() int {
	if err := c.rootCmd.Execute(); err != nil {
		return 1
	}
	return 0
}

func (c *Cli) help(cmd *cobra.Command, args []string) error {
	return cmd.Help()
}

func newRootCmd(cli *Cli) *cobra.Command {
	c := cobra.Command{
		Use:   program,
		Short: "Run process definitions described as JSON files",
		PersistentPreRun: func(c *cobra.Command, _ []string) {
			c.SilenceUsage = true

			if cli.newDefinition == nil {
				cli.newDefinition = mem.New
			}

			c.Flags().VisitAll(func(f *pflag.Flag) {
				if f.Changed {
					return
				}
				if _, ok := f.Annotations[envLookupAllowed]; !ok {
					return
				}

				// e.g. state-file -> BPMN_ENGINE_STATE_FILE
				key := envPrefix + strings.ReplaceAll(strings.ToUpper(f.Name), "-", "_")

				if value, ok := os.LookupEnv(key); ok {
					f.Value.Set(value)
				}
			})
		},
		RunE: cli.help,
	}

	c.AddCommand(newRunCmd(cli))
	c.AddCommand(newResumeCmd(cli))
	c.AddCommand(newValidateCmd(cli))
	c.AddCommand(newVersionCmd(cli))

	return &c
}

func newRunCmd(cli *Cli) *cobra.Command {
	var (
		fileName      string
		variablesV    map[string]string
		stateFileName string
	)

	c := cobra.Command{
		Use:   "run",
		Short: "Run a definition until completion or quiescence",
		RunE: func(c *cobra.Command, _ []string) error {
			definitions, err := readDefinitionFile(fileName)
			if err != nil {
				return err
			}

			d, err := cli.newDefinition(definitions, func(o *mem.Options) {
				o.Common.Listener = newLogListener()
			})
			if err != nil {
				return err
			}
			defer d.Shutdown()

			cmd := engine.ExecuteCmd{Variables: parseVariables(variablesV)}
			if err := d.Execute(context.Background(), cmd); err != nil {
				return err
			}

			return finishRun(c, d, stateFileName)
		},
	}

	c.Flags().StringVarP(&fileName, "file", "f", "", "Definition file to run")
	c.Flags().StringToStringVar(&variablesV, "variable", nil, "Variable to set before the run starts, e.g. --variable orderId=1")
	c.Flags().StringVar(&stateFileName, "state-file", "", "File to save the state to, if the run does not complete")

	c.Flags().SetAnnotation("state-file", envLookupAllowed, nil)

	c.MarkFlagRequired("file")

	return &c
}

func newResumeCmd(cli *Cli) *cobra.Command {
	var (
		fileName      string
		stateFileName string
		variablesV    map[string]string
		signalV       string
	)

	c := cobra.Command{
		Use:   "resume",
		Short: "Resume a previously saved run",
		RunE: func(c *cobra.Command, _ []string) error {
			definitions, err := readDefinitionFile(fileName)
			if err != nil {
				return err
			}

			data, err := os.ReadFile(stateFileName)
			if err != nil {
				return fmt.Errorf("failed to read state file: %v", err)
			}

			var state engine.DefinitionState
			if err := json.Unmarshal(data, &state); err != nil {
				return fmt.Errorf("failed to unmarshal state file %s: %v", stateFileName, err)
			}

			d, err := cli.newDefinition(definitions, func(o *mem.Options) {
				o.Common.Listener = newLogListener()
			})
			if err != nil {
				return err
			}
			defer d.Shutdown()

			cmd := engine.ResumeCmd{State: state, Variables: parseVariables(variablesV)}
			if err := d.Resume(context.Background(), cmd); err != nil {
				return err
			}

			if signalV != "" {
				activityId, value := parseSignal(signalV)

				consumed, err := d.Signal(context.Background(), engine.SignalCmd{ActivityId: activityId, Value: value})
				if err != nil {
					return err
				}
				if !consumed {
					return fmt.Errorf("no waiting activity consumed signal %s", activityId)
				}
			}

			return finishRun(c, d, stateFileName)
		},
	}

	c.Flags().StringVarP(&fileName, "file", "f", "", "Definition file the state belongs to")
	c.Flags().StringVar(&stateFileName, "state-file", "", "State file, previously saved by run or resume")
	c.Flags().StringToStringVar(&variablesV, "variable", nil, "Additional variable to set, e.g. --variable orderId=1")
	c.Flags().StringVar(&signalV, "signal", "", "Signal a waiting activity, e.g. --signal userTask or --signal userTask=approved")

	c.Flags().SetAnnotation("state-file", envLookupAllowed, nil)

	c.MarkFlagRequired("file")

	return &c
}

func newValidateCmd(cli *Cli) *cobra.Command {
	var fileName string

	c := cobra.Command{
		Use:   "validate",
		Short: "Validate a definition file",
		RunE: func(c *cobra.Command, _ []string) error {
			definitions, err := readDefinitionFile(fileName)
			if err != nil {
				return err
			}

			// creating the definition validates the graph
			d, err := cli.newDefinition(definitions)
			if err != nil {
				return err
			}
			defer d.Shutdown()

			c.Printf("definition %s is valid\n", definitions.Id)
			return nil
		},
	}

	c.Flags().StringVarP(&fileName, "file", "f", "", "Definition file to validate")

	c.MarkFlagRequired("file")

	return &c
}

func newVersionCmd(cli *Cli) *cobra.Command {
	c := cobra.Command{
		Use:   "version",
		Short: "Show version",
		Run: func(c *cobra.Command, _ []string) {
			c.Println(cli.version)
		},
	}

	return &c
}

// finishRun reports the outcome of a run. A quiescent run is stopped and its
// state saved, so that it can be continued via resume.
func finishRun(c *cobra.Command, d engine.Definition, stateFileName string) error {
	pending := d.GetPendingActivities()
	if len(pending) == 0 {
		output, err := json.MarshalIndent(d.GetOutput(), "", "  ")
		if err != nil {
			return err
		}

		c.Printf("%s\n", output)
		return nil
	}

	for _, activity := range pending {
		log.Printf("pending: %s %s (%s)", activity.Type, activity.ElementId, activity.ContextId)
	}

	if stateFileName == "" {
		return fmt.Errorf("run has %d pending activities, but no state file is given", len(pending))
	}

	if err := d.Stop(context.Background()); err != nil {
		return err
	}

	state, err := d.GetState()
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}

	if err := os.WriteFile(stateFileName, data, 0o600); err != nil {
		return fmt.Errorf("failed to write state file: %v", err)
	}

	c.Printf("state saved to %s\n", stateFileName)
	return nil
}

func newLogListener() engine.Listener {
	return engine.Listener{
		OnWait: func(event engine.Event) {
			log.Printf("wait: %s %s (%s)", event.ElementType, event.ElementId, event.ContextId)
		},
		OnEnd: func(event engine.Event) {
			log.Printf("end: %s %s (%s)", event.ElementType, event.ElementId, event.ContextId)
		},
		OnError: func(event engine.Event, err error) {
			log.Printf("error: %s %s: %v", event.ElementType, event.ElementId, err)
		},
	}
}

// parseVariables maps flag values to variables.
// A value that is valid JSON is unmarshalled, anything else becomes a string.
func parseVariables(variablesV map[string]string) map[string]any {
	if len(variablesV) == 0 {
		return nil
	}

	variables := make(map[string]any, len(variablesV))
	for name, value := range variablesV {
		var v any
		if err := json.Unmarshal([]byte(value), &v); err != nil {
			v = value
		}
		variables[name] = v
	}
	return variables
}

// parseSignal splits a signal flag value into activity ID and optional value.
func parseSignal(signalV string) (string, any) {
	activityId, value, ok := strings.Cut(signalV, "=")
	if !ok {
		return activityId, nil
	}

	var v any
	if err := json.Unmarshal([]byte(value), &v); err != nil {
		v = value
	}
	return activityId, v
}
