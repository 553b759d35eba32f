package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/4gsim/bpmn-engine/model"
	"github.com/go-playground/validator/v10"
)

// definitionFile is the JSON rendering of a process graph.
// It is validated structurally before the graph is built.
type definitionFile struct {
	Id        string        `json:"id" validate:"required"`
	Processes []processFile `json:"processes" validate:"required,min=1,dive"`

	MessageFlows []messageFlowFile `json:"messageFlows,omitempty" validate:"dive"`
}

type processFile struct {
	Id         string `json:"id" validate:"required"`
	Executable bool   `json:"executable"`

	Elements []elementFile `json:"elements" validate:"required,min=1,dive"`
	Flows    []flowFile    `json:"flows,omitempty" validate:"dive"`
}

type elementFile struct {
	Id   string `json:"id" validate:"required"`
	Type string `json:"type" validate:"required,element_type"`
	Name string `json:"name,omitempty"`

	Default string `json:"default,omitempty"`

	Input  map[string]string `json:"input,omitempty"`
	Output map[string]string `json:"output,omitempty"`

	Form  *formFile  `json:"form,omitempty"`
	Loop  *loopFile  `json:"loop,omitempty"`
	Timer *timerFile `json:"timer,omitempty"`
}

type formFile struct {
	Key    string          `json:"key" validate:"required"`
	Fields []formFieldFile `json:"fields,omitempty" validate:"dive"`
}

type formFieldFile struct {
	Id           string `json:"id" validate:"required"`
	Label        string `json:"label,omitempty"`
	Type         string `json:"type,omitempty"`
	DefaultValue string `json:"defaultValue,omitempty"`
}

type loopFile struct {
	Sequential  bool   `json:"sequential"`
	Cardinality string `json:"cardinality,omitempty"`
	Collection  string `json:"collection,omitempty"`
}

type timerFile struct {
	Time         string `json:"time,omitempty"`
	TimeCycle    string `json:"timeCycle,omitempty"`
	TimeDuration string `json:"timeDuration,omitempty"`
}

type flowFile struct {
	Id     string `json:"id" validate:"required"`
	Source string `json:"source" validate:"required"`
	Target string `json:"target" validate:"required"`

	Condition string `json:"condition,omitempty"`
}

type messageFlowFile struct {
	Id     string `json:"id" validate:"required"`
	Source string `json:"source" validate:"required"`
	Target string `json:"target" validate:"required"`
}

var fileValidate = newFileValidator()

func newFileValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterValidation("element_type", func(fl validator.FieldLevel) bool {
		return model.MapElementType(fl.Field().String()) != 0
	})

	return v
}

// readDefinitionFile loads, validates and builds a process graph from a JSON file.
func readDefinitionFile(fileName string) (*model.Definitions, error) {
	data, err := os.ReadFile(fileName)
	if err != nil {
		return nil, fmt.Errorf("failed to read definition file: %v", err)
	}

	var file definitionFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to unmarshal definition file %s: %v", fileName, err)
	}

	if err := fileValidate.Struct(file); err != nil {
		return nil, fmt.Errorf("invalid definition file %s: %v", fileName, err)
	}

	return buildDefinitions(file)
}

func buildDefinitions(file definitionFile) (*model.Definitions, error) {
	b := model.NewBuilder(file.Id)

	for _, processFile := range file.Processes {
		p := b.Process(processFile.Id, processFile.Executable)

		for _, elementFile := range processFile.Elements {
			options, err := elementOptions(elementFile)
			if err != nil {
				return nil, err
			}

			p.Element(elementFile.Id, model.MapElementType(elementFile.Type), options...)
		}

		for _, flowFile := range processFile.Flows {
			if flowFile.Condition != "" {
				p.ConditionalFlow(flowFile.Id, flowFile.Source, flowFile.Target, flowFile.Condition)
			} else {
				p.Flow(flowFile.Id, flowFile.Source, flowFile.Target)
			}
		}
	}

	for _, messageFlowFile := range file.MessageFlows {
		b.MessageFlow(messageFlowFile.Id, messageFlowFile.Source, messageFlowFile.Target)
	}

	return b.Build()
}

func elementOptions(file elementFile) ([]model.ElementOption, error) {
	var options []model.ElementOption

	if file.Name != "" {
		options = append(options, model.WithName(file.Name))
	}
	if file.Default != "" {
		options = append(options, model.WithDefaultFlow(file.Default))
	}
	if len(file.Input) != 0 || len(file.Output) != 0 {
		options = append(options, model.WithIo(file.Input, file.Output))
	}

	if file.Form != nil {
		form := model.Form{Key: file.Form.Key}
		for _, fieldFile := range file.Form.Fields {
			form.Fields = append(form.Fields, model.FormField{
				Id:           fieldFile.Id,
				Label:        fieldFile.Label,
				Type:         fieldFile.Type,
				DefaultValue: fieldFile.DefaultValue,
			})
		}
		options = append(options, model.WithForm(form))
	}

	if file.Loop != nil {
		if file.Loop.Sequential {
			options = append(options, model.WithSequentialLoop(file.Loop.Cardinality, file.Loop.Collection))
		} else {
			options = append(options, model.WithParallelLoop(file.Loop.Cardinality, file.Loop.Collection))
		}
	}

	if file.Timer != nil {
		timer := model.Timer{
			TimeCycle:    file.Timer.TimeCycle,
			TimeDuration: file.Timer.TimeDuration,
		}

		if file.Timer.Time != "" {
			t, err := time.Parse(time.RFC3339, file.Timer.Time)
			if err != nil {
				return nil, fmt.Errorf("invalid timer time of element %s: %v", file.Id, err)
			}
			timer.Time = t
		}

		options = append(options, model.WithTimer(timer))
	}

	return options, nil
}
