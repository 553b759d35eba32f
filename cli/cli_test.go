package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

const orderDefinition = `{
  "id": "order",
  "processes": [
    {
      "id": "orderProcess",
      "executable": true,
      "elements": [
        {"id": "start", "type": "NONE_START_EVENT"},
        {"id": "approve", "type": "USER_TASK", "output": {"approved": "${signal}"}},
        {"id": "end", "type": "NONE_END_EVENT"}
      ],
      "flows": [
        {"id": "f1", "source": "start", "target": "approve"},
        {"id": "f2", "source": "approve", "target": "end"}
      ]
    }
  ]
}`

func mustWriteFile(t *testing.T, fileName string, data string) string {
	filePath := filepath.Join(t.TempDir(), fileName)
	if err := os.WriteFile(filePath, []byte(data), 0o600); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
	return filePath
}

func execute(args ...string) (string, int) {
	var out bytes.Buffer

	cli := New("test-version")
	cli.rootCmd.SetOut(&out)
	cli.rootCmd.SetErr(&out)
	cli.rootCmd.SetArgs(args)

	code := cli.Execute()
	return out.String(), code
}

func TestValidateCmd(t *testing.T) {
	assert := assert.New(t)

	// given
	fileName := mustWriteFile(t, "order.json", orderDefinition)

	// when
	out, code := execute("validate", "-f", fileName)

	// then
	assert.Zero(code)
	assert.Contains(out, "definition order is valid")
}

func TestValidateCmdInvalidFile(t *testing.T) {
	assert := assert.New(t)

	t.Run("unknown element type", func(t *testing.T) {
		// given
		fileName := mustWriteFile(t, "order.json", `{
		  "id": "order",
		  "processes": [
		    {
		      "id": "orderProcess",
		      "executable": true,
		      "elements": [{"id": "start", "type": "PARALLEL_GATEWAY"}]
		    }
		  ]
		}`)

		// when
		_, code := execute("validate", "-f", fileName)

		// then
		assert.Equal(1, code)
	})

	t.Run("no start event", func(t *testing.T) {
		// given
		fileName := mustWriteFile(t, "order.json", `{
		  "id": "order",
		  "processes": [
		    {
		      "id": "orderProcess",
		      "executable": true,
		      "elements": [{"id": "approve", "type": "USER_TASK"}]
		    }
		  ]
		}`)

		// when
		_, code := execute("validate", "-f", fileName)

		// then
		assert.Equal(1, code)
	})

	t.Run("missing file", func(t *testing.T) {
		// when
		_, code := execute("validate", "-f", filepath.Join(t.TempDir(), "missing.json"))

		// then
		assert.Equal(1, code)
	})
}

func TestRunCmdCompletes(t *testing.T) {
	assert := assert.New(t)

	// given a definition that runs to completion
	fileName := mustWriteFile(t, "order.json", `{
	  "id": "order",
	  "processes": [
	    {
	      "id": "orderProcess",
	      "executable": true,
	      "elements": [
	        {"id": "start", "type": "NONE_START_EVENT"},
	        {"id": "task", "type": "TASK"},
	        {"id": "end", "type": "NONE_END_EVENT"}
	      ],
	      "flows": [
	        {"id": "f1", "source": "start", "target": "task"},
	        {"id": "f2", "source": "task", "target": "end"}
	      ]
	    }
	  ]
	}`)

	// when
	out, code := execute("run", "-f", fileName)

	// then the accumulated output is printed
	assert.Zero(code)
	assert.Contains(out, "{}")
}

func TestRunAndResumeCmd(t *testing.T) {
	assert := assert.New(t)

	// given
	fileName := mustWriteFile(t, "order.json", orderDefinition)
	stateFileName := filepath.Join(t.TempDir(), "state.json")

	// when the run quiesces on the user task
	out, code := execute("run", "-f", fileName, "--state-file", stateFileName)

	// then the state is saved
	assert.Zero(code)
	assert.Contains(out, "state saved to "+stateFileName)

	if _, err := os.Stat(stateFileName); err != nil {
		t.Fatalf("expected a state file: %v", err)
	}

	// when the run is resumed and the user task signaled
	out, code = execute("resume", "-f", fileName, "--state-file", stateFileName, "--signal", "approve=true")

	// then the run completes and prints its output
	assert.Zero(code)
	assert.Contains(out, `"approved": true`)
}

func TestRunCmdWithVariables(t *testing.T) {
	assert := assert.New(t)

	// given a service-less definition whose output echoes a variable
	fileName := mustWriteFile(t, "order.json", `{
	  "id": "order",
	  "processes": [
	    {
	      "id": "orderProcess",
	      "executable": true,
	      "elements": [
	        {"id": "start", "type": "NONE_START_EVENT"},
	        {"id": "task", "type": "TASK", "output": {"orderId": "${variables.orderId}"}},
	        {"id": "end", "type": "NONE_END_EVENT"}
	      ],
	      "flows": [
	        {"id": "f1", "source": "start", "target": "task"},
	        {"id": "f2", "source": "task", "target": "end"}
	      ]
	    }
	  ]
	}`)

	// when
	out, code := execute("run", "-f", fileName, "--variable", "orderId=7")

	// then
	assert.Zero(code)
	assert.Contains(out, `"orderId": 7`)
}

func TestRunCmdPendingWithoutStateFile(t *testing.T) {
	assert := assert.New(t)

	// given
	fileName := mustWriteFile(t, "order.json", orderDefinition)

	// when the run quiesces, but no state file is given
	_, code := execute("run", "-f", fileName)

	// then
	assert.Equal(1, code)
}

func TestVersionCmd(t *testing.T) {
	assert := assert.New(t)

	// when
	out, code := execute("version")

	// then
	assert.Zero(code)
	assert.Contains(out, "test-version")
}

func TestParseVariables(t *testing.T) {
	assert := assert.New(t)

	variables := parseVariables(map[string]string{
		"orderId":  "7",
		"approved": "true",
		"name":     "Jane",
		"items":    `["x","y"]`,
	})

	assert.Equal(float64(7), variables["orderId"])
	assert.Equal(true, variables["approved"])
	assert.Equal("Jane", variables["name"])
	assert.Equal([]any{"x", "y"}, variables["items"])

	assert.Nil(parseVariables(nil))
}

func TestParseSignal(t *testing.T) {
	assert := assert.New(t)

	activityId, value := parseSignal("approve")
	assert.Equal("approve", activityId)
	assert.Nil(value)

	activityId, value = parseSignal("approve=true")
	assert.Equal("approve", activityId)
	assert.Equal(true, value)

	activityId, value = parseSignal("approve=yes")
	assert.Equal("approve", activityId)
	assert.Equal("yes", value)
}
