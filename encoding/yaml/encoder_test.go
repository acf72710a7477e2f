package yaml

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestYaml(t *testing.T) {
	type Limits struct {
		MemoryMB int    `yaml:"memory_mb" jsonschema:"description=address space cap" fake:"128"`
		Network  string `yaml:"network" jsonschema:"description=network policy" fake:"denied"`
	}

	type Import struct {
		Module string `yaml:"module" jsonschema:"description=module name" fake:"math"`
		Reason string `yaml:"reason" jsonschema:"description=why it is allowed" fake:"pure computation"`
	}

	type RunPolicy struct {
		Source  string   `yaml:"source" comment:"Python source" jsonschema:"description=code to execute" fake:"print(42)"`
		Timeout *int     `yaml:"timeout" jsonschema:"description=Seconds before the run is killed" fake:"10"`
		Limits  *Limits  `yaml:"limits" jsonschema:"description=Resource caps for the run"`
		Imports []Import `yaml:"imports" jsonschema:"description=Allowed import list" fakesize:"1"`
	}
	var p RunPolicy
	enc := NewEncoder(p).WithCommentStyle(LineComment)
	exp := `
Respond with YAML in the following YAML schema without comments:
` + "```yaml" + `
source: print(42) # Python source
timeout: 10 # Seconds before the run is killed
limits: # Resource caps for the run
    memory_mb: 128 # address space cap
    network: denied # network policy
imports: # Allowed import list
    - module: math # module name
      reason: pure computation # why it is allowed
` + "```" + `
Make sure to return an instance of the YAML, not the schema itself.
`

	assert.Equal(t, exp, enc.GetFormatInstructions())
}

func TestYamlUnmarshal(t *testing.T) {
	type Answer struct {
		Content string `yaml:"content"`
	}

	enc := NewEncoder(Answer{})

	var a Answer
	err := enc.Unmarshal([]byte("```yaml\ncontent: \"20\"\n```"), &a)
	require.NoError(t, err)
	assert.Equal(t, "20", a.Content)

	a = Answer{}
	err = enc.Unmarshal([]byte("content: plain\n"), &a)
	require.NoError(t, err)
	assert.Equal(t, "plain", a.Content)
}
