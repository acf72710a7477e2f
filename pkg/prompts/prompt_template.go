package prompts

import (
	"strings"
	"text/template"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/agentd/pkg/llms"
)

// FormatPrompter renders a prompt value from input variables.
type FormatPrompter interface {
	FormatPrompt(values map[string]any) (llms.PromptValue, error)
	GetInputVariables() []string
}

var (
	_ llms.PromptValue = StringPromptValue("")
	_ FormatPrompter   = PromptTemplate{}
)

// StringPromptValue is a prompt value that is a string.
type StringPromptValue string

func (v StringPromptValue) String() string {
	return string(v)
}

// Messages returns the string prompt as a single Human message.
func (v StringPromptValue) Messages() []llms.Message {
	return []llms.Message{
		llms.MessageFromTextParts(llms.RoleHuman, string(v)),
	}
}

// PromptTemplate renders a Go text/template with the given input variables.
// Referencing a variable that is not supplied is an error, not an empty string.
type PromptTemplate struct {
	// Template is the prompt template source.
	Template string
	// InputVariables is a list of variable names the prompt template expects.
	InputVariables []string
}

// NewPromptTemplate returns a new prompt template.
func NewPromptTemplate(tpl string, inputVariables []string) PromptTemplate {
	return PromptTemplate{
		Template:       tpl,
		InputVariables: inputVariables,
	}
}

// Format renders the template with the given values.
func (p PromptTemplate) Format(values map[string]any) (string, error) {
	return renderTemplate(p.Template, values)
}

// FormatPrompt renders the template and returns it as a string prompt value.
func (p PromptTemplate) FormatPrompt(values map[string]any) (llms.PromptValue, error) {
	formatted, err := p.Format(values)
	if err != nil {
		return nil, err
	}
	return StringPromptValue(formatted), nil
}

// GetInputVariables returns the input variables the prompt expects.
func (p PromptTemplate) GetInputVariables() []string {
	return p.InputVariables
}

func renderTemplate(tpl string, values map[string]any) (string, error) {
	parsed, err := template.New("prompt").Option("missingkey=error").Parse(tpl)
	if err != nil {
		return "", errors.WithMessage(err, "failed to parse prompt template")
	}
	var sb strings.Builder
	err = parsed.Execute(&sb, values)
	if err != nil {
		return "", errors.WithMessage(err, "failed to render prompt template")
	}
	return sb.String(), nil
}
