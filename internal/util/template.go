package util

import (
	"bytes"
	"strings"
	"text/template"
)

// RenderTemplate renders {{.field}} markers in a prompt template from the
// given state. Prompt text passes through unescaped (text/template, not
// html/template). Text without markers is returned as is, without a parse.
func RenderTemplate(text string, state map[string]any) (string, error) {
	if !strings.Contains(text, "{{") {
		return text, nil
	}

	tmpl, err := template.New("prompt").Parse(text)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, state); err != nil {
		return "", err
	}

	return buf.String(), nil
}
