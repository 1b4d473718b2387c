package plugin

import (
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/robinvdvleuten/beancount-plugins/ast"
)

// DecodeConfig decodes the configuration text of a plugin directive into out.
//
// Configurations are written as Python dictionaries:
//
//	{'account': 'Assets:Bank', 'replace-rules': [{'replace-from': 'x', 'replace-to': 'y'}]}
//
// which is YAML flow syntax, so yaml struct tags describe the fields. Empty text leaves
// out untouched. A syntax error is returned as an *Error positioned at pos.
func DecodeConfig(pos ast.Position, text string, out interface{}) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	if err := yaml.Unmarshal([]byte(text), out); err != nil {
		return &Error{
			Pos:     pos,
			Message: "invalid plugin configuration: " + err.Error(),
		}
	}

	return nil
}
