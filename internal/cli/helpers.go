package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/thoas/go-funk"
	"sigs.k8s.io/yaml"
)

const (
	SourceKind  = "source"
	FindingKind = "finding"

	jsonFormat = "json"
	yamlFormat = "yaml"
)

var (
	pluralKinds = map[string]string{
		SourceKind:  "sources",
		FindingKind: "findings",
	}

	legalOutputTypes = []string{jsonFormat, yamlFormat}
)

// parseAndValidateKindName splits TYPE or TYPE/NAME.
func parseAndValidateKindName(arg string) (string, string, error) {
	kind, name, _ := strings.Cut(arg, "/")
	kind = singular(kind)
	if _, ok := pluralKinds[kind]; !ok {
		return "", "", fmt.Errorf("invalid resource kind: %s", kind)
	}
	return kind, name, nil
}

func singular(kind string) string {
	for singular, plural := range pluralKinds {
		if kind == plural {
			return singular
		}
	}
	return kind
}

func plural(kind string) string {
	return pluralKinds[kind]
}

func validateOutput(output string) error {
	if len(output) > 0 && !funk.ContainsString(legalOutputTypes, output) {
		return fmt.Errorf("output format must be one of %s", strings.Join(legalOutputTypes, ", "))
	}
	return nil
}

// printStructured prints v as json or yaml. It reports false for the table
// output, which every command renders itself.
func printStructured(v any, output string) (bool, error) {
	var (
		marshalled []byte
		err        error
	)
	switch output {
	case jsonFormat:
		marshalled, err = json.Marshal(v)
	case yamlFormat:
		marshalled, err = yaml.Marshal(v)
	default:
		return false, nil
	}
	if err != nil {
		return true, fmt.Errorf("marshalling resource: %w", err)
	}
	fmt.Fprintf(os.Stdout, "%s\n", string(marshalled))
	return true, nil
}
