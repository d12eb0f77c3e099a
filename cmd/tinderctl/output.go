package main

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

const (
	formatJSON = "json"
	formatYAML = "yaml"
)

// printResult writes v as indented JSON or as YAML. Values go through JSON
// first so both formats use the API field names.
func printResult(w io.Writer, format string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	switch format {
	case formatJSON:
		_, err = fmt.Fprintln(w, string(data))
		return err
	case formatYAML:
		var generic any
		if err := json.Unmarshal(data, &generic); err != nil {
			return err
		}

		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(generic); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}
