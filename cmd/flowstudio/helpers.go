package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/aretw0/flowstudio"
	"github.com/aretw0/flowstudio/pkg/domain"
	"github.com/aretw0/flowstudio/pkg/graph"
	"gopkg.in/yaml.v3"
)

// readSource reads path, or stdin when path is "-".
func readSource(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

// readFlow loads an exported {nodes, edges} document (JSON or YAML) into a flow.
func readFlow(path string) (domain.Flow, error) {
	raw, err := readSource(path)
	if err != nil {
		return domain.Flow{}, err
	}
	store := graph.NewStore()
	if flowstudio.FormatFromPath(path) == flowstudio.FormatYAML {
		err = store.ImportYAML(raw)
	} else {
		err = store.ImportJSON(raw)
	}
	if err != nil {
		return domain.Flow{}, fmt.Errorf("%s: %w", path, err)
	}
	return store.Snapshot(), nil
}

// parseObject decodes a JSON or YAML object given inline or, with a leading '@', from a file.
func parseObject(value string) (map[string]any, error) {
	if value == "" {
		return nil, nil
	}
	raw := []byte(value)
	if value[0] == '@' {
		var err error
		if raw, err = readSource(value[1:]); err != nil {
			return nil, err
		}
	}

	out := map[string]any{}
	if err := json.Unmarshal(raw, &out); err == nil {
		return out, nil
	}
	if err := yaml.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("expected a JSON or YAML object: %w", err)
	}
	return out, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
