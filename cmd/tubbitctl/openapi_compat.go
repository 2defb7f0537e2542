package main

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var supportedMethods = map[string]struct{}{
	"get":     {},
	"put":     {},
	"post":    {},
	"delete":  {},
	"patch":   {},
	"head":    {},
	"options": {},
}

// Every response body the API writes is one of these envelopes; clients
// depend on their field names.
var envelopeFields = map[string][]string{
	"models.ApiResponse":   {"statusCode", "data", "message", "success"},
	"models.ErrorResponse": {"statusCode", "message", "success"},
}

type operation struct {
	Responses map[string]struct{}
	Secured   bool
}

type parsedSpec struct {
	Paths       map[string]map[string]operation
	Definitions map[string]map[string]struct{}
}

var compatBase, compatRevision string

var openAPICompatCmd = &cobra.Command{
	Use:   "openapi-compat",
	Short: "Fail when a revised swagger document breaks existing clients",
	Long: `Compares two swagger documents (YAML or JSON) and reports removed
paths, operations and response codes, operations that became
authenticated, and response envelopes missing their fields.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if strings.TrimSpace(compatBase) == "" || strings.TrimSpace(compatRevision) == "" {
			return errors.New("usage: tubbitctl openapi-compat --base <path> --revision <path>")
		}
		baseSpec, err := loadSpec(compatBase)
		if err != nil {
			return fmt.Errorf("failed to load base spec: %w", err)
		}
		revisionSpec, err := loadSpec(compatRevision)
		if err != nil {
			return fmt.Errorf("failed to load revision spec: %w", err)
		}

		issues := compare(baseSpec, revisionSpec)
		if len(issues) > 0 {
			out := cmd.ErrOrStderr()
			fmt.Fprintln(out, "backward compatibility check failed:")
			for _, issue := range issues {
				fmt.Fprintf(out, "- %s\n", issue)
			}
			return fmt.Errorf("%d compatibility issue(s)", len(issues))
		}

		fmt.Fprintln(cmd.OutOrStdout(), "openapi compatibility check passed")
		return nil
	},
}

func init() {
	openAPICompatCmd.Flags().StringVar(&compatBase, "base", "", "base swagger document")
	openAPICompatCmd.Flags().StringVar(&compatRevision, "revision", "", "revision swagger document")
}

func loadSpec(path string) (parsedSpec, error) {
	// #nosec G304: path comes from CLI flags in a dev tool
	raw, err := os.ReadFile(path)
	if err != nil {
		return parsedSpec{}, err
	}
	return parseSpec(raw)
}

func parseSpec(raw []byte) (parsedSpec, error) {
	doc := map[string]interface{}{}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return parsedSpec{}, err
	}

	pathsRaw, ok := doc["paths"]
	if !ok {
		return parsedSpec{}, errors.New("missing top-level paths field")
	}
	pathsMap, ok := toMap(pathsRaw)
	if !ok {
		return parsedSpec{}, errors.New("paths is not an object")
	}

	spec := parsedSpec{
		Paths:       make(map[string]map[string]operation),
		Definitions: make(map[string]map[string]struct{}),
	}

	for pathKey, pathEntry := range pathsMap {
		pathOps, ok := toMap(pathEntry)
		if !ok {
			continue
		}
		ops := make(map[string]operation)
		for methodKey, methodEntry := range pathOps {
			method := strings.ToLower(strings.TrimSpace(methodKey))
			if _, supported := supportedMethods[method]; !supported {
				continue
			}
			methodMap, ok := toMap(methodEntry)
			if !ok {
				continue
			}
			op := operation{Responses: make(map[string]struct{})}
			if responses, ok := toMap(methodMap["responses"]); ok {
				for code := range responses {
					if normalized := strings.ToLower(strings.TrimSpace(code)); normalized != "" {
						op.Responses[normalized] = struct{}{}
					}
				}
			}
			if security, ok := methodMap["security"].([]interface{}); ok && len(security) > 0 {
				op.Secured = true
			}
			ops[method] = op
		}
		if len(ops) > 0 {
			spec.Paths[pathKey] = ops
		}
	}

	if defs, ok := toMap(doc["definitions"]); ok {
		for name, def := range defs {
			defMap, ok := toMap(def)
			if !ok {
				continue
			}
			props := make(map[string]struct{})
			if properties, ok := toMap(defMap["properties"]); ok {
				for field := range properties {
					props[field] = struct{}{}
				}
			}
			spec.Definitions[name] = props
		}
	}

	return spec, nil
}

func toMap(v interface{}) (map[string]interface{}, bool) {
	switch t := v.(type) {
	case map[string]interface{}:
		return t, true
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			ks, ok := k.(string)
			if !ok {
				continue
			}
			out[ks] = val
		}
		return out, true
	default:
		return nil, false
	}
}

func compare(base, revision parsedSpec) []string {
	var issues []string

	for path, baseOps := range base.Paths {
		revOps, ok := revision.Paths[path]
		if !ok {
			issues = append(issues, fmt.Sprintf("removed path: %s", path))
			continue
		}
		for method, baseOp := range baseOps {
			revOp, ok := revOps[method]
			if !ok {
				issues = append(issues, fmt.Sprintf("removed operation: %s %s", strings.ToUpper(method), path))
				continue
			}
			if revOp.Secured && !baseOp.Secured {
				issues = append(issues, fmt.Sprintf("operation now requires auth: %s %s", strings.ToUpper(method), path))
			}
			for code := range baseOp.Responses {
				if _, ok := revOp.Responses[code]; !ok {
					issues = append(issues, fmt.Sprintf("removed response code: %s %s -> %s",
						strings.ToUpper(method), path, strings.ToUpper(code)))
				}
			}
		}
	}

	for name, fields := range envelopeFields {
		props, ok := revision.Definitions[name]
		if !ok {
			if _, inBase := base.Definitions[name]; inBase {
				issues = append(issues, fmt.Sprintf("removed envelope definition: %s", name))
			}
			continue
		}
		for _, field := range fields {
			if _, ok := props[field]; !ok {
				issues = append(issues, fmt.Sprintf("envelope %s is missing field %q", name, field))
			}
		}
	}

	sort.Strings(issues)
	return issues
}
