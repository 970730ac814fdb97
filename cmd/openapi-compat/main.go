// Package main checks that an API document revision keeps every path,
// operation and response code of a base document.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"

	"instaclone/docs"

	"gopkg.in/yaml.v3"
)

var supportedMethods = map[string]struct{}{
	"get":    {},
	"put":    {},
	"post":   {},
	"delete": {},
	"patch":  {},
}

type operation struct {
	Responses map[string]struct{}
	Secured   bool
}

type apiDoc struct {
	BasePath string
	Paths    map[string]map[string]operation
}

func main() {
	basePath := flag.String("base", "", "base swagger document (JSON or YAML)")
	revisionPath := flag.String("revision", "", "revision swagger document; defaults to the document compiled into this build")
	flag.Parse()

	if strings.TrimSpace(*basePath) == "" {
		fmt.Fprintln(os.Stderr, "usage: openapi-compat -base <path> [-revision <path>]")
		os.Exit(2)
	}

	base, err := loadFile(*basePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load base document: %v\n", err)
		os.Exit(1)
	}

	var revision apiDoc
	if strings.TrimSpace(*revisionPath) == "" {
		revision, err = parseDoc([]byte(docs.SwaggerInfo.ReadDoc()))
	} else {
		revision, err = loadFile(*revisionPath)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load revision document: %v\n", err)
		os.Exit(1)
	}

	issues := compare(base, revision)
	if len(issues) > 0 {
		fmt.Fprintln(os.Stderr, "backward compatibility check failed:")
		for _, issue := range issues {
			fmt.Fprintf(os.Stderr, "- %s\n", issue)
		}
		os.Exit(1)
	}

	fmt.Printf("compatible: %d paths checked\n", len(base.Paths))
}

func loadFile(path string) (apiDoc, error) {
	// #nosec G304: path comes from CLI flags in a dev tool
	raw, err := os.ReadFile(path)
	if err != nil {
		return apiDoc{}, err
	}
	return parseDoc(raw)
}

// parseDoc reads a swagger 2.0 document. JSON input parses as YAML.
func parseDoc(raw []byte) (apiDoc, error) {
	var doc struct {
		BasePath string                    `yaml:"basePath"`
		Security []map[string][]string     `yaml:"security"`
		Paths    map[string]map[string]any `yaml:"paths"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return apiDoc{}, err
	}
	if doc.Paths == nil {
		return apiDoc{}, errors.New("missing top-level paths field")
	}

	out := apiDoc{BasePath: doc.BasePath, Paths: make(map[string]map[string]operation, len(doc.Paths))}
	for path, methods := range doc.Paths {
		ops := make(map[string]operation)
		for method, entry := range methods {
			m := strings.ToLower(strings.TrimSpace(method))
			if _, ok := supportedMethods[m]; !ok {
				continue
			}
			body, ok := entry.(map[string]any)
			if !ok {
				continue
			}
			op := operation{Responses: make(map[string]struct{}), Secured: len(doc.Security) > 0}
			if responses, ok := body["responses"].(map[string]any); ok {
				for code := range responses {
					if c := strings.ToLower(strings.TrimSpace(code)); c != "" {
						op.Responses[c] = struct{}{}
					}
				}
			}
			if sec, ok := body["security"].([]any); ok {
				op.Secured = len(sec) > 0
			}
			ops[m] = op
		}
		if len(ops) > 0 {
			out.Paths[path] = ops
		}
	}
	return out, nil
}

func compare(base, revision apiDoc) []string {
	var issues []string

	if base.BasePath != revision.BasePath {
		issues = append(issues, fmt.Sprintf("base path changed: %q -> %q", base.BasePath, revision.BasePath))
	}

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
			if !baseOp.Secured && revOp.Secured {
				issues = append(issues, fmt.Sprintf("operation now requires auth: %s %s", strings.ToUpper(method), path))
			}

			for code := range baseOp.Responses {
				if _, ok := revOp.Responses[code]; !ok {
					issues = append(issues, fmt.Sprintf(
						"removed response code: %s %s -> %s",
						strings.ToUpper(method), path, strings.ToUpper(code),
					))
				}
			}
		}
	}

	sort.Strings(issues)
	return issues
}
