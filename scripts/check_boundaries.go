// Command check_boundaries enforces the layering inside contexts/<ctx>/<module>:
// domain depends on nothing, application and ports depend only on their own
// module, and no module imports another module.
package main

import (
	"fmt"
	"go/parser"
	"go/token"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const modulePath = "girthgov"

type violation struct {
	File   string
	Line   int
	Import string
	Rule   string
}

// layerRule lists what a layer may import beyond the standard library.
// Entries starting with "/" are relative to the owning module.
type layerRule struct {
	allowed       []string
	noInfra       bool
	noAdapters    bool
	allowAllThird bool
}

var layerRules = map[string]layerRule{
	"domain": {
		allowed:    []string{"/domain"},
		noInfra:    true,
		noAdapters: true,
	},
	"ports": {
		allowed:    []string{"/domain", "/ports", modulePath + "/contracts"},
		noInfra:    true,
		noAdapters: true,
	},
	"application": {
		allowed:    []string{"/application", "/domain", "/ports", modulePath + "/contracts", "golang.org/x/sync"},
		noInfra:    true,
		noAdapters: true,
	},
	"transport": {
		allowed:    []string{"/transport"},
		noInfra:    true,
		noAdapters: true,
	},
	"adapters": {
		allowAllThird: true,
	},
}

func main() {
	violations := collectViolations("contexts")
	if len(violations) == 0 {
		fmt.Println("boundary checks passed")
		return
	}
	fmt.Println("boundary violations found:")
	for _, v := range violations {
		fmt.Printf("- %s:%d imports %q (%s)\n", v.File, v.Line, v.Import, v.Rule)
	}
	os.Exit(1)
}

func collectViolations(root string) []violation {
	var violations []violation
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
			return nil
		}
		normalized := filepath.ToSlash(path)
		parts := strings.Split(normalized, "/")
		if len(parts) < 4 || parts[0] != "contexts" {
			return nil
		}
		module := fmt.Sprintf("%s/contexts/%s/%s", modulePath, parts[1], parts[2])
		violations = append(violations, validateFile(path, normalized, parts[3], module)...)
		return nil
	})

	sort.Slice(violations, func(i, j int) bool {
		if violations[i].File != violations[j].File {
			return violations[i].File < violations[j].File
		}
		if violations[i].Line != violations[j].Line {
			return violations[i].Line < violations[j].Line
		}
		return violations[i].Import < violations[j].Import
	})
	return violations
}

func validateFile(path string, normalizedPath string, layer string, module string) []violation {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, path, nil, parser.ImportsOnly)
	if err != nil {
		return []violation{{File: normalizedPath, Line: 1, Rule: "file must parse"}}
	}

	var violations []violation
	for _, imp := range file.Imports {
		importPath := strings.Trim(imp.Path.Value, `"`)
		report := func(rule string) {
			violations = append(violations, violation{
				File:   normalizedPath,
				Line:   fset.Position(imp.Pos()).Line,
				Import: importPath,
				Rule:   rule,
			})
		}

		if strings.HasPrefix(importPath, modulePath+"/contexts/") && !hasPrefix(importPath, module) {
			report("cross-module imports are forbidden")
		}
		rule, ok := layerRules[layer]
		if !ok {
			continue
		}
		if rule.noAdapters && strings.Contains(importPath, "/adapters/") {
			report(layer + " must not import adapters")
		}
		if rule.noInfra && strings.HasPrefix(importPath, modulePath+"/internal/") {
			report(layer + " must not import runtime infrastructure")
		}
		if isStdlib(importPath) || rule.allowAllThird {
			continue
		}
		if !isAllowed(importPath, module, rule.allowed) {
			report(layer + " import is outside explicit allowlist")
		}
	}
	return violations
}

func hasPrefix(path string, prefix string) bool {
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

func isAllowed(importPath string, module string, allowed []string) bool {
	for _, entry := range allowed {
		if strings.HasPrefix(entry, "/") {
			entry = module + entry
		}
		if hasPrefix(importPath, entry) {
			return true
		}
	}
	return false
}

func isStdlib(importPath string) bool {
	if hasPrefix(importPath, modulePath) {
		return false
	}
	first, _, _ := strings.Cut(importPath, "/")
	return !strings.Contains(first, ".")
}
