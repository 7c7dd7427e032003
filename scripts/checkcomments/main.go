// If you are AI: This tool enforces file headers and doc comments on exported functions.

package main

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-multierror"
)

const headerMarker = "If you are AI:"

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <directory>\n", os.Args[0])
		os.Exit(1)
	}
	if err := check(os.Args[1]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// check walks root and reports every missing header or exported doc comment.
func check(root string) error {
	var result *multierror.Error
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if path != root && (name == "vendor" || name == "testdata" || strings.HasPrefix(name, "_") || strings.HasPrefix(name, ".")) {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(path, ".go") {
			return nil
		}
		for _, problem := range checkFile(path) {
			result = multierror.Append(result, problem)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("walk %s: %w", root, err)
	}
	return result.ErrorOrNil()
}

// checkFile returns the problems found in one file. Test files only need the header.
func checkFile(path string) []error {
	data, err := os.ReadFile(path)
	if err != nil {
		return []error{err}
	}
	var problems []error
	if !strings.Contains(string(data), headerMarker) {
		problems = append(problems, fmt.Errorf("%s: missing %q header", path, headerMarker))
	}
	if strings.HasSuffix(path, "_test.go") {
		return problems
	}

	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, path, data, parser.ParseComments)
	if err != nil {
		return append(problems, fmt.Errorf("%s: %w", path, err))
	}
	for _, decl := range f.Decls {
		fn, ok := decl.(*ast.FuncDecl)
		if !ok || !fn.Name.IsExported() {
			continue
		}
		if fn.Doc == nil || len(fn.Doc.List) == 0 {
			pos := fset.Position(fn.Pos())
			problems = append(problems, fmt.Errorf("%s:%d: exported function %s missing comment", path, pos.Line, fn.Name.Name))
		}
	}
	return problems
}
