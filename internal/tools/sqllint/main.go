// Command sqllint checks the Q-prefixed query constants that the SQL runner
// executes. Every query must open with a "--sql <uuid>" marker line and no two
// queries may share a marker, since the marker is what the runner logs.
package main

import (
	"flag"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

const markerPrefix = "--sql "

type violation struct {
	file    string
	line    int
	query   string
	message string
}

func (v violation) String() string {
	return fmt.Sprintf("%s:%d %s: %s", v.file, v.line, v.query, v.message)
}

type markerUse struct {
	query string
	pos   token.Position
}

// linter collects violations over a set of files. Markers are tracked across
// files so reuse between two query packages is reported too.
type linter struct {
	prefix     string
	fset       *token.FileSet
	markers    map[string]markerUse
	violations []violation
}

func newLinter(prefix string) *linter {
	return &linter{prefix: prefix, fset: token.NewFileSet(), markers: map[string]markerUse{}}
}

func main() {
	prefix := flag.String("prefix", "Q", "only constants whose name starts with this prefix are queries")
	flag.Parse()
	targets := flag.Args()
	if len(targets) == 0 {
		targets = []string{"internal/sqlinline"}
	}

	l := newLinter(*prefix)
	for _, target := range targets {
		if err := l.add(target); err != nil {
			fmt.Fprintf(os.Stderr, "sqllint: %v\n", err)
			os.Exit(1)
		}
	}
	if len(l.violations) == 0 {
		return
	}
	fmt.Fprintf(os.Stderr, "sqllint: %d query constant(s) the SQL runner would reject\n", len(l.violations))
	for _, v := range l.violations {
		fmt.Fprintln(os.Stderr, "  "+v.String())
	}
	os.Exit(1)
}

// add lints a single file or every non-test Go file below a directory.
func (l *linter) add(target string) error {
	info, err := os.Stat(target)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return l.file(target)
	}
	var files []string
	err = filepath.WalkDir(target, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != target && skipDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if isQuerySource(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return err
	}
	sort.Strings(files)
	for _, path := range files {
		if err := l.file(path); err != nil {
			return err
		}
	}
	return nil
}

func skipDir(name string) bool {
	return strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") || name == "vendor" || name == "testdata"
}

func isQuerySource(path string) bool {
	return filepath.Ext(path) == ".go" && !strings.HasSuffix(path, "_test.go")
}

func (l *linter) file(path string) error {
	f, err := parser.ParseFile(l.fset, path, nil, 0)
	if err != nil {
		return err
	}
	for _, decl := range f.Decls {
		gd, ok := decl.(*ast.GenDecl)
		if !ok || gd.Tok != token.CONST {
			continue
		}
		for _, s := range gd.Specs {
			vs := s.(*ast.ValueSpec)
			for i, name := range vs.Names {
				if i >= len(vs.Values) || !strings.HasPrefix(name.Name, l.prefix) {
					continue
				}
				lit, ok := vs.Values[i].(*ast.BasicLit)
				if !ok || lit.Kind != token.STRING {
					continue
				}
				l.query(name.Name, lit)
			}
		}
	}
	return nil
}

func (l *linter) query(name string, lit *ast.BasicLit) {
	pos := l.fset.Position(lit.Pos())
	report := func(format string, args ...any) {
		l.violations = append(l.violations, violation{
			file:    pos.Filename,
			line:    pos.Line,
			query:   name,
			message: fmt.Sprintf(format, args...),
		})
	}

	text, err := unquote(lit.Value)
	if err != nil {
		report("unreadable string literal: %v", err)
		return
	}
	head, _, _ := strings.Cut(strings.TrimSpace(text), "\n")
	head = strings.TrimSpace(head)
	if !strings.HasPrefix(head, markerPrefix) {
		report("first line must be %q followed by a uuid", markerPrefix)
		return
	}
	marker := strings.TrimSpace(strings.TrimPrefix(head, markerPrefix))
	id, err := uuid.Parse(marker)
	if err != nil || id.String() != marker {
		report("marker %q is not a lowercase hyphenated uuid", marker)
		return
	}
	if prev, ok := l.markers[marker]; ok {
		report("marker %s already used by %s at %s:%d", marker, prev.query, prev.pos.Filename, prev.pos.Line)
		return
	}
	l.markers[marker] = markerUse{query: name, pos: pos}
}

func unquote(v string) (string, error) {
	if strings.HasPrefix(v, "`") {
		return strings.Trim(v, "`"), nil
	}
	return strconv.Unquote(v)
}
