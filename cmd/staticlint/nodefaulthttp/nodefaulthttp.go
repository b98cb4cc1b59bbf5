// Package nodefaulthttp reports outbound HTTP calls that bypass the fetcher:
// the net/http package-level helpers and http.DefaultClient. Those carry no
// timeout and no logging, so production code must go through the fetcher.
// Test files are not checked.
package nodefaulthttp

import (
	"go/ast"
	"go/types"
	"strings"

	"golang.org/x/tools/go/analysis"
)

// Analyzer flags http.Get, http.Head, http.Post, http.PostForm and
// http.DefaultClient outside _test.go files.
var Analyzer = &analysis.Analyzer{
	Name: "nodefaulthttp",
	Doc:  "prohibits net/http package-level clients outside tests",
	Run:  run,
}

var forbidden = map[string]bool{
	"Get":           true,
	"Head":          true,
	"Post":          true,
	"PostForm":      true,
	"DefaultClient": true,
}

func run(pass *analysis.Pass) (interface{}, error) {
	for _, file := range pass.Files {
		filename := pass.Fset.File(file.Pos()).Name()
		if strings.HasSuffix(filename, "_test.go") {
			continue
		}

		ast.Inspect(file, func(n ast.Node) bool {
			sel, ok := n.(*ast.SelectorExpr)
			if !ok || !forbidden[sel.Sel.Name] {
				return true
			}

			ident, ok := sel.X.(*ast.Ident)
			if !ok {
				return true
			}
			pkgName, ok := pass.TypesInfo.Uses[ident].(*types.PkgName)
			if ok && pkgName.Imported().Path() == "net/http" {
				pass.Reportf(sel.Pos(), "use the fetcher instead of http.%s", sel.Sel.Name)
			}

			return true
		})
	}
	return nil, nil
}
