package architecture_test

import (
	"go/ast"
	"go/parser"
	"go/token"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// Methods with these prefixes change directory state and must land in the
// audit trail.
var auditMutationPrefixes = []string{
	"Create",
	"Update",
	"Replace",
	"Delete",
}

// Explicit exceptions for methods that are intentionally non-audited.
// Key format: "path/to/file.go:Receiver.Method".
var auditRuleExceptions = map[string]string{}

func TestServiceMutations_AreAudited(t *testing.T) {
	serviceRoot := filepath.Join(repoRootDir(), "internal", "service")
	files, err := collectGoFiles(serviceRoot)
	require.NoError(t, err)

	violations := make([]string, 0)

	for _, file := range files {
		if shouldSkipFile(file) {
			continue
		}
		// The recorder cannot audit itself.
		if strings.Contains(filepath.ToSlash(file), "/internal/service/audit/") {
			continue
		}

		fset := token.NewFileSet()
		parsed, parseErr := parser.ParseFile(fset, file, nil, 0)
		require.NoErrorf(t, parseErr, "parse file for audit rules: %s", file)

		relPath := relToRepoRoot(file)
		for _, decl := range parsed.Decls {
			fn, ok := decl.(*ast.FuncDecl)
			if !ok || fn.Recv == nil || fn.Body == nil {
				continue
			}

			receiver := receiverTypeName(fn)
			if !strings.HasSuffix(receiver, "Service") {
				continue
			}
			if !isMutatingMethod(fn.Name.Name) {
				continue
			}
			if !hasContextParam(fn) {
				continue
			}

			key := relPath + ":" + receiver + "." + fn.Name.Name
			if _, ok := auditRuleExceptions[key]; ok {
				continue
			}

			if !containsRecordCall(fn.Body) {
				violations = append(violations, key)
			}
		}
	}

	sort.Strings(violations)
	require.Empty(t, violations,
		"mutating service methods must call audit.Record (or carry an explicit exception):\n%s",
		strings.Join(violations, "\n"),
	)
}

func receiverTypeName(fn *ast.FuncDecl) string {
	if fn.Recv == nil || len(fn.Recv.List) == 0 {
		return ""
	}
	switch rt := fn.Recv.List[0].Type.(type) {
	case *ast.StarExpr:
		if id, ok := rt.X.(*ast.Ident); ok {
			return id.Name
		}
	case *ast.Ident:
		return rt.Name
	}
	return ""
}

func isMutatingMethod(name string) bool {
	for _, prefix := range auditMutationPrefixes {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}

func hasContextParam(fn *ast.FuncDecl) bool {
	if fn.Type == nil || fn.Type.Params == nil {
		return false
	}
	for _, field := range fn.Type.Params.List {
		sel, ok := field.Type.(*ast.SelectorExpr)
		if !ok {
			continue
		}
		if pkg, ok := sel.X.(*ast.Ident); ok && pkg.Name == "context" && sel.Sel.Name == "Context" {
			return true
		}
	}
	return false
}

func containsRecordCall(body *ast.BlockStmt) bool {
	found := false
	ast.Inspect(body, func(n ast.Node) bool {
		if found {
			return false
		}
		call, ok := n.(*ast.CallExpr)
		if !ok {
			return true
		}
		if sel, ok := call.Fun.(*ast.SelectorExpr); ok && sel.Sel.Name == "Record" {
			found = true
			return false
		}
		return true
	})
	return found
}
