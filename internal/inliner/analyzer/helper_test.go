package analyzer_test

import (
	"path/filepath"

	"github.com/bazelbuild/rules_go/go/tools/bazel"
)

// testdataPath returns the path of a fixture file.
// In Bazel tests, it uses runfiles to locate the file.
// Outside of Bazel, it falls back to the package-relative testdata directory.
func testdataPath(name string) string {
	if p, err := bazel.Runfile(filepath.Join("internal/inliner/analyzer/testdata", name)); err == nil {
		return p
	}
	return filepath.Join("testdata", name)
}
