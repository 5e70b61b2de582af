package driver

import (
	"errors"
	"fmt"
	"go/token"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/xyproto/env/v2"

	"weld/internal/inliner"
	"weld/internal/inliner/registry"
	"weld/internal/inliner/transformer"
	"weld/welderr"
)

// ManifestName is the configuration file weld looks for, walking up from the
// scanned directory.
const ManifestName = "weld.toml"

// Config carries the settings of one weld run. Zero fields fall back to the
// manifest, then to built-in defaults.
type Config struct {
	Dir        string // package directory to scan, "." when empty
	ConfigPath string // explicit manifest path, "" discovers by walking up from Dir
	Suffix     string // generated-name suffix when a trigger names no target
	Jobs       int    // expansion parallelism, GOMAXPROCS when 0 or negative
	Format     bool   // gofmt generated files before writing
	Check      bool   // report stale files instead of writing
	DryRun     bool   // generate without touching the filesystem
	Header     string // generated-file header override
}

// DefaultConfig returns a Config primed from the environment. WELD_CONFIG,
// WELD_SUFFIX and WELD_JOBS override the manifest without editing it.
func DefaultConfig() Config {
	return Config{
		Dir:        ".",
		ConfigPath: env.Str("WELD_CONFIG"),
		Suffix:     env.Str("WELD_SUFFIX"),
		Jobs:       env.Int("WELD_JOBS", 0),
	}
}

// withManifest resolves the effective settings: explicit Config fields win,
// manifest [generate] values fill the rest, built-in defaults close the gaps.
func (c Config) withManifest(m *manifest) Config {
	var g generateSection
	if m != nil {
		g = m.Config.Generate
	}
	if c.Suffix == "" {
		c.Suffix = g.Suffix
	}
	if c.Suffix == "" {
		c.Suffix = transformer.DefaultSuffix
	}
	if c.Jobs <= 0 {
		c.Jobs = g.Jobs
	}
	if c.Header == "" {
		c.Header = g.Header
	}
	if c.Header != "" && !strings.HasSuffix(c.Header, "\n") {
		c.Header += "\n"
	}
	c.Format = c.Format || g.Format
	return c
}

// manifest is a loaded weld.toml together with the declaration line of each
// array table, so diagnostics can point into the file.
type manifest struct {
	Path          string
	Config        fileConfig
	templateLines []int
	expandLines   []int
}

type fileConfig struct {
	Generate  generateSection   `toml:"generate"`
	Templates []templateSection `toml:"template"`
	Expands   []expandSection   `toml:"expand"`
}

type generateSection struct {
	Suffix string `toml:"suffix"`
	Jobs   int    `toml:"jobs"`
	Format bool   `toml:"format"`
	Header string `toml:"header"`
}

type templateSection struct {
	Callee string `toml:"callee"`
	Text   string `toml:"text"`
}

type expandSection struct {
	Func   string   `toml:"func"`
	Recv   string   `toml:"recv"`
	Target string   `toml:"target"`
	Calls  []string `toml:"calls"`
}

// findManifest walks from startDir to the filesystem root looking for
// weld.toml.
func findManifest(startDir string) (string, bool, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, welderr.Newf(welderr.KindConfig, "resolving %s: %v", startDir, err)
	}
	for {
		candidate := filepath.Join(dir, ManifestName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, welderr.Newf(welderr.KindConfig, "stat %s: %v", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// loadManifest reads and validates a weld.toml. A manifest that fails
// validation fails the run: templates and triggers must not be silently
// skipped.
func loadManifest(path string) (*manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, welderr.Newf(welderr.KindConfig, "reading %s: %v", path, err)
	}

	var cfg fileConfig
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return nil, welderr.Newf(welderr.KindConfig, "parsing %s: %v", path, err)
	}

	m := &manifest{
		Path:          path,
		Config:        cfg,
		templateLines: tableLines(data, "template"),
		expandLines:   tableLines(data, "expand"),
	}

	errs := &welderr.MultiError{}
	for i, t := range cfg.Templates {
		at := func(msg string) *welderr.Error {
			return welderr.NewAt(welderr.KindConfig, path, m.templateLine(i), 1, msg)
		}
		if !isCalleeKey(t.Callee) {
			errs.Append(at(fmt.Sprintf("[[template]] callee %q is not a function or method name", t.Callee)))
		}
		if strings.TrimSpace(t.Text) == "" {
			errs.Append(at("[[template]] text must not be empty"))
		}
	}
	for i, e := range cfg.Expands {
		at := func(msg string) *welderr.Error {
			return welderr.NewAt(welderr.KindConfig, path, m.expandLine(i), 1, msg)
		}
		if !token.IsIdentifier(e.Func) {
			errs.Append(at(fmt.Sprintf("[[expand]] func %q is not an identifier", e.Func)))
		}
		if e.Recv != "" && !token.IsIdentifier(e.Recv) {
			errs.Append(at(fmt.Sprintf("[[expand]] recv %q is not an identifier", e.Recv)))
		}
		if e.Target != "" && !token.IsIdentifier(e.Target) {
			errs.Append(at(fmt.Sprintf("[[expand]] target %q is not an identifier", e.Target)))
		}
		for _, call := range e.Calls {
			if !isCalleeKey(call) {
				errs.Append(at(fmt.Sprintf("[[expand]] calls entry %q is not a function or method name", call)))
			}
		}
	}
	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *manifest) templateLine(i int) int {
	if i < len(m.templateLines) {
		return m.templateLines[i]
	}
	return 0
}

func (m *manifest) expandLine(i int) int {
	if i < len(m.expandLines) {
		return m.expandLines[i]
	}
	return 0
}

// templates returns the manifest's template declarations positioned at their
// [[template]] headers.
func (m *manifest) templates() []registry.Template {
	out := make([]registry.Template, 0, len(m.Config.Templates))
	for i, t := range m.Config.Templates {
		out = append(out, registry.Template{
			Key:  t.Callee,
			Text: t.Text,
			File: m.Path,
			Line: m.templateLine(i),
		})
	}
	return out
}

// triggers returns the manifest's expand declarations positioned at their
// [[expand]] headers.
func (m *manifest) triggers() []inliner.Trigger {
	out := make([]inliner.Trigger, 0, len(m.Config.Expands))
	for i, e := range m.Config.Expands {
		out = append(out, inliner.Trigger{
			FuncName: e.Func,
			RecvType: e.Recv,
			Target:   e.Target,
			Calls:    e.Calls,
			File:     m.Path,
			Line:     m.expandLine(i),
		})
	}
	return out
}

// tableLines returns the 1-based line numbers of each [[name]] header in
// document order. The decoder preserves array-table order, so entry i of the
// decoded slice was declared at the i-th header.
func tableLines(data []byte, name string) []int {
	header := "[[" + name + "]]"
	var lines []int
	for i, line := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(line) == header {
			lines = append(lines, i+1)
		}
	}
	return lines
}

// isCalleeKey reports whether s is a bare function name or a dotted
// Recv.Name pair.
func isCalleeKey(s string) bool {
	if recv, fn, found := strings.Cut(s, "."); found {
		return token.IsIdentifier(recv) && token.IsIdentifier(fn)
	}
	return token.IsIdentifier(s)
}
