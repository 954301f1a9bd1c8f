// Package manifest reads and bumps the version field of a project manifest
// such as package.json, Cargo.toml or pyproject.toml.
package manifest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/buger/jsonparser"
	"github.com/ghodss/yaml"
	"github.com/pelletier/go-toml/v2"
)

var ErrNoVersion = errors.New("manifest: no version field")

type Format int

const (
	_ Format = iota
	FormatJSON
	FormatYAML
	FormatTOML
)

func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatYAML:
		return "yaml"
	case FormatTOML:
		return "toml"
	default:
		return "<UNKNOWN>"
	}
}

type UnsupportedError struct {
	Path string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("manifest: unsupported file type %q", filepath.Base(e.Path))
}

// DetectFormat picks a format from the file extension.
func DetectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	}
	return 0, &UnsupportedError{Path: path}
}

// Read returns the version declared in the manifest at path.
func Read(path string) (string, error) {
	f, err := DetectFormat(path)
	if err != nil {
		return "", err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	v, _, err := parse(f, b)
	if err != nil {
		return "", fmt.Errorf("manifest: %s: %w", filepath.Base(path), err)
	}
	return v, nil
}

// Update rewrites the version value in the manifest at path. Everything
// else in the file is kept byte for byte.
func Update(path, version string) error {
	f, err := DetectFormat(path)
	if err != nil {
		return err
	}
	fi, err := os.Stat(path)
	if err != nil {
		return err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	next, err := Rewrite(f, b, version)
	if err != nil {
		return fmt.Errorf("manifest: %s: %w", filepath.Base(path), err)
	}
	return os.WriteFile(path, next, fi.Mode().Perm())
}

// Rewrite returns doc with its version value replaced by version.
func Rewrite(f Format, doc []byte, version string) ([]byte, error) {
	current, table, err := parse(f, doc)
	if err != nil {
		return nil, err
	}

	if f == FormatJSON {
		vstart, vend, err := jsonVersionBounds(doc, current)
		if err != nil {
			return nil, err
		}
		return splice(doc, vstart, vend, version), nil
	}

	start, end := 0, len(doc)
	var re *regexp.Regexp
	switch f {
	case FormatYAML:
		re = regexp.MustCompile(`(?m)^version:[ \t]*["']?(` + regexp.QuoteMeta(current) + `)["']?[ \t]*(?:#.*)?\r?$`)
	case FormatTOML:
		re = regexp.MustCompile(`(?m)^[ \t]*version[ \t]*=[ \t]*["'](` + regexp.QuoteMeta(current) + `)["']`)
		start, end = tomlTableBounds(doc, table)
	}

	loc := re.FindSubmatchIndex(doc[start:end])
	if loc == nil {
		return nil, ErrNoVersion
	}
	return splice(doc, start+loc[2], start+loc[3], version), nil
}

func splice(doc []byte, start, end int, version string) []byte {
	out := make([]byte, 0, len(doc)-(end-start)+len(version))
	out = append(out, doc[:start]...)
	out = append(out, version...)
	out = append(out, doc[end:]...)
	return out
}

// jsonVersionBounds returns the byte range of the top-level version string,
// excluding its quotes. Nested "version" keys are not considered.
func jsonVersionBounds(doc []byte, current string) (int, int, error) {
	val, typ, end, err := jsonparser.Get(doc, "version")
	if err != nil {
		if errors.Is(err, jsonparser.KeyPathNotFoundError) {
			return 0, 0, ErrNoVersion
		}
		return 0, 0, err
	}
	if typ != jsonparser.String || string(val) != current {
		return 0, 0, ErrNoVersion
	}
	// end is just past the closing quote.
	return end - 1 - len(val), end - 1, nil
}

type tomlManifest struct {
	Version string `toml:"version"`
	Package struct {
		Version string `toml:"version"`
	} `toml:"package"`
	Project struct {
		Version string `toml:"version"`
	} `toml:"project"`
}

// parse returns the version and, for toml, the table it was found in.
func parse(f Format, b []byte) (string, string, error) {
	switch f {
	case FormatJSON, FormatYAML:
		var m map[string]interface{}
		if err := yaml.Unmarshal(b, &m); err != nil {
			return "", "", err
		}
		v, ok := m["version"].(string)
		if !ok || v == "" {
			return "", "", ErrNoVersion
		}
		return v, "", nil

	case FormatTOML:
		var m tomlManifest
		if err := toml.Unmarshal(b, &m); err != nil {
			return "", "", err
		}
		switch {
		case m.Package.Version != "":
			return m.Package.Version, "package", nil
		case m.Project.Version != "":
			return m.Project.Version, "project", nil
		case m.Version != "":
			return m.Version, "", nil
		}
		return "", "", ErrNoVersion
	}
	return "", "", fmt.Errorf("unknown format %d", f)
}

var tomlTableRE = regexp.MustCompile(`(?m)^[ \t]*\[`)

// tomlTableBounds returns the byte range of the body of table, or of the
// root table when table is empty.
func tomlTableBounds(doc []byte, table string) (int, int) {
	start := 0
	if table != "" {
		headerRE := regexp.MustCompile(`(?m)^[ \t]*\[[ \t]*` + regexp.QuoteMeta(table) + `[ \t]*\][ \t]*(?:#.*)?\r?$`)
		loc := headerRE.FindIndex(doc)
		if loc == nil {
			return 0, 0
		}
		start = loc[1]
	}
	end := len(doc)
	if loc := tomlTableRE.FindIndex(doc[start:]); loc != nil {
		end = start + loc[0]
	}
	return start, end
}
