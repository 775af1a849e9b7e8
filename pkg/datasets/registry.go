package datasets

import (
	"bufio"
	"context"
	"io"
	"os"
	"strings"

	"github.com/containerd/containerd/log"
)

// Load reads an INI-style dataset configuration file and resolves every split
// section against its parent dataset section. It returns a Registry mapping
// each fully qualified section name to its merged key/value map and the first
// encountered error.
func Load(ctx context.Context, path string) (*Registry, error) {
	log.G(ctx).Info("Loading dataset configuration from " + path)

	f, err := os.Open(path)
	if err != nil {
		log.G(ctx).Error("Error opening dataset configuration file " + path)
		return nil, err
	}
	defer f.Close()

	raw, order, err := parse(path, f)
	if err != nil {
		return nil, err
	}

	reg, err := resolve(path, raw, order)
	if err != nil {
		return nil, err
	}
	log.G(ctx).Debug("Loaded ", len(order), " dataset sections from ", path)
	return reg, nil
}

// parse collects the raw sections of the file in order, without resolving
// inheritance. Blank lines and '#' comments are skipped.
func parse(path string, r io.Reader) (map[string]map[string]string, []string, error) {
	raw := make(map[string]map[string]string)
	var order []string
	var current map[string]string

	scanner := bufio.NewScanner(r)
	lineno := 0
	for scanner.Scan() {
		lineno++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if strings.HasPrefix(line, "[") {
			if !strings.HasSuffix(line, "]") {
				return nil, nil, &ParseError{File: path, Line: lineno, Text: line, Reason: "unterminated section header"}
			}
			name := strings.TrimSpace(line[1 : len(line)-1])
			if name == "" {
				return nil, nil, &ParseError{File: path, Line: lineno, Text: line, Reason: "empty section name"}
			}
			if _, ok := raw[name]; ok {
				return nil, nil, &ParseError{File: path, Line: lineno, Text: line, Reason: "duplicate section"}
			}
			current = make(map[string]string)
			raw[name] = current
			order = append(order, name)
			continue
		}

		idx := strings.Index(line, "=")
		if idx < 0 {
			return nil, nil, &ParseError{File: path, Line: lineno, Text: line, Reason: "missing '=' separator"}
		}
		if current == nil {
			return nil, nil, &ParseError{File: path, Line: lineno, Text: line, Reason: "key/value pair outside of any section"}
		}
		key := strings.TrimSpace(line[:idx])
		if key == "" {
			return nil, nil, &ParseError{File: path, Line: lineno, Text: line, Reason: "empty key"}
		}
		current[key] = strings.TrimSpace(line[idx+1:])
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, err
	}

	return raw, order, nil
}

// resolve merges each split section on top of its parent dataset section.
// Inheritance is strictly two levels: the parent is whatever precedes the
// first separator, even if the split name itself contains more separators.
func resolve(path string, raw map[string]map[string]string, order []string) (*Registry, error) {
	reg := &Registry{
		file:     path,
		names:    order,
		sections: make(map[string]Section, len(order)),
	}

	for _, name := range order {
		merged := make(Section)
		if idx := strings.Index(name, SplitSeparator); idx >= 0 {
			parent := name[:idx]
			parentKeys, ok := raw[parent]
			if !ok {
				return nil, &MissingParentError{File: path, Section: name, Parent: parent}
			}
			for k, v := range parentKeys {
				merged[k] = v
			}
		}
		for k, v := range raw[name] {
			merged[k] = v
		}
		reg.sections[name] = merged
	}

	return reg, nil
}
