// Package config implements the collector's configuration surface:
// the `[section]`-style INI file format and the typed configuration it
// produces. The INI grammar is grounded directly on the original
// collector's INIParser (original_source/ini.cpp): `;`/`#` line
// comments, `[section]` headers, `key = value` pairs with whitespace
// trimmed on both sides. No example repo in the retrieved pack imports
// an INI/YAML/TOML library for this format, so the parser is one of
// the few components built on the standard library rather than a
// third-party dependency — see DESIGN.md.
package config

import (
	"bufio"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ini is a parsed INI document: section name to key to value.
type ini struct {
	sections map[string]map[string]string
}

// parseINI reads and parses path, matching original_source/ini.cpp's
// grammar line for line: comments introduced by `;` or `#` anywhere on
// the line, `[section]` headers, `key = value` pairs, with leading and
// trailing whitespace trimmed from the section name, key, and value.
func parseINI(path string) (*ini, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "config: open")
	}
	defer f.Close()

	doc := &ini{sections: make(map[string]map[string]string)}
	currentSection := ""

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()

		if idx := strings.IndexAny(line, ";#"); idx >= 0 {
			line = line[:idx]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			currentSection = strings.TrimSpace(line[1 : len(line)-1])
			if _, exists := doc.sections[currentSection]; !exists {
				doc.sections[currentSection] = make(map[string]string)
			}
			continue
		}

		eq := strings.IndexByte(line, '=')
		if eq < 0 {
			continue
		}

		key := strings.TrimSpace(line[:eq])
		value := strings.TrimSpace(line[eq+1:])
		if _, exists := doc.sections[currentSection]; !exists {
			doc.sections[currentSection] = make(map[string]string)
		}
		doc.sections[currentSection][key] = value
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "config: scan")
	}

	return doc, nil
}

// get returns section/key's value, or def if either is absent.
func (d *ini) get(section, key, def string) string {
	sec, exists := d.sections[section]
	if !exists {
		return def
	}
	v, exists := sec[key]
	if !exists {
		return def
	}
	return v
}

// getInt is get, parsed as an integer; a missing or unparseable value
// falls back to def, matching INIParser::getInteger's fallback on a
// failed conversion.
func (d *ini) getInt(section, key string, def int) int {
	v := d.get(section, key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
