// Package definition loads YAML screen definitions, validates them, and
// provides a fast-lookup registry with atomic pointer swap.
package definition

import (
	"crypto/sha256"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/quintor/shopdesk/model"
)

// Load scans the given directories recursively for screen definition
// files and parses each into a DomainDefinition. Files are parsed in
// sorted path order so repeated loads of the same tree produce the same
// definition sequence and registry checksum.
func Load(directories []string) ([]model.DomainDefinition, error) {
	var paths []string
	for _, dir := range directories {
		err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !isDefinitionFile(d.Name()) {
				return nil
			}
			paths = append(paths, path)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("scanning directory %s: %w", dir, err)
		}
	}
	sort.Strings(paths)

	defs := make([]model.DomainDefinition, 0, len(paths))
	for _, path := range paths {
		def, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	return defs, nil
}

// LoadFile parses a single definition file, stamping it with its source
// path and a content checksum for change detection.
func LoadFile(path string) (model.DomainDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.DomainDefinition{}, fmt.Errorf("reading %s: %w", path, err)
	}

	var def model.DomainDefinition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return model.DomainDefinition{}, fmt.Errorf("parsing %s: %w", path, err)
	}
	if def.Domain == "" {
		return model.DomainDefinition{}, fmt.Errorf("parsing %s: missing domain", path)
	}

	def.SourceFile = path
	def.Checksum = fmt.Sprintf("%x", sha256.Sum256(data))
	return def, nil
}

// isDefinitionFile matches *.yaml and *.yml, skipping dotfiles and
// underscore-prefixed scratch files.
func isDefinitionFile(name string) bool {
	if strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") {
		return false
	}
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".yaml" || ext == ".yml"
}
