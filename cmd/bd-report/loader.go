package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v2"

	"brewsignal/internal/services"
	"brewsignal/pkg/contracts/domain"
)

// loadBundles reads every .json, .yaml and .yml file in dir as one entity bundle.
// Files are read in name order; other files are skipped.
func loadBundles(dir string) ([]domain.EntityBundle, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read bundle directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".json", ".yaml", ".yml":
			names = append(names, e.Name())
		}
	}
	slices.Sort(names)
	if len(names) == 0 {
		return nil, fmt.Errorf("no bundle files found in %s", dir)
	}

	bundles := make([]domain.EntityBundle, 0, len(names))
	seen := make(map[string]string, len(names))
	for _, name := range names {
		path := filepath.Join(dir, name)
		b, err := loadBundle(path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		if prev, dup := seen[b.EntityID]; dup {
			return nil, fmt.Errorf("%s: entity %q already loaded from %s", name, b.EntityID, prev)
		}
		seen[b.EntityID] = name
		bundles = append(bundles, b)
	}
	return bundles, nil
}

func loadBundle(path string) (domain.EntityBundle, error) {
	var b domain.EntityBundle

	data, err := os.ReadFile(path)
	if err != nil {
		return b, err
	}

	if strings.EqualFold(filepath.Ext(path), ".json") {
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&b); err != nil {
			return b, fmt.Errorf("decode json: %w", err)
		}
	} else if err := yaml.UnmarshalStrict(data, &b); err != nil {
		return b, fmt.Errorf("decode yaml: %w", err)
	}

	if err := services.ValidateBundle(b); err != nil {
		return b, err
	}
	return b, nil
}
