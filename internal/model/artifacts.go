package model

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Artifact file names within the artifacts directory. The offline
// training job writes them; the inference process loads them read-only at
// startup. This file contract is the only coupling between the two.
const (
	ForestFile       = "bucket_forest.json"
	PreprocessorFile = "preprocessor.json"
	LabelsFile       = "label_encoder.json"
)

// SaveJSON writes v as indented JSON under dir, creating dir if needed.
func SaveJSON(dir, name string, v any) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("artifacts: create dir %s: %w", dir, err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("artifacts: marshal %s: %w", name, err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("artifacts: write %s: %w", path, err)
	}
	return nil
}

// LoadJSON reads a JSON artifact from dir into v.
func LoadJSON(dir, name string, v any) error {
	path := filepath.Join(dir, name)
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("artifacts: read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("artifacts: parse %s: %w", path, err)
	}
	return nil
}

// LoadForest loads the serialized classifier ensemble.
func LoadForest(dir string) (*Forest, error) {
	var f Forest
	if err := LoadJSON(dir, ForestFile, &f); err != nil {
		return nil, err
	}
	if len(f.Trees) == 0 {
		return nil, fmt.Errorf("artifacts: %s holds no trees", ForestFile)
	}
	return &f, nil
}

// LoadPreprocessor loads the serialized preprocessing transform.
func LoadPreprocessor(dir string) (*Preprocessor, error) {
	var p Preprocessor
	if err := LoadJSON(dir, PreprocessorFile, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// LoadLabelEncoder loads the serialized label encoder.
func LoadLabelEncoder(dir string) (*LabelEncoder, error) {
	var e LabelEncoder
	if err := LoadJSON(dir, LabelsFile, &e); err != nil {
		return nil, err
	}
	if len(e.Classes) == 0 {
		return nil, fmt.Errorf("artifacts: %s holds no classes", LabelsFile)
	}
	return &e, nil
}
