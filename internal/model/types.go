package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// Metadata describes the tensors and labels of an exported angle classifier.
type Metadata struct {
	InputShape  []int64   `json:"input_shape"`
	OutputShape []int64   `json:"output_shape"`
	InputName   string    `json:"input_name"`
	OutputName  string    `json:"output_name"`
	Classes     []string  `json:"classes"`
	ImageSize   int       `json:"image_size"`
	Mean        []float32 `json:"mean"`
	Std         []float32 `json:"std"`
}

type Prediction struct {
	Class       string             `json:"class"`
	Confidence  float32            `json:"confidence"`
	Predictions map[string]float32 `json:"predictions"`
}

// DefaultClasses are the rotation angles the demo model was trained on.
var DefaultClasses = []string{"0", "45", "90", "135"}

const defaultImageSize = 224

func DefaultMetadata() Metadata {
	m := Metadata{}
	m.fillDefaults()
	return m
}

func (m *Metadata) fillDefaults() {
	if len(m.Classes) == 0 {
		m.Classes = append([]string(nil), DefaultClasses...)
	}
	if m.ImageSize <= 0 {
		m.ImageSize = defaultImageSize
	}
	if len(m.InputShape) == 0 {
		size := int64(m.ImageSize)
		m.InputShape = []int64{1, 3, size, size}
	}
	if len(m.OutputShape) == 0 {
		m.OutputShape = []int64{1, int64(len(m.Classes))}
	}
	if m.InputName == "" {
		m.InputName = "input"
	}
	if m.OutputName == "" {
		m.OutputName = "output"
	}
	// ImageNet statistics, which is what fastai normalizes with on export.
	if len(m.Mean) != 3 {
		m.Mean = []float32{0.485, 0.456, 0.406}
	}
	if len(m.Std) != 3 {
		m.Std = []float32{0.229, 0.224, 0.225}
	}
}

// LoadMetadata reads the JSON sidecar for a model artifact. A missing file
// yields DefaultMetadata; fields absent from the file are defaulted too.
func LoadMetadata(path string) (Metadata, error) {
	if path == "" {
		return DefaultMetadata(), nil
	}

	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return DefaultMetadata(), nil
	}
	if err != nil {
		return Metadata{}, fmt.Errorf("%w: failed to read metadata: %v", ErrModelFormat, err)
	}

	var metadata Metadata
	if err := json.Unmarshal(raw, &metadata); err != nil {
		return Metadata{}, fmt.Errorf("%w: failed to parse metadata: %v", ErrModelFormat, err)
	}
	metadata.fillDefaults()

	return metadata, nil
}
