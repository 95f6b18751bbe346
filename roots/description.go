package roots

import (
	"encoding/json"
	"path/filepath"

	"github.com/spf13/afero"
)

// GeneratedBy is one entry of a dataset_description.json's GeneratedBy
// list: the name and optional version/description of a pipeline that
// produced a derivative dataset.
type GeneratedBy struct {
	Name        string `json:"Name"`
	Version     string `json:"Version,omitempty"`
	Description string `json:"Description,omitempty"`
	CodeURL     string `json:"CodeURL,omitempty"`
	Container   string `json:"Container,omitempty"`
}

// DatasetDescription is the subset of a dataset_description.json sidecar
// the root registry cares about: enough to resolve a scope by pipeline
// name, plus the identifying fields worth carrying through opaque to
// the rest of gobids (spec.md's Supplemented-features list).
type DatasetDescription struct {
	Name                string            `json:"Name,omitempty"`
	BIDSVersion         string            `json:"BIDSVersion,omitempty"`
	DatasetType         string            `json:"DatasetType,omitempty"`
	License             string            `json:"License,omitempty"`
	GeneratedBy         []GeneratedBy     `json:"GeneratedBy,omitempty"`
	PipelineDescription *GeneratedBy      `json:"PipelineDescription,omitempty"`
	DatasetLinks        map[string]string `json:"DatasetLinks,omitempty"`
}

// PipelineNames returns every pipeline name this description carries,
// from both GeneratedBy and a bare PipelineDescription entry.
func (d *DatasetDescription) PipelineNames() []string {
	if d == nil {
		return nil
	}
	names := make([]string, 0, len(d.GeneratedBy)+1)
	for _, gb := range d.GeneratedBy {
		names = append(names, gb.Name)
	}
	if d.PipelineDescription != nil {
		names = append(names, d.PipelineDescription.Name)
	}
	return names
}

// OpenDatasetDescription reads dataset_description.json from dir (or
// from path itself, if path is a file already). A missing or malformed
// file is not an error here: the root is registered with no
// description, mirroring src/layout/roots.rs's "ignore opening errors for now".
func OpenDatasetDescription(fs afero.Fs, path string) (*DatasetDescription, bool) {
	info, err := fs.Stat(path)
	if err == nil && info.IsDir() {
		path = filepath.Join(path, "dataset_description.json")
	}
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, false
	}
	var desc DatasetDescription
	if err := json.Unmarshal(data, &desc); err != nil {
		return nil, false
	}
	return &desc, true
}
