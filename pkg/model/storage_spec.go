package model

// StorageSpec represents some data on a storage engine.
type StorageSpec struct {
	// StorageSource is the name of the storage engine that holds the data.
	StorageSource string `json:"StorageSource,omitempty" yaml:"StorageSource,omitempty"`

	// Name of the spec's data, for reference.
	Name string `json:"Name,omitempty" yaml:"Name,omitempty"`

	// The unique ID of the data, where it makes sense (for example, in an
	// IPFS storage spec this will be the data's CID).
	// NOTE: The below is capitalized to match IPFS & IPLD (even thoough it's out of golang fmt)
	CID string `json:"CID,omitempty" yaml:"CID,omitempty"`

	// Source URL of the data
	URL string `json:"URL,omitempty" yaml:"URL,omitempty"`

	// The path that the spec's data should be mounted on.
	Path string `json:"path,omitempty" yaml:"path,omitempty"`
}

// IsEmpty reports whether the spec points at nothing.
func (s StorageSpec) IsEmpty() bool {
	return s.CID == "" && s.URL == "" && s.Name == "" && s.Path == ""
}
