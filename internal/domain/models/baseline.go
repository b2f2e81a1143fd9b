package models

// SupportedBaseline describes one packaged revision of a security baseline as
// published by the upstream catalog. Multiple packaging revisions may carry
// the same semantic content version; the revision selector keeps exactly one
// per (OS major, content version) bucket.
type SupportedBaseline struct {
	ID             string `json:"id" yaml:"id"`
	Package        string `json:"package" yaml:"package"`
	Version        string `json:"version" yaml:"version"`
	OSMajorVersion string `json:"os_major_version" yaml:"os_major_version"`
	OSMinorVersion string `json:"os_minor_version" yaml:"os_minor_version"`
}
