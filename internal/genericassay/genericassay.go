// Package genericassay provides naming helpers and per-assay-type
// configuration for generic assay entities.
package genericassay

import "github.com/inodb/cbio-export/internal/portal"

// Common generic assay meta properties.
const (
	PropertyName        = "NAME"
	PropertyDescription = "DESCRIPTION"
	PropertyURL         = "URL"
)

// Generic assay types with built-in configuration.
const (
	TypeMethylation         = "METHYLATION"
	TypeTreatmentResponse   = "TREATMENT_RESPONSE"
	TypeMutationalSignature = "MUTATIONAL_SIGNATURE"
)

// MetaPropertyOrDefault returns a meta property, or def when the meta or
// the property is missing or empty.
func MetaPropertyOrDefault(meta *portal.GenericAssayMeta, property, def string) string {
	if meta == nil {
		return def
	}
	if v := meta.GenericEntityMetaProperties[property]; v != "" {
		return v
	}
	return def
}

// CompactLabel formats an entity as "name (stableId)", or just the stable
// id when the name adds nothing.
func CompactLabel(stableID, name string) string {
	if name == "" || name == stableID {
		return stableID
	}
	return name + " (" + stableID + ")"
}

// DownloadConfig controls how entities of one assay type are exported.
type DownloadConfig struct {
	CompactLabel bool `mapstructure:"compact_label" yaml:"compact_label"`
}

// TypeConfig is the configuration of one generic assay type.
type TypeConfig struct {
	Download DownloadConfig `mapstructure:"download" yaml:"download"`
}

// Config maps a generic assay type to its configuration.
type Config map[string]TypeConfig

// DefaultConfig returns the built-in configuration.
func DefaultConfig() Config {
	return Config{
		TypeMethylation: {Download: DownloadConfig{CompactLabel: true}},
	}
}

// UseCompactLabel reports whether download headers of the assay type use
// the compact label.
func (c Config) UseCompactLabel(assayType string) bool {
	return c[assayType].Download.CompactLabel
}

// HeaderName returns the download header of an entity: its NAME property
// (falling back to the stable id), compacted when the assay type asks for it.
func (c Config) HeaderName(assayType, stableID string, meta *portal.GenericAssayMeta) string {
	name := MetaPropertyOrDefault(meta, PropertyName, stableID)
	if c.UseCompactLabel(assayType) {
		return CompactLabel(stableID, name)
	}
	return name
}
