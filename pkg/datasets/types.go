package datasets

import "strings"

// Recognized configuration keys. The dataset loaders treat every value as a
// free-form string; these names are just the ones every deployment uses.
const (
	KeyDatasetClass = "dataset_class"
	KeyRootDir      = "root_dir"
	KeyImageDir     = "image_dir"
	KeyCaptionPath  = "caption_path"
	KeyFeaturesPath = "features_path"
	KeyVocabPath    = "vocab_path"
	KeySubset       = "subset"
	KeySplit        = "split"
	KeyLabelMap     = "label_map"
)

// SplitSeparator separates a dataset name from one of its splits in a fully
// qualified section name, e.g. "coco:train2014".
const SplitSeparator = ":"

// Section is the resolved key/value mapping of a single configuration section.
// For a split section it already contains the inherited parent keys.
type Section map[string]string

// Registry holds every resolved section of one dataset configuration file.
// It is built once by Load and never mutated afterwards.
type Registry struct {
	file     string
	names    []string
	sections map[string]Section
}

// File returns the path the registry was loaded from.
func (r *Registry) File() string {
	return r.file
}

// Names returns the fully qualified section names in file order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.names...)
}

// Section returns the resolved section with the given fully qualified name.
func (r *Registry) Section(name string) (Section, bool) {
	s, ok := r.sections[name]
	return s, ok
}

// Has reports whether a section with the given name exists.
func (r *Registry) Has(name string) bool {
	_, ok := r.sections[name]
	return ok
}

// Splits returns the names of the split sections configured under the given
// dataset, in file order.
func (r *Registry) Splits(dataset string) []string {
	var splits []string
	for _, name := range r.names {
		if strings.HasPrefix(name, dataset+SplitSeparator) {
			splits = append(splits, name)
		}
	}
	return splits
}
