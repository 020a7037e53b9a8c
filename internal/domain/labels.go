package domain

// Label suffixes used to discover permanently deployed app containers.
// The full key is "<prefix>.<suffix>", e.g. "previewgate.app".
const (
	LabelApp  = "app"
	LabelPort = "port"

	DefaultLabelPrefix = "previewgate"
	DefaultAppPort     = 8080
)

// LabelKey joins a label prefix and suffix.
func LabelKey(prefix, suffix string) string {
	if prefix == "" {
		prefix = DefaultLabelPrefix
	}
	return prefix + "." + suffix
}
