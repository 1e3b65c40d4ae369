package models

import "sort"

// PauseMarker formats an inline pause instruction for the speech renderer
func PauseMarker(seconds string) string {
	return "Pause:" + seconds
}

// Narration maps slide component keys to spoken text. Pause markers of the
// form "Pause:<seconds>" are embedded verbatim.
type Narration map[string]string

// NewNarration returns an empty narration
func NewNarration() Narration {
	return Narration{}
}

// Set stores text under key
func (n Narration) Set(key, text string) {
	n[key] = text
}

// Get returns the text for key
func (n Narration) Get(key string) (string, bool) {
	v, ok := n[key]
	return v, ok
}

// Merge copies every entry of other into n, overwriting existing keys
func (n Narration) Merge(other Narration) {
	for k, v := range other {
		n[k] = v
	}
}

// Keys returns the keys in sorted order
func (n Narration) Keys() []string {
	keys := make([]string, 0, len(n))
	for k := range n {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
