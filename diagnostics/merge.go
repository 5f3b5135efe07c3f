package diagnostics

// Merge collapses fragments into one diagnostic per location key.
//
// Messages sharing a key are concatenated without a separator, in fragment
// order; diagnostics are returned in the order their key was first seen.
func Merge(fragments []Fragment) []Diagnostic {
	merged := make([]Diagnostic, 0)
	index := make(map[string]int)

	for _, f := range fragments {
		key := f.Location.Key()
		if i, ok := index[key]; ok {
			merged[i].Message += f.Message
			continue
		}
		index[key] = len(merged)
		merged = append(merged, Diagnostic{Message: f.Message, Location: f.Location})
	}
	return merged
}
