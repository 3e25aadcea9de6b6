package call

import "hash/fnv"

// AssignVariant picks one of variants for callID.  The same id always
// gets the same variant.
func AssignVariant(callID string, variants []string) string {
	if len(variants) == 0 {
		return ""
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(callID))
	return variants[h.Sum32()%uint32(len(variants))]
}
