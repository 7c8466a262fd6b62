package analysis

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// SortTargets orders Targets for display: NTC targets first, then the rest
// in locale collation order.
func SortTargets[V any](data map[string]V) []string {
	return sortTargets(data, "")
}

// SortTargetsForNormalization orders Targets with the reference gene first,
// then NTC targets, then the rest in locale collation order.
func SortTargetsForNormalization[V any](data map[string]V, referenceGene string) []string {
	return sortTargets(data, referenceGene)
}

func sortTargets[V any](data map[string]V, referenceGene string) []string {
	keys := sortedKeys(data)
	coll := collate.New(language.Und)
	rank := func(t string) int {
		switch {
		case referenceGene != "" && t == referenceGene:
			return 0
		case IsNTC(t):
			return 1
		default:
			return 2
		}
	}
	sort.SliceStable(keys, func(i, j int) bool {
		ri, rj := rank(keys[i]), rank(keys[j])
		if ri != rj {
			return ri < rj
		}
		return coll.CompareString(keys[i], keys[j]) < 0
	})
	return keys
}

// SortedSamples returns the Sample keys of one Target in byte order.
func SortedSamples[V any](samples map[string]V) []string {
	return sortedKeys(samples)
}
