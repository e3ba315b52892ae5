package importer

import (
	"github.com/schollz/closestmatch"
)

// productMatcher: katalogdaki ürün adları üzerinde bulanık eşleştirici
type productMatcher struct {
	cm    *closestmatch.ClosestMatch
	byKey map[string]string // normalize ad → katalogdaki ad
}

func newProductMatcher(names []string) *productMatcher {
	m := &productMatcher{byKey: make(map[string]string, len(names))}
	keys := make([]string, 0, len(names))
	for _, n := range names {
		k := NormalizeName(n)
		if k == "" {
			continue
		}
		if _, ok := m.byKey[k]; ok {
			continue
		}
		m.byKey[k] = n
		keys = append(keys, k)
	}
	if len(keys) > 0 {
		m.cm = closestmatch.New(keys, []int{2, 3})
	}
	return m
}

// Closest: en yakın ürün adı, katalog boşsa ""
func (m *productMatcher) Closest(description string) string {
	if m.cm == nil || description == "" {
		return ""
	}
	return m.byKey[m.cm.Closest(NormalizeName(description))]
}
