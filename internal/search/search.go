// Package search filters row labels for the list and table elements.
package search

import (
	"sort"
	"strings"

	"github.com/sahilm/fuzzy"
)

// Filter returns the indices of texts matching query, best match first.
// An empty query keeps every index in its original order.
//
// A query of the form "key:value" matches label-style text exactly on the
// key and by substring on the value (see Labels).
func Filter(query string, texts []string) []int {
	query = strings.TrimSpace(query)
	if query == "" {
		out := make([]int, len(texts))
		for i := range texts {
			out[i] = i
		}
		return out
	}
	if k, v, ok := strings.Cut(query, ":"); ok && k != "" {
		return filterLabels(strings.ToLower(k), strings.ToLower(v), texts)
	}
	matches := fuzzy.Find(query, texts)
	out := make([]int, 0, len(matches))
	for _, m := range matches {
		out = append(out, m.Index)
	}
	return out
}

// Labels renders a label map in the "k=v k=v" form Filter understands.
func Labels(labels map[string]string) string {
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+labels[k])
	}
	return strings.Join(parts, " ")
}

func filterLabels(k, v string, texts []string) []int {
	var out []int
	for i, t := range texts {
		for _, f := range strings.Fields(strings.ToLower(t)) {
			fk, fv, ok := strings.Cut(f, "=")
			if ok && fk == k && strings.Contains(fv, v) {
				out = append(out, i)
				break
			}
		}
	}
	return out
}
