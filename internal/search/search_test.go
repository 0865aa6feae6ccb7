package search

import (
	"reflect"
	"testing"
)

func TestFilter_EmptyKeepsOrder(t *testing.T) {
	got := Filter("  ", []string{"b", "a", "c"})
	if !reflect.DeepEqual(got, []int{0, 1, 2}) {
		t.Fatalf("got %v", got)
	}
}

func TestFilter_Fuzzy(t *testing.T) {
	texts := []string{"db-password", "api-key", "stripe-api-token"}
	got := Filter("apk", texts)
	if len(got) == 0 || got[0] != 1 {
		t.Fatalf("expected api-key first, got %v", got)
	}
	for _, i := range got {
		if i == 0 {
			t.Fatalf("db-password should not match")
		}
	}
}

func TestFilter_Labels(t *testing.T) {
	texts := []string{
		"db-password " + Labels(map[string]string{"env": "prod", "team": "core"}),
		"api-key " + Labels(map[string]string{"env": "staging"}),
		"plain",
	}
	if got := Filter("env:prod", texts); !reflect.DeepEqual(got, []int{0}) {
		t.Fatalf("env:prod -> %v", got)
	}
	if got := Filter("env:", texts); !reflect.DeepEqual(got, []int{0, 1}) {
		t.Fatalf("env: -> %v", got)
	}
}
