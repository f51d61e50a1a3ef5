package util

import (
	"sort"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
)

func TestNewIDIsMonotonicWithinMillisecond(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	ids := make([]string, 50)
	for i := range ids {
		ids[i] = NewIDAt(at)
	}
	if !sort.StringsAreSorted(ids) {
		t.Fatalf("ids are not monotonic: %v", ids)
	}
	for i := 1; i < len(ids); i++ {
		if ids[i] == ids[i-1] {
			t.Fatalf("duplicate id %s", ids[i])
		}
	}
}

func TestNewIDParses(t *testing.T) {
	id, err := ulid.ParseStrict(NewID())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if time.Since(ulid.Time(id.Time())) > time.Minute {
		t.Fatalf("unexpected timestamp in id %s", id)
	}
}
