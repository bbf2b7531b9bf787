package reference

import (
	"regexp"
	"testing"
	"time"
)

func TestNewSaleReferenceFormat(t *testing.T) {
	now := time.UnixMilli(1735689600000)
	ref := NewSaleReference(now)
	pattern := regexp.MustCompile(`^RES-1735689600000-[0-9A-Z]{8}$`)
	if !pattern.MatchString(ref) {
		t.Fatalf("unexpected reference format: %s", ref)
	}
}

func TestNewSaleReferenceVaries(t *testing.T) {
	now := time.Now()
	seen := make(map[string]struct{})
	for i := 0; i < 50; i++ {
		ref := NewSaleReference(now)
		if _, dup := seen[ref]; dup {
			t.Fatalf("duplicate reference generated: %s", ref)
		}
		seen[ref] = struct{}{}
	}
}
