package vision_test

import (
	"context"
	"testing"

	"github.com/asgard/heimdall/internal/camera"
	"github.com/asgard/heimdall/internal/vision"
)

func TestStubDetectorReturnsEmptySet(t *testing.T) {
	d, err := vision.NewDetector("", 0.5)
	if err != nil {
		t.Fatalf("NewDetector: %v", err)
	}
	set, err := d.Detect(context.Background(), camera.Frameset{})
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if len(set.Regions) != 0 {
		t.Fatalf("expected no regions from the stub detector, got %d", len(set.Regions))
	}
}
