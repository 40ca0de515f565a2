package detector

import (
	"errors"
	"image"
	"path/filepath"
	"testing"

	"gocv.io/x/gocv"
)

func TestBox_Conversions(t *testing.T) {
	t.Run("rect round trip keeps coordinates", func(t *testing.T) {
		b := Box{Top: 10, Right: 120, Bottom: 140, Left: 20}

		r := b.Rect()
		if r.Min.X != 20 || r.Min.Y != 10 || r.Max.X != 120 || r.Max.Y != 140 {
			t.Errorf("Rect() = %v, want (20,10)-(120,140)", r)
		}

		if got := FromRect(r); got != b {
			t.Errorf("FromRect(Rect()) = %v, want %v", got, b)
		}
	})

	t.Run("width and height", func(t *testing.T) {
		b := Box{Top: 5, Right: 55, Bottom: 85, Left: 15}

		if b.Width() != 40 {
			t.Errorf("Width() = %d, want 40", b.Width())
		}
		if b.Height() != 80 {
			t.Errorf("Height() = %d, want 80", b.Height())
		}
	})
}

func TestBox_Valid(t *testing.T) {
	tests := []struct {
		name string
		box  Box
		want bool
	}{
		{name: "normal box", box: Box{Top: 0, Right: 10, Bottom: 10, Left: 0}, want: true},
		{name: "zero box", box: Box{}, want: false},
		{name: "inverted horizontally", box: Box{Top: 0, Right: 5, Bottom: 10, Left: 10}, want: false},
		{name: "inverted vertically", box: Box{Top: 10, Right: 10, Bottom: 5, Left: 0}, want: false},
		{name: "zero width", box: Box{Top: 0, Right: 3, Bottom: 10, Left: 3}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.box.Valid(); got != tt.want {
				t.Errorf("Valid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSanitize(t *testing.T) {
	bounds := image.Rect(0, 0, 640, 480)

	t.Run("keeps boxes inside the frame untouched", func(t *testing.T) {
		boxes := []Box{
			{Top: 10, Right: 110, Bottom: 110, Left: 10},
			{Top: 200, Right: 400, Bottom: 400, Left: 200},
		}

		got, dropped := Sanitize(boxes, bounds)

		if dropped != 0 {
			t.Errorf("dropped = %d, want 0", dropped)
		}
		if len(got) != 2 || got[0] != boxes[0] || got[1] != boxes[1] {
			t.Errorf("Sanitize() = %v, want %v", got, boxes)
		}
	})

	t.Run("clips boxes that overhang the frame", func(t *testing.T) {
		boxes := []Box{{Top: -20, Right: 700, Bottom: 100, Left: 600}}

		got, dropped := Sanitize(boxes, bounds)

		if dropped != 0 {
			t.Fatalf("dropped = %d, want 0", dropped)
		}
		want := Box{Top: 0, Right: 640, Bottom: 100, Left: 600}
		if got[0] != want {
			t.Errorf("clipped box = %v, want %v", got[0], want)
		}
	})

	t.Run("drops inverted and out of frame boxes and keeps order", func(t *testing.T) {
		boxes := []Box{
			{Top: 50, Right: 10, Bottom: 100, Left: 60},    // inverted
			{Top: 10, Right: 60, Bottom: 60, Left: 10},     // fine
			{Top: 500, Right: 900, Bottom: 600, Left: 800}, // outside
			{Top: 100, Right: 300, Bottom: 300, Left: 100}, // fine
		}

		got, dropped := Sanitize(boxes, bounds)

		if dropped != 2 {
			t.Errorf("dropped = %d, want 2", dropped)
		}
		if len(got) != 2 {
			t.Fatalf("len(got) = %d, want 2", len(got))
		}
		if got[0] != boxes[1] || got[1] != boxes[3] {
			t.Errorf("Sanitize() = %v, want [%v %v]", got, boxes[1], boxes[3])
		}
	})

	t.Run("empty input", func(t *testing.T) {
		got, dropped := Sanitize(nil, bounds)
		if len(got) != 0 || dropped != 0 {
			t.Errorf("Sanitize(nil) = %v, %d; want empty, 0", got, dropped)
		}
	})
}

func TestMockDetector(t *testing.T) {
	t.Run("returns empty boxes by default", func(t *testing.T) {
		mock := NewMockDetector()

		boxes, err := mock.Detect(gocv.Mat{})

		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if len(boxes) != 0 {
			t.Errorf("expected no boxes, got %v", boxes)
		}
	})

	t.Run("returns configured boxes in order", func(t *testing.T) {
		mock := NewMockDetector()

		expected := []Box{
			{Top: 1, Right: 11, Bottom: 11, Left: 1},
			{Top: 2, Right: 22, Bottom: 22, Left: 2},
		}
		mock.SetBoxes(expected)

		boxes, err := mock.Detect(gocv.Mat{})

		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if len(boxes) != 2 || boxes[0] != expected[0] || boxes[1] != expected[1] {
			t.Errorf("Detect() = %v, want %v", boxes, expected)
		}
		if mock.Calls() != 1 {
			t.Errorf("Calls() = %d, want 1", mock.Calls())
		}
	})

	t.Run("returns configured error", func(t *testing.T) {
		mock := NewMockDetector()

		expectedErr := errors.New("detection failed")
		mock.SetError(expectedErr)

		boxes, err := mock.Detect(gocv.Mat{})

		if err != expectedErr {
			t.Errorf("expected error %v, got %v", expectedErr, err)
		}
		if boxes != nil {
			t.Errorf("expected nil boxes when error is set, got %v", boxes)
		}
	})

	t.Run("Close returns nil", func(t *testing.T) {
		if err := NewMockDetector().Close(); err != nil {
			t.Errorf("expected Close to return nil, got %v", err)
		}
	})

	t.Run("implements Detector interface", func(t *testing.T) {
		var _ Detector = (*MockDetector)(nil)
		var _ Detector = (*CascadeDetector)(nil)
		var _ Detector = (*DNNDetector)(nil)
	})
}

func TestCenteredBox(t *testing.T) {
	b := CenteredBox(640, 480, 200)

	want := Box{Top: 140, Right: 420, Bottom: 340, Left: 220}
	if b != want {
		t.Errorf("CenteredBox() = %v, want %v", b, want)
	}
}

func TestNew(t *testing.T) {
	t.Run("rejects unknown model", func(t *testing.T) {
		_, err := New(Config{Model: "lbp"})
		if err == nil {
			t.Error("expected error for unknown model")
		}
	})

	t.Run("haar fails cleanly on a missing cascade", func(t *testing.T) {
		if testing.Short() {
			t.Skip("skipping test that requires OpenCV")
		}

		cfg := DefaultConfig()
		cfg.CascadePath = filepath.Join(t.TempDir(), "missing.xml")

		if _, err := New(cfg); err == nil {
			t.Error("expected error for missing cascade file")
		}
	})

	t.Run("dnn needs both model files", func(t *testing.T) {
		_, err := New(Config{Model: ModelDNN, ProtoPath: "deploy.prototxt"})
		if err == nil {
			t.Error("expected error when weights path is empty")
		}
	})
}

func TestModel_Valid(t *testing.T) {
	if !ModelHaar.Valid() || !ModelDNN.Valid() {
		t.Error("haar and dnn should be valid models")
	}
	if Model("hog").Valid() {
		t.Error("hog should not be a valid model")
	}
}
