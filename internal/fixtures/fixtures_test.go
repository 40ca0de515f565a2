package fixtures

import (
	"errors"
	"image/color"
	"testing"

	"gocv.io/x/gocv"
)

func TestFrames(t *testing.T) {
	frames := Frames(3, 64, 48)
	defer CloseAll(frames)

	if len(frames) != 3 {
		t.Fatalf("got %d frames, want 3", len(frames))
	}
	for i, f := range frames {
		if f.Cols() != 64 || f.Rows() != 48 || f.Channels() != 3 {
			t.Errorf("frame %d is %dx%dx%d, want 64x48x3", i, f.Cols(), f.Rows(), f.Channels())
		}
	}
}

func TestWriteImage_RoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping image I/O test in short mode")
	}

	path, err := WriteImage(t.TempDir(), "red.png", 32, 16, color.RGBA{R: 255})
	if err != nil {
		t.Fatalf("WriteImage() error = %v", err)
	}

	img := gocv.IMRead(path, gocv.IMReadColor)
	defer img.Close()

	if img.Cols() != 32 || img.Rows() != 16 {
		t.Fatalf("read back %dx%d, want 32x16", img.Cols(), img.Rows())
	}

	// PNG is lossless, BGR order
	v := img.GetVecbAt(5, 5)
	if v[0] != 0 || v[1] != 0 || v[2] != 255 {
		t.Errorf("pixel = %v, want red", v)
	}
}

func TestWriteGarbage(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping image I/O test in short mode")
	}

	path, err := WriteGarbage(t.TempDir(), "broken.jpg")
	if err != nil {
		t.Fatalf("WriteGarbage() error = %v", err)
	}

	img := gocv.IMRead(path, gocv.IMReadColor)
	defer img.Close()
	if !img.Empty() {
		t.Error("garbage file should not decode")
	}
}

func TestSizeDetector(t *testing.T) {
	d := NewSizeDetector(map[int]int{64: 2})

	img := gocv.NewMatWithSize(10, 64, gocv.MatTypeCV8UC3)
	defer img.Close()
	other := gocv.NewMatWithSize(10, 65, gocv.MatTypeCV8UC3)
	defer other.Close()

	boxes, err := d.Detect(img)
	if err != nil || len(boxes) != 2 {
		t.Fatalf("Detect() = %v, %v; want 2 boxes", boxes, err)
	}
	for _, b := range boxes {
		if !b.Valid() {
			t.Errorf("box %v should be valid", b)
		}
	}

	if boxes, _ := d.Detect(other); len(boxes) != 0 {
		t.Errorf("unknown width should yield no faces, got %d", len(boxes))
	}

	d.Err = errors.New("boom")
	if _, err := d.Detect(img); err == nil {
		t.Error("expected configured error")
	}
	if d.Calls() != 3 {
		t.Errorf("Calls() = %d, want 3", d.Calls())
	}
}
