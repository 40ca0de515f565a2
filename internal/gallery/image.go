package gallery

import (
	"os"

	"gocv.io/x/gocv"
)

// Loader reads an image file and returns it as an RGB Mat.
// The caller owns the returned Mat.
type Loader func(path string) (gocv.Mat, error)

// LoadImage reads a reference image from disk and converts it from
// OpenCV's BGR order to RGB. Failures are reported as *LoadError.
func LoadImage(path string) (gocv.Mat, error) {
	if _, err := os.Stat(path); err != nil {
		return gocv.NewMat(), &LoadError{Path: path, Err: err}
	}

	bgr := gocv.IMRead(path, gocv.IMReadColor)
	defer bgr.Close()

	if bgr.Empty() {
		return gocv.NewMat(), &LoadError{Path: path, Err: ErrUnreadableImage}
	}

	rgb := gocv.NewMat()
	gocv.CvtColor(bgr, &rgb, gocv.ColorBGRToRGB)
	return rgb, nil
}
