package detector

import (
	"fmt"
	"image"
	"sync"

	"gocv.io/x/gocv"
)

// SSD input geometry and the BGR channel means it was trained with.
const (
	ssdInputSize = 300
	ssdMeanB     = 104.0
	ssdMeanG     = 177.0
	ssdMeanR     = 123.0
	// ssdStride is the number of values per detection row:
	// [image_id, label, confidence, x1, y1, x2, y2].
	ssdStride    = 7
)

// DNNDetector implements Detector using the OpenCV ResNet-10 SSD face model.
type DNNDetector struct {
	net           gocv.Net
	minConfidence float32
	mu            sync.Mutex
	closed        bool
}

// NewDNNDetector loads the Caffe SSD model named by config.
func NewDNNDetector(config Config) (*DNNDetector, error) {
	if config.ProtoPath == "" || config.WeightsPath == "" {
		return nil, fmt.Errorf("dnn detector needs both a prototxt and a caffemodel path")
	}

	net := gocv.ReadNet(config.WeightsPath, config.ProtoPath)
	if net.Empty() {
		net.Close()
		return nil, fmt.Errorf("load dnn face model from %s / %s", config.WeightsPath, config.ProtoPath)
	}

	minConf := config.MinConfidence
	if minConf <= 0 {
		minConf = DefaultConfig().MinConfidence
	}

	return &DNNDetector{
		net:           net,
		minConfidence: float32(minConf),
	}, nil
}

// Detect finds faces in an RGB image.
func (d *DNNDetector) Detect(img gocv.Mat) ([]Box, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil, fmt.Errorf("dnn detector is closed")
	}
	if img.Empty() {
		return nil, fmt.Errorf("detect: empty image")
	}

	// The model expects BGR, so swap the RGB input back.
	blob := gocv.BlobFromImage(img, 1.0, image.Pt(ssdInputSize, ssdInputSize),
		gocv.NewScalar(ssdMeanB, ssdMeanG, ssdMeanR, 0), true, false)
	defer blob.Close()

	d.net.SetInput(blob, "")
	results := d.net.Forward("")
	defer results.Close()

	width := float32(img.Cols())
	height := float32(img.Rows())

	var boxes []Box
	for i := 0; i+ssdStride <= results.Total(); i += ssdStride {
		confidence := results.GetFloatAt(0, i+2)
		if confidence < d.minConfidence {
			continue
		}
		boxes = append(boxes, Box{
			Left:   int(results.GetFloatAt(0, i+3) * width),
			Top:    int(results.GetFloatAt(0, i+4) * height),
			Right:  int(results.GetFloatAt(0, i+5) * width),
			Bottom: int(results.GetFloatAt(0, i+6) * height),
		})
	}

	return boxes, nil
}

// Close releases the network.
func (d *DNNDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil
	}
	d.closed = true
	return d.net.Close()
}
