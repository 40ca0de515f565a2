// Package capture reads frames from a camera device or video file using GoCV (OpenCV).
package capture

import (
	"errors"
	"fmt"
	"strconv"
	"sync"

	"gocv.io/x/gocv"
)

// Default camera settings
const (
	DefaultDevice = "0"
	DefaultWidth  = 640
	DefaultHeight = 480
)

// ErrCameraNotOpen is returned when trying to read from a camera that is not open.
var ErrCameraNotOpen = errors.New("camera is not open")

// DeviceUnavailableError is returned when the capture device cannot be opened.
type DeviceUnavailableError struct {
	Device string
	Err    error
}

func (e *DeviceUnavailableError) Error() string {
	return fmt.Sprintf("video device %q unavailable: %v", e.Device, e.Err)
}

func (e *DeviceUnavailableError) Unwrap() error {
	return e.Err
}

// FrameReadError is returned when a single frame could not be read.
// The device stays open and the next read may succeed.
type FrameReadError struct {
	Err error
}

func (e *FrameReadError) Error() string {
	return fmt.Sprintf("failed to read frame: %v", e.Err)
}

func (e *FrameReadError) Unwrap() error {
	return e.Err
}

// Camera defines the interface for camera capture implementations.
type Camera interface {
	Open() error
	Close() error
	ReadFrame() (*gocv.Mat, error)
	SetResolution(width, height int)
	Resolution() (width, height int)
	IsOpen() bool
}

// cameraImpl manages video capture from a camera device using GoCV.
type cameraImpl struct {
	device  string
	capture *gocv.VideoCapture
	mu      sync.Mutex
	running bool
	width   int
	height  int
}

// NewCamera creates a new Camera for device. A numeric device is a camera
// index; anything else is passed to OpenCV as a file name or stream URL.
func NewCamera(device string) Camera {
	if device == "" {
		device = DefaultDevice
	}
	return &cameraImpl{
		device: device,
		width:  DefaultWidth,
		height: DefaultHeight,
	}
}

// Open opens the device and requests the configured resolution.
func (c *cameraImpl) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return nil
	}

	var source interface{} = c.device
	if id, err := strconv.Atoi(c.device); err == nil {
		source = id
	}

	capture, err := gocv.OpenVideoCapture(source)
	if err != nil {
		return &DeviceUnavailableError{Device: c.device, Err: err}
	}
	if !capture.IsOpened() {
		capture.Close()
		return &DeviceUnavailableError{Device: c.device, Err: errors.New("device did not open")}
	}

	// The driver may pick the nearest supported mode
	capture.Set(gocv.VideoCaptureFrameWidth, float64(c.width))
	capture.Set(gocv.VideoCaptureFrameHeight, float64(c.height))

	c.capture = capture
	c.running = true

	return nil
}

// Close closes the camera and releases resources.
func (c *cameraImpl) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running || c.capture == nil {
		c.running = false
		return nil
	}

	err := c.capture.Close()
	c.capture = nil
	c.running = false

	return err
}

// ReadFrame reads a single BGR frame from the camera.
// The caller is responsible for closing the returned Mat.
func (c *cameraImpl) ReadFrame() (*gocv.Mat, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running || c.capture == nil {
		return nil, ErrCameraNotOpen
	}

	mat := gocv.NewMat()
	if ok := c.capture.Read(&mat); !ok {
		mat.Close()
		return nil, &FrameReadError{Err: errors.New("device returned no frame")}
	}

	if mat.Empty() {
		mat.Close()
		return nil, &FrameReadError{Err: errors.New("captured frame is empty")}
	}

	return &mat, nil
}

// SetResolution sets the requested frame size.
// Non-positive values are ignored.
func (c *cameraImpl) SetResolution(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.width = width
	c.height = height

	if c.capture != nil {
		c.capture.Set(gocv.VideoCaptureFrameWidth, float64(width))
		c.capture.Set(gocv.VideoCaptureFrameHeight, float64(height))
	}
}

// Resolution returns the requested frame size.
func (c *cameraImpl) Resolution() (int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.width, c.height
}

// IsOpen returns true if the camera is currently open and running.
func (c *cameraImpl) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.running
}
