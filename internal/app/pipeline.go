package app

import (
	"context"
	"fmt"
	"image"
	"log"
	"time"

	"github.com/ayusman/drishti/internal/annotate"
	"github.com/ayusman/drishti/internal/detector"
	"gocv.io/x/gocv"
)

// Run opens the camera and processes frames until the stop key is pressed,
// ctx is cancelled or a fatal error occurs.
//
// Pipeline logic:
// 1. INIT: open the camera; failure is returned as a DeviceUnavailableError
// 2. RUNNING: read a frame, or log the read failure and only poll for stop
// 3. Detect faces on the RGB copy, clip malformed boxes
// 4. Embed all faces in one call and match each against the gallery
// 5. Draw the annotations, show the frame, hand it to the sinks
// 6. Poll the keyboard; the stop key or a cancelled ctx ends the loop
// 7. STOPPED: the camera and display are released on every exit path
//
// A gallery/embedder dimension mismatch stops the loop and is returned.
func (p *Pipeline) Run(ctx context.Context) error {
	if !p.state.CompareAndSwap(int32(StateInit), int32(StateRunning)) {
		return ErrAlreadyStarted
	}
	defer p.release()

	p.config.Camera.SetResolution(p.config.Width, p.config.Height)
	if err := p.config.Camera.Open(); err != nil {
		return err
	}

	log.Printf("Pipeline running with %d known faces (threshold %.2f)", p.config.Gallery.Len(), p.matcher.Threshold)

	for {
		if ctx.Err() != nil {
			log.Println("Pipeline cancelled")
			return nil
		}

		frame, err := p.config.Camera.ReadFrame()
		if err != nil {
			log.Printf("Error reading frame: %v", err)
		} else {
			_, err := p.ProcessFrame(frame)
			frame.Close()
			if err != nil {
				return err
			}
		}

		if key := p.config.Display.PollKey(PollIntervalMs); key == int(p.config.StopKey) {
			log.Printf("Stop key %q pressed", p.config.StopKey)
			return nil
		}
	}
}

// release closes the camera and the display and moves to STOPPED.
func (p *Pipeline) release() {
	if err := p.config.Camera.Close(); err != nil {
		log.Printf("Error closing camera: %v", err)
	}
	if err := p.config.Display.Close(); err != nil {
		log.Printf("Error closing display: %v", err)
	}
	p.state.Store(int32(StateStopped))
	log.Printf("Pipeline stopped after %d frames", p.Processed())
}

// ProcessFrame identifies the faces in a BGR frame, draws the result onto it,
// shows it and passes it to the sinks. The caller keeps ownership of frame.
func (p *Pipeline) ProcessFrame(frame *gocv.Mat) (*FrameResult, error) {
	res := &FrameResult{
		Seq:  p.processed.Add(1),
		Time: time.Now(),
	}

	rgb := gocv.NewMat()
	defer rgb.Close()
	gocv.CvtColor(*frame, &rgb, gocv.ColorBGRToRGB)

	boxes, err := p.config.Detector.Detect(rgb)
	if err != nil {
		log.Printf("Error detecting faces: %v", err)
		boxes = nil
	}

	bounds := image.Rect(0, 0, frame.Cols(), frame.Rows())
	boxes, res.Dropped = detector.Sanitize(boxes, bounds)
	if res.Dropped > 0 {
		log.Printf("Dropped %d malformed face boxes", res.Dropped)
	}
	res.Faces = len(boxes)

	log.Printf("Detected %d faces in frame %d", len(boxes), res.Seq)

	if len(boxes) > 0 {
		anns, err := p.identify(rgb, boxes)
		if err != nil {
			return res, err
		}
		res.Annotations = anns
	}

	annotate.Draw(frame, res.Annotations)
	p.config.Display.Show(p.config.WindowName, *frame)

	for _, s := range p.config.Sinks {
		if err := s.HandleFrame(res, frame); err != nil {
			log.Printf("Frame sink error: %v", err)
		}
	}

	return res, nil
}

// identify embeds and names every box. Embedder failures leave the frame
// unannotated; matcher errors are returned.
func (p *Pipeline) identify(rgb gocv.Mat, boxes []detector.Box) (annotate.FrameAnnotation, error) {
	embeddings, err := p.config.Embedder.Embed(rgb, boxes)
	if err != nil {
		log.Printf("Error computing face encodings: %v", err)
		return nil, nil
	}
	if len(embeddings) != len(boxes) {
		log.Printf("Embedder returned %d encodings for %d faces, skipping frame", len(embeddings), len(boxes))
		return nil, nil
	}

	anns := make(annotate.FrameAnnotation, len(boxes))
	for i, emb := range embeddings {
		r, err := p.matcher.Match(p.config.Gallery, emb)
		if err != nil {
			return nil, fmt.Errorf("matching face %d: %w", i, err)
		}
		anns[i] = annotate.Annotation{
			Box:      boxes[i],
			Label:    r.Label,
			Distance: r.Distance,
			Known:    r.Matched,
		}
	}
	return anns, nil
}
