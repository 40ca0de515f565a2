package e2e

import (
	"context"
	"encoding/json"
	"image/color"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/ayusman/drishti/internal/app"
	"github.com/ayusman/drishti/internal/capture"
	"github.com/ayusman/drishti/internal/detector"
	"github.com/ayusman/drishti/internal/display"
	"github.com/ayusman/drishti/internal/embedder"
	"github.com/ayusman/drishti/internal/fixtures"
	"github.com/ayusman/drishti/internal/gallery"
	"github.com/ayusman/drishti/internal/match"
	"github.com/ayusman/drishti/internal/server"
	"github.com/ayusman/drishti/internal/store"
	"gocv.io/x/gocv"
)

func TestE2E_CompleteWorkflow(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test")
	}

	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "data.db")

	s, err := store.New(dbPath)
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	defer s.Close()

	// Reference images are told apart by width: 41 and 43 hold one face each.
	alice, err := fixtures.WriteImage(tmpDir, "alice.png", 41, 41, color.RGBA{G: 255})
	if err != nil {
		t.Fatal(err)
	}
	bob, err := fixtures.WriteImage(tmpDir, "bob.png", 43, 43, color.RGBA{B: 255})
	if err != nil {
		t.Fatal(err)
	}
	carol, err := fixtures.WriteGarbage(tmpDir, "carol.png")
	if err != nil {
		t.Fatal(err)
	}

	emb := embedder.NewMockEmbedder(3)
	emb.Queue(embedder.Axis(3, 0, 1), embedder.Axis(3, 1, 1))

	var g *gallery.Gallery
	t.Run("BuildGallery", func(t *testing.T) {
		var outcomes []gallery.Outcome
		b := gallery.NewBuilder(fixtures.NewSizeDetector(map[int]int{41: 1, 43: 1}), emb)
		b.Observer = func(o gallery.Outcome) { outcomes = append(outcomes, o) }

		g = b.Build([]gallery.Reference{
			{Label: "Alice", Path: alice},
			{Label: "Bob", Path: bob},
			{Label: "Carol", Path: carol},
		})

		if g.Len() != 2 {
			t.Fatalf("gallery size = %d, want 2", g.Len())
		}
		if len(outcomes) != 3 || outcomes[2].Status != gallery.StatusLoadFailed {
			t.Errorf("expected Carol to fail loading, got %+v", outcomes)
		}
	})
	if g == nil {
		t.FailNow()
	}

	sess := &store.Session{Device: "mock", Detector: "mock", Threshold: match.DefaultThreshold, GallerySize: g.Len()}
	if err := s.Sessions().Create(sess); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	// Each frame shows Alice on the left and a stranger on the right.
	for range 3 {
		emb.Queue(embedder.Axis(3, 0, 1), embedder.Axis(3, 2, 5))
	}
	det := detector.NewMockDetector()
	det.SetBoxes([]detector.Box{
		{Top: 100, Right: 200, Bottom: 200, Left: 100},
		{Top: 100, Right: 500, Bottom: 200, Left: 400},
	})

	frames := fixtures.Frames(1, 640, 480)
	defer fixtures.CloseAll(frames)

	hub := server.NewHub()
	journal := app.SinkFunc(func(res *app.FrameResult, _ *gocv.Mat) error {
		return s.Sightings().Record(sess.ID, res.Seq, res.Time, res.Annotations)
	})

	p, err := app.New(app.Config{
		Camera:    capture.NewMockCamera(frames, true),
		Display:   display.StopAfter(3, 'q'),
		Detector:  det,
		Embedder:  emb,
		Gallery:   g,
		Threshold: match.DefaultThreshold,
		Sinks:     []app.Sink{journal, hub},
	})
	if err != nil {
		t.Fatalf("app.New() error = %v", err)
	}

	t.Run("RunPipeline", func(t *testing.T) {
		if err := p.Run(context.Background()); err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		if p.Processed() != 3 {
			t.Errorf("processed = %d, want 3", p.Processed())
		}

		_, latest := hub.Latest()
		if latest == nil || latest.Seq != 3 {
			t.Fatalf("latest frame = %+v, want seq 3", latest)
		}
		labels := latest.Annotations.Labels()
		if len(labels) != 2 || labels[0] != "Alice" || labels[1] != match.Unknown {
			t.Errorf("labels = %v, want [Alice Unknown]", labels)
		}
	})

	srv := server.New(server.Config{
		Hub:       hub,
		Pipeline:  p,
		Gallery:   g,
		Threshold: match.DefaultThreshold,
		Store:     s,
		SessionID: sess.ID,
	})
	ts := httptest.NewServer(srv)
	defer ts.Close()

	client := ts.Client()

	t.Run("Health", func(t *testing.T) {
		resp, err := client.Get(ts.URL + "/api/health")
		if err != nil {
			t.Fatalf("health error = %v", err)
		}
		defer resp.Body.Close()

		var body struct {
			State  string `json:"state"`
			Frames uint64 `json:"frames"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			t.Fatalf("decode error = %v", err)
		}
		if body.State != "stopped" || body.Frames != 3 {
			t.Errorf("health = %+v, want stopped after 3 frames", body)
		}
	})

	t.Run("Gallery", func(t *testing.T) {
		resp, err := client.Get(ts.URL + "/api/gallery")
		if err != nil {
			t.Fatalf("gallery error = %v", err)
		}
		defer resp.Body.Close()

		var body struct {
			Labels []string `json:"labels"`
			Dim    int      `json:"dim"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			t.Fatalf("decode error = %v", err)
		}
		if len(body.Labels) != 2 || body.Labels[0] != "Alice" || body.Labels[1] != "Bob" {
			t.Errorf("labels = %v, want [Alice Bob]", body.Labels)
		}
		if body.Dim != 3 {
			t.Errorf("dim = %d, want 3", body.Dim)
		}
	})

	t.Run("Sightings", func(t *testing.T) {
		resp, err := client.Get(ts.URL + "/api/sightings?limit=4")
		if err != nil {
			t.Fatalf("sightings error = %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
		}

		var body struct {
			Summary []store.LabelSummary `json:"summary"`
			Recent  []store.Sighting     `json:"recent"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			t.Fatalf("decode error = %v", err)
		}
		if len(body.Recent) != 4 {
			t.Errorf("recent = %d, want 4", len(body.Recent))
		}
		if len(body.Summary) != 2 {
			t.Fatalf("summary = %+v, want 2 labels", body.Summary)
		}
		for _, sum := range body.Summary {
			if sum.Count != 3 {
				t.Errorf("%s seen %d times, want 3", sum.Label, sum.Count)
			}
			if sum.Known != (sum.Label == "Alice") {
				t.Errorf("%s known = %v", sum.Label, sum.Known)
			}
		}
	})

	t.Run("EndSession", func(t *testing.T) {
		if err := s.Sessions().End(sess.ID, sess.StartedAt); err != nil {
			t.Fatalf("End() error = %v", err)
		}
		got, err := s.Sessions().GetByID(sess.ID)
		if err != nil {
			t.Fatalf("GetByID() error = %v", err)
		}
		if got.EndedAt == nil {
			t.Error("expected session to be ended")
		}
	})
}
