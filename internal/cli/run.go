package cli

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/ayusman/drishti/internal/app"
	"github.com/ayusman/drishti/internal/gallery"
	"github.com/ayusman/drishti/internal/match"
	"github.com/ayusman/drishti/internal/server"
	"github.com/ayusman/drishti/internal/store"
	"github.com/spf13/cobra"
)

func newRunCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Identify faces in the live camera stream (default)",
		Long: `Run builds the gallery from the configured references, opens the
camera and labels every detected face until the stop key is pressed or the
process is interrupted. Every labelled face is journaled to the store.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(cmd, opts)
		},
	}
}

func runPipeline(cmd *cobra.Command, opts *options) error {
	cfg, err := opts.loadConfig(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	det, err := newDetector(cfg.DetectorSettings())
	if err != nil {
		return fmt.Errorf("failed to create detector: %w", err)
	}
	defer det.Close()

	emb, err := newEmbedder(cfg.EmbedderSettings())
	if err != nil {
		return fmt.Errorf("failed to create embedder: %w", err)
	}
	defer emb.Close()

	g := gallery.NewBuilder(det, emb).Build(cfg.References)
	log.Printf("Gallery ready: %d of %d references enrolled", g.Len(), len(cfg.References))
	if g.Len() == 0 {
		log.Printf("Gallery is empty; every face will be labelled %q", match.Unknown)
	}

	st, err := store.New(cfg.Store.DSN)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer st.Close()

	sess := &store.Session{
		Device:      cfg.Camera.Device,
		Detector:    cfg.Detector.Model,
		Threshold:   cfg.Match.Threshold,
		GallerySize: g.Len(),
	}
	if err := st.Sessions().Create(sess); err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	sinks := []app.Sink{newJournal(st, sess.ID)}
	var hub *server.Hub
	if cfg.Server.Addr != "" {
		hub = server.NewHub()
		sinks = append(sinks, hub)
	}

	p, err := app.New(app.Config{
		Camera:     newCamera(cfg.Camera.Device),
		Display:    newDisplay(cfg.Display.Headless),
		Detector:   det,
		Embedder:   emb,
		Gallery:    g,
		Threshold:  cfg.Match.Threshold,
		WindowName: cfg.Display.Window,
		StopKey:    cfg.StopRune(),
		Width:      cfg.Camera.Width,
		Height:     cfg.Camera.Height,
		Sinks:      sinks,
	})
	if err != nil {
		return err
	}

	var serverDone chan struct{}
	srvCtx, stopServer := context.WithCancel(ctx)
	defer stopServer()
	if hub != nil {
		srv := server.New(server.Config{
			Hub:       hub,
			Pipeline:  p,
			Gallery:   g,
			Threshold: cfg.Match.Threshold,
			Store:     st,
			SessionID: sess.ID,
		})
		serverDone = make(chan struct{})
		go func() {
			defer close(serverDone)
			if err := srv.ListenAndServe(srvCtx, cfg.Server.Addr); err != nil {
				log.Printf("Preview server error: %v", err)
			}
		}()
	}

	if cfg.Display.Headless {
		log.Printf("Running headless; press Ctrl+C to stop")
	} else {
		log.Printf("Press %q in the %s window to stop", cfg.Display.StopKey, cfg.Display.Window)
	}
	runErr := p.Run(ctx)

	stopServer()
	if serverDone != nil {
		<-serverDone
	}

	if err := st.Sessions().End(sess.ID, time.Now()); err != nil {
		log.Printf("Failed to end session %s: %v", sess.ID, err)
	}
	if runErr != nil {
		return runErr
	}

	return printSummary(cmd.OutOrStdout(), st, sess.ID, p.Processed())
}

// printSummary reports how often each label was seen during the session.
func printSummary(w io.Writer, st *store.Store, sessionID string, frames uint64) error {
	summary, err := st.Sightings().Summary(sessionID)
	if err != nil {
		return fmt.Errorf("failed to summarize session: %w", err)
	}

	fmt.Fprintf(w, "Processed %d frames\n", frames)
	if len(summary) == 0 {
		fmt.Fprintln(w, "No faces seen")
		return nil
	}
	for _, s := range summary {
		fmt.Fprintf(w, "  %-20s %5d sightings, best distance %.3f\n", s.Label, s.Count, s.BestDistance)
	}
	return nil
}
