package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/ayusman/drishti/internal/gallery"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

func newGalleryCommand(opts *options) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "gallery",
		Short: "Enroll the reference images and report on each one",
		Long: `Gallery runs enrollment on its own, without opening the camera. It
prints one line per reference saying whether it was enrolled and, if not,
why. Use it to check a set of reference photos before going live.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGallery(cmd, opts, asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")

	return cmd
}

func runGallery(cmd *cobra.Command, opts *options, asJSON bool) error {
	cfg, err := opts.loadConfig(cmd)
	if err != nil {
		return err
	}
	if len(cfg.References) == 0 {
		return errors.New("no references given; use --ref, --ref-dir or the references section of the config file")
	}

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

	bar := progressbar.NewOptions(len(cfg.References),
		progressbar.OptionSetDescription("Enrolling"),
		progressbar.OptionSetWriter(cmd.ErrOrStderr()),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)

	outcomes := make([]gallery.Outcome, 0, len(cfg.References))
	b := gallery.NewBuilder(det, emb)
	b.Observer = func(o gallery.Outcome) {
		outcomes = append(outcomes, o)
		_ = bar.Add(1)
	}
	g := b.Build(cfg.References)
	_ = bar.Finish()

	if asJSON {
		return writeReportJSON(cmd.OutOrStdout(), outcomes, g)
	}
	return writeReport(cmd.OutOrStdout(), outcomes, g)
}

// reportEntry is the JSON form of one enrollment outcome.
type reportEntry struct {
	Label  string `json:"label"`
	Path   string `json:"path"`
	Status string `json:"status"`
	Faces  int    `json:"faces"`
	Error  string `json:"error,omitempty"`
}

type report struct {
	Enrolled   int           `json:"enrolled"`
	Total      int           `json:"total"`
	Dim        int           `json:"dim"`
	References []reportEntry `json:"references"`
}

func newReport(outcomes []gallery.Outcome, g *gallery.Gallery) report {
	r := report{
		Enrolled:   g.Len(),
		Total:      len(outcomes),
		Dim:        g.Dim(),
		References: make([]reportEntry, len(outcomes)),
	}
	for i, o := range outcomes {
		r.References[i] = reportEntry{
			Label:  o.Reference.Label,
			Path:   o.Reference.Path,
			Status: string(o.Status),
			Faces:  o.Faces,
		}
		if o.Err != nil {
			r.References[i].Error = o.Err.Error()
		}
	}
	return r
}

func writeReport(w io.Writer, outcomes []gallery.Outcome, g *gallery.Gallery) error {
	r := newReport(outcomes, g)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "LABEL\tSTATUS\tFACES\tPATH\tDETAIL")
	for _, e := range r.References {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n", e.Label, e.Status, e.Faces, e.Path, e.Error)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(w, "\n%d of %d references enrolled (embedding dim %d)\n", r.Enrolled, r.Total, r.Dim)
	return err
}

func writeReportJSON(w io.Writer, outcomes []gallery.Outcome, g *gallery.Gallery) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(newReport(outcomes, g))
}
