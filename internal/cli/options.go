package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/ayusman/drishti/internal/config"
	"github.com/spf13/cobra"
)

// DefaultConfigFile is read from the working directory when --config is not given.
const DefaultConfigFile = "drishti.yaml"

// options holds the values of the shared persistent flags.
type options struct {
	configPath    string
	refs          []string
	refDir        string
	device        string
	width         int
	height        int
	detectorModel string
	cascade       string
	embedderModel string
	threshold     float64
	window        string
	stopKey       string
	headless      bool
	serve         string
	storeDSN      string
}

func (o *options) register(cmd *cobra.Command) {
	def := config.Default()
	flags := cmd.PersistentFlags()

	flags.StringVarP(&o.configPath, "config", "c", "", "YAML config file (default: ./"+DefaultConfigFile+" if present)")
	flags.StringArrayVarP(&o.refs, "ref", "r", nil, "reference face as Label=path (repeatable, order kept)")
	flags.StringVar(&o.refDir, "ref-dir", "", "directory of reference images, labelled by file name")
	flags.StringVar(&o.device, "camera", def.Camera.Device, "camera index or video file")
	flags.IntVar(&o.width, "width", def.Camera.Width, "capture width in pixels")
	flags.IntVar(&o.height, "height", def.Camera.Height, "capture height in pixels")
	flags.StringVar(&o.detectorModel, "detector", def.Detector.Model, "face detector: haar (fast) or dnn (accurate)")
	flags.StringVar(&o.cascade, "cascade", "", "Haar cascade XML (default: search OpenCV install)")
	flags.StringVar(&o.embedderModel, "embedder-model", def.Embedder.ModelPath, "OpenFace Torch model")
	flags.Float64VarP(&o.threshold, "threshold", "t", def.Match.Threshold, "maximum embedding distance accepted as a match")
	flags.StringVar(&o.window, "window", def.Display.Window, "preview window title")
	flags.StringVar(&o.stopKey, "stop-key", def.Display.StopKey, "key that ends the session")
	flags.BoolVar(&o.headless, "headless", false, "no preview window; stop with Ctrl+C")
	flags.StringVar(&o.serve, "serve", "", "address for the HTTP preview server, e.g. :8080")
	flags.StringVar(&o.storeDSN, "store", def.Store.DSN, "SQLite file for the sightings journal")
}

// loadConfig merges defaults, the config file, DRISHTI_* variables and the
// flags that were set explicitly, then validates the result.
func (o *options) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path := o.configPath
	if path == "" {
		if _, err := os.Stat(DefaultConfigFile); err == nil {
			path = DefaultConfigFile
		}
	}

	cfg := config.Default()
	if path != "" {
		var err error
		if cfg, err = config.LoadFile(path); err != nil {
			return nil, err
		}
	}

	config.ApplyEnv(cfg)

	flags := cmd.Flags()
	if flags.Changed("camera") {
		cfg.Camera.Device = o.device
	}
	if flags.Changed("width") {
		cfg.Camera.Width = o.width
	}
	if flags.Changed("height") {
		cfg.Camera.Height = o.height
	}
	if flags.Changed("detector") {
		cfg.Detector.Model = o.detectorModel
	}
	if flags.Changed("cascade") {
		cfg.Detector.CascadePath = o.cascade
	}
	if flags.Changed("embedder-model") {
		cfg.Embedder.ModelPath = o.embedderModel
	}
	if flags.Changed("threshold") {
		cfg.Match.Threshold = o.threshold
	}
	if flags.Changed("window") {
		cfg.Display.Window = o.window
	}
	if flags.Changed("stop-key") {
		cfg.Display.StopKey = o.stopKey
	}
	if flags.Changed("headless") {
		cfg.Display.Headless = o.headless
	}
	if flags.Changed("serve") {
		cfg.Server.Addr = o.serve
	}
	if flags.Changed("store") {
		cfg.Store.DSN = o.storeDSN
	}

	refs, err := o.references()
	if err != nil {
		return nil, err
	}
	if refs != nil {
		cfg.References = refs
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// references collects --ref-dir images followed by --ref entries.
// It returns nil when neither flag was given.
func (o *options) references() (config.References, error) {
	if o.refDir == "" && len(o.refs) == 0 {
		return nil, nil
	}

	var refs config.References
	if o.refDir != "" {
		dirRefs, err := config.LoadReferenceDir(o.refDir)
		if err != nil {
			return nil, err
		}
		if len(dirRefs) == 0 {
			return nil, errors.New("no images found in " + o.refDir)
		}
		refs = append(refs, dirRefs...)
	}

	for _, s := range o.refs {
		ref, err := config.ParseRef(s)
		if err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, nil
}
