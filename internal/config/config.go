package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gonum.org/v1/gonum/spatial/r3"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/neurodash/internal/activation"
	"github.com/san-kum/neurodash/internal/ingest"
	"github.com/san-kum/neurodash/internal/neuro"
	"github.com/san-kum/neurodash/internal/surface"
)

const (
	DefaultPollInterval    = time.Second
	DefaultTickInterval    = time.Second
	DefaultWindow          = 2 * time.Second
	DefaultHistoryCapacity = 120
	DefaultDomain          = 6.0
	DefaultStacks          = 24
	DefaultSlices          = 32
	DefaultDBPath          = "neurodash.db"
	DefaultMontage         = "standard"
)

type Config struct {
	Sensors    []SensorConfig `yaml:"sensors"`
	Parameters []string       `yaml:"parameters"`
	// Regions maps sensor ids to the surface regions they drive. When
	// empty, the montage named by Montage is used.
	Regions   map[string][]RegionConfig `yaml:"regions,omitempty"`
	Montage   string                    `yaml:"montage"`
	Events    []string                  `yaml:"events"`
	Dashboard DashboardConfig           `yaml:"dashboard"`
	Surface   SurfaceConfig             `yaml:"surface"`
	Storage   StorageConfig             `yaml:"storage"`
}

type SensorConfig struct {
	ID  string `yaml:"id"`
	URL string `yaml:"url"`
}

type RegionConfig struct {
	Half   string     `yaml:"half"`
	Anchor [3]float64 `yaml:"anchor,flow"`
	Metric string     `yaml:"metric"`
	Radius float64    `yaml:"radius"`
}

type DashboardConfig struct {
	PollInterval    time.Duration `yaml:"poll_interval"`
	TickInterval    time.Duration `yaml:"tick_interval"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
	Window          time.Duration `yaml:"quiescence_window"`
	HistoryCapacity int           `yaml:"history_capacity"`
	Domain          float64       `yaml:"color_domain"`
	Midpoint        float64       `yaml:"midpoint"`
	HalfRange       float64       `yaml:"half_range"`
	MinCoverage     float64       `yaml:"min_coverage"`
}

type SurfaceConfig struct {
	// Loader is "ellipsoid" or "obj".
	Loader string `yaml:"loader"`
	Left   string `yaml:"left,omitempty"`
	Right  string `yaml:"right,omitempty"`
	Stacks int    `yaml:"stacks"`
	Slices int    `yaml:"slices"`
}

type StorageConfig struct {
	Path string `yaml:"path"`
}

func DefaultConfig() *Config {
	params := activation.DefaultParams()
	return &Config{
		Sensors: []SensorConfig{
			{ID: "sensor_a", URL: "http://127.0.0.1:5000"},
			{ID: "sensor_b", URL: "http://127.0.0.1:5001"},
			{ID: "sensor_c", URL: "http://127.0.0.1:5002"},
			{ID: "sensor_d", URL: "http://127.0.0.1:5003"},
			{ID: "sensor_e", URL: "http://127.0.0.1:5004"},
		},
		Parameters: []string{
			neuro.MetricSignal, neuro.MetricAttention, neuro.MetricMeditation,
			neuro.MetricDelta, neuro.MetricTheta,
			neuro.MetricLowAlpha, neuro.MetricHighAlpha,
			neuro.MetricLowBeta, neuro.MetricHighBeta,
			neuro.MetricLowGamma, neuro.MetricMidGamma,
		},
		Montage: DefaultMontage,
		Events:  []string{"baseline", "stimulus", "rest"},
		Dashboard: DashboardConfig{
			PollInterval:    DefaultPollInterval,
			TickInterval:    DefaultTickInterval,
			RequestTimeout:  ingest.DefaultTimeout,
			Window:          DefaultWindow,
			HistoryCapacity: DefaultHistoryCapacity,
			Domain:          DefaultDomain,
			Midpoint:        params.Midpoint,
			HalfRange:       params.HalfRange,
			MinCoverage:     params.MinCoverage,
		},
		Surface: SurfaceConfig{Loader: "ellipsoid", Stacks: DefaultStacks, Slices: DefaultSlices},
		Storage: StorageConfig{Path: DefaultDBPath},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks the config for values the dashboard cannot run with.
func (c *Config) Validate() error {
	var errs []error

	if len(c.Parameters) == 0 {
		errs = append(errs, errors.New("parameters: at least one metric is required"))
	}
	seen := make(map[string]bool, len(c.Sensors))
	for i, s := range c.Sensors {
		switch {
		case s.ID == "":
			errs = append(errs, fmt.Errorf("sensors[%d]: missing id", i))
		case seen[s.ID]:
			errs = append(errs, fmt.Errorf("sensors[%d]: duplicate id %q", i, s.ID))
		}
		seen[s.ID] = true
	}

	if len(c.Regions) == 0 {
		if GetMontage(c.Montage) == nil {
			errs = append(errs, fmt.Errorf("montage: unknown preset %q", c.Montage))
		}
	}
	for id, regions := range c.Regions {
		for i, r := range regions {
			if _, ok := neuro.ParseHalf(r.Half); !ok {
				errs = append(errs, fmt.Errorf("regions.%s[%d]: bad half %q", id, i, r.Half))
			}
			for _, f := range r.Anchor {
				if f < 0 || f > 1 {
					errs = append(errs, fmt.Errorf("regions.%s[%d]: anchor fraction %g outside [0, 1]", id, i, f))
					break
				}
			}
			if r.Radius <= 0 {
				errs = append(errs, fmt.Errorf("regions.%s[%d]: radius must be positive", id, i))
			}
			if r.Metric == "" {
				errs = append(errs, fmt.Errorf("regions.%s[%d]: missing metric", id, i))
			}
		}
	}

	d := c.Dashboard
	if d.PollInterval <= 0 || d.TickInterval <= 0 {
		errs = append(errs, errors.New("dashboard: intervals must be positive"))
	}
	if d.Window <= 0 {
		errs = append(errs, errors.New("dashboard: quiescence_window must be positive"))
	}
	if d.HistoryCapacity <= 0 {
		errs = append(errs, errors.New("dashboard: history_capacity must be positive"))
	}
	if d.Domain <= 0 || d.HalfRange <= 0 {
		errs = append(errs, errors.New("dashboard: color_domain and half_range must be positive"))
	}
	if d.Midpoint <= 0 {
		errs = append(errs, errors.New("dashboard: midpoint must be positive"))
	}

	switch c.Surface.Loader {
	case "", "ellipsoid":
	case "obj":
		if c.Surface.Left == "" || c.Surface.Right == "" {
			errs = append(errs, errors.New("surface: obj loader needs left and right paths"))
		}
	default:
		errs = append(errs, fmt.Errorf("surface: unknown loader %q", c.Surface.Loader))
	}

	return errors.Join(errs...)
}

// SensorIDs returns the configured sensor ids in order.
func (c *Config) SensorIDs() []neuro.SensorID {
	ids := make([]neuro.SensorID, len(c.Sensors))
	for i, s := range c.Sensors {
		ids[i] = neuro.SensorID(s.ID)
	}
	return ids
}

// Endpoints returns the sensors as polling targets.
func (c *Config) Endpoints() []ingest.Sensor {
	out := make([]ingest.Sensor, len(c.Sensors))
	for i, s := range c.Sensors {
		out[i] = ingest.Sensor{ID: neuro.SensorID(s.ID), URL: s.URL}
	}
	return out
}

// Assignments converts the region table, falling back to the montage.
func (c *Config) Assignments() activation.Assignments {
	regions := c.Regions
	if len(regions) == 0 {
		regions = GetMontage(c.Montage)
	}
	out := make(activation.Assignments, len(regions))
	for id, rs := range regions {
		for _, r := range rs {
			half, _ := neuro.ParseHalf(r.Half)
			out[neuro.SensorID(id)] = append(out[neuro.SensorID(id)], activation.Region{
				Half:       half,
				Anchor:     r3.Vec{X: r.Anchor[0], Y: r.Anchor[1], Z: r.Anchor[2]},
				Metric:     r.Metric,
				BaseFactor: r.Radius,
			})
		}
	}
	return out
}

func (c *Config) ActivationParams() activation.Params {
	return activation.Params{
		Midpoint:    c.Dashboard.Midpoint,
		HalfRange:   c.Dashboard.HalfRange,
		MinCoverage: c.Dashboard.MinCoverage,
	}
}

// Loader returns the configured mesh source.
func (c *Config) Loader() surface.Loader {
	if c.Surface.Loader == "obj" {
		return surface.OBJLoader{Left: c.Surface.Left, Right: c.Surface.Right}
	}
	l := surface.DefaultEllipsoid()
	if c.Surface.Stacks > 0 {
		l.Stacks = c.Surface.Stacks
	}
	if c.Surface.Slices > 0 {
		l.Slices = c.Surface.Slices
	}
	return l
}
