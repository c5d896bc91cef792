// Package config loads flightrig settings with viper: defaults, an optional
// flightrig.yaml, then FLIGHTRIG_ environment overrides.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	KeyLogLevel          = "log.level"
	KeyPhysicsBackend    = "physics.backend"
	KeyPhysicsWorkers    = "physics.workers"
	KeyPhysicsGravity    = "physics.gravity"
	KeyPhysicsIterations = "physics.iterations"
	KeySimHz             = "sim.hz"
	KeySimFrames         = "sim.frames"
	KeySimHeadless       = "sim.headless"
	KeyWindowWidth       = "window.width"
	KeyWindowHeight      = "window.height"
	KeyRigFile           = "rig.file"
	KeyRigWatch          = "rig.watch"
	KeyPrefabsDir        = "prefabs.dir"
	KeyProfile           = "profile"
	KeyDebug             = "debug"
	KeyMetricsExporter   = "metrics.exporter"
	KeyMetricsInterval   = "metrics.interval"
)

const (
	BackendRigid  = "rigid"
	BackendPlanar = "planar"
)

const (
	MetricsNone   = "none"
	MetricsStdout = "stdout"
)

var ErrInvalid = errors.New("config: invalid setting")

// Settings is a typed snapshot of the loaded configuration.
type Settings struct {
	LogLevel          string
	PhysicsBackend    string
	PhysicsWorkers    int
	PhysicsGravity    float64
	PhysicsIterations int
	SimHz             int
	SimFrames         int
	SimHeadless       bool
	WindowWidth       int
	WindowHeight      int
	RigFile           string
	RigWatch          bool
	PrefabsDir        string
	Profile           string
	Debug             bool
	MetricsExporter   string
	MetricsInterval   time.Duration
}

// Dt is the fixed step length.
func (s Settings) Dt() float64 {
	return 1 / float64(s.SimHz)
}

func SetDefaults() {
	viper.SetDefault(KeyLogLevel, "info")
	viper.SetDefault(KeyPhysicsBackend, BackendRigid)
	viper.SetDefault(KeyPhysicsWorkers, 2)
	viper.SetDefault(KeyPhysicsGravity, -9.81)
	viper.SetDefault(KeyPhysicsIterations, 10)
	viper.SetDefault(KeySimHz, 60)
	viper.SetDefault(KeySimFrames, 0)
	viper.SetDefault(KeySimHeadless, false)
	viper.SetDefault(KeyWindowWidth, 1280)
	viper.SetDefault(KeyWindowHeight, 720)
	viper.SetDefault(KeyRigFile, "rig.yaml")
	viper.SetDefault(KeyRigWatch, false)
	viper.SetDefault(KeyPrefabsDir, "prefabs")
	viper.SetDefault(KeyProfile, "")
	viper.SetDefault(KeyDebug, false)
	viper.SetDefault(KeyMetricsExporter, MetricsNone)
	viper.SetDefault(KeyMetricsInterval, 10*time.Second)
}

// Load sets defaults, reads flightrig.yaml from configDir when present and
// enables environment overrides. A missing file is not an error; a broken
// one is.
func Load(configDir string) error {
	SetDefaults()

	viper.SetEnvPrefix("FLIGHTRIG")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetConfigName("flightrig")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configDir)

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}
	return nil
}

// Current reads the settings back out of viper and validates them.
func Current() (Settings, error) {
	s := Settings{
		LogLevel:          viper.GetString(KeyLogLevel),
		PhysicsBackend:    strings.ToLower(viper.GetString(KeyPhysicsBackend)),
		PhysicsWorkers:    viper.GetInt(KeyPhysicsWorkers),
		PhysicsGravity:    viper.GetFloat64(KeyPhysicsGravity),
		PhysicsIterations: viper.GetInt(KeyPhysicsIterations),
		SimHz:             viper.GetInt(KeySimHz),
		SimFrames:         viper.GetInt(KeySimFrames),
		SimHeadless:       viper.GetBool(KeySimHeadless),
		WindowWidth:       viper.GetInt(KeyWindowWidth),
		WindowHeight:      viper.GetInt(KeyWindowHeight),
		RigFile:           viper.GetString(KeyRigFile),
		RigWatch:          viper.GetBool(KeyRigWatch),
		PrefabsDir:        viper.GetString(KeyPrefabsDir),
		Profile:           strings.ToLower(viper.GetString(KeyProfile)),
		Debug:             viper.GetBool(KeyDebug),
		MetricsExporter:   strings.ToLower(viper.GetString(KeyMetricsExporter)),
		MetricsInterval:   viper.GetDuration(KeyMetricsInterval),
	}
	return s, s.Validate()
}

func (s Settings) Validate() error {
	switch {
	case s.PhysicsBackend != BackendRigid && s.PhysicsBackend != BackendPlanar:
		return fmt.Errorf("%w: %s %q", ErrInvalid, KeyPhysicsBackend, s.PhysicsBackend)
	case s.PhysicsWorkers < 1:
		return fmt.Errorf("%w: %s must be at least 1", ErrInvalid, KeyPhysicsWorkers)
	case s.PhysicsIterations < 1:
		return fmt.Errorf("%w: %s must be at least 1", ErrInvalid, KeyPhysicsIterations)
	case s.SimHz < 1:
		return fmt.Errorf("%w: %s must be at least 1", ErrInvalid, KeySimHz)
	case s.SimFrames < 0:
		return fmt.Errorf("%w: %s must not be negative", ErrInvalid, KeySimFrames)
	case s.WindowWidth < 1 || s.WindowHeight < 1:
		return fmt.Errorf("%w: window size %dx%d", ErrInvalid, s.WindowWidth, s.WindowHeight)
	case s.RigFile == "":
		return fmt.Errorf("%w: %s is empty", ErrInvalid, KeyRigFile)
	case s.Profile != "" && s.Profile != "cpu" && s.Profile != "mem":
		return fmt.Errorf("%w: %s %q", ErrInvalid, KeyProfile, s.Profile)
	case s.MetricsExporter != "" && s.MetricsExporter != MetricsNone && s.MetricsExporter != MetricsStdout:
		return fmt.Errorf("%w: %s %q", ErrInvalid, KeyMetricsExporter, s.MetricsExporter)
	case s.MetricsExporter == MetricsStdout && s.MetricsInterval <= 0:
		return fmt.Errorf("%w: %s must be positive", ErrInvalid, KeyMetricsInterval)
	}
	return nil
}

func GetString(key string) string {
	return viper.GetString(key)
}

func GetInt(key string) int {
	return viper.GetInt(key)
}

func GetBool(key string) bool {
	return viper.GetBool(key)
}

// Set overrides a key, typically from a command-line flag.
func Set(key string, value any) {
	viper.Set(key, value)
}
