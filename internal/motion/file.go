package motion

import (
	"fmt"
	"os"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/ivlev/choreo/internal/errors"
	"github.com/ivlev/choreo/internal/log"
)

// FilePolicy is a Preferences policy backed by a YAML file such as:
//
//	reduce_motion: true
//	disabled_categories: [parallax]
//	duration_scale: 0.5
//	category_scale:
//	  transition: 0.25
//
// Watch reloads it whenever the file changes on disk.
type FilePolicy struct {
	*Preferences

	path   string
	v      *viper.Viper
	logger *log.Logger

	mu        sync.Mutex
	callbacks []func(Settings)
}

// NewFilePolicy reads the policy at path. The file must exist.
func NewFilePolicy(path string, logger *log.Logger) (*FilePolicy, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewFileNotFoundError(path)
		}
		return nil, errors.Wrap(errors.ErrCodeFileReadFailed, "failed to stat policy file", err)
	}
	if logger == nil {
		logger = log.Discard()
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetDefault("reduce_motion", false)
	v.SetDefault("duration_scale", 1.0)

	fp := &FilePolicy{
		Preferences: NewPreferences(),
		path:        path,
		v:           v,
		logger:      logger.With("policy_file", path),
	}
	if err := fp.Reload(); err != nil {
		return nil, err
	}
	return fp, nil
}

// Path returns the watched file.
func (fp *FilePolicy) Path() string { return fp.path }

// Reload re-reads the file and applies it.
func (fp *FilePolicy) Reload() error {
	if err := fp.v.ReadInConfig(); err != nil {
		return errors.Wrap(errors.ErrCodeFileReadFailed, "failed to read policy file", err)
	}
	return fp.apply()
}

func (fp *FilePolicy) apply() error {
	var s Settings
	if err := fp.v.Unmarshal(&s); err != nil {
		return errors.NewFileUnmarshalError(fp.path, "yaml", err)
	}
	if s.DurationScale < 0 {
		return errors.New(errors.ErrCodeConfigInvalid, fmt.Sprintf("duration_scale must not be negative, got %g", s.DurationScale))
	}
	fp.Apply(s)
	fp.logger.Info("motion policy loaded",
		"reduce_motion", s.ReduceMotion,
		"disabled", s.DisabledCategories,
		"duration_scale", s.DurationScale,
	)

	fp.mu.Lock()
	callbacks := make([]func(Settings), len(fp.callbacks))
	copy(callbacks, fp.callbacks)
	fp.mu.Unlock()

	for _, fn := range callbacks {
		fn(s)
	}
	return nil
}

// OnChange registers a callback for every successful load.
func (fp *FilePolicy) OnChange(fn func(Settings)) {
	fp.mu.Lock()
	defer fp.mu.Unlock()
	fp.callbacks = append(fp.callbacks, fn)
}

// Watch enables hot-reloading. A broken edit keeps the previous settings.
func (fp *FilePolicy) Watch() {
	fp.v.OnConfigChange(func(e fsnotify.Event) {
		if err := fp.apply(); err != nil {
			fp.logger.WithError(err).Warn("motion policy reload failed", "op", e.Op.String())
		}
	})
	fp.v.WatchConfig()
}
