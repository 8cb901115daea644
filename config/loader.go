package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/creasty/defaults"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/leeforge/assetpipe/utils"
)

// LoaderOptions locates the config files.
type LoaderOptions struct {
	BasePath  string
	FileName  string
	FileType  string
	EnvPrefix string
	Env       Env
}

// DefaultLoaderOptions reads from $CONFIG_PATH, or ./config.
func DefaultLoaderOptions() LoaderOptions {
	basePath := os.Getenv("CONFIG_PATH")
	if basePath == "" {
		basePath = "config"
	}

	return LoaderOptions{
		BasePath:  basePath,
		FileName:  "config",
		FileType:  "yaml",
		EnvPrefix: "ASSETPIPE",
		Env:       CurrentEnv(),
	}
}

// Loader merges the layered config files and environment overrides.
type Loader struct {
	opts  LoaderOptions
	files []string

	mu       sync.RWMutex
	instance *viper.Viper
}

// NewLoader reads every config file that exists. Having none at all is
// fine; defaults and environment variables still apply.
func NewLoader(opts LoaderOptions) (*Loader, error) {
	if opts.FileName == "" {
		opts.FileName = "config"
	}
	if opts.FileType == "" {
		opts.FileType = "yaml"
	}

	l := &Loader{opts: opts, files: configFilePaths(opts)}
	instance, err := l.read(l.files)
	if err != nil {
		return nil, err
	}
	l.instance = instance
	return l, nil
}

// Files returns the config files that were merged, lowest priority first.
func (l *Loader) Files() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.files
}

func (l *Loader) read(files []string) (*viper.Viper, error) {
	v := viper.New()
	v.SetConfigType(l.opts.FileType)

	for _, configPath := range files {
		tempV := viper.New()
		tempV.SetConfigFile(configPath)
		if err := tempV.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configPath, err)
		}

		for _, key := range tempV.AllKeys() {
			v.Set(key, tempV.Get(key))
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	if l.opts.EnvPrefix != "" {
		v.SetEnvPrefix(l.opts.EnvPrefix)
	}
	v.AutomaticEnv()

	// Environment variables win over file values.
	applyEnvOverrides(v, l.opts.EnvPrefix)

	return v, nil
}

// Bind fills instance from defaults, then files and environment.
func (l *Loader) Bind(instance any) error {
	if instance == nil {
		return fmt.Errorf("target instance is nil")
	}
	if err := defaults.Set(instance); err != nil {
		return fmt.Errorf("failed to set defaults: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	bindStructEnv(l.instance, reflect.TypeOf(instance), "")
	if err := l.instance.Unmarshal(instance); err != nil {
		return fmt.Errorf("failed to unmarshal config (path: %s, file: %s.%s): %w",
			l.opts.BasePath, l.opts.FileName, l.opts.FileType, err)
	}
	return nil
}

// Reload re-reads the files from disk.
func (l *Loader) Reload() error {
	files := configFilePaths(l.opts)
	instance, err := l.read(files)
	if err != nil {
		return err
	}
	l.mu.Lock()
	l.files = files
	l.instance = instance
	l.mu.Unlock()
	return nil
}

// Watch reloads the config whenever a file in BasePath changes and then
// calls onChange, until ctx is done.
func (l *Loader) Watch(ctx context.Context, onChange func(error)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	if err := w.Add(l.opts.BasePath); err != nil {
		w.Close()
		return fmt.Errorf("failed to watch config path %s: %w", l.opts.BasePath, err)
	}

	go func() {
		defer w.Close()
		suffix := "." + l.opts.FileType
		var pending <-chan time.Time
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.Events:
				if !ok {
					return
				}
				if strings.HasSuffix(event.Name, suffix) && event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
					pending = time.After(100 * time.Millisecond)
				}
			case <-pending:
				pending = nil
				onChange(l.Reload())
			case _, ok := <-w.Errors:
				if !ok {
					return
				}
			}
		}
	}()
	return nil
}

// applyEnvOverrides checks all config keys and overrides with environment
// variables if they exist.
func applyEnvOverrides(v *viper.Viper, envPrefix string) {
	replacer := strings.NewReplacer(".", "_")

	for _, key := range v.AllKeys() {
		// images.source_dir -> ASSETPIPE_IMAGES_SOURCE_DIR
		envKey := strings.ToUpper(replacer.Replace(key))
		if envPrefix != "" {
			envKey = envPrefix + "_" + envKey
		}

		if envValue := os.Getenv(envKey); envValue != "" {
			v.Set(key, envValue)
		}
	}
}

// bindStructEnv registers every mapstructure key of t with viper, so
// environment variables apply to keys no config file mentions.
func bindStructEnv(v *viper.Viper, t reflect.Type, prefix string) {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return
	}
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := strings.Split(field.Tag.Get("mapstructure"), ",")[0]
		if tag == "" || tag == "-" {
			continue
		}
		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}
		ft := field.Type
		if ft.Kind() == reflect.Struct && ft != reflect.TypeOf(time.Duration(0)) {
			bindStructEnv(v, ft, key)
			continue
		}
		_ = v.BindEnv(key)
	}
}

// configFilePaths lists, lowest priority first, the files that exist:
// config, config.local, config.<env>, config.<env>.local.
func configFilePaths(opts LoaderOptions) (configFiles []string) {
	fileNames := []string{opts.FileName, opts.FileName + ".local"}
	for _, alias := range opts.Env.aliases() {
		fileNames = append(fileNames, opts.FileName+"."+alias, opts.FileName+"."+alias+".local")
	}

	for _, fileName := range fileNames {
		file := filepath.Join(opts.BasePath, fileName+"."+opts.FileType)
		if ok, _ := utils.IsRegularFile(file); ok {
			configFiles = append(configFiles, file)
		}
	}
	return configFiles
}
