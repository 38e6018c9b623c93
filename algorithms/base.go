package algorithms

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/mitchellh/mapstructure"
	"github.com/pbudner/frictionminer/model"
)

// Detector finds friction points in a collection of traces. Implementations
// must not modify the traces and keep no state between calls.
type Detector interface {
	Name() string
	Detect(traces []model.Trace) ([]model.Anomaly, error)
}

var (
	// ErrUnknownDetector is returned when no detector is registered under a name
	ErrUnknownDetector = errors.New("detector not defined")

	registryMu           sync.RWMutex
	registered_detectors = make(map[string]RegisteredDetector)
)

type RegisteredDetector struct {
	// DefaultConfig returns a pointer to a config struct holding the defaults
	DefaultConfig   func() interface{}
	InitializerFunc func(interface{}) (Detector, error)
}

func RegisterDetector(name string, defaultConfig func() interface{}, initializerFunc func(interface{}) (Detector, error)) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registered_detectors[name] = RegisteredDetector{
		DefaultConfig:   defaultConfig,
		InitializerFunc: initializerFunc,
	}
}

// InstantiateDetector decodes args over the registered defaults and builds
// the detector.
func InstantiateDetector(name string, args map[string]interface{}) (Detector, error) {
	registryMu.RLock()
	det, found := registered_detectors[name]
	registryMu.RUnlock()
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDetector, name)
	}

	var cfg interface{}
	if det.DefaultConfig != nil {
		cfg = det.DefaultConfig()
	}

	if cfg != nil && len(args) > 0 {
		dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			TagName:          "yaml",
			WeaklyTypedInput: true,
			ErrorUnused:      true,
			Result:           cfg,
		})
		if err != nil {
			return nil, err
		}

		if err = dec.Decode(args); err != nil {
			return nil, fmt.Errorf("invalid config for detector %s: %w", name, err)
		}
	}

	return det.InitializerFunc(cfg)
}

// RegisteredDetectors lists all detector names in alphabetical order.
func RegisteredDetectors() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registered_detectors))
	for name := range registered_detectors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
