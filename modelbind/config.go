// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: © 2017 LabStack and Echo contributors

package modelbind

import (
	"errors"

	"github.com/joeshaw/envdecode"
	"github.com/labstack/echo-modelbind/validation"
	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
	"github.com/opentracing/opentracing-go"
)

const (
	defaultTagName = "form"

	// defaultMaxElements caps the number of elements resolved for one collection to
	// prevent memory exhaustion attacks
	defaultMaxElements = 10000
)

type (
	// Config defines the config for a Binder.
	Config struct {
		// TagName is the struct tag naming a property in binding keys. Untagged fields use
		// their Go name, `-` skips the field.
		// Default is "form".
		TagName string

		// MaxElements is the maximum number of elements a single collection may resolve.
		// Default is 10000.
		MaxElements int

		// DisableEmptyPrefixFallback stops BindCollection from retrying with the empty prefix
		// when no submitted key lives under the requested one.
		DisableEmptyPrefixFallback bool

		// Validators holds the property rules. Types with `validate` tags are registered lazily.
		// Default is a new empty registry.
		Validators *validation.Registry

		// Factory constructs collection instances.
		// Default is a new CollectionFactory.
		Factory *CollectionFactory

		// Logger receives debug output about index resolution and element failures.
		// Default is a gommon logger prefixed "modelbind".
		Logger echo.Logger

		// Tracer starts a span for every collection bind.
		// Default is opentracing.GlobalTracer().
		Tracer opentracing.Tracer

		// Metrics, when set, observes every collection bind.
		Metrics *Metrics
	}

	envConfig struct {
		TagName                    string `env:"MODELBIND_TAG_NAME,default=form"`
		MaxElements                int    `env:"MODELBIND_MAX_ELEMENTS,default=10000"`
		DisableEmptyPrefixFallback bool   `env:"MODELBIND_DISABLE_EMPTY_PREFIX_FALLBACK,default=false"`
	}
)

var (
	// DefaultConfig is the default Binder config.
	DefaultConfig = Config{
		TagName:     defaultTagName,
		MaxElements: defaultMaxElements,
	}
)

// ConfigFromEnv returns DefaultConfig overridden by MODELBIND_TAG_NAME,
// MODELBIND_MAX_ELEMENTS and MODELBIND_DISABLE_EMPTY_PREFIX_FALLBACK.
func ConfigFromEnv() (Config, error) {
	var env envConfig
	if err := envdecode.Decode(&env); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return Config{}, err
	}
	config := DefaultConfig
	if env.TagName != "" {
		config.TagName = env.TagName
	}
	if env.MaxElements > 0 {
		config.MaxElements = env.MaxElements
	}
	config.DisableEmptyPrefixFallback = env.DisableEmptyPrefixFallback
	return config, nil
}

func (config Config) withDefaults() Config {
	if config.TagName == "" {
		config.TagName = DefaultConfig.TagName
	}
	if config.MaxElements <= 0 {
		config.MaxElements = DefaultConfig.MaxElements
	}
	if config.Validators == nil {
		config.Validators = validation.NewRegistry()
	}
	if config.Factory == nil {
		config.Factory = NewCollectionFactory()
	}
	if config.Logger == nil {
		config.Logger = log.New("modelbind")
	}
	return config
}
