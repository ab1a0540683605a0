// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: © 2017 LabStack and Echo contributors

package modelbind

import (
	"errors"
	"net/http"

	"github.com/labstack/echo-modelbind/modelstate"
	"github.com/labstack/echo-modelbind/valueprovider"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	key = "_modelbind"
)

type (
	// MiddlewareConfig defines the config for the model binding middleware.
	MiddlewareConfig struct {
		// Skipper defines a function to skip middleware.
		Skipper middleware.Skipper

		// Binder used for the request.
		// Default is New(DefaultConfig).
		Binder *Binder

		// DisableMetrics skips registering bind metrics.
		DisableMetrics bool

		// Namespace of the bind metrics.
		// Optional
		Namespace string

		// Subsystem of the bind metrics.
		// Defaults to: "modelbind"
		Subsystem string

		// Registerer sets the prometheus.Registerer instance the metrics are registered with.
		// Defaults to: prometheus.DefaultRegisterer
		Registerer prometheus.Registerer
	}

	// requestScope is stored in the echo context for the duration of a request.
	requestScope struct {
		binder         *Binder
		modelState     *modelstate.ModelState
		fromMiddleware bool
	}
)

var (
	// DefaultMiddlewareConfig is the default model binding middleware config.
	DefaultMiddlewareConfig = MiddlewareConfig{
		Skipper: middleware.DefaultSkipper,
	}
)

// Middleware returns a model binding middleware using a default Binder.
func Middleware() echo.MiddlewareFunc {
	return MiddlewareWithConfig(DefaultMiddlewareConfig)
}

// MiddlewareWithConfig returns a model binding middleware with config.
// See `Middleware()`.
func MiddlewareWithConfig(config MiddlewareConfig) echo.MiddlewareFunc {
	mw, err := config.ToMiddleware()
	if err != nil {
		panic(err)
	}
	return mw
}

// ToMiddleware converts configuration to middleware or returns an error.
func (config MiddlewareConfig) ToMiddleware() (echo.MiddlewareFunc, error) {
	if config.Skipper == nil {
		config.Skipper = DefaultMiddlewareConfig.Skipper
	}
	if config.Binder == nil {
		config.Binder = New(DefaultConfig)
	}
	binder := config.Binder
	if !config.DisableMetrics {
		m, err := NewMetrics(MetricsConfig{
			Namespace:  config.Namespace,
			Subsystem:  config.Subsystem,
			Registerer: config.Registerer,
		})
		if err != nil {
			return nil, err
		}
		binder = binder.WithMetrics(m)
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if config.Skipper(c) {
				return next(c)
			}
			c.Set(key, &requestScope{binder: binder, modelState: modelstate.New(), fromMiddleware: true})
			return next(c)
		}
	}, nil
}

// scope returns the request scope, creating one with a default Binder when the middleware
// is not installed.
func scope(c echo.Context) *requestScope {
	if s, ok := c.Get(key).(*requestScope); ok {
		return s
	}
	s := &requestScope{binder: New(DefaultConfig), modelState: modelstate.New()}
	c.Set(key, s)
	return s
}

// ModelStateFrom returns the model state accumulated by the current request.
func ModelStateFrom(c echo.Context) *modelstate.ModelState {
	return scope(c).modelState
}

// BinderFrom returns the Binder serving the current request.
func BinderFrom(c echo.Context) *Binder {
	return scope(c).binder
}

// BindCollectionFrom binds the collection under prefix from the request form body and
// query string. Entries are merged into the request model state.
func BindCollectionFrom(c echo.Context, prefix string, target interface{}) (*Result, error) {
	s := scope(c)
	vp, err := valueprovider.QueryAndForm(c)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, err.Error()).SetInternal(err)
	}
	res, err := s.binder.BindCollection(c.Request().Context(), prefix, target, vp)
	if res != nil {
		s.modelState.Merge(res.ModelState)
	}
	return res, err
}

// EchoBinder implements echo.Binder on top of the collection binder. The destination
// is either a collection, bound from the empty prefix, or a struct whose properties are
// top-level keys.
//
//	e.Binder = &modelbind.EchoBinder{}
type EchoBinder struct {
	// Binder used when the middleware is not installed.
	// Default is New(DefaultConfig).
	Binder *Binder
}

// Bind implements echo.Binder. Invalid values do not fail the bind, check
// ModelStateFrom(c).IsValid().
func (eb *EchoBinder) Bind(i interface{}, c echo.Context) error {
	s := scope(c)
	binder := s.binder
	if !s.fromMiddleware && eb.Binder != nil {
		binder = eb.Binder
	}

	vp, err := valueprovider.QueryAndForm(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error()).SetInternal(err)
	}
	res, err := binder.BindModel(c.Request().Context(), "", i, vp)
	if res != nil {
		s.modelState.Merge(res.ModelState)
	}
	if err != nil {
		var ce *ConfigurationError
		if errors.As(err, &ce) || errors.Is(err, ErrTargetNotPointer) {
			return err
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error()).SetInternal(err)
	}
	return nil
}
