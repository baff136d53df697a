// Package target resolves the base URL updates are sent to.
package target

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/open-teleop/rcdrive/pkg/config"
	"github.com/open-teleop/rcdrive/pkg/store"
)

// ErrNoURL means local mode is active but the operator has not saved a URL yet.
var ErrNoURL = errors.New("no vehicle url configured")

// Getter reads a value from the key-value store.
type Getter interface {
	Get(ctx context.Context, key string) (string, error)
}

// Environment describes where the driver runs. It replaces inline browser checks.
type Environment struct {
	// Local is true when there is no page origin to talk back to.
	Local  bool
	Mobile bool
	Origin Origin
}

// Origin is scheme://host[:port].
type Origin struct {
	Scheme string
	Host   string
	Port   int
}

func (o Origin) String() string {
	scheme := o.Scheme
	if scheme == "" {
		scheme = "http"
	}
	host := o.Host
	if o.Port != 0 {
		host += ":" + strconv.Itoa(o.Port)
	}
	return scheme + "://" + host
}

// EnvironmentFromConfig builds the Environment from the bootstrap target section.
func EnvironmentFromConfig(cfg config.TargetConfig) Environment {
	return Environment{
		Local:  cfg.Mode == config.TargetModeLocal,
		Mobile: cfg.Mobile,
		Origin: Origin{
			Scheme: cfg.Origin.Scheme,
			Host:   cfg.Origin.Host,
			Port:   cfg.Origin.Port,
		},
	}
}

// OriginResolver always answers the fixed origin.
type OriginResolver struct {
	Origin Origin
}

// Endpoint implements teleop.Resolver.
func (r OriginResolver) Endpoint(context.Context) (string, error) {
	if r.Origin.Host == "" {
		return "", fmt.Errorf("origin host is empty")
	}
	return r.Origin.String(), nil
}

// LocalResolver reads the operator URL from the store on every call, so a
// newly saved URL applies to the next update.
type LocalResolver struct {
	Store Getter
}

// Endpoint implements teleop.Resolver.
func (r LocalResolver) Endpoint(ctx context.Context) (string, error) {
	u, err := r.Store.Get(ctx, store.KeyURL)
	if errors.Is(err, store.ErrNotFound) || (err == nil && strings.TrimSpace(u) == "") {
		return "", ErrNoURL
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(u), nil
}

// Resolver is satisfied by both resolvers.
type Resolver interface {
	Endpoint(ctx context.Context) (string, error)
}

// NewResolver picks the resolver for env.
func NewResolver(env Environment, kv Getter) Resolver {
	if env.Local {
		return LocalResolver{Store: kv}
	}
	return OriginResolver{Origin: env.Origin}
}

// ValidateURL checks an operator-supplied base URL.
func ValidateURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("url is empty")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid url %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("invalid url %q: scheme must be http or https", raw)
	}
	if u.Host == "" {
		return "", fmt.Errorf("invalid url %q: missing host", raw)
	}
	return raw, nil
}
