package ngrok

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	ngrok "golang.ngrok.com/ngrok"
	"golang.ngrok.com/ngrok/config"

	bafcfg "github.com/frikadellen/baf/internal/config"
)

type Options struct {
	LocalAddr     string
	Authtoken     string
	Region        string
	Domain        string
	BasicAuthUser string
	BasicAuthPass string
}

// OptionsFrom points the tunnel at the local status server.
func OptionsFrom(cfg *bafcfg.BafCfg) Options {
	return Options{
		LocalAddr:     fmt.Sprintf("http://127.0.0.1:%d", cfg.Server.Port),
		Authtoken:     cfg.Ngrok.Authtoken,
		Region:        cfg.Ngrok.Region,
		Domain:        cfg.Ngrok.Domain,
		BasicAuthUser: cfg.Ngrok.BasicAuthUser,
		BasicAuthPass: cfg.Ngrok.BasicAuthPass,
	}
}

// Validate rejects tunnels without credentials, the status server accepts commands.
func (o Options) Validate() error {
	if o.LocalAddr == "" {
		return errors.New("ngrok local address is required")
	}
	if o.BasicAuthUser == "" || o.BasicAuthPass == "" {
		return errors.New("ngrok basic auth user and password are required")
	}
	return nil
}

type Tunnel struct {
	forwarder ngrok.Forwarder
}

func Start(ctx context.Context, opts Options) (*Tunnel, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	backend, err := url.Parse(opts.LocalAddr)
	if err != nil {
		return nil, err
	}

	httpOpts := []config.HTTPEndpointOption{config.WithBasicAuth(opts.BasicAuthUser, opts.BasicAuthPass)}
	if opts.Domain != "" {
		httpOpts = append(httpOpts, config.WithDomain(opts.Domain))
	}

	connectOpts := make([]ngrok.ConnectOption, 0, 2)
	if opts.Authtoken != "" {
		connectOpts = append(connectOpts, ngrok.WithAuthtoken(opts.Authtoken))
	} else if os.Getenv("NGROK_AUTHTOKEN") != "" {
		connectOpts = append(connectOpts, ngrok.WithAuthtokenFromEnv())
	}
	if opts.Region != "" {
		connectOpts = append(connectOpts, ngrok.WithRegion(opts.Region))
	}

	fwd, err := ngrok.ListenAndForward(ctx, backend, config.HTTPEndpoint(httpOpts...), connectOpts...)
	if err != nil {
		return nil, err
	}

	return &Tunnel{forwarder: fwd}, nil
}

func (t *Tunnel) URL() string {
	if t == nil || t.forwarder == nil {
		return ""
	}
	return t.forwarder.URL()
}

func (t *Tunnel) Close() error {
	if t == nil || t.forwarder == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return t.forwarder.CloseWithContext(ctx)
}
