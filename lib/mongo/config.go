package mongo

import (
	"crypto/tls"

	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/artie-labs/sifter/config"
)

func OptsFromConfig(cfg config.MongoDB) *options.ClientOptions {
	opts := options.Client().ApplyURI(cfg.Host)
	if cfg.Username != "" && cfg.Password != "" {
		opts = opts.SetAuth(options.Credential{
			Username: cfg.Username,
			Password: cfg.Password,
		})
	}

	if !cfg.DisableTLS {
		opts = opts.SetTLSConfig(&tls.Config{})
	}

	return opts
}
