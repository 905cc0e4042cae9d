package bootstrap

import (
	"context"
	"errors"

	"github.com/GregMSThompson/agent-dashboard/internal/config"
	"github.com/GregMSThompson/agent-dashboard/internal/crypto"
	"github.com/GregMSThompson/agent-dashboard/internal/errs"
	"github.com/GregMSThompson/agent-dashboard/internal/store"
	"github.com/GregMSThompson/agent-dashboard/pkg/logger"
)

type secretGetter interface {
	Get(ctx context.Context, name string) (string, error)
}

type renderKeyOpener interface {
	OpenRenderKey(ctx context.Context, ciphertext string) (string, error)
}

// ResolveSecrets resolves secrets through whichever of Secret Manager and KMS
// were opened by Run.
func (bs *Bootstrap) ResolveSecrets(ctx context.Context, cfg *config.Config) error {
	var secrets secretGetter
	if bs.SecretManager != nil {
		secrets = store.NewSecretStore(bs.SecretManager, cfg.ProjectID)
	}
	var opener renderKeyOpener
	if bs.KMS != nil {
		opener = crypto.NewKMS(bs.KMS, cfg.KMSKeyName)
	}
	return ResolveSecrets(ctx, cfg, secrets, opener)
}

// ResolveSecrets fills the webhook URLs and the render key from Secret Manager
// and KMS. Either source may be nil. A secret that does not exist keeps the
// environment value; a ciphertext always wins over a plain RENDERKEY.
func ResolveSecrets(ctx context.Context, cfg *config.Config, secrets secretGetter, opener renderKeyOpener) error {
	log := logger.FromContext(ctx)

	if secrets != nil {
		targets := []struct {
			name string
			dst  *string
		}{
			{store.SecretAgentWebhookURL, &cfg.AgentWebhookURL},
			{store.SecretPropertiesWebhookURL, &cfg.PropertiesWebhookURL},
			{store.SecretRenderKey, &cfg.RenderKey},
		}
		for _, t := range targets {
			v, err := secrets.Get(ctx, t.name)
			var nf *errs.NotFoundError
			if errors.As(err, &nf) {
				log.Info("secret not set, keeping environment value", "secret", t.name)
				continue
			}
			if err != nil {
				return err
			}
			*t.dst = v
		}
	}

	if cfg.RenderKeyCiphertext != "" {
		if opener == nil {
			return errs.NewValidationError("render key ciphertext set but no KMS client")
		}
		key, err := opener.OpenRenderKey(ctx, cfg.RenderKeyCiphertext)
		if err != nil {
			return err
		}
		cfg.RenderKey = key
	}
	return nil
}
