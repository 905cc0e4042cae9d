package bootstrap

import (
	"context"
	"log/slog"

	"cloud.google.com/go/firestore"
	gcpkms "cloud.google.com/go/kms/apiv1"
	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"firebase.google.com/go/v4/auth"

	vertexclient "github.com/GregMSThompson/agent-dashboard/internal/client/vertex"
	"github.com/GregMSThompson/agent-dashboard/internal/config"
	"github.com/GregMSThompson/agent-dashboard/pkg/logger"
)

// Bootstrap holds the process-wide clients. Clients for backends the config
// does not select stay nil.
type Bootstrap struct {
	Log           *slog.Logger
	Firestore     *firestore.Client
	Firebase      *auth.Client
	KMS           *gcpkms.KeyManagementClient
	SecretManager *secretmanager.Client
	VertexAdapter *vertexclient.Adapter
}

func Run(cfg *config.Config) (*Bootstrap, error) {
	var err error
	applicationCtx := context.Background()
	bs := new(Bootstrap)

	bs.Log = logger.New(cfg.LogLevel, logger.NewCloudRunHandler)
	slog.SetDefault(bs.Log)

	if cfg.PropertiesBackend == config.PropertiesBackendFirestore {
		bs.Firestore, err = InitFirestore(applicationCtx, cfg.ProjectID)
		if err != nil {
			return bs, err
		}
	}
	if cfg.AuthMode == config.AuthModeFirebase {
		bs.Firebase, err = InitFirebase(applicationCtx, cfg.ProjectID)
		if err != nil {
			return bs, err
		}
	}
	if cfg.RenderKeyCiphertext != "" {
		bs.KMS, err = InitKMS(applicationCtx)
		if err != nil {
			return bs, err
		}
	}
	if cfg.SecretSource == config.SecretSourceSecretManager {
		bs.SecretManager, err = InitSecretManager(applicationCtx)
		if err != nil {
			return bs, err
		}
	}
	if cfg.AgentBackend == config.AgentBackendVertex {
		bs.VertexAdapter, err = vertexclient.NewAdapter(applicationCtx, bs.Log, cfg.ProjectID, cfg.Region, cfg.VertexModel)
		if err != nil {
			return bs, err
		}
	}

	bs.Log.Info("bootstrap complete",
		"agent_backend", cfg.AgentBackend,
		"properties_backend", cfg.PropertiesBackend,
		"auth_mode", cfg.AuthMode,
		"secret_source", cfg.SecretSource)
	return bs, nil
}

// Close releases every client that was opened.
func (bs *Bootstrap) Close() {
	if bs == nil {
		return
	}
	closers := map[string]func() error{}
	if bs.Firestore != nil {
		closers["firestore"] = bs.Firestore.Close
	}
	if bs.KMS != nil {
		closers["kms"] = bs.KMS.Close
	}
	if bs.SecretManager != nil {
		closers["secretmanager"] = bs.SecretManager.Close
	}
	if bs.VertexAdapter != nil {
		closers["vertex"] = bs.VertexAdapter.Close
	}
	for name, closeFn := range closers {
		if err := closeFn(); err != nil && bs.Log != nil {
			bs.Log.Warn("client close failed", "client", name, "error", err)
		}
	}
}
