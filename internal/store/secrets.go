package store

import (
	"context"
	"fmt"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/GregMSThompson/agent-dashboard/internal/errs"
)

// Well-known secret names.
const (
	SecretAgentWebhookURL      = "agent-webhook-url"
	SecretPropertiesWebhookURL = "properties-webhook-url"
	SecretRenderKey            = "render-key"
)

// Secrets path
// projects/{project}/secrets/agent-dashboard-{name}/versions/{version}

type secretStore struct {
	client    *secretmanager.Client
	projectID string
	prefix    string
}

func NewSecretStore(client *secretmanager.Client, projectID string) *secretStore {
	return &secretStore{
		client:    client,
		projectID: projectID,
		prefix:    "agent-dashboard",
	}
}

func (s *secretStore) secretID(name string) string {
	return fmt.Sprintf("%s-%s", s.prefix, name)
}

func (s *secretStore) secretName(name string) string {
	return fmt.Sprintf("projects/%s/secrets/%s", s.projectID, s.secretID(name))
}

func (s *secretStore) ensureSecret(ctx context.Context, name string) error {
	_, err := s.client.GetSecret(ctx, &secretmanagerpb.GetSecretRequest{Name: s.secretName(name)})
	if status.Code(err) == codes.NotFound {
		_, err = s.client.CreateSecret(ctx, &secretmanagerpb.CreateSecretRequest{
			Parent:   fmt.Sprintf("projects/%s", s.projectID),
			SecretId: s.secretID(name),
			Secret: &secretmanagerpb.Secret{
				Replication: &secretmanagerpb.Replication{
					Replication: &secretmanagerpb.Replication_Automatic_{Automatic: &secretmanagerpb.Replication_Automatic{}},
				},
			},
		})
	}
	return err
}

// Put stores value as the newest version of the named secret, creating the
// secret on first use.
func (s *secretStore) Put(ctx context.Context, name, value string) error {
	if err := s.ensureSecret(ctx, name); err != nil {
		return errs.NewExternalServiceError("secretmanager", "failed to create secret", false, err)
	}
	_, err := s.client.AddSecretVersion(ctx, &secretmanagerpb.AddSecretVersionRequest{
		Parent: s.secretName(name),
		Payload: &secretmanagerpb.SecretPayload{
			Data: []byte(value),
		},
	})
	if err != nil {
		return errs.NewExternalServiceError("secretmanager", "failed to add secret version", false, err)
	}
	return nil
}

func (s *secretStore) Get(ctx context.Context, name string) (string, error) {
	res, err := s.client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: fmt.Sprintf("%s/versions/latest", s.secretName(name)),
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return "", errs.NewNotFoundError("secret not found: " + name)
		}
		return "", errs.NewExternalServiceError("secretmanager", "failed to access secret", status.Code(err) == codes.Unavailable, err)
	}
	return string(res.Payload.Data), nil
}

func (s *secretStore) Delete(ctx context.Context, name string) error {
	err := s.client.DeleteSecret(ctx, &secretmanagerpb.DeleteSecretRequest{
		Name: s.secretName(name),
	})
	if err != nil && status.Code(err) != codes.NotFound {
		return errs.NewExternalServiceError("secretmanager", "failed to delete secret", false, err)
	}
	return nil
}
