package crypto

import (
	"context"
	"encoding/base64"
	"strings"

	"cloud.google.com/go/kms/apiv1/kmspb"
	"github.com/googleapis/gax-go/v2"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/GregMSThompson/agent-dashboard/internal/errs"
)

// renderKeyAAD is the additional authenticated data for sealed render keys.
var renderKeyAAD = []byte("agent-dashboard/render-key")

type keyManager interface {
	Encrypt(ctx context.Context, req *kmspb.EncryptRequest, opts ...gax.CallOption) (*kmspb.EncryptResponse, error)
	Decrypt(ctx context.Context, req *kmspb.DecryptRequest, opts ...gax.CallOption) (*kmspb.DecryptResponse, error)
}

type KMS struct {
	client  keyManager
	keyName string
}

func NewKMS(client keyManager, keyName string) *KMS {
	return &KMS{client: client, keyName: keyName}
}

// SealRenderKey encrypts a render key with the configured key and returns base64 text.
func (k *KMS) SealRenderKey(ctx context.Context, plaintext string) (string, error) {
	if strings.TrimSpace(plaintext) == "" {
		return "", errs.NewValidationError("render key is empty")
	}
	resp, err := k.client.Encrypt(ctx, &kmspb.EncryptRequest{
		Name:                        k.keyName,
		Plaintext:                   []byte(plaintext),
		AdditionalAuthenticatedData: renderKeyAAD,
	})
	if err != nil {
		return "", kmsError("encrypt failed", err)
	}
	return base64.StdEncoding.EncodeToString(resp.Ciphertext), nil
}

// OpenRenderKey decrypts base64 ciphertext produced by SealRenderKey.
func (k *KMS) OpenRenderKey(ctx context.Context, ciphertext string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(ciphertext))
	if err != nil {
		return "", errs.NewValidationError("render key ciphertext is not base64")
	}
	resp, err := k.client.Decrypt(ctx, &kmspb.DecryptRequest{
		Name:                        k.keyName,
		Ciphertext:                  raw,
		AdditionalAuthenticatedData: renderKeyAAD,
	})
	if err != nil {
		return "", kmsError("decrypt failed", err)
	}
	return string(resp.Plaintext), nil
}

func kmsError(msg string, err error) error {
	transient := status.Code(err) == codes.Unavailable || status.Code(err) == codes.DeadlineExceeded
	return errs.NewExternalServiceError("kms", msg, transient, err)
}
