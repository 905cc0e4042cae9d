package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/GregMSThompson/agent-dashboard/internal/bootstrap"
	"github.com/GregMSThompson/agent-dashboard/internal/crypto"
)

var sealKeyName string

var sealKeyCmd = &cobra.Command{
	Use:   "seal-key <render-key|->",
	Short: "Encrypt a render key with Cloud KMS",
	Long:  "Encrypt a render key for RENDERKEYCIPHERTEXT. The server decrypts it at startup with the same KMS key.",
	Args:  cobra.ExactArgs(1),
	RunE:  runSealKey,
}

func init() {
	sealKeyCmd.Flags().StringVar(&sealKeyName, "kms-key", "", "KMS crypto key resource name (defaults to KMSKEYNAME)")
}

func runSealKey(cmd *cobra.Command, args []string) error {
	keyName := firstNonEmptyEnv(sealKeyName, "KMSKEYNAME")
	if keyName == "" {
		return fmt.Errorf("--kms-key or KMSKEYNAME is required")
	}
	plain, err := readSecretArg(cmd, args[0])
	if err != nil {
		return err
	}

	ctx := context.Background()
	client, err := bootstrap.InitKMS(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	sealed, err := crypto.NewKMS(client, keyName).SealRenderKey(ctx, plain)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), sealed)
	return nil
}

// readSecretArg returns the literal argument, or the trimmed stdin for "-".
func readSecretArg(cmd *cobra.Command, arg string) (string, error) {
	if arg != "-" {
		return arg, nil
	}
	b, err := readInput(cmd, arg)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}
