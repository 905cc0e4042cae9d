package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/GregMSThompson/agent-dashboard/internal/bootstrap"
	"github.com/GregMSThompson/agent-dashboard/internal/store"
)

var secretProject string

var secretNames = []string{
	store.SecretAgentWebhookURL,
	store.SecretPropertiesWebhookURL,
	store.SecretRenderKey,
}

var secretCmd = &cobra.Command{
	Use:   "secret",
	Short: "Manage deployment secrets in Secret Manager",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

var secretSetCmd = &cobra.Command{
	Use:   "set <name> <value|->",
	Short: "Store a new version of a secret",
	Args:  cobra.ExactArgs(2),
	RunE:  runSecretSet,
}

var secretDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a secret and all its versions",
	Args:  cobra.ExactArgs(1),
	RunE:  runSecretDelete,
}

func init() {
	secretCmd.PersistentFlags().StringVar(&secretProject, "project", "", "GCP project id (defaults to PROJECTID)")
	secretCmd.AddCommand(secretSetCmd)
	secretCmd.AddCommand(secretDeleteCmd)
}

func runSecretSet(cmd *cobra.Command, args []string) error {
	if err := checkSecretName(args[0]); err != nil {
		return err
	}
	value, err := readSecretArg(cmd, args[1])
	if err != nil {
		return err
	}
	return withSecretStore(func(ctx context.Context, s secretWriter) error {
		if err := s.Put(ctx, args[0], value); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "stored %s\n", args[0])
		return nil
	})
}

func runSecretDelete(cmd *cobra.Command, args []string) error {
	if err := checkSecretName(args[0]); err != nil {
		return err
	}
	return withSecretStore(func(ctx context.Context, s secretWriter) error {
		if err := s.Delete(ctx, args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
		return nil
	})
}

type secretWriter interface {
	Put(ctx context.Context, name, value string) error
	Delete(ctx context.Context, name string) error
}

func withSecretStore(fn func(ctx context.Context, s secretWriter) error) error {
	project := firstNonEmptyEnv(secretProject, "PROJECTID")
	if project == "" {
		return fmt.Errorf("--project or PROJECTID is required")
	}
	ctx := context.Background()
	client, err := bootstrap.InitSecretManager(ctx)
	if err != nil {
		return err
	}
	defer client.Close()
	return fn(ctx, store.NewSecretStore(client, project))
}

func checkSecretName(name string) error {
	for _, n := range secretNames {
		if n == name {
			return nil
		}
	}
	return fmt.Errorf("unknown secret %q, expected one of %v", name, secretNames)
}

func firstNonEmptyEnv(value, env string) string {
	if value != "" {
		return value
	}
	return os.Getenv(env)
}
