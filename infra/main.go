package main

import (
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi/config"

	"github.com/GregMSThompson/agent-dashboard/infra/cloudrun"
	"github.com/GregMSThompson/agent-dashboard/infra/docker"
	"github.com/GregMSThompson/agent-dashboard/infra/firestore"
	"github.com/GregMSThompson/agent-dashboard/infra/identity"
	"github.com/GregMSThompson/agent-dashboard/infra/kms"
	"github.com/GregMSThompson/agent-dashboard/infra/provider"
	"github.com/GregMSThompson/agent-dashboard/infra/secret"
	"github.com/GregMSThompson/agent-dashboard/infra/vertex"
)

func main() {
	pulumi.Run(func(ctx *pulumi.Context) error {
		appCfg := config.New(ctx, "app")

		// set default provider with the correct project
		prov, err := provider.SetupDefaultProvider(ctx)
		if err != nil {
			return err
		}

		// firebase sign-in is only needed when user tokens are checked
		deps := []pulumi.Resource{}
		if appCfg.Get("authMode") == "firebase" {
			ident, err := identity.SetupIdentity(ctx, prov)
			if err != nil {
				return err
			}
			deps = append(deps, ident)
		}

		// firestore holds the property cache
		fs, err := firestore.SetupFirestore(ctx, prov)
		if err != nil {
			return err
		}
		deps = append(deps, fs)

		// create docker repo
		repo, err := docker.CreateCloudrunRepo(ctx, prov)
		if err != nil {
			return err
		}
		deps = append(deps, repo)

		// render key encryption
		kmsSvc, err := kms.SetupKMS(ctx, prov)
		if err != nil {
			return err
		}
		key, err := kms.CreateKey(ctx, prov, "agent-dashboard", "render-key")
		if err != nil {
			return err
		}
		deps = append(deps, kmsSvc)

		apiSA, err := cloudrun.CreateServiceAccount(ctx, prov)
		if err != nil {
			return err
		}

		if err := kms.GrantDecrypt(ctx, prov, key, apiSA); err != nil {
			return err
		}
		smSvc, err := secret.SetupSecretManager(ctx, prov, apiSA)
		if err != nil {
			return err
		}
		deps = append(deps, smSvc)

		if appCfg.Get("agentBackend") == "vertex" {
			vx, err := vertex.SetupVertex(ctx, prov, apiSA)
			if err != nil {
				return err
			}
			deps = append(deps, vx)
		}

		url, err := cloudrun.SetupCloudRun(ctx, prov, apiSA, key, deps...)
		if err != nil {
			return err
		}
		ctx.Export("serviceUrl", url)
		ctx.Export("renderKeyName", key)
		return nil
	})
}
