package config

import (
	"context"
	"fmt"
	"strings"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
)

// ResolveSecrets replaces the JWT secret with the value stored in Secret
// Manager when running in production with GCP_PROJECT and JWT_SECRET_NAME set.
// Other environments keep the env-provided secret.
func (c *Config) ResolveSecrets(ctx context.Context) error {
	if !c.IsProduction() || c.GCPProject == "" || c.JWTSecretName == "" {
		return nil
	}

	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return fmt.Errorf("creating secret manager client: %w", err)
	}
	defer client.Close()

	name := secretVersionName(c.GCPProject, c.JWTSecretName)
	result, err := client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: name,
	})
	if err != nil {
		return fmt.Errorf("accessing secret %s: %w", name, err)
	}

	secret := strings.TrimSpace(string(result.Payload.Data))
	if secret == "" {
		return fmt.Errorf("secret %s is empty", name)
	}
	c.JWTSecret = secret
	return nil
}

// secretVersionName accepts a bare secret id or a full resource name.
func secretVersionName(project, secret string) string {
	if strings.HasPrefix(secret, "projects/") {
		if strings.Contains(secret, "/versions/") {
			return secret
		}
		return secret + "/versions/latest"
	}
	return fmt.Sprintf("projects/%s/secrets/%s/versions/latest", project, secret)
}
