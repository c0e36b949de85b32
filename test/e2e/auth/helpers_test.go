package auth_test

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/harborbank/tellerauth/pkg/authsdk"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

/*
 * Common constants and helper functions for auth service end-to-end tests.
 * This includes container setup, service operations, and assertions.
 */

const (
	testImageName = "tellerauth-test:latest"

	testJWTSecret = "e2e-test-signing-secret"
	testIssuer    = "tellerauth-test"

	testPassword = "Sup3rS3cret!"
)

// TestMain manages the test lifecycle, builds the Docker image once before
// all tests and cleans it up after all tests complete.
func TestMain(m *testing.M) {
	fmt.Fprintf(os.Stdout, "Building auth service Docker image...")

	if err := buildDockerImage(); err != nil {
		fmt.Fprintf(os.Stderr, "\nFailed to build Docker image: %v\n", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stdout, " done\n")

	exitCode := m.Run()

	fmt.Fprintf(os.Stdout, "Cleaning up auth service Docker image...")
	cleanupDockerImage()
	fmt.Fprintf(os.Stdout, " done\n")

	os.Exit(exitCode)
}

func buildDockerImage() error {
	ctx := context.Background()
	cmd := exec.CommandContext(ctx, "docker", "build",
		"-t", testImageName,
		"-f", "../../../cmd/auth/Dockerfile",
		"../../../")
	cmd.Dir = "."
	cmd.Stdout = os.Stdout
	cmd.Stderr = nil

	return cmd.Run()
}

func cleanupDockerImage() {
	ctx := context.Background()
	cmd := exec.CommandContext(ctx, "docker", "rmi", "-f", testImageName)
	_ = cmd.Run() // Ignore errors - image might not exist
}

// setupAuthContainer starts the auth service in a container and returns the
// base URL. Rate limits are raised so rapid test requests don't trip them;
// the rate limit test launches its own container with production defaults.
func setupAuthContainer(t *testing.T) (string, func()) {
	t.Helper()
	_, baseURL, cleanup := startContainer(t, map[string]string{
		"RATELIMIT_STRICT_REQUESTS":   "1000",
		"RATELIMIT_STRICT_WINDOW_SEC": "60",
		"RATELIMIT_STRICT_BURST":      "1000",
		"RATELIMIT_MODERATE_REQUESTS": "1000",
		"RATELIMIT_MODERATE_BURST":    "1000",
	})
	return baseURL, cleanup
}

// setupAuthContainerWithDefaultRateLimits starts the auth service with the
// production rate limits, for testing that limiting actually works.
func setupAuthContainerWithDefaultRateLimits(t *testing.T) (string, func()) {
	t.Helper()
	_, baseURL, cleanup := startContainer(t, nil)
	return baseURL, cleanup
}

func startContainer(t *testing.T, extraEnv map[string]string) (testcontainers.Container, string, func()) {
	t.Helper()
	ctx := context.Background()

	env := map[string]string{
		"AUTH_JWT_SECRET":    testJWTSecret,
		"AUTH_ISSUER":        testIssuer,
		"AUTH_DATABASE_FILE": "/tmp/auth.db",
		"AUTH_PEPPER_FILE":   "/tmp/pepper",
		"ENV":                "dev",
		"LOG_LEVEL":          "info",
		"LOG_FORMAT":         "json",
	}
	for k, v := range extraEnv {
		env[k] = v
	}

	req := testcontainers.ContainerRequest{
		Image:        testImageName,
		ExposedPorts: []string{"8080/tcp"},
		Env:          env,
		WaitingFor: wait.ForHTTP("/livez").
			WithPort("8080/tcp").
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	mappedPort, err := container.MappedPort(ctx, "8080")
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)

	baseURL := fmt.Sprintf("http://%s:%s", host, mappedPort.Port())

	cleanup := func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	}

	return container, baseURL, cleanup
}

// registerUser creates a fresh account and returns a client holding the
// session token issued at registration.
func registerUser(t *testing.T, baseURL, email string) *authsdk.Client {
	t.Helper()

	client := authsdk.NewClient(baseURL)
	resp, err := client.Register(t.Context(), authsdk.RegisterRequest{
		Email:     email,
		Password:  testPassword,
		FirstName: "Test",
		LastName:  "User",
	})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Token)
	require.Equal(t, email, resp.User.Email)

	return client
}

// loginUser registers and logs in, returning a client with a session token.
func loginUser(t *testing.T, baseURL, email string) *authsdk.Client {
	t.Helper()

	client := registerUser(t, baseURL, email)
	resp, err := client.Login(t.Context(), email, testPassword)
	require.NoError(t, err)
	require.NotEmpty(t, resp.Token)

	return client
}
