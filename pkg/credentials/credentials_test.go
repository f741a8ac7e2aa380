package credentials

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestLoad(t *testing.T) {
	p := writeFile(t, "dl.cfg", "[AWS]\nAWS_ACCESS_KEY_ID=AKIAEXAMPLE\nAWS_SECRET_ACCESS_KEY = s3cr3t\n")
	before := os.Getenv(KeyAccessKeyID)

	a, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, "AKIAEXAMPLE", a.AccessKeyID)
	assert.Equal(t, "s3cr3t", a.SecretAccessKey)
	assert.Empty(t, a.SessionToken)
	assert.False(t, a.Empty())
	assert.Equal(t, before, os.Getenv(KeyAccessKeyID))
}

func TestLoadCaseInsensitive(t *testing.T) {
	p := writeFile(t, "dl.cfg", "[aws]\naws_access_key_id=id\naws_secret_access_key=secret\naws_region=us-west-2\n")
	a, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, "id", a.AccessKeyID)
	assert.Equal(t, "us-west-2", a.Region)
}

func TestLoadMissing(t *testing.T) {
	p := writeFile(t, "dl.cfg", "[AWS]\nAWS_ACCESS_KEY_ID=id\n")
	_, err := Load(p)
	require.ErrorIs(t, err, ErrMissingKey)
	assert.Contains(t, err.Error(), KeySecretAccessKey)

	p = writeFile(t, "other.cfg", "[default]\nfoo=bar\n")
	_, err = Load(p)
	require.ErrorIs(t, err, ErrMissingKey)

	_, err = Load(filepath.Join(t.TempDir(), "absent.cfg"))
	require.Error(t, err)
}

func TestFromEnvFile(t *testing.T) {
	p := writeFile(t, ".env", "AWS_ACCESS_KEY_ID=id\nAWS_SECRET_ACCESS_KEY=secret\nAWS_SESSION_TOKEN=tok\n")
	a, err := FromEnvFile(p)
	require.NoError(t, err)
	assert.Equal(t, AWS{AccessKeyID: "id", SecretAccessKey: "secret", SessionToken: "tok"}, a)
	_, set := os.LookupEnv("AWS_SESSION_TOKEN")
	assert.False(t, set && os.Getenv("AWS_SESSION_TOKEN") == "tok")
}

func TestStringMasksSecret(t *testing.T) {
	a := AWS{AccessKeyID: "AKIAEXAMPLE", SecretAccessKey: "s3cr3t"}
	assert.NotContains(t, a.String(), "s3cr3t")
	assert.Contains(t, a.String(), "MPLE")
	assert.Equal(t, "AWS{default chain}", AWS{}.String())
}
