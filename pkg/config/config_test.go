package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func write(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestDefault(t *testing.T) {
	c := Default()
	require.NoError(t, c.Validate())
	assert.Equal(t, "s3a://udacity-dend/", c.Input)
	assert.Equal(t, "s3a://output-data-lake/", c.Output)
	assert.Equal(t, "song_data/*/*/*/*.json", c.SongGlob)
	assert.Equal(t, "log_data/*/*/*.json", c.LogGlob)
	assert.Equal(t, "dl.cfg", c.Credentials)
}

func TestLoadTOML(t *testing.T) {
	p := write(t, "job.toml", `
input = "/data/in"
output = "/data/out"
malformed = "skip"
preview = 5

[storage]
driver = "minio"
endpoint = "localhost:9000"

[log]
level = "debug"
`)
	c, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, "/data/in", c.Input)
	assert.Equal(t, "/data/out", c.Output)
	assert.Equal(t, "skip", c.Malformed)
	assert.Equal(t, 5, c.Preview)
	assert.Equal(t, DriverMinio, c.Storage.Driver)
	assert.Equal(t, "debug", c.Log.Level)
	assert.Equal(t, "log_data/*/*/*.json", c.LogGlob)
	assert.Equal(t, "console", c.Log.Encoding)
}

func TestLoadYAML(t *testing.T) {
	p := write(t, "job.yml", "output: s3://bucket/lake/\nsong_glob: songs/*.json\nlog:\n  encoding: json\n")
	c, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, "s3://bucket/lake/", c.Output)
	assert.Equal(t, "songs/*.json", c.SongGlob)
	assert.Equal(t, "json", c.Log.Encoding)
	assert.Equal(t, "s3a://udacity-dend/", c.Input)
}

func TestLoadJSON(t *testing.T) {
	p := write(t, "job.json", `{"input": "file:///tmp/in", "storage": {"region": "eu-west-1"}}`)
	c, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, "file:///tmp/in", c.Input)
	assert.Equal(t, "eu-west-1", c.Storage.Region)
	assert.Equal(t, DriverS3, c.Storage.Driver)
}

func TestLoadInvalid(t *testing.T) {
	cases := map[string]string{
		"bad.json":    `{"input": `,
		"policy.json": `{"malformed": "ignore"}`,
		"minio.json":  `{"storage": {"driver": "minio"}}`,
		"driver.json": `{"storage": {"driver": "gcs"}}`,
		"empty.json":  `{"output": ""}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(write(t, name, body))
			assert.Error(t, err)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
