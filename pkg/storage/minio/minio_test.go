package minio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wdm0006/sparkify/pkg/logger"
)

func TestNew(t *testing.T) {
	_, err := New("lake", Options{}, logger.NewNop())
	assert.Error(t, err)

	log := logger.NewTestLogger()
	st, err := New("lake", Options{Endpoint: "localhost:9000", AccessKeyID: "id", SecretAccessKey: "secret"}, log)
	require.NoError(t, err)
	assert.Equal(t, "lake", st.bucket)
	assert.Equal(t, 1, log.Count("DEBUG"))
}
