package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DrSkyle/stackmint/pkg/engine"
)

const bucketTemplate = `Resources:
  Reports:
    Type: AWS::S3::Bucket
    Properties:
      BucketName: %s
`

func writeTemplate(t *testing.T, dir, name, bucket string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(fmt.Sprintf(bucketTemplate, bucket)), 0644))
	return path
}

func TestSynthManyWritesOnePolicyPerTemplate(t *testing.T) {
	dir := t.TempDir()
	outDir := filepath.Join(dir, "policies")
	paths := []string{
		writeTemplate(t, dir, "alpha.yaml", "alpha-bucket"),
		writeTemplate(t, dir, "beta.yaml", "beta-bucket"),
		writeTemplate(t, dir, "gamma.yaml", "gamma-bucket"),
	}

	require.NoError(t, synthMany(context.Background(), paths, engine.Options{}, outDir, 3))

	for _, name := range []string{"alpha.policy.json", "beta.policy.json", "gamma.policy.json"} {
		data, err := os.ReadFile(filepath.Join(outDir, name))
		require.NoError(t, err)
		var doc struct {
			Version   string
			Statement []json.RawMessage
		}
		require.NoError(t, json.Unmarshal(data, &doc))
		assert.Equal(t, "2012-10-17", doc.Version)
		assert.NotEmpty(t, doc.Statement)
	}
}

func TestSynthManyReportsFailures(t *testing.T) {
	dir := t.TempDir()
	outDir := filepath.Join(dir, "out")
	paths := []string{
		writeTemplate(t, dir, "ok.yaml", "ok-bucket"),
		filepath.Join(dir, "missing.yaml"),
	}

	err := synthMany(context.Background(), paths, engine.Options{}, outDir, 2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2")

	// Surviving templates still produce their policies.
	_, statErr := os.Stat(filepath.Join(outDir, "ok.policy.json"))
	assert.NoError(t, statErr)
}

func TestPolicyFileName(t *testing.T) {
	assert.Equal(t, "stack.policy.json", policyFileName("deploy/stack.yaml"))
	assert.Equal(t, "stack.policy.json", policyFileName("stack.json"))
}
