package raps

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildArgs_Auth(t *testing.T) {
	args := BuildArgs(AuthCommand(AuthStatus), true)
	assert.Equal(t, []string{"auth", "status", "--non-interactive", "--output", "json"}, args)
}

func TestBuildArgs_BucketCreate(t *testing.T) {
	cmd := BucketCommand(BucketCreate, "test-bucket", map[string]any{
		"retention_policy": "transient",
		"region":           "US",
	})
	args := BuildArgs(cmd, true)
	assert.Equal(t, []string{
		"bucket", "create",
		"--key", "test-bucket",
		"--policy", "transient",
		"--region", "US",
		"--non-interactive",
		"--output", "json",
	}, args)
}

func TestBuildArgs_BucketDeleteForce(t *testing.T) {
	cmd := BucketCommand(BucketDelete, "test-bucket", map[string]any{"force": true})
	args := BuildArgs(cmd, false)
	assert.Equal(t, []string{"bucket", "delete", "--key", "test-bucket", "--yes", "--non-interactive"}, args)
}

func TestBuildArgs_ObjectUpload(t *testing.T) {
	cmd := ObjectCommand(ObjectUpload, "test-bucket", map[string]any{
		"object_key": "test-file.dwg",
		"file_path":  "/path/to/file.dwg",
	})
	args := BuildArgs(cmd, true)
	assert.Equal(t, []string{
		"object", "upload", "test-bucket", "/path/to/file.dwg",
		"--key", "test-file.dwg",
		"--non-interactive",
		"--output", "json",
	}, args)
}

func TestBuildArgs_TranslateStart(t *testing.T) {
	cmd := TranslateCommand(TranslateStart, map[string]any{
		"urn":    "test-urn",
		"format": "svf2",
		"wait":   true,
	})
	args := BuildArgs(cmd, true)
	assert.Equal(t, []string{
		"translate", "start", "test-urn",
		"--format", "svf2",
		"--wait",
		"--non-interactive",
		"--output", "json",
	}, args)
}

func TestBuildArgs_Custom(t *testing.T) {
	cmd := CustomCommand("custom-command", "arg1", "arg2")
	args := BuildArgs(cmd, false)
	assert.Equal(t, []string{"custom-command", "arg1", "arg2", "--non-interactive"}, args)
}

func TestBuildArgs_Deterministic(t *testing.T) {
	cmd := BucketCommand(BucketCreate, "b", map[string]any{"region": "US"})
	a1 := BuildArgs(cmd, true)
	a2 := BuildArgs(cmd, true)
	assert.Equal(t, a1, a2)
}
