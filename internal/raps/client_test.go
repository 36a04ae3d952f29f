package raps

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewResult_Success(t *testing.T) {
	r := newResult(0, `{"urn":"u-123"}`, "", time.Second)
	require.True(t, r.Success)
	assert.Equal(t, "u-123", r.ParsedJSON["urn"])
	assert.Empty(t, r.ErrorMessage())
}

func TestNewResult_Failure(t *testing.T) {
	r := newResult(1, "", "boom", time.Second)
	assert.False(t, r.Success)
	assert.Nil(t, r.ParsedJSON)
	assert.Contains(t, r.ErrorMessage(), "boom")
}

func TestNewResult_UnparsableJSONIsNotAnError(t *testing.T) {
	r := newResult(0, "not json", "", time.Second)
	assert.True(t, r.Success)
	assert.Nil(t, r.ParsedJSON)
}

func TestClient_Execute_SpawnFailure(t *testing.T) {
	c := NewClient(Config{BinaryPath: "raps-binary-that-does-not-exist-anywhere"})
	_, err := c.Execute(context.Background(), CustomCommand("--version"), time.Second, nil)
	assert.Error(t, err)
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "raps", cfg.BinaryPath)
	assert.Equal(t, 300*time.Second, cfg.DefaultTimeout)
	assert.True(t, cfg.ParseJSONOutput)
}
