package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const testWorkflowYAML = `
metadata:
  id: bucket-demo
  name: Bucket Demo
  description: creates and tears down a bucket
  category: object-storage
  prerequisites: []
  estimated_duration: 60
  required_assets: []
steps:
  - id: create-bucket
    name: Create bucket
    description: creates a demo bucket
    command:
      type: bucket
      action: create
      bucket_name: demo-{uuid}
`

const testWorkflowLongDescriptionYAML = `
metadata:
  id: long-description-demo
  name: Long Description Demo
  description: "this description is deliberately long enough that the list table column truncates it with an ellipsis instead of wrapping or overflowing"
  category: object-storage
  prerequisites: []
  estimated_duration: 60
  required_assets: []
steps:
  - id: create-bucket
    name: Create bucket
    description: creates a demo bucket
    command:
      type: bucket
      action: create
      bucket_name: demo-{uuid}
`

func writeTestWorkflow(t *testing.T, dir string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, "bucket-demo.yaml"), []byte(testWorkflowYAML), 0o644); err != nil {
		t.Fatalf("write workflow fixture: %v", err)
	}
}

func TestNewListCmd(t *testing.T) {
	listCmd := newListCmd()
	if listCmd.Use != "list" {
		t.Errorf("expected Use to be 'list', got %s", listCmd.Use)
	}
	if listCmd.RunE == nil {
		t.Error("expected RunE to be set")
	}
}

func TestRunList_ShowsDiscoveredWorkflows(t *testing.T) {
	workflowDir := t.TempDir()
	writeTestWorkflow(t, workflowDir)

	listCmd := newListCmd()
	listCmd.Flags().String("workflow-dir", workflowDir, "")
	listCmd.Flags().String("config-dir", t.TempDir(), "")

	var buf bytes.Buffer
	listCmd.SetOut(&buf)

	if err := listCmd.RunE(listCmd, nil); err != nil {
		t.Fatalf("runList returned error: %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "bucket-demo") {
		t.Errorf("expected output to mention workflow id, got: %q", output)
	}
}

func TestRunList_TruncatesLongDescription(t *testing.T) {
	workflowDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(workflowDir, "long-description-demo.yaml"), []byte(testWorkflowLongDescriptionYAML), 0o644); err != nil {
		t.Fatalf("write workflow fixture: %v", err)
	}

	listCmd := newListCmd()
	listCmd.Flags().String("workflow-dir", workflowDir, "")
	listCmd.Flags().String("config-dir", t.TempDir(), "")

	var buf bytes.Buffer
	listCmd.SetOut(&buf)

	if err := listCmd.RunE(listCmd, nil); err != nil {
		t.Fatalf("runList returned error: %v", err)
	}

	output := buf.String()
	if strings.Contains(output, "overflowing") {
		t.Errorf("expected description to be truncated before reaching its tail, got: %q", output)
	}
	if !strings.Contains(output, "...") {
		t.Errorf("expected truncated description to end in an ellipsis, got: %q", output)
	}
}

func TestRunList_EmptyWorkflowDir(t *testing.T) {
	listCmd := newListCmd()
	listCmd.Flags().String("workflow-dir", t.TempDir(), "")
	listCmd.Flags().String("config-dir", t.TempDir(), "")

	var buf bytes.Buffer
	listCmd.SetOut(&buf)

	if err := listCmd.RunE(listCmd, nil); err != nil {
		t.Fatalf("runList returned error: %v", err)
	}
	if !strings.Contains(buf.String(), "No workflows found") {
		t.Errorf("expected 'No workflows found', got: %q", buf.String())
	}
}
