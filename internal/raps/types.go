// Package raps builds argv for the external raps CLI and drives it as a
// subprocess, parsing its textual and JSON output.
package raps

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Kind names the tagged variant of a Command.
type Kind string

const (
	KindAuth             Kind = "auth"
	KindBucket           Kind = "bucket"
	KindObject           Kind = "object"
	KindTranslate        Kind = "translate"
	KindDataManagement   Kind = "data-management"
	KindDesignAutomation Kind = "design-automation"
	KindCustom           Kind = "custom"
)

// Command is a tagged variant over the supported raps CLI subcommands. Kind
// and Action select the subcommand; Params carries the kind-specific,
// flattened parameters exactly as they appear in the workflow definition
// file (and, for Custom, the literal "command"/"args" keys).
//
// Params is a plain map rather than per-kind structs so that placeholder
// substitution (see workflow.SubstituteCommand) can walk every command the same
// way, independent of which kind it is: serialize to a generic tree, replace
// string leaves, done. Kind-specific accessors below recover typed values
// from that tree for the argv builder.
type Command struct {
	Kind   Kind           `json:"type" yaml:"type"`
	Action string         `json:"action,omitempty" yaml:"action,omitempty"`
	Params map[string]any `json:"-" yaml:"-"`
}

// MarshalYAML flattens Params alongside type/action, matching the wire
// format documented in SPEC_FULL.md/spec.md §6.
func (c Command) MarshalYAML() (any, error) {
	out := map[string]any{"type": string(c.Kind)}
	if c.Action != "" {
		out["action"] = c.Action
	}
	for k, v := range c.Params {
		out[k] = v
	}
	return out, nil
}

// UnmarshalYAML recovers Kind/Action and stashes everything else in Params.
func (c *Command) UnmarshalYAML(value *yaml.Node) error {
	raw := map[string]any{}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	return c.fromRaw(raw)
}

func (c *Command) fromRaw(raw map[string]any) error {
	typ, _ := raw["type"].(string)
	if typ == "" {
		return fmt.Errorf("command: missing \"type\" field")
	}
	c.Kind = Kind(typ)
	c.Action, _ = raw["action"].(string)
	c.Params = make(map[string]any, len(raw))
	for k, v := range raw {
		if k == "type" || k == "action" {
			continue
		}
		c.Params[k] = v
	}
	return nil
}

// ToMap serializes the command to the same generic tree UnmarshalYAML
// consumes, used by placeholder substitution's walk step.
func (c Command) ToMap() map[string]any {
	out := map[string]any{"type": string(c.Kind)}
	if c.Action != "" {
		out["action"] = c.Action
	}
	for k, v := range c.Params {
		out[k] = v
	}
	return out
}

// FromMap is the inverse of ToMap, used after placeholder substitution
// rewrites string leaves of the generic tree.
func FromMap(raw map[string]any) (Command, error) {
	var c Command
	err := c.fromRaw(raw)
	return c, err
}

func (c Command) str(key string) string {
	v, ok := c.Params[key]
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

func (c Command) boolean(key string) bool {
	v, ok := c.Params[key]
	if !ok {
		return false
	}
	switch b := v.(type) {
	case bool:
		return b
	default:
		return false
	}
}

func (c Command) strSlice(key string) []string {
	v, ok := c.Params[key]
	if !ok {
		return nil
	}
	raw, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// Auth action constants.
const (
	AuthLogin   = "login"
	AuthLogout  = "logout"
	AuthStatus  = "status"
	AuthRefresh = "refresh"
)

// Bucket action constants.
const (
	BucketCreate  = "create"
	BucketDelete  = "delete"
	BucketList    = "list"
	BucketDetails = "details"
)

// Object action constants.
const (
	ObjectUpload    = "upload"
	ObjectDownload  = "download"
	ObjectDelete    = "delete"
	ObjectList      = "list"
	ObjectDetails   = "details"
	ObjectSignedURL = "signed-url"
)

// Translate action constants.
const (
	TranslateStart    = "start"
	TranslateStatus   = "status"
	TranslateDownload = "download"
	TranslateManifest = "manifest"
)

// Data-management action constants.
const (
	DataMgmtHubList      = "hub-list"
	DataMgmtProjectList  = "project-list"
	DataMgmtFolderList   = "folder-list"
	DataMgmtFolderCreate = "folder-create"
	DataMgmtItemVersions = "item-versions"
	DataMgmtItemBind     = "item-bind"
)

// Design-automation action constants.
const (
	DesignAutoAppBundles  = "app-bundles"
	DesignAutoActivities  = "activities"
	DesignAutoWorkItemRun = "work-item-run"
	DesignAutoWorkItemGet = "work-item-get"
)

// Convenience constructors used by tests, the client's own CLI checks, and
// the ledger's default cleanup commands.

func AuthCommand(action string) Command {
	return Command{Kind: KindAuth, Action: action, Params: map[string]any{}}
}

func BucketCommand(action, bucketName string, params map[string]any) Command {
	if params == nil {
		params = map[string]any{}
	}
	if bucketName != "" {
		params["bucket_name"] = bucketName
	}
	return Command{Kind: KindBucket, Action: action, Params: params}
}

func ObjectCommand(action, bucketName string, params map[string]any) Command {
	if params == nil {
		params = map[string]any{}
	}
	params["bucket_name"] = bucketName
	return Command{Kind: KindObject, Action: action, Params: params}
}

func TranslateCommand(action string, params map[string]any) Command {
	if params == nil {
		params = map[string]any{}
	}
	return Command{Kind: KindTranslate, Action: action, Params: params}
}

func CustomCommand(program string, args ...string) Command {
	anyArgs := make([]any, len(args))
	for i, a := range args {
		anyArgs[i] = a
	}
	return Command{Kind: KindCustom, Params: map[string]any{"command": program, "args": anyArgs}}
}
