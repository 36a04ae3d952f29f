package raps

import "strconv"

// BuildArgs is a pure function of the typed command: for a given input it
// produces byte-identical argv, always terminated by the non-interactive
// flag and (when requested) the JSON output flag. It is a single switch
// over Kind with no default branch; the compiler does not check it for
// exhaustiveness, and a Kind without a case here yields only the trailing
// flags.
func BuildArgs(cmd Command, requestJSON bool) []string {
	var args []string

	switch cmd.Kind {
	case KindAuth:
		args = append(args, "auth", cmd.Action)

	case KindBucket:
		args = append(args, "bucket", cmd.Action)
		switch cmd.Action {
		case BucketCreate:
			if name := cmd.str("bucket_name"); name != "" {
				args = append(args, "--key", name)
			}
			if policy := cmd.str("retention_policy"); policy != "" {
				args = append(args, "--policy", policy)
			}
			if region := cmd.str("region"); region != "" {
				args = append(args, "--region", region)
			}
		case BucketDelete:
			if name := cmd.str("bucket_name"); name != "" {
				args = append(args, "--key", name)
			}
			if cmd.boolean("force") {
				args = append(args, "--yes")
			}
		case BucketList:
			// no additional flags
		case BucketDetails:
			if name := cmd.str("bucket_name"); name != "" {
				args = append(args, "--key", name)
			}
		}

	case KindObject:
		args = append(args, "object", cmd.Action)
		bucket := cmd.str("bucket_name")
		switch cmd.Action {
		case ObjectUpload:
			args = append(args, bucket)
			if path := cmd.str("file_path"); path != "" {
				args = append(args, path)
			}
			if key := cmd.str("object_key"); key != "" {
				args = append(args, "--key", key)
			}
			if cmd.boolean("batch") {
				args = append(args, "--batch")
			}
		case ObjectDownload:
			args = append(args, bucket)
			if key := cmd.str("object_key"); key != "" {
				args = append(args, key)
			}
			if path := cmd.str("file_path"); path != "" {
				args = append(args, "--output", path)
			}
		case ObjectDelete:
			args = append(args, bucket)
			if key := cmd.str("object_key"); key != "" {
				args = append(args, key)
			}
		case ObjectList:
			args = append(args, bucket)
		case ObjectDetails:
			args = append(args, bucket)
			if key := cmd.str("object_key"); key != "" {
				args = append(args, key)
			}
		case ObjectSignedURL:
			args = append(args, bucket)
			if key := cmd.str("object_key"); key != "" {
				args = append(args, key)
			}
			if expires, ok := cmd.Params["expires_in"]; ok {
				args = append(args, "--expires-in", toArgString(expires))
			}
		}

	case KindTranslate:
		args = append(args, "translate", cmd.Action)
		switch cmd.Action {
		case TranslateStart:
			if urn := cmd.str("urn"); urn != "" {
				args = append(args, urn)
			}
			if format := cmd.str("format"); format != "" {
				args = append(args, "--format", format)
			}
			if cmd.boolean("wait") {
				args = append(args, "--wait")
			}
		case TranslateStatus:
			if urn := cmd.str("urn"); urn != "" {
				args = append(args, urn)
			}
		case TranslateDownload:
			if urn := cmd.str("urn"); urn != "" {
				args = append(args, urn)
			}
			if dir := cmd.str("output_dir"); dir != "" {
				args = append(args, "--output", dir)
			}
		case TranslateManifest:
			if urn := cmd.str("urn"); urn != "" {
				args = append(args, urn)
			}
		}

	case KindDataManagement:
		switch cmd.Action {
		case DataMgmtHubList:
			args = append(args, "hub", "list")
		case DataMgmtProjectList:
			args = append(args, "project", "list")
			if hub := cmd.str("hub_id"); hub != "" {
				args = append(args, hub)
			}
		case DataMgmtFolderList:
			args = append(args, "folder", "list")
			if project := cmd.str("project_id"); project != "" {
				args = append(args, project)
			}
			if folder := cmd.str("folder_id"); folder != "" {
				args = append(args, folder)
			}
		case DataMgmtFolderCreate:
			args = append(args, "folder", "create")
			if project := cmd.str("project_id"); project != "" {
				args = append(args, project)
			}
			if name := cmd.str("folder_name"); name != "" {
				args = append(args, name)
			}
		case DataMgmtItemVersions:
			args = append(args, "item", "versions")
			if project := cmd.str("project_id"); project != "" {
				args = append(args, project)
			}
			if item := cmd.str("item_id"); item != "" {
				args = append(args, item)
			}
		case DataMgmtItemBind:
			args = append(args, "item", "bind")
			if project := cmd.str("project_id"); project != "" {
				args = append(args, project)
			}
			if item := cmd.str("item_id"); item != "" {
				args = append(args, item)
			}
		}

	case KindDesignAutomation:
		args = append(args, "da")
		switch cmd.Action {
		case DesignAutoAppBundles:
			args = append(args, "appbundles")
			if id := cmd.str("app_bundle_id"); id != "" {
				args = append(args, id)
			}
		case DesignAutoActivities:
			args = append(args, "activities")
			if id := cmd.str("activity_id"); id != "" {
				args = append(args, id)
			}
		case DesignAutoWorkItemRun:
			args = append(args, "workitem", "run")
			if id := cmd.str("activity_id"); id != "" {
				args = append(args, id)
			}
			if in := cmd.str("input_file"); in != "" {
				args = append(args, "--input", in)
			}
			if out := cmd.str("output_file"); out != "" {
				args = append(args, "--output", out)
			}
		case DesignAutoWorkItemGet:
			args = append(args, "workitem", "get")
			if id := cmd.str("work_item_id"); id != "" {
				args = append(args, id)
			}
		}

	case KindCustom:
		if program := cmd.str("command"); program != "" {
			args = append(args, program)
		}
		args = append(args, cmd.strSlice("args")...)
	}

	args = append(args, "--non-interactive")
	if requestJSON {
		args = append(args, "--output", "json")
	}
	return args
}

func toArgString(v any) string {
	switch n := v.(type) {
	case string:
		return n
	case int:
		return strconv.Itoa(n)
	case int64:
		return strconv.FormatInt(n, 10)
	case float64:
		return strconv.FormatInt(int64(n), 10)
	case uint64:
		return strconv.FormatUint(n, 10)
	default:
		return ""
	}
}
