package migrate

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/dave11k/flow-roll-app-sub001/internal/model"
	"github.com/dave11k/flow-roll-app-sub001/internal/storage"
)

// Legacy (v0) records came out of the original app's storage layer:
// timestamps as epoch milliseconds, tags with duplicates and empty
// strings, sessions without the derived submissionCounts map, profiles
// without stripes. The transforms below rewrite a record into the v1
// wire shape and are safe to apply to already-current records (no-op).
//
// Transform errors mean the record is unrecoverable as a domain entity
// (unparseable JSON, missing identity); out-of-range field values are
// coerced rather than rejected so user data survives the upgrade.

func transformRecord(kind storage.Kind, data []byte) (migrated []byte, changed bool, err error) {
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, false, fmt.Errorf("parsing record: %w", err)
	}

	switch kind {
	case storage.KindTechniques:
		err = transformTechnique(doc)
	case storage.KindSessions:
		err = transformSession(doc)
	case storage.KindProfile:
		err = transformProfile(doc)
	case storage.KindTags:
		err = transformTag(doc)
	default:
		return nil, false, fmt.Errorf("unknown kind %q", kind)
	}
	if err != nil {
		return nil, false, err
	}

	migrated, err = json.Marshal(doc)
	if err != nil {
		return nil, false, fmt.Errorf("encoding migrated record: %w", err)
	}
	return migrated, !bytes.Equal(data, migrated), nil
}

func transformTechnique(doc map[string]any) error {
	if _, err := requireString(doc, "id"); err != nil {
		return err
	}
	name, err := requireString(doc, "name")
	if err != nil {
		return err
	}
	doc["name"] = name

	if err := coerceTimestamp(doc, "createdAt", false); err != nil {
		return err
	}

	category, _ := doc["category"].(string)
	if !model.Category(category).Valid() {
		doc["category"] = string(model.CategoryOther)
	}

	tags := stringSlice(doc["tags"])
	doc["tags"] = dedupe(dropEmpty(trimAll(tags)))

	if raw, ok := doc["sessionId"]; ok {
		if s, ok := raw.(string); ok && strings.TrimSpace(s) != "" {
			doc["sessionId"] = strings.TrimSpace(s)
		} else {
			delete(doc, "sessionId")
		}
	}
	cleanOptionalString(doc, "notes")
	return nil
}

func transformSession(doc map[string]any) error {
	if _, err := requireString(doc, "id"); err != nil {
		return err
	}
	if err := coerceTimestamp(doc, "date", true); err != nil {
		return err
	}

	sessionType, _ := doc["type"].(string)
	doc["type"] = string(normalizeSessionType(sessionType))

	cleanOptionalString(doc, "location")
	cleanOptionalString(doc, "notes")

	submissions := dropEmpty(trimAll(stringSlice(doc["submissions"])))
	doc["submissions"] = submissions
	doc["submissionCounts"] = model.NewSubmissionCounts(submissions)

	satisfaction, ok := coerceInt(doc["satisfaction"])
	if !ok {
		satisfaction = 3
	}
	doc["satisfaction"] = clamp(satisfaction, model.MinSatisfaction, model.MaxSatisfaction)

	doc["techniqueIds"] = dedupe(dropEmpty(trimAll(stringSlice(doc["techniqueIds"]))))
	return nil
}

func transformProfile(doc map[string]any) error {
	cleanOptionalString(doc, "name")

	belt, _ := doc["beltRank"].(string)
	belt = strings.ToLower(strings.TrimSpace(belt))
	if !model.BeltRank(belt).Valid() {
		belt = string(model.BeltWhite)
	}
	doc["beltRank"] = belt

	stripes, ok := coerceInt(doc["stripes"])
	if !ok {
		stripes = 0
	}
	doc["stripes"] = clamp(stripes, 0, model.MaxStripes)
	return nil
}

func transformTag(doc map[string]any) error {
	if _, err := requireString(doc, "id"); err != nil {
		return err
	}
	name, err := requireString(doc, "name")
	if err != nil {
		return err
	}
	doc["name"] = name

	category, _ := doc["category"].(string)
	if !model.TagCategory(category).Valid() {
		derived, _ := model.PredefinedTagCategory(name)
		doc["category"] = string(derived)
	}
	doc["isCustom"] = doc["category"] == string(model.TagCustom)

	usage, ok := coerceInt(doc["usageCount"])
	if !ok || usage < 0 {
		usage = 0
	}
	doc["usageCount"] = usage

	return coerceTimestamp(doc, "createdAt", false)
}

// normalizeSessionType maps the legacy free-form variants onto the
// current enum. Unknown values land in open-mat rather than failing the
// record.
func normalizeSessionType(raw string) model.SessionType {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "gi":
		return model.SessionGi
	case "nogi", "no-gi", "no gi":
		return model.SessionNoGi
	case "open-mat", "open mat", "openmat":
		return model.SessionOpenMat
	case "wrestling":
		return model.SessionWrestling
	default:
		return model.SessionOpenMat
	}
}

func requireString(doc map[string]any, key string) (string, error) {
	raw, ok := doc[key]
	if !ok {
		return "", fmt.Errorf("missing %s", key)
	}
	s, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("%s is not a string", key)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("%s is empty", key)
	}
	return s, nil
}

// cleanOptionalString trims a free-text field in place and drops it
// entirely when it is absent, blank, or not a string.
func cleanOptionalString(doc map[string]any, key string) {
	raw, ok := doc[key]
	if !ok {
		return
	}
	s, ok := raw.(string)
	if !ok || strings.TrimSpace(s) == "" {
		delete(doc, key)
		return
	}
	doc[key] = strings.TrimSpace(s)
}

// coerceTimestamp rewrites an epoch-milliseconds number as the RFC 3339
// string the current codec writes. Strings already in RFC 3339 pass
// through untouched.
func coerceTimestamp(doc map[string]any, key string, required bool) error {
	raw, ok := doc[key]
	if !ok {
		if required {
			return fmt.Errorf("missing %s", key)
		}
		return nil
	}
	switch v := raw.(type) {
	case float64:
		doc[key] = time.UnixMilli(int64(v)).UTC().Format(time.RFC3339Nano)
		return nil
	case string:
		if _, err := time.Parse(time.RFC3339Nano, v); err != nil {
			return fmt.Errorf("unparseable %s %q", key, v)
		}
		return nil
	default:
		return fmt.Errorf("%s has unsupported type %T", key, raw)
	}
}

func coerceInt(raw any) (int, bool) {
	switch v := raw.(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	default:
		return 0, false
	}
}

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}

func stringSlice(raw any) []string {
	items, ok := raw.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		out = append(out, strings.TrimSpace(s))
	}
	return out
}

func dropEmpty(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
