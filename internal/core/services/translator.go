package services

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"workspace-promoter/internal/core/domain"
)

const (
	pipelineContentPath  = "pipeline-content.json"
	notebookActivityType = "TridentNotebook"
)

// TranslateService rewrites cross-workspace references inside a pipeline
// definition: every notebook activity pointing at a source-workspace notebook
// id is repointed at its target-workspace counterpart from the mapping table.
// A reference with no mapping fails the artifact; references are never
// silently dropped.
type TranslateService struct{}

func NewTranslateService() *TranslateService {
	return &TranslateService{}
}

// Rewrite returns the definition with all notebook references translated and
// reports whether anything changed. Definitions without a pipeline content
// part (notebooks) pass through untouched.
func (s *TranslateService) Rewrite(def domain.Definition, table *domain.MappingTable) (domain.Definition, bool, error) {
	part, ok := def.Part(pipelineContentPath)
	if !ok {
		return def, false, nil
	}

	raw, err := base64.StdEncoding.DecodeString(part.Payload)
	if err != nil {
		return def, false, fmt.Errorf("decode pipeline content: %w", err)
	}

	var content map[string]interface{}
	if err := json.Unmarshal(raw, &content); err != nil {
		return def, false, fmt.Errorf("parse pipeline content: %w", err)
	}

	changed, err := rewriteActivities(content, table)
	if err != nil {
		return def, false, err
	}
	if !changed {
		return def, false, nil
	}

	rewritten, err := json.Marshal(content)
	if err != nil {
		return def, false, fmt.Errorf("serialize pipeline content: %w", err)
	}

	part.Payload = base64.StdEncoding.EncodeToString(rewritten)
	return def.WithPart(part), true, nil
}

func rewriteActivities(content map[string]interface{}, table *domain.MappingTable) (bool, error) {
	properties, ok := content["properties"].(map[string]interface{})
	if !ok {
		return false, nil
	}
	activities, ok := properties["activities"].([]interface{})
	if !ok {
		return false, nil
	}

	changed := false
	for _, raw := range activities {
		activity, ok := raw.(map[string]interface{})
		if !ok || activity["type"] != notebookActivityType {
			continue
		}
		typeProps, ok := activity["typeProperties"].(map[string]interface{})
		if !ok {
			continue
		}
		sourceID, ok := typeProps["notebookId"].(string)
		if !ok || sourceID == "" {
			continue
		}

		mapping, ok := table.Resolve(sourceID)
		if !ok {
			return false, fmt.Errorf("%w: notebook %s", domain.ErrUnresolvedReference, sourceID)
		}

		typeProps["notebookId"] = mapping.TargetID
		typeProps["workspaceId"] = mapping.TargetWorkspaceID
		changed = true
	}

	return changed, nil
}
