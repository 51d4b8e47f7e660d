package parser

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/emiliopalmerini/wattline/internal/domain"
)

// ParseMetadata reads the container identities from an experiment metadata
// file. Missing ids are not fatal: the identity is returned together with an
// error wrapping domain.ErrNoContainerIdentity that names the missing keys.
func ParseMetadata(path string) (domain.ContainerIdentity, error) {
	data, err := readDocument(path)
	if err != nil {
		return domain.ContainerIdentity{}, err
	}
	ids, err := DecodeMetadata(data)
	if err != nil {
		return ids, fmt.Errorf("%s: %w", path, err)
	}
	return ids, nil
}

// DecodeMetadata decodes a flat metadata mapping.
func DecodeMetadata(data []byte) (domain.ContainerIdentity, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return domain.ContainerIdentity{}, decodeError(err, "metadata must be an object")
	}

	ids := domain.ContainerIdentity{
		APIContainerID: stringField(raw, "api_container_id"),
		DBContainerID:  stringField(raw, "db_container_id"),
	}

	var missing []string
	if ids.APIContainerID == "" {
		missing = append(missing, "api_container_id")
	}
	if ids.DBContainerID == "" {
		missing = append(missing, "db_container_id")
	}
	if len(missing) > 0 {
		return ids, fmt.Errorf("%w: missing %s", domain.ErrNoContainerIdentity, strings.Join(missing, ", "))
	}
	return ids, nil
}

func stringField(raw map[string]any, key string) string {
	s, _ := raw[key].(string)
	return strings.TrimSpace(s)
}
