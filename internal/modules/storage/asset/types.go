package asset

import (
	"encoding/json"
	"strings"
)

const (
	defaultResourceType = "image"
	defaultDeliveryType = "upload"
)

// deleteByTokensDTO is the request body for POST /delete-by-tokens.
type deleteByTokensDTO struct {
	DeleteTokens []string `json:"delete_tokens"`
}

// deleteByPublicIDsDTO is the request body for POST /delete-by-public-ids.
// PublicIDs are folder/name without extension; ResourceType is image|video|raw.
type deleteByPublicIDsDTO struct {
	PublicIDs    []string `json:"public_ids"`
	ResourceType string   `json:"resource_type"`
	Type         string   `json:"type"`
}

func (d deleteByPublicIDsDTO) resourceType() string {
	if v := strings.TrimSpace(d.ResourceType); v != "" {
		return v
	}
	return defaultResourceType
}

func (d deleteByPublicIDsDTO) deliveryType() string {
	if v := strings.TrimSpace(d.Type); v != "" {
		return v
	}
	return defaultDeliveryType
}

// DeletedToken is one successful entry of a DeletionReport.
type DeletedToken struct {
	Token  string          `json:"token"`
	Result json.RawMessage `json:"result"`
}

// FailedToken is one failed entry of a DeletionReport.
type FailedToken struct {
	Token string `json:"token"`
	Error string `json:"error"`
}

// DeletionReport is the response of a token batch. Both lists keep input order.
type DeletionReport struct {
	OK      bool           `json:"ok"`
	Deleted []DeletedToken `json:"deleted"`
	Failed  []FailedToken  `json:"failed"`
}

// DeletionResult wraps the provider's answer to a public-id batch.
type DeletionResult struct {
	OK     bool            `json:"ok"`
	Result json.RawMessage `json:"result"`
}

// TokenOutcome is the result of deleting a single token: either Result or Err is set.
type TokenOutcome struct {
	Token  string
	Result json.RawMessage
	Err    error
}

// emptyDeleteResult mirrors the provider's shape for a batch that deleted nothing.
var emptyDeleteResult = json.RawMessage(`{"deleted":{}}`)

// compact drops empty entries, keeping order.
func compact(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
