package services

import (
	"regexp"
	"strings"

	"github.com/contractorkingdom/stl-admin/pkg/models"
)

// stlNamePattern captures the client-name part of a "<Client Name> - STL"
// workflow name, any casing, with optional whitespace around the dash.
var stlNamePattern = regexp.MustCompile(`(?i)^(.+?)\s*-\s*STL\s*$`)

// CandidateClientName recovers the client name from a workflow display name by
// stripping the trailing " - STL" suffix. Names without the suffix are
// returned trimmed as-is.
func CandidateClientName(workflowName string) string {
	if match := stlNamePattern.FindStringSubmatch(workflowName); match != nil {
		return strings.TrimSpace(match[1])
	}

	return strings.TrimSpace(strings.ReplaceAll(workflowName, WorkflowNameSuffix, ""))
}

// MatchClient finds the client a workflow name refers to, trying exact id,
// exact name, then exact business name, in that order. Returns nil when no
// rule matches.
func MatchClient(workflowName string, clients []models.Client) *models.Client {
	candidate := CandidateClientName(workflowName)
	if candidate == "" {
		return nil
	}

	for i := range clients {
		if clients[i].ID == candidate {
			return &clients[i]
		}
	}

	for i := range clients {
		if clients[i].Name == candidate {
			return &clients[i]
		}
	}

	for i := range clients {
		if clients[i].BusinessName == candidate {
			return &clients[i]
		}
	}

	return nil
}

// MatchClientLoose extends MatchClient with case-insensitive equality,
// bidirectional substring containment, and first-word matching. The loose
// rules can misassign workflows when business names share a first word or are
// substrings of one another; that ambiguity is a documented property of the
// matching, not something callers should correct for.
func MatchClientLoose(workflowName string, clients []models.Client) *models.Client {
	if client := MatchClient(workflowName, clients); client != nil {
		return client
	}

	candidate := strings.ToLower(CandidateClientName(workflowName))
	workflowLower := strings.ToLower(workflowName)

	if candidate == "" {
		return nil
	}

	for i := range clients {
		if strings.EqualFold(clients[i].ID, candidate) ||
			strings.EqualFold(clients[i].Name, candidate) ||
			strings.EqualFold(clients[i].BusinessName, candidate) {
			return &clients[i]
		}
	}

	for i := range clients {
		clientName := strings.ToLower(clients[i].Name)
		if clientName == "" {
			clientName = strings.ToLower(clients[i].ID)
		}

		if clientName == "" {
			continue
		}

		if strings.Contains(workflowLower, clientName) || strings.Contains(clientName, candidate) {
			return &clients[i]
		}

		if firstWord := strings.Split(clientName, " ")[0]; firstWord != "" && strings.Contains(workflowLower, firstWord) {
			return &clients[i]
		}
	}

	return nil
}
