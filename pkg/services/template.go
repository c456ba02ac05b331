// Package services implements the workflow-provisioning business logic:
// template customization, webhook extraction, name reconciliation, and the
// provisioning flow that orchestrates the automation service and the
// relational store.
package services

import (
	"strings"

	"github.com/contractorkingdom/stl-admin/pkg/n8n"
)

// WorkflowNameSuffix is appended to the business name to form the remote
// workflow name ("<business> - STL").
const WorkflowNameSuffix = " - STL"

// ClientData is the set of client fields substituted into a template document.
type ClientData struct {
	BusinessName  string
	OwnerName     string
	BusinessPhone string
	TwilioNumber  string
	ClientID      string
}

// WorkflowName derives the remote document name for the client.
func (d ClientData) WorkflowName() string {
	return d.BusinessName + WorkflowNameSuffix
}

// CustomizeTemplate produces a client-specific copy of the template document.
// Substitution targets are located by node type tag plus a case-insensitive
// name keyword; each substitution is best-effort and silently skipped when its
// target node or field is absent. The input document is never modified.
//
// The keywords and their priority are a fixed contract with the unversioned
// external template; do not reorder or rephrase them.
func CustomizeTemplate(template *n8n.Document, data ClientData) (*n8n.Document, error) {
	customized, err := template.Clone()
	if err != nil {
		return nil, err
	}

	customized.Name = data.WorkflowName()

	// 1. "Set Lead Data" assigns the numbers the call flow dials.
	if node := findNode(customized.Nodes, n8n.NodeTypeSet, nameContains("set lead data")); node != nil {
		setAssignment(node, "business_phone", data.BusinessPhone)
		setAssignment(node, "twilio_number", data.TwilioNumber)
	}

	// 2. Spam submissions are logged against the client.
	if node := findNode(customized.Nodes, n8n.NodeTypeSupabase, nameContains("spam")); node != nil {
		setInsertField(node, "client_id", data.ClientID)
	}

	// 3. Owner name spoken during the call.
	if node := findNode(customized.Nodes, n8n.NodeTypeSet, nameContains("business owner name")); node != nil {
		setAssignment(node, "bizOwnerName", data.OwnerName)
	}

	// 4. Call log rows are tagged with the client.
	if node := findNode(customized.Nodes, n8n.NodeTypeSupabase, nameContains("log supabase")); node != nil {
		setInsertField(node, "client_id", data.ClientID)
	}

	// 5. The IVR endpoint filters rows with the store's eq.<id> convention.
	if node := findNode(customized.Nodes, n8n.NodeTypeHTTPRequest, nameContainsAny("ivr", "endpoint")); node != nil {
		setListParam(node, "queryParameters", "client_id", "eq."+data.ClientID)
	}

	// 6. Business name announced to the lead; the "owner" exclusion keeps this
	// from also matching the owner-name node.
	if node := findNode(customized.Nodes, n8n.NodeTypeSet, func(name string) bool {
		return strings.Contains(name, "business name") && !strings.Contains(name, "owner")
	}); node != nil {
		setAssignment(node, "businessName", data.BusinessName)
	}

	// 7. Outbound call originates from the client's telephony number.
	if node := findNode(customized.Nodes, n8n.NodeTypeHTTPRequest, func(name string) bool {
		return strings.Contains(name, "call") && strings.Contains(name, "lead")
	}); node != nil {
		setListParam(node, "bodyParameters", "From", data.TwilioNumber)
	}

	return customized, nil
}

// StripGeneratedIDs removes the server-generated webhook identifier from every
// node before submission; the automation service regenerates them. Node ids
// are preserved because the connection map references them.
func StripGeneratedIDs(doc *n8n.Document) {
	for _, node := range doc.Nodes {
		delete(node, "webhookId")
	}
}

func nameContains(keyword string) func(string) bool {
	return func(name string) bool {
		return strings.Contains(name, keyword)
	}
}

func nameContainsAny(keywords ...string) func(string) bool {
	return func(name string) bool {
		for _, keyword := range keywords {
			if strings.Contains(name, keyword) {
				return true
			}
		}

		return false
	}
}

// findNode returns the first node with the given type tag whose lowercased
// name satisfies the match, or nil.
func findNode(nodes []n8n.Node, nodeType string, match func(string) bool) n8n.Node {
	for _, node := range nodes {
		if node.Type() == nodeType && match(strings.ToLower(node.Name())) {
			return node
		}
	}

	return nil
}

// setAssignment overwrites the value of a named entry in the node's
// parameters.assignments.assignments list.
func setAssignment(node n8n.Node, name, value string) {
	assignments, _ := dig(node.Parameters(), "assignments")
	setListEntry(assignments, "assignments", "name", name, "value", value)
}

// setInsertField overwrites a named field value in the node's
// parameters.fieldsUi.fieldValues list (the database-insert node shape).
func setInsertField(node n8n.Node, fieldID, value string) {
	fieldsUI, _ := dig(node.Parameters(), "fieldsUi")
	setListEntry(fieldsUI, "fieldValues", "fieldId", fieldID, "fieldValue", value)
}

// setListParam overwrites a named entry in one of an HTTP-request node's
// parameter lists ("queryParameters" or "bodyParameters").
func setListParam(node n8n.Node, listKey, name, value string) {
	list, _ := dig(node.Parameters(), listKey)
	setListEntry(list, "parameters", "name", name, "value", value)
}

func dig(m map[string]any, key string) (map[string]any, bool) {
	if m == nil {
		return nil, false
	}

	child, ok := m[key].(map[string]any)

	return child, ok
}

// setListEntry finds the entry in container[listKey] whose keyField equals
// keyValue and overwrites its valueField. Missing containers, lists, or
// entries are skipped.
func setListEntry(container map[string]any, listKey, keyField, keyValue, valueField, value string) {
	if container == nil {
		return
	}

	list, ok := container[listKey].([]any)
	if !ok {
		return
	}

	for _, item := range list {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}

		if name, _ := entry[keyField].(string); name == keyValue {
			entry[valueField] = value

			return
		}
	}
}
