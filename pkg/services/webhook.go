package services

import (
	"strings"

	"github.com/contractorkingdom/stl-admin/pkg/n8n"
)

// ExtractLeadFormWebhook derives the public lead-form callback URL from a
// workflow document. A trigger node named exactly "lead form" wins over one
// whose name merely contains it. Returns "" when no node or identifier is
// found; extraction never fails a caller.
func ExtractLeadFormWebhook(doc *n8n.Document, baseURL string) string {
	node := findWebhookNode(doc.Nodes, func(name string) bool {
		return name == "lead form"
	})

	if node == nil {
		node = findWebhookNode(doc.Nodes, func(name string) bool {
			return strings.Contains(name, "lead form")
		})
	}

	return webhookURL(node, baseURL)
}

// ExtractIVRWebhook derives the IVR callback URL from a trigger node whose
// name contains "ivr" or "twiml". Returns "" when absent.
func ExtractIVRWebhook(doc *n8n.Document, baseURL string) string {
	node := findWebhookNode(doc.Nodes, func(name string) bool {
		return strings.Contains(name, "ivr") || strings.Contains(name, "twiml")
	})

	return webhookURL(node, baseURL)
}

func findWebhookNode(nodes []n8n.Node, match func(string) bool) n8n.Node {
	return findNode(nodes, n8n.NodeTypeWebhook, match)
}

// webhookURL builds "<base>/webhook/<id>", preferring the node's dedicated
// webhookId over the path parameter fallback.
func webhookURL(node n8n.Node, baseURL string) string {
	if node == nil {
		return ""
	}

	id := node.WebhookID()
	if id == "" {
		if params := node.Parameters(); params != nil {
			id, _ = params["path"].(string)
		}
	}

	if id == "" {
		return ""
	}

	return strings.TrimRight(baseURL, "/") + "/webhook/" + id
}
