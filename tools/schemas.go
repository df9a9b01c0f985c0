package tools

import (
	"encoding/json"

	"github.com/magisys/magi/types"
)

// Tool JSON schemas advertised to the model. Single source of truth.

var WebSearchSchema = types.ToolSchema{
	Name:        "web_search",
	Description: "Searches the web using DuckDuckGo. Returns titles, URLs, and snippets. Use for quick lookups.",
	Parameters: json.RawMessage(`{
		"type": "object",
		"properties": {
			"query": {"type": "string", "description": "The search query"},
			"max_results": {"type": "integer", "description": "Max results (default 3)"}
		},
		"required": ["query"]
	}`),
}

var JinaSearchSchema = types.ToolSchema{
	Name: "jina_search",
	Description: "Searches the web via Jina AI and returns full page content for each result — " +
		"titles, URLs, and readable summaries. Better than web_search when you need " +
		"to actually read the content, not just get links. Use for research tasks.",
	Parameters: json.RawMessage(`{
		"type": "object",
		"properties": {
			"query": {"type": "string", "description": "The search query to research"}
		},
		"required": ["query"]
	}`),
}

var ReadURLSchema = types.ToolSchema{
	Name: "read_url",
	Description: "Reads a URL and returns its content as clean markdown text via Jina AI Reader. " +
		"Works on news articles, documentation, blogs, and most web pages. " +
		"Use when you have a specific URL to read.",
	Parameters: json.RawMessage(`{
		"type": "object",
		"properties": {
			"url": {"type": "string", "description": "The full URL to read"}
		},
		"required": ["url"]
	}`),
}

var FetchURLSchema = types.ToolSchema{
	Name:        "fetch_url_content",
	Description: "Fast HTTP fetch for simple static pages. Fallback if read_url fails.",
	Parameters: json.RawMessage(`{
		"type": "object",
		"properties": {
			"url": {"type": "string", "description": "The URL to fetch"}
		},
		"required": ["url"]
	}`),
}
