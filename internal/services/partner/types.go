package partner

// The partner platform's listing endpoints return JSON:API-shaped envelopes:
// {"data": [{"id": "...", "attributes": {"name": "..."}}]}.

// Hub is a top-level tenant/container holding one or more projects
type Hub struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Project is one raw catalog entry as listed under a hub
type Project struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type listEnvelope struct {
	Data []listItem `json:"data"`
}

type listItem struct {
	ID         string `json:"id"`
	Attributes struct {
		Name string `json:"name"`
	} `json:"attributes"`
}
