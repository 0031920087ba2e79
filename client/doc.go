// Package client is a typed client for the CourtListener REST API (v4).
//
// A [Client] holds the HTTP transport, the API token and the endpoint
// registry. [Client.Resource] returns a [Resource] for one endpoint id:
//
//	cl, err := client.New(client.Options{Token: token})
//	dockets := cl.MustResource("dockets")
//	it, err := dockets.List(map[string]any{
//		"court":      "scotus",
//		"date_filed": map[string]any{"gte": "2020-01-01"},
//	})
//	for docket, err := range it.All(ctx) {
//		...
//	}
//
// Filters are validated by the query package before any request is made;
// a validation error never reaches the network.
//
// An [Iterator] holds one [Page] at a time and fetches lazily. It follows
// the API's next and previous links and is not safe for concurrent use.
// The Client itself may be shared.
//
// The token defaults to the COURTLISTENER_API_TOKEN environment variable.
// Requests are traced with otelhttp and, when Options.Metrics is set,
// counted in Prometheus.
package client
