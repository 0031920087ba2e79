// Package tools exposes the CourtListener API to MCP clients.
//
// A [Registry] holds tool declarations (toolfoundation/model) and their
// local handlers. [Service] implements the CourtListener tools on top of a
// [client.Client]:
//
//   - search: the union of all search types, with an optional "fields"
//     projection of the returned records
//   - get_endpoint_schema: the filter schema of one REST endpoint
//   - call_endpoint: the first page of results of one REST endpoint
//   - find_endpoint: keyword search over the endpoint catalog
//
// Example usage:
//
//	c, _ := client.New(client.Options{})
//	idx := catalog.New(catalog.Config{})
//	defer idx.Close()
//
//	reg := tools.New(tools.Config{
//	    ServerInfo: tools.ServerInfo{Name: "courtlistener", Version: "1.0.0"},
//	})
//	svc, _ := tools.NewService(c, idx)
//	_ = svc.Register(reg)
//
//	tools.ServeStdio(ctx, reg)
//
// [NewServer] builds the go-sdk MCP server used by both [ServeStdio] and
// the streamable HTTP transport of [NewHTTPServer].
package tools
