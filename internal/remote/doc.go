// Package remote is a client for GitHub's two project models.
//
// The REST model (classic projects) addresses projects, columns and cards by
// numeric id and pages with the Link header. The graph model (Projects v2)
// is reached through the single GraphQL endpoint, addresses projects by
// opaque node id and pages with cursors. Project values from either model
// implement the sealed Project interface:
//
//	switch p := p.(type) {
//	case *remote.RESTProject:
//	    // p.ID
//	case *remote.GraphProject:
//	    // p.NodeID, p.Number
//	}
//
// Failures are returned as *Error carrying a Kind decided where the failure
// was observed (HTTP status, GraphQL error type, decode failure or
// transport failure). Use KindOf, IsNotFound and HintOf to inspect them.
//
// Graph projects are read-only for this client: field and item mutations
// return ErrUnsupported.
package remote
