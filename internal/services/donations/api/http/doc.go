// Package httpapi exposes the donations workflows as a JSON API under /api.
//
// Every route resolves the caller through identity.Resolver under the policy
// the route declares, guards admin surfaces with access.Guard, and renders
// failures through the shared error renderer so bodies always carry
// success, message and kind.
package httpapi
