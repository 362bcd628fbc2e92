// Package ticktick is a client for the TickTick Open API v1.
//
// The Client is explicitly constructed with an oauth2.TokenSource and owns its
// *http.Client; there is no package-level session. Request payloads are
// explicit structs (TaskCreate, TaskUpdate, ProjectCreate, ProjectUpdate)
// whose pointer fields are sent only when set.
//
// Dates on the wire use the layout "2006-01-02T15:04:05-0700" and are always
// written in UTC.
package ticktick
