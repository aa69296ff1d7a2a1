// Package host defines the boundary between slidesync and the application
// that embeds it: vault and workspace notifications, views and their
// serialized state, and the rendered element structure a view exposes.
//
// Nothing in this package talks to a real UI. Hosts implement the
// interfaces; the coordinator, detector and refresher only consume them.
package host
