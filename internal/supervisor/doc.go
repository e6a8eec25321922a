// Package supervisor wraps a suture tree. Each service added to the tree
// is an independent suture.Service; a panic or returned error in one
// service's Serve loop is reported and (per suture's restart policy)
// retried without taking down the others. The master package adds only
// the metrics debug server to it; proxy Servers run outside the tree.
package supervisor
