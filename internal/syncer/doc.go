// Package syncer mirrors local YAML projects onto GitHub projects and back.
//
// # Overview
//
// A local project is a directory under the projects directory holding
// project.yaml (and, in the flat layout, columns.yaml and cards.yaml). A
// remote project lives either in the REST model (classic projects) or in
// the graph model (Projects v2, used for organizations).
//
//	projects/<name>/project.yaml  ──push──▶  REST project: columns, cards
//	                              ◀──pull──  REST project or graph items
//
// Reconciliation is one-directional and create-if-missing. A push creates
// the remote project when absent, then every local column whose name is
// missing remotely, then every local card with a note. Nothing is updated,
// renamed or deleted remotely. A pull overwrites the local project with
// the remote one in unified form.
//
// Graph projects are read-only: a push of a graph project records nothing
// but metadata, and creating one for an organization stops after the
// project ids are saved locally.
//
// # Presentation
//
// The syncer never prints. Progress goes to the Sink in Options, questions
// go to the Confirmer, and each run returns a Result.
package syncer
