// Package odoo reconciles what a database says about its modules with what
// the addons on disk declare, and answers migration questions on the result.
//
// # Pipeline
//
// Module rows from a [feed.Source] and manifests from package manifest are
// merged into a [Store]. The database is authoritative for dependencies and
// the recorded state; manifests add the state the code allows plus the
// dependencies they declare. Every module's final [State] comes from [Merge].
//
// [NewModules] turns the store into a graph with [Build], splices out the
// excluded modules, breaks cycles and removes transitive edges. [Modules]
// then answers the queries: what to install, upgrade or remove, the leaves,
// the dependencies of a module, and the [Diff] with another database.
//
// # Views
//
// [HierarchicalTable] applies the same machinery to ir_ui_view inheritance.
// Nodes are named "id/key/name" and the question becomes which views must be
// kept because they, or a view inheriting from them, belong to a website.
//
// # Direction
//
// Edges point from a dependency to its dependents: base -> sale. Leaves are
// therefore the modules nothing depends on, and a covering set of modules is
// found by walking up towards common ancestors.
package odoo
