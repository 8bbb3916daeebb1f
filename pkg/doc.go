// Package pkg provides the libraries behind odoomig, the Odoo migration tool.
//
// # Overview
//
// A migration starts from a production database and the addons of the new
// release. odoomig reads the module and view tables of the database, merges
// them with the manifests found on disk and answers the questions a
// migration raises: which modules to upgrade, install or remove, which
// declared dependencies are redundant, which views of a website must be kept.
// It also drives marabunta in separate pre and post phases and scrapes the
// resulting logs. The pkg directory is organized into these areas:
//
//  1. [odoo] - Domain logic (module states, node store, graph builder, queries)
//  2. [dag] - Graph structure and [dag/transform] algorithms
//  3. [feed] - Database readers (psql subprocess, cache, static rows)
//  4. [manifest] - Addons path scanning and __manifest__.py parsing
//  5. [marabunta] and [migrationlog] - Migration runs and log scraping
//  6. [render] - Graphviz output
//
// # Architecture
//
// The data flow of a module query:
//
//	ir_module_module (psql)     __manifest__.py files
//	         ↓                           ↓
//	    [feed] package            [manifest] package
//	         ↘                         ↙
//	          [odoo] package (store + builder)
//	                   ↓
//	          [dag/transform] (splice, reduce)
//	                   ↓
//	     JSON results, snapshots or [render/nodelink]
//
// # Quick Start
//
// Load the module graph of a database and list the modules to upgrade:
//
//	import (
//	    "context"
//	    "github.com/matzehuels/odoomig/pkg/feed"
//	    "github.com/matzehuels/odoomig/pkg/manifest"
//	    "github.com/matzehuels/odoomig/pkg/odoo"
//	)
//
//	manifests, _ := manifest.LoadAll([]string{"odoo/src/addons", "odoo/local-src"}, 2, nil)
//	m, _ := odoo.Load(context.Background(), feed.NewPsql(""), "odoodb", manifests, odoo.Options{})
//	fmt.Println(m.ToUpdate())
//
// # Main Packages
//
// [odoo] - The module state lattice, the node store that merges database rows
// with manifests, the graph builder and the module and view queries.
//
// [dag] - Directed acyclic graph with metadata on nodes and edges.
//
// [dag/transform] - Transitive reduction, splicing, rooted subgraphs and
// lowest common ancestors.
//
// [feed] - The Source interface and its implementations: Psql runs psql as a
// subprocess, Cached stores rows in a [cache] backend, Static serves fixed
// rows for tests.
//
// [cache] - File and Redis caches with scoped keys and retry helpers.
//
// [io] - JSON snapshots of module graphs for offline queries and diffs.
//
// [marabunta] - migration.yml splitting and phase runs.
//
// [migrationlog] - Scraper for marabunta and Odoo logs.
//
// [render/nodelink] - Graphviz DOT, SVG, PNG and PDF output.
//
// [observability] - Hooks for query, cache and migration events.
//
// [errors] - Error codes and input validation.
package pkg
