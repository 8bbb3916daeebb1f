// Package io saves resolved module stores as JSON snapshots and reads them
// back.
//
// # Overview
//
// Querying a production database takes a while and needs access to its
// container. A snapshot freezes what a run saw, so that graphs can be
// rendered and compared later, offline:
//
//	odoomig modules snapshot -d odoodb -o before.json
//	# ... upgrade ...
//	odoomig modules diff --from-snapshot before.json -d odoodb
//
// # JSON Format
//
//	{
//	  "version": 1,
//	  "id": "8f0e6c1a-...",
//	  "database": "odoodb",
//	  "created_at": "2023-04-02T10:00:00Z",
//	  "modules": [
//	    {"name": "base", "children": ["sale"], "database_state": "installed",
//	     "manifest_state": "installable", "state": "installed", ...},
//	    {"name": "sale", "children": [], ...}
//	  ]
//	}
//
// Modules keep their store order, so a graph rebuilt from a snapshot lists
// its nodes in the order the original run did. States are resolved again
// on import from the database and manifest states.
//
// # Import
//
// Use [ImportJSON] to read a snapshot file, or [ReadJSON] for any
// io.Reader. Unknown versions are rejected with an INVALID_FORMAT error.
//
// # Export
//
// Use [ExportJSON] to write a snapshot file, or [WriteJSON] for any
// io.Writer. [NewSnapshot] stamps a fresh ID and creation time.
package io
