// Package places stores the place catalog.
//
// SQLiteStore is the editable catalog with upsert and delete. YAMLFile reads
// a hand-written catalog and is the import format for the store. Both
// implement the engine's Catalog port.
package places
