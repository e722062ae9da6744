// Package ingest implements the cover image ingestion pipeline: it accepts a
// raw image file (from a picker path or the watched drop directory), validates
// its type and size, optionally recompresses it to fit a stored-size budget,
// and hands the final self-describing encoded value to a sink callback.
//
// The central type is [Ingestor], which owns a small interactive session
// (last error, last file metadata, drag flag, destroyed flag) independent of
// the image value it produces. The emitted value is a base64 data URI; the
// empty string means "no image". Values are handed out through the sink and
// never retained.
//
// [DropWatcher] connects a directory to an [Ingestor] so that files appearing
// in it are ingested automatically, the terminal stand-in for dropping a file
// onto an upload widget.
package ingest
