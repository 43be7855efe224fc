// Package storage writes downloaded tracks to the local filesystem.
//
// Manager.Save streams a body in fixed-size chunks to "<dest>.part" and renames
// it to dest only after the last byte is flushed and the handle closed. A read
// error, a write error, or a cancelled context removes the temporary file, and
// the returned error is typed so callers can tell network failures from local
// I/O failures.
//
//	m := storage.NewManager("./downloads", storage.DefaultChunkSize)
//	size, err := m.Save(ctx, resp.Body, m.Resolve("", "song.flac"))
package storage
