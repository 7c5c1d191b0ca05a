// Package jobs keeps a SQLite ledger of transcription requests.
//
// Each upload gets one row: created as running when the request arrives and
// moved to completed or failed when the pipeline returns. The ledger holds
// request metadata and pipeline counters only; transcripts are returned to the
// caller and never stored.
//
// The database is disposable. Its schema version lives in PRAGMA user_version;
// a ledger stamped with another version is rejected with ErrSchemaMismatch and
// must be removed.
package jobs
