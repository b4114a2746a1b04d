// Package core provides the business logic for the link board and the
// sentiment dashboard.
//
// The package has no HTTP or terminal dependencies. The web server, the
// sentimen CLI and the interactive browser all drive the same types.
//
// # Datasets
//
// A dataset is the []Row parsed from review text by [Parse]. The header must
// name the columns in [RequiredColumns]; a file without them parses to an
// empty slice and [ValidateHeader] says which column is missing. Datasets are
// replaced wholesale on upload and never edited in place.
//
// # Views
//
// [DeriveView] turns a dataset and [Criteria] into a [ViewState]: the
// filtered and sorted rows, the current page window of [RowsPerPage] rows
// and the [Aggregates] computed over all filtered rows. A [Workspace] holds
// one user's dataset and criteria and keeps the view current:
//
//	ws := core.NewWorkspace()
//	ws.Load("reviews.csv", core.Parse(text))
//	v := ws.Apply(core.Criteria{Sentiment: core.SentimentNegative, SortKey: core.SortRating})
//	v = ws.NextPage()
//
// Changing the dataset or the criteria returns to page 1. Page moves only
// re-slice the existing view.
//
// # Uploads
//
// [Service.UploadDataset] runs as named stages through [RunStages]: fetch a
// token, store the file in the repository, then parse it. A failure reports
// the stage it happened in via [FailedStage]. A stored copy is deleted
// afterwards whether or not parsing succeeded, and uploads beyond the
// concurrency limit wait in [UploadLimiter].
//
// # Links
//
// Button pages are stored as a JSON index in the repository.
// [Service.GenerateLink] appends to it with optimistic concurrency on the
// file SHA, and [Service.ResolveLink] serves recent links from a cache.
//
// # Error Handling
//
// Technical errors are mapped to user-facing messages with [MapError]. Each
// category has a code for support reference:
//
//   - AUTH001-AUTH003: login and session errors
//   - DATA001-DATA002: unusable datasets
//   - FILE001-FILE003: file size, type and presence
//   - GH001-GH004: repository storage errors
//   - LINK001-LINK003: link validation and lookup
//   - UPL002-UPL005: upload timeouts, cancellation and capacity
//   - RATE001, REQ001: request limits and malformed requests
//
// # Audit Logging
//
// Logins, link creation and dataset operations are recorded through an
// [AuditSink] with a severity:
//
//   - Low: logout, export
//   - Medium: link creation, filter reset, rejected uploads
//   - High: dataset uploads, failed logins
//
// Entries older than the retention period are purged by
// [Service.StartRetentionScheduler].
package core
