// Package ledger provides the append-only CSV history of observed backlog statuses.
//
// Each run produces one Row. A row is only appended when it differs from the last
// stored row on the compared columns, which by default are every column except
// retrieved_at, so repeated runs against an unchanged page leave the file untouched.
// The file starts with the header retrieved_at,stand_date,status_text,target_date and
// rows are never rewritten or removed. The default location is results.csv.
package ledger
