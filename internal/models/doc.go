// Package models defines the domain types shared by the Verdant backend and
// the offline-first client.
//
// # Backend models
//
// Group, Member, Expense, Reaction, Message, Goal and Contribution mirror the
// rows of the relational backend. Timestamps are Unix milliseconds and money
// amounts are decimal.Decimal so that a snapshot serialized into the client
// cache reads back exactly as it was written.
//
// # Client-local models
//
// Transaction and Reminder only ever live in the client's local database.
// They use time.Time because all of their logic is date arithmetic.
//
// # Change notifications
//
// ChangeEvent is what the realtime channel delivers. It names the table and
// the kind of change; subscribers refetch the whole list for that table
// rather than applying the row.
package models
