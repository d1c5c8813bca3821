// Package models defines the persisted entities of SplitLedger.
//
// # Subsystems
//
// Two independent ledgers share the users table:
//   - Splitting: Group, GroupUser, Bill, BillSplit, PaymentRequest
//   - Business: Business, Customer, Transaction, BusinessUser
//
// # Conventions
//
//  1. IDs are int64 and assigned by the database.
//  2. Relationships are held as IDs, never pointers.
//  3. Money is decimal.Decimal; it serializes as a JSON number.
//  4. Instants are Timestamp (unix seconds); calendar dates are
//     "YYYY-MM-DD" strings.
//
// Struct tags carry both the column name (db) and the wire name (json),
// so a row scanned by sqlx can be written to a response unchanged.
package models
