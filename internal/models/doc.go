// Package models defines the domain models for the shared-expense ledger.
//
// # Ledger Entries
//
// The ledger is append-only. Entries are never updated or deleted:
//   - Expense: a payment by one member on behalf of some participants
//   - Split: one participant's share of an Expense
//   - Settlement: a direct payment from one member to another
//
// # Derived Values
//
// Balances and settlement plans are never stored. They are folded from a
// Ledger snapshot on every query (see package calculator):
//   - MemberBalance: signed net position of a member
//   - Transfer: one proposed payment in a settlement plan
//
// # Amounts
//
// Every monetary amount is an int64 number of cents. There is no floating
// point anywhere in the ledger.
//
// # Relationships
//
// Entries refer to groups and members by ID string rather than by pointer,
// so a snapshot can be copied and compared freely.
package models
