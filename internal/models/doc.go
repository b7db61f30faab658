// Package models defines the persisted domain models for subsplit.
//
// # Models
//
//   - Subscription: a shared recurring cost split evenly across a fixed member list
//   - PaymentRecord: one member's paid/unpaid status for one subscription
//   - Ledger: the whole persisted state (subscriptions, groups, payments)
//
// Members and groups are opaque string identifiers assigned by the chat platform.
// Display names are resolved by the command layer, never stored here.
//
// # Persisted layout
//
// A Ledger serializes to a single JSON object with three named mappings:
//
//	{
//	  "subscriptions": { "<key>": { "name": ..., "group_id": ..., ... } },
//	  "groups":        { },
//	  "payments":      { "<key>_<member>": { "paid": false, "last_payment": null } }
//	}
//
// The "groups" mapping is reserved. It is carried through load and save untouched.
package models
