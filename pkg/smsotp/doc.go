// Package smsotp issues and verifies short-lived SMS authorization codes
// bound to an operation.
//
// Issuing derives a short numeric code from the canonical transaction fields
// (amount, currency, account) keyed with a fresh random salt, renders the
// localized outbound message, and persists the record. Verification compares
// the submitted code literally against the stored one and enforces expiry and
// a per-message attempt budget; the attempt counter is incremented before any
// check so that every attempt counts.
//
// The salt is retained for audit only; it plays no role in verification.
package smsotp
