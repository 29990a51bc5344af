// Package event defines the shared vocabulary of the scheduling engine:
// transaction types, the GeneratedTransaction output record, counterparty
// records, business keys, and the simulated day phases.
//
// Every generator in this module produces GeneratedTransaction values and
// nothing else; the external driver owns turning them into ledger records.
package event
