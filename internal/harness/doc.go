// Package harness runs declarative simulation scenarios.
//
// A scenario is a YAML file naming a personas directory, a calendar window,
// and a seed, plus assertions over the journaled entries. Scenarios give a
// stable, reviewable way to pin down end-to-end behavior: load, run, assert,
// and optionally compare the entry trace against a golden file.
//
// Assertions operate on the in-memory entry trace, not the database, so
// scenarios run without touching disk.
package harness
