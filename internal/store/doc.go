// Package store provides SQLite-backed storage for facet instances.
//
// Each row maps a (kind, key) pair to a JSON payload. The key is the wire
// token of a facet value, so a facet bound with an Integer type finds the
// row stored under "3" when the value is 3.
//
// Mapper exposes one kind as a facet.Mapper: resolving every value of a
// response costs one SELECT per kind (chunked for very large facets).
//
// Open sets journal_mode=WAL, synchronous=NORMAL and a 5s busy timeout,
// then upgrades the schema by user_version.
//
// Queries order by kind, then key COLLATE BINARY, so listings are
// deterministic.
package store
