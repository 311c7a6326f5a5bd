// Package hashvault builds and queries large on-disk tables of fixed-size
// records keyed by a truncated BLAKE3 hash.
//
// A table holds 2^K records of the form (hash, nonce), sorted ascending by
// unsigned lexicographic comparison of the hash bytes. Tables are produced
// by a bounded-memory external merge sort and queried with on-disk binary
// search over positional reads, with full I/O accounting.
//
// # Building a table
//
//	stats, err := hashvault.Build(ctx, "output.bin", 26,
//	    hashvault.WithMemoryBudget(256),
//	    hashvault.WithThreads(8))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("wrote %d records in %d runs\n", stats.TotalRecords, stats.Runs)
//
// # Querying a table
//
//	tbl, err := hashvault.Open("output.bin")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer tbl.Close()
//
//	var p hashvault.Probes
//	matches, _, _ := tbl.PrefixRange([]byte{0xde, 0xad, 0xbe}, &p)
//	fmt.Printf("%d matches in %d seeks\n", matches, p.Seeks)
//
// # Package Structure
//
// The implementation is organized as follows:
//
//   - Record format: record.go (Record, size constants), hash.go (HashRecord)
//   - Builder: build.go (Build), build_options.go (BuildOption, With* functions),
//     producer.go (run production), merge.go + heap.go (k-way merge)
//   - Verification: verify.go (VerifySorted), print.go (PrintRecords)
//   - Search: search.go (Open, Table, bounds), query.go (RunSearches)
//   - Platform: fadvise_*.go, fallocate_*.go (OS-specific I/O hints)
//
// The command-line tools live in cmd/vaultx (builder) and cmd/searchx
// (searcher).
package hashvault
