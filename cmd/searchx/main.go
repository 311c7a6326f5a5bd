// searchx answers random prefix-range queries against a sorted record
// file using on-disk binary search, and reports match counts together
// with full I/O accounting (seeks, comparisons, successful reads).
//
// Usage:
//
//	searchx -f output.bin -s 1000 -q 3
//	searchx --file output.bin --searches 100 --difficulty 2 -d true
//
// The -k flag is informational; the record count always derives from the
// file size.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/tamirms/hashvault"
)

const usageLine = "Usage: searchx -k K -f FILE -s N -q D [-d true|false]"

func main() {
	app := &cli.App{
		Name:            "searchx",
		Usage:           "query a sorted table of BLAKE3 records",
		HideHelpCommand: true,
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "k", Value: 26,
				Usage: "informational exponent; the file size dictates the record count"},
			&cli.StringFlag{Name: "file", Aliases: []string{"f"},
				Usage: "record file to search (required)"},
			&cli.Uint64Flag{Name: "searches", Aliases: []string{"s"}, Value: 1000,
				Usage: "number of random queries"},
			&cli.IntFlag{Name: "difficulty", Aliases: []string{"q"}, Value: 3,
				Usage: "prefix length in bytes, clamped to [1, HashSize]"},
			&cli.StringFlag{Name: "debug", Aliases: []string{"d"}, Value: "false",
				Usage: "one-line result per query (true|false)"},
		},
		Action: run,
	}
	// ExitCoder errors terminate inside Run; anything that reaches here
	// is a flag parse failure.
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, usageLine)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	path := c.String("file")
	if path == "" {
		fmt.Fprintln(os.Stderr, "Missing -f FILE")
		return cli.Exit("", 1)
	}
	searches := c.Uint64("searches")
	diff := max(1, c.Int("difficulty"))
	if diff > hashvault.HashSize {
		diff = hashvault.HashSize
	}
	debug := c.String("debug") == "true"

	tbl, err := hashvault.Open(path)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	defer tbl.Close()

	if debug {
		fmt.Printf("searches=%d difficulty=%d\n", searches, diff)
		fmt.Printf("Hash Size : %d  Nonce Size : %d  Rec Size : %d\n",
			hashvault.HashSize, hashvault.NonceSize, hashvault.RecordSize)
		fmt.Printf("Number of Hashes : %d  File Size : %d bytes\n",
			tbl.NumRecords(), tbl.Size())
	}
	var debugW io.Writer
	if debug {
		debugW = os.Stdout
	}

	sum, err := hashvault.RunSearches(tbl, hashvault.SearchConfig{
		Count:      searches,
		Difficulty: diff,
		Debug:      debugW,
	})
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	printSummary(sum)
	return nil
}

func printSummary(sum *hashvault.SearchSummary) {
	totalSec := sum.Elapsed.Seconds()
	n := float64(sum.Performed)

	var avgMS, qps, avgSeeks, avgComps, avgBytes float64
	if sum.Performed > 0 {
		avgMS = totalSec * 1000 / n
		avgSeeks = float64(sum.Probes.Seeks) / n
		avgComps = float64(sum.Probes.Comps) / n
		avgBytes = float64(sum.Probes.BytesRead()) / n
	}
	if totalSec > 0 {
		qps = n / totalSec
	}

	fmt.Printf("Search Summary: requested=%d performed=%d found_queries=%d total_matches=%d notfound=%d\n",
		sum.Requested, sum.Performed, sum.Found, sum.TotalMatches, sum.NotFound)
	fmt.Printf("total_time=%.6f s avg_ms=%.3f ms searches/sec=%.2f total_seeks=%d\n",
		totalSec, avgMS, qps, sum.Probes.Seeks)
	fmt.Printf("avg_seeks_per_search=%.3f total_comps=%d avg_comps_per_search=%.3f\n",
		avgSeeks, sum.Probes.Comps, avgComps)
	fmt.Printf("avg_bytes_read_per_search=%.1f\n", avgBytes)
}
