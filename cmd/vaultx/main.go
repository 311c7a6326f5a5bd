// vaultx builds a sorted on-disk table of (BLAKE3 hash, nonce) records.
//
// It generates 2^K records with parallel hashing, externally sorts them
// under a memory budget, and k-way merges the intermediate runs into a
// single sorted file.
//
// Usage:
//
//	vaultx -k 26 -m 256 -t 8 -f output.bin -v true
//	vaultx --exponent 14 --memory 2 --file_final /tmp/sort -p 10
//
// The --approach, --iothreads, --compression, --batch-size and --search
// flags are accepted for interface stability but do not change behavior.
package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"runtime"

	"github.com/urfave/cli/v2"

	"github.com/tamirms/hashvault"
)

func main() {
	app := &cli.App{
		Name:            "vaultx",
		Usage:           "build a sorted table of BLAKE3 records",
		HideHelpCommand: true,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "approach", Aliases: []string{"a"}, Value: "for",
				Usage: "parallelization approach (task|for); only 'for' is realized"},
			&cli.IntFlag{Name: "threads", Aliases: []string{"t"}, Value: 0,
				Usage: "generator threads (0 = logical CPU count)"},
			&cli.IntFlag{Name: "iothreads", Aliases: []string{"i"}, Value: 1,
				Usage: "reserved for a dedicated I/O thread pool"},
			&cli.IntFlag{Name: "compression", Aliases: []string{"c"}, Value: 0,
				Usage: "reserved; validated but inert"},
			&cli.IntFlag{Name: "exponent", Aliases: []string{"k"}, Value: 26,
				Usage: "total records = 2^K"},
			&cli.IntFlag{Name: "memory", Aliases: []string{"m"}, Value: 256,
				Usage: "memory budget in MB for run buffers"},
			&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Value: "output.bin",
				Usage: "final output path"},
			&cli.StringFlag{Name: "file_final", Aliases: []string{"g"}, Value: "temp",
				Usage: "temp prefix; runs are named <PREFIX>.run<idx>"},
			&cli.Uint64Flag{Name: "batch-size", Aliases: []string{"b"}, Value: 262144,
				Usage: "reserved tuning knob; surfaced in the config banner"},
			&cli.Uint64Flag{Name: "print", Aliases: []string{"p"}, Value: 0,
				Usage: "print the first N records of the final file"},
			&cli.Uint64Flag{Name: "search", Aliases: []string{"s"}, Value: 0,
				Usage: "reserved; searching is searchx's job"},
			&cli.IntFlag{Name: "difficulty", Aliases: []string{"q"}, Value: 3,
				Usage: "reserved for search"},
			&cli.StringFlag{Name: "verify", Aliases: []string{"v"}, Value: "false",
				Usage: "post-build verification of sort order (true|false)"},
			&cli.StringFlag{Name: "debug", Aliases: []string{"d"}, Value: "false",
				Usage: "per-run progress lines on stderr (true|false)"},
		},
		Action: run,
	}
	// ExitCoder errors terminate inside Run; anything that reaches here
	// is a flag parse failure.
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		fmt.Fprintln(os.Stderr, "Usage: vaultx [OPTIONS]; see vaultx --help")
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	exponent := max(1, c.Int("exponent"))
	memMB := max(1, c.Int("memory"))
	ioThreads := max(1, c.Int("iothreads"))
	batch := c.Uint64("batch-size")
	if batch < 1 {
		batch = 1
	}
	threads := c.Int("threads")
	if threads <= 0 {
		threads = runtime.NumCPU()
	}
	compression := c.Int("compression")
	if compression < 0 || compression > hashvault.HashSize {
		fmt.Fprintf(os.Stderr, "Invalid --compression; must be 0..%d\n", hashvault.HashSize)
		return cli.Exit("", 1)
	}
	output := c.String("file")
	tempPrefix := c.String("file_final")
	verify := c.String("verify") == "true"
	debug := c.String("debug") == "true"

	printConfig(c.String("approach"), threads, exponent, memMB, batch, tempPrefix, output)

	opts := []hashvault.BuildOption{
		hashvault.WithMemoryBudget(memMB),
		hashvault.WithThreads(threads),
		hashvault.WithTempPrefix(tempPrefix),
	}
	if debug {
		opts = append(opts, hashvault.WithProgress(os.Stderr))
	}

	stats, err := hashvault.Build(context.Background(), output, exponent, opts...)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	totalSec := stats.Elapsed.Seconds()
	if totalSec <= 0 {
		totalSec = 1e-9
	}
	mhPerSec := float64(stats.TotalRecords) / 1e6 / totalSec
	mbPerSec := float64(stats.TotalRecords) * hashvault.RecordSize / (1024 * 1024) / totalSec

	if verify {
		res, err := hashvault.VerifySorted(output)
		if err != nil {
			return cli.Exit(err.Error(), 1)
		}
		status := "OK"
		if !res.OK {
			status = "FAIL"
		}
		fmt.Printf("verify: %s read_MBps=%.2f\n", status, res.ReadMBps)
		if debug {
			fmt.Printf("verify: checksum=%016x fingerprint=%016x\n", res.Checksum, res.Fingerprint)
		}
	}
	if n := c.Uint64("print"); n > 0 {
		if err := hashvault.PrintRecords(os.Stdout, output, n); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
	}

	fmt.Printf("vaultx t%d i%d m%d k%d %.2f %.2f %.6f\n",
		threads, ioThreads, memMB, exponent, mhPerSec, mbPerSec, totalSec)
	return nil
}

func printConfig(approach string, threads, exponent, memMB int, batch uint64, tempPrefix, output string) {
	fileRecs := math.Pow(2, float64(exponent))
	targetBytes := fileRecs * hashvault.RecordSize
	targetGB := targetBytes / (1024 * 1024 * 1024)

	fmt.Printf("Selected Approach : %s\n", approach)
	fmt.Printf("Number of Threads : %d\n", threads)
	fmt.Printf("Exponent K : %d\n", exponent)
	fmt.Printf("File Size (GB) : %.2f\n", targetGB)
	fmt.Printf("File Size (bytes) : %.0f\n", targetBytes)
	fmt.Printf("Memory Size (MB) : %d\n", memMB)
	fmt.Printf("Memory Size (bytes) : %d\n", uint64(memMB)*1024*1024)
	fmt.Printf("Size of HASH : %d\n", hashvault.HashSize)
	fmt.Printf("Size of NONCE : %d\n", hashvault.NonceSize)
	fmt.Printf("Size of MemoRecord : %d\n", hashvault.RecordSize)
	fmt.Printf("BATCH_SIZE : %d\n", batch)
	fmt.Printf("Temporary File Prefix : %s\n", tempPrefix)
	fmt.Printf("Final Output File : %s\n", output)
}
