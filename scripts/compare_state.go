//go:build ignore

package main

import (
	"fmt"
	"os"

	"ClaimChain/internal/claims"
	"ClaimChain/internal/state"
	"ClaimChain/internal/storage"
)

func main() {
	if len(os.Args) != 3 {
		fmt.Fprintf(os.Stderr, "Usage: %s <db1_path> <db2_path>\n", os.Args[0])
		os.Exit(1)
	}

	db1Path := os.Args[1]
	db2Path := os.Args[2]

	db1, err := storage.New(db1Path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db1: %v\n", err)
		os.Exit(1)
	}
	defer db1.Close()

	db2, err := storage.New(db2Path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db2: %v\n", err)
		os.Exit(1)
	}
	defer db2.Close()

	claims1 := collectClaims(db1)
	claims2 := collectClaims(db2)

	height1, _ := state.NewJournal(db1).Height()
	height2, _ := state.NewJournal(db2).Height()

	fmt.Printf("DB1 (%s): %d claims at height %d\n", db1Path, len(claims1), height1)
	fmt.Printf("DB2 (%s): %d claims at height %d\n", db2Path, len(claims2), height2)

	missing1, missing2, different := compare(claims1, claims2)

	if len(missing1) == 0 && len(missing2) == 0 && len(different) == 0 {
		fmt.Println("\nStates are identical")
		os.Exit(0)
	}

	fmt.Println("\nStates differ:")

	if len(missing1) > 0 {
		fmt.Printf("  - Claims in DB1 but not in DB2: %d\n", len(missing1))
		for _, fp := range missing1 {
			fmt.Printf("      %s\n", fp)
		}
	}

	if len(missing2) > 0 {
		fmt.Printf("  - Claims in DB2 but not in DB1: %d\n", len(missing2))
		for _, fp := range missing2 {
			fmt.Printf("      %s\n", fp)
		}
	}

	if len(different) > 0 {
		fmt.Printf("  - Claims with different owner or timestamp: %d\n", len(different))
		for _, fp := range different {
			fmt.Printf("      %s: %s@%d vs %s@%d\n", fp,
				claims1[fp].Owner.Short(), claims1[fp].Timestamp,
				claims2[fp].Owner.Short(), claims2[fp].Timestamp)
		}
	}

	os.Exit(1)
}

func collectClaims(db *storage.Storage) map[claims.Fingerprint]claims.Record {
	entries, err := state.NewClaimStore(db).Export()
	if err != nil {
		fmt.Fprintf(os.Stderr, "export claims: %v\n", err)
		os.Exit(1)
	}

	result := make(map[claims.Fingerprint]claims.Record, len(entries))
	for _, e := range entries {
		result[e.Fingerprint] = e.Record
	}

	return result
}

func compare(c1, c2 map[claims.Fingerprint]claims.Record) (missing1, missing2, different []claims.Fingerprint) {
	for fp := range c1 {
		if _, ok := c2[fp]; !ok {
			missing1 = append(missing1, fp)
		}
	}

	for fp := range c2 {
		if _, ok := c1[fp]; !ok {
			missing2 = append(missing2, fp)
		}
	}

	for fp, r1 := range c1 {
		if r2, ok := c2[fp]; ok && r1 != r2 {
			different = append(different, fp)
		}
	}

	return
}
