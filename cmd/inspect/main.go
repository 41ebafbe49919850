// Command inspect dumps keys from a game store for offline debugging.
// The server must not hold the store open at the same time.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/VulcanWM/threadofclues/pkg/store"
)

func main() {
	var dbPath, prefix string
	var values bool
	flag.StringVar(&dbPath, "db", "./.database", "path to the pebble store")
	flag.StringVar(&prefix, "prefix", "", "key prefix to list (empty for all)")
	flag.BoolVar(&values, "values", false, "print values alongside keys")
	flag.Parse()

	kv, err := store.Open(dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open %s: %v\n", dbPath, err)
		os.Exit(2)
	}
	defer kv.Close()

	keys, err := kv.ListKeys(prefix)
	if err != nil {
		fmt.Fprintf(os.Stderr, "list: %v\n", err)
		os.Exit(1)
	}
	for _, k := range keys {
		if !values {
			fmt.Println(k)
			continue
		}
		v, err := kv.Get(k)
		if err != nil {
			fmt.Printf("%s\t<%v>\n", k, err)
			continue
		}
		fmt.Printf("%s\t%s\n", k, v)
	}
	fmt.Fprintf(os.Stderr, "%d keys\n", len(keys))
}
