// Package main provides a command-line utility to list and inspect the
// contents of a DBPF package archive.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"

	"github.com/scigolib/dbpf"
)

func main() {
	resourceHex := flag.String("resource", "", "dump the payload of a single T!G!I (hex, e.g. 0166038C!00000000!1) to stdout")
	flag.Parse()

	args := flag.Args()
	if len(args) < 1 {
		fmt.Println("Usage: dbpfdump [flags] <file.package>")
		fmt.Println("Flags:")
		flag.PrintDefaults()
		return
	}

	ctx := context.Background()
	pkg, err := dbpf.Open(ctx, args[0], false, dbpf.DefaultConfig())
	if err != nil {
		log.Fatalf("open failed: %v", err)
	}
	defer func() {
		if err := pkg.Close(); err != nil {
			log.Printf("close failed: %v", err)
		}
	}()
	slog.Debug("opened package", "path", args[0], "entries", len(pkg.Entries()))

	if *resourceHex != "" {
		key, err := parseKey(*resourceHex)
		if err != nil {
			log.Fatalf("bad -resource value: %v", err)
		}
		entry, ok := pkg.Find(key)
		if !ok {
			log.Fatalf("no entry with key %s", key)
		}
		payload, err := pkg.Payload(ctx, entry)
		if err != nil {
			log.Fatalf("payload read failed: %v", err)
		}
		hexDump(payload)
		return
	}

	entries := pkg.Entries()
	fmt.Printf("%d entries:\n", len(entries))
	for _, e := range entries {
		compressed := ""
		if e.IsCompressed() {
			compressed = " (compressed)"
		}
		fmt.Printf("%s  offset=%d file_size=%d memory_size=%d%s\n",
			e.Key, e.ChunkOffset, e.FileSize, e.MemorySize, compressed)
	}
}

func parseKey(s string) (dbpf.ResourceKey, error) {
	var typ, group uint32
	var inst uint64
	n, err := fmt.Sscanf(s, "%x!%x!%x", &typ, &group, &inst)
	if err != nil || n != 3 {
		return dbpf.ResourceKey{}, fmt.Errorf("expected T!G!I hex triple, got %q", s)
	}
	return dbpf.NewResourceKey(typ, group, inst), nil
}

func hexDump(buf []byte) {
	for i := 0; i < len(buf); i += 16 {
		end := i + 16
		if end > len(buf) {
			end = len(buf)
		}
		chunk := buf[i:end]

		fmt.Printf("%08x: ", i)
		for j := 0; j < 16; j++ {
			if j < len(chunk) {
				fmt.Printf("%02x ", chunk[j])
			} else {
				fmt.Print("   ")
			}
			if j == 7 {
				fmt.Print(" ")
			}
		}
		fmt.Print(" |")
		for _, b := range chunk {
			if b >= 32 && b <= 126 {
				fmt.Printf("%c", b)
			} else {
				fmt.Print(".")
			}
		}
		fmt.Println("|")
	}
}
