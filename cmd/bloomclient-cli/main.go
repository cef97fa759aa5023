package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pior/bloomclient"
	"github.com/pior/bloomclient/protocol"
)

func main() {
	addr := flag.String("addr", "localhost:8673", "bloom-filter service address")
	flag.Parse()

	fmt.Println("Bloom Filter CLI")
	fmt.Println("================")
	fmt.Println("Commands: create <filter> [capacity] [prob], check <filter> <item>, set <filter> <item>,")
	fmt.Println("          bulk <filter> <item...>, multi <filter> <item...>, drop <filter>, close <filter>,")
	fmt.Println("          clear <filter>, flush [filter], list [prefix], info <filter>, quit")
	fmt.Println()

	client, err := bloomclient.NewClient(bloomclient.Config{Addr: *addr})
	if err != nil {
		fmt.Printf("Failed to create client: %v\n", err)
		os.Exit(1)
	}
	defer client.Dispose()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}

		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}

		command := strings.ToLower(parts[0])
		ctx := context.Background()

		switch command {
		case "create":
			if len(parts) < 2 {
				fmt.Println("Usage: create <filter> [capacity] [prob]")
				continue
			}
			handleCreate(ctx, client, parts[1:])

		case "check":
			if len(parts) != 3 {
				fmt.Println("Usage: check <filter> <item>")
				continue
			}
			handleCheck(ctx, client, parts[1], parts[2])

		case "set":
			if len(parts) != 3 {
				fmt.Println("Usage: set <filter> <item>")
				continue
			}
			handleSet(ctx, client, parts[1], parts[2])

		case "bulk":
			if len(parts) < 3 {
				fmt.Println("Usage: bulk <filter> <item...>")
				continue
			}
			handleBulk(ctx, client, parts[1], parts[2:])

		case "multi":
			if len(parts) < 3 {
				fmt.Println("Usage: multi <filter> <item...>")
				continue
			}
			handleMulti(ctx, client, parts[1], parts[2:])

		case "drop":
			if len(parts) != 2 {
				fmt.Println("Usage: drop <filter>")
				continue
			}
			handleDrop(ctx, client, parts[1])

		case "close":
			if len(parts) != 2 {
				fmt.Println("Usage: close <filter>")
				continue
			}
			handleClose(ctx, client, parts[1])

		case "clear":
			if len(parts) != 2 {
				fmt.Println("Usage: clear <filter>")
				continue
			}
			handleClear(ctx, client, parts[1])

		case "flush":
			filter := ""
			if len(parts) > 1 {
				filter = parts[1]
			}
			handleFlush(ctx, client, filter)

		case "list":
			prefix := ""
			if len(parts) > 1 {
				prefix = parts[1]
			}
			handleList(ctx, client, prefix)

		case "info":
			if len(parts) != 2 {
				fmt.Println("Usage: info <filter>")
				continue
			}
			handleInfo(ctx, client, parts[1])

		case "stats":
			s := client.Stats()
			fmt.Printf("state=%s sent=%d errors=%d attempts=%d\n", s.State, s.CommandsSent, s.Errors, s.ConnectionAttempts)

		case "reconnect":
			client.Reconnect()

		case "quit", "exit":
			fmt.Println("Goodbye!")
			return

		default:
			fmt.Printf("Unknown command: %s\n", command)
		}
	}
}

func handleCreate(ctx context.Context, client *bloomclient.Client, args []string) {
	opts := protocol.CreateOptions{}
	if len(args) > 1 {
		if v, err := strconv.ParseUint(args[1], 10, 64); err == nil {
			opts.Capacity = v
		}
	}
	if len(args) > 2 {
		if v, err := strconv.ParseFloat(args[2], 64); err == nil {
			opts.Probability = v
		}
	}

	start := time.Now()
	err := client.Create(ctx, args[0], opts)
	report("create", err, time.Since(start))
}

func handleCheck(ctx context.Context, client *bloomclient.Client, filter, item string) {
	start := time.Now()
	found, err := client.Check(ctx, filter, item)
	if err != nil {
		report("check", err, time.Since(start))
		return
	}
	fmt.Printf("%v (took %v)\n", found, time.Since(start))
}

func handleSet(ctx context.Context, client *bloomclient.Client, filter, item string) {
	start := time.Now()
	err := client.Set(ctx, filter, item)
	report("set", err, time.Since(start))
}

func handleBulk(ctx context.Context, client *bloomclient.Client, filter string, items []string) {
	start := time.Now()
	results, err := client.Bulk(ctx, filter, items)
	if err != nil {
		report("bulk", err, time.Since(start))
		return
	}
	fmt.Printf("%v (took %v)\n", results, time.Since(start))
}

func handleMulti(ctx context.Context, client *bloomclient.Client, filter string, items []string) {
	start := time.Now()
	results, err := client.Multi(ctx, filter, items)
	if err != nil {
		report("multi", err, time.Since(start))
		return
	}
	fmt.Printf("%v (took %v)\n", results, time.Since(start))
}

func handleDrop(ctx context.Context, client *bloomclient.Client, filter string) {
	start := time.Now()
	err := client.Drop(ctx, filter)
	report("drop", err, time.Since(start))
}

func handleClose(ctx context.Context, client *bloomclient.Client, filter string) {
	start := time.Now()
	err := client.Close(ctx, filter)
	report("close", err, time.Since(start))
}

func handleClear(ctx context.Context, client *bloomclient.Client, filter string) {
	start := time.Now()
	err := client.Clear(ctx, filter)
	report("clear", err, time.Since(start))
}

func handleFlush(ctx context.Context, client *bloomclient.Client, filter string) {
	start := time.Now()
	err := client.Flush(ctx, filter)
	report("flush", err, time.Since(start))
}

func handleList(ctx context.Context, client *bloomclient.Client, prefix string) {
	start := time.Now()
	filters, err := client.List(ctx, prefix)
	if err != nil {
		report("list", err, time.Since(start))
		return
	}
	for _, f := range filters {
		fmt.Printf("  %s  size=%d capacity=%d prob=%v\n", f.Name, f.Size, f.Capacity, f.Probability)
	}
	fmt.Printf("%d filters (took %v)\n", len(filters), time.Since(start))
}

func handleInfo(ctx context.Context, client *bloomclient.Client, filter string) {
	start := time.Now()
	info, err := client.Info(ctx, filter)
	if err != nil {
		report("info", err, time.Since(start))
		return
	}
	fmt.Printf("capacity=%d size=%d prob=%v storage=%d checks=%d sets=%d (took %v)\n",
		info.Capacity, info.Size, info.Probability, info.Storage, info.Checks, info.Sets, time.Since(start))
}

func report(op string, err error, d time.Duration) {
	if err != nil {
		fmt.Printf("%s: error: %v (took %v)\n", op, err, d)
		return
	}
	fmt.Printf("%s: ok (took %v)\n", op, d)
}
