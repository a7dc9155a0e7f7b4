// pakdb-cat inspects pakdb artifacts from the command line: descriptive
// metadata, total size, registered index keys, and the raw pointer
// results of a query, without needing the producer's item types.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v2"

	"github.com/rpcpool/pakdb"
	"github.com/rpcpool/pakdb/pointer"
	"github.com/rpcpool/pakdb/query"
	"github.com/rpcpool/pakdb/value"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		interrupt := make(chan os.Signal, 1)
		signal.Notify(interrupt, syscall.SIGTERM, syscall.SIGINT)
		select {
		case <-interrupt:
			fmt.Println()
			slog.Info("received interrupt signal")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(interrupt)
	}()

	app := &cli.App{
		Name:        "pakdb-cat",
		Usage:       "Inspect pakdb artifacts.",
		Description: "Print metadata, index keys and query results of a pakdb artifact.",
		Commands: []*cli.Command{
			newCmdInfo(),
			newCmdQuery(),
		},
	}
	if err := app.RunContext(ctx, os.Args); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func newCmdInfo() *cli.Command {
	return &cli.Command{
		Name:      "info",
		Usage:     "Print an artifact's metadata, total size and index keys.",
		ArgsUsage: "<artifact>",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return cli.Exit("expected exactly one artifact path", 1)
			}
			r, err := pakdb.Open(c.Args().First())
			if err != nil {
				return err
			}
			defer r.Close()

			fmt.Printf("Name: %s\n", r.Name())
			fmt.Printf("Version: %s\n", r.Version())
			fmt.Printf("Author: %s\n", r.Author())
			fmt.Printf("Description: %s\n", r.Description())
			if id, ok := r.InstanceID(); ok {
				fmt.Printf("Instance ID: %s\n", id)
			}
			for _, attr := range r.Attrs().KeyVals {
				fmt.Printf("Attr %s: %q\n", attr.Key, attr.Value)
			}
			fmt.Printf("Size: %s (%d bytes)\n", humanize.Bytes(r.Size()), r.Size())

			keys, err := r.Keys()
			if err != nil {
				return err
			}
			fmt.Printf("Indexed keys (%d):\n", len(keys))
			for _, key := range keys {
				fmt.Printf("  %s\n", key)
			}
			return nil
		},
	}
}

func newCmdQuery() *cli.Command {
	return &cli.Command{
		Name:      "query",
		Usage:     "Run one predicate against an artifact and print the matching pointers.",
		ArgsUsage: "<artifact>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "index",
				Usage:    "index key to query",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "op",
				Usage: "predicate: eq, lt, lte, gt, gte",
				Value: "eq",
			},
			&cli.StringFlag{
				Name:     "value",
				Usage:    "query argument",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "type",
				Usage: "query argument type: string, int, uint, float, bool",
				Value: "string",
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return cli.Exit("expected exactly one artifact path", 1)
			}
			arg, err := parseValue(c.String("type"), c.String("value"))
			if err != nil {
				return err
			}
			expr, err := buildExpr(c.String("op"), c.String("index"), arg)
			if err != nil {
				return err
			}

			r, err := pakdb.Open(c.Args().First())
			if err != nil {
				return err
			}
			defer r.Close()

			ptrs, err := r.QueryPointers(expr)
			if err != nil {
				return err
			}
			fmt.Printf("%d matching pointers:\n", len(ptrs))
			for _, ptr := range ptrs {
				printPointer(ptr)
			}
			return nil
		},
	}
}

func buildExpr(op, key string, arg value.Value) (query.Expr, error) {
	switch op {
	case "eq":
		return query.Equal(key, arg), nil
	case "lt":
		return query.LessThan(key, arg), nil
	case "lte":
		return query.LessThanOrEqual(key, arg), nil
	case "gt":
		return query.GreaterThan(key, arg), nil
	case "gte":
		return query.GreaterThanOrEqual(key, arg), nil
	default:
		return nil, fmt.Errorf("unknown op %q (want eq, lt, lte, gt or gte)", op)
	}
}

func parseValue(typ, raw string) (value.Value, error) {
	switch typ {
	case "string":
		return value.String(raw), nil
	case "int":
		i, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return value.Value{}, fmt.Errorf("parse int %q: %w", raw, err)
		}
		return value.Int(i), nil
	case "uint":
		u, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return value.Value{}, fmt.Errorf("parse uint %q: %w", raw, err)
		}
		return value.Uint(u), nil
	case "float":
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return value.Value{}, fmt.Errorf("parse float %q: %w", raw, err)
		}
		return value.Float(f), nil
	case "bool":
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return value.Value{}, fmt.Errorf("parse bool %q: %w", raw, err)
		}
		return value.Bool(b), nil
	default:
		return value.Value{}, fmt.Errorf("unknown value type %q (want string, int, uint, float or bool)", typ)
	}
}

func printPointer(ptr pointer.Pointer) {
	typeName := ptr.TypeName()
	if typeName == "" {
		typeName = "(untyped)"
	}
	fmt.Printf("  offset=%d size=%s type=%s\n", ptr.Offset, humanize.Bytes(ptr.Size), typeName)
}
