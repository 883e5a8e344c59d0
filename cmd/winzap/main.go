package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"winzap/internal/client"
)

const defaultServer = "http://localhost:3000"

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	ctx := context.Background()
	var err error

	switch os.Args[1] {
	case "upload":
		err = runUpload(ctx, os.Args[2:])
	case "list":
		err = runList(ctx, os.Args[2:])
	case "download":
		err = runDownload(ctx, os.Args[2:])
	case "delete":
		err = runDelete(ctx, os.Args[2:])
	case "stats":
		err = runStats(ctx, os.Args[2:])
	default:
		usage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: winzap <command> [flags]

commands:
  upload    -title T -description D [-category C] -cover IMG <file>
  list      [-search S] [-category C] [-limit N] [-offset N]
  download  -out PATH <id>
  delete    -password P <id>
  stats`)
}

func runUpload(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("upload", flag.ExitOnError)
	server := fs.String("server", defaultServer, "server base URL")
	title := fs.String("title", "", "file title")
	description := fs.String("description", "", "file description")
	category := fs.String("category", "", "file category")
	cover := fs.String("cover", "", "cover image path")
	fs.Parse(args)

	if fs.NArg() != 1 {
		return fmt.Errorf("upload needs exactly one payload file")
	}

	parsed, err := client.ParseUploadArgs(*title, *description, *category, *cover, fs.Arg(0))
	if err != nil {
		return err
	}

	entry, err := client.New(*server).Upload(ctx, parsed)
	if err != nil {
		return err
	}

	fmt.Printf("✓ Uploaded %s\n", entry.Title)
	fmt.Printf("  id:   %s\n", entry.ID)
	fmt.Printf("  size: %s\n", entry.FileSize)
	return nil
}

func runList(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	server := fs.String("server", defaultServer, "server base URL")
	search := fs.String("search", "", "search term")
	category := fs.String("category", "", "category filter")
	limit := fs.Int("limit", 0, "page size")
	offset := fs.Int("offset", 0, "page offset")
	fs.Parse(args)

	resp, err := client.New(*server).List(ctx, *search, *category, *limit, *offset)
	if err != nil {
		return err
	}

	for _, f := range resp.Files {
		fmt.Printf("%s  %-30s  %-12s  %s  %d downloads\n",
			f.ID, f.Title, f.Category, f.FileSize, f.Downloads)
	}
	fmt.Printf("%d of %d entries", len(resp.Files), resp.Total)
	if resp.HasMore {
		fmt.Print(" (more available)")
	}
	fmt.Println()
	return nil
}

func runDownload(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("download", flag.ExitOnError)
	server := fs.String("server", defaultServer, "server base URL")
	out := fs.String("out", "", "destination path")
	fs.Parse(args)

	if fs.NArg() != 1 || *out == "" {
		return fmt.Errorf("download needs -out and exactly one id")
	}

	n, err := client.New(*server).Download(ctx, fs.Arg(0), *out)
	if err != nil {
		return err
	}
	fmt.Printf("✓ Downloaded %d bytes to %s\n", n, *out)
	return nil
}

func runDelete(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	server := fs.String("server", defaultServer, "server base URL")
	password := fs.String("password", "", "admin password")
	fs.Parse(args)

	if fs.NArg() != 1 {
		return fmt.Errorf("delete needs exactly one id")
	}

	if err := client.New(*server).Delete(ctx, fs.Arg(0), *password); err != nil {
		return err
	}
	fmt.Println("✓ Deleted")
	return nil
}

func runStats(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	server := fs.String("server", defaultServer, "server base URL")
	fs.Parse(args)

	stats, err := client.New(*server).Stats(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("files:           %d\n", stats.TotalFiles)
	fmt.Printf("downloads:       %d\n", stats.TotalDownloads)
	fmt.Printf("visitors today:  %d\n", stats.VisitorsToday)
	return nil
}
