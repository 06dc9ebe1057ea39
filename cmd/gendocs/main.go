package main

import (
	"flag"
	"log"
	"os"

	"github.com/lu-zhengda/reclaim/internal/cli"
	"github.com/spf13/cobra/doc"
)

func main() {
	dir := flag.String("dir", "./docs/man", "output directory for man pages")
	markdown := flag.Bool("markdown", false, "write markdown instead of man pages")
	flag.Parse()

	if err := os.MkdirAll(*dir, 0o755); err != nil {
		log.Fatal(err)
	}
	root := cli.RootCmd()
	root.DisableAutoGenTag = true

	if *markdown {
		if err := doc.GenMarkdownTree(root, *dir); err != nil {
			log.Fatal(err)
		}
		return
	}
	header := &doc.GenManHeader{
		Title:   "RECLAIM",
		Section: "1",
	}
	if err := doc.GenManTree(root, header, *dir); err != nil {
		log.Fatal(err)
	}
}
