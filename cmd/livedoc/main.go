/*
Command livedoc serves live documents over HTTP.

	livedoc serve [--config=<file>] [--address=<addr>]
	livedoc check [--tree] <file>

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/docopt/docopt-go"
	"github.com/npillmayer/livedoc/api"
	"github.com/npillmayer/livedoc/config"
	"github.com/npillmayer/livedoc/document"
	"github.com/npillmayer/livedoc/replication"
	"github.com/npillmayer/livedoc/tree/treedbg"
	"github.com/npillmayer/schuko/tracing"
)

const version = "0.1.0"

const usage = `Live document server.

Usage:
    livedoc serve [--config=<file>] [--address=<addr>]
    livedoc check [--tree] <file>
    livedoc -h | --help
    livedoc --version

Options:
    -h --help            Show this screen.
    --version            Show version.
    --config=<file>      Configuration file (YAML).
    --address=<addr>     Listen address, overrides server.address.
    --tree               Print the element tree.
`

func tracer() tracing.Trace {
	return tracing.Select("livedoc")
}

func main() {
	opts, err := docopt.ParseArgs(usage, os.Args[1:], version)
	if err != nil {
		panic(err)
	}
	if serve, _ := opts.Bool("serve"); serve {
		err = runServer(opts)
	} else if check, _ := opts.Bool("check"); check {
		err = runCheck(opts)
	} else {
		docopt.PrintHelpAndExit(nil, usage)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "livedoc: %v\n", err)
		os.Exit(1)
	}
}

func runServer(opts docopt.Opts) error {
	file, _ := opts.String("--config")
	conf, err := config.Load(file)
	if err != nil {
		return err
	}
	if address, _ := opts.String("--address"); address != "" {
		conf.Set("server.address", address)
	}
	if err := config.SetupTracing(conf); err != nil {
		return err
	}
	registry := api.NewRegistry(
		replication.WithTransport(replication.NewHTTPTransport(conf.ForwardTimeout())),
		replication.WithParallel(conf.ForwardParallel()),
	)
	// handle Ctrl+C for graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	errorCallback := func(err error) {
		tracer().Errorf("error running server: %v", err)
		c <- syscall.SIGTERM
	}
	server, err := api.Start(conf.ServerAddress(), registry, errorCallback)
	if err != nil {
		return err
	}
	<-c
	tracer().Infof("exiting...")
	return server.Stop()
}

// runCheck loads a document and reports its size, failing for malformed
// documents.
func runCheck(opts docopt.Opts) error {
	file, _ := opts.String("<file>")
	doc := document.New()
	if err := doc.LoadURL(context.Background(), file); err != nil {
		return err
	}
	fmt.Printf("%s: %s\n", file, doc.Dump())
	if printTree, _ := opts.Bool("--tree"); printTree {
		return doc.View(func(tx *document.Tx) error {
			fmt.Print(treedbg.Print(tx.Root()))
			return nil
		})
	}
	return nil
}
