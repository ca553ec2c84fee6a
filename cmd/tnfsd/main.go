/*
Copyright 2026 The TNFS Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

     http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// The tnfsd binary serves one TNFS global root over UDP (and
// optionally TCP).
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/tnfsd/tnfsd/internal/config"
	"github.com/tnfsd/tnfsd/internal/server"
)

func main() {
	os.Exit(run())
}

func run() int {
	flags := config.RegisterFlags(flag.CommandLine)
	flag.Parse()

	cfg, err := flags.Resolve()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		flag.Usage()
		return 2
	}

	fi, err := os.Stat(cfg.Root)
	if err != nil || !fi.IsDir() {
		fmt.Fprintf(os.Stderr, "tnfsd: -root %q is not a directory\n", cfg.Root)
		return 2
	}

	logger := log.New(os.Stderr, "tnfsd: ", log.LstdFlags)
	srv := server.New(cfg, logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger.Printf("serving %s on udp %s", cfg.Root, cfg.UDPAddr)
	if err := srv.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Printf("fatal: %v", err)
		return 1
	}
	return 0
}
