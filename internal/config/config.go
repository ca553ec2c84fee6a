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

// Package config parses the daemon's command-line flags into a
// server.Config, in the same flat flag.* style camlistored.go uses
// rather than a config-object builder.
package config

import (
	"flag"
	"fmt"
	"time"

	"github.com/tnfsd/tnfsd/internal/server"
)

// Flags holds the registered *flag.* pointers; Resolve turns them into a
// server.Config after flag.Parse has run.
type Flags struct {
	root           *string
	udpAddr        *string
	tcpAddr        *string
	sessionTimeout *time.Duration
	statsInterval  *time.Duration
	maxSessions    *int
	maxPerIP       *int
	enableDirExt   *bool
	verbose        *bool
	configFile     *string
}

// RegisterFlags registers the daemon's flags on the given flag.FlagSet
// (pass flag.CommandLine for the top-level binary) and returns a Flags
// ready for Resolve once the set has been parsed.
func RegisterFlags(fs *flag.FlagSet) *Flags {
	return &Flags{
		root:           fs.String("root", "", "directory to export as the TNFS global root (required unless set in -config)"),
		udpAddr:        fs.String("listen", ":16384", "UDP host:port to listen on"),
		tcpAddr:        fs.String("tcp", "", "optional TCP host:port to also listen on; blank disables TCP"),
		sessionTimeout: fs.Duration("session-timeout", 4*time.Hour, "idle time before a mounted session is swept"),
		statsInterval:  fs.Duration("stats-interval", 60*time.Second, "how often to flush usage counters to the log"),
		maxSessions:    fs.Int("max-sessions", 4096, "maximum concurrently mounted sessions"),
		maxPerIP:       fs.Int("max-sessions-per-ip", 32, "maximum concurrently mounted sessions from one source address"),
		enableDirExt:   fs.Bool("enable-dir-ext", false, "enable the TNFS_DIR_EXT shuffle/reverse/case-fold directory extension"),
		verbose:        fs.Bool("verbose", false, "log a correlation id and summary for every request"),
		configFile:     fs.String("config", "", "optional JSON file overriding the flags above (root, listen, tcp, enableDirExt)"),
	}
}

// Resolve validates the parsed flags, applies an optional -config JSON
// file's overrides, and builds a server.Config. Flag values set
// explicitly on the command line take precedence only in the sense
// that the JSON file is consulted solely for keys it defines; an
// absent key keeps the flag's (possibly default) value.
func (f *Flags) Resolve() (server.Config, error) {
	cfg := server.Config{
		Root:           *f.root,
		UDPAddr:        *f.udpAddr,
		TCPAddr:        *f.tcpAddr,
		SessionTimeout: *f.sessionTimeout,
		StatsInterval:  *f.statsInterval,
		MaxSessions:    *f.maxSessions,
		MaxPerIP:       *f.maxPerIP,
		EnableDirExt:   *f.enableDirExt,
		Verbose:        *f.verbose,
	}

	if *f.configFile != "" {
		obj, err := ReadJSONFile(*f.configFile)
		if err != nil {
			return server.Config{}, err
		}
		cfg.Root = obj.OptionalString("root", cfg.Root)
		cfg.UDPAddr = obj.OptionalString("listen", cfg.UDPAddr)
		cfg.TCPAddr = obj.OptionalString("tcp", cfg.TCPAddr)
		cfg.EnableDirExt = obj.OptionalBool("enableDirExt", cfg.EnableDirExt)
		if err := obj.Validate(); err != nil {
			return server.Config{}, err
		}
	}

	if cfg.Root == "" {
		return server.Config{}, fmt.Errorf("tnfsd: -root is required (directly or via -config)")
	}
	return cfg, nil
}
