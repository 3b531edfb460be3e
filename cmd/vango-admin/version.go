package main

import (
	"fmt"
	"io"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// build describes the running binary.
type build struct {
	version   string
	commit    string
	date      string
	goVersion string
	dirty     bool
}

// readBuild takes the -ldflags values and fills what they leave at their
// defaults from the module and VCS data embedded by the go tool.
func readBuild(read func() (*debug.BuildInfo, bool)) build {
	b := build{version: version, commit: commit, date: date, goVersion: runtime.Version()}
	bi, ok := read()
	if !ok {
		return b
	}
	if bi.GoVersion != "" {
		b.goVersion = bi.GoVersion
	}
	if b.version == "dev" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		b.version = bi.Main.Version
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if b.commit == "none" {
				b.commit = s.Value
				if len(b.commit) > 12 {
					b.commit = b.commit[:12]
				}
			}
		case "vcs.time":
			if b.date == "unknown" {
				b.date = s.Value
			}
		case "vcs.modified":
			b.dirty = s.Value == "true"
		}
	}
	return b
}

func (b build) print(w io.Writer) {
	commit := b.commit
	if b.dirty {
		commit += " (modified)"
	}
	fmt.Fprintf(w, "vango-admin %s\n", b.version)
	fmt.Fprintf(w, "  Commit:     %s\n", commit)
	fmt.Fprintf(w, "  Built:      %s\n", b.date)
	fmt.Fprintf(w, "  Go version: %s\n", b.goVersion)
	fmt.Fprintf(w, "  OS/Arch:    %s/%s\n", runtime.GOOS, runtime.GOARCH)
}

func versionCmd() *cobra.Command {
	var short bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			b := readBuild(debug.ReadBuildInfo)
			if short {
				fmt.Fprintln(cmd.OutOrStdout(), b.version)
				return
			}
			b.print(cmd.OutOrStdout())
		},
	}

	cmd.Flags().BoolVarP(&short, "short", "s", false, "Print only version number")
	return cmd
}
