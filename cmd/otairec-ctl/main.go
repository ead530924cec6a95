// Package main provides the otairec-ctl CLI for recording control and
// offline inspection of recording files.
//
// Usage:
//
//	otairec-ctl status   [--addr host:port]
//	otairec-ctl enable   [--addr host:port]
//	otairec-ctl disable  [--addr host:port]
//	otairec-ctl stats    on|off [--addr host:port]
//	otairec-ctl alarms   on|off [--addr host:port]
//	otairec-ctl set-dir  <directory> [--addr host:port]
//	otairec-ctl set-file <filename> [--addr host:port]
//	otairec-ctl rotate   [--addr host:port]
//	otairec-ctl segments [--addr host:port] [--format table|csv]
//	otairec-ctl archive  [--addr host:port]
//	otairec-ctl fetch    <remote path> [--addr host:port] [-o file]
//	otairec-ctl audit    [--addr host:port] [--limit N]
//	otairec-ctl inspect  <file>...
//	otairec-ctl verify   <file>...
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/otairec/otairec/pkg/control"
	"github.com/otairec/otairec/pkg/inspect"
	"github.com/otairec/otairec/pkg/recorder"
	"github.com/otairec/otairec/pkg/state"
)

const defaultAddr = "127.0.0.1:7070"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

type command struct {
	summary string
	run     func(args []string, stdout, stderr io.Writer) int
}

var commands = map[string]command{
	"status":   {"Show recorder settings and writer state", runStatus},
	"enable":   {"Turn recording on", runToggle("enable", "/api/v1/recording/enabled", true)},
	"disable":  {"Turn recording off", runToggle("disable", "/api/v1/recording/enabled", false)},
	"stats":    {"Record or skip statistics calls (on|off)", runSwitch("stats", "/api/v1/recording/stats")},
	"alarms":   {"Record or skip alarm notifications (on|off)", runSwitch("alarms", "/api/v1/recording/alarms")},
	"set-dir":  {"Change the recording directory", runTarget("set-dir", "/api/v1/recording/directory", "directory")},
	"set-file": {"Change the recording file name", runTarget("set-file", "/api/v1/recording/filename", "filename")},
	"rotate":   {"Close and reopen the recording file", runRotate},
	"segments": {"List archived segments from the local ledger", runSegments},
	"archive":  {"List segments held by the archive backend", runArchive},
	"fetch":    {"Download an archived segment", runFetch},
	"audit":    {"Show recent operator changes", runAudit},
	"inspect":  {"Count lines per tag in recording files", runInspect},
	"verify":   {"Check recording files parse and pair", runVerify},
}

var order = []string{"status", "enable", "disable", "stats", "alarms", "set-dir", "set-file", "rotate", "segments", "archive", "fetch", "audit", "inspect", "verify"}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		printUsage(stderr)
		return 1
	}
	switch args[0] {
	case "help", "--help", "-h":
		printUsage(stderr)
		return 0
	}
	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(stderr, "Unknown command: %s\n\n", args[0])
		printUsage(stderr)
		return 1
	}
	return cmd.run(args[1:], stdout, stderr)
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, "otairec-ctl: OTAI call recorder admin CLI\n\n")
	fmt.Fprint(w, "Usage:\n")
	fmt.Fprint(w, "  otairec-ctl <command> [flags]\n\n")
	fmt.Fprint(w, "Commands:\n")
	for _, name := range order {
		fmt.Fprintf(w, "  %-9s %s\n", name, commands[name].summary)
	}
	fmt.Fprint(w, "\nUse \"otairec-ctl <command> --help\" for more information about a command.\n")
}

// newFlagSet returns a flag set with the shared --addr flag.
func newFlagSet(name, usage string, stderr io.Writer) (*flag.FlagSet, *string) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	addr := fs.String("addr", envOr("OTAIREC_ADDR", defaultAddr), "Control API address")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: otairec-ctl %s\n\nFlags:\n", usage)
		fs.PrintDefaults()
	}
	return fs, addr
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// parseInterleaved parses flags that may appear before or after the
// positional arguments.
func parseInterleaved(fs *flag.FlagSet, args []string) ([]string, error) {
	var pos []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		if fs.NArg() == 0 {
			return pos, nil
		}
		pos = append(pos, fs.Arg(0))
		args = fs.Args()[1:]
	}
}

func runStatus(args []string, stdout, stderr io.Writer) int {
	fs, addr := newFlagSet("status", "status [flags]", stderr)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	var st recorder.Status
	if err := newAPIClient(*addr).do("GET", "/api/v1/recording", nil, &st); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	printStatus(stdout, st)
	return 0
}

func printStatus(w io.Writer, st recorder.Status) {
	fmt.Fprintln(w, "Recorder")
	fmt.Fprintln(w, "────────────────────────────────────")
	fmt.Fprintf(w, "Enabled:        %v\n", st.Enabled)
	fmt.Fprintf(w, "Record stats:   %v\n", st.RecordStats)
	fmt.Fprintf(w, "Record alarms:  %v\n", st.RecordAlarms)
	fmt.Fprintf(w, "Path:           %s\n", st.Path)
	if st.OpenPath != "" && st.OpenPath != st.Path {
		fmt.Fprintf(w, "Open file:      %s\n", st.OpenPath)
	}
	fmt.Fprintf(w, "Writer:         %s\n", st.State)
	if st.RotatePending {
		fmt.Fprintln(w, "Rotation:       pending")
	}
	fmt.Fprintln(w, "────────────────────────────────────")
}

func runToggle(name, path string, value bool) func([]string, io.Writer, io.Writer) int {
	return func(args []string, stdout, stderr io.Writer) int {
		fs, addr := newFlagSet(name, name+" [flags]", stderr)
		if err := fs.Parse(args); err != nil {
			return 2
		}
		return put(*addr, path, map[string]bool{"enabled": value}, stdout, stderr)
	}
}

func runSwitch(name, path string) func([]string, io.Writer, io.Writer) int {
	return func(args []string, stdout, stderr io.Writer) int {
		fs, addr := newFlagSet(name, name+" on|off [flags]", stderr)
		pos, err := parseInterleaved(fs, args)
		if err != nil {
			return 2
		}
		if len(pos) != 1 {
			fs.Usage()
			return 2
		}
		var value bool
		switch pos[0] {
		case "on":
			value = true
		case "off":
			value = false
		default:
			b, err := strconv.ParseBool(pos[0])
			if err != nil {
				fmt.Fprintf(stderr, "Error: expected on or off, got %q\n", pos[0])
				return 2
			}
			value = b
		}
		return put(*addr, path, map[string]bool{"enabled": value}, stdout, stderr)
	}
}

func runTarget(name, path, field string) func([]string, io.Writer, io.Writer) int {
	return func(args []string, stdout, stderr io.Writer) int {
		fs, addr := newFlagSet(name, name+" <"+field+"> [flags]", stderr)
		pos, err := parseInterleaved(fs, args)
		if err != nil {
			return 2
		}
		if len(pos) != 1 {
			fs.Usage()
			return 2
		}
		return put(*addr, path, map[string]string{field: pos[0]}, stdout, stderr)
	}
}

func put(addr, path string, body any, stdout, stderr io.Writer) int {
	var st recorder.Status
	if err := newAPIClient(addr).do("PUT", path, body, &st); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	printStatus(stdout, st)
	return 0
}

func runRotate(args []string, stdout, stderr io.Writer) int {
	fs, addr := newFlagSet("rotate", "rotate [flags]", stderr)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	var st recorder.Status
	if err := newAPIClient(*addr).do("POST", "/api/v1/recording/rotate", nil, &st); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	fmt.Fprintln(stdout, "Rotation requested; the file is reopened on the next recorded call.")
	return 0
}

func runSegments(args []string, stdout, stderr io.Writer) int {
	fs, addr := newFlagSet("segments", "segments [flags]", stderr)
	format := fs.String("format", "table", "Output format: table, csv")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	var segs []state.Segment
	if err := newAPIClient(*addr).do("GET", "/api/v1/segments", nil, &segs); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	switch *format {
	case "csv":
		w := csv.NewWriter(stdout)
		w.Write([]string{"uploaded_at", "local", "remote", "bytes", "compressed"})
		for _, s := range segs {
			w.Write([]string{s.UploadedAt.Format("2006-01-02 15:04:05"), s.Local, s.Remote,
				strconv.FormatInt(s.Size, 10), strconv.FormatBool(s.Compressed)})
		}
		w.Flush()
	default:
		fmt.Fprintln(stdout, "Archived Segments")
		fmt.Fprintln(stdout, "────────────────────────────────────────────────────────────")
		fmt.Fprintf(stdout, "%-20s %10s  %s\n", "UPLOADED", "BYTES", "REMOTE")
		fmt.Fprintln(stdout, "────────────────────────────────────────────────────────────")
		for _, s := range segs {
			fmt.Fprintf(stdout, "%-20s %10s  %s\n", s.UploadedAt.Format("2006-01-02 15:04:05"), humanBytes(s.Size), s.Remote)
		}
		if len(segs) == 0 {
			fmt.Fprintln(stdout, "  (no segments archived)")
		}
		fmt.Fprintln(stdout, "────────────────────────────────────────────────────────────")
	}
	return 0
}

func runArchive(args []string, stdout, stderr io.Writer) int {
	fs, addr := newFlagSet("archive", "archive [flags]", stderr)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	var objs []control.RemoteSegment
	if err := newAPIClient(*addr).do("GET", "/api/v1/archive", nil, &objs); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	var total int64
	for _, o := range objs {
		fmt.Fprintf(stdout, "%10s  %s\n", humanBytes(o.Size), o.Path)
		total += o.Size
	}
	fmt.Fprintf(stdout, "%d objects, %s\n", len(objs), humanBytes(total))
	return 0
}

func runFetch(args []string, stdout, stderr io.Writer) int {
	fs, addr := newFlagSet("fetch", "fetch <remote path> [flags]", stderr)
	output := fs.String("o", "", "Write to this file instead of stdout")
	pos, err := parseInterleaved(fs, args)
	if err != nil {
		return 2
	}
	if len(pos) != 1 {
		fs.Usage()
		return 2
	}

	var w io.Writer = stdout
	if *output != "" {
		f, err := os.Create(*output)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		defer f.Close()
		w = f
	}
	remote := strings.TrimPrefix(pos[0], "/")
	if err := newAPIClient(*addr).do("GET", "/api/v1/archive/"+remote, nil, w); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		if *output != "" {
			os.Remove(*output)
		}
		return 1
	}
	return 0
}

func runAudit(args []string, stdout, stderr io.Writer) int {
	fs, addr := newFlagSet("audit", "audit [flags]", stderr)
	limit := fs.Int("limit", 20, "Entries to show (0 for all)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	var entries []control.AuditEntry
	path := "/api/v1/audit?limit=" + strconv.Itoa(*limit)
	if err := newAPIClient(*addr).do("GET", path, nil, &entries); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if len(entries) == 0 {
		fmt.Fprintln(stdout, "(no changes)")
		return 0
	}
	for _, e := range entries {
		result := "ok"
		if !e.Success {
			result = "REJECTED"
		}
		fmt.Fprintf(stdout, "%s  %-22s %-14s %-8s %s\n",
			e.Timestamp.Local().Format("2006-01-02 15:04:05"), e.Remote, e.Action, result, e.Value)
	}
	return 0
}

func scanFiles(name string, args []string, stderr io.Writer) (*inspect.Report, int) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: otairec-ctl %s <file>...\n\nFiles are read in the order given; .zst segments are decompressed.\n", name)
	}
	if err := fs.Parse(args); err != nil {
		return nil, 2
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return nil, 2
	}
	r := inspect.NewReport()
	for _, path := range fs.Args() {
		if err := r.ScanFile(path); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return nil, 1
		}
	}
	return r, 0
}

func runInspect(args []string, stdout, stderr io.Writer) int {
	r, code := scanFiles("inspect", args, stderr)
	if r == nil {
		return code
	}
	fmt.Fprintf(stdout, "Lines:     %d\n", r.Lines)
	if !r.First.IsZero() {
		fmt.Fprintf(stdout, "First:     %s\n", recorder.Timestamp(r.First))
		fmt.Fprintf(stdout, "Last:      %s\n", recorder.Timestamp(r.Last))
	}
	fmt.Fprintf(stdout, "Malformed: %d\n\n", len(r.Malformed))
	fmt.Fprintf(stdout, "%-4s %-40s %8s\n", "TAG", "FAMILY", "LINES")
	for _, t := range r.SortedTags() {
		kind := "request"
		if t.IsResponse() {
			kind = "response"
		}
		fmt.Fprintf(stdout, "%-4s %-40s %8d\n", t, t.Family().String()+" "+kind, r.Tags[t])
	}
	return 0
}

func runVerify(args []string, stdout, stderr io.Writer) int {
	r, code := scanFiles("verify", args, stderr)
	if r == nil {
		return code
	}
	for _, e := range r.Malformed {
		fmt.Fprintf(stdout, "malformed  %s\n", e)
	}
	for _, e := range r.Orphans {
		fmt.Fprintf(stdout, "orphan     %s\n", e)
	}
	for _, e := range r.Backwards {
		fmt.Fprintf(stdout, "backwards  %s\n", e)
	}
	for f, n := range r.Unanswered {
		fmt.Fprintf(stdout, "unanswered %d %s request(s) at end of recording\n", n, f)
	}
	if !r.OK() {
		fmt.Fprintf(stdout, "FAIL: %d lines, %d malformed, %d orphan responses\n", r.Lines, len(r.Malformed), len(r.Orphans))
		return 1
	}
	fmt.Fprintf(stdout, "OK: %d lines\n", r.Lines)
	return 0
}

func humanBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	suffix := []string{"KB", "MB", "GB", "TB", "PB"}
	return fmt.Sprintf("%.2f %s", float64(b)/float64(div), suffix[exp])
}
