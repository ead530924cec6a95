// Package main measures what recording costs an OTAI caller: N goroutines
// issue get calls through the recording client against the in-memory
// linecard, and the tool reports throughput and call latency.
//
// Usage:
//
//	otairec-bench --dir /tmp/otairec-bench --callers 16 --duration 10s --attrs 8
//	otairec-bench --disabled   # same load with recording off, for a baseline
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"sync"
	"text/tabwriter"
	"time"

	"github.com/otairec/otairec/pkg/client"
	"github.com/otairec/otairec/pkg/otai"
	"github.com/otairec/otairec/pkg/otai/sim"
	"github.com/otairec/otairec/pkg/recorder"
)

type benchConfig struct {
	dir      string
	callers  int
	duration time.Duration
	attrs    int
	sync     bool
	disabled bool
}

// callerResult is what one caller goroutine measured.
type callerResult struct {
	calls    int
	failures int
	lat      []time.Duration
}

func main() {
	var bc benchConfig
	flag.StringVar(&bc.dir, "dir", os.TempDir(), "Directory to record into")
	flag.IntVar(&bc.callers, "callers", 16, "Concurrent callers")
	flag.DurationVar(&bc.duration, "duration", 10*time.Second, "How long to run")
	flag.IntVar(&bc.attrs, "attrs", 8, "Attributes per get call")
	flag.BoolVar(&bc.sync, "sync", false, "fsync after every line")
	flag.BoolVar(&bc.disabled, "disabled", false, "Run with recording off")
	flag.Parse()

	if err := run(bc, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(bc benchConfig, out io.Writer) error {
	rec := recorder.New(recorder.Options{Sync: bc.sync})
	if !rec.SetOutputDirectory(bc.dir) {
		return fmt.Errorf("invalid directory %q", bc.dir)
	}
	rec.SetFilename("otairec-bench." + strconv.Itoa(os.Getpid()) + ".rec")
	rec.Enable(!bc.disabled)
	path := rec.Path()
	defer os.Remove(path)

	c := client.New(sim.New(), rec)
	query := seed(c, bc.callers, bc.attrs)

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "File:\t%s\n", path)
	fmt.Fprintf(tw, "Callers:\t%d\n", bc.callers)
	fmt.Fprintf(tw, "Duration:\t%s\n", bc.duration)
	fmt.Fprintf(tw, "Attributes:\t%d\n", bc.attrs)
	fmt.Fprintf(tw, "Sync:\t%v\n", bc.sync)
	fmt.Fprintf(tw, "Recording:\t%v\n\n", !bc.disabled)
	tw.Flush()

	start := time.Now()
	results := make([]callerResult, bc.callers)
	var wg sync.WaitGroup
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = poll(c, otai.ObjectID(i+1), query, start.Add(bc.duration))
		}(i)
	}
	wg.Wait()
	elapsed := time.Since(start)
	if err := rec.Close(); err != nil {
		return err
	}

	var written int64
	if fi, err := os.Stat(path); err == nil {
		written = fi.Size()
	}
	report(out, results, elapsed, written)
	return nil
}

// seed creates one port per caller and returns the attribute query each
// get will carry.
func seed(c *client.Client, callers, nattrs int) []otai.Attribute {
	attrs := make([]otai.Attribute, nattrs)
	query := make([]otai.Attribute, nattrs)
	for i := range attrs {
		id := otai.AttrID("OTAI_PORT_ATTR_BENCH_" + strconv.Itoa(i))
		attrs[i] = otai.Attribute{ID: id, Value: int32(i)}
		query[i] = otai.Attribute{ID: id}
	}
	ctx := context.Background()
	for i := 0; i < callers; i++ {
		c.Create(ctx, otai.ObjectTypePort, otai.ObjectID(i+1), attrs)
	}
	return query
}

func poll(c *client.Client, id otai.ObjectID, query []otai.Attribute, until time.Time) callerResult {
	ctx := context.Background()
	var r callerResult
	for time.Now().Before(until) {
		t0 := time.Now()
		_, st := c.Get(ctx, otai.ObjectTypePort, id, query)
		r.lat = append(r.lat, time.Since(t0))
		r.calls++
		if !st.Success() {
			r.failures++
		}
	}
	return r
}

func report(out io.Writer, results []callerResult, elapsed time.Duration, written int64) {
	var calls, failures int
	var lat []time.Duration
	for _, r := range results {
		calls += r.calls
		failures += r.failures
		lat = append(lat, r.lat...)
	}
	slices.Sort(lat)

	secs := elapsed.Seconds()
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Elapsed:\t%s\n", elapsed.Truncate(time.Millisecond))
	fmt.Fprintf(tw, "Calls:\t%d\t(%.0f/s)\n", calls, float64(calls)/secs)
	fmt.Fprintf(tw, "Failures:\t%d\n", failures)
	fmt.Fprintf(tw, "Recorded:\t%s\t(%s/s)\n", humanBytes(written), humanBytes(int64(float64(written)/secs)))
	if calls > 0 {
		fmt.Fprintf(tw, "Bytes/call:\t%d\n", written/int64(calls))
	}
	fmt.Fprintln(tw)
	fmt.Fprintf(tw, "Latency\tmean\tp50\tp95\tp99\tmax\n")
	fmt.Fprintf(tw, "\t%s\t%s\t%s\t%s\t%s\n", mean(lat), quantile(lat, .50), quantile(lat, .95), quantile(lat, .99), quantile(lat, 1))
	tw.Flush()
}

func mean(d []time.Duration) time.Duration {
	if len(d) == 0 {
		return 0
	}
	var sum time.Duration
	for _, v := range d {
		sum += v
	}
	return sum / time.Duration(len(d))
}

// quantile returns the nearest-rank q quantile of sorted.
func quantile(sorted []time.Duration, q float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	i := int(q*float64(len(sorted))+0.5) - 1
	return sorted[max(0, min(i, len(sorted)-1))]
}

func humanBytes(n int64) string {
	units := []string{"B", "KB", "MB", "GB", "TB"}
	v := float64(n)
	i := 0
	for v >= 1024 && i < len(units)-1 {
		v /= 1024
		i++
	}
	if i == 0 {
		return fmt.Sprintf("%d B", n)
	}
	return fmt.Sprintf("%.2f %s", v, units[i])
}
