// Command judywalk reads newline-delimited keys from stdin, inserts them
// into a judytrie.Map with a synthetic sequential value, then prints the
// map back out in ascending order followed by a summary of which node
// shapes the run ended up using. It exists to exercise the whole engine
// end to end — Open, bulk Cell, ordered traversal, Key reconstruction,
// Close — from a single invocation, and doubles as a smoke-test fixture.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	set3 "github.com/TomTonic/Set3"

	"github.com/judytrie/judytrie"
)

func main() {
	intDepth := flag.Int("int-depth", 0, "treat each input line as this many whitespace-separated uint64 words instead of a string key")
	maxKeyBytes := flag.Int("max-key-bytes", 0, "maximum string key length (0 = engine default)")
	flag.Parse()

	if err := run(*intDepth, *maxKeyBytes, os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "judywalk:", err)
		os.Exit(1)
	}
}

func run(intDepth, maxKeyBytes int, stdin io.Reader, stdout, stderr io.Writer) error {
	m, err := judytrie.Open(judytrie.Options{MaxKeyBytes: maxKeyBytes, IntDepth: intDepth})
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	defer m.Close()

	// reportedShapes tracks which node-shape buckets this run has already
	// announced as newly populated, so a long run doesn't re-announce
	// "lin4 now in use" on every insert after the first. A plain Set3 of
	// shape names is the whole job; nothing here needs ordering or value
	// payloads, just fast membership.
	reportedShapes := set3.Empty[string]()

	n := 0
	scanner := bufio.NewScanner(stdin)
	scanner.Buffer(make([]byte, 64*1024), 1<<20)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		key, err := lineToKey(line, intDepth)
		if err != nil {
			return fmt.Errorf("line %d: %w", n+1, err)
		}
		cell, err := m.Cell(key)
		if err != nil {
			return fmt.Errorf("insert %q: %w", line, err)
		}
		n++
		*cell = uint64(n)

		announceNewShapes(m, reportedShapes, stderr)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	printOrdered(m, stdout, maxKeyBytes, intDepth)

	fmt.Fprintf(stdout, "# %d keys inserted\n", n)
	for shape, count := range m.ShapeCounts() {
		if count > 0 {
			fmt.Fprintf(stdout, "# shape %-6s %d\n", shape, count)
		}
	}
	return nil
}

func lineToKey(line string, intDepth int) ([]byte, error) {
	if intDepth <= 0 {
		return judytrie.StringKey(line), nil
	}
	fields := strings.Fields(line)
	if len(fields) != intDepth {
		return nil, fmt.Errorf("expected %d words, got %d", intDepth, len(fields))
	}
	words := make([]uint64, intDepth)
	for i, f := range fields {
		v, err := strconv.ParseUint(f, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("word %d: %w", i, err)
		}
		words[i] = v
	}
	return judytrie.Uint64Key(words...), nil
}

func announceNewShapes(m *judytrie.Map, reported *set3.Set3[string], stderr io.Writer) {
	for shape, count := range m.ShapeCounts() {
		if count == 0 || reported.Contains(shape) {
			continue
		}
		reported.Add(shape)
		fmt.Fprintf(stderr, "judywalk: shape %q now in use\n", shape)
	}
}

func printOrdered(m *judytrie.Map, stdout io.Writer, maxKeyBytes, intDepth int) {
	bufLen := maxKeyBytes
	if intDepth > 0 {
		bufLen = intDepth * 8
	}
	if bufLen <= 0 {
		bufLen = 4096
	}
	buf := make([]byte, bufLen)

	cell, ok := m.StartAt(nil)
	for ok {
		n, _ := m.Key(buf)
		key := buf[:n]
		if intDepth > 0 {
			fmt.Fprintf(stdout, "%v\t%d\n", judytrie.Uint64sFromKey(key), *cell)
		} else {
			fmt.Fprintf(stdout, "%s\t%d\n", key, *cell)
		}
		cell, ok = m.Next()
	}
}
