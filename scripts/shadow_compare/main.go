// Command shadow_compare replays read-only vision requests against the legacy
// deployment and this service, and reports contract differences.
package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type target struct {
	Name     string            `yaml:"name"`
	Method   string            `yaml:"method"`
	Path     string            `yaml:"path"`
	Form     map[string]string `yaml:"form"`
	Critical bool              `yaml:"critical"`
	// Ignore lists dotted JSON paths whose values may legitimately differ,
	// such as computed ages near a birthday. The key must still be present.
	Ignore []string `yaml:"ignore"`
}

type targetFile struct {
	Targets []target `yaml:"targets"`
}

type comparison struct {
	Target         target
	LegacyStatus   int
	GoStatus       int
	StatusMatch    bool
	Diffs          []string
	Error          error
	DurationGo     time.Duration
	DurationLegacy time.Duration
}

func (c comparison) failed() bool {
	return c.Error != nil || !c.StatusMatch || len(c.Diffs) > 0
}

func main() {
	var (
		goBase      string
		legacyBase  string
		targetsPath string
		timeout     time.Duration
	)

	flag.StringVar(&goBase, "go-base", "http://localhost:8080", "Go API base URL")
	flag.StringVar(&legacyBase, "legacy-base", "http://localhost:8000", "Legacy API base URL")
	flag.StringVar(&targetsPath, "targets", filepath.Join("scripts", "shadow_compare", "targets.yaml"), "Path to YAML targets file")
	flag.DurationVar(&timeout, "timeout", 5*time.Second, "HTTP client timeout")
	flag.Parse()

	targets, err := loadTargets(targetsPath)
	if err != nil {
		log.Fatalf("failed to load targets: %v", err)
	}

	client := &http.Client{Timeout: timeout}
	var (
		comparisons  []comparison
		breaking     int
		optionalDiff int
	)
	for _, t := range targets {
		comp := compareTarget(client, goBase, legacyBase, t)
		if comp.failed() {
			if t.Critical {
				breaking++
			} else {
				optionalDiff++
			}
		}
		comparisons = append(comparisons, comp)
	}

	printReport(os.Stdout, comparisons)
	fmt.Printf("Breaking diffs: %d, Optional diffs: %d\n", breaking, optionalDiff)
	if breaking > 0 {
		os.Exit(1)
	}
}

func loadTargets(path string) ([]target, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var file targetFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(file.Targets) == 0 {
		return nil, fmt.Errorf("no targets defined in %s", path)
	}
	for i := range file.Targets {
		t := &file.Targets[i]
		t.Method = strings.ToUpper(strings.TrimSpace(t.Method))
		if t.Method == "" {
			t.Method = http.MethodGet
		}
		if t.Method != http.MethodGet && !(t.Method == http.MethodPost && strings.HasSuffix(t.Path, "/check")) {
			return nil, fmt.Errorf("target %q: only GET and POST /api/check are safe to replay", t.Path)
		}
	}
	return file.Targets, nil
}

func compareTarget(client *http.Client, goBase, legacyBase string, tgt target) comparison {
	comp := comparison{Target: tgt}
	goStatus, goBody, goDur, goErr := performRequest(client, goBase, tgt)
	legacyStatus, legacyBody, legacyDur, legacyErr := performRequest(client, legacyBase, tgt)
	comp.DurationGo = goDur
	comp.DurationLegacy = legacyDur

	if goErr != nil {
		comp.Error = fmt.Errorf("go request failed: %w", goErr)
		return comp
	}
	if legacyErr != nil {
		comp.Error = fmt.Errorf("legacy request failed: %w", legacyErr)
		return comp
	}

	comp.GoStatus = goStatus
	comp.LegacyStatus = legacyStatus
	comp.StatusMatch = goStatus == legacyStatus
	comp.Diffs = diffBodies(legacyBody, goBody, tgt.Ignore)
	return comp
}

func performRequest(client *http.Client, base string, tgt target) (int, []byte, time.Duration, error) {
	if client == nil {
		return 0, nil, 0, errors.New("nil client")
	}
	path := tgt.Path
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	endpoint := strings.TrimRight(base, "/") + path

	var body io.Reader
	if len(tgt.Form) > 0 {
		values := url.Values{}
		for k, v := range tgt.Form {
			values.Set(k, v)
		}
		body = strings.NewReader(values.Encode())
	}
	req, err := http.NewRequest(tgt.Method, endpoint, body)
	if err != nil {
		return 0, nil, 0, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, 0, err
	}
	defer resp.Body.Close() //nolint:errcheck
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, time.Since(start), fmt.Errorf("read body: %w", err)
	}
	return resp.StatusCode, data, time.Since(start), nil
}

// diffBodies returns the dotted paths where the two JSON documents differ.
// Non-JSON bodies are compared byte for byte.
func diffBodies(legacy, current []byte, ignore []string) []string {
	if bytes.Equal(bytes.TrimSpace(legacy), bytes.TrimSpace(current)) {
		return nil
	}
	var lj, cj interface{}
	if json.Unmarshal(legacy, &lj) != nil || json.Unmarshal(current, &cj) != nil {
		return []string{"<body>"}
	}
	skip := make(map[string]struct{}, len(ignore))
	for _, p := range ignore {
		skip[p] = struct{}{}
	}
	var diffs []string
	walk("", normalize(lj), normalize(cj), skip, &diffs)
	sort.Strings(diffs)
	return diffs
}

func walk(path string, a, b interface{}, skip map[string]struct{}, diffs *[]string) {
	am, aok := a.(map[string]interface{})
	bm, bok := b.(map[string]interface{})
	if aok && bok {
		keys := make(map[string]struct{}, len(am)+len(bm))
		for k := range am {
			keys[k] = struct{}{}
		}
		for k := range bm {
			keys[k] = struct{}{}
		}
		for k := range keys {
			child := k
			if path != "" {
				child = path + "." + k
			}
			av, ain := am[k]
			bv, bin := bm[k]
			switch {
			case !ain:
				*diffs = append(*diffs, child+" (extra)")
			case !bin:
				*diffs = append(*diffs, child+" (missing)")
			default:
				if _, ignored := skip[child]; !ignored {
					walk(child, av, bv, skip, diffs)
				}
			}
		}
		return
	}
	if !reflect.DeepEqual(a, b) {
		if path == "" {
			path = "<root>"
		}
		*diffs = append(*diffs, path)
	}
}

func normalize(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		for k, child := range val {
			val[k] = normalize(child)
		}
		return val
	case []interface{}:
		for i, child := range val {
			val[i] = normalize(child)
		}
		return val
	case float64:
		if val == float64(int64(val)) {
			return int64(val)
		}
	}
	return v
}

func printReport(w io.Writer, results []comparison) {
	fmt.Fprintln(w, "Shadow Compare Report")
	fmt.Fprintln(w, "======================")
	for _, res := range results {
		status := "OK"
		if res.Error != nil {
			status = "ERROR"
		} else if res.failed() {
			status = "DIFF"
		}
		label := res.Target.Name
		if label == "" {
			label = res.Target.Method + " " + res.Target.Path
		}
		fmt.Fprintf(w, "[%s] %s\n", status, label)
		fmt.Fprintf(w, "  Go Status: %d (%s)\n", res.GoStatus, res.DurationGo)
		fmt.Fprintf(w, "  Legacy Status: %d (%s)\n", res.LegacyStatus, res.DurationLegacy)
		if res.Error != nil {
			fmt.Fprintf(w, "  Error: %v\n", res.Error)
			continue
		}
		fmt.Fprintf(w, "  Status match: %t | Critical: %t\n", res.StatusMatch, res.Target.Critical)
		for _, d := range res.Diffs {
			fmt.Fprintf(w, "  - %s\n", d)
		}
	}
}
