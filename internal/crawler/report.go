package crawler

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

func sortStrings(s []string) {
	sort.Strings(s)
}

func sortFailedURLs(urls []FailedURL) {
	sort.Slice(urls, func(i, j int) bool { return urls[i].URL < urls[j].URL })
}

func sortFailedGroups(groups []FailedGroup) {
	sort.Slice(groups, func(i, j int) bool { return groups[i].Error < groups[j].Error })
}

// WriteDiscovered writes one ASCII-sorted URL per line, terminated by
// a newline, to path.
func WriteDiscovered(path string, urls []string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return writeDiscovered(f, urls)
}

func writeDiscovered(w io.Writer, urls []string) error {
	sorted := append([]string(nil), urls...)
	sortStrings(sorted)
	bw := bufio.NewWriter(w)
	for _, u := range sorted {
		if _, err := fmt.Fprintln(bw, u); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// failedYAMLURL and failedYAMLEntry mirror the output shape from
// spec §6 exactly, including the empty-referrers-as-[] requirement,
// which yaml.v3 gives us for free on a non-nil empty slice.
type failedYAMLURL struct {
	URL       string   `yaml:"url"`
	Referrers []string `yaml:"referrers"`
}

type failedYAMLEntry struct {
	Error string          `yaml:"error"`
	URLs  []failedYAMLURL `yaml:"urls"`
}

// WriteFailedYAML writes the failed-URLs report to path, sorted by
// error string then URL, with referrers sorted ASCII.
func WriteFailedYAML(path string, groups []FailedGroup) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return writeFailedYAML(f, groups)
}

func writeFailedYAML(w io.Writer, groups []FailedGroup) error {
	entries := make([]failedYAMLEntry, 0, len(groups))
	for _, g := range groups {
		urls := make([]failedYAMLURL, 0, len(g.URLs))
		for _, u := range g.URLs {
			referrers := append([]string{}, u.Referrers...)
			sortStrings(referrers)
			urls = append(urls, failedYAMLURL{URL: u.URL, Referrers: referrers})
		}
		sort.Slice(urls, func(i, j int) bool { return urls[i].URL < urls[j].URL })
		entries = append(entries, failedYAMLEntry{Error: g.Error, URLs: urls})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Error < entries[j].Error })

	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(entries)
}
