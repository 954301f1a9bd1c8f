package runner

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"regexp"
	"sort"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

type Stats struct {
	Commits int64
	Counts  map[string][]*statCount
}

func (s *Stats) Add(bucket, name string, n int64) {
	counts := s.Counts[bucket]
	count, found := s.findCount(name, counts)
	if !found {
		counts = append(counts, count)
	}
	count.Add(n)

	s.Counts[bucket] = counts
}

// Count returns the count for name in bucket.
func (s *Stats) Count(bucket, name string) int64 {
	if c, ok := s.findCount(name, s.Counts[bucket]); ok {
		return c.n
	}
	return 0
}

func (s *Stats) findCount(name string, counts []*statCount) (*statCount, bool) {
	for _, c := range counts {
		if c.label == name {
			return c, true
		}
	}
	return &statCount{label: name}, false
}

func (s *Stats) sortedBuckets() []string {
	buckets := make([]string, 0, len(s.Counts))
	for name := range s.Counts {
		buckets = append(buckets, name)
	}
	sort.Strings(buckets)
	return buckets
}

type statCount struct {
	label string
	n     int64
}

func (c *statCount) Add(n int64) {
	c.n += n
}

func (s *Stats) TextSummary(w io.Writer) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%d commits\n\n", s.Commits)

	for _, name := range s.sortedBuckets() {
		counts := s.Counts[name]
		sort.SliceStable(counts, func(i, j int) bool {
			if counts[i].n == counts[j].n {
				return counts[i].label < counts[j].label
			}
			return counts[i].n > counts[j].n
		})
		fmt.Fprintf(bw, "%s:\n", toTitle(name))
		for _, count := range counts {
			label := count.label
			if label == "" {
				label = "n/a"
			}
			fmt.Fprintf(bw, "  %20s\t\t%d\n", label, count.n)
		}
		bw.WriteString("\n")
	}
	return bw.Flush()
}

// Stats counts every commit in the history by scope, type and bump.
func (r *Runner) Stats(ctx context.Context) (*Stats, error) {
	commits, err := r.vcs.ReadCommits(ctx, r.cfg.BaseRef, "")
	if err != nil {
		return nil, err
	}
	stats := &Stats{
		Commits: int64(len(commits)),
		Counts:  make(map[string][]*statCount),
	}

	for _, ac := range r.classifier.ClassifyCommits(commits) {
		stats.Add("scope", ac.Scope, 1)
		stats.Add("commit_type", ac.Type, 1)
		stats.Add("bump", ac.ReleaseBump().String(), 1)
	}
	return stats, nil
}

var nonAlphaRE = regexp.MustCompile(`[^A-Za-z]`)

func toTitle(s string) string {
	s = nonAlphaRE.ReplaceAllLiteralString(s, " ")
	return cases.Title(language.English).String(s)
}
