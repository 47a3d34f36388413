package search

import (
	"strings"
	"testing"
)

func TestBuildQuery(t *testing.T) {
	t.Run("No sites leaves query unchanged", func(t *testing.T) {
		got := BuildQuery("golang generics", nil)
		if got != "golang generics" {
			t.Errorf("Expected unchanged query, got %q", got)
		}

		got = BuildQuery("golang generics", []string{})
		if got != "golang generics" {
			t.Errorf("Expected unchanged query with empty slice, got %q", got)
		}
	})

	t.Run("Single site appends one site clause", func(t *testing.T) {
		got := BuildQuery("당화혈색소 정상 수치", []string{"amc.seoul.kr"})

		if !strings.HasSuffix(got, "site:amc.seoul.kr") {
			t.Errorf("Expected query to end with site clause, got %q", got)
		}
		if strings.Count(got, "site:") != 1 {
			t.Errorf("Expected exactly one site clause, got %q", got)
		}
		if strings.Contains(got, "(") {
			t.Errorf("Single site should not be parenthesized, got %q", got)
		}
	})

	t.Run("Multiple sites joined with OR in parentheses", func(t *testing.T) {
		got := BuildQuery("weather", []string{"naver.com", "daum.net", "google.com"})

		want := "weather (site:naver.com OR site:daum.net OR site:google.com)"
		if got != want {
			t.Errorf("Expected %q, got %q", want, got)
		}
		if strings.Count(got, "site:") != 3 {
			t.Errorf("Expected 3 site clauses, got %q", got)
		}
		if strings.Count(got, " OR ") != 2 {
			t.Errorf("Expected 2 OR separators, got %q", got)
		}
	})

	t.Run("Two sites", func(t *testing.T) {
		got := BuildQuery("news", []string{"naver.com", "daum.net"})

		want := "news (site:naver.com OR site:daum.net)"
		if got != want {
			t.Errorf("Expected %q, got %q", want, got)
		}
	})
}
